package scan

import (
	"bufio"
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ruvnet/agentic-security/internal/severity"
)

// Vulnerability taxonomy for static pattern matching. Each category carries
// the regexes that flag it and the severity tier a hit is reported at.
var categoryPatterns = map[string][]*regexp.Regexp{
	"sql_injection": {
		regexp.MustCompile(`(?i)execute(many)?\s*\(\s*f?["']`),
		regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE)\b[^\n;]*(\+|%s|\|\|)`),
	},
	"command_injection": {
		regexp.MustCompile(`os\.system\s*\(`),
		regexp.MustCompile(`subprocess\.(call|run|Popen)\s*\([^)\n]*shell\s*=\s*True`),
		regexp.MustCompile(`\beval\s*\(`),
		regexp.MustCompile(`\bexec\s*\(`),
	},
	"xss": {
		regexp.MustCompile(`innerHTML\s*=`),
		regexp.MustCompile(`document\.write\s*\(`),
		regexp.MustCompile(`render_template_string\s*\(`),
	},
	"weak_crypto": {
		regexp.MustCompile(`(?i)\bmd5\b`),
		regexp.MustCompile(`(?i)\bsha1\b`),
		regexp.MustCompile(`(?i)\b(des|rc4)\b`),
	},
	"insecure_auth": {
		regexp.MustCompile(`(?i)verify\s*=\s*False`),
		regexp.MustCompile(`(?i)\b(password|api_key|secret_key)\s*=\s*["'][^"']+["']`),
	},
	"xxe": {
		regexp.MustCompile(`etree\.(parse|fromstring)\s*\(`),
		regexp.MustCompile(`xml\.dom\.minidom`),
		regexp.MustCompile(`DocumentBuilderFactory`),
	},
	"path_traversal": {
		regexp.MustCompile(`\.\./`),
		regexp.MustCompile(`os\.path\.join\s*\([^)\n]*request\.`),
	},
	"insecure_deserialization": {
		regexp.MustCompile(`pickle\.loads?\s*\(`),
		regexp.MustCompile(`yaml\.load\s*\(`),
		regexp.MustCompile(`marshal\.loads?\s*\(`),
	},
}

// highCategories report at the "high" tier; everything else is "medium".
var highCategories = map[string]bool{
	"command_injection":        true,
	"insecure_deserialization": true,
}

// Heuristic for dynamic SQL construction: a SQL keyword co-occurring with
// string-interpolation braces flags sql_injection even when no literal
// pattern matches.
var (
	sqlKeywordRe = regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP)\b`)
	sqlBraceRe   = regexp.MustCompile(`\{[^{}\n]*\}`)
)

var sourceExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".go": true, ".java": true,
	".rb": true, ".php": true, ".sh": true, ".pl": true, ".c": true,
	".cpp": true, ".cs": true, ".html": true, ".sql": true,
}

var skippedDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "__pycache__": true,
	".security_cache": true,
}

// PatternHit is one raw match before normalization into a Finding.
type PatternHit struct {
	File     string `json:"file"`
	Category string `json:"category"`
	Pattern  string `json:"pattern"`
	Line     int    `json:"line"`
}

// PatternAdapter scans source trees for known-dangerous code patterns.
type PatternAdapter struct {
	logger *slog.Logger
}

func NewPatternAdapter(logger *slog.Logger) *PatternAdapter {
	return &PatternAdapter{logger: logger}
}

func (a *PatternAdapter) Name() string { return "patterns" }

// Run walks the target path and collects raw pattern hits. Unreadable files
// are skipped and the walk continues over the remaining tree.
func (a *PatternAdapter) Run(ctx context.Context, target Target) (RawOutput, error) {
	var hits []PatternHit

	err := filepath.WalkDir(target.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			a.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		fileHits, err := a.scanFile(path)
		if err != nil {
			a.logger.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}
		hits = append(hits, fileHits...)
		return nil
	})
	if err != nil {
		return RawOutput{Source: SourcePattern}, err
	}

	data, err := json.Marshal(hits)
	if err != nil {
		return RawOutput{Source: SourcePattern}, err
	}
	return RawOutput{Source: SourcePattern, Data: data}, nil
}

func (a *PatternAdapter) scanFile(path string) ([]PatternHit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var hits []PatternHit
	seenSQL := false
	sawKeyword, sawBraces := false, false

	lineNo := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		for category, patterns := range categoryPatterns {
			for _, re := range patterns {
				if re.MatchString(line) {
					hits = append(hits, PatternHit{
						File:     path,
						Category: category,
						Pattern:  re.String(),
						Line:     lineNo,
					})
					if category == "sql_injection" {
						seenSQL = true
					}
					break
				}
			}
		}

		if sqlKeywordRe.MatchString(line) {
			sawKeyword = true
		}
		if sqlBraceRe.MatchString(line) {
			sawBraces = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Dynamic query construction heuristic: only fires when the literal
	// sql_injection patterns did not already flag this file.
	if !seenSQL && sawKeyword && sawBraces {
		hits = append(hits, PatternHit{
			File:     path,
			Category: "sql_injection",
			Pattern:  "sql-keyword-with-interpolation",
		})
	}

	return hits, nil
}

// Parse converts raw pattern hits into normalized findings.
func (a *PatternAdapter) Parse(raw RawOutput) []Finding {
	var hits []PatternHit
	if err := json.Unmarshal(raw.Data, &hits); err != nil {
		a.logger.Warn("malformed pattern output", "error", err)
		return []Finding{}
	}

	findings := make([]Finding, 0, len(hits))
	for _, hit := range hits {
		tier := "medium"
		if highCategories[hit.Category] {
			tier = "high"
		}
		payload, err := json.Marshal(hit)
		if err != nil {
			a.logger.Warn("dropping unmarshalable hit", "file", hit.File, "error", err)
			continue
		}
		findings = append(findings, Finding{
			Source:   SourcePattern,
			Locator:  hit.File,
			Category: hit.Category,
			Severity: severity.FromLabel(tier),
			Raw:      payload,
		})
	}
	return findings
}
