package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ruvnet/agentic-security/internal/scan"
)

var recommendations = []string{
	"Keep all dependencies up to date and monitor security advisories.",
	"Use parameterized queries for every database access.",
	"Validate and sanitize all user input at trust boundaries.",
	"Prefer vetted cryptographic primitives (SHA-256 or stronger).",
	"Run this pipeline on every pull request, not only on a schedule.",
}

// WriteReport renders scan results as a Markdown report under dir and
// returns the written file path.
func WriteReport(result scan.Result, errs []scan.RunError, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Security Scan Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339))

	b.WriteString("## Findings\n\n")
	findings := result.All()
	if len(findings) == 0 {
		b.WriteString("No security findings.\n\n")
	} else {
		b.WriteString("| Location | Type | Severity | Source |\n")
		b.WriteString("|----------|------|----------|--------|\n")
		for _, f := range findings {
			fmt.Fprintf(&b, "| %s | %s | %.1f | %s |\n",
				f.Locator, f.Category, f.Severity, f.Source)
		}
		b.WriteString("\n")
	}

	if len(errs) > 0 {
		b.WriteString("## Scan Errors\n\n")
		for _, e := range errs {
			fmt.Fprintf(&b, "- %s (%s): %s\n", e.Adapter, e.Target, e.Message)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	for _, r := range recommendations {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	path := filepath.Join(dir, fmt.Sprintf("security_report_%s.md",
		time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
