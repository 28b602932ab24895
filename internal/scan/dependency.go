package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ruvnet/agentic-security/internal/severity"
)

// depReport mirrors the slice of the dependency-check JSON report we care
// about. Everything else in the report is ignored.
type depReport struct {
	Dependencies []struct {
		FileName        string           `json:"fileName"`
		Vulnerabilities []map[string]any `json:"vulnerabilities"`
	} `json:"dependencies"`
}

// DependencyAdapter runs the OWASP dependency-check tool against a code path.
type DependencyAdapter struct {
	logger *slog.Logger

	// binary is the dependency-check entrypoint; overridable for tests.
	binary string
}

func NewDependencyAdapter(logger *slog.Logger) *DependencyAdapter {
	return &DependencyAdapter{logger: logger, binary: "dependency-check"}
}

func (a *DependencyAdapter) Name() string { return "dependency" }

// Run invokes dependency-check with JSON export and returns the raw report.
func (a *DependencyAdapter) Run(ctx context.Context, target Target) (RawOutput, error) {
	outDir := filepath.Join(os.TempDir(), fmt.Sprintf("depcheck_%d", time.Now().UnixNano()))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return RawOutput{Source: SourceDependency}, err
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	cmd := exec.CommandContext(ctx, a.binary,
		"--scan", target.Path,
		"--format", "JSON",
		"--out", outDir,
	)
	if err := cmd.Run(); err != nil {
		return RawOutput{Source: SourceDependency}, fmt.Errorf("dependency-check: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "dependency-check-report.json"))
	if err != nil {
		return RawOutput{Source: SourceDependency}, fmt.Errorf("read report: %w", err)
	}
	return RawOutput{Source: SourceDependency, Data: data}, nil
}

// Parse normalizes dependency-check vulnerabilities. Severity comes from the
// CVSS-like cvssScore field, missing or malformed scores count as 0.
func (a *DependencyAdapter) Parse(raw RawOutput) []Finding {
	var report depReport
	if err := json.Unmarshal(raw.Data, &report); err != nil {
		a.logger.Warn("malformed dependency-check report", "error", err)
		return []Finding{}
	}

	findings := []Finding{}
	for _, dep := range report.Dependencies {
		for _, vuln := range dep.Vulnerabilities {
			payload, err := json.Marshal(vuln)
			if err != nil {
				continue
			}
			name, _ := vuln["name"].(string)
			findings = append(findings, Finding{
				Source:   SourceDependency,
				Locator:  dep.FileName,
				Category: name,
				Severity: severity.FromValue(vuln["cvssScore"]),
				Raw:      payload,
			})
		}
	}
	return findings
}
