package pipeline

import (
	"os"
	"strings"
	"testing"

	"github.com/ruvnet/agentic-security/internal/scan"
)

func TestWriteReport_Sections(t *testing.T) {
	result := scan.Result{
		Web: []scan.Finding{
			{Source: scan.SourceWeb, Locator: "http://x", Category: "xss", Severity: 5.0},
		},
		Code: []scan.Finding{
			{Source: scan.SourcePattern, Locator: "a.py", Category: "sql_injection", Severity: 5.0},
		},
	}
	errs := []scan.RunError{{Adapter: "dependency", Target: "./src", Message: "tool not installed"}}

	path, err := WriteReport(result, errs, t.TempDir())
	if err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	report := string(data)

	for _, want := range []string{
		"## Findings",
		"## Recommendations",
		"## Scan Errors",
		"sql_injection",
		"http://x",
		"tool not installed",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestWriteReport_NoFindings(t *testing.T) {
	path, err := WriteReport(scan.NewResult(), nil, t.TempDir())
	if err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	report := string(data)

	if !strings.Contains(report, "No security findings.") {
		t.Error("empty result should render the no-findings note")
	}
	if strings.Contains(report, "## Scan Errors") {
		t.Error("no errors section expected without run errors")
	}
	if !strings.Contains(report, "## Recommendations") {
		t.Error("recommendations are always present")
	}
}
