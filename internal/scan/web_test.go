package scan

import (
	"encoding/json"
	"testing"
)

func TestWebAdapter_ParseZAPAlerts(t *testing.T) {
	raw := webRaw{
		Target: "http://localhost:8080",
		ZAP:    json.RawMessage(`{"alerts": [{"alert": "SQL Injection", "riskcode": "3"}, {"alert": "X-Frame-Options", "riskcode": "1"}, {"alert": "No Risk Code"}]}`),
	}
	data, _ := json.Marshal(raw)

	adapter := NewWebAdapter(testLogger())
	findings := adapter.Parse(RawOutput{Source: SourceWeb, Data: data})

	if len(findings) != 3 {
		t.Fatalf("findings = %d, want 3", len(findings))
	}
	if findings[0].Severity != 3.0 {
		t.Errorf("riskcode 3 severity = %v, want 3.0", findings[0].Severity)
	}
	if findings[0].Category != "SQL Injection" {
		t.Errorf("Category = %q, want %q", findings[0].Category, "SQL Injection")
	}
	if findings[0].Locator != "http://localhost:8080" {
		t.Errorf("Locator = %q, want target URL", findings[0].Locator)
	}
	// Absent risk code is treated as 0, not an error.
	if findings[2].Severity != 0.0 {
		t.Errorf("missing riskcode severity = %v, want 0.0", findings[2].Severity)
	}
}

func TestWebAdapter_ParseNucleiEntries(t *testing.T) {
	raw := webRaw{
		Target: "http://localhost:8080",
		Nuclei: []json.RawMessage{
			json.RawMessage(`{"template-id": "exposed-panel", "info": {"severity": "critical"}}`),
			json.RawMessage(`{"template-id": "tech-detect", "info": {"severity": "info"}}`),
			json.RawMessage(`{"template-id": "odd-one", "info": {"severity": "nonsense"}}`),
		},
	}
	data, _ := json.Marshal(raw)

	adapter := NewWebAdapter(testLogger())
	findings := adapter.Parse(RawOutput{Source: SourceWeb, Data: data})

	if len(findings) != 3 {
		t.Fatalf("findings = %d, want 3", len(findings))
	}
	if findings[0].Severity != 9.0 {
		t.Errorf("critical severity = %v, want 9.0", findings[0].Severity)
	}
	if findings[1].Severity != 0.0 {
		t.Errorf("info severity = %v, want 0.0", findings[1].Severity)
	}
	// Unrecognized label contributes 0.0 instead of aborting.
	if findings[2].Severity != 0.0 {
		t.Errorf("unknown label severity = %v, want 0.0", findings[2].Severity)
	}
}

func TestWebAdapter_ParseMalformed(t *testing.T) {
	adapter := NewWebAdapter(testLogger())

	findings := adapter.Parse(RawOutput{Source: SourceWeb, Data: []byte(`not json`)})
	if findings == nil || len(findings) != 0 {
		t.Errorf("malformed output should parse to empty non-nil slice, got %v", findings)
	}
}

func TestDependencyAdapter_Parse(t *testing.T) {
	report := `{
		"dependencies": [
			{
				"fileName": "lib/foo-1.2.jar",
				"vulnerabilities": [
					{"name": "CVE-2024-1111", "cvssScore": 9.8},
					{"name": "CVE-2024-2222"}
				]
			},
			{"fileName": "lib/bar-2.0.jar"}
		]
	}`

	adapter := NewDependencyAdapter(testLogger())
	findings := adapter.Parse(RawOutput{Source: SourceDependency, Data: []byte(report)})

	if len(findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(findings))
	}
	if findings[0].Severity != 9.8 {
		t.Errorf("cvssScore severity = %v, want 9.8", findings[0].Severity)
	}
	if findings[0].Locator != "lib/foo-1.2.jar" {
		t.Errorf("Locator = %q, want file name", findings[0].Locator)
	}
	if findings[1].Severity != 0.0 {
		t.Errorf("missing cvssScore severity = %v, want 0.0", findings[1].Severity)
	}
}
