package scan

import (
	"bufio"
	"bytes"
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

// webRaw bundles the native output of both web scanning tools. A tool that
// failed to run leaves its slot empty and records the failure in Errors.
type webRaw struct {
	Target string            `json:"target"`
	ZAP    json.RawMessage   `json:"zap,omitempty"`
	Nuclei []json.RawMessage `json:"nuclei,omitempty"`
	Errors []string          `json:"errors,omitempty"`
}

type zapReport struct {
	Alerts []map[string]any `json:"alerts"`
}

// WebAdapter drives the external web scanners (OWASP ZAP baseline via docker,
// nuclei) against a URL target.
type WebAdapter struct {
	logger *slog.Logger
}

func NewWebAdapter(logger *slog.Logger) *WebAdapter {
	return &WebAdapter{logger: logger}
}

func (a *WebAdapter) Name() string { return "web" }

// Run invokes ZAP and nuclei sequentially. A tool failure is recorded and
// contained; the scan continues with whatever output the other tool produced.
func (a *WebAdapter) Run(ctx context.Context, target Target) (RawOutput, error) {
	raw := webRaw{Target: target.URL}

	if zap, err := a.runZAP(ctx, target.URL); err != nil {
		a.logger.Warn("zap scan failed", "url", target.URL, "error", err)
		raw.Errors = append(raw.Errors, fmt.Sprintf("zap: %v", err))
	} else {
		raw.ZAP = zap
	}

	if nuclei, err := a.runNuclei(ctx, target.URL); err != nil {
		a.logger.Warn("nuclei scan failed", "url", target.URL, "error", err)
		raw.Errors = append(raw.Errors, fmt.Sprintf("nuclei: %v", err))
	} else {
		raw.Nuclei = nuclei
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return RawOutput{Source: SourceWeb}, err
	}
	return RawOutput{Source: SourceWeb, Data: data, Errors: raw.Errors}, nil
}

func (a *WebAdapter) runZAP(ctx context.Context, url string) (json.RawMessage, error) {
	report := filepath.Join(os.TempDir(), fmt.Sprintf("zap_%d.json", time.Now().UnixNano()))
	defer func() { _ = os.Remove(report) }()

	cmd := exec.CommandContext(ctx, "docker", "run", "--rm",
		"-v", os.TempDir()+":"+os.TempDir(),
		"owasp/zap2docker-stable", "zap-baseline.py",
		"-t", url, "-J", report,
	)
	// ZAP baseline exits non-zero when it finds alerts; only a missing
	// report file counts as a failed invocation.
	_ = cmd.Run()

	data, err := os.ReadFile(report)
	if err != nil {
		return nil, fmt.Errorf("read zap report: %w", err)
	}
	return json.RawMessage(data), nil
}

func (a *WebAdapter) runNuclei(ctx context.Context, url string) ([]json.RawMessage, error) {
	report := filepath.Join(os.TempDir(), fmt.Sprintf("nuclei_%d.jsonl", time.Now().UnixNano()))
	defer func() { _ = os.Remove(report) }()

	cmd := exec.CommandContext(ctx, "nuclei", "-u", url, "-jsonl", "-o", report)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("nuclei: %w", err)
	}

	data, err := os.ReadFile(report)
	if err != nil {
		return nil, fmt.Errorf("read nuclei report: %w", err)
	}

	var entries []json.RawMessage
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		entries = append(entries, json.RawMessage(append([]byte(nil), line...)))
	}
	return entries, scanner.Err()
}

// Parse normalizes ZAP alerts (severity from the native riskcode field) and
// nuclei entries (label-based severity) into findings.
func (a *WebAdapter) Parse(raw RawOutput) []Finding {
	var wr webRaw
	if err := json.Unmarshal(raw.Data, &wr); err != nil {
		a.logger.Warn("malformed web scanner output", "error", err)
		return []Finding{}
	}

	findings := []Finding{}

	if len(wr.ZAP) > 0 {
		var report zapReport
		if err := json.Unmarshal(wr.ZAP, &report); err != nil {
			a.logger.Warn("malformed zap report", "error", err)
		} else {
			for _, alert := range report.Alerts {
				payload, err := json.Marshal(alert)
				if err != nil {
					continue
				}
				name, _ := alert["alert"].(string)
				findings = append(findings, Finding{
					Source:   SourceWeb,
					Locator:  wr.Target,
					Category: name,
					Severity: severity.FromValue(alert["riskcode"]),
					Raw:      payload,
				})
			}
		}
	}

	for _, entry := range wr.Nuclei {
		var e struct {
			TemplateID string `json:"template-id"`
			Info       struct {
				Severity string `json:"severity"`
			} `json:"info"`
		}
		if err := json.Unmarshal(entry, &e); err != nil {
			a.logger.Warn("malformed nuclei entry", "error", err)
			continue
		}
		findings = append(findings, Finding{
			Source:   SourceWeb,
			Locator:  wr.Target,
			Category: e.TemplateID,
			Severity: severity.FromLabel(e.Info.Severity),
			Raw:      entry,
		})
	}

	return findings
}
