package pipeline

import (
	"context"
	"fmt"

	"github.com/ruvnet/agentic-security/internal/scan"
)

// Per-category remediation guidance, used to derive fix suggestions from
// findings when the review produced none (or too few).
var fixGuidance = map[string]string{
	"sql_injection":            "Use parameterized queries instead of string formatting",
	"command_injection":        "Run commands without a shell and validate all inputs",
	"xss":                      "Escape all user input before rendering it as HTML",
	"weak_crypto":              "Replace weak hash algorithms with SHA-256 or stronger",
	"insecure_auth":            "Remove hardcoded credentials and enforce TLS verification",
	"xxe":                      "Disable external entity resolution in XML parsers",
	"path_traversal":           "Canonicalize and validate file paths against a safe root",
	"insecure_deserialization": "Use safe serialization formats and never deserialize untrusted data",
}

// remediate drives the bounded fix/validate loop. It returns true when the
// aggregate severity dropped below the critical threshold within the
// configured attempt budget.
func (p *Pipeline) remediate(ctx context.Context, run *Run, suggestions []string, result scan.Result) bool {
	if err := p.vcs.CreateBranch(ctx, run.Branch); err != nil {
		p.logger.Error("branch creation failed, aborting remediation", "branch", run.Branch, "error", err)
		return false
	}

	suggestions = append(suggestions, guidanceSuggestions(result)...)
	if len(suggestions) == 0 {
		p.logger.Warn("no fix suggestions available, attempts will exhaust naturally")
	}

	for attempt := 0; attempt < p.cfg.MaxFixAttempts; attempt++ {
		p.logger.Info("fix attempt", "attempt", attempt+1, "max", p.cfg.MaxFixAttempts)

		for _, suggestion := range suggestions {
			changed, err := p.backend.Implement(ctx, suggestion, ".")
			if err != nil {
				p.logger.Error("fix implementation failed", "suggestion", suggestion, "error", err)
				continue
			}
			if !changed {
				p.logger.Warn("fix made no changes", "suggestion", suggestion)
			}
		}

		// Re-validate with a fresh scan; cached results would hide the fix.
		revalidated, _ := p.orch.RunSecurityChecks(ctx, p.cfg.ScanTargets)
		maxSeverity := revalidated.MaxSeverity()
		p.logger.Info("validation scan complete", "attempt", attempt+1, "max_severity", maxSeverity)

		if maxSeverity < p.cfg.CriticalThreshold {
			return true
		}
	}

	p.logger.Error("max fix attempts reached without success", "attempts", p.cfg.MaxFixAttempts)
	return false
}

// guidanceSuggestions derives one suggestion per distinct finding category
// that has a guidance entry.
func guidanceSuggestions(result scan.Result) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range result.All() {
		if seen[f.Category] {
			continue
		}
		seen[f.Category] = true
		if guidance, ok := fixGuidance[f.Category]; ok {
			out = append(out, fmt.Sprintf("%s (%s at %s)", guidance, f.Category, f.Locator))
		}
	}
	return out
}
