// Package pipeline sequences the security automation run: architecture
// review, scan, threshold check, remediation loop, PR creation and
// notification.
package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruvnet/agentic-security/internal/ai"
	"github.com/ruvnet/agentic-security/internal/progress"
	"github.com/ruvnet/agentic-security/internal/scan"
	"github.com/ruvnet/agentic-security/internal/vcs"
)

// Status is the final outcome of one pipeline run.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailure  Status = "failure"
	StatusNoAction Status = "no-action"
)

// Run is the per-invocation context threaded through every stage.
type Run struct {
	ScanID    string
	Branch    string
	SkipCache bool
	Progress  *progress.Reporter
	Status    Status
}

// NewRun derives the fix-branch name from the start time. Second-resolution
// timestamps collide across rapid runs, so a short random suffix keeps the
// name unique.
func NewRun(scanID string, skipCache bool, reporter *progress.Reporter) *Run {
	suffix := make([]byte, 2)
	_, _ = rand.Read(suffix)
	return &Run{
		ScanID:    scanID,
		Branch:    fmt.Sprintf("security-fixes-%s-%s", time.Now().Format("20060102-150405"), hex.EncodeToString(suffix)),
		SkipCache: skipCache,
		Progress:  reporter,
	}
}

// Pipeline wires the scan orchestrator with its external collaborators.
type Pipeline struct {
	cfg      *Config
	orch     *scan.Orchestrator
	backend  ai.Backend
	vcs      vcs.Client
	notifier *Notifier
	logger   *slog.Logger
}

func New(cfg *Config, orch *scan.Orchestrator, backend ai.Backend, vcsClient vcs.Client, notifier *Notifier, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		orch:     orch,
		backend:  backend,
		vcs:      vcsClient,
		notifier: notifier,
		logger:   logger,
	}
}

// Execute runs the complete pipeline. It never panics out: unexpected
// failures become a failure status so the host process exits cleanly.
func (p *Pipeline) Execute(ctx context.Context, run *Run) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panicked", "panic", r)
			status = StatusFailure
		}
		run.Status = status
	}()

	run.Progress.Start("Initializing security pipeline")

	// Architecture review. An unavailable backend degrades to an empty
	// suggestion list; the pipeline carries on.
	run.Progress.Update(10, "Running architecture review")
	suggestions, err := p.backend.Review(ctx, ".")
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			p.logger.Warn("ai backend unavailable, continuing without suggestions", "error", err)
		} else {
			p.logger.Error("architecture review failed, continuing without suggestions", "error", err)
		}
		suggestions = nil
	}

	run.Progress.Update(25, "Running security scans")
	result, runErrs, err := p.orch.GetOrRun(ctx, run.ScanID, p.cfg.ScanTargets, run.SkipCache)
	if err != nil {
		p.logger.Error("scan failed", "error", err)
		return StatusFailure
	}

	if reportPath, err := WriteReport(result, runErrs, p.cfg.ReportsDir); err != nil {
		p.logger.Warn("failed to write report", "error", err)
	} else {
		p.logger.Info("report written", "path", reportPath)
	}

	maxSeverity := result.MaxSeverity()
	p.logger.Info("scan complete",
		"web_findings", len(result.Web),
		"code_findings", len(result.Code),
		"max_severity", maxSeverity,
		"threshold", p.cfg.CriticalThreshold,
	)

	if maxSeverity < p.cfg.CriticalThreshold {
		run.Progress.Finish("No critical vulnerabilities found")
		p.notifier.Send(ctx, Summary(StatusNoAction, run.Branch, maxSeverity))
		return StatusNoAction
	}

	run.Progress.Update(50, "Critical vulnerabilities found, starting remediation")
	fixed := p.remediate(ctx, run, suggestions, result)
	if !fixed {
		run.Progress.Finish("Remediation failed")
		p.notifier.Send(ctx, Summary(StatusFailure, run.Branch, maxSeverity))
		return StatusFailure
	}

	run.Progress.Update(90, "Creating pull request")
	if err := p.createPullRequest(ctx, run, result); err != nil {
		p.logger.Error("pull request creation failed", "error", err)
		run.Progress.Finish("Pull request creation failed")
		p.notifier.Send(ctx, Summary(StatusFailure, run.Branch, maxSeverity))
		return StatusFailure
	}

	run.Progress.Finish("Security fixes merged into pull request")
	p.notifier.Send(ctx, Summary(StatusSuccess, run.Branch, maxSeverity))
	return StatusSuccess
}

func (p *Pipeline) createPullRequest(ctx context.Context, run *Run, result scan.Result) error {
	files, err := p.vcs.Diff(ctx, p.cfg.BaseBranch, run.Branch)
	if err != nil {
		return err
	}

	// The change summary seeds the AI-written description; when the
	// backend cannot produce one, the summary itself is the body.
	summary := buildPRBody(files, result)
	body, err := p.backend.Describe(ctx, summary)
	if err != nil || strings.TrimSpace(body) == "" {
		if err != nil {
			p.logger.Warn("ai pr description unavailable, using summary", "error", err)
		}
		body = summary
	}

	return p.vcs.CreatePR(ctx,
		"Security: AI-Reviewed Security Fixes",
		body,
		run.Branch,
		p.cfg.BaseBranch,
	)
}

func buildPRBody(files []string, result scan.Result) string {
	body := "Automated security fixes produced by the agentic-security pipeline.\n\n"

	body += "## Vulnerabilities addressed\n\n"
	for _, f := range result.All() {
		body += fmt.Sprintf("- %s (%.1f) at %s\n", f.Category, f.Severity, f.Locator)
	}

	body += "\n## Changed files\n\n"
	if len(files) == 0 {
		body += "_No file list available._\n"
	}
	for _, f := range files {
		body += fmt.Sprintf("- %s\n", f)
	}
	return body
}
