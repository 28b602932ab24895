package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ResultStore is the slice of the result cache the orchestrator needs.
type ResultStore interface {
	// Get returns the cached results JSON for scanID, nil when absent.
	GetResults(ctx context.Context, scanID string) ([]byte, error)

	// Save replaces the cached results for scanID atomically.
	SaveResults(ctx context.Context, scanID string, results []byte) error
}

// RunError is one contained, non-fatal failure from a scan run. The
// orchestrator aggregates these for reporting instead of aborting.
type RunError struct {
	Adapter string `json:"adapter"`
	Target  string `json:"target"`
	Message string `json:"message"`
}

// Orchestrator dispatches scan targets to the right adapters, aggregates
// findings, and consults the result cache. Targets are processed one at a
// time in configured order; adapters within a target run sequentially.
type Orchestrator struct {
	web     Adapter
	deps    Adapter
	pattern Adapter
	store   ResultStore
	logger  *slog.Logger
}

func NewOrchestrator(store ResultStore, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		web:     NewWebAdapter(logger),
		deps:    NewDependencyAdapter(logger),
		pattern: NewPatternAdapter(logger),
		store:   store,
		logger:  logger,
	}
}

// NewOrchestratorWithAdapters wires explicit adapters; used by tests.
func NewOrchestratorWithAdapters(web, deps, pattern Adapter, store ResultStore, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{web: web, deps: deps, pattern: pattern, store: store, logger: logger}
}

// RunSecurityChecks scans every target and collects findings into the
// matching group. Adapter failures are contained as RunErrors; the scan
// continues for the remaining targets.
func (o *Orchestrator) RunSecurityChecks(ctx context.Context, targets []Target) (Result, []RunError) {
	result := NewResult()
	var errs []RunError

	for _, target := range targets {
		switch target.Kind {
		case TargetWeb:
			findings, runErrs := o.runAdapter(ctx, o.web, target)
			result.Web = append(result.Web, findings...)
			errs = append(errs, runErrs...)
		case TargetCode:
			// A code target runs the pattern adapter and, best-effort,
			// the dependency adapter. Dependency failure leaves a
			// partial result for the target, never a failed one.
			findings, runErrs := o.runAdapter(ctx, o.pattern, target)
			result.Code = append(result.Code, findings...)
			errs = append(errs, runErrs...)

			findings, runErrs = o.runAdapter(ctx, o.deps, target)
			result.Code = append(result.Code, findings...)
			errs = append(errs, runErrs...)
		default:
			o.logger.Warn("unknown target kind", "kind", target.Kind, "location", target.Location())
			errs = append(errs, RunError{
				Target:  target.Location(),
				Message: fmt.Sprintf("unknown target kind %q", target.Kind),
			})
		}
	}

	return result, errs
}

func (o *Orchestrator) runAdapter(ctx context.Context, adapter Adapter, target Target) ([]Finding, []RunError) {
	var errs []RunError

	raw, err := adapter.Run(ctx, target)
	if err != nil {
		o.logger.Warn("adapter failed", "adapter", adapter.Name(), "target", target.Location(), "error", err)
		return []Finding{}, []RunError{{
			Adapter: adapter.Name(),
			Target:  target.Location(),
			Message: err.Error(),
		}}
	}
	for _, msg := range raw.Errors {
		errs = append(errs, RunError{
			Adapter: adapter.Name(),
			Target:  target.Location(),
			Message: msg,
		})
	}

	return adapter.Parse(raw), errs
}

// GetOrRun returns cached results for scanID when present and structurally
// valid, otherwise runs a fresh scan and persists it under scanID.
func (o *Orchestrator) GetOrRun(ctx context.Context, scanID string, targets []Target, skipCache bool) (Result, []RunError, error) {
	if !skipCache && o.store != nil {
		raw, err := o.store.GetResults(ctx, scanID)
		if err != nil {
			// Cache trouble is a miss, not a failure.
			o.logger.Warn("cache lookup failed", "scan_id", scanID, "error", err)
		} else if raw != nil {
			if result, ok := decodeValidated(raw); ok {
				o.logger.Info("using cached scan results", "scan_id", scanID)
				return result, nil, nil
			}
			o.logger.Warn("cached results failed validation, rescanning", "scan_id", scanID)
		}
	}

	result, errs := o.RunSecurityChecks(ctx, targets)

	if o.store != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return result, errs, fmt.Errorf("encode results: %w", err)
		}
		if err := o.store.SaveResults(ctx, scanID, data); err != nil {
			o.logger.Warn("failed to cache scan results", "scan_id", scanID, "error", err)
		}
	}

	return result, errs, nil
}

// ValidateRaw reports whether raw results JSON is structurally usable:
// both the web and code keys must be present and bound to arrays,
// regardless of emptiness.
func ValidateRaw(raw []byte) bool {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		return false
	}
	for _, key := range []string{"web", "code"} {
		val, ok := shape[key]
		if !ok {
			return false
		}
		// json null decodes into a nil slice without error, but a null
		// group is not list-like.
		if bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
			return false
		}
		var group []json.RawMessage
		if err := json.Unmarshal(val, &group); err != nil {
			return false
		}
	}
	return true
}

func decodeValidated(raw []byte) (Result, bool) {
	if !ValidateRaw(raw) {
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, false
	}
	if result.Web == nil {
		result.Web = []Finding{}
	}
	if result.Code == nil {
		result.Code = []Finding{}
	}
	return result, true
}
