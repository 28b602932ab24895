package scan

import "context"

// RawOutput is the unparsed product of one adapter invocation.
type RawOutput struct {
	Source Source
	Data   []byte

	// Errors collects tool-invocation failures that were contained rather
	// than propagated. A RawOutput with errors still parses; the failed
	// tool simply contributes no findings.
	Errors []string
}

// Adapter is implemented by all scanner adapters.
type Adapter interface {
	// Name returns the adapter identifier (e.g. "web", "patterns").
	Name() string

	// Run invokes the underlying tool against the target and returns its
	// raw output. Tool failures are contained inside the RawOutput; an
	// error return means the adapter itself could not run at all.
	Run(ctx context.Context, target Target) (RawOutput, error)

	// Parse normalizes raw tool output into findings. Malformed entries
	// are dropped, never fatal.
	Parse(raw RawOutput) []Finding
}
