package scan

import "encoding/json"

// Source identifies which adapter produced a finding.
type Source string

const (
	SourceWeb        Source = "web-scanner"
	SourceDependency Source = "dependency-scanner"
	SourcePattern    Source = "pattern-scanner"
)

// TargetKind distinguishes web URLs from code paths.
type TargetKind string

const (
	TargetWeb  TargetKind = "web"
	TargetCode TargetKind = "code"
)

// Target is one configured scan target. Read-only to the scan engine.
type Target struct {
	Kind TargetKind `mapstructure:"type" json:"type"`
	URL  string     `mapstructure:"url" json:"url,omitempty"`
	Path string     `mapstructure:"path" json:"path,omitempty"`
}

// Location returns the URL for web targets and the path for code targets.
func (t Target) Location() string {
	if t.Kind == TargetWeb {
		return t.URL
	}
	return t.Path
}

// Finding is one normalized vulnerability detection. Immutable once created.
type Finding struct {
	Source   Source  `json:"source"`
	Locator  string  `json:"locator"` // file path or URL
	Category string  `json:"category"`
	Severity float64 `json:"severity"` // normalized 0.0-10.0

	// Raw carries the original tool payload for report rendering.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Result groups findings by target kind. Both groups are always present,
// possibly empty; a nil group is a structural error, not "no findings".
type Result struct {
	Web  []Finding `json:"web"`
	Code []Finding `json:"code"`
}

// NewResult returns a Result with both groups allocated.
func NewResult() Result {
	return Result{Web: []Finding{}, Code: []Finding{}}
}

// All returns every finding across both groups.
func (r Result) All() []Finding {
	out := make([]Finding, 0, len(r.Web)+len(r.Code))
	out = append(out, r.Web...)
	out = append(out, r.Code...)
	return out
}

// MaxSeverity is the global maximum severity over both groups.
// An empty result has severity 0.0.
func (r Result) MaxSeverity() float64 {
	max := 0.0
	for _, f := range r.All() {
		if f.Severity > max {
			max = f.Severity
		}
	}
	return max
}
