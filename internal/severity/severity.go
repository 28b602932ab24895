// Package severity normalizes heterogeneous scanner risk values onto a
// single 0.0-10.0 scale. All functions are total: malformed input maps to
// 0.0 instead of an error, so one bad entry never sinks an aggregate.
package severity

import (
	"strconv"
	"strings"
)

// Fixed label table shared by every label-based scanner output.
const (
	Critical = 9.0
	High     = 7.0
	Medium   = 5.0
	Low      = 3.0
	Info     = 0.0
)

var labelScores = map[string]float64{
	"critical": Critical,
	"high":     High,
	"medium":   Medium,
	"low":      Low,
	"info":     Info,
}

// FromLabel maps a severity label to its numeric score.
// Unrecognized labels score 0.0.
func FromLabel(label string) float64 {
	return labelScores[strings.ToLower(strings.TrimSpace(label))]
}

// FromValue normalizes a dynamic severity value as found in raw tool JSON:
// numbers are used directly, numeric strings are parsed, severity labels go
// through the label table. Anything else scores 0.0.
func FromValue(v any) float64 {
	switch x := v.(type) {
	case float64:
		return clamp(x)
	case int:
		return clamp(float64(x))
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return clamp(f)
		}
		return FromLabel(x)
	default:
		return 0.0
	}
}

// Max returns the maximum of the given scores, 0.0 for an empty set.
func Max(scores ...float64) float64 {
	max := 0.0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	return max
}

func clamp(f float64) float64 {
	if f < 0 {
		return 0.0
	}
	if f > 10 {
		return 10.0
	}
	return f
}
