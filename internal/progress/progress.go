// Package progress renders a bounded 0-100 step counter with status text.
package progress

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const barWidth = 40

// Reporter tracks pipeline progress. Monotonic percent is caller
// discipline, not enforced; out-of-order updates simply overwrite the
// displayed state.
type Reporter struct {
	w       io.Writer
	percent int
	message string
	started time.Time
}

func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Start resets the counter to zero and begins tracking elapsed time.
func (r *Reporter) Start(message string) {
	r.started = time.Now()
	r.percent = 0
	r.message = message
	r.render()
}

// Update sets the current percent (clamped to 0-100) and status text.
func (r *Reporter) Update(percent int, message string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	r.percent = percent
	r.message = message
	r.render()
}

// Finish jumps to 100% and terminates the progress line.
func (r *Reporter) Finish(message string) {
	r.percent = 100
	r.message = message
	r.render()
	fmt.Fprintln(r.w)
}

// Percent returns the current step counter.
func (r *Reporter) Percent() int { return r.percent }

// Message returns the current status text.
func (r *Reporter) Message() string { return r.message }

func (r *Reporter) render() {
	filled := barWidth * r.percent / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	elapsed := ""
	if !r.started.IsZero() {
		elapsed = fmt.Sprintf(" [%s]", time.Since(r.started).Round(time.Second))
	}

	fmt.Fprintf(r.w, "\r%s |%s| %3d%%%s", r.message, bar, r.percent, elapsed)
}
