// Package ai wraps the external AI code-editing backend used for
// architecture review and automated fix implementation.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrUnavailable marks a backend that could not be invoked at all
// (binary missing, credentials absent). Callers degrade rather than abort.
var ErrUnavailable = errors.New("ai backend unavailable")

// Backend is the contract the pipeline consumes.
type Backend interface {
	// Review analyzes the code at path and returns fix suggestions.
	Review(ctx context.Context, path string) ([]string, error)

	// Implement asks the backend to apply one suggestion to the code at
	// path. It reports whether any change was actually made.
	Implement(ctx context.Context, suggestion, path string) (bool, error)

	// Describe generates a pull request description from a change summary.
	Describe(ctx context.Context, changes string) (string, error)
}

// Aider shells out to the aider code-editing tool.
type Aider struct {
	prompts *Prompts
	logger  *slog.Logger

	// binary is the aider entrypoint; overridable for tests.
	binary string
}

func NewAider(prompts *Prompts, logger *slog.Logger) *Aider {
	return &Aider{prompts: prompts, logger: logger, binary: "aider"}
}

// Review runs an architecture review and parses suggestions from the
// bullet lines of the output.
func (a *Aider) Review(ctx context.Context, path string) ([]string, error) {
	prompt, err := a.prompts.Get("architecture_review")
	if err != nil {
		return nil, err
	}

	out, err := a.invoke(ctx, "/ask", prompt, path)
	if err != nil {
		return nil, err
	}
	return parseSuggestions(out), nil
}

// Implement applies one suggestion. A run that reports "No changes made"
// counts as an unsuccessful attempt, not an error.
func (a *Aider) Implement(ctx context.Context, suggestion, path string) (bool, error) {
	msg, err := a.fixMessage(suggestion, path)
	if err != nil {
		return false, err
	}

	out, err := a.invoke(ctx, "/code", msg, path)
	if err != nil {
		return false, err
	}
	if strings.Contains(out, "No changes made") {
		a.logger.Warn("no changes made for suggestion", "suggestion", suggestion)
		return false, nil
	}
	return true, nil
}

// Describe asks the backend to write a pull request description for the
// given change summary.
func (a *Aider) Describe(ctx context.Context, changes string) (string, error) {
	prompt, err := a.prompts.Get("pr_description", Sanitize(changes))
	if err != nil {
		return "", err
	}
	return a.invoke(ctx, "/ask", prompt, ".")
}

func (a *Aider) fixMessage(suggestion, path string) (string, error) {
	return a.prompts.Get("fix_generation", Sanitize(suggestion), path)
}

func (a *Aider) invoke(ctx context.Context, mode, message, path string) (string, error) {
	if _, err := exec.LookPath(a.binary); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, a.binary,
		"--yes-always",
		"--edit-format", "diff",
		mode, message,
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("aider failed: %w", err)
	}
	return string(out), nil
}

// parseSuggestions extracts "- " bullet lines from review output.
func parseSuggestions(output string) []string {
	var suggestions []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			suggestions = append(suggestions, strings.TrimPrefix(line, "- "))
		}
	}
	return suggestions
}
