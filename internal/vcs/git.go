// Package vcs wraps the version-control collaborators (git, gh) consumed
// by the pipeline at their result contracts.
package vcs

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Client is the slice of version control the pipeline needs.
type Client interface {
	CreateBranch(ctx context.Context, name string) error
	Diff(ctx context.Context, base, head string) ([]string, error)
	CreatePR(ctx context.Context, title, body, head, base string) error
}

// Git shells out to git and gh in the working directory.
type Git struct {
	dir    string
	logger *slog.Logger
}

func NewGit(dir string, logger *slog.Logger) *Git {
	return &Git{dir: dir, logger: logger}
}

// CreateBranch creates and checks out a new branch.
func (g *Git) CreateBranch(ctx context.Context, name string) error {
	g.logger.Info("creating fix branch", "branch", name)
	if out, err := g.run(ctx, "git", "checkout", "-b", name); err != nil {
		return fmt.Errorf("create branch %s: %w (%s)", name, err, out)
	}
	return nil
}

// Diff returns the names of files that differ between base and head.
func (g *Git) Diff(ctx context.Context, base, head string) ([]string, error) {
	out, err := g.run(ctx, "git", "diff", "--name-only", base, head)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", base, head, err)
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// CreatePR opens a pull request via the gh CLI.
func (g *Git) CreatePR(ctx context.Context, title, body, head, base string) error {
	g.logger.Info("creating pull request", "head", head, "base", base)
	if out, err := g.run(ctx, "gh", "pr", "create",
		"--title", title,
		"--body", body,
		"--head", head,
		"--base", base,
	); err != nil {
		return fmt.Errorf("create pr: %w (%s)", err, out)
	}
	return nil
}

func (g *Git) run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = g.dir
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}
