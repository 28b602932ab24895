package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testAider() *Aider {
	return NewAider(NewPrompts(nil), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAider_FixMessageUsesPromptCatalog(t *testing.T) {
	a := testAider()

	msg, err := a.fixMessage("use parameterized queries", "app/db.py")
	if err != nil {
		t.Fatalf("fixMessage() error = %v", err)
	}
	if !strings.Contains(msg, "Generate secure fixes") {
		t.Errorf("message should come from the fix_generation template, got %q", msg)
	}
	if !strings.Contains(msg, "use parameterized queries") || !strings.Contains(msg, "app/db.py") {
		t.Errorf("message missing suggestion or path: %q", msg)
	}
}

func TestAider_FixMessageHonorsOverride(t *testing.T) {
	a := NewAider(
		NewPrompts(map[string]string{"fix_generation": "fix %s in %s now"}),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	msg, err := a.fixMessage("the bug", "x.py")
	if err != nil {
		t.Fatalf("fixMessage() error = %v", err)
	}
	if msg != "fix the bug in x.py now" {
		t.Errorf("fixMessage() = %q, want the configured override applied", msg)
	}
}

func TestAider_MissingBinaryIsUnavailable(t *testing.T) {
	a := testAider()
	a.binary = "definitely-not-a-real-tool"
	ctx := context.Background()

	if _, err := a.Review(ctx, "."); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Review() error = %v, want ErrUnavailable", err)
	}
	if _, err := a.Implement(ctx, "fix it", "."); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Implement() error = %v, want ErrUnavailable", err)
	}
	if _, err := a.Describe(ctx, "changes"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Describe() error = %v, want ErrUnavailable", err)
	}
}
