package scan

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runPatternScan(t *testing.T, dir string) []Finding {
	t.Helper()
	adapter := NewPatternAdapter(testLogger())
	raw, err := adapter.Run(context.Background(), Target{Kind: TargetCode, Path: dir})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return adapter.Parse(raw)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func findByCategory(findings []Finding, category string) *Finding {
	for i := range findings {
		if findings[i].Category == category {
			return &findings[i]
		}
	}
	return nil
}

func TestPatternAdapter_CommandInjection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vuln.py", "import os\nos.system(user_input)\n")

	findings := runPatternScan(t, dir)

	f := findByCategory(findings, "command_injection")
	if f == nil {
		t.Fatal("expected a command_injection finding")
	}
	if f.Severity != 7.0 {
		t.Errorf("command_injection severity = %v, want 7.0 (high)", f.Severity)
	}
	if f.Source != SourcePattern {
		t.Errorf("Source = %q, want %q", f.Source, SourcePattern)
	}
}

func TestPatternAdapter_WeakCrypto(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hash.py", "digest = md5(data)\n")

	findings := runPatternScan(t, dir)

	f := findByCategory(findings, "weak_crypto")
	if f == nil {
		t.Fatal("expected a weak_crypto finding")
	}
	if f.Severity != 5.0 {
		t.Errorf("weak_crypto severity = %v, want 5.0 (medium)", f.Severity)
	}
	if findByCategory(findings, "command_injection") != nil {
		t.Error("md5-only file should not flag command_injection")
	}
}

func TestPatternAdapter_SQLInterpolationHeuristic(t *testing.T) {
	dir := t.TempDir()
	// No literal sql_injection pattern, but a SQL keyword co-occurs with
	// interpolation braces.
	writeFile(t, dir, "query.py", `query = f"SELECT name FROM users WHERE id = {user_id}"`+"\n")

	findings := runPatternScan(t, dir)

	f := findByCategory(findings, "sql_injection")
	if f == nil {
		t.Fatal("expected sql_injection finding from interpolation heuristic")
	}
	if f.Severity != 5.0 {
		t.Errorf("sql_injection severity = %v, want 5.0 (medium)", f.Severity)
	}
}

func TestPatternAdapter_InsecureDeserializationIsHigh(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "load.py", "data = pickle.loads(blob)\n")

	findings := runPatternScan(t, dir)

	f := findByCategory(findings, "insecure_deserialization")
	if f == nil {
		t.Fatal("expected an insecure_deserialization finding")
	}
	if f.Severity != 7.0 {
		t.Errorf("insecure_deserialization severity = %v, want 7.0 (high)", f.Severity)
	}
}

func TestPatternAdapter_CleanTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "clean.py", "def add(a, b):\n    return a + b\n")

	findings := runPatternScan(t, dir)
	if len(findings) != 0 {
		t.Errorf("clean file produced %d findings: %v", len(findings), findings)
	}
}

func TestPatternAdapter_SkipsNonSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "os.system(whatever)\n")

	findings := runPatternScan(t, dir)
	if len(findings) != 0 {
		t.Errorf("non-source file produced %d findings", len(findings))
	}
}

func TestPatternAdapter_SkipsUnreadableFiles(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission bits are ignored when running as root")
	}

	dir := t.TempDir()
	locked := writeFile(t, dir, "locked.py", "os.system(x)\n")
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "open.py", "digest = md5(data)\n")

	findings := runPatternScan(t, dir)

	if findByCategory(findings, "weak_crypto") == nil {
		t.Error("readable file should still be scanned after an unreadable one")
	}
	if findByCategory(findings, "command_injection") != nil {
		t.Error("unreadable file should be skipped, not scanned")
	}
}
