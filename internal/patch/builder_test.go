package patch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildEmptyChanges(t *testing.T) {
	b := &Builder{Root: t.TempDir()}
	got, err := b.Build(map[string]string{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "" {
		t.Errorf("Build({}) = %q, want empty", got)
	}
}

func TestBuildUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")

	b := &Builder{Root: dir}
	got, err := b.Build(map[string]string{"main.go": "package main\n\nfunc main() {}\n"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "" {
		t.Errorf("unchanged content produced a diff:\n%s", got)
	}
}

func TestBuildNewFile(t *testing.T) {
	dir := t.TempDir()
	b := &Builder{Root: dir}

	diffText, err := b.Build(map[string]string{"pkg/new.go": "package pkg\n\nvar X = 1\n"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(diffText, "--- a/pkg/new.go") || !strings.Contains(diffText, "+++ b/pkg/new.go") {
		t.Fatalf("missing file headers:\n%s", diffText)
	}

	files, impact := Analyze(diffText)
	if len(files) != 1 || files[0] != "pkg/new.go" {
		t.Errorf("affected files = %v, want [pkg/new.go]", files)
	}
	if impact.LinesAdded != 3 || impact.LinesRemoved != 0 {
		t.Errorf("impact = %+v, want 3 added / 0 removed", impact)
	}
}

func TestBuildModifiedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "alpha\nbeta\ngamma\n")

	b := &Builder{Root: dir}
	diffText, err := b.Build(map[string]string{"notes.txt": "alpha\nBETA\ngamma\n"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(diffText, "-beta\n") || !strings.Contains(diffText, "+BETA\n") {
		t.Errorf("expected single-line replacement in diff:\n%s", diffText)
	}
}

func TestBuildMultipleFilesSortedAndSeparated(t *testing.T) {
	dir := t.TempDir()
	b := &Builder{Root: dir}

	diffText, err := b.Build(map[string]string{
		"b.txt": "two\n",
		"a.txt": "one\n",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ia := strings.Index(diffText, "+++ b/a.txt")
	ib := strings.Index(diffText, "+++ b/b.txt")
	if ia < 0 || ib < 0 || ia > ib {
		t.Errorf("sections out of order:\n%s", diffText)
	}
	if !strings.Contains(diffText, "\n\n") {
		t.Errorf("sections not blank-line separated:\n%s", diffText)
	}
}

func TestBuildSkipsPathsOutsideRoot(t *testing.T) {
	dir := t.TempDir()
	b := &Builder{Root: dir}

	diffText, err := b.Build(map[string]string{
		"../escape.txt":       "nope\n",
		"sub/../../steal.txt": "nope\n",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diffText != "" {
		t.Errorf("traversal paths produced output:\n%s", diffText)
	}
	if _, err := os.Stat(filepath.Join(dir, "..", "escape.txt")); err == nil {
		t.Error("traversal path touched the filesystem")
	}
}

func TestBuildBinaryOriginalTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blob.bin", "PK\x00\x01\x02binary")

	b := &Builder{Root: dir}
	diffText, err := b.Build(map[string]string{"blob.bin": "text now\n"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// The binary original reads as empty, so the diff is a pure addition.
	if strings.Contains(diffText, "-PK") {
		t.Errorf("binary content leaked into diff:\n%s", diffText)
	}
	if !strings.Contains(diffText, "+text now\n") {
		t.Errorf("expected pure addition:\n%s", diffText)
	}
}

func TestBuildRoundTripsThroughCheckDiff(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "old\n")

	b := &Builder{Root: dir}
	diffText, err := b.Build(map[string]string{"a.txt": "new\n"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := CheckDiff(diffText); err != nil {
		t.Errorf("Builder output failed CheckDiff: %v", err)
	}
}
