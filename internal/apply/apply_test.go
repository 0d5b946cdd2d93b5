package apply

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/papapumpkin/term-coder/internal/backup"
	"github.com/papapumpkin/term-coder/internal/patch"
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

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// proposalFor builds a real proposal by diffing the changes against dir.
func proposalFor(t *testing.T, dir string, changes map[string]string) *patch.Proposal {
	t.Helper()
	b := &patch.Builder{Root: dir}
	diffText, err := b.Build(changes)
	if err != nil {
		t.Fatal(err)
	}
	return patch.NewProposal("test change", diffText, "", changes, patch.DefaultThresholds())
}

func newApplier(dir string) *Applier {
	return &Applier{Root: dir, Backups: &backup.Manager{Root: dir}}
}

func TestApplyRefusesMissingFileWhenSafe(t *testing.T) {
	dir := t.TempDir()
	p := proposalFor(t, dir, map[string]string{"brand_new.go": "package brandnew\n"})

	res, err := newApplier(dir).Apply(context.Background(), p, DefaultOptions())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Applied || res.BackupID != "" {
		t.Errorf("result = %+v, want not applied with no backup", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "brand_new.go")); err == nil {
		t.Error("safe apply created a new file")
	}
}

func TestApplyUnsafeCreatesNewFile(t *testing.T) {
	dir := t.TempDir()
	p := proposalFor(t, dir, map[string]string{"pkg/new.go": "package pkg\n"})

	opts := DefaultOptions()
	opts.Unsafe = true
	res, err := newApplier(dir).Apply(context.Background(), p, opts)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !res.Applied {
		t.Fatal("not applied")
	}
	if got := readFile(t, filepath.Join(dir, "pkg/new.go")); got != "package pkg\n" {
		t.Errorf("content = %q", got)
	}
}

func TestApplyOverwritesAndBacksUp(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.go", "old\n")
	a := newApplier(dir)
	p := proposalFor(t, dir, map[string]string{"app.go": "new\n"})

	res, err := a.Apply(context.Background(), p, DefaultOptions())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !res.Applied || res.BackupID == "" {
		t.Fatalf("result = %+v", res)
	}
	if got := readFile(t, path); got != "new\n" {
		t.Errorf("content after apply = %q", got)
	}

	ok, err := a.Rollback(res.BackupID)
	if err != nil || !ok {
		t.Fatalf("Rollback: ok=%v err=%v", ok, err)
	}
	if got := readFile(t, path); got != "old\n" {
		t.Errorf("content after rollback = %q", got)
	}
}

func TestApplyWithoutContentsFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.go", "old\n")
	p := proposalFor(t, dir, map[string]string{"app.go": "new\n"})
	p.NewContents = nil // diff-only proposal, e.g. straight from a model

	res, err := newApplier(dir).Apply(context.Background(), p, DefaultOptions())
	if !errors.Is(err, ErrNoReplacementContents) {
		t.Fatalf("err = %v, want ErrNoReplacementContents", err)
	}
	if res.Applied {
		t.Error("applied without contents")
	}
	if res.BackupID == "" {
		t.Error("backup id lost on failure")
	}
	if got := readFile(t, filepath.Join(dir, "app.go")); got != "old\n" {
		t.Errorf("file mutated: %q", got)
	}
}

func TestApplySkipsFilesWithoutEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a-old\n")
	writeFile(t, dir, "b.txt", "b-old\n")
	p := proposalFor(t, dir, map[string]string{
		"a.txt": "a-new\n",
		"b.txt": "b-new\n",
	})
	delete(p.NewContents, "b.txt") // entry missing: silent per-file skip

	res, err := newApplier(dir).Apply(context.Background(), p, DefaultOptions())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !res.Applied {
		t.Fatal("not applied")
	}
	if got := readFile(t, filepath.Join(dir, "a.txt")); got != "a-new\n" {
		t.Errorf("a.txt = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "b.txt")); got != "b-old\n" {
		t.Errorf("b.txt = %q, want untouched", got)
	}
}

func TestApplyHonorsPickList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a-old\n")
	writeFile(t, dir, "b.txt", "b-old\n")
	p := proposalFor(t, dir, map[string]string{
		"a.txt": "a-new\n",
		"b.txt": "b-new\n",
	})

	opts := DefaultOptions()
	opts.Files = []string{"b.txt"}
	res, err := newApplier(dir).Apply(context.Background(), p, opts)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !res.Applied {
		t.Fatal("not applied")
	}
	if got := readFile(t, filepath.Join(dir, "a.txt")); got != "a-old\n" {
		t.Errorf("a.txt = %q, want untouched", got)
	}
	if got := readFile(t, filepath.Join(dir, "b.txt")); got != "b-new\n" {
		t.Errorf("b.txt = %q", got)
	}
}

func TestLoopRollsBackOnTestFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.go", "before\n")
	p := proposalFor(t, dir, map[string]string{"app.go": "after\n"})

	loop := &Loop{
		Applier: newApplier(dir),
		Runner: TestRunnerFunc(func(context.Context) (TestResult, error) {
			return TestResult{Failed: 1, Passed: 0}, nil
		}),
	}
	out, err := loop.Run(context.Background(), p, true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Applied {
		t.Error("applied despite failing tests")
	}
	if out.BackupID == "" {
		t.Error("no backup id")
	}
	if out.Tests == nil || out.Tests.Failed != 1 || out.Tests.Passed != 0 {
		t.Errorf("tests = %+v", out.Tests)
	}
	if got := readFile(t, path); got != "before\n" {
		t.Errorf("content = %q, want restored %q", got, "before\n")
	}
}

func TestLoopKeepsChangesWhenTestsPass(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.go", "before\n")
	p := proposalFor(t, dir, map[string]string{"app.go": "after\n"})

	loop := &Loop{
		Applier: newApplier(dir),
		Runner: TestRunnerFunc(func(context.Context) (TestResult, error) {
			return TestResult{Failed: 0, Passed: 12}, nil
		}),
	}
	out, err := loop.Run(context.Background(), p, true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Applied || out.Tests == nil || out.Tests.Passed != 12 {
		t.Errorf("outcome = %+v", out)
	}
	if got := readFile(t, path); got != "after\n" {
		t.Errorf("content = %q", got)
	}
}

func TestLoopSkipsTestsWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.go", "before\n")
	p := proposalFor(t, dir, map[string]string{"app.go": "after\n"})

	loop := &Loop{
		Applier: newApplier(dir),
		Runner: TestRunnerFunc(func(context.Context) (TestResult, error) {
			t.Error("runner invoked with runTests=false")
			return TestResult{}, nil
		}),
	}
	out, err := loop.Run(context.Background(), p, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Applied || out.Tests != nil {
		t.Errorf("outcome = %+v", out)
	}
}

func TestLoopRejectsEmptyPlan(t *testing.T) {
	loop := &Loop{Applier: newApplier(t.TempDir())}

	out, err := loop.Run(context.Background(), nil, true)
	if err != nil || out.Applied || out.BackupID != "" {
		t.Errorf("nil proposal: out=%+v err=%v", out, err)
	}

	empty := patch.NewProposal("noop", "", "", map[string]string{}, patch.DefaultThresholds())
	out, err = loop.Run(context.Background(), empty, true)
	if err != nil || out.Applied {
		t.Errorf("empty proposal: out=%+v err=%v", out, err)
	}
}

func TestParseTestOutput(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want TestResult
	}{
		{
			name: "GoVerbose",
			out:  "=== RUN TestA\n--- PASS: TestA (0.00s)\n=== RUN TestB\n--- FAIL: TestB (0.01s)\nFAIL\n",
			want: TestResult{Failed: 1, Passed: 1},
		},
		{
			name: "Pytest",
			out:  "............F\n2 failed, 40 passed in 1.32s\n",
			want: TestResult{Failed: 2, Passed: 40},
		},
		{
			name: "Unrecognized",
			out:  "make: nothing to be done\n",
			want: TestResult{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseTestOutput(tt.out); got != tt.want {
				t.Errorf("parseTestOutput = %+v, want %+v", got, tt.want)
			}
		})
	}
}
