package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/papapumpkin/term-coder/internal/apply"
	"github.com/papapumpkin/term-coder/internal/patch"
)

func capture() (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Printer{Out: &buf}, &buf
}

func TestDiffColorsLines(t *testing.T) {
	p, buf := capture()
	p.Diff("--- a/x.go\n+++ b/x.go\n@@ -1 +1 @@\n-old\n+new\n")

	out := buf.String()
	for _, want := range []string{"+new", "-old", "@@ -1 +1 @@"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff output missing %q:\n%s", want, out)
		}
	}
}

func TestDiffEmpty(t *testing.T) {
	p, buf := capture()
	p.Diff("")
	if !strings.Contains(buf.String(), "no changes") {
		t.Errorf("empty diff output = %q", buf.String())
	}
}

func TestProposalSummary(t *testing.T) {
	p, buf := capture()
	p.ProposalSummary(&patch.Proposal{
		Instruction:   "tidy imports",
		AffectedFiles: []string{"a.go", "b.go"},
		Impact:        patch.Impact{FilesChanged: 2, LinesAdded: 3, LinesRemoved: 1},
		SafetyScore:   0.95,
	})

	out := buf.String()
	for _, want := range []string{"tidy imports", "a.go", "b.go", "files: 2", "+3/-1", "0.95"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestAppliedIncludesRollbackHint(t *testing.T) {
	p, buf := capture()
	p.Applied(apply.Result{Applied: true, BackupID: "12345", Written: []string{"a.go"}})

	out := buf.String()
	if !strings.Contains(out, "rollback 12345") {
		t.Errorf("applied output missing rollback hint:\n%s", out)
	}
}

func TestValidateOutcomeRolledBack(t *testing.T) {
	p, buf := capture()
	p.ValidateOutcome(apply.Outcome{
		BackupID: "777",
		Tests:    &apply.TestResult{Failed: 2, Passed: 5},
	})

	out := buf.String()
	if !strings.Contains(out, "2 failed") || !strings.Contains(out, "rolled back to 777") {
		t.Errorf("validate output = %q", out)
	}
}

func TestNilOutFallsBackToStderr(t *testing.T) {
	// A zero-value Printer must not panic.
	p := &Printer{}
	if p.out() == nil {
		t.Fatal("out() returned nil writer")
	}
}
