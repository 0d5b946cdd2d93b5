package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/papapumpkin/term-coder/internal/ansi"
	"github.com/papapumpkin/term-coder/internal/apply"
	"github.com/papapumpkin/term-coder/internal/backup"
	"github.com/papapumpkin/term-coder/internal/patch"
	"github.com/papapumpkin/term-coder/internal/refactor"
)

// UI is the terminal output surface. Printer is the sole stderr-based
// implementation; consumers hold the interface for testability.
type UI interface {
	Error(msg string)
	Info(msg string)
	Diff(diffText string)
	ProposalSummary(prop *patch.Proposal)
	Applied(res apply.Result)
	ValidateOutcome(out apply.Outcome)
	RollbackDone(id string, ok bool)
	BackupList(snaps []backup.Snapshot)
	RenamePlan(plan *refactor.Plan)
	PendingCleared()
	NothingPending()
}

// Printer writes colorized output to a terminal, keeping stdout free for
// machine-readable use. Out defaults to stderr.
type Printer struct {
	Out io.Writer
}

// New returns a Printer writing to stderr.
func New() *Printer {
	return &Printer{Out: os.Stderr}
}

func (p *Printer) out() io.Writer {
	if p.Out == nil {
		return os.Stderr
	}
	return p.Out
}

// Error prints an error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.out(), ansi.Red+ansi.Bold+"error: "+ansi.Reset+"%s\n", msg)
}

// Info prints a dimmed informational line.
func (p *Printer) Info(msg string) {
	fmt.Fprintf(p.out(), ansi.Dim+"%s"+ansi.Reset+"\n", msg)
}

// Diff renders unified diff text with added lines in green, removed lines
// in red, and file/hunk headers emphasized.
func (p *Printer) Diff(diffText string) {
	if diffText == "" {
		fmt.Fprintln(p.out(), ansi.Dim+"(no changes)"+ansi.Reset)
		return
	}
	for _, line := range strings.Split(strings.TrimRight(diffText, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprintln(p.out(), ansi.Bold+line+ansi.Reset)
		case strings.HasPrefix(line, "@@"):
			fmt.Fprintln(p.out(), ansi.Cyan+line+ansi.Reset)
		case strings.HasPrefix(line, "+"):
			fmt.Fprintln(p.out(), ansi.Green+line+ansi.Reset)
		case strings.HasPrefix(line, "-"):
			fmt.Fprintln(p.out(), ansi.Red+line+ansi.Reset)
		default:
			fmt.Fprintln(p.out(), line)
		}
	}
}

// ProposalSummary prints the one-screen overview shown before a diff.
func (p *Printer) ProposalSummary(prop *patch.Proposal) {
	fmt.Fprintf(p.out(), ansi.Bold+ansi.Cyan+"◆ proposal"+ansi.Reset+" %s\n", prop.Instruction)
	if prop.Rationale != "" {
		fmt.Fprintf(p.out(), ansi.Dim+"  %s"+ansi.Reset+"\n", prop.Rationale)
	}
	fmt.Fprintf(p.out(), "  files: %d  +%d/-%d lines  safety: %s\n",
		prop.Impact.FilesChanged, prop.Impact.LinesAdded, prop.Impact.LinesRemoved,
		p.safety(prop.SafetyScore))
	for _, f := range prop.AffectedFiles {
		fmt.Fprintf(p.out(), ansi.Dim+"    %s"+ansi.Reset+"\n", f)
	}
}

// safety formats a score with a color cue at the conventional boundaries.
func (p *Printer) safety(score float64) string {
	color := ansi.Green
	switch {
	case score < 0.4:
		color = ansi.Red
	case score < 0.7:
		color = ansi.Yellow
	}
	return fmt.Sprintf(color+"%.2f"+ansi.Reset, score)
}

// Applied reports the outcome of a direct apply, including the rollback
// hint when a backup exists.
func (p *Printer) Applied(res apply.Result) {
	if !res.Applied {
		fmt.Fprintln(p.out(), ansi.Yellow+ansi.Bold+"✗ nothing applied"+ansi.Reset+" (no applicable files)")
		return
	}
	fmt.Fprintf(p.out(), ansi.Green+ansi.Bold+"✓ applied"+ansi.Reset+" %d file(s)\n", len(res.Written))
	if res.BackupID != "" {
		fmt.Fprintf(p.out(), ansi.Dim+"  rollback with: term-coder rollback %s"+ansi.Reset+"\n", res.BackupID)
	}
}

// ValidateOutcome reports the result of an apply-and-validate run.
func (p *Printer) ValidateOutcome(out apply.Outcome) {
	if out.Tests != nil {
		fmt.Fprintf(p.out(), "  tests: %d passed, %d failed\n", out.Tests.Passed, out.Tests.Failed)
	}
	if out.Applied {
		fmt.Fprintln(p.out(), ansi.Green+ansi.Bold+"✓ applied and validated"+ansi.Reset)
		return
	}
	if out.Tests != nil && out.Tests.Failed > 0 {
		fmt.Fprintf(p.out(), ansi.Red+ansi.Bold+"✗ tests failed"+ansi.Reset+", rolled back to %s\n", out.BackupID)
		return
	}
	fmt.Fprintln(p.out(), ansi.Yellow+ansi.Bold+"✗ not applied"+ansi.Reset)
}

// RollbackDone reports whether a snapshot restore happened.
func (p *Printer) RollbackDone(id string, ok bool) {
	if ok {
		fmt.Fprintf(p.out(), ansi.Green+ansi.Bold+"✓ restored"+ansi.Reset+" backup %s\n", id)
	} else {
		fmt.Fprintf(p.out(), ansi.Red+ansi.Bold+"✗ no such backup"+ansi.Reset+" %s\n", id)
	}
}

// BackupList prints snapshots one per line, newest first.
func (p *Printer) BackupList(snaps []backup.Snapshot) {
	if len(snaps) == 0 {
		fmt.Fprintln(p.out(), ansi.Dim+"(no backups)"+ansi.Reset)
		return
	}
	for _, s := range snaps {
		fmt.Fprintf(p.out(), "  %s  "+ansi.Dim+"%d file(s)  %s"+ansi.Reset+"\n",
			s.ID, s.FileCount, s.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

// RenamePlan prints a rename plan summary with per-file counts.
func (p *Printer) RenamePlan(plan *refactor.Plan) {
	fmt.Fprintf(p.out(), ansi.Bold+ansi.Cyan+"◆ rename"+ansi.Reset+" %s → %s\n", plan.Old, plan.New)
	fmt.Fprintf(p.out(), "  %d replacement(s) across %d file(s) (cap %d)\n",
		plan.Report.TotalReplacements, plan.Report.FilesChanged, plan.Report.MaxFilesAllowed)
	files := make([]string, 0, len(plan.Counts))
	for file := range plan.Counts {
		files = append(files, file)
	}
	sort.Strings(files)
	for _, file := range files {
		fmt.Fprintf(p.out(), ansi.Dim+"    %-40s %d"+ansi.Reset+"\n", file, plan.Counts[file])
	}
	for _, note := range plan.Report.Notes {
		fmt.Fprintf(p.out(), ansi.Yellow+"  ⚠ %s"+ansi.Reset+"\n", note)
	}
	if !plan.Report.OK {
		fmt.Fprintln(p.out(), ansi.Yellow+ansi.Bold+"  ⚠ plan is not safe to apply as-is"+ansi.Reset)
	}
}

// PendingCleared confirms the pending slot was emptied.
func (p *Printer) PendingCleared() {
	fmt.Fprintln(p.out(), ansi.Green+"✓ pending edit cleared"+ansi.Reset)
}

// NothingPending tells the user there is no staged edit to act on.
func (p *Printer) NothingPending() {
	fmt.Fprintln(p.out(), ansi.Dim+"(nothing staged, run 'term-coder stage' first)"+ansi.Reset)
}
