// Package patch builds, analyzes, and scores whole-file change proposals.
// A proposal is the unit of work everything else in term-coder consumes:
// the staging slot persists one, the applier mutates the working tree from
// one, and the refactor engine produces one.
package patch

import (
	"time"

	"github.com/google/uuid"
)

// Impact summarizes the size and shape of a proposed change. Its fields are
// always derived from diff text by Analyze, never set by hand.
type Impact struct {
	FilesChanged int `json:"files_changed"`
	LinesAdded   int `json:"lines_added"`
	LinesRemoved int `json:"lines_removed"`
}

// Total returns the combined added and removed line count.
func (i Impact) Total() int {
	return i.LinesAdded + i.LinesRemoved
}

// Thresholds configures the safety scorer. Both values must be positive.
type Thresholds struct {
	MaxFiles int `json:"max_files"`
	MaxLines int `json:"max_lines"`
}

// DefaultThresholds returns the scoring limits used when no configuration
// overrides them.
func DefaultThresholds() Thresholds {
	return Thresholds{MaxFiles: 50, MaxLines: 2000}
}

// Proposal is a candidate, not-yet-applied set of whole-file content
// replacements plus metadata. AffectedFiles, Impact, and SafetyScore are
// derived from the diff text at construction; treat a Proposal as immutable
// once built.
//
// NewContents maps relative paths to full replacement content. A nil map
// means the proposal carries diff text only (e.g. it came straight from a
// model) and cannot be applied. A non-nil map that lacks an entry for some
// affected file means that file is deliberately skipped during apply.
type Proposal struct {
	ID            string            `json:"id"`
	Instruction   string            `json:"instruction"`
	Diff          string            `json:"diff"`
	Rationale     string            `json:"rationale,omitempty"`
	AffectedFiles []string          `json:"affected_files"`
	SafetyScore   float64           `json:"safety_score"`
	Impact        Impact            `json:"estimated_impact"`
	NewContents   map[string]string `json:"new_contents,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NewProposal constructs a Proposal from diff text, deriving the affected
// file list, impact, and safety score. The diff is the single source of
// truth for those fields.
func NewProposal(instruction, diffText, rationale string, newContents map[string]string, t Thresholds) *Proposal {
	files, impact := Analyze(diffText)
	return &Proposal{
		ID:            uuid.NewString(),
		Instruction:   instruction,
		Diff:          diffText,
		Rationale:     rationale,
		AffectedFiles: files,
		SafetyScore:   Score(impact, t),
		Impact:        impact,
		NewContents:   newContents,
		CreatedAt:     time.Now().UTC(),
	}
}

// Empty reports whether the proposal contains no textual change.
func (p *Proposal) Empty() bool {
	return p == nil || p.Diff == ""
}
