// Package refactor performs token-exact symbol renaming across a file set
// and packages the result as a patch proposal.
package refactor

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"unicode/utf8"

	"github.com/papapumpkin/term-coder/internal/patch"
	"github.com/papapumpkin/term-coder/internal/telemetry"
)

// DefaultMaxFiles caps how many files one rename may touch before the scan
// stops accumulating.
const DefaultMaxFiles = 200

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options configures one rename operation.
type Options struct {
	Old      string
	New      string
	Include  []string // glob patterns; empty means DefaultIncludes
	Exclude  []string // glob patterns, applied on top of DefaultExcludes
	MaxFiles int      // <= 0 means DefaultMaxFiles
}

// SafetyReport summarizes a rename plan. OK is true only when the rename
// touched at least one file and stayed within the file cap.
type SafetyReport struct {
	FilesChanged      int      `json:"files_changed"`
	TotalReplacements int      `json:"total_replacements"`
	MaxFilesAllowed   int      `json:"max_files_allowed"`
	OK                bool     `json:"ok"`
	Notes             []string `json:"notes,omitempty"`
}

// Plan is the result of a rename operation: the proposed contents per file,
// per-file replacement counts, the safety report, and the derived proposal.
type Plan struct {
	Old      string            `json:"old"`
	New      string            `json:"new"`
	Include  []string          `json:"include,omitempty"`
	Exclude  []string          `json:"exclude,omitempty"`
	Changes  map[string]string `json:"changes"`
	Counts   map[string]int    `json:"counts"`
	Report   SafetyReport      `json:"report"`
	Proposal *patch.Proposal   `json:"proposal,omitempty"`
}

// Engine scans the project tree and produces rename plans.
type Engine struct {
	Root       string
	Builder    *patch.Builder
	Thresholds patch.Thresholds
	Events     *telemetry.Emitter // optional
}

// New wires a rename engine for root.
func New(root string, thresholds patch.Thresholds, events *telemetry.Emitter) *Engine {
	return &Engine{
		Root:       root,
		Builder:    &patch.Builder{Root: root},
		Thresholds: thresholds,
		Events:     events,
	}
}

// RenameSymbol renames every bare-identifier occurrence of opts.Old to
// opts.New across the files selected by the include/exclude globs. Files
// with a registered grammar are renamed token-exactly; files whose source
// fails to tokenize, and extensions without a grammar, fall back to a
// whole-word regex replace. Accumulation stops, with a note rather than an
// error, once the file cap is exceeded.
func (e *Engine) RenameSymbol(ctx context.Context, opts Options) (*Plan, error) {
	if !identRe.MatchString(opts.Old) {
		return nil, fmt.Errorf("refactor: %q is not a valid identifier", opts.Old)
	}
	if !identRe.MatchString(opts.New) {
		return nil, fmt.Errorf("refactor: %q is not a valid identifier", opts.New)
	}

	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	includes := opts.Include
	if len(includes) == 0 {
		includes = DefaultIncludes
	}
	matcher, err := newGlobMatcher(includes, append(append([]string{}, DefaultExcludes...), opts.Exclude...))
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Old:     opts.Old,
		New:     opts.New,
		Include: opts.Include,
		Exclude: opts.Exclude,
		Changes: map[string]string{},
		Counts:  map[string]int{},
		Report:  SafetyReport{MaxFilesAllowed: maxFiles},
	}

	rootAbs, err := filepath.Abs(e.Root)
	if err != nil {
		return nil, fmt.Errorf("refactor: resolve root: %w", err)
	}

	walkErr := filepath.WalkDir(rootAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", ".term-coder", "node_modules", "vendor":
				if path != rootAbs {
					return filepath.SkipDir
				}
			}
			return nil
		}

		rel, err := filepath.Rel(rootAbs, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !matcher.Match(rel) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil || !utf8.Valid(data) || bytes.ContainsRune(data, 0) {
			return nil
		}

		out, count := e.renameIn(ctx, rel, string(data), opts.Old, opts.New)
		if count == 0 {
			return nil
		}
		if len(plan.Changes) >= maxFiles {
			plan.Report.Notes = append(plan.Report.Notes,
				fmt.Sprintf("stopped after %d files; more matches remain", maxFiles))
			return fs.SkipAll
		}
		plan.Changes[rel] = out
		plan.Counts[rel] = count
		plan.Report.TotalReplacements += count
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("refactor: scanning %s: %w", e.Root, walkErr)
	}

	plan.Report.FilesChanged = len(plan.Changes)
	plan.Report.OK = plan.Report.FilesChanged > 0 && plan.Report.FilesChanged <= maxFiles

	diffText, err := e.Builder.Build(plan.Changes)
	if err != nil {
		return nil, err
	}
	plan.Proposal = patch.NewProposal(
		fmt.Sprintf("Rename symbol %q to %q", opts.Old, opts.New),
		diffText,
		fmt.Sprintf("%d replacement(s) across %d file(s)", plan.Report.TotalReplacements, plan.Report.FilesChanged),
		plan.Changes,
		e.Thresholds,
	)

	_ = e.Events.Emit(telemetry.Event{Kind: telemetry.KindRenamePlanned, Proposal: plan.Proposal.ID,
		Data: plan.Report})
	return plan, nil
}

// renameIn picks the token renamer for the file's extension and falls back
// to the whole-word regex renamer when tokenization is unavailable or
// fails.
func (e *Engine) renameIn(ctx context.Context, rel, src, oldName, newName string) (string, int) {
	if tr, ok := tokenRenamers[filepath.Ext(rel)]; ok {
		if out, count, err := tr.rename(ctx, src, oldName, newName); err == nil {
			return out, count
		}
	}
	out, count, err := regexRenamer{}.rename(ctx, src, oldName, newName)
	if err != nil {
		return src, 0
	}
	return out, count
}
