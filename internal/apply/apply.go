// Package apply mutates the working tree from a patch proposal with
// backup-before-write ordering, and composes apply with a test-validated
// rollback loop.
package apply

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/papapumpkin/term-coder/internal/backup"
	"github.com/papapumpkin/term-coder/internal/format"
	"github.com/papapumpkin/term-coder/internal/patch"
	"github.com/papapumpkin/term-coder/internal/telemetry"
)

// ErrNoReplacementContents is returned when a proposal carries no
// NewContents map at all. This engine applies whole-file replacements only;
// a diff-only proposal can be previewed but never applied. A map that is
// merely missing an entry for one affected file is different by documented
// policy: that file is silently skipped.
var ErrNoReplacementContents = errors.New("proposal has no replacement contents (diff-only proposals cannot be applied)")

// Options controls one Apply call.
type Options struct {
	Files         []string // optional pick-list restricting the affected set
	CreateBackup  bool
	RunFormatters bool
	Unsafe        bool // allow writing files that do not exist yet
}

// DefaultOptions enables backups and formatting, refuses new files.
func DefaultOptions() Options {
	return Options{CreateBackup: true, RunFormatters: true}
}

// Result reports the outcome of an Apply call. BackupID is set as soon as a
// snapshot exists, even when the apply itself subsequently fails, so the
// caller can always offer a rollback.
type Result struct {
	Applied  bool
	BackupID string
	Written  []string // root-relative paths actually written
}

// Applier performs the filesystem mutation for one project root.
type Applier struct {
	Root      string
	Backups   *backup.Manager
	Formatter *format.Runner     // optional; nil disables formatting
	Events    *telemetry.Emitter // optional; nil disables events
}

// New wires an Applier for root with its backup manager.
func New(root string, formatter *format.Runner, events *telemetry.Emitter) *Applier {
	return &Applier{
		Root:      root,
		Backups:   &backup.Manager{Root: root},
		Formatter: formatter,
		Events:    events,
	}
}

// Apply writes the proposal's whole-file replacements into the working
// tree.
//
// Candidate files are the proposal's affected files filtered to those
// resolving under the root (and to the pick-list, when given); unless
// opts.Unsafe is set, each candidate must already exist on disk. An empty
// candidate set is not an error: the result simply reports Applied=false.
//
// When a backup is requested it is created strictly before any write, and
// a backup failure aborts the whole call. Writes are staged to temporary
// siblings first and renamed into place only after every stage succeeded,
// so a failure mid-apply leaves the tree untouched.
func (a *Applier) Apply(ctx context.Context, p *patch.Proposal, opts Options) (Result, error) {
	var res Result
	if p == nil {
		return res, nil
	}

	candidates := a.candidateFiles(p, opts)
	if len(candidates) == 0 {
		return res, nil
	}

	if opts.CreateBackup {
		id, err := a.Backups.Create(candidates)
		if err != nil {
			return res, fmt.Errorf("apply: %w", err)
		}
		res.BackupID = id
		a.emit(telemetry.Event{Kind: telemetry.KindBackupCreated, Proposal: p.ID, BackupID: id,
			Data: map[string]any{"files": candidates}})
	}

	if p.NewContents == nil {
		return res, ErrNoReplacementContents
	}

	staged, err := a.stageWrites(candidates, p.NewContents)
	if err != nil {
		return res, fmt.Errorf("apply: %w", err)
	}
	for _, s := range staged {
		if err := os.Rename(s.tmp, s.dst); err != nil {
			// Rename is the atomic boundary; a failure here is a hard
			// error and the backup id lets the caller restore.
			return res, fmt.Errorf("apply: rename %s: %w", s.rel, err)
		}
		res.Written = append(res.Written, s.rel)
	}

	if opts.RunFormatters {
		for _, s := range staged {
			a.Formatter.Format(ctx, s.dst)
		}
	}

	res.Applied = true
	a.emit(telemetry.Event{Kind: telemetry.KindPatchApplied, Proposal: p.ID, BackupID: res.BackupID,
		Data: map[string]any{"written": res.Written}})
	return res, nil
}

// Rollback restores a snapshot and emits the corresponding event.
func (a *Applier) Rollback(id string) (bool, error) {
	ok, err := a.Backups.Rollback(id)
	a.emit(telemetry.Event{Kind: telemetry.KindRollbackDone, BackupID: id,
		Data: map[string]bool{"ok": ok}})
	return ok, err
}

// candidateFiles filters the proposal's affected files to the applicable
// set: under the root, in the pick-list when one is given, and existing on
// disk unless the caller opted into unsafe mode.
func (a *Applier) candidateFiles(p *patch.Proposal, opts Options) []string {
	pick := map[string]bool{}
	for _, f := range opts.Files {
		pick[filepath.ToSlash(f)] = true
	}

	var out []string
	for _, rel := range p.AffectedFiles {
		abs, ok := resolveUnder(a.Root, rel)
		if !ok {
			continue
		}
		if len(pick) > 0 && !pick[filepath.ToSlash(rel)] {
			continue
		}
		if !opts.Unsafe {
			info, err := os.Stat(abs)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		out = append(out, rel)
	}
	return out
}

type stagedWrite struct {
	rel string
	tmp string
	dst string
}

// stageWrites writes every replacement to a temporary sibling file. Any
// failure removes the temporaries already created and returns before a
// single destination file has been touched.
func (a *Applier) stageWrites(candidates []string, contents map[string]string) ([]stagedWrite, error) {
	var staged []stagedWrite
	cleanup := func() {
		for _, s := range staged {
			os.Remove(s.tmp)
		}
	}

	for _, rel := range candidates {
		content, ok := contents[rel]
		if !ok {
			continue // documented policy: per-file skip
		}
		dst, _ := resolveUnder(a.Root, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			cleanup()
			return nil, fmt.Errorf("stage %s: %w", rel, err)
		}
		tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("stage %s: %w", rel, err)
		}
		if _, err := tmp.WriteString(content); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			cleanup()
			return nil, fmt.Errorf("stage %s: %w", rel, err)
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			cleanup()
			return nil, fmt.Errorf("stage %s: %w", rel, err)
		}
		staged = append(staged, stagedWrite{rel: rel, tmp: tmp.Name(), dst: dst})
	}
	return staged, nil
}

func (a *Applier) emit(evt telemetry.Event) {
	_ = a.Events.Emit(evt)
}

// resolveUnder joins rel onto root and reports whether the result stays
// lexically inside root.
func resolveUnder(root, rel string) (string, bool) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(filepath.Join(rootAbs, rel))
	if err != nil {
		return "", false
	}
	inside, err := filepath.Rel(rootAbs, abs)
	if err != nil {
		return "", false
	}
	if inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}
