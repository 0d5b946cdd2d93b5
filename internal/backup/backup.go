// Package backup snapshots files before a patch touches them and restores
// them by opaque snapshot id. Snapshots are mirrored trees under
// <root>/.term-coder/backups/<id>/ and are immutable once written.
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Dir is the backups directory, relative to the project root.
const Dir = ".term-coder/backups"

// Manager creates and restores snapshots for one project root.
type Manager struct {
	Root string
}

// Snapshot describes one existing snapshot generation.
type Snapshot struct {
	ID        string
	FileCount int
	CreatedAt time.Time
}

// Create snapshots the given root-relative paths and returns the new
// snapshot id. Paths that do not exist, are not regular files, or resolve
// outside the root are skipped. Any copy failure fails the whole call and
// removes the partial snapshot: an incomplete backup would break the
// rollback guarantee the applier depends on.
func (m *Manager) Create(paths []string) (string, error) {
	id := m.newID()
	base := filepath.Join(m.Root, Dir, id)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("backup: create snapshot dir: %w", err)
	}

	for _, rel := range paths {
		src, ok := resolveUnder(m.Root, rel)
		if !ok {
			continue
		}
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		dst := filepath.Join(base, filepath.FromSlash(rel))
		if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
			os.RemoveAll(base)
			return "", fmt.Errorf("backup: snapshot %s: %w", rel, err)
		}
	}
	return id, nil
}

// Rollback restores every file recorded under the snapshot id to its
// original location, creating parent directories as needed. It returns
// false with a nil error when the id is unknown. Restore failures do not
// stop the remaining files; they are accumulated, and ok is true only when
// every file was restored.
func (m *Manager) Rollback(id string) (ok bool, err error) {
	base := filepath.Join(m.Root, Dir, id)
	if info, statErr := os.Stat(base); statErr != nil || !info.IsDir() {
		return false, nil
	}

	var errs []error
	walkErr := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		info, err := d.Info()
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		dst := filepath.Join(m.Root, rel)
		if err := copyFile(path, dst, info.Mode().Perm()); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", rel, err))
		}
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	if len(errs) > 0 {
		return false, fmt.Errorf("backup: rollback %s incomplete: %w", id, errors.Join(errs...))
	}
	return true, nil
}

// List enumerates existing snapshots, newest first.
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(filepath.Join(m.Root, Dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("backup: list: %w", err)
	}

	var snaps []Snapshot
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s := Snapshot{ID: e.Name()}
		if info, err := e.Info(); err == nil {
			s.CreatedAt = info.ModTime()
		}
		filepath.WalkDir(filepath.Join(m.Root, Dir, e.Name()), func(_ string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() {
				s.FileCount++
			}
			return nil
		})
		snaps = append(snaps, s)
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID > snaps[j].ID })
	return snaps, nil
}

// newID returns a millisecond-epoch id, suffixed when a snapshot with that
// id already exists (two applies within the same millisecond).
func (m *Manager) newID() string {
	id := strconv.FormatInt(time.Now().UnixMilli(), 10)
	base := filepath.Join(m.Root, Dir)
	candidate := id
	for n := 1; ; n++ {
		if _, err := os.Stat(filepath.Join(base, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = id + "-" + strconv.Itoa(n)
	}
}

func copyFile(src, dst string, perm fs.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, perm)
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
