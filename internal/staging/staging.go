// Package staging persists the single pending-edit slot: the most recent
// proposal that has been built but not yet applied. The slot lives at
// <root>/.term-coder/pending_edit.json and last writer wins.
package staging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/papapumpkin/term-coder/internal/patch"
)

// FileName is the slot location under <root>/.term-coder/.
const FileName = "pending_edit.json"

// PendingEdit is the staged, not-yet-applied proposal.
type PendingEdit struct {
	Instruction string          `json:"instruction"`
	Proposal    *patch.Proposal `json:"proposal"`
	SavedAt     time.Time       `json:"saved_at"`
}

// Store reads and writes the pending-edit slot for one project root.
type Store struct {
	Root string
}

func (s *Store) path() string {
	return filepath.Join(s.Root, ".term-coder", FileName)
}

// Save persists the edit, fully replacing any prior slot content. The write
// goes through a temp file and rename so a crash never leaves a torn slot.
func (s *Store) Save(edit PendingEdit) error {
	if edit.SavedAt.IsZero() {
		edit.SavedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(edit, "", "  ")
	if err != nil {
		return fmt.Errorf("staging: encode pending edit: %w", err)
	}

	path := s.path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("staging: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("staging: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("staging: write pending edit: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("staging: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("staging: %w", err)
	}
	return nil
}

// Load returns the staged edit, or nil when the slot is absent or
// malformed. A half-written or stale slot is treated the same as no slot:
// the user simply has nothing staged.
func (s *Store) Load() (*PendingEdit, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("staging: read pending edit: %w", err)
	}
	var edit PendingEdit
	if err := json.Unmarshal(data, &edit); err != nil {
		return nil, nil
	}
	if edit.Proposal == nil {
		return nil, nil
	}
	return &edit, nil
}

// Clear deletes the slot. A missing slot is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("staging: clear pending edit: %w", err)
	}
	return nil
}
