// Package telemetry provides a JSONL event stream for the patch engine.
// Staging, backup, apply, rollback, and rename operations are recorded as
// structured JSON events so external collaborators (audit logging, git
// integration, UIs) can observe the engine without taking part in the
// mutation contract.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileName is the event stream location under <root>/.term-coder/.
const FileName = "events.jsonl"

// Event kinds identify the type of engine event.
const (
	KindPatchStaged    = "patch_staged"
	KindPatchApplied   = "patch_applied"
	KindBackupCreated  = "backup_created"
	KindRollbackDone   = "rollback_done"
	KindRenamePlanned  = "rename_planned"
	KindTestsRun       = "tests_run"
	KindPendingCleared = "pending_cleared"
)

// Event represents a single engine event. Each event carries a timestamp,
// a kind tag, and optional identifiers along with arbitrary structured data.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Proposal  string    `json:"proposal,omitempty"`
	BackupID  string    `json:"backup,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter appends events to a JSONL file. It is safe for concurrent use by
// multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// Open creates an Emitter appending to <root>/.term-coder/events.jsonl,
// creating the directory if needed.
func Open(root string) (*Emitter, error) {
	dir := filepath.Join(root, ".term-coder")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{file: f, enc: json.NewEncoder(f)}, nil
}

// Emit writes a single event, stamping it if the caller did not. Calling
// Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
