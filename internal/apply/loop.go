package apply

import (
	"context"
	"fmt"

	"github.com/papapumpkin/term-coder/internal/patch"
	"github.com/papapumpkin/term-coder/internal/telemetry"
)

// Outcome reports the result of one apply-and-validate run. Tests is nil
// when the suite was not run.
type Outcome struct {
	Applied  bool
	BackupID string
	Tests    *TestResult
}

// Loop composes apply with automatic rollback on test failure. The runner
// is injected so callers (and tests) can substitute any validation step.
type Loop struct {
	Applier *Applier
	Runner  TestRunner
}

// Run applies the proposal unsafely (the producer already decided which
// files to touch, including new ones), then validates. A proposal that is
// nil or carries no replacement contents is not applied and not an error.
// When the suite reports failures the snapshot is restored and the outcome
// carries Applied=false together with the counts.
func (l *Loop) Run(ctx context.Context, p *patch.Proposal, runTests bool) (Outcome, error) {
	var out Outcome
	if p == nil || len(p.NewContents) == 0 {
		return out, nil
	}

	res, err := l.Applier.Apply(ctx, p, Options{
		CreateBackup:  true,
		RunFormatters: true,
		Unsafe:        true,
	})
	out.BackupID = res.BackupID
	if err != nil {
		return out, err
	}
	if !res.Applied {
		return out, nil
	}

	if !runTests || l.Runner == nil {
		out.Applied = true
		return out, nil
	}

	result, err := l.Runner.Run(ctx)
	if err != nil {
		// The suite could not even run; restore and surface the error.
		if _, rbErr := l.Applier.Rollback(out.BackupID); rbErr != nil {
			return out, fmt.Errorf("apply: tests failed to run (%v) and rollback failed: %w", err, rbErr)
		}
		return out, fmt.Errorf("apply: running tests: %w", err)
	}
	out.Tests = &result
	l.Applier.emit(telemetry.Event{Kind: telemetry.KindTestsRun, Proposal: p.ID, BackupID: out.BackupID, Data: result})

	if result.Failed > 0 {
		if _, rbErr := l.Applier.Rollback(out.BackupID); rbErr != nil {
			return out, fmt.Errorf("apply: rollback after failing tests: %w", rbErr)
		}
		return out, nil
	}

	out.Applied = true
	return out, nil
}
