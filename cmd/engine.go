package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/term-coder/internal/apply"
	"github.com/papapumpkin/term-coder/internal/config"
	"github.com/papapumpkin/term-coder/internal/format"
	"github.com/papapumpkin/term-coder/internal/patch"
	"github.com/papapumpkin/term-coder/internal/staging"
	"github.com/papapumpkin/term-coder/internal/telemetry"
	"github.com/papapumpkin/term-coder/internal/ui"
)

// engine bundles the wired components every subcommand needs.
type engine struct {
	cfg        config.Config
	root       string
	printer    ui.UI
	thresholds patch.Thresholds
	store      *staging.Store
	applier    *apply.Applier
	events     *telemetry.Emitter
}

// buildEngine loads config, applies persistent flag overrides, and wires
// the patch engine for the chosen project root. The telemetry emitter is
// optional: if the event stream cannot be opened the engine still works,
// it just goes unobserved.
func buildEngine(cmd *cobra.Command) (*engine, error) {
	cfg := config.Load()
	if wd, _ := cmd.Flags().GetString("work-dir"); wd != "" {
		cfg.WorkDir = wd
	}

	formatter, err := format.NewRunner(cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	events, err := telemetry.Open(cfg.WorkDir)
	if err != nil {
		events = nil
	}

	return &engine{
		cfg:        cfg,
		root:       cfg.WorkDir,
		printer:    ui.New(),
		thresholds: patch.Thresholds{MaxFiles: cfg.MaxFiles, MaxLines: cfg.MaxLines},
		store:      &staging.Store{Root: cfg.WorkDir},
		applier:    apply.New(cfg.WorkDir, formatter, events),
		events:     events,
	}, nil
}

func (e *engine) close() {
	_ = e.events.Close()
}
