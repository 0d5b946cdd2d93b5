package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/term-coder/internal/apply"
	"github.com/papapumpkin/term-coder/internal/refactor"
	"github.com/papapumpkin/term-coder/internal/staging"
)

var renameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Token-exact symbol rename across the project",
	Long: "Rename replaces bare-identifier occurrences of <old> with <new>,\n" +
		"leaving string literals and comments untouched. By default the plan\n" +
		"is staged as the pending edit for review; --apply writes it\n" +
		"immediately and --validate additionally runs the test suite,\n" +
		"rolling back if it fails.",
	Args: cobra.ExactArgs(2),
	RunE: runRename,
}

func init() {
	renameCmd.Flags().StringSlice("include", nil, "glob patterns selecting files (default: known source files)")
	renameCmd.Flags().StringSlice("exclude", nil, "glob patterns excluding files")
	renameCmd.Flags().Int("max-files", 0, "cap on files touched (default from config)")
	renameCmd.Flags().Bool("apply", false, "apply the plan instead of staging it")
	renameCmd.Flags().Bool("validate", false, "with --apply: run tests and roll back on failure")

	rootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, args []string) error {
	e, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	maxFiles, _ := cmd.Flags().GetInt("max-files")
	if maxFiles <= 0 {
		maxFiles = e.cfg.RenameMaxFiles
	}

	engine := refactor.New(e.root, e.thresholds, e.events)
	plan, err := engine.RenameSymbol(cmd.Context(), refactor.Options{
		Old:      args[0],
		New:      args[1],
		Include:  include,
		Exclude:  exclude,
		MaxFiles: maxFiles,
	})
	if err != nil {
		return err
	}

	e.printer.RenamePlan(plan)
	if plan.Report.FilesChanged == 0 {
		return nil
	}

	doApply, _ := cmd.Flags().GetBool("apply")
	if !doApply {
		if err := e.store.Save(staging.PendingEdit{
			Instruction: plan.Proposal.Instruction,
			Proposal:    plan.Proposal,
		}); err != nil {
			return err
		}
		e.printer.Info("staged: review with 'term-coder diff', apply with 'term-coder apply'")
		return nil
	}

	validate, _ := cmd.Flags().GetBool("validate")
	loop := &apply.Loop{
		Applier: e.applier,
		Runner:  &apply.CommandTestRunner{Command: e.cfg.TestCommand, Dir: e.root},
	}
	out, err := loop.Run(cmd.Context(), plan.Proposal, validate)
	if err != nil {
		return err
	}
	e.printer.ValidateOutcome(out)
	return nil
}
