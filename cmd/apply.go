package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/term-coder/internal/apply"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the staged pending edit to the working tree",
	RunE:  runApply,
}

func init() {
	applyCmd.Flags().StringSlice("files", nil, "apply only these affected files")
	applyCmd.Flags().Bool("no-backup", false, "skip the pre-write snapshot (rollback becomes impossible)")
	applyCmd.Flags().Bool("no-format", false, "skip the post-write formatter pass")
	applyCmd.Flags().Bool("unsafe", false, "allow creating files that do not exist yet")
	applyCmd.Flags().Bool("validate", false, "run the test suite and roll back on failure")
	applyCmd.Flags().Bool("keep", false, "keep the pending edit staged after a successful apply")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	e, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	edit, err := e.store.Load()
	if err != nil {
		return err
	}
	if edit == nil {
		e.printer.NothingPending()
		return nil
	}

	validate, _ := cmd.Flags().GetBool("validate")
	if validate {
		loop := &apply.Loop{
			Applier: e.applier,
			Runner:  &apply.CommandTestRunner{Command: e.cfg.TestCommand, Dir: e.root},
		}
		out, err := loop.Run(cmd.Context(), edit.Proposal, true)
		if err != nil {
			return err
		}
		e.printer.ValidateOutcome(out)
		if out.Applied {
			clearAfterApply(cmd, e)
		}
		return nil
	}

	opts := apply.DefaultOptions()
	opts.Files, _ = cmd.Flags().GetStringSlice("files")
	if noBackup, _ := cmd.Flags().GetBool("no-backup"); noBackup {
		opts.CreateBackup = false
	}
	if noFormat, _ := cmd.Flags().GetBool("no-format"); noFormat {
		opts.RunFormatters = false
	}
	opts.Unsafe, _ = cmd.Flags().GetBool("unsafe")

	res, err := e.applier.Apply(cmd.Context(), edit.Proposal, opts)
	if err != nil {
		return err
	}
	e.printer.Applied(res)
	if res.Applied {
		clearAfterApply(cmd, e)
	}
	return nil
}

func clearAfterApply(cmd *cobra.Command, e *engine) {
	if keep, _ := cmd.Flags().GetBool("keep"); keep {
		return
	}
	if err := e.store.Clear(); err != nil {
		e.printer.Error(err.Error())
	}
}
