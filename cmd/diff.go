package cmd

import (
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show the staged pending edit",
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().Bool("summary", false, "show only the proposal summary, not the diff body")

	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
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

	e.printer.ProposalSummary(edit.Proposal)
	if summary, _ := cmd.Flags().GetBool("summary"); !summary {
		e.printer.Diff(edit.Proposal.Diff)
	}
	return nil
}
