package cmd

import (
	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <backup-id>",
	Short: "Restore files from a backup snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runRollback,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	e, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ok, err := e.applier.Rollback(args[0])
	if err != nil {
		return err
	}
	e.printer.RollbackDone(args[0], ok)
	return nil
}
