package cmd

import (
	"github.com/spf13/cobra"
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backup snapshots, newest first",
	RunE:  runBackups,
}

func init() {
	rootCmd.AddCommand(backupsCmd)
}

func runBackups(cmd *cobra.Command, args []string) error {
	e, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	snaps, err := e.applier.Backups.List()
	if err != nil {
		return err
	}
	e.printer.BackupList(snaps)
	return nil
}
