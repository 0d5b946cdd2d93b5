package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/term-coder/internal/telemetry"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the staged pending edit",
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	e, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.store.Clear(); err != nil {
		return err
	}
	_ = e.events.Emit(telemetry.Event{Kind: telemetry.KindPendingCleared})
	e.printer.PendingCleared()
	return nil
}
