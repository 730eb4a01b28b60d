package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerStatusCmd(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show orchestration server status",
		Long:  `Check the orchestration server's health and summarize the project's task state.`,
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	parent.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd.ErrOrStderr(), logToStream)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	health, err := e.client.Health(ctx)
	if err != nil {
		return err
	}
	snap, err := e.client.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Server: %s (%s)\n", health.Status, health.Message)
	if health.GatekeeperStatus != "" {
		fmt.Fprintf(out, "Gatekeeper: %s\n", health.GatekeeperStatus)
	}
	if snap.CurrentTask != nil {
		fmt.Fprintf(out, "Current task: %s - %s\n", snap.CurrentTask.ID, snap.CurrentTask.Description)
	} else {
		fmt.Fprintln(out, "Current task: (none)")
	}
	fmt.Fprintf(out, "Tasks: %d pending, %d completed\n", len(snap.Pending()), len(snap.Completed()))
	fmt.Fprintf(out, "Work log active: %v\n", snap.WorkLogActive)
	fmt.Fprintf(out, "Validation history: %d\n", snap.ValidationHistoryCount)
	return nil
}
