package cmd

import (
	"fmt"

	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/Iron-Ham/taskpanel/internal/orchestration"
	"github.com/spf13/cobra"
)

func registerReportCmd(parent *cobra.Command) {
	var (
		status string
		output string
		reason string
	)

	cmd := &cobra.Command{
		Use:   "report <task-id>",
		Short: "Report a task as completed or failed",
		Long: `Send a coding agent's completion or failure report for a task.

Examples:
  taskpanel report GK1.1 --output "implemented the gatekeeper"
  taskpanel report CA1.1 --status failed --error "tests do not pass"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := orchestration.TaskStatus(status)
			if st != orchestration.StatusCompleted && st != orchestration.StatusFailed {
				return errors.NewValidationError("status must be completed or failed").
					WithField("status").
					WithValue(status)
			}

			e, err := newEnv(cmd.ErrOrStderr(), logToStream)
			if err != nil {
				return err
			}
			defer e.close()

			msg, err := e.client.ReportTask(cmd.Context(), orchestration.TaskReport{
				TaskID: args[0],
				Status: st,
				Output: output,
				Error:  reason,
			})
			if err != nil {
				return err
			}
			if msg == "" {
				msg = fmt.Sprintf("Reported %s as %s", args[0], st)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", string(orchestration.StatusCompleted), "task outcome: completed or failed")
	cmd.Flags().StringVar(&output, "output", "", "summary of the work done")
	cmd.Flags().StringVar(&reason, "error", "", "failure reason")
	parent.AddCommand(cmd)
}
