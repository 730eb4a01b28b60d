package cmd

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/spf13/cobra"
)

func registerLogsCmd(parent *cobra.Command) {
	var tail int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the orchestration server's log",
		Long: `Print the orchestration server's log file for debugging.

Examples:
  taskpanel logs
  taskpanel logs --tail 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tail < 0 {
				return errors.NewValidationError("tail must not be negative").
					WithField("tail").
					WithValue(tail)
			}

			e, err := newEnv(cmd.ErrOrStderr(), logToStream)
			if err != nil {
				return err
			}
			defer e.close()

			text, err := e.client.Logs(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), lastLines(text, tail))
			return nil
		},
	}

	cmd.Flags().IntVarP(&tail, "tail", "n", 0, "show only the last n lines (0 shows all)")
	parent.AddCommand(cmd)
}

// lastLines returns the final n lines of text without a trailing newline.
// n == 0 keeps every line.
func lastLines(text string, n int) string {
	text = strings.TrimRight(text, "\n")
	if n == 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
