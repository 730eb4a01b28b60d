package cmd

import (
	"fmt"
	"io"

	"github.com/Iron-Ham/taskpanel/internal/event"
	"github.com/Iron-Ham/taskpanel/internal/shell"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func registerTriggerCmds(parent *cobra.Command) {
	initCmd := &cobra.Command{
		Use:   "init [plan-file]",
		Short: "Initialize the project on the orchestration server",
		Long: `Load a project plan on the orchestration server.

The plan file defaults to project.plan_file (project_plan_template.json).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				viper.Set("project.plan_file", args[0])
			}
			return runTrigger(cmd, shell.TriggerInitProject)
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one pass of the orchestration loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrigger(cmd, shell.TriggerRunOrchestration)
		},
	}

	parent.AddCommand(initCmd, runCmd)
}

// runTrigger invokes one trigger on a headless shell and prints the status
// messages it produces.
func runTrigger(cmd *cobra.Command, name string) error {
	e, err := newEnv(cmd.ErrOrStderr(), logToStream)
	if err != nil {
		return err
	}
	defer e.close()

	sh, err := e.newShell(headlessHost{})
	if err != nil {
		return err
	}
	defer sh.Deactivate()

	printer := statusPrinter{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
	release := sh.Bus().Release(sh.Bus().Subscribe(event.TypeStatusMessage, printer.print))
	defer release()

	return sh.Invoke(cmd.Context(), name)
}

type statusPrinter struct {
	out, errOut io.Writer
}

func (p statusPrinter) print(e event.Event) {
	msg, ok := e.(event.StatusMessageEvent)
	if !ok {
		return
	}
	switch msg.Level {
	case event.MessageError:
		fmt.Fprintf(p.errOut, "Error: %s\n", msg.Text)
	case event.MessageWarning:
		fmt.Fprintf(p.out, "Warning: %s\n", msg.Text)
	default:
		fmt.Fprintln(p.out, msg.Text)
	}
}
