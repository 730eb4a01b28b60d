package cmd

import (
	"github.com/Iron-Ham/taskpanel/internal/tui"
	"github.com/spf13/cobra"
)

func registerUICmd(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the terminal panel",
		Long: `Open the full-screen terminal panel: the status tree on the left and the
project plan panel beside it. Logs go to logging.dir, or the config
directory when it is empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.ErrOrStderr(), logToConfigDir)
			if err != nil {
				return err
			}
			defer e.close()

			host := tui.NewHost()
			sh, err := e.newShell(host)
			if err != nil {
				return err
			}
			defer sh.Deactivate()

			app := tui.New(sh, host, tui.Options{
				SidebarWidth:    e.cfg.TUI.SidebarWidth,
				RefreshInterval: e.cfg.TUI.RefreshInterval(),
				Theme:           e.cfg.TUI.Theme,
				Logger:          e.logger,
			})
			return app.Run()
		},
	}
	parent.AddCommand(cmd)
}
