package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/Iron-Ham/taskpanel/internal/shell"
	"github.com/Iron-Ham/taskpanel/internal/webhost"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Wrapper for exec to allow testing
var execCommand = exec.Command

func registerPlanCmd(parent *cobra.Command) {
	var (
		listen string
		open   bool
		show   bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Serve the status tree and project plan panel in a browser",
		Long: `Start the browser host. The index page shows the status tree and a
button that opens the project plan panel; the panel's scripts run in the
browser and its assets load only from the media directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				viper.Set("webhost.listen_addr", listen)
			}
			if cmd.Flags().Changed("open") {
				viper.Set("webhost.open_browser", open)
			}

			e, err := newEnv(cmd.ErrOrStderr(), logToStream)
			if err != nil {
				return err
			}
			defer e.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return servePlan(ctx, cmd, e, show)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides webhost.listen_addr)")
	cmd.Flags().BoolVar(&open, "open", false, "open the index page in a browser")
	cmd.Flags().BoolVar(&show, "show", true, "open the project plan panel on start")
	parent.AddCommand(cmd)
}

func servePlan(ctx context.Context, cmd *cobra.Command, e *env, show bool) error {
	host := webhost.New(e.logger)
	sh, err := e.newShell(host)
	if err != nil {
		return err
	}
	defer sh.Deactivate()
	host.Attach(sh)

	ln, err := net.Listen("tcp", e.cfg.WebHost.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", e.cfg.WebHost.ListenAddr)
	}

	if show {
		if err := sh.Invoke(ctx, shell.TriggerShowProjectPlan); err != nil {
			_ = ln.Close()
			return err
		}
	}

	url := "http://" + ln.Addr().String() + "/"
	fmt.Fprintf(cmd.OutOrStdout(), "Serving Miss_TaskMaster panel at %s (Ctrl+C to stop)\n", url)
	if e.cfg.WebHost.OpenBrowser {
		err := openBrowser(url, func(err error) {
			if err != nil {
				e.logger.Debug("browser launcher exited", "error", err.Error())
			}
		})
		if err != nil {
			e.logger.Warn("could not open browser", "url", url, "error", err.Error())
		}
	}

	return host.Serve(ctx, ln)
}

// openBrowser starts the platform's URL opener and reaps it in the
// background. onExit receives the launcher's exit error.
func openBrowser(url string, onExit func(error)) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = execCommand("open", url)
	case "windows":
		c = execCommand("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = execCommand("xdg-open", url)
	}
	if err := c.Start(); err != nil {
		return err
	}
	go func() {
		err := c.Wait()
		if onExit != nil {
			onExit(err)
		}
	}()
	return nil
}
