package cmd

import (
	"io"

	"github.com/Iron-Ham/taskpanel/internal/config"
	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/Iron-Ham/taskpanel/internal/logging"
	"github.com/Iron-Ham/taskpanel/internal/orchestration"
	"github.com/Iron-Ham/taskpanel/internal/planpanel"
	"github.com/Iron-Ham/taskpanel/internal/shell"
)

// env is what every command needs: validated configuration, a logger and an
// orchestration client.
type env struct {
	cfg    *config.Config
	logger *logging.Logger
	client orchestration.Client
}

// logTarget says where a command's logs go when logging.dir is empty.
type logTarget int

const (
	// logToStream writes to the command's error stream.
	logToStream logTarget = iota
	// logToConfigDir writes to the config directory, for full-screen hosts
	// that own the terminal.
	logToConfigDir
)

func newEnv(stderr io.Writer, target logTarget) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	logger, err := newLogger(cfg.Logging, stderr, target)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		client: newClient(cfg.Server, logger),
	}, nil
}

func newLogger(cfg config.LoggingConfig, stderr io.Writer, target logTarget) (*logging.Logger, error) {
	if !cfg.Enabled {
		return logging.NopLogger(), nil
	}
	dir := cfg.Dir
	if dir == "" {
		if target == logToStream {
			return logging.NewWriterLogger(stderr, cfg.Level), nil
		}
		dir = config.ConfigDir()
	}
	logger, err := logging.NewLogger(dir, cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "open log in %s", dir)
	}
	return logger, nil
}

func newClient(cfg config.ServerConfig, logger *logging.Logger) orchestration.Client {
	if cfg.Offline {
		logger.Info("offline mode, serving sample snapshot")
		return orchestration.NewStaticClient(orchestration.SampleSnapshot())
	}
	return orchestration.NewHTTPClient(cfg.URL,
		orchestration.WithTimeout(cfg.Timeout()),
		orchestration.WithLogger(logger.WithComponent("orchestration")),
	)
}

// shellOptions maps the configuration onto the shell.
func (e *env) shellOptions() shell.Options {
	return shell.Options{
		ExtensionRoot: e.cfg.Project.ResolveExtensionRoot(),
		PlanFile:      e.cfg.Project.ResolvePlanFile(),
		WatchPlanFile: e.cfg.Panel.WatchPlanFile,
		WatchDebounce: e.cfg.Panel.WatchDebounce(),
		Logger:        e.logger,
	}
}

// newShell builds and activates a shell drawn on host.
func (e *env) newShell(host planpanel.Host) (*shell.Shell, error) {
	sh := shell.New(e.client, host, e.shellOptions())
	if err := sh.Activate(); err != nil {
		return nil, err
	}
	return sh, nil
}

func (e *env) close() {
	_ = e.logger.Close()
}

// headlessHost backs commands that run triggers without a display.
type headlessHost struct{}

func (headlessHost) HasActiveEditor() bool { return false }

func (headlessHost) CreateSurface(string, string, planpanel.Placement, planpanel.SurfaceOptions) (planpanel.Surface, error) {
	return nil, errors.New("no display available; use 'taskpanel plan' or 'taskpanel ui'")
}
