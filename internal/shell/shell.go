// Package shell wires the triggers, the status tree and the plan panel
// together for one presentation host.
//
// Activate registers the three Miss_TaskMaster triggers and records each
// registration's release action; Deactivate disposes the panel and runs
// every release action. Trigger outcomes are published on the event bus as
// status messages so each host can show them its own way.
package shell

import (
	"context"
	"sync"
	"time"

	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/Iron-Ham/taskpanel/internal/event"
	"github.com/Iron-Ham/taskpanel/internal/logging"
	"github.com/Iron-Ham/taskpanel/internal/orchestration"
	"github.com/Iron-Ham/taskpanel/internal/planpanel"
	"github.com/Iron-Ham/taskpanel/internal/statustree"
	"github.com/Iron-Ham/taskpanel/internal/watch"
)

// Trigger names.
const (
	TriggerInitProject      = "missTaskmaster.initProject"
	TriggerRunOrchestration = "missTaskmaster.runOrchestration"
	TriggerShowProjectPlan  = "missTaskmaster.showProjectPlan"
)

// TreeViewID identifies the status tree to hosts.
const TreeViewID = "taskStatus"

// Status messages shown when the orchestration triggers start.
const (
	MessageInitializing = "Initializing Miss_TaskMaster project..."
	MessageRunning      = "Running orchestration..."
)

// Options configures a Shell.
type Options struct {
	// ExtensionRoot is the directory whose media/ subdirectory the panel may
	// load assets from.
	ExtensionRoot string
	// PlanFile is sent to the server by initProject and watched while the
	// panel is open.
	PlanFile string
	// WatchPlanFile re-renders the panel when PlanFile changes.
	WatchPlanFile bool
	// WatchDebounce is the watcher's quiet period.
	WatchDebounce time.Duration
	// Logger receives shell and event logs. Nil discards them.
	Logger *logging.Logger
}

// Shell owns the triggers and the single plan panel for one host.
type Shell struct {
	opts      Options
	client    orchestration.Client
	projector *statustree.Projector
	panel     *planpanel.Controller
	bus       *event.Bus
	registry  *Registry
	logger    *logging.Logger

	mu            sync.Mutex
	active        bool
	subscriptions planpanel.Disposables
}

// New creates a shell over client whose panel surfaces are placed by host.
func New(client orchestration.Client, host planpanel.Host, opts Options) *Shell {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	s := &Shell{
		opts:      opts,
		client:    client,
		projector: statustree.NewProjector(client),
		bus:       event.NewBus(logger),
		registry:  NewRegistry(),
		logger:    logger.WithComponent("shell"),
	}
	s.panel = planpanel.NewController(host,
		planpanel.WithLogger(logger),
		planpanel.WithStateHook(func(st planpanel.State) {
			s.bus.Publish(event.NewPanelStateEvent(st == planpanel.StateVisible))
		}),
	)
	return s
}

// Bus returns the shell's event bus.
func (s *Shell) Bus() *event.Bus { return s.bus }

// Panel returns the plan panel controller.
func (s *Shell) Panel() *planpanel.Controller { return s.panel }

// Tree returns the status tree provider for the host's tree view.
func (s *Shell) Tree() statustree.TreeDataProvider { return s.projector }

// Client returns the orchestration client.
func (s *Shell) Client() orchestration.Client { return s.client }

// Triggers returns the registered trigger names.
func (s *Shell) Triggers() []string { return s.registry.Names() }

// Active reports whether Activate has run without a matching Deactivate.
func (s *Shell) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Activate registers the triggers and the event log. Calling it on an active
// shell does nothing.
func (s *Shell) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return nil
	}

	handlers := []struct {
		name string
		h    Handler
	}{
		{TriggerInitProject, s.initProject},
		{TriggerRunOrchestration, s.runOrchestration},
		{TriggerShowProjectPlan, s.showProjectPlan},
	}
	for _, entry := range handlers {
		release, err := s.registry.Register(entry.name, entry.h)
		if err != nil {
			s.subscriptions.Release()
			return errors.Wrapf(err, "register %s", entry.name)
		}
		s.subscriptions.Add(release)
	}

	s.subscriptions.Add(s.bus.Release(s.bus.SubscribeAll(s.logEvent)))

	s.active = true
	s.logger.Info("Miss_TaskMaster extension is now active", "triggers", len(handlers))
	return nil
}

// Deactivate disposes the panel and releases every registration.
func (s *Shell) Deactivate() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	s.panel.Dispose()
	s.subscriptions.Release()
	s.logger.Info("shell deactivated")
}

// Invoke runs the trigger called name.
func (s *Shell) Invoke(ctx context.Context, name string) error {
	h, err := s.registry.Lookup(name)
	if err != nil {
		return err
	}

	log := s.logger.WithTrigger(name)
	log.Debug("trigger invoked")
	s.bus.Publish(event.NewTriggerInvokedEvent(name))

	if err := h(ctx); err != nil {
		level := MessageLevelFor(err)
		if level == event.MessageError {
			log.Error("trigger failed", "error", err.Error(), "retryable", errors.IsRetryable(err))
		} else {
			log.Warn("trigger failed", "error", err.Error(), "retryable", errors.IsRetryable(err))
		}
		s.bus.Publish(event.NewTriggerFailedEvent(name, err))
		s.bus.Publish(event.NewStatusMessageEvent(level, errors.UserMessage(err)))
		return err
	}
	return nil
}

// MessageLevelFor returns the status message level for err's severity.
// Errors without a severity are shown as errors.
func MessageLevelFor(err error) event.MessageLevel {
	switch sev := errors.GetSeverity(err); {
	case sev >= errors.SeverityError:
		return event.MessageError
	case sev == errors.SeverityWarning:
		return event.MessageWarning
	default:
		return event.MessageInfo
	}
}

func (s *Shell) initProject(ctx context.Context) error {
	s.info(MessageInitializing)
	msg, err := s.client.InitProject(ctx, s.opts.PlanFile)
	if err != nil {
		return err
	}
	s.info(msg)
	return nil
}

func (s *Shell) runOrchestration(ctx context.Context) error {
	s.info(MessageRunning)
	msg, err := s.client.RunOrchestration(ctx)
	if err != nil {
		return err
	}
	s.info(msg)
	return nil
}

func (s *Shell) showProjectPlan(context.Context) error {
	created, err := s.panel.Open(s.opts.ExtensionRoot)
	if err != nil {
		return err
	}
	if created {
		s.watchPlan()
	}
	return nil
}

// watchPlan ties a plan-file watcher to the live panel. A watcher that
// cannot start is logged and skipped.
func (s *Shell) watchPlan() {
	if !s.opts.WatchPlanFile || s.opts.PlanFile == "" {
		return
	}
	w, err := watch.New(s.opts.PlanFile, func() {
		s.bus.Publish(event.NewPlanChangedEvent(s.opts.PlanFile))
		s.panel.Update()
	}, watch.WithDebounce(s.opts.WatchDebounce), watch.WithLogger(s.logger))
	if err != nil {
		s.logger.Warn("plan file watch disabled", "path", s.opts.PlanFile, "error", err.Error())
		return
	}
	w.Start()
	s.panel.Track(w.Stop)
}

func (s *Shell) info(text string) {
	if text == "" {
		return
	}
	s.bus.Publish(event.NewStatusMessageEvent(event.MessageInfo, text))
}

func (s *Shell) logEvent(e event.Event) {
	switch ev := e.(type) {
	case event.StatusMessageEvent:
		s.logger.Info("status message", "level", ev.Level.String(), "text", ev.Text)
	default:
		s.logger.Debug("event", "type", e.EventType())
	}
}
