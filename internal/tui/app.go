// Package tui is the terminal presentation host: the status tree is the
// sidebar and the project plan panel is a pane beside it.
package tui

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Iron-Ham/taskpanel/internal/event"
	"github.com/Iron-Ham/taskpanel/internal/logging"
	"github.com/Iron-Ham/taskpanel/internal/shell"
	tea "github.com/charmbracelet/bubbletea"
)

// Options configures the terminal UI.
type Options struct {
	// SidebarWidth is clamped to [SidebarMinWidth, SidebarMaxWidth]; zero
	// means DefaultSidebarWidth.
	SidebarWidth int
	// RefreshInterval re-queries the task buckets periodically. Zero disables
	// polling.
	RefreshInterval time.Duration
	// Theme names a built-in color theme.
	Theme  string
	Logger *logging.Logger
}

// App wraps the bubbletea program.
type App struct {
	program *tea.Program
	model   Model
	shell   *shell.Shell
	host    *Host
	logger  *logging.Logger
}

// New creates an App for sh. host must be the host sh was built with.
func New(sh *shell.Shell, host *Host, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &App{
		model:  NewModel(sh, host, opts),
		shell:  sh,
		host:   host,
		logger: logger.WithComponent("tui"),
	}
}

// Run starts the program and blocks until the user quits.
func (a *App) Run() error {
	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
	)

	// Host and bus callbacks arrive on arbitrary goroutines, including the
	// program's own; the pump keeps them from blocking on Send.
	p := newPump(a.program.Send)
	defer p.stop()

	a.host.SetNotifier(p.send)
	defer a.host.SetNotifier(nil)

	bus := a.shell.Bus()
	subID := bus.Subscribe(event.TypeStatusMessage, func(e event.Event) {
		if ev, ok := e.(event.StatusMessageEvent); ok {
			p.send(statusMsg(ev))
		}
	})
	defer bus.Unsubscribe(subID)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		if _, ok := <-sigChan; ok && a.program != nil {
			a.program.Send(tea.Quit())
		}
	}()

	a.logger.Info("terminal UI started")
	_, err := a.program.Run()

	signal.Stop(sigChan)
	close(sigChan)
	a.logger.Info("terminal UI stopped")
	return err
}

// pumpBuffer is how many messages may wait for the program.
const pumpBuffer = 64

// pump forwards messages to the program in order from a single goroutine.
// When the buffer is full new messages are dropped.
type pump struct {
	ch   chan tea.Msg
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func newPump(deliver func(tea.Msg)) *pump {
	p := &pump{ch: make(chan tea.Msg, pumpBuffer), done: make(chan struct{})}
	go func() {
		defer close(p.done)
		for msg := range p.ch {
			deliver(msg)
		}
	}()
	return p
}

func (p *pump) send(msg tea.Msg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.ch <- msg:
	default:
	}
}

func (p *pump) stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	p.mu.Unlock()
	<-p.done
}
