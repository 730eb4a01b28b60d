package planpanel

import (
	"path/filepath"
	"sync"

	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/Iron-Ham/taskpanel/internal/logging"
)

const (
	// ViewType tags every project plan surface.
	ViewType = "projectPlan"
	// Title is the surface title.
	Title = "Project Plan"
	// MediaDir is the only local resource root, relative to the extension root.
	MediaDir = "media"
)

// State is the lifecycle state of the controller's panel slot.
type State int

const (
	// StateAbsent means no panel is live.
	StateAbsent State = iota
	// StateVisible means a panel is live and owns a host surface.
	StateVisible
)

// String returns the state name.
func (s State) String() string {
	if s == StateVisible {
		return "visible"
	}
	return "absent"
}

// Panel is the live project plan view.
type Panel struct {
	surface       Surface
	extensionRoot string
	disposables   Disposables

	// Guarded by the controller's mu.
	published   bool
	closedEarly bool
}

// ViewType returns the panel's fixed view type.
func (p *Panel) ViewType() string { return ViewType }

// Surface returns the host surface backing the panel.
func (p *Panel) Surface() Surface { return p.surface }

// ExtensionRoot returns the root the panel's resources were scoped to.
func (p *Panel) ExtensionRoot() string { return p.extensionRoot }

// Tracked returns the number of release actions tied to the panel,
// including its dispose subscription.
func (p *Panel) Tracked() int { return p.disposables.Len() }

// ResourceRoots returns the local resource roots declared for the panel.
func (p *Panel) ResourceRoots() []string {
	return []string{filepath.Join(p.extensionRoot, MediaDir)}
}

// Renderer produces the panel document for a surface.
type Renderer func(SurfaceContext) string

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRenderer replaces RenderContent as the document source.
func WithRenderer(r Renderer) Option {
	return func(c *Controller) {
		if r != nil {
			c.render = r
		}
	}
}

// WithStateHook registers fn to be called after every transition.
func WithStateHook(fn func(State)) Option {
	return func(c *Controller) {
		c.onState = fn
	}
}

// Controller owns the single project plan panel.
//
// The slot mutex is never held while calling into the host, so a host that
// fires its dispose notification from inside Surface.Dispose re-enters
// safely. CreateOrShow calls are serialized separately so two concurrent
// shows cannot both create a surface.
type Controller struct {
	host    Host
	logger  *logging.Logger
	render  Renderer
	onState func(State)

	showMu sync.Mutex

	mu      sync.Mutex
	current *Panel
}

// NewController creates a controller that places surfaces through host.
func NewController(host Host, opts ...Option) *Controller {
	c := &Controller{
		host:   host,
		logger: logging.NopLogger(),
		render: RenderContent,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("planpanel")
	return c
}

// Current returns the live panel, or nil.
func (c *Controller) Current() *Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// State reports whether a panel is live.
func (c *Controller) State() State {
	if c.Current() != nil {
		return StateVisible
	}
	return StateAbsent
}

// CreateOrShow reveals the live panel, or creates one whose resources are
// scoped to extensionRoot/media. Surface creation errors are returned as a
// PanelError and leave the controller absent.
func (c *Controller) CreateOrShow(extensionRoot string) error {
	_, err := c.Open(extensionRoot)
	return err
}

// Open is CreateOrShow that also reports whether this call created the
// panel. It is false when an existing panel was revealed, and when the host
// closed the new surface before Open returned.
func (c *Controller) Open(extensionRoot string) (created bool, err error) {
	c.showMu.Lock()
	defer c.showMu.Unlock()

	placement := PlacementDefault
	if c.host.HasActiveEditor() {
		placement = PlacementBeside
	}

	if p := c.Current(); p != nil {
		c.logger.Debug("revealing panel", "placement", placement.String())
		p.surface.Reveal(placement)
		return false, nil
	}

	if extensionRoot == "" {
		return false, errors.NewPanelError("create surface", errors.ErrInvalidResourceRoot).WithViewType(ViewType)
	}

	p := &Panel{extensionRoot: extensionRoot}
	createAt := placement
	if createAt == PlacementDefault {
		createAt = PlacementOne
	}
	surface, err := c.host.CreateSurface(ViewType, Title, createAt, SurfaceOptions{
		EnableScripts:      true,
		LocalResourceRoots: p.ResourceRoots(),
	})
	if err != nil {
		c.logger.Error("surface creation failed", "error", err.Error())
		return false, errors.NewPanelError("create surface", errors.Join(errors.ErrSurfaceCreate, err)).WithViewType(ViewType)
	}
	p.surface = surface

	// Subscribe before the panel is published: the host may close the
	// surface at any point from here on.
	p.disposables.Add(surface.OnDidDispose(func() { c.closed(p) }))

	c.mu.Lock()
	if p.closedEarly {
		c.mu.Unlock()
		p.disposables.Release()
		c.logger.Info("surface closed before the panel was shown")
		return false, nil
	}
	c.current = p
	p.published = true
	c.mu.Unlock()

	c.logger.Info("panel created", "placement", createAt.String(), "resource_root", p.ResourceRoots()[0])
	c.notify(StateVisible)

	c.Update()
	return c.Current() == p, nil
}

// Update re-renders the live panel's title and content. It does nothing
// when no panel is live.
func (c *Controller) Update() {
	p := c.Current()
	if p == nil {
		return
	}
	p.surface.SetTitle(Title)
	p.surface.SetContent(c.render(p.surface.Context()))
}

// Track ties release to the live panel so Dispose runs it. With no live
// panel, release runs immediately.
func (c *Controller) Track(release func()) {
	if release == nil {
		return
	}
	c.mu.Lock()
	if p := c.current; p != nil {
		p.disposables.Add(release)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	release()
}

// Dispose tears down the live panel and runs every tracked release action,
// last registered first. Disposing an absent panel is a no-op.
func (c *Controller) Dispose() {
	p := c.take(nil)
	if p == nil {
		return
	}
	p.surface.Dispose()
	c.finish(p)
}

// closed handles the host's dispose notification for p. The surface is
// already gone, so only the bookkeeping runs.
func (c *Controller) closed(p *Panel) {
	c.mu.Lock()
	if !p.published {
		p.closedEarly = true
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if c.take(p) == nil {
		return
	}
	c.finish(p)
}

// take clears the slot if it holds want (or anything, when want is nil) and
// returns what it held.
func (c *Controller) take(want *Panel) *Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.current
	if p == nil || (want != nil && p != want) {
		return nil
	}
	c.current = nil
	return p
}

func (c *Controller) finish(p *Panel) {
	p.disposables.Release()
	c.logger.Info("panel disposed")
	c.notify(StateAbsent)
}

func (c *Controller) notify(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}
