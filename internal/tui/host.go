package tui

import (
	"path/filepath"
	"strconv"
	"sync"

	"github.com/Iron-Ham/taskpanel/internal/planpanel"
	tea "github.com/charmbracelet/bubbletea"
)

// panelChangedMsg tells the model to re-read the host's surface.
type panelChangedMsg struct{}

// Host is the terminal presentation host. It owns at most one visible
// surface, drawn next to the status sidebar or across the full width.
//
// The sidebar counts as the active editing surface: while it is shown,
// panels open beside it.
type Host struct {
	mu             sync.Mutex
	sidebarVisible bool
	current        *Surface
	nextID         int
	notify         func(tea.Msg)
}

// NewHost creates a terminal host with the sidebar shown.
func NewHost() *Host {
	return &Host{sidebarVisible: true}
}

// SetNotifier sets the function used to wake the UI after a surface
// changes. It must not block.
func (h *Host) SetNotifier(fn func(tea.Msg)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notify = fn
}

// SetSidebarVisible shows or hides the status sidebar. A live surface moves
// beside the sidebar or takes the full width to match.
func (h *Host) SetSidebarVisible(visible bool) {
	h.mu.Lock()
	h.sidebarVisible = visible
	current := h.current
	h.mu.Unlock()

	if current != nil {
		placement := planpanel.PlacementOne
		if visible {
			placement = planpanel.PlacementBeside
		}
		current.mu.Lock()
		current.placement = placement
		current.mu.Unlock()
	}
	h.changed()
}

// SidebarVisible reports whether the status sidebar is shown.
func (h *Host) SidebarVisible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sidebarVisible
}

// HasActiveEditor implements planpanel.Host.
func (h *Host) HasActiveEditor() bool {
	return h.SidebarVisible()
}

// CreateSurface implements planpanel.Host. A surface created while another
// is live replaces it.
func (h *Host) CreateSurface(viewType, title string, placement planpanel.Placement, opts planpanel.SurfaceOptions) (planpanel.Surface, error) {
	roots := make([]string, 0, len(opts.LocalResourceRoots))
	for _, root := range opts.LocalResourceRoots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		roots = append(roots, abs)
	}

	h.mu.Lock()
	h.nextID++
	s := &Surface{
		host:      h,
		id:        "term-" + strconv.Itoa(h.nextID),
		viewType:  viewType,
		roots:     roots,
		title:     title,
		placement: placement,
	}
	prev := h.current
	h.current = s
	h.mu.Unlock()

	if prev != nil {
		prev.Dispose()
	}
	h.changed()
	return s, nil
}

// Current returns the live surface, or nil.
func (h *Host) Current() *Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// ClosePanel closes the live surface the way a user would, notifying its
// dispose listeners. It reports whether a surface was open.
func (h *Host) ClosePanel() bool {
	s := h.Current()
	if s == nil {
		return false
	}
	s.Dispose()
	return true
}

func (h *Host) remove(s *Surface) {
	h.mu.Lock()
	if h.current == s {
		h.current = nil
	}
	h.mu.Unlock()
	h.changed()
}

func (h *Host) changed() {
	h.mu.Lock()
	notify := h.notify
	h.mu.Unlock()
	if notify != nil {
		notify(panelChangedMsg{})
	}
}

// Surface is a document surface drawn in the terminal.
type Surface struct {
	host     *Host
	id       string
	viewType string
	roots    []string

	mu        sync.Mutex
	title     string
	content   string
	placement planpanel.Placement
	reveals   int
	disposed  bool
	listeners []*func()
}

// Reveal implements planpanel.Surface.
func (s *Surface) Reveal(placement planpanel.Placement) {
	s.mu.Lock()
	s.placement = placement
	s.reveals++
	s.mu.Unlock()
	s.host.changed()
}

// SetTitle implements planpanel.Surface.
func (s *Surface) SetTitle(title string) {
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
	s.host.changed()
}

// SetContent implements planpanel.Surface.
func (s *Surface) SetContent(markup string) {
	s.mu.Lock()
	s.content = markup
	s.mu.Unlock()
	s.host.changed()
}

// Context implements planpanel.Surface. The terminal has no content
// security policy, so CSPSource is empty.
func (s *Surface) Context() planpanel.SurfaceContext {
	base := ""
	if len(s.roots) > 0 {
		base = s.roots[0] + string(filepath.Separator)
	}
	return planpanel.SurfaceContext{ID: s.id, ResourceBase: base}
}

// OnDidDispose implements planpanel.Surface.
func (s *Surface) OnDidDispose(fn func()) func() {
	p := &fn
	s.mu.Lock()
	s.listeners = append(s.listeners, p)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l == p {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Dispose implements planpanel.Surface. Listeners run once, in
// registration order.
func (s *Surface) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	s.host.remove(s)
	for _, fn := range listeners {
		(*fn)()
	}
}

// ID returns the surface's identifier.
func (s *Surface) ID() string { return s.id }

// ViewType returns the view type the surface was created with.
func (s *Surface) ViewType() string { return s.viewType }

// Snapshot returns the surface's current title, markup and placement.
func (s *Surface) Snapshot() (title, content string, placement planpanel.Placement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title, s.content, s.placement
}

// Reveals returns how many times the surface was revealed.
func (s *Surface) Reveals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reveals
}

// Disposed reports whether the surface has been torn down.
func (s *Surface) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
