package testutil

import (
	"fmt"
	"sync"

	"github.com/Iron-Ham/taskpanel/internal/planpanel"
)

// FakeHost is an in-memory presentation host. Surfaces it creates record
// what was done to them.
type FakeHost struct {
	mu           sync.Mutex
	activeEditor bool
	failWith     error
	surfaces     []*FakeSurface
}

// SetActiveEditor controls HasActiveEditor.
func (h *FakeHost) SetActiveEditor(active bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activeEditor = active
}

// FailCreate makes CreateSurface return err until called again with nil.
func (h *FakeHost) FailCreate(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failWith = err
}

// HasActiveEditor implements planpanel.Host.
func (h *FakeHost) HasActiveEditor() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.activeEditor
}

// CreateSurface implements planpanel.Host.
func (h *FakeHost) CreateSurface(viewType, title string, placement planpanel.Placement, opts planpanel.SurfaceOptions) (planpanel.Surface, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failWith != nil {
		return nil, h.failWith
	}
	s := &FakeSurface{
		ID:        fmt.Sprintf("surface-%d", len(h.surfaces)),
		ViewType:  viewType,
		Placement: placement,
		Options:   opts,
		title:     title,
		listeners: make(map[int]func()),
	}
	h.surfaces = append(h.surfaces, s)
	return s, nil
}

// Surfaces returns every surface created so far.
func (h *FakeHost) Surfaces() []*FakeSurface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*FakeSurface(nil), h.surfaces...)
}

// FakeSurface is a surface created by FakeHost.
type FakeSurface struct {
	ID        string
	ViewType  string
	Placement planpanel.Placement
	Options   planpanel.SurfaceOptions

	mu        sync.Mutex
	title     string
	content   string
	renders   int
	reveals   int
	disposed  bool
	listeners map[int]func()
	next      int
}

func (s *FakeSurface) Reveal(planpanel.Placement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reveals++
}

func (s *FakeSurface) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

func (s *FakeSurface) SetContent(markup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = markup
	s.renders++
}

func (s *FakeSurface) Context() planpanel.SurfaceContext {
	return planpanel.SurfaceContext{ID: s.ID}
}

func (s *FakeSurface) OnDidDispose(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *FakeSurface) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
}

// Close simulates the user closing the surface.
func (s *FakeSurface) Close() {
	s.mu.Lock()
	s.disposed = true
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Content returns the last rendered document.
func (s *FakeSurface) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// Renders returns how many times content was set.
func (s *FakeSurface) Renders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders
}

// Reveals returns how many times the surface was revealed.
func (s *FakeSurface) Reveals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reveals
}

// Disposed reports whether the surface was torn down.
func (s *FakeSurface) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Title returns the surface title.
func (s *FakeSurface) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

var _ planpanel.Host = (*FakeHost)(nil)
