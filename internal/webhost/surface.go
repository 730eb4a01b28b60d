package webhost

import (
	"sync"

	"github.com/Iron-Ham/taskpanel/internal/planpanel"
)

// surface is a panel document served at /panels/{id}.
type surface struct {
	id       string
	viewType string
	roots    []string
	scripts  bool
	onClose  func(*surface)

	mu        sync.Mutex
	title     string
	content   string
	placement planpanel.Placement
	reveals   int
	disposed  bool
	listeners map[int]func()
	nextID    int
}

func (s *surface) Reveal(placement planpanel.Placement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placement = placement
	s.reveals++
}

func (s *surface) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

func (s *surface) SetContent(markup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = markup
}

func (s *surface) Context() planpanel.SurfaceContext {
	return planpanel.SurfaceContext{
		ID:           s.id,
		ResourceBase: surfacePath(s.id) + "/media/",
		CSPSource:    "'self'",
	}
}

func (s *surface) OnDidDispose(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Dispose removes the surface from the host and notifies listeners once.
func (s *surface) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	fns := make([]func(), 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose(s)
	}
	for _, fn := range fns {
		fn()
	}
}

func (s *surface) snapshot() (title, content string, placement planpanel.Placement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title, s.content, s.placement
}

func surfacePath(id string) string {
	return "/panels/" + id
}
