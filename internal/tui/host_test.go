package tui

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Iron-Ham/taskpanel/internal/planpanel"
	tea "github.com/charmbracelet/bubbletea"
)

type notifications struct {
	mu    sync.Mutex
	count int
}

func (n *notifications) notify(tea.Msg) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
}

func (n *notifications) get() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

func createSurface(t *testing.T, h *Host, root string) *Surface {
	t.Helper()
	s, err := h.CreateSurface(planpanel.ViewType, planpanel.Title, planpanel.PlacementBeside, planpanel.SurfaceOptions{
		EnableScripts:      true,
		LocalResourceRoots: []string{root},
	})
	if err != nil {
		t.Fatalf("CreateSurface() error = %v", err)
	}
	return s.(*Surface)
}

func TestHost_CreateSurface(t *testing.T) {
	h := NewHost()
	n := &notifications{}
	h.SetNotifier(n.notify)

	root := filepath.Join(t.TempDir(), "media")
	s := createSurface(t, h, root)

	if h.Current() != s {
		t.Fatal("Current() is not the created surface")
	}
	if s.ViewType() != planpanel.ViewType || !strings.HasPrefix(s.ID(), "term-") {
		t.Errorf("surface = %s/%s", s.ViewType(), s.ID())
	}
	ctx := s.Context()
	if ctx.ResourceBase != root+string(filepath.Separator) || ctx.CSPSource != "" {
		t.Errorf("Context() = %+v", ctx)
	}
	if n.get() == 0 {
		t.Error("creating a surface should notify the UI")
	}

	s.SetTitle("Project Plan")
	s.SetContent("<p>hi</p>")
	s.Reveal(planpanel.PlacementOne)
	title, content, placement := s.Snapshot()
	if title != "Project Plan" || content != "<p>hi</p>" || placement != planpanel.PlacementOne {
		t.Errorf("Snapshot() = %q, %q, %s", title, content, placement)
	}
	if s.Reveals() != 1 {
		t.Errorf("Reveals() = %d, want 1", s.Reveals())
	}
}

func TestHost_ClosePanel(t *testing.T) {
	h := NewHost()
	if h.ClosePanel() {
		t.Fatal("ClosePanel() with no surface = true")
	}

	s := createSurface(t, h, t.TempDir())
	var order []string
	s.OnDidDispose(func() { order = append(order, "first") })
	release := s.OnDidDispose(func() { order = append(order, "released") })
	s.OnDidDispose(func() { order = append(order, "second") })
	release()

	if !h.ClosePanel() {
		t.Fatal("ClosePanel() = false, want true")
	}
	if h.Current() != nil {
		t.Error("surface still current after close")
	}
	if !s.Disposed() {
		t.Error("surface not disposed")
	}
	if strings.Join(order, ",") != "first,second" {
		t.Errorf("listeners ran %v, want first,second", order)
	}

	s.Dispose()
	if len(order) != 2 {
		t.Errorf("second Dispose ran listeners again: %v", order)
	}
}

func TestHost_CreateReplacesLiveSurface(t *testing.T) {
	h := NewHost()
	first := createSurface(t, h, t.TempDir())
	closed := false
	first.OnDidDispose(func() { closed = true })

	second := createSurface(t, h, t.TempDir())
	if !closed || !first.Disposed() {
		t.Error("previous surface was not disposed")
	}
	if h.Current() != second {
		t.Error("Current() is not the new surface")
	}
	if first.ID() == second.ID() {
		t.Error("surface IDs should be unique")
	}
}

func TestHost_SidebarMovesSurface(t *testing.T) {
	h := NewHost()
	if !h.HasActiveEditor() {
		t.Fatal("sidebar should start visible")
	}
	s := createSurface(t, h, t.TempDir())

	h.SetSidebarVisible(false)
	if h.HasActiveEditor() {
		t.Error("HasActiveEditor() = true with the sidebar hidden")
	}
	if _, _, p := s.Snapshot(); p != planpanel.PlacementOne {
		t.Errorf("placement = %s, want one", p)
	}

	h.SetSidebarVisible(true)
	if _, _, p := s.Snapshot(); p != planpanel.PlacementBeside {
		t.Errorf("placement = %s, want beside", p)
	}
}
