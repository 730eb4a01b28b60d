package tui

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/Iron-Ham/taskpanel/internal/event"
	"github.com/Iron-Ham/taskpanel/internal/orchestration"
	"github.com/Iron-Ham/taskpanel/internal/planpanel"
	"github.com/Iron-Ham/taskpanel/internal/shell"
	"github.com/Iron-Ham/taskpanel/internal/statustree"
	"github.com/Iron-Ham/taskpanel/internal/testutil"
	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, client orchestration.Client) (Model, *shell.Shell, *Host) {
	t.Helper()
	host := NewHost()
	sh := shell.New(client, host, shell.Options{ExtensionRoot: t.TempDir()})
	if err := sh.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	t.Cleanup(sh.Deactivate)

	m := NewModel(sh, host, Options{})
	m = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = step(t, m, m.loadRoots()())
	return m, sh, host
}

// step applies msg and returns the next model, discarding any command.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press applies a key and runs the command it returns, feeding the result
// back into the model.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			m = step(t, m, msg)
		}
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
)

func sampleClient() *orchestration.StaticClient {
	return orchestration.NewStaticClient(orchestration.SampleSnapshot())
}

func TestModel_ShowsFixedRoots(t *testing.T) {
	m, _, _ := newTestModel(t, sampleClient())

	if got := len(m.rows()); got != 3 {
		t.Fatalf("rows = %d, want 3", got)
	}
	view := m.View()
	for _, label := range []string{statustree.LabelCurrent, statustree.LabelPending, statustree.LabelCompleted} {
		if !strings.Contains(view, label) {
			t.Errorf("view missing %q", label)
		}
	}
}

func TestModel_ExpandAndCollapse(t *testing.T) {
	m, _, _ := newTestModel(t, sampleClient())

	m = press(t, m, keyDown)
	m = press(t, m, keyEnter)

	rows := m.rows()
	if len(rows) != 5 {
		t.Fatalf("rows after expanding pending = %d, want 5", len(rows))
	}
	if rows[2].node.Label != "GK1.1" || rows[3].node.Label != "CA1.1" || rows[2].depth != 1 {
		t.Errorf("pending rows = %+v, %+v", rows[2], rows[3])
	}
	if rows[1].node.Expansion != statustree.Expanded {
		t.Errorf("pending bucket expansion = %s, want expanded", rows[1].node.Expansion)
	}
	if view := m.View(); !strings.Contains(view, "GK1.1") || !strings.Contains(view, "Pending Tasks (2)") {
		t.Errorf("view does not show the expanded bucket:\n%s", view)
	}

	m = press(t, m, keyEnter)
	if got := len(m.rows()); got != 3 {
		t.Errorf("rows after collapsing = %d, want 3", got)
	}
}

func TestModel_LeavesDoNotExpand(t *testing.T) {
	m, _, _ := newTestModel(t, sampleClient())

	// Current Task is a leaf.
	next, cmd := m.Update(keyEnter)
	if cmd != nil {
		t.Error("expanding a leaf returned a command")
	}
	if got := len(next.(Model).rows()); got != 3 {
		t.Errorf("rows = %d, want 3", got)
	}
}

func TestModel_BucketFailureShowsRow(t *testing.T) {
	m, _, _ := newTestModel(t, sampleClient())
	m.expanded[statustree.CategoryCompleted] = true
	m = step(t, m, childrenMsg{
		category: statustree.CategoryCompleted,
		nodes:    []statustree.Node{},
		err:      errors.NewOrchestrationError("GET /project/status", errors.ErrServerUnavailable),
	})

	rows := m.rows()
	if len(rows) != 4 || !rows[3].failed {
		t.Fatalf("rows = %+v, want a failure row under Completed Tasks", rows)
	}

	m = step(t, m, childrenMsg{category: statustree.CategoryCompleted, nodes: []statustree.Node{{Label: "GK1.0"}}})
	if rows := m.rows(); rows[3].failed || rows[3].node.Label != "GK1.0" {
		t.Errorf("successful reload did not clear the failure: %+v", rows[3])
	}
}

func TestModel_ShowProjectPlan(t *testing.T) {
	m, sh, host := newTestModel(t, sampleClient())

	m = press(t, m, runes("p"))
	s := host.Current()
	if s == nil {
		t.Fatal("no surface after showing the plan")
	}
	if _, _, placement := s.Snapshot(); placement != planpanel.PlacementBeside {
		t.Errorf("placement = %s, want beside", placement)
	}
	if sh.Panel().State() != planpanel.StateVisible {
		t.Errorf("panel state = %s, want visible", sh.Panel().State())
	}

	view := m.View()
	for _, want := range []string{planpanel.Title, "Miss_TaskMaster Project Plan", "Project plan visualization"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m = press(t, m, runes("p"))
	if host.Current() != s || s.Reveals() != 1 {
		t.Errorf("second show should reveal the same surface (reveals = %d)", s.Reveals())
	}
}

func TestModel_ClosePanel(t *testing.T) {
	m, sh, host := newTestModel(t, sampleClient())
	m = press(t, m, runes("p"))
	s := host.Current()

	m = press(t, m, runes("x"))
	if host.Current() != nil || !s.Disposed() {
		t.Fatal("surface still open after close")
	}
	if sh.Panel().State() != planpanel.StateAbsent {
		t.Errorf("panel state = %s, want absent", sh.Panel().State())
	}
	if strings.Contains(m.View(), "Project plan visualization") {
		t.Error("closed panel still drawn")
	}

	m = press(t, m, runes("p"))
	if host.Current() == nil || host.Current() == s {
		t.Error("showing after close should create a new surface")
	}
}

func TestModel_HiddenSidebarOpensFullWidth(t *testing.T) {
	m, _, host := newTestModel(t, sampleClient())

	m = press(t, m, runes("s"))
	if host.SidebarVisible() {
		t.Fatal("sidebar still visible")
	}
	m = press(t, m, runes("p"))
	if _, _, placement := host.Current().Snapshot(); placement != planpanel.PlacementOne {
		t.Errorf("placement = %s, want one", placement)
	}
	if strings.Contains(m.View(), statustree.LabelPending) {
		t.Error("hidden sidebar still drawn")
	}

	m = press(t, m, runes("s"))
	if _, _, placement := host.Current().Snapshot(); placement != planpanel.PlacementBeside {
		t.Errorf("placement after showing sidebar = %s, want beside", placement)
	}
	if !strings.Contains(m.View(), statustree.LabelPending) {
		t.Error("sidebar not drawn after showing it")
	}
}

func TestModel_TriggerFailureSetsStatus(t *testing.T) {
	srv := testutil.NewFakeServer(t, testutil.GatekeeperStatus())
	srv.FailNext("/project/init", 1)
	m, _, _ := newTestModel(t, orchestration.NewHTTPClient(srv.URL))

	m = press(t, m, runes("i"))
	if m.status == nil || m.status.Level != event.MessageError {
		t.Fatalf("status = %+v, want an error message", m.status)
	}
}

func TestModel_StatusMessage(t *testing.T) {
	m, _, _ := newTestModel(t, sampleClient())

	m = step(t, m, statusMsg(event.NewStatusMessageEvent(event.MessageInfo, "Project initialized successfully.")))
	if !strings.Contains(m.View(), "Project initialized successfully.") {
		t.Error("status message not shown")
	}

	m = step(t, m, statusMsg(event.NewStatusMessageEvent(event.MessageInfo, "")))
	if m.status == nil || m.status.Text != "Project initialized successfully." {
		t.Error("empty message should not replace the status")
	}
}

func TestModel_RefreshPublishesCounts(t *testing.T) {
	m, sh, _ := newTestModel(t, sampleClient())

	var got *event.TasksRefreshedEvent
	sh.Bus().Subscribe(event.TypeTasksRefreshed, func(e event.Event) {
		ev := e.(event.TasksRefreshedEvent)
		got = &ev
	})

	m = step(t, m, m.refreshBuckets()())
	if got == nil || got.Pending != 2 || got.Completed != 1 {
		t.Fatalf("TasksRefreshedEvent = %+v, want 2 pending and 1 completed", got)
	}
	if len(m.children[statustree.CategoryPending]) != 2 {
		t.Errorf("pending children = %v", m.children[statustree.CategoryPending])
	}
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t, sampleClient())

	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command did not produce tea.QuitMsg")
	}
	if next.(Model).View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestNewModel_SidebarWidth(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultSidebarWidth},
		{5, SidebarMinWidth},
		{40, 40},
		{200, SidebarMaxWidth},
	}
	for _, tt := range tests {
		m := NewModel(nil, NewHost(), Options{SidebarWidth: tt.in})
		if m.sidebarWidth != tt.want {
			t.Errorf("SidebarWidth %d -> %d, want %d", tt.in, m.sidebarWidth, tt.want)
		}
	}
}

func TestPump_DeliversInOrder(t *testing.T) {
	var got []int
	p := newPump(func(msg tea.Msg) { got = append(got, msg.(int)) })
	for i := 0; i < 5; i++ {
		p.send(i)
	}
	p.stop()
	p.send(99)

	if len(got) != 5 {
		t.Fatalf("delivered %v, want 0..4", got)
	}
	for i, v := range got {
		if v != i {
			t.Errorf("got[%d] = %d", i, v)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"GK1.1", 10, "GK1.1"},
		{"Pending Tasks", 8, "Pending…"},
		{"", 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := truncate(tt.in, tt.width); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}
