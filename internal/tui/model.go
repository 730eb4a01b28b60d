package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/Iron-Ham/taskpanel/internal/event"
	"github.com/Iron-Ham/taskpanel/internal/shell"
	"github.com/Iron-Ham/taskpanel/internal/statustree"
	"github.com/Iron-Ham/taskpanel/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Sidebar width bounds, in columns.
const (
	SidebarMinWidth     = 20
	SidebarMaxWidth     = 60
	DefaultSidebarWidth = 36
)

// Layout rows outside the body: header, status line and help bar.
const chromeHeight = 3

type (
	rootsMsg struct {
		nodes []statustree.Node
		err   error
	}
	childrenMsg struct {
		category statustree.Category
		nodes    []statustree.Node
		err      error
	}
	triggerDoneMsg struct {
		name string
		err  error
	}
	refreshedMsg   []childrenMsg
	statusMsg      event.StatusMessageEvent
	refreshTickMsg time.Time
)

// row is one visible line of the sidebar.
type row struct {
	node  statustree.Node
	depth int
	// failed marks a placeholder row for a bucket that could not load.
	failed bool
}

// Model is the bubbletea model of the terminal UI.
type Model struct {
	shell  *shell.Shell
	host   *Host
	styles *styles.Styles
	keys   KeyMap
	help   help.Model

	viewport     viewport.Model
	panelTitle   string
	panelMarkup  string
	sidebarWidth int
	refresh      time.Duration

	width, height int
	ready         bool

	roots     []statustree.Node
	children  map[statustree.Category][]statustree.Node
	bucketErr map[statustree.Category]error
	expanded  map[statustree.Category]bool
	cursor    int

	focusPanel bool
	status     *event.StatusMessageEvent
	quitting   bool
}

// NewModel creates the model for sh drawn on host.
func NewModel(sh *shell.Shell, host *Host, opts Options) Model {
	width := opts.SidebarWidth
	switch {
	case width == 0:
		width = DefaultSidebarWidth
	case width < SidebarMinWidth:
		width = SidebarMinWidth
	case width > SidebarMaxWidth:
		width = SidebarMaxWidth
	}
	return Model{
		shell:        sh,
		host:         host,
		styles:       styles.ForTheme(opts.Theme),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		viewport:     viewport.New(0, 0),
		sidebarWidth: width,
		refresh:      opts.RefreshInterval,
		children:     make(map[statustree.Category][]statustree.Node),
		bucketErr:    make(map[statustree.Category]error),
		expanded:     make(map[statustree.Category]bool),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadRoots(), m.scheduleRefresh())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case rootsMsg:
		if msg.err != nil {
			m.setStatus(shell.MessageLevelFor(msg.err), errors.UserMessage(msg.err))
			return m, nil
		}
		m.roots = msg.nodes
		m.clampCursor()
		return m, nil

	case childrenMsg:
		m.applyChildren(msg)
		return m, nil

	case refreshedMsg:
		for _, c := range msg {
			m.applyChildren(c)
		}
		return m, nil

	case triggerDoneMsg:
		if msg.err != nil {
			m.setStatus(shell.MessageLevelFor(msg.err), errors.UserMessage(msg.err))
		}
		m.syncPanel()
		if msg.name != shell.TriggerShowProjectPlan {
			return m, m.refreshBuckets()
		}
		return m, nil

	case statusMsg:
		m.setStatus(msg.Level, msg.Text)
		return m, nil

	case panelChangedMsg:
		m.syncPanel()
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(m.refreshBuckets(), m.scheduleRefresh())
	}

	if m.focusPanel {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.Init):
		return m, m.invoke(shell.TriggerInitProject)

	case key.Matches(msg, m.keys.Run):
		return m, m.invoke(shell.TriggerRunOrchestration)

	case key.Matches(msg, m.keys.Plan):
		return m, m.invoke(shell.TriggerShowProjectPlan)

	case key.Matches(msg, m.keys.Close):
		if m.host.Current() == nil {
			return m, nil
		}
		return m, m.closePanel()

	case key.Matches(msg, m.keys.Sidebar):
		m.host.SetSidebarVisible(!m.host.SidebarVisible())
		if !m.host.SidebarVisible() && m.host.Current() != nil {
			m.focusPanel = true
		}
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshBuckets()

	case key.Matches(msg, m.keys.Focus):
		if m.host.Current() != nil && m.host.SidebarVisible() {
			m.focusPanel = !m.focusPanel
		}
		return m, nil
	}

	if m.focusPanel {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggle()
	}
	return m, nil
}

// toggle expands or collapses the bucket under the cursor. Expanding always
// queries the tree again, so a reopened bucket shows fresh tasks.
func (m *Model) toggle() tea.Cmd {
	rows := m.rows()
	if m.cursor >= len(rows) {
		return nil
	}
	r := rows[m.cursor]
	if r.depth != 0 || r.node.IsLeaf() {
		return nil
	}
	cat := r.node.Category
	if m.expanded[cat] {
		delete(m.expanded, cat)
		m.clampCursor()
		return nil
	}
	m.expanded[cat] = true
	return m.loadChildren(r.node)
}

// rows flattens the tree into the lines the sidebar shows.
func (m Model) rows() []row {
	rows := make([]row, 0, len(m.roots))
	for _, n := range m.roots {
		if m.expanded[n.Category] {
			n.Expansion = statustree.Expanded
		}
		rows = append(rows, row{node: n})
		if !m.expanded[n.Category] {
			continue
		}
		if err := m.bucketErr[n.Category]; err != nil {
			rows = append(rows, row{
				node:   statustree.Node{Label: errors.UserMessage(err), Category: n.Category},
				depth:  1,
				failed: true,
			})
			continue
		}
		for _, c := range m.children[n.Category] {
			rows = append(rows, row{node: m.shell.Tree().TreeItem(c), depth: 1})
		}
	}
	return rows
}

func (m *Model) applyChildren(msg childrenMsg) {
	m.children[msg.category] = msg.nodes
	if msg.err != nil {
		m.bucketErr[msg.category] = msg.err
	} else {
		delete(m.bucketErr, msg.category)
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if n := len(m.rows()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m *Model) setStatus(level event.MessageLevel, text string) {
	if text == "" {
		return
	}
	ev := event.NewStatusMessageEvent(level, text)
	m.status = &ev
}

// syncPanel re-reads the host's surface into the viewport.
func (m *Model) syncPanel() {
	s := m.host.Current()
	if s == nil {
		m.panelTitle = ""
		m.panelMarkup = ""
		m.focusPanel = false
		m.viewport.SetContent("")
		m.resize()
		return
	}
	title, markup, _ := s.Snapshot()
	m.panelTitle = title
	if markup != m.panelMarkup {
		m.panelMarkup = markup
		m.viewport.SetContent(projectMarkup(markup, m.styles))
	}
	m.resize()
}

// bodyHeight is the height of the sidebar and panel boxes.
func (m Model) bodyHeight() int {
	return max(m.height-chromeHeight-lipgloss.Height(m.helpView())+1, 3)
}

func (m Model) panelWidth() int {
	if !m.host.SidebarVisible() {
		return m.width
	}
	return max(m.width-m.sidebarWidth, 0)
}

func (m *Model) resize() {
	// Box borders take two columns and rows; the panel title takes two rows.
	m.viewport.Width = max(m.panelWidth()-4, 0)
	m.viewport.Height = max(m.bodyHeight()-4, 0)
}

func (m Model) loadRoots() tea.Cmd {
	tree := m.shell.Tree()
	return func() tea.Msg {
		nodes, err := tree.Children(context.Background(), nil)
		return rootsMsg{nodes: nodes, err: err}
	}
}

func (m Model) loadChildren(parent statustree.Node) tea.Cmd {
	tree := m.shell.Tree()
	return func() tea.Msg {
		nodes, err := tree.Children(context.Background(), &parent)
		return childrenMsg{category: parent.Category, nodes: nodes, err: err}
	}
}

// refreshBuckets queries both task buckets again and publishes the counts.
func (m Model) refreshBuckets() tea.Cmd {
	if len(m.roots) == 0 {
		return m.loadRoots()
	}
	tree, bus := m.shell.Tree(), m.shell.Bus()
	roots := m.roots
	return func() tea.Msg {
		ctx := context.Background()
		var out refreshedMsg
		counts := make(map[statustree.Category]int)
		for _, n := range roots {
			if n.IsLeaf() {
				continue
			}
			nodes, err := tree.Children(ctx, &n)
			out = append(out, childrenMsg{category: n.Category, nodes: nodes, err: err})
			counts[n.Category] = len(nodes)
		}
		bus.Publish(event.NewTasksRefreshedEvent(counts[statustree.CategoryPending], counts[statustree.CategoryCompleted]))
		return out
	}
}

func (m Model) scheduleRefresh() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

// invoke runs a trigger off the UI goroutine; the host calls it makes
// notify the program, which would deadlock inside Update.
func (m Model) invoke(name string) tea.Cmd {
	sh := m.shell
	return func() tea.Msg {
		return triggerDoneMsg{name: name, err: sh.Invoke(context.Background(), name)}
	}
}

func (m Model) closePanel() tea.Cmd {
	host := m.host
	return func() tea.Msg {
		host.ClosePanel()
		return panelChangedMsg{}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	header := m.styles.Title.Render("Miss_TaskMaster") + "  " +
		m.styles.Muted.Render(shell.TreeViewID)

	var body string
	switch {
	case m.host.Current() == nil:
		body = m.sidebarView(m.width)
		if !m.host.SidebarVisible() {
			body = m.styles.Muted.Render("Sidebar hidden. Press s to show it.")
		}
	case m.host.SidebarVisible():
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(m.sidebarWidth), m.panelView(m.panelWidth()))
	default:
		body = m.panelView(m.width)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.statusView(), m.helpView())
}

func (m Model) sidebarView(width int) string {
	style := m.styles.Sidebar
	if !m.focusPanel {
		style = m.styles.SidebarFocused
	}
	inner := max(width-4, 1)

	var b strings.Builder
	b.WriteString(m.styles.SidebarTitle.Render("Task Status"))
	b.WriteString("\n")

	rows := m.rows()
	for i, r := range rows {
		line := m.formatRow(r)
		item := m.styles.SidebarItem
		if i == m.cursor && !m.focusPanel {
			item = m.styles.SidebarItemActive
		}
		b.WriteString(item.Render(truncate(line, inner)))
		b.WriteString("\n")
	}

	if m.cursor < len(rows) {
		if detail := rows[m.cursor].node.Detail; detail != "" {
			b.WriteString("\n")
			b.WriteString(m.styles.Subtitle.Width(inner).Render(detail))
		}
	}

	return style.
		Width(max(width-2, 0)).
		Height(max(m.bodyHeight()-2, 0)).
		Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) formatRow(r row) string {
	cat := r.node.Category.String()
	if r.failed {
		return "    " + m.styles.Error.Render("! "+r.node.Label)
	}
	icon := lipgloss.NewStyle().Foreground(m.styles.BucketColor(cat)).Render(styles.BucketIcon(cat))
	if r.depth > 0 {
		return fmt.Sprintf("    %s %s", icon, r.node.Label)
	}
	marker := "  "
	switch r.node.Expansion {
	case statustree.Collapsed:
		marker = "▸ "
	case statustree.Expanded:
		marker = "▾ "
	}
	label := r.node.Label
	if r.node.Expansion == statustree.Expanded {
		label = fmt.Sprintf("%s (%d)", label, len(m.children[r.node.Category]))
	}
	return marker + icon + " " + label
}

func (m Model) panelView(width int) string {
	style := m.styles.Panel
	if m.focusPanel || !m.host.SidebarVisible() {
		style = m.styles.PanelFocused
	}
	title := m.styles.PanelTitle.Width(max(width-4, 0)).Render(m.panelTitle)
	return style.
		Width(max(width-2, 0)).
		Height(max(m.bodyHeight()-2, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View()))
}

func (m Model) statusView() string {
	if m.status == nil {
		return m.styles.StatusBar.Render(" ")
	}
	text := m.status.Text
	switch m.status.Level {
	case event.MessageError:
		text = m.styles.Error.Render(text)
	case event.MessageWarning:
		text = m.styles.Warning.Render(text)
	default:
		text = m.styles.Success.Render(text)
	}
	return m.styles.StatusBar.Render(truncate(text, max(m.width-2, 1)))
}

func (m Model) helpView() string {
	return m.styles.HelpBar.Render(m.help.View(m.keys))
}

// truncate cuts s to width visible columns, keeping ANSI styling intact.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
