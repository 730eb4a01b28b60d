// Package styles holds the lipgloss palette and styles of the terminal UI.
package styles

import "github.com/charmbracelet/lipgloss"

// Styles is the set of lipgloss styles derived from one palette.
type Styles struct {
	Palette *ColorPalette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Success  lipgloss.Style

	// Sidebar styles
	Sidebar           lipgloss.Style
	SidebarFocused    lipgloss.Style
	SidebarTitle      lipgloss.Style
	SidebarItem       lipgloss.Style
	SidebarItemActive lipgloss.Style

	// Plan panel
	Panel        lipgloss.Style
	PanelFocused lipgloss.Style
	PanelTitle   lipgloss.Style

	// Footer / status bar
	StatusBar lipgloss.Style
	HelpBar   lipgloss.Style
	HelpKey   lipgloss.Style
}

// New builds the style set for p.
func New(p *ColorPalette) *Styles {
	if p == nil {
		p = DefaultPalette()
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)

	return &Styles{
		Palette: p,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.Muted).
			Italic(true),
		Muted:   lipgloss.NewStyle().Foreground(p.Muted),
		Error:   lipgloss.NewStyle().Foreground(p.Error),
		Warning: lipgloss.NewStyle().Foreground(p.Warning),
		Success: lipgloss.NewStyle().Foreground(p.Secondary),

		Sidebar:        box,
		SidebarFocused: box.BorderForeground(p.Primary),
		SidebarTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary).
			MarginBottom(1),
		SidebarItem: lipgloss.NewStyle().
			Foreground(p.Text),
		SidebarItemActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text).
			Background(p.Primary),

		Panel:        box,
		PanelFocused: box.BorderForeground(p.Primary),
		PanelTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(p.Border),

		StatusBar: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Surface).
			Padding(0, 1),
		HelpBar: lipgloss.NewStyle().
			Foreground(p.Muted),
		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Secondary),
	}
}

// ForTheme builds the style set for a named theme.
func ForTheme(name string) *Styles {
	return New(GetPalette(ThemeName(name)))
}

// BucketColor returns the color for a status tree bucket, keyed by the
// bucket's category name ("current", "pending", "completed").
func (s *Styles) BucketColor(category string) lipgloss.Color {
	switch category {
	case "current":
		return s.Palette.StatusCurrent
	case "pending":
		return s.Palette.StatusPending
	case "completed":
		return s.Palette.StatusComplete
	default:
		return s.Palette.Muted
	}
}

// BucketIcon returns an icon for a status tree bucket.
func BucketIcon(category string) string {
	switch category {
	case "current":
		return "●"
	case "pending":
		return "○"
	case "completed":
		return "✓"
	default:
		return "•"
	}
}
