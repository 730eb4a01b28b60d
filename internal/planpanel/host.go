// Package planpanel manages the single live "project plan" document view.
//
// A [Controller] owns the panel's lifecycle: it creates the surface on the
// first show, reveals the existing one on every later show, and tears it down
// (with every resource registered alongside it) when the panel is disposed or
// the user closes the surface. Presentation hosts plug in through [Host].
package planpanel

// Placement is where the host should put a surface.
type Placement int

const (
	// PlacementDefault lets the host pick; on creation it means the first column.
	PlacementDefault Placement = iota
	// PlacementOne is the first (main) column.
	PlacementOne
	// PlacementBeside puts the surface next to the active editing surface.
	PlacementBeside
)

// String returns the placement's name.
func (p Placement) String() string {
	switch p {
	case PlacementDefault:
		return "default"
	case PlacementOne:
		return "one"
	case PlacementBeside:
		return "beside"
	default:
		return "unknown"
	}
}

// SurfaceOptions are declared to the host when a surface is created.
type SurfaceOptions struct {
	// EnableScripts allows the rendered document to run its inline script.
	EnableScripts bool
	// LocalResourceRoots are the only directories the surface may load
	// local assets from. The host enforces the boundary.
	LocalResourceRoots []string
}

// Host is the presentation host that owns visible surfaces.
type Host interface {
	// HasActiveEditor reports whether an active editing surface exists.
	HasActiveEditor() bool
	// CreateSurface creates and shows a new document surface.
	CreateSurface(viewType, title string, placement Placement, opts SurfaceOptions) (Surface, error)
}

// Surface is one visible document view owned by the host.
type Surface interface {
	// Reveal shows and focuses the surface at placement.
	Reveal(placement Placement)
	// SetTitle replaces the surface's title.
	SetTitle(title string)
	// SetContent replaces the surface's rendered document.
	SetContent(markup string)
	// Context describes the surface to the content renderer.
	Context() SurfaceContext
	// OnDidDispose registers fn to run when the surface goes away, whether
	// the user closed it or Dispose was called. The returned func removes it.
	OnDidDispose(fn func()) (release func())
	// Dispose tears the surface down.
	Dispose()
}

// SurfaceContext is what the renderer may know about the surface.
type SurfaceContext struct {
	// ID identifies the surface within its host.
	ID string
	// ResourceBase is the URL or path prefix under which the surface's local
	// resource roots are reachable.
	ResourceBase string
	// CSPSource is the content-security-policy source for local resources.
	CSPSource string
}
