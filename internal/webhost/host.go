// Package webhost serves the status tree and the project plan panel to a
// browser.
//
// Each panel surface gets its own page at /panels/{id}, where its inline
// script runs in the browser. Local assets are served from
// /panels/{id}/media/ and only from the surface's declared resource roots.
// Closing the page through POST /panels/{id}/close is the user-initiated
// close, and notifies the panel controller.
//
// Every index page load registers a viewer. The page sends a heartbeat to
// /viewers/{id}/heartbeat while it stays open and posts /viewers/{id}/leave
// when it is hidden; a viewer that misses heartbeats for viewerTTL expires.
package webhost

import (
	"context"
	"encoding/json"
	"html/template"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/Iron-Ham/taskpanel/internal/logging"
	"github.com/Iron-Ham/taskpanel/internal/planpanel"
	"github.com/Iron-Ham/taskpanel/internal/statustree"
)

// Backend is what the host needs from the shell.
type Backend interface {
	Tree() statustree.TreeDataProvider
	Invoke(ctx context.Context, name string) error
	Triggers() []string
}

// Host is a browser presentation host.
type Host struct {
	logger *logging.Logger
	router chi.Router

	mu       sync.Mutex
	backend  Backend
	surfaces map[string]*surface
	viewers  map[string]time.Time // viewer ID to last heartbeat
	now      func() time.Time
}

// viewerTTL is how long a viewer counts as present without a heartbeat. The
// index page beats at a third of it.
const viewerTTL = 30 * time.Second

// New creates a host. Attach a backend before serving the index page.
func New(logger *logging.Logger) *Host {
	if logger == nil {
		logger = logging.NopLogger()
	}
	h := &Host{
		logger:   logger.WithComponent("webhost"),
		surfaces: make(map[string]*surface),
		viewers:  make(map[string]time.Time),
		now:      time.Now,
	}
	h.router = h.routes()
	return h
}

// Attach sets the backend that serves tree queries and triggers.
func (h *Host) Attach(b Backend) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.backend = b
}

// Handler returns the host's HTTP handler.
func (h *Host) Handler() http.Handler { return h.router }

// HasActiveEditor implements planpanel.Host. An open index page counts as
// the active editing surface, so panels open beside the tree.
func (h *Host) HasActiveEditor() bool {
	return h.Viewers() > 0
}

// Viewers returns the number of index pages that are still open. Expired
// viewers are dropped.
func (h *Host) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	for id, seen := range h.viewers {
		if now.Sub(seen) > viewerTTL {
			delete(h.viewers, id)
		}
	}
	return len(h.viewers)
}

func (h *Host) addViewer() string {
	id := uuid.NewString()
	h.mu.Lock()
	h.viewers[id] = h.now()
	h.mu.Unlock()
	return id
}

// CreateSurface implements planpanel.Host.
func (h *Host) CreateSurface(viewType, title string, placement planpanel.Placement, opts planpanel.SurfaceOptions) (planpanel.Surface, error) {
	roots := make([]string, 0, len(opts.LocalResourceRoots))
	for _, root := range opts.LocalResourceRoots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidResourceRoot, "resource root %q", root)
		}
		roots = append(roots, abs)
	}

	s := &surface{
		id:        uuid.NewString(),
		viewType:  viewType,
		roots:     roots,
		scripts:   opts.EnableScripts,
		title:     title,
		placement: placement,
		listeners: make(map[int]func()),
		onClose:   h.remove,
	}

	h.mu.Lock()
	h.surfaces[s.id] = s
	h.mu.Unlock()

	h.logger.Info("surface created", "surface_id", s.id, "view_type", viewType, "placement", placement.String())
	return s, nil
}

// URL returns the path of a surface's page.
func (h *Host) URL(id string) string { return surfacePath(id) }

// SurfaceIDs returns the live surface IDs.
func (h *Host) SurfaceIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.surfaces))
	for id := range h.surfaces {
		ids = append(ids, id)
	}
	return ids
}

func (h *Host) remove(s *surface) {
	h.mu.Lock()
	delete(h.surfaces, s.id)
	h.mu.Unlock()
	h.logger.Info("surface closed", "surface_id", s.id)
}

func (h *Host) lookup(id string) (*surface, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[id]
	return s, ok
}

func (h *Host) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/", h.handleIndex)
	r.Get("/api/tree", h.handleTree)
	r.Post("/triggers/{name}", h.handleTrigger)
	r.Route("/viewers/{id}", func(r chi.Router) {
		r.Post("/heartbeat", h.handleHeartbeat)
		r.Post("/leave", h.handleLeave)
	})
	r.Route("/panels/{id}", func(r chi.Router) {
		r.Get("/", h.handlePanel)
		r.Post("/close", h.handleClose)
		r.Get("/media/*", h.handleMedia)
	})
	return r
}

func (h *Host) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *Host) handlePanel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, content, _ := s.snapshot()

	script := "script-src 'none'"
	if s.scripts {
		script = "script-src 'unsafe-inline'"
	}
	w.Header().Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; style-src 'self' 'unsafe-inline'; "+script)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(content))
}

func (h *Host) handleClose(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.Dispose()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Host) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mu.Lock()
	_, ok := h.viewers[id]
	if ok {
		h.viewers[id] = h.now()
	}
	h.mu.Unlock()
	if !ok {
		// Expired or unknown; the page reloads to register again.
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Host) handleLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mu.Lock()
	delete(h.viewers, id)
	h.mu.Unlock()
	h.logger.Debug("viewer left", "viewer_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleMedia serves a file only if it resolves inside one of the surface's
// resource roots.
func (h *Host) handleMedia(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	rel := chi.URLParam(r, "*")
	for _, root := range s.roots {
		path, ok := within(root, rel)
		if !ok {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
	}
	http.NotFound(w, r)
}

// within joins rel onto root and reports whether the result stays inside
// root after symlinks are resolved.
func within(root, rel string) (string, bool) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", false
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	if resolved != resolvedRoot && !strings.HasPrefix(resolved, resolvedRoot+string(filepath.Separator)) {
		return "", false
	}
	return resolved, true
}

type treeNode struct {
	Label     string     `json:"label"`
	Detail    string     `json:"detail"`
	Expansion string     `json:"expansion"`
	Category  string     `json:"category"`
	Children  []treeNode `json:"children,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func (h *Host) backendOrNil() Backend {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.backend
}

// tree queries the roots and the children of every collapsible root.
func (h *Host) tree(ctx context.Context) ([]treeNode, error) {
	b := h.backendOrNil()
	if b == nil {
		return nil, errors.New("no backend attached")
	}
	provider := b.Tree()
	roots, err := provider.Children(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]treeNode, len(roots))
	for i, root := range roots {
		item := provider.TreeItem(root)
		out[i] = toTreeNode(item)
		if item.IsLeaf() {
			continue
		}
		children, err := provider.Children(ctx, &root)
		if err != nil {
			out[i].Error = errors.UserMessage(err)
			continue
		}
		for _, c := range children {
			out[i].Children = append(out[i].Children, toTreeNode(provider.TreeItem(c)))
		}
	}
	return out, nil
}

func toTreeNode(n statustree.Node) treeNode {
	return treeNode{
		Label:     n.Label,
		Detail:    n.Detail,
		Expansion: n.Expansion.String(),
		Category:  n.Category.String(),
	}
}

func (h *Host) handleTree(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.tree(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

func (h *Host) handleTrigger(w http.ResponseWriter, r *http.Request) {
	b := h.backendOrNil()
	if b == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no backend attached"})
		return
	}
	name := chi.URLParam(r, "name")
	if err := b.Invoke(r.Context(), name); err != nil {
		var nf *errors.NotFoundError
		code := http.StatusBadGateway
		if errors.As(err, &nf) {
			code = http.StatusNotFound
		}
		writeJSON(w, code, map[string]string{"error": errors.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "panels": h.SurfaceIDs()})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Task Status</title>
</head>
<body>
    <h1>Task Status</h1>
{{- if .Error}}
    <p class="error">{{.Error}}</p>
{{- end}}
    <ul id="taskStatus">
{{- range .Nodes}}
        <li title="{{.Detail}}">{{.Label}}{{if .Error}} <em>({{.Error}})</em>{{end}}
{{- if .Children}}
            <ul>{{range .Children}}<li title="{{.Detail}}">{{.Label}}</li>{{end}}</ul>
{{- end}}
        </li>
{{- end}}
    </ul>
    <form method="post" action="/triggers/missTaskmaster.showProjectPlan"><button>Show Project Plan</button></form>
{{- range .Panels}}
    <iframe src="{{.}}/" title="Project Plan" width="100%" height="480"></iframe>
{{- end}}
    <script>
        const viewer = '/viewers/' + {{.ViewerID}};
        const beat = setInterval(() => {
            fetch(viewer + '/heartbeat', {method: 'POST'}).then((resp) => {
                if (resp.status === 404) {
                    clearInterval(beat);
                    location.reload();
                }
            });
        }, {{.HeartbeatMs}});
        window.addEventListener('pagehide', () => navigator.sendBeacon(viewer + '/leave'));
    </script>
</body>
</html>
`))

func (h *Host) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Nodes       []treeNode
		Error       string
		Panels      []string
		ViewerID    string
		HeartbeatMs int64
	}{
		ViewerID:    h.addViewer(),
		HeartbeatMs: (viewerTTL / 3).Milliseconds(),
	}
	nodes, err := h.tree(r.Context())
	if err != nil {
		data.Error = errors.UserMessage(err)
	}
	data.Nodes = nodes
	for _, id := range h.SurfaceIDs() {
		data.Panels = append(data.Panels, surfacePath(id))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		h.logger.Warn("index render failed", "error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the host on ln until ctx is done, then shuts down gracefully.
func (h *Host) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           h.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown web host")
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

var _ planpanel.Host = (*Host)(nil)
