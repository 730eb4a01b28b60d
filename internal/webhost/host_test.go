package webhost

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Iron-Ham/taskpanel/internal/orchestration"
	"github.com/Iron-Ham/taskpanel/internal/planpanel"
	"github.com/Iron-Ham/taskpanel/internal/shell"
	"github.com/Iron-Ham/taskpanel/internal/testutil"
)

type fixture struct {
	host  *Host
	shell *shell.Shell
	srv   *httptest.Server
	root  string

	// elapsed advances the host clock.
	elapsed *atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFile(t, root, "media/style.css", "body { color: red; }")
	testutil.WriteFile(t, root, "secret.txt", "do not serve")

	h := New(nil)
	start := time.Now()
	elapsed := new(atomic.Int64)
	h.now = func() time.Time { return start.Add(time.Duration(elapsed.Load())) }
	sh := shell.New(orchestration.NewStaticClient(orchestration.SampleSnapshot()), h, shell.Options{ExtensionRoot: root})
	if err := sh.Activate(); err != nil {
		t.Fatal(err)
	}
	h.Attach(sh)
	t.Cleanup(sh.Deactivate)

	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)
	return &fixture{host: h, shell: sh, srv: srv, root: root, elapsed: elapsed}
}

func (f *fixture) get(t *testing.T, path string) (int, string, http.Header) {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body), resp.Header
}

func (f *fixture) post(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := http.Post(f.srv.URL+path, "application/json", nil)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func (f *fixture) showPlan(t *testing.T) string {
	t.Helper()
	code, body := f.post(t, "/triggers/"+shell.TriggerShowProjectPlan)
	if code != http.StatusOK {
		t.Fatalf("show trigger = %d %s", code, body)
	}
	ids := f.host.SurfaceIDs()
	if len(ids) != 1 {
		t.Fatalf("got %d surfaces, want 1", len(ids))
	}
	return ids[0]
}

func TestPanelPage(t *testing.T) {
	f := newFixture(t)
	id := f.showPlan(t)

	code, body, header := f.get(t, f.host.URL(id))
	if code != http.StatusOK {
		t.Fatalf("GET panel = %d", code)
	}
	if !strings.Contains(body, `<div id="plan"></div>`) {
		t.Errorf("panel page missing plan container: %s", body)
	}
	if csp := header.Get("Content-Security-Policy"); !strings.Contains(csp, "script-src 'unsafe-inline'") {
		t.Errorf("CSP = %q, want inline scripts enabled", csp)
	}

	// Showing again reveals the same surface.
	f.showPlan(t)
}

func TestMediaScoping(t *testing.T) {
	f := newFixture(t)
	id := f.showPlan(t)
	base := f.host.URL(id) + "/media/"

	code, body, _ := f.get(t, base+"style.css")
	if code != http.StatusOK || !strings.Contains(body, "color: red") {
		t.Errorf("GET media asset = %d %q", code, body)
	}

	if code, _, _ := f.get(t, base+"missing.css"); code != http.StatusNotFound {
		t.Errorf("missing asset = %d, want 404", code)
	}

	// Traversal out of media/ is refused even when the router does not clean
	// the path.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, base+"../secret.txt", nil)
	f.host.Handler().ServeHTTP(rec, req)
	if rec.Code == http.StatusOK || strings.Contains(rec.Body.String(), "do not serve") {
		t.Errorf("traversal served %d %q", rec.Code, rec.Body.String())
	}

	if code, _, _ := f.get(t, "/panels/not-a-surface/media/style.css"); code != http.StatusNotFound {
		t.Errorf("unknown surface media = %d, want 404", code)
	}
}

func TestWithin(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "media/app.js", "")
	testutil.WriteFile(t, root, "outside.txt", "")
	media := filepath.Join(root, "media")
	if err := os.Symlink(filepath.Join(root, "outside.txt"), filepath.Join(media, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	tests := []struct {
		rel  string
		want bool
	}{
		{"app.js", true},
		{"../outside.txt", false},
		{"link.txt", false},
		{"nope.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if _, ok := within(media, tt.rel); ok != tt.want {
				t.Errorf("within(%q) = %v, want %v", tt.rel, ok, tt.want)
			}
		})
	}
}

func TestCloseNotifiesController(t *testing.T) {
	f := newFixture(t)
	id := f.showPlan(t)

	code, _ := f.post(t, f.host.URL(id)+"/close")
	if code != http.StatusNoContent {
		t.Fatalf("close = %d, want 204", code)
	}
	if f.shell.Panel().State() != planpanel.StateAbsent {
		t.Error("controller still holds the closed panel")
	}
	if code, _, _ := f.get(t, f.host.URL(id)); code != http.StatusNotFound {
		t.Errorf("closed panel page = %d, want 404", code)
	}

	newID := f.showPlan(t)
	if newID == id {
		t.Error("reopened panel reused the closed surface ID")
	}
}

func TestDisposeRemovesSurface(t *testing.T) {
	f := newFixture(t)
	f.showPlan(t)
	f.shell.Panel().Dispose()
	if ids := f.host.SurfaceIDs(); len(ids) != 0 {
		t.Errorf("SurfaceIDs() after dispose = %v", ids)
	}
}

func TestPlacementFollowsViewers(t *testing.T) {
	f := newFixture(t)
	if f.host.HasActiveEditor() {
		t.Fatal("no browser has connected yet")
	}
	f.showPlan(t)
	s, _ := f.host.lookup(f.host.SurfaceIDs()[0])
	if _, _, p := s.snapshot(); p != planpanel.PlacementOne {
		t.Errorf("placement without viewer = %s, want one", p)
	}

	if code, body, _ := f.get(t, "/"); code != http.StatusOK || !strings.Contains(body, "Pending Tasks") {
		t.Fatalf("index = %d %s", code, body)
	}
	if !f.host.HasActiveEditor() {
		t.Fatal("index view should count as an active editor")
	}
	f.showPlan(t)
	if _, _, p := s.snapshot(); p != planpanel.PlacementBeside {
		t.Errorf("placement with viewer = %s, want beside", p)
	}
}

func (f *fixture) viewerIDs() []string {
	f.host.mu.Lock()
	defer f.host.mu.Unlock()
	ids := make([]string, 0, len(f.host.viewers))
	for id := range f.host.viewers {
		ids = append(ids, id)
	}
	return ids
}

func TestViewerLifecycle(t *testing.T) {
	tests := []struct {
		name   string
		after  func(t *testing.T, f *fixture, id string, elapsed *atomic.Int64)
		active bool
	}{
		{
			name:   "open page",
			after:  func(*testing.T, *fixture, string, *atomic.Int64) {},
			active: true,
		},
		{
			name: "leave",
			after: func(t *testing.T, f *fixture, id string, _ *atomic.Int64) {
				if code, _ := f.post(t, "/viewers/"+id+"/leave"); code != http.StatusNoContent {
					t.Fatalf("leave = %d", code)
				}
			},
		},
		{
			name: "missed heartbeats",
			after: func(t *testing.T, f *fixture, id string, elapsed *atomic.Int64) {
				elapsed.Add(int64(viewerTTL + time.Second))
				if code, _ := f.post(t, "/viewers/"+id+"/heartbeat"); code != http.StatusNotFound {
					t.Fatalf("heartbeat after expiry = %d, want 404", code)
				}
			},
		},
		{
			name: "heartbeat keeps viewer",
			after: func(t *testing.T, f *fixture, id string, elapsed *atomic.Int64) {
				for i := 0; i < 3; i++ {
					elapsed.Add(int64(viewerTTL / 2))
					if code, _ := f.post(t, "/viewers/"+id+"/heartbeat"); code != http.StatusNoContent {
						t.Fatalf("heartbeat = %d", code)
					}
				}
			},
			active: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			code, body, _ := f.get(t, "/")
			if code != http.StatusOK {
				t.Fatalf("index = %d", code)
			}
			ids := f.viewerIDs()
			if len(ids) != 1 {
				t.Fatalf("got %d viewers, want 1", len(ids))
			}
			if !strings.Contains(body, ids[0]) {
				t.Error("index page does not carry its viewer ID")
			}

			tt.after(t, f, ids[0], f.elapsed)
			if got := f.host.HasActiveEditor(); got != tt.active {
				t.Errorf("HasActiveEditor() = %v, want %v", got, tt.active)
			}
		})
	}
}

func TestViewersCountOpenPages(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 2; i++ {
		f.get(t, "/")
	}
	if got := f.host.Viewers(); got != 2 {
		t.Fatalf("Viewers() = %d, want 2", got)
	}
	f.post(t, "/viewers/"+f.viewerIDs()[0]+"/leave")
	if got := f.host.Viewers(); got != 1 {
		t.Errorf("Viewers() after one leave = %d, want 1", got)
	}
	// Unknown viewers leave without error.
	if code, _ := f.post(t, "/viewers/unknown/leave"); code != http.StatusNoContent {
		t.Errorf("unknown leave = %d, want 204", code)
	}
}

func TestTreeAPI(t *testing.T) {
	f := newFixture(t)
	code, body, _ := f.get(t, "/api/tree")
	if code != http.StatusOK {
		t.Fatalf("GET /api/tree = %d", code)
	}

	var resp struct {
		Nodes []treeNode `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Nodes) != 3 {
		t.Fatalf("got %d roots, want 3", len(resp.Nodes))
	}
	if resp.Nodes[0].Label != "Current Task" || len(resp.Nodes[0].Children) != 0 {
		t.Errorf("current = %+v", resp.Nodes[0])
	}
	if len(resp.Nodes[1].Children) != 2 || resp.Nodes[1].Children[0].Label != "GK1.1" {
		t.Errorf("pending = %+v", resp.Nodes[1])
	}
	if len(resp.Nodes[2].Children) != 1 || resp.Nodes[2].Children[0].Label != "GK1.0" {
		t.Errorf("completed = %+v", resp.Nodes[2])
	}
}

func TestUnknownTrigger(t *testing.T) {
	f := newFixture(t)
	if code, _ := f.post(t, "/triggers/missTaskmaster.bogus"); code != http.StatusNotFound {
		t.Errorf("unknown trigger = %d, want 404", code)
	}
}

func TestNoBackend(t *testing.T) {
	srv := httptest.NewServer(New(nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/tree")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("tree without backend = %d, want 503", resp.StatusCode)
	}
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	h := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/panels/none")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET unknown panel = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
