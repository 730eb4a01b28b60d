// Package testutil provides testing utilities for taskpanel tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// FakeServer is an in-process stand-in for the orchestration server's REST
// API. It records every request it receives.
type FakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	status   map[string]any
	requests []RecordedRequest
	failures map[string]int
	logs     string
}

// RecordedRequest is one request seen by a FakeServer.
type RecordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// NewFakeServer starts a FakeServer whose /project/status answer is status.
// The server is closed when the test completes.
func NewFakeServer(t *testing.T, status map[string]any) *FakeServer {
	t.Helper()

	fs := &FakeServer{status: status, failures: make(map[string]int), logs: "No logs yet."}

	r := chi.NewRouter()
	r.Use(fs.record)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "ok",
			"message":           "MCP Server is running",
			"gatekeeper_status": "initialized",
		})
	})
	r.Get("/project/status", func(w http.ResponseWriter, _ *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		writeJSON(w, http.StatusOK, fs.status)
	})
	r.Get("/tasks", func(w http.ResponseWriter, _ *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		tasks, _ := fs.status["project_tasks"].([]any)
		writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks, "total_count": len(tasks)})
	})
	r.Get("/logs", func(w http.ResponseWriter, _ *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		writeJSON(w, http.StatusOK, fs.logs)
	})
	r.Post("/project/init", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Project initialized successfully."})
	})
	r.Post("/orchestration/run", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Orchestration loop initiated. Check logs for details."})
	})
	r.Post("/task/report", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Report received."})
	})

	fs.Server = httptest.NewServer(r)
	t.Cleanup(fs.Close)
	return fs
}

// FailNext makes the next n requests to path answer with a 500 and a
// FastAPI-style detail body.
func (fs *FakeServer) FailNext(path string, n int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failures[path] = n
}

// SetStatus replaces the /project/status answer.
func (fs *FakeServer) SetStatus(status map[string]any) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.status = status
}

// SetLogs replaces the /logs answer.
func (fs *FakeServer) SetLogs(text string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.logs = text
}

// Requests returns the requests received so far.
func (fs *FakeServer) Requests() []RecordedRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]RecordedRequest(nil), fs.requests...)
}

func (fs *FakeServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := RecordedRequest{Method: r.Method, Path: r.URL.Path}
		if r.Body != nil && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}

		fs.mu.Lock()
		fs.requests = append(fs.requests, rec)
		fail := fs.failures[r.URL.Path] > 0
		if fail {
			fs.failures[r.URL.Path]--
		}
		fs.mu.Unlock()

		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// GatekeeperStatus is a /project/status body with one pending task GK1.1 and
// one completed task GK1.0.
func GatekeeperStatus() map[string]any {
	return map[string]any{
		"current_task":             nil,
		"work_log_active":          false,
		"active_tasks_available":   1,
		"validation_history_count": 0,
		"project_tasks": []any{
			map[string]any{"id": "GK1.1", "description": "Gatekeeper task 1.1", "status": "pending"},
			map[string]any{"id": "GK1.0", "description": "Completed gatekeeper task", "status": "completed"},
		},
	}
}

// WriteFile creates a file with content under dir, creating parent
// directories, and returns its path.
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
	return path
}
