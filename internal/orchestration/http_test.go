package orchestration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/Iron-Ham/taskpanel/internal/testutil"
)

func TestHTTPClient_Status(t *testing.T) {
	srv := testutil.NewFakeServer(t, testutil.GatekeeperStatus())
	client := NewHTTPClient(srv.URL + "/")

	snap, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(snap.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(snap.Tasks))
	}
	if snap.ActiveTasksAvailable != 1 {
		t.Errorf("ActiveTasksAvailable = %d, want 1", snap.ActiveTasksAvailable)
	}
	if snap.CurrentTask != nil {
		t.Errorf("CurrentTask = %+v, want nil", snap.CurrentTask)
	}
}

func TestHTTPClient_Buckets(t *testing.T) {
	srv := testutil.NewFakeServer(t, testutil.GatekeeperStatus())
	client := NewHTTPClient(srv.URL)
	ctx := context.Background()

	pending, err := client.PendingTasks(ctx)
	if err != nil {
		t.Fatalf("PendingTasks() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "GK1.1" || pending[0].Description != "Gatekeeper task 1.1" {
		t.Errorf("PendingTasks() = %+v", pending)
	}

	completed, err := client.CompletedTasks(ctx)
	if err != nil {
		t.Fatalf("CompletedTasks() error = %v", err)
	}
	if len(completed) != 1 || completed[0].ID != "GK1.0" {
		t.Errorf("CompletedTasks() = %+v", completed)
	}
}

func TestHTTPClient_Commands(t *testing.T) {
	srv := testutil.NewFakeServer(t, testutil.GatekeeperStatus())
	client := NewHTTPClient(srv.URL)
	ctx := context.Background()

	if msg, err := client.InitProject(ctx, "project_plan_template.json"); err != nil || msg == "" {
		t.Fatalf("InitProject() = %q, %v", msg, err)
	}
	if msg, err := client.RunOrchestration(ctx); err != nil || msg == "" {
		t.Fatalf("RunOrchestration() = %q, %v", msg, err)
	}
	if _, err := client.ReportTask(ctx, TaskReport{TaskID: "GK1.1", Status: StatusCompleted, Output: "done"}); err != nil {
		t.Fatalf("ReportTask() error = %v", err)
	}
	if h, err := client.Health(ctx); err != nil || h.Status != "ok" {
		t.Fatalf("Health() = %+v, %v", h, err)
	}

	reqs := srv.Requests()
	if len(reqs) != 4 {
		t.Fatalf("got %d requests, want 4", len(reqs))
	}
	if reqs[0].Path != "/project/init" || reqs[0].Body["plan_file"] != "project_plan_template.json" {
		t.Errorf("init request = %+v", reqs[0])
	}
	if reqs[1].Method != http.MethodPost || reqs[1].Path != "/orchestration/run" {
		t.Errorf("run request = %+v", reqs[1])
	}
	if reqs[2].Body["task_id"] != "GK1.1" || reqs[2].Body["status"] != "completed" {
		t.Errorf("report request = %+v", reqs[2])
	}
}

func TestHTTPClient_PlanDocument(t *testing.T) {
	srv := testutil.NewFakeServer(t, testutil.GatekeeperStatus())
	doc, err := NewHTTPClient(srv.URL).PlanDocument(context.Background())
	if err != nil {
		t.Fatalf("PlanDocument() error = %v", err)
	}
	if doc.TotalCount != 2 || len(doc.Tasks) != 2 {
		t.Errorf("PlanDocument() = %+v", doc)
	}
}

func TestHTTPClient_Logs(t *testing.T) {
	srv := testutil.NewFakeServer(t, testutil.GatekeeperStatus())
	client := NewHTTPClient(srv.URL)

	got, err := client.Logs(context.Background())
	if err != nil {
		t.Fatalf("Logs() error = %v", err)
	}
	if got != NoLogs {
		t.Errorf("Logs() before any logging = %q, want %q", got, NoLogs)
	}

	text := "{\"level\": \"INFO\", \"message\": \"Orchestration loop initiated\"}\n"
	srv.SetLogs(text)
	if got, _ := client.Logs(context.Background()); got != text {
		t.Errorf("Logs() = %q, want %q", got, text)
	}

	srv.FailNext("/logs", 1)
	if _, err := client.Logs(context.Background()); !errors.Is(err, errors.ErrServerRejected) {
		t.Errorf("Logs() error = %v, want ErrServerRejected", err)
	}
}

func TestHTTPClient_Errors(t *testing.T) {
	t.Run("server rejection carries detail", func(t *testing.T) {
		srv := testutil.NewFakeServer(t, testutil.GatekeeperStatus())
		srv.FailNext("/project/status", 1)

		_, err := NewHTTPClient(srv.URL).Status(context.Background())
		var orchErr *errors.OrchestrationError
		if !errors.As(err, &orchErr) {
			t.Fatalf("error = %v, want OrchestrationError", err)
		}
		if orchErr.StatusCode != http.StatusInternalServerError || orchErr.Detail != "injected failure" {
			t.Errorf("error = %+v", orchErr)
		}
		if !errors.Is(err, errors.ErrServerRejected) {
			t.Error("want ErrServerRejected")
		}
		if errors.IsRetryable(err) {
			t.Error("rejections should not be retryable")
		}
	})

	t.Run("gateway statuses are retryable", func(t *testing.T) {
		tests := []struct {
			code      int
			retryable bool
		}{
			{http.StatusBadRequest, false},
			{http.StatusInternalServerError, false},
			{http.StatusBadGateway, true},
			{http.StatusServiceUnavailable, true},
			{http.StatusGatewayTimeout, true},
		}
		for _, tt := range tests {
			t.Run(http.StatusText(tt.code), func(t *testing.T) {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(tt.code)
				}))
				defer srv.Close()

				_, err := NewHTTPClient(srv.URL).Status(context.Background())
				if !errors.Is(err, errors.ErrServerRejected) {
					t.Fatalf("error = %v, want ErrServerRejected", err)
				}
				if got := errors.IsRetryable(err); got != tt.retryable {
					t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
				}
			})
		}
	})

	t.Run("unreachable server is retryable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewHTTPClient(url).Health(context.Background())
		if !errors.Is(err, errors.ErrServerUnavailable) {
			t.Fatalf("error = %v, want ErrServerUnavailable", err)
		}
		if !errors.IsRetryable(err) {
			t.Error("connection failures should be retryable")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}))
		defer srv.Close()

		_, err := NewHTTPClient(srv.URL).Status(context.Background())
		if !errors.Is(err, errors.ErrMalformedResponse) {
			t.Fatalf("error = %v, want ErrMalformedResponse", err)
		}
	})

	t.Run("slow server times out", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		_, err := NewHTTPClient(srv.URL, WithTimeout(50*time.Millisecond)).Status(context.Background())
		if !errors.Is(err, errors.ErrTimeout) {
			t.Fatalf("error = %v, want ErrTimeout", err)
		}
		var timeoutErr *errors.TimeoutError
		if !errors.As(err, &timeoutErr) || timeoutErr.Duration != 50*time.Millisecond {
			t.Errorf("error = %v, want TimeoutError with 50ms", err)
		}
	})

	t.Run("caller cancellation", func(t *testing.T) {
		srv := testutil.NewFakeServer(t, testutil.GatekeeperStatus())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewHTTPClient(srv.URL).Status(ctx)
		if !errors.Is(err, errors.ErrCanceled) {
			t.Fatalf("error = %v, want ErrCanceled", err)
		}
	})
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Plan file not found: x.json"}`, "Plan file not found: x.json"},
		{"structured detail", `{"detail":[{"loc":["body"]}]}`, `[{"loc":["body"]}]`},
		{"plain text", "  Internal Server Error \n", "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorDetail([]byte(tt.body)); got != tt.want {
				t.Errorf("errorDetail() = %q, want %q", got, tt.want)
			}
		})
	}
}
