package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// StaticClient serves an in-memory snapshot. It backs offline mode and
// tests, and mutates its snapshot the way the server's enforcer would so
// trigger handlers have something observable to do.
type StaticClient struct {
	mu       sync.Mutex
	snapshot Snapshot
	inits    []string
	runs     int
	logs     []string
}

// NewStaticClient creates a client serving a copy of snapshot.
func NewStaticClient(snapshot Snapshot) *StaticClient {
	c := &StaticClient{}
	c.snapshot = cloneSnapshot(snapshot)
	return c
}

// SampleSnapshot is the demonstration state shown when no server is configured.
func SampleSnapshot() Snapshot {
	return Snapshot{
		Tasks: []Task{
			{ID: "GK1.1", Description: "Gatekeeper task 1.1", Status: StatusPending},
			{ID: "CA1.1", Description: "Coding agent task 1.1", Status: StatusPending},
			{ID: "GK1.0", Description: "Completed gatekeeper task", Status: StatusCompleted},
		},
	}
}

// SetSnapshot replaces the served snapshot.
func (c *StaticClient) SetSnapshot(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = cloneSnapshot(s)
}

// Inits returns the plan files passed to InitProject, in call order.
func (c *StaticClient) Inits() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.inits...)
}

// Runs returns how many times RunOrchestration was called.
func (c *StaticClient) Runs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

// Health implements Client.
func (c *StaticClient) Health(ctx context.Context) (Health, error) {
	if err := ctx.Err(); err != nil {
		return Health{}, err
	}
	return Health{Status: "ok", Message: "static snapshot", GatekeeperStatus: "offline"}, nil
}

// Status implements Client.
func (c *StaticClient) Status(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneSnapshot(c.snapshot), nil
}

// CurrentTask implements Client.
func (c *StaticClient) CurrentTask(ctx context.Context) (*Task, error) {
	s, err := c.Status(ctx)
	return s.CurrentTask, err
}

// PendingTasks implements Client.
func (c *StaticClient) PendingTasks(ctx context.Context) ([]Task, error) {
	s, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	return s.Pending(), nil
}

// CompletedTasks implements Client.
func (c *StaticClient) CompletedTasks(ctx context.Context) ([]Task, error) {
	s, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	return s.Completed(), nil
}

// PlanDocument implements Client.
func (c *StaticClient) PlanDocument(ctx context.Context) (PlanDocument, error) {
	s, err := c.Status(ctx)
	if err != nil {
		return PlanDocument{}, err
	}
	return PlanDocument{Tasks: s.Tasks, TotalCount: len(s.Tasks)}, nil
}

// InitProject implements Client. The plan file is recorded, not read.
func (c *StaticClient) InitProject(ctx context.Context, planFile string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inits = append(c.inits, planFile)
	c.logf("Project initialized with plan file: %s", planFile)
	return "Project initialized successfully.", nil
}

// RunOrchestration implements Client. It assigns the first non-completed
// task as the current task, or clears it when nothing is left.
func (c *StaticClient) RunOrchestration(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
	c.logf("Orchestration loop initiated")
	c.snapshot.CurrentTask = nil
	for i := range c.snapshot.Tasks {
		if !c.snapshot.Tasks[i].Status.IsCompleted() {
			t := c.snapshot.Tasks[i]
			c.snapshot.CurrentTask = &t
			break
		}
	}
	return "Orchestration loop initiated. Check logs for details.", nil
}

// ReportTask implements Client.
func (c *StaticClient) ReportTask(ctx context.Context, report TaskReport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.snapshot.Tasks {
		t := &c.snapshot.Tasks[i]
		if t.ID != report.TaskID {
			continue
		}
		switch report.Status {
		case StatusCompleted:
			t.Status = StatusCompleted
		case StatusFailed:
			t.Status = StatusFailed
			t.Error = report.Error
			if t.Error == "" {
				t.Error = "Unknown error"
			}
		}
		break
	}
	c.logf("Task report received for %s with status: %s", report.TaskID, report.Status)
	return fmt.Sprintf("Report received for task %s with status %s.", report.TaskID, report.Status), nil
}

// Logs implements Client. Each init, run and report adds one line.
func (c *StaticClient) Logs(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.logs) == 0 {
		return NoLogs, nil
	}
	return strings.Join(c.logs, "\n") + "\n", nil
}

// logf appends a log line. Callers hold c.mu.
func (c *StaticClient) logf(format string, args ...any) {
	line := time.Now().UTC().Format(time.RFC3339) + " INFO " + fmt.Sprintf(format, args...)
	c.logs = append(c.logs, line)
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := s
	out.Tasks = append([]Task(nil), s.Tasks...)
	if s.CurrentTask != nil {
		t := *s.CurrentTask
		out.CurrentTask = &t
	}
	return out
}

var (
	_ Client = (*StaticClient)(nil)
	_ Client = (*HTTPClient)(nil)
)
