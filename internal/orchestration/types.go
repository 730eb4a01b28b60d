// Package orchestration is the client side of the Miss_TaskMaster
// orchestration server. It defines the task snapshot types the panel mirrors
// and the [Client] capability the tree projector and the trigger handlers
// depend on.
package orchestration

import "context"

// TaskStatus is the lifecycle status the server reports for a task.
// Values the server invents later are kept verbatim.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// IsCompleted reports whether the status counts as completed.
// Everything else, failed tasks included, is still pending.
func (s TaskStatus) IsCompleted() bool {
	return s == StatusCompleted
}

// Task is one entry of the project plan as reported by the server.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Description string     `json:"description" yaml:"description"`
	Status      TaskStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Snapshot is the server's project state at one point in time.
type Snapshot struct {
	CurrentTask            *Task  `json:"current_task"`
	WorkLogActive          bool   `json:"work_log_active"`
	ActiveTasksAvailable   int    `json:"active_tasks_available"`
	ValidationHistoryCount int    `json:"validation_history_count"`
	Tasks                  []Task `json:"project_tasks"`
}

// Pending returns the tasks that are not completed, in server order.
func (s Snapshot) Pending() []Task {
	return s.filter(func(t Task) bool { return !t.Status.IsCompleted() })
}

// Completed returns the completed tasks, in server order.
func (s Snapshot) Completed() []Task {
	return s.filter(func(t Task) bool { return t.Status.IsCompleted() })
}

func (s Snapshot) filter(keep func(Task) bool) []Task {
	out := make([]Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// Health is the server's /health answer.
type Health struct {
	Status           string `json:"status"`
	Message          string `json:"message"`
	GatekeeperStatus string `json:"gatekeeper_status"`
}

// PlanDocument is the project plan the document panel will eventually render.
type PlanDocument struct {
	Tasks      []Task `json:"tasks"`
	TotalCount int    `json:"total_count"`
}

// TaskReport is a coding agent's completion or failure report.
type TaskReport struct {
	TaskID string     `json:"task_id"`
	Status TaskStatus `json:"status"`
	Output string     `json:"output,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// Client is the capability the panel needs from the orchestration service.
// Every method may block on I/O and honours ctx cancellation.
type Client interface {
	// Health checks that the server is up.
	Health(ctx context.Context) (Health, error)
	// Status fetches the full project snapshot.
	Status(ctx context.Context) (Snapshot, error)
	// CurrentTask returns the task being executed, or nil when idle.
	CurrentTask(ctx context.Context) (*Task, error)
	// PendingTasks returns tasks that are not completed, in server order.
	PendingTasks(ctx context.Context) ([]Task, error)
	// CompletedTasks returns completed tasks, in server order.
	CompletedTasks(ctx context.Context) ([]Task, error)
	// PlanDocument returns the project plan.
	PlanDocument(ctx context.Context) (PlanDocument, error)
	// InitProject loads a plan file on the server.
	InitProject(ctx context.Context, planFile string) (string, error)
	// RunOrchestration triggers one pass of the server's orchestration loop.
	RunOrchestration(ctx context.Context) (string, error)
	// ReportTask records a task completion or failure.
	ReportTask(ctx context.Context, report TaskReport) (string, error)
	// Logs returns the server's log text, or NoLogs before anything was logged.
	Logs(ctx context.Context) (string, error)
}

// NoLogs is the server's answer to GET /logs before its log file exists.
const NoLogs = "No logs yet."
