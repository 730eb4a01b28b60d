package event

import "time"

// Event is the interface that all events implement.
type Event interface {
	// EventType returns the "category.action" identifier, e.g. "trigger.invoked".
	EventType() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeTriggerInvoked = "trigger.invoked"
	TypeTriggerFailed  = "trigger.failed"
	TypeStatusMessage  = "status.message"
	TypePanelState     = "panel.state"
	TypePlanChanged    = "plan.changed"
	TypeTasksRefreshed = "tasks.refreshed"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{eventType: eventType, timestamp: time.Now()}
}

// TriggerInvokedEvent is emitted before a trigger's handler runs.
type TriggerInvokedEvent struct {
	baseEvent
	Name string
}

// NewTriggerInvokedEvent creates a TriggerInvokedEvent.
func NewTriggerInvokedEvent(name string) TriggerInvokedEvent {
	return TriggerInvokedEvent{baseEvent: newBaseEvent(TypeTriggerInvoked), Name: name}
}

// TriggerFailedEvent is emitted when a trigger's handler returns an error.
type TriggerFailedEvent struct {
	baseEvent
	Name string
	Err  error
}

// NewTriggerFailedEvent creates a TriggerFailedEvent.
func NewTriggerFailedEvent(name string, err error) TriggerFailedEvent {
	return TriggerFailedEvent{baseEvent: newBaseEvent(TypeTriggerFailed), Name: name, Err: err}
}

// MessageLevel classifies a status message for display.
type MessageLevel int

const (
	MessageInfo MessageLevel = iota
	MessageWarning
	MessageError
)

// String returns the level name.
func (l MessageLevel) String() string {
	switch l {
	case MessageWarning:
		return "warning"
	case MessageError:
		return "error"
	default:
		return "info"
	}
}

// StatusMessageEvent carries a short user-facing notice.
type StatusMessageEvent struct {
	baseEvent
	Level MessageLevel
	Text  string
}

// NewStatusMessageEvent creates a StatusMessageEvent.
func NewStatusMessageEvent(level MessageLevel, text string) StatusMessageEvent {
	return StatusMessageEvent{baseEvent: newBaseEvent(TypeStatusMessage), Level: level, Text: text}
}

// PanelStateEvent is emitted when the plan panel opens or closes.
type PanelStateEvent struct {
	baseEvent
	Visible bool
}

// NewPanelStateEvent creates a PanelStateEvent.
func NewPanelStateEvent(visible bool) PanelStateEvent {
	return PanelStateEvent{baseEvent: newBaseEvent(TypePanelState), Visible: visible}
}

// PlanChangedEvent is emitted when the watched plan file changes on disk.
type PlanChangedEvent struct {
	baseEvent
	Path string
}

// NewPlanChangedEvent creates a PlanChangedEvent.
func NewPlanChangedEvent(path string) PlanChangedEvent {
	return PlanChangedEvent{baseEvent: newBaseEvent(TypePlanChanged), Path: path}
}

// TasksRefreshedEvent is emitted after the task buckets were re-fetched.
type TasksRefreshedEvent struct {
	baseEvent
	Pending   int
	Completed int
}

// NewTasksRefreshedEvent creates a TasksRefreshedEvent.
func NewTasksRefreshedEvent(pending, completed int) TasksRefreshedEvent {
	return TasksRefreshedEvent{baseEvent: newBaseEvent(TypeTasksRefreshed), Pending: pending, Completed: completed}
}
