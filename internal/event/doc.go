// Package event provides a pub-sub event bus for decoupled communication
// between the trigger shell, the plan panel and the presentation hosts.
//
// Components publish events without knowing who receives them; the TUI
// subscribes to show status messages, and the shell subscribes a wildcard
// handler that writes every event to the log.
//
// # Event Types
//
// Event types follow the pattern "category.action":
//   - trigger.invoked, trigger.failed
//   - status.message
//   - panel.state
//   - plan.changed
//   - tasks.refreshed
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers run synchronously on the
// publisher's goroutine; a panicking handler is recovered and logged and
// does not stop delivery to the rest.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//	id := bus.Subscribe(event.TypeStatusMessage, func(e event.Event) {
//	    msg := e.(event.StatusMessageEvent)
//	    fmt.Println(msg.Text)
//	})
//	bus.Publish(event.NewStatusMessageEvent(event.MessageInfo, "Running orchestration..."))
//	bus.Unsubscribe(id)
package event
