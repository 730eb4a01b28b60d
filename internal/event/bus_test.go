package event

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/Iron-Ham/taskpanel/internal/logging"
)

func TestBus_SubscribeAndPublish(t *testing.T) {
	bus := NewBus(nil)

	var received []Event
	id := bus.Subscribe(TypeTriggerInvoked, func(e Event) {
		received = append(received, e)
	})
	if id == "" {
		t.Fatal("Subscribe should return a non-empty ID")
	}
	if len(received) != 0 {
		t.Fatal("handler called before publish")
	}

	bus.Publish(NewTriggerInvokedEvent("missTaskmaster.showProjectPlan"))
	bus.Publish(NewPanelStateEvent(true))

	if len(received) != 1 {
		t.Fatalf("got %d events, want 1", len(received))
	}
	got, ok := received[0].(TriggerInvokedEvent)
	if !ok || got.Name != "missTaskmaster.showProjectPlan" {
		t.Errorf("received %#v", received[0])
	}
	if got.Timestamp().IsZero() {
		t.Error("event has no timestamp")
	}
}

func TestBus_DispatchOrder(t *testing.T) {
	bus := NewBus(nil)

	var order []string
	bus.SubscribeAll(func(e Event) { order = append(order, "wildcard") })
	bus.Subscribe(TypeStatusMessage, func(e Event) { order = append(order, "first") })
	bus.Subscribe(TypeStatusMessage, func(e Event) { order = append(order, "second") })

	bus.Publish(NewStatusMessageEvent(MessageInfo, "Running orchestration..."))

	if got := strings.Join(order, ","); got != "first,second,wildcard" {
		t.Errorf("order = %s, want specific handlers before wildcard", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)

	calls := map[string]int{}
	id1 := bus.Subscribe(TypePlanChanged, func(e Event) { calls["one"]++ })
	bus.Subscribe(TypePlanChanged, func(e Event) { calls["two"]++ })

	if !bus.Unsubscribe(id1) {
		t.Fatal("Unsubscribe should report an existing subscription")
	}
	if bus.Unsubscribe(id1) {
		t.Error("second Unsubscribe should report false")
	}
	if bus.Unsubscribe("sub-unknown") {
		t.Error("unknown ID should report false")
	}

	bus.Publish(NewPlanChangedEvent("/tmp/plan.json"))

	if calls["one"] != 0 || calls["two"] != 1 {
		t.Errorf("calls = %v", calls)
	}
}

func TestBus_Release(t *testing.T) {
	bus := NewBus(nil)
	release := bus.Release(bus.SubscribeAll(func(Event) {}))

	release()
	release()

	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after release", bus.SubscriptionCount())
	}
}

func TestBus_UnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus(nil)

	var id string
	calls := 0
	id = bus.Subscribe(TypePanelState, func(Event) {
		calls++
		bus.Unsubscribe(id)
	})
	bus.Subscribe(TypePanelState, func(Event) { calls++ })

	bus.Publish(NewPanelStateEvent(false))
	bus.Publish(NewPanelStateEvent(false))

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestBus_HandlerPanicRecovery(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus(logging.NewWriterLogger(&buf, logging.LevelDebug))

	calls := 0
	bus.Subscribe(TypeTriggerFailed, func(Event) {
		calls++
		panic("handler panic")
	})
	bus.Subscribe(TypeTriggerFailed, func(Event) { calls++ })

	bus.Publish(NewTriggerFailedEvent("missTaskmaster.initProject", nil))

	if calls != 2 {
		t.Errorf("calls = %d, want both handlers despite panic", calls)
	}
	if !strings.Contains(buf.String(), "event handler panicked") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus(nil)
	bus.Subscribe(TypePanelState, func(Event) {})
	bus.Subscribe(TypeTasksRefreshed, func(Event) {})
	bus.SubscribeAll(func(Event) {})

	if bus.SubscriptionCount() != 3 {
		t.Fatalf("SubscriptionCount() = %d, want 3", bus.SubscriptionCount())
	}
	bus.Clear()
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Clear", bus.SubscriptionCount())
	}
}

func TestBus_Concurrent(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	calls := 0
	bus.Subscribe(TypeTasksRefreshed, func(Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(NewTasksRefreshedEvent(1, 1))
		}()
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Unsubscribe(bus.Subscribe(TypePlanChanged, func(Event) {}))
		}()
	}
	wg.Wait()

	if calls != 100 {
		t.Errorf("calls = %d, want 100", calls)
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", bus.SubscriptionCount())
	}
}

func TestMessageLevelString(t *testing.T) {
	tests := map[MessageLevel]string{
		MessageInfo:     "info",
		MessageWarning:  "warning",
		MessageError:    "error",
		MessageLevel(9): "info",
	}
	for level, want := range tests {
		if got := level.String(); got != want {
			t.Errorf("MessageLevel(%d).String() = %q, want %q", level, got, want)
		}
	}
}
