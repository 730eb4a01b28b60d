package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Iron-Ham/taskpanel/internal/errors"
)

func TestFileWatcher_NotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project_plan.json")
	if err := os.WriteFile(path, []byte(`{"tasks":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan struct{}, 8)
	w, err := New(path, func() { changes <- struct{}{} }, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w.Start()
	defer w.Stop()

	// Several writes inside the debounce window collapse into one notification.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`{"tasks":[{"id":"GK1.1"}]}`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestFileWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project_plan.json")

	changes := make(chan struct{}, 8)
	w, err := New(path, func() { changes <- struct{}{} }, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w.Start()
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changes:
		t.Fatal("notified for an unrelated file")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestFileWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	w, err := New(filepath.Join(dir, "plan.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()

	started, err := New(filepath.Join(dir, "plan.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	started.Start()
	started.Stop()
	started.Stop()
}

func TestNew_Errors(t *testing.T) {
	if _, err := New("", nil); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("New(\"\") error = %v, want ErrInvalidInput", err)
	}
	if _, err := New(filepath.Join(t.TempDir(), "missing", "plan.json"), nil); err == nil {
		t.Error("New() with missing directory should fail")
	}
}
