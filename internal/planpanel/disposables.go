package planpanel

import "sync"

// Disposables is an ordered list of release actions. Release runs them in
// reverse registration order exactly once and leaves the list empty, so it
// is safe to call on an already-empty list.
type Disposables struct {
	mu      sync.Mutex
	actions []func()
}

// Add registers a release action. Nil actions are ignored.
func (d *Disposables) Add(release func()) {
	if release == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, release)
}

// Len returns the number of pending release actions.
func (d *Disposables) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.actions)
}

// Release pops and runs every action, last registered first. Actions added
// while releasing are also run.
func (d *Disposables) Release() {
	for {
		d.mu.Lock()
		n := len(d.actions)
		if n == 0 {
			d.actions = nil
			d.mu.Unlock()
			return
		}
		action := d.actions[n-1]
		d.actions = d.actions[:n-1]
		d.mu.Unlock()

		action()
	}
}
