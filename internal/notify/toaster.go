package notify

import (
	"sync"
	"time"
)

// entry is one shown toast; seq tells apart toasts published with the same ID
type entry struct {
	seq   uint64
	toast Toast
	timer *time.Timer
}

// Toaster keeps the currently visible toasts; each expires on its own timer
type Toaster struct {
	mu          sync.Mutex
	timeout     time.Duration
	visible     []entry
	nextSeq     uint64
	unsubscribe func()
	onChange    func([]Toast)
}

// NewToaster subscribes to bus; onChange, if set, gets a snapshot after every change
func NewToaster(bus *Bus, timeout time.Duration, onChange func([]Toast)) *Toaster {
	t := &Toaster{
		timeout:  timeout,
		onChange: onChange,
	}
	t.unsubscribe = bus.Subscribe(t.add)
	return t
}

func (t *Toaster) add(toast Toast) {
	t.mu.Lock()
	t.nextSeq++
	seq := t.nextSeq
	t.visible = append(t.visible, entry{
		seq:   seq,
		toast: toast,
		timer: time.AfterFunc(t.timeout, func() { t.expire(seq) }),
	})
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snapshot)
}

// expire removes exactly the entry added with seq
func (t *Toaster) expire(seq uint64) {
	t.remove(func(e entry) bool { return e.seq == seq })
}

// Dismiss removes a toast early; every visible toast with that ID goes. Unknown IDs are ignored.
func (t *Toaster) Dismiss(id string) {
	t.remove(func(e entry) bool { return e.toast.ID == id })
}

func (t *Toaster) remove(match func(entry) bool) {
	t.mu.Lock()
	kept := t.visible[:0:0]
	removed := false
	for _, e := range t.visible {
		if match(e) {
			e.timer.Stop()
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		t.mu.Unlock()
		return
	}
	t.visible = kept
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snapshot)
}

// Visible returns the toasts currently shown, oldest first
func (t *Toaster) Visible() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Close unsubscribes and stops pending timers
func (t *Toaster) Close() {
	t.unsubscribe()
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.visible {
		e.timer.Stop()
	}
	t.visible = nil
}

func (t *Toaster) snapshotLocked() []Toast {
	out := make([]Toast, len(t.visible))
	for i, e := range t.visible {
		out[i] = e.toast
	}
	return out
}

func (t *Toaster) notify(snapshot []Toast) {
	if t.onChange != nil {
		t.onChange(snapshot)
	}
}
