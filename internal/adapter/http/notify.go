package adapthttp

import (
	"context"
	"sync"

	"dreamfront/internal/domain"
)

// flashLimit bounds the queue; the oldest notifications are dropped first.
const flashLimit = 32

var (
	_ domain.Notifier  = (*Flash)(nil)
	_ domain.Navigator = (*PendingNavigator)(nil)
)

// Flash queues notifications until the page bundle polls for them.
type Flash struct {
	mu    sync.Mutex
	queue []domain.Notification
}

// NewFlash creates an empty queue.
func NewFlash() *Flash {
	return &Flash{}
}

// Notify implements domain.Notifier.
func (f *Flash) Notify(_ context.Context, n domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, n)
	if over := len(f.queue) - flashLimit; over > 0 {
		f.queue = append(f.queue[:0:0], f.queue[over:]...)
	}
}

// Drain returns the queued notifications in arrival order and empties the
// queue.
func (f *Flash) Drain() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.queue
	f.queue = nil
	if out == nil {
		out = []domain.Notification{}
	}
	return out
}

// PendingNavigator holds the latest navigation command until the next page
// request takes it.
type PendingNavigator struct {
	mu     sync.Mutex
	target string
}

// NewPendingNavigator creates a navigator with nothing pending.
func NewPendingNavigator() *PendingNavigator {
	return &PendingNavigator{}
}

// Navigate implements domain.Navigator.
func (n *PendingNavigator) Navigate(path string) {
	n.mu.Lock()
	n.target = path
	n.mu.Unlock()
}

// Take returns and clears the pending target.
func (n *PendingNavigator) Take() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	t := n.target
	n.target = ""
	return t, t != ""
}
