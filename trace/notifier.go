// ABOUTME: Change notification fan-out so any rendering layer can observe the tracker.
// ABOUTME: Subscribers get buffered channels; slow ones drop changes rather than block.
package trace

import (
	"sync"
	"time"
)

// ChangeKind discriminates what part of the tracker state moved.
type ChangeKind string

const (
	ChangeSessionStarted  ChangeKind = "session_started"
	ChangeSessionFinished ChangeKind = "session_finished"
	ChangeStepAdded       ChangeKind = "step_added"
	ChangeStepUpdated     ChangeKind = "step_updated"
	ChangeSubagentAdded   ChangeKind = "subagent_added"
	ChangeSubagentUpdated ChangeKind = "subagent_updated"
	ChangeViewChanged     ChangeKind = "view_changed"
)

// Change describes one tracker mutation. Data carries scalar details
// (sequence numbers, tool names); subscribers read full state through
// Snapshot rather than through the change itself.
type Change struct {
	Kind      ChangeKind
	Timestamp time.Time
	SessionID string
	Data      map[string]any
}

// Notifier delivers tracker changes to subscribed channels.
type Notifier struct {
	mu          sync.RWMutex
	subscribers []chan Change
	closed      bool
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{subscribers: make([]chan Change, 0)}
}

// Subscribe registers a new subscriber channel and returns it.
// The channel has a buffer of 64 to reduce the likelihood of blocking.
func (n *Notifier) Subscribe() <-chan Change {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan Change, 64)
	n.subscribers = append(n.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber channel and closes it.
func (n *Notifier) Unsubscribe(ch <-chan Change) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, sub := range n.subscribers {
		if (<-chan Change)(sub) == ch {
			close(sub)
			n.subscribers = append(n.subscribers[:i], n.subscribers[i+1:]...)
			return
		}
	}
}

// Emit sends a change to all subscribers. Non-blocking: a subscriber
// with a full buffer misses this change instead of stalling the tracker.
func (n *Notifier) Emit(change Change) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return
	}
	for _, ch := range n.subscribers {
		select {
		case ch <- change:
		default:
		}
	}
}

// Close closes the notifier and all subscriber channels.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for _, ch := range n.subscribers {
		close(ch)
	}
	n.subscribers = nil
}
