package syncer

import (
	"sync"

	"github.com/MKhiriev/go-record-sync/models"
)

// EventKind names a lifecycle notification.
type EventKind int

const (
	EventStarted EventKind = iota
	EventCompleted
)

func (k EventKind) String() string {
	if k == EventStarted {
		return "started"
	}
	return "completed"
}

// Event is a lifecycle notification of one task. Result is set for
// completed events.
type Event struct {
	Kind   EventKind
	Task   models.SyncTask
	State  TaskState
	Result models.SyncResult
}

// Observer receives lifecycle notifications.
type Observer func(Event)

type notification struct {
	event Event
	task  *Task
}

// notifier delivers notifications in submission order on its own goroutine
// so that slow observers never block the scheduler loop.
type notifier struct {
	observers []Observer

	mu      sync.Mutex
	pending []notification
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

func newNotifier(observers []Observer) *notifier {
	n := &notifier{
		observers: observers,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *notifier) publish(note notification) {
	n.mu.Lock()
	n.pending = append(n.pending, note)
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// close delivers what is pending and stops the goroutine.
func (n *notifier) close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
	<-n.done
}

func (n *notifier) run() {
	defer close(n.done)

	for range n.wake {
		for {
			n.mu.Lock()
			batch := n.pending
			n.pending = nil
			closed := n.closed
			n.mu.Unlock()

			if len(batch) == 0 {
				if closed {
					return
				}
				break
			}
			for _, note := range batch {
				n.deliver(note)
			}
		}
	}
}

func (n *notifier) deliver(note notification) {
	for _, observe := range n.observers {
		observe(note.event)
	}

	if note.task == nil {
		return
	}
	for _, cb := range note.task.callbacks {
		if cb != nil {
			cb(note.task.result)
		}
	}
	close(note.task.done)
}
