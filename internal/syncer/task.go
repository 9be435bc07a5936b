package syncer

import (
	"context"

	"github.com/MKhiriev/go-record-sync/models"
)

// Callback receives the result of a finished task. Callbacks run on the
// scheduler's notifier goroutine.
type Callback func(models.SyncResult)

// Task is the handle of a submitted sync task.
type Task struct {
	spec models.SyncTask
	seq  uint64

	state  taskState
	ctx    context.Context
	cancel context.CancelFunc

	// callbacks and result are owned by the scheduler loop until the task
	// is finished.
	callbacks []Callback
	result    models.SyncResult
	done      chan struct{}

	sched *Scheduler
}

func newTask(parent context.Context, spec models.SyncTask, seq uint64, sched *Scheduler) *Task {
	ctx, cancel := context.WithCancel(parent)
	return &Task{
		spec:   spec,
		seq:    seq,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		sched:  sched,
	}
}

// Spec returns the submitted task description, with its current priority.
func (t *Task) Spec() models.SyncTask {
	return t.spec
}

// State returns the current lifecycle state.
func (t *Task) State() TaskState {
	return t.state.load()
}

// Done is closed once the task is finished and its callbacks have run.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result returns the task's result. It is valid once Done is closed.
func (t *Task) Result() models.SyncResult {
	<-t.done
	return t.result
}

// Wait blocks until the task is finished or ctx is done.
func (t *Task) Wait(ctx context.Context) (models.SyncResult, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return models.SyncResult{}, ctx.Err()
	}
}

// Cancel cancels the task. A queued task is removed without ever issuing
// its request; a running task has its context cancelled. Cancel reports
// whether the task was still queued or running.
func (t *Task) Cancel() bool {
	return t.sched.cancel(t)
}
