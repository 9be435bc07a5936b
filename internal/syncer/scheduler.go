// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package syncer pushes local changes to the remote API.
//
// A [Scheduler] owns the queue of [models.SyncTask] values. All queue
// decisions are made on one goroutine: duplicates (same type, local id,
// method and path) are dropped, at most one task per record runs at a time
// and at most N tasks run concurrently. The [Operation] performs one task
// against the store and the transport; the [Manager] builds tasks from
// records and rescans pending records.
package syncer

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/models"
)

// DefaultConcurrency is the number of tasks run at once when none is
// configured.
const DefaultConcurrency = 5

// Runner performs one task. It must honour ctx cancellation.
type Runner interface {
	Run(ctx context.Context, task models.SyncTask) models.SyncResult
}

// RunnerFunc adapts a function to [Runner].
type RunnerFunc func(ctx context.Context, task models.SyncTask) models.SyncResult

func (f RunnerFunc) Run(ctx context.Context, task models.SyncTask) models.SyncResult {
	return f(ctx, task)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConcurrency bounds the number of running tasks. Values below 1 are
// ignored.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithObserver registers an observer of lifecycle notifications.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observers = append(s.observers, o)
	}
}

type submitReq struct {
	task  models.SyncTask
	cb    Callback
	reply chan submitReply
}

type submitReply struct {
	task     *Task
	accepted bool
}

type cancelReq struct {
	task  *Task
	reply chan bool
}

type inspectReq struct {
	key   models.TaskKey
	reply chan inspectReply
}

type inspectReply struct {
	present bool
	queued  int
	running int
}

type completion struct {
	task   *Task
	result models.SyncResult
}

// Scheduler queues and dispatches sync tasks.
type Scheduler struct {
	runner    Runner
	limit     int
	observers []Observer
	notifier  *notifier
	logger    *logger.Logger

	ctx       context.Context
	cancelAll context.CancelFunc

	submitCh  chan submitReq
	cancelCh  chan cancelReq
	inspectCh chan inspectReq
	doneCh    chan completion
	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// loop-owned state
	seq     uint64
	queue   []*Task
	byKey   map[models.TaskKey]*Task
	running map[models.ObjectKey]*Task
}

// NewScheduler starts a scheduler dispatching tasks to runner.
func NewScheduler(runner Runner, logger *logger.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner:    runner,
		limit:     DefaultConcurrency,
		logger:    logger,
		ctx:       logger.WithContext(ctx),
		cancelAll: cancel,
		submitCh:  make(chan submitReq),
		cancelCh:  make(chan cancelReq),
		inspectCh: make(chan inspectReq),
		doneCh:    make(chan completion),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
		byKey:     make(map[models.TaskKey]*Task),
		running:   make(map[models.ObjectKey]*Task),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.notifier = newNotifier(s.observers)

	go s.loop()
	return s
}

// Submit queues task. When a task with the same key is already queued or
// running the submission is dropped: the existing handle is returned with
// accepted == false, cb is attached to it and a queued task adopts the
// higher priority of the two.
func (s *Scheduler) Submit(task models.SyncTask, cb Callback) (t *Task, accepted bool, err error) {
	req := submitReq{task: task, cb: cb, reply: make(chan submitReply, 1)}
	select {
	case s.submitCh <- req:
	case <-s.stopped:
		return nil, false, ErrSchedulerClosed
	}
	reply := <-req.reply
	return reply.task, reply.accepted, nil
}

// IsQueued reports whether a task with the key of task is queued or running.
func (s *Scheduler) IsQueued(task models.SyncTask) bool {
	reply, ok := s.inspect(task.Key())
	return ok && reply.present
}

// Counts returns the number of queued and running tasks.
func (s *Scheduler) Counts() (queued, running int) {
	reply, _ := s.inspect(models.TaskKey{})
	return reply.queued, reply.running
}

// Close stops the scheduler. Queued tasks finish as cancelled, running tasks
// have their context cancelled and are waited for, and pending notifications
// are delivered before Close returns.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.stopped
		s.notifier.close()
	})
}

func (s *Scheduler) inspect(key models.TaskKey) (inspectReply, bool) {
	req := inspectReq{key: key, reply: make(chan inspectReply, 1)}
	select {
	case s.inspectCh <- req:
	case <-s.stopped:
		return inspectReply{}, false
	}
	return <-req.reply, true
}

func (s *Scheduler) cancel(t *Task) bool {
	req := cancelReq{task: t, reply: make(chan bool, 1)}
	select {
	case s.cancelCh <- req:
	case <-s.stopped:
		return false
	}
	return <-req.reply
}

func (s *Scheduler) loop() {
	defer close(s.stopped)

	for {
		select {
		case req := <-s.submitCh:
			req.reply <- s.handleSubmit(req)
		case req := <-s.cancelCh:
			req.reply <- s.handleCancel(req.task)
		case req := <-s.inspectCh:
			_, present := s.byKey[req.key]
			req.reply <- inspectReply{present: present, queued: len(s.queue), running: len(s.running)}
		case c := <-s.doneCh:
			s.handleDone(c)
		case <-s.stop:
			s.shutdown()
			return
		}
		s.dispatch()
	}
}

func (s *Scheduler) handleSubmit(req submitReq) submitReply {
	key := req.task.Key()
	if existing, dup := s.byKey[key]; dup {
		existing.callbacks = append(existing.callbacks, req.cb)
		if existing.State() == StateQueued && req.task.Priority > existing.spec.Priority {
			existing.spec.Priority = req.task.Priority
			s.sortQueue()
		}
		s.logger.Debug().
			Str("func", "Scheduler.handleSubmit").
			Str("type", key.ObjectType).
			Str("local_id", key.LocalID).
			Str("method", string(key.Method)).
			Msg("duplicate sync task dropped")
		return submitReply{task: existing}
	}

	s.seq++
	t := newTask(s.ctx, req.task, s.seq, s)
	t.callbacks = append(t.callbacks, req.cb)
	s.byKey[key] = t
	s.queue = append(s.queue, t)
	s.sortQueue()
	return submitReply{task: t, accepted: true}
}

func (s *Scheduler) handleCancel(t *Task) bool {
	if t.state.transition(StateQueued, StateCancelled) {
		s.queue = slices.DeleteFunc(s.queue, func(q *Task) bool { return q == t })
		delete(s.byKey, t.spec.Key())
		t.cancel()
		s.finish(t, models.SyncResult{Err: ErrTaskCancelled, FinishedAt: time.Now()})
		return true
	}
	if t.State() == StateRunning {
		t.cancel()
		return true
	}
	return false
}

func (s *Scheduler) handleDone(c completion) {
	t := c.task
	delete(s.running, t.spec.Object())
	delete(s.byKey, t.spec.Key())

	final := StateFailed
	switch {
	case c.result.Success:
		final = StateCompleted
	case t.ctx.Err() != nil:
		final = StateCancelled
	}
	t.state.transition(StateRunning, final)
	t.cancel()

	if !c.result.Success {
		s.logger.Warn().
			Err(c.result.Err).
			Str("func", "Scheduler.handleDone").
			Str("type", t.spec.ObjectType).
			Str("local_id", t.spec.LocalID).
			Str("state", final.String()).
			Msg("sync task did not complete")
	}
	s.finish(t, c.result)
}

// dispatch starts queued tasks while capacity allows, skipping tasks whose
// record already has a running task.
func (s *Scheduler) dispatch() {
	for i := 0; i < len(s.queue) && len(s.running) < s.limit; {
		t := s.queue[i]
		if _, busy := s.running[t.spec.Object()]; busy {
			i++
			continue
		}

		s.queue = slices.Delete(s.queue, i, i+1)
		if !t.state.transition(StateQueued, StateRunning) {
			delete(s.byKey, t.spec.Key())
			continue
		}

		s.running[t.spec.Object()] = t
		s.notifier.publish(notification{event: Event{Kind: EventStarted, Task: t.spec, State: StateRunning}})
		go s.execute(t)
	}
}

func (s *Scheduler) execute(t *Task) {
	started := time.Now()
	result := s.runner.Run(t.ctx, t.spec)
	if result.StartedAt.IsZero() {
		result.StartedAt = started
	}
	if result.FinishedAt.IsZero() {
		result.FinishedAt = time.Now()
	}
	s.doneCh <- completion{task: t, result: result}
}

func (s *Scheduler) finish(t *Task, result models.SyncResult) {
	t.result = result
	s.notifier.publish(notification{
		event: Event{Kind: EventCompleted, Task: t.spec, State: t.State(), Result: result},
		task:  t,
	})
}

func (s *Scheduler) shutdown() {
	for _, t := range s.queue {
		if t.state.transition(StateQueued, StateCancelled) {
			t.cancel()
			s.finish(t, models.SyncResult{Err: ErrSchedulerClosed, FinishedAt: time.Now()})
		}
		delete(s.byKey, t.spec.Key())
	}
	s.queue = nil

	s.cancelAll()
	for len(s.running) > 0 {
		s.handleDone(<-s.doneCh)
	}
}

// sortQueue orders the queue by priority, then by submission.
func (s *Scheduler) sortQueue() {
	slices.SortStableFunc(s.queue, func(a, b *Task) int {
		if a.spec.Priority != b.spec.Priority {
			return b.spec.Priority - a.spec.Priority
		}
		if a.seq < b.seq {
			return -1
		}
		if a.seq > b.seq {
			return 1
		}
		return 0
	})
}
