// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/models"
)

// mockWorker is a test implementation of the Worker interface
// that tracks how many times Run was called.
type mockWorker struct {
	runCount atomic.Int32
	err      error
	block    bool
}

func (m *mockWorker) Run(ctx context.Context) error {
	m.runCount.Add(1)
	if m.err != nil {
		return m.err
	}
	if m.block {
		<-ctx.Done()
	}
	return nil
}

// ── Workers ──────────────────────────────────────────────────────────────────

func TestWorkers_Run_AllWorkersAreCalled(t *testing.T) {
	w1 := &mockWorker{}
	w2 := &mockWorker{}
	w3 := &mockWorker{}

	ws := New(w1, w2, w3)
	require.NoError(t, ws.Run(context.Background()))

	for i, w := range []*mockWorker{w1, w2, w3} {
		assert.Equal(t, int32(1), w.runCount.Load(), "worker[%d]", i)
	}
}

func TestWorkers_Run_Empty(t *testing.T) {
	assert.NoError(t, New().Run(context.Background()))
	assert.NoError(t, (&Workers{}).Run(context.Background()))
}

func TestWorkers_Run_FailureCancelsOthers(t *testing.T) {
	blocking := &mockWorker{block: true}
	failing := &mockWorker{err: assert.AnError}

	done := make(chan error, 1)
	go func() { done <- New(blocking, failing).Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, assert.AnError)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after a worker failed")
	}
	assert.Equal(t, int32(1), blocking.runCount.Load())
}

func TestWorkers_Run_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &mockWorker{block: true}

	done := make(chan error, 1)
	go func() { done <- New(w).Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// ── periodicSync ─────────────────────────────────────────────────────────────

type spySyncService struct {
	calls atomic.Int32
	err   error
}

func (s *spySyncService) PushPending(context.Context) ([]models.SyncResult, error) {
	return nil, nil
}

func (s *spySyncService) Fetch(context.Context, string, int) (models.FetchPagedResult, error) {
	return models.FetchPagedResult{}, nil
}

func (s *spySyncService) FetchTypes(context.Context, []string, int) (map[string]models.FetchPagedResult, error) {
	return nil, nil
}

func (s *spySyncService) FullSync(context.Context) error {
	s.calls.Add(1)
	return s.err
}

type spyJob struct {
	mu      sync.Mutex
	started []time.Duration
	stopped int
}

func (j *spyJob) Start(_ context.Context, interval time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.started = append(j.started, interval)
}

func (j *spyJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stopped++
}

func TestPeriodicSync_Run(t *testing.T) {
	syncSvc := &spySyncService{err: errors.New("offline")}
	job := &spyJob{}
	w := NewPeriodicSync(syncSvc, job, time.Minute, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		job.mu.Lock()
		defer job.mu.Unlock()
		return len(job.started) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.Equal(t, int32(1), syncSvc.calls.Load())
	assert.Equal(t, []time.Duration{time.Minute}, job.started)
	assert.Equal(t, 1, job.stopped)
}
