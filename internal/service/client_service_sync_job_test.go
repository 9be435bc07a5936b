// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spySyncService counts FullSync calls.
type spySyncService struct {
	calls atomic.Int64
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

// ── NewClientSyncJob ─────────────────────────────────────────────────────────

func TestNewClientSyncJob_ReturnsInterface(t *testing.T) {
	spy := &spySyncService{}
	job := NewClientSyncJob(spy, logger.Nop())
	require.NotNil(t, job)

	var _ ClientSyncJob = job
}

// ── Start / Stop ─────────────────────────────────────────────────────────────

func TestClientSyncJob_Start_CallsFullSync(t *testing.T) {
	spy := &spySyncService{}
	job := NewClientSyncJob(spy, logger.Nop())

	// 10ms interval, roughly 5 ticks in 55ms
	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(55 * time.Millisecond)
	job.Stop()

	got := spy.calls.Load()
	assert.GreaterOrEqual(t, got, int64(3), "FullSync should run several times, ran: %d", got)
}

func TestClientSyncJob_Stop_StopsGoroutine(t *testing.T) {
	spy := &spySyncService{}
	job := NewClientSyncJob(spy, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	callsAfterStop := spy.calls.Load()
	time.Sleep(30 * time.Millisecond)
	callsLater := spy.calls.Load()

	assert.Equal(t, callsAfterStop, callsLater, "no calls expected after Stop")
}

func TestClientSyncJob_Stop_BeforeStart_NoPanic(t *testing.T) {
	job := NewClientSyncJob(&spySyncService{}, logger.Nop())
	assert.NotPanics(t, func() { job.Stop() })
}

func TestClientSyncJob_DoubleStop_NoPanic(t *testing.T) {
	job := NewClientSyncJob(&spySyncService{}, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	job.Stop()

	assert.NotPanics(t, func() { job.Stop() })
}

func TestClientSyncJob_Start_DefaultInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		t.Run(interval.String(), func(t *testing.T) {
			spy := &spySyncService{}
			job := NewClientSyncJob(spy, logger.Nop())
			ctx, cancel := context.WithCancel(context.Background())

			// falls back to DefaultSyncInterval, nothing runs within 20ms
			job.Start(ctx, interval)
			time.Sleep(20 * time.Millisecond)
			cancel()
			job.Stop()

			assert.Equal(t, int64(0), spy.calls.Load())
		})
	}
}

func TestClientSyncJob_Restart_StopsPrevious(t *testing.T) {
	spy := &spySyncService{}
	job := NewClientSyncJob(spy, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	callsBefore := spy.calls.Load()
	assert.Greater(t, callsBefore, int64(0))

	// Start on a running job stops the previous goroutine first
	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	assert.Greater(t, spy.calls.Load(), callsBefore, "the second Start keeps syncing")
}

func TestClientSyncJob_ContextCancel_StopsJob(t *testing.T) {
	job := NewClientSyncJob(&spySyncService{}, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	job.Start(ctx, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		job.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop hangs after the context was cancelled")
	}
}

func TestClientSyncJob_FullSyncError_DoesNotStopJob(t *testing.T) {
	spy := &spySyncService{err: assert.AnError}
	job := NewClientSyncJob(spy, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(55 * time.Millisecond)
	job.Stop()

	got := spy.calls.Load()
	assert.GreaterOrEqual(t, got, int64(3), "FullSync keeps running despite errors: %d", got)
}
