// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncer

import "errors"

var (
	// ErrSchedulerClosed is returned for submissions after Close and
	// delivered to tasks still queued when the scheduler stops.
	ErrSchedulerClosed = errors.New("scheduler closed")

	// ErrTaskCancelled is delivered to tasks cancelled before or during
	// dispatch.
	ErrTaskCancelled = errors.New("sync task cancelled")

	// ErrNotSyncable is returned for records whose type pushes no changes.
	ErrNotSyncable = errors.New("type is not syncable")

	// ErrReconcileFailed wraps item errors of a sync response.
	ErrReconcileFailed = errors.New("failed to reconcile sync response")
)
