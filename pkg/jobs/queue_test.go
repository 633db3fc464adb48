package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var handled atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		handled.Add(1)
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "report"}))
	}

	assert.Eventually(t, func() bool { return handled.Load() == 5 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesFailedJob(t *testing.T) {
	var calls atomic.Int32
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if calls.Add(1) < 3 {
			return errors.New("boom")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	assert.Eventually(t, func() bool { return calls.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "x"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}
