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
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "noop"}))
	}

	assert.Eventually(t, func() bool { return handled.Load() == 5 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return q.Stats().Processed == 5 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesThenReportsFailure(t *testing.T) {
	var attempts atomic.Int32
	failedCh := make(chan Job, 1)
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		attempts.Add(1)
		return errors.New("boom")
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnFailure: func(ctx context.Context, job Job, err error) {
			failedCh <- job
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "fail"}))

	select {
	case job := <-failedCh:
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, 3, job.Attempt)
	case <-time.After(time.Second):
		t.Fatal("failure hook not invoked")
	}
	assert.EqualValues(t, 3, attempts.Load())
	assert.EqualValues(t, 2, q.Stats().Retried)
	assert.EqualValues(t, 1, q.Stats().Failed)
}

func TestEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "x"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}
