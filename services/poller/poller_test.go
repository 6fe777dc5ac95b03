package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(maxAttempts int) Config {
	return Config{
		Name:         "test",
		InitialDelay: time.Millisecond,
		Interval:     time.Millisecond,
		MaxAttempts:  maxAttempts,
	}
}

func TestPoller_SucceedsOnLastAttempt(t *testing.T) {
	var calls atomic.Int32
	task := NewPoller(testConfig(30)).Start(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
		calls.Add(1)
		return attempt == 30, nil
	})

	require.NoError(t, task.Wait())
	assert.Equal(t, int32(30), calls.Load())
}

func TestPoller_StopsAtBound(t *testing.T) {
	var calls atomic.Int32
	task := NewPoller(testConfig(30)).Start(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
		calls.Add(1)
		return false, nil
	})

	assert.ErrorIs(t, task.Wait(), ErrMaxAttemptsExceeded)
	assert.Equal(t, int32(30), calls.Load())

	// nothing fires after the task stopped
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(30), calls.Load())
}

func TestPoller_ErrorsCountAsAttempts(t *testing.T) {
	var calls atomic.Int32
	task := NewPoller(testConfig(3)).Start(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
		calls.Add(1)
		return false, errors.New("relay unavailable")
	})

	assert.ErrorIs(t, task.Wait(), ErrMaxAttemptsExceeded)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPoller_CancelStopsFurtherAttempts(t *testing.T) {
	var calls atomic.Int32
	cfg := testConfig(100)
	cfg.Interval = 5 * time.Millisecond

	var task *Task
	started := make(chan struct{})
	task = NewPoller(cfg).Start(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
		if calls.Add(1) == 2 {
			close(started)
		}
		return false, nil
	})

	<-started
	task.Cancel()
	assert.ErrorIs(t, task.Wait(), context.Canceled)

	seen := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, seen, calls.Load())
}

func TestPoller_CancelFromInsideAttempt(t *testing.T) {
	var calls atomic.Int32
	var task *Task
	ready := make(chan struct{})
	task = NewPoller(testConfig(10)).Start(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
		<-ready
		calls.Add(1)
		task.Cancel()
		return true, nil
	})
	close(ready)

	assert.NoError(t, task.Wait())
	assert.Equal(t, int32(1), calls.Load())
}

func TestPoller_CancelDuringLastAttemptIsNotExhaustion(t *testing.T) {
	var task *Task
	ready := make(chan struct{})
	task = NewPoller(testConfig(1)).Start(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
		<-ready
		task.Cancel()
		return false, nil
	})
	close(ready)

	err := task.Wait()
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrMaxAttemptsExceeded)
}

func TestPoller_ParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	task := NewPoller(testConfig(5)).Start(ctx, func(ctx context.Context, attempt int) (bool, error) {
		calls.Add(1)
		return false, nil
	})

	assert.ErrorIs(t, task.Wait(), context.Canceled)
	assert.Equal(t, int32(0), calls.Load())

	select {
	case <-task.Done():
	default:
		t.Fatal("task should be done")
	}
}

func TestNewPoller_InvalidConfig(t *testing.T) {
	assert.Panics(t, func() { NewPoller(Config{MaxAttempts: 0}) })
}
