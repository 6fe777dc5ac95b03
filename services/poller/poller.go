// Package poller runs a bounded, cancellable repeating task.
package poller

import (
	"context"
	"errors"
	"time"

	"dgexport/core/log"
	"dgexport/utils"
)

// ErrMaxAttemptsExceeded is returned by Task.Wait when no attempt reported done
var ErrMaxAttemptsExceeded = errors.New("max poll attempts exceeded")

// AttemptFunc performs one poll. Returning done=true stops the task successfully.
// A returned error is logged and counts as a failed attempt.
type AttemptFunc func(ctx context.Context, attempt int) (done bool, err error)

type Config struct {
	Name         string
	InitialDelay time.Duration
	Interval     time.Duration
	MaxAttempts  int
}

type Poller struct {
	cfg Config
}

func NewPoller(cfg Config) *Poller {
	utils.AssertInvariant(cfg.MaxAttempts > 0, "max attempts must be positive")
	utils.AssertInvariant(cfg.Interval >= 0 && cfg.InitialDelay >= 0, "delays cannot be negative")
	return &Poller{cfg: cfg}
}

// Task is one running poll loop
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start schedules the first attempt after InitialDelay and the following ones every Interval.
// At most MaxAttempts attempts are made.
func (p *Poller) Start(parent context.Context, fn AttemptFunc) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go t.run(ctx, p.cfg, fn)
	return t
}

func (t *Task) run(ctx context.Context, cfg Config, fn AttemptFunc) {
	defer close(t.done)
	defer t.cancel()

	delay := cfg.InitialDelay
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			t.err = ctx.Err()
			return
		case <-timer.C:
		}

		// the timer and a cancellation can fire together; cancellation wins
		if err := ctx.Err(); err != nil {
			t.err = err
			return
		}

		done, err := fn(ctx, attempt)
		if err != nil {
			log.Warn("⚠️ Poll attempt failed", "poller", cfg.Name, "attempt", attempt, "error", err)
		}
		if done {
			log.Debug("✅ Poll completed", "poller", cfg.Name, "attempt", attempt)
			return
		}
		// cancelled while the attempt was in flight
		if err := ctx.Err(); err != nil {
			t.err = err
			return
		}
		delay = cfg.Interval
	}

	log.Warn("💀 Poll attempts exhausted", "poller", cfg.Name, "attempts", cfg.MaxAttempts)
	t.err = ErrMaxAttemptsExceeded
}

// Cancel stops the task; an attempt already in flight sees its context cancelled.
// It is safe to call on a nil task.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.cancel()
}

// Done is closed once the task has stopped for any reason
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task stops. It returns nil when an attempt reported done,
// ErrMaxAttemptsExceeded when the bound was hit and the context error when cancelled.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}
