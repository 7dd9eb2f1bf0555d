package retry

import (
	"context"
	"github.com/cenkalti/backoff/v4"
	"moff.io/wallet-connector/pkg/errors"
	"sync"
	"time"
)

// SleepFunc pauses between two attempts. It returns early with ctx's error
// when ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Options struct {
	// Times is the maximum number of attempts, zero or less means none.
	Times    int
	Interval time.Duration
	// Sleep defaults to a timer based sleep.
	Sleep SleepFunc
}

// DefaultPoll is used to look for an already authorized wallet session.
var DefaultPoll = Options{Times: 5, Interval: 100 * time.Millisecond}

func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var errAttemptFailed = errors.New("attempt failed")

// Do calls attempt until it succeeds or opts.Times attempts were made. The
// pause happens only after a failed attempt that is not the last one. It
// returns the number of attempts made and whether one succeeded.
func Do(ctx context.Context, opts Options, attempt func() bool) (int, bool) {
	if opts.Times <= 0 {
		return 0, false
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	attempts := 0
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempts++
		if attempt() {
			return nil
		}
		return errAttemptFailed
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(opts.Interval), uint64(opts.Times-1)),
		ctx,
	)
	err := backoff.RetryNotifyWithTimer(operation, policy, nil, &sleepTimer{ctx: ctx, cancel: cancel, sleep: sleep})
	return attempts, err == nil
}

// sleepTimer drives backoff pauses through a SleepFunc. A failed sleep
// cancels the loop.
type sleepTimer struct {
	ctx    context.Context
	cancel context.CancelFunc
	sleep  SleepFunc
	c      chan time.Time
}

func (t *sleepTimer) Start(d time.Duration) {
	t.c = make(chan time.Time, 1)
	if err := t.sleep(t.ctx, d); err != nil {
		t.cancel()
		return
	}
	t.c <- time.Now()
}

func (t *sleepTimer) Stop() {}

func (t *sleepTimer) C() <-chan time.Time {
	return t.c
}

// Task is a Do loop running on its own goroutine.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	attempts int
	ok       bool
}

func Start(ctx context.Context, opts Options, attempt func() bool) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		attempts, ok := Do(ctx, opts, attempt)
		t.mu.Lock()
		t.attempts, t.ok = attempts, ok
		t.mu.Unlock()
	}()
	return t
}

// Stop cancels the task and waits for the running attempt to return.
func (t *Task) Stop() {
	t.cancel()
	<-t.done
}

// Done is closed once the loop has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result is meaningful after Done is closed.
func (t *Task) Result() (attempts int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts, t.ok
}
