package reactive

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// RetryConfig bounds an ErrorRetry policy. Zero fields take the defaults.
type RetryConfig struct {
	// Count is the maximum number of retries since the last success.
	Count int
	// Interval is the fixed delay between retries. No backoff.
	Interval time.Duration
}

const (
	defaultRetryCount    = 5
	defaultRetryInterval = 5 * time.Second
)

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Count <= 0 {
		c.Count = defaultRetryCount
	}
	if c.Interval <= 0 {
		c.Interval = defaultRetryInterval
	}
	return c
}

// ErrorRetry re-invokes a retry callback on a fixed interval while the
// observed state holds a settled error. The attempt counter resets to zero
// the moment the error clears; once Count attempts have been made without a
// success the timer stops until a new error state arrives after a success.
type ErrorRetry struct {
	cfg    RetryConfig
	retry  func()
	logger hclog.Logger
	cancel func()

	mu       sync.Mutex
	attempts int
	stop     chan struct{}
	disposed bool
}

// NewErrorRetry attaches a bounded fixed-interval retry policy to state.
// retry typically re-runs the task or refreshes the resource that feeds
// state. A non-nil owner stops the policy when the scope is disposed.
func NewErrorRetry[T any](owner *Scope, state *Value[StaleResult[T]], retry func(), cfg RetryConfig) *ErrorRetry {
	r := &ErrorRetry{
		cfg:    cfg.withDefaults(),
		retry:  retry,
		logger: hclog.NewNullLogger(),
	}
	if owner != nil {
		r.logger = owner.Logger()
	}

	observe := func(s StaleResult[T]) {
		r.observe(s.Err != nil, s.Pending)
	}
	observe(state.Get())
	r.cancel = state.Subscribe(observe)

	if owner != nil {
		owner.OnCleanup(func() error {
			r.Stop()
			return nil
		})
	}
	return r
}

// Attempts returns the number of retries since the last success.
func (r *ErrorRetry) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// Stop halts the timer and detaches from the state cell. Idempotent.
func (r *ErrorRetry) Stop() {
	r.mu.Lock()
	r.disposed = true
	r.stopTimerLocked()
	r.mu.Unlock()
	r.cancel()
}

func (r *ErrorRetry) observe(erroring, pending bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	if !erroring {
		// Error condition cleared (or never held); pending with no recorded
		// error also lands here before the first settlement.
		r.attempts = 0
		r.stopTimerLocked()
		return
	}
	if pending {
		// A retry is in flight; keep the timer as-is.
		return
	}
	r.startTimerLocked()
}

func (r *ErrorRetry) startTimerLocked() {
	if r.stop != nil || r.attempts >= r.cfg.Count {
		return
	}
	stop := make(chan struct{})
	r.stop = stop
	go r.loop(stop)
}

func (r *ErrorRetry) stopTimerLocked() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}

func (r *ErrorRetry) loop(stop chan struct{}) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.disposed || r.stop != stop {
				r.mu.Unlock()
				return
			}
			if r.attempts >= r.cfg.Count {
				r.stopTimerLocked()
				r.mu.Unlock()
				return
			}
			r.attempts++
			attempt := r.attempts
			r.mu.Unlock()

			r.logger.Debug("retrying after error", "attempt", attempt, "max", r.cfg.Count)
			r.retry()
		}
	}
}
