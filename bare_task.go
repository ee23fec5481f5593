package reactive

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Func is the caller-supplied operation wrapped by a task. The context is
// cancelled on abort; the handle lets the operation register hooks that
// release external resources when the run is cancelled. An aborted run keeps
// executing in the background, but its return value is discarded.
type Func[T any] func(ctx context.Context, h *AbortHandle) (T, error)

// TaskOption configures a task.
type TaskOption func(*taskConfig)

type taskConfig struct {
	logger hclog.Logger
}

// WithTaskLogger sets the logger used for run diagnostics.
func WithTaskLogger(logger hclog.Logger) TaskOption {
	return func(c *taskConfig) {
		c.logger = logger
	}
}

func newTaskConfig(opts []TaskOption) taskConfig {
	var cfg taskConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// activeRun is one dispatch of the wrapped function. settle resolves the
// out channel at most once; the loser of the settle race is unobservable.
type activeRun[T any] struct {
	handle *AbortHandle
	cancel context.CancelFunc
	once   sync.Once
	out    chan Result[T]
}

func (r *activeRun[T]) settle(res Result[T]) {
	r.once.Do(func() {
		r.out <- res
	})
}

func (r *activeRun[T]) abort() {
	r.settle(Aborted[T]())
	r.cancel()
	r.handle.Abort()
}

// BareTask is a stateless, redoable wrapper around fn. It owns at most one
// in-flight run; starting a new run or calling Abort cancels the previous
// one, whose channel then resolves Aborted.
type BareTask[T any] struct {
	mu     sync.Mutex
	fn     Func[T]
	active *activeRun[T]
	logger hclog.Logger
}

// NewBareTask wraps fn without any observable state. Most callers want
// NewTask instead.
func NewBareTask[T any](fn Func[T], opts ...TaskOption) *BareTask[T] {
	cfg := newTaskConfig(opts)
	if cfg.logger == nil {
		cfg.logger = hclog.NewNullLogger()
	}
	return &BareTask[T]{fn: fn, logger: cfg.logger}
}

// Run aborts any active run, then dispatches a fresh one. The returned
// channel yields exactly one Result: OK or Err from the function's
// settlement, or Aborted if the run is cancelled first. A superseded run's
// eventual settlement never reaches its channel.
func (t *BareTask[T]) Run(ctx context.Context) <-chan Result[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	run := &activeRun[T]{
		handle: NewAbortHandle(t.logger),
		cancel: cancel,
		out:    make(chan Result[T], 1),
	}

	t.mu.Lock()
	prev := t.active
	t.active = run
	t.mu.Unlock()

	if prev != nil {
		prev.abort()
	}

	go func() {
		data, err := t.fn(runCtx, run.handle)
		cancel()
		if err != nil {
			run.settle(Failed[T](err))
		} else {
			run.settle(OK(data))
		}
		t.mu.Lock()
		if t.active == run {
			t.active = nil
		}
		t.mu.Unlock()
	}()

	return run.out
}

// Abort cancels the active run, firing its abort hooks and clearing the
// active-run slot. With no active run it is a no-op.
func (t *BareTask[T]) Abort() {
	t.mu.Lock()
	run := t.active
	t.active = nil
	t.mu.Unlock()

	if run != nil {
		run.abort()
	}
}
