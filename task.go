package reactive

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Task wraps a BareTask with an observable state value. State moves to
// Pending synchronously when Run is called, and to the terminal value only
// if the finished run is still the most recent one, so a superseded run can
// never overwrite state out of order. Aborted is a durable terminal tag; it
// does not collapse back to Uninit.
//
// A task constructed with a non-nil owner scope is aborted automatically
// when that scope is disposed: no task outlives its scope in the running
// state.
type Task[T any] struct {
	bare   *BareTask[T]
	state  *Value[Result[T]]
	logger hclog.Logger
	id     string

	mu  sync.Mutex
	gen uint64
}

// NewTask creates a task owned by scope. A nil owner creates an unowned
// task whose lifetime the caller manages via Abort.
func NewTask[T any](owner *Scope, fn Func[T], opts ...TaskOption) *Task[T] {
	cfg := newTaskConfig(opts)
	if cfg.logger == nil {
		if owner != nil {
			cfg.logger = owner.Logger()
		} else {
			cfg.logger = hclog.NewNullLogger()
		}
	}
	id := uuid.NewString()
	logger := cfg.logger.With("task_id", id)

	t := &Task[T]{
		bare:   NewBareTask(fn, WithTaskLogger(logger)),
		state:  NewValue(Uninit[T]()),
		logger: logger,
		id:     id,
	}
	if owner != nil {
		owner.OnCleanup(func() error {
			t.Abort()
			return nil
		})
	}
	return t
}

// ID returns the task's log-correlation identifier.
func (t *Task[T]) ID() string {
	return t.id
}

// State returns the observable state cell. Subscribers in synchronous mode
// observe every transition before the write returns.
func (t *Task[T]) State() *Value[Result[T]] {
	return t.state
}

// Run transitions state to Pending synchronously, then dispatches the
// wrapped function. The returned channel yields this run's outcome; the
// task's state reflects it only if no newer run was dispatched meanwhile.
func (t *Task[T]) Run(ctx context.Context) <-chan Result[T] {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	t.setState(Pending[T]())
	t.logger.Trace("task run dispatched", "generation", gen)

	out := t.bare.Run(ctx)
	done := make(chan Result[T], 1)
	go func() {
		res := <-out
		t.mu.Lock()
		latest := gen == t.gen
		t.mu.Unlock()
		if latest {
			t.setState(res)
		} else {
			t.logger.Trace("superseded run settled, result dropped", "generation", gen)
		}
		done <- res
	}()
	return done
}

// Abort cancels the active run. If that run was the most recent one, state
// transitions to Aborted before Abort returns.
func (t *Task[T]) Abort() {
	t.mu.Lock()
	gen := t.gen
	t.mu.Unlock()

	t.bare.Abort()

	t.mu.Lock()
	latest := gen == t.gen
	t.mu.Unlock()
	if latest && t.state.Get().Kind == KindPending {
		t.setState(Aborted[T]())
	}
}

func (t *Task[T]) setState(next Result[T]) {
	t.state.SetIf(next, func(prev, next Result[T]) bool {
		return prev.Equal(next)
	})
}
