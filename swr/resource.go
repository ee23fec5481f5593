package swr

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	reactive "github.com/reactive-fn/reactive-go"
)

// Fetcher loads the value for a resolved key. The context is cancelled and
// the handle's hooks fire when the fetch is aborted; an abandoned fetch may
// run to completion in the background, but its result never reaches the
// store.
type Fetcher[T any] func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (T, error)

// Resource is one keyed SWR entry, alive for as long as its key stays
// selected. State is written through to the shared store, so a re-selected
// key picks up where it left off.
type Resource[T any] struct {
	id     string
	key    any
	rkey   reactive.Key
	store  Store[T]
	scope  *reactive.Scope
	task   *reactive.Task[T]
	state  *reactive.Value[State[T]]
	logger hclog.Logger

	mu  sync.Mutex
	cur State[T]
}

func newResource[T any](scope *reactive.Scope, key reactive.Key, store Store[T], fetch Fetcher[T], logger hclog.Logger) *Resource[T] {
	storeKey := storeKeyOf(key)
	initial, ok := store.Get(storeKey)
	if !ok {
		initial = State[T]{}
	}
	// A previous lifetime torn down mid-fetch may have persisted Pending;
	// no fetch is in flight for a freshly captured resource.
	initial.Pending = false
	store.Set(storeKey, initial)

	id := uuid.NewString()
	r := &Resource[T]{
		id:     id,
		key:    storeKey,
		rkey:   key,
		store:  store,
		scope:  scope,
		state:  reactive.NewValue(initial),
		logger: logger.With("resource_id", id, "key", fmt.Sprint(storeKey)),
		cur:    initial,
	}
	r.task = reactive.NewTask(scope, func(ctx context.Context, h *reactive.AbortHandle) (T, error) {
		return fetch(ctx, key, h)
	}, reactive.WithTaskLogger(r.logger))

	cancelState := r.task.State().Subscribe(r.applyTaskState)
	cancelTrigger := r.state.Subscribe(func(State[T]) {
		r.maybeFetch(false)
	})
	scope.OnCleanup(func() error {
		cancelState()
		cancelTrigger()
		return nil
	})

	r.maybeFetch(false)
	return r
}

// ID returns the resource's log-correlation identifier.
func (r *Resource[T]) ID() string {
	return r.id
}

// Key returns the key that selected this resource.
func (r *Resource[T]) Key() reactive.Key {
	return r.rkey
}

// State returns a snapshot of the current state.
func (r *Resource[T]) State() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur
}

// Observe returns the observable state cell.
func (r *Resource[T]) Observe() *reactive.Value[State[T]] {
	return r.state
}

// Refresh marks the entry stale and refetches. With force, any in-flight
// fetch is aborted first: its abort hooks fire, Pending clears, and its
// eventual result never commits.
func (r *Resource[T]) Refresh(force bool) {
	if force {
		r.task.Abort()
	}
	r.update(func(s *State[T]) {
		s.Fresh = false
	})
	r.maybeFetch(true)
}

// Reset aborts any in-flight fetch, clears the entry back to its zero state
// and refetches.
func (r *Resource[T]) Reset() {
	r.task.Abort()
	r.mu.Lock()
	r.cur = State[T]{}
	r.store.Set(r.key, r.cur)
	r.mu.Unlock()
	r.state.Set(State[T]{})
	r.maybeFetch(true)
}

// maybeFetch launches the fetch when the entry needs revalidation. A settled
// error freezes implicit refetching so a failing fetcher cannot hot-loop;
// Refresh, Reset and retry policies pass explicit to override that.
func (r *Resource[T]) maybeFetch(explicit bool) {
	cur := r.State()
	if cur.Pending || cur.Fresh {
		return
	}
	if cur.Err != nil && !explicit {
		return
	}
	r.logger.Debug("fetch triggered", "explicit", explicit)
	r.task.Run(context.Background())
}

func (r *Resource[T]) applyTaskState(res reactive.Result[T]) {
	switch res.Kind {
	case reactive.KindPending:
		r.update(func(s *State[T]) {
			s.Pending = true
			s.Fresh = false
		})
	case reactive.KindOK:
		r.update(func(s *State[T]) {
			s.Data = res.Data
			s.HasData = true
			s.Err = nil
			s.Pending = false
			s.Fresh = true
		})
	case reactive.KindErr:
		// data stays: stale data plus a newer error
		r.update(func(s *State[T]) {
			s.Err = res.Err
			s.Pending = false
		})
	case reactive.KindAborted:
		r.update(func(s *State[T]) {
			s.Pending = false
		})
	}
}

// update applies mutate to the authoritative copy, writes through to the
// store, then publishes. The cell is published outside the lock so
// subscribers (the fetch trigger included) can re-enter the resource.
func (r *Resource[T]) update(mutate func(*State[T])) {
	r.mu.Lock()
	next := r.cur
	mutate(&next)
	r.cur = next
	r.store.Set(r.key, next)
	r.mu.Unlock()

	r.state.SetIf(next, statesEqual)
}

func statesEqual[T any](a, b State[T]) bool {
	return a.HasData == b.HasData &&
		a.Pending == b.Pending &&
		a.Fresh == b.Fresh &&
		reactive.Identical(a.Err, b.Err) &&
		(!a.HasData || reactive.Identical(a.Data, b.Data))
}

func storeKeyOf(k reactive.Key) any {
	switch k.Kind {
	case reactive.KeyToggle:
		return true
	case reactive.KeyPrimitive, reactive.KeyComposed:
		return k.Value
	default:
		return nil
	}
}
