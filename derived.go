package reactive

// StaleResult projects task state with stale-on-error retention: a failing
// re-run records the error but keeps the last good result visible. Fresh
// reports whether Result reflects the most recent successful run.
type StaleResult[T any] struct {
	Result    T
	HasResult bool
	Err       error
	Pending   bool
	Fresh     bool
}

// StaleIfError maintains a StaleResult view of a task. The subscription is
// synchronous, so consumers layered on top (retry policies, UI bindings)
// observe a consistent view without an extra scheduling hop.
type StaleIfError[T any] struct {
	out    *Value[StaleResult[T]]
	cancel func()
}

// NewStaleIfError projects task's state into a StaleResult cell. A non-nil
// owner detaches the projection when the scope is disposed.
func NewStaleIfError[T any](owner *Scope, task *Task[T]) *StaleIfError[T] {
	s := &StaleIfError[T]{out: NewValue(StaleResult[T]{})}
	s.apply(task.State().Get())
	s.cancel = task.State().Subscribe(s.apply)
	if owner != nil {
		owner.OnCleanup(func() error {
			s.Stop()
			return nil
		})
	}
	return s
}

func (s *StaleIfError[T]) apply(r Result[T]) {
	cur := s.out.Get()
	switch r.Kind {
	case KindPending:
		cur.Pending = true
		cur.Fresh = false
	case KindOK:
		cur.Result = r.Data
		cur.HasResult = true
		cur.Err = nil
		cur.Pending = false
		cur.Fresh = true
	case KindErr:
		// result stays: stale-on-error
		cur.Err = r.Err
		cur.Pending = false
		cur.Fresh = false
	case KindAborted:
		cur.Pending = false
	case KindUninit:
		return
	}
	s.out.Set(cur)
}

// State returns the observable StaleResult cell.
func (s *StaleIfError[T]) State() *Value[StaleResult[T]] {
	return s.out
}

// Stop detaches the projection from the task.
func (s *StaleIfError[T]) Stop() {
	s.cancel()
}

// NewLastSettled returns an observable of the task's most recent terminal
// ok/err result. Pending and aborted transitions pass through without
// touching it, and a settlement identical to the last one does not notify.
func NewLastSettled[T any](owner *Scope, task *Task[T]) *Value[Result[T]] {
	out := NewValue(Uninit[T]())
	cancel := task.State().Subscribe(func(r Result[T]) {
		if r.Kind != KindOK && r.Kind != KindErr {
			return
		}
		out.SetIf(r, func(prev, next Result[T]) bool {
			return prev.Equal(next)
		})
	})
	if owner != nil {
		owner.OnCleanup(func() error {
			cancel()
			return nil
		})
	}
	return out
}
