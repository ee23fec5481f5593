package reactive

import "sync"

// DeferredScope binds a setup function's lifetime to an owner scope. Each
// Setup call disposes the previous child scope synchronously before creating
// the next one, so two instances never coexist. The child is always created
// under the owner captured at construction, so disposing the owner cascades
// to the child even when Dispose was never called explicitly.
type DeferredScope[T any] struct {
	owner *Scope

	mu     sync.Mutex
	child  *Scope
	expose T
	has    bool
}

// NewDeferred creates a deferred scope owned by owner.
func NewDeferred[T any](owner *Scope) *DeferredScope[T] {
	if owner == nil {
		panic("reactive: DeferredScope requires an owner scope")
	}
	return &DeferredScope[T]{owner: owner}
}

// Setup disposes any existing child scope, creates a fresh child of the
// captured owner, runs fn inside it and records the exposed value. If fn
// fails, the fresh child is disposed immediately and nothing is exposed.
func (d *DeferredScope[T]) Setup(fn func(s *Scope) (T, error)) (T, error) {
	d.disposeChild("supersede")

	child := d.owner.Child()
	child.OnCleanup(func() error {
		d.clearIf(child)
		return nil
	})

	v, err := fn(child)
	if err != nil {
		var zero T
		if derr := child.dispose("supersede"); derr != nil {
			d.owner.Logger().Error("disposing failed setup", "error", derr)
		}
		return zero, err
	}

	d.mu.Lock()
	d.child = child
	d.expose = v
	d.has = true
	d.mu.Unlock()
	return v, nil
}

// Expose returns the value recorded by the last successful Setup, if the
// child scope is still alive.
func (d *DeferredScope[T]) Expose() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.expose, d.has
}

// Dispose tears down the child scope, running its cleanup hooks, and clears
// the exposed value. Without a live child it is a no-op.
func (d *DeferredScope[T]) Dispose() error {
	return d.disposeChild("dispose")
}

func (d *DeferredScope[T]) disposeChild(context string) error {
	d.mu.Lock()
	child := d.child
	d.mu.Unlock()
	if child == nil {
		return nil
	}
	return child.dispose(context)
}

// clearIf drops the expose when the given child is torn down, whether by
// Setup, Dispose or a cascading owner disposal.
func (d *DeferredScope[T]) clearIf(child *Scope) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.child == child {
		d.child = nil
		d.has = false
		var zero T
		d.expose = zero
	}
}
