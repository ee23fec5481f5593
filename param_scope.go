package reactive

import (
	"sync"

	"github.com/hashicorp/go-hclog"
)

// KeyedExpose is the value exposed by a keyed scope, paired with the key
// that selected it.
type KeyedExpose[T any] struct {
	Key   Key
	Value T
}

// ParamScope re-runs a setup function whenever a reactive key source
// resolves to a different key. Resolution rules:
//
//   - NoKey disposes any existing scope.
//   - Toggle keeps one scope alive unconditionally.
//   - Primitive and Composed re-setup only when the key value changes; a
//     Composed payload change alone leaves the existing scope untouched.
//
// The previous instance is disposed synchronously before the next setup.
type ParamScope[T any] struct {
	def    *DeferredScope[T]
	setup  func(*Scope, Key) (T, error)
	logger hclog.Logger
	cancel func()

	mu     sync.Mutex
	cur    Key
	active bool
}

// NewParamScope binds setup to the keys produced by source. The current key
// is evaluated immediately, then re-evaluated synchronously on every source
// change. Owner disposal tears down the active instance and detaches from
// the source.
func NewParamScope[T any](owner *Scope, source *Value[Key], setup func(s *Scope, key Key) (T, error)) *ParamScope[T] {
	p := &ParamScope[T]{
		def:    NewDeferred[T](owner),
		setup:  setup,
		logger: owner.Logger(),
	}
	p.apply(source.Get())
	p.cancel = source.Subscribe(p.apply)
	owner.OnCleanup(func() error {
		p.cancel()
		return nil
	})
	return p
}

func (p *ParamScope[T]) apply(k Key) {
	p.mu.Lock()
	if p.active && k.Kind != KeyNone && p.cur.Matches(k) {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if k.Kind == KeyNone {
		p.deactivate()
		if err := p.def.Dispose(); err != nil {
			p.logger.Error("keyed scope dispose failed", "error", err)
		}
		return
	}

	p.mu.Lock()
	p.cur = k
	p.active = true
	p.mu.Unlock()

	_, err := p.def.Setup(func(s *Scope) (T, error) {
		return p.setup(s, k)
	})
	if err != nil {
		p.deactivate()
		p.logger.Error("keyed scope setup failed", "key", k.Value, "error", &SetupError{Key: k.Value, Cause: err})
	}
}

// Expose returns the current instance's exposed value and its key.
func (p *ParamScope[T]) Expose() (KeyedExpose[T], bool) {
	v, ok := p.def.Expose()
	if !ok {
		return KeyedExpose[T]{}, false
	}
	p.mu.Lock()
	k := p.cur
	p.mu.Unlock()
	return KeyedExpose[T]{Key: k, Value: v}, true
}

// Dispose tears down the active instance, if any.
func (p *ParamScope[T]) Dispose() error {
	p.deactivate()
	return p.def.Dispose()
}

func (p *ParamScope[T]) deactivate() {
	p.mu.Lock()
	p.active = false
	p.cur = Key{}
	p.mu.Unlock()
}
