package reactive

import "sync"

// Value is an observable cell: a current value plus a registry of
// subscribers notified on every write. Two delivery modes exist:
//
//   - Subscribe delivers synchronously, in registration order, before Set
//     returns. State propagation that must be observed without an extra
//     scheduling hop (derived task state, retry policies) uses this mode.
//   - SubscribeBatched delivers asynchronously on a dedicated goroutine and
//     coalesces bursts, so the subscriber observes the latest value but not
//     necessarily every intermediate one.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	nextID  uint64
	subs    []*subscription[T]
}

type subscription[T any] struct {
	id      uint64
	deliver func(T)
	batch   *batcher[T]
}

// NewValue creates an observable cell holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{current: initial}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set writes next and notifies all subscribers.
func (v *Value[T]) Set(next T) {
	v.SetIf(next, nil)
}

// SetIf writes next unless eq reports it equivalent to the current value,
// and returns whether a write (and notification) happened. A nil eq always
// writes.
func (v *Value[T]) SetIf(next T, eq func(prev, next T) bool) bool {
	v.mu.Lock()
	if eq != nil && eq(v.current, next) {
		v.mu.Unlock()
		return false
	}
	v.current = next
	subs := make([]*subscription[T], len(v.subs))
	copy(subs, v.subs)
	v.mu.Unlock()

	for _, sub := range subs {
		if sub.batch != nil {
			sub.batch.publish(next)
		} else {
			sub.deliver(next)
		}
	}
	return true
}

// Subscribe registers fn for synchronous delivery and returns a cancel
// function. fn runs on the goroutine calling Set, after the write is
// visible via Get.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	return v.add(&subscription[T]{deliver: fn})
}

// SubscribeBatched registers fn for coalesced asynchronous delivery and
// returns a cancel function. Cancelling stops the delivery goroutine.
func (v *Value[T]) SubscribeBatched(fn func(T)) func() {
	b := newBatcher(fn)
	cancel := v.add(&subscription[T]{batch: b})
	return func() {
		cancel()
		b.stop()
	}
}

func (v *Value[T]) add(sub *subscription[T]) func() {
	v.mu.Lock()
	v.nextID++
	sub.id = v.nextID
	v.subs = append(v.subs, sub)
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			for i, s := range v.subs {
				if s.id == sub.id {
					v.subs = append(v.subs[:i], v.subs[i+1:]...)
					break
				}
			}
			v.mu.Unlock()
		})
	}
}

// batcher coalesces writes: publish records the latest value and wakes the
// delivery goroutine, which may skip intermediate values under load.
type batcher[T any] struct {
	mu     sync.Mutex
	latest T
	wake   chan struct{}
	done   chan struct{}
}

func newBatcher[T any](fn func(T)) *batcher[T] {
	b := &batcher[T]{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-b.wake:
				b.mu.Lock()
				v := b.latest
				b.mu.Unlock()
				fn(v)
			case <-b.done:
				return
			}
		}
	}()
	return b
}

func (b *batcher[T]) publish(v T) {
	b.mu.Lock()
	b.latest = v
	b.mu.Unlock()
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *batcher[T]) stop() {
	close(b.done)
}
