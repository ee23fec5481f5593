// Package swr is an experimental stale-while-revalidate data-fetching layer
// built on the reactive task/scope primitives. Many keyed fetches multiplex
// through a shared store; each resolved key gets a Resource whose lifetime
// tracks the key, while its cached state outlives it in the store.
//
// Two independent callers holding the same key on the same store race and
// clobber each other's view of freshness; the layer deliberately does not
// arbitrate concurrent ownership of one key.
package swr

import (
	"github.com/hashicorp/go-hclog"

	reactive "github.com/reactive-fn/reactive-go"
)

// Option configures a Swr composable.
type Option[T any] func(*config[T])

type config[T any] struct {
	store   Store[T]
	plugins []Plugin[T]
	logger  hclog.Logger
}

// WithStore shares a store between composables, letting state survive key
// changes across all of them.
func WithStore[T any](store Store[T]) Option[T] {
	return func(c *config[T]) {
		if store != nil {
			c.store = store
		}
	}
}

// WithPlugins attaches plugins, initialized once per resource lifetime in
// the given order.
func WithPlugins[T any](plugins ...Plugin[T]) Option[T] {
	return func(c *config[T]) {
		c.plugins = append(c.plugins, plugins...)
	}
}

// WithSwrLogger sets the diagnostic logger; the owner scope's logger is the
// default.
func WithSwrLogger[T any](logger hclog.Logger) Option[T] {
	return func(c *config[T]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Swr multiplexes keyed resources over a shared store. The key source
// drives resource lifetimes: NoKey tears the current resource down, a new
// key value replaces it, and a payload-only change leaves it running.
type Swr[T any] struct {
	store Store[T]
	keyed *reactive.ParamScope[*Resource[T]]
}

// New builds the composable under owner. The current key is evaluated
// immediately; a resolved key creates its Resource (restoring any cached
// state) and fetches if the entry is not fresh.
func New[T any](owner *reactive.Scope, source *reactive.Value[reactive.Key], fetch Fetcher[T], opts ...Option[T]) *Swr[T] {
	cfg := config[T]{
		store:  NewAmnesiaStore[T](),
		logger: owner.Logger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Swr[T]{store: cfg.store}
	w.keyed = reactive.NewParamScope(owner, source, func(s *reactive.Scope, key reactive.Key) (*Resource[T], error) {
		res := newResource(s, key, cfg.store, fetch, cfg.logger)
		installPlugins(s, res, cfg.store, cfg.plugins, cfg.logger)
		return res, nil
	})
	return w
}

// Resource returns the live resource for the currently resolved key.
func (w *Swr[T]) Resource() (*Resource[T], bool) {
	ex, ok := w.keyed.Expose()
	if !ok {
		return nil, false
	}
	return ex.Value, true
}

// State snapshots the current resource's state. With no resolved key it
// returns the zero state.
func (w *Swr[T]) State() State[T] {
	res, ok := w.Resource()
	if !ok {
		var zero State[T]
		return zero
	}
	return res.State()
}

// Refresh refreshes the current resource, if any.
func (w *Swr[T]) Refresh(force bool) {
	if res, ok := w.Resource(); ok {
		res.Refresh(force)
	}
}

// Reset resets the current resource, if any.
func (w *Swr[T]) Reset() {
	if res, ok := w.Resource(); ok {
		res.Reset()
	}
}

// Store returns the backing store.
func (w *Swr[T]) Store() Store[T] {
	return w.store
}
