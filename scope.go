package reactive

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Scope is a lifetime-bound grouping of cleanup hooks and child scopes,
// torn down atomically and exactly once. Ownership is explicit: a child is
// created through Child on its parent, and disposing the parent cascades to
// every live child even when the child's Dispose was never called.
type Scope struct {
	mu       sync.Mutex
	name     string
	logger   hclog.Logger
	parent   *Scope
	children []*Scope
	cleanups []func() error
	disposed bool
}

// ScopeOption is a modifier for scopes.
type ScopeOption func(*Scope)

// WithName sets a human-readable name used in logs and tree rendering.
func WithName(name string) ScopeOption {
	return func(s *Scope) {
		s.name = name
	}
}

// WithLogger sets the diagnostic logger. Children inherit it.
func WithLogger(logger hclog.Logger) ScopeOption {
	return func(s *Scope) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScope creates a root scope with optional configuration.
func NewScope(opts ...ScopeOption) *Scope {
	s := &Scope{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Child creates a scope owned by s. Calling Child on a disposed scope is a
// programmer error and panics.
func (s *Scope) Child(opts ...ScopeOption) *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		panic("reactive: Child called on disposed scope")
	}
	c := &Scope{parent: s, logger: s.logger}
	for _, opt := range opts {
		opt(c)
	}
	s.children = append(s.children, c)
	return c
}

// Name returns the configured name (may be empty).
func (s *Scope) Name() string {
	return s.name
}

// Logger returns the scope's diagnostic logger.
func (s *Scope) Logger() hclog.Logger {
	return s.logger
}

// Disposed reports whether Dispose has run.
func (s *Scope) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// OnCleanup registers a hook to run when the scope is disposed. Hooks run
// in reverse registration order. Registering on an already-disposed scope
// runs the hook immediately.
func (s *Scope) OnCleanup(fn func() error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		if err := runCleanup(fn); err != nil {
			s.logger.Error("late cleanup hook failed", "scope", s.name, "error", err)
		}
		return
	}
	s.cleanups = append(s.cleanups, fn)
	s.mu.Unlock()
}

// Dispose tears the scope down: live children first, in reverse creation
// order, then the scope's own cleanup hooks in reverse registration order.
// Hook failures are logged and aggregated, never propagated as panics.
// Dispose is idempotent; a second call returns nil without running anything.
func (s *Scope) Dispose() error {
	return s.dispose("dispose")
}

func (s *Scope) dispose(context string) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	children := s.children
	cleanups := s.cleanups
	parent := s.parent
	s.children = nil
	s.cleanups = nil
	s.parent = nil
	s.mu.Unlock()

	if parent != nil {
		parent.removeChild(s)
	}

	var errs *multierror.Error
	for i := len(children) - 1; i >= 0; i-- {
		if err := children[i].dispose(context); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := runCleanup(cleanups[i]); err != nil {
			cerr := &CleanupError{Scope: s.name, Context: context, Err: err}
			s.logger.Error("cleanup hook failed", "scope", s.name, "context", context, "error", err)
			errs = multierror.Append(errs, cerr)
		}
	}
	return errs.ErrorOrNil()
}

func (s *Scope) removeChild(c *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, child := range s.children {
		if child == c {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

func runCleanup(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("cleanup panicked: %v", rec)
		}
	}()
	return fn()
}
