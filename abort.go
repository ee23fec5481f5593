package reactive

import (
	"sync"

	"github.com/hashicorp/go-hclog"
)

// AbortHandle collects abort hooks for a single task run. The run that
// created the handle owns it exclusively; once aborted the owner discards it.
type AbortHandle struct {
	mu     sync.Mutex
	hooks  []func()
	fired  bool
	logger hclog.Logger
}

// NewAbortHandle creates a handle logging hook failures to logger.
// A nil logger discards diagnostics.
func NewAbortHandle(logger hclog.Logger) *AbortHandle {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &AbortHandle{logger: logger}
}

// OnAbort registers a hook to run on abort. Duplicates are allowed and
// registration order is preserved. Registering on an already-aborted handle
// invokes the hook immediately.
func (h *AbortHandle) OnAbort(fn func()) {
	h.mu.Lock()
	if h.fired {
		h.mu.Unlock()
		h.call(fn)
		return
	}
	h.hooks = append(h.hooks, fn)
	h.mu.Unlock()
}

// Abort invokes every registered hook exactly once, in registration order.
// A panicking hook is recovered and logged so it cannot block the rest.
func (h *AbortHandle) Abort() {
	h.mu.Lock()
	if h.fired {
		h.mu.Unlock()
		return
	}
	h.fired = true
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()

	for _, fn := range hooks {
		h.call(fn)
	}
}

// Aborted reports whether Abort has fired.
func (h *AbortHandle) Aborted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fired
}

func (h *AbortHandle) call(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("abort hook panicked", "panic", rec)
		}
	}()
	fn()
}
