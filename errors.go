package reactive

import "fmt"

// CleanupError wraps a cleanup hook failure with the scope it belongs to.
// Context is "dispose" for explicit or cascading disposal and "supersede"
// when a keyed scope is torn down to make room for its successor.
type CleanupError struct {
	Scope   string
	Context string
	Err     error
}

func (e *CleanupError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("cleanup in scope %q during %s: %v", e.Scope, e.Context, e.Err)
	}
	return fmt.Sprintf("cleanup in scope %q: %v", e.Scope, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}

// SetupError wraps a keyed-scope setup failure with the key that selected it.
type SetupError struct {
	Key   any
	Cause error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup for key %v: %v", e.Key, e.Cause)
}

func (e *SetupError) Unwrap() error {
	return e.Cause
}
