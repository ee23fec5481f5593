// Package reactive provides composition utilities for asynchronous
// operation lifecycles: redoable, abortable tasks with observable state,
// and scopes that bind those lifecycles to reactively-computed keys with
// deterministic teardown.
//
// # Overview
//
// The package is organized around three core concepts:
//
//  1. Tasks: redoable, abortable wrappers around a single async operation
//  2. Scopes: explicit ownership trees with cascading, exactly-once disposal
//  3. Observable values: cells publishing state changes to subscribers
//
// # Tasks
//
// A Task wraps a caller-supplied function and owns at most one in-flight
// run; starting a new run or calling Abort cancels the previous one:
//
//	scope := reactive.NewScope()
//
//	fetch := reactive.NewTask(scope, func(ctx context.Context, h *reactive.AbortHandle) (string, error) {
//	    req, _ := http.NewRequestWithContext(ctx, "GET", url, nil)
//	    h.OnAbort(func() { /* release external resources */ })
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return "", err
//	    }
//	    defer resp.Body.Close()
//	    body, err := io.ReadAll(resp.Body)
//	    return string(body), err
//	})
//
//	res := <-fetch.Run(context.Background())  // Result[string]
//
// State transitions are observable and ordered: Run moves state to Pending
// synchronously before dispatch, and only the most recent run's settlement
// is ever applied. Cancellation is cooperative: an aborted run keeps
// executing in the background, but its result is discarded and its abort
// hooks fire so the caller can interrupt the underlying work.
//
// Disposing the owning scope aborts the task, so no task outlives its
// scope in the running state.
//
// # Scopes
//
// Scopes form an explicit ownership tree. Cleanup hooks run in reverse
// registration order; disposing a parent cascades to every live child:
//
//	parent := reactive.NewScope(reactive.WithName("session"))
//	child := parent.Child()
//	child.OnCleanup(func() error { return conn.Close() })
//	parent.Dispose()  // disposes child first, running its hooks
//
// DeferredScope re-runs a setup function, disposing the previous instance
// synchronously before the next one. ParamScope keys that behavior on a
// reactive Key source: the scope is rebuilt exactly when the key value
// changes, and a Composed key's payload change alone leaves it untouched.
//
// # Observable values
//
// Value[T] publishes writes to subscribers in two delivery modes:
// synchronous (every transition, in order, before the write returns) and
// batched (coalesced, on a separate goroutine). The synchronous mode is
// what keeps derived projections such as StaleIfError and retry policies
// free of scheduling races.
//
// # Derived state
//
// StaleIfError keeps the last good result visible while errors come and go
// (stale-on-error), and ErrorRetry layers a bounded fixed-interval retry
// policy on top of any StaleResult cell.
//
// For the keyed stale-while-revalidate cache built on these primitives,
// see the swr subpackage.
//
// # Thread safety
//
// All operations are safe for concurrent use. Two independent owners
// driving the same task or scope will still interleave their intents;
// coordination between them is the caller's concern.
package reactive
