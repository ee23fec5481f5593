package swr

import (
	reactive "github.com/reactive-fn/reactive-go"
)

// ErrorRetryPlugin re-fetches a failing resource on a fixed interval,
// bounded by Config.Count attempts since the last success.
type ErrorRetryPlugin[T any] struct {
	BasePlugin
	Config reactive.RetryConfig
}

// NewErrorRetryPlugin creates the plugin. Zero config fields take the
// reactive.RetryConfig defaults (5 attempts, 5s apart).
func NewErrorRetryPlugin[T any](cfg reactive.RetryConfig) *ErrorRetryPlugin[T] {
	return &ErrorRetryPlugin[T]{
		BasePlugin: NewBasePlugin("error-retry"),
		Config:     cfg,
	}
}

func (p *ErrorRetryPlugin[T]) Init(ctx *PluginContext[T]) error {
	res := ctx.Resource

	// Project resource state into the shape the retry policy observes.
	projected := reactive.NewValue(staleOf(res.State()))
	cancel := res.Observe().Subscribe(func(s State[T]) {
		projected.Set(staleOf(s))
	})
	ctx.Scope.OnCleanup(func() error {
		cancel()
		return nil
	})

	reactive.NewErrorRetry(ctx.Scope, projected, func() {
		res.Refresh(false)
	}, p.Config)
	return nil
}

func staleOf[T any](s State[T]) reactive.StaleResult[T] {
	return reactive.StaleResult[T]{
		Result:    s.Data,
		HasResult: s.HasData,
		Err:       s.Err,
		Pending:   s.Pending,
		Fresh:     s.Fresh,
	}
}
