package swr

// RefreshOnCapturePlugin marks the entry stale every time a resource
// lifetime begins, so a re-selected key revalidates its cached state
// instead of serving it unchecked forever.
type RefreshOnCapturePlugin[T any] struct {
	BasePlugin
}

// NewRefreshOnCapturePlugin creates the plugin.
func NewRefreshOnCapturePlugin[T any]() *RefreshOnCapturePlugin[T] {
	return &RefreshOnCapturePlugin[T]{BasePlugin: NewBasePlugin("refresh-on-capture")}
}

func (p *RefreshOnCapturePlugin[T]) Init(ctx *PluginContext[T]) error {
	ctx.Resource.Refresh(false)
	return nil
}
