package swr

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	reactive "github.com/reactive-fn/reactive-go"
)

type recordingPlugin struct {
	BasePlugin
	inits atomic.Int32
	fail  bool
	panic bool
}

func (p *recordingPlugin) Init(ctx *PluginContext[string]) error {
	if p.panic {
		panic("plugin exploded")
	}
	p.inits.Add(1)
	if p.fail {
		return errors.New("init failed")
	}
	return nil
}

func TestPluginInitPerResource(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	plugin := &recordingPlugin{BasePlugin: NewBasePlugin("recording")}
	source := reactive.NewValue(reactive.Primitive("a"))
	New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (string, error) {
		return "v", nil
	}, WithPlugins[string](plugin))

	if got := plugin.inits.Load(); got != 1 {
		t.Fatalf("expected plugin initialized once, got %d", got)
	}

	// a new key means a new resource, and the plugin runs again for it
	source.Set(reactive.Primitive("b"))
	if got := plugin.inits.Load(); got != 2 {
		t.Errorf("expected plugin re-initialized for the new resource, got %d", got)
	}
}

func TestPluginPanicDoesNotBlockOthers(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	bad := &recordingPlugin{BasePlugin: NewBasePlugin("bad"), panic: true}
	good := &recordingPlugin{BasePlugin: NewBasePlugin("good")}
	source := reactive.NewValue(reactive.Primitive("k"))
	w := New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (string, error) {
		return "v", nil
	}, WithPlugins[string](bad, good))

	if got := good.inits.Load(); got != 1 {
		t.Errorf("expected later plugin initialized despite earlier panic, got %d", got)
	}
	if _, ok := w.Resource(); !ok {
		t.Error("expected resource usable despite plugin panic")
	}
}

func TestPluginInitErrorIsNonFatal(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	failing := &recordingPlugin{BasePlugin: NewBasePlugin("failing"), fail: true}
	source := reactive.NewValue(reactive.Primitive("k"))
	w := New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (string, error) {
		return "v", nil
	}, WithPlugins[string](failing))

	waitFor(t, "fetch despite plugin failure", func() bool { return w.State().Fresh })
}

func TestErrorRetryPluginRecovers(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	var calls atomic.Int32
	source := reactive.NewValue(reactive.Primitive("k"))
	w := New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (int, error) {
		if calls.Add(1) < 3 {
			return 0, errors.New("transient")
		}
		return 7, nil
	}, WithPlugins[int](NewErrorRetryPlugin[int](reactive.RetryConfig{
		Count:    5,
		Interval: 10 * time.Millisecond,
	})))

	waitFor(t, "retry to converge", func() bool {
		s := w.State()
		return s.Fresh && s.Data == 7
	})

	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 fetch attempts, got %d", got)
	}
}

func TestErrorRetryPluginBounded(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	var calls atomic.Int32
	source := reactive.NewValue(reactive.Primitive("k"))
	New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (int, error) {
		calls.Add(1)
		return 0, errors.New("permanent")
	}, WithPlugins[int](NewErrorRetryPlugin[int](reactive.RetryConfig{
		Count:    2,
		Interval: 10 * time.Millisecond,
	})))

	time.Sleep(150 * time.Millisecond)

	// initial fetch plus two retries
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 fetch attempts for a permanent failure, got %d", got)
	}
}

func TestRefreshOnCapturePlugin(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	var calls atomic.Int32
	source := reactive.NewValue(reactive.Primitive("a"))
	w := New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (int, error) {
		return int(calls.Add(1)), nil
	}, WithPlugins[int](NewRefreshOnCapturePlugin[int]()))

	waitFor(t, "first fetch", func() bool { return w.State().Fresh })

	// switch away and back: the plugin marks the cached entry stale and
	// refetches even though the store still holds a value
	source.Set(reactive.Primitive("b"))
	waitFor(t, "b fetched", func() bool { return w.State().Fresh })

	source.Set(reactive.Primitive("a"))
	waitFor(t, "a revalidated", func() bool {
		s := w.State()
		return s.Fresh && s.Data == 3
	})
}
