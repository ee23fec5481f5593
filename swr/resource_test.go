package swr

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	reactive "github.com/reactive-fn/reactive-go"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSwrFetchesOnCapture(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	source := reactive.NewValue(reactive.Primitive("user:1"))
	w := New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (string, error) {
		return "alice", nil
	})

	waitFor(t, "fresh data", func() bool {
		s := w.State()
		return s.Fresh && s.HasData
	})

	if got := w.State().Data; got != "alice" {
		t.Errorf("expected alice, got %q", got)
	}
}

func TestSwrUnresolvedKeyHasNoResource(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	var fetches atomic.Int32
	source := reactive.NewValue(reactive.NoKey())
	w := New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (int, error) {
		fetches.Add(1)
		return 1, nil
	})

	if _, ok := w.Resource(); ok {
		t.Error("expected no resource while key is unresolved")
	}
	time.Sleep(20 * time.Millisecond)
	if fetches.Load() != 0 {
		t.Errorf("expected no fetch while key is unresolved, got %d", fetches.Load())
	}
}

func TestSwrStaleDataOnError(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	boom := errors.New("fetch failed")
	var failing atomic.Bool
	source := reactive.NewValue(reactive.Primitive("k"))
	w := New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (string, error) {
		if failing.Load() {
			return "", boom
		}
		return "good", nil
	})

	waitFor(t, "initial data", func() bool { return w.State().Fresh })

	failing.Store(true)
	w.Refresh(false)

	waitFor(t, "error recorded", func() bool { return w.State().Err != nil })

	got := w.State()
	if !got.HasData || got.Data != "good" {
		t.Errorf("expected stale data kept alongside error, got %+v", got)
	}
	if !errors.Is(got.Err, boom) {
		t.Errorf("expected raw fetch error, got %v", got.Err)
	}
	if got.Fresh {
		t.Error("expected entry not fresh after failed refresh")
	}
}

func TestSwrForceRefreshAbortsInFlight(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	var hookFires atomic.Int32
	release := make(chan struct{})
	firstStarted := make(chan struct{})
	var calls atomic.Int32

	source := reactive.NewValue(reactive.Primitive("k"))
	w := New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (string, error) {
		if calls.Add(1) == 1 {
			h.OnAbort(func() { hookFires.Add(1) })
			close(firstStarted)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	})

	<-firstStarted
	w.Refresh(true)

	waitFor(t, "second fetch committed", func() bool {
		s := w.State()
		return s.Fresh && s.Data == "fresh"
	})

	if got := hookFires.Load(); got != 1 {
		t.Errorf("expected abort hook to fire exactly once, got %d", got)
	}

	// Releasing the aborted fetch must not clobber the committed value.
	close(release)
	time.Sleep(20 * time.Millisecond)
	if got := w.State().Data; got != "fresh" {
		t.Errorf("expected aborted fetch result discarded, got %q", got)
	}
}

func TestSwrResetRefetches(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	var calls atomic.Int32
	source := reactive.NewValue(reactive.Primitive("k"))
	w := New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (int, error) {
		return int(calls.Add(1)), nil
	})

	waitFor(t, "first fetch", func() bool { return w.State().Fresh })

	w.Reset()

	waitFor(t, "refetch after reset", func() bool {
		s := w.State()
		return s.Fresh && s.Data == 2
	})
}

func TestSwrStatePersistsAcrossKeyChanges(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	var fetchesA atomic.Int32
	source := reactive.NewValue(reactive.Primitive("a"))
	w := New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (string, error) {
		if key.Value == "a" {
			fetchesA.Add(1)
			return "A", nil
		}
		return "B", nil
	})

	waitFor(t, "a fetched", func() bool { return w.State().Fresh })

	source.Set(reactive.Primitive("b"))
	waitFor(t, "b fetched", func() bool {
		s := w.State()
		return s.Fresh && s.Data == "B"
	})

	// Returning to a fresh cached key restores state without refetching.
	source.Set(reactive.Primitive("a"))
	waitFor(t, "a restored", func() bool {
		s := w.State()
		return s.Fresh && s.Data == "A"
	})
	time.Sleep(20 * time.Millisecond)
	if got := fetchesA.Load(); got != 1 {
		t.Errorf("expected cached key not refetched, got %d fetches", got)
	}
}

func TestSwrPayloadChangeKeepsResource(t *testing.T) {
	owner := reactive.NewScope()
	defer owner.Dispose()

	var fetches atomic.Int32
	source := reactive.NewValue(reactive.Composed("k", 1))
	w := New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (int, error) {
		return int(fetches.Add(1)), nil
	})

	waitFor(t, "first fetch", func() bool { return w.State().Fresh })
	res1, _ := w.Resource()

	source.Set(reactive.Composed("k", 2))

	res2, ok := w.Resource()
	if !ok || res1 != res2 {
		t.Error("expected the same resource across a payload-only change")
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("expected no refetch on payload-only change, got %d", got)
	}
}

func TestSwrScopeDisposalAbortsFetch(t *testing.T) {
	owner := reactive.NewScope()

	started := make(chan struct{})
	aborted := make(chan struct{})
	source := reactive.NewValue(reactive.Primitive("k"))
	New(owner, source, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (int, error) {
		close(started)
		<-ctx.Done()
		close(aborted)
		return 0, ctx.Err()
	})

	<-started
	owner.Dispose()

	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("expected in-flight fetch cancelled by scope disposal")
	}
}

func TestSwrSharedStore(t *testing.T) {
	store := NewAmnesiaStore[string]()

	owner1 := reactive.NewScope()
	source1 := reactive.NewValue(reactive.Primitive("k"))
	w1 := New(owner1, source1, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (string, error) {
		return "from-first", nil
	}, WithStore[string](store))

	waitFor(t, "first composable fetch", func() bool { return w1.State().Fresh })
	owner1.Dispose()

	// A second composable over the same store sees the cached entry and,
	// since it is fresh, never fetches.
	var fetches atomic.Int32
	owner2 := reactive.NewScope()
	defer owner2.Dispose()
	source2 := reactive.NewValue(reactive.Primitive("k"))
	w2 := New(owner2, source2, func(ctx context.Context, key reactive.Key, h *reactive.AbortHandle) (string, error) {
		fetches.Add(1)
		return "from-second", nil
	}, WithStore[string](store))

	if got := w2.State().Data; got != "from-first" {
		t.Errorf("expected cached data restored, got %q", got)
	}
	time.Sleep(20 * time.Millisecond)
	if fetches.Load() != 0 {
		t.Errorf("expected no fetch for fresh cached entry, got %d", fetches.Load())
	}
}
