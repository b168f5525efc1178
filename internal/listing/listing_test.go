package listing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWindowAdvance(t *testing.T) {
	w := NewWindow(0, -5, 50)
	if w.Limit != 50 || w.Offset != 0 {
		t.Fatalf("unexpected defaults: %+v", w)
	}

	w.Advance(50)
	if !w.HasMore || w.NextOffset() != 50 {
		t.Fatalf("full batch should leave more at offset 50, got %+v", w)
	}
	w.Advance(12)
	if w.HasMore || w.NextOffset() != 62 {
		t.Fatalf("short batch should end the list at offset 62, got %+v", w)
	}
	w.Advance(0)
	if w.HasMore {
		t.Fatalf("empty batch must not report more")
	}
}

func TestDetailCacheFetchesOnce(t *testing.T) {
	var calls atomic.Int32
	c := NewDetailCache(time.Minute, func(ctx context.Context, id int64) (string, error) {
		calls.Add(1)
		return "bill", nil
	})

	for range 3 {
		v, err := c.Get(context.Background(), 7)
		if err != nil || v != "bill" {
			t.Fatalf("Get() = %q, %v", v, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one fetch for repeated toggles, got %d", calls.Load())
	}
	if !c.Cached(7) || c.Cached(8) {
		t.Fatalf("Cached() reports the wrong keys")
	}
}

func TestDetailCacheConcurrentFirstOpen(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := NewDetailCache(time.Minute, func(ctx context.Context, id int64) (int, error) {
		calls.Add(1)
		<-release
		return int(id) * 2, nil
	})

	var wg sync.WaitGroup
	results := make([]int, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(context.Background(), 21)
			if err != nil {
				t.Errorf("Get() error: %v", err)
			}
			results[i] = v
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("concurrent opens should share one fetch, got %d", calls.Load())
	}
	for _, v := range results {
		if v != 42 {
			t.Fatalf("unexpected value %d", v)
		}
	}
}

func TestDetailCacheDoesNotCacheErrors(t *testing.T) {
	var calls atomic.Int32
	c := NewDetailCache(time.Minute, func(ctx context.Context, id string) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("timeout")
		}
		return "ok", nil
	})

	if _, err := c.Get(context.Background(), "s1"); err == nil {
		t.Fatalf("first Get() expected error")
	}
	v, err := c.Get(context.Background(), "s1")
	if err != nil || v != "ok" {
		t.Fatalf("retry Get() = %q, %v", v, err)
	}
}

func TestDetailCacheExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var calls atomic.Int32
	c := NewDetailCache(time.Minute, func(ctx context.Context, id int64) (int32, error) {
		return calls.Add(1), nil
	})
	c.now = func() time.Time { return now }

	first, _ := c.Get(context.Background(), 1)
	now = now.Add(2 * time.Minute)
	second, _ := c.Get(context.Background(), 1)
	if first == second {
		t.Fatalf("expired entry should be refetched")
	}
	c.Forget(1)
	if c.Cached(1) {
		t.Fatalf("Forget() should drop the entry")
	}
}

func TestDetailCacheSweepsExpiredOnInsert(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewDetailCache(time.Minute, func(ctx context.Context, id int64) (int64, error) {
		return id, nil
	})
	c.now = func() time.Time { return now }

	for id := range int64(5) {
		if _, err := c.Get(context.Background(), id); err != nil {
			t.Fatalf("Get(%d) error: %v", id, err)
		}
	}
	if c.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", c.Len())
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.Get(context.Background(), 99); err != nil {
		t.Fatalf("Get(99) error: %v", err)
	}
	if c.Len() != 1 || !c.Cached(99) {
		t.Fatalf("expired keys should be swept on insert, Len() = %d", c.Len())
	}
}

func TestDetailCacheCallerCancelDoesNotFailOthers(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	c := NewDetailCache(time.Minute, func(ctx context.Context, id int64) (string, error) {
		close(entered)
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "bill", nil
	})

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Get(first, 3)
		firstErr <- err
	}()
	<-entered

	second := make(chan error, 1)
	go func() {
		v, err := c.Get(context.Background(), 3)
		if err == nil && v != "bill" {
			err = errors.New("unexpected value " + v)
		}
		second <- err
	}()

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled caller error = %v, want context.Canceled", err)
	}
	close(release)
	if err := <-second; err != nil {
		t.Fatalf("waiting caller error: %v", err)
	}
	if !c.Cached(3) {
		t.Fatalf("detail fetched for a canceled caller should still be cached")
	}
}
