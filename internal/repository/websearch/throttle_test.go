package websearch

import (
	"context"
	"testing"
	"time"
)

func TestThrottled_SpacesCalls(t *testing.T) {
	inner := &fakeEngine{}
	th := NewThrottled(inner, 50*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := th.Search(context.Background(), "заявка", "", 5); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// First call is free, the next two wait an interval each.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("three calls took %v, want at least 100ms", elapsed)
	}
	if len(inner.calls) != 3 {
		t.Errorf("inner called %d times, want 3", len(inner.calls))
	}
}

func TestThrottled_ZeroIntervalDisablesThrottling(t *testing.T) {
	inner := &fakeEngine{}
	th := NewThrottled(inner, 0)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := th.Search(context.Background(), "заявка", "", 5); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("three unthrottled calls took %v", elapsed)
	}
}

func TestThrottled_CancelledContext(t *testing.T) {
	inner := &fakeEngine{}
	th := NewThrottled(inner, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := th.Search(ctx, "заявка", "", 5); err == nil {
		t.Fatal("expected error from cancelled wait")
	}
	if len(inner.calls) != 0 {
		t.Errorf("inner called %d times after cancellation", len(inner.calls))
	}
}
