package throttle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWait_SpacesCalls(t *testing.T) {
	th := New(50) // 20ms spacing
	ctx := context.Background()
	start := time.Now()
	for range 4 {
		if err := th.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	// first call is immediate, the next three wait one interval each
	if el := time.Since(start); el < 55*time.Millisecond {
		t.Fatalf("4 calls at 50/s took %v, want >= ~60ms", el)
	}
}

func TestWait_NoBurstAfterIdle(t *testing.T) {
	th := New(20) // 50ms spacing
	ctx := context.Background()
	_ = th.Wait(ctx)
	time.Sleep(120 * time.Millisecond)

	start := time.Now()
	_ = th.Wait(ctx)
	_ = th.Wait(ctx)
	if el := time.Since(start); el < 40*time.Millisecond {
		t.Fatalf("idle time must not accumulate a burst, two calls took %v", el)
	}
}

func TestWait_Unlimited(t *testing.T) {
	th := New(0)
	start := time.Now()
	for range 100 {
		if err := th.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("unlimited throttle should not block")
	}
	var nilT *Throttle
	if err := nilT.Wait(context.Background()); err != nil {
		t.Fatalf("nil throttle Wait: %v", err)
	}
}

func TestWait_ContextCanceled(t *testing.T) {
	th := New(0.5) // 2s spacing
	_ = th.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := th.Wait(ctx); err == nil {
		t.Fatalf("expected error when deadline is shorter than the interval")
	}

	ctx2, cancel2 := context.WithCancel(context.Background())
	cancel2()
	var nilT *Throttle
	if err := nilT.Wait(ctx2); !errors.Is(err, context.Canceled) {
		t.Fatalf("nil throttle should surface ctx error, got %v", err)
	}
}
