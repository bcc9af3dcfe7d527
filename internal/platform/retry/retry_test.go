package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "gscsync/internal/platform/errors"
)

type sleeps struct{ got []time.Duration }

func (s *sleeps) sleep(_ context.Context, d time.Duration) error {
	s.got = append(s.got, d)
	return nil
}

func TestPolicyBackoff(t *testing.T) {
	p := Policy{Attempts: 5, Base: time.Second, Max: 30 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second, 30 * time.Second}
	for i, w := range want {
		if got := p.Backoff(i + 1); got != w {
			t.Fatalf("Backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
	if p.Backoff(0) != time.Second {
		t.Fatalf("attempt below 1 should clamp")
	}
	if (Policy{Base: time.Second}).Backoff(3) != 4*time.Second {
		t.Fatalf("zero Max means uncapped")
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	var sl sleeps
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 5, Base: time.Second, Max: 60 * time.Second}, func(context.Context) error {
		calls++
		if calls < 3 {
			return perr.FromHTTPStatus("gsc", 503, "", 0)
		}
		return nil
	}, WithSleep(sl.sleep))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if len(sl.got) != 2 || sl.got[0] != time.Second || sl.got[1] != 2*time.Second {
		t.Fatalf("sleeps = %v", sl.got)
	}
}

func TestDo_ExhaustsBudget(t *testing.T) {
	var sl sleeps
	calls := 0
	var retried []int
	cause := perr.FromHTTPStatus("notion", 429, "", 0)
	err := Do(context.Background(), Policy{Attempts: 5, Base: time.Second, Max: 30 * time.Second}, func(context.Context) error {
		calls++
		return cause
	}, WithSleep(sl.sleep), OnRetry(func(a int, _ time.Duration, _ error) { retried = append(retried, a) }))

	if calls != 5 {
		t.Fatalf("calls = %d, want 5", calls)
	}
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("want ErrExhausted, got %v", err)
	}
	if !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("last cause should stay reachable, got %v", err)
	}
	if len(sl.got) != 4 || len(retried) != 4 || retried[3] != 4 {
		t.Fatalf("sleeps=%v retried=%v", sl.got, retried)
	}
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	var sl sleeps
	calls := 0
	cause := perr.FromHTTPStatus("notion", 400, "validation_error", 0)
	err := Do(context.Background(), Policy{Attempts: 5, Base: time.Second}, func(context.Context) error {
		calls++
		return cause
	}, WithSleep(sl.sleep))
	if calls != 1 || len(sl.got) != 0 {
		t.Fatalf("calls=%d sleeps=%v", calls, sl.got)
	}
	if errors.Is(err, ErrExhausted) || !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("unexpected err %v", err)
	}
}

func TestDo_PermanentStopsRetries(t *testing.T) {
	calls := 0
	base := errors.New("open circuit")
	err := Do(context.Background(), Policy{Attempts: 5, Base: time.Second}, func(context.Context) error {
		calls++
		return Permanent(base)
	}, WithRetryable(func(error) bool { return true }), WithSleep((&sleeps{}).sleep))
	if calls != 1 || err != base {
		t.Fatalf("calls=%d err=%v", calls, err)
	}
	if Permanent(nil) != nil {
		t.Fatalf("Permanent(nil) should be nil")
	}
}

func TestDo_HonorsRetryAfterUpToCap(t *testing.T) {
	var sl sleeps
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 3, Base: time.Second, Max: 10 * time.Second}, func(context.Context) error {
		calls++
		switch calls {
		case 1:
			return perr.FromHTTPStatus("notion", 429, "", 4*time.Second)
		case 2:
			return perr.FromHTTPStatus("notion", 429, "", time.Minute)
		}
		return nil
	}, WithSleep(sl.sleep))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(sl.got) != 2 || sl.got[0] != 4*time.Second || sl.got[1] != 10*time.Second {
		t.Fatalf("sleeps = %v", sl.got)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{Attempts: 5, Base: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return perr.Unavailablef("down")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoValue(t *testing.T) {
	calls := 0
	v, err := DoValue(context.Background(), Policy{Attempts: 2, Base: time.Millisecond}, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", perr.Unavailablef("blip")
		}
		return "page-id", nil
	}, WithSleep((&sleeps{}).sleep))
	if err != nil || v != "page-id" {
		t.Fatalf("DoValue = %q, %v", v, err)
	}
}

func TestSleepCtx(t *testing.T) {
	if err := SleepCtx(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("SleepCtx: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
	if err := SleepCtx(context.Background(), 0); err != nil {
		t.Fatalf("zero sleep: %v", err)
	}
}
