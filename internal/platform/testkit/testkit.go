// Package testkit holds helpers shared by the sync tests
package testkit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// MustPanic fails the test unless fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	fn()
}

// MustContain fails unless out contains want; long outputs go to a temp file
func MustContain(t *testing.T, out, want string) {
	t.Helper()
	if strings.Contains(out, want) {
		return
	}
	if len(out) < 2048 {
		t.Fatalf("output does not contain %q:\n%s", want, out)
	}
	p := filepath.Join(t.TempDir(), "output.txt")
	_ = os.WriteFile(p, []byte(out), 0o600)
	t.Fatalf("output does not contain %q, full output in %s", want, p)
}

// Date parses YYYY-MM-DD as a UTC day
func Date(t testing.TB, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

// NoSleep is a retry sleeper that returns at once
func NoSleep(context.Context, time.Duration) error { return nil }

// Sleeps records the waits a retry loop asked for without sleeping
type Sleeps struct {
	mu    sync.Mutex
	waits []time.Duration
}

// Sleep has the retry sleeper signature; it still honors a canceled ctx
func (s *Sleeps) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Waits returns a copy of the recorded waits
func (s *Sleeps) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}
