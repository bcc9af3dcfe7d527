package testkit

import (
	"sync"
	"testing"
)

var serial sync.Mutex

// Swap replaces *target until the test ends; used for clocks, http clients and env readers
func Swap[T any](t *testing.T, target *T, v T) {
	t.Helper()
	old := *target
	*target = v
	t.Cleanup(func() { *target = old })
}

// Serial holds a process wide lock for the rest of the test, for tests that touch shared seams
func Serial(t *testing.T) {
	t.Helper()
	serial.Lock()
	t.Cleanup(serial.Unlock)
}
