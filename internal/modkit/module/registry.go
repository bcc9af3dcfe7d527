package module

import (
	"maps"
	"slices"
	"sync"
)

// registry of port sets by module name, filled once in main
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register stores the port set of a module, replacing any previous one
func Register(name string, ports any) {
	mu.Lock()
	defer mu.Unlock()
	reg[name] = ports
}

// PortsAs returns the port set registered under name when it is a T
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	defer mu.RUnlock()
	v, ok := reg[name].(T)
	return v, ok
}

// Names lists registered modules in order
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Sorted(maps.Keys(reg))
}

// Reset empties the registry between tests
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	clear(reg)
}
