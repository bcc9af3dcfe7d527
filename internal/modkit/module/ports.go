package module

import (
	"fmt"
	"reflect"
)

// PortsOf finds a T in m.Ports(): the port set itself, or one of its exported
// fields when the set is a struct or a pointer to one
func PortsOf[T any](m Module) (T, bool) {
	var zero T
	p := m.Ports()
	if p == nil {
		return zero, false
	}
	if v, ok := p.(T); ok {
		return v, true
	}
	rv := reflect.Indirect(reflect.ValueOf(p))
	if rv.Kind() != reflect.Struct {
		return zero, false
	}
	for i := range rv.NumField() {
		f := rv.Field(i)
		if !f.CanInterface() {
			continue
		}
		if v, ok := f.Interface().(T); ok && !f.IsZero() {
			return v, true
		}
	}
	return zero, false
}

// MustPortsOf is PortsOf for wiring code in main, where a missing port is a bug
func MustPortsOf[T any](m Module) T {
	v, ok := PortsOf[T](m)
	if !ok {
		panic(fmt.Sprintf("module %s exposes no %v port", m.Name(), reflect.TypeFor[T]()))
	}
	return v
}
