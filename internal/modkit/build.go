package modkit

// Built is a plain struct with the fields modules care about
type Built struct {
	Name  string
	Ports any
}

// Build applies Option funcs and returns the result
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	return Built{Name: c.name, Ports: c.ports}
}

// Injected returns the ports injected with WithPorts when they have type T
func Injected[T any](b Built) (T, bool) {
	v, ok := b.Ports.(T)
	return v, ok
}
