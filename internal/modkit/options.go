package modkit

// Option mutates build configuration for a module
type Option func(*buildCfg)

// buildCfg is internal wiring state for options
type buildCfg struct {
	name  string
	ports any
}

// WithName overrides the module name used in logs and registry
func WithName(name string) Option {
	return func(c *buildCfg) { c.name = name }
}

// WithPorts injects ports owned by another module, or test doubles
func WithPorts[T any](p T) Option {
	return func(c *buildCfg) { c.ports = p }
}
