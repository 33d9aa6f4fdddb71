package backends

// Factory builds a Backend instance from an opaque, backend-specific
// configuration value (e.g. redis.Config, postgres.Config).
type Factory func(config any) (Backend, error)

var registeredBackends = make(map[string]Factory)

// Register associates name with a Factory. Backend subpackages call this
// from an init() func, mirroring the teacher's backends/*/register.go
// pattern, so importing a backend package for its side effect is enough to
// make it available to Create.
func Register(name string, factory Factory) {
	registeredBackends[name] = factory
}

// Create builds the named backend with config. Returns ErrBackendNotFound
// if name was never registered.
func Create(name string, config any) (Backend, error) {
	factory, ok := registeredBackends[name]
	if !ok {
		return nil, ErrBackendNotFound
	}
	return factory(config)
}
