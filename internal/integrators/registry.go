package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/airace/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"euler":         func() dynamo.Integrator { return NewEuler() },
	"semi-implicit": func() dynamo.Integrator { return NewSemiImplicit() },
	"verlet":        func() dynamo.Integrator { return NewVerlet() },
	"rk4":           func() dynamo.Integrator { return NewRK4() },
}

// New returns a fresh integrator by name. Integrators hold scratch state,
// so each body needs its own instance.
func New(name string) (dynamo.Integrator, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return factory(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
