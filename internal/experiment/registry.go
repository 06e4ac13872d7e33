package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/airace/internal/control"
	"github.com/san-kum/airace/internal/dynamo"
	"github.com/san-kum/airace/internal/flight"
	"github.com/san-kum/airace/internal/integrators"
	"github.com/san-kum/airace/internal/pathgeom"
)

// PolicyFactory builds one policy instance per agent. seed differs per
// agent so stochastic policies do not move in lockstep.
type PolicyFactory func(seed int64) dynamo.Controller

type Registry struct {
	policies map[string]PolicyFactory
}

func NewRegistry() *Registry {
	r := &Registry{policies: make(map[string]PolicyFactory)}

	r.policies["pursuit"] = func(int64) dynamo.Controller { return control.NewPursuit() }
	r.policies["random"] = func(seed int64) dynamo.Controller { return control.NewRandom(seed) }
	r.policies["none"] = func(int64) dynamo.Controller { return control.NewNone(flight.ActionSize) }
	r.policies["manual"] = func(int64) dynamo.Controller { return control.NewManual() }

	return r
}

// Register adds or replaces a policy.
func (r *Registry) Register(name string, f PolicyFactory) {
	r.policies[name] = f
}

func (r *Registry) GetPolicy(name string, seed int64) (dynamo.Controller, error) {
	fn, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy: %s", name)
	}
	return fn(seed), nil
}

// GetIntegrator returns a factory so every body gets its own instance.
func (r *Registry) GetIntegrator(name string) (func() dynamo.Integrator, error) {
	if _, err := integrators.New(name); err != nil {
		return nil, err
	}
	return func() dynamo.Integrator {
		integ, _ := integrators.New(name)
		return integ
	}, nil
}

func (r *Registry) GetTrack(name string, spec pathgeom.TrackSpec) (*pathgeom.SmoothPath, error) {
	return pathgeom.Track(name, spec)
}

func (r *Registry) ListPolicies() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string { return integrators.Names() }
func (r *Registry) ListTracks() []string      { return pathgeom.TrackNames() }
