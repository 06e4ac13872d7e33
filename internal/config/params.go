package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// EnvParams holds environment parameters that may change while a run is
// in progress. Readers see each update on their next tick.
type EnvParams struct {
	mu     sync.RWMutex
	values map[string]float64
}

func NewEnvParams(initial map[string]float64) *EnvParams {
	values := make(map[string]float64, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &EnvParams{values: values}
}

func (p *EnvParams) GetWithDefault(key string, def float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		return v
	}
	return def
}

func (p *EnvParams) Set(key string, value float64) {
	p.mu.Lock()
	p.values[key] = value
	p.mu.Unlock()
}

func (p *EnvParams) Snapshot() map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]float64, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// ParseAssignments parses "key=value" pairs as given on the command line.
func ParseAssignments(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", pair)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

func (p *EnvParams) String() string {
	snap := p.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, snap[k])
	}
	return strings.Join(parts, ",")
}
