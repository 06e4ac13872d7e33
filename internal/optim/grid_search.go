package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"go.uber.org/multierr"

	"github.com/san-kum/airace/internal/config"
	"github.com/san-kum/airace/internal/experiment"
)

var ErrNoCandidate = errors.New("optim: no grid point produced a result")

// BuildFunc assembles a runner for one grid point.
type BuildFunc func(params map[string]float64) (*experiment.Runner, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	// Minimize flips the objective; by default the metric is maximized.
	Minimize bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search evaluates every grid point and returns the best parameters and
// metric value. Failing points are skipped; their errors are returned
// only when no point succeeds.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metricName string) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("optim: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	s := &search{grid: g, build: build, metric: metricName, best: math.Inf(-1)}
	if g.Minimize {
		s.best = math.Inf(1)
	}
	if err := s.walk(ctx, 0, make(map[string]float64)); err != nil {
		return s.bestParams, s.best, err
	}
	if s.bestParams == nil {
		return nil, 0, multierr.Append(ErrNoCandidate, s.errs)
	}
	return s.bestParams, s.best, nil
}

type search struct {
	grid       *GridSearch
	build      BuildFunc
	metric     string
	best       float64
	bestParams map[string]float64
	errs       error
}

func (s *search) walk(ctx context.Context, depth int, current map[string]float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(s.grid.paramNames) {
		runner, err := s.build(current)
		if err != nil {
			s.errs = multierr.Append(s.errs, err)
			return nil
		}
		result, err := runner.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.errs = multierr.Append(s.errs, err)
			return nil
		}

		val, ok := result.Metrics[s.metric]
		if !ok {
			s.errs = multierr.Append(s.errs, fmt.Errorf("optim: metric %q not recorded", s.metric))
			return nil
		}
		if s.better(val) {
			s.best = val
			s.bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				s.bestParams[k] = v
			}
		}
		return nil
	}

	name := s.grid.paramNames[depth]
	for _, val := range s.grid.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val

		if err := s.walk(ctx, depth+1, next); err != nil {
			return err
		}
	}
	return nil
}

func (s *search) better(val float64) bool {
	if s.bestParams == nil {
		return true
	}
	if s.grid.Minimize {
		return val < s.best
	}
	return val > s.best
}

// ConfigBuilder applies each grid point as config overrides on a copy of
// base.
func ConfigBuilder(base *config.Config, reg *experiment.Registry, logger *slog.Logger) BuildFunc {
	return func(params map[string]float64) (*experiment.Runner, error) {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		return experiment.Build(cfg, reg, nil, logger)
	}
}
