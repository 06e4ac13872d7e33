package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/san-kum/airace/internal/config"
	"github.com/san-kum/airace/internal/dynamo"
	"github.com/san-kum/airace/internal/metrics"
	"github.com/san-kum/airace/internal/race"
)

var ErrUnboundedRun = errors.New("experiment: race runs need a tick limit")

// Observer sees every tick of a run, e.g. a live view.
type Observer interface {
	OnTick(tick int, env *race.Environment, results []race.StepResult)
}

type Result struct {
	Episodes []dynamo.Episode   `json:"episodes"`
	Metrics  map[string]float64 `json:"metrics"`
	// RewardHistory is the reward of each finished episode in order.
	RewardHistory []float64 `json:"reward_history"`
	// Standings is every agent's progress when the run stopped, most
	// checkpoints first.
	Standings []dynamo.Episode `json:"standings"`
	Ticks     int              `json:"ticks"`
	SimTime   float64          `json:"sim_time"`
}

type RunOptions struct {
	Episodes int
	Ticks    int
	Metrics  []dynamo.Metric
	Logger   *slog.Logger
}

// Runner drives an environment with one policy per agent until enough
// episodes finish or the tick budget runs out.
type Runner struct {
	env       *race.Environment
	policies  []dynamo.Controller
	metrics   []dynamo.Metric
	observers []Observer
	opts      RunOptions
	logger    *slog.Logger
}

func NewRunner(env *race.Environment, policies []dynamo.Controller, opts RunOptions) (*Runner, error) {
	if len(policies) != len(env.Agents()) {
		return nil, fmt.Errorf("%d policies for %d agents", len(policies), len(env.Agents()))
	}
	if opts.Ticks <= 0 && (opts.Episodes <= 0 || !env.Arena().Training()) {
		return nil, ErrUnboundedRun
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Standard()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		env:      env,
		policies: policies,
		metrics:  opts.Metrics,
		opts:     opts,
		logger:   opts.Logger,
	}, nil
}

func (r *Runner) AddObserver(o Observer)        { r.observers = append(r.observers, o) }
func (r *Runner) Environment() *race.Environment { return r.env }
func (r *Runner) Policies() []dynamo.Controller  { return r.policies }

type resetter interface{ Reset() }

func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{Metrics: make(map[string]float64)}
	for _, m := range r.metrics {
		m.Reset()
	}

	obs, err := r.env.Reset()
	if err != nil {
		return nil, err
	}

	actions := make([][]float64, len(r.policies))
	dt := r.env.Dt()
	started := time.Now()

	for tick := 0; r.opts.Ticks <= 0 || tick < r.opts.Ticks; tick++ {
		select {
		case <-ctx.Done():
			r.finish(result)
			return result, ctx.Err()
		default:
		}

		t := float64(tick) * dt
		for i, p := range r.policies {
			actions[i] = p.Compute(obs[i], t)
		}

		results, err := r.env.Step(actions)
		if err != nil {
			r.finish(result)
			return result, fmt.Errorf("tick %d: %w", tick, err)
		}
		result.Ticks++

		for i, res := range results {
			obs[i] = res.NextObservation
			if res.Episode == nil {
				continue
			}
			ep := *res.Episode
			result.Episodes = append(result.Episodes, ep)
			result.RewardHistory = append(result.RewardHistory, ep.Reward)
			for _, m := range r.metrics {
				m.Observe(ep)
			}
			if rp, ok := r.policies[i].(resetter); ok {
				rp.Reset()
			}
		}

		for _, o := range r.observers {
			o.OnTick(tick, r.env, results)
		}

		if r.opts.Episodes > 0 && len(result.Episodes) >= r.opts.Episodes {
			break
		}
	}

	r.finish(result)
	r.logger.Info("run finished", "ticks", result.Ticks, "episodes", len(result.Episodes),
		"elapsed", time.Since(started).Round(time.Millisecond))
	return result, nil
}

func (r *Runner) finish(result *Result) {
	result.SimTime = float64(result.Ticks) * r.env.Dt()
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Standings = result.Standings[:0]
	for _, a := range r.env.Agents() {
		result.Standings = append(result.Standings, a.Summary())
	}
	sort.SliceStable(result.Standings, func(i, j int) bool {
		return result.Standings[i].Checkpoints > result.Standings[j].Checkpoints
	})
}

// BuildOption adjusts environment options that have no config field.
type BuildOption func(*race.EnvOptions)

// WithVisuals routes crash-cycle visibility changes to a presenter.
func WithVisuals(f func(name string) race.Visuals) BuildOption {
	return func(o *race.EnvOptions) { o.Visuals = f }
}

// Build assembles an environment and runner from a config.
func Build(cfg *config.Config, reg *Registry, params *config.EnvParams, logger *slog.Logger, opts ...BuildOption) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if params == nil {
		params = config.NewEnvParams(nil)
	}
	if _, set := params.Snapshot()[race.ParamCheckpointRadius]; !set {
		params.Set(race.ParamCheckpointRadius, cfg.Arena.CheckpointRadius)
	}

	path, err := reg.GetTrack(cfg.Arena.Track, cfg.TrackSpec())
	if err != nil {
		return nil, err
	}
	newInteg, err := reg.GetIntegrator(cfg.Flight.Integrator)
	if err != nil {
		return nil, err
	}

	envOpts := race.EnvOptions{
		Agents:         cfg.Arena.Agents,
		Training:       cfg.Arena.Training,
		Seed:           cfg.Arena.Seed,
		Flight:         cfg.Flight.Params,
		Body:           cfg.BodyParams(),
		Dt:             cfg.Flight.Dt,
		Integrator:     newInteg,
		StepTimeout:    cfg.Training.StepTimeout,
		MaxSteps:       cfg.Training.MaxSteps,
		Rewards:        cfg.Training.Rewards,
		Params:         params,
		CheckpointSize: cfg.Arena.CheckpointSize,
		GroundExtent:   cfg.Arena.GroundExtent,
		SpacingMin:     cfg.Arena.SpacingMin,
		SpacingMax:     cfg.Arena.SpacingMax,
		ExplosionDelay: seconds(cfg.Race.ExplosionDelay),
		RespawnDelay:   seconds(cfg.Race.RespawnDelay),
		Parallel:       cfg.Run.Parallel,
		Logger:         logger,
	}
	for _, opt := range opts {
		opt(&envOpts)
	}

	env, err := race.NewEnvironment(path, envOpts)
	if err != nil {
		return nil, err
	}

	policies := make([]dynamo.Controller, cfg.Arena.Agents)
	for i := range policies {
		policies[i], err = reg.GetPolicy(cfg.Run.Policy, cfg.Arena.Seed+int64(i)+1)
		if err != nil {
			return nil, err
		}
	}

	return NewRunner(env, policies, RunOptions{
		Episodes: cfg.Run.Episodes,
		Ticks:    cfg.Run.Ticks,
		Logger:   logger,
	})
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
