package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/airace/internal/config"
	"github.com/san-kum/airace/internal/experiment"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps")

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep overrides a preset (or the base config) for one run. Zero
// values keep the underlying setting.
type ScenarioStep struct {
	Preset   string             `yaml:"preset"`
	Track    string             `yaml:"track"`
	Policy   string             `yaml:"policy"`
	Agents   int                `yaml:"agents"`
	Episodes int                `yaml:"episodes"`
	Ticks    int                `yaml:"ticks"`
	Seed     int64              `yaml:"seed"`
	Training *bool              `yaml:"training"`
	Params   map[string]float64 `yaml:"params"`
	SaveAs   string             `yaml:"save_as"`
}

type StepOutcome struct {
	Step   ScenarioStep
	Config *config.Config
	Result *experiment.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyScenario)
	}
	return &scenario, nil
}

// Resolve builds the config for a step on top of base.
func (s ScenarioStep) Resolve(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	if s.Preset != "" {
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	}
	if s.Track != "" {
		cfg.Arena.Track = s.Track
	}
	if s.Policy != "" {
		cfg.Run.Policy = s.Policy
	}
	if s.Agents > 0 {
		cfg.Arena.Agents = s.Agents
	}
	if s.Episodes > 0 {
		cfg.Run.Episodes = s.Episodes
	}
	if s.Ticks > 0 {
		cfg.Run.Ticks = s.Ticks
	}
	if s.Seed != 0 {
		cfg.Arena.Seed = s.Seed
	}
	if s.Training != nil {
		cfg.Arena.Training = *s.Training
	}

	var err error
	for name, value := range s.Params {
		err = multierr.Append(err, cfg.SetParam(name, value))
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, reg *experiment.Registry, logger *slog.Logger) ([]StepOutcome, error) {
	if logger == nil {
		logger = slog.Default()
	}
	outcomes := make([]StepOutcome, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve(base)
		if err != nil {
			return outcomes, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps),
			"track", cfg.Arena.Track, "policy", cfg.Run.Policy)

		result, err := runConfig(ctx, cfg, reg, logger)
		if err != nil {
			return outcomes, fmt.Errorf("step %d: %w", i+1, err)
		}
		outcomes = append(outcomes, StepOutcome{Step: step, Config: cfg, Result: result})
	}
	return outcomes, nil
}

func runConfig(ctx context.Context, cfg *config.Config, reg *experiment.Registry, logger *slog.Logger) (*experiment.Result, error) {
	runner, err := experiment.Build(cfg, reg, nil, logger)
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx)
}

// ParameterSweep varies one tunable across an evenly spaced range.
type ParameterSweep struct {
	Param string
	Min   float64
	Max   float64
	Steps int
}

type SweepResult struct {
	Value   float64
	Metrics map[string]float64
}

func (s *ParameterSweep) Values() []float64 {
	if s.Steps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Steps-1)
	values := make([]float64, s.Steps)
	for i := range values {
		values[i] = s.Min + float64(i)*step
	}
	return values
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, base *config.Config, reg *experiment.Registry, logger *slog.Logger) ([]SweepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	values := sweep.Values()
	results := make([]SweepResult, 0, len(values))

	for i, v := range values {
		cfg := base.Clone()
		if err := cfg.SetParam(sweep.Param, v); err != nil {
			return results, err
		}
		result, err := runConfig(ctx, cfg, reg, logger)
		if err != nil {
			return results, fmt.Errorf("%s=%.4g: %w", sweep.Param, v, err)
		}
		results = append(results, SweepResult{Value: v, Metrics: result.Metrics})
		logger.Info("sweep", "index", i+1, "of", len(values), sweep.Param, v)
	}
	return results, nil
}

// MonteCarloConfig repeats a run over consecutive arena seeds. Trials run
// concurrently on up to Workers goroutines; each trial owns its
// environment.
type MonteCarloConfig struct {
	Trials  int
	Seed    int64
	Workers int
}

type MonteCarloResult struct {
	Trial   int
	Seed    int64
	Metrics map[string]float64
}

func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, base *config.Config, reg *experiment.Registry, logger *slog.Logger) ([]MonteCarloResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	workers := mc.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]MonteCarloResult, mc.Trials)
	errs := make([]error, mc.Trials)
	sem := make(chan struct{}, workers)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
launch:
	for trial := 0; trial < mc.Trials; trial++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break launch
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			cfg := base.Clone()
			cfg.Arena.Seed = mc.Seed + int64(idx)

			result, err := runConfig(ctx, cfg, reg, logger)
			if err != nil {
				errs[idx] = fmt.Errorf("trial %d: %w", idx, err)
				return
			}
			results[idx] = MonteCarloResult{Trial: idx, Seed: cfg.Arena.Seed, Metrics: result.Metrics}

			mu.Lock()
			done++
			if done%10 == 0 {
				logger.Info("monte carlo", "done", done, "of", mc.Trials)
			}
			mu.Unlock()
		}(trial)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloStats returns the mean and sample standard deviation of one
// metric across trials.
func MonteCarloStats(results []MonteCarloResult, metric string) (mean, std float64) {
	if len(results) == 0 {
		return 0, 0
	}
	for _, r := range results {
		mean += r.Metrics[metric]
	}
	mean /= float64(len(results))
	if len(results) < 2 {
		return mean, 0
	}
	for _, r := range results {
		d := r.Metrics[metric] - mean
		std += d * d
	}
	return mean, math.Sqrt(std / float64(len(results)-1))
}
