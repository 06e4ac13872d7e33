package experiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/san-kum/airace/internal/config"
	"github.com/san-kum/airace/internal/dynamo"
	"github.com/san-kum/airace/internal/race"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type tickCounter struct{ ticks int }

func (c *tickCounter) OnTick(tick int, env *race.Environment, results []race.StepResult) {
	c.ticks++
}

func trainingConfig(policy string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Arena.Seed = 3
	cfg.Run.Policy = policy
	cfg.Run.Episodes = 4
	cfg.Run.Ticks = 2000
	return cfg
}

func TestRunnerCollectsEpisodes(t *testing.T) {
	runner, err := Build(trainingConfig("none"), NewRegistry(), nil, quiet)
	if err != nil {
		t.Fatal(err)
	}
	counter := &tickCounter{}
	runner.AddObserver(counter)

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Episodes) < 4 {
		t.Fatalf("episodes = %d, want at least 4", len(result.Episodes))
	}
	if len(result.RewardHistory) != len(result.Episodes) {
		t.Error("reward history does not match episodes")
	}
	if counter.ticks != result.Ticks {
		t.Errorf("observer saw %d ticks, runner ran %d", counter.ticks, result.Ticks)
	}
	for _, name := range []string{"mean_reward", "collision_rate", "timeout_rate", "checkpoints_per_episode"} {
		if _, ok := result.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if len(result.Standings) != 4 {
		t.Errorf("standings = %d, want 4", len(result.Standings))
	}
	for _, ep := range result.Episodes {
		if ep.Reason == "none" {
			t.Errorf("finished episode without a reason: %+v", ep)
		}
	}
}

func TestRunnerPolicies(t *testing.T) {
	reg := NewRegistry()
	for _, name := range reg.ListPolicies() {
		t.Run(name, func(t *testing.T) {
			cfg := trainingConfig(name)
			cfg.Run.Ticks = 200
			runner, err := Build(cfg, reg, nil, quiet)
			if err != nil {
				t.Fatal(err)
			}
			result, err := runner.Run(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if result.Ticks == 0 {
				t.Error("no ticks ran")
			}
		})
	}
}

func TestRaceRunNeedsTickLimit(t *testing.T) {
	cfg := config.GetPreset("race")
	cfg.Run.Ticks = 0
	_, err := Build(cfg, NewRegistry(), nil, quiet)
	if !errors.Is(err, ErrUnboundedRun) {
		t.Errorf("err = %v, want ErrUnboundedRun", err)
	}
}

func TestRunCancelled(t *testing.T) {
	runner, err := Build(trainingConfig("pursuit"), NewRegistry(), nil, quiet)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := runner.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if result == nil || result.Ticks != 0 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestBuildSeedsCheckpointRadius(t *testing.T) {
	cfg := trainingConfig("none")
	cfg.Arena.CheckpointRadius = 25
	params := config.NewEnvParams(nil)
	if _, err := Build(cfg, NewRegistry(), params, quiet); err != nil {
		t.Fatal(err)
	}
	if got := params.GetWithDefault(race.ParamCheckpointRadius, 0); got != 25 {
		t.Errorf("checkpoint_radius = %v, want 25", got)
	}

	override := config.NewEnvParams(map[string]float64{race.ParamCheckpointRadius: 5})
	if _, err := Build(cfg, NewRegistry(), override, quiet); err != nil {
		t.Fatal(err)
	}
	if got := override.GetWithDefault(race.ParamCheckpointRadius, 0); got != 5 {
		t.Errorf("explicit parameter overwritten: %v", got)
	}
}

func TestBuildRejectsUnknownNames(t *testing.T) {
	reg := NewRegistry()
	for _, mutate := range []func(*config.Config){
		func(c *config.Config) { c.Run.Policy = "ppo" },
		func(c *config.Config) { c.Arena.Track = "moebius" },
		func(c *config.Config) { c.Flight.Integrator = "leapfrog" },
	} {
		cfg := trainingConfig("none")
		mutate(cfg)
		if _, err := Build(cfg, reg, nil, quiet); err == nil {
			t.Errorf("expected error for %+v", cfg.Run)
		}
	}
}

func TestNewRunnerPolicyCount(t *testing.T) {
	runner, err := Build(trainingConfig("none"), NewRegistry(), nil, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewRunner(runner.Environment(), []dynamo.Controller{nil}, RunOptions{Ticks: 1}); err == nil {
		t.Error("expected error for policy/agent mismatch")
	}
}

type obsRecorder struct{ seen [][]float64 }

func (r *obsRecorder) Compute(x dynamo.State, t float64) dynamo.Control {
	r.seen = append(r.seen, x.Clone())
	return dynamo.Control{0, 0, 0}
}

type resetWatcher struct{ next map[int][]float64 }

func (w *resetWatcher) OnTick(tick int, env *race.Environment, results []race.StepResult) {
	if results[0].Done {
		w.next[tick] = results[0].NextObservation
	}
}

func TestRunnerActsOnPostResetObservation(t *testing.T) {
	cfg := trainingConfig("none")
	cfg.Arena.Agents = 1
	cfg.Training.StepTimeout = 5
	built, err := Build(cfg, NewRegistry(), nil, quiet)
	if err != nil {
		t.Fatal(err)
	}

	rec := &obsRecorder{}
	runner, err := NewRunner(built.Environment(), []dynamo.Controller{rec}, RunOptions{Ticks: 20, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	watcher := &resetWatcher{next: map[int][]float64{}}
	runner.AddObserver(watcher)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(watcher.next) == 0 {
		t.Fatal("expected at least one episode to end")
	}
	for tick, want := range watcher.next {
		if tick+1 >= len(rec.seen) {
			continue
		}
		got := rec.seen[tick+1]
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("tick %d: policy saw %v, want post-reset %v", tick+1, got, want)
			}
		}
	}
}
