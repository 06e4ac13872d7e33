package race

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/san-kum/airace/internal/dynamo"
	"github.com/san-kum/airace/internal/flight"
	"github.com/san-kum/airace/internal/pathgeom"
	"github.com/san-kum/airace/internal/physics"
	"github.com/san-kum/airace/internal/sched"
)

const (
	DefaultCheckpointSize = 20.0
	DefaultGroundExtent   = 5000.0
)

type EnvOptions struct {
	Agents   int
	Names    []string
	Training bool
	Seed     int64

	Flight     flight.Params
	Body       physics.BodyParams
	Dt         float64
	Integrator func() dynamo.Integrator

	StepTimeout int
	MaxSteps    int
	Rewards     Rewards
	Params      ParamSource

	// CheckpointSize is the trigger radius of each gate.
	CheckpointSize float64
	// GroundExtent is the half-width of the ground slab; negative disables it.
	GroundExtent float64
	Obstacles    []*physics.Collider

	SpacingMin, SpacingMax float64

	ExplosionDelay time.Duration
	RespawnDelay   time.Duration
	Visuals        func(name string) Visuals

	// Parallel runs agent actions concurrently within a tick.
	Parallel bool
	Logger   *slog.Logger
}

func DefaultEnvOptions() EnvOptions {
	return EnvOptions{
		Agents:         4,
		Training:       true,
		Flight:         flight.DefaultParams(),
		Body:           physics.DefaultBodyParams(),
		Dt:             physics.DefaultDt,
		StepTimeout:    DefaultStepTimeout,
		Rewards:        DefaultRewards(),
		CheckpointSize: DefaultCheckpointSize,
		GroundExtent:   DefaultGroundExtent,
		ExplosionDelay: 2 * time.Second,
		RespawnDelay:   time.Second,
	}
}

// StepResult is what one agent reports after a tick. When Done is set,
// Observation is the terminal one and the agent has already been reset;
// NextObservation is what its policy should act on next tick.
type StepResult struct {
	Agent           string
	Observation     []float64
	NextObservation []float64
	Reward      float64
	Done        bool
	Reason      TerminationReason
	Episode     *dynamo.Episode
	ActionErr   error
}

// Environment drives an arena of agents at a fixed tick: actions in,
// observations and rewards out.
type Environment struct {
	arena  *Arena
	world  *physics.World
	sched  *sched.Scheduler
	agents []*Agent
	opts   EnvOptions
	logger *slog.Logger
	tick   time.Duration
	steps  int
}

// NewEnvironment builds the arena, its checkpoints and the roster, and
// registers gates, ground and obstacles with the physics world.
func NewEnvironment(path pathgeom.Geometry, opts EnvOptions) (*Environment, error) {
	if opts.Agents <= 0 {
		return nil, ErrNoAgents
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Dt <= 0 {
		opts.Dt = physics.DefaultDt
	}
	if opts.Body == (physics.BodyParams{}) {
		opts.Body = physics.DefaultBodyParams()
	}
	if opts.CheckpointSize <= 0 {
		opts.CheckpointSize = DefaultCheckpointSize
	}
	if opts.GroundExtent == 0 {
		opts.GroundExtent = DefaultGroundExtent
	}

	s := sched.New()
	arena := NewArena(path, ArenaOptions{
		Training:   opts.Training,
		Dt:         opts.Dt,
		Rand:       rand.New(rand.NewSource(opts.Seed)),
		Logger:     opts.Logger,
		Scheduler:  s,
		SpacingMin: opts.SpacingMin,
		SpacingMax: opts.SpacingMax,
	})
	if err := arena.BuildCheckpoints(); err != nil {
		return nil, err
	}

	world := physics.NewWorld(physics.WorldOptions{
		Dt:            opts.Dt,
		NewIntegrator: opts.Integrator,
		Logger:        opts.Logger,
	})
	layout, _ := arena.Layout()
	for _, cp := range layout.All() {
		gate := physics.SphereCollider(fmt.Sprintf("checkpoint-%d", cp.Index), physics.TagCheckpoint, cp.Position, opts.CheckpointSize)
		gate.Trigger = true
		gate.Index = cp.Index
		world.AddCollider(gate)
	}
	if opts.GroundExtent > 0 {
		world.AddCollider(physics.Ground(opts.GroundExtent))
	}
	for _, c := range opts.Obstacles {
		world.AddCollider(c)
	}

	agents := make([]*Agent, opts.Agents)
	for i := range agents {
		name := fmt.Sprintf("agent-%d", i)
		if i < len(opts.Names) && opts.Names[i] != "" {
			name = opts.Names[i]
		}
		var visuals Visuals
		if opts.Visuals != nil {
			visuals = opts.Visuals(name)
		}
		body := physics.NewBody(name, opts.Body)
		agents[i] = NewAgent(arena, body, AgentOptions{
			Name:           name,
			Flight:         opts.Flight,
			StepTimeout:    opts.StepTimeout,
			MaxSteps:       opts.MaxSteps,
			Rewards:        opts.Rewards,
			Params:         opts.Params,
			Visuals:        visuals,
			ExplosionDelay: opts.ExplosionDelay,
			RespawnDelay:   opts.RespawnDelay,
			Logger:         opts.Logger,
		})
		world.AddBody(body, agents[i])
	}
	arena.RegisterAgents(agents...)

	return &Environment{
		arena:  arena,
		world:  world,
		sched:  s,
		agents: agents,
		opts:   opts,
		logger: opts.Logger,
		tick:   time.Duration(opts.Dt * float64(time.Second)),
	}, nil
}

func (e *Environment) Arena() *Arena           { return e.arena }
func (e *Environment) World() *physics.World   { return e.world }
func (e *Environment) Agents() []*Agent        { return e.agents }
func (e *Environment) Steps() int              { return e.steps }
func (e *Environment) Dt() float64             { return e.opts.Dt }
func (e *Environment) CheckpointSize() float64 { return e.opts.CheckpointSize }
func (e *Environment) ObservationSize() int    { return ObservationSize }
func (e *Environment) ActionSize() int         { return flight.ActionSize }

// Reset begins a fresh episode for every agent and returns their first
// observations.
func (e *Environment) Reset() ([][]float64, error) {
	obs := make([][]float64, len(e.agents))
	for i, a := range e.agents {
		if err := a.BeginEpisode(); err != nil {
			return nil, err
		}
		obs[i] = a.CollectObservations()
	}
	return obs, nil
}

// Step advances one tick. actions[i] drives agent i. Agents whose
// episodes end are reported and immediately restarted.
func (e *Environment) Step(actions [][]float64) ([]StepResult, error) {
	if len(actions) != len(e.agents) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrActionCount, len(actions), len(e.agents))
	}

	actionErrs := make([]error, len(e.agents))
	act := func(start, end int) {
		for i := start; i < end; i++ {
			actionErrs[i] = e.agents[i].Act(actions[i])
		}
	}
	if e.opts.Parallel {
		dynamo.ParallelFor(len(e.agents), 1, act)
	} else {
		act(0, len(e.agents))
	}

	if err := e.world.Step(); err != nil {
		return nil, err
	}
	e.sched.Advance(e.tick)
	e.steps++

	results := make([]StepResult, len(e.agents))
	for i, a := range e.agents {
		if done, _ := a.Done(); !done && a.MaxSteps() > 0 && a.StepCount() >= a.MaxSteps() {
			a.EndEpisode(MaxStepsReached)
		}
		done, reason := a.Done()
		obs := a.CollectObservations()
		results[i] = StepResult{
			Agent:           a.Name(),
			Observation:     obs,
			NextObservation: obs,
			Reward:          a.TakeReward(),
			Done:            done,
			Reason:          reason,
			ActionErr:       actionErrs[i],
		}
		if done {
			ep := a.Summary()
			results[i].Episode = &ep
			if err := a.BeginEpisode(); err != nil {
				return nil, err
			}
			results[i].NextObservation = a.CollectObservations()
		}
	}
	return results, nil
}
