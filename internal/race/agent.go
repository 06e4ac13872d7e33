package race

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/san-kum/airace/internal/dynamo"
	"github.com/san-kum/airace/internal/flight"
	"github.com/san-kum/airace/internal/geom"
	"github.com/san-kum/airace/internal/physics"
)

const (
	// ObservationSize is local velocity, local vector to the next
	// checkpoint and that checkpoint's local forward.
	ObservationSize = 9

	DefaultStepTimeout   = 300
	DefaultTrainingSteps = 5000

	// ParamCheckpointRadius is the environment parameter for proximity
	// crediting. Zero disables it.
	ParamCheckpointRadius = "checkpoint_radius"
)

type TerminationReason int

const (
	NotDone TerminationReason = iota
	Timeout
	Collision
	MaxStepsReached
)

func (r TerminationReason) String() string {
	switch r {
	case Timeout:
		return "timeout"
	case Collision:
		return "collision"
	case MaxStepsReached:
		return "max_steps"
	default:
		return "none"
	}
}

// Rewards are the training reward constants. StepBudget is spread evenly
// over MaxSteps, so a full-length episode accrues exactly StepBudget.
type Rewards struct {
	StepBudget float64 `yaml:"step_budget" json:"step_budget"`
	Checkpoint float64 `yaml:"checkpoint" json:"checkpoint"`
	Timeout    float64 `yaml:"timeout" json:"timeout"`
	Crash      float64 `yaml:"crash" json:"crash"`
}

func DefaultRewards() Rewards {
	return Rewards{StepBudget: -1, Checkpoint: 0.5, Timeout: -0.5, Crash: -1}
}

// ParamSource supplies environment parameters that may change between
// ticks.
type ParamSource interface {
	GetWithDefault(key string, def float64) float64
}

type staticParams map[string]float64

func (p staticParams) GetWithDefault(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Visuals shows and hides an agent's presentation.
type Visuals interface {
	SetAircraftVisible(visible bool)
	SetEffectVisible(visible bool)
}

type noVisuals struct{}

func (noVisuals) SetAircraftVisible(bool) {}
func (noVisuals) SetEffectVisible(bool)   {}

type AgentOptions struct {
	Name        string
	Flight      flight.Params
	StepTimeout int
	// MaxSteps of 0 picks the training default; negative means unbounded.
	// It is ignored in race mode.
	MaxSteps int
	Rewards  Rewards
	Params   ParamSource
	Visuals  Visuals

	ExplosionDelay time.Duration
	RespawnDelay   time.Duration

	Logger *slog.Logger
}

func DefaultAgentOptions() AgentOptions {
	return AgentOptions{
		Flight:         flight.DefaultParams(),
		StepTimeout:    DefaultStepTimeout,
		Rewards:        DefaultRewards(),
		ExplosionDelay: 2 * time.Second,
		RespawnDelay:   time.Second,
	}
}

// Agent is one racing aircraft: it turns actions into flight, and flight
// into observations and rewards.
type Agent struct {
	name   string
	arena  *Arena
	body   *physics.Body
	flight *flight.Controller
	opts   AgentOptions
	logger *slog.Logger
	crash  crashPolicy

	maxSteps    int
	next        int
	stepCount   int
	nextTimeout int

	pending     float64
	episodeSum  float64
	checkpoints int
	episode     int
	creditedAt  int

	done   bool
	reason TerminationReason
}

// NewAgent wires an agent to arena and body. The crash behaviour is fixed
// here from the arena mode: training agents never freeze. Flight and
// Rewards are used as given, zero values included; start from
// DefaultAgentOptions for the stock tuning.
func NewAgent(arena *Arena, body *physics.Body, opts AgentOptions) *Agent {
	if opts.Name == "" {
		opts.Name = ksuid.New().String()
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultStepTimeout
	}
	if opts.Params == nil {
		opts.Params = staticParams{}
	}
	if opts.Visuals == nil {
		opts.Visuals = noVisuals{}
	}
	if opts.Logger == nil {
		opts.Logger = arena.Logger()
	}
	if opts.ExplosionDelay <= 0 {
		opts.ExplosionDelay = 2 * time.Second
	}
	if opts.RespawnDelay <= 0 {
		opts.RespawnDelay = time.Second
	}

	a := &Agent{
		name:       opts.Name,
		arena:      arena,
		body:       body,
		flight:     flight.NewController(body, opts.Flight),
		opts:       opts,
		logger:     opts.Logger.With("agent", opts.Name),
		creditedAt: -1,
	}

	// Racing agents never hit a step limit.
	switch {
	case !arena.Training(), opts.MaxSteps < 0:
		a.maxSteps = 0
	case opts.MaxSteps > 0:
		a.maxSteps = opts.MaxSteps
	default:
		a.maxSteps = DefaultTrainingSteps
	}

	if arena.Training() {
		a.crash = trainingCrash{}
	} else {
		a.crash = &raceCrash{
			sched:   arena.Scheduler(),
			visuals: opts.Visuals,
			explode: opts.ExplosionDelay,
			respawn: opts.RespawnDelay,
		}
	}
	return a
}

func (a *Agent) Name() string               { return a.name }
func (a *Agent) Body() *physics.Body        { return a.body }
func (a *Agent) Flight() *flight.Controller { return a.flight }
func (a *Agent) NextCheckpointIndex() int   { return a.next }
func (a *Agent) StepCount() int             { return a.stepCount }
func (a *Agent) MaxSteps() int              { return a.maxSteps }
func (a *Agent) Episode() int               { return a.episode }
func (a *Agent) EpisodeReward() float64     { return a.episodeSum }
func (a *Agent) Frozen() bool               { return a.flight.Frozen() }

func (a *Agent) setNextCheckpoint(i int) { a.next = i }

// Done reports whether the current episode has ended and why.
func (a *Agent) Done() (bool, TerminationReason) { return a.done, a.reason }

// BeginEpisode resets the agent for a new episode: velocities cleared,
// respawned by the arena (randomized when training) and timeout rescheduled.
func (a *Agent) BeginEpisode() error {
	a.crash.cancel(a)
	a.body.ResetVelocities()
	a.flight.Reset()

	if err := a.arena.ResetAgentPosition(a, a.arena.Training()); err != nil {
		return fmt.Errorf("begin episode %s: %w", a.name, err)
	}

	a.episode++
	a.stepCount = 0
	a.pending = 0
	a.episodeSum = 0
	a.checkpoints = 0
	a.creditedAt = -1
	a.done = false
	a.reason = NotDone
	if a.arena.Training() {
		a.nextTimeout = a.stepCount + a.opts.StepTimeout
	}
	return nil
}

// Act advances the episode step counter and handles one action vector.
func (a *Agent) Act(action []float64) error {
	a.stepCount++
	return a.OnActionReceived(action)
}

// OnActionReceived flies one tick with action. A malformed action is
// reported and the previous controls are kept for this tick.
func (a *Agent) OnActionReceived(action []float64) error {
	if a.flight.Frozen() || a.done {
		return nil
	}

	err := a.flight.Apply(action)
	if err != nil {
		a.logger.Warn("rejected action", "err", err)
	}
	a.flight.Step(a.arena.Dt())

	if !a.arena.Training() {
		return err
	}

	if a.maxSteps > 0 {
		a.AddReward(a.opts.Rewards.StepBudget / float64(a.maxSteps))
	}

	if a.stepCount > a.nextTimeout {
		a.AddReward(a.opts.Rewards.Timeout)
		a.EndEpisode(Timeout)
		return err
	}

	radius := a.opts.Params.GetWithDefault(ParamCheckpointRadius, 0)
	if a.VectorToNextCheckpoint().Len() < radius {
		a.gotCheckpoint()
	}
	return err
}

// CollectObservations returns the 9-value observation vector.
func (a *Agent) CollectObservations() []float64 {
	rot := a.body.Rotation()
	vel := geom.InverseTransformDirection(rot, a.body.Velocity())
	toNext := a.VectorToNextCheckpoint()
	fwd := geom.InverseTransformDirection(rot, a.arena.Checkpoint(a.next).Forward())

	return []float64{
		vel[0], vel[1], vel[2],
		toNext[0], toNext[1], toNext[2],
		fwd[0], fwd[1], fwd[2],
	}
}

// VectorToNextCheckpoint is the offset to the next checkpoint in the
// aircraft's local frame.
func (a *Agent) VectorToNextCheckpoint() geom.Vec3 {
	d := a.arena.Checkpoint(a.next).Position.Sub(a.body.Position())
	return geom.InverseTransformDirection(a.body.Rotation(), d)
}

// gotCheckpoint credits the next checkpoint at most once per tick, whether
// reached by proximity or by trigger.
func (a *Agent) gotCheckpoint() {
	if a.creditedAt == a.stepCount {
		return
	}
	a.creditedAt = a.stepCount
	a.next = NextIndex(a.next, a.arena.NumCheckpoints())
	a.checkpoints++

	if a.arena.Training() {
		a.AddReward(a.opts.Rewards.Checkpoint)
		a.nextTimeout = a.stepCount + a.opts.StepTimeout
	}
}

func (a *Agent) OnTriggerEnter(ev physics.Event) {
	if a.done || a.flight.Frozen() {
		return
	}
	if ev.Tag == physics.TagCheckpoint && ev.Index == a.next {
		a.gotCheckpoint()
	}
}

func (a *Agent) OnCollisionEnter(ev physics.Event) {
	if a.done || a.flight.Frozen() || !IsCrash(ev.Tag) {
		return
	}
	a.logger.Info("crashed", "into", ev.Tag.String(), "name", ev.Name)
	a.crash.crash(a)
}

// IsCrash reports whether touching something tagged tag destroys the
// aircraft. Other agents and checkpoints are harmless.
func IsCrash(tag physics.Tag) bool {
	return tag != physics.TagAgent && tag != physics.TagCheckpoint
}

func (a *Agent) AddReward(r float64) {
	a.pending += r
	a.episodeSum += r
}

// TakeReward returns the reward accrued since the last call.
func (a *Agent) TakeReward() float64 {
	r := a.pending
	a.pending = 0
	return r
}

// EndEpisode marks the episode finished. Only the first reason counts.
func (a *Agent) EndEpisode(reason TerminationReason) {
	if a.done {
		return
	}
	a.done = true
	a.reason = reason
	a.logger.Debug("episode ended", "episode", a.episode, "reason", reason.String(),
		"steps", a.stepCount, "reward", a.episodeSum)
}

// Summary describes the current episode.
func (a *Agent) Summary() dynamo.Episode {
	return dynamo.Episode{
		Agent:       a.name,
		Number:      a.episode,
		Steps:       a.stepCount,
		Reward:      a.episodeSum,
		Checkpoints: a.checkpoints,
		Reason:      a.reason.String(),
	}
}
