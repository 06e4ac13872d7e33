package race

import (
	"log/slog"
	"math/rand"
	"sync"

	"github.com/san-kum/airace/internal/geom"
	"github.com/san-kum/airace/internal/physics"
	"github.com/san-kum/airace/internal/pathgeom"
	"github.com/san-kum/airace/internal/sched"
)

// Lateral spacing range between neighbouring spawn lanes.
const (
	DefaultSpacingMin = 9.0
	DefaultSpacingMax = 10.0
)

type ArenaOptions struct {
	Training   bool
	Dt         float64
	Seed       int64
	Rand       *rand.Rand
	Logger     *slog.Logger
	Scheduler  *sched.Scheduler
	SpacingMin float64
	SpacingMax float64
}

// Arena owns the checkpoint sequence and the agent roster, and places
// agents on the path when their episodes begin. Agents are referenced,
// not owned.
type Arena struct {
	mu       sync.RWMutex
	path     pathgeom.Geometry
	layout   *Layout
	agents   []*Agent
	ranks    map[*Agent]int
	rng      *rand.Rand
	training bool
	logger   *slog.Logger
	sched    *sched.Scheduler
	dt       float64

	spacingMin, spacingMax float64
}

func NewArena(path pathgeom.Geometry, opts ArenaOptions) *Arena {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(opts.Seed))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = sched.New()
	}
	if opts.Dt <= 0 {
		opts.Dt = physics.DefaultDt
	}
	if opts.SpacingMin <= 0 && opts.SpacingMax <= 0 {
		opts.SpacingMin, opts.SpacingMax = DefaultSpacingMin, DefaultSpacingMax
	}
	if opts.SpacingMax < opts.SpacingMin {
		opts.SpacingMax = opts.SpacingMin
	}
	return &Arena{
		path:       path,
		ranks:      make(map[*Agent]int),
		rng:        opts.Rand,
		training:   opts.Training,
		logger:     opts.Logger,
		sched:      opts.Scheduler,
		dt:         opts.Dt,
		spacingMin: opts.SpacingMin,
		spacingMax: opts.SpacingMax,
	}
}

func (a *Arena) Training() bool              { return a.training }
func (a *Arena) Path() pathgeom.Geometry     { return a.path }
func (a *Arena) Scheduler() *sched.Scheduler { return a.sched }
func (a *Arena) Logger() *slog.Logger        { return a.logger }
func (a *Arena) Dt() float64                 { return a.dt }

// BuildCheckpoints lays out one checkpoint per path unit. Calls after the
// first successful one are no-ops.
func (a *Arena) BuildCheckpoints() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.layout != nil {
		return nil
	}
	layout, err := BuildLayout(a.path)
	if err != nil {
		return err
	}
	a.layout = layout
	a.logger.Info("built checkpoints", "count", layout.Len())
	return nil
}

func (a *Arena) Layout() (*Layout, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.layout == nil {
		return nil, ErrNotBuilt
	}
	return a.layout, nil
}

func (a *Arena) NumCheckpoints() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.layout == nil {
		return 0
	}
	return a.layout.Len()
}

// Checkpoint panics with *InvariantError when i is out of range or the
// layout has not been built.
func (a *Arena) Checkpoint(i int) Checkpoint {
	a.mu.RLock()
	layout := a.layout
	a.mu.RUnlock()
	if layout == nil {
		panic(&InvariantError{Op: "checkpoint lookup before build", Index: i})
	}
	return layout.At(i)
}

// RegisterAgents fixes the roster. Rank is the position in agents. Once a
// roster is set, later calls leave it unchanged.
func (a *Arena) RegisterAgents(agents ...*Agent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.agents) > 0 {
		return
	}
	a.agents = append([]*Agent(nil), agents...)
	for i, ag := range a.agents {
		a.ranks[ag] = i
	}
	a.logger.Info("registered agents", "count", len(a.agents))
}

func (a *Arena) Agents() []*Agent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*Agent(nil), a.agents...)
}

func (a *Arena) Rank(agent *Agent) (int, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.ranks[agent]
	return r, ok
}

// ResetAgentPosition places agent at the checkpoint before its next one,
// offset sideways by its rank so the roster spawns in separate lanes. With
// randomize, the next checkpoint is first drawn uniformly.
func (a *Arena) ResetAgentPosition(agent *Agent, randomize bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.layout == nil {
		return ErrNotBuilt
	}
	rank, ok := a.ranks[agent]
	if !ok {
		return ErrUnregisteredAgent
	}
	n := a.layout.Len()

	if randomize {
		agent.setNextCheckpoint(a.rng.Intn(n))
	}
	prev := prevIndex(agent.NextCheckpointIndex(), n)

	s := a.path.SampleByUnit(float64(prev))
	spacing := a.spacingMin + a.rng.Float64()*(a.spacingMax-a.spacingMin)
	lane := float64(rank) - float64(len(a.agents))/2
	offset := geom.Right.Mul(lane * spacing)

	agent.body.SetPose(s.Position.Add(s.Orientation.Rotate(offset)), s.Orientation)
	a.logger.Debug("reset agent", "agent", agent.Name(), "next", agent.NextCheckpointIndex(), "rank", rank)
	return nil
}
