package viz

import (
	"math"
	"sort"
	"sync"

	"github.com/san-kum/airace/internal/geom"
	"github.com/san-kum/airace/internal/race"
)

type Gate struct {
	Index       int
	Position    geom.Vec3
	Orientation geom.Quat
	Radius      float64
	IsFinish    bool
}

type AgentFrame struct {
	Name        string
	Position    geom.Vec3
	Heading     geom.Vec3
	Next        int
	Episode     int
	Reward      float64
	Checkpoints int
	Frozen      bool
	Visible     bool
	Exploding   bool
}

// Frame is a copy of everything the race view draws, taken on the
// simulation goroutine so the UI never touches live state.
type Frame struct {
	Tick     int
	Time     float64
	Training bool
	Gates    []Gate
	Agents   []AgentFrame
	// Rewards holds the reward of every finished episode so far.
	Rewards []float64
}

// Capture snapshots env. vis may be nil, in which case every aircraft is
// shown.
func Capture(env *race.Environment, vis *Visibility, rewards []float64) Frame {
	f := Frame{
		Tick:     env.Steps(),
		Time:     float64(env.Steps()) * env.Dt(),
		Training: env.Arena().Training(),
		Rewards:  append([]float64(nil), rewards...),
	}

	if layout, err := env.Arena().Layout(); err == nil {
		for _, cp := range layout.All() {
			f.Gates = append(f.Gates, Gate{
				Index:       cp.Index,
				Position:    cp.Position,
				Orientation: cp.Orientation,
				Radius:      env.CheckpointSize(),
				IsFinish:    cp.IsFinish,
			})
		}
	}

	for _, a := range env.Agents() {
		body := a.Body()
		summary := a.Summary()
		af := AgentFrame{
			Name:        a.Name(),
			Position:    body.Position(),
			Heading:     geom.ForwardOf(body.Rotation()),
			Next:        a.NextCheckpointIndex(),
			Episode:     summary.Number,
			Reward:      summary.Reward,
			Checkpoints: summary.Checkpoints,
			Frozen:      a.Frozen(),
			Visible:     true,
		}
		if vis != nil {
			af.Visible = vis.Aircraft(a.Name())
			af.Exploding = vis.Effect(a.Name())
		}
		f.Agents = append(f.Agents, af)
	}
	return f
}

// Standings orders agents by checkpoints passed, then reward.
func (f Frame) Standings() []AgentFrame {
	out := append([]AgentFrame(nil), f.Agents...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Checkpoints != out[j].Checkpoints {
			return out[i].Checkpoints > out[j].Checkpoints
		}
		return out[i].Reward > out[j].Reward
	})
	return out
}

// bounds returns the centre of the gates and half the largest side of
// their bounding box, never less than one.
func (f Frame) bounds() (geom.Vec3, float64) {
	if len(f.Gates) == 0 {
		return geom.Vec3{}, 1
	}
	lo, hi := f.Gates[0].Position, f.Gates[0].Position
	for _, g := range f.Gates[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], g.Position[k])
			hi[k] = math.Max(hi[k], g.Position[k])
		}
	}
	extent := 1.0
	for k := 0; k < 3; k++ {
		extent = math.Max(extent, (hi[k]-lo[k])/2)
	}
	return lo.Add(hi).Mul(0.5), extent
}

// Visibility records the crash-cycle presentation of each aircraft. It is
// safe for concurrent use.
type Visibility struct {
	mu    sync.Mutex
	state map[string]*visual
}

type visual struct {
	aircraft, effect bool
}

func NewVisibility() *Visibility {
	return &Visibility{state: make(map[string]*visual)}
}

// For returns the presenter for one agent, suitable for
// race.EnvOptions.Visuals.
func (v *Visibility) For(name string) race.Visuals {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.state[name]; !ok {
		v.state[name] = &visual{aircraft: true}
	}
	return agentVisuals{v: v, name: name}
}

func (v *Visibility) Aircraft(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.state[name]
	return !ok || s.aircraft
}

func (v *Visibility) Effect(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.state[name]
	return ok && s.effect
}

type agentVisuals struct {
	v    *Visibility
	name string
}

func (a agentVisuals) SetAircraftVisible(visible bool) {
	a.v.mu.Lock()
	a.v.state[a.name].aircraft = visible
	a.v.mu.Unlock()
}

func (a agentVisuals) SetEffectVisible(visible bool) {
	a.v.mu.Lock()
	a.v.state[a.name].effect = visible
	a.v.mu.Unlock()
}
