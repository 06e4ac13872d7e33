package physics

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/san-kum/airace/internal/dynamo"
	"github.com/san-kum/airace/internal/geom"
	"github.com/san-kum/airace/internal/integrators"
)

// R-tree branching factors for the static and per-tick moving trees.
const (
	treeMinChildren = 25
	treeMaxChildren = 50
)

func defaultIntegrator() dynamo.Integrator { return integrators.NewSemiImplicit() }

type WorldOptions struct {
	Dt            float64
	NewIntegrator func() dynamo.Integrator
	Logger        *slog.Logger
}

type bodyEntry struct {
	body     *Body
	listener Listener
	integ    dynamo.Integrator
	touching map[int]bool
}

func (e *bodyEntry) Bounds() rtreego.Rect {
	return sphereBounds(e.body.Position(), e.body.Params.Radius)
}

// World advances bodies at a fixed rate and reports enter-only trigger and
// contact events against static colliders and other bodies.
type World struct {
	dt            float64
	newIntegrator func() dynamo.Integrator
	logger        *slog.Logger

	static    *rtreego.Rtree
	colliders []*Collider
	bodies    []*bodyEntry
	pairs     map[[2]int]bool

	time  float64
	steps int
}

func NewWorld(opts WorldOptions) *World {
	if opts.Dt <= 0 {
		opts.Dt = DefaultDt
	}
	if opts.NewIntegrator == nil {
		opts.NewIntegrator = defaultIntegrator
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &World{
		dt:            opts.Dt,
		newIntegrator: opts.NewIntegrator,
		logger:        opts.Logger,
		static:        rtreego.NewTree(3, treeMinChildren, treeMaxChildren),
		pairs:         make(map[[2]int]bool),
	}
}

func (w *World) Dt() float64            { return w.dt }
func (w *World) Time() float64          { return w.time }
func (w *World) Steps() int             { return w.steps }
func (w *World) Colliders() []*Collider { return w.colliders }

func (w *World) AddCollider(c *Collider) {
	c.id = len(w.colliders)
	w.colliders = append(w.colliders, c)
	w.static.Insert(c)
}

// AddBody registers b. The listener may be nil.
func (w *World) AddBody(b *Body, l Listener) {
	w.bodies = append(w.bodies, &bodyEntry{
		body:     b,
		listener: l,
		integ:    w.newIntegrator(),
		touching: make(map[int]bool),
	})
}

func (w *World) Bodies() []*Body {
	out := make([]*Body, len(w.bodies))
	for i, e := range w.bodies {
		out[i] = e.body
	}
	return out
}

// Step integrates every awake body one tick, then dispatches events. A body
// whose state goes non-finite is left untouched and reported.
func (w *World) Step() error {
	for _, e := range w.bodies {
		b := e.body
		if b.asleep {
			continue
		}
		next := e.integ.Step(b, b.x, b.Force(), w.time, w.dt)
		if !next.IsValid() {
			w.logger.Warn("body state diverged", "body", b.Name, "step", w.steps)
			b.force = geom.Vec3{}
			return &dynamo.SimulationError{
				Step:    w.steps,
				Time:    w.time,
				Body:    b.Name,
				State:   next,
				Wrapped: dynamo.ErrInvalidState,
			}
		}
		b.setState(next)
	}

	w.time += w.dt
	w.steps++

	w.detectStatic()
	w.detectPairs()
	return nil
}

func (w *World) detectStatic() {
	for _, e := range w.bodies {
		if e.body.asleep {
			continue
		}
		pos, r := e.body.Position(), e.body.Params.Radius
		hits := w.static.SearchIntersect(e.Bounds())

		matched := make([]*Collider, 0, len(hits))
		for _, h := range hits {
			c := h.(*Collider)
			if c.touchesSphere(pos, r) {
				matched = append(matched, c)
			}
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].id < matched[j].id })

		now := make(map[int]bool, len(matched))
		for _, c := range matched {
			now[c.id] = true
			if e.touching[c.id] || e.listener == nil {
				continue
			}
			ev := Event{Tag: c.Tag, Name: c.Name, Index: c.Index, Trigger: c.Trigger}
			if c.Trigger {
				e.listener.OnTriggerEnter(ev)
			} else {
				e.listener.OnCollisionEnter(ev)
			}
		}
		e.touching = now
	}
}

func (w *World) detectPairs() {
	if len(w.bodies) < 2 {
		return
	}
	spatials := make([]rtreego.Spatial, 0, len(w.bodies))
	index := make(map[*bodyEntry]int, len(w.bodies))
	for i, e := range w.bodies {
		if e.body.asleep {
			continue
		}
		spatials = append(spatials, e)
		index[e] = i
	}
	moving := rtreego.NewTree(3, treeMinChildren, treeMaxChildren, spatials...)

	now := make(map[[2]int]bool)
	for i, e := range w.bodies {
		if e.body.asleep {
			continue
		}
		hits := moving.SearchIntersect(e.Bounds())
		others := make([]int, 0, len(hits))
		for _, h := range hits {
			j := index[h.(*bodyEntry)]
			if j <= i {
				continue
			}
			o := w.bodies[j].body
			if e.body.Position().Sub(o.Position()).Len() <= e.body.Params.Radius+o.Params.Radius {
				others = append(others, j)
			}
		}
		sort.Ints(others)
		for _, j := range others {
			key := [2]int{i, j}
			now[key] = true
			if w.pairs[key] {
				continue
			}
			w.notifyPair(e, w.bodies[j])
			w.notifyPair(w.bodies[j], e)
		}
	}
	w.pairs = now
}

func (w *World) notifyPair(e, other *bodyEntry) {
	if e.listener == nil {
		return
	}
	e.listener.OnCollisionEnter(Event{Tag: TagAgent, Name: other.body.Name, Index: -1})
}

func (w *World) String() string {
	return fmt.Sprintf("world(t=%.2f bodies=%d colliders=%d)", w.time, len(w.bodies), len(w.colliders))
}
