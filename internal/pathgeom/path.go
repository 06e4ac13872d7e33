// Package pathgeom describes closed race paths and samples them by path
// unit or by distance.
//
// A path unit is the native parameter of a waypoint loop: unit i is the
// i-th waypoint and fractional units interpolate along the segment that
// follows it. Units outside [0, MaxUnit) wrap around the loop, so sampling
// is defined for every finite input.
package pathgeom

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/airace/internal/geom"
)

// Sample is a pose on the path.
type Sample struct {
	Unit        float64
	Position    geom.Vec3
	Orientation geom.Quat
}

// Geometry is the path provider consumed by the checkpoint layout and the
// spawn logic. Both methods must be pure.
type Geometry interface {
	SampleByUnit(unit float64) Sample
	MaxUnit() int
}

// Waypoint is a control point of a SmoothPath. Roll banks the path frame
// around its tangent, in degrees.
type Waypoint struct {
	Position geom.Vec3 `yaml:"position" json:"position"`
	Roll     float64   `yaml:"roll" json:"roll"`
}

const defaultResolution = 32

// SmoothPath is a closed Catmull-Rom spline through its waypoints.
type SmoothPath struct {
	waypoints  []Waypoint
	resolution int
	distances  []float64
}

// NewSmoothPath builds a closed path through waypoints. The slice is copied.
func NewSmoothPath(waypoints []Waypoint) *SmoothPath {
	p := &SmoothPath{
		waypoints:  append([]Waypoint(nil), waypoints...),
		resolution: defaultResolution,
	}
	p.buildDistanceTable()
	return p
}

// MaxUnit is the number of segments, which equals the number of waypoints
// for a closed loop.
func (p *SmoothPath) MaxUnit() int { return len(p.waypoints) }

// Waypoints returns a copy of the control points.
func (p *SmoothPath) Waypoints() []Waypoint {
	return append([]Waypoint(nil), p.waypoints...)
}

// SampleByUnit evaluates the path at unit, wrapping modulo MaxUnit. An
// empty path yields the zero sample with identity orientation.
func (p *SmoothPath) SampleByUnit(unit float64) Sample {
	n := len(p.waypoints)
	if n == 0 {
		return Sample{Unit: 0, Orientation: geom.Identity()}
	}
	u := p.wrapUnit(unit)
	return Sample{
		Unit:        u,
		Position:    p.position(u),
		Orientation: p.orientation(u),
	}
}

// Length is the total arc length of the loop.
func (p *SmoothPath) Length() float64 {
	if len(p.distances) == 0 {
		return 0
	}
	return p.distances[len(p.distances)-1]
}

// UnitToDistance converts a path unit into arc length from unit 0.
func (p *SmoothPath) UnitToDistance(unit float64) float64 {
	if len(p.waypoints) == 0 {
		return 0
	}
	idx := p.wrapUnit(unit) * float64(p.resolution)
	i := int(idx)
	if i >= len(p.distances)-1 {
		return p.Length()
	}
	frac := idx - float64(i)
	return p.distances[i] + frac*(p.distances[i+1]-p.distances[i])
}

// DistanceToUnit converts arc length into a path unit, wrapping modulo
// Length.
func (p *SmoothPath) DistanceToUnit(distance float64) float64 {
	length := p.Length()
	if length == 0 {
		return 0
	}
	d := math.Mod(distance, length)
	if d < 0 {
		d += length
	}
	i := sort.SearchFloat64s(p.distances, d)
	if i == 0 {
		return 0
	}
	lo, hi := p.distances[i-1], p.distances[i]
	frac := 0.0
	if hi > lo {
		frac = (d - lo) / (hi - lo)
	}
	return (float64(i-1) + frac) / float64(p.resolution)
}

// SampleByDistance evaluates the path at an arc length.
func (p *SmoothPath) SampleByDistance(distance float64) Sample {
	return p.SampleByUnit(p.DistanceToUnit(distance))
}

func (p *SmoothPath) wrapUnit(unit float64) float64 {
	n := float64(len(p.waypoints))
	u := math.Mod(unit, n)
	if u < 0 {
		u += n
	}
	if u >= n {
		u = 0
	}
	return u
}

func (p *SmoothPath) point(i int) geom.Vec3 {
	n := len(p.waypoints)
	return p.waypoints[((i%n)+n)%n].Position
}

func (p *SmoothPath) segment(u float64) (i int, t float64) {
	i = int(math.Floor(u))
	return i, u - float64(i)
}

func (p *SmoothPath) position(u float64) geom.Vec3 {
	i, t := p.segment(u)
	p0, p1, p2, p3 := p.point(i-1), p.point(i), p.point(i+1), p.point(i+2)
	t2, t3 := t*t, t*t*t
	a := p1.Mul(2)
	b := p2.Sub(p0).Mul(t)
	c := p0.Mul(2).Sub(p1.Mul(5)).Add(p2.Mul(4)).Sub(p3).Mul(t2)
	d := p1.Mul(3).Sub(p0).Sub(p2.Mul(3)).Add(p3).Mul(t3)
	return a.Add(b).Add(c).Add(d).Mul(0.5)
}

func (p *SmoothPath) tangent(u float64) geom.Vec3 {
	i, t := p.segment(u)
	p0, p1, p2, p3 := p.point(i-1), p.point(i), p.point(i+1), p.point(i+2)
	b := p2.Sub(p0)
	c := p0.Mul(2).Sub(p1.Mul(5)).Add(p2.Mul(4)).Sub(p3).Mul(2 * t)
	d := p1.Mul(3).Sub(p0).Sub(p2.Mul(3)).Add(p3).Mul(3 * t * t)
	tan := b.Add(c).Add(d).Mul(0.5)
	if tan.Len() < 1e-9 {
		tan = p2.Sub(p1)
	}
	return tan
}

func (p *SmoothPath) orientation(u float64) geom.Quat {
	i, t := p.segment(u)
	n := len(p.waypoints)
	r0 := p.waypoints[((i%n)+n)%n].Roll
	r1 := p.waypoints[(((i+1)%n)+n)%n].Roll
	roll := r0 + (r1-r0)*t

	q := geom.LookRotation(p.tangent(u), geom.Up)
	if roll != 0 {
		q = q.Mul(mgl64.QuatRotate(mgl64.DegToRad(roll), geom.Forward)).Normalize()
	}
	return q
}

func (p *SmoothPath) buildDistanceTable() {
	n := len(p.waypoints)
	if n == 0 {
		p.distances = nil
		return
	}
	steps := n * p.resolution
	p.distances = make([]float64, steps+1)
	prev := p.position(0)
	for k := 1; k <= steps; k++ {
		u := float64(k) / float64(p.resolution)
		if k == steps {
			u = 0
		}
		cur := p.position(u)
		p.distances[k] = p.distances[k-1] + cur.Sub(prev).Len()
		prev = cur
	}
}
