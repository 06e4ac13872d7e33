package physics

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/san-kum/airace/internal/geom"
)

// Collider is a static volume: a sphere when Radius > 0, otherwise the box
// [Min, Max]. Triggers report overlap without being obstacles.
type Collider struct {
	Name    string
	Tag     Tag
	Index   int
	Trigger bool

	Center geom.Vec3
	Radius float64
	Min    geom.Vec3
	Max    geom.Vec3

	id int
}

func SphereCollider(name string, tag Tag, center geom.Vec3, radius float64) *Collider {
	r := geom.Vec3{radius, radius, radius}
	return &Collider{
		Name:   name,
		Tag:    tag,
		Index:  -1,
		Center: center,
		Radius: radius,
		Min:    center.Sub(r),
		Max:    center.Add(r),
	}
}

func BoxCollider(name string, tag Tag, min, max geom.Vec3) *Collider {
	for i := 0; i < 3; i++ {
		if min[i] > max[i] {
			min[i], max[i] = max[i], min[i]
		}
	}
	return &Collider{
		Name:   name,
		Tag:    tag,
		Index:  -1,
		Center: min.Add(max).Mul(0.5),
		Min:    min,
		Max:    max,
	}
}

// Ground is a slab whose top face is the plane y = 0.
func Ground(extent float64) *Collider {
	return BoxCollider("ground", TagGround,
		geom.Vec3{-extent, -10, -extent},
		geom.Vec3{extent, 0, extent})
}

func (c *Collider) Bounds() rtreego.Rect {
	return boundsOf(c.Min, c.Max)
}

// touchesSphere reports whether a sphere at p with radius r overlaps c.
func (c *Collider) touchesSphere(p geom.Vec3, r float64) bool {
	if c.Radius > 0 {
		return p.Sub(c.Center).Len() <= c.Radius+r
	}
	var closest geom.Vec3
	for i := 0; i < 3; i++ {
		closest[i] = math.Max(c.Min[i], math.Min(p[i], c.Max[i]))
	}
	return p.Sub(closest).Len() <= r
}

func boundsOf(min, max geom.Vec3) rtreego.Rect {
	rect, err := rtreego.NewRectFromPoints(
		rtreego.Point{min[0], min[1], min[2]},
		rtreego.Point{max[0], max[1], max[2]},
	)
	if err != nil {
		panic(err)
	}
	return rect
}

func sphereBounds(p geom.Vec3, r float64) rtreego.Rect {
	ext := geom.Vec3{r, r, r}
	return boundsOf(p.Sub(ext), p.Add(ext))
}
