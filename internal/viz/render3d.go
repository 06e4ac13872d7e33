package viz

import (
	"math"
	"sort"

	"github.com/san-kum/airace/internal/geom"
)

// Camera orbits the origin and projects world points with a simple
// perspective divide.
type Camera struct {
	Distance         float64
	Near             float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 3, Near: 0.1, RotX: 0.6, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p geom.Vec3) geom.Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p[1], p[2] = p[1]*cx-p[2]*sx, p[1]*sx+p[2]*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p[0], p[2] = p[0]*cy+p[2]*sy, -p[0]*sy+p[2]*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p[0], p[1] = p[0]*cz-p[1]*sz, p[0]*sz+p[1]*cz
	return p
}

// Project maps a point in normalized scene space (roughly the unit cube)
// to canvas dots. It reports depth and whether the point lands on screen.
func (c *Camera) Project(p geom.Vec3, dotsW, dotsH int) (int, int, float64, bool) {
	rot := c.rotate(p).Mul(c.Zoom)
	if rot[2] >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot[2])
	pScale := math.Min(float64(dotsW), float64(dotsH)) / 2.2
	sx := int(rot[0]*scale*pScale) + dotsW/2
	sy := int(-rot[1]*scale*pScale) + dotsH/2
	return sx, sy, rot[2], sx >= 0 && sx < dotsW && sy >= 0 && sy < dotsH
}

type Edge struct {
	Start, End geom.Vec3
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe              { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e geom.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p geom.Vec3)   { w.Edges = append(w.Edges, Edge{p, p}) }
func (w *Wireframe) Clear()                 { w.Edges = w.Edges[:0] }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render3D draws the wireframe back to front.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	dw, dh := c.DotsWide(), c.DotsHigh()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, dw, dh)
		x2, y2, d2, v2 := cam.Project(e.End, dw, dh)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Set(e.x1, e.y1)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

// SceneWireframe builds gate rings, the course line and aircraft markers
// for a frame, normalized so the course fits in the unit cube.
func SceneWireframe(f Frame) *Wireframe {
	w := NewWireframe()
	if len(f.Gates) == 0 {
		return w
	}

	center, extent := f.bounds()
	norm := func(p geom.Vec3) geom.Vec3 { return p.Sub(center).Mul(1 / extent) }

	const segments = 12
	for i, g := range f.Gates {
		next := f.Gates[(i+1)%len(f.Gates)]
		w.AddEdge(norm(g.Position), norm(next.Position))

		right := geom.RightOf(g.Orientation).Mul(g.Radius)
		up := geom.TransformDirection(g.Orientation, geom.Up).Mul(g.Radius)
		prev := g.Position.Add(right)
		for s := 1; s <= segments; s++ {
			a := 2 * math.Pi * float64(s) / segments
			p := g.Position.Add(right.Mul(math.Cos(a))).Add(up.Mul(math.Sin(a)))
			w.AddEdge(norm(prev), norm(p))
			prev = p
		}
	}

	for _, a := range f.Agents {
		if !a.Visible && !a.Exploding {
			continue
		}
		p := norm(a.Position)
		if a.Exploding {
			d := 0.02
			w.AddEdge(p.Add(geom.Vec3{-d, -d, 0}), p.Add(geom.Vec3{d, d, 0}))
			w.AddEdge(p.Add(geom.Vec3{-d, d, 0}), p.Add(geom.Vec3{d, -d, 0}))
			continue
		}
		w.AddPoint(p)
		w.AddEdge(p, p.Add(a.Heading.Mul(0.05)))
	}
	return w
}
