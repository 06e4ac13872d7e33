package race

import (
	"github.com/san-kum/airace/internal/geom"
	"github.com/san-kum/airace/internal/pathgeom"
)

type Checkpoint struct {
	Index       int       `json:"index"`
	Position    geom.Vec3 `json:"position"`
	Orientation geom.Quat `json:"orientation"`
	IsFinish    bool      `json:"is_finish"`
}

// Forward is the direction an aircraft should fly through the gate.
func (c Checkpoint) Forward() geom.Vec3 { return geom.ForwardOf(c.Orientation) }

// Layout is the ordered checkpoint sequence of a path: one gate per path
// unit, the last one being the finish line.
type Layout struct {
	checkpoints []Checkpoint
}

func BuildLayout(path pathgeom.Geometry) (*Layout, error) {
	if path == nil {
		return nil, ErrEmptyPath
	}
	n := path.MaxUnit()
	if n <= 0 {
		return nil, ErrEmptyPath
	}
	cps := make([]Checkpoint, n)
	for i := range cps {
		s := path.SampleByUnit(float64(i))
		cps[i] = Checkpoint{
			Index:       i,
			Position:    s.Position,
			Orientation: s.Orientation,
			IsFinish:    i == n-1,
		}
	}
	return &Layout{checkpoints: cps}, nil
}

func (l *Layout) Len() int { return len(l.checkpoints) }

// At panics with *InvariantError when i is out of range.
func (l *Layout) At(i int) Checkpoint {
	if i < 0 || i >= len(l.checkpoints) {
		panic(&InvariantError{Op: "checkpoint lookup", Index: i, Count: len(l.checkpoints)})
	}
	return l.checkpoints[i]
}

func (l *Layout) All() []Checkpoint {
	out := make([]Checkpoint, len(l.checkpoints))
	copy(out, l.checkpoints)
	return out
}

func (l *Layout) Finish() Checkpoint { return l.checkpoints[len(l.checkpoints)-1] }

func NextIndex(cur, n int) int {
	if n <= 0 {
		return 0
	}
	return (cur + 1) % n
}

func prevIndex(cur, n int) int {
	return (cur - 1 + n) % n
}
