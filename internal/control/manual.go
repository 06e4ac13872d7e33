package control

import (
	"sync"

	"github.com/san-kum/airace/internal/dynamo"
)

// Manual replays the last action set from outside, e.g. keyboard input in
// the live view. It is safe to set from another goroutine.
type Manual struct {
	mu sync.Mutex
	u  dynamo.Control
}

func NewManual() *Manual {
	return &Manual{u: make(dynamo.Control, 3)}
}

// SetControl replaces the action. Vectors of the wrong length are ignored.
func (c *Manual) SetControl(u []float64) {
	if len(u) != 3 {
		return
	}
	c.mu.Lock()
	copy(c.u, u)
	c.mu.Unlock()
}

func (c *Manual) Compute(state dynamo.State, t float64) dynamo.Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(dynamo.Control, len(c.u))
	copy(out, c.u)
	return out
}
