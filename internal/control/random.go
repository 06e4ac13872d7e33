package control

import (
	"math/rand"

	"github.com/san-kum/airace/internal/dynamo"
)

// Random samples discrete actions: pitch and yaw codes from {0, 1, 2}
// (2 meaning -1) and boost from {0, 1}.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{
		float64(r.rng.Intn(3)),
		float64(r.rng.Intn(3)),
		float64(r.rng.Intn(2)),
	}
}
