package race

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPath indicates a path with no segments to place checkpoints on.
	ErrEmptyPath = errors.New("race: empty path")

	// ErrNotBuilt indicates checkpoint queries before BuildCheckpoints.
	ErrNotBuilt = errors.New("race: checkpoints not built")

	// ErrUnregisteredAgent indicates an agent the arena has no rank for.
	ErrUnregisteredAgent = errors.New("race: agent not registered")

	ErrNoAgents = errors.New("race: no agents")

	// ErrActionCount indicates an action batch that does not match the roster.
	ErrActionCount = errors.New("race: action count does not match agent count")
)

// InvariantError is the panic value for states that cannot occur in a
// correctly wired arena.
type InvariantError struct {
	Op    string
	Index int
	Count int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("race: %s: checkpoint index %d out of range [0,%d)", e.Op, e.Index, e.Count)
}
