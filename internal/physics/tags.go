package physics

import "fmt"

// Tag classifies what a body touched.
type Tag int

const (
	TagUntagged Tag = iota
	TagAgent
	TagCheckpoint
	TagGround
	TagObstacle
)

var tagNames = map[Tag]string{
	TagUntagged:   "untagged",
	TagAgent:      "agent",
	TagCheckpoint: "checkpoint",
	TagGround:     "ground",
	TagObstacle:   "obstacle",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

func ParseTag(s string) (Tag, error) {
	for tag, name := range tagNames {
		if name == s {
			return tag, nil
		}
	}
	return TagUntagged, fmt.Errorf("unknown tag: %s", s)
}

// Event is delivered to a body's listener when it starts touching something.
type Event struct {
	Tag     Tag
	Name    string
	Index   int
	Trigger bool
}

type Listener interface {
	OnTriggerEnter(ev Event)
	OnCollisionEnter(ev Event)
}
