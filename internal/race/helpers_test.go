package race_test

import (
	"fmt"
	"io"
	"log/slog"

	. "github.com/onsi/gomega"

	"github.com/san-kum/airace/internal/pathgeom"
	"github.com/san-kum/airace/internal/race"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func ovalPath(segments int) *pathgeom.SmoothPath {
	spec := pathgeom.DefaultTrackSpec()
	spec.Segments = segments
	path, err := pathgeom.Track("oval", spec)
	Expect(err).NotTo(HaveOccurred())
	return path
}

func neutral(n int) [][]float64 {
	actions := make([][]float64, n)
	for i := range actions {
		actions[i] = []float64{0, 0, 0}
	}
	return actions
}

// quietEnv is a training environment where nothing is credited or crashed
// unless a test arranges it.
func quietEnv(agents int, mutate func(*race.EnvOptions)) *race.Environment {
	opts := race.DefaultEnvOptions()
	opts.Agents = agents
	opts.Seed = 7
	opts.CheckpointSize = 0.001
	opts.GroundExtent = -1
	opts.Logger = quietLogger
	if mutate != nil {
		mutate(&opts)
	}
	env, err := race.NewEnvironment(ovalPath(10), opts)
	Expect(err).NotTo(HaveOccurred())
	_, err = env.Reset()
	Expect(err).NotTo(HaveOccurred())
	return env
}

type visualLog struct {
	events []string
}

func (v *visualLog) SetAircraftVisible(visible bool) {
	v.events = append(v.events, fmt.Sprintf("aircraft:%v", visible))
}

func (v *visualLog) SetEffectVisible(visible bool) {
	v.events = append(v.events, fmt.Sprintf("effect:%v", visible))
}

type params map[string]float64

func (p params) GetWithDefault(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}
