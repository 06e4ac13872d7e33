package race_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/airace/internal/geom"
	"github.com/san-kum/airace/internal/pathgeom"
	"github.com/san-kum/airace/internal/physics"
	"github.com/san-kum/airace/internal/race"
)

var _ = Describe("Checkpoint layout", func() {
	It("places one checkpoint per path unit with the finish last", func() {
		path := ovalPath(10)
		layout, err := race.BuildLayout(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(layout.Len()).To(Equal(10))

		for i, cp := range layout.All() {
			Expect(cp.Index).To(Equal(i))
			Expect(cp.IsFinish).To(Equal(i == 9))
			s := path.SampleByUnit(float64(i))
			Expect(cp.Position.ApproxEqual(s.Position)).To(BeTrue())
		}
		Expect(layout.Finish().Index).To(Equal(9))
	})

	It("rejects an empty path", func() {
		_, err := race.BuildLayout(pathgeom.NewSmoothPath(nil))
		Expect(err).To(MatchError(race.ErrEmptyPath))
	})

	It("panics with an invariant error on an out-of-range index", func() {
		layout, err := race.BuildLayout(ovalPath(5))
		Expect(err).NotTo(HaveOccurred())
		Expect(func() { layout.At(5) }).To(PanicWith(BeAssignableToTypeOf(&race.InvariantError{})))
		Expect(func() { layout.At(-1) }).To(Panic())
	})

	It("advances indices modulo the checkpoint count", func() {
		Expect(race.NextIndex(0, 10)).To(Equal(1))
		Expect(race.NextIndex(9, 10)).To(Equal(0))
		Expect(race.NextIndex(0, 1)).To(Equal(0))
	})
})

var _ = Describe("Arena", func() {
	var (
		arena *race.Arena
		agent *race.Agent
	)

	BeforeEach(func() {
		arena = race.NewArena(ovalPath(10), race.ArenaOptions{Training: true, Seed: 1, Logger: quietLogger})
		agent = race.NewAgent(arena, physics.NewBody("solo", physics.DefaultBodyParams()), race.AgentOptions{Name: "solo"})
	})

	It("builds checkpoints once", func() {
		Expect(arena.BuildCheckpoints()).To(Succeed())
		first, err := arena.Layout()
		Expect(err).NotTo(HaveOccurred())
		Expect(arena.BuildCheckpoints()).To(Succeed())
		second, _ := arena.Layout()
		Expect(second).To(BeIdenticalTo(first))
		Expect(arena.NumCheckpoints()).To(Equal(10))
	})

	It("fails to build on an empty path", func() {
		empty := race.NewArena(pathgeom.NewSmoothPath(nil), race.ArenaOptions{Logger: quietLogger})
		Expect(empty.BuildCheckpoints()).To(MatchError(race.ErrEmptyPath))
	})

	It("keeps the first roster", func() {
		other := race.NewAgent(arena, physics.NewBody("other", physics.DefaultBodyParams()), race.AgentOptions{Name: "other"})
		arena.RegisterAgents(agent)
		arena.RegisterAgents(other, agent)

		Expect(arena.Agents()).To(HaveLen(1))
		rank, ok := arena.Rank(agent)
		Expect(ok).To(BeTrue())
		Expect(rank).To(Equal(0))
		_, ok = arena.Rank(other)
		Expect(ok).To(BeFalse())
	})

	It("refuses to reset before build or registration", func() {
		arena.RegisterAgents(agent)
		Expect(arena.ResetAgentPosition(agent, false)).To(MatchError(race.ErrNotBuilt))

		Expect(arena.BuildCheckpoints()).To(Succeed())
		stranger := race.NewAgent(arena, physics.NewBody("x", physics.DefaultBodyParams()), race.AgentOptions{Name: "x"})
		Expect(arena.ResetAgentPosition(stranger, false)).To(MatchError(race.ErrUnregisteredAgent))
	})

	It("preserves the next checkpoint when not randomizing", func() {
		Expect(arena.BuildCheckpoints()).To(Succeed())
		arena.RegisterAgents(agent)

		Expect(arena.ResetAgentPosition(agent, true)).To(Succeed())
		next := agent.NextCheckpointIndex()
		for i := 0; i < 20; i++ {
			Expect(arena.ResetAgentPosition(agent, false)).To(Succeed())
			Expect(agent.NextCheckpointIndex()).To(Equal(next))
		}

		prev := (next - 1 + 10) % 10
		s := arena.Path().SampleByUnit(float64(prev))
		// A single agent sits half a lane left of the path.
		lateral := agent.Body().Position().Sub(s.Position).Dot(geom.RightOf(s.Orientation))
		Expect(lateral).To(BeNumerically("<=", -4.5))
		Expect(lateral).To(BeNumerically(">=", -5.0))
	})

	It("draws the next checkpoint uniformly when randomizing", func() {
		Expect(arena.BuildCheckpoints()).To(Succeed())
		arena.RegisterAgents(agent)

		const draws = 10000
		counts := make([]int, 10)
		for i := 0; i < draws; i++ {
			Expect(arena.ResetAgentPosition(agent, true)).To(Succeed())
			counts[agent.NextCheckpointIndex()]++
		}
		for i, c := range counts {
			Expect(math.Abs(float64(c)-draws/10)).To(BeNumerically("<", 150), "checkpoint %d drawn %d times", i, c)
		}
	})
})

var _ = Describe("Spawn layout", func() {
	It("puts four agents in distinct lateral lanes behind the first checkpoint", func() {
		env := quietEnv(4, func(o *race.EnvOptions) { o.Training = false })
		path := env.Arena().Path()
		base := path.SampleByUnit(9)
		right := geom.RightOf(base.Orientation)
		fwd := geom.ForwardOf(base.Orientation)

		lanes := make([]float64, 0, 4)
		for _, a := range env.Agents() {
			Expect(a.NextCheckpointIndex()).To(Equal(0))
			offset := a.Body().Position().Sub(base.Position)
			Expect(math.Abs(offset.Dot(fwd))).To(BeNumerically("<", 1e-6))
			Expect(a.Body().Rotation().ApproxEqualThreshold(base.Orientation, 1e-9)).To(BeTrue())
			lanes = append(lanes, offset.Dot(right))
		}

		Expect(lanes[0]).To(BeNumerically("~", -19, 1.0))
		Expect(lanes[1]).To(BeNumerically("~", -9.5, 0.5))
		Expect(lanes[2]).To(BeNumerically("~", 0, 1e-6))
		Expect(lanes[3]).To(BeNumerically("~", 9.5, 0.5))
		for i := 1; i < len(lanes); i++ {
			Expect(lanes[i] - lanes[i-1]).To(BeNumerically(">", 7.9))
		}
	})
})
