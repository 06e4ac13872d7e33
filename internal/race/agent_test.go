package race_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/airace/internal/config"
	"github.com/san-kum/airace/internal/flight"
	"github.com/san-kum/airace/internal/geom"
	"github.com/san-kum/airace/internal/physics"
	"github.com/san-kum/airace/internal/race"
)

func stepN(env *race.Environment, n int) []race.StepResult {
	var all []race.StepResult
	for i := 0; i < n; i++ {
		results, err := env.Step(neutral(len(env.Agents())))
		Expect(err).NotTo(HaveOccurred())
		all = append(all, results...)
	}
	return all
}

func countReason(results []race.StepResult, reason race.TerminationReason) int {
	n := 0
	for _, r := range results {
		if r.Done && r.Reason == reason {
			n++
		}
	}
	return n
}

var _ = Describe("IsCrash", func() {
	DescribeTable("classifies contact tags",
		func(tag physics.Tag, crash bool) {
			Expect(race.IsCrash(tag)).To(Equal(crash))
		},
		Entry("agent", physics.TagAgent, false),
		Entry("checkpoint", physics.TagCheckpoint, false),
		Entry("ground", physics.TagGround, true),
		Entry("obstacle", physics.TagObstacle, true),
		Entry("untagged", physics.TagUntagged, true),
	)
})

var _ = Describe("Training agent", func() {
	It("observes nine values relative to the next checkpoint", func() {
		env := quietEnv(1, nil)
		a := env.Agents()[0]
		obs := a.CollectObservations()
		Expect(obs).To(HaveLen(race.ObservationSize))

		Expect(geom.Vec3{obs[0], obs[1], obs[2]}.Len()).To(BeNumerically("~", 0, 1e-12))

		cp := env.Arena().Checkpoint(a.NextCheckpointIndex())
		toNext := geom.TransformDirection(a.Body().Rotation(), geom.Vec3{obs[3], obs[4], obs[5]})
		Expect(toNext.ApproxEqualThreshold(cp.Position.Sub(a.Body().Position()), 1e-6)).To(BeTrue())
		Expect(geom.Vec3{obs[6], obs[7], obs[8]}.Len()).To(BeNumerically("~", 1, 1e-9))
	})

	It("accrues exactly the step budget over a full-length episode", func() {
		env := quietEnv(2, func(o *race.EnvOptions) {
			o.MaxSteps = 50
			o.StepTimeout = 1000
		})

		sums := make([]float64, 2)
		var episodes []race.StepResult
		for tick := 1; tick <= 50; tick++ {
			results, err := env.Step(neutral(2))
			Expect(err).NotTo(HaveOccurred())
			for i, r := range results {
				sums[i] += r.Reward
				if r.Done {
					Expect(tick).To(Equal(50))
					episodes = append(episodes, r)
				}
			}
		}

		Expect(episodes).To(HaveLen(2))
		for i, r := range episodes {
			Expect(r.Reason).To(Equal(race.MaxStepsReached))
			Expect(r.Episode).NotTo(BeNil())
			Expect(r.Episode.Steps).To(Equal(50))
			Expect(r.Episode.Checkpoints).To(Equal(0))
			Expect(r.Episode.Reward).To(BeNumerically("~", -1, 1e-9))
			Expect(sums[i]).To(BeNumerically("~", -1, 1e-9))
		}
		for _, a := range env.Agents() {
			Expect(a.StepCount()).To(Equal(0))
			Expect(a.Episode()).To(Equal(2))
		}
	})

	It("applies the timeout penalty exactly once", func() {
		env := quietEnv(1, func(o *race.EnvOptions) {
			o.MaxSteps = 1000
			o.StepTimeout = 10
		})

		results := stepN(env, 10)
		Expect(countReason(results, race.Timeout)).To(Equal(0))

		results = stepN(env, 1)
		Expect(results[0].Done).To(BeTrue())
		Expect(results[0].Reason).To(Equal(race.Timeout))
		Expect(results[0].Reward).To(BeNumerically("~", -1.0/1000-0.5, 1e-12))

		results = stepN(env, 5)
		Expect(countReason(results, race.Timeout)).To(Equal(0))
	})

	It("reports the post-reset observation alongside the terminal one", func() {
		env := quietEnv(1, func(o *race.EnvOptions) {
			o.StepTimeout = 5
		})
		a := env.Agents()[0]

		var ended race.StepResult
		for ended.Agent == "" {
			results, err := env.Step(neutral(1))
			Expect(err).NotTo(HaveOccurred())
			if results[0].Done {
				ended = results[0]
			}
		}
		Expect(ended.NextObservation).To(Equal(a.CollectObservations()))
		Expect(geom.Vec3{ended.NextObservation[0], ended.NextObservation[1], ended.NextObservation[2]}.Len()).To(BeNumerically("~", 0, 1e-12))
		Expect(geom.Vec3{ended.Observation[0], ended.Observation[1], ended.Observation[2]}.Len()).To(BeNumerically(">", 0))
	})

	It("pushes the timeout back when a checkpoint is reached", func() {
		env := quietEnv(1, func(o *race.EnvOptions) {
			o.MaxSteps = 1000
			o.StepTimeout = 10
		})
		a := env.Agents()[0]

		stepN(env, 8)
		a.OnTriggerEnter(physics.Event{Tag: physics.TagCheckpoint, Index: a.NextCheckpointIndex(), Trigger: true})

		results := stepN(env, 10)
		Expect(countReason(results, race.Timeout)).To(Equal(0))
		results = stepN(env, 1)
		Expect(results[0].Reason).To(Equal(race.Timeout))
	})

	It("credits only the next checkpoint's trigger", func() {
		env := quietEnv(1, nil)
		a := env.Agents()[0]
		next := a.NextCheckpointIndex()

		a.OnTriggerEnter(physics.Event{Tag: physics.TagCheckpoint, Index: (next + 5) % 10})
		Expect(a.NextCheckpointIndex()).To(Equal(next))
		Expect(a.TakeReward()).To(BeZero())

		a.OnTriggerEnter(physics.Event{Tag: physics.TagCheckpoint, Index: next})
		Expect(a.NextCheckpointIndex()).To(Equal(race.NextIndex(next, 10)))
		Expect(a.TakeReward()).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("credits proximity at most once per tick", func() {
		env := quietEnv(1, func(o *race.EnvOptions) {
			o.Params = params{race.ParamCheckpointRadius: 1e9}
		})
		a := env.Agents()[0]
		start := a.NextCheckpointIndex()

		Expect(a.Act([]float64{0, 0, 0})).To(Succeed())
		Expect(a.NextCheckpointIndex()).To(Equal(race.NextIndex(start, 10)))

		a.OnTriggerEnter(physics.Event{Tag: physics.TagCheckpoint, Index: a.NextCheckpointIndex()})
		Expect(a.NextCheckpointIndex()).To(Equal(race.NextIndex(start, 10)))
		Expect(a.TakeReward()).To(BeNumerically("~", 0.5-1.0/race.DefaultTrainingSteps, 1e-12))

		Expect(a.Act([]float64{0, 0, 0})).To(Succeed())
		Expect(a.NextCheckpointIndex()).To(Equal((start + 2) % 10))
	})

	It("picks up a checkpoint radius changed mid-episode", func() {
		store := config.NewEnvParams(nil)
		env := quietEnv(1, func(o *race.EnvOptions) {
			o.Params = store
		})
		a := env.Agents()[0]
		start := a.NextCheckpointIndex()

		stepN(env, 3)
		Expect(a.NextCheckpointIndex()).To(Equal(start))

		store.Set(race.ParamCheckpointRadius, 1e9)
		stepN(env, 1)
		Expect(a.NextCheckpointIndex()).To(Equal(race.NextIndex(start, 10)))
		Expect(a.Summary().Checkpoints).To(Equal(1))
	})

	It("keeps zeroed rewards instead of falling back to the defaults", func() {
		env := quietEnv(1, func(o *race.EnvOptions) {
			o.Rewards = race.Rewards{}
			o.MaxSteps = 20
			o.StepTimeout = 5
		})

		results := stepN(env, 20)
		Expect(countReason(results, race.Timeout)).To(BeNumerically(">", 0))
		for _, r := range results {
			Expect(r.Reward).To(BeZero())
		}
	})

	It("wraps past the finish back to the first checkpoint", func() {
		env := quietEnv(1, nil)
		a := env.Agents()[0]
		for i := 0; i < 10; i++ {
			a.OnTriggerEnter(physics.Event{Tag: physics.TagCheckpoint, Index: a.NextCheckpointIndex()})
			Expect(a.Act([]float64{0, 0, 0})).To(Succeed())
		}
		Expect(a.Summary().Checkpoints).To(Equal(10))
	})

	It("ends the episode once on a crash with a single penalty", func() {
		env := quietEnv(1, nil)
		a := env.Agents()[0]

		a.OnCollisionEnter(physics.Event{Tag: physics.TagGround})
		a.OnCollisionEnter(physics.Event{Tag: physics.TagObstacle})
		Expect(a.Frozen()).To(BeFalse())

		results := stepN(env, 1)
		Expect(results[0].Done).To(BeTrue())
		Expect(results[0].Reason).To(Equal(race.Collision))
		Expect(results[0].Reward).To(BeNumerically("~", -1, 1e-12))

		results = stepN(env, 1)
		Expect(results[0].Done).To(BeFalse())
	})

	It("ignores contact with agents and checkpoints", func() {
		env := quietEnv(1, nil)
		a := env.Agents()[0]
		a.OnCollisionEnter(physics.Event{Tag: physics.TagAgent})
		a.OnCollisionEnter(physics.Event{Tag: physics.TagCheckpoint})
		done, _ := a.Done()
		Expect(done).To(BeFalse())
	})

	It("crashes into the ground through the physics world", func() {
		env := quietEnv(1, func(o *race.EnvOptions) {
			o.GroundExtent = race.DefaultGroundExtent
			o.MaxSteps = 100000
			o.StepTimeout = 100000
		})
		a := env.Agents()[0]
		a.Body().SetPosition(geom.Vec3{0, 30, 0})
		a.Body().SetRotation(geom.Euler(45, 0, 0))

		crashed := false
		for i := 0; i < 500 && !crashed; i++ {
			results, err := env.Step([][]float64{{1, 0, 1}})
			Expect(err).NotTo(HaveOccurred())
			crashed = results[0].Done && results[0].Reason == race.Collision
		}
		Expect(crashed).To(BeTrue())
	})

	It("holds the previous controls on a malformed action", func() {
		env := quietEnv(1, nil)
		a := env.Agents()[0]

		_, err := env.Step([][]float64{{1, 1, 1}})
		Expect(err).NotTo(HaveOccurred())
		results, err := env.Step([][]float64{{math.NaN(), 0, 0}})
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].ActionErr).To(MatchError(flight.ErrMalformedAction))
		Expect(a.Flight().Action()).To(Equal(flight.Action{Pitch: 1, Yaw: 1, Boost: true}))

		_, err = env.Step(neutral(2))
		Expect(err).To(MatchError(race.ErrActionCount))
	})
})

var _ = Describe("Racing agent", func() {
	var (
		env  *race.Environment
		logs map[string]*visualLog
	)

	BeforeEach(func() {
		logs = map[string]*visualLog{}
		env = quietEnv(2, func(o *race.EnvOptions) {
			o.Training = false
			o.Visuals = func(name string) race.Visuals {
				logs[name] = &visualLog{}
				return logs[name]
			}
		})
	})

	It("has no step limit", func() {
		Expect(env.Agents()[0].MaxSteps()).To(Equal(0))
	})

	It("ignores a configured step limit", func() {
		capped := quietEnv(2, func(o *race.EnvOptions) {
			o.Training = false
			o.MaxSteps = 1500
		})
		for _, a := range capped.Agents() {
			Expect(a.MaxSteps()).To(Equal(0))
		}
	})

	It("freezes, respawns and resumes on sim time", func() {
		a := env.Agents()[0]
		other := env.Agents()[1]
		stepN(env, 20)

		a.OnCollisionEnter(physics.Event{Tag: physics.TagObstacle})
		Expect(a.Frozen()).To(BeTrue())
		Expect(other.Frozen()).To(BeFalse())
		Expect(logs[a.Name()].events).To(Equal([]string{"aircraft:false", "effect:true"}))
		done, _ := a.Done()
		Expect(done).To(BeFalse())

		a.OnCollisionEnter(physics.Event{Tag: physics.TagGround})
		Expect(logs[a.Name()].events).To(HaveLen(2))

		results := stepN(env, 99)
		Expect(a.Frozen()).To(BeTrue())
		Expect(a.Body().Velocity().Len()).To(BeZero())
		for _, r := range results {
			Expect(r.Reward).To(BeZero())
		}

		stepN(env, 1)
		Expect(a.Frozen()).To(BeTrue())
		base := env.Arena().Path().SampleByUnit(float64((a.NextCheckpointIndex() + 9) % 10))
		offset := a.Body().Position().Sub(base.Position)
		Expect(math.Abs(offset.Dot(geom.ForwardOf(base.Orientation)))).To(BeNumerically("<", 1e-6))

		stepN(env, 49)
		Expect(a.Frozen()).To(BeTrue())
		stepN(env, 1)
		Expect(a.Frozen()).To(BeFalse())
		Expect(logs[a.Name()].events).To(Equal([]string{
			"aircraft:false", "effect:true", "effect:false", "aircraft:true",
		}))
	})

	It("abandons the freeze cycle when a new episode begins", func() {
		a := env.Agents()[0]
		a.OnCollisionEnter(physics.Event{Tag: physics.TagGround})
		Expect(a.BeginEpisode()).To(Succeed())
		Expect(a.Frozen()).To(BeFalse())

		stepN(env, 200)
		Expect(a.Frozen()).To(BeFalse())
		Expect(logs[a.Name()].events).To(HaveLen(4))
	})
})
