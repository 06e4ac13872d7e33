package metrics

import "github.com/san-kum/airace/internal/dynamo"

// MeanReward averages total episode reward.
type MeanReward struct {
	name     string
	total    float64
	episodes int
}

func NewMeanReward() *MeanReward {
	return &MeanReward{name: "mean_reward"}
}

func (m *MeanReward) Name() string { return m.name }

func (m *MeanReward) Observe(ep dynamo.Episode) {
	m.total += ep.Reward
	m.episodes++
}

func (m *MeanReward) Value() float64 {
	if m.episodes == 0 {
		return 0
	}
	return m.total / float64(m.episodes)
}

func (m *MeanReward) Reset() {
	m.total = 0
	m.episodes = 0
}

// BestReward is the highest episode reward seen.
type BestReward struct {
	name string
	best float64
	seen bool
}

func NewBestReward() *BestReward {
	return &BestReward{name: "best_reward"}
}

func (m *BestReward) Name() string { return m.name }

func (m *BestReward) Observe(ep dynamo.Episode) {
	if !m.seen || ep.Reward > m.best {
		m.best = ep.Reward
		m.seen = true
	}
}

func (m *BestReward) Value() float64 { return m.best }

func (m *BestReward) Reset() {
	m.best = 0
	m.seen = false
}
