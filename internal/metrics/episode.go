package metrics

import "github.com/san-kum/airace/internal/dynamo"

type CheckpointsPerEpisode struct {
	name     string
	total    int
	episodes int
}

func NewCheckpointsPerEpisode() *CheckpointsPerEpisode {
	return &CheckpointsPerEpisode{name: "checkpoints_per_episode"}
}

func (m *CheckpointsPerEpisode) Name() string { return m.name }

func (m *CheckpointsPerEpisode) Observe(ep dynamo.Episode) {
	m.total += ep.Checkpoints
	m.episodes++
}

func (m *CheckpointsPerEpisode) Value() float64 {
	if m.episodes == 0 {
		return 0
	}
	return float64(m.total) / float64(m.episodes)
}

func (m *CheckpointsPerEpisode) Reset() {
	m.total = 0
	m.episodes = 0
}

type MeanEpisodeLength struct {
	name     string
	steps    int
	episodes int
}

func NewMeanEpisodeLength() *MeanEpisodeLength {
	return &MeanEpisodeLength{name: "mean_episode_length"}
}

func (m *MeanEpisodeLength) Name() string { return m.name }

func (m *MeanEpisodeLength) Observe(ep dynamo.Episode) {
	m.steps += ep.Steps
	m.episodes++
}

func (m *MeanEpisodeLength) Value() float64 {
	if m.episodes == 0 {
		return 0
	}
	return float64(m.steps) / float64(m.episodes)
}

func (m *MeanEpisodeLength) Reset() {
	m.steps = 0
	m.episodes = 0
}

// TerminationRate is the fraction of episodes that ended for one reason.
type TerminationRate struct {
	reason   string
	hits     int
	episodes int
}

func NewTerminationRate(reason string) *TerminationRate {
	return &TerminationRate{reason: reason}
}

func (m *TerminationRate) Name() string { return m.reason + "_rate" }

func (m *TerminationRate) Observe(ep dynamo.Episode) {
	if ep.Reason == m.reason {
		m.hits++
	}
	m.episodes++
}

func (m *TerminationRate) Value() float64 {
	if m.episodes == 0 {
		return 0
	}
	return float64(m.hits) / float64(m.episodes)
}

func (m *TerminationRate) Reset() {
	m.hits = 0
	m.episodes = 0
}

// Standard returns the metric set recorded for every run.
func Standard() []dynamo.Metric {
	return []dynamo.Metric{
		NewMeanReward(),
		NewBestReward(),
		NewCheckpointsPerEpisode(),
		NewMeanEpisodeLength(),
		NewTerminationRate("collision"),
		NewTerminationRate("timeout"),
		NewTerminationRate("max_steps"),
	}
}
