package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/airace/internal/dynamo"
)

var episodes = []dynamo.Episode{
	{Agent: "a", Steps: 100, Reward: -1.5, Checkpoints: 0, Reason: "collision"},
	{Agent: "a", Steps: 300, Reward: 0.5, Checkpoints: 3, Reason: "timeout"},
	{Agent: "b", Steps: 5000, Reward: 2.0, Checkpoints: 6, Reason: "max_steps"},
	{Agent: "b", Steps: 200, Reward: -1.0, Checkpoints: 1, Reason: "collision"},
}

func observeAll(m dynamo.Metric) float64 {
	for _, ep := range episodes {
		m.Observe(ep)
	}
	return m.Value()
}

func TestStandardMetrics(t *testing.T) {
	tests := []struct {
		metric dynamo.Metric
		want   float64
	}{
		{NewMeanReward(), 0.0},
		{NewBestReward(), 2.0},
		{NewCheckpointsPerEpisode(), 2.5},
		{NewMeanEpisodeLength(), 1400},
		{NewTerminationRate("collision"), 0.5},
		{NewTerminationRate("timeout"), 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.metric.Name(), func(t *testing.T) {
			if got := observeAll(tt.metric); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("%s = %v, want %v", tt.metric.Name(), got, tt.want)
			}
		})
	}
}

func TestMetricReset(t *testing.T) {
	for _, m := range Standard() {
		observeAll(m)
		m.Reset()
		if m.Value() != 0 {
			t.Errorf("%s after reset = %v, want 0", m.Name(), m.Value())
		}
	}
}

func TestBestRewardAllNegative(t *testing.T) {
	m := NewBestReward()
	m.Observe(dynamo.Episode{Reward: -3})
	m.Observe(dynamo.Episode{Reward: -2})
	if m.Value() != -2 {
		t.Errorf("best = %v, want -2", m.Value())
	}
}
