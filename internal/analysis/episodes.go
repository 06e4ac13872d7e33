package analysis

import (
	"math"
	"sort"

	"github.com/san-kum/airace/internal/dynamo"
)

type Summary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Summarize describes values. Std is the sample standard deviation and the
// quartiles interpolate linearly between order statistics.
func Summarize(values []float64) Summary {
	s := Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	s.Min, s.Max = sorted[0], sorted[len(sorted)-1]
	s.Q1 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q3 = quantile(sorted, 0.75)

	for _, v := range values {
		s.Mean += v
	}
	s.Mean /= float64(len(values))
	if len(values) > 1 {
		for _, v := range values {
			d := v - s.Mean
			s.Std += d * d
		}
		s.Std = math.Sqrt(s.Std / float64(len(values)-1))
	}
	return s
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// MovingAverage returns the trailing mean over up to window values at each
// index.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := min(i+1, window)
		out[i] = sum / float64(n)
	}
	return out
}

// LinearTrend fits values[i] = intercept + slope*i by least squares.
func LinearTrend(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return 0, values[0]
	}

	var sx, sy, sxx, sxy float64
	for i, v := range values {
		x := float64(i)
		sx += x
		sy += v
		sxx += x * x
		sxy += x * v
	}
	slope = (n*sxy - sx*sy) / (n*sxx - sx*sx)
	intercept = (sy - slope*sx) / n
	return slope, intercept
}

func Rewards(episodes []dynamo.Episode) []float64 {
	out := make([]float64, len(episodes))
	for i, ep := range episodes {
		out[i] = ep.Reward
	}
	return out
}

func Steps(episodes []dynamo.Episode) []float64 {
	out := make([]float64, len(episodes))
	for i, ep := range episodes {
		out[i] = float64(ep.Steps)
	}
	return out
}

// ByAgent groups episodes by agent, keeping their order.
func ByAgent(episodes []dynamo.Episode) map[string][]dynamo.Episode {
	out := make(map[string][]dynamo.Episode)
	for _, ep := range episodes {
		out[ep.Agent] = append(out[ep.Agent], ep)
	}
	return out
}

func ReasonCounts(episodes []dynamo.Episode) map[string]int {
	out := make(map[string]int)
	for _, ep := range episodes {
		out[ep.Reason]++
	}
	return out
}
