// Package analysis summarizes finished episodes after a run.
//
//   - [Summarize]: count, mean, spread and quartiles of a series
//   - [MovingAverage]: trailing mean used for learning curves
//   - [LinearTrend]: least-squares slope of a series
//   - [ByAgent], [ReasonCounts]: grouping helpers over stored episodes
//
// # Learning Curves
//
// A positive trend in episode reward means the policy is improving:
//
//	slope, _ := analysis.LinearTrend(analysis.Rewards(episodes))
//	if slope > 0 {
//	    // still learning
//	}
package analysis
