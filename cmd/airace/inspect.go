package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/airace/internal/analysis"
	"github.com/san-kum/airace/internal/experiment"
	"github.com/san-kum/airace/internal/export"
	"github.com/san-kum/airace/internal/race"
	"github.com/san-kum/airace/internal/storage"
	"github.com/san-kum/airace/internal/viz"
)

func printLayout(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	path, err := experiment.NewRegistry().GetTrack(cfg.Arena.Track, cfg.TrackSpec())
	if err != nil {
		return err
	}
	layout, err := race.BuildLayout(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d checkpoints, %.1f m\n\n", cfg.Arena.Track, layout.Len(), path.Length())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tX\tY\tZ\tFORWARD\t")
	for _, cp := range layout.All() {
		f := cp.Forward()
		mark := ""
		if cp.IsFinish {
			mark = "finish"
		}
		fmt.Fprintf(w, "%d\t%.1f\t%.1f\t%.1f\t(%.2f, %.2f, %.2f)\t%s\n", cp.Index,
			cp.Position[0], cp.Position[1], cp.Position[2], f[0], f[1], f[2], mark)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs saved")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tMODE\tTRACK\tPOLICY\tAGENTS\tEPISODES\tMEAN REWARD")
	for _, r := range runs {
		mode := "race"
		if r.Training {
			mode = "train"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%.3f\n", r.ID, r.Timestamp.Local().Format("2006-01-02 15:04"),
			mode, r.Track, r.Policy, r.Agents, r.Episodes, r.Metrics["mean_reward"])
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	episodes, err := st.LoadEpisodes(args[0])
	if err != nil {
		return err
	}
	rewards := analysis.Rewards(episodes)
	if len(rewards) < 2 {
		return fmt.Errorf("run %s has %d episodes, need at least 2 to plot", meta.ID, len(rewards))
	}

	avg := analysis.MovingAverage(rewards, window)
	graph := asciigraph.PlotMany([][]float64{rewards, avg},
		asciigraph.Height(15),
		asciigraph.Width(70),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Yellow),
		asciigraph.Caption(fmt.Sprintf("%s on %s: episode reward, %d-episode average", meta.Policy, meta.Track, window)),
	)
	fmt.Println(graph)

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return nil
	}
	if err := os.WriteFile(out, []byte(export.SeriesToSVG(rewards, 800, 300, "#00ffff")), 0o644); err != nil {
		return err
	}
	fmt.Printf("\nwrote %s\n", out)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	episodes, err := st.LoadEpisodes(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %s on %s, %d agents, %d ticks (%.1fs)\n\n",
		meta.ID, meta.Policy, meta.Track, meta.Agents, meta.Ticks, meta.SimTime)
	if len(episodes) == 0 {
		fmt.Println("no finished episodes")
		return nil
	}

	byAgent := analysis.ByAgent(episodes)
	names := make([]string, 0, len(byAgent))
	for name := range byAgent {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tEPISODES\tMEAN\tSTD\tMIN\tMEDIAN\tMAX\tMEAN STEPS")
	for _, name := range names {
		r := analysis.Summarize(analysis.Rewards(byAgent[name]))
		s := analysis.Summarize(analysis.Steps(byAgent[name]))
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.0f\n",
			name, r.Count, r.Mean, r.Std, r.Min, r.Median, r.Max, s.Mean)
	}
	w.Flush()

	slope, _ := analysis.LinearTrend(analysis.Rewards(episodes))
	fmt.Printf("\nreward trend: %+.5f per episode\n", slope)

	fmt.Println("\nendings:")
	counts := analysis.ReasonCounts(episodes)
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Printf("  %-12s %d (%.1f%%)\n", reason, counts[reason], 100*float64(counts[reason])/float64(len(episodes)))
	}

	fmt.Println("\nmetrics:")
	printMetrics(meta.Metrics)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	return storage.New(dataDir).ExportJSON(args[0], out)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	episodes, err := storage.New(dataDir).LoadEpisodes(args[0])
	if err != nil {
		return err
	}
	w := csv.NewWriter(os.Stdout)
	w.Write([]string{"agent", "episode", "steps", "reward", "checkpoints", "reason"})
	for _, ep := range episodes {
		w.Write([]string{
			ep.Agent,
			strconv.Itoa(ep.Number),
			strconv.Itoa(ep.Steps),
			strconv.FormatFloat(ep.Reward, 'f', 6, 64),
			strconv.Itoa(ep.Checkpoints),
			ep.Reason,
		})
	}
	w.Flush()
	return w.Error()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	runner, err := experiment.Build(cfg, experiment.NewRegistry(), nil, logger)
	if err != nil {
		return err
	}
	env := runner.Environment()
	if _, err := env.Reset(); err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	svg := export.TrackToSVG(viz.Capture(env, nil, nil), width, height)
	if err := os.WriteFile(out, []byte(svg), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}
