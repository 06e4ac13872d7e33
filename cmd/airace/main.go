package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/airace/internal/config"
	"github.com/san-kum/airace/internal/integrators"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	track      string
	policy     string
	integrator string
	agents     int
	episodes   int
	ticks      int
	seed       int64
	parallel   bool
	params     []string

	live     bool
	headless bool
	noSave   bool
	theme    string
	every    int
	delay    float64

	width  int
	height int
	window int

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	metricName string
	trials     int
	workers    int
	grid       []string
	minimize   bool
	benchTicks int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "airace",
		Short:         "multi-agent aircraft racing simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          pickAndRace,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".airace", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "run training episodes and save the results",
		RunE:  runTrain,
	}
	addConfigFlags(trainCmd, "")
	addRunFlags(trainCmd)
	trainCmd.Flags().BoolVar(&live, "live", false, "watch the run in the terminal")

	raceCmd := &cobra.Command{
		Use:   "race",
		Short: "race with crash and respawn, watching live by default",
		RunE:  runRace,
	}
	addConfigFlags(raceCmd, "race")
	addRunFlags(raceCmd)
	raceCmd.Flags().BoolVar(&headless, "headless", false, "run without the live view")

	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "print the checkpoint layout of a track",
		RunE:  printLayout,
	}
	addConfigFlags(layoutCmd, "")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the episode rewards of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&window, "window", 10, "moving average window")
	plotCmd.Flags().StringP("out", "o", "", "also write the reward curve to an svg file")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarize a run per agent",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringP("out", "o", "-", "output file, - for stdout")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "print the episodes of a run as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg",
		Short: "draw the configured track and spawn positions as svg",
		RunE:  exportSVG,
	}
	addConfigFlags(exportSVGCmd, "")
	exportSVGCmd.Flags().StringP("out", "o", "track.svg", "output file")
	exportSVGCmd.Flags().IntVar(&width, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&height, "height", 600, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list config presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	tunablesCmd := &cobra.Command{
		Use:   "tunables",
		Short: "list settings accepted by --param, sweeps and scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			defaults := config.DefaultConfig().GetParams()
			for _, name := range config.Tunables() {
				fmt.Printf("  %-20s %g\n", name, defaults[name])
			}
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addConfigFlags(scenarioCmd, "")
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store results")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one tunable and report metrics",
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd, "")
	sweepCmd.Flags().StringVar(&sweepParam, "sweep", "thrust", "tunable to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 50000, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 150000, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().StringVar(&metricName, "metric", "mean_reward", "metric to report")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "repeat a run over many seeds",
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd, "")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 10, "number of seeds")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 4, "concurrent trials")
	monteCarloCmd.Flags().StringVar(&metricName, "metric", "mean_reward", "metric to summarize")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search tunables for the best metric",
		RunE:  runSearch,
	}
	addConfigFlags(searchCmd, "")
	searchCmd.Flags().StringArrayVar(&grid, "grid", nil, "name=v1,v2,... (repeatable)")
	searchCmd.Flags().StringVar(&metricName, "metric", "mean_reward", "metric to optimize")
	searchCmd.Flags().BoolVar(&minimize, "minimize", false, "minimize instead of maximize")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure tick throughput per integrator",
		RunE:  runBench,
	}
	addConfigFlags(benchCmd, "")
	benchCmd.Flags().IntVar(&benchTicks, "bench-ticks", 2000, "ticks per integrator")

	rootCmd.AddCommand(trainCmd, raceCmd, layoutCmd, listCmd, plotCmd, analyzeCmd, exportCmd, exportCSVCmd,
		exportSVGCmd, presetsCmd, tunablesCmd, scenarioCmd, sweepCmd, monteCarloCmd, searchCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command, defaultPreset string) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", defaultPreset, "start from a preset")
	cmd.Annotations = map[string]string{"preset": defaultPreset}
	f.StringVar(&track, "track", config.DefaultTrack, "track name")
	f.StringVar(&policy, "policy", config.DefaultPolicy, "policy driving every agent")
	f.StringVar(&integrator, "integrator", "semi-implicit", fmt.Sprintf("integrator %v", integrators.Names()))
	f.IntVar(&agents, "agents", config.DefaultAgents, "number of agents")
	f.IntVar(&episodes, "episodes", config.DefaultEpisodes, "finished episodes to collect")
	f.IntVar(&ticks, "ticks", 0, "tick limit, 0 for none")
	f.Int64Var(&seed, "seed", 0, "arena seed")
	f.BoolVar(&parallel, "parallel", false, "step agents concurrently")
	f.StringArrayVar(&params, "param", nil, "override a tunable, name=value (repeatable)")
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&noSave, "no-save", false, "do not store results")
	f.StringVar(&theme, "theme", "cyberpunk", "live view colour theme")
	f.IntVar(&every, "every", 2, "ticks per live frame")
	f.Float64Var(&delay, "delay", 0.02, "seconds slept per tick in the live view")
}
