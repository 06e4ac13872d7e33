package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/airace/internal/automation"
	"github.com/san-kum/airace/internal/config"
	"github.com/san-kum/airace/internal/experiment"
	"github.com/san-kum/airace/internal/optim"
	"github.com/san-kum/airace/internal/storage"
	"github.com/san-kum/airace/internal/viz"
)

func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// resolveConfig layers preset, config file, flags and --param overrides, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	name := preset
	if !flags.Changed("preset") {
		name = cmd.Annotations["preset"]
	}
	cfg := config.DefaultConfig()
	if name != "" {
		if cfg = config.GetPreset(name); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if flags.Changed("track") {
		cfg.Arena.Track = track
	}
	if flags.Changed("policy") {
		cfg.Run.Policy = policy
	}
	if flags.Changed("integrator") {
		cfg.Flight.Integrator = integrator
	}
	if flags.Changed("agents") {
		cfg.Arena.Agents = agents
	}
	if flags.Changed("episodes") {
		cfg.Run.Episodes = episodes
	}
	if flags.Changed("ticks") {
		cfg.Run.Ticks = ticks
	}
	if flags.Changed("seed") {
		cfg.Arena.Seed = seed
	}
	if flags.Changed("parallel") {
		cfg.Run.Parallel = parallel
	}

	overrides, err := config.ParseAssignments(params)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(overrides))
	for k := range overrides {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if err := cfg.SetParam(k, overrides[k]); err != nil {
			return nil, err
		}
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Arena.Training = true
	return execute(cfg, live)
}

func runRace(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Arena.Training = false
	if cfg.Run.Ticks <= 0 {
		return fmt.Errorf("race mode needs --ticks")
	}
	return execute(cfg, !headless)
}

func pickAndRace(cmd *cobra.Command, args []string) error {
	cfg, err := viz.PickConfig()
	if err != nil || cfg == nil {
		return err
	}
	if !cfg.Arena.Training && cfg.Run.Ticks <= 0 {
		cfg.Run.Ticks = 3000
	}
	theme, every, delay = "cyberpunk", 2, 0.02
	return execute(cfg, true)
}

func execute(cfg *config.Config, watch bool) error {
	ctx, stop := signalContext()
	defer stop()

	reg := experiment.NewRegistry()
	var (
		result *experiment.Result
		err    error
	)

	if watch {
		// The live view owns the terminal; only errors are worth a line.
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		vis := viz.NewVisibility()
		params := config.NewEnvParams(nil)
		runner, berr := experiment.Build(cfg, reg, params, logger, experiment.WithVisuals(vis.For))
		if berr != nil {
			return berr
		}
		result, err = viz.Run(ctx, runner, viz.Options{
			Every:      every,
			Delay:      time.Duration(delay * float64(time.Second)),
			Theme:      theme,
			Visibility: vis,
			Params:     params,
		})
	} else {
		logger, lerr := newLogger(os.Stderr)
		if lerr != nil {
			return lerr
		}
		runner, berr := experiment.Build(cfg, reg, nil, logger)
		if berr != nil {
			return berr
		}
		result, err = runner.Run(ctx)
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted, keeping partial results", "ticks", result.Ticks)
			err = nil
		}
	}
	if err != nil {
		return err
	}

	printResult(result)

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func printResult(result *experiment.Result) {
	fmt.Printf("ticks: %d (%.1fs simulated), episodes: %d\n\n", result.Ticks, result.SimTime, len(result.Episodes))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tEPISODE\tSTEPS\tCHECKPOINTS\tREWARD")
	for _, s := range result.Standings {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.3f\n", s.Agent, s.Number, s.Steps, s.Checkpoints, s.Reward)
	}
	w.Flush()

	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-24s %.6f\n", name, metrics[name])
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	outcomes, err := automation.RunScenario(ctx, scenario, base, experiment.NewRegistry(), logger)
	st := storage.New(dataDir)
	for i, o := range outcomes {
		label := o.Step.SaveAs
		if label == "" {
			label = fmt.Sprintf("step %d", i+1)
		}
		fmt.Printf("%s: %d episodes, mean reward %.4f\n", label, len(o.Result.Episodes), o.Result.Metrics["mean_reward"])
		if noSave {
			continue
		}
		if serr := st.Init(); serr != nil {
			return serr
		}
		runID, serr := st.Save(o.Config, o.Result)
		if serr != nil {
			return serr
		}
		fmt.Printf("  run id: %s\n", runID)
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	sweep := &automation.ParameterSweep{Param: sweepParam, Min: sweepMin, Max: sweepMax, Steps: sweepSteps}
	results, err := automation.RunSweep(ctx, sweep, base, experiment.NewRegistry(), logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(sweepParam), strings.ToUpper(metricName))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%.6f\n", r.Value, r.Metrics[metricName])
	}
	w.Flush()
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	mc := &automation.MonteCarloConfig{Trials: trials, Seed: base.Arena.Seed, Workers: workers}
	results, err := automation.RunMonteCarlo(ctx, mc, base, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}
	mean, std := automation.MonteCarloStats(results, metricName)
	fmt.Printf("%s over %d seeds: %.6f ± %.6f\n", metricName, len(results), mean, std)
	return nil
}

// parseGrid reads name=v1,v2,... entries.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, e := range entries {
		name, list, ok := strings.Cut(e, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("--grid %q: want name=v1,v2", e)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--grid %q: %w", e, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(grid) == 0 {
		return fmt.Errorf("search needs at least one --grid")
	}
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	gs := optim.NewGridSearch(names, ranges)
	gs.Minimize = minimize
	best, val, err := gs.Search(ctx, optim.ConfigBuilder(base, experiment.NewRegistry(), logger), metricName)
	if err != nil {
		return err
	}

	fmt.Printf("best %s: %.6f\n", metricName, val)
	for _, n := range names {
		fmt.Printf("  %s=%g\n", n, best[n])
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := experiment.NewRegistry()

	fmt.Printf("benchmarking %d agents on %s, %d ticks\n\n", base.Arena.Agents, base.Arena.Track, benchTicks)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tTICKS\tTIME\tTICKS/SEC\tEPISODES")

	for _, name := range reg.ListIntegrators() {
		cfg := base.Clone()
		cfg.Flight.Integrator = name
		cfg.Run.Ticks = benchTicks
		cfg.Run.Episodes = 0

		runner, err := experiment.Build(cfg, reg, nil, logger)
		if err != nil {
			return err
		}
		start := time.Now()
		result, err := runner.Run(context.Background())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\t%d\n", name, result.Ticks, elapsed.Round(time.Millisecond),
			float64(result.Ticks)/elapsed.Seconds(), len(result.Episodes))
	}
	return w.Flush()
}
