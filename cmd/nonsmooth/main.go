package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/nonsmooth/internal/analysis"
	"github.com/san-kum/nonsmooth/internal/automation"
	"github.com/san-kum/nonsmooth/internal/config"
	"github.com/san-kum/nonsmooth/internal/experiment"
	"github.com/san-kum/nonsmooth/internal/logging"
	"github.com/san-kum/nonsmooth/internal/models"
	"github.com/san-kum/nonsmooth/internal/plot"
	"github.com/san-kum/nonsmooth/internal/storage"
	"github.com/san-kum/nonsmooth/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	dt         float64
	duration   float64
	integrator string
	eventMode  string
	strategy   string
	maxIter    int
	workers    int
	params     map[string]string
	configFile string
	preset     string
	// plot and export
	columns []string
	outPath string
	// analysis
	column   string
	xColumn  string
	yColumn  string
	trigger  string
	level    float64
	sweepKey string
	from     float64
	to       float64
	points   int
	jobs     int
	// automation
	save    bool
	perturb map[string]string
	trials  int
	seed    int64
)

// main registers the commands and opens the preset browser when no
// subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:           "nonsmooth",
		Short:         "non-smooth multibody contact simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(experiment.NewRegistry())
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".nonsmooth", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation and store the recorded columns",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [model]",
		Short: "time a model at decreasing step sizes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchModel,
	}
	addRunFlags(benchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot recorded columns in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to plot (default: all but t, up to 6)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export recorded columns to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: <run_id>.csv)")

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "plot recorded columns over time to a PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to plot (default: all but t, up to 6)")
	exportPNGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: <run_id>.png)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and columns to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "analyze stored runs",
	}
	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "amplitude spectrum of a column",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeSpectrum,
	}
	spectrumCmd.Flags().StringVar(&column, "column", "", "column to analyze (default: first .laN column)")
	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait or section of two columns",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzePhase,
	}
	phaseCmd.Flags().StringVar(&xColumn, "x", "q0", "column on the x axis")
	phaseCmd.Flags().StringVar(&yColumn, "y", "u0", "column on the y axis")
	phaseCmd.Flags().StringVar(&trigger, "section", "", "plot only upward crossings of this column through --level")
	phaseCmd.Flags().Float64Var(&level, "level", 0, "section level")
	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "run a model over a range of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepKey, "sweep", "", "parameter to vary")
	sweepCmd.Flags().Float64Var(&from, "from", 0, "first value")
	sweepCmd.Flags().Float64Var(&to, "to", 1, "last value")
	sweepCmd.Flags().IntVar(&points, "n", 5, "number of values")
	sweepCmd.Flags().IntVar(&jobs, "jobs", 4, "runs in parallel")
	_ = sweepCmd.MarkFlagRequired("sweep")
	analyzeCmd.AddCommand(spectrumCmd, phaseCmd, sweepCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				c := config.GetPreset(args[0], p)
				fmt.Printf("  %-10s %s dt=%g t=%g %s\n", p, c.Integrator, c.Dt, c.Duration, formatParams(c.Params))
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list built-in models and integrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tDESCRIPTION")
			for _, name := range models.Names() {
				fmt.Fprintf(w, "%s\t%s\n", name, models.Describe(name))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			reg := experiment.NewRegistry()
			fmt.Println("\nintegrators:")
			for _, name := range reg.ListIntegrators() {
				mode, _ := reg.Mode(name)
				fmt.Printf("  %-12s %s\n", name, mode)
			}
			return nil
		},
	}

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run the steps of a scenario file in order",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&save, "save", false, "store every step as a run")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "run a model with randomly perturbed parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addRunFlags(monteCarloCmd)
	monteCarloCmd.Flags().StringToStringVar(&perturb, "perturb", nil, "parameter half-width key=value")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0: time based)")
	monteCarloCmd.Flags().IntVar(&jobs, "jobs", 4, "runs in parallel")

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, listCmd, plotCmd, exportCSVCmd, exportPNGCmd,
		exportJSONCmd, analyzeCmd, presetsCmd, modelsCmd, batchCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "step size")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&integrator, "integrator", "event-rk4", "integrator (see models)")
	cmd.Flags().StringVar(&eventMode, "mode", "", "event mode (event, timestepping); derived from the integrator if unset")
	cmd.Flags().StringVar(&strategy, "strategy", "", "solver strategy (fixpoint, gaussseidel)")
	cmd.Flags().IntVar(&maxIter, "max-iter", 0, "solver iteration cap")
	cmd.Flags().IntVar(&workers, "workers", 0, "contact search workers")
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "model parameter key=value")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// buildConfig layers defaults, preset, config file and changed flags, in
// that order.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	model := config.DefaultModel
	if len(args) > 0 {
		model = args[0]
	}

	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(model, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) > 0 || configFile == "" {
		cfg.Model = model
	}

	f := cmd.Flags()
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("time") {
		cfg.Duration = duration
	}
	if f.Changed("integrator") {
		cfg.Integrator = integrator
		if mode, ok := experiment.NewRegistry().Mode(integrator); ok && !f.Changed("mode") {
			cfg.Event.Mode = mode.String()
		}
	}
	if f.Changed("mode") {
		cfg.Event.Mode = eventMode
	}
	if f.Changed("strategy") {
		cfg.Solver.Strategy = strategy
	}
	if f.Changed("max-iter") {
		cfg.Solver.MaxIter = maxIter
	}
	if f.Changed("workers") {
		cfg.ContactSearch.Workers = workers
	}
	if f.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	for k, v := range params {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", k, err)
		}
		cfg.Params[k] = x
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *log.Logger {
	return logging.New(cfg.LogLevel, os.Stderr)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry(), logger); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("running", "model", cfg.Model, "integrator", cfg.Integrator, "dt", cfg.Dt, "duration", cfg.Duration)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil && result == nil {
		return err
	}
	elapsed := time.Since(start)
	if err != nil {
		logger.Warn("run stopped early, saving partial result", "err", err)
	}

	runID, saveErr := st.Save(storage.RunMetadata{
		Model:      cfg.Model,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Mode:       cfg.Event.Mode,
		Params:     cfg.Params,
	}, result, exp.Model().System.Recorder())
	if saveErr != nil {
		return saveErr
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (events %d, unconverged %d)\n", result.StepsTaken, len(result.Events), result.Unconverged)
	if len(result.Events) > 0 {
		fmt.Printf("first event: t=%.6f\n", result.Events[0])
	}
	printMetrics(result.Metrics)
	return err
}

func printMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, m[name])
	}
}

func formatParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	return viz.Run(cfg, experiment.NewRegistry())
}

func benchModel(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()

	fmt.Printf("benchmarking %s (%s)\n\n", base.Model, base.Integrator)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tSTEPS\tEVENTS\tITER/STEP\tTIME\tSTEPS/SEC")
	for _, scale := range []float64{1, 0.5, 0.25} {
		cfg := base.Clone()
		cfg.Dt = base.Dt * scale
		exp := experiment.New(cfg)
		if err := exp.Setup(reg, nil); err != nil {
			return err
		}
		start := time.Now()
		result, err := exp.Run(context.Background())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		fmt.Fprintf(w, "%.2e\t%d\t%d\t%.2f\t%v\t%.0f\n",
			cfg.Dt, result.StepsTaken, len(result.Events), result.Metrics["solver_iterations"],
			elapsed.Round(time.Microsecond), float64(result.StepsTaken)/elapsed.Seconds())
	}
	return w.Flush()
}

// resolveRun returns the named run or the latest one.
func resolveRun(args []string) (*storage.RunMetadata, *plot.Recorder, error) {
	st := storage.New(dataDir)
	runID := ""
	if len(args) > 0 {
		runID = args[0]
	} else {
		latest, err := st.Latest()
		if err != nil {
			return nil, nil, err
		}
		runID = latest
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	rec, err := st.LoadColumns(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, rec, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tDURATION\tDT\tINTEG\tSTEPS\tEVENTS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.1es\t%s\t%d\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Steps,
			len(run.Events),
		)
	}
	return w.Flush()
}

// selectColumns returns the requested columns, or every column but t up to
// six of them.
func selectColumns(rec *plot.Recorder) []string {
	if len(columns) > 0 {
		return columns
	}
	var out []string
	for _, c := range rec.Columns() {
		if c != "t" && len(out) < 6 {
			out = append(out, c)
		}
	}
	return out
}

func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, rec, err := resolveRun(args)
	if err != nil {
		return err
	}
	if rec.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", rec.Len())

	for _, name := range selectColumns(rec) {
		data, err := rec.Column(name)
		if err != nil {
			return err
		}
		data = finite(data)
		if len(data) == 0 {
			fmt.Printf("%s: no finite values\n\n", name)
			continue
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		))
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	meta, rec, err := resolveRun(args)
	if err != nil {
		return err
	}
	out := outPath
	if out == "" {
		out = meta.ID + ".csv"
	}
	if err := storage.WriteCSV(out, rec); err != nil {
		return err
	}
	fmt.Printf("exported %d rows to %s\n", rec.Len(), out)
	return nil
}

func exportPNG(cmd *cobra.Command, args []string) error {
	meta, rec, err := resolveRun(args)
	if err != nil {
		return err
	}
	out := outPath
	if out == "" {
		out = meta.ID + ".png"
	}
	title := fmt.Sprintf("%s (%s, dt=%g)", meta.Model, meta.Integrator, meta.Dt)
	if err := plot.SavePNG(rec, "t", selectColumns(rec), title, out); err != nil {
		return err
	}
	fmt.Printf("saved %s\n", out)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, rec, err := resolveRun(args)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, rec)
}

func analyzeSpectrum(cmd *cobra.Command, args []string) error {
	meta, rec, err := resolveRun(args)
	if err != nil {
		return err
	}
	name := column
	if name == "" {
		for _, c := range rec.Columns() {
			if strings.HasSuffix(c, ".laN") {
				name = c
				break
			}
		}
		if name == "" {
			return fmt.Errorf("run %s has no contact force column; pass --column", meta.ID)
		}
	}
	data, err := rec.Column(name)
	if err != nil {
		return err
	}
	sp, err := analysis.Spectrum(data, meta.Dt)
	if err != nil {
		return err
	}

	fmt.Printf("spectrum of %s: %s\n\n", name, meta.ID)
	amp := sp.Amp
	if len(amp) > 160 {
		amp = amp[:160]
	}
	fmt.Println(asciigraph.Plot(amp,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("amplitude, 0..%.1f hz", sp.Freq[len(amp)-1])),
	))
	fmt.Println()

	freq, peak := sp.Peak()
	fmt.Printf("dominant frequency: %.3f hz (amplitude %.4g)\n", freq, peak)
	if freq > 0 {
		fmt.Printf("period: %.4f s\n", 1/freq)
	}
	fmt.Printf("energy above half nyquist: %.1f%%\n", 100*sp.HighFraction(0.5))
	return nil
}

func analyzePhase(cmd *cobra.Command, args []string) error {
	meta, rec, err := resolveRun(args)
	if err != nil {
		return err
	}
	x, err := rec.Column(xColumn)
	if err != nil {
		return err
	}
	y, err := rec.Column(yColumn)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%s)\n\n", meta.ID, meta.Model)
	if trigger != "" {
		trig, err := rec.Column(trigger)
		if err != nil {
			return err
		}
		pts := analysis.Section(trig, x, y, level)
		fmt.Printf("section %s = %g: %d crossings\n", trigger, level, len(pts))
		fmt.Print(analysis.SectionToASCII(pts, 60, 20))
		return nil
	}
	portrait, err := analysis.PhasePortrait(xColumn, x, yColumn, y)
	if err != nil {
		return err
	}
	fmt.Print(analysis.PhasePortraitToASCII(portrait, 60, 20))
	return nil
}

func analyzeSweep(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if points < 1 {
		return fmt.Errorf("--n must be positive")
	}
	logger := newLogger(base)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	values := analysis.Linspace(from, to, points)
	logger.Info("sweeping", "model", base.Model, "param", sweepKey, "runs", len(values))
	res, err := analysis.Sweep(ctx, base, sweepKey, values, jobs, logger)
	if err != nil {
		return err
	}

	metricNames := make([]string, 0)
	if len(res) > 0 {
		for name := range res[0].Metrics {
			metricNames = append(metricNames, name)
		}
		sort.Strings(metricNames)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tEVENTS\t%s\n", strings.ToUpper(sweepKey), strings.ToUpper(strings.Join(metricNames, "\t")))
	for _, p := range res {
		row := make([]string, len(metricNames))
		for i, name := range metricNames {
			row[i] = fmt.Sprintf("%.4g", p.Metrics[name])
		}
		fmt.Fprintf(w, "%g\t%d\t%d\t%s\n", p.Param, p.Steps, p.Events, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger := logging.New(logLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario: %s (%d steps)\n", sc.Name, len(sc.Steps))
	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), logger)

	var st *storage.Store
	if save {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMODEL\tINTEG\tSTEPS\tEVENTS\tMAX PEN\tRUN")
	for i, r := range results {
		runID := "-"
		if st != nil {
			id, saveErr := st.Save(storage.RunMetadata{
				Model:      r.Config.Model,
				Dt:         r.Config.Dt,
				Duration:   r.Config.Duration,
				Integrator: r.Config.Integrator,
				Mode:       r.Config.Event.Mode,
				Params:     r.Config.Params,
			}, r.Result, r.Recorder)
			if saveErr != nil {
				return saveErr
			}
			runID = id
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%.3g\t%s\n", i+1, r.Config.Model, r.Config.Integrator,
			r.Result.StepsTaken, len(r.Result.Events), r.Result.Metrics["max_penetration"], runID)
	}
	if flushErr := w.Flush(); flushErr != nil {
		return flushErr
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	widths := make(map[string]float64, len(perturb))
	for k, v := range perturb {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("perturb %s: %w", k, err)
		}
		widths[k] = x
	}
	logger := newLogger(base)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := automation.RunMonteCarlo(ctx, automation.MonteCarloConfig{
		Base:    base,
		Perturb: widths,
		Trials:  trials,
		Workers: jobs,
		Seed:    seed,
	}, logger)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(widths))
	for k := range widths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TRIAL\t%s\tEVENTS\tUNCONV\tSTABLE\n", strings.ToUpper(strings.Join(keys, "\t")))
	for _, t := range res {
		vals := make([]string, len(keys))
		for i, k := range keys {
			vals[i] = fmt.Sprintf("%.4g", t.Params[k])
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%v\n", t.ID, strings.Join(vals, "\t"), len(t.Result.Events), t.Result.Unconverged, t.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	stable, unstable := automation.MonteCarloStats(res)
	fmt.Printf("\nstable: %d, unstable: %d\n", stable, unstable)
	return nil
}
