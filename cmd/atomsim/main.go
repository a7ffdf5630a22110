package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/atomsim/internal/analysis"
	"github.com/san-kum/atomsim/internal/config"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/export"
	"github.com/san-kum/atomsim/internal/metrics"
	"github.com/san-kum/atomsim/internal/optim"
	"github.com/san-kum/atomsim/internal/sim"
	"github.com/san-kum/atomsim/internal/storage"
	"github.com/san-kum/atomsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string

	configFile  string
	preset      string
	dt          float64
	steps       int
	seed        uint64
	workers     int
	integrator  string
	atoms       int
	sampleEvery int
	metricsAddr string
	noSave      bool

	plotMetric    string
	analyzeMetric string
	sweepMetric   string
	withAtoms     bool
	outputFile    string
	svgFile       string
	axisName      string
	sweepParams   []string
	maximize      bool

	stepsPerFrame int
	numRuns       int
	parallel      int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "atomsim",
		Short:         "laser cooling and optical force simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), logLevel))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPicker()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".atomsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and store the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", 100, "steps between metric samples")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotMetric, "metric", "", "plot only this metric")
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "write the plot of --metric as SVG")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().BoolVar(&withAtoms, "atoms", false, "include the final atom states")
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerFrame, "spf", 10, "steps per frame")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark step throughput across worker counts",
		Args:  cobra.NoArgs,
		RunE:  benchSimulation,
	}
	addConfigFlags(benchCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "repeat a configuration over consecutive seeds",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addConfigFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 8, "number of seeds")
	ensembleCmd.Flags().IntVar(&parallel, "parallel", 2, "runs in flight")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "phase-space and frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&axisName, "axis", "x", "phase-space axis to draw")
	analyzeCmd.Flags().StringVar(&analyzeMetric, "metric", "temperature", "metric to transform")
	analyzeCmd.Flags().StringVar(&svgFile, "svg", "", "write the final atom cloud as SVG")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep parameters over a grid and rank by a metric",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=from:to:n (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "temperature", "metric to rank by")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "rank by largest value")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 2, "runs in flight")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, presetsCmd, liveCmd, benchCmd, ensembleCmd, analyzeCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep in seconds")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "goroutines per stage (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (verlet, euler)")
	cmd.Flags().IntVar(&atoms, "atoms", config.DefaultAtoms, "number of atoms")
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// loadConfig resolves the configuration: a preset, then a config file on
// top of it, then any flag set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("atoms") {
		cfg.Atoms.Count = atoms
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dynamo.SetWorkers(cfg.RunConfig().Workers)
	return cfg, nil
}

func newSimulation(cfg *config.Config, opts ...sim.Option) (*sim.Simulation, error) {
	s, err := sim.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Defaults(cfg) {
		s.AddMetric(m)
	}
	return s, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := []sim.Option{sim.WithSampleEvery(sampleEvery)}
	var collectors *metrics.Collectors
	if metricsAddr != "" {
		collectors = metrics.NewCollectors()
		opts = append(opts, sim.WithStageObserver(collectors.ObserveStage))

		mux := http.NewServeMux()
		mux.Handle("/metrics", collectors.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "addr", metricsAddr, "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		slog.Info("serving metrics", "addr", metricsAddr)
	}

	s, err := newSimulation(cfg, opts...)
	if err != nil {
		return err
	}
	if collectors != nil {
		s.AddObserver(collectors)
	}

	fmt.Printf("running %d atoms for %d steps...\n", cfg.Atoms.Count, cfg.Steps)
	result, runErr := s.Run(ctx)
	if result == nil {
		return runErr
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Printf("completed %d steps in %v\n", result.StepsTaken, result.Elapsed)
	printMetrics(result.Metrics)
	return runErr
}

func printMetrics(values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, values[name])
	}
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSTEPS\tDT\tINTEG\tATOMS\tBEAMS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2gs\t%s\t%d\t%d+%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Integrator,
			run.Atoms,
			run.CoolingBeams,
			run.DipoleBeams,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(series.Times))

	if svgFile != "" {
		if plotMetric == "" {
			return fmt.Errorf("--svg needs --metric (available: %v)", series.Names)
		}
		data, ok := series.Values[plotMetric]
		if !ok {
			return fmt.Errorf("unknown metric: %s (available: %v)", plotMetric, series.Names)
		}
		svg := export.SeriesToSVG(series.Times, data, plotMetric, 800, 300, "#00ff88")
		if svg == "" {
			return fmt.Errorf("not enough samples to plot %s", plotMetric)
		}
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
		return nil
	}

	plotted := 0
	for _, name := range series.Names {
		if plotMetric != "" && name != plotMetric {
			continue
		}
		data := series.Values[name]
		if len(data) < 2 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs time (%.3g s)", name, series.Times[len(series.Times)-1])),
		)
		fmt.Println(graph)
		fmt.Println()
		plotted++
	}
	if plotted == 0 && plotMetric != "" {
		return fmt.Errorf("unknown metric: %s (available: %v)", plotMetric, series.Names)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)

	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := st.Export(w, args[0], withAtoms); err != nil {
		return err
	}
	if outputFile != "" {
		fmt.Printf("exported to %s\n", outputFile)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSPECIES\tATOMS\tCOOLING\tDIPOLE\tSTEPS\tDT")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%.2gs\n",
			name, cfg.Species, cfg.Atoms.Count, len(cfg.CoolingBeams), len(cfg.DipoleBeams), cfg.Steps, cfg.Dt)
	}
	return w.Flush()
}

// quietLogger keeps simulation logs from drawing over the terminal UI.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	factory := func() (*sim.Simulation, error) {
		fresh := *cfg
		return newSimulation(&fresh, sim.WithLogger(quietLogger()))
	}
	model, err := viz.NewModel(factory, stepsPerFrame)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(viz.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

func runPicker() error {
	open := func(name string) (viz.Model, error) {
		factory := func() (*sim.Simulation, error) {
			cfg := config.GetPreset(name)
			if cfg == nil {
				return nil, fmt.Errorf("unknown preset: %s", name)
			}
			return newSimulation(cfg, sim.WithLogger(quietLogger()))
		}
		return viz.NewModel(factory, 10)
	}

	p := tea.NewProgram(viz.NewPicker(open), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func benchSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("steps") {
		cfg.Steps = 200
	}

	counts := []int{1, 2, 4, runtime.GOMAXPROCS(0)}
	sort.Ints(counts)

	name := cfg.Name
	if name == "" {
		name = "default"
	}
	fmt.Printf("benchmarking %s: %d atoms, %d cooling + %d dipole beams\n\n",
		name, cfg.Atoms.Count, len(cfg.CoolingBeams), len(cfg.DipoleBeams))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tSTEPS\tTIME\tSTEPS/SEC\tATOM-STEPS/SEC")

	last := 0
	for _, n := range counts {
		if n == last {
			continue
		}
		last = n
		dynamo.SetWorkers(n)

		s, err := sim.New(cfg, sim.WithLogger(quietLogger()), sim.WithSampleEvery(cfg.Steps))
		if err != nil {
			return err
		}
		result, err := s.Run(context.Background())
		if err != nil {
			return err
		}
		perSec := float64(result.StepsTaken) / result.Elapsed.Seconds()
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.3g\n",
			n, result.StepsTaken, result.Elapsed.Round(time.Microsecond), perSec, perSec*float64(cfg.Atoms.Count))
	}
	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ens := sim.NewEnsemble(cfg, numRuns, cfg.Seed, func() []sim.Metric { return metrics.Defaults(cfg) }).
		WithParallel(parallel).
		WithLogger(quietLogger())

	fmt.Printf("running %d seeds from %d...\n", numRuns, cfg.Seed)
	start := time.Now()
	results, err := ens.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, s := range sim.Summarize(results) {
		fmt.Fprintf(w, "%s\t%.6g\t%.3g\t%.6g\t%.6g\n", s.Name, s.Mean, s.StdDev, s.Min, s.Max)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	axis, err := analysis.ParseAxis(axisName)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	atomStates, err := st.LoadAtoms(runID)
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("atoms: %d\n\n", len(atomStates))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AXIS\tMEAN X\tMEAN V\tSIGMA X\tSIGMA V\tCORR\tEMITTANCE")
	for _, a := range []analysis.Axis{analysis.AxisX, analysis.AxisY, analysis.AxisZ} {
		m := analysis.NewPhaseSpace(atomStates, a, false).Moments()
		fmt.Fprintf(w, "%s\t%.3g m\t%.3g m/s\t%.3g m\t%.3g m/s\t%.2f\t%.3g m²/s\n",
			a, m.MeanPosition, m.MeanVelocity, m.SigmaX, m.SigmaV, m.Correlation, m.Emittance)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nphase space (%s, v%s):\n", axis, axis)
	fmt.Print(analysis.PhasePortrait(analysis.NewPhaseSpace(atomStates, axis, false), 72, 18))

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if values, ok := series.Values[analyzeMetric]; ok {
		interval, n, err := analysis.SampleInterval(series.Times)
		if err == nil {
			var spectrum *analysis.Spectrum
			spectrum, err = analysis.PowerSpectrum(values[:n], interval)
			if err == nil {
				freq, _ := spectrum.Dominant()
				fmt.Printf("\ndominant frequency of %s: %.4g Hz\n", analyzeMetric, freq)
			}
		}
		if err != nil {
			fmt.Printf("\nno spectrum for %s: %v\n", analyzeMetric, err)
		}
	}

	if svgFile != "" {
		cfg, err := st.LoadConfig(runID)
		if err != nil {
			return err
		}
		svg := export.CanvasToSVG(viz.Cloud(cfg, atomStates, 80, 40), 6)
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required (available: %v)", optim.ParameterNames())
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, param := range sweepParams {
		name, rng, ok := strings.Cut(param, "=")
		if !ok {
			return fmt.Errorf("invalid --param %q: want name=from:to:n", param)
		}
		values, err := optim.ParseRange(rng)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	grid, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	grid.WithParallel(parallel)
	if maximize {
		grid.Maximize()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run := func(ctx context.Context, c *config.Config) (*sim.Result, error) {
		s, err := newSimulation(c, sim.WithLogger(quietLogger()), sim.WithSampleEvery(c.Steps))
		if err != nil {
			return nil, err
		}
		return s.Run(ctx)
	}

	fmt.Printf("sweeping %d points...\n\n", len(grid.Points()))
	points, best, err := grid.Search(ctx, cfg, sweepMetric, run)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(sweepMetric))
	for _, p := range points {
		cols := make([]string, 0, len(names)+1)
		for _, name := range names {
			cols = append(cols, fmt.Sprintf("%.4g", p.Params[name]))
		}
		if p.Err != nil {
			cols = append(cols, "error: "+p.Err.Error())
		} else {
			cols = append(cols, fmt.Sprintf("%.6g", p.Value))
		}
		fmt.Fprintln(w, strings.Join(cols, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest %s: %.6g at", sweepMetric, best.Value)
	for _, name := range names {
		fmt.Printf(" %s=%.4g", name, best.Params[name])
	}
	fmt.Println()
	return nil
}
