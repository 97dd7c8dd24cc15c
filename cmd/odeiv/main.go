package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/odeiv/internal/analysis"
	"github.com/san-kum/odeiv/internal/automation"
	"github.com/san-kum/odeiv/internal/config"
	"github.com/san-kum/odeiv/internal/export"
	"github.com/san-kum/odeiv/internal/ivp"
	"github.com/san-kum/odeiv/internal/ode"
	"github.com/san-kum/odeiv/internal/physics"
	"github.com/san-kum/odeiv/internal/steppers"
	"github.com/san-kum/odeiv/internal/storage"
	"github.com/san-kum/odeiv/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	stepperName string
	controlName string
	t0          float64
	t1          float64
	hstart      float64
	hmin        float64
	hmax        float64
	nmax        uint64
	epsAbs      float64
	epsRel      float64
	aY          float64
	aDydt       float64
	samples     int
	initState   []float64
	params      []string
	configFile  string
	preset      string
	noSave      bool
	// Fixed-step size
	dt float64
	// Order study
	orderModel  string
	orderSteps  int
	orderLevels int
	// Benchmark grids
	benchSteppers []string
	benchTols     []float64
	// Spectrum component
	component int
	// Lyapunov estimation
	lyapDt    float64
	lyapSteps int
	lyapD0    float64
	// Phase plot axes
	xAxis int
	yAxis int
	// Export target
	outFile string
	// SVG rendering
	svgComponents []int
	svgWidth      int
	svgHeight     int
	svgPhase      bool
	// Live view speed
	timeScale float64
	// Sweep concurrency
	sweepLimit int
	// Stability study
	trials  int
	perturb float64
	seed    int64
)

// main wires up the odeiv command tree and executes the root command.
// It exits the process with status 1 if command execution returns an
// error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "odeiv",
		Short: "adaptive solvers for ordinary differential equations",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutDir, "run directory")

	solveCmd := &cobra.Command{
		Use:   "solve [model]",
		Short: "integrate a model with adaptive step size control",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}
	addProblemFlags(solveCmd)
	solveCmd.Flags().IntVar(&samples, "samples", 400, "trajectory samples to record")
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "skip writing the run directory")

	fixedCmd := &cobra.Command{
		Use:   "fixed [model]",
		Short: "integrate with a fixed step size",
		Args:  cobra.ExactArgs(1),
		RunE:  runFixed,
	}
	fixedCmd.Flags().StringVar(&stepperName, "stepper", config.DefaultStepper, "stepping method")
	fixedCmd.Flags().Float64Var(&dt, "dt", 0.01, "step size")
	fixedCmd.Flags().Float64Var(&t0, "t0", 0, "start time")
	fixedCmd.Flags().Float64Var(&t1, "t1", 0, "end time (0 with t0=0 uses the model window)")
	fixedCmd.Flags().Float64Var(&epsAbs, "eps-abs", config.DefaultEpsAbs, "absolute error tolerance")
	fixedCmd.Flags().Float64Var(&epsRel, "eps-rel", 0, "relative error tolerance")
	fixedCmd.Flags().Float64SliceVar(&initState, "state", nil, "initial state (comma separated)")

	compareCmd := &cobra.Command{
		Use:   "compare [model] [stepper1] [stepper2] ...",
		Short: "compare stepping methods on the same model",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runCompare,
	}
	compareCmd.Flags().Float64Var(&epsAbs, "eps-abs", config.DefaultEpsAbs, "absolute error tolerance")
	compareCmd.Flags().Float64Var(&epsRel, "eps-rel", 0, "relative error tolerance")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model] [param] [value1] [value2] ...",
		Short: "solve one model across parameter values concurrently",
		Args:  cobra.MinimumNArgs(3),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&stepperName, "stepper", config.DefaultStepper, "stepping method")
	sweepCmd.Flags().Float64Var(&epsAbs, "eps-abs", config.DefaultEpsAbs, "absolute error tolerance")
	sweepCmd.Flags().Float64Var(&epsRel, "eps-rel", 0, "relative error tolerance")
	sweepCmd.Flags().IntVar(&sweepLimit, "limit", 0, "max concurrent members (0 = unlimited)")

	benchCmd := &cobra.Command{
		Use:   "bench [model]",
		Short: "work-precision benchmark across tolerances",
		Args:  cobra.ExactArgs(1),
		RunE:  runBench,
	}
	benchCmd.Flags().StringSliceVar(&benchSteppers, "steppers",
		[]string{"rkf45", "rkck", "rk8pd", "bsimp", "msadams", "msbdf"}, "methods to benchmark")
	benchCmd.Flags().Float64SliceVar(&benchTols, "tols",
		[]float64{1e-4, 1e-6, 1e-8, 1e-10}, "tolerances to sweep")

	orderCmd := &cobra.Command{
		Use:   "order [stepper1] [stepper2] ...",
		Short: "estimate convergence order by step halving",
		RunE:  runOrder,
	}
	orderCmd.Flags().StringVar(&orderModel, "model", "oscillator", "test model")
	orderCmd.Flags().IntVar(&orderSteps, "steps", 16, "steps at the coarsest level")
	orderCmd.Flags().IntVar(&orderLevels, "levels", 4, "halving levels")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  runSpectrum,
	}
	spectrumCmd.Flags().IntVarP(&component, "component", "c", 0, "state component to analyze")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [model]",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.ExactArgs(1),
		RunE:  runLyapunov,
	}
	lyapunovCmd.Flags().StringVar(&stepperName, "stepper", config.DefaultStepper, "stepping method")
	lyapunovCmd.Flags().Float64Var(&lyapDt, "dt", 1.0, "renormalization interval")
	lyapunovCmd.Flags().IntVar(&lyapSteps, "steps", 60, "renormalization intervals")
	lyapunovCmd.Flags().Float64Var(&lyapD0, "d0", 1e-8, "initial separation")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models and stepping methods",
		RunE:  listModels,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "print run data as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write run data to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSONRun,
	}
	exportJSONCmd.Flags().StringVar(&outFile, "out", "", "output path (default [run_id].json)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render run data to an SVG file",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVGRun,
	}
	exportSVGCmd.Flags().StringVar(&outFile, "out", "", "output path (default [run_id].svg)")
	exportSVGCmd.Flags().IntSliceVar(&svgComponents, "components", nil, "components to draw (default all)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "image height")
	exportSVGCmd.Flags().BoolVar(&svgPhase, "phase", false, "draw a phase portrait instead of time series")
	exportSVGCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for the phase x-axis")
	exportSVGCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for the phase y-axis")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	stabilityCmd := &cobra.Command{
		Use:   "stability [model]",
		Short: "monte carlo stability study over perturbed starts",
		Args:  cobra.ExactArgs(1),
		RunE:  runStability,
	}
	stabilityCmd.Flags().StringVar(&stepperName, "stepper", config.DefaultStepper, "stepping method")
	stabilityCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	stabilityCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "uniform perturbation half-width")
	stabilityCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time-based)")
	stabilityCmd.Flags().IntVar(&sweepLimit, "limit", 0, "max concurrent trials (0 = unlimited)")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "integrate with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addProblemFlags(liveCmd)
	liveCmd.Flags().Float64Var(&timeScale, "speed", 1.0, "simulated time per wall second")

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
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(solveCmd, fixedCmd, compareCmd, sweepCmd, benchCmd, orderCmd,
		spectrumCmd, lyapunovCmd, listCmd, modelsCmd, plotCmd, phaseCmd,
		exportCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, batchCmd,
		stabilityCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addProblemFlags registers the flags shared by commands that set up a
// full initial value problem.
func addProblemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&stepperName, "stepper", config.DefaultStepper, "stepping method")
	cmd.Flags().StringVar(&controlName, "control", config.DefaultControl, "step control (y, yp, standard)")
	cmd.Flags().Float64Var(&t0, "t0", 0, "start time")
	cmd.Flags().Float64Var(&t1, "t1", 0, "end time (0 with t0=0 uses the model window)")
	cmd.Flags().Float64Var(&hstart, "hstart", config.DefaultHStart, "initial step size")
	cmd.Flags().Float64Var(&hmin, "hmin", 0, "minimum step size")
	cmd.Flags().Float64Var(&hmax, "hmax", 0, "maximum step size")
	cmd.Flags().Uint64Var(&nmax, "nmax", 0, "step budget (0 = unlimited)")
	cmd.Flags().Float64Var(&epsAbs, "eps-abs", config.DefaultEpsAbs, "absolute error tolerance")
	cmd.Flags().Float64Var(&epsRel, "eps-rel", 0, "relative error tolerance")
	cmd.Flags().Float64Var(&aY, "a-y", 1.0, "state weight (standard control)")
	cmd.Flags().Float64Var(&aDydt, "a-dydt", 0, "derivative weight (standard control)")
	cmd.Flags().Float64SliceVar(&initState, "state", nil, "initial state (comma separated)")
	cmd.Flags().StringArrayVar(&params, "param", nil, "model parameter as name=value")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// loadConfig builds the run configuration for a model. Precedence from
// weakest to strongest: defaults, preset, config file, environment,
// command line flags.
func loadConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if err := config.FromEnv(cfg); err != nil {
		return nil, err
	}

	cfg.Model = model
	f := cmd.Flags()
	if f.Changed("stepper") {
		cfg.Stepper = stepperName
	}
	if f.Changed("control") {
		cfg.Control = controlName
	}
	if f.Changed("t0") {
		cfg.T0 = t0
	}
	if f.Changed("t1") {
		cfg.T1 = t1
	}
	if f.Changed("hstart") {
		cfg.HStart = hstart
	}
	if f.Changed("hmin") {
		cfg.HMin = hmin
	}
	if f.Changed("hmax") {
		cfg.HMax = hmax
	}
	if f.Changed("nmax") {
		cfg.NMax = nmax
	}
	if f.Changed("eps-abs") {
		cfg.EpsAbs = epsAbs
	}
	if f.Changed("eps-rel") {
		cfg.EpsRel = epsRel
	}
	if f.Changed("a-y") {
		cfg.AY = aY
	}
	if f.Changed("a-dydt") {
		cfg.ADydt = aDydt
	}
	if f.Changed("state") {
		cfg.InitState = initState
	}
	if f.Changed("data") {
		cfg.OutDir = dataDir
	}

	for _, p := range params {
		name, val, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("bad parameter %q, want name=value", p)
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("bad parameter value %q: %w", p, err)
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		cfg.Params[name] = v
	}

	return cfg, nil
}

// setupModel resolves the model, applies parameters, and fills the
// window and initial state the configuration leaves to the model.
func setupModel(cfg *config.Config) (physics.Model, ode.System, []float64, error) {
	m, err := physics.Lookup(cfg.Model)
	if err != nil {
		return nil, ode.System{}, nil, err
	}

	if len(cfg.Params) > 0 {
		c, ok := m.(physics.Configurable)
		if !ok {
			return nil, ode.System{}, nil, fmt.Errorf("model %s takes no parameters", cfg.Model)
		}
		for name, v := range cfg.Params {
			if _, known := c.GetParams()[name]; !known {
				return nil, ode.System{}, nil, fmt.Errorf("model %s has no parameter %q", cfg.Model, name)
			}
			c.SetParam(name, v)
		}
	}

	sys := m.System()
	y0 := m.DefaultState()
	if len(cfg.InitState) > 0 {
		if len(cfg.InitState) != sys.Dim {
			return nil, ode.System{}, nil, fmt.Errorf("initial state has %d components, %s needs %d",
				len(cfg.InitState), cfg.Model, sys.Dim)
		}
		y0 = append([]float64(nil), cfg.InitState...)
	}

	if cfg.T0 == 0 && cfg.T1 == 0 {
		cfg.T0, cfg.T1 = m.Window()
	}
	return m, sys, y0, nil
}

// newDriver builds a driver for the configured step control.
func newDriver(cfg *config.Config, sys ode.System, typ *steppers.Type) (*ivp.Driver, error) {
	var (
		d   *ivp.Driver
		err error
	)
	switch cfg.Control {
	case "y", "":
		d, err = ivp.NewDriverY(sys, typ, cfg.HStart, cfg.EpsAbs, cfg.EpsRel)
	case "yp":
		d, err = ivp.NewDriverYP(sys, typ, cfg.HStart, cfg.EpsAbs, cfg.EpsRel)
	case "standard":
		d, err = ivp.NewDriverStandard(sys, typ, cfg.HStart, cfg.EpsAbs, cfg.EpsRel, cfg.AY, cfg.ADydt)
	default:
		return nil, fmt.Errorf("%w: unknown control %q (want y, yp, or standard)", ode.ErrInvalidArg, cfg.Control)
	}
	if err != nil {
		return nil, err
	}

	if cfg.HMin > 0 {
		if err := d.SetHMin(cfg.HMin); err != nil {
			return nil, err
		}
	}
	if cfg.HMax > 0 {
		if err := d.SetHMax(cfg.HMax); err != nil {
			return nil, err
		}
	}
	if cfg.NMax > 0 {
		d.SetNMax(cfg.NMax)
	}
	return d, nil
}

func fmtState(y []float64) string {
	parts := make([]string, len(y))
	for i, v := range y {
		parts[i] = strconv.FormatFloat(v, 'g', 6, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	_, sys, y0, err := setupModel(cfg)
	if err != nil {
		return err
	}
	typ, err := steppers.Lookup(cfg.Stepper)
	if err != nil {
		return err
	}
	if typ.NeedsJacobian && sys.Jac == nil {
		return fmt.Errorf("stepper %s needs a jacobian, model %s provides none", typ.Name, cfg.Model)
	}
	if samples < 2 {
		return fmt.Errorf("need at least 2 samples, got %d", samples)
	}
	if cfg.T1 == cfg.T0 {
		return fmt.Errorf("empty integration window [%g, %g]", cfg.T0, cfg.T1)
	}

	d, err := newDriver(cfg, sys, typ)
	if err != nil {
		return err
	}

	fmt.Printf("solving %s with %s over [%g, %g]...\n", cfg.Model, typ.Name, cfg.T0, cfg.T1)
	start := time.Now()

	y := append([]float64(nil), y0...)
	sampleDt := (cfg.T1 - cfg.T0) / float64(samples-1)
	traj, err := ivp.Record(d, y, cfg.T0, sampleDt, samples)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("accepted steps: %d\n", d.Count())
	fmt.Printf("failed steps: %d\n", d.FailedSteps())
	fmt.Printf("final step size: %.3g\n", d.H())
	fmt.Printf("final state: %s\n", fmtState(y))

	if noSave {
		return nil
	}

	st := storage.New(cfg.OutDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Model:   cfg.Model,
		Stepper: typ.Name,
		Control: cfg.Control,
		T0:      cfg.T0,
		T1:      cfg.T1,
		HStart:  cfg.HStart,
		EpsAbs:  cfg.EpsAbs,
		EpsRel:  cfg.EpsRel,
		Steps:   d.Count(),
		Failed:  d.FailedSteps(),
	}, traj)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func runFixed(cmd *cobra.Command, args []string) error {
	m, err := physics.Lookup(args[0])
	if err != nil {
		return err
	}
	typ, err := steppers.Lookup(stepperName)
	if err != nil {
		return err
	}
	if dt == 0 {
		return fmt.Errorf("step size must be nonzero")
	}

	sys := m.System()
	y := m.DefaultState()
	if len(initState) > 0 {
		if len(initState) != sys.Dim {
			return fmt.Errorf("initial state has %d components, %s needs %d", len(initState), args[0], sys.Dim)
		}
		y = append([]float64(nil), initState...)
	}

	if t0 == 0 && t1 == 0 {
		t0, t1 = m.Window()
	}
	n := uint64(math.Round((t1 - t0) / dt))
	if n == 0 {
		return fmt.Errorf("window [%g, %g] holds no steps of size %g", t0, t1, dt)
	}

	d, err := ivp.NewDriverY(sys, typ, dt, epsAbs, epsRel)
	if err != nil {
		return err
	}

	fmt.Printf("stepping %s with %s, %d steps of %g...\n", args[0], typ.Name, n, dt)
	start := time.Now()

	t := t0
	if err := d.ApplyFixedStep(&t, dt, n, y); err != nil {
		return fmt.Errorf("at t=%g after %d steps: %w", t, d.N(), err)
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("final time: %g\n", t)
	fmt.Printf("final state: %s\n", fmtState(y))
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	m, err := physics.Lookup(args[0])
	if err != nil {
		return err
	}
	sys := m.System()
	y0 := m.DefaultState()
	wt0, wt1 := m.Window()

	fmt.Printf("comparing steppers for %s (t=[%g, %g], eps_abs=%.0e)\n\n", args[0], wt0, wt1, epsAbs)
	fmt.Printf("%-10s  %14s  %10s  %8s  %6s  %10s\n", "stepper", "final_y0", "steps", "failed", "order", "time_ms")
	fmt.Println(strings.Repeat("-", 68))

	for _, name := range args[1:] {
		typ, err := steppers.Lookup(name)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		d, err := ivp.NewDriverY(sys, typ, config.DefaultHStart, epsAbs, epsRel)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		y := append([]float64(nil), y0...)
		t := wt0

		start := time.Now()
		err = d.Apply(&t, wt1, y)
		elapsed := time.Since(start)

		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		fmt.Printf("%-10s  %14.6f  %10d  %8d  %6d  %10.2f\n",
			name, y[0], d.Count(), d.FailedSteps(), d.Stepper().Order(),
			float64(elapsed.Microseconds())/1000)
	}

	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	model, param := args[0], args[1]

	typ, err := steppers.Lookup(stepperName)
	if err != nil {
		return err
	}

	runs := make([]ivp.Run, 0, len(args)-2)
	for _, raw := range args[2:] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("bad value %q: %w", raw, err)
		}

		// A fresh model instance per member so the closures do not
		// share parameters.
		m, err := physics.Lookup(model)
		if err != nil {
			return err
		}
		c, ok := m.(physics.Configurable)
		if !ok {
			return fmt.Errorf("model %s takes no parameters", model)
		}
		if _, known := c.GetParams()[param]; !known {
			return fmt.Errorf("model %s has no parameter %q", model, param)
		}
		c.SetParam(param, v)

		wt0, wt1 := m.Window()
		runs = append(runs, ivp.Run{
			Label: fmt.Sprintf("%s=%g", param, v),
			Sys:   m.System(),
			Y0:    m.DefaultState(),
			T0:    wt0,
			T1:    wt1,
		})
	}

	ens := ivp.NewEnsemble(func(sys ode.System) (*ivp.Driver, error) {
		return ivp.NewDriverY(sys, typ, config.DefaultHStart, epsAbs, epsRel)
	}, sweepLimit)

	fmt.Printf("sweeping %s.%s across %d values with %s...\n\n", model, param, len(runs), typ.Name)
	start := time.Now()

	results, err := ens.Solve(context.Background(), runs)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tFINAL STATE\tSTEPS\tFAILED")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", r.Label, fmtState(r.Y), r.Steps, r.Failed)
	}
	return w.Flush()
}

func runBench(cmd *cobra.Command, args []string) error {
	m, err := physics.Lookup(args[0])
	if err != nil {
		return err
	}
	sys := m.System()
	y0 := m.DefaultState()
	wt0, wt1 := m.Window()

	fmt.Printf("benchmarking %s (t=[%g, %g])\n\n", args[0], wt0, wt1)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEPPER\tTOL\tSTEPS\tFAILED\tEVALS\tERR\tTIME")

	for _, name := range benchSteppers {
		typ, err := steppers.Lookup(name)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		for _, tol := range benchTols {
			start := time.Now()
			points, err := analysis.WorkPrecision(sys, typ, y0, wt0, wt1, []float64{tol})
			elapsed := time.Since(start)
			if err != nil {
				fmt.Fprintf(w, "%s\t%.0e\terror: %v\n", name, tol, err)
				continue
			}

			p := points[0]
			fmt.Fprintf(w, "%s\t%.0e\t%d\t%d\t%d\t%.2e\t%v\n",
				name, p.Tol, p.Steps, p.Failed, p.Evals, p.Err, elapsed.Round(time.Microsecond))
		}
	}

	return w.Flush()
}

func runOrder(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = []string{"rk2", "rk4", "rkf45", "rkck", "rk8pd"}
	}

	m, err := physics.Lookup(orderModel)
	if err != nil {
		return err
	}
	sys := m.System()
	y0 := m.DefaultState()
	wt0, wt1 := m.Window()

	fmt.Printf("convergence on %s over [%g, %g], %d steps at the coarsest level\n\n",
		orderModel, wt0, wt1, orderSteps)

	for _, name := range names {
		typ, err := steppers.Lookup(name)
		if err != nil {
			fmt.Printf("%-8s error: %v\n\n", name, err)
			continue
		}

		est, err := analysis.ObservedOrder(sys, typ, y0, wt0, wt1, orderSteps, orderLevels)
		if err != nil {
			fmt.Printf("%-8s error: %v\n\n", name, err)
			continue
		}

		fmt.Printf("%s: observed order %.2f\n", name, est.Order)
		for l := range est.H {
			fmt.Printf("  h=%-12.4g diff=%.3e\n", est.H[l], est.Diff[l])
		}
		fmt.Println()
	}

	return nil
}

func runSpectrum(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(traj.T) < 2 {
		return fmt.Errorf("run %s has too few samples", args[0])
	}
	if component < 0 || component >= traj.Dim() {
		return fmt.Errorf("component %d of %d", component, traj.Dim())
	}

	series := make([]float64, len(traj.Y))
	for k, y := range traj.Y {
		series[k] = y[component]
	}
	sampleDt := traj.T[1] - traj.T[0]

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d, dt=%g\n\n", len(series), sampleDt)

	amp := analysis.PowerSpectrum(series)

	// The interesting lines sit in the lower quarter of the band.
	fmt.Println(viz.PlotSeries(amp[:len(amp)/2], 80, 15,
		fmt.Sprintf("amplitude spectrum (y%d)", component)))
	fmt.Println()

	freq := analysis.Peak(amp, sampleDt)
	fmt.Printf("dominant frequency: %.4f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.4f s\n", 1.0/freq)
	}

	return nil
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	m, err := physics.Lookup(args[0])
	if err != nil {
		return err
	}
	typ, err := steppers.Lookup(stepperName)
	if err != nil {
		return err
	}

	fmt.Printf("estimating largest lyapunov exponent of %s (%d intervals of %g)...\n",
		args[0], lyapSteps, lyapDt)

	lambda, err := analysis.LargestExponent(m.System(), typ, m.DefaultState(),
		lyapDt, lyapSteps, lyapD0, 1e-8, 1e-8)
	if err != nil {
		return err
	}

	fmt.Printf("lambda: %.4f per time unit\n", lambda)
	if lambda > 0 {
		fmt.Printf("doubling time: %.3f\n", math.Ln2/lambda)
	} else {
		fmt.Println("no exponential divergence")
	}
	return nil
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
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tSTEPPER\tCONTROL\tWINDOW\tSTEPS\tFAILED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t[%g, %g]\t%d\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Stepper,
			run.Control,
			run.T0, run.T1,
			run.Steps,
			run.Failed,
		)
	}

	return w.Flush()
}

func listModels(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tDIM\tWINDOW\tSTIFF")
	for _, name := range physics.Names() {
		m, err := physics.Lookup(name)
		if err != nil {
			return err
		}
		sys := m.System()
		wt0, wt1 := m.Window()
		fmt.Fprintf(w, "%s\t%d\t[%g, %g]\t%v\n", name, sys.Dim, wt0, wt1, m.Stiff())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEPPER\tORDER\tJACOBIAN\tDRIVER-ONLY")
	for _, name := range steppers.Names() {
		typ, err := steppers.Lookup(name)
		if err != nil {
			return err
		}
		s, err := typ.New(1)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%v\t%v\n", name, s.Order(), typ.NeedsJacobian, typ.NeedsDriver)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(traj.T) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(traj.T))

	numVars := traj.Dim()
	maxPlots := 6
	if numVars > maxPlots {
		numVars = maxPlots
	}

	for varIdx := 0; varIdx < numVars; varIdx++ {
		caption := fmt.Sprintf("y%d vs time", varIdx)
		switch meta.Model {
		case "pendulum":
			if varIdx == 0 {
				caption = "theta (angle)"
			} else if varIdx == 1 {
				caption = "omega (angular velocity)"
			}
		case "oscillator", "vanderpol":
			if varIdx == 0 {
				caption = "position"
			} else if varIdx == 1 {
				caption = "velocity"
			}
		case "robertson":
			caption = fmt.Sprintf("concentration y%d", varIdx)
		}

		chart, err := viz.PlotComponent(traj, varIdx, 80, 10, caption)
		if err != nil {
			return err
		}
		fmt.Println(chart)
		fmt.Println()
	}

	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(traj.T) == 0 {
		return fmt.Errorf("no data to plot")
	}
	if xAxis >= traj.Dim() || yAxis >= traj.Dim() {
		return fmt.Errorf("state dimension too small for selected axes")
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("x-axis: y%d, y-axis: y%d\n\n", xAxis, yAxis)

	xData := make([]float64, len(traj.Y))
	yData := make([]float64, len(traj.Y))
	for i, y := range traj.Y {
		xData[i] = y[xAxis]
		yData[i] = y[yAxis]
	}

	xMin, xMax := xData[0], xData[0]
	yMin, yMax := yData[0], yData[0]
	for i := range xData {
		xMin = math.Min(xMin, xData[i])
		xMax = math.Max(xMax, xData[i])
		yMin = math.Min(yMin, yData[i])
		yMax = math.Max(yMax, yData[i])
	}

	xRange := xMax - xMin
	yRange := yMax - yMin
	if xRange == 0 {
		xRange = 1
	}
	if yRange == 0 {
		yRange = 1
	}

	width := 70
	height := 20
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for i := range xData {
		px := int(float64(width-1) * (xData[i] - xMin) / xRange)
		py := int(float64(height-1) * (yData[i] - yMin) / yRange)
		py = height - 1 - py
		if px >= 0 && px < width && py >= 0 && py < height {
			// Mark by progress through the trajectory.
			if i < len(xData)/3 {
				canvas[py][px] = '.'
			} else if i < 2*len(xData)/3 {
				canvas[py][px] = 'o'
			} else {
				canvas[py][px] = '●'
			}
		}
	}

	fmt.Printf("  %.2f ┌%s┐\n", yMax, strings.Repeat("─", width))
	for i := range canvas {
		if i == height/2 {
			fmt.Printf("  %.2f │", (yMax+yMin)/2)
		} else {
			fmt.Print("       │")
		}
		fmt.Print(string(canvas[i]))
		fmt.Println("│")
	}
	fmt.Printf("  %.2f └%s┘\n", yMin, strings.Repeat("─", width))

	fmt.Printf("       %.2f%s%.2f\n", xMin, strings.Repeat(" ", width-20), xMax)
	fmt.Printf("\nLegend: . = early, o = middle, ● = late\n")

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(traj.T) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time"}
	for i := 0; i < traj.Dim(); i++ {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range traj.T {
		row := []string{strconv.FormatFloat(traj.T[i], 'g', -1, 64)}
		for _, v := range traj.Y[i] {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func exportJSONRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	path := outFile
	if path == "" {
		path = args[0] + ".json"
	}
	if err := storage.ExportJSON(path, *meta, traj); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func exportSVGRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	var doc string
	if svgPhase {
		doc, err = export.PhaseSVG(traj, xAxis, yAxis, svgWidth, svgHeight)
	} else {
		doc, err = export.TrajectorySVG(traj, svgComponents, svgWidth, svgHeight)
	}
	if err != nil {
		return err
	}

	path := outFile
	if path == "" {
		path = args[0] + ".svg"
	}
	if err := export.WriteFile(path, doc); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario: %s (%d steps)\n", scenario.Name, len(scenario.Steps))
	if scenario.Description != "" {
		fmt.Println(scenario.Description)
	}
	fmt.Println()

	start := time.Now()
	results, err := automation.RunScenario(context.Background(), scenario, st)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMODEL\tFINAL STATE\tSTEPS\tFAILED\tSAVED AS")
	for i, r := range results {
		saved := r.RunID
		if saved == "" {
			saved = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n", i+1, r.Model, fmtState(r.Y), r.Steps, r.Failed, saved)
	}
	return w.Flush()
}

func runStability(cmd *cobra.Command, args []string) error {
	mc := &automation.MonteCarlo{
		Model:        args[0],
		Stepper:      stepperName,
		Perturbation: perturb,
		Trials:       trials,
		Seed:         seed,
		Limit:        sweepLimit,
	}

	fmt.Printf("running %d perturbed trials of %s (half-width %g)...\n", trials, args[0], perturb)
	start := time.Now()

	trialResults, err := mc.Run(context.Background())
	if err != nil {
		return err
	}

	bounded := automation.BoundedCount(trialResults)
	fmt.Printf("completed in %v\n\n", time.Since(start))
	fmt.Printf("bounded: %d/%d\n", bounded, len(trialResults))

	for i, tr := range trialResults {
		if !tr.Bounded {
			fmt.Printf("  trial %d diverged from %s\n", i, fmtState(tr.Init))
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	_, sys, y0, err := setupModel(cfg)
	if err != nil {
		return err
	}
	typ, err := steppers.Lookup(cfg.Stepper)
	if err != nil {
		return err
	}
	d, err := newDriver(cfg, sys, typ)
	if err != nil {
		return err
	}

	m := viz.NewLive(cfg.Model, d, y0, cfg.T0, cfg.T1, timeScale)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
