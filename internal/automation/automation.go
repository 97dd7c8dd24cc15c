// Package automation runs scripted sequences of integrations and
// perturbed-start stability studies on top of the solver stack.
package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/odeiv/internal/config"
	"github.com/san-kum/odeiv/internal/ivp"
	"github.com/san-kum/odeiv/internal/ode"
	"github.com/san-kum/odeiv/internal/physics"
	"github.com/san-kum/odeiv/internal/steppers"
	"github.com/san-kum/odeiv/internal/storage"
)

// Scenario is a scripted sequence of integration runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run of a scenario. Solver fields it leaves unset fall
// back to the configuration defaults, and a step with save_as is
// persisted under that run ID.
type Step struct {
	config.Config `yaml:",inline"`

	Samples int    `yaml:"samples"`
	SaveAs  string `yaml:"save_as"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Model  string
	RunID  string
	T      float64
	Y      []float64
	Steps  uint64
	Failed uint64
}

// RunScenario executes all steps in order. A nil store disables
// persistence of steps that request it.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		res, err := runStep(step, st)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Model, err)
		}
		results = append(results, *res)
	}

	return results, nil
}

func runStep(step Step, st *storage.Store) (*StepResult, error) {
	cfg := step.Config
	if cfg.Stepper == "" {
		cfg.Stepper = config.DefaultStepper
	}
	if cfg.HStart == 0 {
		cfg.HStart = config.DefaultHStart
	}
	if cfg.EpsAbs == 0 {
		cfg.EpsAbs = config.DefaultEpsAbs
	}
	if cfg.AY == 0 {
		cfg.AY = 1.0
	}

	m, err := physics.Lookup(cfg.Model)
	if err != nil {
		return nil, err
	}
	if c, ok := m.(physics.Configurable); ok {
		for name, v := range cfg.Params {
			c.SetParam(name, v)
		}
	}

	sys := m.System()
	y := m.DefaultState()
	if len(cfg.InitState) > 0 {
		if len(cfg.InitState) != sys.Dim {
			return nil, fmt.Errorf("%w: initial state has %d components, want %d",
				ode.ErrInvalidArg, len(cfg.InitState), sys.Dim)
		}
		y = append([]float64(nil), cfg.InitState...)
	}
	if cfg.T0 == 0 && cfg.T1 == 0 {
		cfg.T0, cfg.T1 = m.Window()
	}

	typ, err := steppers.Lookup(cfg.Stepper)
	if err != nil {
		return nil, err
	}

	var d *ivp.Driver
	switch cfg.Control {
	case "y", "":
		d, err = ivp.NewDriverY(sys, typ, cfg.HStart, cfg.EpsAbs, cfg.EpsRel)
	case "yp":
		d, err = ivp.NewDriverYP(sys, typ, cfg.HStart, cfg.EpsAbs, cfg.EpsRel)
	case "standard":
		d, err = ivp.NewDriverStandard(sys, typ, cfg.HStart, cfg.EpsAbs, cfg.EpsRel, cfg.AY, cfg.ADydt)
	default:
		return nil, fmt.Errorf("%w: unknown control %q", ode.ErrInvalidArg, cfg.Control)
	}
	if err != nil {
		return nil, err
	}
	if cfg.NMax > 0 {
		d.SetNMax(cfg.NMax)
	}

	samples := step.Samples
	if samples < 2 {
		samples = 200
	}
	dt := (cfg.T1 - cfg.T0) / float64(samples-1)
	traj, err := ivp.Record(d, y, cfg.T0, dt, samples)
	if err != nil {
		return nil, err
	}

	res := &StepResult{
		Model:  cfg.Model,
		T:      cfg.T1,
		Y:      append([]float64(nil), y...),
		Steps:  d.Count(),
		Failed: d.FailedSteps(),
	}

	if step.SaveAs != "" && st != nil {
		runID, err := st.Save(storage.RunMetadata{
			ID:      step.SaveAs,
			Model:   cfg.Model,
			Stepper: cfg.Stepper,
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
			return nil, err
		}
		res.RunID = runID
	}

	return res, nil
}

// MonteCarlo integrates one model many times from randomly perturbed
// initial states, all trials running concurrently.
type MonteCarlo struct {
	Model        string
	Stepper      string
	BaseState    []float64 // nil means the model default
	Perturbation float64
	Trials       int
	EpsAbs       float64
	EpsRel       float64
	Seed         int64
	Limit        int
}

// Trial is the outcome of one Monte Carlo member.
type Trial struct {
	Init    []float64
	Final   []float64
	Steps   uint64
	Bounded bool
}

// Run integrates all trials over the model window.
func (mc *MonteCarlo) Run(ctx context.Context) ([]Trial, error) {
	if mc.Trials < 1 {
		return nil, fmt.Errorf("%w: %d trials", ode.ErrInvalidArg, mc.Trials)
	}

	m, err := physics.Lookup(mc.Model)
	if err != nil {
		return nil, err
	}

	stepper := mc.Stepper
	if stepper == "" {
		stepper = config.DefaultStepper
	}
	typ, err := steppers.Lookup(stepper)
	if err != nil {
		return nil, err
	}

	epsAbs := mc.EpsAbs
	if epsAbs == 0 {
		epsAbs = config.DefaultEpsAbs
	}

	sys := m.System()
	base := mc.BaseState
	if base == nil {
		base = m.DefaultState()
	}
	t0, t1 := m.Window()

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	runs := make([]ivp.Run, mc.Trials)
	for i := range runs {
		y0 := make([]float64, len(base))
		for j, v := range base {
			y0[j] = v + (rng.Float64()-0.5)*2*mc.Perturbation
		}
		runs[i] = ivp.Run{
			Label: fmt.Sprintf("trial %d", i),
			Sys:   sys,
			Y0:    y0,
			T0:    t0,
			T1:    t1,
		}
	}

	ens := ivp.NewEnsemble(func(sys ode.System) (*ivp.Driver, error) {
		return ivp.NewDriverY(sys, typ, config.DefaultHStart, epsAbs, mc.EpsRel)
	}, mc.Limit)

	results, err := ens.Solve(ctx, runs)
	if err != nil {
		return nil, err
	}

	trials := make([]Trial, len(results))
	for i, r := range results {
		bounded := true
		for _, v := range r.Y {
			if math.Abs(v) > 1e6 || math.IsNaN(v) {
				bounded = false
				break
			}
		}
		trials[i] = Trial{
			Init:    runs[i].Y0,
			Final:   r.Y,
			Steps:   r.Steps,
			Bounded: bounded,
		}
	}
	return trials, nil
}

// BoundedCount reports how many trials stayed bounded.
func BoundedCount(trials []Trial) int {
	n := 0
	for _, t := range trials {
		if t.Bounded {
			n++
		}
	}
	return n
}
