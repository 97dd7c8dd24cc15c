package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/odeiv/internal/config"
	"github.com/san-kum/odeiv/internal/ode"
	"github.com/san-kum/odeiv/internal/storage"
)

func TestLoadScenario(t *testing.T) {
	yml := `name: smoke
description: two quick runs
steps:
  - model: decay
    stepper: rk8pd
    eps_abs: 1e-10
    samples: 50
  - model: oscillator
    t1: 5
    init_state: [1, 0]
    save_as: osc_demo
`
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	if sc.Name != "smoke" {
		t.Errorf("Name = %q, want smoke", sc.Name)
	}
	if len(sc.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(sc.Steps))
	}
	if sc.Steps[0].Model != "decay" || sc.Steps[0].Stepper != "rk8pd" {
		t.Errorf("step 1 = %s/%s, want decay/rk8pd", sc.Steps[0].Model, sc.Steps[0].Stepper)
	}
	if sc.Steps[0].EpsAbs != 1e-10 || sc.Steps[0].Samples != 50 {
		t.Errorf("step 1 eps_abs=%g samples=%d", sc.Steps[0].EpsAbs, sc.Steps[0].Samples)
	}
	if sc.Steps[1].SaveAs != "osc_demo" || len(sc.Steps[1].InitState) != 2 {
		t.Errorf("step 2 save_as=%q init_state=%v", sc.Steps[1].SaveAs, sc.Steps[1].InitState)
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	if _, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRunScenario(t *testing.T) {
	st := storage.New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	sc := &Scenario{
		Name: "smoke",
		Steps: []Step{
			{Config: config.Config{Model: "decay"}},
			{Config: config.Config{Model: "oscillator"}, SaveAs: "osc_demo"},
		},
	}

	results, err := RunScenario(context.Background(), sc, st)
	if err != nil {
		t.Fatalf("RunScenario: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	// Decay runs over its default window [0, 5].
	if got, want := results[0].Y[0], math.Exp(-5); math.Abs(got-want) > 1e-5 {
		t.Errorf("decay final = %g, want %g", got, want)
	}
	if results[0].Steps == 0 {
		t.Error("decay step took no steps")
	}
	if results[0].RunID != "" {
		t.Errorf("unsaved step has run ID %q", results[0].RunID)
	}

	if results[1].RunID != "osc_demo" {
		t.Fatalf("saved step run ID = %q, want osc_demo", results[1].RunID)
	}
	meta, err := st.Load("osc_demo")
	if err != nil {
		t.Fatalf("Load(osc_demo): %v", err)
	}
	if meta.Model != "oscillator" {
		t.Errorf("saved model = %q", meta.Model)
	}
	traj, err := st.LoadTrajectory("osc_demo")
	if err != nil {
		t.Fatalf("LoadTrajectory: %v", err)
	}
	if len(traj.T) != 200 {
		t.Errorf("saved %d samples, want the default 200", len(traj.T))
	}
}

func TestRunScenarioUnknownModel(t *testing.T) {
	sc := &Scenario{Steps: []Step{{Config: config.Config{Model: "warp"}}}}

	_, err := RunScenario(context.Background(), sc, nil)
	if !errors.Is(err, ode.ErrInvalidArg) {
		t.Fatalf("got %v, want ErrInvalidArg", err)
	}
}

func TestRunScenarioCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := &Scenario{Steps: []Step{{Config: config.Config{Model: "decay"}}}}
	results, err := RunScenario(ctx, sc, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results after cancellation", len(results))
	}
}

func TestMonteCarloDecayStable(t *testing.T) {
	mc := &MonteCarlo{
		Model:        "decay",
		Trials:       8,
		Perturbation: 0.2,
		Seed:         42,
		Limit:        4,
	}

	trials, err := mc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(trials) != 8 {
		t.Fatalf("got %d trials, want 8", len(trials))
	}
	if got := BoundedCount(trials); got != 8 {
		t.Errorf("BoundedCount = %d, want 8", got)
	}

	if trials[0].Init[0] == trials[1].Init[0] {
		t.Error("perturbation produced identical initial states")
	}
	for i, tr := range trials {
		if !tr.Bounded {
			t.Errorf("trial %d unbounded", i)
		}
		if math.Abs(tr.Final[0]) > 0.01 {
			t.Errorf("trial %d final = %g, want near zero", i, tr.Final[0])
		}
		if tr.Steps == 0 {
			t.Errorf("trial %d took no steps", i)
		}
	}
}

func TestMonteCarloValidation(t *testing.T) {
	mc := &MonteCarlo{Model: "decay", Trials: 0}
	if _, err := mc.Run(context.Background()); !errors.Is(err, ode.ErrInvalidArg) {
		t.Errorf("zero trials: got %v, want ErrInvalidArg", err)
	}

	mc = &MonteCarlo{Model: "warp", Trials: 1}
	if _, err := mc.Run(context.Background()); !errors.Is(err, ode.ErrInvalidArg) {
		t.Errorf("unknown model: got %v, want ErrInvalidArg", err)
	}
}
