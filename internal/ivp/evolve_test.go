package ivp

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odeiv/internal/control"
	"github.com/san-kum/odeiv/internal/ode"
	"github.com/san-kum/odeiv/internal/steppers"
)

func decaySystem() ode.System {
	return ode.System{
		Dim: 1,
		Func: func(t float64, y, dydt []float64) error {
			dydt[0] = -y[0]
			return nil
		},
		Jac: func(t float64, y, dfdy, dfdt []float64) error {
			dfdy[0] = -1
			dfdt[0] = 0
			return nil
		},
	}
}

func TestEvolverRejectsBadDimension(t *testing.T) {
	if _, err := NewEvolver(0); !errors.Is(err, ode.ErrInvalidArg) {
		t.Errorf("NewEvolver(0): got %v, want ErrInvalidArg", err)
	}

	e, err := NewEvolver(2)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := steppers.RKF45.New(2)
	tv, h := 0.0, 0.1
	err = e.Apply(nil, s, decaySystem(), &tv, 1, &h, []float64{1, 0})
	if !errors.Is(err, ode.ErrInvalidArg) {
		t.Errorf("system dimension mismatch: got %v, want ErrInvalidArg", err)
	}
}

func TestEvolverRejectsWrongDirection(t *testing.T) {
	e, _ := NewEvolver(1)
	s, _ := steppers.RKF45.New(1)
	tv, h := 0.0, 0.1
	err := e.Apply(nil, s, decaySystem(), &tv, -1, &h, []float64{1})
	if !errors.Is(err, ode.ErrInvalidArg) {
		t.Errorf("got %v, want ErrInvalidArg", err)
	}
}

func TestEvolverMarchesToTarget(t *testing.T) {
	e, _ := NewEvolver(1)
	s, _ := steppers.RKF45.New(1)
	con, err := control.NewY(1e-10, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	sys := decaySystem()

	tv, h := 0.0, 1e-3
	y := []float64{1}
	for i := 0; tv < 2.0; i++ {
		if err := e.Apply(con, s, sys, &tv, 2.0, &h, y); err != nil {
			t.Fatalf("apply at t=%g: %v", tv, err)
		}
		if i > 100000 {
			t.Fatal("runaway step loop")
		}
	}
	if tv != 2.0 {
		t.Errorf("final t = %v, want exactly 2.0", tv)
	}
	if e := math.Abs(y[0] - math.Exp(-2)); e > 1e-8 {
		t.Errorf("error %g at t=2", e)
	}
	if e.Count() == 0 {
		t.Error("no steps counted")
	}
}

func TestEvolverFinalStepLandsExactly(t *testing.T) {
	e, _ := NewEvolver(1)
	s, _ := steppers.RKF45.New(1)
	tv, h := 0.0, 10.0 // much larger than the interval
	y := []float64{1}
	if err := e.Apply(nil, s, decaySystem(), &tv, 0.3, &h, y); err != nil {
		t.Fatal(err)
	}
	if tv != 0.3 {
		t.Errorf("t = %v, want exactly 0.3", tv)
	}
}

func TestEvolverBadFuncAborts(t *testing.T) {
	sys := ode.System{
		Dim: 1,
		Func: func(t float64, y, dydt []float64) error {
			return ode.ErrBadFunc
		},
	}
	e, _ := NewEvolver(1)
	s, _ := steppers.RK4.New(1)
	tv, h := 0.0, 0.1
	y := []float64{1}
	err := e.Apply(nil, s, sys, &tv, 1, &h, y)
	if !errors.Is(err, ode.ErrBadFunc) {
		t.Fatalf("got %v, want ErrBadFunc", err)
	}
	if tv != 0 || y[0] != 1 || h != 0.1 {
		t.Errorf("state not rolled back: t=%v y=%v h=%v", tv, y[0], h)
	}
	if e.FailedSteps() != 0 {
		t.Errorf("FailedSteps = %d, want 0 for an aborted call", e.FailedSteps())
	}
}

// A persistently failing right-hand side shrinks the step until it can
// no longer move t, then surfaces the failure with position context.
func TestEvolverGivesUpAfterShrinking(t *testing.T) {
	flaky := errors.New("singularity")
	sys := ode.System{
		Dim: 1,
		Func: func(t float64, y, dydt []float64) error {
			return flaky
		},
	}
	e, _ := NewEvolver(1)
	s, _ := steppers.RK2.New(1)
	tv, h := 1.0, 0.1
	y := []float64{4}
	err := e.Apply(nil, s, sys, &tv, 2, &h, y)
	if err == nil {
		t.Fatal("expected failure")
	}
	var stepErr *ode.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error %v carries no step context", err)
	}
	if !errors.Is(err, flaky) {
		t.Errorf("cause lost: %v", err)
	}
	if stepErr.T != 1.0 {
		t.Errorf("failure reported at t=%v, want 1.0", stepErr.T)
	}
	if tv != 1.0 || y[0] != 4 {
		t.Errorf("state not rolled back: t=%v y=%v", tv, y[0])
	}
	if e.FailedSteps() == 0 {
		t.Error("shrink attempts not counted")
	}
	if math.Abs(h) >= 0.1 {
		t.Errorf("h = %v not shrunk", h)
	}
}

func TestEvolverFixedStepRejection(t *testing.T) {
	e, _ := NewEvolver(1)
	s, _ := steppers.RKF45.New(1)
	con, err := control.NewY(1e-14, 0)
	if err != nil {
		t.Fatal(err)
	}
	tv := 0.0
	y := []float64{1}
	err = e.ApplyFixedStep(con, s, decaySystem(), &tv, 0.5, y)
	if !errors.Is(err, ode.ErrFailed) {
		t.Fatalf("got %v, want ErrFailed", err)
	}
	if tv != 0 || y[0] != 1 {
		t.Errorf("rejected step leaked state: t=%v y=%v", tv, y[0])
	}
	if e.FailedSteps() != 1 || e.Count() != 0 {
		t.Errorf("counts: failed=%d accepted=%d", e.FailedSteps(), e.Count())
	}

	// the same step passes without a controller
	if err := e.ApplyFixedStep(nil, s, decaySystem(), &tv, 0.5, y); err != nil {
		t.Fatalf("uncontrolled fixed step: %v", err)
	}
	if tv != 0.5 {
		t.Errorf("t = %v, want 0.5", tv)
	}
}

func TestEvolverResetClearsCounts(t *testing.T) {
	e, _ := NewEvolver(1)
	s, _ := steppers.RKF45.New(1)
	tv, h := 0.0, 0.1
	y := []float64{1}
	if err := e.Apply(nil, s, decaySystem(), &tv, 1, &h, y); err != nil {
		t.Fatal(err)
	}
	e.Reset()
	e.Reset() // idempotent
	if e.Count() != 0 || e.FailedSteps() != 0 || e.LastStep() != 0 {
		t.Errorf("counts survived reset: %d %d %g", e.Count(), e.FailedSteps(), e.LastStep())
	}
}
