package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odeiv/internal/ivp"
	"github.com/san-kum/odeiv/internal/ode"
	"github.com/san-kum/odeiv/internal/physics"
	"github.com/san-kum/odeiv/internal/steppers"
)

func TestObservedOrderMatchesTheory(t *testing.T) {
	cases := []struct {
		typ  *steppers.Type
		want float64
	}{
		{steppers.RK2, 2},
		{steppers.RK4, 4},
		{steppers.RKF45, 5},
	}
	sys := physics.NewDecay().System()
	for _, c := range cases {
		est, err := ObservedOrder(sys, c.typ, []float64{1}, 0, 1, 16, 3)
		if err != nil {
			t.Fatalf("%s: %v", c.typ.Name, err)
		}
		t.Logf("%s: diffs %v, order %.2f", c.typ.Name, est.Diff, est.Order)
		if math.Abs(est.Order-c.want) > 0.5 {
			t.Errorf("%s: observed order %.2f, want ~%g", c.typ.Name, est.Order, c.want)
		}
		if len(est.H) != 3 || len(est.Diff) != 3 {
			t.Errorf("%s: %d levels recorded, want 3", c.typ.Name, len(est.Diff))
		}
	}
}

func TestObservedOrderRejectsDriverBound(t *testing.T) {
	sys := physics.NewDecay().System()
	_, err := ObservedOrder(sys, steppers.MSBDF, []float64{1}, 0, 1, 16, 3)
	if !errors.Is(err, ode.ErrInvalidArg) {
		t.Fatalf("got %v, want ErrInvalidArg", err)
	}
}

func TestObservedOrderValidation(t *testing.T) {
	sys := physics.NewDecay().System()
	if _, err := ObservedOrder(sys, steppers.RK4, []float64{1}, 0, 1, 0, 3); !errors.Is(err, ode.ErrInvalidArg) {
		t.Errorf("zero steps: got %v", err)
	}
	if _, err := ObservedOrder(sys, steppers.RK4, []float64{1}, 0, 1, 16, 1); !errors.Is(err, ode.ErrInvalidArg) {
		t.Errorf("one level: got %v", err)
	}
	if _, err := ObservedOrder(sys, steppers.RK4, []float64{1, 2}, 0, 1, 16, 3); !errors.Is(err, ode.ErrInvalidArg) {
		t.Errorf("wrong y0 length: got %v", err)
	}
}

func TestWorkPrecisionTradesCostForAccuracy(t *testing.T) {
	m := physics.NewOscillator()
	t0, t1 := m.Window()
	tols := []float64{1e-4, 1e-6, 1e-8}
	points, err := WorkPrecision(m.System(), steppers.RKF45, m.DefaultState(), t0, t1, tols)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != len(tols) {
		t.Fatalf("got %d points, want %d", len(points), len(tols))
	}
	for _, p := range points {
		t.Logf("tol %g: %d steps, %d evals, err %.3g", p.Tol, p.Steps, p.Evals, p.Err)
		if p.Steps == 0 || p.Evals < p.Steps {
			t.Errorf("tol %g: implausible cost %d steps / %d evals", p.Tol, p.Steps, p.Evals)
		}
	}
	first, last := points[0], points[len(points)-1]
	if last.Err >= first.Err {
		t.Errorf("tightening tolerance did not help: %g -> %g", first.Err, last.Err)
	}
	if last.Evals <= first.Evals {
		t.Errorf("tightening tolerance did not cost more: %d -> %d evals", first.Evals, last.Evals)
	}
}

func TestSpectrumFindsOscillatorLine(t *testing.T) {
	m := physics.NewOscillator()
	d, err := ivp.NewDriverY(m.System(), steppers.RK8PD, 1e-4, 1e-10, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	const (
		n  = 256
		dt = 0.25
	)
	series, err := Sample(d, m.DefaultState(), 0, dt, n, 0)
	if err != nil {
		t.Fatal(err)
	}
	amp := PowerSpectrum(series)
	if len(amp) != n/2 {
		t.Fatalf("spectrum has %d bins, want %d", len(amp), n/2)
	}
	got := Peak(amp, dt)
	want := 1 / (2 * math.Pi) // omega = 1
	if math.Abs(got-want) > 1.0/(n*dt) {
		t.Errorf("peak at %.4f cycles/time, want %.4f within one bin", got, want)
	}
}

func TestSampleValidation(t *testing.T) {
	m := physics.NewOscillator()
	d, err := ivp.NewDriverY(m.System(), steppers.RKF45, 1e-4, 1e-8, 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Sample(d, m.DefaultState(), 0, 0.25, 1, 0); !errors.Is(err, ode.ErrInvalidArg) {
		t.Errorf("n=1: got %v", err)
	}
	if _, err := Sample(d, m.DefaultState(), 0, 0.25, 16, 5); !errors.Is(err, ode.ErrInvalidArg) {
		t.Errorf("component out of range: got %v", err)
	}
}

func TestLargestExponentSigns(t *testing.T) {
	lorenz := physics.NewLorenz()
	lam, err := LargestExponent(lorenz.System(), steppers.RKF45, lorenz.DefaultState(), 1.0, 60, 1e-8, 1e-8, 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("lorenz lambda = %.3f", lam)
	if lam < 0.4 || lam > 1.4 {
		t.Errorf("lorenz exponent %.3f outside the expected band", lam)
	}

	decay := physics.NewDecay()
	lam, err = LargestExponent(decay.System(), steppers.RKF45, decay.DefaultState(), 1.0, 10, 1e-8, 1e-10, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("decay lambda = %.3f", lam)
	if lam > -0.5 {
		t.Errorf("contracting flow measured lambda = %.3f, want < -0.5", lam)
	}
}
