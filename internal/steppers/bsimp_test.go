package steppers

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odeiv/internal/ode"
)

func TestBSImpNeedsJacobian(t *testing.T) {
	sys := expDecay()
	sys.Jac = nil
	s, _ := BSImp.New(1)
	err := s.Apply(0, 0.1, []float64{1}, make([]float64, 1), nil, nil, sys)
	if !errors.Is(err, ode.ErrBadFunc) {
		t.Errorf("got %v, want ErrBadFunc", err)
	}
}

func TestBSImpOrder(t *testing.T) {
	s, _ := BSImp.New(2)
	if ord := s.Order(); ord < 2 || ord > 14 {
		t.Errorf("Order() = %d, outside the extrapolation range", ord)
	}
}

func TestBSImpAccuracy(t *testing.T) {
	s, _ := BSImp.New(1)
	y := []float64{1}
	yerr := make([]float64, 1)
	if err := s.Apply(0, 0.1, y, yerr, nil, nil, expDecay()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if e := math.Abs(y[0] - math.Exp(-0.1)); e > 1e-8 {
		t.Errorf("error %g after one extrapolated step", e)
	}
	if math.IsNaN(yerr[0]) || math.IsInf(yerr[0], 0) {
		t.Errorf("bad error estimate %v", yerr[0])
	}
}

func TestBSImpStiff(t *testing.T) {
	s, _ := BSImp.New(1)
	y := []float64{1}
	yerr := make([]float64, 1)
	if err := s.Apply(0, 0.01, y, yerr, nil, nil, stiffDecay()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if e := math.Abs(y[0] - math.Exp(-10)); e > 5e-3 {
		t.Errorf("y = %v, want about %v", y[0], math.Exp(-10))
	}
}

func TestBSImpMarchWithDerivativeReuse(t *testing.T) {
	s, _ := BSImp.New(1)
	sys := expDecay()
	y := []float64{1}
	yerr := make([]float64, 1)
	dydt := make([]float64, 1)
	if err := sys.Eval(0, y, dydt); err != nil {
		t.Fatal(err)
	}
	tv := 0.0
	for step := 0; step < 10; step++ {
		if err := s.Apply(tv, 0.05, y, yerr, dydt, dydt, sys); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		tv += 0.05
	}
	if e := math.Abs(y[0] - math.Exp(-tv)); e > 1e-7 {
		t.Errorf("error %g after %d steps", e, 10)
	}
}

func TestBSImpStepUnderflow(t *testing.T) {
	s, _ := BSImp.New(1)
	err := s.Apply(1, 1e-300, []float64{1}, make([]float64, 1), nil, nil, expDecay())
	if !errors.Is(err, ode.ErrFailed) {
		t.Errorf("got %v, want ErrFailed", err)
	}
}

func TestBSImpFailureRestoresState(t *testing.T) {
	for _, failAt := range []int{1, 2, 5, 20} {
		calls := 0
		sys := ode.System{
			Dim: 1,
			Func: func(t float64, y, dydt []float64) error {
				calls++
				if calls == failAt {
					return ode.ErrBadFunc
				}
				dydt[0] = -y[0]
				return nil
			},
			Jac: func(t float64, y, dfdy, dfdt []float64) error {
				dfdy[0] = -1
				dfdt[0] = 0
				return nil
			},
		}
		s, _ := BSImp.New(1)
		y := []float64{2.5}
		yerr := []float64{7}
		err := s.Apply(0, 0.1, y, yerr, nil, make([]float64, 1), sys)
		if !errors.Is(err, ode.ErrBadFunc) {
			t.Fatalf("failAt=%d: got %v, want ErrBadFunc", failAt, err)
		}
		if y[0] != 2.5 {
			t.Errorf("failAt=%d: y modified to %v", failAt, y[0])
		}
		if yerr[0] != 7 {
			t.Errorf("failAt=%d: yerr modified to %v", failAt, yerr[0])
		}
	}
}
