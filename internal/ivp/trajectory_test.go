package ivp

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odeiv/internal/ode"
	"github.com/san-kum/odeiv/internal/steppers"
)

func TestRecordSamplesUniformly(t *testing.T) {
	d, err := NewDriverY(decaySystem(), steppers.RKF45, 1e-6, 1e-10, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	const (
		dt = 0.1
		n  = 11
	)
	y := []float64{1}
	traj, err := Record(d, y, 0, dt, n)
	if err != nil {
		t.Fatal(err)
	}
	if len(traj.T) != n || len(traj.Y) != n || traj.Dim() != 1 {
		t.Fatalf("trajectory shape %dx%d", len(traj.T), traj.Dim())
	}
	for k := 0; k < n; k++ {
		if traj.T[k] != float64(k)*dt {
			t.Errorf("T[%d] = %v, want exact %v", k, traj.T[k], float64(k)*dt)
		}
		if e := math.Abs(traj.Y[k][0] - math.Exp(-traj.T[k])); e > 1e-8 {
			t.Errorf("Y[%d] off by %g", k, e)
		}
	}
	// the final state stays in the caller's buffer
	if y[0] != traj.Y[n-1][0] {
		t.Errorf("y = %v, trajectory ends at %v", y[0], traj.Y[n-1][0])
	}
	// rows are copies, not views of y
	y[0] = 999
	if traj.Y[n-1][0] == 999 {
		t.Error("trajectory row aliases the state buffer")
	}
}

func TestRecordValidation(t *testing.T) {
	d, err := NewDriverY(decaySystem(), steppers.RKF45, 1e-6, 1e-8, 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Record(d, []float64{1}, 0, 0.1, 1); !errors.Is(err, ode.ErrInvalidArg) {
		t.Errorf("n=1: got %v", err)
	}
	if _, err := Record(d, []float64{1}, 0, 0, 10); !errors.Is(err, ode.ErrInvalidArg) {
		t.Errorf("dt=0: got %v", err)
	}
}
