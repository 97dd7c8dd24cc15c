package ivp

import (
	"fmt"

	"github.com/san-kum/odeiv/internal/ode"
)

// Trajectory is a solution sampled at uniform times. Row k of Y is the
// full state at T[k].
type Trajectory struct {
	T []float64
	Y [][]float64
}

// Dim returns the state dimension, zero for an empty trajectory.
func (tr *Trajectory) Dim() int {
	if len(tr.Y) == 0 {
		return 0
	}
	return len(tr.Y[0])
}

// Record integrates y across n-1 uniform intervals of dt and returns
// all n states including the initial one. The driver lands on each
// sample time exactly, so T carries no interpolation error. y holds
// the final state afterwards.
func Record(d *Driver, y []float64, t0, dt float64, n int) (*Trajectory, error) {
	if n < 2 || dt == 0 {
		return nil, fmt.Errorf("%w: need n >= 2 samples and dt != 0", ode.ErrInvalidArg)
	}
	tr := &Trajectory{
		T: make([]float64, n),
		Y: make([][]float64, n),
	}
	tr.T[0] = t0
	tr.Y[0] = append([]float64(nil), y...)

	t := t0
	for k := 1; k < n; k++ {
		target := t0 + float64(k)*dt
		if err := d.Apply(&t, target, y); err != nil {
			return nil, fmt.Errorf("sample %d: %w", k, err)
		}
		tr.T[k] = t
		tr.Y[k] = append([]float64(nil), y...)
	}
	return tr, nil
}
