package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/odeiv/internal/ivp"
	"github.com/san-kum/odeiv/internal/ode"
	"github.com/san-kum/odeiv/internal/steppers"
)

// OrderEstimate records a step halving study. Diff[i] is the max-norm
// distance between the solutions at H[i] and H[i]/2; successive ratios
// of ~2^p reveal the global order p.
type OrderEstimate struct {
	Stepper string
	H       []float64
	Diff    []float64

	// Order is log2 of the last Diff ratio, the best estimate once the
	// coarser levels have left the pre-asymptotic regime.
	Order float64
}

// ObservedOrder integrates from t0 to t1 with fixed steps, halving the
// step size levels times, and estimates the global convergence order
// from how fast successive solutions approach each other. It works for
// steppers that run standalone; the driver-bound multistep and implicit
// methods pick their own effective order and cannot be measured this
// way.
func ObservedOrder(sys ode.System, typ *steppers.Type, y0 []float64, t0, t1 float64, steps, levels int) (*OrderEstimate, error) {
	if typ == nil {
		return nil, fmt.Errorf("%w: no stepper type", ode.ErrInvalidArg)
	}
	if typ.NeedsDriver {
		return nil, fmt.Errorf("%w: %s needs a driver and cannot run a fixed step study", ode.ErrInvalidArg, typ.Name)
	}
	if steps < 1 || levels < 2 {
		return nil, fmt.Errorf("%w: need steps >= 1 and levels >= 2", ode.ErrInvalidArg)
	}
	if err := ode.CheckLen("y0", sys.Dim, y0); err != nil {
		return nil, err
	}

	solve := func(n int) ([]float64, error) {
		s, err := typ.New(sys.Dim)
		if err != nil {
			return nil, err
		}
		e, err := ivp.NewEvolver(sys.Dim)
		if err != nil {
			return nil, err
		}
		h := (t1 - t0) / float64(n)
		t := t0
		y := append([]float64(nil), y0...)
		for i := 0; i < n; i++ {
			if err := e.ApplyFixedStep(nil, s, sys, &t, h, y); err != nil {
				return nil, fmt.Errorf("step %d of %d: %w", i, n, err)
			}
		}
		return y, nil
	}

	est := &OrderEstimate{Stepper: typ.Name}
	prev, err := solve(steps)
	if err != nil {
		return nil, err
	}
	n := steps
	for l := 0; l < levels; l++ {
		n *= 2
		next, err := solve(n)
		if err != nil {
			return nil, err
		}
		diff := 0.0
		for i := range next {
			diff = math.Max(diff, math.Abs(next[i]-prev[i]))
		}
		est.H = append(est.H, (t1-t0)/float64(n/2))
		est.Diff = append(est.Diff, diff)
		prev = next
	}

	last := len(est.Diff) - 1
	if est.Diff[last] > 0 {
		est.Order = math.Log2(est.Diff[last-1] / est.Diff[last])
	} else {
		est.Order = math.Inf(1)
	}
	return est, nil
}
