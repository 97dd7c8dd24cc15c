package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/odeiv/internal/ivp"
	"github.com/san-kum/odeiv/internal/ode"
	"github.com/san-kum/odeiv/internal/steppers"
)

// WorkPoint is one tolerance level of a work-precision sweep.
type WorkPoint struct {
	Tol    float64
	Steps  uint64
	Failed uint64
	Evals  uint64 // right-hand side evaluations
	Err    float64
}

// WorkPrecision solves the same problem once per tolerance and reports
// the cost and the achieved accuracy of each run. The accuracy is
// measured against a reference trajectory from the highest order
// embedded method at a tolerance of 1e-12.
func WorkPrecision(sys ode.System, typ *steppers.Type, y0 []float64, t0, t1 float64, tols []float64) ([]WorkPoint, error) {
	if typ == nil {
		return nil, fmt.Errorf("%w: no stepper type", ode.ErrInvalidArg)
	}
	if len(tols) == 0 {
		return nil, fmt.Errorf("%w: no tolerances", ode.ErrInvalidArg)
	}
	if err := ode.CheckLen("y0", sys.Dim, y0); err != nil {
		return nil, err
	}
	hstart := (t1 - t0) * 1e-6

	ref := append([]float64(nil), y0...)
	rd, err := ivp.NewDriverY(sys, steppers.RK8PD, hstart, 1e-12, 1e-12)
	if err != nil {
		return nil, err
	}
	rt := t0
	if err := rd.Apply(&rt, t1, ref); err != nil {
		return nil, fmt.Errorf("reference run: %w", err)
	}

	points := make([]WorkPoint, 0, len(tols))
	for _, tol := range tols {
		var evals uint64
		counted := sys
		inner := sys.Func
		counted.Func = func(t float64, y, dydt []float64) error {
			evals++
			return inner(t, y, dydt)
		}

		d, err := ivp.NewDriverY(counted, typ, hstart, tol, tol)
		if err != nil {
			return nil, err
		}
		y := append([]float64(nil), y0...)
		tv := t0
		if err := d.Apply(&tv, t1, y); err != nil {
			return nil, fmt.Errorf("tol %g: %w", tol, err)
		}

		e := 0.0
		for i := range y {
			e = math.Max(e, math.Abs(y[i]-ref[i]))
		}
		points = append(points, WorkPoint{
			Tol:    tol,
			Steps:  d.Count(),
			Failed: d.FailedSteps(),
			Evals:  evals,
			Err:    e,
		})
	}
	return points, nil
}
