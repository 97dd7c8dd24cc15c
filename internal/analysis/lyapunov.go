package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/odeiv/internal/ivp"
	"github.com/san-kum/odeiv/internal/ode"
	"github.com/san-kum/odeiv/internal/steppers"
)

// LargestExponent estimates the largest Lyapunov exponent by running
// two trajectories a distance d0 apart and renormalizing their
// separation back to d0 every dt time units:
//
//	lambda ~ (1/(steps*dt)) * sum ln(d_k/d0)
//
// A positive result indicates chaos, a negative one a contracting
// flow.
func LargestExponent(sys ode.System, typ *steppers.Type, y0 []float64, dt float64, steps int, d0, epsAbs, epsRel float64) (float64, error) {
	if err := ode.CheckLen("y0", sys.Dim, y0); err != nil {
		return 0, err
	}
	if dt <= 0 || steps < 1 || d0 <= 0 {
		return 0, fmt.Errorf("%w: need dt > 0, steps >= 1, d0 > 0", ode.ErrInvalidArg)
	}

	newDriver := func() (*ivp.Driver, error) {
		return ivp.NewDriverY(sys, typ, dt*1e-3, epsAbs, epsRel)
	}
	da, err := newDriver()
	if err != nil {
		return 0, err
	}
	db, err := newDriver()
	if err != nil {
		return 0, err
	}

	ya := append([]float64(nil), y0...)
	yb := append([]float64(nil), y0...)
	yb[0] += d0

	ta, tb := 0.0, 0.0
	sum := 0.0
	for k := 1; k <= steps; k++ {
		target := float64(k) * dt
		if err := da.Apply(&ta, target, ya); err != nil {
			return 0, err
		}
		if err := db.Apply(&tb, target, yb); err != nil {
			return 0, err
		}

		d := floats.Distance(ya, yb, 2)
		if d == 0 {
			// trajectories merged exactly; no growth information left
			continue
		}
		sum += math.Log(d / d0)

		// pull the companion back to distance d0 along the separation
		scale := d0 / d
		for i := range yb {
			yb[i] = ya[i] + (yb[i]-ya[i])*scale
		}
		// the companion's stepper history describes the path it was
		// pulled away from
		db.Reset()
	}
	return sum / (float64(steps) * dt), nil
}
