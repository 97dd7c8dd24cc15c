// Package ivp assembles a system, a stepper, a controller and an
// evolver into a driver that integrates initial value problems from
// one time to another with a single call.
package ivp

import (
	"fmt"
	"math"

	"github.com/san-kum/odeiv/internal/control"
	"github.com/san-kum/odeiv/internal/ode"
	"github.com/san-kum/odeiv/internal/steppers"
)

// Driver owns a stepper, a controller and an evolver for one system
// and walks them from t to t1. The stepper consults the driver for the
// controller's error levels, which is how the implicit and multistep
// methods obtain their iteration tolerances.
//
// A driver is not safe for concurrent use; independent drivers are.
type Driver struct {
	sys  ode.System
	step ode.Stepper
	con  ode.Controller
	e    *Evolver

	h      float64 // current suggested step size
	hstart float64
	hmin   float64
	hmax   float64
	n      uint64 // steps of the current Apply
	nmax   uint64 // 0 means unlimited
}

func newDriver(sys ode.System, typ *steppers.Type, con ode.Controller, hstart float64) (*Driver, error) {
	if typ == nil {
		return nil, fmt.Errorf("%w: no stepper type", ode.ErrInvalidArg)
	}
	if hstart == 0 || math.IsNaN(hstart) || math.IsInf(hstart, 0) {
		return nil, fmt.Errorf("%w: starting step size %g", ode.ErrInvalidArg, hstart)
	}
	step, err := typ.New(sys.Dim)
	if err != nil {
		return nil, err
	}
	e, err := NewEvolver(sys.Dim)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		sys:    sys,
		step:   step,
		con:    con,
		e:      e,
		h:      hstart,
		hstart: hstart,
		hmax:   math.MaxFloat64,
	}
	step.SetDriver(d)
	return d, nil
}

// NewDriverY builds a driver whose controller watches the absolute and
// relative error of the solution values.
func NewDriverY(sys ode.System, typ *steppers.Type, hstart, epsAbs, epsRel float64) (*Driver, error) {
	con, err := control.NewY(epsAbs, epsRel)
	if err != nil {
		return nil, err
	}
	return newDriver(sys, typ, con, hstart)
}

// NewDriverYP builds a driver whose controller watches the error
// relative to the derivatives instead of the values.
func NewDriverYP(sys ode.System, typ *steppers.Type, hstart, epsAbs, epsRel float64) (*Driver, error) {
	con, err := control.NewYP(epsAbs, epsRel)
	if err != nil {
		return nil, err
	}
	return newDriver(sys, typ, con, hstart)
}

// NewDriverStandard builds a driver with the general controller, mixing
// value and derivative error with the weights aY and aDydt.
func NewDriverStandard(sys ode.System, typ *steppers.Type, hstart, epsAbs, epsRel, aY, aDydt float64) (*Driver, error) {
	con, err := control.NewStandard(epsAbs, epsRel, aY, aDydt)
	if err != nil {
		return nil, err
	}
	return newDriver(sys, typ, con, hstart)
}

// NewDriverScaled builds a driver whose controller weights the
// absolute tolerance per component.
func NewDriverScaled(sys ode.System, typ *steppers.Type, hstart, epsAbs, epsRel, aY, aDydt float64, scale []float64) (*Driver, error) {
	con, err := control.NewScaled(epsAbs, epsRel, aY, aDydt, scale)
	if err != nil {
		return nil, err
	}
	return newDriver(sys, typ, con, hstart)
}

// SetHMin bounds the step size from below. Apply reports
// ErrNoProgress once the controller pushes the step under this bound.
func (d *Driver) SetHMin(hmin float64) error {
	if math.Abs(hmin) > math.Abs(d.h) {
		return fmt.Errorf("%w: hmin %g above current step size %g", ode.ErrInvalidArg, hmin, d.h)
	}
	d.hmin = math.Abs(hmin)
	return nil
}

// SetHMax bounds the step size from above.
func (d *Driver) SetHMax(hmax float64) error {
	if math.Abs(hmax) < math.Abs(d.h) {
		return fmt.Errorf("%w: hmax %g below current step size %g", ode.ErrInvalidArg, hmax, d.h)
	}
	d.hmax = math.Abs(hmax)
	return nil
}

// SetNMax bounds the number of steps a single Apply may take. Zero
// removes the bound.
func (d *Driver) SetNMax(nmax uint64) {
	d.nmax = nmax
}

// ErrLevel reports the controller's desired error level for one
// component, which the implicit steppers iterate against.
func (d *Driver) ErrLevel(y, dydt, h float64, index int) (float64, error) {
	return d.con.ErrLevel(y, dydt, h, index)
}

// Apply integrates from *t to t1, taking as many adaptive steps as the
// interval needs. On any failure, t and y keep the values of the last
// accepted step.
func (d *Driver) Apply(t *float64, t1 float64, y []float64) error {
	d.n = 0

	sign := 1.0
	if d.h < 0 {
		sign = -1.0
	}
	if sign*(t1-*t) < 0 {
		return fmt.Errorf("%w: step size %g cannot reach t1=%g from t=%g",
			ode.ErrInvalidArg, d.h, t1, *t)
	}

	for sign*(t1-*t) > 0 {
		if err := d.e.Apply(d.con, d.step, d.sys, t, t1, &d.h, y); err != nil {
			return err
		}
		d.n++
		if sign*(t1-*t) <= 0 {
			break
		}
		if d.nmax > 0 && d.n >= d.nmax {
			return fmt.Errorf("%w: %d steps taken at t=%g", ode.ErrMaxSteps, d.n, *t)
		}
		if math.Abs(d.h) > d.hmax {
			d.h = sign * d.hmax
		}
		if math.Abs(d.h) < d.hmin {
			return fmt.Errorf("%w: step size %g under hmin %g at t=%g",
				ode.ErrNoProgress, d.h, d.hmin, *t)
		}
	}
	return nil
}

// ApplyFixedStep takes exactly n steps of size h, ignoring the
// adaptive machinery except for the controller's error verdict.
func (d *Driver) ApplyFixedStep(t *float64, h float64, n uint64, y []float64) error {
	d.n = 0
	for i := uint64(0); i < n; i++ {
		if err := d.e.ApplyFixedStep(d.con, d.step, d.sys, t, h, y); err != nil {
			return err
		}
		d.n++
	}
	return nil
}

// Reset clears the evolver and stepper history. The configuration and
// the current step size survive.
func (d *Driver) Reset() {
	d.e.Reset()
	d.step.Reset()
}

// ResetHStart resets the driver and starts over with a new initial
// step size, which also selects the integration direction.
func (d *Driver) ResetHStart(hstart float64) error {
	if hstart == 0 || math.IsNaN(hstart) || math.IsInf(hstart, 0) {
		return fmt.Errorf("%w: starting step size %g", ode.ErrInvalidArg, hstart)
	}
	if d.hmin > math.Abs(hstart) || math.Abs(hstart) > d.hmax {
		return fmt.Errorf("%w: hstart %g outside [hmin=%g, hmax=%g]",
			ode.ErrInvalidArg, hstart, d.hmin, d.hmax)
	}
	d.Reset()
	d.h = hstart
	d.hstart = hstart
	return nil
}

// H reports the step size the next step would attempt.
func (d *Driver) H() float64 { return d.h }

// N reports the steps taken by the last Apply or ApplyFixedStep.
func (d *Driver) N() uint64 { return d.n }

// Count reports the accepted steps since construction or Reset.
func (d *Driver) Count() uint64 { return d.e.Count() }

// FailedSteps reports the rejected or failed step attempts since
// construction or Reset.
func (d *Driver) FailedSteps() uint64 { return d.e.FailedSteps() }

// Stepper exposes the owned stepper, mainly for its Name and Order.
func (d *Driver) Stepper() ode.Stepper { return d.step }
