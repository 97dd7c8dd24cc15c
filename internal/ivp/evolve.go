package ivp

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/odeiv/internal/ode"
)

// Evolver advances a solution through single adaptive steps, retrying
// with smaller sizes when the stepper fails or the controller rejects
// the estimated local error. It owns the scratch buffers a step needs,
// so one evolver serves one integration at a time.
type Evolver struct {
	dim     int
	y0      []float64
	yerr    []float64
	dydtIn  []float64
	dydtOut []float64

	count       uint64
	failedSteps uint64
	lastStep    float64

	// dydtOut matches the current (t, y) and may seed the next step
	dydtOutValid bool
}

// NewEvolver builds an evolver for systems of the given dimension.
func NewEvolver(dim int) (*Evolver, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ode.ErrInvalidArg, dim)
	}
	return &Evolver{
		dim:     dim,
		y0:      make([]float64, dim),
		yerr:    make([]float64, dim),
		dydtIn:  make([]float64, dim),
		dydtOut: make([]float64, dim),
	}, nil
}

func (e *Evolver) checkDims(s ode.Stepper, sys ode.System, y []float64) error {
	if s.Dim() != e.dim || sys.Dim != e.dim {
		return fmt.Errorf("%w: evolver dimension %d, stepper %d, system %d",
			ode.ErrInvalidArg, e.dim, s.Dim(), sys.Dim)
	}
	return ode.CheckLen("y", e.dim, y)
}

// fillDydtIn prepares the start-of-step derivative for steppers that
// take one, reusing the endpoint derivative of the previous accepted
// step when it is still current.
func (e *Evolver) fillDydtIn(t0 float64, y []float64, sys ode.System) error {
	if !e.dydtOutValid {
		return sys.Eval(t0, y, e.dydtIn)
	}
	copy(e.dydtIn, e.dydtOut)
	return nil
}

// Apply advances (t, y) by one adaptive step toward t1, never past it.
// The step size at *h is replaced by the controller's suggestion for
// the next call. The step that reaches t1 sets t to exactly t1.
//
// A step the controller rejects is undone and retried with the smaller
// size; a stepper failure halves the step and retries. Retrying stops
// when the shrunken step can no longer change t, and the stepper's
// error is returned with (t, y) rolled back to the call entry values.
// ErrBadFunc and ErrNoDriver abort immediately without retry.
func (e *Evolver) Apply(con ode.Controller, s ode.Stepper, sys ode.System, t *float64, t1 float64, h *float64, y []float64) error {
	if err := e.checkDims(s, sys, y); err != nil {
		return err
	}
	t0 := *t
	h0 := *h

	dt := t1 - t0
	if (dt < 0 && h0 > 0) || (dt > 0 && h0 < 0) {
		return fmt.Errorf("%w: step size %g against interval of length %g",
			ode.ErrInvalidArg, h0, dt)
	}

	copy(e.y0, y)

	useDydtIn := s.CanUseDydtIn()
	if useDydtIn {
		if err := e.fillDydtIn(t0, y, sys); err != nil {
			return err
		}
	}
	e.dydtOutValid = false

	for {
		// clamp the final step onto t1
		final := false
		if (dt >= 0 && h0 > dt) || (dt < 0 && h0 < dt) {
			h0 = dt
			final = true
		}

		var err error
		if useDydtIn {
			err = s.Apply(t0, h0, y, e.yerr, e.dydtIn, e.dydtOut, sys)
		} else {
			err = s.Apply(t0, h0, y, e.yerr, nil, e.dydtOut, sys)
		}

		if errors.Is(err, ode.ErrBadFunc) || errors.Is(err, ode.ErrNoDriver) {
			return err
		}
		if err != nil {
			hOld := h0
			h0 *= 0.5
			if math.Abs(h0) < math.Abs(hOld) && t0+h0 != t0 {
				copy(y, e.y0)
				e.failedSteps++
				continue
			}
			// the step cannot shrink any further
			*h = h0
			return &ode.StepError{T: t0, H: hOld, Err: err}
		}

		e.count++
		e.lastStep = h0
		if final {
			*t = t1
		} else {
			*t = t0 + h0
		}

		if con != nil {
			hOld := h0
			adj := con.HAdjust(s, y, e.yerr, e.dydtOut, &h0)
			if adj == ode.StepDecreased {
				if math.Abs(h0) < math.Abs(hOld) && t0+h0 != t0 {
					copy(y, e.y0)
					*t = t0
					e.count--
					e.failedSteps++
					continue
				}
				// accept the step anyway when the suggested size
				// cannot change t
			}
		}
		e.dydtOutValid = true
		*h = h0
		return nil
	}
}

// ApplyFixedStep advances (t, y) by exactly one step of size h. A
// controller rejection undoes the step and reports ErrFailed instead
// of retrying.
func (e *Evolver) ApplyFixedStep(con ode.Controller, s ode.Stepper, sys ode.System, t *float64, h float64, y []float64) error {
	if err := e.checkDims(s, sys, y); err != nil {
		return err
	}
	t0 := *t

	copy(e.y0, y)

	useDydtIn := s.CanUseDydtIn()
	if useDydtIn {
		if err := e.fillDydtIn(t0, y, sys); err != nil {
			return err
		}
	}
	e.dydtOutValid = false

	var err error
	if useDydtIn {
		err = s.Apply(t0, h, y, e.yerr, e.dydtIn, e.dydtOut, sys)
	} else {
		err = s.Apply(t0, h, y, e.yerr, nil, e.dydtOut, sys)
	}

	if errors.Is(err, ode.ErrBadFunc) || errors.Is(err, ode.ErrNoDriver) {
		return err
	}
	if err != nil {
		e.failedSteps++
		return &ode.StepError{T: t0, H: h, Err: err}
	}

	e.count++
	e.lastStep = h
	*t = t0 + h

	if con != nil {
		htest := h
		if con.HAdjust(s, y, e.yerr, e.dydtOut, &htest) == ode.StepDecreased {
			copy(y, e.y0)
			*t = t0
			e.count--
			e.failedSteps++
			return fmt.Errorf("%w: local error exceeds tolerance at step size %g", ode.ErrFailed, h)
		}
	}
	e.dydtOutValid = true
	return nil
}

// Reset drops the derivative history and the step counts. Call it
// before reusing the evolver on a different trajectory.
func (e *Evolver) Reset() {
	e.count = 0
	e.failedSteps = 0
	e.lastStep = 0
	e.dydtOutValid = false
	for _, buf := range [][]float64{e.y0, e.yerr, e.dydtIn, e.dydtOut} {
		for i := range buf {
			buf[i] = 0
		}
	}
}

// Count reports the accepted steps since construction or Reset.
func (e *Evolver) Count() uint64 { return e.count }

// FailedSteps reports the rejected or failed step attempts.
func (e *Evolver) FailedSteps() uint64 { return e.failedSteps }

// LastStep reports the size of the last accepted step.
func (e *Evolver) LastStep() float64 { return e.lastStep }

// YErr exposes the local error estimate of the last accepted step. The
// slice is owned by the evolver.
func (e *Evolver) YErr() []float64 { return e.yerr }
