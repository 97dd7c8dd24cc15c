package ode

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by steppers, controllers and drivers. Callers
// should match them with errors.Is since the solver wraps them with
// positional context.
var (
	// ErrBadFunc is returned by a user Func or Jacobian to signal an
	// unrecoverable evaluation failure. The solver aborts immediately and
	// does not retry with a smaller step.
	ErrBadFunc = errors.New("ode: user function is unevaluable")

	// ErrFailed reports that a stepper could not complete a step, for
	// example because an internal iteration failed to converge. The
	// evolution loop responds by retrying with a smaller step.
	ErrFailed = errors.New("ode: stepper failed")

	// ErrNoProgress reports that the step size has shrunk below the
	// smallest useful value and the integration cannot advance.
	ErrNoProgress = errors.New("ode: no progress, step size underflow")

	// ErrMaxSteps reports that the driver exhausted its step budget
	// before reaching the target time.
	ErrMaxSteps = errors.New("ode: maximum number of steps reached")

	// ErrNoDriver reports that a stepper which needs access to the
	// driver's error tolerances was used without one attached.
	ErrNoDriver = errors.New("ode: stepper requires an attached driver")

	// ErrInvalidArg reports a contract violation such as a buffer whose
	// length does not match the system dimension.
	ErrInvalidArg = errors.New("ode: invalid argument")

	// ErrSanity reports an internal consistency failure, such as a
	// desired error level that is not positive. No step can satisfy such
	// a level, so the integration cannot continue.
	ErrSanity = errors.New("ode: sanity check failed")
)

// CheckLen verifies that a buffer has the expected length and returns an
// error wrapping ErrInvalidArg otherwise. Every boundary that receives a
// caller slice checks it against the system dimension with this.
func CheckLen(what string, want int, buf []float64) error {
	if len(buf) != want {
		return fmt.Errorf("%w: %s has length %d, want %d", ErrInvalidArg, what, len(buf), want)
	}
	return nil
}

// StepError records where the integration was when a step failed.
type StepError struct {
	T   float64 // time at which the failing step started
	H   float64 // step size that was attempted
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step at t=%g with h=%g: %v", e.T, e.H, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
