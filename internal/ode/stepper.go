package ode

// Stepper advances a solution vector by a single step of a given size
// and estimates the local truncation error of that step.
type Stepper interface {
	// Apply advances y in place from t to t+h and fills yerr with the
	// estimated local error of each component. When dydtIn is non-nil it
	// holds the derivative at (t, y) and steppers for which CanUseDydtIn
	// reports true consume it instead of re-evaluating the system. When
	// dydtOut is non-nil the stepper stores the derivative at the end
	// point into it on success.
	//
	// On failure y is left untouched so the caller can retry with a
	// smaller h. An error from the user function is propagated verbatim.
	Apply(t, h float64, y, yerr, dydtIn, dydtOut []float64, sys System) error

	// Reset clears all internal state. It must be called whenever the
	// next Apply will not continue from the end point of the previous
	// one.
	Reset()

	// Order returns the accuracy order of the method. For the multistep
	// steppers this varies with the current internal order.
	Order() uint

	// Dim returns the system dimension the stepper was built for.
	Dim() int

	// Name returns the conventional short name of the method, such as
	// "rkf45".
	Name() string

	// CanUseDydtIn reports whether Apply takes advantage of a
	// caller-supplied derivative at the start point.
	CanUseDydtIn() bool

	// SetDriver attaches the driver whose tolerances the stepper's
	// internal iterations test convergence against. Steppers that run no
	// such iterations ignore it; the ones that need it fail Apply with
	// ErrNoDriver until it is set.
	SetDriver(Driver)
}

// Driver is the narrow view of the high-level driver that steppers
// need: the desired error level for one solution component. It is
// implemented by ivp.Driver.
type Driver interface {
	// ErrLevel returns the absolute error level D_i the controller
	// demands for component index, given the component value y, its
	// scaled derivative dydt and the step size h.
	ErrLevel(y, dydt, h float64, index int) (float64, error)
}
