package ode

// Adjustment is a controller's verdict on the step that was just taken.
type Adjustment int

const (
	// StepDecreased means the step failed its accuracy requirement. The
	// caller must undo the step and retry with the reduced size.
	StepDecreased Adjustment = -1

	// StepUnchanged means the step was accurate and the size should be
	// kept.
	StepUnchanged Adjustment = 0

	// StepIncreased means the step was more accurate than required and
	// the next one may be larger. The step itself stands.
	StepIncreased Adjustment = 1
)

func (a Adjustment) String() string {
	switch a {
	case StepDecreased:
		return "decreased"
	case StepUnchanged:
		return "unchanged"
	case StepIncreased:
		return "increased"
	}
	return "unknown"
}

// Controller adapts the step size to hold the estimated local error
// near a desired level.
type Controller interface {
	// Init sets the tolerances. The desired error level for component i
	// is
	//
	//	D_i = epsAbs + epsRel * (aY*|y_i| + aDydt*|h*dydt_i|)
	//
	// Scaling variants fold per-component factors into the epsAbs term.
	Init(epsAbs, epsRel, aY, aDydt float64) error

	// HAdjust compares the error estimate yerr against the desired level
	// for the step just taken by s and rescales h in place. The returned
	// Adjustment tells the caller whether the step must be retried.
	HAdjust(s Stepper, y, yerr, dydt []float64, h *float64) Adjustment

	// ErrLevel returns the desired error level for a single component.
	// Steppers query it through the Driver back-reference while
	// iterating.
	ErrLevel(y, dydt, h float64, index int) (float64, error)

	// Name returns the conventional name of the control scheme, such as
	// "standard".
	Name() string
}
