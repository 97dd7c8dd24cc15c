// Package control implements step size control for the adaptive
// evolution loop. After every attempted step the controller compares
// the stepper's local error estimate against the desired error level
//
//	D_i = epsAbs*s_i + epsRel*(aY*|y_i| + aDydt*|h*dydt_i|)
//
// and tells the loop to shrink, keep or grow the step. The scale
// factors s_i are 1 unless the controller was built with NewScaled.
package control

import (
	"fmt"
	"math"

	"github.com/san-kum/odeiv/internal/ode"
)

// Growth limits shared by every variant. A failing step shrinks by at
// most a factor of 5 and a successful one grows by at most a factor of
// 5, with a 0.9 safety margin on the predicted optimum.
const (
	safety    = 0.9
	maxShrink = 0.2
	maxGrow   = 5.0
)

// Standard is the error-per-step controller. It implements
// ode.Controller.
type Standard struct {
	epsAbs float64
	epsRel float64
	aY     float64
	aDydt  float64
	scale  []float64 // per-component factors on epsAbs, nil for none
}

// NewStandard builds a controller with explicit weights on the solution
// and derivative terms of the desired error level.
func NewStandard(epsAbs, epsRel, aY, aDydt float64) (*Standard, error) {
	c := &Standard{}
	if err := c.Init(epsAbs, epsRel, aY, aDydt); err != nil {
		return nil, err
	}
	return c, nil
}

// NewY builds a controller that keeps the local error below
// epsAbs + epsRel*|y_i|.
func NewY(epsAbs, epsRel float64) (*Standard, error) {
	return NewStandard(epsAbs, epsRel, 1, 0)
}

// NewYP builds a controller that keeps the local error below
// epsAbs + epsRel*|h*dydt_i|.
func NewYP(epsAbs, epsRel float64) (*Standard, error) {
	return NewStandard(epsAbs, epsRel, 0, 1)
}

// NewScaled builds a controller whose absolute tolerance is scaled per
// component by the given factors, which it copies. The scale length
// must match the system dimension.
func NewScaled(epsAbs, epsRel, aY, aDydt float64, scale []float64) (*Standard, error) {
	c, err := NewStandard(epsAbs, epsRel, aY, aDydt)
	if err != nil {
		return nil, err
	}
	if len(scale) == 0 {
		return nil, fmt.Errorf("%w: empty scale", ode.ErrInvalidArg)
	}
	c.scale = make([]float64, len(scale))
	copy(c.scale, scale)
	return c, nil
}

// Init sets the tolerances, replacing any previous values. Both
// tolerances zero would accept no step at all and is rejected.
func (c *Standard) Init(epsAbs, epsRel, aY, aDydt float64) error {
	if epsAbs < 0 {
		return fmt.Errorf("%w: epsAbs is negative", ode.ErrInvalidArg)
	}
	if epsRel < 0 {
		return fmt.Errorf("%w: epsRel is negative", ode.ErrInvalidArg)
	}
	if epsAbs == 0 && epsRel == 0 {
		return fmt.Errorf("%w: epsAbs and epsRel are both zero", ode.ErrInvalidArg)
	}
	c.epsAbs = epsAbs
	c.epsRel = epsRel
	c.aY = aY
	c.aDydt = aDydt
	return nil
}

func (c *Standard) Name() string {
	if c.scale != nil {
		return "scaled"
	}
	return "standard"
}

func (c *Standard) level(y, dydt, h float64, i int) float64 {
	s := 1.0
	if c.scale != nil {
		s = c.scale[i]
	}
	return c.epsRel*(c.aY*math.Abs(y)+c.aDydt*math.Abs(h*dydt)) + c.epsAbs*s
}

// ErrLevel returns the desired error level for component i. A level
// that is not positive cannot be met by any step and is reported as an
// error.
func (c *Standard) ErrLevel(y, dydt, h float64, i int) (float64, error) {
	if c.scale != nil && i >= len(c.scale) {
		return 0, fmt.Errorf("%w: component %d outside scale of length %d", ode.ErrInvalidArg, i, len(c.scale))
	}
	d := c.level(y, dydt, h, i)
	if d <= 0 {
		return 0, fmt.Errorf("%w: error level for component %d is not positive", ode.ErrSanity, i)
	}
	return d, nil
}

// HAdjust rescales h based on the worst component ratio
// |yerr_i| / D_i. Ratios above 1.1 reject the step, ratios below 0.5
// allow growth, anything between leaves h alone.
func (c *Standard) HAdjust(s ode.Stepper, y, yerr, dydt []float64, h *float64) ode.Adjustment {
	ord := float64(s.Order())
	hOld := *h

	rmax := math.SmallestNonzeroFloat64
	for i := range y {
		r := math.Abs(yerr[i]) / math.Abs(c.level(y[i], dydt[i], hOld, i))
		rmax = math.Max(r, rmax)
	}

	switch {
	case rmax > 1.1:
		r := safety / math.Pow(rmax, 1/ord)
		if r < maxShrink {
			r = maxShrink
		}
		*h = r * hOld
		return ode.StepDecreased

	case rmax < 0.5:
		r := safety / math.Pow(rmax, 1/(ord+1))
		if r > maxGrow {
			r = maxGrow
		}
		if r < 1 {
			// the safety margin must never turn a growth verdict into a
			// shrink
			r = 1
		}
		*h = r * hOld
		return ode.StepIncreased
	}
	return ode.StepUnchanged
}
