package steppers

import (
	"fmt"
	"math"

	"github.com/san-kum/odeiv/internal/ode"
)

// msAdams is the variable-order Adams-Moulton multistep method in
// Nordsieck form, orders 1 through 12. The corrector is solved by
// functional iteration against the driver's tolerances, so a driver is
// required but a Jacobian is not.
type msAdams struct {
	core *msCore
	m    []float64
	ftmp []float64
	ycor []float64
}

func newMSAdams(dim int) *msAdams {
	return &msAdams{
		core: newMSCore(dim, adamsMaxOrder),
		m:    make([]float64, adamsMaxOrder+1),
		ftmp: make([]float64, dim),
		ycor: make([]float64, dim),
	}
}

// coeffs computes the corrector vector l and the error coefficients of
// the current order from the step size history. The m slice carries the
// coefficients of the product polynomial over the past abscissas.
func (s *msAdams) coeffs(h float64) (tq1, tq2, tq3 float64) {
	c := s.core
	q := c.q
	l := c.l

	if q == 1 {
		l[0], l[1] = 1, 1
		return 1, 0.5, 1.0 / 12.0
	}

	hsum := h
	s.m[0] = 1
	for i := 1; i <= q; i++ {
		s.m[i] = 0
	}
	for j := 1; j < q; j++ {
		xiInv := h / hsum
		for i := j; i >= 1; i-- {
			s.m[i] += s.m[i-1] * xiInv
		}
		hsum += c.tau[j]
	}

	m0 := altSum(q-1, s.m, 1)
	m1 := altSum(q-1, s.m, 2)
	m0Inv := 1.0 / m0

	l[0] = 1
	for i := 1; i <= q; i++ {
		l[i] = m0Inv * s.m[i-1] / float64(i)
	}
	xiInv := h / hsum
	tq2 = math.Abs(m1 * m0Inv * xiInv)

	for i := q; i >= 1; i-- {
		s.m[i] += s.m[i-1] * xiInv
	}
	m2 := altSum(q, s.m, 2)
	tq3 = math.Abs(m2 * m0Inv / float64(q+1))

	return 1, tq2, tq3
}

// correct solves the corrector equation
//
//	z1pred + l1*acor = h*f(t+h, ypred+acor)
//
// by fixed-point iteration.
func (s *msAdams) correct(t, h float64, sys ode.System) error {
	c := s.core
	n := c.dim
	l1 := c.l[1]

	copy(s.ycor, c.ypred)
	zero(c.acor)

	delp := 0.0
	for iter := 0; iter < corrMaxIter; iter++ {
		if err := sys.Eval(t+h, s.ycor, s.ftmp); err != nil {
			return err
		}
		del := 0.0
		for i := 0; i < n; i++ {
			anew := (h*s.ftmp[i] - c.z1pred[i]) / l1
			if r := math.Abs(anew-c.acor[i]) / c.errlev[i]; r > del {
				del = r
			}
			c.acor[i] = anew
			s.ycor[i] = c.ypred[i] + anew
		}
		if del <= corrTol {
			return nil
		}
		if iter > 0 && del > corrDiverge*delp {
			break
		}
		delp = del
	}
	return fmt.Errorf("%w: adams corrector did not converge", ode.ErrFailed)
}

func (s *msAdams) Apply(t, h float64, y, yerr, dydtIn, dydtOut []float64, sys ode.System) error {
	if err := checkApply(s.core.dim, y, yerr, dydtIn, dydtOut, sys); err != nil {
		return err
	}
	c := s.core
	if c.driver == nil {
		return noDriverErr("msadams")
	}
	if err := c.begin(t, h, y, dydtIn, sys); err != nil {
		return err
	}
	c.evalOrder()
	c.predict()
	tq1, tq2, tq3 := s.coeffs(h)
	if err := s.correct(t, h, sys); err != nil {
		c.fail()
		return err
	}
	c.complete(t, h, tq1, tq2, tq3)

	copy(y, c.z[0])
	for i := range yerr {
		yerr[i] = tq2 * c.acor[i]
	}
	if dydtOut != nil {
		for i := range dydtOut {
			dydtOut[i] = c.z[1][i] / h
		}
	}
	return nil
}

func (s *msAdams) Reset() {
	c := s.core
	c.reset()
	zero(s.m, s.ftmp, s.ycor)
}

func (s *msAdams) Order() uint            { return uint(s.core.q) }
func (s *msAdams) Dim() int               { return s.core.dim }
func (s *msAdams) Name() string           { return "msadams" }
func (s *msAdams) CanUseDydtIn() bool     { return true }
func (s *msAdams) SetDriver(d ode.Driver) { s.core.driver = d }
