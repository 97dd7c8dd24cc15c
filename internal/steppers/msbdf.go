package steppers

import (
	"fmt"
	"math"

	"github.com/san-kum/odeiv/internal/ode"
)

// msBDF is the variable-order backward differentiation multistep
// method in Nordsieck form, orders 1 through 5, for stiff systems. The
// corrector is solved by a modified Newton iteration, so both a
// Jacobian and a driver are required.
type msBDF struct {
	core *msCore
	lu   *jacFactor
	dfdy []float64
	dfdt []float64
	ftmp []float64
	ycor []float64
	rhs  []float64
	dz   []float64
}

func newMSBDF(dim int) *msBDF {
	return &msBDF{
		core: newMSCore(dim, bdfMaxOrder),
		lu:   newJacFactor(dim),
		dfdy: make([]float64, dim*dim),
		dfdt: make([]float64, dim),
		ftmp: make([]float64, dim),
		ycor: make([]float64, dim),
		rhs:  make([]float64, dim),
		dz:   make([]float64, dim),
	}
}

// coeffs computes the fixed-leading-coefficient corrector vector l and
// the error coefficients of the current order from the step size
// history.
func (s *msBDF) coeffs(h float64) (tq1, tq2, tq3 float64) {
	c := s.core
	q := c.q
	l := c.l

	l[0], l[1] = 1, 1
	for i := 2; i <= q; i++ {
		l[i] = 0
	}
	alpha0, alpha0Hat := -1.0, -1.0
	xiInv, xistarInv := 1.0, 1.0
	hsum := h

	if q > 1 {
		for j := 2; j < q; j++ {
			hsum += c.tau[j-1]
			xiInv = h / hsum
			alpha0 -= 1.0 / float64(j)
			for i := j; i >= 1; i-- {
				l[i] += l[i-1] * xiInv
			}
		}
		alpha0 -= 1.0 / float64(q)
		xistarInv = -l[1] - alpha0
		hsum += c.tau[q-1]
		xiInv = h / hsum
		alpha0Hat = -l[1] - xiInv
		for i := q; i >= 1; i-- {
			l[i] += l[i-1] * xistarInv
		}
	}

	a1 := 1.0 - alpha0Hat + alpha0
	a2 := 1.0 + float64(q)*a1
	tq2 = math.Abs(a1 / (alpha0 * a2))

	if q > 1 {
		a3 := alpha0 + 1.0/float64(q)
		a4 := alpha0Hat + xiInv
		tq1 = math.Abs(xistarInv / l[q] * (1.0 - a4 + a3) / a3)
	} else {
		tq1 = 1
	}

	hsum += c.tau[q]
	xiInv = h / hsum
	a5 := alpha0 - 1.0/float64(q+1)
	a6 := alpha0Hat - xiInv
	tq3 = math.Abs((1.0 - a6 + a5) / a2 / (xiInv * float64(q+2) * a5))

	return tq1, tq2, tq3
}

// correct solves the corrector equation by a modified Newton iteration
// with the matrix I - (h/l1)*J factorized once per attempt.
func (s *msBDF) correct(t, h float64, sys ode.System) error {
	c := s.core
	n := c.dim
	l1 := c.l[1]

	if err := sys.EvalJac(t+h, c.ypred, s.dfdy, s.dfdt); err != nil {
		return err
	}
	s.lu.factor(h/l1, s.dfdy)

	copy(s.ycor, c.ypred)
	zero(c.acor)

	delp := 0.0
	for iter := 0; iter < corrMaxIter; iter++ {
		if err := sys.Eval(t+h, s.ycor, s.ftmp); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			s.rhs[i] = (h*s.ftmp[i] - c.z1pred[i] - l1*c.acor[i]) / l1
		}
		if err := s.lu.solve(s.rhs, s.dz); err != nil {
			return err
		}
		del := 0.0
		for i := 0; i < n; i++ {
			c.acor[i] += s.dz[i]
			s.ycor[i] = c.ypred[i] + c.acor[i]
			if r := math.Abs(s.dz[i]) / c.errlev[i]; r > del {
				del = r
			}
		}
		if del <= corrTol {
			return nil
		}
		if iter > 0 && del > corrDiverge*delp {
			break
		}
		delp = del
	}
	return fmt.Errorf("%w: bdf corrector did not converge", ode.ErrFailed)
}

func (s *msBDF) Apply(t, h float64, y, yerr, dydtIn, dydtOut []float64, sys ode.System) error {
	if err := checkApply(s.core.dim, y, yerr, dydtIn, dydtOut, sys); err != nil {
		return err
	}
	c := s.core
	if c.driver == nil {
		return noDriverErr("msbdf")
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

func (s *msBDF) Reset() {
	c := s.core
	c.reset()
	zero(s.dfdy, s.dfdt, s.ftmp, s.ycor, s.rhs, s.dz)
}

func (s *msBDF) Order() uint            { return uint(s.core.q) }
func (s *msBDF) Dim() int               { return s.core.dim }
func (s *msBDF) Name() string           { return "msbdf" }
func (s *msBDF) CanUseDydtIn() bool     { return true }
func (s *msBDF) SetDriver(d ode.Driver) { s.core.driver = d }
