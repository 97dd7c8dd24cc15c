package steppers

import (
	"math"

	"github.com/san-kum/odeiv/internal/ode"
)

// gaussTableau describes an implicit Gauss-Legendre Runge-Kutta scheme.
type gaussTableau struct {
	name   string
	order  uint
	stages int
	a      [][]float64
	b      []float64
	c      []float64
}

var (
	// implicit Euler
	gauss1 = &gaussTableau{
		name:   "rk1imp",
		order:  1,
		stages: 1,
		a:      [][]float64{{1.0}},
		b:      []float64{1.0},
		c:      []float64{1.0},
	}

	// implicit midpoint rule
	gauss2 = &gaussTableau{
		name:   "rk2imp",
		order:  2,
		stages: 1,
		a:      [][]float64{{0.5}},
		b:      []float64{1.0},
		c:      []float64{0.5},
	}

	// two-stage Gauss-Legendre
	gauss4 = &gaussTableau{
		name:   "rk4imp",
		order:  4,
		stages: 2,
		a: [][]float64{
			{0.25, 0.25 - math.Sqrt(3.0)/6.0},
			{0.25 + math.Sqrt(3.0)/6.0, 0.25},
		},
		b: []float64{0.5, 0.5},
		c: []float64{0.5 - math.Sqrt(3.0)/6.0, 0.5 + math.Sqrt(3.0)/6.0},
	}
)

// rkImp is an implicit Gaussian Runge-Kutta stepper. The stage
// equations are solved by a modified Newton iteration against the
// attached driver's tolerances, and the error estimate comes from step
// doubling as in RK4. A Jacobian and a driver are both required.
type rkImp struct {
	dim      int
	tab      *gaussTableau
	driver   ode.Driver
	nw       *stageNewton
	dfdy     []float64
	dfdt     []float64
	errlev   []float64
	y0       []float64
	yOnestep []float64
	yHalf    []float64
	yFinal   []float64
}

func newRKImp(dim int, tab *gaussTableau) *rkImp {
	return &rkImp{
		dim:      dim,
		tab:      tab,
		nw:       newStageNewton(dim, tab.stages),
		dfdy:     make([]float64, dim*dim),
		dfdt:     make([]float64, dim),
		errlev:   make([]float64, dim),
		y0:       make([]float64, dim),
		yOnestep: make([]float64, dim),
		yHalf:    make([]float64, dim),
		yFinal:   make([]float64, dim),
	}
}

// combine forms out = y0 + h * sum_j b[j]*f_j from the converged stage
// derivatives left in the solver.
func (s *rkImp) combine(out, y0 []float64, h float64) {
	n := s.dim
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < s.tab.stages; j++ {
			sum += s.tab.b[j] * s.nw.f[j*n+i]
		}
		out[i] = y0[i] + h*sum
	}
}

func (s *rkImp) Apply(t, h float64, y, yerr, dydtIn, dydtOut []float64, sys ode.System) error {
	if err := checkApply(s.dim, y, yerr, dydtIn, dydtOut, sys); err != nil {
		return err
	}
	if s.driver == nil {
		return noDriverErr(s.tab.name)
	}
	n := s.dim
	copy(s.y0, y)

	for i := 0; i < n; i++ {
		d, err := s.driver.ErrLevel(s.y0[i], 0.0, h, i)
		if err != nil {
			return err
		}
		s.errlev[i] = d
	}

	if err := sys.EvalJac(t, s.y0, s.dfdy, s.dfdt); err != nil {
		return err
	}

	// whole step for comparison
	s.nw.init(s.tab.a, h, s.dfdy)
	if err := s.nw.solve(s.tab.a, s.tab.c, t, h, s.y0, s.errlev, sys); err != nil {
		return err
	}
	s.combine(s.yOnestep, s.y0, h)

	// two half steps, reusing the Jacobian from the step start
	s.nw.init(s.tab.a, h/2.0, s.dfdy)
	if err := s.nw.solve(s.tab.a, s.tab.c, t, h/2.0, s.y0, s.errlev, sys); err != nil {
		return err
	}
	s.combine(s.yHalf, s.y0, h/2.0)

	if err := s.nw.solve(s.tab.a, s.tab.c, t+h/2.0, h/2.0, s.yHalf, s.errlev, sys); err != nil {
		return err
	}
	s.combine(s.yFinal, s.yHalf, h/2.0)

	if dydtOut != nil {
		if err := sys.Eval(t+h, s.yFinal, dydtOut); err != nil {
			return err
		}
	}

	copy(y, s.yFinal)
	scale := 4.0 / (math.Pow(2.0, float64(s.tab.order)) - 1.0)
	for i := 0; i < n; i++ {
		yerr[i] = scale * (y[i] - s.yOnestep[i])
	}
	return nil
}

func (s *rkImp) Reset() {
	zero(s.nw.z, s.nw.f, s.dfdy, s.dfdt, s.errlev, s.y0, s.yOnestep, s.yHalf, s.yFinal)
}

func (s *rkImp) Order() uint            { return s.tab.order }
func (s *rkImp) Dim() int               { return s.dim }
func (s *rkImp) Name() string           { return s.tab.name }
func (s *rkImp) CanUseDydtIn() bool     { return false }
func (s *rkImp) SetDriver(d ode.Driver) { s.driver = d }
