package steppers

import "github.com/san-kum/odeiv/internal/ode"

// rk4 is the classical 4th order Runge-Kutta method. Each Apply
// traverses the step twice, once whole and once as two half steps, and
// estimates the error from the difference of the two results. The half
// step result is the one kept.
type rk4 struct {
	dim      int
	k        []float64
	k1       []float64
	y0       []float64
	ytmp     []float64
	yOnestep []float64
	base     []float64
}

func newRK4(dim int) *rk4 {
	return &rk4{
		dim:      dim,
		k:        make([]float64, dim),
		k1:       make([]float64, dim),
		y0:       make([]float64, dim),
		ytmp:     make([]float64, dim),
		yOnestep: make([]float64, dim),
		base:     make([]float64, dim),
	}
}

// step advances y in place by one classical step of size h. base holds
// the starting point and k the derivative there; k is clobbered.
func (s *rk4) step(y, base []float64, t, h float64, sys ode.System) error {
	n := s.dim

	for i := 0; i < n; i++ {
		y[i] += h / 6.0 * s.k[i]
		s.ytmp[i] = base[i] + 0.5*h*s.k[i]
	}

	if err := sys.Eval(t+0.5*h, s.ytmp, s.k); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		y[i] += h / 3.0 * s.k[i]
		s.ytmp[i] = base[i] + 0.5*h*s.k[i]
	}

	if err := sys.Eval(t+0.5*h, s.ytmp, s.k); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		y[i] += h / 3.0 * s.k[i]
		s.ytmp[i] = base[i] + h*s.k[i]
	}

	if err := sys.Eval(t+h, s.ytmp, s.k); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		y[i] += h / 6.0 * s.k[i]
	}
	return nil
}

func (s *rk4) Apply(t, h float64, y, yerr, dydtIn, dydtOut []float64, sys ode.System) error {
	if err := checkApply(s.dim, y, yerr, dydtIn, dydtOut, sys); err != nil {
		return err
	}
	n := s.dim
	copy(s.y0, y)

	if dydtIn != nil {
		copy(s.k, dydtIn)
	} else if err := sys.Eval(t, y, s.k); err != nil {
		return err
	}
	copy(s.k1, s.k)

	// whole step for comparison
	copy(s.yOnestep, y)
	if err := s.step(s.yOnestep, s.y0, t, h, sys); err != nil {
		return err
	}

	// first half step
	copy(s.k, s.k1)
	if err := s.step(y, s.y0, t, h/2.0, sys); err != nil {
		copy(y, s.y0)
		return err
	}

	// second half step from the midpoint
	if err := sys.Eval(t+h/2.0, y, s.k); err != nil {
		copy(y, s.y0)
		return err
	}
	copy(s.base, y)
	if err := s.step(y, s.base, t+h/2.0, h/2.0, sys); err != nil {
		copy(y, s.y0)
		return err
	}

	if dydtOut != nil {
		if err := sys.Eval(t+h, y, dydtOut); err != nil {
			copy(y, s.y0)
			return err
		}
	}

	for i := 0; i < n; i++ {
		yerr[i] = 4.0 * (y[i] - s.yOnestep[i]) / 15.0
	}
	return nil
}

func (s *rk4) Reset() {
	zero(s.k, s.k1, s.y0, s.ytmp, s.yOnestep, s.base)
}

func (s *rk4) Order() uint            { return 4 }
func (s *rk4) Dim() int               { return s.dim }
func (s *rk4) Name() string           { return "rk4" }
func (s *rk4) CanUseDydtIn() bool     { return true }
func (s *rk4) SetDriver(d ode.Driver) {}
