package steppers

import "github.com/san-kum/odeiv/internal/ode"

// rk2 is the explicit embedded Runge-Kutta (2, 3) method. The step is
// taken with the 3rd order Simpson combination and the error estimate
// is its difference from the 2nd order midpoint result.
type rk2 struct {
	dim  int
	k1   []float64
	k2   []float64
	k3   []float64
	ytmp []float64
	y0   []float64
}

func newRK2(dim int) *rk2 {
	return &rk2{
		dim:  dim,
		k1:   make([]float64, dim),
		k2:   make([]float64, dim),
		k3:   make([]float64, dim),
		ytmp: make([]float64, dim),
		y0:   make([]float64, dim),
	}
}

func (s *rk2) Apply(t, h float64, y, yerr, dydtIn, dydtOut []float64, sys ode.System) error {
	if err := checkApply(s.dim, y, yerr, dydtIn, dydtOut, sys); err != nil {
		return err
	}
	n := s.dim
	copy(s.y0, y)

	if dydtIn != nil {
		copy(s.k1, dydtIn)
	} else if err := sys.Eval(t, y, s.k1); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + 0.5*h*s.k1[i]
	}
	if err := sys.Eval(t+0.5*h, s.ytmp, s.k2); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(-s.k1[i]+2.0*s.k2[i])
	}
	if err := sys.Eval(t+h, s.ytmp, s.k3); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		y[i] += h * (s.k1[i] + 4.0*s.k2[i] + s.k3[i]) / 6.0
	}

	if dydtOut != nil {
		if err := sys.Eval(t+h, y, dydtOut); err != nil {
			copy(y, s.y0)
			return err
		}
	}

	for i := 0; i < n; i++ {
		ksum3 := (s.k1[i] + 4.0*s.k2[i] + s.k3[i]) / 6.0
		yerr[i] = h * (s.k2[i] - ksum3)
	}
	return nil
}

func (s *rk2) Reset() {
	zero(s.k1, s.k2, s.k3, s.ytmp, s.y0)
}

func (s *rk2) Order() uint            { return 2 }
func (s *rk2) Dim() int               { return s.dim }
func (s *rk2) Name() string           { return "rk2" }
func (s *rk2) CanUseDydtIn() bool     { return true }
func (s *rk2) SetDriver(d ode.Driver) {}

// zero clears scratch slices on Reset.
func zero(bufs ...[]float64) {
	for _, b := range bufs {
		for i := range b {
			b[i] = 0
		}
	}
}
