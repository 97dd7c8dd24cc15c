package steppers

import "github.com/san-kum/odeiv/internal/ode"

// Runge-Kutta-Fehlberg coefficients (rkf45)
var (
	rkf45AH = [...]float64{1.0 / 4.0, 3.0 / 8.0, 12.0 / 13.0, 1.0, 1.0 / 2.0}

	rkf45B3 = [...]float64{3.0 / 32.0, 9.0 / 32.0}
	rkf45B4 = [...]float64{1932.0 / 2197.0, -7200.0 / 2197.0, 7296.0 / 2197.0}
	rkf45B5 = [...]float64{439.0 / 216.0, -8.0, 3680.0 / 513.0, -845.0 / 4104.0}
	rkf45B6 = [...]float64{-8.0 / 27.0, 2.0, -3544.0 / 2565.0, 1859.0 / 4104.0, -11.0 / 40.0}

	rkf45C1 = 16.0 / 135.0
	rkf45C3 = 6656.0 / 12825.0
	rkf45C4 = 28561.0 / 56430.0
	rkf45C5 = -9.0 / 50.0
	rkf45C6 = 2.0 / 55.0

	// 5th order weights minus 4th order weights
	rkf45EC = [...]float64{0.0, 1.0 / 360.0, 0.0, -128.0 / 4275.0, -2197.0 / 75240.0, 1.0 / 50.0, 2.0 / 55.0}
)

// rkf45 is the explicit embedded Runge-Kutta-Fehlberg (4, 5) method.
// The step is taken with the 5th order solution and the error estimate
// is the difference between the embedded orders.
type rkf45 struct {
	dim  int
	k1   []float64
	k2   []float64
	k3   []float64
	k4   []float64
	k5   []float64
	k6   []float64
	y0   []float64
	ytmp []float64
}

func newRKF45(dim int) *rkf45 {
	return &rkf45{
		dim:  dim,
		k1:   make([]float64, dim),
		k2:   make([]float64, dim),
		k3:   make([]float64, dim),
		k4:   make([]float64, dim),
		k5:   make([]float64, dim),
		k6:   make([]float64, dim),
		y0:   make([]float64, dim),
		ytmp: make([]float64, dim),
	}
}

func (s *rkf45) Apply(t, h float64, y, yerr, dydtIn, dydtOut []float64, sys ode.System) error {
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
		s.ytmp[i] = y[i] + rkf45AH[0]*h*s.k1[i]
	}
	if err := sys.Eval(t+rkf45AH[0]*h, s.ytmp, s.k2); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rkf45B3[0]*s.k1[i]+rkf45B3[1]*s.k2[i])
	}
	if err := sys.Eval(t+rkf45AH[1]*h, s.ytmp, s.k3); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rkf45B4[0]*s.k1[i]+rkf45B4[1]*s.k2[i]+rkf45B4[2]*s.k3[i])
	}
	if err := sys.Eval(t+rkf45AH[2]*h, s.ytmp, s.k4); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rkf45B5[0]*s.k1[i]+rkf45B5[1]*s.k2[i]+rkf45B5[2]*s.k3[i]+rkf45B5[3]*s.k4[i])
	}
	if err := sys.Eval(t+rkf45AH[3]*h, s.ytmp, s.k5); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rkf45B6[0]*s.k1[i]+rkf45B6[1]*s.k2[i]+rkf45B6[2]*s.k3[i]+rkf45B6[3]*s.k4[i]+rkf45B6[4]*s.k5[i])
	}
	if err := sys.Eval(t+rkf45AH[4]*h, s.ytmp, s.k6); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		d := rkf45C1*s.k1[i] + rkf45C3*s.k3[i] + rkf45C4*s.k4[i] + rkf45C5*s.k5[i] + rkf45C6*s.k6[i]
		y[i] += h * d
	}

	if dydtOut != nil {
		if err := sys.Eval(t+h, y, dydtOut); err != nil {
			copy(y, s.y0)
			return err
		}
	}

	for i := 0; i < n; i++ {
		yerr[i] = h * (rkf45EC[1]*s.k1[i] + rkf45EC[3]*s.k3[i] + rkf45EC[4]*s.k4[i] + rkf45EC[5]*s.k5[i] + rkf45EC[6]*s.k6[i])
	}
	return nil
}

func (s *rkf45) Reset() {
	zero(s.k1, s.k2, s.k3, s.k4, s.k5, s.k6, s.y0, s.ytmp)
}

func (s *rkf45) Order() uint            { return 5 }
func (s *rkf45) Dim() int               { return s.dim }
func (s *rkf45) Name() string           { return "rkf45" }
func (s *rkf45) CanUseDydtIn() bool     { return true }
func (s *rkf45) SetDriver(d ode.Driver) {}
