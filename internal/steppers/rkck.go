package steppers

import "github.com/san-kum/odeiv/internal/ode"

// Cash-Karp coefficients (rkck)
var (
	rkckAH = [...]float64{1.0 / 5.0, 3.0 / 10.0, 3.0 / 5.0, 1.0, 7.0 / 8.0}

	rkckB21 = 1.0 / 5.0
	rkckB3  = [...]float64{3.0 / 40.0, 9.0 / 40.0}
	rkckB4  = [...]float64{3.0 / 10.0, -9.0 / 10.0, 6.0 / 5.0}
	rkckB5  = [...]float64{-11.0 / 54.0, 5.0 / 2.0, -70.0 / 27.0, 35.0 / 27.0}
	rkckB6  = [...]float64{1631.0 / 55296.0, 175.0 / 512.0, 575.0 / 13824.0, 44275.0 / 110592.0, 253.0 / 4096.0}

	rkckC1 = 37.0 / 378.0
	rkckC3 = 250.0 / 621.0
	rkckC4 = 125.0 / 594.0
	rkckC6 = 512.0 / 1771.0

	// differences of the 5th and 4th order weights
	rkckEC = [...]float64{
		0.0,
		37.0/378.0 - 2825.0/27648.0,
		0.0,
		250.0/621.0 - 18575.0/48384.0,
		125.0/594.0 - 13525.0/55296.0,
		-277.0 / 14336.0,
		512.0/1771.0 - 1.0/4.0,
	}
)

// rkck is the explicit embedded Cash-Karp (4, 5) method.
type rkck struct {
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

func newRKCK(dim int) *rkck {
	return &rkck{
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

func (s *rkck) Apply(t, h float64, y, yerr, dydtIn, dydtOut []float64, sys ode.System) error {
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
		s.ytmp[i] = y[i] + rkckB21*h*s.k1[i]
	}
	if err := sys.Eval(t+rkckAH[0]*h, s.ytmp, s.k2); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rkckB3[0]*s.k1[i]+rkckB3[1]*s.k2[i])
	}
	if err := sys.Eval(t+rkckAH[1]*h, s.ytmp, s.k3); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rkckB4[0]*s.k1[i]+rkckB4[1]*s.k2[i]+rkckB4[2]*s.k3[i])
	}
	if err := sys.Eval(t+rkckAH[2]*h, s.ytmp, s.k4); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rkckB5[0]*s.k1[i]+rkckB5[1]*s.k2[i]+rkckB5[2]*s.k3[i]+rkckB5[3]*s.k4[i])
	}
	if err := sys.Eval(t+rkckAH[3]*h, s.ytmp, s.k5); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rkckB6[0]*s.k1[i]+rkckB6[1]*s.k2[i]+rkckB6[2]*s.k3[i]+rkckB6[3]*s.k4[i]+rkckB6[4]*s.k5[i])
	}
	if err := sys.Eval(t+rkckAH[4]*h, s.ytmp, s.k6); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		d := rkckC1*s.k1[i] + rkckC3*s.k3[i] + rkckC4*s.k4[i] + rkckC6*s.k6[i]
		y[i] += h * d
	}

	if dydtOut != nil {
		if err := sys.Eval(t+h, y, dydtOut); err != nil {
			copy(y, s.y0)
			return err
		}
	}

	for i := 0; i < n; i++ {
		yerr[i] = h * (rkckEC[1]*s.k1[i] + rkckEC[3]*s.k3[i] + rkckEC[4]*s.k4[i] + rkckEC[5]*s.k5[i] + rkckEC[6]*s.k6[i])
	}
	return nil
}

func (s *rkck) Reset() {
	zero(s.k1, s.k2, s.k3, s.k4, s.k5, s.k6, s.y0, s.ytmp)
}

func (s *rkck) Order() uint            { return 5 }
func (s *rkck) Dim() int               { return s.dim }
func (s *rkck) Name() string           { return "rkck" }
func (s *rkck) CanUseDydtIn() bool     { return true }
func (s *rkck) SetDriver(d ode.Driver) {}
