package steppers

import "github.com/san-kum/odeiv/internal/ode"

// Prince-Dormand coefficients (rk8pd). Row m of a b array multiplies
// stage m+1.
var (
	rk8pdAH = [...]float64{
		1.0 / 18.0, 1.0 / 12.0, 1.0 / 8.0, 5.0 / 16.0, 3.0 / 8.0,
		59.0 / 400.0, 93.0 / 200.0, 5490023248.0 / 9719169821.0,
		13.0 / 20.0, 1201146811.0 / 1299019798.0,
	}

	rk8pdB21 = 1.0 / 18.0
	rk8pdB3  = [...]float64{1.0 / 48.0, 1.0 / 16.0}
	rk8pdB4  = [...]float64{1.0 / 32.0, 0.0, 3.0 / 32.0}
	rk8pdB5  = [...]float64{5.0 / 16.0, 0.0, -75.0 / 64.0, 75.0 / 64.0}
	rk8pdB6  = [...]float64{3.0 / 80.0, 0.0, 0.0, 3.0 / 16.0, 3.0 / 20.0}
	rk8pdB7  = [...]float64{
		29443841.0 / 614563906.0, 0.0, 0.0, 77736538.0 / 692538347.0,
		-28693883.0 / 1125000000.0, 23124283.0 / 1800000000.0,
	}
	rk8pdB8 = [...]float64{
		16016141.0 / 946692911.0, 0.0, 0.0, 61564180.0 / 158732637.0,
		22789713.0 / 633445777.0, 545815736.0 / 2771057229.0,
		-180193667.0 / 1043307555.0,
	}
	rk8pdB9 = [...]float64{
		39632708.0 / 573591083.0, 0.0, 0.0, -433636366.0 / 683701615.0,
		-421739975.0 / 2616292301.0, 100302831.0 / 723423059.0,
		790204164.0 / 839813087.0, 800635310.0 / 3783071287.0,
	}
	rk8pdB10 = [...]float64{
		246121993.0 / 1340847787.0, 0.0, 0.0, -37695042795.0 / 15268766246.0,
		-309121744.0 / 1061227803.0, -12992083.0 / 490766935.0,
		6005943493.0 / 2108947869.0, 393006217.0 / 1396673457.0,
		123872331.0 / 1001029789.0,
	}
	rk8pdB11 = [...]float64{
		-1028468189.0 / 846180014.0, 0.0, 0.0, 8478235783.0 / 508512852.0,
		1311729495.0 / 1432422823.0, -10304129995.0 / 1701304382.0,
		-48777925059.0 / 3047939560.0, 15336726248.0 / 1032824649.0,
		-45442868181.0 / 3398467696.0, 3065993473.0 / 597172653.0,
	}
	rk8pdB12 = [...]float64{
		185892177.0 / 718116043.0, 0.0, 0.0, -3185094517.0 / 667107341.0,
		-477755414.0 / 1098053517.0, -703635378.0 / 230739211.0,
		5731566787.0 / 1027545527.0, 5232866602.0 / 850066563.0,
		-4093664535.0 / 808688257.0, 3962137247.0 / 1805957418.0,
		65686358.0 / 487910083.0,
	}
	rk8pdB13 = [...]float64{
		403863854.0 / 491063109.0, 0.0, 0.0, -5068492393.0 / 434740067.0,
		-411421997.0 / 543043805.0, 652783627.0 / 914296604.0,
		11173962825.0 / 925320556.0, -13158990841.0 / 6184727034.0,
		3936647629.0 / 1978049680.0, -160528059.0 / 685178525.0,
		248638103.0 / 1413531060.0, 0.0,
	}

	// 8th order result
	rk8pdAbar = [...]float64{
		14005451.0 / 335480064.0, 0.0, 0.0, 0.0, 0.0,
		-59238493.0 / 1068277825.0, 181606767.0 / 758867731.0,
		561292985.0 / 797845732.0, -1041891430.0 / 1371343529.0,
		760417239.0 / 1151165299.0, 118820643.0 / 751138087.0,
		-528747749.0 / 2220607170.0, 1.0 / 4.0,
	}

	// embedded 7th order result
	rk8pdA = [...]float64{
		13451932.0 / 455176623.0, 0.0, 0.0, 0.0, 0.0,
		-808719846.0 / 976000145.0, 1757004468.0 / 5645159321.0,
		656045339.0 / 265891186.0, -3867574721.0 / 1518517206.0,
		465885868.0 / 322736535.0, 53011238.0 / 667516719.0,
		2.0 / 45.0,
	}
)

// rk8pd is the explicit embedded Prince-Dormand (8, 9) method.
type rk8pd struct {
	dim  int
	k    [13][]float64
	y0   []float64
	ytmp []float64
	sum8 []float64
}

func newRK8PD(dim int) *rk8pd {
	s := &rk8pd{
		dim:  dim,
		y0:   make([]float64, dim),
		ytmp: make([]float64, dim),
		sum8: make([]float64, dim),
	}
	for j := range s.k {
		s.k[j] = make([]float64, dim)
	}
	return s
}

func (s *rk8pd) Apply(t, h float64, y, yerr, dydtIn, dydtOut []float64, sys ode.System) error {
	if err := checkApply(s.dim, y, yerr, dydtIn, dydtOut, sys); err != nil {
		return err
	}
	n := s.dim
	copy(s.y0, y)

	k1, k2, k3 := s.k[0], s.k[1], s.k[2]
	k4, k5, k6 := s.k[3], s.k[4], s.k[5]
	k7, k8, k9 := s.k[6], s.k[7], s.k[8]
	k10, k11, k12, k13 := s.k[9], s.k[10], s.k[11], s.k[12]

	if dydtIn != nil {
		copy(k1, dydtIn)
	} else if err := sys.Eval(t, y, k1); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + rk8pdB21*h*k1[i]
	}
	if err := sys.Eval(t+rk8pdAH[0]*h, s.ytmp, k2); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rk8pdB3[0]*k1[i]+rk8pdB3[1]*k2[i])
	}
	if err := sys.Eval(t+rk8pdAH[1]*h, s.ytmp, k3); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rk8pdB4[0]*k1[i]+rk8pdB4[2]*k3[i])
	}
	if err := sys.Eval(t+rk8pdAH[2]*h, s.ytmp, k4); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rk8pdB5[0]*k1[i]+rk8pdB5[2]*k3[i]+rk8pdB5[3]*k4[i])
	}
	if err := sys.Eval(t+rk8pdAH[3]*h, s.ytmp, k5); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rk8pdB6[0]*k1[i]+rk8pdB6[3]*k4[i]+rk8pdB6[4]*k5[i])
	}
	if err := sys.Eval(t+rk8pdAH[4]*h, s.ytmp, k6); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rk8pdB7[0]*k1[i]+rk8pdB7[3]*k4[i]+rk8pdB7[4]*k5[i]+rk8pdB7[5]*k6[i])
	}
	if err := sys.Eval(t+rk8pdAH[5]*h, s.ytmp, k7); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rk8pdB8[0]*k1[i]+rk8pdB8[3]*k4[i]+rk8pdB8[4]*k5[i]+rk8pdB8[5]*k6[i]+rk8pdB8[6]*k7[i])
	}
	if err := sys.Eval(t+rk8pdAH[6]*h, s.ytmp, k8); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rk8pdB9[0]*k1[i]+rk8pdB9[3]*k4[i]+rk8pdB9[4]*k5[i]+rk8pdB9[5]*k6[i]+rk8pdB9[6]*k7[i]+rk8pdB9[7]*k8[i])
	}
	if err := sys.Eval(t+rk8pdAH[7]*h, s.ytmp, k9); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rk8pdB10[0]*k1[i]+rk8pdB10[3]*k4[i]+rk8pdB10[4]*k5[i]+rk8pdB10[5]*k6[i]+rk8pdB10[6]*k7[i]+rk8pdB10[7]*k8[i]+rk8pdB10[8]*k9[i])
	}
	if err := sys.Eval(t+rk8pdAH[8]*h, s.ytmp, k10); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rk8pdB11[0]*k1[i]+rk8pdB11[3]*k4[i]+rk8pdB11[4]*k5[i]+rk8pdB11[5]*k6[i]+rk8pdB11[6]*k7[i]+rk8pdB11[7]*k8[i]+rk8pdB11[8]*k9[i]+rk8pdB11[9]*k10[i])
	}
	if err := sys.Eval(t+rk8pdAH[9]*h, s.ytmp, k11); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rk8pdB12[0]*k1[i]+rk8pdB12[3]*k4[i]+rk8pdB12[4]*k5[i]+rk8pdB12[5]*k6[i]+rk8pdB12[6]*k7[i]+rk8pdB12[7]*k8[i]+rk8pdB12[8]*k9[i]+rk8pdB12[9]*k10[i]+rk8pdB12[10]*k11[i])
	}
	if err := sys.Eval(t+h, s.ytmp, k12); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.ytmp[i] = y[i] + h*(rk8pdB13[0]*k1[i]+rk8pdB13[3]*k4[i]+rk8pdB13[4]*k5[i]+rk8pdB13[5]*k6[i]+rk8pdB13[6]*k7[i]+rk8pdB13[7]*k8[i]+rk8pdB13[8]*k9[i]+rk8pdB13[9]*k10[i]+rk8pdB13[10]*k11[i])
	}
	if err := sys.Eval(t+h, s.ytmp, k13); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.sum8[i] = rk8pdAbar[0]*k1[i] + rk8pdAbar[5]*k6[i] + rk8pdAbar[6]*k7[i] + rk8pdAbar[7]*k8[i] + rk8pdAbar[8]*k9[i] + rk8pdAbar[9]*k10[i] + rk8pdAbar[10]*k11[i] + rk8pdAbar[11]*k12[i] + rk8pdAbar[12]*k13[i]
		y[i] += h * s.sum8[i]
	}

	if dydtOut != nil {
		if err := sys.Eval(t+h, y, dydtOut); err != nil {
			copy(y, s.y0)
			return err
		}
	}

	for i := 0; i < n; i++ {
		sum7 := rk8pdA[0]*k1[i] + rk8pdA[5]*k6[i] + rk8pdA[6]*k7[i] + rk8pdA[7]*k8[i] + rk8pdA[8]*k9[i] + rk8pdA[9]*k10[i] + rk8pdA[10]*k11[i] + rk8pdA[11]*k12[i]
		yerr[i] = h * (sum7 - s.sum8[i])
	}
	return nil
}

func (s *rk8pd) Reset() {
	for j := range s.k {
		zero(s.k[j])
	}
	zero(s.y0, s.ytmp, s.sum8)
}

func (s *rk8pd) Order() uint            { return 8 }
func (s *rk8pd) Dim() int               { return s.dim }
func (s *rk8pd) Name() string           { return "rk8pd" }
func (s *rk8pd) CanUseDydtIn() bool     { return true }
func (s *rk8pd) SetDriver(d ode.Driver) {}
