package physics

import "github.com/san-kum/odeiv/internal/ode"

// VanDerPol is the Van der Pol relaxation oscillator.
// State: [x, v] where v = dx/dt
// Equations:
//
//	dx/dt = v
//	dv/dt = -x + mu*v*(1 - x^2)
//
// Small mu gives a near-harmonic limit cycle; large mu makes the
// problem stiff with fast relaxation jumps.
type VanDerPol struct {
	mu float64
}

func NewVanDerPol() *VanDerPol { return &VanDerPol{mu: 10.0} }

func (v *VanDerPol) Name() string { return "vanderpol" }

func (v *VanDerPol) System() ode.System {
	return ode.System{
		Dim: 2,
		Func: func(t float64, y, dydt []float64) error {
			dydt[0] = y[1]
			dydt[1] = -y[0] + v.mu*y[1]*(1-y[0]*y[0])
			return nil
		},
		Jac: func(t float64, y, dfdy, dfdt []float64) error {
			dfdy[0], dfdy[1] = 0, 1
			dfdy[2] = -1 - 2*v.mu*y[0]*y[1]
			dfdy[3] = v.mu * (1 - y[0]*y[0])
			dfdt[0], dfdt[1] = 0, 0
			return nil
		},
	}
}

func (v *VanDerPol) DefaultState() []float64 { return []float64{1.0, 0.0} }

func (v *VanDerPol) Window() (float64, float64) { return 0, 100 }

func (v *VanDerPol) Stiff() bool { return v.mu > 100 }

func (v *VanDerPol) GetParams() map[string]float64 {
	return map[string]float64{"mu": v.mu}
}

func (v *VanDerPol) SetParam(name string, val float64) {
	if name == "mu" {
		v.mu = val
	}
}
