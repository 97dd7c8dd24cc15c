package physics

import "github.com/san-kum/odeiv/internal/ode"

// Decay is linear exponential decay dy/dt = -k*y with solution
// y(t) = y(0)*exp(-k*t). Every stepper should nail it, which makes it
// the baseline for convergence and accuracy checks.
type Decay struct {
	k float64
}

func NewDecay() *Decay { return &Decay{k: 1.0} }

func (d *Decay) Name() string { return "decay" }

func (d *Decay) System() ode.System {
	return ode.System{
		Dim: 1,
		Func: func(t float64, y, dydt []float64) error {
			dydt[0] = -d.k * y[0]
			return nil
		},
		Jac: func(t float64, y, dfdy, dfdt []float64) error {
			dfdy[0] = -d.k
			dfdt[0] = 0
			return nil
		},
	}
}

func (d *Decay) DefaultState() []float64 { return []float64{1.0} }

func (d *Decay) Window() (float64, float64) { return 0, 5 }

func (d *Decay) Stiff() bool { return false }

func (d *Decay) GetParams() map[string]float64 {
	return map[string]float64{"k": d.k}
}

func (d *Decay) SetParam(name string, v float64) {
	if name == "k" {
		d.k = v
	}
}
