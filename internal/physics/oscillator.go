package physics

import "github.com/san-kum/odeiv/internal/ode"

// Oscillator is the undamped harmonic oscillator x'' = -omega^2 * x
// written as a first-order system.
// State: [x, v] where v = dx/dt
type Oscillator struct {
	omega float64
}

func NewOscillator() *Oscillator { return &Oscillator{omega: 1.0} }

func (o *Oscillator) Name() string { return "oscillator" }

func (o *Oscillator) System() ode.System {
	return ode.System{
		Dim: 2,
		Func: func(t float64, y, dydt []float64) error {
			dydt[0] = y[1]
			dydt[1] = -o.omega * o.omega * y[0]
			return nil
		},
		Jac: func(t float64, y, dfdy, dfdt []float64) error {
			dfdy[0], dfdy[1] = 0, 1
			dfdy[2], dfdy[3] = -o.omega*o.omega, 0
			dfdt[0], dfdt[1] = 0, 0
			return nil
		},
	}
}

func (o *Oscillator) DefaultState() []float64 { return []float64{1.0, 0.0} }

func (o *Oscillator) Window() (float64, float64) { return 0, 10 }

func (o *Oscillator) Stiff() bool { return false }

// Energy is conserved along exact trajectories, which makes its drift a
// direct measure of integration error.
func (o *Oscillator) Energy(y []float64) float64 {
	return 0.5*y[1]*y[1] + 0.5*o.omega*o.omega*y[0]*y[0]
}

func (o *Oscillator) GetParams() map[string]float64 {
	return map[string]float64{"omega": o.omega}
}

func (o *Oscillator) SetParam(name string, v float64) {
	if name == "omega" {
		o.omega = v
	}
}
