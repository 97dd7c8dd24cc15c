package physics

import "github.com/san-kum/odeiv/internal/ode"

// Brusselator is the autocatalytic reaction model with a limit cycle
// for b > 1 + a^2.
// State: [x, y] species concentrations
// Equations:
//
//	dx/dt = a + x^2*y - (b+1)*x
//	dy/dt = b*x - x^2*y
type Brusselator struct {
	a, b float64
}

func NewBrusselator() *Brusselator { return &Brusselator{a: 1.0, b: 3.0} }

func (br *Brusselator) Name() string { return "brusselator" }

func (br *Brusselator) System() ode.System {
	return ode.System{
		Dim: 2,
		Func: func(t float64, y, dydt []float64) error {
			x, v := y[0], y[1]
			dydt[0] = br.a + x*x*v - (br.b+1)*x
			dydt[1] = br.b*x - x*x*v
			return nil
		},
		Jac: func(t float64, y, dfdy, dfdt []float64) error {
			x, v := y[0], y[1]
			dfdy[0], dfdy[1] = 2*x*v-(br.b+1), x*x
			dfdy[2], dfdy[3] = br.b-2*x*v, -x*x
			dfdt[0], dfdt[1] = 0, 0
			return nil
		},
	}
}

func (br *Brusselator) DefaultState() []float64 { return []float64{1.5, 3.0} }

func (br *Brusselator) Window() (float64, float64) { return 0, 20 }

func (br *Brusselator) Stiff() bool { return false }

func (br *Brusselator) GetParams() map[string]float64 {
	return map[string]float64{"a": br.a, "b": br.b}
}

func (br *Brusselator) SetParam(name string, v float64) {
	switch name {
	case "a":
		br.a = v
	case "b":
		br.b = v
	}
}
