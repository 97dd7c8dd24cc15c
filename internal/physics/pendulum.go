package physics

import (
	"math"

	"github.com/san-kum/odeiv/internal/ode"
)

// Pendulum is the frictionless nonlinear pendulum.
// State: [theta, omega] with theta measured from the downward vertical
// Equations:
//
//	dtheta/dt = omega
//	domega/dt = -(g/l) * sin(theta)
type Pendulum struct {
	g, l float64
}

func NewPendulum() *Pendulum { return &Pendulum{g: 9.81, l: 1.0} }

func (p *Pendulum) Name() string { return "pendulum" }

func (p *Pendulum) System() ode.System {
	return ode.System{
		Dim: 2,
		Func: func(t float64, y, dydt []float64) error {
			dydt[0] = y[1]
			dydt[1] = -(p.g / p.l) * math.Sin(y[0])
			return nil
		},
		Jac: func(t float64, y, dfdy, dfdt []float64) error {
			dfdy[0], dfdy[1] = 0, 1
			dfdy[2], dfdy[3] = -(p.g/p.l)*math.Cos(y[0]), 0
			dfdt[0], dfdt[1] = 0, 0
			return nil
		},
	}
}

func (p *Pendulum) DefaultState() []float64 { return []float64{math.Pi / 3, 0.0} }

func (p *Pendulum) Window() (float64, float64) { return 0, 10 }

func (p *Pendulum) Stiff() bool { return false }

// Energy per unit mass, zero at the rest position.
func (p *Pendulum) Energy(y []float64) float64 {
	return 0.5*p.l*p.l*y[1]*y[1] + p.g*p.l*(1-math.Cos(y[0]))
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{"g": p.g, "l": p.l}
}

func (p *Pendulum) SetParam(name string, v float64) {
	switch name {
	case "g":
		p.g = v
	case "l":
		p.l = v
	}
}
