package physics

import "github.com/san-kum/odeiv/internal/ode"

// Lorenz is the chaotic Lorenz attractor with the classic parameter
// set sigma=10, rho=28, beta=8/3.
// State: [x, y, z]
type Lorenz struct {
	sigma, rho, beta float64
}

func NewLorenz() *Lorenz { return &Lorenz{sigma: 10.0, rho: 28.0, beta: 8.0 / 3.0} }

func (l *Lorenz) Name() string { return "lorenz" }

func (l *Lorenz) System() ode.System {
	return ode.System{
		Dim: 3,
		Func: func(t float64, y, dydt []float64) error {
			dydt[0] = l.sigma * (y[1] - y[0])
			dydt[1] = y[0]*(l.rho-y[2]) - y[1]
			dydt[2] = y[0]*y[1] - l.beta*y[2]
			return nil
		},
		Jac: func(t float64, y, dfdy, dfdt []float64) error {
			dfdy[0], dfdy[1], dfdy[2] = -l.sigma, l.sigma, 0
			dfdy[3], dfdy[4], dfdy[5] = l.rho-y[2], -1, -y[0]
			dfdy[6], dfdy[7], dfdy[8] = y[1], y[0], -l.beta
			for i := range dfdt {
				dfdt[i] = 0
			}
			return nil
		},
	}
}

func (l *Lorenz) DefaultState() []float64 { return []float64{1.0, 1.0, 1.0} }

func (l *Lorenz) Window() (float64, float64) { return 0, 25 }

func (l *Lorenz) Stiff() bool { return false }

func (l *Lorenz) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.sigma, "rho": l.rho, "beta": l.beta}
}

func (l *Lorenz) SetParam(name string, v float64) {
	switch name {
	case "sigma":
		l.sigma = v
	case "rho":
		l.rho = v
	case "beta":
		l.beta = v
	}
}
