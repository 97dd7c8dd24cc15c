package physics

import "github.com/san-kum/odeiv/internal/ode"

// Robertson is the classic stiff chemical kinetics problem of three
// species A -> B, B + B -> C + B, B + C -> A + C.
// State: [a, b, c] species concentrations
// Equations:
//
//	da/dt = -k1*a + k3*b*c
//	db/dt =  k1*a - k3*b*c - k2*b^2
//	dc/dt =  k2*b^2
//
// Rate constants spanning nine orders of magnitude make explicit
// methods crawl; the total mass a+b+c stays exactly 1.
type Robertson struct {
	k1, k2, k3 float64
}

func NewRobertson() *Robertson {
	return &Robertson{k1: 0.04, k2: 3e7, k3: 1e4}
}

func (r *Robertson) Name() string { return "robertson" }

func (r *Robertson) System() ode.System {
	return ode.System{
		Dim: 3,
		Func: func(t float64, y, dydt []float64) error {
			a, b, c := y[0], y[1], y[2]
			dydt[0] = -r.k1*a + r.k3*b*c
			dydt[1] = r.k1*a - r.k3*b*c - r.k2*b*b
			dydt[2] = r.k2 * b * b
			return nil
		},
		Jac: func(t float64, y, dfdy, dfdt []float64) error {
			b, c := y[1], y[2]
			dfdy[0], dfdy[1], dfdy[2] = -r.k1, r.k3*c, r.k3*b
			dfdy[3], dfdy[4], dfdy[5] = r.k1, -r.k3*c-2*r.k2*b, -r.k3*b
			dfdy[6], dfdy[7], dfdy[8] = 0, 2*r.k2*b, 0
			for i := range dfdt {
				dfdt[i] = 0
			}
			return nil
		},
	}
}

func (r *Robertson) DefaultState() []float64 { return []float64{1.0, 0.0, 0.0} }

func (r *Robertson) Window() (float64, float64) { return 0, 100 }

func (r *Robertson) Stiff() bool { return true }

func (r *Robertson) GetParams() map[string]float64 {
	return map[string]float64{"k1": r.k1, "k2": r.k2, "k3": r.k3}
}

func (r *Robertson) SetParam(name string, v float64) {
	switch name {
	case "k1":
		r.k1 = v
	case "k2":
		r.k2 = v
	case "k3":
		r.k3 = v
	}
}
