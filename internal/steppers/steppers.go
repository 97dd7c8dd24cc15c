// Package steppers provides the stepping algorithms behind the solver.
// Every stepper advances a solution by one fixed step and estimates the
// local error, leaving step size policy to the controller.
//
// The closed set of algorithms:
//
//	rk2      explicit embedded Runge-Kutta (2, 3)
//	rk4      classical 4th order Runge-Kutta, error by step doubling
//	rkf45    explicit embedded Runge-Kutta-Fehlberg (4, 5)
//	rkck     explicit embedded Cash-Karp (4, 5)
//	rk8pd    explicit embedded Prince-Dormand (8, 9)
//	rk1imp   implicit Euler, error by step doubling
//	rk2imp   implicit Gaussian midpoint, error by step doubling
//	rk4imp   implicit 2-stage Gaussian, error by step doubling
//	bsimp    semi-implicit Bader-Deuflhard extrapolation
//	msadams  variable-order Adams multistep (orders 1 to 12)
//	msbdf    variable-order BDF multistep (orders 1 to 5)
//
// The implicit and BDF methods need a Jacobian on the system. The
// implicit Runge-Kutta and multistep methods additionally need a driver
// attached, because their inner iterations converge against the
// driver's tolerances.
package steppers

import (
	"fmt"
	"sort"

	"github.com/san-kum/odeiv/internal/ode"
)

// Type identifies a stepping algorithm and builds instances of it.
type Type struct {
	// Name is the conventional short name, such as "rkf45".
	Name string

	// NeedsJacobian is true for methods that evaluate System.Jac.
	NeedsJacobian bool

	// NeedsDriver is true for methods whose Apply fails with
	// ode.ErrNoDriver unless a driver was attached.
	NeedsDriver bool

	make func(dim int) ode.Stepper
}

// New builds a stepper of this type for a system of the given
// dimension.
func (t *Type) New(dim int) (ode.Stepper, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ode.ErrInvalidArg, dim)
	}
	return t.make(dim), nil
}

// The available stepper types.
var (
	RK2     = &Type{Name: "rk2", make: func(dim int) ode.Stepper { return newRK2(dim) }}
	RK4     = &Type{Name: "rk4", make: func(dim int) ode.Stepper { return newRK4(dim) }}
	RKF45   = &Type{Name: "rkf45", make: func(dim int) ode.Stepper { return newRKF45(dim) }}
	RKCK    = &Type{Name: "rkck", make: func(dim int) ode.Stepper { return newRKCK(dim) }}
	RK8PD   = &Type{Name: "rk8pd", make: func(dim int) ode.Stepper { return newRK8PD(dim) }}
	RK1Imp  = &Type{Name: "rk1imp", NeedsJacobian: true, NeedsDriver: true, make: func(dim int) ode.Stepper { return newRKImp(dim, gauss1) }}
	RK2Imp  = &Type{Name: "rk2imp", NeedsJacobian: true, NeedsDriver: true, make: func(dim int) ode.Stepper { return newRKImp(dim, gauss2) }}
	RK4Imp  = &Type{Name: "rk4imp", NeedsJacobian: true, NeedsDriver: true, make: func(dim int) ode.Stepper { return newRKImp(dim, gauss4) }}
	BSImp   = &Type{Name: "bsimp", NeedsJacobian: true, make: func(dim int) ode.Stepper { return newBSImp(dim) }}
	MSAdams = &Type{Name: "msadams", NeedsDriver: true, make: func(dim int) ode.Stepper { return newMSAdams(dim) }}
	MSBDF   = &Type{Name: "msbdf", NeedsJacobian: true, NeedsDriver: true, make: func(dim int) ode.Stepper { return newMSBDF(dim) }}
)

var types = map[string]*Type{
	"rk2":     RK2,
	"rk4":     RK4,
	"rkf45":   RKF45,
	"rkck":    RKCK,
	"rk8pd":   RK8PD,
	"rk1imp":  RK1Imp,
	"rk2imp":  RK2Imp,
	"rk4imp":  RK4Imp,
	"bsimp":   BSImp,
	"msadams": MSAdams,
	"msbdf":   MSBDF,
}

// Lookup resolves a stepper type by name.
func Lookup(name string) (*Type, error) {
	t, ok := types[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown stepper %q", ode.ErrInvalidArg, name)
	}
	return t, nil
}

// Names returns the known stepper names in sorted order.
func Names() []string {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkApply validates the slice lengths every Apply receives. dydtIn
// and dydtOut may be nil.
func checkApply(dim int, y, yerr, dydtIn, dydtOut []float64, sys ode.System) error {
	if sys.Dim != dim {
		return fmt.Errorf("%w: system dimension %d, stepper dimension %d", ode.ErrInvalidArg, sys.Dim, dim)
	}
	if err := ode.CheckLen("y", dim, y); err != nil {
		return err
	}
	if err := ode.CheckLen("yerr", dim, yerr); err != nil {
		return err
	}
	if dydtIn != nil {
		if err := ode.CheckLen("dydtIn", dim, dydtIn); err != nil {
			return err
		}
	}
	if dydtOut != nil {
		if err := ode.CheckLen("dydtOut", dim, dydtOut); err != nil {
			return err
		}
	}
	return nil
}
