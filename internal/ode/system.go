package ode

import "fmt"

// Func evaluates the right-hand side of the ODE system, storing
// f_i(t, y) into dydt. Both slices have length Dim. Returning an error
// that wraps (or is) ErrBadFunc aborts the integration immediately; any
// other error is treated as a recoverable step failure.
type Func func(t float64, y, dydt []float64) error

// Jacobian evaluates the partial derivatives of the right-hand side.
// dfdy is a row-major Dim x Dim matrix with dfdy[i*dim+j] = df_i/dy_j,
// and dfdt[i] = df_i/dt. Only the implicit and multistep BDF steppers
// call it; explicit steppers never do.
type Jacobian func(t float64, y, dfdy, dfdt []float64) error

// System describes a first-order ODE system of fixed dimension. Func is
// required. Jac may be nil for steppers that do not need it.
type System struct {
	Dim  int
	Func Func
	Jac  Jacobian
}

// Eval computes dydt = f(t, y) after validating the buffer lengths.
func (s System) Eval(t float64, y, dydt []float64) error {
	if s.Func == nil {
		return fmt.Errorf("%w: system has no function", ErrInvalidArg)
	}
	if err := CheckLen("y", s.Dim, y); err != nil {
		return err
	}
	if err := CheckLen("dydt", s.Dim, dydt); err != nil {
		return err
	}
	return s.Func(t, y, dydt)
}

// EvalJac computes the Jacobian matrix dfdy and the explicit time
// derivative dfdt. It reports ErrBadFunc when the system carries no
// Jacobian, so a Jacobian-requiring stepper fails cleanly instead of
// dereferencing nil.
func (s System) EvalJac(t float64, y, dfdy, dfdt []float64) error {
	if s.Jac == nil {
		return fmt.Errorf("%w: system has no jacobian", ErrBadFunc)
	}
	if err := CheckLen("y", s.Dim, y); err != nil {
		return err
	}
	if len(dfdy) != s.Dim*s.Dim {
		return fmt.Errorf("%w: dfdy has length %d, want %d", ErrInvalidArg, len(dfdy), s.Dim*s.Dim)
	}
	if err := CheckLen("dfdt", s.Dim, dfdt); err != nil {
		return err
	}
	return s.Jac(t, y, dfdy, dfdt)
}
