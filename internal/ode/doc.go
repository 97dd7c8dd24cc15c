// Package ode defines the core contracts for solving initial value
// problems for systems of first-order ordinary differential equations,
//
//	dy_i/dt = f_i(t, y_1, ..., y_n)
//
// The package provides the types shared by every layer of the solver:
//
//   - [System]: right-hand side f and optional Jacobian of an ODE system
//   - [Stepper]: advances a solution by one step of fixed size and
//     estimates the resulting local error
//   - [Controller]: decides whether a proposed step should shrink, grow
//     or stay, given the estimated local error
//   - [Driver]: the back-reference steppers use to query the desired
//     error level for their internal iterations
//
// Concrete steppers live in internal/steppers, controllers in
// internal/control, and the evolution loop and high-level driver in
// internal/ivp.
//
// # Example
//
//	sys := ode.System{Dim: 1, Func: func(t float64, y, dydt []float64) error {
//		dydt[0] = -y[0]
//		return nil
//	}}
//	d, _ := ivp.NewDriverY(sys, steppers.RKF45, 1e-6, 1e-10, 1e-10)
//	t, y := 0.0, []float64{1}
//	err := d.Apply(&t, 5.0, y)
//
// # Thread Safety
//
// Nothing in this package synchronizes access. A driver and the objects
// it owns must not be used from two goroutines at once, but independent
// drivers share no state and may run concurrently.
package ode
