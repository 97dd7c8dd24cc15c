// Package physics provides ready-to-integrate example ODE systems.
//
// Each model builds an [ode.System] with an analytic Jacobian, a
// default initial state and a suggested integration window:
//
//   - [Decay]: linear exponential decay, the simplest benchmark
//   - [Oscillator]: undamped harmonic oscillator
//   - [Pendulum]: nonlinear frictionless pendulum
//   - [VanDerPol]: relaxation oscillator with tunable nonlinearity
//   - [Robertson]: stiff three-species reaction kinetics
//   - [Lorenz]: chaotic butterfly attractor
//   - [Brusselator]: autocatalytic reaction limit cycle
//
// Models with adjustable parameters also implement [Configurable].
// Lookup resolves a model by name:
//
//	m, err := physics.Lookup("vanderpol")
//	sys := m.System()
//	y := m.DefaultState()
package physics
