// Package analysis provides diagnostics for integration runs.
//
//   - [ObservedOrder]: measured convergence order via step halving
//   - [WorkPrecision]: cost against accuracy across tolerance decades
//   - [PowerSpectrum], [Peak]: frequency content of a trajectory component
//   - [LargestExponent]: largest Lyapunov exponent via trajectory separation
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda, err := analysis.LargestExponent(sys, steppers.RKF45, y0, 1.0, 60, 1e-8, 1e-8, 1e-8)
//	if lambda > 0 {
//	    // sensitive dependence on initial conditions
//	}
package analysis
