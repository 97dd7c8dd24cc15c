package steppers

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odeiv/internal/ode"
)

// newtonMaxIter bounds the inner iterations of the implicit methods. A
// step whose iteration has not converged by then is rejected so the
// evolution loop can retry it smaller.
const newtonMaxIter = 7

// jacFactor holds an LU factorization of M = I - a*J for the
// single-stage implicit solves used by the semi-implicit and BDF
// steppers.
type jacFactor struct {
	n   int
	m   *mat.Dense
	rhs *mat.VecDense
	sol *mat.VecDense
	lu  mat.LU
}

func newJacFactor(n int) *jacFactor {
	return &jacFactor{
		n:   n,
		m:   mat.NewDense(n, n, nil),
		rhs: mat.NewVecDense(n, nil),
		sol: mat.NewVecDense(n, nil),
	}
}

// factor builds and factorizes I - a*J from a row-major Jacobian.
func (f *jacFactor) factor(a float64, dfdy []float64) {
	for i := 0; i < f.n; i++ {
		for j := 0; j < f.n; j++ {
			v := -a * dfdy[i*f.n+j]
			if i == j {
				v += 1.0
			}
			f.m.Set(i, j, v)
		}
	}
	f.lu.Factorize(f.m)
}

// solve computes x from M*x = b with the current factorization. An
// ill-conditioned system is still solved; only hard singularity is an
// error.
func (f *jacFactor) solve(b, x []float64) error {
	for i := 0; i < f.n; i++ {
		f.rhs.SetVec(i, b[i])
	}
	if err := f.lu.SolveVecTo(f.sol, false, f.rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("%w: singular iteration matrix", ode.ErrFailed)
		}
	}
	for i := 0; i < f.n; i++ {
		x[i] = f.sol.AtVec(i)
	}
	return nil
}

// stageNewton solves the coupled stage equations of an implicit
// Runge-Kutta step,
//
//	Z_j = h * sum_m A[j][m] * f(t + c[m]*h, y0 + Z_m)
//
// by a modified Newton iteration whose matrix I - h*(A kron J) is
// factorized once per step and reused for every iteration.
type stageNewton struct {
	dim    int
	stages int
	m      *mat.Dense
	rhs    *mat.VecDense
	sol    *mat.VecDense
	lu     mat.LU
	z      []float64 // stage increments, stages*dim
	f      []float64 // stage derivatives, stages*dim
	ytmp   []float64
}

func newStageNewton(dim, stages int) *stageNewton {
	sn := stages * dim
	return &stageNewton{
		dim:    dim,
		stages: stages,
		m:      mat.NewDense(sn, sn, nil),
		rhs:    mat.NewVecDense(sn, nil),
		sol:    mat.NewVecDense(sn, nil),
		z:      make([]float64, sn),
		f:      make([]float64, sn),
		ytmp:   make([]float64, dim),
	}
}

// init factorizes the iteration matrix for step size h from a
// row-major Jacobian evaluated at the step start.
func (nw *stageNewton) init(a [][]float64, h float64, dfdy []float64) {
	n := nw.dim
	for j := 0; j < nw.stages; j++ {
		for m := 0; m < nw.stages; m++ {
			for i := 0; i < n; i++ {
				for l := 0; l < n; l++ {
					v := -h * a[j][m] * dfdy[i*n+l]
					if j == m && i == l {
						v += 1.0
					}
					nw.m.Set(j*n+i, m*n+l, v)
				}
			}
		}
	}
	nw.lu.Factorize(nw.m)
}

// solve iterates from Z = 0 until every component of the Newton update
// drops below its error level, then stores the converged stage
// derivatives. errlev has one entry per system component.
func (nw *stageNewton) solve(a [][]float64, c []float64, t, h float64, y0, errlev []float64, sys ode.System) error {
	n := nw.dim

	for i := range nw.z {
		nw.z[i] = 0
	}

	for iter := 0; iter < newtonMaxIter; iter++ {
		for j := 0; j < nw.stages; j++ {
			for i := 0; i < n; i++ {
				nw.ytmp[i] = y0[i] + nw.z[j*n+i]
			}
			if err := sys.Eval(t+c[j]*h, nw.ytmp, nw.f[j*n:(j+1)*n]); err != nil {
				return err
			}
		}

		for j := 0; j < nw.stages; j++ {
			for i := 0; i < n; i++ {
				var af float64
				for m := 0; m < nw.stages; m++ {
					af += a[j][m] * nw.f[m*n+i]
				}
				nw.rhs.SetVec(j*n+i, h*af-nw.z[j*n+i])
			}
		}

		if err := nw.lu.SolveVecTo(nw.sol, false, nw.rhs); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return fmt.Errorf("%w: singular newton matrix", ode.ErrFailed)
			}
		}

		converged := true
		for j := 0; j < nw.stages; j++ {
			for i := 0; i < n; i++ {
				d := nw.sol.AtVec(j*n + i)
				nw.z[j*n+i] += d
				if math.Abs(d) > errlev[i] {
					converged = false
				}
			}
		}
		if converged {
			for j := 0; j < nw.stages; j++ {
				for i := 0; i < n; i++ {
					nw.ytmp[i] = y0[i] + nw.z[j*n+i]
				}
				if err := sys.Eval(t+c[j]*h, nw.ytmp, nw.f[j*n:(j+1)*n]); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return fmt.Errorf("%w: newton iteration did not converge", ode.ErrFailed)
}
