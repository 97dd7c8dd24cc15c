package steppers

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/odeiv/internal/ode"
)

const (
	bsimpSeqCount = 8
	bsimpSeqMax   = 7

	dblEpsilon = 2.220446049250313e-16
)

// Bader-Deuflhard extrapolation sequence
var bsimpSequence = [bsimpSeqCount]int{2, 6, 10, 14, 22, 34, 50, 70}

// errRunaway marks a diverging inner step. The caller reports an
// infinite error estimate instead of failing so the controller shrinks
// the step.
var errRunaway = errors.New("bsimp: inner step diverged")

// deufKchoice picks the extrapolation depth for the given accuracy and
// dimension by comparing the work per unit step across the sequence.
func deufKchoice(eps float64, dim int) int {
	const safety = 0.25
	smallEps := safety * eps

	var aWork [bsimpSeqCount]float64
	var alpha [bsimpSeqMax][bsimpSeqMax]float64

	aWork[0] = float64(bsimpSequence[0]) + 1.0
	for k := 0; k < bsimpSeqMax; k++ {
		aWork[k+1] = aWork[k] + float64(bsimpSequence[k+1])
	}

	for i := 0; i < bsimpSeqMax; i++ {
		alpha[i][i] = 1.0
		for k := 0; k < i; k++ {
			t1 := aWork[k+1] - aWork[i+1]
			t2 := (aWork[i+1] - aWork[0] + 1.0) * float64(2*k+1)
			alpha[k][i] = math.Pow(smallEps, t1/t2)
		}
	}

	aWork[0] += float64(dim)
	for k := 0; k < bsimpSeqMax; k++ {
		aWork[k+1] = aWork[k] + float64(bsimpSequence[k+1])
	}

	k := 0
	for ; k < bsimpSeqMax-1; k++ {
		if aWork[k+2] > aWork[k+1]*alpha[k][k+1] {
			break
		}
	}
	return k
}

// bsimp is the Bader-Deuflhard semi-implicit midpoint method with
// polynomial extrapolation. It needs a Jacobian but no driver.
type bsimp struct {
	dim      int
	kCurrent int
	order    uint

	x [bsimpSeqMax]float64
	d [][]float64 // extrapolation tableau rows

	lu *jacFactor

	yp         []float64
	ySave      []float64
	yerrSave   []float64
	ySeq       []float64
	extrapWork []float64
	dfdy       []float64
	dfdt       []float64
	yTemp      []float64
	deltaTemp  []float64
	rhsTemp    []float64
	delta      []float64
	weight     []float64
}

func newBSImp(dim int) *bsimp {
	kChoice := deufKchoice(math.Sqrt(dblEpsilon), dim)
	s := &bsimp{
		dim:        dim,
		kCurrent:   kChoice,
		order:      uint(2 * kChoice),
		d:          make([][]float64, bsimpSeqMax),
		lu:         newJacFactor(dim),
		yp:         make([]float64, dim),
		ySave:      make([]float64, dim),
		yerrSave:   make([]float64, dim),
		ySeq:       make([]float64, dim),
		extrapWork: make([]float64, dim),
		dfdy:       make([]float64, dim*dim),
		dfdt:       make([]float64, dim),
		yTemp:      make([]float64, dim),
		deltaTemp:  make([]float64, dim),
		rhsTemp:    make([]float64, dim),
		delta:      make([]float64, dim),
		weight:     make([]float64, dim),
	}
	for i := range s.d {
		s.d[i] = make([]float64, dim)
	}
	return s
}

// stepLocal traverses the step with nStep semi-implicit midpoint
// substeps, leaving the result in yOut.
func (s *bsimp) stepLocal(t0, hTotal float64, nStep int, y, yOut []float64, sys ode.System) error {
	n := s.dim
	h := hTotal / float64(nStep)
	t := t0 + h

	// relative change beyond this indicates runaway
	maxSum := 100.0 * float64(n)

	s.lu.factor(h, s.dfdy)

	for i := 0; i < n; i++ {
		s.weight[i] = math.Abs(y[i]) + math.Abs(h*s.yp[i]) + dblEpsilon
	}

	// initial substep
	for i := 0; i < n; i++ {
		s.rhsTemp[i] = h * (s.yp[i] + h*s.dfdt[i])
	}
	if err := s.lu.solve(s.rhsTemp, s.deltaTemp); err != nil {
		return errRunaway
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		s.delta[i] = s.deltaTemp[i]
		s.yTemp[i] = y[i] + s.deltaTemp[i]
		sum += math.Abs(s.deltaTemp[i]) / s.weight[i]
	}
	if sum > maxSum {
		return errRunaway
	}

	if err := sys.Eval(t, s.yTemp, yOut); err != nil {
		return err
	}

	// intermediate substeps
	for nInter := 1; nInter < nStep; nInter++ {
		for i := 0; i < n; i++ {
			s.rhsTemp[i] = h*yOut[i] - s.delta[i]
		}
		if err := s.lu.solve(s.rhsTemp, s.deltaTemp); err != nil {
			return errRunaway
		}
		sum = 0.0
		for i := 0; i < n; i++ {
			s.delta[i] += 2.0 * s.deltaTemp[i]
			s.yTemp[i] += s.delta[i]
			sum += math.Abs(s.delta[i]) / s.weight[i]
		}
		if sum > maxSum {
			return errRunaway
		}
		t += h
		if err := sys.Eval(t, s.yTemp, yOut); err != nil {
			return err
		}
	}

	// smoothing step
	for i := 0; i < n; i++ {
		s.rhsTemp[i] = h*yOut[i] - s.delta[i]
	}
	if err := s.lu.solve(s.rhsTemp, s.deltaTemp); err != nil {
		return errRunaway
	}
	sum = 0.0
	for i := 0; i < n; i++ {
		yOut[i] = s.yTemp[i] + s.deltaTemp[i]
		sum += math.Abs(s.deltaTemp[i]) / s.weight[i]
	}
	if sum > maxSum {
		return errRunaway
	}
	return nil
}

// polyExtrap folds the latest sequence result into the Neville tableau,
// writing the extrapolated solution to y0 and the last increment, which
// serves as the error estimate, to y0Err.
func (s *bsimp) polyExtrap(iStep int, xI float64, yI, y0, y0Err []float64) {
	n := s.dim
	copy(y0Err, yI)
	copy(y0, yI)

	if iStep == 0 {
		copy(s.d[0], yI)
		return
	}

	copy(s.extrapWork, yI)
	for k := 0; k < iStep; k++ {
		delta := 1.0 / (s.x[iStep-k-1] - xI)
		f1 := delta * xI
		f2 := delta * s.x[iStep-k-1]

		for j := 0; j < n; j++ {
			q := s.d[k][j]
			s.d[k][j] = y0Err[j]
			d := s.extrapWork[j] - q
			y0Err[j] = f1 * d
			s.extrapWork[j] = f2 * d
			y0[j] += y0Err[j]
		}
	}
	copy(s.d[iStep], y0Err)
}

func (s *bsimp) Apply(t, h float64, y, yerr, dydtIn, dydtOut []float64, sys ode.System) error {
	if err := checkApply(s.dim, y, yerr, dydtIn, dydtOut, sys); err != nil {
		return err
	}
	if t+h == t {
		return fmt.Errorf("%w: step size underflow at t=%g", ode.ErrFailed, t)
	}
	n := s.dim

	copy(s.ySave, y)
	copy(s.yerrSave, yerr)

	if dydtIn != nil {
		copy(s.yp, dydtIn)
	} else if err := sys.Eval(t, y, s.yp); err != nil {
		return err
	}

	if err := sys.EvalJac(t, y, s.dfdy, s.dfdt); err != nil {
		return err
	}

	for k := 0; k <= s.kCurrent; k++ {
		nStep := bsimpSequence[k]
		r := h / float64(nStep)
		xK := r * r

		err := s.stepLocal(t, h, nStep, s.ySave, s.ySeq, sys)
		if errors.Is(err, errRunaway) {
			// force the controller to shrink the step
			for i := 0; i < n; i++ {
				yerr[i] = math.Inf(1)
			}
			break
		}
		if err != nil {
			copy(y, s.ySave)
			copy(yerr, s.yerrSave)
			return err
		}

		s.x[k] = xK
		s.polyExtrap(k, xK, s.ySeq, y, yerr)
	}

	if dydtOut != nil {
		if err := sys.Eval(t+h, y, dydtOut); err != nil {
			copy(y, s.ySave)
			copy(yerr, s.yerrSave)
			return err
		}
	}
	return nil
}

func (s *bsimp) Reset() {
	for i := range s.d {
		zero(s.d[i])
	}
	for i := range s.x {
		s.x[i] = 0
	}
	zero(s.yp, s.ySave, s.yerrSave, s.ySeq, s.extrapWork, s.dfdy, s.dfdt,
		s.yTemp, s.deltaTemp, s.rhsTemp, s.delta, s.weight)
}

func (s *bsimp) Order() uint            { return s.order }
func (s *bsimp) Dim() int               { return s.dim }
func (s *bsimp) Name() string           { return "bsimp" }
func (s *bsimp) CanUseDydtIn() bool     { return true }
func (s *bsimp) SetDriver(d ode.Driver) {}
