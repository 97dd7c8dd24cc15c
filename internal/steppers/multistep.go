package steppers

import (
	"fmt"
	"math"

	"github.com/san-kum/odeiv/internal/ode"
)

const (
	adamsMaxOrder = 12
	bdfMaxOrder   = 5

	// corrector iteration limits
	corrMaxIter = 3
	corrTol     = 0.1
	corrDiverge = 2.0

	// consecutive corrector failures before the method restarts at
	// order one
	msMaxFail = 3
)

// msVars are the scalar parts of the multistep state that a rejected
// step must roll back.
type msVars struct {
	q       int     // current order
	qwait   int     // steps until the next order evaluation
	hscale  float64 // step size the Nordsieck array is scaled for
	tState  float64 // time the Nordsieck array corresponds to
	dsmPrev float64 // error measure of the last step at its order
	tq1     float64 // error coefficient one order down, from last step
	tq3     float64 // error coefficient one order up, from last step
	diffOK  bool    // diffPrev holds a usable correction difference
	prevQ   int     // order of the last committed step
}

// msCore is the Nordsieck state shared by the Adams and BDF steppers.
// Column j of z holds (h^j/j!) y^(j). A snapshot of the state is taken
// at every step start so a step the controller rejects can be retried
// from the same history.
type msCore struct {
	msVars
	dim      int
	qmax     int
	started  bool
	failures int
	driver   ode.Driver

	z        [][]float64 // qmax+1 columns
	tau      []float64   // recent step sizes, tau[1] newest
	l        []float64   // corrector coefficients, l[0] = 1
	errlev   []float64
	ypred    []float64
	z1pred   []float64
	acor     []float64
	acorPrev []float64
	diffPrev []float64

	snap struct {
		msVars
		valid    bool
		tStart   float64
		z        [][]float64
		tau      []float64
		acorPrev []float64
		diffPrev []float64
	}
}

func newMSCore(dim, qmax int) *msCore {
	c := &msCore{
		dim:      dim,
		qmax:     qmax,
		z:        make([][]float64, qmax+1),
		tau:      make([]float64, qmax+2),
		l:        make([]float64, qmax+1),
		errlev:   make([]float64, dim),
		ypred:    make([]float64, dim),
		z1pred:   make([]float64, dim),
		acor:     make([]float64, dim),
		acorPrev: make([]float64, dim),
		diffPrev: make([]float64, dim),
	}
	for j := range c.z {
		c.z[j] = make([]float64, dim)
	}
	c.snap.z = make([][]float64, qmax+1)
	for j := range c.snap.z {
		c.snap.z[j] = make([]float64, dim)
	}
	c.snap.tau = make([]float64, qmax+2)
	c.snap.acorPrev = make([]float64, dim)
	c.snap.diffPrev = make([]float64, dim)
	c.q = 1
	c.qwait = 2
	return c
}

// begin prepares the state for a step from t with size h. It restores
// the snapshot when the controller rejected the previous attempt at
// this t, restarts the method from scratch when the caller moved
// elsewhere, and refreshes the error levels.
func (c *msCore) begin(t, h float64, y, dydtIn []float64, sys ode.System) error {
	switch {
	case c.started && t == c.tState:
		// continuing from the last committed step
	case c.started && c.snap.valid && t == c.snap.tStart:
		c.restore()
	default:
		if err := c.start(t, h, y, dydtIn, sys); err != nil {
			return err
		}
	}

	for i := 0; i < c.dim; i++ {
		d, err := c.driver.ErrLevel(y[i], 0.0, h, i)
		if err != nil {
			return err
		}
		c.errlev[i] = d
	}

	c.save(t)

	if h != c.hscale {
		c.rescale(h)
	}
	return nil
}

// start initializes the Nordsieck array at order one from the current
// point.
func (c *msCore) start(t, h float64, y, dydtIn []float64, sys ode.System) error {
	c.started = false
	copy(c.z[0], y)
	if dydtIn != nil {
		copy(c.z[1], dydtIn)
	} else if err := sys.Eval(t, y, c.z[1]); err != nil {
		return err
	}
	for i := 0; i < c.dim; i++ {
		c.z[1][i] *= h
	}
	for j := 2; j <= c.qmax; j++ {
		zero(c.z[j])
	}
	for i := range c.tau {
		c.tau[i] = 0
	}
	c.q = 1
	c.qwait = 2
	c.hscale = h
	c.tState = t
	c.dsmPrev = 0
	c.tq1, c.tq3 = 1, 1
	c.diffOK = false
	c.prevQ = 0
	c.started = true
	c.failures = 0
	return nil
}

func (c *msCore) save(t float64) {
	c.snap.msVars = c.msVars
	c.snap.tStart = t
	c.snap.valid = true
	for j := range c.z {
		copy(c.snap.z[j], c.z[j])
	}
	copy(c.snap.tau, c.tau)
	copy(c.snap.acorPrev, c.acorPrev)
	copy(c.snap.diffPrev, c.diffPrev)
}

func (c *msCore) restore() {
	c.msVars = c.snap.msVars
	for j := range c.z {
		copy(c.z[j], c.snap.z[j])
	}
	copy(c.tau, c.snap.tau)
	copy(c.acorPrev, c.snap.acorPrev)
	copy(c.diffPrev, c.snap.diffPrev)
}

// rescale adjusts the Nordsieck columns from step size hscale to h.
func (c *msCore) rescale(h float64) {
	r := h / c.hscale
	f := r
	for j := 1; j <= c.q; j++ {
		col := c.z[j]
		for i := range col {
			col[i] *= f
		}
		f *= r
	}
	c.hscale = h
}

// wrms is the root mean square of v weighted by the error levels.
func (c *msCore) wrms(v []float64) float64 {
	var s float64
	for i, x := range v {
		r := x / c.errlev[i]
		s += r * r
	}
	return math.Sqrt(s / float64(c.dim))
}

// evalOrder reconsiders the order once the wait counter expires,
// comparing the error measures of the current order against one lower
// and one higher.
func (c *msCore) evalOrder() {
	if c.qwait > 0 {
		return
	}
	const tiny = 1e-6

	eff := func(e float64, ord, bias int) float64 {
		return 1.0 / (math.Pow(float64(bias)*e, 1.0/float64(ord+1)) + tiny)
	}

	cur := eff(c.dsmPrev, c.q, 6)
	best, bestq := cur, c.q

	if c.q > 1 {
		down := eff(c.tq1*c.wrms(c.z[c.q]), c.q-1, 6)
		if down > best {
			best, bestq = down, c.q-1
		}
	}
	if c.q < c.qmax && c.diffOK {
		up := eff(c.tq3*c.wrms(c.diffPrev), c.q+1, 10)
		if up > best {
			best, bestq = up, c.q+1
		}
	}

	if bestq == c.q {
		c.qwait = 2
		return
	}
	if bestq > c.q {
		zero(c.z[bestq])
	} else {
		zero(c.z[c.q])
	}
	c.q = bestq
	c.qwait = c.q + 1
	c.diffOK = false
}

// predict advances the Nordsieck array to the next abscissa by the
// Pascal triangle shift, keeping the predicted solution and scaled
// derivative for the corrector.
func (c *msCore) predict() {
	for k := 1; k <= c.q; k++ {
		for j := c.q; j >= k; j-- {
			dst, src := c.z[j-1], c.z[j]
			for i := range dst {
				dst[i] += src[i]
			}
		}
	}
	copy(c.ypred, c.z[0])
	copy(c.z1pred, c.z[1])
}

// fail rolls the state back to the step start. Too many failures in a
// row force a restart on the next call.
func (c *msCore) fail() {
	c.restore()
	c.failures++
	if c.failures >= msMaxFail {
		c.started = false
	}
}

// complete folds the converged correction into the Nordsieck array and
// commits the step bookkeeping.
func (c *msCore) complete(t, h, tq1, tq2, tq3 float64) {
	for j := 0; j <= c.q; j++ {
		lj := c.l[j]
		col := c.z[j]
		for i := range col {
			col[i] += lj * c.acor[i]
		}
	}

	if c.prevQ == c.q {
		for i := range c.diffPrev {
			c.diffPrev[i] = c.acor[i] - c.acorPrev[i]
		}
		c.diffOK = true
	} else {
		c.diffOK = false
	}
	copy(c.acorPrev, c.acor)
	c.prevQ = c.q

	for i := c.qmax + 1; i >= 2; i-- {
		c.tau[i] = c.tau[i-1]
	}
	c.tau[1] = h

	c.tState = t + h
	c.hscale = h
	c.qwait--
	c.failures = 0
	c.dsmPrev = tq2 * c.wrms(c.acor)
	c.tq1, c.tq3 = tq1, tq3
}

// reset drops all history.
func (c *msCore) reset() {
	c.started = false
	c.snap.valid = false
	c.failures = 0
	c.msVars = msVars{q: 1, qwait: 2}
	for j := range c.z {
		zero(c.z[j])
	}
	zero(c.tau, c.l, c.errlev, c.ypred, c.z1pred, c.acor, c.acorPrev, c.diffPrev)
}

// altSum computes sum (-1)^i a_i/(i+k) for i = 0..iend.
func altSum(iend int, a []float64, k int) float64 {
	if iend < 0 {
		return -1.0
	}
	sum, sign := 0.0, 1.0
	for i := 0; i <= iend; i++ {
		sum += sign * a[i] / float64(i+k)
		sign = -sign
	}
	return sum
}

// noDriverErr names the stepper that was applied without a driver.
func noDriverErr(name string) error {
	return fmt.Errorf("%w: %s has no error tolerances to iterate against", ode.ErrNoDriver, name)
}
