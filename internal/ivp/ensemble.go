package ivp

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/odeiv/internal/ode"
)

// Run is one initial value problem of an ensemble.
type Run struct {
	Label string
	Sys   ode.System
	Y0    []float64
	T0    float64
	T1    float64
}

// Result is the outcome of one ensemble member.
type Result struct {
	Label  string
	T      float64
	Y      []float64
	Steps  uint64
	Failed uint64
}

// Ensemble integrates independent initial value problems concurrently,
// building a fresh driver per member so no state is shared between
// trajectories.
type Ensemble struct {
	newDriver func(ode.System) (*Driver, error)
	limit     int
}

// NewEnsemble builds an ensemble around a driver factory. limit bounds
// the number of concurrently running members; zero means no bound.
func NewEnsemble(newDriver func(ode.System) (*Driver, error), limit int) *Ensemble {
	return &Ensemble{newDriver: newDriver, limit: limit}
}

// Solve integrates every run to its target time. The first failing
// member cancels the rest of the ensemble at run boundaries; a member
// already integrating finishes its current step sequence.
func (e *Ensemble) Solve(ctx context.Context, runs []Run) ([]*Result, error) {
	results := make([]*Result, len(runs))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i, r := range runs {
		i, r := i, r // per-iteration copies; required under go < 1.22 loop semantics
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			label := r.Label
			if label == "" {
				label = fmt.Sprintf("run %d", i)
			}
			if len(r.Y0) != r.Sys.Dim {
				return fmt.Errorf("%w: %s: %d initial values for dimension %d",
					ode.ErrInvalidArg, label, len(r.Y0), r.Sys.Dim)
			}

			d, err := e.newDriver(r.Sys)
			if err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}

			y := append([]float64(nil), r.Y0...)
			t := r.T0
			if err := d.Apply(&t, r.T1, y); err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}

			results[i] = &Result{
				Label:  label,
				T:      t,
				Y:      y,
				Steps:  d.Count(),
				Failed: d.FailedSteps(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
