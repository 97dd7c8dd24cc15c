package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/odeiv/internal/ivp"
	"github.com/san-kum/odeiv/internal/ode"
)

// PlotComponent draws one state component of a trajectory.
func PlotComponent(traj *ivp.Trajectory, component, width, height int, caption string) (string, error) {
	if component < 0 || component >= traj.Dim() {
		return "", fmt.Errorf("%w: component %d of %d", ode.ErrInvalidArg, component, traj.Dim())
	}
	series := make([]float64, len(traj.Y))
	for k, y := range traj.Y {
		series[k] = y[component]
	}
	return asciigraph.Plot(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}

// PlotComponents draws several components of a trajectory in one
// chart.
func PlotComponents(traj *ivp.Trajectory, components []int, width, height int, caption string) (string, error) {
	if len(components) == 0 {
		return "", fmt.Errorf("%w: no components selected", ode.ErrInvalidArg)
	}
	series := make([][]float64, len(components))
	for i, c := range components {
		if c < 0 || c >= traj.Dim() {
			return "", fmt.Errorf("%w: component %d of %d", ode.ErrInvalidArg, c, traj.Dim())
		}
		series[i] = make([]float64, len(traj.Y))
		for k, y := range traj.Y {
			series[i][k] = y[c]
		}
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}

// PlotSeries draws a bare value series, for spectra and sweep results.
func PlotSeries(values []float64, width, height int, caption string) string {
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
