// Package export renders stored runs into standalone documents.
package export

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/odeiv/internal/ivp"
	"github.com/san-kum/odeiv/internal/ode"
)

// Palette for up to six series on the dark background.
var seriesColors = []string{"#00ff00", "#00bfff", "#ff8c00", "#ff4f9a", "#ffe600", "#b080ff"}

const margin = 10.0

// TrajectorySVG renders state components against time as an SVG
// document. A nil components slice selects all of them.
func TrajectorySVG(traj *ivp.Trajectory, components []int, width, height int) (string, error) {
	components, err := selectComponents(traj, components)
	if err != nil {
		return "", err
	}
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 400
	}

	tMin := traj.T[0]
	tMax := traj.T[len(traj.T)-1]
	if tMax == tMin {
		tMax = tMin + 1
	}
	yMin, yMax := bounds(traj, components)

	sx := (float64(width) - 2*margin) / (tMax - tMin)
	sy := (float64(height) - 2*margin) / (yMax - yMin)

	var sb strings.Builder
	writeHeader(&sb, width, height)
	for i, c := range components {
		sb.WriteString(fmt.Sprintf(`<polyline fill="none" stroke="%s" stroke-width="1.5" points="`,
			seriesColors[i%len(seriesColors)]))
		for k := range traj.T {
			if k > 0 {
				sb.WriteByte(' ')
			}
			x := margin + (traj.T[k]-tMin)*sx
			y := float64(height) - margin - (traj.Y[k][c]-yMin)*sy
			fmt.Fprintf(&sb, "%.2f,%.2f", x, y)
		}
		sb.WriteString("\"/>\n")
	}
	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

// PhaseSVG renders one state component against another.
func PhaseSVG(traj *ivp.Trajectory, xc, yc, width, height int) (string, error) {
	if _, err := selectComponents(traj, []int{xc, yc}); err != nil {
		return "", err
	}
	if width <= 0 {
		width = 600
	}
	if height <= 0 {
		height = 600
	}

	xMin, xMax := bounds(traj, []int{xc})
	yMin, yMax := bounds(traj, []int{yc})

	sx := (float64(width) - 2*margin) / (xMax - xMin)
	sy := (float64(height) - 2*margin) / (yMax - yMin)

	var sb strings.Builder
	writeHeader(&sb, width, height)
	sb.WriteString(fmt.Sprintf(`<polyline fill="none" stroke="%s" stroke-width="1" points="`, seriesColors[0]))
	for k := range traj.T {
		if k > 0 {
			sb.WriteByte(' ')
		}
		x := margin + (traj.Y[k][xc]-xMin)*sx
		y := float64(height) - margin - (traj.Y[k][yc]-yMin)*sy
		fmt.Fprintf(&sb, "%.2f,%.2f", x, y)
	}
	sb.WriteString("\"/>\n</svg>\n")
	return sb.String(), nil
}

// WriteFile writes a rendered document to path.
func WriteFile(path, doc string) error {
	return os.WriteFile(path, []byte(doc), 0644)
}

func selectComponents(traj *ivp.Trajectory, components []int) ([]int, error) {
	if len(traj.T) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples", ode.ErrInvalidArg)
	}
	if components == nil {
		components = make([]int, traj.Dim())
		for i := range components {
			components[i] = i
		}
	}
	for _, c := range components {
		if c < 0 || c >= traj.Dim() {
			return nil, fmt.Errorf("%w: component %d of %d", ode.ErrInvalidArg, c, traj.Dim())
		}
	}
	return components, nil
}

func bounds(traj *ivp.Trajectory, components []int) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range traj.Y {
		for _, c := range components {
			lo = math.Min(lo, row[c])
			hi = math.Max(hi, row[c])
		}
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

func writeHeader(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}
