package analysis

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/odeiv/internal/ivp"
	"github.com/san-kum/odeiv/internal/ode"
)

// Sample integrates y across uniform intervals of dt and returns the
// n recorded values of component c, starting with the value at t0. The
// driver lands on every sample time exactly, so the series has no
// interpolation error.
func Sample(d *ivp.Driver, y []float64, t0, dt float64, n, c int) ([]float64, error) {
	if n < 2 || dt == 0 {
		return nil, fmt.Errorf("%w: need n >= 2 samples and dt != 0", ode.ErrInvalidArg)
	}
	if c < 0 || c >= len(y) {
		return nil, fmt.Errorf("%w: component %d of %d", ode.ErrInvalidArg, c, len(y))
	}
	series := make([]float64, n)
	series[0] = y[c]
	t := t0
	for k := 1; k < n; k++ {
		if err := d.Apply(&t, t0+float64(k)*dt, y); err != nil {
			return nil, fmt.Errorf("sample %d: %w", k, err)
		}
		series[k] = y[c]
	}
	return series, nil
}

// PowerSpectrum returns the one-sided amplitude spectrum of the series
// with the mean removed. Bin k of the result corresponds to frequency
// k/(len(series)*dt) cycles per time unit.
func PowerSpectrum(series []float64) []float64 {
	n := len(series)
	if n < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range series {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	amp := make([]float64, n/2)
	for k := range amp {
		amp[k] = 2 * cmplx.Abs(spectrum[k]) / float64(n)
	}
	return amp
}

// Peak returns the frequency of the strongest non-constant spectral
// line, in cycles per time unit, for a spectrum computed from samples
// dt apart.
func Peak(amp []float64, dt float64) float64 {
	if len(amp) < 2 || dt == 0 {
		return 0
	}
	n := 2 * len(amp)
	best := 1
	for k := 2; k < len(amp); k++ {
		if amp[k] > amp[best] {
			best = k
		}
	}
	return float64(best) / (float64(n) * dt)
}
