// ABOUTME: Windowed-sinc FIR filter design
// ABOUTME: Kaiser window, Bessel I0 and low-pass coefficient generation
package resample

import "math"

// kaiserBeta is the Kaiser window shape parameter. 6.0 trades main-lobe
// width against roughly 65 dB of side-lobe suppression, enough for the
// default 32-tap kernel.
const kaiserBeta = 6.0

// besselI0 evaluates the zeroth-order modified Bessel function of the first
// kind using its power series. Converges quickly for the argument range the
// Kaiser window produces (|x| <= beta).
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	half := x / 2
	for k := 1; k <= 40; k++ {
		r := half / float64(k)
		term *= r * r
		sum += term
		if term < sum*1e-15 {
			break
		}
	}
	return sum
}

// kaiser returns the Kaiser window value at normalized position x in [-1, 1].
// Positions outside the window are zero.
func kaiser(x, beta float64) float64 {
	if x < -1 || x > 1 {
		return 0
	}
	return besselI0(beta*math.Sqrt(1-x*x)) / besselI0(beta)
}

// sinc is the unnormalized cardinal sine sin(x)/x.
func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}
	return math.Sin(x) / x
}

// designLowpass builds a windowed-sinc low-pass filter with the given tap
// count and cutoff (1.0 = Nyquist of the rate the filter runs at). The tap
// at index i is sinc(cutoff*pi*x)*kaiser(x) with x = i - taps/2, and the
// result is normalized so the coefficients sum to 1 (unity DC gain).
func designLowpass(taps int, cutoff float64) []float64 {
	h := make([]float64, taps)
	center := float64(taps) / 2
	sum := 0.0
	for i := range h {
		x := float64(i) - center
		h[i] = sinc(math.Pi*cutoff*x) * kaiser(x/center, kaiserBeta)
		sum += h[i]
	}
	for i := range h {
		h[i] /= sum
	}
	return h
}
