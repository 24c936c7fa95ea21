// Package analysis extracts frequency content from trajectory series,
// chiefly the observed moon orbital period from the moon-planet
// separation signal.
package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform by radix-2
// decimation. Input length must be a power of two; Spectrum handles
// truncation for callers.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// Spectrum returns the one-sided power spectrum of a series. The mean
// is removed first and the series is truncated to the largest power of
// two, so bin 0 carries no DC spike.
func Spectrum(data []float64) []float64 {
	n := largestPow2(len(data))
	if n < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range data[:n] {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i := range centered {
		centered[i] = data[i] - mean
	}

	fft := FFT(centered)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

// DominantPeriod estimates the strongest periodicity of a series
// sampled at interval dt. Returns 0 when the series is too short or
// has no oscillatory content.
func DominantPeriod(data []float64, dt float64) float64 {
	ps := Spectrum(data)
	if len(ps) < 2 {
		return 0
	}

	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	if ps[best] == 0 {
		return 0
	}

	n := largestPow2(len(data))
	return float64(n) * dt / float64(best)
}

func largestPow2(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}
