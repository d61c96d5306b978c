package analyzers

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// nextPowerOfTwo returns the smallest power of two >= n
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// autocorrelate returns the linear (non-circular) autocorrelation of x for
// lags 0..len(x)-1, computed through a zero-padded FFT
func autocorrelate(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	size := nextPowerOfTwo(2 * n)
	padded := make([]float64, size)
	copy(padded, x)

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		m := cmplx.Abs(c)
		spectrum[i] = complex(m*m, 0)
	}

	inverse := fft.IFFT(spectrum)
	r := make([]float64, n)
	for i := range n {
		r[i] = real(inverse[i])
	}
	return r
}

// hannWindow returns a Hann window of length n
func hannWindow(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{1}
	}
	return window.Hann(n)
}

// hammingWindow returns a Hamming window of length n
func hammingWindow(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{1}
	}
	return window.Hamming(n)
}

// peakAbs returns the largest absolute amplitude in x
func peakAbs(x []float64) float64 {
	var peak float64
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// mean returns the arithmetic mean of x, 0 when empty
func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// parabolicPeak refines a discrete maximum at index i using its neighbours.
// It returns the fractional offset in [-0.5, 0.5] and the interpolated height.
func parabolicPeak(prev, center, next float64) (float64, float64) {
	denom := prev - 2*center + next
	if denom == 0 {
		return 0, center
	}
	offset := 0.5 * (prev - next) / denom
	if offset > 0.5 {
		offset = 0.5
	} else if offset < -0.5 {
		offset = -0.5
	}
	height := center - 0.25*(prev-next)*offset
	return offset, height
}

// sinc is the normalized cardinal sine
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// resample converts x from rate `from` to rate `to` with a Hann-windowed sinc
// kernel. Upsampling is not performed; the input is returned unchanged.
func resample(x []float64, from, to float64) []float64 {
	if to >= from || len(x) == 0 {
		out := make([]float64, len(x))
		copy(out, x)
		return out
	}

	ratio := from / to
	scale := to / from
	cutoff := 0.5 * scale * 0.95 // cycles per input sample
	half := int(math.Ceil(16 / scale))

	outLen := int(math.Floor(float64(len(x)) * scale))
	out := make([]float64, outLen)

	for m := range outLen {
		pos := float64(m) * ratio
		center := int(math.Floor(pos))

		var sum float64
		for k := center - half + 1; k <= center+half; k++ {
			if k < 0 || k >= len(x) {
				continue
			}
			u := pos - float64(k)
			w := 0.5 + 0.5*math.Cos(math.Pi*u/float64(half))
			sum += x[k] * 2 * cutoff * sinc(2*cutoff*u) * w
		}
		out[m] = sum
	}

	return out
}
