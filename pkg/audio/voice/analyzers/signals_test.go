package analyzers

import (
	"math"
	"math/rand/v2"
)

func sineWave(freq, amp float64, sampleRate int, seconds float64) []float64 {
	n := int(seconds * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func whiteNoise(amp float64, n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * (2*rng.Float64() - 1)
	}
	return out
}

// synthVowel drives a cascade of two-pole resonators with a pulse train
func synthVowel(f0 float64, sampleRate int, seconds float64, formants, bandwidths []float64) []float64 {
	sr := float64(sampleRate)
	n := int(seconds * sr)
	signal := make([]float64, n)

	period := sr / f0
	for next := 0.0; int(next) < n; next += period {
		signal[int(next)] = 1
	}

	for k, f := range formants {
		r := math.Exp(-math.Pi * bandwidths[k] / sr)
		a1 := 2 * r * math.Cos(2*math.Pi*f/sr)
		a2 := -r * r
		out := make([]float64, n)
		for i := range n {
			v := signal[i]
			if i >= 1 {
				v += a1 * out[i-1]
			}
			if i >= 2 {
				v += a2 * out[i-2]
			}
			out[i] = v
		}
		signal = out
	}

	peak := peakAbs(signal)
	for i := range signal {
		signal[i] = 0.5 * signal[i] / peak
	}
	return signal
}
