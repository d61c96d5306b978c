package analyzers

import (
	"context"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-sonar/algorithms/tonal"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/config"
)

const (
	// Value given to frames without periodicity
	harmonicityUnvoicedDB = -200.0
	// Correlations are clipped below 1 so the ratio stays finite (60 dB)
	maxHarmonicCorrelation = 1 - 1e-6
)

// HarmonicityContour is a harmonics-to-noise ratio track in dB
type HarmonicityContour struct {
	Values   []float64 `json:"values"`
	TimeStep float64   `json:"time_step"`
}

// Mean averages the voiced frames, returning false when none are voiced
func (c *HarmonicityContour) Mean() (float64, bool) {
	var sum float64
	var n int
	for _, v := range c.Values {
		if v > harmonicityUnvoicedDB {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// HarmonicityAnalyzer measures periodicity with normalized cross-correlation
// between a segment and its lagged copy
type HarmonicityAnalyzer struct {
	config config.HarmonicityConfig
}

// NewHarmonicityAnalyzer creates a new harmonicity analyzer
func NewHarmonicityAnalyzer(cfg config.HarmonicityConfig) *HarmonicityAnalyzer {
	return &HarmonicityAnalyzer{config: cfg}
}

// Analyze computes the HNR contour using minPitch as the longest period searched
func (ha *HarmonicityAnalyzer) Analyze(ctx context.Context, x []float64, sampleRate int, minPitch float64) (*HarmonicityContour, error) {
	if sampleRate <= 0 || minPitch <= 0 || ha.config.TimeStep <= 0 {
		return nil, common.NewAnalysisError("harmonicity", common.ErrCodeInvalidInput,
			fmt.Sprintf("invalid harmonicity parameters (sample rate %d, min pitch %.2f)", sampleRate, minPitch), nil)
	}

	sr := float64(sampleRate)
	periods := ha.config.PeriodsPerWindow
	if periods <= 0 {
		periods = 1
	}

	maxLag := int(math.Ceil(sr / minPitch))
	windowLen := max(maxLag, int(math.Round(periods/minPitch*sr)))
	span := windowLen + maxLag + 1
	hop := max(1, int(math.Round(ha.config.TimeStep*sr)))

	contour := &HarmonicityContour{TimeStep: float64(hop) / sr}
	if span > len(x) || maxLag < 4 {
		return contour, nil
	}

	// Prefix sums of squares for the lagged-segment energies
	prefix := make([]float64, len(x)+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v*v
	}
	energy := func(from, n int) float64 {
		return prefix[from+n] - prefix[from]
	}

	globalPeak := peakAbs(x)
	r := make([]float64, maxLag+2)

	for start, i := 0, 0; start+span <= len(x); start, i = start+hop, i+1 {
		if i%32 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, common.NewAnalysisError("harmonicity", common.ErrCodeTimeout, "harmonicity analysis interrupted", err)
			}
		}

		value := harmonicityUnvoicedDB
		if globalPeak > 0 && peakAbs(x[start:start+span])/globalPeak >= ha.config.SilenceThreshold {
			e0 := energy(start, windowLen)
			if e0 > 0 {
				for lag := 1; lag <= maxLag+1; lag++ {
					el := energy(start+lag, windowLen)
					if el <= 0 {
						r[lag] = 0
						continue
					}
					var dot float64
					for j := start; j < start+windowLen; j++ {
						dot += x[j] * x[j+lag]
					}
					r[lag] = dot / math.Sqrt(e0*el)
				}
				value = bestHarmonicity(r, maxLag)
			}
		}

		contour.Values = append(contour.Values, value)
	}

	return contour, nil
}

// bestHarmonicity converts the highest local correlation maximum into dB
func bestHarmonicity(r []float64, maxLag int) float64 {
	best := 0.0
	for lag := 2; lag <= maxLag; lag++ {
		if r[lag] > r[lag-1] && r[lag] >= r[lag+1] {
			_, height := parabolicPeak(r[lag-1], r[lag], r[lag+1])
			if height > best {
				best = height
			}
		}
	}
	if best <= 0 {
		return harmonicityUnvoicedDB
	}
	if best > maxHarmonicCorrelation {
		best = maxHarmonicCorrelation
	}
	return 10 * math.Log10(best/(1-best))
}

// SpectralHarmonicRatio averages the spectral harmonics-to-noise ratio over
// consecutive analysis frames. It returns false when the signal is shorter
// than one frame.
func SpectralHarmonicRatio(x []float64, sampleRate int) (float64, bool, error) {
	analyzer := tonal.NewHarmonicRatioAnalyzer(sampleRate)
	params := analyzer.GetParameters()
	size, hop := params.WindowSize, params.HopSize
	if size <= 0 || hop <= 0 || len(x) < size {
		return 0, false, nil
	}

	var frames [][]float64
	for start := 0; start+size <= len(x); start += hop {
		frames = append(frames, x[start:start+size])
	}

	results, err := analyzer.AnalyzeSequence(frames)
	if err != nil {
		return 0, false, common.NewAnalysisError("harmonicity", common.ErrCodeNumericDegeneracy,
			"spectral harmonic ratio failed", err)
	}

	avg := analyzer.GetAverageHarmonicRatio(results)
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0, false, nil
	}
	return avg, true, nil
}
