package analyzers

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/config"
	"github.com/RyanBlaney/speech-trainer/pkg/logging"
)

// PitchFrame is one pitch estimate; Frequency is 0 for unvoiced frames
type PitchFrame struct {
	Time      float64 `json:"time"`
	Frequency float64 `json:"frequency"`
	Strength  float64 `json:"strength"`
}

// Voiced reports whether the frame carries a pitch estimate
func (f PitchFrame) Voiced() bool {
	return f.Frequency > 0
}

// PitchContour is a pitch track over time
type PitchContour struct {
	Frames   []PitchFrame `json:"frames"`
	TimeStep float64      `json:"time_step"`
	Floor    float64      `json:"floor"`
	Ceiling  float64      `json:"ceiling"`
}

// PitchStats summarizes the voiced frames of a contour
type PitchStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Voiced int     `json:"voiced"`
}

// VoicedFrequencies returns the frequencies of voiced frames in time order
func (c *PitchContour) VoicedFrequencies() []float64 {
	var out []float64
	for _, f := range c.Frames {
		if f.Voiced() {
			out = append(out, f.Frequency)
		}
	}
	return out
}

// Stats computes min, max, mean and sample standard deviation over voiced frames
func (c *PitchContour) Stats() (PitchStats, bool) {
	voiced := c.VoicedFrequencies()
	if len(voiced) == 0 {
		return PitchStats{}, false
	}

	s := PitchStats{
		Min:    floats.Min(voiced),
		Max:    floats.Max(voiced),
		Mean:   stat.Mean(voiced, nil),
		Voiced: len(voiced),
	}
	if len(voiced) > 1 {
		s.StdDev = stat.StdDev(voiced, nil)
	}
	return s, true
}

// ValueAt returns the linearly interpolated pitch at time t. It is undefined
// when either neighbouring frame is unvoiced or t lies outside the contour.
func (c *PitchContour) ValueAt(t float64) (float64, bool) {
	n := len(c.Frames)
	if n == 0 || c.TimeStep <= 0 {
		return 0, false
	}

	first := c.Frames[0].Time
	last := c.Frames[n-1].Time
	if t < first-c.TimeStep/2 || t > last+c.TimeStep/2 {
		return 0, false
	}

	pos := (t - first) / c.TimeStep
	left := int(math.Floor(pos))
	if left < 0 {
		left = 0
	}
	if left >= n-1 {
		f := c.Frames[n-1]
		return f.Frequency, f.Voiced()
	}

	a, b := c.Frames[left], c.Frames[left+1]
	if !a.Voiced() && !b.Voiced() {
		return 0, false
	}
	// Near a voicing boundary fall back to the voiced neighbour
	if !a.Voiced() {
		if pos-float64(left) >= 0.5 {
			return b.Frequency, true
		}
		return 0, false
	}
	if !b.Voiced() {
		if pos-float64(left) < 0.5 {
			return a.Frequency, true
		}
		return 0, false
	}

	frac := pos - float64(left)
	return a.Frequency + frac*(b.Frequency-a.Frequency), true
}

// PitchAnalyzer estimates a pitch contour with windowed short-time
// autocorrelation normalized by the autocorrelation of the window
type PitchAnalyzer struct {
	config config.PitchConfig
	logger logging.Logger
}

// NewPitchAnalyzer creates a new pitch analyzer
func NewPitchAnalyzer(cfg config.PitchConfig) *PitchAnalyzer {
	return &PitchAnalyzer{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "pitch_analyzer",
		}),
	}
}

// Analyze tracks pitch between floor and ceiling Hz
func (pa *PitchAnalyzer) Analyze(ctx context.Context, x []float64, sampleRate int, floor, ceiling float64) (*PitchContour, error) {
	if sampleRate <= 0 {
		return nil, common.NewAnalysisError("pitch", common.ErrCodeInvalidInput,
			fmt.Sprintf("sample rate must be positive, got %d", sampleRate), nil)
	}
	if floor <= 0 || ceiling <= floor {
		return nil, common.NewAnalysisError("pitch", common.ErrCodeInvalidInput,
			fmt.Sprintf("invalid pitch range [%.2f, %.2f]", floor, ceiling), nil)
	}

	sr := float64(sampleRate)
	periods := pa.config.PeriodsPerWindow
	if periods <= 0 {
		periods = 3
	}
	timeStep := pa.config.TimeStep
	if timeStep <= 0 {
		timeStep = 0.75 / floor
	}

	windowLen := int(math.Round(periods / floor * sr))
	hop := max(1, int(math.Round(timeStep*sr)))

	contour := &PitchContour{
		TimeStep: float64(hop) / sr,
		Floor:    floor,
		Ceiling:  ceiling,
	}
	if windowLen < 4 || windowLen > len(x) {
		return contour, nil
	}

	minLag := max(2, int(math.Floor(sr/ceiling)))
	maxLag := min(windowLen-2, int(math.Ceil(sr/floor)))
	if minLag >= maxLag {
		return contour, nil
	}

	win := hannWindow(windowLen)
	winAC := autocorrelate(win)
	if winAC[0] <= 0 {
		return contour, nil
	}

	globalPeak := peakAbs(x)
	segment := make([]float64, windowLen)

	for start, i := 0, 0; start+windowLen <= len(x); start, i = start+hop, i+1 {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, common.NewAnalysisError("pitch", common.ErrCodeTimeout, "pitch analysis interrupted", err)
			}
		}

		frame := PitchFrame{Time: (float64(start) + float64(windowLen)/2) / sr}

		raw := x[start : start+windowLen]
		m := mean(raw)
		var localPeak float64
		for j, v := range raw {
			d := v - m
			if a := math.Abs(d); a > localPeak {
				localPeak = a
			}
			segment[j] = d * win[j]
		}

		if globalPeak > 0 && localPeak/globalPeak >= pa.config.SilenceThreshold {
			frame.Frequency, frame.Strength = pa.bestCandidate(segment, winAC, sr, floor, ceiling, minLag, maxLag)
		}

		contour.Frames = append(contour.Frames, frame)
	}

	pa.logger.Debug("Pitch analysis completed", logging.Fields{
		"frames":  len(contour.Frames),
		"floor":   floor,
		"ceiling": ceiling,
	})

	return contour, nil
}

// bestCandidate picks the strongest autocorrelation peak in the lag range
func (pa *PitchAnalyzer) bestCandidate(segment, winAC []float64, sr, floor, ceiling float64, minLag, maxLag int) (float64, float64) {
	ac := autocorrelate(segment)
	if ac[0] <= 0 {
		return 0, 0
	}

	norm := func(lag int) float64 {
		w := winAC[lag] / winAC[0]
		if w <= 1e-9 {
			return 0
		}
		return ac[lag] / ac[0] / w
	}

	bestStrength := math.Inf(-1)
	var bestLag, bestR float64

	prev := norm(minLag - 1)
	cur := norm(minLag)
	for lag := minLag; lag <= maxLag; lag++ {
		next := norm(lag + 1)
		if cur > prev && cur >= next {
			offset, height := parabolicPeak(prev, cur, next)
			trueLag := float64(lag) + offset
			if height > 1 {
				height = 1
			}
			strength := height - pa.config.OctaveCost*math.Log2(floor*trueLag/sr)
			if strength > bestStrength {
				bestStrength = strength
				bestLag = trueLag
				bestR = height
			}
		}
		prev, cur = cur, next
	}

	if bestLag <= 0 || bestR < pa.config.VoicingThreshold {
		return 0, 0
	}

	freq := sr / bestLag
	if freq < floor || freq > ceiling {
		return 0, 0
	}
	return freq, bestR
}
