package analyzers

import (
	"context"
	"math"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/config"
)

// PointProcess holds the times of detected glottal pulses, in seconds
type PointProcess struct {
	Times []float64 `json:"times"`
}

// Len returns the number of points
func (pp *PointProcess) Len() int {
	return len(pp.Times)
}

// JitterLocal returns the mean absolute difference between consecutive
// periods divided by the mean period. Periods outside the configured bounds,
// and period pairs whose ratio exceeds the max period factor, are skipped.
func (pp *PointProcess) JitterLocal(cfg config.JitterConfig) (float64, bool) {
	if len(pp.Times) < 3 {
		return 0, false
	}

	valid := func(p float64) bool {
		return p >= cfg.ShortestPeriod && p <= cfg.LongestPeriod
	}

	periods := make([]float64, len(pp.Times)-1)
	for i := 1; i < len(pp.Times); i++ {
		periods[i-1] = pp.Times[i] - pp.Times[i-1]
	}

	var periodSum float64
	var periodCount int
	for _, p := range periods {
		if valid(p) {
			periodSum += p
			periodCount++
		}
	}

	var diffSum float64
	var diffCount int
	for i := 1; i < len(periods); i++ {
		p1, p2 := periods[i-1], periods[i]
		if !valid(p1) || !valid(p2) {
			continue
		}
		if cfg.MaxPeriodFactor > 0 && math.Max(p1, p2)/math.Min(p1, p2) > cfg.MaxPeriodFactor {
			continue
		}
		diffSum += math.Abs(p2 - p1)
		diffCount++
	}

	if periodCount == 0 || diffCount == 0 || periodSum == 0 {
		return 0, false
	}

	return (diffSum / float64(diffCount)) / (periodSum / float64(periodCount)), true
}

// voicedInterval is a stretch of consecutive voiced pitch frames
type voicedInterval struct {
	start, end float64
}

func voicedIntervals(c *PitchContour, duration float64) []voicedInterval {
	var out []voicedInterval
	half := c.TimeStep / 2

	inRun := false
	var cur voicedInterval
	for _, f := range c.Frames {
		if f.Voiced() {
			if !inRun {
				cur = voicedInterval{start: math.Max(0, f.Time-half)}
				inRun = true
			}
			cur.end = math.Min(duration, f.Time+half)
			continue
		}
		if inRun {
			out = append(out, cur)
			inRun = false
		}
	}
	if inRun {
		out = append(out, cur)
	}
	return out
}

// PointProcessor places periodic pulses on waveform maxima guided by a pitch contour
type PointProcessor struct{}

// NewPointProcessor creates a new point processor
func NewPointProcessor() *PointProcessor {
	return &PointProcessor{}
}

// Build places one point per glottal cycle inside every voiced interval
func (p *PointProcessor) Build(ctx context.Context, x []float64, sampleRate int, contour *PitchContour) (*PointProcess, error) {
	pp := &PointProcess{}
	if sampleRate <= 0 || contour == nil || len(x) == 0 {
		return pp, nil
	}

	sr := float64(sampleRate)
	duration := float64(len(x)) / sr

	for _, iv := range voicedIntervals(contour, duration) {
		if err := ctx.Err(); err != nil {
			return nil, common.NewAnalysisError("point_process", common.ErrCodeTimeout, "point process interrupted", err)
		}

		f0, ok := nearestVoiced(contour, iv.start)
		if !ok {
			continue
		}

		// First pulse: waveform maximum within the first period
		t := maxWithin(x, sr, iv.start, math.Min(iv.end, iv.start+1/f0))
		if t < 0 {
			continue
		}
		pp.Times = append(pp.Times, t)

		for {
			f, ok := contour.ValueAt(t)
			if !ok {
				f, ok = nearestVoiced(contour, t)
				if !ok {
					break
				}
			}
			period := 1 / f
			expected := t + period
			if expected > iv.end {
				break
			}

			next := maxWithin(x, sr, expected-0.2*period, math.Min(iv.end, expected+0.2*period))
			if next < 0 || next <= t+0.5*period {
				next = expected
			}
			pp.Times = append(pp.Times, next)
			t = next
		}
	}

	return pp, nil
}

// nearestVoiced returns the frequency of the voiced frame closest to t
func nearestVoiced(c *PitchContour, t float64) (float64, bool) {
	best := math.Inf(1)
	var freq float64
	for _, f := range c.Frames {
		if !f.Voiced() {
			continue
		}
		if d := math.Abs(f.Time - t); d < best {
			best = d
			freq = f.Frequency
		}
	}
	return freq, freq > 0
}

// maxWithin returns the time of the largest sample in [from, to], or -1
func maxWithin(x []float64, sr, from, to float64) float64 {
	i0 := max(0, int(math.Ceil(from*sr)))
	i1 := min(len(x)-1, int(math.Floor(to*sr)))
	if i1 < i0 {
		return -1
	}

	best := i0
	for i := i0 + 1; i <= i1; i++ {
		if x[i] > x[best] {
			best = i
		}
	}

	pos := float64(best)
	if best > 0 && best < len(x)-1 {
		offset, _ := parabolicPeak(x[best-1], x[best], x[best+1])
		pos += offset
	}
	return pos / sr
}
