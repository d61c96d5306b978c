package analyzers

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/config"
)

const (
	// Reference is the squared auditory threshold pressure (2e-5 Pa)^2
	intensityReference = 4.0e-10
	// Reported for frames with no energy at all
	intensitySilenceDB = -300.0
)

// IntensityFrame is one short-time intensity value in dB
type IntensityFrame struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// IntensityContour is a short-time intensity track
type IntensityContour struct {
	Frames   []IntensityFrame `json:"frames"`
	TimeStep float64          `json:"time_step"`
}

// IntensityStats summarizes an intensity contour
type IntensityStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Values returns the dB values in time order
func (c *IntensityContour) Values() []float64 {
	out := make([]float64, len(c.Frames))
	for i, f := range c.Frames {
		out[i] = f.Value
	}
	return out
}

// Stats computes min, max and mean over all frames
func (c *IntensityContour) Stats() (IntensityStats, bool) {
	values := c.Values()
	if len(values) == 0 {
		return IntensityStats{}, false
	}
	return IntensityStats{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: stat.Mean(values, nil),
	}, true
}

// IntensityAnalyzer computes windowed mean-square energy in dB
type IntensityAnalyzer struct {
	config config.IntensityConfig
}

// NewIntensityAnalyzer creates a new intensity analyzer
func NewIntensityAnalyzer(cfg config.IntensityConfig) *IntensityAnalyzer {
	return &IntensityAnalyzer{config: cfg}
}

// Analyze computes the intensity contour of x
func (ia *IntensityAnalyzer) Analyze(ctx context.Context, x []float64, sampleRate int) (*IntensityContour, error) {
	if sampleRate <= 0 || ia.config.MinPitch <= 0 {
		return nil, common.NewAnalysisError("intensity", common.ErrCodeInvalidInput,
			fmt.Sprintf("invalid intensity parameters (sample rate %d, min pitch %.1f)", sampleRate, ia.config.MinPitch), nil)
	}
	if len(x) == 0 {
		return &IntensityContour{}, nil
	}

	sr := float64(sampleRate)
	timeStep := ia.config.TimeStep
	if timeStep <= 0 {
		timeStep = 0.8 / ia.config.MinPitch
	}

	// A Hann window spanning 6.4 periods has an effective duration of 3.2 periods
	windowLen := int(math.Round(6.4 / ia.config.MinPitch * sr))
	windowLen = max(1, min(windowLen, len(x)))
	hop := max(1, int(math.Round(timeStep*sr)))

	win := hannWindow(windowLen)
	var winSum float64
	for _, w := range win {
		winSum += w
	}

	contour := &IntensityContour{TimeStep: float64(hop) / sr}
	for start, i := 0, 0; start+windowLen <= len(x); start, i = start+hop, i+1 {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, common.NewAnalysisError("intensity", common.ErrCodeTimeout, "intensity analysis interrupted", err)
			}
		}

		raw := x[start : start+windowLen]
		var m float64
		if ia.config.SubtractMean {
			m = mean(raw)
		}

		var energy float64
		for j, v := range raw {
			d := v - m
			energy += win[j] * d * d
		}
		if winSum > 0 {
			energy /= winSum
		}

		value := intensitySilenceDB
		if energy > 0 {
			value = 10 * math.Log10(energy/intensityReference)
		}

		contour.Frames = append(contour.Frames, IntensityFrame{
			Time:  (float64(start) + float64(windowLen)/2) / sr,
			Value: value,
		})
	}

	return contour, nil
}
