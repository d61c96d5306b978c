package common

import (
	"fmt"
	"math"
	"time"
)

// Sample is a mono recording held in memory for one analysis
type Sample struct {
	Data       []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
}

// NewSample builds a mono sample from interleaved PCM, averaging channels
func NewSample(interleaved []float64, sampleRate, channels int) (*Sample, error) {
	if sampleRate <= 0 {
		return nil, NewAnalysisError("input", ErrCodeInvalidInput,
			fmt.Sprintf("sample rate must be positive, got %d", sampleRate), nil)
	}
	if channels <= 0 {
		return nil, NewAnalysisError("input", ErrCodeInvalidInput,
			fmt.Sprintf("channel count must be positive, got %d", channels), nil)
	}

	frames := len(interleaved) / channels
	data := make([]float64, frames)
	if channels == 1 {
		copy(data, interleaved[:frames])
	} else {
		for i := range frames {
			var sum float64
			for c := range channels {
				sum += interleaved[i*channels+c]
			}
			data[i] = sum / float64(channels)
		}
	}

	return &Sample{Data: data, SampleRate: sampleRate}, nil
}

// Validate checks the sample is usable for analysis
func (s *Sample) Validate() error {
	if s == nil || len(s.Data) == 0 {
		return NewAnalysisError("input", ErrCodeInvalidInput, "empty audio sample", nil)
	}
	if s.SampleRate <= 0 {
		return NewAnalysisError("input", ErrCodeInvalidInput,
			fmt.Sprintf("sample rate must be positive, got %d", s.SampleRate), nil)
	}
	for i, v := range s.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewAnalysisErrorWithFields("input", ErrCodeInvalidInput,
				"audio sample contains non-finite values", nil, map[string]any{"index": i})
		}
	}
	return nil
}

// Duration returns the length of the sample
func (s *Sample) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Data)) / float64(s.SampleRate) * float64(time.Second))
}

// Seconds returns the length of the sample in seconds
func (s *Sample) Seconds() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Data)) / float64(s.SampleRate)
}
