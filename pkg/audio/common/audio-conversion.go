package common

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// PCMFormat names a raw little-endian sample encoding
type PCMFormat string

const (
	PCMFormatS16 PCMFormat = "s16le"
	PCMFormatS32 PCMFormat = "s32le"
	PCMFormatF32 PCMFormat = "f32le"
	PCMFormatU8  PCMFormat = "u8"
)

// ParsePCMFormat resolves a format name, accepting a few common aliases
func ParsePCMFormat(name string) (PCMFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "s16le", "s16", "pcm_s16le":
		return PCMFormatS16, nil
	case "s32le", "s32", "pcm_s32le":
		return PCMFormatS32, nil
	case "f32le", "f32", "float32", "pcm_f32le":
		return PCMFormatF32, nil
	case "u8", "pcm_u8":
		return PCMFormatU8, nil
	default:
		return "", NewAnalysisError("input", ErrCodeInvalidInput,
			fmt.Sprintf("unsupported PCM format %q", name), nil)
	}
}

// BytesPerSample returns the width of one sample
func (f PCMFormat) BytesPerSample() int {
	switch f {
	case PCMFormatS16:
		return 2
	case PCMFormatS32, PCMFormatF32:
		return 4
	case PCMFormatU8:
		return 1
	default:
		return 0
	}
}

// ConvertPCM converts a raw interleaved buffer into float64 samples in [-1, 1]
func ConvertPCM(buffer []byte, format PCMFormat) ([]float64, error) {
	if len(buffer) == 0 {
		return nil, NewAnalysisError("input", ErrCodeDecoding, "empty audio buffer", nil)
	}

	width := format.BytesPerSample()
	if width == 0 {
		return nil, NewAnalysisError("input", ErrCodeInvalidInput,
			fmt.Sprintf("unsupported PCM format %q", format), nil)
	}
	if len(buffer)%width != 0 {
		return nil, NewAnalysisErrorWithFields("input", ErrCodeDecoding,
			"buffer size not aligned to sample width", nil,
			map[string]any{"buffer_size": len(buffer), "sample_width": width})
	}

	sampleCount := len(buffer) / width
	samples := make([]float64, sampleCount)

	switch format {
	case PCMFormatS16:
		for i := range sampleCount {
			samples[i] = float64(int16(binary.LittleEndian.Uint16(buffer[i*2:]))) / 32768.0
		}
	case PCMFormatS32:
		for i := range sampleCount {
			samples[i] = float64(int32(binary.LittleEndian.Uint32(buffer[i*4:]))) / 2147483648.0
		}
	case PCMFormatF32:
		for i := range sampleCount {
			v := float64(math.Float32frombits(binary.LittleEndian.Uint32(buffer[i*4:])))
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, NewAnalysisErrorWithFields("input", ErrCodeDecoding,
					"non-finite float sample", nil, map[string]any{"index": i})
			}
			samples[i] = v
		}
	case PCMFormatU8:
		for i := range sampleCount {
			// 8-bit unsigned is centered at 128
			samples[i] = (float64(buffer[i]) - 128.0) / 128.0
		}
	}

	return samples, nil
}

// DecodePCM converts a raw buffer into a mono Sample
func DecodePCM(buffer []byte, format PCMFormat, sampleRate, channels int) (*Sample, error) {
	samples, err := ConvertPCM(buffer, format)
	if err != nil {
		return nil, err
	}
	if channels > 0 && len(samples)%channels != 0 {
		return nil, NewAnalysisErrorWithFields("input", ErrCodeDecoding,
			"sample count not divisible by channel count", nil,
			map[string]any{"samples": len(samples), "channels": channels})
	}
	return NewSample(samples, sampleRate, channels)
}
