package common

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisErrorMatchesSentinels(t *testing.T) {
	err := NewAnalysisError("pitch", ErrCodeInsufficientSignal, "no voiced frames", nil)
	wrapped := fmt.Errorf("extract: %w", err)

	assert.True(t, errors.Is(wrapped, ErrInsufficientSignal))
	assert.False(t, errors.Is(wrapped, ErrSchemaMismatch))
	assert.Equal(t, ErrCodeInsufficientSignal, CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

func TestAnalysisErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("bad header")
	err := NewAnalysisError("input", ErrCodeDecoding, "failed to decode", cause)

	assert.Equal(t, "failed to decode: bad header", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestNewSampleDownmixesChannels(t *testing.T) {
	s, err := NewSample([]float64{1, 0, 0.5, 0.5, -1, 1}, 8000, 2)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.5, 0.5, 0}, s.Data)
	assert.Equal(t, 8000, s.SampleRate)
	assert.InDelta(t, 3.0/8000.0, s.Seconds(), 1e-12)
}

func TestSampleValidate(t *testing.T) {
	tests := []struct {
		name    string
		sample  *Sample
		wantErr bool
	}{
		{"valid", &Sample{Data: []float64{0.1, -0.1}, SampleRate: 16000}, false},
		{"nil", nil, true},
		{"empty", &Sample{SampleRate: 16000}, true},
		{"zero rate", &Sample{Data: []float64{0.1}}, true},
		{"nan", &Sample{Data: []float64{math.NaN()}, SampleRate: 16000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.Validate()
			if tt.wantErr {
				assert.Equal(t, ErrCodeInvalidInput, CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConvertPCM(t *testing.T) {
	s16 := make([]byte, 4)
	binary.LittleEndian.PutUint16(s16[0:], uint16(int16(16384)))
	minS16 := int16(-32768)
	binary.LittleEndian.PutUint16(s16[2:], uint16(minS16))

	f32 := make([]byte, 8)
	binary.LittleEndian.PutUint32(f32[0:], math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(f32[4:], math.Float32bits(-0.5))

	tests := []struct {
		name   string
		buffer []byte
		format PCMFormat
		want   []float64
	}{
		{"s16", s16, PCMFormatS16, []float64{0.5, -1}},
		{"f32", f32, PCMFormatF32, []float64{0.25, -0.5}},
		{"u8", []byte{128, 0, 192}, PCMFormatU8, []float64{0, -1, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertPCM(tt.buffer, tt.format)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-9)
		})
	}
}

func TestConvertPCMRejectsMisalignedBuffer(t *testing.T) {
	_, err := ConvertPCM([]byte{1, 2, 3}, PCMFormatS16)
	require.Error(t, err)
	assert.Equal(t, ErrCodeDecoding, CodeOf(err))
}

func TestParsePCMFormat(t *testing.T) {
	f, err := ParsePCMFormat("PCM_S16LE")
	require.NoError(t, err)
	assert.Equal(t, PCMFormatS16, f)

	_, err = ParsePCMFormat("mp3")
	assert.Error(t, err)
}
