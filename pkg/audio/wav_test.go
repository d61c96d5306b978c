package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
)

func TestWAVRoundTrip(t *testing.T) {
	sr := 16000
	data := make([]float64, sr/4)
	for i := range data {
		data[i] = 0.5 * math.Sin(2*math.Pi*220*float64(i)/float64(sr))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, WriteWAVFile(path, &common.Sample{Data: data, SampleRate: sr}))

	got, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, sr, got.SampleRate)
	require.Len(t, got.Data, len(data))
	for i := range data {
		assert.InDelta(t, data[i], got.Data[i], 1e-3)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, err := DecodeWAVBytes([]byte("definitely not a wav file"))
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeDecoding, common.CodeOf(err))
}

func TestReadWAVMissingFile(t *testing.T) {
	_, err := ReadWAV(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
