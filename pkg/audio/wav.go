package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
)

// ReadWAV loads a WAV file from disk as a mono sample
func ReadWAV(path string) (*common.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer f.Close()

	sample, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sample, nil
}

// DecodeWAVBytes decodes an in-memory WAV payload
func DecodeWAVBytes(data []byte) (*common.Sample, error) {
	return DecodeWAV(bytes.NewReader(data))
}

// DecodeWAV decodes a WAV stream, down-mixing all channels to mono
func DecodeWAV(r io.ReadSeeker) (*common.Sample, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, common.NewAnalysisError("input", common.ErrCodeDecoding, "invalid wav file", nil)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, common.NewAnalysisError("input", common.ErrCodeDecoding, "failed to read wav data", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, common.NewAnalysisError("input", common.ErrCodeDecoding, "invalid wav buffer", nil)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, common.NewAnalysisError("input", common.ErrCodeDecoding,
			fmt.Sprintf("invalid wav sample rate: %d", buf.Format.SampleRate), nil)
	}

	interleaved := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		interleaved[i] = float64(v)
	}

	return common.NewSample(interleaved, buf.Format.SampleRate, buf.Format.NumChannels)
}

// WriteWAV encodes a mono sample as 16-bit PCM
func WriteWAV(w io.WriteSeeker, sample *common.Sample) error {
	if err := sample.Validate(); err != nil {
		return err
	}

	data := make([]float32, len(sample.Data))
	for i, v := range sample.Data {
		data[i] = float32(v)
	}

	enc := wav.NewEncoder(w, sample.SampleRate, 16, 1, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sample.SampleRate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav write: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav close: %w", err)
	}
	return nil
}

// WriteWAVFile writes a mono sample to path
func WriteWAVFile(path string, sample *common.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteWAV(f, sample)
}
