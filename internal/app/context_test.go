package app

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/speech-trainer/configs"
	"github.com/RyanBlaney/speech-trainer/pkg/audio"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/voice/extractors"
)

const testRate = 16000

func voicedSample(seconds float64) *common.Sample {
	n := int(seconds * testRate)
	signal := make([]float64, n)
	for next := 0.0; int(next) < n; next += testRate / 130.0 {
		signal[int(next)] = 1
	}

	r := math.Exp(-math.Pi * 90 / testRate)
	a1 := 2 * r * math.Cos(2*math.Pi*650/testRate)
	out := make([]float64, n)
	for i := range n {
		v := signal[i]
		if i >= 1 {
			v += a1 * out[i-1]
		}
		if i >= 2 {
			v -= r * r * out[i-2]
		}
		out[i] = v
	}

	var peak float64
	for _, v := range out {
		peak = math.Max(peak, math.Abs(v))
	}
	for i := range out {
		out[i] = 0.4 * out[i] / peak
	}
	return &common.Sample{Data: out, SampleRate: testRate}
}

func writeWAV(t *testing.T, dir, name string, sample *common.Sample) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, audio.WriteWAVFile(path, sample))
	return path
}

func testConfig(t *testing.T) *configs.Config {
	t.Helper()
	cfg := configs.GetDefaultConfig()
	cfg.ConfigDir = t.TempDir()
	cfg.DataDir = t.TempDir()
	cfg.OutputFormat = "json"
	cfg.Analysis.EnableSpectralHNR = false
	cfg.Advice.Seed = 1
	cfg.Output.IncludeFeatures = true
	cfg.Output.Timestamps = false
	return cfg
}

func TestRunTrainingSession(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeWAV(t, dir, "first.wav", voicedSample(0.6)),
		writeWAV(t, dir, "silence.wav", &common.Sample{Data: make([]float64, testRate/2), SampleRate: testRate}),
		writeWAV(t, dir, "second.wav", voicedSample(0.8)),
	}
	outputFile := filepath.Join(dir, "out", "session.json")

	app, err := NewTrainerApp(&Context{
		AudioFiles: files,
		OutputFile: outputFile,
		Topic:      "Job Interview",
		Config:     testConfig(t),
	})
	require.NoError(t, err)
	defer app.Close(context.Background())

	require.NoError(t, app.Run(context.Background()))

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var out TrainingOutput
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "Job Interview", out.Session.Topic)
	assert.Equal(t, 10, out.Session.DurationMinutes)
	require.Len(t, out.Attempts, 3)

	require.NotNil(t, out.Attempts[0].Result)
	assert.Equal(t, 1, out.Attempts[0].Result.Attempt)
	assert.NotEmpty(t, out.Attempts[0].Result.Advice.Text)
	assert.Contains(t, out.Attempts[0].Result.Features, extractors.PitchMean)

	assert.Nil(t, out.Attempts[1].Result)
	assert.NotEmpty(t, out.Attempts[1].Error)

	require.NotNil(t, out.Attempts[2].Result)
	assert.Equal(t, 2, out.Attempts[2].Result.Attempt)

	require.NotNil(t, out.Progress)
	assert.Equal(t, 2, out.Progress.Attempts)
	assert.Nil(t, out.Timestamp)

	snapshot, err := app.store.LoadSession(context.Background(), out.Session.ID)
	require.NoError(t, err)
	assert.Len(t, snapshot.Attempts, 2)
}

func TestRunFailsWhenNothingScores(t *testing.T) {
	dir := t.TempDir()
	silence := writeWAV(t, dir, "silence.wav", &common.Sample{Data: make([]float64, testRate), SampleRate: testRate})

	app, err := NewTrainerApp(&Context{AudioFiles: []string{silence}, Config: testConfig(t)})
	require.NoError(t, err)
	var buf bytes.Buffer
	app.out = &buf

	err = app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recording could be scored")
	assert.Contains(t, buf.String(), "silence.wav")
}

func TestRunRejectsBadSettings(t *testing.T) {
	dir := t.TempDir()
	file := writeWAV(t, dir, "a.wav", voicedSample(0.5))

	app, err := NewTrainerApp(&Context{AudioFiles: []string{file}, Topic: "wedding", Config: testConfig(t)})
	require.NoError(t, err)
	assert.Error(t, app.Run(context.Background()))

	app, err = NewTrainerApp(&Context{AudioFiles: []string{file}, DurationMinutes: 500, Config: testConfig(t)})
	require.NoError(t, err)
	assert.Error(t, app.Run(context.Background()))

	app, err = NewTrainerApp(&Context{Config: testConfig(t)})
	require.NoError(t, err)
	assert.Error(t, app.Run(context.Background()))
}

func TestExtractFeaturesTable(t *testing.T) {
	dir := t.TempDir()
	file := writeWAV(t, dir, "take.wav", voicedSample(0.6))

	cfg := testConfig(t)
	app, err := NewTrainerApp(&Context{AudioFiles: []string{file, filepath.Join(dir, "missing.wav")}, OutputFormat: "table", Config: cfg})
	require.NoError(t, err)
	var buf bytes.Buffer
	app.out = &buf

	require.NoError(t, app.ExtractFeatures(context.Background()))

	text := buf.String()
	assert.Contains(t, text, "take.wav")
	assert.Contains(t, text, extractors.PitchMean)
	assert.Contains(t, text, "missing.wav")
	assert.Contains(t, text, "error:")
	assert.Less(t, strings.Index(text, extractors.IntensityMax), strings.Index(text, extractors.F2StdF1))
}

func TestNewTrainerAppRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Smoothing.Alpha = 0

	_, err := NewTrainerApp(&Context{Config: cfg})
	assert.Error(t, err)
}
