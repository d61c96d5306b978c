package extractors

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/config"
)

const testRate = 16000

func vowel(f0 float64, seconds float64) *common.Sample {
	sr := float64(testRate)
	n := int(seconds * sr)
	signal := make([]float64, n)
	for next := 0.0; int(next) < n; next += sr / f0 {
		signal[int(next)] = 1
	}

	formants := []float64{700, 1220, 2600}
	bandwidths := []float64{80, 90, 120}
	for k, f := range formants {
		r := math.Exp(-math.Pi * bandwidths[k] / sr)
		a1 := 2 * r * math.Cos(2*math.Pi*f/sr)
		a2 := -r * r
		out := make([]float64, n)
		for i := range n {
			v := signal[i]
			if i >= 1 {
				v += a1 * out[i-1]
			}
			if i >= 2 {
				v += a2 * out[i-2]
			}
			out[i] = v
		}
		signal = out
	}

	var peak float64
	for _, v := range signal {
		peak = math.Max(peak, math.Abs(v))
	}
	for i := range signal {
		signal[i] = 0.5 * signal[i] / peak
	}
	return &common.Sample{Data: signal, SampleRate: testRate}
}

func testConfig() *config.FeatureConfig {
	cfg := config.DefaultFeatureConfig()
	cfg.EnableSpectralHNR = false
	return cfg
}

func TestExtractSilenceIsInsufficientSignal(t *testing.T) {
	extractor := NewSpeechQualityExtractor(testConfig())
	sample := &common.Sample{Data: make([]float64, testRate), SampleRate: testRate}

	_, err := extractor.Extract(context.Background(), sample)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInsufficientSignal))
	assert.Equal(t, common.ErrCodeInsufficientSignal, common.CodeOf(err))
}

func TestExtractRejectsInvalidSample(t *testing.T) {
	extractor := NewSpeechQualityExtractor(testConfig())

	_, err := extractor.Extract(context.Background(), &common.Sample{SampleRate: testRate})
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeInvalidInput, common.CodeOf(err))
}

func TestExtractVowel(t *testing.T) {
	extractor := NewSpeechQualityExtractor(testConfig())

	fv, err := extractor.Extract(context.Background(), vowel(120, 1.0))
	require.NoError(t, err)
	require.NoError(t, fv.Validate())

	assert.InDelta(t, 120, fv[PitchMean], 3)
	assert.GreaterOrEqual(t, fv[PitchMax], fv[PitchMean])
	assert.LessOrEqual(t, fv[PitchMin], fv[PitchMean])
	assert.InDelta(t, fv[PitchMax]-fv[PitchMean], fv[DiffPitchMaxMean], 1e-9)

	assert.GreaterOrEqual(t, fv[IntensityMax], fv[IntensityMean])
	assert.LessOrEqual(t, fv[IntensityMin], fv[IntensityMean])
	assert.Greater(t, fv[IntensityMean], 40.0)

	// Steady vowel: the formant tracks barely move
	assert.Less(t, fv[F1Std], 150.0)
	assert.Less(t, fv[F3Std], 400.0)
	assert.Greater(t, fv[F2StdF1], 0.0)
	assert.Less(t, fv[F2StdF1], 50.0)

	assert.Equal(t, 5000.0, fv[MaxFormant])
	assert.Greater(t, fv[PointCount], 50.0)
	assert.InDelta(t, 1.0, fv[DurationSecs], 1e-9)
	assert.Equal(t, 0.0, fv[SpectralHNR])

	for name, v := range fv {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "feature %s is not finite", name)
	}
}

func TestSampledFormantsFollowVowel(t *testing.T) {
	extractor := NewSpeechQualityExtractor(testConfig())
	sample := vowel(120, 1.0)
	ctx := context.Background()

	contour, err := extractor.pitch.Analyze(ctx, sample.Data, testRate, 75, 600)
	require.NoError(t, err)
	points, err := extractor.points.Build(ctx, sample.Data, testRate, contour)
	require.NoError(t, err)
	require.Greater(t, points.Len(), 50)

	track, err := extractor.formants.Analyze(ctx, sample.Data, testRate, 5000)
	require.NoError(t, err)

	tracks := extractor.sampleFormants(track, points)
	require.NotEmpty(t, tracks[0])
	require.NotEmpty(t, tracks[1])

	assert.InDelta(t, 700, median(tracks[0]), 80)
	assert.InDelta(t, 1220, median(tracks[1]), 120)
}

func median(x []float64) float64 {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

func TestExtractIsDeterministic(t *testing.T) {
	extractor := NewSpeechQualityExtractor(testConfig())
	sample := vowel(140, 0.6)

	first, err := extractor.Extract(context.Background(), sample)
	require.NoError(t, err)
	second, err := extractor.Extract(context.Background(), sample)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractHonoursCancellation(t *testing.T) {
	extractor := NewSpeechQualityExtractor(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extractor.Extract(ctx, vowel(120, 0.5))
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeTimeout, common.CodeOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFeatureVectorRow(t *testing.T) {
	fv := FeatureVector{}
	for i, name := range DefaultSchema {
		fv[name] = float64(i)
	}
	fv[F3Std] = math.NaN()
	fv[MeanF0] = 123

	row, err := fv.Row(ScoringSchema())
	require.NoError(t, err)
	require.Len(t, row, len(DefaultSchema)-1)
	assert.Equal(t, 0.0, row[0])
	assert.Equal(t, 0.0, row[8], "NaN is zero-filled")
	assert.Equal(t, 7.0, row[7])

	delete(fv, PitchMin)
	_, err = fv.Row(ScoringSchema())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}

func TestFeatureVectorSanitizeAndCore(t *testing.T) {
	fv := FeatureVector{
		IntensityMax: math.Inf(1),
		F1Std:        math.NaN(),
		HNR:          12,
	}
	fv.Sanitize()
	assert.Equal(t, 0.0, fv[IntensityMax])
	assert.Equal(t, 0.0, fv[F1Std])

	core := fv.Core()
	assert.Contains(t, core, IntensityMax)
	assert.NotContains(t, core, HNR)
	assert.Equal(t, 0.0, FeatureVector{}.Get(PitchMax))
}

func TestScoringSchemaDropsLastField(t *testing.T) {
	schema := ScoringSchema()
	assert.Len(t, schema, 9)
	assert.Equal(t, IntensityMax, schema[0])
	assert.Equal(t, F3Std, schema[len(schema)-1])
	assert.NotContains(t, schema, F2StdF1)
}
