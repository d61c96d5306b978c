package trainer

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/speech-trainer/pkg/advice"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/config"
	"github.com/RyanBlaney/speech-trainer/pkg/scoring"
)

type scriptedModel struct {
	scores []float64
	calls  int
}

func (m *scriptedModel) Predict(normalized []float64) (float64, error) {
	v := m.scores[m.calls%len(m.scores)]
	m.calls++
	return v, nil
}

func (m *scriptedModel) NumFeatures() int { return 9 }
func (m *scriptedModel) Type() string     { return "scripted" }

func voicedSample(seconds float64) *common.Sample {
	const sr = 16000
	n := int(seconds * sr)
	signal := make([]float64, n)
	for next := 0.0; int(next) < n; next += sr / 130.0 {
		signal[int(next)] = 1
	}

	r := math.Exp(-math.Pi * 90 / sr)
	a1 := 2 * r * math.Cos(2*math.Pi*650/sr)
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
	return &common.Sample{Data: out, SampleRate: sr}
}

func newTestTrainer(t *testing.T, scores ...float64) *Trainer {
	t.Helper()
	features := config.DefaultFeatureConfig()
	features.EnableSpectralHNR = false

	tr, err := NewTrainer(&TrainerConfig{
		Features: features,
		Scaler:   scoring.IdentityScaler(),
		Model:    &scriptedModel{scores: scores},
		Advice:   advice.NewEngine(advice.WithSeed(1)),
	})
	require.NoError(t, err)
	return tr
}

func validSettings() TrainingSettings {
	return TrainingSettings{Topic: TopicLecture, DurationMinutes: 10}
}

func TestEvaluateSmoothsAcrossAttempts(t *testing.T) {
	tr := newTestTrainer(t, 50, 50, 70)
	session, err := NewSession(validSettings(), 0)
	require.NoError(t, err)
	sample := voicedSample(0.6)

	var results []*Result
	for range 3 {
		res, err := tr.Evaluate(context.Background(), sample, session)
		require.NoError(t, err)
		results = append(results, res)
	}

	assert.Equal(t, 1, results[0].Attempt)
	assert.Equal(t, 3, results[2].Attempt)
	assert.Equal(t, session.ID, results[2].SessionID)

	// Attempts 1 and 2 pass through; attempt 3 lies outside [50, 50]
	assert.Equal(t, 50.0, results[0].Score)
	assert.Equal(t, 50.0, results[1].Score)
	assert.Equal(t, 70.0, results[2].RawScore)
	assert.Equal(t, 50.0+(70-50), results[2].Score)

	b := session.Baseline()
	assert.Equal(t, 3, b.Count)
	assert.InDelta(t, 170.0/3, b.Mean, 1e-9)
	assert.Equal(t, results[2].Score, b.Previous)
	assert.Len(t, session.Attempts(), 3)

	assert.NotEmpty(t, results[0].Advice.Text)
	assert.Contains(t, results[0].Features, "PitchMean")
	assert.InDelta(t, 0.6, results[0].AudioDuration.Seconds(), 1e-6)
}

func TestFailedExtractionLeavesBaselineUntouched(t *testing.T) {
	tr := newTestTrainer(t, 60)
	session, err := NewSession(validSettings(), 12)
	require.NoError(t, err)

	silence := &common.Sample{Data: make([]float64, 16000), SampleRate: 16000}
	_, err = tr.Evaluate(context.Background(), silence, session)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInsufficientSignal)

	assert.Equal(t, scoring.NewBaseline(12), session.Baseline())
	assert.Empty(t, session.Attempts())
}

func TestEvaluateRejectsExpiredSession(t *testing.T) {
	tr := newTestTrainer(t, 60)
	session, err := NewSession(validSettings(), 0)
	require.NoError(t, err)
	session.now = func() time.Time { return session.CreatedAt.Add(11 * time.Minute) }

	_, err = tr.Evaluate(context.Background(), voicedSample(0.3), session)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestScoreWithoutSession(t *testing.T) {
	tr := newTestTrainer(t, 42)

	res, err := tr.Score(context.Background(), voicedSample(0.5))
	require.NoError(t, err)
	assert.Equal(t, 42.0, res.RawScore)
	assert.Equal(t, 42.0, res.Score)
	assert.Zero(t, res.Attempt)
}

func TestNewTrainerRejectsArityMismatch(t *testing.T) {
	model, err := scoring.NewLinearModel(scoring.LinearParameters{Coefficients: []float64{1, 2}})
	require.NoError(t, err)

	_, err = NewTrainer(&TrainerConfig{Scaler: scoring.IdentityScaler(), Model: model})
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}

func TestNewTrainerUsesBundledParameters(t *testing.T) {
	tr, err := NewTrainer(nil)
	require.NoError(t, err)
	assert.Equal(t, scoring.ModelTypeLinear, tr.model.Type())
}

func TestTrainingSettings(t *testing.T) {
	cases := []struct {
		name     string
		settings TrainingSettings
		wantErr  string
	}{
		{"valid", TrainingSettings{Topic: TopicDate, DurationMinutes: 5}, ""},
		{"nothing chosen", TrainingSettings{}, "must be chosen first"},
		{"no topic", TrainingSettings{DurationMinutes: 5}, "unknown training topic"},
		{"no time", TrainingSettings{Topic: TopicDate}, "training time must be between"},
		{"too long", TrainingSettings{Topic: TopicDate, DurationMinutes: 500}, "training time must be between"},
		{"display name", TrainingSettings{Topic: "Job Interview", DurationMinutes: 5}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.settings.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestTopics(t *testing.T) {
	topic, err := ParseTopic("Job Interview")
	require.NoError(t, err)
	assert.Equal(t, TopicJobInterview, topic)
	assert.Equal(t, "Job Interview", topic.DisplayName())
	assert.Equal(t, "Lecture", TopicLecture.DisplayName())

	_, err = ParseTopic("karaoke")
	assert.Error(t, err)

	session, err := NewSession(TrainingSettings{Topic: "job-interview", DurationMinutes: 3}, 0)
	require.NoError(t, err)
	assert.Equal(t, TopicJobInterview, session.Settings.Topic)
	assert.Equal(t, session.CreatedAt.Add(3*time.Minute), session.ExpiresAt())

	snap := session.Snapshot()
	assert.Equal(t, "Job Interview", snap.Topic)
	assert.NotEmpty(t, snap.ID)
}
