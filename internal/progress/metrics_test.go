package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/speech-trainer/internal/trainer"
	"github.com/RyanBlaney/speech-trainer/pkg/advice"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/voice/extractors"
)

func attempt(n int, score float64, outcome advice.Outcome) trainer.Result {
	return trainer.Result{
		Attempt:   n,
		RawScore:  score + 1,
		Score:     score,
		Advice:    outcome,
		Features:  extractors.FeatureVector{extractors.PitchMean: 100 + float64(n)},
		Timestamp: time.Unix(int64(n), 0),
	}
}

func calmly() advice.Outcome {
	return advice.Outcome{Kind: advice.KindAdvice, Text: advice.TextSpeakCalmly, Rules: []string{"speak_calmly"}}
}

func compliment() advice.Outcome {
	return advice.Outcome{Kind: advice.KindCompliment, Text: "Keep it Up"}
}

func TestCalculateReport(t *testing.T) {
	pc := NewProgressCalculator(nil)
	snap := trainer.SessionSnapshot{
		ID:    "s1",
		Topic: "Lecture",
		Attempts: []trainer.Result{
			attempt(3, 60, compliment()),
			attempt(1, 50, calmly()),
			attempt(4, 65, compliment()),
			attempt(2, 55, calmly()),
		},
	}

	report := pc.CalculateReport(snap)
	require.NotNil(t, report)

	assert.Equal(t, 4, report.Attempts)
	assert.InDelta(t, 57.5, report.Scores.Mean, 1e-9)
	assert.InDelta(t, 5.5901699, report.Scores.StdDev, 1e-6)
	assert.InDelta(t, 58.5, report.RawScores.Mean, 1e-9)
	assert.Equal(t, 65.0, report.Best)
	assert.Equal(t, 50.0, report.Worst)
	assert.Equal(t, 65.0, report.Latest)
	assert.InDelta(t, 15.0, report.Improvement, 1e-9)
	assert.InDelta(t, 5.0, report.TrendPerAttempt, 1e-9)
	assert.InDelta(t, 57.5, report.Scores.Median, 2.5+1e-9)
	assert.Equal(t, map[string]int{"speak_calmly": 2}, report.AdviceFrequency)
	assert.InDelta(t, 0.5, report.ComplimentRate, 1e-9)
	assert.InDelta(t, 102.5, report.FeatureMeans[extractors.PitchMean], 1e-9)

	require.Len(t, report.Insights, 3)
	assert.Equal(t, "Scores are improving by 5.0 points per attempt", report.Insights[0])
	assert.Equal(t, "Most frequent advice: Please speak calmly (2 of 4 attempts)", report.Insights[1])
	assert.Equal(t, "Compliments on 50% of attempts", report.Insights[2])
}

func TestReportWithoutAttempts(t *testing.T) {
	report := NewProgressCalculator(nil).CalculateReport(trainer.SessionSnapshot{ID: "empty"})
	assert.Zero(t, report.Attempts)
	assert.Equal(t, 0, report.Scores.Count)
	assert.Equal(t, []string{"No attempts recorded yet"}, report.Insights)
}

func TestInsightsForFlatAndFallingTrends(t *testing.T) {
	pc := NewProgressCalculator(nil)

	flat := pc.CalculateReport(trainer.SessionSnapshot{Attempts: []trainer.Result{
		attempt(1, 60, compliment()),
		attempt(2, 60.2, compliment()),
	}})
	assert.Equal(t, "Scores are holding steady", flat.Insights[0])
	assert.Len(t, flat.Insights, 2)

	falling := pc.CalculateReport(trainer.SessionSnapshot{Attempts: []trainer.Result{
		attempt(1, 70, calmly()),
		attempt(2, 60, calmly()),
		attempt(3, 50, calmly()),
	}})
	assert.Equal(t, "Scores are dropping by 10.0 points per attempt", falling.Insights[0])

	single := pc.CalculateReport(trainer.SessionSnapshot{Attempts: []trainer.Result{attempt(1, 70, calmly())}})
	assert.Equal(t, "Record more attempts to see a trend", single.Insights[0])
	assert.Zero(t, single.TrendPerAttempt)
}
