package progress

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/speech-trainer/internal/trainer"
	"github.com/RyanBlaney/speech-trainer/pkg/advice"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/voice/extractors"
	"github.com/RyanBlaney/speech-trainer/pkg/logging"
)

// Trend slopes smaller than this many points per attempt count as flat
const flatTrend = 0.5

// ProgressCalculator summarizes a session's attempts
type ProgressCalculator struct {
	logger logging.Logger
}

// NewProgressCalculator creates a new progress calculator
func NewProgressCalculator(logger logging.Logger) *ProgressCalculator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &ProgressCalculator{
		logger: logger,
	}
}

// ScoreStats represents statistical measures of a score series
type ScoreStats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	P25    float64 `json:"p25" yaml:"p25"`
	P75    float64 `json:"p75" yaml:"p75"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Count  int     `json:"count" yaml:"count"`
}

// Report is the progress summary of one session
type Report struct {
	SessionID       string             `json:"session_id" yaml:"session_id"`
	Topic           string             `json:"topic" yaml:"topic"`
	Attempts        int                `json:"attempts" yaml:"attempts"`
	Scores          *ScoreStats        `json:"scores" yaml:"scores"`
	RawScores       *ScoreStats        `json:"raw_scores" yaml:"raw_scores"`
	Best            float64            `json:"best" yaml:"best"`
	Worst           float64            `json:"worst" yaml:"worst"`
	Latest          float64            `json:"latest" yaml:"latest"`
	TrendPerAttempt float64            `json:"trend_per_attempt" yaml:"trend_per_attempt"`
	Improvement     float64            `json:"improvement" yaml:"improvement"`
	AdviceFrequency map[string]int     `json:"advice_frequency" yaml:"advice_frequency"`
	ComplimentRate  float64            `json:"compliment_rate" yaml:"compliment_rate"`
	FeatureMeans    map[string]float64 `json:"feature_means" yaml:"feature_means"`
	Insights        []string           `json:"insights" yaml:"insights"`
}

// CalculateReport builds the report of a session snapshot
func (pc *ProgressCalculator) CalculateReport(snapshot trainer.SessionSnapshot) *Report {
	report := &Report{
		SessionID:       snapshot.ID,
		Topic:           snapshot.Topic,
		Attempts:        len(snapshot.Attempts),
		AdviceFrequency: make(map[string]int),
		FeatureMeans:    make(map[string]float64),
	}
	if len(snapshot.Attempts) == 0 {
		report.Scores = &ScoreStats{}
		report.RawScores = &ScoreStats{}
		report.Insights = []string{"No attempts recorded yet"}
		return report
	}

	attempts := append([]trainer.Result(nil), snapshot.Attempts...)
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].Attempt < attempts[j].Attempt })

	scores := make([]float64, len(attempts))
	raw := make([]float64, len(attempts))
	index := make([]float64, len(attempts))
	compliments := 0
	featureSums := make(map[string]float64)

	for i, a := range attempts {
		scores[i] = a.Score
		raw[i] = a.RawScore
		index[i] = float64(i + 1)

		if a.Advice.Kind == advice.KindCompliment {
			compliments++
		}
		for _, rule := range a.Advice.Rules {
			report.AdviceFrequency[rule]++
		}
		for _, name := range extractors.DefaultSchema {
			featureSums[name] += a.Features.Get(name)
		}
	}

	report.Scores = pc.calculateStats(scores)
	report.RawScores = pc.calculateStats(raw)
	report.Best = report.Scores.Max
	report.Worst = report.Scores.Min
	report.Latest = scores[len(scores)-1]
	report.Improvement = scores[len(scores)-1] - scores[0]
	report.ComplimentRate = float64(compliments) / float64(len(attempts))

	if len(scores) >= 2 {
		_, slope := stat.LinearRegression(index, scores, nil, false)
		report.TrendPerAttempt = sanitize(slope)
	}

	for name, sum := range featureSums {
		report.FeatureMeans[name] = sum / float64(len(attempts))
	}

	report.Insights = pc.GenerateInsights(report)

	pc.logger.Debug("Progress report calculated", logging.Fields{
		"session_id": report.SessionID,
		"attempts":   report.Attempts,
		"trend":      report.TrendPerAttempt,
	})

	return report
}

// GenerateInsights turns a report into short coaching observations
func (pc *ProgressCalculator) GenerateInsights(report *Report) []string {
	var insights []string

	switch {
	case report.Attempts < 2:
		insights = append(insights, "Record more attempts to see a trend")
	case report.TrendPerAttempt >= flatTrend:
		insights = append(insights, fmt.Sprintf("Scores are improving by %.1f points per attempt", report.TrendPerAttempt))
	case report.TrendPerAttempt <= -flatTrend:
		insights = append(insights, fmt.Sprintf("Scores are dropping by %.1f points per attempt", -report.TrendPerAttempt))
	default:
		insights = append(insights, "Scores are holding steady")
	}

	if rule, count := mostFrequent(report.AdviceFrequency); count > 0 {
		insights = append(insights, fmt.Sprintf("Most frequent advice: %s (%d of %d attempts)",
			adviceLabel(rule), count, report.Attempts))
	}

	if report.Attempts > 0 {
		insights = append(insights, fmt.Sprintf("Compliments on %.0f%% of attempts", report.ComplimentRate*100))
	}

	return insights
}

// calculateStats calculates statistics of a series
func (pc *ProgressCalculator) calculateStats(data []float64) *ScoreStats {
	if len(data) == 0 {
		return &ScoreStats{Count: 0}
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(data, nil)
	stats := &ScoreStats{
		Count:  len(data),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		P75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}

	// Clean up any infinite or NaN values for JSON serialization
	stats.Mean = sanitize(stats.Mean)
	stats.StdDev = sanitize(stats.StdDev)
	return stats
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// mostFrequent breaks ties by rule name
func mostFrequent(freq map[string]int) (string, int) {
	best, count := "", 0
	for rule, n := range freq {
		if n > count || (n == count && rule < best) {
			best, count = rule, n
		}
	}
	return best, count
}

func adviceLabel(rule string) string {
	for _, r := range advice.DefaultRules() {
		if r.Name == rule {
			return r.Clause
		}
	}
	return rule
}
