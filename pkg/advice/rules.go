package advice

import "github.com/RyanBlaney/speech-trainer/pkg/audio/voice/extractors"

// Rule thresholds and regression constants
const (
	CalmDownIntensityDB = 86.0

	IntensityMinCenter    = 35.219
	IntensityMinSpread    = 1.61539
	IntensityMinZScoreMax = 1.6

	LoudnessIntercept = -0.6314
	LoudnessSlope     = 0.0167
	LoudnessMinimum   = 0.3

	PitchRiseCenter    = 197.169447
	PitchRiseSpread    = 42.695449
	PitchRiseZScoreMax = 0.443
)

// Advice texts
const (
	TextCalmDown    = "Please CALM DOWN and try again!"
	TextSpeakCalmly = "Please speak calmly"
	TextSpeakLouder = "Please speak louder or get closer to the microphone"
	TextLowerTone   = "Please lower your tone: unless asking a question, intonation should fall at the end of the sentence"
)

// DefaultCompliments are chosen from uniformly when no rule fires
var DefaultCompliments = []string{
	"Nice Job So Far!",
	"Keep it Up",
	"You are on the right track!",
}

// Action says what a firing rule does to the outcome
type Action int

const (
	// Accumulate appends the clause and keeps evaluating
	Accumulate Action = iota
	// Terminate discards earlier clauses and returns this one alone
	Terminate
)

// Rule is one ordered predicate over a feature vector
type Rule struct {
	Name    string
	Clause  string
	Action  Action
	Applies func(fv extractors.FeatureVector) bool
}

// DefaultRules returns the coaching rules in evaluation order
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "calm_down",
			Clause: TextCalmDown,
			Action: Terminate,
			Applies: func(fv extractors.FeatureVector) bool {
				return fv.Get(extractors.IntensityMax) >= CalmDownIntensityDB
			},
		},
		{
			Name:   "speak_calmly",
			Clause: TextSpeakCalmly,
			Action: Accumulate,
			Applies: func(fv extractors.FeatureVector) bool {
				z := (fv.Get(extractors.IntensityMin) - IntensityMinCenter) / IntensityMinSpread
				return z > IntensityMinZScoreMax
			},
		},
		{
			Name:   "speak_louder",
			Clause: TextSpeakLouder,
			Action: Terminate,
			Applies: func(fv extractors.FeatureVector) bool {
				return LoudnessIntercept+LoudnessSlope*fv.Get(extractors.IntensityMax) < LoudnessMinimum
			},
		},
		{
			Name:   "lower_tone",
			Clause: TextLowerTone,
			Action: Accumulate,
			Applies: func(fv extractors.FeatureVector) bool {
				z := (fv.Get(extractors.DiffPitchMaxMean) - PitchRiseCenter) / PitchRiseSpread
				return z >= PitchRiseZScoreMax
			},
		},
	}
}
