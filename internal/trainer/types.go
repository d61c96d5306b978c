package trainer

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/RyanBlaney/speech-trainer/pkg/advice"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/voice/extractors"
)

var titleCaser = cases.Title(language.English)

// Topic is the speaking situation a session trains for
type Topic string

const (
	TopicJobInterview Topic = "job_interview"
	TopicDate         Topic = "date"
	TopicLecture      Topic = "lecture"
)

// Topics lists the supported topics
var Topics = []Topic{TopicJobInterview, TopicDate, TopicLecture}

// ParseTopic accepts either the identifier or the display name
func ParseTopic(s string) (Topic, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for _, t := range Topics {
		if string(t) == normalized {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown training topic %q (expected one of job_interview, date, lecture)", s)
}

// DisplayName returns the human readable topic, e.g. "Job Interview"
func (t Topic) DisplayName() string {
	return titleCaser.String(strings.ReplaceAll(string(t), "_", " "))
}

// Limits on the training time of one session
const (
	MinTrainingMinutes = 1
	MaxTrainingMinutes = 180
)

// TrainingSettings are chosen before a session starts
type TrainingSettings struct {
	Topic           Topic `json:"topic" yaml:"topic"`
	DurationMinutes int   `json:"duration_minutes" yaml:"duration_minutes"`
}

// Validate requires both a topic and a training time
func (s TrainingSettings) Validate() error {
	if s.Topic == "" && s.DurationMinutes == 0 {
		return fmt.Errorf("training time and topic must be chosen first")
	}
	if _, err := ParseTopic(string(s.Topic)); err != nil {
		return err
	}
	if s.DurationMinutes < MinTrainingMinutes || s.DurationMinutes > MaxTrainingMinutes {
		return fmt.Errorf("training time must be between %d and %d minutes, got %d",
			MinTrainingMinutes, MaxTrainingMinutes, s.DurationMinutes)
	}
	return nil
}

// Duration returns the training time
func (s TrainingSettings) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Result is one scored attempt
type Result struct {
	SessionID      string                   `json:"session_id,omitempty" yaml:"session_id,omitempty" bson:"session_id"`
	Attempt        int                      `json:"attempt" yaml:"attempt" bson:"attempt"`
	RawScore       float64                  `json:"raw_score" yaml:"raw_score" bson:"raw_score"`
	Score          float64                  `json:"score" yaml:"score" bson:"score"`
	Advice         advice.Outcome           `json:"advice" yaml:"advice" bson:"advice"`
	Features       extractors.FeatureVector `json:"features" yaml:"features" bson:"features"`
	AudioDuration  time.Duration            `json:"audio_duration" yaml:"audio_duration" bson:"audio_duration"`
	ProcessingTime time.Duration            `json:"processing_time" yaml:"processing_time" bson:"processing_time"`
	Timestamp      time.Time                `json:"timestamp" yaml:"timestamp" bson:"timestamp"`
}
