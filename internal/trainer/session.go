package trainer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/speech-trainer/pkg/scoring"
)

// ErrSessionExpired is returned once a session's training time is over
var ErrSessionExpired = errors.New("training session has expired")

// Session owns one training run's baseline and attempt history. It is safe
// for concurrent use; attempts are serialized.
type Session struct {
	ID        string
	Settings  TrainingSettings
	CreatedAt time.Time

	mu       sync.Mutex
	baseline scoring.Baseline
	attempts []Result
	now      func() time.Time
}

// SessionSnapshot is an immutable copy of a session's state
type SessionSnapshot struct {
	ID        string           `json:"id" yaml:"id" bson:"_id"`
	Settings  TrainingSettings `json:"settings" yaml:"settings" bson:"settings"`
	Topic     string           `json:"topic_name" yaml:"topic_name" bson:"topic_name"`
	CreatedAt time.Time        `json:"created_at" yaml:"created_at" bson:"created_at"`
	ExpiresAt time.Time        `json:"expires_at" yaml:"expires_at" bson:"expires_at"`
	Baseline  scoring.Baseline `json:"baseline" yaml:"baseline" bson:"baseline"`
	Attempts  []Result         `json:"attempts" yaml:"attempts" bson:"-"`
}

// NewSession validates the settings and starts a session whose previous
// score is startScore
func NewSession(settings TrainingSettings, startScore float64) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training settings: %w", err)
	}

	topic, _ := ParseTopic(string(settings.Topic))
	settings.Topic = topic

	return &Session{
		ID:        uuid.NewString(),
		Settings:  settings,
		CreatedAt: time.Now(),
		baseline:  scoring.NewBaseline(startScore),
		now:       time.Now,
	}, nil
}

// ExpiresAt is the end of the training time
func (s *Session) ExpiresAt() time.Time {
	return s.CreatedAt.Add(s.Settings.Duration())
}

// Expired reports whether the training time is over
func (s *Session) Expired() bool {
	return !s.now().Before(s.ExpiresAt())
}

// Baseline returns the current baseline
func (s *Session) Baseline() scoring.Baseline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseline
}

// Attempts returns a copy of the attempt history
func (s *Session) Attempts() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.attempts...)
}

// Snapshot copies the session state
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		ID:        s.ID,
		Settings:  s.Settings,
		Topic:     s.Settings.Topic.DisplayName(),
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt(),
		Baseline:  s.baseline,
		Attempts:  append([]Result(nil), s.attempts...),
	}
}

// record smooths raw against the baseline and appends the attempt, all
// under the session lock
func (s *Session) record(smoother *scoring.Smoother, raw float64, result Result) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	adjusted, next := smoother.Step(s.baseline, raw)
	s.baseline = next

	result.SessionID = s.ID
	result.Attempt = len(s.attempts) + 1
	result.RawScore = raw
	result.Score = adjusted
	s.attempts = append(s.attempts, result)
	return result
}
