package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/RyanBlaney/speech-trainer/internal/trainer"
	"github.com/RyanBlaney/speech-trainer/pkg/advice"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/voice/extractors"
)

// StoreTestSuite runs the same contract against every backend
type StoreTestSuite struct {
	suite.Suite
	newStore func() Store
	store    Store
	ctx      context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func (s *StoreTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close(s.ctx))
}

func (s *StoreTestSuite) snapshot() trainer.SessionSnapshot {
	session, err := trainer.NewSession(trainer.TrainingSettings{Topic: trainer.TopicDate, DurationMinutes: 5}, 0)
	s.Require().NoError(err)
	return session.Snapshot()
}

func (s *StoreTestSuite) TestRoundTrip() {
	snap := s.snapshot()
	s.Require().NoError(s.store.SaveSession(s.ctx, snap))

	for _, n := range []int{2, 1} {
		s.Require().NoError(s.store.SaveAttempt(s.ctx, trainer.Result{
			SessionID: snap.ID,
			Attempt:   n,
			Score:     float64(50 + n),
			Advice:    advice.Outcome{Kind: advice.KindCompliment, Text: "Keep it Up"},
			Features:  extractors.FeatureVector{extractors.PitchMean: 150},
			Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		}))
	}

	loaded, err := s.store.LoadSession(s.ctx, snap.ID)
	s.Require().NoError(err)
	s.Equal(snap.ID, loaded.ID)
	s.Equal(trainer.TopicDate, loaded.Settings.Topic)
	s.Require().Len(loaded.Attempts, 2)
	s.Equal(1, loaded.Attempts[0].Attempt)
	s.Equal(52.0, loaded.Attempts[1].Score)
	s.Equal(150.0, loaded.Attempts[0].Features[extractors.PitchMean])

	sessions, err := s.store.ListSessions(s.ctx)
	s.Require().NoError(err)
	s.NotEmpty(sessions)

	s.Require().NoError(s.store.DeleteSession(s.ctx, snap.ID))
	_, err = s.store.LoadSession(s.ctx, snap.ID)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.store.DeleteSession(s.ctx, snap.ID), ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func() Store { return NewMemoryStore() }})
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("SPEECH_TRAINER_MONGO_URI")
	if uri == "" {
		t.Skip("SPEECH_TRAINER_MONGO_URI not set")
	}
	suite.Run(t, &StoreTestSuite{newStore: func() Store {
		s, err := NewMongoStore(context.Background(), MongoConfig{URI: uri, Database: "speech_trainer_test"})
		require.NoError(t, err)
		return s
	}})
}

func TestMemoryStoreRejectsOrphanAttempts(t *testing.T) {
	err := NewMemoryStore().SaveAttempt(context.Background(), trainer.Result{SessionID: "nope", Attempt: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(context.Background(), Config{Backend: "redis"})
	assert.ErrorContains(t, err, "unsupported store backend")

	_, err = Open(context.Background(), Config{Backend: BackendMongo})
	assert.ErrorContains(t, err, "requires a URI")
}
