package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/RyanBlaney/speech-trainer/internal/trainer"
)

// ErrNotFound is returned when a session is not stored
var ErrNotFound = errors.New("session not found")

// Store persists sessions and their attempts
type Store interface {
	SaveSession(ctx context.Context, session trainer.SessionSnapshot) error
	SaveAttempt(ctx context.Context, result trainer.Result) error
	LoadSession(ctx context.Context, id string) (*trainer.SessionSnapshot, error)
	ListSessions(ctx context.Context) ([]trainer.SessionSnapshot, error)
	DeleteSession(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// Backend names
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// Config selects and configures a store backend
type Config struct {
	Backend string
	Mongo   MongoConfig
}

// Open creates the configured store
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendMongo:
		s, err := NewMongoStore(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %q", cfg.Backend)
	}
}
