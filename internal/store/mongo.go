package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/RyanBlaney/speech-trainer/internal/trainer"
)

// MongoConfig locates the MongoDB collections
type MongoConfig struct {
	URI               string
	Database          string
	SessionCollection string
	AttemptCollection string
	ConnectTimeout    time.Duration
}

// MongoStore persists sessions and attempts in MongoDB
type MongoStore struct {
	client   *mongo.Client
	sessions *mongo.Collection
	attempts *mongo.Collection
}

// NewMongoStore connects, pings and ensures the attempt index
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo store requires a URI")
	}
	if cfg.Database == "" {
		cfg.Database = "speech_trainer"
	}
	if cfg.SessionCollection == "" {
		cfg.SessionCollection = "sessions"
	}
	if cfg.AttemptCollection == "" {
		cfg.AttemptCollection = "attempts"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &MongoStore{
		client:   client,
		sessions: db.Collection(cfg.SessionCollection),
		attempts: db.Collection(cfg.AttemptCollection),
	}

	_, err = s.attempts.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "attempt", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create attempt index: %w", err)
	}

	return s, nil
}

func (s *MongoStore) SaveSession(ctx context.Context, session trainer.SessionSnapshot) error {
	_, err := s.sessions.ReplaceOne(ctx, bson.M{"_id": session.ID}, session, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *MongoStore) SaveAttempt(ctx context.Context, result trainer.Result) error {
	if _, err := s.attempts.InsertOne(ctx, result); err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	return nil
}

func (s *MongoStore) LoadSession(ctx context.Context, id string) (*trainer.SessionSnapshot, error) {
	var session trainer.SessionSnapshot
	if err := s.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "attempt", Value: 1}})
	cursor, err := s.attempts.Find(ctx, bson.M{"session_id": id}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &session.Attempts); err != nil {
		return nil, fmt.Errorf("failed to decode attempts: %w", err)
	}
	return &session, nil
}

func (s *MongoStore) ListSessions(ctx context.Context) ([]trainer.SessionSnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.sessions.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []trainer.SessionSnapshot
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}

func (s *MongoStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.sessions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	if _, err := s.attempts.DeleteMany(ctx, bson.M{"session_id": id}); err != nil {
		return fmt.Errorf("failed to delete attempts: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
