package store

import (
	"context"
	"sort"
	"sync"

	"github.com/RyanBlaney/speech-trainer/internal/trainer"
)

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]trainer.SessionSnapshot
	attempts map[string][]trainer.Result
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]trainer.SessionSnapshot),
		attempts: make(map[string][]trainer.Result),
	}
}

func (m *MemoryStore) SaveSession(_ context.Context, session trainer.SessionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session.Attempts = nil
	m.sessions[session.ID] = session
	return nil
}

func (m *MemoryStore) SaveAttempt(_ context.Context, result trainer.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[result.SessionID]; !ok {
		return ErrNotFound
	}
	m.attempts[result.SessionID] = append(m.attempts[result.SessionID], result)
	return nil
}

func (m *MemoryStore) LoadSession(_ context.Context, id string) (*trainer.SessionSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	session.Attempts = sortedAttempts(m.attempts[id])
	return &session, nil
}

func (m *MemoryStore) ListSessions(_ context.Context) ([]trainer.SessionSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]trainer.SessionSnapshot, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	delete(m.attempts, id)
	return nil
}

func (m *MemoryStore) Close(context.Context) error {
	return nil
}

func sortedAttempts(attempts []trainer.Result) []trainer.Result {
	out := append([]trainer.Result(nil), attempts...)
	sort.Slice(out, func(i, j int) bool { return out[i].Attempt < out[j].Attempt })
	return out
}
