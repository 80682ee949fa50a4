package roomcast

import (
	"context"
	"sync"
)

// Keys used in the persistence store. Session keys are written and
// cleared together; the server URL override and saved username outlive
// any single session.
const (
	KeyServerURL        = "server_url"
	KeySessionToken     = "session_token"
	KeyRoomCode         = "room_code"
	KeyUserID           = "user_id"
	KeyIsHost           = "is_host"
	KeySessionStartedAt = "session_started_at"
	KeyUsername         = "username"
)

var sessionKeys = []string{
	KeySessionToken,
	KeyRoomCode,
	KeyUserID,
	KeyIsHost,
	KeySessionStartedAt,
}

// Store is the key-value persistence layer that lets a session survive
// a process restart within the grace period.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// MemStore is an in-memory Store for tests and ephemeral sessions.
type MemStore struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string]string)}
}

func (s *MemStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.m, k)
	}
	return nil
}
