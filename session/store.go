// Package session persists the client session (auth token, user role,
// onboarding flag) behind a small key-value Store interface so the service
// wrappers receive it by injection instead of reading ambient global state.
package session

import (
	"context"
	"sync"
)

// Persisted keys. The store may hold other keys; these are the ones the
// client itself reads and writes.
const (
	KeyUserToken      = "userToken"
	KeyUserType       = "userType"
	KeyHasSeenWelcome = "hasSeenWelcome"
)

// User roles stored under KeyUserType.
const (
	UserTypeConsumer = "consumer"
	UserTypeProducer = "producer"
)

// Store is a key-value store for session state. Get returns an empty string
// for a missing key; absence is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is an in-process Store, used in tests and short-lived tools.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
