package objectstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockStore is an in-memory implementation of the Store interface for testing.
// It records every Delete call, including failed ones.
type MockStore struct {
	mu      sync.Mutex
	objects map[string]struct{}
	deletes []string

	// DeleteErr, when set, is returned by every Delete call.
	DeleteErr error
}

// NewMockStore creates a new MockStore holding the given keys.
func NewMockStore(keys ...string) *MockStore {
	s := &MockStore{objects: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.objects[k] = struct{}{}
	}
	return s
}

func (s *MockStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes = append(s.deletes, key)
	if s.DeleteErr != nil {
		return &ObjectError{Op: "Delete", Key: key, Err: s.DeleteErr}
	}
	delete(s.objects, key)
	return nil
}

func (s *MockStore) PresignPut(ctx context.Context, key string, expires time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = struct{}{}
	return fmt.Sprintf("https://mock.invalid/%s?expires=%d", key, int(expires.Seconds())), nil
}

// Has reports whether key is stored.
func (s *MockStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// Deletes returns the keys passed to Delete, in call order.
func (s *MockStore) Deletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}
