package identity

import (
	"context"
	"sync"

	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

// MemoryStore keeps the mapping for the process lifetime.
type MemoryStore struct {
	mu    sync.RWMutex
	addrs map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{addrs: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, voterID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addr, ok := s.addrs[voterID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return addr, nil
}

func (s *MemoryStore) Set(ctx context.Context, voterID, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.addrs[voterID]; ok && existing != addr {
		return sentinel.ErrDuplicate
	}
	s.addrs[voterID] = addr
	return nil
}
