package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) Create(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrDuplicate
	}
	s.byID[u.ID] = u
	s.byEmail[email] = u.ID
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return User{}, sentinel.ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, sentinel.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) Update(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	existing.Name = u.Name
	existing.CountyID = u.CountyID
	existing.ConstituencyID = u.ConstituencyID
	existing.WardID = u.WardID
	s.byID[u.ID] = existing
	return nil
}
