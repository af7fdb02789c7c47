package vote

import (
	"context"
	"fmt"
	"sync"

	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

// MemoryStore is the in-memory vote store used in development and tests.
// Insert performs the existence check and the append under one lock so
// concurrent duplicate casts resolve to exactly one success, matching the
// database unique constraint.
type MemoryStore struct {
	mu    sync.Mutex
	votes []Vote
	seen  map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]bool)}
}

func contestKey(voterID, electionID, positionID string) string {
	return fmt.Sprintf("%s|%s|%s", voterID, electionID, positionID)
}

func (s *MemoryStore) Insert(ctx context.Context, v Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := contestKey(v.VoterID, v.ElectionID, v.PositionID)
	if s.seen[key] {
		return sentinel.ErrDuplicate
	}
	s.seen[key] = true
	s.votes = append(s.votes, v)
	return nil
}

func (s *MemoryStore) HasVoted(ctx context.Context, voterID, electionID, positionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[contestKey(voterID, electionID, positionID)], nil
}

func (s *MemoryStore) TallyByCandidate(ctx context.Context, electionID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, v := range s.votes {
		if v.ElectionID == electionID {
			counts[v.CandidateID]++
		}
	}
	return counts, nil
}

// All returns a copy of every stored vote, oldest first.
func (s *MemoryStore) All() []Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Vote, len(s.votes))
	copy(out, s.votes)
	return out
}
