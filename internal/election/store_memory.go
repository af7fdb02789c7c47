package election

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

// MemoryStore keeps elections in memory for tests and single-node dev runs.
// Location names come from an optional name resolver so tally output matches
// the postgres joins.
type MemoryStore struct {
	mu         sync.RWMutex
	elections  map[string]Election
	positions  map[string]Position
	candidates map[string]Candidate
	order      []string // election insertion order, newest listed first

	countyNames       map[int]string
	constituencyNames map[string]string
	wardNames         map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		elections:         make(map[string]Election),
		positions:         make(map[string]Position),
		candidates:        make(map[string]Candidate),
		countyNames:       make(map[int]string),
		constituencyNames: make(map[string]string),
		wardNames:         make(map[string]string),
	}
}

// SeedLocationNames registers place names used to annotate tally rows.
func (s *MemoryStore) SeedLocationNames(counties map[int]string, constituencies, wards map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, name := range counties {
		s.countyNames[id] = name
	}
	for id, name := range constituencies {
		s.constituencyNames[id] = name
	}
	for id, name := range wards {
		s.wardNames[id] = name
	}
}

func (s *MemoryStore) ListElections(ctx context.Context) ([]Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Election, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.assemble(s.elections[s.order[i]]))
	}
	return out, nil
}

func (s *MemoryStore) GetElection(ctx context.Context, id string) (Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.elections[id]
	if !ok {
		return Election{}, sentinel.ErrNotFound
	}
	return s.assemble(e), nil
}

// assemble attaches positions and candidates. Callers hold at least a read
// lock.
func (s *MemoryStore) assemble(e Election) Election {
	var positions []Position
	for _, p := range s.positions {
		if p.ElectionID != e.ID {
			continue
		}
		var candidates []Candidate
		for _, c := range s.candidates {
			if c.PositionID == p.ID {
				candidates = append(candidates, c)
			}
		}
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
		p.Candidates = candidates
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].ID < positions[j].ID })
	e.Positions = positions
	return e
}

func (s *MemoryStore) CreateElection(ctx context.Context, e Election) (Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now().UTC()

	for i := range e.Positions {
		p := &e.Positions[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.ElectionID = e.ID
		for j := range p.Candidates {
			c := &p.Candidates[j]
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			c.PositionID = p.ID
			c.ElectionID = e.ID
			s.candidates[c.ID] = *c
		}
		stored := *p
		stored.Candidates = nil
		s.positions[p.ID] = stored
	}

	stored := e
	stored.Positions = nil
	s.elections[e.ID] = stored
	s.order = append(s.order, e.ID)
	return e, nil
}

func (s *MemoryStore) GetCandidate(ctx context.Context, id string) (Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return Candidate{}, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) GetPosition(ctx context.Context, id string) (Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[id]
	if !ok {
		return Position{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) CandidatesWithPosition(ctx context.Context, ids []string) ([]CandidateDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var details []CandidateDetail
	for _, id := range ids {
		c, ok := s.candidates[id]
		if !ok {
			continue
		}
		p, ok := s.positions[c.PositionID]
		if !ok {
			continue
		}
		d := CandidateDetail{Candidate: c, Position: p}
		if p.CountyID != nil {
			if name, ok := s.countyNames[*p.CountyID]; ok {
				d.Location.County = &name
			}
		}
		if p.ConstituencyID != nil {
			if name, ok := s.constituencyNames[*p.ConstituencyID]; ok {
				d.Location.Constituency = &name
			}
		}
		if p.WardID != nil {
			if name, ok := s.wardNames[*p.WardID]; ok {
				d.Location.Ward = &name
			}
		}
		details = append(details, d)
	}
	return details, nil
}
