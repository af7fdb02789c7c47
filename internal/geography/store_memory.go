package geography

import (
	"context"
	"sort"
	"sync"

	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

// MemoryStore keeps the hierarchy in memory for tests and single-node dev
// runs.
type MemoryStore struct {
	mu             sync.RWMutex
	counties       map[int]County
	constituencies map[string]Constituency
	wards          map[string]Ward
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counties:       make(map[int]County),
		constituencies: make(map[string]Constituency),
		wards:          make(map[string]Ward),
	}
}

// Seed loads reference data. Intended for tests and dev bootstrap only.
func (s *MemoryStore) Seed(counties []County, constituencies []Constituency, wards []Ward) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range counties {
		s.counties[c.ID] = c
	}
	for _, c := range constituencies {
		s.constituencies[c.ID] = c
	}
	for _, w := range wards {
		s.wards[w.ID] = w
	}
}

func (s *MemoryStore) Counties(ctx context.Context) ([]County, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]County, 0, len(s.counties))
	for _, c := range s.counties {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) ConstituenciesByCounty(ctx context.Context, countyID int) ([]Constituency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Constituency
	for _, c := range s.constituencies {
		if c.CountyID == countyID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) WardsByConstituency(ctx context.Context, constituencyID string) ([]Ward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Ward
	for _, w := range s.wards {
		if w.ConstituencyID == constituencyID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetCounty(ctx context.Context, id int) (County, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.counties[id]
	if !ok {
		return County{}, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) GetConstituency(ctx context.Context, id string) (Constituency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.constituencies[id]
	if !ok {
		return Constituency{}, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) GetWard(ctx context.Context, id string) (Ward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wards[id]
	if !ok {
		return Ward{}, sentinel.ErrNotFound
	}
	return w, nil
}

func (s *MemoryStore) FullHierarchy(ctx context.Context) ([]CountyHierarchy, error) {
	counties, err := s.Counties(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CountyHierarchy, 0, len(counties))
	for _, county := range counties {
		ch := CountyHierarchy{County: county}
		constituencies, _ := s.ConstituenciesByCounty(ctx, county.ID)
		for _, c := range constituencies {
			wards, _ := s.WardsByConstituency(ctx, c.ID)
			ch.Constituencies = append(ch.Constituencies, ConstituencyHierarchy{Constituency: c, Wards: wards})
		}
		out = append(out, ch)
	}
	return out, nil
}
