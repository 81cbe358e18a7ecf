package incident

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-process reference Store. The mutex around
// check-and-set in Assign provides the conditional write.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Incident
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Incident{}}
}

func (s *MemoryStore) Create(_ context.Context, inc Incident) error {
	s.mu.Lock()
	s.data[inc.ID] = inc
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inc, ok := s.data[id]
	if !ok {
		return Incident{}, ErrNotFound
	}
	return inc, nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Incident, 0, len(s.data))
	for _, inc := range s.data {
		if f.OpenOnly && !inc.Open() {
			continue
		}
		if f.AssignedUnitID != "" && inc.AssignedUnitID != f.AssignedUnitID {
			continue
		}
		res = append(res, inc)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].ReportedAt.Equal(res[j].ReportedAt) {
			return res[i].ReportedAt.Before(res[j].ReportedAt)
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (s *MemoryStore) Assign(_ context.Context, incidentID, unitID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inc, ok := s.data[incidentID]
	if !ok {
		return ErrNotFound
	}
	if !inc.Open() || inc.Assigned() {
		return ErrAlreadyAssigned
	}
	for _, other := range s.data {
		if other.Open() && other.AssignedUnitID == unitID {
			return ErrUnitBusy
		}
	}
	inc.AssignedUnitID = unitID
	inc.AssignedAt = at
	s.data[incidentID] = inc
	return nil
}

func (s *MemoryStore) CloseIncident(_ context.Context, incidentID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inc, ok := s.data[incidentID]
	if !ok {
		return ErrNotFound
	}
	if inc.ClosedAt.IsZero() {
		inc.ClosedAt = at
		s.data[incidentID] = inc
	}
	return nil
}

func (s *MemoryStore) BusyUnits(_ context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	busy := make(map[string]struct{})
	for _, inc := range s.data {
		if inc.Open() && inc.Assigned() {
			busy[inc.AssignedUnitID] = struct{}{}
		}
	}
	return busy, nil
}

func (s *MemoryStore) OpenAssignments(_ context.Context) (map[string][]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	open := make(map[string][]Assignment)
	for _, inc := range s.data {
		if inc.Open() && inc.Assigned() {
			open[inc.AssignedUnitID] = append(open[inc.AssignedUnitID], Assignment{
				IncidentID: inc.ID,
				Target:     inc.Location(),
				AssignedAt: inc.AssignedAt,
			})
		}
	}
	return open, nil
}

func (s *MemoryStore) Close() error { return nil }
