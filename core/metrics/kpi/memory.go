package kpi

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore stores records in memory for testing or lightweight usage.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[string]Record{}}
}

// Add inserts or replaces the record of a run and vehicle.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[r.VehicleID] == nil {
		s.data[r.VehicleID] = map[string]Record{}
	}
	r.Date = r.Date.UTC()
	s.data[r.VehicleID][r.RunID] = r
	return nil
}

// Query returns the records of vehicleID dated within the days of start
// and end, oldest first.
func (s *MemoryStore) Query(vehicleID string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, end = Range(start, end)
	var res []Record
	for _, r := range s.data[vehicleID] {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.Before(res[j].Date)
		}
		return res[i].RunID < res[j].RunID
	})
	return res, nil
}
