package store

import (
	"sync"
	"time"

	"github.com/AngelCh415/adinsights/internal/models"
)

// Snapshot is an immutable point-in-time copy of the record set. Nothing
// writes to Records after the snapshot has been published.
type Snapshot struct {
	Records  []models.CampaignRecord
	LoadedAt time.Time
	Version  uint64
}

func (s Snapshot) Len() int { return len(s.Records) }

type MemoryStore struct {
	mu   sync.RWMutex
	snap Snapshot
	prev Snapshot
	byID map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

// Replace swaps the whole snapshot. The input slice is copied so the caller
// may keep using it.
func (s *MemoryStore) Replace(records []models.CampaignRecord, at time.Time) Snapshot {
	cp := make([]models.CampaignRecord, len(records))
	copy(cp, records)
	idx := make(map[string]int, len(cp))
	for i, r := range cp {
		if _, dup := idx[r.ID]; !dup {
			idx[r.ID] = i
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prev = s.snap
	s.snap = Snapshot{Records: cp, LoadedAt: at, Version: s.snap.Version + 1}
	s.byID = idx
	return s.snap
}

func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Previous returns the snapshot that the last Replace superseded; false until
// there have been two loads.
func (s *MemoryStore) Previous() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prev, s.prev.Version > 0
}

// Loaded reports whether at least one Replace happened (an empty snapshot
// still counts).
func (s *MemoryStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Version > 0
}

func (s *MemoryStore) Get(id string) (models.CampaignRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return models.CampaignRecord{}, false
	}
	return s.snap.Records[i], true
}
