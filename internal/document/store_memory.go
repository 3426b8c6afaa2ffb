package document

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	seq     int64
	order   map[string]int64
}

func NewInMemoryStore() Store {
	return &memoryStore{records: map[string]Record{}, order: map[string]int64{}}
}

func (m *memoryStore) Latest(_ context.Context, learnerID, trainingID string, typ Type) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *Record
	for _, r := range m.records {
		if r.LearnerID == learnerID && r.TrainingID == trainingID && r.Type == typ {
			rr := r
			if best == nil || m.order[rr.ID] > m.order[best.ID] {
				best = &rr
			}
		}
	}
	if best == nil {
		return Record{}, ErrNotFound
	}
	return *best, nil
}

func (m *memoryStore) Insert(_ context.Context, r Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now().Unix()
	m.seq++
	m.order[r.ID] = m.seq
	m.records[r.ID] = r
	return r, nil
}

func (m *memoryStore) ListForLearner(_ context.Context, learnerID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, r := range m.records {
		if r.LearnerID == learnerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] > m.order[out[j].ID] })
	return out, nil
}
