package questionnaire

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu        sync.RWMutex
	templates map[string]Template
	responses map[string]Response
	seq       int64 // monotonic tiebreaker for equal timestamps
	order     map[string]int64
}

func NewInMemoryStore() Store {
	return &memoryStore{
		templates: map[string]Template{},
		responses: map[string]Response{},
		order:     map[string]int64{},
	}
}

func (m *memoryStore) ActiveTemplate(_ context.Context, trainingID string, cat Category) (Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *Template
	for _, t := range m.templates {
		if t.TrainingID == trainingID && t.Type == cat && t.IsActive {
			tt := t
			if best == nil || tt.CreatedAt > best.CreatedAt {
				best = &tt
			}
		}
	}
	if best == nil {
		return Template{}, ErrNoActiveTemplate
	}
	return copyTemplate(*best), nil
}

func (m *memoryStore) GetTemplate(_ context.Context, id string) (Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok {
		return Template{}, ErrNotFound
	}
	return copyTemplate(t), nil
}

// copyTemplate detaches the questions slice so callers stripping answer
// keys do not mutate the stored template.
func copyTemplate(t Template) Template {
	qs := make([]Question, len(t.Questions))
	copy(qs, t.Questions)
	t.Questions = qs
	return t
}

func (m *memoryStore) SaveTemplate(_ context.Context, t Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}
	if t.IsActive {
		for id, other := range m.templates {
			if id != t.ID && other.TrainingID == t.TrainingID && other.Type == t.Type && other.IsActive {
				other.IsActive = false
				m.templates[id] = other
			}
		}
	}
	for i := range t.Questions {
		if t.Questions[i].ID == "" {
			t.Questions[i].ID = uuid.NewString()
		}
		t.Questions[i].TemplateID = t.ID
		t.Questions[i].OrderIndex = i
	}
	m.templates[t.ID] = t
	return nil
}

func (m *memoryStore) ListTemplates(_ context.Context, trainingID string) ([]Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Template
	for _, t := range m.templates {
		if t.TrainingID == trainingID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (m *memoryStore) FindResponses(_ context.Context, f ResponseFilter) ([]Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Response
	for _, r := range m.responses {
		if f.LearnerID != "" && r.LearnerID != f.LearnerID {
			continue
		}
		if f.TemplateID != "" && r.TemplateID != f.TemplateID {
			continue
		}
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.FilterSubType && r.SubType != f.SubType {
			continue
		}
		out = append(out, r)
	}
	// most recent first, matching the SQL store
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return m.order[out[i].ID] > m.order[out[j].ID]
	})
	return out, nil
}

func (m *memoryStore) InsertResponse(_ context.Context, r Response) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().Unix()
	r.CreatedAt, r.UpdatedAt = now, now
	m.seq++
	m.order[r.ID] = m.seq
	m.responses[r.ID] = r
	return r, nil
}

func (m *memoryStore) UpdateResponse(_ context.Context, id string, answers map[string]string, score *int) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[id]
	if !ok {
		return Response{}, ErrNotFound
	}
	r.Answers = answers
	r.Score = nil
	if score != nil {
		v := *score
		r.Score = &v
	}
	r.UpdatedAt = time.Now().Unix()
	m.seq++
	m.order[id] = m.seq
	m.responses[id] = r
	return r, nil
}
