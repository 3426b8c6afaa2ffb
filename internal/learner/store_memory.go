package learner

import (
	"context"
	"sync"
	"time"
)

// memoryStore backs tests and offline/dev mode.
type memoryStore struct {
	mu        sync.RWMutex
	profiles  map[string]Profile
	companies map[string]Company
	trainings map[string]Training
}

func NewInMemoryStore() Store {
	return &memoryStore{
		profiles:  map[string]Profile{},
		companies: map[string]Company{},
		trainings: map[string]Training{},
	}
}

func (m *memoryStore) GetProfile(_ context.Context, id string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) GetProfileByEmail(_ context.Context, email string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.Email == email && !p.Deleted {
			return p, nil
		}
	}
	return Profile{}, ErrNotFound
}

func (m *memoryStore) PutProfile(_ context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().Unix()
	if prev, ok := m.profiles[p.ID]; ok {
		p.CreatedAt = prev.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.profiles[p.ID] = p
	return nil
}

func (m *memoryStore) UpdateProfile(_ context.Context, id string, patch Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return ErrNotFound
	}
	if patch.QuestionnaireCompleted != nil {
		p.QuestionnaireCompleted = *patch.QuestionnaireCompleted
	}
	if patch.InternalRulesAcknowledged != nil {
		p.InternalRulesAcknowledged = *patch.InternalRulesAcknowledged
	}
	if patch.InitialEvaluationCompleted != nil {
		p.InitialEvaluationCompleted = *patch.InitialEvaluationCompleted
	}
	if patch.FinalEvaluationCompleted != nil {
		p.FinalEvaluationCompleted = *patch.FinalEvaluationCompleted
	}
	if patch.SatisfactionCompleted != nil {
		p.SatisfactionCompleted = *patch.SatisfactionCompleted
	}
	if patch.HasSignedAgreement != nil {
		p.HasSignedAgreement = *patch.HasSignedAgreement
	}
	if patch.HasSignedAttendance != nil {
		p.HasSignedAttendance = *patch.HasSignedAttendance
	}
	if patch.HasSignedCertificate != nil {
		p.HasSignedCertificate = *patch.HasSignedCertificate
	}
	if patch.InitialScore != nil {
		v := *patch.InitialScore
		p.InitialScore = &v
	}
	if patch.FinalScore != nil {
		v := *patch.FinalScore
		p.FinalScore = &v
	}
	if patch.Agreement != nil {
		p.Agreement = *patch.Agreement
	}
	if patch.Attendance != nil {
		p.Attendance = *patch.Attendance
	}
	if patch.Certificate != nil {
		p.Certificate = *patch.Certificate
	}
	p.UpdatedAt = time.Now().Unix()
	m.profiles[id] = p
	return nil
}

func (m *memoryStore) ListProfiles(_ context.Context, opts ListOpts) ([]Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Profile
	for _, p := range m.profiles {
		if p.Deleted {
			continue
		}
		if opts.TrainingID != "" && p.TrainingID != opts.TrainingID {
			continue
		}
		if opts.CompanyID != "" && p.CompanyID != opts.CompanyID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryStore) GetCompany(_ context.Context, id string) (Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return c, nil
}

func (m *memoryStore) PutCompany(_ context.Context, c Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Status == "" {
		c.Status = "pending"
	}
	m.companies[c.ID] = c
	return nil
}

func (m *memoryStore) SetCompanyStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	m.companies[id] = c
	return nil
}

func (m *memoryStore) GetTraining(_ context.Context, id string) (Training, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trainings[id]
	if !ok {
		return Training{}, ErrNotFound
	}
	return t, nil
}

func (m *memoryStore) PutTraining(_ context.Context, t Training) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainings[t.ID] = t
	return nil
}
