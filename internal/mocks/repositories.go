package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// MockSessionRepository is an in-memory SessionRepository with overrides
type MockSessionRepository struct {
	mu           sync.Mutex
	Sessions     map[string]*domain.Session
	SaveFunc     func(ctx context.Context, s *domain.Session) error
	FindByIDFunc func(ctx context.Context, id string) (*domain.Session, error)
	DeleteFunc   func(ctx context.Context, id string) error
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{Sessions: make(map[string]*domain.Session)}
}

func (m *MockSessionRepository) Save(ctx context.Context, s *domain.Session) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.Sessions[s.ID] = &cp
	return nil
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.Sessions, id)
	return nil
}
