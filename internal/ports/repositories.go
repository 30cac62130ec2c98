package ports

import (
	"context"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// SessionRepository stores session snapshots until they expire.
// FindByID returns domain.ErrSessionNotFound for unknown ids.
type SessionRepository interface {
	Save(ctx context.Context, s *domain.Session) error
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
