// Package session stores upload session snapshots in a ports.Cache.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/ports"
)

type Repository struct {
	cache  ports.Cache
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

// NewRepository keeps each snapshot under prefix+id for ttl. Saving again
// restarts the ttl.
func NewRepository(cache ports.Cache, prefix string, ttl time.Duration, log *zap.Logger) ports.SessionRepository {
	return &Repository{
		cache:  cache,
		prefix: prefix,
		ttl:    ttl,
		log:    log,
	}
}

func (r *Repository) key(id string) string {
	return r.prefix + id
}

func (r *Repository) Save(ctx context.Context, s *domain.Session) error {
	if s.ID == "" {
		return fmt.Errorf("failed to save session: empty id")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.cache.Set(ctx, r.key(s.ID), data, r.ttl); err != nil {
		r.log.Error("Failed to save session", zap.String("session_id", s.ID), zap.Error(err))
		return fmt.Errorf("failed to save session: %w", err)
	}
	r.log.Debug("Saved session",
		zap.String("session_id", s.ID),
		zap.Int("bytes", len(data)),
		zap.Duration("ttl", r.ttl),
	)
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.cache.Get(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, ports.ErrCacheMiss) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var s domain.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, r.key(id)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
