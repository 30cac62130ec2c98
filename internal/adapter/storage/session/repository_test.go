package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/mocks"
)

func TestRepository_SaveFind(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := mocks.NewMockCache()
	repo := NewRepository(cache, "kpi:", 2*time.Hour, zap.NewNop())
	s := &domain.Session{
		ID:         "abc",
		WeekPolicy: "shifted:2",
		Registry:   []domain.Outlet{{ID: "O1", DSO: "A"}},
		Events:     []domain.ScanEvent{{OutletID: "O1", Timestamp: "2024-01-15", Week: 3}},
	}

	// Act
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.FindByID(ctx, "abc")

	// Assert
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.WeekPolicy != "shifted:2" || len(got.Registry) != 1 || got.Events[0].Week != 3 {
		t.Errorf("unexpected session %+v", got)
	}
	if cache.TTLs["kpi:abc"] != 2*time.Hour {
		t.Errorf("expected ttl 2h, got %v", cache.TTLs["kpi:abc"])
	}
}

func TestRepository_NotFound(t *testing.T) {
	repo := NewRepository(mocks.NewMockCache(), "kpi:", time.Hour, zap.NewNop())

	if _, err := repo.FindByID(context.Background(), "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on delete, got %v", err)
	}
}

func TestRepository_CacheFailure(t *testing.T) {
	cache := mocks.NewMockCache()
	cache.GetFunc = func(ctx context.Context, key string) (string, error) {
		return "", errors.New("circuit breaker is open")
	}
	repo := NewRepository(cache, "kpi:", time.Hour, zap.NewNop())

	_, err := repo.FindByID(context.Background(), "abc")

	if err == nil || errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected store failure, got %v", err)
	}
}
