package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/pkg/config"
)

func TestNew_Disabled(t *testing.T) {
	if cb := New("x", config.CircuitBreakerConfig{Enabled: false}, zap.NewNop()); cb != nil {
		t.Error("expected nil breaker when disabled")
	}
}

func TestNew_TripsOnFailureRatio(t *testing.T) {
	// Arrange
	cfg := config.CircuitBreakerConfig{Enabled: true, MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 4}
	cb := New("test", cfg, zap.NewNop())
	fail := func() (interface{}, error) { return nil, errors.New("boom") }
	ok := func() (interface{}, error) { return nil, nil }

	// Act
	cb.Execute(ok)
	cb.Execute(fail)
	cb.Execute(ok)
	stateBelowMin := cb.State()
	cb.Execute(fail)

	// Assert
	if stateBelowMin != gobreaker.StateClosed {
		t.Errorf("expected closed below min requests, got %s", stateBelowMin)
	}
	if cb.State() != gobreaker.StateOpen {
		t.Errorf("expected open at 2/4 failures, got %s", cb.State())
	}
	if _, err := cb.Execute(ok); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open state error, got %v", err)
	}
}
