package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/pkg/config"
)

func TestErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"schema", fmt.Errorf("wrapped: %w", &domain.MissingColumnError{Kind: domain.KindScanLog, Column: domain.FieldEventTimestamp}), fiber.StatusUnprocessableEntity},
		{"configuration", &domain.ConfigurationError{Field: "group_by", Value: "region"}, fiber.StatusBadRequest},
		{"row limit", &domain.RowLimitError{Source: "scan.csv", Rows: 10, Limit: 5}, fiber.StatusRequestEntityTooLarge},
		{"not found", domain.ErrSessionNotFound, fiber.StatusNotFound},
		{"fiber error", fiber.NewError(fiber.StatusMethodNotAllowed, "nope"), fiber.StatusMethodNotAllowed},
		{"internal", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestErrorHandler_MissingColumnBody(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/", func(c *fiber.Ctx) error {
		return &domain.MissingColumnError{Kind: domain.KindRegistry, Source: "reg.csv", Column: domain.FieldOutletID, Headers: []string{"Kode"}}
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["column"] != "outlet_id" || body["source"] != "reg.csv" {
		t.Errorf("expected offending column and source in body, got %v", body)
	}
}

func TestCircuitBreaker_IgnoresClientErrors(t *testing.T) {
	// Arrange
	cfg := config.CircuitBreakerConfig{Enabled: true, MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Use(CircuitBreaker(cfg, zap.NewNop()))
	app.Get("/bad", func(c *fiber.Ctx) error { return &domain.ConfigurationError{Field: "weeks"} })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	// Act
	first, _ := app.Test(httptest.NewRequest("GET", "/bad", nil))
	if first.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 while closed, got %d", first.StatusCode)
	}
	for i := 0; i < 2; i++ {
		app.Test(httptest.NewRequest("GET", "/boom", nil))
	}
	resp, _ := app.Test(httptest.NewRequest("GET", "/bad", nil))

	// Assert
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("expected breaker to open after server errors, got %d", resp.StatusCode)
	}
}
