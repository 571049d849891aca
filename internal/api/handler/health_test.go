package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Check
		code   int
	}{
		{"all ok", map[string]Check{
			"storage": func(context.Context) error { return nil },
			"backend": func(context.Context) error { return nil },
		}, http.StatusOK},
		{"backend down", map[string]Check{
			"storage": func(context.Context) error { return nil },
			"backend": func(context.Context) error { return errors.New("connection refused") },
		}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/health/ready", NewHealthDependenciesHandler(tt.checks).Readiness)

			rec := get(e, "/health/ready")
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if len(resp.Dependencies) != len(tt.checks) {
				t.Fatalf("expected every dependency reported, got %+v", resp.Dependencies)
			}
		})
	}
}
