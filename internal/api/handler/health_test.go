package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestReadiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	cases := []struct {
		name     string
		checks   map[string]Check
		wantCode int
		wantDeps map[string]string
	}{
		{"all up", map[string]Check{"mongodb": ok, "redis": ok}, http.StatusOK, map[string]string{"mongodb": "ok", "redis": "ok"}},
		{"cache disabled", map[string]Check{"mongodb": ok, "redis": nil}, http.StatusOK, map[string]string{"mongodb": "ok", "redis": "disabled"}},
		{"db down", map[string]Check{"mongodb": down, "redis": ok}, http.StatusServiceUnavailable, map[string]string{"mongodb": "unhealthy", "redis": "ok"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(http.MethodGet, "/health/ready", "")
			if err := NewReadinessHandler(tc.checks).Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			for dep, want := range tc.wantDeps {
				if got := resp.Dependencies[dep].Status; got != want {
					t.Fatalf("%s: expected %s, got %s", dep, want, got)
				}
			}
		})
	}
}
