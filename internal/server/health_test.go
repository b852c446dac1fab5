package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func getHealth(t *testing.T, s *HealthServer, path string) (int, HealthResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return rec.Code, resp
}

func TestHealthNoChecks(t *testing.T) {
	s := NewHealthServer(&HealthConfig{Version: "1.2.3"})

	code, resp := getHealth(t, s, "/health")
	if code != http.StatusOK {
		t.Errorf("status code = %d", code)
	}
	if resp.Status != HealthStatusHealthy {
		t.Errorf("status = %s", resp.Status)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("version = %s", resp.Version)
	}
}

func TestHealthUnhealthyCheck(t *testing.T) {
	s := NewHealthServer(nil)
	s.RegisterCheck("graph", GraphHealthChecker(func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	code, resp := getHealth(t, s, "/health")
	if code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d", code)
	}
	if resp.Status != HealthStatusUnhealthy {
		t.Errorf("status = %s", resp.Status)
	}
	if len(resp.Checks) != 1 || resp.Checks[0].Name != "graph" {
		t.Errorf("checks = %+v", resp.Checks)
	}
}

func TestHealthDegradedVector(t *testing.T) {
	s := NewHealthServer(nil)
	s.RegisterCheck("vector", VectorHealthChecker("diagrams", func(ctx context.Context) error {
		return errors.New("collection missing")
	}))

	code, resp := getHealth(t, s, "/health")
	if code != http.StatusOK {
		t.Errorf("degraded must still return 200, got %d", code)
	}
	if resp.Status != HealthStatusDegraded {
		t.Errorf("status = %s", resp.Status)
	}
	if resp.Checks[0].Details["collection"] != "diagrams" {
		t.Errorf("details = %v", resp.Checks[0].Details)
	}
}

func TestVectorCheckerWithoutProbe(t *testing.T) {
	check := VectorHealthChecker("diagrams", nil)(context.Background())
	if check.Status != HealthStatusHealthy {
		t.Errorf("status = %s", check.Status)
	}
}

func TestTemporalChecker(t *testing.T) {
	ok := TemporalHealthChecker(func(ctx context.Context) error { return nil })(context.Background())
	if ok.Status != HealthStatusHealthy {
		t.Errorf("status = %s", ok.Status)
	}
	bad := TemporalHealthChecker(func(ctx context.Context) error {
		return errors.New("namespace not found")
	})(context.Background())
	if bad.Status != HealthStatusUnhealthy {
		t.Errorf("status = %s", bad.Status)
	}
}

func TestReadyAndLive(t *testing.T) {
	s := NewHealthServer(nil)

	if code, _ := getHealth(t, s, "/ready"); code != http.StatusServiceUnavailable {
		t.Errorf("not-ready status code = %d", code)
	}
	s.SetReady(true)
	if code, _ := getHealth(t, s, "/readyz"); code != http.StatusOK {
		t.Errorf("ready status code = %d", code)
	}

	if code, _ := getHealth(t, s, "/live"); code != http.StatusOK {
		t.Errorf("live status code = %d", code)
	}
	s.SetLive(false)
	if code, _ := getHealth(t, s, "/livez"); code != http.StatusServiceUnavailable {
		t.Errorf("not-live status code = %d", code)
	}
}
