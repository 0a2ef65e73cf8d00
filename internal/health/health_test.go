package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLiveness_AlwaysOK(t *testing.T) {
	h := New()

	// Idempotence: repeated calls return the identical payload.
	var payloads []string
	for range 3 {
		req := httptest.NewRequest("GET", "/health", nil)
		rec := httptest.NewRecorder()
		h.Liveness(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		payloads = append(payloads, rec.Body.String())
	}
	for i := 1; i < len(payloads); i++ {
		if payloads[i] != payloads[0] {
			t.Errorf("payload %d differs: %q vs %q", i, payloads[i], payloads[0])
		}
	}

	var res map[string]any
	if err := json.Unmarshal([]byte(payloads[0]), &res); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if res["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", res["status"])
	}
}

func TestReadiness_AllPassing(t *testing.T) {
	h := New(
		Checker{Name: "registry", Check: func(context.Context) error { return nil }},
		Checker{Name: "llm", Check: func(context.Context) error { return nil }},
	)

	req := httptest.NewRequest("GET", "/readyz", nil)
	rec := httptest.NewRecorder()
	h.Readiness(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Checks["registry"] != "ok" || res.Checks["llm"] != "ok" {
		t.Errorf("checks = %v, want both ok", res.Checks)
	}
}

func TestReadiness_FailingChecker(t *testing.T) {
	h := New(
		Checker{Name: "registry", Check: func(context.Context) error {
			return errors.New("connection refused")
		}},
		Checker{Name: "llm", Check: func(context.Context) error { return nil }},
	)

	req := httptest.NewRequest("GET", "/readyz", nil)
	rec := httptest.NewRecorder()
	h.Readiness(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var res struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != "fail" {
		t.Errorf("status = %q, want fail", res.Status)
	}
	if res.Checks["registry"] != "fail: connection refused" {
		t.Errorf("registry check = %q", res.Checks["registry"])
	}
	if res.Checks["llm"] != "ok" {
		t.Errorf("llm check = %q, want ok", res.Checks["llm"])
	}
}

func TestRegister_Routes(t *testing.T) {
	mux := http.NewServeMux()
	New().Register(mux)

	for _, path := range []string{"/health", "/readyz"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}
