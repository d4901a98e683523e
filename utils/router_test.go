package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRouter_Health(t *testing.T) {
	r := NewRouter(CORSPolicy{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestNewRouter_CORS(t *testing.T) {
	r := NewRouter(CORSPolicy{Origins: []string{"https://geekhub.app/"}})

	tests := []struct {
		origin string
		want   string
	}{
		{"https://geekhub.app", "https://geekhub.app"},
		{"https://GeekHub.app", "https://GeekHub.app"},
		{"http://localhost:5173", ""},
		{"https://evil.com", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %q: allow-origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestNewRouter_PrivateOriginsOptIn(t *testing.T) {
	r := NewRouter(CORSPolicy{AllowPrivate: true})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected localhost to be allowed when opted in, got %q", got)
	}
}

func TestNewRouter_Preflight(t *testing.T) {
	r := NewRouter(CORSPolicy{AllowPrivate: true})
	r.HandleFunc("/api/library", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight should not reach the handler")
	}).Methods(http.MethodPost, http.MethodOptions)

	req := httptest.NewRequest(http.MethodOptions, "/api/library", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Headers") != "Authorization, Content-Type" {
		t.Fatalf("unexpected allow-headers: %q", rec.Header().Get("Access-Control-Allow-Headers"))
	}
}
