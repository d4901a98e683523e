package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"geekhub/internal/auth"
	"geekhub/internal/metrics"
	"geekhub/models"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-1",
		"aud":   "authenticated",
		"email": "ana@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]any{
			"full_name":  "Ana",
			"avatar_url": "https://cdn.example.com/ana.png",
		},
	}
}

func TestTokenVerifier_Verify(t *testing.T) {
	verifier := NewTokenVerifier(testSecret, "authenticated", "")

	identity, err := verifier.Verify(signToken(t, jwt.SigningMethodHS256, validClaims()))
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	want := auth.Identity{UserID: "user-1", Email: "ana@example.com", DisplayName: "Ana", AvatarURL: "https://cdn.example.com/ana.png"}
	if identity != want {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestTokenVerifier_Rejects(t *testing.T) {
	verifier := NewTokenVerifier(testSecret, "authenticated", "")

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	noExpiry := validClaims()
	delete(noExpiry, "exp")

	noSubject := validClaims()
	delete(noSubject, "sub")

	wrongAudience := validClaims()
	wrongAudience["aud"] = "anon"

	tests := map[string]string{
		"expired":        signToken(t, jwt.SigningMethodHS256, expired),
		"no expiry":      signToken(t, jwt.SigningMethodHS256, noExpiry),
		"no subject":     signToken(t, jwt.SigningMethodHS256, noSubject),
		"wrong audience": signToken(t, jwt.SigningMethodHS256, wrongAudience),
		"wrong method":   signToken(t, jwt.SigningMethodHS512, validClaims()),
		"garbage":        "not.a.token",
	}
	for name, token := range tests {
		if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

type fakeProfiles struct {
	mu       sync.Mutex
	upserted []models.Profile
	err      error
}

func (f *fakeProfiles) Upsert(_ context.Context, p models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, p)
	return nil
}

func TestAuthMiddleware(t *testing.T) {
	profiles := &fakeProfiles{}
	mw := AuthMiddleware(NewTokenVerifier(testSecret, "", ""), profiles)

	var seenUser string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = GetUserID(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	// Missing token
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Preflight passes through
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/stats", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected OPTIONS to pass through, got %d", rec.Code)
	}

	token := signToken(t, jwt.SigningMethodHS256, validClaims())
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d: %s", i, rec.Code, rec.Body.String())
		}
	}
	if seenUser != "user-1" {
		t.Fatalf("expected user-1 in context, got %q", seenUser)
	}
	if len(profiles.upserted) != 1 {
		t.Fatalf("expected one profile upsert for unchanged claims, got %d", len(profiles.upserted))
	}
	p := profiles.upserted[0]
	if p.ID != "user-1" || p.DisplayName == nil || *p.DisplayName != "Ana" || p.Email != "ana@example.com" {
		t.Fatalf("unexpected profile snapshot: %+v", p)
	}
}

func TestAuthMiddleware_ProfileFailure(t *testing.T) {
	profiles := &fakeProfiles{err: errors.New("db down")}
	handler := AuthMiddleware(NewTokenVerifier(testSecret, "", ""), profiles)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, validClaims()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := extractToken(req); got != tt.want {
			t.Errorf("extractToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestRequestMiddleware_RecordsRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(RequestMiddleware())
	r.HandleFunc("/api/library/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodDelete)

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodDelete, "/api/library/{id}", "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/library/42", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("expected counter to increase by one, got %v -> %v", before, got)
	}
}
