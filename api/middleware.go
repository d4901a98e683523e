package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"geekhub/internal/auth"
	"geekhub/internal/logging"
	"geekhub/internal/metrics"
	"geekhub/models"
)

// Re-export from auth package for handlers that only import api
var GetUserID = auth.GetUserID

var (
	ErrMissingToken = errors.New("authentication required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// providerClaims are the claims the identity provider puts in its access tokens.
type providerClaims struct {
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 access tokens issued by the identity provider.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier builds a verifier for the shared secret. Audience and
// issuer are checked only when non-empty.
func NewTokenVerifier(secret, audience, issuer string) *TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &TokenVerifier{secret: []byte(secret), parser: jwt.NewParser(opts...)}
}

// Verify parses the token and returns the identity it asserts.
func (v *TokenVerifier) Verify(raw string) (auth.Identity, error) {
	claims := &providerClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return auth.Identity{}, errors.Join(ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return auth.Identity{}, ErrInvalidToken
	}
	return auth.Identity{
		UserID:      claims.Subject,
		Email:       claims.Email,
		DisplayName: metadataString(claims.UserMetadata, "display_name", "full_name", "name"),
		AvatarURL:   metadataString(claims.UserMetadata, "avatar_url", "picture"),
	}, nil
}

func metadataString(meta map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := meta[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ProfileStore keeps the profile snapshot shown next to shared entries.
type ProfileStore interface {
	Upsert(ctx context.Context, p models.Profile) error
}

// AuthMiddleware creates middleware that validates bearer tokens and
// refreshes the caller's profile snapshot when the token's claims change.
func AuthMiddleware(verifier *TokenVerifier, profiles ProfileStore) mux.MiddlewareFunc {
	var seen sync.Map // user ID -> auth.Identity last written
	log := logging.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Always allow OPTIONS for CORS
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, ErrMissingToken.Error())
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				log.Debug("rejected token", "error", err)
				writeError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
				return
			}

			if profiles != nil {
				if prev, ok := seen.Load(identity.UserID); !ok || prev.(auth.Identity) != identity {
					if err := profiles.Upsert(r.Context(), profileFromIdentity(identity)); err != nil {
						log.Error("failed to upsert profile", "user", identity.UserID, "error", err)
						writeError(w, http.StatusInternalServerError, "profile unavailable")
						return
					}
					seen.Store(identity.UserID, identity)
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func profileFromIdentity(id auth.Identity) models.Profile {
	p := models.Profile{ID: id.UserID, Email: id.Email}
	if id.DisplayName != "" {
		name := id.DisplayName
		p.DisplayName = &name
	}
	if id.AvatarURL != "" {
		avatar := id.AvatarURL
		p.AvatarURL = &avatar
	}
	return p
}

// extractToken extracts the bearer token from the Authorization header.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestMiddleware logs every request and records its latency under the
// matched route template.
func RequestMiddleware() mux.MiddlewareFunc {
	log := logging.With("component", "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := routeName(r)
			elapsed := time.Since(start)
			metrics.RecordAPIRequest(r.Method, route, rec.status, elapsed)

			level := slogLevelFor(rec.status)
			log.Log(r.Context(), level, "request",
				"method", r.Method, "route", route, "status", rec.status, "duration", elapsed)
		})
	}
}

// routeName returns the matched route template so metrics stay low-cardinality.
func routeName(r *http.Request) string {
	if current := mux.CurrentRoute(r); current != nil {
		if tmpl, err := current.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func slogLevelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	return slog.LevelDebug
}
