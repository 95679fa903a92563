package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

type sessionKey struct{}

// Authenticator resolves a bearer token into a hospital session
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (entities.Session, error)
}

// WithSession returns a copy of ctx carrying session
func WithSession(ctx context.Context, session entities.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the session stored by RequireSession
func SessionFromContext(ctx context.Context) (entities.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(entities.Session)
	return session, ok && session.Valid()
}

// RequireSession rejects requests without a valid session token.
// EventSource and websocket clients cannot set headers, so a token query parameter is accepted too.
func RequireSession(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeUnauthorized(w, "missing session token")
				return
			}

			session, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if apperrors.IsUnauthorized(err) {
					writeUnauthorized(w, "invalid session")
					return
				}
				observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("Session lookup failed")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadGateway)
				json.NewEncoder(w).Encode(map[string]string{"error": "session backend unavailable"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return r.URL.Query().Get("token")
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
