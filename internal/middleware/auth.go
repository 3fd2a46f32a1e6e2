package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/healthtrack/backend/internal/models"
	"github.com/healthtrack/backend/internal/services"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserEmailKey contextKey = "userEmail"
)

// TokenVerifier resolves a session token to an identity.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*services.Identity, error)
}

// Sessions authenticates requests from the session cookie or, failing that,
// an "Authorization: Bearer" header.
type Sessions struct {
	verifier TokenVerifier
	cookies  *SessionCookies
	logger   *zap.Logger
}

func NewSessions(verifier TokenVerifier, cookies *SessionCookies, logger *zap.Logger) *Sessions {
	return &Sessions{verifier: verifier, cookies: cookies, logger: logger}
}

// token returns the presented session token. A cookie that fails to decode
// is reported as ErrBadSession rather than falling back to the header.
func (s *Sessions) token(r *http.Request) (string, error) {
	tok, err := s.cookies.Read(r)
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, ErrNoSession) {
		return "", err
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrNoSession
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrNoSession
	}
	return strings.TrimSpace(parts[1]), nil
}

// Require rejects requests without a session (401) or with one that does not
// verify (403).
func (s *Sessions) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, err := s.token(r)
		if errors.Is(err, ErrNoSession) {
			writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authentication required"))
			return
		}
		if err != nil {
			s.logger.Info("rejected session cookie",
				zap.String("request_id", chimw.GetReqID(r.Context())), zap.Error(err))
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Invalid or expired session"))
			return
		}

		id, err := s.verifier.VerifyToken(r.Context(), tok)
		if err != nil {
			s.logger.Info("rejected session token",
				zap.String("request_id", chimw.GetReqID(r.Context())), zap.Error(err))
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Invalid or expired session"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// Optional attaches the identity when a valid session is presented and
// otherwise passes the request through untouched.
func (s *Sessions) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, err := s.token(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		id, err := s.verifier.VerifyToken(r.Context(), tok)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func WithIdentity(ctx context.Context, id *services.Identity) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id.UID)
	return context.WithValue(ctx, UserEmailKey, id.Email)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

func GetUserEmail(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailKey).(string)
	return email
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
