package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/healthtrack/backend/internal/middleware"
	"github.com/healthtrack/backend/internal/services"
)

type fixture struct {
	idp      *services.LocalIdentity
	cookies  *middleware.SessionCookies
	sessions *middleware.Sessions
}

func newFixture() fixture {
	idp := services.NewLocalIdentity("test-secret", time.Hour)
	cookies := middleware.NewSessionCookies("session_token", []byte("0123456789abcdef0123456789abcdef"), nil, false, time.Hour)
	return fixture{
		idp:      idp,
		cookies:  cookies,
		sessions: middleware.NewSessions(idp, cookies, zap.NewNop()),
	}
}

// echoUser writes the authenticated uid and email.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(middleware.GetUserID(r.Context()) + "|" + middleware.GetUserEmail(r.Context())))
})

// cookieFor returns the session cookie the codec would set for token.
func (f fixture) cookieFor(t *testing.T, token string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, f.cookies.Set(rec, token))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestRequire(t *testing.T) {
	f := newFixture()
	handler := f.sessions.Require(echoUser)

	token, err := f.idp.IssueToken("uid-1", "a@example.com")
	require.NoError(t, err)

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no credentials",
			prepare:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non-bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid bearer",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantStatus: http.StatusOK,
			wantBody:   "uid-1|a@example.com",
		},
		{
			name:       "invalid bearer",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "valid cookie",
			prepare:    func(r *http.Request) { r.AddCookie(f.cookieFor(t, token)) },
			wantStatus: http.StatusOK,
			wantBody:   "uid-1|a@example.com",
		},
		{
			name: "cookie wins over header",
			prepare: func(r *http.Request) {
				r.AddCookie(f.cookieFor(t, "not-a-jwt"))
				r.Header.Set("Authorization", "Bearer "+token)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "tampered cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session_token", Value: "garbage"}) },
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"message"`)
			}
		})
	}
}

func TestOptional(t *testing.T) {
	f := newFixture()
	handler := f.sessions.Optional(echoUser)

	token, err := f.idp.IssueToken("uid-2", "b@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/public/meals", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "|", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/public/meals", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "|", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/public/meals", nil)
	req.AddCookie(f.cookieFor(t, token))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "uid-2|b@example.com", rec.Body.String())
}
