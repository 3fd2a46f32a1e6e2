package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthtrack/backend/internal/middleware"
)

var hashKey = []byte("0123456789abcdef0123456789abcdef")

func TestSessionCookies_SetAndRead(t *testing.T) {
	c := middleware.NewSessionCookies("sid", hashKey, []byte("abcdef0123456789abcdef0123456789"), true, time.Hour)

	rec := httptest.NewRecorder()
	require.NoError(t, c.Set(rec, "opaque-token"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, "sid", ck.Name)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.NotContains(t, ck.Value, "opaque-token", "value is encrypted")
	assert.WithinDuration(t, time.Now().Add(time.Hour), ck.Expires, 5*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(ck)
	tok, err := c.Read(req)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", tok)
}

func TestSessionCookies_ExpiryFollowsToken(t *testing.T) {
	c := middleware.NewSessionCookies("sid", hashKey, nil, false, time.Hour)

	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, c.Set(rec, token))
	ck := rec.Result().Cookies()[0]
	assert.WithinDuration(t, exp, ck.Expires, time.Second)
}

func TestSessionCookies_ReadErrors(t *testing.T) {
	c := middleware.NewSessionCookies("sid", hashKey, nil, false, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := c.Read(req)
	assert.ErrorIs(t, err, middleware.ErrNoSession)

	req.AddCookie(&http.Cookie{Name: "sid", Value: "forged"})
	_, err = c.Read(req)
	assert.ErrorIs(t, err, middleware.ErrBadSession)

	// A cookie signed with another key does not decode.
	other := middleware.NewSessionCookies("sid", []byte("ffffffffffffffffffffffffffffffff"), nil, false, time.Hour)
	rec := httptest.NewRecorder()
	require.NoError(t, other.Set(rec, "tok"))
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	_, err = c.Read(req)
	assert.ErrorIs(t, err, middleware.ErrBadSession)
}

func TestSessionCookies_Clear(t *testing.T) {
	c := middleware.NewSessionCookies("sid", hashKey, nil, false, time.Hour)
	rec := httptest.NewRecorder()
	c.Clear(rec)

	ck := rec.Result().Cookies()[0]
	assert.Equal(t, "sid", ck.Name)
	assert.Empty(t, ck.Value)
	assert.Less(t, ck.MaxAge, 0)
}
