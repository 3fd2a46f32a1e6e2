package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
)

var (
	ErrNoSession  = errors.New("no session cookie")
	ErrBadSession = errors.New("session cookie is invalid")
)

// SessionCookies stores the provider session token in a signed (and,
// with a block key, encrypted) httpOnly cookie.
type SessionCookies struct {
	name   string
	secure bool
	ttl    time.Duration
	codec  *securecookie.SecureCookie
	now    func() time.Time
}

// NewSessionCookies builds the cookie codec. A nil hashKey gets a random key,
// which invalidates cookies on restart.
func NewSessionCookies(name string, hashKey, blockKey []byte, secure bool, ttl time.Duration) *SessionCookies {
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(64)
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}
	codec := securecookie.New(hashKey, blockKey)
	// Token expiry is enforced by the provider; this only bounds cookie replay.
	codec.MaxAge(int((24 * time.Hour).Seconds()))

	return &SessionCookies{
		name:   name,
		secure: secure,
		ttl:    ttl,
		codec:  codec,
		now:    time.Now,
	}
}

func (c *SessionCookies) Name() string { return c.name }

// Set writes the session cookie. It expires with the token when the token
// carries an exp claim, otherwise after the configured TTL.
func (c *SessionCookies) Set(w http.ResponseWriter, token string) error {
	encoded, err := c.codec.Encode(c.name, token)
	if err != nil {
		return err
	}

	expires := c.expiry(token)
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    encoded,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(expires.Sub(c.now()).Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session token carried by the request's cookie.
func (c *SessionCookies) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil || cookie.Value == "" {
		return "", ErrNoSession
	}
	var token string
	if err := c.codec.Decode(c.name, cookie.Value, &token); err != nil {
		return "", ErrBadSession
	}
	return token, nil
}

func (c *SessionCookies) expiry(token string) time.Time {
	fallback := c.now().Add(c.ttl)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return fallback
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil || !exp.After(c.now()) {
		return fallback
	}
	return exp.Time
}
