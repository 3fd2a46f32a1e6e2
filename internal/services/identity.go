package services

import (
	"context"
	"errors"
)

var (
	ErrEmailExists         = errors.New("email already registered")
	ErrEmailNotFound       = errors.New("no user with this email")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrUserDisabled        = errors.New("user account is disabled")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrSignInNotConfigured = errors.New("password sign-in is not configured")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrIdentityNotFound    = errors.New("identity not found")
)

// Identity is the provider's view of a user.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// SignInResult is returned by a successful password sign-in.
type SignInResult struct {
	Identity
	IDToken string
}

// IdentityProvider issues and verifies user identities and session tokens.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (*Identity, error)
	DeleteUser(ctx context.Context, uid string) error
	GetUser(ctx context.Context, uid string) (*Identity, error)
	UpdateDisplayName(ctx context.Context, uid, displayName string) error

	// VerifyToken checks a session token and returns the identity it proves.
	// Only UID and Email are guaranteed to be populated.
	VerifyToken(ctx context.Context, token string) (*Identity, error)

	// SignInWithPassword verifies credentials and issues a session token.
	SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error)
	PasswordSignInEnabled() bool
}
