package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/healthtrack/backend/internal/models"
)

// ErrRegistrationRolledBack means the identity was created but no session
// could be issued for it, so the identity was deleted again.
var ErrRegistrationRolledBack = errors.New("registration rolled back")

// Session is the outcome of a successful registration or login. Token is the
// provider-issued session token to hand to the client.
type Session struct {
	Token       string
	UID         string
	Email       string
	DisplayName string
	PhotoURL    *string
}

type AuthService struct {
	identity IdentityProvider
	users    UserStore
	logger   *zap.Logger
}

func NewAuthService(identity IdentityProvider, users UserStore, logger *zap.Logger) *AuthService {
	return &AuthService{identity: identity, users: users, logger: logger}
}

// Register creates the identity, signs it in and creates its user document.
// If sign-in fails the new identity is deleted.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*Session, error) {
	if !s.identity.PasswordSignInEnabled() {
		return nil, ErrSignInNotConfigured
	}

	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)

	id, err := s.identity.CreateUser(ctx, email, req.Password, name)
	if err != nil {
		return nil, err
	}

	signed, err := s.identity.SignInWithPassword(ctx, email, req.Password)
	if err != nil {
		s.logger.Warn("sign-in after registration failed, deleting identity",
			zap.String("uid", id.UID), zap.Error(err))
		if delErr := s.identity.DeleteUser(ctx, id.UID); delErr != nil {
			s.logger.Error("delete identity after failed registration",
				zap.String("uid", id.UID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("%w: %v", ErrRegistrationRolledBack, err)
	}

	if err := s.users.UpsertProfile(ctx, id.UID, models.ProfileUpdate{Email: &id.Email, Name: &name}); err != nil {
		return nil, fmt.Errorf("create user document: %w", err)
	}

	return &Session{
		Token:       signed.IDToken,
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: name,
	}, nil
}

// Login verifies the password and merges the identity into the user
// document. Profile fields already in the document win over the provider's.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*Session, error) {
	if !s.identity.PasswordSignInEnabled() {
		return nil, ErrSignInNotConfigured
	}

	signed, err := s.identity.SignInWithPassword(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return nil, err
	}

	doc, err := s.users.GetUser(ctx, signed.UID)
	if err != nil && !errors.Is(err, ErrUserDocNotFound) {
		return nil, fmt.Errorf("load user document: %w", err)
	}

	sess := &Session{
		Token:       signed.IDToken,
		UID:         signed.UID,
		Email:       signed.Email,
		DisplayName: signed.DisplayName,
	}
	if signed.PhotoURL != "" {
		photo := signed.PhotoURL
		sess.PhotoURL = &photo
	}
	if doc != nil {
		if doc.Name != "" {
			sess.DisplayName = doc.Name
		}
		if doc.PhotoURL != nil && *doc.PhotoURL != "" {
			sess.PhotoURL = doc.PhotoURL
		}
	}

	upd := models.ProfileUpdate{Email: &sess.Email, PhotoURL: sess.PhotoURL}
	if sess.DisplayName != "" {
		upd.Name = &sess.DisplayName
	}
	if err := s.users.UpsertProfile(ctx, sess.UID, upd); err != nil {
		return nil, fmt.Errorf("update user document: %w", err)
	}

	return sess, nil
}

// FederatedLogin accepts a token issued to the client by the identity
// provider (e.g. Google sign-in) and uses it as the session token.
func (s *AuthService) FederatedLogin(ctx context.Context, idToken string) (*Session, error) {
	verified, err := s.identity.VerifyToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	id, err := s.identity.GetUser(ctx, verified.UID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sess := &Session{
		Token:       idToken,
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
	}
	if sess.DisplayName == "" {
		sess.DisplayName = "User"
	}
	if id.PhotoURL != "" {
		photo := id.PhotoURL
		sess.PhotoURL = &photo
	}

	upd := models.ProfileUpdate{Email: &sess.Email, Name: &sess.DisplayName, PhotoURL: sess.PhotoURL}
	if err := s.users.UpsertProfile(ctx, sess.UID, upd); err != nil {
		return nil, fmt.Errorf("update user document: %w", err)
	}

	return sess, nil
}

// VerifySession resolves a session token to its identity.
func (s *AuthService) VerifySession(ctx context.Context, token string) (*Identity, error) {
	return s.identity.VerifyToken(ctx, token)
}
