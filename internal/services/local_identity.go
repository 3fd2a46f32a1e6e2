package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LocalIdentity is an in-process identity provider for local development and
// tests. Users live in memory; session tokens are HS256 JWTs.
type LocalIdentity struct {
	mu      sync.RWMutex
	users   map[string]*localUser // uid -> user
	byEmail map[string]string     // lower(email) -> uid

	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

type localUser struct {
	Identity
	PasswordHash string
	Disabled     bool
}

func NewLocalIdentity(secret string, tokenTTL time.Duration) *LocalIdentity {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &LocalIdentity{
		users:    make(map[string]*localUser),
		byEmail:  make(map[string]string),
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

func (s *LocalIdentity) CreateUser(ctx context.Context, email, password, displayName string) (*Identity, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[key]; exists {
		return nil, ErrEmailExists
	}

	u := &localUser{
		Identity: Identity{
			UID:         uuid.New().String(),
			Email:       strings.TrimSpace(email),
			DisplayName: displayName,
		},
		PasswordHash: string(hashedPassword),
	}
	s.users[u.UID] = u
	s.byEmail[key] = u.UID

	id := u.Identity
	return &id, nil
}

func (s *LocalIdentity) DeleteUser(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.users[uid]
	if !exists {
		return ErrIdentityNotFound
	}
	delete(s.byEmail, strings.ToLower(u.Email))
	delete(s.users, uid)
	return nil
}

func (s *LocalIdentity) GetUser(ctx context.Context, uid string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.users[uid]
	if !exists {
		return nil, ErrIdentityNotFound
	}
	id := u.Identity
	return &id, nil
}

func (s *LocalIdentity) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.users[uid]
	if !exists {
		return ErrIdentityNotFound
	}
	u.DisplayName = displayName
	return nil
}

// SetDisabled blocks or unblocks password sign-in for a user.
func (s *LocalIdentity) SetDisabled(uid string, disabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.users[uid]
	if !exists {
		return ErrIdentityNotFound
	}
	u.Disabled = disabled
	return nil
}

// Count returns the number of registered identities.
func (s *LocalIdentity) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *LocalIdentity) PasswordSignInEnabled() bool { return len(s.secret) > 0 }

func (s *LocalIdentity) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	if !s.PasswordSignInEnabled() {
		return nil, ErrSignInNotConfigured
	}

	s.mu.RLock()
	uid, exists := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	var u localUser
	if exists {
		u = *s.users[uid]
	}
	s.mu.RUnlock()

	if !exists {
		return nil, ErrEmailNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}
	if u.Disabled {
		return nil, ErrUserDisabled
	}

	token, err := s.IssueToken(u.UID, u.Email)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Identity: u.Identity, IDToken: token}, nil
}

// IssueToken signs a session token for uid. It is also what federated login
// clients present in local mode.
func (s *LocalIdentity) IssueToken(uid, email string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": uid,
		"email":   email,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *LocalIdentity) VerifyToken(ctx context.Context, tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	uid, ok := claims["user_id"].(string)
	if !ok || uid == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	return &Identity{UID: uid, Email: email}, nil
}
