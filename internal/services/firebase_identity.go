package services

import (
	"context"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"
)

// FirebaseIdentity is the production IdentityProvider: Firebase Auth for user
// records and ID-token verification, plus the Identity Toolkit REST API for
// password sign-in.
type FirebaseIdentity struct {
	auth   *fbauth.Client
	signIn *PasswordSignInClient
}

func NewFirebaseIdentity(authClient *fbauth.Client, signIn *PasswordSignInClient) *FirebaseIdentity {
	return &FirebaseIdentity{auth: authClient, signIn: signIn}
}

func (f *FirebaseIdentity) CreateUser(ctx context.Context, email, password, displayName string) (*Identity, error) {
	params := (&fbauth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	u, err := f.auth.CreateUser(ctx, params)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return identityFromRecord(u), nil
}

func (f *FirebaseIdentity) DeleteUser(ctx context.Context, uid string) error {
	if err := f.auth.DeleteUser(ctx, uid); err != nil {
		if fbauth.IsUserNotFound(err) {
			return ErrIdentityNotFound
		}
		return err
	}
	return nil
}

func (f *FirebaseIdentity) GetUser(ctx context.Context, uid string) (*Identity, error) {
	u, err := f.auth.GetUser(ctx, uid)
	if err != nil {
		if fbauth.IsUserNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return identityFromRecord(u), nil
}

func (f *FirebaseIdentity) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	_, err := f.auth.UpdateUser(ctx, uid, (&fbauth.UserToUpdate{}).DisplayName(displayName))
	if err != nil {
		if fbauth.IsUserNotFound(err) {
			return ErrIdentityNotFound
		}
		return err
	}
	return nil
}

func (f *FirebaseIdentity) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	tok, err := f.auth.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	email, _ := tok.Claims["email"].(string)
	return &Identity{UID: tok.UID, Email: email}, nil
}

func (f *FirebaseIdentity) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	return f.signIn.SignIn(ctx, email, password)
}

func (f *FirebaseIdentity) PasswordSignInEnabled() bool {
	return f.signIn.Enabled()
}

func identityFromRecord(u *fbauth.UserRecord) *Identity {
	return &Identity{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}
}
