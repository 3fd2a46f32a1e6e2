package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/healthtrack/backend/internal/models"
)

// signInFailsIdentity creates users but never signs them in.
type signInFailsIdentity struct {
	*LocalIdentity
}

func (signInFailsIdentity) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	return nil, errors.New("sign-in backend unavailable")
}

func newAuthFixture(t *testing.T) (*AuthService, *LocalIdentity, *MemoryStore) {
	t.Helper()
	idp := NewLocalIdentity("test-secret", time.Hour)
	store := NewMemoryStore()
	return NewAuthService(idp, store, zap.NewNop()), idp, store
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	svc, idp, store := newAuthFixture(t)

	sess, err := svc.Register(ctx, &models.RegisterRequest{Email: " jane@example.com ", Password: "secret1", Name: " Jane "})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "jane@example.com", sess.Email)
	assert.Equal(t, "Jane", sess.DisplayName)
	assert.Nil(t, sess.PhotoURL)

	doc, err := store.GetUser(ctx, sess.UID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", doc.Name)
	assert.Equal(t, "jane@example.com", doc.Email)
	assert.Empty(t, doc.Trainings)

	_, err = svc.Register(ctx, &models.RegisterRequest{Email: "jane@example.com", Password: "secret2", Name: "J"})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.Equal(t, 1, idp.Count())
}

func TestAuthService_RegisterRollsBackWhenSignInFails(t *testing.T) {
	ctx := context.Background()
	local := NewLocalIdentity("test-secret", time.Hour)
	store := NewMemoryStore()
	svc := NewAuthService(signInFailsIdentity{local}, store, zap.NewNop())

	_, err := svc.Register(ctx, &models.RegisterRequest{Email: "x@example.com", Password: "secret1", Name: "X"})
	assert.ErrorIs(t, err, ErrRegistrationRolledBack)
	assert.Equal(t, 0, local.Count())
}

func TestAuthService_RegisterWithoutSignIn(t *testing.T) {
	ctx := context.Background()
	local := NewLocalIdentity("", time.Hour)
	svc := NewAuthService(local, NewMemoryStore(), zap.NewNop())

	_, err := svc.Register(ctx, &models.RegisterRequest{Email: "x@example.com", Password: "secret1", Name: "X"})
	assert.ErrorIs(t, err, ErrSignInNotConfigured)
	assert.Equal(t, 0, local.Count(), "no identity is created when sign-in is unavailable")
}

func TestAuthService_LoginPreservesDocument(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newAuthFixture(t)

	reg, err := svc.Register(ctx, &models.RegisterRequest{Email: "j@example.com", Password: "secret1", Name: "Janet"})
	require.NoError(t, err)

	profiles := NewProfileService(svc.identity, store, zap.NewNop())
	require.NoError(t, profiles.UpdateProfile(ctx, reg.UID, models.ProfileUpdate{Name: strPtr("Jane")}))
	booking := models.Booking{TrainerID: 1, TrainerName: "T", Date: "2025-01-01", Time: "10:00", BookedAt: "b"}
	require.NoError(t, store.AppendBooking(ctx, reg.UID, booking))

	sess, err := svc.Login(ctx, &models.LoginRequest{Email: "j@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", sess.DisplayName)
	assert.Equal(t, reg.UID, sess.UID)

	doc, err := store.GetUser(ctx, reg.UID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", doc.Name)
	assert.Equal(t, []models.Booking{booking}, doc.Trainings)
}

func TestAuthService_LoginErrors(t *testing.T) {
	ctx := context.Background()
	svc, idp, _ := newAuthFixture(t)

	reg, err := svc.Register(ctx, &models.RegisterRequest{Email: "k@example.com", Password: "secret1", Name: "K"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "missing@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailNotFound)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "k@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidPassword)

	require.NoError(t, idp.SetDisabled(reg.UID, true))
	_, err = svc.Login(ctx, &models.LoginRequest{Email: "k@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserDisabled)
}

func TestAuthService_LoginCreatesMissingDocument(t *testing.T) {
	ctx := context.Background()
	svc, idp, store := newAuthFixture(t)

	created, err := idp.CreateUser(ctx, "m@example.com", "secret1", "Mira")
	require.NoError(t, err)

	sess, err := svc.Login(ctx, &models.LoginRequest{Email: "m@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Mira", sess.DisplayName)

	doc, err := store.GetUser(ctx, created.UID)
	require.NoError(t, err)
	assert.Equal(t, "Mira", doc.Name)
	assert.Equal(t, "m@example.com", doc.Email)
}

func TestAuthService_FederatedLogin(t *testing.T) {
	ctx := context.Background()
	svc, idp, store := newAuthFixture(t)

	created, err := idp.CreateUser(ctx, "g@example.com", "secret1", "")
	require.NoError(t, err)
	workout := models.Workout{Name: "Swim", Duration: 20, Calories: 150, Date: "d"}
	require.NoError(t, store.AppendWorkout(ctx, created.UID, workout))

	tok, err := idp.IssueToken(created.UID, created.Email)
	require.NoError(t, err)

	sess, err := svc.FederatedLogin(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, tok, sess.Token)
	assert.Equal(t, "User", sess.DisplayName)
	assert.Nil(t, sess.PhotoURL)

	doc, err := store.GetUser(ctx, created.UID)
	require.NoError(t, err)
	assert.Equal(t, []models.Workout{workout}, doc.CompletedTrainings, "federated login keeps existing collections")
	assert.Equal(t, "g@example.com", doc.Email)

	_, err = svc.FederatedLogin(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidToken)

	orphan, err := idp.IssueToken("no-such-user", "o@example.com")
	require.NoError(t, err)
	_, err = svc.FederatedLogin(ctx, orphan)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
