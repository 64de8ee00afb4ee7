package services

import (
	"context"
	"testing"
	"time"

	"duo-journal-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newUserService() (*UserService, *fakeUsers, *fakeResets) {
	users := newFakeUsers()
	resets := newFakeResets()
	return NewUserService(users, resets, "test-secret", time.Hour), users, resets
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newUserService()
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterRequest{Name: " Ana ", Email: "Ana@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "Ana", session.User.Name)
	require.Equal(t, "ana@example.com", session.User.Email)
	require.NotEqual(t, "secret1", session.User.PasswordHash)

	userID, err := svc.ValidateJWT(session.Token)
	require.NoError(t, err)
	require.Equal(t, session.User.ID, userID)

	login, err := svc.Login(ctx, LoginRequest{Email: "ANA@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "", Email: "a@b.co", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Ana", Email: "not-an-email", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Ana", Email: "a@b.co", Password: "123"})
	require.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Ana", Email: "a@b.co", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterRequest{Name: "Ana", Email: "A@B.co", Password: "secret1"})
	require.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestValidateJWTRejectsForeignTokens(t *testing.T) {
	svc, _, _ := newUserService()

	other := NewUserService(nil, nil, "other-secret", time.Hour)
	token, err := other.GenerateJWT(7)
	require.NoError(t, err)
	_, err = svc.ValidateJWT(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 7})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateJWT(unsigned)
	require.ErrorIs(t, err, ErrInvalidToken)

	svc.now = fixedClock(time.Now().AddDate(0, 0, -jwtExpDays-1))
	expired, err := svc.GenerateJWT(7)
	require.NoError(t, err)
	_, err = svc.ValidateJWT(expired)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordReset(t *testing.T) {
	svc, _, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	reset, err := svc.RequestPasswordReset(ctx, "ana@example.com")
	require.NoError(t, err)

	require.ErrorIs(t, svc.ResetPassword(ctx, reset.Token, "123"), ErrWeakPassword)
	require.NoError(t, svc.ResetPassword(ctx, reset.Token, "newsecret"))
	require.ErrorIs(t, svc.ResetPassword(ctx, reset.Token, "another1"), ErrResetExpired)

	_, err = svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "newsecret"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordResetExpired(t *testing.T) {
	svc, _, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = fixedClock(start)
	reset, err := svc.RequestPasswordReset(ctx, "ana@example.com")
	require.NoError(t, err)

	svc.now = fixedClock(start.Add(2 * time.Hour))
	require.ErrorIs(t, svc.ResetPassword(ctx, reset.Token, "newsecret"), ErrResetExpired)
	require.ErrorIs(t, svc.ResetPassword(ctx, "not-a-token", "newsecret"), ErrResetExpired)

	_, err = svc.RequestPasswordReset(ctx, "nobody@example.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdatePushToken(t *testing.T) {
	svc, users, _ := newUserService()
	ctx := context.Background()
	ana := users.add("Ana", 0)

	require.NoError(t, svc.UpdatePushToken(ctx, ana.ID, " device-1 "))
	u := mustUser(t, users, ana.ID)
	require.NotNil(t, u.PushToken)
	require.Equal(t, "device-1", *u.PushToken)

	require.NoError(t, svc.UpdatePushToken(ctx, ana.ID, ""))
	require.Nil(t, mustUser(t, users, ana.ID).PushToken)
}
