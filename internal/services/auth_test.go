package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"outreachhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuthService(userRepo *fakeUserRepo, verifier *fakeTokenVerifier, emailService domain.EmailService) domain.AuthService {
	if verifier == nil {
		verifier = &fakeTokenVerifier{tokens: map[string]string{}}
	}
	return NewAuthService(userRepo, &fakeHasher{}, &fakeTokenIssuer{}, verifier,
		time.Hour, emailService, testLogger())
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates active user and returns token", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		emailService := &fakeEmailService{}
		svc := newTestAuthService(userRepo, nil, emailService)

		user, token, err := svc.Register(ctx, "Alice@Example.com", "supersecret", " Alice ", "Ng", "Acme")
		require.NoError(t, err)
		assert.Equal(t, "Alice@Example.com", user.Email)
		assert.Equal(t, "Alice", user.FirstName)
		assert.True(t, user.IsActive)
		assert.Equal(t, "token-for-"+user.ID, token)
		require.Len(t, emailService.sent, 1)
		assert.Equal(t, "Alice@Example.com", emailService.sent[0].Email)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		svc := newTestAuthService(newFakeUserRepo(), nil, nil)

		_, _, err := svc.Register(ctx, "not-an-email", "supersecret", "A", "B", "")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects short password", func(t *testing.T) {
		svc := newTestAuthService(newFakeUserRepo(), nil, nil)

		_, _, err := svc.Register(ctx, "a@example.com", "short", "A", "B", "")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("duplicate email", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		userRepo.add(domain.NewUser("taken@example.com", "h", "s", "A", "B", "", time.Now(), time.Now()))
		svc := newTestAuthService(userRepo, nil, nil)

		_, _, err := svc.Register(ctx, "taken@example.com", "supersecret", "A", "B", "")
		require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})

	t.Run("welcome email failure does not fail registration", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		emailService := &fakeEmailService{sendErr: assert.AnError}
		svc := newTestAuthService(userRepo, nil, emailService)

		_, _, err := svc.Register(ctx, "a@example.com", "supersecret", "A", "B", "")
		require.NoError(t, err)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	newUser := func(active bool) (*fakeUserRepo, *domain.User) {
		userRepo := newFakeUserRepo()
		u := domain.NewUser("alice@example.com", "hashed:salt:supersecret", "salt", "Alice", "Ng", "", time.Now(), time.Now())
		u.IsActive = active
		return userRepo, userRepo.add(u)
	}

	t.Run("success stamps last login", func(t *testing.T) {
		userRepo, u := newUser(true)
		svc := newTestAuthService(userRepo, nil, nil)

		user, token, err := svc.Login(ctx, "alice@example.com", "supersecret")
		require.NoError(t, err)
		assert.Equal(t, u.ID, user.ID)
		assert.Equal(t, "token-for-"+u.ID, token)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc := newTestAuthService(newFakeUserRepo(), nil, nil)

		_, _, err := svc.Login(ctx, "nobody@example.com", "supersecret")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo, _ := newUser(true)
		svc := newTestAuthService(userRepo, nil, nil)

		_, _, err := svc.Login(ctx, "alice@example.com", "wrongpass")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("deactivated account", func(t *testing.T) {
		userRepo, _ := newUser(false)
		svc := newTestAuthService(userRepo, nil, nil)

		_, _, err := svc.Login(ctx, "alice@example.com", "supersecret")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("login stamp failure is not fatal", func(t *testing.T) {
		userRepo, _ := newUser(true)
		userRepo.touchErr = assert.AnError
		svc := newTestAuthService(userRepo, nil, nil)

		user, _, err := svc.Login(ctx, "alice@example.com", "supersecret")
		require.NoError(t, err)
		assert.Nil(t, user.LastLoginAt)
	})
}

func TestAuthService_VerifyToken(t *testing.T) {
	ctx := context.Background()

	setup := func(active bool) (domain.AuthService, *domain.User) {
		userRepo := newFakeUserRepo()
		u := domain.NewUser("alice@example.com", "h", "s", "Alice", "Ng", "", time.Now(), time.Now())
		u.IsActive = active
		userRepo.add(u)
		verifier := &fakeTokenVerifier{tokens: map[string]string{"good-token": u.ID}}
		return newTestAuthService(userRepo, verifier, nil), u
	}

	t.Run("valid token for active user", func(t *testing.T) {
		svc, u := setup(true)

		userID, err := svc.VerifyToken(ctx, "good-token")
		require.NoError(t, err)
		assert.Equal(t, u.ID, userID)
	})

	t.Run("bad token", func(t *testing.T) {
		svc, _ := setup(true)

		_, err := svc.VerifyToken(ctx, "forged")
		require.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("deactivated user loses access even with valid token", func(t *testing.T) {
		svc, _ := setup(false)

		_, err := svc.VerifyToken(ctx, "good-token")
		require.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("deleted user loses access", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		verifier := &fakeTokenVerifier{tokens: map[string]string{"orphan-token": "gone-user"}}
		svc := newTestAuthService(userRepo, verifier, nil)

		_, err := svc.VerifyToken(ctx, "orphan-token")
		require.ErrorIs(t, err, domain.ErrInvalidToken)
	})
}
