package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"outreachhub/internal/domain"
)

const minPasswordLen = 8

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo     domain.UserRepository
	hasher       domain.PasswordHasher
	tokenIssuer  domain.TokenIssuer
	tokenVerify  domain.TokenVerifier
	tokenExpiry  time.Duration
	emailService domain.EmailService
	logger       *slog.Logger
}

// NewAuthService creates an AuthService with the given repository and auth ports.
// emailService may be nil; the welcome email is then skipped.
func NewAuthService(userRepo domain.UserRepository, hasher domain.PasswordHasher,
	tokenIssuer domain.TokenIssuer, tokenVerifier domain.TokenVerifier,
	tokenExpiry time.Duration, emailService domain.EmailService, logger *slog.Logger) domain.AuthService {
	return &authService{
		userRepo:     userRepo,
		hasher:       hasher,
		tokenIssuer:  tokenIssuer,
		tokenVerify:  tokenVerifier,
		tokenExpiry:  tokenExpiry,
		emailService: emailService,
		logger:       logger,
	}
}

// Register creates an account with the email's case preserved as provided.
// The welcome email is best-effort: a send failure is logged, not returned.
func (s *authService) Register(ctx context.Context, email, password, firstName, lastName, companyName string) (*domain.User, string, error) {
	email = strings.TrimSpace(email)
	if !emailRegexp.MatchString(email) {
		return nil, "", fmt.Errorf("invalid email format: %w", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, "", fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, domain.ErrInvalidInput)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := domain.NewUser(email, hash, salt,
		strings.TrimSpace(firstName), strings.TrimSpace(lastName), strings.TrimSpace(companyName), now, now)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, "", domain.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokenIssuer.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	if s.emailService != nil {
		data := &domain.WelcomeMessageEmailData{Email: user.Email, FirstName: user.FirstName}
		if err := s.emailService.SendWelcomeMessage(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "welcome email failed", "email", user.Email, "err", err)
		}
	}
	return user, token, nil
}

// Login returns the same ErrInvalidCredentials whether the email is unknown
// or the password is wrong, to avoid user enumeration.
func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, "", domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokenIssuer.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	// Best-effort login stamp; correctness does not depend on it.
	now := time.Now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to stamp last login", "user_id", user.ID, "err", err)
	} else {
		user.LastLoginAt = &now
	}
	return user, token, nil
}

// VerifyToken validates the signature and expiry, then re-fetches the user
// row so a deactivated or deleted account loses access immediately.
func (s *authService) VerifyToken(ctx context.Context, token string) (string, error) {
	userID, err := s.tokenVerify.Verify(token)
	if err != nil {
		return "", err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidToken
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return "", domain.ErrInvalidToken
	}
	return user.ID, nil
}
