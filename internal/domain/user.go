package domain

import (
	"context"
	"time"
)

// User represents a registered account. A user owns events, recipients, and
// messages; ownership is enforced by every service operation.
// swagger:model User
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Salt          string     `json:"-"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	CompanyName   string     `json:"company_name"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewUser returns a new active User with the given fields. ID is set by the
// repository on create.
func NewUser(email, passwordHash, salt, firstName, lastName, companyName string, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
		Salt:         salt,
		FirstName:    firstName,
		LastName:     lastName,
		CompanyName:  companyName,
		IsActive:     true,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
// Expired tokens fail with ErrTokenExpired, anything else with ErrInvalidToken.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash, salt string) error
	SetActive(ctx context.Context, id string, active bool) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// UpdateProfileInput carries the mutable profile fields for UpdateProfile.
// All fields are replaced in one statement (full overwrite, not a patch).
type UpdateProfileInput struct {
	FirstName   string
	LastName    string
	CompanyName string
}

// AuthService defines registration, login, and token verification.
// VerifyToken re-fetches the user row so deactivated or deleted accounts
// lose access immediately, even with an unexpired token.
type AuthService interface {
	Register(ctx context.Context, email, password, firstName, lastName, companyName string) (*User, string, error)
	Login(ctx context.Context, email, password string) (*User, string, error)
	VerifyToken(ctx context.Context, token string) (userID string, err error)
}

// UserService defines profile operations for the authenticated user.
type UserService interface {
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*User, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
