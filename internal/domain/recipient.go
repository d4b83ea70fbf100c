package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Recipient is a contact in a user's directory. Email is unique per owner,
// not globally.
// swagger:model Recipient
type Recipient struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Email      string          `json:"email"`
	FirstName  *string         `json:"first_name,omitempty"`
	LastName   *string         `json:"last_name,omitempty"`
	Phone      *string         `json:"phone,omitempty"`
	Company    *string         `json:"company,omitempty"`
	Position   *string         `json:"position,omitempty"`
	Tags       []string        `json:"tags"`
	Notes      *string         `json:"notes,omitempty"`
	IsActive   bool            `json:"is_active"`
	OptOut     bool            `json:"opt_out"`
	OptOutDate *time.Time      `json:"opt_out_date,omitempty"`
	Metadata   json.RawMessage `json:"metadata"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// BulkCreateResult reports the outcome of a bulk import. Skipped counts the
// rows whose email already existed for the owner.
type BulkCreateResult struct {
	Created []*Recipient `json:"created"`
	Skipped int          `json:"skipped"`
}

// RecipientStats aggregates an owner's recipient directory.
type RecipientStats struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	OptedOut    int `json:"opted_out"`
	WithCompany int `json:"with_company"`
}

// RecipientUpdateInput carries the mutable recipient fields for Update.
// The whole field set replaces the stored row in one statement.
type RecipientUpdateInput struct {
	Email     string
	FirstName *string
	LastName  *string
	Phone     *string
	Company   *string
	Position  *string
	Tags      []string
	Notes     *string
	IsActive  bool
	Metadata  json.RawMessage
}

// RecipientRepository defines the interface for recipient storage.
// BulkCreate runs in a single transaction: duplicate emails for the owner
// are skipped, any other failure rolls back the whole batch.
type RecipientRepository interface {
	Create(ctx context.Context, recipient *Recipient) error
	BulkCreate(ctx context.Context, userID string, recipients []*Recipient) (*BulkCreateResult, error)
	GetByID(ctx context.Context, id string) (*Recipient, error)
	ExistsByEmail(ctx context.Context, userID, email, excludeID string) (bool, error)
	List(ctx context.Context, userID string, params PaginationParams) ([]*Recipient, int, error)
	Update(ctx context.Context, id string, in RecipientUpdateInput) (*Recipient, error)
	Delete(ctx context.Context, id string) error
	SetOptOut(ctx context.Context, id string, optOut bool, at *time.Time) error
	Search(ctx context.Context, userID, term string) ([]*Recipient, error)
	ListTags(ctx context.Context, userID string) ([]string, error)
	GetStats(ctx context.Context, userID string) (*RecipientStats, error)
}

// RecipientService defines the business logic for the recipient directory.
type RecipientService interface {
	Create(ctx context.Context, userID string, recipient *Recipient) error
	BulkCreate(ctx context.Context, userID string, recipients []*Recipient) (*BulkCreateResult, error)
	GetByID(ctx context.Context, id, userID string) (*Recipient, error)
	List(ctx context.Context, userID string, params PaginationParams) ([]*Recipient, int, error)
	Update(ctx context.Context, id, userID string, in RecipientUpdateInput) (*Recipient, error)
	Delete(ctx context.Context, id, userID string) error
	OptOut(ctx context.Context, id, userID string) error
	OptIn(ctx context.Context, id, userID string) error
	Search(ctx context.Context, userID, term string) ([]*Recipient, error)
	GetAllTags(ctx context.Context, userID string) ([]string, error)
	GetStats(ctx context.Context, userID string) (*RecipientStats, error)
}
