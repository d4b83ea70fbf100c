package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"outreachhub/internal/domain"
)

type recipientService struct {
	recipientRepo  domain.RecipientRepository
	contextTimeout time.Duration
}

// NewRecipientService creates a RecipientService with the given repository.
func NewRecipientService(recipientRepo domain.RecipientRepository, timeout time.Duration) domain.RecipientService {
	return &recipientService{
		recipientRepo:  recipientRepo,
		contextTimeout: timeout,
	}
}

func (s *recipientService) Create(ctx context.Context, userID string, rec *domain.Recipient) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	rec.Email = strings.TrimSpace(rec.Email)
	if !emailRegexp.MatchString(rec.Email) {
		return fmt.Errorf("invalid email format: %w", domain.ErrInvalidInput)
	}
	exists, err := s.recipientRepo.ExistsByEmail(ctx, userID, rec.Email, "")
	if err != nil {
		return fmt.Errorf("check recipient email: %w", err)
	}
	if exists {
		return domain.ErrDuplicateEmail
	}

	rec.UserID = userID
	rec.IsActive = true
	rec.OptOut = false
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if err := s.recipientRepo.Create(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("create recipient: %w", err)
	}
	return nil
}

// BulkCreate imports a batch in one transaction. Rows with an email already
// in the owner's directory are skipped silently; any other failure rolls the
// whole batch back.
func (s *recipientService) BulkCreate(ctx context.Context, userID string, recipients []*domain.Recipient) (*domain.BulkCreateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients to import: %w", domain.ErrInvalidInput)
	}
	now := time.Now()
	for _, rec := range recipients {
		rec.Email = strings.TrimSpace(rec.Email)
		if !emailRegexp.MatchString(rec.Email) {
			return nil, fmt.Errorf("invalid email %q: %w", rec.Email, domain.ErrInvalidInput)
		}
		rec.IsActive = true
		rec.OptOut = false
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
	}
	result, err := s.recipientRepo.BulkCreate(ctx, userID, recipients)
	if err != nil {
		return nil, fmt.Errorf("bulk create recipients: %w", err)
	}
	return result, nil
}

func (s *recipientService) getOwned(ctx context.Context, id, userID string) (*domain.Recipient, error) {
	rec, err := s.recipientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	if rec.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return rec, nil
}

func (s *recipientService) GetByID(ctx context.Context, id, userID string) (*domain.Recipient, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.getOwned(ctx, id, userID)
}

func (s *recipientService) List(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.Recipient, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	recipients, total, err := s.recipientRepo.List(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipients: %w", err)
	}
	return recipients, total, nil
}

func (s *recipientService) Update(ctx context.Context, id, userID string, in domain.RecipientUpdateInput) (*domain.Recipient, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	in.Email = strings.TrimSpace(in.Email)
	if !emailRegexp.MatchString(in.Email) {
		return nil, fmt.Errorf("invalid email format: %w", domain.ErrInvalidInput)
	}
	// Email change: re-check uniqueness against the owner's other recipients.
	if in.Email != current.Email {
		exists, err := s.recipientRepo.ExistsByEmail(ctx, userID, in.Email, id)
		if err != nil {
			return nil, fmt.Errorf("check recipient email: %w", err)
		}
		if exists {
			return nil, domain.ErrDuplicateEmail
		}
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	updated, err := s.recipientRepo.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("update recipient: %w", err)
	}
	return updated, nil
}

func (s *recipientService) Delete(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.recipientRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete recipient: %w", err)
	}
	return nil
}

// OptOut suppresses future message eligibility without touching is_active.
func (s *recipientService) OptOut(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	now := time.Now()
	if err := s.recipientRepo.SetOptOut(ctx, id, true, &now); err != nil {
		return fmt.Errorf("opt out recipient: %w", err)
	}
	return nil
}

func (s *recipientService) OptIn(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.recipientRepo.SetOptOut(ctx, id, false, nil); err != nil {
		return fmt.Errorf("opt in recipient: %w", err)
	}
	return nil
}

func (s *recipientService) Search(ctx context.Context, userID, term string) ([]*domain.Recipient, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("search term is required: %w", domain.ErrInvalidInput)
	}
	recipients, err := s.recipientRepo.Search(ctx, userID, term)
	if err != nil {
		return nil, fmt.Errorf("search recipients: %w", err)
	}
	return recipients, nil
}

func (s *recipientService) GetAllTags(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tags, err := s.recipientRepo.ListTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list recipient tags: %w", err)
	}
	return tags, nil
}

func (s *recipientService) GetStats(ctx context.Context, userID string) (*domain.RecipientStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	stats, err := s.recipientRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get recipient stats: %w", err)
	}
	return stats, nil
}
