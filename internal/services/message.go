package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"outreachhub/internal/domain"
)

type messageService struct {
	messageRepo    domain.MessageRepository
	recipientRepo  domain.RecipientRepository
	contextTimeout time.Duration
}

// NewMessageService creates a MessageService with the given repositories.
func NewMessageService(messageRepo domain.MessageRepository, recipientRepo domain.RecipientRepository,
	timeout time.Duration) domain.MessageService {
	return &messageService{
		messageRepo:    messageRepo,
		recipientRepo:  recipientRepo,
		contextTimeout: timeout,
	}
}

func (s *messageService) Create(ctx context.Context, userID string, m *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("subject is required: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(m.Content) == "" {
		return fmt.Errorf("content is required: %w", domain.ErrInvalidInput)
	}
	if m.MessageType == "" {
		m.MessageType = domain.MessageTypeEmail
	}
	if !m.MessageType.Valid() {
		return fmt.Errorf("unknown message type %q: %w", m.MessageType, domain.ErrInvalidInput)
	}
	if m.Status == "" {
		m.Status = domain.MessageStatusDraft
	}
	if !m.Status.Valid() {
		return fmt.Errorf("unknown message status %q: %w", m.Status, domain.ErrInvalidInput)
	}
	if m.ScheduledAt != nil && !m.ScheduledAt.After(time.Now()) {
		return fmt.Errorf("scheduled time must be in the future: %w", domain.ErrInvalidInput)
	}

	m.UserID = userID
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	if err := s.messageRepo.Create(ctx, m); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (s *messageService) getOwned(ctx context.Context, id, userID string) (*domain.Message, error) {
	m, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	if m.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return m, nil
}

func (s *messageService) GetByID(ctx context.Context, id, userID string) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.getOwned(ctx, id, userID)
}

func (s *messageService) List(ctx context.Context, userID string, filter domain.MessageListFilter) ([]*domain.Message, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("unknown message status %q: %w", *filter.Status, domain.ErrInvalidInput)
	}
	messages, total, err := s.messageRepo.ListByUserID(ctx, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	return messages, total, nil
}

// Update replaces the mutable fields. A sent message is immutable.
func (s *messageService) Update(ctx context.Context, id, userID string, in domain.MessageUpdateInput) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.MessageStatusSent {
		return nil, domain.ErrCannotModifySent
	}
	if strings.TrimSpace(in.Subject) == "" {
		return nil, fmt.Errorf("subject is required: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("content is required: %w", domain.ErrInvalidInput)
	}
	if !in.MessageType.Valid() {
		return nil, fmt.Errorf("unknown message type %q: %w", in.MessageType, domain.ErrInvalidInput)
	}
	if in.ScheduledAt != nil && !in.ScheduledAt.After(time.Now()) {
		return nil, fmt.Errorf("scheduled time must be in the future: %w", domain.ErrInvalidInput)
	}
	updated, err := s.messageRepo.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update message: %w", err)
	}
	return updated, nil
}

// Delete removes a message. A message mid-send cannot be deleted.
func (s *messageService) Delete(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	if current.Status == domain.MessageStatusSending {
		return domain.ErrCannotDeleteSending
	}
	if err := s.messageRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// Schedule sets a future send time. Allowed from any pre-send state.
func (s *messageService) Schedule(ctx context.Context, id, userID string, scheduledAt time.Time) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	switch current.Status {
	case domain.MessageStatusSent, domain.MessageStatusSending:
		return nil, domain.ErrAlreadySent
	}
	if !scheduledAt.After(time.Now()) {
		return nil, fmt.Errorf("scheduled time must be in the future: %w", domain.ErrInvalidInput)
	}
	if err := s.messageRepo.UpdateStatus(ctx, id, domain.MessageStatusScheduled, &scheduledAt); err != nil {
		return nil, fmt.Errorf("schedule message: %w", err)
	}
	current.Status = domain.MessageStatusScheduled
	current.ScheduledAt = &scheduledAt
	return current, nil
}

// Send dispatches the message to the outbox: one atomic batch that snapshots
// each recipient's email into a pending MessageSend row and marks the message
// sent. No transport delivery happens here; an external worker advances the
// per-recipient status via UpdateSendStatus.
func (s *messageService) Send(ctx context.Context, id, userID string, recipientIDs []string) (*domain.Message, []*domain.MessageSend, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	switch current.Status {
	case domain.MessageStatusDraft, domain.MessageStatusScheduled:
		// Sendable.
	case domain.MessageStatusSent, domain.MessageStatusSending:
		return nil, nil, domain.ErrAlreadySent
	default:
		return nil, nil, fmt.Errorf("message is %s: %w", current.Status, domain.ErrInvalidState)
	}
	if len(recipientIDs) == 0 {
		return nil, nil, fmt.Errorf("at least one recipient is required: %w", domain.ErrInvalidInput)
	}
	// Recipients must belong to the sender; a single foreign ID fails the batch.
	for _, recipientID := range recipientIDs {
		rec, err := s.recipientRepo.GetByID(ctx, recipientID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, nil, fmt.Errorf("recipient %s: %w", recipientID, domain.ErrNotFound)
			}
			return nil, nil, fmt.Errorf("get recipient: %w", err)
		}
		if rec.UserID != userID {
			return nil, nil, domain.ErrForbidden
		}
	}

	sentAt := time.Now()
	sends, err := s.messageRepo.Send(ctx, id, recipientIDs, sentAt)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("send message: %w", err)
	}

	current.Status = domain.MessageStatusSent
	current.SentAt = &sentAt
	current.TotalRecipients = len(recipientIDs)
	return current, sends, nil
}

func (s *messageService) ListSends(ctx context.Context, messageID, userID string) ([]*domain.MessageSend, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwned(ctx, messageID, userID); err != nil {
		return nil, err
	}
	sends, err := s.messageRepo.ListSends(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("list sends: %w", err)
	}
	return sends, nil
}

// UpdateSendStatus is the callback surface for an external delivery worker.
// The send must belong to one of the caller's messages.
func (s *messageService) UpdateSendStatus(ctx context.Context, sendID, userID string, status domain.SendStatus, errorMessage *string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !status.Valid() {
		return fmt.Errorf("unknown send status %q: %w", status, domain.ErrInvalidInput)
	}
	send, err := s.messageRepo.GetSendByID(ctx, sendID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get send: %w", err)
	}
	if _, err := s.getOwned(ctx, send.MessageID, userID); err != nil {
		return err
	}
	if err := s.messageRepo.UpdateSendStatus(ctx, sendID, status, errorMessage, time.Now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update send status: %w", err)
	}
	return nil
}

func (s *messageService) GetStats(ctx context.Context, userID string) (*domain.MessageStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	stats, err := s.messageRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get message stats: %w", err)
	}
	return stats, nil
}
