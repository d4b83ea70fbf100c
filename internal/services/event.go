package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"outreachhub/internal/domain"
)

const (
	minTitleLen = 3
	maxTitleLen = 255
)

type eventService struct {
	eventRepo       domain.EventRepository
	participantRepo domain.ParticipantRepository
	recipientRepo   domain.RecipientRepository
	contextTimeout  time.Duration
}

// NewEventService creates an EventService with the given repositories.
func NewEventService(eventRepo domain.EventRepository, participantRepo domain.ParticipantRepository,
	recipientRepo domain.RecipientRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		recipientRepo:   recipientRepo,
		contextTimeout:  timeout,
	}
}

func validateEventFields(title string, status domain.EventStatus, maxParticipants *int) error {
	title = strings.TrimSpace(title)
	if len(title) < minTitleLen || len(title) > maxTitleLen {
		return fmt.Errorf("title must be %d-%d characters: %w", minTitleLen, maxTitleLen, domain.ErrInvalidInput)
	}
	if !status.Valid() {
		return fmt.Errorf("unknown event status %q: %w", status, domain.ErrInvalidInput)
	}
	if maxParticipants != nil && *maxParticipants < 1 {
		return fmt.Errorf("max participants must be at least 1: %w", domain.ErrInvalidInput)
	}
	return nil
}

func (s *eventService) Create(ctx context.Context, userID string, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if userID == "" {
		return fmt.Errorf("event owner is required: %w", domain.ErrInvalidInput)
	}
	if event.Status == "" {
		event.Status = domain.EventStatusDraft
	}
	if err := validateEventFields(event.Title, event.Status, event.MaxParticipants); err != nil {
		return err
	}
	// The future-date rule applies at creation only; an existing event keeps
	// its date once it has passed.
	if !event.EventDate.After(time.Now()) {
		return fmt.Errorf("event date must be in the future: %w", domain.ErrInvalidInput)
	}

	event.UserID = userID
	event.Title = strings.TrimSpace(event.Title)
	event.CurrentParticipants = 0
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	if event.Tags == nil {
		event.Tags = []string{}
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// getOwned fetches the event and enforces ownership. The caller can tell a
// missing event (ErrNotFound) from someone else's event (ErrForbidden).
func (s *eventService) getOwned(ctx context.Context, id, userID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id, userID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.getOwned(ctx, id, userID)
}

func (s *eventService) List(ctx context.Context, userID string, filter domain.EventListFilter) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("unknown event status %q: %w", *filter.Status, domain.ErrInvalidInput)
	}
	events, total, err := s.eventRepo.ListByUserID(ctx, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

func (s *eventService) Update(ctx context.Context, id, userID string, in domain.EventUpdateInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := validateEventFields(in.Title, in.Status, in.MaxParticipants); err != nil {
		return nil, err
	}
	// Only a changed date must lie in the future; a past event stays
	// updatable so it can still be marked completed.
	if !in.EventDate.Equal(current.EventDate) && !in.EventDate.After(time.Now()) {
		return nil, fmt.Errorf("event date must be in the future: %w", domain.ErrInvalidInput)
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Tags == nil {
		in.Tags = []string{}
	}
	updated, err := s.eventRepo.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

func (s *eventService) Delete(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// AddParticipant upserts the junction row and refreshes the derived
// participant counter. The recipient must belong to the same owner.
func (s *eventService) AddParticipant(ctx context.Context, eventID, userID, recipientID string, status domain.ParticipantStatus) (*domain.EventParticipant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if status == "" {
		status = domain.ParticipantStatusInvited
	}
	if !status.Valid() {
		return nil, fmt.Errorf("unknown participant status %q: %w", status, domain.ErrInvalidInput)
	}
	if _, err := s.getOwned(ctx, eventID, userID); err != nil {
		return nil, err
	}
	recipient, err := s.recipientRepo.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	if recipient.UserID != userID {
		return nil, domain.ErrForbidden
	}

	participant, err := s.participantRepo.Upsert(ctx, eventID, recipientID, status)
	if err != nil {
		return nil, fmt.Errorf("add participant: %w", err)
	}
	if _, err := s.participantRepo.RecountParticipants(ctx, eventID); err != nil {
		return nil, fmt.Errorf("recount participants: %w", err)
	}
	return participant, nil
}

func (s *eventService) RemoveParticipant(ctx context.Context, eventID, userID, recipientID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwned(ctx, eventID, userID); err != nil {
		return err
	}
	if err := s.participantRepo.Remove(ctx, eventID, recipientID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove participant: %w", err)
	}
	if _, err := s.participantRepo.RecountParticipants(ctx, eventID); err != nil {
		return fmt.Errorf("recount participants: %w", err)
	}
	return nil
}

func (s *eventService) ListParticipants(ctx context.Context, eventID, userID string) ([]*domain.EventParticipant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwned(ctx, eventID, userID); err != nil {
		return nil, err
	}
	participants, err := s.participantRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return participants, nil
}

func (s *eventService) Search(ctx context.Context, userID, term string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("search term is required: %w", domain.ErrInvalidInput)
	}
	events, err := s.eventRepo.Search(ctx, userID, term)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return events, nil
}

func (s *eventService) GetUpcoming(ctx context.Context, userID string, limit int) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if limit < 1 {
		limit = 10
	}
	events, err := s.eventRepo.ListUpcoming(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

func (s *eventService) GetStats(ctx context.Context, userID string) (*domain.EventStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	stats, err := s.eventRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get event stats: %w", err)
	}
	return stats, nil
}
