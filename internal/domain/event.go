package domain

import (
	"context"
	"encoding/json"
	"time"
)

// EventStatus is the lifecycle status of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// Valid reports whether s is one of the known event statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusActive, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// Event represents an event owned by a user.
// CurrentParticipants is derived: it is recomputed from the participant rows
// with status confirmed or attended, never written by callers.
// swagger:model Event
type Event struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"user_id"`
	Title                string          `json:"title"`
	Description          *string         `json:"description,omitempty"`
	EventDate            time.Time       `json:"event_date"`
	Location             *string         `json:"location,omitempty"`
	Status               EventStatus     `json:"status"`
	MaxParticipants      *int            `json:"max_participants,omitempty"`
	CurrentParticipants  int             `json:"current_participants"`
	IsPublic             bool            `json:"is_public"`
	RegistrationDeadline *time.Time      `json:"registration_deadline,omitempty"`
	Tags                 []string        `json:"tags"`
	Metadata             json.RawMessage `json:"metadata"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ParticipantStatus is the status of a recipient's relationship to an event.
type ParticipantStatus string

const (
	ParticipantStatusInvited   ParticipantStatus = "invited"
	ParticipantStatusConfirmed ParticipantStatus = "confirmed"
	ParticipantStatusDeclined  ParticipantStatus = "declined"
	ParticipantStatusAttended  ParticipantStatus = "attended"
	ParticipantStatusNoShow    ParticipantStatus = "no_show"
)

// Valid reports whether s is one of the known participant statuses.
func (s ParticipantStatus) Valid() bool {
	switch s {
	case ParticipantStatusInvited, ParticipantStatusConfirmed, ParticipantStatusDeclined,
		ParticipantStatusAttended, ParticipantStatusNoShow:
		return true
	}
	return false
}

// EventParticipant is the junction row between an event and a recipient.
// Unique on (event_id, recipient_id): re-adding updates status and re-stamps
// the invite time instead of duplicating.
// swagger:model EventParticipant
type EventParticipant struct {
	ID          string            `json:"id"`
	EventID     string            `json:"event_id"`
	RecipientID string            `json:"recipient_id"`
	Status      ParticipantStatus `json:"status"`
	InvitedAt   time.Time         `json:"invited_at"`
	RespondedAt *time.Time        `json:"responded_at,omitempty"`
	AttendedAt  *time.Time        `json:"attended_at,omitempty"`
	Notes       *string           `json:"notes,omitempty"`
}

// EventListFilter holds list query options for events.
type EventListFilter struct {
	Status    *EventStatus
	SortBy    string
	SortOrder string
	PaginationParams
}

// EventStats aggregates an owner's events by status.
type EventStats struct {
	Total             int `json:"total"`
	Draft             int `json:"draft"`
	Active            int `json:"active"`
	Completed         int `json:"completed"`
	Cancelled         int `json:"cancelled"`
	Upcoming          int `json:"upcoming"`
	TotalParticipants int `json:"total_participants"`
}

// EventUpdateInput carries the mutable event fields for Update. The whole
// field set replaces the stored row in one statement (full overwrite).
type EventUpdateInput struct {
	Title                string
	Description          *string
	EventDate            time.Time
	Location             *string
	Status               EventStatus
	MaxParticipants      *int
	IsPublic             bool
	RegistrationDeadline *time.Time
	Tags                 []string
	Metadata             json.RawMessage
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByUserID(ctx context.Context, userID string, filter EventListFilter) ([]*Event, int, error)
	Update(ctx context.Context, id string, in EventUpdateInput) (*Event, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, userID, term string) ([]*Event, error)
	ListUpcoming(ctx context.Context, userID string, limit int) ([]*Event, error)
	GetStats(ctx context.Context, userID string) (*EventStats, error)
}

// ParticipantRepository defines the interface for event participant storage.
// Upsert resolves the (event_id, recipient_id) conflict at the database and
// RecountParticipants refreshes the derived counter on the event row.
type ParticipantRepository interface {
	Upsert(ctx context.Context, eventID, recipientID string, status ParticipantStatus) (*EventParticipant, error)
	Remove(ctx context.Context, eventID, recipientID string) error
	ListByEventID(ctx context.Context, eventID string) ([]*EventParticipant, error)
	RecountParticipants(ctx context.Context, eventID string) (int, error)
}

// EventService defines the business logic for events and their participants.
// Every operation takes the authenticated user ID and enforces ownership.
type EventService interface {
	Create(ctx context.Context, userID string, event *Event) error
	GetByID(ctx context.Context, id, userID string) (*Event, error)
	List(ctx context.Context, userID string, filter EventListFilter) ([]*Event, int, error)
	Update(ctx context.Context, id, userID string, in EventUpdateInput) (*Event, error)
	Delete(ctx context.Context, id, userID string) error
	AddParticipant(ctx context.Context, eventID, userID, recipientID string, status ParticipantStatus) (*EventParticipant, error)
	RemoveParticipant(ctx context.Context, eventID, userID, recipientID string) error
	ListParticipants(ctx context.Context, eventID, userID string) ([]*EventParticipant, error)
	Search(ctx context.Context, userID, term string) ([]*Event, error)
	GetUpcoming(ctx context.Context, userID string, limit int) ([]*Event, error)
	GetStats(ctx context.Context, userID string) (*EventStats, error)
}
