package domain

import (
	"context"
	"encoding/json"
	"time"
)

// MessageType is the delivery channel of a message.
type MessageType string

const (
	MessageTypeEmail    MessageType = "email"
	MessageTypeSMS      MessageType = "sms"
	MessageTypeWhatsApp MessageType = "whatsapp"
	MessageTypePush     MessageType = "push"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeEmail, MessageTypeSMS, MessageTypeWhatsApp, MessageTypePush:
		return true
	}
	return false
}

// MessageStatus is the lifecycle status of a message.
// Transitions: draft -> scheduled -> sending -> sent, draft -> sending -> sent,
// any pre-sent state -> failed.
type MessageStatus string

const (
	MessageStatusDraft     MessageStatus = "draft"
	MessageStatusScheduled MessageStatus = "scheduled"
	MessageStatusSending   MessageStatus = "sending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusFailed    MessageStatus = "failed"
)

// Valid reports whether s is one of the known message statuses.
func (s MessageStatus) Valid() bool {
	switch s {
	case MessageStatusDraft, MessageStatusScheduled, MessageStatusSending,
		MessageStatusSent, MessageStatusFailed:
		return true
	}
	return false
}

// Message is an outreach message owned by a user, optionally tied to an event.
// A sent message is immutable; a sending message cannot be deleted.
// swagger:model Message
type Message struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	EventID         *string         `json:"event_id,omitempty"`
	Subject         string          `json:"subject"`
	Content         string          `json:"content"`
	MessageType     MessageType     `json:"message_type"`
	Status          MessageStatus   `json:"status"`
	ScheduledAt     *time.Time      `json:"scheduled_at,omitempty"`
	SentAt          *time.Time      `json:"sent_at,omitempty"`
	TotalRecipients int             `json:"total_recipients"`
	SuccessfulSends int             `json:"successful_sends"`
	FailedSends     int             `json:"failed_sends"`
	Metadata        json.RawMessage `json:"metadata"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SendStatus is the per-recipient delivery status of one MessageSend row.
// Canonical vocabulary: pending, sent, delivered, read, failed.
type SendStatus string

const (
	SendStatusPending   SendStatus = "pending"
	SendStatusSent      SendStatus = "sent"
	SendStatusDelivered SendStatus = "delivered"
	SendStatusRead      SendStatus = "read"
	SendStatusFailed    SendStatus = "failed"
)

// Valid reports whether s is one of the known send statuses.
func (s SendStatus) Valid() bool {
	switch s {
	case SendStatusPending, SendStatusSent, SendStatusDelivered, SendStatusRead, SendStatusFailed:
		return true
	}
	return false
}

// MessageSend is one per-recipient delivery record, created as a batch when a
// message is sent. RecipientEmail is a snapshot taken at send time so later
// recipient edits do not change delivery history.
// swagger:model MessageSend
type MessageSend struct {
	ID             string     `json:"id"`
	MessageID      string     `json:"message_id"`
	RecipientID    string     `json:"recipient_id"`
	RecipientEmail string     `json:"recipient_email"`
	Status         SendStatus `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MessageListFilter holds list query options for messages.
type MessageListFilter struct {
	Status  *MessageStatus
	EventID *string
	PaginationParams
}

// MessageStats aggregates an owner's messages by status plus send totals.
type MessageStats struct {
	Total           int `json:"total"`
	Draft           int `json:"draft"`
	Scheduled       int `json:"scheduled"`
	Sent            int `json:"sent"`
	Failed          int `json:"failed"`
	SuccessfulSends int `json:"successful_sends"`
	FailedSends     int `json:"failed_sends"`
}

// MessageUpdateInput carries the mutable message fields for Update.
// The whole field set replaces the stored row in one statement.
type MessageUpdateInput struct {
	EventID     *string
	Subject     string
	Content     string
	MessageType MessageType
	ScheduledAt *time.Time
	Metadata    json.RawMessage
}

// MessageRepository defines the interface for message and send storage.
// Send performs the whole dispatch as one transaction: mark the message
// sending, snapshot each recipient's email into a pending MessageSend row,
// then mark the message sent with totals. Any failure rolls everything back.
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	ListByUserID(ctx context.Context, userID string, filter MessageListFilter) ([]*Message, int, error)
	Update(ctx context.Context, id string, in MessageUpdateInput) (*Message, error)
	UpdateStatus(ctx context.Context, id string, status MessageStatus, scheduledAt *time.Time) error
	Delete(ctx context.Context, id string) error
	Send(ctx context.Context, messageID string, recipientIDs []string, sentAt time.Time) ([]*MessageSend, error)
	ListSends(ctx context.Context, messageID string) ([]*MessageSend, error)
	GetSendByID(ctx context.Context, sendID string) (*MessageSend, error)
	UpdateSendStatus(ctx context.Context, sendID string, status SendStatus, errorMessage *string, at time.Time) error
	GetStats(ctx context.Context, userID string) (*MessageStats, error)
}

// MessageService defines the business logic for messages, including the send
// state machine. Sent means dispatched to the outbox; real delivery is a
// separate worker's concern via UpdateSendStatus.
type MessageService interface {
	Create(ctx context.Context, userID string, message *Message) error
	GetByID(ctx context.Context, id, userID string) (*Message, error)
	List(ctx context.Context, userID string, filter MessageListFilter) ([]*Message, int, error)
	Update(ctx context.Context, id, userID string, in MessageUpdateInput) (*Message, error)
	Delete(ctx context.Context, id, userID string) error
	Schedule(ctx context.Context, id, userID string, scheduledAt time.Time) (*Message, error)
	Send(ctx context.Context, id, userID string, recipientIDs []string) (*Message, []*MessageSend, error)
	ListSends(ctx context.Context, messageID, userID string) ([]*MessageSend, error)
	UpdateSendStatus(ctx context.Context, sendID, userID string, status SendStatus, errorMessage *string) error
	GetStats(ctx context.Context, userID string) (*MessageStats, error)
}
