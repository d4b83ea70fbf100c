package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"outreachhub/internal/domain"
)

type messageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) domain.MessageRepository {
	return &messageRepository{DB: db}
}

const messageColumns = `id, user_id, event_id, subject, content, message_type, status,
		scheduled_at, sent_at, total_recipients, successful_sends, failed_sends,
		metadata, created_at, updated_at`

const sendColumns = `id, message_id, recipient_id, recipient_email, status,
		sent_at, delivered_at, read_at, error_message, created_at`

func scanMessage(row interface{ Scan(...any) error }) (*domain.Message, error) {
	m := &domain.Message{}
	var eventIDNull sql.NullString
	var scheduledNull, sentNull sql.NullTime
	var metadata []byte
	err := row.Scan(&m.ID, &m.UserID, &eventIDNull, &m.Subject, &m.Content, &m.MessageType,
		&m.Status, &scheduledNull, &sentNull, &m.TotalRecipients, &m.SuccessfulSends,
		&m.FailedSends, &metadata, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if eventIDNull.Valid {
		m.EventID = &eventIDNull.String
	}
	if scheduledNull.Valid {
		m.ScheduledAt = &scheduledNull.Time
	}
	if sentNull.Valid {
		m.SentAt = &sentNull.Time
	}
	m.Metadata = json.RawMessage(metadata)
	if len(m.Metadata) == 0 {
		m.Metadata = json.RawMessage(`{}`)
	}
	return m, nil
}

func scanSend(row interface{ Scan(...any) error }) (*domain.MessageSend, error) {
	s := &domain.MessageSend{}
	var sentNull, deliveredNull, readNull sql.NullTime
	var errNull sql.NullString
	err := row.Scan(&s.ID, &s.MessageID, &s.RecipientID, &s.RecipientEmail, &s.Status,
		&sentNull, &deliveredNull, &readNull, &errNull, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if sentNull.Valid {
		s.SentAt = &sentNull.Time
	}
	if deliveredNull.Valid {
		s.DeliveredAt = &deliveredNull.Time
	}
	if readNull.Valid {
		s.ReadAt = &readNull.Time
	}
	if errNull.Valid {
		s.ErrorMessage = &errNull.String
	}
	return s, nil
}

func (r *messageRepository) Create(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (user_id, event_id, subject, content, message_type, status,
			scheduled_at, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, m.UserID, m.EventID, m.Subject, m.Content,
		m.MessageType, m.Status, m.ScheduledAt, metadataOrEmpty(m.Metadata),
		m.CreatedAt, m.UpdatedAt).Scan(&m.ID)
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	m, err := scanMessage(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *messageRepository) ListByUserID(ctx context.Context, userID string, filter domain.MessageListFilter) ([]*domain.Message, int, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.EventID != nil {
		args = append(args, *filter.EventID)
		where += fmt.Sprintf(` AND event_id = $%d`, len(args))
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM messages %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		messageColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, filter.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	messages := make([]*domain.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, m)
	}
	return messages, total, rows.Err()
}

func (r *messageRepository) Update(ctx context.Context, id string, in domain.MessageUpdateInput) (*domain.Message, error) {
	query := `
		UPDATE messages
		SET event_id = $2, subject = $3, content = $4, message_type = $5,
			scheduled_at = $6, metadata = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + messageColumns
	m, err := scanMessage(r.DB.QueryRowContext(ctx, query, id, in.EventID, in.Subject,
		in.Content, in.MessageType, in.ScheduledAt, metadataOrEmpty(in.Metadata)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *messageRepository) UpdateStatus(ctx context.Context, id string, status domain.MessageStatus, scheduledAt *time.Time) error {
	query := `UPDATE messages SET status = $2, scheduled_at = COALESCE($3, scheduled_at), updated_at = NOW() WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id, status, scheduledAt)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *messageRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM messages WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Send performs the whole dispatch as one transaction: mark the message
// sending, snapshot each recipient's current email into a pending send row,
// then mark the message sent with totals. Any failure, including a missing
// recipient, rolls the whole batch back and leaves the message untouched.
func (r *messageRepository) Send(ctx context.Context, messageID string, recipientIDs []string, sentAt time.Time) ([]*domain.MessageSend, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin send: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE messages SET status = 'sending', updated_at = NOW() WHERE id = $1`, messageID); err != nil {
		return nil, err
	}

	sends := make([]*domain.MessageSend, 0, len(recipientIDs))
	for _, recipientID := range recipientIDs {
		var email string
		err := tx.QueryRowContext(ctx,
			`SELECT email FROM recipients WHERE id = $1`, recipientID).Scan(&email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("recipient %s: %w", recipientID, domain.ErrNotFound)
			}
			return nil, err
		}
		send := &domain.MessageSend{
			ID:             uuid.NewString(),
			MessageID:      messageID,
			RecipientID:    recipientID,
			RecipientEmail: email,
			Status:         domain.SendStatusPending,
			CreatedAt:      sentAt,
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO message_sends (id, message_id, recipient_id, recipient_email, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, send.ID, send.MessageID, send.RecipientID, send.RecipientEmail, send.Status, send.CreatedAt); err != nil {
			return nil, err
		}
		sends = append(sends, send)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE messages
		SET status = 'sent', sent_at = $2, total_recipients = $3, updated_at = NOW()
		WHERE id = $1
	`, messageID, sentAt, len(recipientIDs)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit send: %w", err)
	}
	return sends, nil
}

func (r *messageRepository) ListSends(ctx context.Context, messageID string) ([]*domain.MessageSend, error) {
	query := `SELECT ` + sendColumns + ` FROM message_sends WHERE message_id = $1 ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sends := make([]*domain.MessageSend, 0)
	for rows.Next() {
		s, err := scanSend(rows)
		if err != nil {
			return nil, err
		}
		sends = append(sends, s)
	}
	return sends, rows.Err()
}

func (r *messageRepository) GetSendByID(ctx context.Context, sendID string) (*domain.MessageSend, error) {
	query := `SELECT ` + sendColumns + ` FROM message_sends WHERE id = $1`
	s, err := scanSend(r.DB.QueryRowContext(ctx, query, sendID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// UpdateSendStatus stamps the timestamp column matching the target status:
// sent -> sent_at, delivered -> delivered_at, read -> read_at. The error
// message is stored only for failed.
func (r *messageRepository) UpdateSendStatus(ctx context.Context, sendID string, status domain.SendStatus, errorMessage *string, at time.Time) error {
	var stampColumn string
	switch status {
	case domain.SendStatusSent:
		stampColumn = "sent_at"
	case domain.SendStatusDelivered:
		stampColumn = "delivered_at"
	case domain.SendStatusRead:
		stampColumn = "read_at"
	}

	var result sql.Result
	var err error
	if stampColumn != "" {
		query := fmt.Sprintf(
			`UPDATE message_sends SET status = $2, %s = $3 WHERE id = $1`, stampColumn)
		result, err = r.DB.ExecContext(ctx, query, sendID, status, at)
	} else if status == domain.SendStatusFailed {
		result, err = r.DB.ExecContext(ctx,
			`UPDATE message_sends SET status = $2, error_message = $3 WHERE id = $1`,
			sendID, status, errorMessage)
	} else {
		result, err = r.DB.ExecContext(ctx,
			`UPDATE message_sends SET status = $2 WHERE id = $1`, sendID, status)
	}
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *messageRepository) GetStats(ctx context.Context, userID string) (*domain.MessageStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*) FILTER (WHERE status = 'scheduled'),
			COUNT(*) FILTER (WHERE status = 'sent'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COALESCE(SUM(successful_sends), 0),
			COALESCE(SUM(failed_sends), 0)
		FROM messages
		WHERE user_id = $1
	`
	stats := &domain.MessageStats{}
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&stats.Total, &stats.Draft,
		&stats.Scheduled, &stats.Sent, &stats.Failed, &stats.SuccessfulSends, &stats.FailedSends)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
