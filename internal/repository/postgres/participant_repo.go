package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"outreachhub/internal/domain"
)

type participantRepository struct {
	DB *sql.DB
}

func NewParticipantRepository(db *sql.DB) domain.ParticipantRepository {
	return &participantRepository{DB: db}
}

const participantColumns = `id, event_id, recipient_id, status, invited_at, responded_at, attended_at, notes`

func scanParticipant(row interface{ Scan(...any) error }) (*domain.EventParticipant, error) {
	p := &domain.EventParticipant{}
	var respondedNull, attendedNull sql.NullTime
	var notesNull sql.NullString
	err := row.Scan(&p.ID, &p.EventID, &p.RecipientID, &p.Status, &p.InvitedAt,
		&respondedNull, &attendedNull, &notesNull)
	if err != nil {
		return nil, err
	}
	if respondedNull.Valid {
		p.RespondedAt = &respondedNull.Time
	}
	if attendedNull.Valid {
		p.AttendedAt = &attendedNull.Time
	}
	if notesNull.Valid {
		p.Notes = &notesNull.String
	}
	return p, nil
}

// Upsert adds a recipient to an event or, on the (event_id, recipient_id)
// conflict, updates the status and re-stamps the invite time. Response and
// attendance timestamps follow the new status.
func (r *participantRepository) Upsert(ctx context.Context, eventID, recipientID string, status domain.ParticipantStatus) (*domain.EventParticipant, error) {
	now := time.Now()
	var respondedAt, attendedAt *time.Time
	switch status {
	case domain.ParticipantStatusConfirmed, domain.ParticipantStatusDeclined:
		respondedAt = &now
	case domain.ParticipantStatusAttended:
		respondedAt = &now
		attendedAt = &now
	}
	query := `
		INSERT INTO event_participants (event_id, recipient_id, status, invited_at, responded_at, attended_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id, recipient_id) DO UPDATE
		SET status = EXCLUDED.status,
			invited_at = EXCLUDED.invited_at,
			responded_at = EXCLUDED.responded_at,
			attended_at = EXCLUDED.attended_at
		RETURNING ` + participantColumns
	p, err := scanParticipant(r.DB.QueryRowContext(ctx, query, eventID, recipientID, status, now, respondedAt, attendedAt))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) Remove(ctx context.Context, eventID, recipientID string) error {
	query := `DELETE FROM event_participants WHERE event_id = $1 AND recipient_id = $2`
	result, err := r.DB.ExecContext(ctx, query, eventID, recipientID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *participantRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants WHERE event_id = $1 ORDER BY invited_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	participants := make([]*domain.EventParticipant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// RecountParticipants recomputes the derived counter on the event row from
// the junction rows with status confirmed or attended.
func (r *participantRepository) RecountParticipants(ctx context.Context, eventID string) (int, error) {
	query := `
		UPDATE events
		SET current_participants = (
			SELECT COUNT(*) FROM event_participants
			WHERE event_id = $1 AND status IN ('confirmed', 'attended')
		), updated_at = NOW()
		WHERE id = $1
		RETURNING current_participants
	`
	var count int
	err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return count, nil
}
