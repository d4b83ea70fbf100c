package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"outreachhub/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

const eventColumns = `id, user_id, title, description, event_date, location, status,
		max_participants, current_participants, is_public, registration_deadline,
		tags, metadata, created_at, updated_at`

// sortableEventColumns whitelists caller-controlled sort fields. Anything not
// listed falls back to created_at to keep ORDER BY injection-safe.
var sortableEventColumns = map[string]string{
	"event_date": "event_date",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
	"status":     "status",
}

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var descNull, locNull sql.NullString
	var maxNull sql.NullInt64
	var deadlineNull sql.NullTime
	var tags pq.StringArray
	var metadata []byte
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &descNull, &e.EventDate, &locNull, &e.Status,
		&maxNull, &e.CurrentParticipants, &e.IsPublic, &deadlineNull,
		&tags, &metadata, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if descNull.Valid {
		e.Description = &descNull.String
	}
	if locNull.Valid {
		e.Location = &locNull.String
	}
	if maxNull.Valid {
		v := int(maxNull.Int64)
		e.MaxParticipants = &v
	}
	if deadlineNull.Valid {
		e.RegistrationDeadline = &deadlineNull.Time
	}
	e.Tags = []string(tags)
	if e.Tags == nil {
		e.Tags = []string{}
	}
	e.Metadata = json.RawMessage(metadata)
	if len(e.Metadata) == 0 {
		e.Metadata = json.RawMessage(`{}`)
	}
	return e, nil
}

func metadataOrEmpty(m json.RawMessage) []byte {
	if len(m) == 0 {
		return []byte(`{}`)
	}
	return []byte(m)
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (user_id, title, description, event_date, location, status,
			max_participants, is_public, registration_deadline, tags, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, current_participants
	`
	return r.DB.QueryRowContext(ctx, query, e.UserID, e.Title, e.Description, e.EventDate,
		e.Location, e.Status, e.MaxParticipants, e.IsPublic, e.RegistrationDeadline,
		pq.Array(e.Tags), metadataOrEmpty(e.Metadata), e.CreatedAt, e.UpdatedAt).
		Scan(&e.ID, &e.CurrentParticipants)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByUserID(ctx context.Context, userID string, filter domain.EventListFilter) ([]*domain.Event, int, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}
	if filter.Status != nil {
		where += ` AND status = $2`
		args = append(args, *filter.Status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM events ` + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := sortableEventColumns[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM events %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		eventColumns, where, sortCol, direction, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, filter.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, id string, in domain.EventUpdateInput) (*domain.Event, error) {
	query := `
		UPDATE events
		SET title = $2, description = $3, event_date = $4, location = $5, status = $6,
			max_participants = $7, is_public = $8, registration_deadline = $9,
			tags = $10, metadata = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id, in.Title, in.Description,
		in.EventDate, in.Location, in.Status, in.MaxParticipants, in.IsPublic,
		in.RegistrationDeadline, pq.Array(in.Tags), metadataOrEmpty(in.Metadata)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
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

func (r *eventRepository) Search(ctx context.Context, userID, term string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE user_id = $1
		  AND (title ILIKE '%' || $2 || '%'
			OR description ILIKE '%' || $2 || '%'
			OR location ILIKE '%' || $2 || '%'
			OR $2 = ANY(tags))
		ORDER BY event_date ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) ListUpcoming(ctx context.Context, userID string, limit int) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE user_id = $1 AND event_date > NOW() AND status = 'active'
		ORDER BY event_date ASC
		LIMIT $2
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) GetStats(ctx context.Context, userID string) (*domain.EventStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE event_date > NOW() AND status = 'active'),
			COALESCE(SUM(current_participants), 0)
		FROM events
		WHERE user_id = $1
	`
	stats := &domain.EventStats{}
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&stats.Total, &stats.Draft,
		&stats.Active, &stats.Completed, &stats.Cancelled, &stats.Upcoming, &stats.TotalParticipants)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
