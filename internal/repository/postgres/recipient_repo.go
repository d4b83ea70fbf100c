package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"outreachhub/internal/domain"
)

type recipientRepository struct {
	DB *sql.DB
}

func NewRecipientRepository(db *sql.DB) domain.RecipientRepository {
	return &recipientRepository{DB: db}
}

const recipientColumns = `id, user_id, email, first_name, last_name, phone, company, position,
		tags, notes, is_active, opt_out, opt_out_date, metadata, created_at, updated_at`

func scanRecipient(row interface{ Scan(...any) error }) (*domain.Recipient, error) {
	rec := &domain.Recipient{}
	var firstNull, lastNull, phoneNull, companyNull, positionNull, notesNull sql.NullString
	var optOutDateNull sql.NullTime
	var tags pq.StringArray
	var metadata []byte
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Email, &firstNull, &lastNull, &phoneNull,
		&companyNull, &positionNull, &tags, &notesNull, &rec.IsActive, &rec.OptOut,
		&optOutDateNull, &metadata, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if firstNull.Valid {
		rec.FirstName = &firstNull.String
	}
	if lastNull.Valid {
		rec.LastName = &lastNull.String
	}
	if phoneNull.Valid {
		rec.Phone = &phoneNull.String
	}
	if companyNull.Valid {
		rec.Company = &companyNull.String
	}
	if positionNull.Valid {
		rec.Position = &positionNull.String
	}
	if notesNull.Valid {
		rec.Notes = &notesNull.String
	}
	if optOutDateNull.Valid {
		rec.OptOutDate = &optOutDateNull.Time
	}
	rec.Tags = []string(tags)
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	rec.Metadata = json.RawMessage(metadata)
	if len(rec.Metadata) == 0 {
		rec.Metadata = json.RawMessage(`{}`)
	}
	return rec, nil
}

func (r *recipientRepository) Create(ctx context.Context, rec *domain.Recipient) error {
	query := `
		INSERT INTO recipients (user_id, email, first_name, last_name, phone, company, position,
			tags, notes, is_active, opt_out, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, rec.UserID, rec.Email, rec.FirstName, rec.LastName,
		rec.Phone, rec.Company, rec.Position, pq.Array(rec.Tags), rec.Notes, rec.IsActive,
		rec.OptOut, metadataOrEmpty(rec.Metadata), rec.CreatedAt, rec.UpdatedAt).Scan(&rec.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// BulkCreate inserts the batch inside one transaction. Rows whose email
// already exists for the owner are skipped; any other failure rolls back the
// whole batch, including rows inserted earlier in it.
func (r *recipientRepository) BulkCreate(ctx context.Context, userID string, recipients []*domain.Recipient) (*domain.BulkCreateResult, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk create: %w", err)
	}
	defer tx.Rollback()

	result := &domain.BulkCreateResult{Created: make([]*domain.Recipient, 0, len(recipients))}
	for _, rec := range recipients {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM recipients WHERE user_id = $1 AND email = $2)`,
			userID, rec.Email).Scan(&exists)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}
		rec.UserID = userID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO recipients (user_id, email, first_name, last_name, phone, company, position,
				tags, notes, is_active, opt_out, metadata, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id
		`, rec.UserID, rec.Email, rec.FirstName, rec.LastName, rec.Phone, rec.Company,
			rec.Position, pq.Array(rec.Tags), rec.Notes, rec.IsActive, rec.OptOut,
			metadataOrEmpty(rec.Metadata), rec.CreatedAt, rec.UpdatedAt).Scan(&rec.ID)
		if err != nil {
			return nil, err
		}
		result.Created = append(result.Created, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk create: %w", err)
	}
	return result, nil
}

func (r *recipientRepository) GetByID(ctx context.Context, id string) (*domain.Recipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM recipients WHERE id = $1`
	rec, err := scanRecipient(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *recipientRepository) ExistsByEmail(ctx context.Context, userID, email, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM recipients WHERE user_id = $1 AND email = $2 AND id <> $3)`
	var exists bool
	err := r.DB.QueryRowContext(ctx, query, userID, email, excludeID).Scan(&exists)
	return exists, err
}

func (r *recipientRepository) List(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.Recipient, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipients WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + recipientColumns + ` FROM recipients WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	recipients := make([]*domain.Recipient, 0)
	for rows.Next() {
		rec, err := scanRecipient(rows)
		if err != nil {
			return nil, 0, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, total, rows.Err()
}

func (r *recipientRepository) Update(ctx context.Context, id string, in domain.RecipientUpdateInput) (*domain.Recipient, error) {
	query := `
		UPDATE recipients
		SET email = $2, first_name = $3, last_name = $4, phone = $5, company = $6,
			position = $7, tags = $8, notes = $9, is_active = $10, metadata = $11,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + recipientColumns
	rec, err := scanRecipient(r.DB.QueryRowContext(ctx, query, id, in.Email, in.FirstName,
		in.LastName, in.Phone, in.Company, in.Position, pq.Array(in.Tags), in.Notes,
		in.IsActive, metadataOrEmpty(in.Metadata)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}
	return rec, nil
}

func (r *recipientRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM recipients WHERE id = $1`
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

func (r *recipientRepository) SetOptOut(ctx context.Context, id string, optOut bool, at *time.Time) error {
	query := `UPDATE recipients SET opt_out = $2, opt_out_date = $3, updated_at = NOW() WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id, optOut, at)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Search matches active recipients only.
func (r *recipientRepository) Search(ctx context.Context, userID, term string) ([]*domain.Recipient, error) {
	query := `
		SELECT ` + recipientColumns + `
		FROM recipients
		WHERE user_id = $1 AND is_active = TRUE
		  AND (email ILIKE '%' || $2 || '%'
			OR first_name ILIKE '%' || $2 || '%'
			OR last_name ILIKE '%' || $2 || '%'
			OR company ILIKE '%' || $2 || '%'
			OR position ILIKE '%' || $2 || '%'
			OR $2 = ANY(tags))
		ORDER BY email ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	recipients := make([]*domain.Recipient, 0)
	for rows.Next() {
		rec, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func (r *recipientRepository) ListTags(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT DISTINCT unnest(tags)
		FROM recipients
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY 1 ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tags := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *recipientRepository) GetStats(ctx context.Context, userID string) (*domain.RecipientStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE opt_out),
			COUNT(*) FILTER (WHERE company IS NOT NULL AND company <> '')
		FROM recipients
		WHERE user_id = $1
	`
	stats := &domain.RecipientStats{}
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&stats.Total, &stats.Active,
		&stats.OptedOut, &stats.WithCompany)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
