package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"outreachhub/internal/domain"

	"github.com/stretchr/testify/require"
)

var eventColumnNames = []string{
	"id", "user_id", "title", "description", "event_date", "location", "status",
	"max_participants", "current_participants", "is_public", "registration_deadline",
	"tags", "metadata", "created_at", "updated_at",
}

func eventRow(rows *sqlmock.Rows, e *domain.Event) *sqlmock.Rows {
	var desc, loc, maxP, deadline any
	if e.Description != nil {
		desc = *e.Description
	}
	if e.Location != nil {
		loc = *e.Location
	}
	if e.MaxParticipants != nil {
		maxP = int64(*e.MaxParticipants)
	}
	if e.RegistrationDeadline != nil {
		deadline = *e.RegistrationDeadline
	}
	return rows.AddRow(e.ID, e.UserID, e.Title, desc, e.EventDate, loc, string(e.Status),
		maxP, e.CurrentParticipants, e.IsPublic, deadline,
		"{}", []byte(`{}`), e.CreatedAt, e.UpdatedAt)
}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	event := &domain.Event{
		UserID:    "user-1",
		Title:     "Launch Party",
		EventDate: now.AddDate(0, 1, 0),
		Status:    domain.EventStatusDraft,
		Tags:      []string{"launch"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	mock.ExpectQuery(`INSERT INTO events`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "current_participants"}).AddRow("ev-uuid-1", 0))

	repo := NewEventRepository(db)
	require.NoError(t, repo.Create(ctx, event))
	require.Equal(t, "ev-uuid-1", event.ID)
	require.Equal(t, 0, event.CurrentParticipants)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	t.Run("found with nullable fields empty", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		want := &domain.Event{
			ID: "ev-1", UserID: "user-1", Title: "Launch Party",
			EventDate: now, Status: domain.EventStatusActive,
			CreatedAt: now, UpdatedAt: now,
		}
		mock.ExpectQuery(`SELECT .+ FROM events WHERE id`).
			WithArgs("ev-1").
			WillReturnRows(eventRow(sqlmock.NewRows(eventColumnNames), want))

		repo := NewEventRepository(db)
		got, err := repo.GetByID(ctx, "ev-1")
		require.NoError(t, err)
		require.Equal(t, "ev-1", got.ID)
		require.Nil(t, got.Description)
		require.Nil(t, got.MaxParticipants)
		require.NotNil(t, got.Tags)
		require.JSONEq(t, `{}`, string(got.Metadata))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .+ FROM events WHERE id`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewEventRepository(db)
		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_ListByUserID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	t.Run("status filter and pagination", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		active := domain.EventStatusActive
		filter := domain.EventListFilter{
			Status:           &active,
			SortBy:           "event_date",
			SortOrder:        "asc",
			PaginationParams: domain.PaginationParams{Page: 2, PageSize: 10},
		}

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events`).
			WithArgs("user-1", active).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
		rows := sqlmock.NewRows(eventColumnNames)
		eventRow(rows, &domain.Event{ID: "ev-1", UserID: "user-1", Title: "A", EventDate: now, Status: active, CreatedAt: now, UpdatedAt: now})
		eventRow(rows, &domain.Event{ID: "ev-2", UserID: "user-1", Title: "B", EventDate: now, Status: active, CreatedAt: now, UpdatedAt: now})
		mock.ExpectQuery(`SELECT .+ FROM events .+ ORDER BY event_date ASC`).
			WithArgs("user-1", active, 10, 10).
			WillReturnRows(rows)

		repo := NewEventRepository(db)
		events, total, err := repo.ListByUserID(ctx, "user-1", filter)
		require.NoError(t, err)
		require.Equal(t, 12, total)
		require.Len(t, events, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown sort column falls back to created_at", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		filter := domain.EventListFilter{
			SortBy:           "id; DROP TABLE events",
			PaginationParams: domain.PaginationParams{Page: 1, PageSize: 20},
		}

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT .+ FROM events .+ ORDER BY created_at DESC`).
			WithArgs("user-1", 20, 0).
			WillReturnRows(sqlmock.NewRows(eventColumnNames))

		repo := NewEventRepository(db)
		events, total, err := repo.ListByUserID(ctx, "user-1", filter)
		require.NoError(t, err)
		require.Equal(t, 0, total)
		require.Empty(t, events)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	t.Run("success returns updated row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		want := &domain.Event{
			ID: "ev-1", UserID: "user-1", Title: "Renamed",
			EventDate: now, Status: domain.EventStatusActive,
			CreatedAt: now, UpdatedAt: now,
		}
		mock.ExpectQuery(`UPDATE events`).
			WillReturnRows(eventRow(sqlmock.NewRows(eventColumnNames), want))

		repo := NewEventRepository(db)
		got, err := repo.Update(ctx, "ev-1", domain.EventUpdateInput{
			Title: "Renamed", EventDate: now, Status: domain.EventStatusActive,
		})
		require.NoError(t, err)
		require.Equal(t, "Renamed", got.Title)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE events`).
			WillReturnError(sql.ErrNoRows)

		repo := NewEventRepository(db)
		_, err = repo.Update(ctx, "missing", domain.EventUpdateInput{Title: "X", EventDate: now, Status: domain.EventStatusDraft})
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_GetStats(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\),`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "draft", "active", "completed", "cancelled", "upcoming", "participants"}).
			AddRow(10, 2, 5, 2, 1, 3, 42))

	repo := NewEventRepository(db)
	stats, err := repo.GetStats(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 10, stats.Total)
	require.Equal(t, 5, stats.Active)
	require.Equal(t, 3, stats.Upcoming)
	require.Equal(t, 42, stats.TotalParticipants)
	require.NoError(t, mock.ExpectationsWereMet())
}
