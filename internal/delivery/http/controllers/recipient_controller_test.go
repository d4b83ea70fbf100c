package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"outreachhub/internal/delivery/http/helpers"
	"outreachhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRecipientService implements domain.RecipientService for handler tests.
type fakeRecipientService struct {
	createErr     error
	bulkCreateErr error
	getErr        error
	updateErr     error
	deleteErr     error
	optOutErr     error
	optInErr      error

	recipient  *domain.Recipient
	bulkResult *domain.BulkCreateResult

	lastBulkCount int
	lastOptOutID  string
}

func (f *fakeRecipientService) Create(_ context.Context, userID string, rec *domain.Recipient) error {
	if f.createErr != nil {
		return f.createErr
	}
	rec.ID = "rec-created"
	rec.UserID = userID
	return nil
}

func (f *fakeRecipientService) BulkCreate(_ context.Context, _ string, recipients []*domain.Recipient) (*domain.BulkCreateResult, error) {
	f.lastBulkCount = len(recipients)
	if f.bulkCreateErr != nil {
		return nil, f.bulkCreateErr
	}
	return f.bulkResult, nil
}

func (f *fakeRecipientService) GetByID(context.Context, string, string) (*domain.Recipient, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.recipient, nil
}

func (f *fakeRecipientService) List(context.Context, string, domain.PaginationParams) ([]*domain.Recipient, int, error) {
	return nil, 0, nil
}

func (f *fakeRecipientService) Update(context.Context, string, string, domain.RecipientUpdateInput) (*domain.Recipient, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.recipient, nil
}

func (f *fakeRecipientService) Delete(context.Context, string, string) error {
	return f.deleteErr
}

func (f *fakeRecipientService) OptOut(_ context.Context, id, _ string) error {
	f.lastOptOutID = id
	return f.optOutErr
}

func (f *fakeRecipientService) OptIn(context.Context, string, string) error {
	return f.optInErr
}

func (f *fakeRecipientService) Search(context.Context, string, string) ([]*domain.Recipient, error) {
	return nil, nil
}

func (f *fakeRecipientService) GetAllTags(context.Context, string) ([]string, error) {
	return nil, nil
}

func (f *fakeRecipientService) GetStats(context.Context, string) (*domain.RecipientStats, error) {
	return &domain.RecipientStats{}, nil
}

func TestRecipientController_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		fakeErr        error
		noUserContext  bool
		wantStatus     int
		wantErrCode    string
		wantBodySubstr string
	}{
		{name: "success", body: `{"email":"bob@example.com"}`, wantStatus: http.StatusCreated},
		{
			name:          "no user in context",
			body:          `{"email":"bob@example.com"}`,
			noUserContext: true,
			wantStatus:    http.StatusUnauthorized,
			wantErrCode:   helpers.ErrCodeUnauthorized,
		},
		{
			name:           "invalid email",
			body:           `{"email":"not-an-email"}`,
			wantStatus:     http.StatusBadRequest,
			wantErrCode:    helpers.ErrCodeBadRequest,
			wantBodySubstr: "invalid email format",
		},
		{
			name:           "duplicate email conflicts",
			body:           `{"email":"taken@example.com"}`,
			fakeErr:        domain.ErrDuplicateEmail,
			wantStatus:     http.StatusConflict,
			wantErrCode:    helpers.ErrCodeConflict,
			wantBodySubstr: "already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRecipientService{createErr: tt.fakeErr}
			ctrl := NewRecipientController(testLogger, fake)
			var req *http.Request
			if tt.noUserContext {
				req = httptest.NewRequest(http.MethodPost, "/recipients", nil)
			} else {
				req = authedRequest(http.MethodPost, "/recipients", tt.body)
			}
			rr := httptest.NewRecorder()

			ctrl.Create(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantErrCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
				if tt.wantBodySubstr != "" {
					assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
				}
				return
			}
			require.Nil(t, envelope.Error)
			data, err := json.Marshal(envelope.Data)
			require.NoError(t, err)
			var resp domain.Recipient
			require.NoError(t, json.Unmarshal(data, &resp))
			assert.Equal(t, "rec-created", resp.ID)
			assert.Equal(t, "user-123", resp.UserID)
		})
	}
}

func TestRecipientController_BulkCreate(t *testing.T) {
	t.Run("returns created and skipped counts", func(t *testing.T) {
		fake := &fakeRecipientService{bulkResult: &domain.BulkCreateResult{
			Created: []*domain.Recipient{{ID: "rec-1", Email: "new@example.com"}},
			Skipped: 1,
		}}
		ctrl := NewRecipientController(testLogger, fake)
		body := `{"recipients":[{"email":"new@example.com"},{"email":"existing@example.com"}]}`
		req := authedRequest(http.MethodPost, "/recipients/bulk", body)
		rr := httptest.NewRecorder()

		ctrl.BulkCreate(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, 2, fake.lastBulkCount)
		var envelope helpers.APIResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		require.Nil(t, envelope.Error)
		data, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		var result domain.BulkCreateResult
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Len(t, result.Created, 1)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("flags the bad row", func(t *testing.T) {
		ctrl := NewRecipientController(testLogger, &fakeRecipientService{})
		body := `{"recipients":[{"email":"ok@example.com"},{"email":"nope"}]}`
		req := authedRequest(http.MethodPost, "/recipients/bulk", body)
		rr := httptest.NewRecorder()

		ctrl.BulkCreate(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var envelope helpers.APIResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		require.NotNil(t, envelope.Error)
		assert.Contains(t, envelope.Error.Message, "recipients[1]")
	})
}

func TestRecipientController_Update(t *testing.T) {
	tests := []struct {
		name        string
		fakeErr     error
		wantStatus  int
		wantErrCode string
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "duplicate email conflicts", fakeErr: domain.ErrDuplicateEmail, wantStatus: http.StatusConflict, wantErrCode: helpers.ErrCodeConflict},
		{name: "foreign recipient forbidden", fakeErr: domain.ErrForbidden, wantStatus: http.StatusForbidden, wantErrCode: helpers.ErrCodeForbidden},
		{name: "missing recipient", fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantErrCode: helpers.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRecipientService{
				updateErr: tt.fakeErr,
				recipient: &domain.Recipient{ID: "rec-1", UserID: "user-123", Email: "bob@example.com"},
			}
			ctrl := NewRecipientController(testLogger, fake)
			req := authedRequest(http.MethodPut, "/recipients/rec-1", `{"email":"bob@example.com"}`)
			req.SetPathValue("recipientID", "rec-1")
			rr := httptest.NewRecorder()

			ctrl.Update(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantErrCode != "" {
				var envelope helpers.APIResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
			}
		})
	}
}

func TestRecipientController_OptOut(t *testing.T) {
	tests := []struct {
		name        string
		fakeErr     error
		wantStatus  int
		wantErrCode string
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "foreign recipient forbidden", fakeErr: domain.ErrForbidden, wantStatus: http.StatusForbidden, wantErrCode: helpers.ErrCodeForbidden},
		{name: "missing recipient", fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantErrCode: helpers.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRecipientService{optOutErr: tt.fakeErr}
			ctrl := NewRecipientController(testLogger, fake)
			req := authedRequest(http.MethodPost, "/recipients/rec-1/opt-out", "")
			req.SetPathValue("recipientID", "rec-1")
			rr := httptest.NewRecorder()

			ctrl.OptOut(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantErrCode == "" {
				assert.Equal(t, "rec-1", fake.lastOptOutID)
			}
		})
	}
}
