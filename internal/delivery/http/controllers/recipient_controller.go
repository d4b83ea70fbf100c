package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"outreachhub/internal/delivery/http/helpers"
	"outreachhub/internal/delivery/http/middleware"
	"outreachhub/internal/domain"
)

// RecipientRequest is the request body for POST /recipients and PUT /recipients/{recipientID}.
// On update the whole field set replaces the stored recipient.
type RecipientRequest struct {
	Email     string          `json:"email"`
	FirstName *string         `json:"first_name"`
	LastName  *string         `json:"last_name"`
	Phone     *string         `json:"phone"`
	Company   *string         `json:"company"`
	Position  *string         `json:"position"`
	Tags      []string        `json:"tags"`
	Notes     *string         `json:"notes"`
	IsActive  *bool           `json:"is_active"`
	Metadata  json.RawMessage `json:"metadata"`
}

// Validate implements Validator.
func (r RecipientRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(r.Email)
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegex.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// BulkCreateRequest is the request body for POST /recipients/bulk.
type BulkCreateRequest struct {
	Recipients []RecipientRequest `json:"recipients"`
}

// Validate implements Validator.
func (b BulkCreateRequest) Validate() []string {
	var errs []string
	if len(b.Recipients) == 0 {
		errs = append(errs, "recipients is required")
	}
	for i, rec := range b.Recipients {
		for _, e := range rec.Validate() {
			errs = append(errs, fmt.Sprintf("recipients[%d]: %s", i, e))
		}
	}
	return errs
}

// RecipientSuccessResponse is the success response envelope for single-recipient endpoints.
type RecipientSuccessResponse struct {
	Data  *domain.Recipient `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// BulkCreateSuccessResponse is the success response envelope for POST /recipients/bulk (201).
type BulkCreateSuccessResponse struct {
	Data  *domain.BulkCreateResult `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// ListRecipientsResponse is the data payload for GET /recipients (200).
type ListRecipientsResponse struct {
	Items      []*domain.Recipient    `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListRecipientsSuccessResponse is the success response envelope for GET /recipients (200).
type ListRecipientsSuccessResponse struct {
	Data  ListRecipientsResponse `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// RecipientListSuccessResponse is the success response envelope for unpaginated recipient lists.
type RecipientListSuccessResponse struct {
	Data  []*domain.Recipient `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// TagsSuccessResponse is the success response envelope for GET /recipients/tags (200).
type TagsSuccessResponse struct {
	Data  []string          `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// RecipientStatsSuccessResponse is the success response envelope for GET /recipients/stats (200).
type RecipientStatsSuccessResponse struct {
	Data  *domain.RecipientStats `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

type RecipientController struct {
	Logger  *slog.Logger
	Service domain.RecipientService
}

func NewRecipientController(logger *slog.Logger, svc domain.RecipientService) *RecipientController {
	return &RecipientController{Logger: logger, Service: svc}
}

func (c *RecipientController) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrDuplicateEmail):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "a recipient with that email already exists")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

func (r RecipientRequest) toDomain() *domain.Recipient {
	rec := &domain.Recipient{
		Email:     strings.TrimSpace(r.Email),
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Company:   r.Company,
		Position:  r.Position,
		Tags:      r.Tags,
		Notes:     r.Notes,
		IsActive:  true,
		Metadata:  r.Metadata,
	}
	if r.IsActive != nil {
		rec.IsActive = *r.IsActive
	}
	return rec
}

// Create godoc
// @Summary Create a recipient
// @Description Adds a contact to the authenticated user's directory. Email must be unique within the directory; the address is stored with the case provided. Requires Bearer token.
// @Tags recipients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RecipientRequest true "Recipient data"
// @Success 201 {object} controllers.RecipientSuccessResponse "data contains the created recipient"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (duplicate email)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /recipients [post]
func (c *RecipientController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req RecipientRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	recipient := req.toDomain()
	if err := c.Service.Create(r.Context(), userID, recipient); err != nil {
		c.writeServiceError(w, r, err, "recipient not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, recipient)
}

// BulkCreate godoc
// @Summary Bulk import recipients
// @Description Imports a batch of recipients in one transaction. Rows whose email already exists in the directory are skipped and counted; any other failure rolls back the whole batch. Requires Bearer token.
// @Tags recipients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BulkCreateRequest true "Recipients to import"
// @Success 201 {object} controllers.BulkCreateSuccessResponse "data contains created rows and skipped count"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /recipients/bulk [post]
func (c *RecipientController) BulkCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req BulkCreateRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	recipients := make([]*domain.Recipient, 0, len(req.Recipients))
	for _, in := range req.Recipients {
		recipients = append(recipients, in.toDomain())
	}
	result, err := c.Service.BulkCreate(r.Context(), userID, recipients)
	if err != nil {
		c.writeServiceError(w, r, err, "recipient not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, result)
}

// GetByID godoc
// @Summary Get a recipient by ID
// @Description Returns a single recipient. Only the owner can access it. Requires Bearer token.
// @Tags recipients
// @Produce json
// @Security BearerAuth
// @Param recipientID path string true "Recipient ID (UUID)"
// @Success 200 {object} controllers.RecipientSuccessResponse "data contains the recipient"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /recipients/{recipientID} [get]
func (c *RecipientController) GetByID(w http.ResponseWriter, r *http.Request) {
	recipientID := r.PathValue("recipientID")
	if recipientID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing recipientID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	recipient, err := c.Service.GetByID(r.Context(), recipientID, userID)
	if err != nil {
		c.writeServiceError(w, r, err, "recipient not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, recipient)
}

// List godoc
// @Summary List recipients
// @Description Returns a paginated list of the authenticated user's recipients, newest first. Requires Bearer token.
// @Tags recipients
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListRecipientsSuccessResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /recipients [get]
func (c *RecipientController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	recipients, total, err := c.Service.List(r.Context(), userID, params)
	if err != nil {
		c.writeServiceError(w, r, err, "recipient not found")
		return
	}
	if recipients == nil {
		recipients = []*domain.Recipient{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListRecipientsResponse{Items: recipients, Pagination: meta})
}

// Update godoc
// @Summary Update a recipient
// @Description Replaces all mutable recipient fields with the submitted values. Changing the email to one already in the directory returns 409. Only the owner can update. Requires Bearer token.
// @Tags recipients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param recipientID path string true "Recipient ID (UUID)"
// @Param body body RecipientRequest true "Full recipient field set"
// @Success 200 {object} controllers.RecipientSuccessResponse "data contains the updated recipient"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (duplicate email)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /recipients/{recipientID} [put]
func (c *RecipientController) Update(w http.ResponseWriter, r *http.Request) {
	recipientID := r.PathValue("recipientID")
	if recipientID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing recipientID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req RecipientRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	recipient, err := c.Service.Update(r.Context(), recipientID, userID, domain.RecipientUpdateInput{
		Email:     strings.TrimSpace(req.Email),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Company:   req.Company,
		Position:  req.Position,
		Tags:      req.Tags,
		Notes:     req.Notes,
		IsActive:  isActive,
		Metadata:  req.Metadata,
	})
	if err != nil {
		c.writeServiceError(w, r, err, "recipient not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, recipient)
}

// Delete godoc
// @Summary Delete a recipient
// @Description Deletes a recipient and its event participations. Delivery records keep the email snapshot. Only the owner can delete. Requires Bearer token.
// @Tags recipients
// @Produce json
// @Security BearerAuth
// @Param recipientID path string true "Recipient ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /recipients/{recipientID} [delete]
func (c *RecipientController) Delete(w http.ResponseWriter, r *http.Request) {
	recipientID := r.PathValue("recipientID")
	if recipientID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing recipientID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Delete(r.Context(), recipientID, userID); err != nil {
		c.writeServiceError(w, r, err, "recipient not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// OptOut godoc
// @Summary Opt a recipient out
// @Description Marks the recipient opted out and stamps the opt-out date. Opted-out recipients are excluded from sends. Requires Bearer token.
// @Tags recipients
// @Produce json
// @Security BearerAuth
// @Param recipientID path string true "Recipient ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /recipients/{recipientID}/opt-out [post]
func (c *RecipientController) OptOut(w http.ResponseWriter, r *http.Request) {
	recipientID := r.PathValue("recipientID")
	if recipientID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing recipientID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.OptOut(r.Context(), recipientID, userID); err != nil {
		c.writeServiceError(w, r, err, "recipient not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "opted out"})
}

// OptIn godoc
// @Summary Opt a recipient back in
// @Description Clears the opt-out flag and date. Requires Bearer token.
// @Tags recipients
// @Produce json
// @Security BearerAuth
// @Param recipientID path string true "Recipient ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /recipients/{recipientID}/opt-in [post]
func (c *RecipientController) OptIn(w http.ResponseWriter, r *http.Request) {
	recipientID := r.PathValue("recipientID")
	if recipientID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing recipientID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.OptIn(r.Context(), recipientID, userID); err != nil {
		c.writeServiceError(w, r, err, "recipient not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "opted in"})
}

// Search godoc
// @Summary Search recipients
// @Description Searches active recipients by email, name, company, position, or tag. The q parameter is required. Requires Bearer token.
// @Tags recipients
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search term"
// @Success 200 {object} controllers.RecipientListSuccessResponse "data is an array of recipients"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /recipients/search [get]
func (c *RecipientController) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "q is required")
		return
	}
	recipients, err := c.Service.Search(r.Context(), userID, term)
	if err != nil {
		c.writeServiceError(w, r, err, "recipient not found")
		return
	}
	if recipients == nil {
		recipients = []*domain.Recipient{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, recipients)
}

// Tags godoc
// @Summary List all tags
// @Description Returns the distinct tags across the user's recipients, sorted alphabetically. Requires Bearer token.
// @Tags recipients
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.TagsSuccessResponse "data is an array of tags"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /recipients/tags [get]
func (c *RecipientController) Tags(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	tags, err := c.Service.GetAllTags(r.Context(), userID)
	if err != nil {
		c.writeServiceError(w, r, err, "recipient not found")
		return
	}
	if tags == nil {
		tags = []string{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tags)
}

// Stats godoc
// @Summary Recipient statistics
// @Description Returns counts of the user's recipients: total, active, opted out, and with a company set. Requires Bearer token.
// @Tags recipients
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.RecipientStatsSuccessResponse "data contains the aggregates"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /recipients/stats [get]
func (c *RecipientController) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	stats, err := c.Service.GetStats(r.Context(), userID)
	if err != nil {
		c.writeServiceError(w, r, err, "recipient not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}
