package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"outreachhub/internal/delivery/http/helpers"
	"outreachhub/internal/delivery/http/middleware"
	"outreachhub/internal/domain"
)

// EventRequest is the request body for POST /events and PUT /events/{eventID}.
// On update the whole field set replaces the stored event.
type EventRequest struct {
	Title                string          `json:"title"`
	Description          *string         `json:"description"`
	EventDate            time.Time       `json:"event_date"`
	Location             *string         `json:"location"`
	Status               string          `json:"status"`
	MaxParticipants      *int            `json:"max_participants"`
	IsPublic             bool            `json:"is_public"`
	RegistrationDeadline *time.Time      `json:"registration_deadline"`
	Tags                 []string        `json:"tags"`
	Metadata             json.RawMessage `json:"metadata"`
}

// Validate implements Validator.
func (e EventRequest) Validate() []string {
	var errs []string
	title := strings.TrimSpace(e.Title)
	if title == "" {
		errs = append(errs, "title is required")
	} else if len(title) < 3 || len(title) > 255 {
		errs = append(errs, "title must be between 3 and 255 characters")
	}
	if e.EventDate.IsZero() {
		errs = append(errs, "event_date is required")
	}
	if e.Status != "" && !domain.EventStatus(e.Status).Valid() {
		errs = append(errs, "status must be one of draft, active, completed, cancelled")
	}
	if e.MaxParticipants != nil && *e.MaxParticipants < 1 {
		errs = append(errs, "max_participants must be at least 1")
	}
	return errs
}

// AddParticipantRequest is the request body for POST /events/{eventID}/participants.
type AddParticipantRequest struct {
	RecipientID string `json:"recipient_id"`
	Status      string `json:"status"`
}

// Validate implements Validator.
func (a AddParticipantRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.RecipientID) == "" {
		errs = append(errs, "recipient_id is required")
	}
	if a.Status != "" && !domain.ParticipantStatus(a.Status).Valid() {
		errs = append(errs, "status must be one of invited, confirmed, declined, attended, no_show")
	}
	return errs
}

// EventSuccessResponse is the success response envelope for single-event endpoints.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEventsResponse is the data payload for GET /events (200).
type ListEventsResponse struct {
	Items      []*domain.Event        `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListEventsSuccessResponse is the success response envelope for GET /events (200).
type ListEventsSuccessResponse struct {
	Data  ListEventsResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// EventListSuccessResponse is the success response envelope for unpaginated event lists.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ParticipantSuccessResponse is the success response envelope for POST /events/{eventID}/participants (201).
type ParticipantSuccessResponse struct {
	Data  *domain.EventParticipant `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// ListParticipantsSuccessResponse is the success response envelope for GET /events/{eventID}/participants (200).
type ListParticipantsSuccessResponse struct {
	Data  []*domain.EventParticipant `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// EventStatsSuccessResponse is the success response envelope for GET /events/stats (200).
type EventStatsSuccessResponse struct {
	Data  *domain.EventStats `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{Logger: logger, Service: svc}
}

func (c *EventController) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// Create godoc
// @Summary Create an event
// @Description Create a new event owned by the authenticated user. Status defaults to draft; event_date must be in the future. Requires Bearer token.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body EventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event := &domain.Event{
		Title:                strings.TrimSpace(req.Title),
		Description:          req.Description,
		EventDate:            req.EventDate,
		Location:             req.Location,
		Status:               domain.EventStatus(req.Status),
		MaxParticipants:      req.MaxParticipants,
		IsPublic:             req.IsPublic,
		RegistrationDeadline: req.RegistrationDeadline,
		Tags:                 req.Tags,
		Metadata:             req.Metadata,
	}
	if err := c.Service.Create(r.Context(), userID, event); err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetByID godoc
// @Summary Get an event by ID
// @Description Returns a single event. Only the owner can access it. Requires Bearer token.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetByID(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.GetByID(r.Context(), eventID, userID)
	if err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// List godoc
// @Summary List events
// @Description Returns a paginated list of the authenticated user's events. Optional status filter and sorting by event_date, created_at, updated_at, title, or status. Requires Bearer token.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (draft, active, completed, cancelled)"
// @Param sort_by query string false "Sort column (default created_at)"
// @Param sort_order query string false "asc or desc (default desc)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	filter := domain.EventListFilter{
		SortBy:           r.URL.Query().Get("sort_by"),
		SortOrder:        r.URL.Query().Get("sort_order"),
		PaginationParams: helpers.ParsePagination(r),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.EventStatus(s)
		filter.Status = &status
	}
	events, total, err := c.Service.List(r.Context(), userID, filter)
	if err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	meta := helpers.NewPaginationMeta(filter.Page, filter.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{Items: events, Pagination: meta})
}

// Update godoc
// @Summary Update an event
// @Description Replaces all mutable event fields with the submitted values. Only the owner can update. Requires Bearer token.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body EventRequest true "Full event field set"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [put]
func (c *EventController) Update(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	status := domain.EventStatus(req.Status)
	if status == "" {
		status = domain.EventStatusDraft
	}
	event, err := c.Service.Update(r.Context(), eventID, userID, domain.EventUpdateInput{
		Title:                strings.TrimSpace(req.Title),
		Description:          req.Description,
		EventDate:            req.EventDate,
		Location:             req.Location,
		Status:               status,
		MaxParticipants:      req.MaxParticipants,
		IsPublic:             req.IsPublic,
		RegistrationDeadline: req.RegistrationDeadline,
		Tags:                 req.Tags,
		Metadata:             req.Metadata,
	})
	if err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Delete godoc
// @Summary Delete an event
// @Description Deletes an event and its participant links. Only the owner can delete. Requires Bearer token.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) Delete(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Delete(r.Context(), eventID, userID); err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// AddParticipant godoc
// @Summary Add a recipient to an event
// @Description Links a recipient to the event. Status defaults to invited. Re-adding the same recipient updates the status and re-stamps the invite time instead of duplicating. Both event and recipient must belong to the caller. Requires Bearer token.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body AddParticipantRequest true "Recipient and optional status"
// @Success 201 {object} controllers.ParticipantSuccessResponse "data contains the participant link"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants [post]
func (c *EventController) AddParticipant(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req AddParticipantRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	participant, err := c.Service.AddParticipant(r.Context(), eventID, userID, req.RecipientID, domain.ParticipantStatus(req.Status))
	if err != nil {
		c.writeServiceError(w, r, err, "event or recipient not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, participant)
}

// RemoveParticipant godoc
// @Summary Remove a recipient from an event
// @Description Removes the participant link and recomputes the event's participant count. Only the owner can remove. Requires Bearer token.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param recipientID path string true "Recipient ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants/{recipientID} [delete]
func (c *EventController) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	recipientID := r.PathValue("recipientID")
	if eventID == "" || recipientID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID or recipientID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.RemoveParticipant(r.Context(), eventID, userID, recipientID); err != nil {
		c.writeServiceError(w, r, err, "event or participant not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "removed"})
}

// ListParticipants godoc
// @Summary List participants of an event
// @Description Returns the participant links for the event. Only the owner can list. Requires Bearer token.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListParticipantsSuccessResponse "data is an array of participants"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants [get]
func (c *EventController) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	participants, err := c.Service.ListParticipants(r.Context(), eventID, userID)
	if err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	if participants == nil {
		participants = []*domain.EventParticipant{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, participants)
}

// Search godoc
// @Summary Search events
// @Description Searches the user's events by title, description, location, or tag. The q parameter is required. Requires Bearer token.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search term"
// @Success 200 {object} controllers.EventListSuccessResponse "data is an array of events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/search [get]
func (c *EventController) Search(w http.ResponseWriter, r *http.Request) {
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
	events, err := c.Service.Search(r.Context(), userID, term)
	if err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// Upcoming godoc
// @Summary List upcoming events
// @Description Returns the user's active events with a future date, soonest first. Optional limit (default 10). Requires Bearer token.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of events (default 10)"
// @Success 200 {object} controllers.EventListSuccessResponse "data is an array of events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/upcoming [get]
func (c *EventController) Upcoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	events, err := c.Service.GetUpcoming(r.Context(), userID, limit)
	if err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// Stats godoc
// @Summary Event statistics
// @Description Returns counts of the user's events by status, upcoming count, and total participants. Requires Bearer token.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventStatsSuccessResponse "data contains the aggregates"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/stats [get]
func (c *EventController) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	stats, err := c.Service.GetStats(r.Context(), userID)
	if err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}
