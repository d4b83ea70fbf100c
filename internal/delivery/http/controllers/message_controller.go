package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"outreachhub/internal/delivery/http/helpers"
	"outreachhub/internal/delivery/http/middleware"
	"outreachhub/internal/domain"
)

// MessageRequest is the request body for POST /messages and PUT /messages/{messageID}.
// On update the whole field set replaces the stored message.
type MessageRequest struct {
	EventID     *string         `json:"event_id"`
	Subject     string          `json:"subject"`
	Content     string          `json:"content"`
	MessageType string          `json:"message_type"`
	ScheduledAt *time.Time      `json:"scheduled_at"`
	Metadata    json.RawMessage `json:"metadata"`
}

// Validate implements Validator.
func (m MessageRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(m.Subject) == "" {
		errs = append(errs, "subject is required")
	}
	if strings.TrimSpace(m.Content) == "" {
		errs = append(errs, "content is required")
	}
	if m.MessageType != "" && !domain.MessageType(m.MessageType).Valid() {
		errs = append(errs, "message_type must be one of email, sms, whatsapp, push")
	}
	return errs
}

// ScheduleRequest is the request body for POST /messages/{messageID}/schedule.
type ScheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// Validate implements Validator.
func (s ScheduleRequest) Validate() []string {
	if s.ScheduledAt.IsZero() {
		return []string{"scheduled_at is required"}
	}
	return nil
}

// SendRequest is the request body for POST /messages/{messageID}/send.
type SendRequest struct {
	RecipientIDs []string `json:"recipient_ids"`
}

// Validate implements Validator.
func (s SendRequest) Validate() []string {
	if len(s.RecipientIDs) == 0 {
		return []string{"recipient_ids is required"}
	}
	return nil
}

// UpdateSendStatusRequest is the request body for PATCH /messages/sends/{sendID}.
type UpdateSendStatusRequest struct {
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message"`
}

// Validate implements Validator.
func (u UpdateSendStatusRequest) Validate() []string {
	var errs []string
	if u.Status == "" {
		errs = append(errs, "status is required")
	} else if !domain.SendStatus(u.Status).Valid() {
		errs = append(errs, "status must be one of pending, sent, delivered, read, failed")
	}
	return errs
}

// MessageSuccessResponse is the success response envelope for single-message endpoints.
type MessageSuccessResponse struct {
	Data  *domain.Message   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListMessagesResponse is the data payload for GET /messages (200).
type ListMessagesResponse struct {
	Items      []*domain.Message      `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListMessagesSuccessResponse is the success response envelope for GET /messages (200).
type ListMessagesSuccessResponse struct {
	Data  ListMessagesResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// SendMessageResponse is the data payload for POST /messages/{messageID}/send (200).
type SendMessageResponse struct {
	Message *domain.Message       `json:"message"`
	Sends   []*domain.MessageSend `json:"sends"`
}

// SendMessageSuccessResponse is the success response envelope for POST /messages/{messageID}/send (200).
type SendMessageSuccessResponse struct {
	Data  SendMessageResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// ListSendsSuccessResponse is the success response envelope for GET /messages/{messageID}/sends (200).
type ListSendsSuccessResponse struct {
	Data  []*domain.MessageSend `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// MessageStatsSuccessResponse is the success response envelope for GET /messages/stats (200).
type MessageStatsSuccessResponse struct {
	Data  *domain.MessageStats `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type MessageController struct {
	Logger  *slog.Logger
	Service domain.MessageService
}

func NewMessageController(logger *slog.Logger, svc domain.MessageService) *MessageController {
	return &MessageController{Logger: logger, Service: svc}
}

func (c *MessageController) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrAlreadySent):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "message has already been sent")
	case errors.Is(err, domain.ErrCannotModifySent):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "a sent message cannot be modified")
	case errors.Is(err, domain.ErrCannotDeleteSending):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "a message mid-send cannot be deleted")
	case errors.Is(err, domain.ErrInvalidState):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// Create godoc
// @Summary Create a message
// @Description Creates a draft message owned by the authenticated user, optionally tied to an event. Requires Bearer token.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body MessageRequest true "Message data"
// @Success 201 {object} controllers.MessageSuccessResponse "data contains the created message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages [post]
func (c *MessageController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req MessageRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	message := &domain.Message{
		EventID:     req.EventID,
		Subject:     strings.TrimSpace(req.Subject),
		Content:     req.Content,
		MessageType: domain.MessageType(req.MessageType),
		ScheduledAt: req.ScheduledAt,
		Metadata:    req.Metadata,
	}
	if err := c.Service.Create(r.Context(), userID, message); err != nil {
		c.writeServiceError(w, r, err, "message not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, message)
}

// GetByID godoc
// @Summary Get a message by ID
// @Description Returns a single message. Only the owner can access it. Requires Bearer token.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param messageID path string true "Message ID (UUID)"
// @Success 200 {object} controllers.MessageSuccessResponse "data contains the message"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/{messageID} [get]
func (c *MessageController) GetByID(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("messageID")
	if messageID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing messageID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	message, err := c.Service.GetByID(r.Context(), messageID, userID)
	if err != nil {
		c.writeServiceError(w, r, err, "message not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, message)
}

// List godoc
// @Summary List messages
// @Description Returns a paginated list of the authenticated user's messages, newest first. Optional status and event_id filters. Requires Bearer token.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (draft, scheduled, sending, sent, failed)"
// @Param event_id query string false "Filter by event ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListMessagesSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages [get]
func (c *MessageController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	filter := domain.MessageListFilter{PaginationParams: helpers.ParsePagination(r)}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.MessageStatus(s)
		filter.Status = &status
	}
	if s := r.URL.Query().Get("event_id"); s != "" {
		filter.EventID = &s
	}
	messages, total, err := c.Service.List(r.Context(), userID, filter)
	if err != nil {
		c.writeServiceError(w, r, err, "message not found")
		return
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	meta := helpers.NewPaginationMeta(filter.Page, filter.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListMessagesResponse{Items: messages, Pagination: meta})
}

// Update godoc
// @Summary Update a message
// @Description Replaces all mutable message fields with the submitted values. A sent message cannot be modified (409). Only the owner can update. Requires Bearer token.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param messageID path string true "Message ID (UUID)"
// @Param body body MessageRequest true "Full message field set"
// @Success 200 {object} controllers.MessageSuccessResponse "data contains the updated message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already sent)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/{messageID} [put]
func (c *MessageController) Update(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("messageID")
	if messageID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing messageID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req MessageRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	messageType := domain.MessageType(req.MessageType)
	if messageType == "" {
		messageType = domain.MessageTypeEmail
	}
	message, err := c.Service.Update(r.Context(), messageID, userID, domain.MessageUpdateInput{
		EventID:     req.EventID,
		Subject:     strings.TrimSpace(req.Subject),
		Content:     req.Content,
		MessageType: messageType,
		ScheduledAt: req.ScheduledAt,
		Metadata:    req.Metadata,
	})
	if err != nil {
		c.writeServiceError(w, r, err, "message not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, message)
}

// Delete godoc
// @Summary Delete a message
// @Description Deletes a message and its delivery records. A message mid-send cannot be deleted (409). Only the owner can delete. Requires Bearer token.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param messageID path string true "Message ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (sending)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/{messageID} [delete]
func (c *MessageController) Delete(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("messageID")
	if messageID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing messageID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Delete(r.Context(), messageID, userID); err != nil {
		c.writeServiceError(w, r, err, "message not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// Schedule godoc
// @Summary Schedule a message
// @Description Sets a future send time and moves the message to scheduled. Already sent or sending messages return 409. Requires Bearer token.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param messageID path string true "Message ID (UUID)"
// @Param body body ScheduleRequest true "Future send time"
// @Success 200 {object} controllers.MessageSuccessResponse "data contains the scheduled message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already sent)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/{messageID}/schedule [post]
func (c *MessageController) Schedule(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("messageID")
	if messageID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing messageID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req ScheduleRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	message, err := c.Service.Schedule(r.Context(), messageID, userID, req.ScheduledAt)
	if err != nil {
		c.writeServiceError(w, r, err, "message not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, message)
}

// Send godoc
// @Summary Send a message
// @Description Dispatches the message to the given recipients as one atomic batch: every recipient gets a pending delivery record with an email snapshot and the message moves to sent. Every recipient must belong to the caller; one foreign ID fails the whole batch. Requires Bearer token.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param messageID path string true "Message ID (UUID)"
// @Param body body SendRequest true "Recipient IDs"
// @Success 200 {object} controllers.SendMessageSuccessResponse "data contains the message and its delivery records"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (foreign recipient)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already sent)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/{messageID}/send [post]
func (c *MessageController) Send(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("messageID")
	if messageID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing messageID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req SendRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	message, sends, err := c.Service.Send(r.Context(), messageID, userID, req.RecipientIDs)
	if err != nil {
		c.writeServiceError(w, r, err, "message or recipient not found")
		return
	}
	if sends == nil {
		sends = []*domain.MessageSend{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SendMessageResponse{Message: message, Sends: sends})
}

// ListSends godoc
// @Summary List delivery records for a message
// @Description Returns the per-recipient delivery records for the message. Only the owner can list. Requires Bearer token.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param messageID path string true "Message ID (UUID)"
// @Success 200 {object} controllers.ListSendsSuccessResponse "data is an array of delivery records"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/{messageID}/sends [get]
func (c *MessageController) ListSends(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("messageID")
	if messageID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing messageID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	sends, err := c.Service.ListSends(r.Context(), messageID, userID)
	if err != nil {
		c.writeServiceError(w, r, err, "message not found")
		return
	}
	if sends == nil {
		sends = []*domain.MessageSend{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sends)
}

// UpdateSendStatus godoc
// @Summary Update a delivery record's status
// @Description Advances one delivery record through pending, sent, delivered, read, or failed, stamping the matching timestamp. Intended for the delivery worker callback; the record must belong to one of the caller's messages. Requires Bearer token.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sendID path string true "Delivery record ID (UUID)"
// @Param body body UpdateSendStatusRequest true "New status and optional error message"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/sends/{sendID} [patch]
func (c *MessageController) UpdateSendStatus(w http.ResponseWriter, r *http.Request) {
	sendID := r.PathValue("sendID")
	if sendID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing sendID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateSendStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.UpdateSendStatus(r.Context(), sendID, userID, domain.SendStatus(req.Status), req.ErrorMessage); err != nil {
		c.writeServiceError(w, r, err, "delivery record not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "updated"})
}

// Stats godoc
// @Summary Message statistics
// @Description Returns counts of the user's messages by status plus successful and failed send totals. Requires Bearer token.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.MessageStatsSuccessResponse "data contains the aggregates"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/stats [get]
func (c *MessageController) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	stats, err := c.Service.GetStats(r.Context(), userID)
	if err != nil {
		c.writeServiceError(w, r, err, "message not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}
