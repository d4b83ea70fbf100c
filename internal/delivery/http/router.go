package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"outreachhub/internal/delivery/http/controllers"
	"outreachhub/internal/delivery/http/middleware"
)

// NewRouter initializes the HTTP router with all application routes.
// Everything except /auth/* and /swagger/ requires a Bearer token.
func NewRouter(
	logger *slog.Logger,
	checker middleware.TokenChecker,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	eventController *controllers.EventController,
	recipientController *controllers.RecipientController,
	messageController *controllers.MessageController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(checker, logger)

	// Auth
	mux.HandleFunc("POST /auth/register", authController.Register)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Users
	mux.HandleFunc("GET /users/me", auth(userController.GetMe))
	mux.HandleFunc("PUT /users/me", auth(userController.UpdateMe))
	mux.HandleFunc("DELETE /users/me", auth(userController.DeleteMe))
	mux.HandleFunc("POST /users/me/password", auth(userController.ChangePassword))
	mux.HandleFunc("POST /users/me/deactivate", auth(userController.DeactivateMe))

	// Events
	mux.HandleFunc("POST /events", auth(eventController.Create))
	mux.HandleFunc("GET /events", auth(eventController.List))
	mux.HandleFunc("GET /events/search", auth(eventController.Search))
	mux.HandleFunc("GET /events/upcoming", auth(eventController.Upcoming))
	mux.HandleFunc("GET /events/stats", auth(eventController.Stats))
	mux.HandleFunc("GET /events/{eventID}", auth(eventController.GetByID))
	mux.HandleFunc("PUT /events/{eventID}", auth(eventController.Update))
	mux.HandleFunc("DELETE /events/{eventID}", auth(eventController.Delete))
	mux.HandleFunc("POST /events/{eventID}/participants", auth(eventController.AddParticipant))
	mux.HandleFunc("GET /events/{eventID}/participants", auth(eventController.ListParticipants))
	mux.HandleFunc("DELETE /events/{eventID}/participants/{recipientID}", auth(eventController.RemoveParticipant))

	// Recipients
	mux.HandleFunc("POST /recipients", auth(recipientController.Create))
	mux.HandleFunc("GET /recipients", auth(recipientController.List))
	mux.HandleFunc("POST /recipients/bulk", auth(recipientController.BulkCreate))
	mux.HandleFunc("GET /recipients/search", auth(recipientController.Search))
	mux.HandleFunc("GET /recipients/tags", auth(recipientController.Tags))
	mux.HandleFunc("GET /recipients/stats", auth(recipientController.Stats))
	mux.HandleFunc("GET /recipients/{recipientID}", auth(recipientController.GetByID))
	mux.HandleFunc("PUT /recipients/{recipientID}", auth(recipientController.Update))
	mux.HandleFunc("DELETE /recipients/{recipientID}", auth(recipientController.Delete))
	mux.HandleFunc("POST /recipients/{recipientID}/opt-out", auth(recipientController.OptOut))
	mux.HandleFunc("POST /recipients/{recipientID}/opt-in", auth(recipientController.OptIn))

	// Messages
	mux.HandleFunc("POST /messages", auth(messageController.Create))
	mux.HandleFunc("GET /messages", auth(messageController.List))
	mux.HandleFunc("GET /messages/stats", auth(messageController.Stats))
	mux.HandleFunc("PATCH /messages/sends/{sendID}", auth(messageController.UpdateSendStatus))
	mux.HandleFunc("GET /messages/{messageID}", auth(messageController.GetByID))
	mux.HandleFunc("PUT /messages/{messageID}", auth(messageController.Update))
	mux.HandleFunc("DELETE /messages/{messageID}", auth(messageController.Delete))
	mux.HandleFunc("POST /messages/{messageID}/schedule", auth(messageController.Schedule))
	mux.HandleFunc("POST /messages/{messageID}/send", auth(messageController.Send))
	mux.HandleFunc("GET /messages/{messageID}/sends", auth(messageController.ListSends))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
