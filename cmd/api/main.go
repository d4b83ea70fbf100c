package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreachhub/config"
	"outreachhub/internal/adapters/auth"
	"outreachhub/internal/adapters/email"
	delivery "outreachhub/internal/delivery/http"
	"outreachhub/internal/delivery/http/controllers"
	"outreachhub/internal/delivery/http/middleware"
	"outreachhub/internal/repository/postgres"
	"outreachhub/internal/services"
)

const serviceTimeout = 10 * time.Second

// @title OutreachHub API
// @version 1.0
// @description Event and outreach management backend: accounts, events, recipient directories, and message delivery tracking.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	db, err := postgres.Open(cfg.DBUrl)
	if err != nil {
		logger.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(db, cfg.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	participantRepo := postgres.NewParticipantRepository(db)
	recipientRepo := postgres.NewRecipientRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokenIssuer := auth.NewJWTIssuer(cfg.JWTSecret)
	tokenVerifier := auth.NewJWTVerifier(cfg.JWTSecret)

	mailer, err := email.NewMailer(cfg.Email)
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	authService := services.NewAuthService(userRepo, hasher, tokenIssuer, tokenVerifier, cfg.JWTExpiry, emailService, logger)
	userService := services.NewUserService(userRepo, hasher, serviceTimeout)
	eventService := services.NewEventService(eventRepo, participantRepo, recipientRepo, serviceTimeout)
	recipientService := services.NewRecipientService(recipientRepo, serviceTimeout)
	messageService := services.NewMessageService(messageRepo, recipientRepo, serviceTimeout)

	mux := delivery.NewRouter(
		logger,
		authService,
		controllers.NewAuthController(logger, authService),
		controllers.NewUserController(logger, userService),
		controllers.NewEventController(logger, eventService),
		controllers.NewRecipientController(logger, recipientService),
		controllers.NewMessageController(logger, messageService),
	)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
