package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roomescape/reservation-web/internal/api"
	"github.com/roomescape/reservation-web/internal/config"
	"github.com/roomescape/reservation-web/internal/logging"
	"github.com/roomescape/reservation-web/internal/repository"
	"github.com/roomescape/reservation-web/internal/reservation"
	"github.com/roomescape/reservation-web/internal/service"
	"github.com/roomescape/reservation-web/internal/view"
	"github.com/roomescape/reservation-web/internal/web"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		bootLogger := logging.New(config.Default().Log)
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(cfg.Log)

	// Initialize the repository using the factory
	repo, err := repository.NewRepository(cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize repository")
	}

	// Check if we're using a Redis repository, and if so, close it properly on exit
	if redisRepo, ok := repo.(interface{ Close() error }); ok {
		defer func() {
			if err := redisRepo.Close(); err != nil {
				logger.Error().Err(err).Msg("Error closing Redis connection")
			}
		}()
	}

	client := reservation.NewClient(cfg.Upstream, cfg.Labels.Confirmed)

	// Initialize the service layer
	reservationService := service.NewReservationService(
		client,
		repo,
		view.LabelsFromConfig(cfg.Labels),
		logging.Component(logger, "service"),
	)

	var auth *web.AuthMiddleware
	if cfg.Auth.Enabled {
		auth = web.NewAuthMiddleware(client, cfg.Auth, logging.Component(logger, "auth"))
	} else {
		logger.Warn().Msg("Login check disabled; pages are served without verifying the member")
	}

	// Set up web UI routes
	webHandler, err := web.NewHandler(reservationService, auth, cfg.Server.TemplatesDir, logging.Component(logger, "web"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize web handler")
	}

	// Register the SSE update callback with the reservation service
	reservationService.RegisterUpdateCallback(webHandler.NotifyReservationUpdate)

	mux := api.SetupRoutes(repo)
	webHandler.SetupRoutes(mux)

	// Configure the HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      web.WrapMuxWithMiddleware(mux, logging.Component(logger, "http")),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disable write timeout for SSE connections
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("port", cfg.Server.Port).
			Str("upstream", cfg.Upstream.BaseURL).
			Bool("redis", cfg.Redis.Enabled).
			Msg("Starting reservation web server")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Error starting server")
		}

	case <-shutdown:
		logger.Info().Msg("Shutting down server...")

		// First, shutdown the web handler to close SSE connections
		webHandler.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			logger.Error().Err(err).Msg("Error shutting down server")
			return
		}

		logger.Info().Msg("Server gracefully stopped")
	}
}
