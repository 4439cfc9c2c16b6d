package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DukeRupert/csnm/internal"
	"github.com/DukeRupert/csnm/internal/email"
	"github.com/DukeRupert/csnm/internal/handler"
	"github.com/DukeRupert/csnm/internal/middleware"
	"github.com/DukeRupert/csnm/internal/service"
)

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize mail transport
	transport, err := newTransport(cfg, logger)
	if err != nil {
		return fmt.Errorf("mail transport initialization failed: %w", err)
	}

	mail := cfg.Mail()
	if !mail.Configured {
		logger.Warn("Mail transport is not configured, reservations will be refused",
			"provider", cfg.MailProvider,
			"hint", "set SMTP_HOST, SMTP_USER and SMTP_PASS",
		)
	}

	// Initialize services
	reservationService, err := service.NewReservationService(transport, mail, logger)
	if err != nil {
		return fmt.Errorf("reservation service initialization failed: %w", err)
	}

	// Initialize middleware
	messages := handler.MessagesFor(cfg.MessagesLang)
	limiter, closeLimiter, err := newLimiter(cfg, logger)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}
	defer closeLimiter()

	// Initialize handlers
	router := newRouter(routerConfig{
		Logger:      logger,
		IsSecure:    !cfg.IsDevelopment(),
		Reservation: handler.NewReservationHandler(reservationService, messages, logger),
		Site:        handler.NewSiteHandler(os.DirFS(cfg.PublicDir), logger),
		RateLimit:   middleware.NewRateLimitMiddleware(limiter, handler.ErrorWriter(logger, messages), logger),
		MetricsAuth: middleware.MetricsAuth(cfg.MetricsUsername, cfg.MetricsPassword),
	})

	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		logger.Warn("Metrics endpoint is not protected, set METRICS_USERNAME and METRICS_PASSWORD")
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Two sequential sends must fit in one response.
		WriteTimeout: 2*cfg.SMTPTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started",
			"address", server.Addr,
			"env", cfg.Env,
			"mail_provider", cfg.MailProvider,
			"public_dir", cfg.PublicDir,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newTransport selects the mail transport named by MAIL_PROVIDER.
func newTransport(cfg *internal.Config, logger *slog.Logger) (email.Transport, error) {
	switch cfg.MailProvider {
	case internal.MailProviderPostmark:
		return email.NewPostmarkTransport(cfg.PostmarkServerToken, cfg.PostmarkAccountToken, logger)
	case internal.MailProviderLog:
		return email.NewLogTransport(logger), nil
	default:
		return email.NewSMTPTransport(cfg.SMTP(), logger), nil
	}
}

// newLimiter uses Redis when REDIS_URL is set so every instance shares the
// same budget, and an in-process limiter otherwise.
func newLimiter(cfg *internal.Config, logger *slog.Logger) (middleware.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		limiter := middleware.NewRateLimiter(cfg.ReservationRateLimit, cfg.ReservationRateWindow)
		return limiter, limiter.Close, nil
	}

	client, err := middleware.ConnectRedis(context.Background(), cfg.RedisURL, 5*time.Second)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Rate limiting through Redis")

	limiter := middleware.NewRedisRateLimiter(client, "csnm:ratelimit:reservation:", cfg.ReservationRateLimit, cfg.ReservationRateWindow)
	return limiter, func() { _ = client.Close() }, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
