// Package server is the composition root: it builds every dependency from
// config.Config, mounts the routes and runs the HTTP server until a
// shutdown signal arrives.
//
// DEPENDENCY CHAIN:
//
//	sqlite.DB ─┬─> AuthService ────────> AuthHandler
//	           ├─> LeaderboardService ─> LeaderboardHandler
//	           └─> CheckInService ─────> CheckInHandler
//	cache.Cache ──> LeaderboardService (invalidated by CheckInService)
//	events.Publisher ──> CheckInService
//
// Redis and RabbitMQ are optional. Without REDIS_ADDR the leaderboard is
// cached in process; without AMQP_URL events are dropped.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/checkin-tracker/internal/auth"
	"github.com/sakif/checkin-tracker/internal/cache"
	"github.com/sakif/checkin-tracker/internal/config"
	"github.com/sakif/checkin-tracker/internal/events"
	"github.com/sakif/checkin-tracker/internal/handler"
	"github.com/sakif/checkin-tracker/internal/middleware"
	sqliteRepo "github.com/sakif/checkin-tracker/internal/repository/sqlite"
	"github.com/sakif/checkin-tracker/internal/service"
	"github.com/sakif/checkin-tracker/internal/tracker"
)

// Server owns the router and every long-lived connection. Start closes
// them on the way out.
type Server struct {
	router    *chi.Mux
	config    config.Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	cache     cache.Cache
	publisher events.Publisher
	now       func() time.Time
}

// New opens the database and optional infrastructure and mounts the routes.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	return newServer(cfg, logger, time.Now)
}

func newServer(cfg config.Config, logger *slog.Logger, now func() time.Time) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		db:        db,
		cache:     openCache(cfg, logger),
		publisher: openPublisher(cfg, logger),
		now:       now,
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// openCache connects to Redis when configured and falls back to an
// in-process cache when it is not, or when Redis is unreachable at startup.
func openCache(cfg config.Config, logger *slog.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemory()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r, err := cache.NewRedis(ctx, cache.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn("redis unavailable, caching in process", slog.String("error", err.Error()))
		return cache.NewMemory()
	}
	logger.Info("leaderboard cache on redis", slog.String("addr", cfg.RedisAddr))
	return r
}

// openPublisher connects to RabbitMQ when configured. Events are optional,
// so a broker that is down at startup only disables them.
func openPublisher(cfg config.Config, logger *slog.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.Nop{}
	}
	p, err := events.NewAMQP(cfg.AMQPURL, logger)
	if err != nil {
		logger.Warn("amqp unavailable, events disabled", slog.String("error", err.Error()))
		return events.Nop{}
	}
	return p
}

// setupRoutes mounts middleware and handlers.
//
// ROUTES:
//
//	GET  /healthz
//	GET  /api/challenge
//	GET  /api/leaderboard                 optional session
//	POST /auth/register, /auth/login      rate limited
//	GET  /auth/github/login, /auth/github/callback
//	POST /auth/logout
//	GET  /api/me, /api/checkins/today, /api/checkins, /api/calendar, /api/profile
//	POST /api/checkins/today/{period}
//
// Without JWT_SECRET only the first three are mounted.
//
// Middleware order: RequestID first so the logger can read it, RealIP
// before the rate limiter keys on the address, Recoverer innermost so a
// panic still gets logged as a 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	challenge := tracker.NewChallenge(s.config.Month(), s.config.Location())

	leaderboardSvc := service.NewLeaderboardService(s.db, s.cache, s.config.LeaderboardTTL, challenge, s.logger, s.now)
	checkInSvc := service.NewCheckInService(s.db, s.db, challenge, s.publisher, leaderboardSvc, s.logger, s.now)

	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	challengeHandler := handler.NewChallengeHandler(challenge, s.now)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardSvc, s.logger)
	checkInHandler := handler.NewCheckInHandler(checkInSvc, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	if !s.config.AuthEnabled() {
		s.logger.Warn("JWT_SECRET not set: sign-in and check-in routes are disabled")
		s.router.Route("/api", func(r chi.Router) {
			r.Get("/challenge", challengeHandler.HandleChallenge)
			r.Get("/leaderboard", leaderboardHandler.HandleLeaderboard)
		})
		return nil
	}

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)
	authSvc := service.NewAuthService(s.db, tokens, passwords, s.logger)

	// A nil *GitHubProvider inside the interface would look configured.
	var github handler.OAuthProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	} else {
		s.logger.Info("GitHub sign-in not configured")
	}
	authHandler := handler.NewAuthHandler(authSvc, github, s.config.SecureCookies, s.logger)

	limiter := middleware.NewRateLimiter(s.config.AuthRatePerMinute)

	s.router.Route("/auth", func(r chi.Router) {
		r.With(limiter.Handler).Post("/register", authHandler.HandleRegister)
		r.With(limiter.Handler).Post("/login", authHandler.HandleLogin)
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/challenge", challengeHandler.HandleChallenge)
		r.With(auth.OptionalAuth(tokens)).Get("/leaderboard", leaderboardHandler.HandleLeaderboard)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Get("/checkins/today", checkInHandler.HandleToday)
			r.Post("/checkins/today/{period}", checkInHandler.HandleMark)
			r.Get("/checkins", checkInHandler.HandleMonth)
			r.Get("/calendar", checkInHandler.HandleCalendar)
			r.Get("/profile", checkInHandler.HandleProfile)
		})
	})

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the publisher, cache and database, in that order.
func (s *Server) Close() error {
	var errs []error
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing publisher: %w", err))
	}
	if err := s.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing cache: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}
	return errors.Join(errs...)
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes every connection.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("challengeMonth", s.config.Month().String()),
			slog.String("timezone", s.config.Timezone),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
