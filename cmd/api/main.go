package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/xecbot/xecbot-api/internal/config"
	"github.com/xecbot/xecbot-api/internal/domain/auth"
	"github.com/xecbot/xecbot-api/internal/domain/chat"
	"github.com/xecbot/xecbot-api/internal/domain/ratelimit"
	"github.com/xecbot/xecbot-api/internal/middleware"
	"github.com/xecbot/xecbot-api/internal/pkg/clientip"
	"github.com/xecbot/xecbot-api/internal/pkg/database"
	"github.com/xecbot/xecbot-api/internal/pkg/jwt"
	"github.com/xecbot/xecbot-api/internal/pkg/logger"
	pkgresponse "github.com/xecbot/xecbot-api/internal/pkg/response"
	"github.com/xecbot/xecbot-api/internal/pkg/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, LogFile: cfg.LogFile})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("rate_limit_backend", cfg.RateLimitBackend).
		Msg("Starting xecbot API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	counter, closeCounter, err := newCounter(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.RateLimitBackend).Msg("Failed to set up rate limit backend")
	}
	defer closeCounter()
	breaker := ratelimit.NewBreakerCounter(counter, ratelimit.DefaultBreakerSettings(cfg.RateLimitBackend))

	// Session verification: local when the project JWT secret is known,
	// otherwise through the provider.
	var verifier *jwt.Service
	if cfg.SupabaseJWTSecret != "" {
		verifier = jwt.NewService(cfg.SupabaseJWTSecret, time.Hour)
	}
	provider := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, 10*time.Second)
	authService := auth.NewService(provider, verifier)

	ips := clientip.NewResolver(cfg.ClientIPHeaders)
	throttle := middleware.NewThrottleStore(cfg.AuthThrottleRPS, cfg.AuthThrottleBurst)
	throttle.StartJanitor(ctx)

	r := newRouter(routerDeps{
		auth:           auth.NewHandler(authService, cfg.SiteURL, cfg.OAuthProvider, cfg.CookieSecure),
		chat:           chat.NewHandler(ratelimit.NewPolicy(breaker), chat.NewStreamer(cfg.StreamChunkDelay), ips, cfg.AllowedOrigins),
		authMiddleware: middleware.Auth(authService),
		throttle:       middleware.Throttle(throttle, ips),
		ips:            ips,
		allowedOrigins: cfg.AllowedOrigins,
		health: func() map[string]string {
			return map[string]string{
				"status":             "ok",
				"version":            "1.0.0",
				"rate_limit_backend": cfg.RateLimitBackend,
				"rate_limit_circuit": breaker.State(),
			}
		},
	})

	// No WriteTimeout: chat replies stream.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("Server exited properly")
}

// newCounter builds the configured rate-limit backend and its cleanup.
func newCounter(ctx context.Context, cfg *config.Config) (ratelimit.Counter, func(), error) {
	switch cfg.RateLimitBackend {
	case config.BackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		counter, err := ratelimit.NewPostgresCounter(db, cfg.RateLimitFunction)
		if err != nil {
			database.ClosePostgres(db)
			return nil, nil, err
		}
		return counter, func() { database.ClosePostgres(db) }, nil

	case config.BackendRedis:
		client, err := database.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return ratelimit.NewRedisCounter(client), func() { database.CloseRedis(client) }, nil

	default:
		counter, err := ratelimit.NewSupabaseCounter(supabase.NewAdmin(cfg), cfg.RateLimitFunction)
		if err != nil {
			return nil, nil, err
		}
		return counter, func() {}, nil
	}
}

type routerDeps struct {
	auth           *auth.Handler
	chat           *chat.Handler
	authMiddleware func(http.Handler) http.Handler
	throttle       func(http.Handler) http.Handler
	ips            *clientip.Resolver
	allowedOrigins []string
	health         func() map[string]string
}

func newRouter(d routerDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.ips))
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(d.allowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, d.health())
	})

	r.Mount("/auth", d.auth.Routes(d.throttle))

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", d.auth.Session)
		r.Mount("/chat", d.chat.Routes(d.authMiddleware))
	})

	return r
}
