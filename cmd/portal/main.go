// Command portal serves the clinic's staff and patient web portal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/dentist-portal/internal/apiclient"
	"github.com/harentsoaR/dentist-portal/internal/auth"
	"github.com/harentsoaR/dentist-portal/internal/config"
	"github.com/harentsoaR/dentist-portal/internal/handlers"
	"github.com/harentsoaR/dentist-portal/internal/middleware"
	"github.com/harentsoaR/dentist-portal/internal/reports"
	"github.com/harentsoaR/dentist-portal/internal/session"
	"github.com/harentsoaR/dentist-portal/pkg/logger"
)

const connectTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.Production(), Service: "dental-portal"})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("portal stopped")
	}
}

// sessionBackend is the chosen session storage plus what it needs at shutdown.
type sessionBackend struct {
	provider session.Provider
	pingers  map[string]handlers.Pinger
	forget   func(id string)
	close    func(ctx context.Context) error
}

func openSessions(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sessionBackend, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Session.Backend {
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		provider := session.NewMongoProvider(client.Database(cfg.Mongo.Database))
		if err := provider.EnsureIndexes(ctx, cfg.Session.IdleTTL); err != nil {
			log.Warn().Err(err).Msg("session ttl index not created")
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("sessions stored in mongo")
		return &sessionBackend{
			provider: provider,
			pingers:  map[string]handlers.Pinger{"mongo": func(ctx context.Context) error { return client.Ping(ctx, nil) }},
			close:    client.Disconnect,
		}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("sessions stored in redis")
		return &sessionBackend{
			provider: session.NewRedisProvider(client, cfg.Session.IdleTTL),
			pingers:  map[string]handlers.Pinger{"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() }},
			close:    func(context.Context) error { return client.Close() },
		}, nil

	default:
		mem := session.NewMemoryProvider()
		log.Warn().Msg("sessions kept in memory; they are lost on restart")
		return &sessionBackend{
			provider: mem,
			forget:   mem.Forget,
			close:    func(context.Context) error { return nil },
		}, nil
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions, err := openSessions(context.Background(), cfg, log)
	if err != nil {
		return err
	}

	api := apiclient.New(apiclient.Options{
		BaseURL:  cfg.APIURL,
		Timeout:  cfg.APITimeout,
		DevMode:  cfg.DevMode,
		DevDelay: cfg.DevDelay,
		OnUnauthorized: func(ctx context.Context, token string) {
			if ac, ok := auth.FromContext(ctx); ok {
				ac.LogoutIfToken(ctx, token)
			}
		},
		Logger: log,
	})
	if cfg.DevMode {
		log.Warn().Str("token", apiclient.DevToken).Msg("dev mode: backend calls answered with fixtures")
	}

	registry := auth.NewRegistry(func(id string) *auth.Context {
		return auth.New(api, session.NewStore(sessions.provider.Scope(id)), log.With().Str("session", id).Logger())
	}, cfg.Session.IdleTTL)
	if sessions.forget != nil {
		registry.OnEvict(sessions.forget)
	}

	router, err := handlers.NewRouter(handlers.RouterConfig{
		Handler:  handlers.NewHandler(api, reports.NewGenerator(api, log), log),
		Health:   handlers.NewHealthHandler(sessions.pingers),
		Registry: registry,
		Cookie: middleware.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			MaxAge: int(cfg.Session.IdleTTL.Seconds()),
		},
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.APITimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("backend", cfg.APIURL).Bool("dev", cfg.DevMode).Msg("portal listening")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := sessions.close(ctx); err != nil {
		log.Error().Err(err).Msg("session storage close")
	}
	log.Info().Msg("portal stopped")
	return nil
}
