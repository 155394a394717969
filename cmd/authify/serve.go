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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/authify/authify-gateway/internal/api"
	"github.com/authify/authify-gateway/internal/api/handler"
	"github.com/authify/authify-gateway/internal/api/metrics"
	"github.com/authify/authify-gateway/internal/api/middleware"
	"github.com/authify/authify-gateway/internal/core/ports"
	"github.com/authify/authify-gateway/internal/core/service"
	"github.com/authify/authify-gateway/internal/infrastructure/authify"
	"github.com/authify/authify-gateway/internal/infrastructure/config"
	mongodb "github.com/authify/authify-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/authify/authify-gateway/internal/infrastructure/db/redis"
	"github.com/authify/authify-gateway/internal/infrastructure/session"
	"github.com/authify/authify-gateway/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway for browsers",
		Long: `Run the HTTP gateway. Browsers get an HttpOnly session cookie; the
gateway keeps the backend cookies in the configured session store (memory,
redis or mongo) and exposes /api, /health, /metrics and /swagger.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

// stores are the session store and resend limiter picked by SESSION_STORE.
type stores struct {
	sessions ports.SessionStore
	limiter  ports.ResendLimiter
	close    func()
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Session.Store {
	case config.StoreRedis:
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, err
		}
		return &stores{
			sessions: redisdb.NewSessionStore(client),
			limiter:  redisdb.NewResendLimiter(client, cfg.Flows.ResendCooldown),
			close:    func() { _ = client.Close() },
		}, nil

	case config.StoreMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return nil, err
		}
		store := mongodb.NewSessionStore(db)
		limiter := mongodb.NewResendLimiter(db, cfg.Flows.ResendCooldown)
		for _, ensure := range []func(context.Context) error{store.EnsureIndexes, limiter.EnsureIndexes} {
			if err := ensure(ctx); err != nil {
				_ = client.Disconnect(context.Background())
				return nil, err
			}
		}
		return &stores{
			sessions: store,
			limiter:  limiter,
			close:    func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		if cfg.Production() {
			log.Warn().Msg("in-memory session store: sessions are lost on restart and not shared between replicas")
		}
		store := session.NewMemoryStore()
		limiter := session.NewMemoryLimiter(cfg.Flows.ResendCooldown)
		go store.RunSweeper(ctx, sweepInterval)
		go limiter.RunSweeper(ctx, sweepInterval)
		return &stores{
			sessions: store,
			limiter:  limiter,
			close:    func() {},
		}, nil
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if opts.backendURL != "" {
		cfg.Backend.URL = opts.backendURL
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "authify-gateway",
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	defer st.close()

	backends, err := authify.NewFactory(authify.Config{
		BaseURL:   cfg.Backend.URL,
		UserPath:  cfg.Backend.UserPath,
		AdminPath: cfg.Backend.AdminPath,
		Timeout:   cfg.Backend.Timeout,
	}, logger.Component("authify"), metrics.ObserveBackendCall)
	if err != nil {
		return err
	}

	e := api.NewRouter(api.RouterConfig{
		Handler: handler.Deps{
			Validator: service.NewFormValidator(),
			Limiter:   st.limiter,
			Admin: service.AdminOptions{
				DefaultPageSize: cfg.Flows.PageSize,
				SearchMaxPages:  cfg.Flows.SearchMaxPages,
				SearchWorkers:   cfg.Flows.SearchWorkers,
			},
			Session: middleware.SessionConfig{
				Store:      st.sessions,
				Backends:   backends,
				CookieName: cfg.Session.CookieName,
				TTL:        cfg.Session.TTL,
				Secure:     cfg.Session.CookieSecure || cfg.Production(),
				Log:        logger.Component("session"),
			},
			Log: logger.Component("handler"),
		},
		Probes: map[string]handler.Probe{
			"backend":       backends.Ping,
			"session_store": st.sessions.Ping,
		},
		Log: log,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("backend", cfg.Backend.URL).
		Str("session_store", cfg.Session.Store).
		Msg("gateway listening")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("shutdown complete")
	return nil
}
