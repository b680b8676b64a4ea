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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/vetapi/clinic-api/internal/api"
	"github.com/vetapi/clinic-api/internal/api/handler"
	"github.com/vetapi/clinic-api/internal/core/ports"
	"github.com/vetapi/clinic-api/internal/core/service"
	"github.com/vetapi/clinic-api/internal/infrastructure/config"
	mongodb "github.com/vetapi/clinic-api/internal/infrastructure/db/mongo"
	"github.com/vetapi/clinic-api/internal/infrastructure/db/postgres"
	redisdb "github.com/vetapi/clinic-api/internal/infrastructure/db/redis"
	"github.com/vetapi/clinic-api/internal/infrastructure/mail"
	"github.com/vetapi/clinic-api/internal/infrastructure/observability"
	"github.com/vetapi/clinic-api/internal/infrastructure/queue"
	"github.com/vetapi/clinic-api/internal/infrastructure/resetstore"
	"github.com/vetapi/clinic-api/internal/infrastructure/security"
	"github.com/vetapi/clinic-api/pkg/logger"
)

const (
	serviceName     = "clinic-api"
	shutdownTimeout = 30 * time.Second
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// @title        Clinic API
// @version      1.0
// @description  Authentication and token lifecycle for clinic staff.
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:       cfg.LogLevel,
		Pretty:      !cfg.IsProduction(),
		Service:     serviceName,
		Environment: cfg.Env,
	})

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Env, version); err != nil {
		log.Error().Err(err).Msg("sentry init failed; continuing without error reporting")
	}
	defer observability.FlushSentry()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		observability.FlushSentry()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	readiness := map[string]handler.Pinger{}

	accounts, closeAccounts, err := openAccountStore(ctx, cfg, readiness)
	if err != nil {
		return err
	}
	defer closeAccounts()

	resets, closeResets, err := openResetStore(ctx, cfg, readiness)
	if err != nil {
		return err
	}
	defer closeResets()

	codec, err := security.NewJWTCodec(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL,
		security.WithIssuer(cfg.JWT.Issuer))
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}
	hasher := security.NewBcryptHasher(0)

	mailer, err := newMailer(cfg, logger.Component("mail"))
	if err != nil {
		return err
	}
	dispatcher := queue.NewResetDispatcher(cfg.Mail.Workers, mailer, cfg.Reset.URL, logger.Component("reset-dispatcher"))
	dispatcher.Start(ctx)

	if cfg.Reset.ExposeToken {
		log.Warn().Msg("EXPOSE_RESET_TOKEN is on: reset tokens are echoed in forgot-password responses")
	}

	authService := service.NewAuthService(accounts, hasher, codec, resets,
		service.WithNotifier(dispatcher),
		service.WithResetTokenExposure(cfg.Reset.ExposeToken),
		service.WithLogger(logger.Component("auth")),
	)
	accountService := service.NewAccountService(accounts, hasher)

	if cfg.Bootstrap.AdminEmail != "" {
		if err := accountService.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.Info().Str("email", cfg.Bootstrap.AdminEmail).Msg("bootstrap admin ensured")
	}

	e := api.NewRouter(api.Deps{
		Log:               logger.Component("http"),
		Auth:              authService,
		Accounts:          accountService,
		AccountRepo:       accounts,
		Codec:             codec,
		Readiness:         readiness,
		EnableDebugRoutes: cfg.EnableDebugRoutes,
		AuthRateLimit:     cfg.AuthRateLimit,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server_start")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openAccountStore(ctx context.Context, cfg *config.Config, readiness map[string]handler.Pinger) (ports.AccountRepository, func(), error) {
	switch cfg.Store.Accounts {
	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		readiness["postgres"] = postgres.NewPinger(pool)
		return postgres.NewAccountRepository(pool), pool.Close, nil
	default:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, fmt.Errorf("mongo: %w", err)
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		repo := mongodb.NewAccountRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		readiness["mongodb"] = mongodb.NewPinger(db)
		return repo, closeFn, nil
	}
}

func openResetStore(ctx context.Context, cfg *config.Config, readiness map[string]handler.Pinger) (ports.ResetTokenStore, func(), error) {
	if cfg.Reset.Store != "redis" {
		return resetstore.NewMemoryStore(cfg.Reset.TokenTTL), func() {}, nil
	}

	client, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	readiness["redis"] = redisdb.NewPinger(client)
	return redisdb.NewResetTokenStore(client, cfg.Reset.TokenTTL), func() { _ = client.Close() }, nil
}

func newMailer(cfg *config.Config, log zerolog.Logger) (mail.Mailer, error) {
	if cfg.Mail.PostmarkServerToken == "" {
		log.Warn().Msg("POSTMARK_SERVER_TOKEN not set: reset emails are logged, not sent")
		return mail.NewLogMailer(log), nil
	}
	m, err := mail.NewPostmarkMailer(mail.PostmarkConfig{
		ServerToken:  cfg.Mail.PostmarkServerToken,
		AccountToken: cfg.Mail.PostmarkAccountToken,
		Sender:       cfg.Mail.Sender,
	})
	if err != nil {
		return nil, fmt.Errorf("postmark: %w", err)
	}
	return m, nil
}
