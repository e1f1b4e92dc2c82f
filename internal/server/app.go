// Package server wires the identity service together: configuration, signing
// secret, storage backend, business services and the HTTP endpoint. All
// dependencies are passed explicitly; nothing here is a package-level singleton.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/RileyParsons/plateful/internal/logging"
	"github.com/RileyParsons/plateful/internal/server/auth"
	"github.com/RileyParsons/plateful/internal/server/config"
	"github.com/RileyParsons/plateful/internal/server/httpapi"
	"github.com/RileyParsons/plateful/internal/server/migrations"
	"github.com/RileyParsons/plateful/internal/server/secrets"
	"github.com/RileyParsons/plateful/internal/server/users"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *users.Service
	tokens      *auth.TokenService
	closers     []func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	app := &App{config: cfg, logger: logger}

	secret, err := app.resolveSecret(ctx)
	if err != nil {
		return nil, err
	}

	repo, err := app.initRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	app.tokens = auth.NewTokenService(secret,
		cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration)
	app.userService = users.NewService(repo, app.tokens)

	return app, nil
}

// resolveSecret fetches the JWT signing key once at startup. A missing secret
// is tolerated only because the config carries a development fallback; the
// fallback use is logged loudly.
func (app *App) resolveSecret(ctx context.Context) ([]byte, error) {
	var store secrets.Store

	switch app.config.SecretProvider {
	case config.SecretsEnv:
		store = secrets.NewEnvStore()
	case config.SecretsAWSManager:
		s, err := secrets.NewSecretsManagerStore(ctx)
		if err != nil {
			return nil, fmt.Errorf("secrets manager init error: %w", err)
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown secret provider: %s", app.config.SecretProvider)
	}

	value, err := store.GetSecret(ctx, app.config.SecretName)
	if err != nil {
		app.logger.Warn(ctx, "Signing secret not found, using development fallback",
			"provider", app.config.SecretProvider, "name", app.config.SecretName, "error", err)
		return []byte(app.config.SecretKey), nil
	}

	return []byte(value), nil
}

func (app *App) initRepository(ctx context.Context) (users.Repository, error) {
	switch app.config.StorageDriver {
	case config.StoragePostgres:
		return app.initPostgres(ctx)
	case config.StorageRedis:
		return app.initRedis(ctx)
	case config.StorageMemory:
		app.logger.Warn(ctx, "Using in-memory storage, data will not survive a restart")
		return users.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", app.config.StorageDriver)
	}
}

func (app *App) initPostgres(ctx context.Context) (users.Repository, error) {
	db, err := sql.Open("pgx", app.config.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, db.Close)

	if err := app.waitForBackend(ctx, "postgres", func(ctx context.Context) error {
		return db.PingContext(ctx)
	}); err != nil {
		return nil, err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}
	if err := goose.Up(db, "."); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return users.NewPostgresRepository(db), nil
}

func (app *App) initRedis(ctx context.Context) (users.Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     app.config.RedisAddr,
		Password: app.config.RedisPassword,
	})
	app.closers = append(app.closers, client.Close)

	if err := app.waitForBackend(ctx, "redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		return nil, err
	}

	return users.NewRedisRepository(client), nil
}

// waitForBackend retries the connectivity probe with exponential backoff so
// the server survives a storage backend that comes up a few seconds later,
// which is the normal case under docker compose.
func (app *App) waitForBackend(ctx context.Context, name string, ping func(context.Context) error) error {
	backoff := retry.WithMaxDuration(30*time.Second, retry.NewExponential(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			app.logger.Warn(ctx, "Waiting for storage backend", "backend", name, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	srv := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.userService, app.tokens)

	err := srv.Run(ctx)

	for _, closeFn := range app.closers {
		if cerr := closeFn(); cerr != nil {
			app.logger.Error(ctx, "Error closing resource", "error", cerr)
		}
	}

	return err
}
