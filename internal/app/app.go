package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quiplash-live/quiplash-service/internal/config"
	"github.com/quiplash-live/quiplash-service/internal/contentsafety"
	"github.com/quiplash-live/quiplash-service/internal/docstore"
	"github.com/quiplash-live/quiplash-service/internal/logging"
	"github.com/quiplash-live/quiplash-service/internal/player"
	"github.com/quiplash-live/quiplash-service/internal/prompt"
	"github.com/quiplash-live/quiplash-service/internal/server"
	"github.com/quiplash-live/quiplash-service/internal/translate"
	"github.com/quiplash-live/quiplash-service/internal/welcome"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	welcomeWorker *welcome.Worker
	bgCancels     []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis, the external service
// clients and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	store := docstore.New(pool)
	players := store.Collection("player")
	prompts := store.Collection("prompt")

	translationCache := translate.NewCache(redisClient, cfg.Translator.CacheTTL)
	translatorClient := translate.NewClient(
		cfg.Translator.Endpoint,
		cfg.Translator.Key,
		cfg.Translator.Region,
		nil,
		translationCache,
		logger,
	)
	safetyClient := contentsafety.NewClient(cfg.ContentSafety.Endpoint, cfg.ContentSafety.Key, nil, logger)

	notifier := player.NewNotifier(redisClient, cfg.Welcome.Channel)
	playerSvc := player.NewService(players, notifier, logger)
	promptSvc := prompt.NewService(prompts, players, translatorClient, safetyClient, logger)

	playerHandlers := player.NewHTTPHandlers(playerSvc, logger)
	promptHandlers := prompt.NewHTTPHandlers(promptSvc, logger)

	welcomeWorker := welcome.NewWorker(redisClient, prompts, translatorClient, cfg.Welcome.Channel, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, playerHandlers, promptHandlers)

	return &Application{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		redis:         redisClient,
		http:          apiServer,
		welcomeWorker: welcomeWorker,
		bgCancels:     make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.welcomeWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.welcomeWorker.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("welcome worker stopped")
			}
		}()
	}
}
