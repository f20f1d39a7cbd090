package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quiplash-live/quiplash-service/internal/config"
	"github.com/quiplash-live/quiplash-service/internal/player"
	"github.com/quiplash-live/quiplash-service/internal/prompt"
	"github.com/quiplash-live/quiplash-service/pkg/http/respond"
)

// NewHTTPServer wires every route of the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redisClient *redis.Client, playerHandlers *player.HTTPHandlers, promptHandlers *prompt.HTTPHandlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/utils/welcome", func(w http.ResponseWriter, r *http.Request) {
		respond.OK(w, "Welcome to Quiplash API")
	})

	// Readiness: verifies both backing stores answer.
	mux.HandleFunc("/utils/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, redisClient); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			respond.JSON(w, http.StatusBadGateway, respond.Result{Result: false, Msg: "upstream error"})
			return
		}
		respond.OK(w, "pong")
	})

	mux.HandleFunc("/player/register", playerHandlers.Register)
	mux.HandleFunc("/player/login", playerHandlers.Login)
	mux.HandleFunc("/player/update", playerHandlers.Update)

	mux.HandleFunc("/prompt/create", promptHandlers.Create)
	mux.HandleFunc("/prompt/moderate", promptHandlers.Moderate)
	mux.HandleFunc("/prompt/delete", promptHandlers.Delete)

	mux.HandleFunc("/utils/get", promptHandlers.Fetch)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redisClient *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	return redisClient.Ping(ctx).Err()
}
