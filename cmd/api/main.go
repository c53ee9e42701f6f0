package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"canvasd/internal/adapter/repo"
	"canvasd/internal/domain"
	"canvasd/internal/http/handlers"
	"canvasd/internal/http/httpapi"
	"canvasd/internal/infra"
	"canvasd/internal/session"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	var store domain.SnapshotStore
	switch cfg.SnapshotStore {
	case infra.StorePostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		store = repo.NewSnapshotRepository(pool)
	default:
		sqliteStore, err := repo.NewSnapshotRepositorySQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open sqlite store")
		}
		defer sqliteStore.Close()
		store = sqliteStore
	}

	sessions := session.NewRegistry(session.Config{
		Store:            store,
		HistoryLimit:     cfg.HistoryLimit,
		AutosaveInterval: cfg.AutosaveInterval,
		Logger:           logger,
	})

	app := handlers.NewApp(sessions, logger)
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("canvasd listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	// Drain editing sessions first so the last edits are flushed before
	// the store handles close.
	sessions.CloseAll(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
