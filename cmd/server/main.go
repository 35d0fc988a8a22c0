package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/playersync/internal/config"
	"github.com/freeeve/playersync/internal/handler"
	"github.com/freeeve/playersync/internal/logger"
	"github.com/freeeve/playersync/internal/middleware"
	"github.com/freeeve/playersync/internal/repository"
	"github.com/freeeve/playersync/internal/repository/postgres"
	redisrepo "github.com/freeeve/playersync/internal/repository/redis"
	"github.com/freeeve/playersync/internal/repository/sqlite"
	"github.com/freeeve/playersync/internal/service"
)

const relayReadyTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(logger.Options{})
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, Dev: cfg.Dev})
	log.Info().Str("store", cfg.StoreDriver).Bool("relay", cfg.RedisURL != "").Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	db, repo, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.StoreDriver).Msg("Store initialization failed")
	}
	defer db.Close()

	// WebSocket hub
	wsHub := handler.NewHub(cfg.WSSendBuffer, cfg.WSWriteTimeout)

	// Events reach the local hub directly, or through Redis when several
	// instances share one store.
	var broadcaster service.Broadcaster = wsHub
	if cfg.RedisURL != "" {
		redisClient, err := redisrepo.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer redisClient.Close()

		broadcaster = service.NewRelayBroadcaster(redisClient, wsHub)
		relay := service.NewRelayListener(redisClient, wsHub, wsHub.DropAll)
		go relay.Start(ctx)

		// Listeners must not attach before this instance hears relayed events.
		readyCtx, readyCancel := context.WithTimeout(ctx, relayReadyTimeout)
		err = relay.WaitReady(readyCtx)
		readyCancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Relay subscription not established")
		}
	}

	playerSvc := service.NewPlayerService(repo, broadcaster)
	if cfg.SeedPlayers {
		n, err := playerSvc.Seed(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Seeding players failed")
		}
		if n > 0 {
			log.Info().Int("players", n).Msg("Seeded starter players")
		}
	}

	// Router
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	handler.NewPlayerHandler(playerSvc).Routes(mux)
	mux.HandleFunc("GET /ws", handler.NewWSHandler(wsHub, playerSvc).ServeWS)

	// Apply global middleware
	root := middleware.Chain(middleware.Metrics(mux),
		middleware.Logger, middleware.CORS(cfg.CORSOrigins), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	// Hijacked WebSocket connections are not tracked by srv.Shutdown.
	if err := wsHub.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("WebSocket listeners did not all close in time")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, repository.PlayerRepository, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, postgres.NewPlayerRepo(db), nil
	default:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, sqlite.NewPlayerRepo(db), nil
	}
}
