// Package main is the entry point for the dock gate API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for goose
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pkordes/dockgate/internal/blob"
	"github.com/pkordes/dockgate/internal/config"
	"github.com/pkordes/dockgate/internal/feed"
	"github.com/pkordes/dockgate/internal/gate"
	"github.com/pkordes/dockgate/internal/handler"
	"github.com/pkordes/dockgate/internal/idgen"
	"github.com/pkordes/dockgate/internal/metrics"
	"github.com/pkordes/dockgate/internal/middleware"
	"github.com/pkordes/dockgate/internal/notify"
	"github.com/pkordes/dockgate/internal/repo"
	"github.com/pkordes/dockgate/internal/service"
	"github.com/pkordes/dockgate/migrations"
	"github.com/pkordes/dockgate/openapi"
)

// sequenceTTL outlives the longest counter scope, a calendar month.
const sequenceTTL = 40 * 24 * time.Hour

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	var logger *slog.Logger
	if cfg.LogFormat == "text" {
		logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---------------------------------------------------------
	if cfg.MigrateOnStart {
		if err := migrate(ctx, cfg.DatabaseURL); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	visitRepo := repo.NewVisitRepo(pool)
	gateRepo := repo.NewGateRepo(pool)
	activityRepo := repo.NewActivityRepo(pool)
	sequenceRepo := repo.NewSequenceRepo(pool)

	// --- Identifiers ------------------------------------------------------
	// Counters live in redis when several instances share them, otherwise in
	// Postgres. Either way they continue from the highest code already stored.
	var seq idgen.Sequencer = sequenceRepo
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		seq = idgen.NewRedisSequencer(rdb, "dockgate:seq:", sequenceTTL)
		slog.Info("sequence counters in redis")
	}
	ids := idgen.NewGenerator(cfg.Engine.CodePrefix, cfg.Engine.Location, seq, sequenceRepo)

	// --- Collaborators ----------------------------------------------------
	m := metrics.New(prometheus.DefaultRegisterer)
	gates := gate.NewManager(gateRepo, visitRepo, cfg.Engine.GateCacheTTL, logger)

	var gw notify.Gateway = notify.NewLogGateway(logger)
	if cfg.Notify.WhatsAppURL != "" {
		gw = notify.NewWhatsAppGateway(cfg.Notify.WhatsAppURL, cfg.Notify.WhatsAppToken,
			&http.Client{Timeout: cfg.Notify.Timeout})
	}
	dispatcher := notify.NewDispatcher(gw, cfg.Notify.Concurrency, cfg.Notify.Timeout, m, logger)

	var store blob.Store
	if cfg.Storage.Enabled() {
		s3, err := blob.NewS3Store(ctx, blob.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			Region:    cfg.Storage.Region,
			Bucket:    cfg.Storage.Bucket,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			slog.Error("failed to configure storage", "error", err)
			os.Exit(1)
		}
		store = s3
	}
	uploader := blob.NewUploader(store, logger)

	hub := feed.NewHub(cfg.CORSOrigins, logger)
	go hub.Run(ctx)

	// --- Services ---------------------------------------------------------
	visitSvc := service.NewVisitService(service.VisitDeps{
		Visits:   visitRepo,
		Activity: activityRepo,
		IDs:      ids,
		Gates:    gates,
		Notifier: dispatcher,
		Uploader: uploader,
		Feed:     hub,
		Metrics:  m,
		Logger:   logger,
	}, service.VisitOptions{
		OverstayThreshold: cfg.Engine.OverstayThreshold,
		AllowExitOverride: cfg.Engine.AllowExitOverride,
	})
	gateSvc := service.NewGateService(gateRepo, gates, activityRepo, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit. CORS sits before the body limit so preflights are
	// answered without touching the body.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins, handler.ActorHeader))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Handle(cfg.MetricsPath, promhttp.Handler())

	server := handler.NewServer(visitSvc, gateSvc,
		handler.WithFeed(hub),
		handler.WithOpenAPI(openapi.Document),
	)
	server.Routes(r)

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// The write deadline of upgraded feed sockets is managed by the hub.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give in-flight requests and pending driver notifications up to 15
	// seconds to complete before forcefully closing.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		slog.Warn("notifications still in flight at shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// migrate applies pending goose migrations over a short-lived database/sql
// connection, since goose does not speak pgxpool.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := migrations.NewProvider(db)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", len(results))
	return nil
}
