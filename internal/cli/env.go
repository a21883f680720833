package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkordes/dockgate/internal/config"
	"github.com/pkordes/dockgate/internal/gate"
	"github.com/pkordes/dockgate/internal/repo"
	"github.com/pkordes/dockgate/internal/service"
)

// env bundles the services a command needs over one connection pool.
type env struct {
	cfg    config.Config
	pool   *pgxpool.Pool
	gates  *service.GateService
	visits *service.VisitService
}

// openEnv loads config, connects and builds read-mostly services. Lifecycle
// commands stay in the API; gatectl never mints codes or sends messages.
// A positive overstay replaces OVERSTAY_THRESHOLD.
func openEnv(ctx context.Context, overstay time.Duration) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if overstay > 0 {
		cfg.Engine.OverstayThreshold = overstay
	}
	pool, err := openPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	logger := quietLogger()
	visitRepo := repo.NewVisitRepo(pool)
	gateRepo := repo.NewGateRepo(pool)
	activityRepo := repo.NewActivityRepo(pool)
	manager := gate.NewManager(gateRepo, visitRepo, 0, logger)

	return &env{
		cfg:   cfg,
		pool:  pool,
		gates: service.NewGateService(gateRepo, manager, activityRepo, logger),
		visits: service.NewVisitService(service.VisitDeps{
			Visits:   visitRepo,
			Activity: activityRepo,
			Gates:    manager,
			Logger:   logger,
		}, service.VisitOptions{
			OverstayThreshold: cfg.Engine.OverstayThreshold,
		}),
	}, nil
}

func (e *env) close() {
	e.pool.Close()
}

// actorName labels audit entries written from the CLI.
func actorName() string {
	if u := os.Getenv("USER"); u != "" {
		return fmt.Sprintf("gatectl:%s", u)
	}
	return "gatectl"
}
