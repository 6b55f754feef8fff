package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"stockai/internal/config"
	"stockai/internal/engine"
	"stockai/internal/ensemble"
	"stockai/internal/logger"
	"stockai/internal/scheduler"
	"stockai/internal/store"
	livehttp "stockai/internal/transport/http/live"
)

// App wires configuration into the live trading loop and its HTTP
// surface.
type App struct {
	cfg       *config.Config
	live      *engine.Engine
	liveHTTP  *livehttp.Server
	models    *ensemble.Ensemble
	db        *store.Store
	watchlist interface{ Close() error }
	interval  time.Duration
}

// NewApp builds the application from configuration without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return build(cfg)
}

// Run starts the HTTP server and the trading cycle loop and blocks
// until the context is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof("live http server listening on %s", a.liveHTTP.Addr())
		if err := a.liveHTTP.Start(ctx); err != nil {
			return fmt.Errorf("live http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		s := scheduler.NewIntervalScheduler(ctx, "live-engine", a.interval)
		s.RunImmediately = true
		s.Start(func() {
			if _, err := a.live.RunCycle(ctx); err != nil {
				logger.Errorf("trading cycle failed: %v", err)
			}
		})
		return nil
	})

	return group.Wait()
}

func (a *App) close() {
	if a.watchlist != nil {
		_ = a.watchlist.Close()
	}
	if a.models != nil {
		a.models.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
