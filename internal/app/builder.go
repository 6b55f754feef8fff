package app

import (
	"fmt"
	"os"
	"time"

	"stockai/internal/agents"
	"stockai/internal/broker"
	"stockai/internal/config"
	"stockai/internal/decision"
	"stockai/internal/engine"
	"stockai/internal/ensemble"
	"stockai/internal/executor"
	"stockai/internal/logger"
	"stockai/internal/market"
	"stockai/internal/notifier"
	"stockai/internal/risk"
	"stockai/internal/store"
	livehttp "stockai/internal/transport/http/live"
	"stockai/internal/watchlist"
)

func build(cfg *config.Config) (*App, error) {
	db, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	if err := ensemble.InitRuntime(cfg.Models.LibraryPath); err != nil {
		return nil, fmt.Errorf("onnx runtime: %w", err)
	}
	models, err := ensemble.Load(cfg.Models.Dir, cfg.Models.Names)
	if err != nil {
		return nil, err
	}
	if !models.IsReady() {
		logger.Warnf("no ensemble models loaded, decisions will run on agent consensus only")
	}

	marketData := market.NewClient(cfg.Market, os.Getenv(cfg.Market.APIKeyEnv))
	trading := broker.NewClient(cfg.Broker,
		os.Getenv(cfg.Broker.KeyEnv), os.Getenv(cfg.Broker.SecretEnv))

	var list engine.Watchlist
	var closer interface{ Close() error }
	if cfg.Trading.WatchlistPath != "" {
		fileList, err := watchlist.NewFromFile(cfg.Trading.WatchlistPath)
		if err != nil {
			return nil, err
		}
		list, closer = fileList, fileList
	} else {
		list = watchlist.NewStatic(cfg.Trading.Tickers)
	}

	var notify notifier.TextNotifier = notifier.Noop{}
	if cfg.Notify.Telegram.Enabled {
		notify = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	}

	live := engine.New(
		marketData,
		agents.NewPanel(),
		models,
		decision.NewEngine(cfg.Trading.BaseQuantity, cfg.Trading.MaxQuantityCap),
		risk.NewGate(cfg.Trading.MinConfidence, cfg.Trading.MaxPositionPct),
		executor.New(trading, cfg.Broker.DryRun),
		trading,
		db,
		list,
		notify,
		engine.Options{
			MaxParallelSymbols: cfg.Trading.MaxParallelSymbols,
			IgnoreMarketHours:  cfg.Trading.IgnoreMarketHours,
		},
	)

	server, err := livehttp.NewServer(livehttp.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Queries: db,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		live:      live,
		liveHTTP:  server,
		models:    models,
		db:        db,
		watchlist: closer,
		interval:  time.Duration(cfg.Trading.CheckIntervalSeconds) * time.Second,
	}, nil
}
