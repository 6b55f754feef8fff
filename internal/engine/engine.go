package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"stockai/internal/agents"
	"stockai/internal/broker"
	"stockai/internal/decision"
	"stockai/internal/ensemble"
	"stockai/internal/executor"
	"stockai/internal/features"
	"stockai/internal/logger"
	"stockai/internal/market"
	"stockai/internal/notifier"
	"stockai/internal/risk"
	"stockai/internal/store"
)

// Bar history window fetched per symbol. Long enough for the slowest
// indicator (6 month momentum).
const lookbackDays = 365

// Narrow views of the collaborators, so cycle tests can mock each one.
type (
	PanelRunner interface {
		Run(ctx context.Context, snap agents.Snapshot) []agents.Signal
	}
	EnsemblePredictor interface {
		IsReady() bool
		Predict(obs features.Observation) (ensemble.Result, error)
	}
	Decider interface {
		Decide(symbol string, signals []agents.Signal, rl *ensemble.Result) decision.FinalDecision
	}
	Validator interface {
		Validate(d decision.FinalDecision, price decimal.Decimal, portfolio risk.Portfolio) risk.Verdict
	}
	OrderExecutor interface {
		Execute(ctx context.Context, d decision.FinalDecision) executor.ExecutionResult
	}
	Recorder interface {
		SaveDecision(ctx context.Context, rec *store.DecisionRecord) (int64, error)
		UpdateDecisionOutcome(ctx context.Context, id int64, outcome store.Outcome, reason string) error
		SaveOrder(ctx context.Context, rec *store.OrderRecord) error
		SaveCycle(ctx context.Context, rec *store.CycleRecord) error
	}
	Watchlist interface {
		Tickers() []string
	}
)

// CycleStats summarizes one pass over the watchlist.
type CycleStats struct {
	Started   time.Time
	Duration  time.Duration
	Symbols   int
	Decisions int
	Executed  int
	Rejected  int
	Errors    int
	Skipped   bool
}

// Options carries the engine's tunables.
type Options struct {
	MaxParallelSymbols int
	IgnoreMarketHours  bool
}

// Engine runs the decision pipeline for every watched symbol once per
// cycle: preprocess, agent panel, ensemble vote, synthesis, risk gate,
// execution.
type Engine struct {
	marketData market.Source
	panel      PanelRunner
	models     EnsemblePredictor
	decider    Decider
	gate       Validator
	exec       OrderExecutor
	trading    broker.Broker
	recorder   Recorder
	watchlist  Watchlist
	notify     notifier.TextNotifier
	opts       Options
}

func New(
	marketData market.Source,
	panel PanelRunner,
	models EnsemblePredictor,
	decider Decider,
	gate Validator,
	exec OrderExecutor,
	trading broker.Broker,
	recorder Recorder,
	watchlist Watchlist,
	notify notifier.TextNotifier,
	opts Options,
) *Engine {
	if opts.MaxParallelSymbols <= 0 {
		opts.MaxParallelSymbols = 4
	}
	if notify == nil {
		notify = notifier.Noop{}
	}
	return &Engine{
		marketData: marketData,
		panel:      panel,
		models:     models,
		decider:    decider,
		gate:       gate,
		exec:       exec,
		trading:    trading,
		recorder:   recorder,
		watchlist:  watchlist,
		notify:     notify,
		opts:       opts,
	}
}

// RunCycle processes every watched symbol once. Symbol failures are
// isolated; the cycle aborts only on context cancellation or when the
// account snapshot is unavailable.
func (e *Engine) RunCycle(ctx context.Context) (CycleStats, error) {
	stats := CycleStats{Started: time.Now().UTC()}
	defer func() { stats.Duration = time.Since(stats.Started) }()
	cycleID := uuid.NewString()

	if !e.opts.IgnoreMarketHours {
		clock, err := e.trading.GetClock(ctx)
		if err != nil {
			return stats, fmt.Errorf("engine: market clock: %w", err)
		}
		if !clock.IsOpen {
			logger.Infof("market closed, next open %s, skipping cycle", clock.NextOpen.Format(time.RFC3339))
			stats.Skipped = true
			return stats, nil
		}
	}

	account, err := e.trading.GetAccount(ctx)
	if err != nil {
		return stats, fmt.Errorf("engine: account snapshot: %w", err)
	}
	if account.TradingBlocked {
		logger.Warnf("account %s is blocked from trading, skipping cycle", account.ID)
		stats.Skipped = true
		return stats, nil
	}
	logger.Infof("account snapshot: equity=%s cash=%s buying_power=%s",
		account.Equity.StringFixed(2), account.Cash.StringFixed(2), account.BuyingPower.StringFixed(2))

	positions, err := e.trading.GetPositions(ctx)
	if err != nil {
		return stats, fmt.Errorf("engine: positions: %w", err)
	}
	portfolio := buildPortfolio(account, positions)

	symbols := e.watchlist.Tickers()
	stats.Symbols = len(symbols)

	results := make([]symbolOutcome, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.MaxParallelSymbols)
	for i, symbol := range symbols {
		g.Go(func() error {
			results[i] = e.processSymbol(gctx, cycleID, symbol, account, portfolio)
			// Only cancellation propagates; one symbol never blocks the rest.
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("engine: cycle interrupted: %w", err)
	}

	for _, r := range results {
		if r.err != nil {
			stats.Errors++
			continue
		}
		if r.decided {
			stats.Decisions++
		}
		if r.executed {
			stats.Executed++
		}
		if r.rejected {
			stats.Rejected++
		}
	}

	if err := e.recorder.SaveCycle(ctx, &store.CycleRecord{
		CycleID:       cycleID,
		StartedAtUnix: stats.Started.Unix(),
		DurationMs:    time.Since(stats.Started).Milliseconds(),
		Symbols:       stats.Symbols,
		Decisions:     stats.Decisions,
		Executed:      stats.Executed,
		Rejected:      stats.Rejected,
		Errors:        stats.Errors,
	}); err != nil {
		logger.Warnf("cycle summary not persisted: %v", err)
	}

	logger.Infof("cycle done: %d symbols, %d decisions, %d executed, %d rejected, %d errors in %s",
		stats.Symbols, stats.Decisions, stats.Executed, stats.Rejected, stats.Errors,
		time.Since(stats.Started).Round(time.Millisecond))
	return stats, nil
}

type symbolOutcome struct {
	decided  bool
	executed bool
	rejected bool
	err      error
}

func (e *Engine) processSymbol(ctx context.Context, cycleID, symbol string, account broker.Account, portfolio risk.Portfolio) symbolOutcome {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -lookbackDays)

	bars, err := e.marketData.GetBars(ctx, symbol, start, end)
	if err != nil {
		logger.Warnf("%s: bars unavailable: %v", symbol, err)
		return symbolOutcome{err: err}
	}

	obs, err := features.Preprocess(bars)
	if err != nil {
		if errors.Is(err, features.ErrInsufficientData) {
			logger.Warnf("%s: %v, skipping symbol", symbol, err)
			return symbolOutcome{}
		}
		return symbolOutcome{err: err}
	}

	// Fundamentals and insider trades degrade to empty; the agents
	// handle partial snapshots themselves.
	fundamentals, err := e.marketData.GetFundamentals(ctx, symbol, end)
	if err != nil {
		logger.Warnf("%s: fundamentals unavailable: %v", symbol, err)
	}
	insiderTrades, err := e.marketData.GetInsiderTrades(ctx, symbol, end)
	if err != nil {
		logger.Warnf("%s: insider trades unavailable: %v", symbol, err)
	}

	held := portfolio.Positions[symbol]
	snap := agents.Snapshot{
		Symbol:        symbol,
		Bars:          bars,
		Fundamentals:  fundamentals,
		InsiderTrades: insiderTrades,
		Portfolio: agents.PortfolioView{
			Cash:          account.Cash.InexactFloat64(),
			PositionValue: held.MarketValue.InexactFloat64(),
			TotalValue:    account.PortfolioValue.InexactFloat64(),
		},
	}
	signals := e.panel.Run(ctx, snap)

	var rl *ensemble.Result
	if e.models.IsReady() {
		res, err := e.models.Predict(obs)
		if err != nil {
			logger.Warnf("%s: ensemble produced no prediction: %v", symbol, err)
		} else {
			rl = &res
		}
	}

	d := e.decider.Decide(symbol, signals, rl)
	price := decimal.NewFromFloat(bars[len(bars)-1].Close)
	verdict := e.gate.Validate(d, price, portfolio)

	recordID := e.persistDecision(ctx, cycleID, d, verdict)

	if !verdict.Accepted {
		logger.Infof("%s: decision rejected: %s", symbol, verdict.Reason)
		return symbolOutcome{decided: true, rejected: true}
	}
	if verdict.Quantity <= 0 {
		return symbolOutcome{decided: true}
	}

	result := e.exec.Execute(ctx, d)
	e.persistExecution(ctx, recordID, result)

	if result.Err != nil {
		logger.Errorf("%s: execution failed: %v", symbol, result.Err)
		e.notifyText(fmt.Sprintf("⚠️ %s %s x%d failed: %v", d.Signal, symbol, d.Quantity, result.Err))
		return symbolOutcome{decided: true, err: result.Err}
	}

	e.notifyText(fmt.Sprintf("✅ %s %s x%d (confidence %.0f%%, consensus %s)",
		d.Signal, symbol, result.ExecutedQty, d.Confidence, d.AgentConsensus))
	return symbolOutcome{decided: true, executed: true}
}

func (e *Engine) persistDecision(ctx context.Context, cycleID string, d decision.FinalDecision, verdict risk.Verdict) int64 {
	counts, _ := json.Marshal(d.AgentSignalCounts)
	rec := &store.DecisionRecord{
		CycleID:        cycleID,
		Symbol:         d.Symbol,
		Signal:         string(d.Signal),
		Confidence:     d.Confidence,
		Quantity:       d.Quantity,
		AgentConsensus: string(d.AgentConsensus),
		SignalCounts:   string(counts),
		Reasoning:      d.Reasoning,
		Outcome:        store.OutcomeAccepted,
		CreatedAtUnix:  time.Now().Unix(),
	}
	if d.RL != nil {
		rec.RLSignal = string(d.RL.Signal)
		rec.RLConfidence = d.RL.Confidence
	}
	if !verdict.Accepted {
		rec.Outcome = store.OutcomeRejected
		rec.RejectReason = verdict.Reason
	}

	id, err := e.recorder.SaveDecision(ctx, rec)
	if err != nil {
		logger.Warnf("%s: decision not persisted: %v", d.Symbol, err)
	}
	return id
}

func (e *Engine) persistExecution(ctx context.Context, decisionID int64, result executor.ExecutionResult) {
	dryRun := 0
	if result.DryRun {
		dryRun = 1
	}
	rec := &store.OrderRecord{
		DecisionID:    decisionID,
		Symbol:        result.Symbol,
		Side:          string(result.Signal),
		IntendedQty:   result.IntendedQty,
		ExecutedQty:   result.ExecutedQty,
		BrokerOrderID: result.OrderID,
		IsDryRun:      dryRun,
		CreatedAtUnix: result.SubmittedAt.Unix(),
	}
	outcome := store.OutcomeExecuted
	if result.Err != nil {
		rec.ErrorText = result.Err.Error()
		outcome = store.OutcomeFailed
	}

	if err := e.recorder.SaveOrder(ctx, rec); err != nil {
		logger.Warnf("%s: order record not persisted: %v", result.Symbol, err)
	}
	if decisionID > 0 {
		if err := e.recorder.UpdateDecisionOutcome(ctx, decisionID, outcome, rec.ErrorText); err != nil {
			logger.Warnf("%s: decision outcome not updated: %v", result.Symbol, err)
		}
	}
}

func (e *Engine) notifyText(text string) {
	if err := e.notify.SendText(text); err != nil {
		logger.Warnf("notification not delivered: %v", err)
	}
}

func buildPortfolio(account broker.Account, positions []broker.Position) risk.Portfolio {
	p := risk.Portfolio{
		BuyingPower: account.BuyingPower,
		Equity:      account.PortfolioValue,
		Positions:   make(map[string]risk.Position, len(positions)),
	}
	for _, pos := range positions {
		p.Positions[pos.Symbol] = risk.Position{
			Quantity:    pos.Quantity.IntPart(),
			MarketValue: pos.MarketValue,
		}
	}
	return p
}
