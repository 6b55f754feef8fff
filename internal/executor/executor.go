package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockai/internal/broker"
	"stockai/internal/decision"
	"stockai/internal/ensemble"
	"stockai/internal/logger"
)

// ExecutionResult records what was attempted and what happened for one
// cleared decision.
type ExecutionResult struct {
	Symbol      string
	Signal      ensemble.Signal
	IntendedQty int
	ExecutedQty int
	OrderID     string
	DryRun      bool
	SubmittedAt time.Time
	Err         error
}

// Executor turns cleared decisions into broker orders. Orders for the
// same symbol are serialized; a submission failure is never retried
// because the order may have reached the exchange anyway.
type Executor struct {
	broker broker.Broker
	dryRun bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(b broker.Broker, dryRun bool) *Executor {
	return &Executor{
		broker: b,
		dryRun: dryRun,
		locks:  map[string]*sync.Mutex{},
	}
}

// Execute submits the decision's order. Hold decisions and zero
// quantities are recorded without touching the broker.
func (e *Executor) Execute(ctx context.Context, d decision.FinalDecision) ExecutionResult {
	result := ExecutionResult{
		Symbol:      d.Symbol,
		Signal:      d.Signal,
		IntendedQty: d.Quantity,
		DryRun:      e.dryRun,
		SubmittedAt: time.Now().UTC(),
	}

	if d.Signal == ensemble.SignalHold || d.Quantity <= 0 {
		return result
	}

	lock := e.symbolLock(d.Symbol)
	lock.Lock()
	defer lock.Unlock()

	if e.dryRun {
		logger.Infof("[dry-run] %s %s x%d (confidence %.1f)", d.Signal, d.Symbol, d.Quantity, d.Confidence)
		result.ExecutedQty = d.Quantity
		return result
	}

	order, err := e.broker.SubmitOrder(ctx, broker.OrderRequest{
		Symbol:   d.Symbol,
		Quantity: d.Quantity,
		Side:     sideFor(d.Signal),
	})
	if err != nil {
		result.Err = fmt.Errorf("execute %s %s x%d: %w", d.Signal, d.Symbol, d.Quantity, err)
		return result
	}

	result.OrderID = order.ID
	result.ExecutedQty = d.Quantity
	return result
}

func (e *Executor) symbolLock(symbol string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[symbol] = lock
	}
	return lock
}

func sideFor(signal ensemble.Signal) broker.Side {
	if signal == ensemble.SignalSell {
		return broker.SideSell
	}
	return broker.SideBuy
}
