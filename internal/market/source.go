package market

import (
	"context"
	"time"
)

// Source supplies market and fundamentals data to the analysis pipeline.
// Implementations must return bars ascending by time.
type Source interface {
	GetBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
	GetFundamentals(ctx context.Context, symbol string, asOf time.Time) (Fundamentals, error)
	GetInsiderTrades(ctx context.Context, symbol string, asOf time.Time) ([]InsiderTrade, error)
}
