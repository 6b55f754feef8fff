package broker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Account is the broker's money snapshot. Monetary fields arrive as
// quoted strings on the wire.
type Account struct {
	ID             string          `json:"id"`
	Cash           decimal.Decimal `json:"cash"`
	BuyingPower    decimal.Decimal `json:"buying_power"`
	Equity         decimal.Decimal `json:"equity"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	TradingBlocked bool            `json:"trading_blocked"`
}

// Position is one open holding.
type Position struct {
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"qty"`
	MarketValue  decimal.Decimal `json:"market_value"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// Clock reports the exchange session state.
type Clock struct {
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderRequest is a market day order. ClientOrderID is generated when
// empty so a submission is traceable even if the response is lost.
type OrderRequest struct {
	Symbol        string `json:"symbol"`
	Quantity      int    `json:"qty,string"`
	Side          Side   `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

// Order is the broker's acknowledgement of a submission.
type Order struct {
	ID             string          `json:"id"`
	ClientOrderID  string          `json:"client_order_id"`
	Symbol         string          `json:"symbol"`
	Quantity       decimal.Decimal `json:"qty"`
	Side           Side            `json:"side"`
	Status         string          `json:"status"`
	SubmittedAt    time.Time       `json:"submitted_at"`
	FilledQuantity decimal.Decimal `json:"filled_qty"`
}

// Broker is the trading API surface the executor and engine depend on.
type Broker interface {
	GetAccount(ctx context.Context) (Account, error)
	GetPositions(ctx context.Context) ([]Position, error)
	GetClock(ctx context.Context) (Clock, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (Order, error)
}
