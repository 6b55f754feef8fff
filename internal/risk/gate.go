package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"stockai/internal/decision"
	"stockai/internal/ensemble"
)

// Position is the broker-reported holding for one symbol.
type Position struct {
	Quantity    int64
	MarketValue decimal.Decimal
}

// Portfolio is the account snapshot the gate validates against.
type Portfolio struct {
	BuyingPower decimal.Decimal
	Equity      decimal.Decimal
	Positions   map[string]Position
}

func (p Portfolio) position(symbol string) Position {
	return p.Positions[symbol]
}

// Verdict is the gate's answer for one decision. A rejection is an
// expected outcome, not an error; Reason explains it for the audit
// trail. Quantity is the cleared share count (zero for holds).
type Verdict struct {
	Accepted bool
	Reason   string
	Quantity int
}

func accepted(quantity int) Verdict {
	return Verdict{Accepted: true, Quantity: quantity}
}

func rejected(reason string) Verdict {
	return Verdict{Accepted: false, Reason: reason}
}

// Gate applies the pre-trade checks every decision must clear before
// it reaches the broker.
type Gate struct {
	minConfidence  float64
	maxPositionPct decimal.Decimal
}

func NewGate(minConfidence, maxPositionPct float64) *Gate {
	return &Gate{
		minConfidence:  minConfidence,
		maxPositionPct: decimal.NewFromFloat(maxPositionPct),
	}
}

// Validate clears or rejects a decision against the account snapshot.
// price is the latest close used to value the order.
func (g *Gate) Validate(d decision.FinalDecision, price decimal.Decimal, portfolio Portfolio) Verdict {
	// Holds always clear with the quantity forced to zero.
	if d.Signal == ensemble.SignalHold {
		return accepted(0)
	}

	if d.Confidence < g.minConfidence {
		return rejected(fmt.Sprintf("confidence %.1f below threshold %.1f", d.Confidence, g.minConfidence))
	}
	if d.Quantity <= 0 {
		return rejected("non-positive quantity")
	}

	switch d.Signal {
	case ensemble.SignalBuy:
		return g.validateBuy(d, price, portfolio)
	case ensemble.SignalSell:
		return g.validateSell(d, portfolio)
	default:
		return rejected(fmt.Sprintf("unknown signal %q", d.Signal))
	}
}

func (g *Gate) validateBuy(d decision.FinalDecision, price decimal.Decimal, portfolio Portfolio) Verdict {
	if price.LessThanOrEqual(decimal.Zero) {
		return rejected("no valid price for order valuation")
	}

	orderValue := price.Mul(decimal.NewFromInt(int64(d.Quantity)))
	held := portfolio.position(d.Symbol)

	positionLimit := portfolio.Equity.Mul(g.maxPositionPct)
	if held.MarketValue.Add(orderValue).GreaterThan(positionLimit) {
		return rejected(fmt.Sprintf("position limit exceeded: held %s + order %s > limit %s",
			held.MarketValue.StringFixed(2), orderValue.StringFixed(2), positionLimit.StringFixed(2)))
	}

	if orderValue.GreaterThan(portfolio.BuyingPower) {
		return rejected(fmt.Sprintf("insufficient buying power: order %s > available %s",
			orderValue.StringFixed(2), portfolio.BuyingPower.StringFixed(2)))
	}

	return accepted(d.Quantity)
}

// validateSell never clears more shares than are held; shorting is not
// supported.
func (g *Gate) validateSell(d decision.FinalDecision, portfolio Portfolio) Verdict {
	held := portfolio.position(d.Symbol)
	if int64(d.Quantity) > held.Quantity {
		return rejected(fmt.Sprintf("insufficient shares: selling %d, holding %d", d.Quantity, held.Quantity))
	}
	return accepted(d.Quantity)
}
