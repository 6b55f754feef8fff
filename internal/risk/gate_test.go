package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"stockai/internal/decision"
	"stockai/internal/ensemble"
)

func testPortfolio() Portfolio {
	return Portfolio{
		BuyingPower: decimal.NewFromInt(50_000),
		Equity:      decimal.NewFromInt(100_000),
		Positions: map[string]Position{
			"AAPL": {Quantity: 50, MarketValue: decimal.NewFromInt(10_000)},
		},
	}
}

func buyDecision(quantity int, confidence float64) decision.FinalDecision {
	return decision.FinalDecision{
		Symbol: "AAPL", Signal: ensemble.SignalBuy,
		Confidence: confidence, Quantity: quantity,
	}
}

func TestValidateHoldAlwaysClearsWithZeroQuantity(t *testing.T) {
	gate := NewGate(60, 0.20)

	verdict := gate.Validate(decision.FinalDecision{
		Symbol: "AAPL", Signal: ensemble.SignalHold, Confidence: 10, Quantity: 25,
	}, decimal.NewFromInt(200), testPortfolio())

	assert.True(t, verdict.Accepted)
	assert.Zero(t, verdict.Quantity)
}

func TestValidateRejectsLowConfidence(t *testing.T) {
	gate := NewGate(60, 0.20)

	verdict := gate.Validate(buyDecision(30, 30), decimal.NewFromInt(200), testPortfolio())

	assert.False(t, verdict.Accepted)
	assert.Contains(t, verdict.Reason, "confidence")
}

func TestValidateRejectsZeroQuantity(t *testing.T) {
	gate := NewGate(60, 0.20)

	verdict := gate.Validate(buyDecision(0, 80), decimal.NewFromInt(200), testPortfolio())

	assert.False(t, verdict.Accepted)
	assert.Contains(t, verdict.Reason, "quantity")
}

func TestValidateBuyWithinLimits(t *testing.T) {
	gate := NewGate(60, 0.20)

	// 40 shares at 200 = 8000; held 10000; limit 20000.
	verdict := gate.Validate(buyDecision(40, 80), decimal.NewFromInt(200), testPortfolio())

	assert.True(t, verdict.Accepted)
	assert.Equal(t, 40, verdict.Quantity)
}

func TestValidateBuyRejectsOverPositionLimit(t *testing.T) {
	gate := NewGate(60, 0.20)

	// 60 shares at 200 = 12000; held 10000; 22000 > 20000 limit.
	verdict := gate.Validate(buyDecision(60, 80), decimal.NewFromInt(200), testPortfolio())

	assert.False(t, verdict.Accepted)
	assert.Contains(t, verdict.Reason, "position limit")
}

func TestValidateBuyRejectsInsufficientBuyingPower(t *testing.T) {
	gate := NewGate(60, 1.0)

	portfolio := testPortfolio()
	portfolio.BuyingPower = decimal.NewFromInt(1_000)

	verdict := gate.Validate(buyDecision(40, 80), decimal.NewFromInt(200), portfolio)

	assert.False(t, verdict.Accepted)
	assert.Contains(t, verdict.Reason, "buying power")
}

func TestValidateBuyRejectsWithoutPrice(t *testing.T) {
	gate := NewGate(60, 0.20)

	verdict := gate.Validate(buyDecision(40, 80), decimal.Zero, testPortfolio())

	assert.False(t, verdict.Accepted)
	assert.Contains(t, verdict.Reason, "price")
}

func TestValidateSellWithinHoldings(t *testing.T) {
	gate := NewGate(60, 0.20)

	verdict := gate.Validate(decision.FinalDecision{
		Symbol: "AAPL", Signal: ensemble.SignalSell, Confidence: 80, Quantity: 50,
	}, decimal.NewFromInt(200), testPortfolio())

	assert.True(t, verdict.Accepted)
	assert.Equal(t, 50, verdict.Quantity)
}

func TestValidateSellRejectsShorting(t *testing.T) {
	gate := NewGate(60, 0.20)

	verdict := gate.Validate(decision.FinalDecision{
		Symbol: "AAPL", Signal: ensemble.SignalSell, Confidence: 80, Quantity: 51,
	}, decimal.NewFromInt(200), testPortfolio())

	assert.False(t, verdict.Accepted)
	assert.Contains(t, verdict.Reason, "insufficient shares")
}

func TestValidateSellUnknownSymbolRejected(t *testing.T) {
	gate := NewGate(60, 0.20)

	verdict := gate.Validate(decision.FinalDecision{
		Symbol: "MSFT", Signal: ensemble.SignalSell, Confidence: 80, Quantity: 1,
	}, decimal.NewFromInt(200), testPortfolio())

	assert.False(t, verdict.Accepted)
}
