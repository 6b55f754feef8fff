package agents

import (
	"context"
	"fmt"
	"math"
)

const (
	positionLimitPct         = 0.20
	highRiskPortfolioPct     = 0.15
	mediumRiskPortfolioPct   = 0.10
	riskMultiplierHighRisk   = 0.5
	riskMultiplierMediumRisk = 1.0
	riskMultiplierLowRisk    = 1.2
)

// RiskAgent sizes the remaining room for this symbol against a 20%
// single-position limit. Besides its stance it emits the multiplier
// the decision engine applies to quantities.
type RiskAgent struct{}

func NewRiskAgent() *RiskAgent { return &RiskAgent{} }

func (a *RiskAgent) Kind() Kind { return KindRisk }

func (a *RiskAgent) Analyze(_ context.Context, snap Snapshot) (Signal, error) {
	p := snap.Portfolio
	if p.TotalValue <= 0 {
		sig := neutral(KindRisk, 0, "no portfolio value reported")
		sig.RiskMultiplier = riskMultiplierMediumRisk
		return sig, nil
	}

	positionLimit := p.TotalValue * positionLimitPct
	remainingLimit := positionLimit - p.PositionValue
	maxPositionSize := math.Min(remainingLimit, p.Cash)

	var (
		stance     Stance
		confidence float64
		multiplier float64
	)
	switch {
	case maxPositionSize > p.TotalValue*highRiskPortfolioPct:
		stance, confidence, multiplier = StanceBearish, 80, riskMultiplierHighRisk
	case maxPositionSize > p.TotalValue*mediumRiskPortfolioPct:
		stance, confidence, multiplier = StanceNeutral, 60, riskMultiplierMediumRisk
	default:
		stance, confidence, multiplier = StanceBullish, 70, riskMultiplierLowRisk
	}

	return Signal{
		Agent:          KindRisk,
		Stance:         stance,
		Confidence:     confidence,
		RiskMultiplier: multiplier,
		Reasoning: fmt.Sprintf("position limit %.0f, held %.0f, deployable %.0f of portfolio %.0f",
			positionLimit, p.PositionValue, maxPositionSize, p.TotalValue),
	}, nil
}
