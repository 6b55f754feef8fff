package agents

import (
	"context"
	"fmt"
)

// Threshold pairs for each reported metric. A metric at zero counts as
// unreported and is skipped.
const (
	roeBullish             = 0.15
	roeBearish             = 0.05
	netMarginBullish       = 0.20
	netMarginBearish       = 0.05
	operatingMarginBullish = 0.15
	operatingMarginBearish = 0.05
	growthBullish          = 0.10
	peBullish              = 25.0
	peBearish              = 40.0
)

// FundamentalsAgent scores profitability, growth and pricing metrics
// against fixed thresholds and takes the majority verdict.
type FundamentalsAgent struct{}

func NewFundamentalsAgent() *FundamentalsAgent { return &FundamentalsAgent{} }

func (a *FundamentalsAgent) Kind() Kind { return KindFundamentals }

func (a *FundamentalsAgent) Analyze(_ context.Context, snap Snapshot) (Signal, error) {
	f := snap.Fundamentals

	bullish, bearish, total := 0, 0, 0
	check := func(reported bool, isBullish, isBearish bool) {
		if !reported {
			return
		}
		total++
		if isBullish {
			bullish++
		} else if isBearish {
			bearish++
		}
	}

	check(f.ROE != 0, f.ROE > roeBullish, f.ROE < roeBearish)
	check(f.NetMargin != 0, f.NetMargin > netMarginBullish, f.NetMargin < netMarginBearish)
	check(f.OperatingMargin != 0, f.OperatingMargin > operatingMarginBullish, f.OperatingMargin < operatingMarginBearish)
	check(f.RevenueGrowth != 0, f.RevenueGrowth > growthBullish, f.RevenueGrowth < 0)
	check(f.EarningsGrowth != 0, f.EarningsGrowth > growthBullish, f.EarningsGrowth < 0)
	check(f.PERatio > 0, f.PERatio < peBullish, f.PERatio > peBearish)

	if total == 0 {
		return neutral(KindFundamentals, 0, "no fundamentals reported"), nil
	}

	stance := StanceNeutral
	strongest := bullish
	if bullish > bearish {
		stance = StanceBullish
	} else if bearish > bullish {
		stance = StanceBearish
		strongest = bearish
	}

	return Signal{
		Agent:      KindFundamentals,
		Stance:     stance,
		Confidence: float64(strongest) / float64(total) * 100,
		Reasoning:  fmt.Sprintf("bullish metrics: %d, bearish metrics: %d of %d", bullish, bearish, total),
	}, nil
}
