package agents

import (
	"context"
	"fmt"
	"math"
)

const (
	dcfDiscountRate       = 0.10
	dcfTerminalGrowth     = 0.03
	ownerRequiredReturn   = 0.15
	ownerMarginOfSafety   = 0.25
	projectionYears       = 5
	valuationGapThreshold = 0.15
)

// ValuationAgent compares two intrinsic value estimates, a discounted
// cash flow and Buffett's owner earnings method, against market cap.
type ValuationAgent struct{}

func NewValuationAgent() *ValuationAgent { return &ValuationAgent{} }

func (a *ValuationAgent) Kind() Kind { return KindValuation }

func (a *ValuationAgent) Analyze(_ context.Context, snap Snapshot) (Signal, error) {
	f := snap.Fundamentals
	if f.MarketCap <= 0 {
		return neutral(KindValuation, 0, "no market cap reported"), nil
	}

	workingCapitalChange := f.WorkingCapital - f.PrevWorkingCapital
	ownerValue := ownerEarningsValue(f.NetIncome, f.Depreciation, f.CapEx,
		workingCapitalChange, f.EarningsGrowth)
	dcfValue := intrinsicValue(f.FreeCashFlow, f.EarningsGrowth)

	dcfGap := (dcfValue - f.MarketCap) / f.MarketCap
	ownerGap := (ownerValue - f.MarketCap) / f.MarketCap
	valuationGap := (dcfGap + ownerGap) / 2

	stance := StanceNeutral
	switch {
	case valuationGap > valuationGapThreshold:
		stance = StanceBullish
	case valuationGap < -valuationGapThreshold:
		stance = StanceBearish
	}

	return Signal{
		Agent:      KindValuation,
		Stance:     stance,
		Confidence: math.Min(math.Abs(valuationGap)*100, 100),
		Reasoning: fmt.Sprintf("dcf gap %.1f%%, owner earnings gap %.1f%% vs market cap %.0f",
			dcfGap*100, ownerGap*100, f.MarketCap),
	}, nil
}

// ownerEarningsValue projects owner earnings (net income plus
// depreciation, less capex and working capital growth) and discounts
// them with a margin of safety.
func ownerEarningsValue(netIncome, depreciation, capex, workingCapitalChange, growthRate float64) float64 {
	ownerEarnings := netIncome + depreciation - capex - workingCapitalChange
	if ownerEarnings <= 0 {
		return 0
	}

	total := 0.0
	lastDiscounted := 0.0
	for year := 1; year <= projectionYears; year++ {
		future := ownerEarnings * math.Pow(1+growthRate, float64(year))
		lastDiscounted = future / math.Pow(1+ownerRequiredReturn, float64(year))
		total += lastDiscounted
	}

	terminalGrowth := math.Min(growthRate, dcfTerminalGrowth)
	terminal := lastDiscounted * (1 + terminalGrowth) / (ownerRequiredReturn - terminalGrowth)
	total += terminal / math.Pow(1+ownerRequiredReturn, projectionYears)

	return total * (1 - ownerMarginOfSafety)
}

// intrinsicValue is a five year DCF on free cash flow with a perpetuity
// terminal value.
func intrinsicValue(freeCashFlow, growthRate float64) float64 {
	total := 0.0
	lastFlow := freeCashFlow
	for year := 0; year < projectionYears; year++ {
		lastFlow = freeCashFlow * math.Pow(1+growthRate, float64(year))
		total += lastFlow / math.Pow(1+dcfDiscountRate, float64(year+1))
	}

	terminal := lastFlow * (1 + dcfTerminalGrowth) / (dcfDiscountRate - dcfTerminalGrowth)
	total += terminal / math.Pow(1+dcfDiscountRate, projectionYears)

	return total
}
