package agents

import (
	"context"

	"stockai/internal/market"
)

// Stance is an agent's directional view on a symbol.
type Stance string

const (
	StanceBullish Stance = "bullish"
	StanceBearish Stance = "bearish"
	StanceNeutral Stance = "neutral"
)

// Kind identifies one of the fixed analysts. The set is closed; agents
// never dispatch by arbitrary name.
type Kind string

const (
	KindFundamentals Kind = "fundamentals"
	KindTechnicals   Kind = "technicals"
	KindValuation    Kind = "valuation"
	KindSentiment    Kind = "sentiment"
	KindRisk         Kind = "risk"
)

// Kinds lists every analyst in panel order.
var Kinds = []Kind{KindFundamentals, KindTechnicals, KindValuation, KindSentiment, KindRisk}

// Signal is one agent's verdict for one symbol in one cycle. It is
// consumed immediately by the decision engine and never persisted.
// RiskMultiplier is set only by the risk agent; zero means "not set".
type Signal struct {
	Agent          Kind    `json:"agent"`
	Stance         Stance  `json:"signal"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
	RiskMultiplier float64 `json:"risk_multiplier,omitempty"`
}

// PortfolioView is the slice of account state the risk agent needs.
type PortfolioView struct {
	Cash          float64
	PositionValue float64
	TotalValue    float64
}

// Snapshot bundles the per-symbol data fetched once per cycle. Agents
// are pure functions of a snapshot; none reads another's output.
type Snapshot struct {
	Symbol        string
	Bars          []market.Bar
	Fundamentals  market.Fundamentals
	InsiderTrades []market.InsiderTrade
	Portfolio     PortfolioView
}

// Agent scores one snapshot. Implementations must degrade to a neutral
// signal on missing data instead of returning an error; errors are
// reserved for unexpected failures.
type Agent interface {
	Kind() Kind
	Analyze(ctx context.Context, snap Snapshot) (Signal, error)
}

func neutral(kind Kind, confidence float64, reasoning string) Signal {
	return Signal{Agent: kind, Stance: StanceNeutral, Confidence: confidence, Reasoning: reasoning}
}
