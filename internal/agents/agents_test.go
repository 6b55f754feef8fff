package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockai/internal/market"
)

func TestFundamentalsBullishMajority(t *testing.T) {
	sig, err := NewFundamentalsAgent().Analyze(context.Background(), Snapshot{
		Fundamentals: market.Fundamentals{
			ROE:             0.25,
			NetMargin:       0.30,
			OperatingMargin: 0.20,
			RevenueGrowth:   0.12,
			EarningsGrowth:  0.15,
			PERatio:         18,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StanceBullish, sig.Stance)
	assert.InDelta(t, 100.0, sig.Confidence, 1e-9)
}

func TestFundamentalsBearishMetrics(t *testing.T) {
	sig, err := NewFundamentalsAgent().Analyze(context.Background(), Snapshot{
		Fundamentals: market.Fundamentals{
			ROE:            0.02,
			NetMargin:      0.01,
			EarningsGrowth: -0.10,
			PERatio:        55,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StanceBearish, sig.Stance)
	assert.InDelta(t, 100.0, sig.Confidence, 1e-9)
}

func TestFundamentalsMissingDataIsNeutral(t *testing.T) {
	sig, err := NewFundamentalsAgent().Analyze(context.Background(), Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, StanceNeutral, sig.Stance)
	assert.Zero(t, sig.Confidence)
}

func TestSentimentTally(t *testing.T) {
	agent := NewSentimentAgent()

	sig, err := agent.Analyze(context.Background(), Snapshot{
		InsiderTrades: []market.InsiderTrade{
			{Shares: 1000}, {Shares: 500}, {Shares: -200},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StanceBullish, sig.Stance)
	assert.InDelta(t, 2.0/3.0*100, sig.Confidence, 1e-9)

	sig, err = agent.Analyze(context.Background(), Snapshot{
		InsiderTrades: []market.InsiderTrade{{Shares: 100}, {Shares: -100}},
	})
	require.NoError(t, err)
	assert.Equal(t, StanceNeutral, sig.Stance)
	assert.InDelta(t, 50.0, sig.Confidence, 1e-9)
}

func TestSentimentNoTradesIsNeutral(t *testing.T) {
	sig, err := NewSentimentAgent().Analyze(context.Background(), Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, StanceNeutral, sig.Stance)
	assert.Zero(t, sig.Confidence)
}

func TestRiskBands(t *testing.T) {
	agent := NewRiskAgent()

	// Plenty of deployable room reads as high risk.
	sig, err := agent.Analyze(context.Background(), Snapshot{
		Portfolio: PortfolioView{Cash: 100_000, PositionValue: 0, TotalValue: 100_000},
	})
	require.NoError(t, err)
	assert.Equal(t, StanceBearish, sig.Stance)
	assert.InDelta(t, 80.0, sig.Confidence, 1e-9)
	assert.InDelta(t, 0.5, sig.RiskMultiplier, 1e-9)

	// Limit of 20000, held 8000: deployable 12000 is 12% of portfolio.
	sig, err = agent.Analyze(context.Background(), Snapshot{
		Portfolio: PortfolioView{Cash: 50_000, PositionValue: 8_000, TotalValue: 100_000},
	})
	require.NoError(t, err)
	assert.Equal(t, StanceNeutral, sig.Stance)
	assert.InDelta(t, 1.0, sig.RiskMultiplier, 1e-9)

	// Position near the cap leaves little room, so low risk to add.
	sig, err = agent.Analyze(context.Background(), Snapshot{
		Portfolio: PortfolioView{Cash: 5_000, PositionValue: 18_000, TotalValue: 100_000},
	})
	require.NoError(t, err)
	assert.Equal(t, StanceBullish, sig.Stance)
	assert.InDelta(t, 1.2, sig.RiskMultiplier, 1e-9)
}

func TestRiskNoPortfolioIsNeutral(t *testing.T) {
	sig, err := NewRiskAgent().Analyze(context.Background(), Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, StanceNeutral, sig.Stance)
	assert.InDelta(t, 1.0, sig.RiskMultiplier, 1e-9)
}

func TestValuationGapSignals(t *testing.T) {
	agent := NewValuationAgent()

	// Strong cash flow against a small market cap reads undervalued.
	sig, err := agent.Analyze(context.Background(), Snapshot{
		Fundamentals: market.Fundamentals{
			MarketCap:      1_000_000,
			FreeCashFlow:   300_000,
			NetIncome:      280_000,
			Depreciation:   50_000,
			CapEx:          40_000,
			EarningsGrowth: 0.05,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StanceBullish, sig.Stance)
	assert.Greater(t, sig.Confidence, 15.0)

	// Tiny cash flow against a huge market cap reads overvalued.
	sig, err = agent.Analyze(context.Background(), Snapshot{
		Fundamentals: market.Fundamentals{
			MarketCap:    100_000_000,
			FreeCashFlow: 1_000,
			NetIncome:    1_000,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StanceBearish, sig.Stance)
}

func TestValuationNoMarketCapIsNeutral(t *testing.T) {
	sig, err := NewValuationAgent().Analyze(context.Background(), Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, StanceNeutral, sig.Stance)
	assert.Zero(t, sig.Confidence)
}

func TestTechnicalsNoBarsIsNeutral(t *testing.T) {
	sig, err := NewTechnicalsAgent().Analyze(context.Background(), Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, StanceNeutral, sig.Stance)
	assert.Zero(t, sig.Confidence)
}

func TestCombineSubSignals(t *testing.T) {
	stance, confidence := combineSubSignals(map[string]subSignal{
		"trend":          {StanceBullish, 0.9},
		"mean_reversion": {StanceBullish, 0.8},
		"momentum":       {StanceBullish, 0.9},
		"volatility":     {StanceNeutral, 0.5},
		"stat_arb":       {StanceNeutral, 0.5},
	}, technicalWeights)
	assert.Equal(t, StanceBullish, stance)
	assert.Greater(t, confidence, 20.0)

	stance, _ = combineSubSignals(map[string]subSignal{
		"trend":          {StanceBullish, 0.5},
		"mean_reversion": {StanceBearish, 0.5},
		"momentum":       {StanceNeutral, 0.5},
		"volatility":     {StanceNeutral, 0.5},
		"stat_arb":       {StanceNeutral, 0.5},
	}, technicalWeights)
	assert.Equal(t, StanceNeutral, stance)
}

type failingAgent struct{ kind Kind }

func (f *failingAgent) Kind() Kind { return f.kind }

func (f *failingAgent) Analyze(context.Context, Snapshot) (Signal, error) {
	return Signal{}, errors.New("upstream timeout")
}

func TestPanelDegradesFailedAgentToNeutral(t *testing.T) {
	panel := NewPanelWith(
		NewSentimentAgent(),
		&failingAgent{kind: KindRisk},
	)

	signals := panel.Run(context.Background(), Snapshot{Symbol: "AAPL"})
	require.Len(t, signals, 2)

	assert.Equal(t, KindSentiment, signals[0].Agent)
	assert.Equal(t, KindRisk, signals[1].Agent)
	assert.Equal(t, StanceNeutral, signals[1].Stance)
	assert.Zero(t, signals[1].Confidence)
	assert.InDelta(t, 1.0, signals[1].RiskMultiplier, 1e-9)
}

func TestPanelRunsAllFiveAnalysts(t *testing.T) {
	signals := NewPanel().Run(context.Background(), Snapshot{Symbol: "MSFT"})
	require.Len(t, signals, len(Kinds))
	for i, kind := range Kinds {
		assert.Equal(t, kind, signals[i].Agent)
	}
}
