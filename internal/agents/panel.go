package agents

import (
	"context"

	"golang.org/x/sync/errgroup"

	"stockai/internal/logger"
)

// Panel runs the fixed analyst set concurrently. One agent failing
// degrades that agent to neutral; it never fails the symbol's cycle.
type Panel struct {
	agents []Agent
}

// NewPanel wires the five standard analysts.
func NewPanel() *Panel {
	return &Panel{agents: []Agent{
		NewFundamentalsAgent(),
		NewTechnicalsAgent(),
		NewValuationAgent(),
		NewSentimentAgent(),
		NewRiskAgent(),
	}}
}

// NewPanelWith builds a panel from explicit agents, mainly for tests.
func NewPanelWith(agents ...Agent) *Panel {
	return &Panel{agents: agents}
}

// Run evaluates every agent against the snapshot and returns their
// signals in panel order.
func (p *Panel) Run(ctx context.Context, snap Snapshot) []Signal {
	signals := make([]Signal, len(p.agents))

	g, gctx := errgroup.WithContext(ctx)
	for i, agent := range p.agents {
		g.Go(func() error {
			sig, err := agent.Analyze(gctx, snap)
			if err != nil {
				logger.Warnf("agent %s degraded to neutral for %s: %v", agent.Kind(), snap.Symbol, err)
				sig = neutral(agent.Kind(), 0, "analysis failed")
				if agent.Kind() == KindRisk {
					sig.RiskMultiplier = riskMultiplierMediumRisk
				}
			}
			signals[i] = sig
			return nil
		})
	}
	_ = g.Wait()

	return signals
}
