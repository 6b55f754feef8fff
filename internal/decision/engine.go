package decision

import (
	"fmt"
	"math"

	"stockai/internal/agents"
	"stockai/internal/ensemble"
)

const (
	fullAlignmentCap    = 95.0
	partialAlignmentCap = 90.0
	partialPenalty      = 0.8
	holdConfidence      = 50.0

	fullQuantityMultiplier    = 1.0
	partialQuantityMultiplier = 0.7
)

// Engine synthesizes agent consensus and the RL ensemble vote into one
// order intent. Decide is a pure function of its inputs and the
// configured quantities.
type Engine struct {
	baseQuantity   int
	maxQuantityCap int
}

func NewEngine(baseQuantity, maxQuantityCap int) *Engine {
	return &Engine{baseQuantity: baseQuantity, maxQuantityCap: maxQuantityCap}
}

// Decide combines the panel signals with the ensemble result. A nil rl
// means the ensemble was not ready; its confidence counts as zero.
func (e *Engine) Decide(symbol string, signals []agents.Signal, rl *ensemble.Result) FinalDecision {
	consensus, counts := tallyConsensus(signals)
	agentConfidence := directionalConfidenceMean(signals)
	riskMultiplier := riskMultiplierFrom(signals)

	rlSignal := ensemble.SignalHold
	rlConfidence := 0.0
	var rlOut *RLDecision
	if rl != nil {
		rlSignal = rl.Signal
		rlConfidence = rl.Confidence
		rlOut = &RLDecision{Signal: rl.Signal, Confidence: rl.Confidence, ModelVotes: rl.ModelVotes}
	}

	signal, confidence, quantityMultiplier, rule := synthesize(consensus, rlSignal, agentConfidence, rlConfidence)
	quantity := e.sizeQuantity(signal, confidence, quantityMultiplier, riskMultiplier)

	return FinalDecision{
		Symbol:            symbol,
		Signal:            signal,
		Confidence:        confidence,
		Quantity:          quantity,
		AgentConsensus:    consensus,
		AgentSignalCounts: counts,
		RL:                rlOut,
		Reasoning: fmt.Sprintf("%s: consensus %s (%d bullish/%d bearish/%d neutral, avg conf %.0f), rl %s (conf %.0f)",
			rule, consensus, counts[agents.StanceBullish], counts[agents.StanceBearish],
			counts[agents.StanceNeutral], agentConfidence, rlSignal, rlConfidence),
	}
}

// tallyConsensus buckets every signal's stance, the risk agent's
// included. The consensus label must strictly beat both other buckets
// or it collapses to neutral.
func tallyConsensus(signals []agents.Signal) (agents.Stance, map[agents.Stance]int) {
	counts := map[agents.Stance]int{
		agents.StanceBullish: 0,
		agents.StanceBearish: 0,
		agents.StanceNeutral: 0,
	}
	for _, sig := range signals {
		counts[sig.Stance]++
	}

	bull, bear, neut := counts[agents.StanceBullish], counts[agents.StanceBearish], counts[agents.StanceNeutral]
	switch {
	case bull > bear && bull > neut:
		return agents.StanceBullish, counts
	case bear > bull && bear > neut:
		return agents.StanceBearish, counts
	case neut > bull && neut > bear:
		return agents.StanceNeutral, counts
	default:
		return agents.StanceNeutral, counts
	}
}

// directionalConfidenceMean averages confidence over the directional
// agents. The risk agent's confidence feeds its multiplier, not the
// consensus strength.
func directionalConfidenceMean(signals []agents.Signal) float64 {
	total, n := 0.0, 0
	for _, sig := range signals {
		if sig.Agent == agents.KindRisk {
			continue
		}
		total += sig.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func riskMultiplierFrom(signals []agents.Signal) float64 {
	for _, sig := range signals {
		if sig.Agent == agents.KindRisk && sig.RiskMultiplier > 0 {
			return sig.RiskMultiplier
		}
	}
	return 1.0
}

// synthesize applies the alignment rules in order and returns the
// matched rule's signal, confidence, quantity multiplier and label.
func synthesize(consensus agents.Stance, rlSignal ensemble.Signal, agentConfidence, rlConfidence float64) (ensemble.Signal, float64, float64, string) {
	blended := (agentConfidence + rlConfidence) / 2

	switch {
	case consensus == agents.StanceBullish && rlSignal == ensemble.SignalBuy:
		return ensemble.SignalBuy, math.Min(fullAlignmentCap, blended), fullQuantityMultiplier, "full alignment"
	case consensus == agents.StanceBearish && rlSignal == ensemble.SignalSell:
		return ensemble.SignalSell, math.Min(fullAlignmentCap, blended), fullQuantityMultiplier, "full alignment"
	case consensus == agents.StanceBullish || rlSignal == ensemble.SignalBuy:
		return ensemble.SignalBuy, math.Min(partialAlignmentCap, blended*partialPenalty), partialQuantityMultiplier, "partial alignment"
	case consensus == agents.StanceBearish || rlSignal == ensemble.SignalSell:
		return ensemble.SignalSell, math.Min(partialAlignmentCap, blended*partialPenalty), partialQuantityMultiplier, "partial alignment"
	default:
		return ensemble.SignalHold, holdConfidence, 0, "no alignment"
	}
}

// sizeQuantity converts confidence into shares, applies the risk
// multiplier, and clamps to the configured cap.
func (e *Engine) sizeQuantity(signal ensemble.Signal, confidence, quantityMultiplier, riskMultiplier float64) int {
	if signal == ensemble.SignalHold {
		return 0
	}
	quantity := math.Floor(float64(e.baseQuantity) * (confidence / 100) * quantityMultiplier)
	quantity = math.Floor(quantity * riskMultiplier)

	if quantity < 0 {
		return 0
	}
	if quantity > float64(e.maxQuantityCap) {
		return e.maxQuantityCap
	}
	return int(quantity)
}
