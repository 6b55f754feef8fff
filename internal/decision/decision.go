package decision

import (
	"stockai/internal/agents"
	"stockai/internal/ensemble"
)

// RLDecision summarizes the ensemble's aggregate vote for audit.
type RLDecision struct {
	Signal     ensemble.Signal            `json:"signal"`
	Confidence float64                    `json:"confidence"`
	ModelVotes map[string]ensemble.Signal `json:"model_votes"`
}

// FinalDecision is the synthesized order intent for one symbol in one
// cycle. RL is nil when the ensemble produced no prediction.
type FinalDecision struct {
	Symbol            string                `json:"symbol"`
	Signal            ensemble.Signal       `json:"signal"`
	Confidence        float64               `json:"confidence"`
	Quantity          int                   `json:"quantity"`
	AgentConsensus    agents.Stance         `json:"agent_consensus"`
	AgentSignalCounts map[agents.Stance]int `json:"agent_signal_counts"`
	RL                *RLDecision           `json:"rl_decision,omitempty"`
	Reasoning         string                `json:"reasoning"`
}
