package agents

import (
	"context"
	"fmt"
)

// SentimentAgent reads insider transactions. Negative share counts are
// dispositions and read bearish; everything else reads bullish.
type SentimentAgent struct{}

func NewSentimentAgent() *SentimentAgent { return &SentimentAgent{} }

func (a *SentimentAgent) Kind() Kind { return KindSentiment }

func (a *SentimentAgent) Analyze(_ context.Context, snap Snapshot) (Signal, error) {
	if len(snap.InsiderTrades) == 0 {
		return neutral(KindSentiment, 0, "no insider trades reported"), nil
	}

	bullish, bearish := 0, 0
	for _, trade := range snap.InsiderTrades {
		if trade.Shares < 0 {
			bearish++
		} else {
			bullish++
		}
	}

	stance := StanceNeutral
	if bullish > bearish {
		stance = StanceBullish
	} else if bearish > bullish {
		stance = StanceBearish
	}

	total := bullish + bearish
	strongest := bullish
	if bearish > bullish {
		strongest = bearish
	}

	return Signal{
		Agent:      KindSentiment,
		Stance:     stance,
		Confidence: float64(strongest) / float64(total) * 100,
		Reasoning:  fmt.Sprintf("bullish insider trades: %d, bearish insider trades: %d", bullish, bearish),
	}, nil
}
