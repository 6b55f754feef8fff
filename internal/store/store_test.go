package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "stockai.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndFetchDecision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveDecision(ctx, &DecisionRecord{
		Symbol: "AAPL", Signal: "buy", Confidence: 72.5, Quantity: 30,
		AgentConsensus: "bullish", RLSignal: "buy", RLConfidence: 60,
		Outcome: OutcomeAccepted, CreatedAtUnix: time.Now().Unix(),
	})
	require.NoError(t, err)
	require.Positive(t, id)

	rec, err := s.DecisionByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, 30, rec.Quantity)
	assert.Equal(t, OutcomeAccepted, rec.Outcome)
}

func TestUpdateDecisionOutcome(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveDecision(ctx, &DecisionRecord{Symbol: "TSLA", Signal: "sell"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateDecisionOutcome(ctx, id, OutcomeRejected, "confidence 30.0 below threshold 60.0"))

	rec, err := s.DecisionByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, rec.Outcome)
	assert.Contains(t, rec.RejectReason, "below threshold")
}

func TestRecentDecisionsFiltersAndOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, symbol := range []string{"AAPL", "MSFT", "AAPL"} {
		_, err := s.SaveDecision(ctx, &DecisionRecord{Symbol: symbol, Signal: "hold"})
		require.NoError(t, err)
	}

	all, err := s.RecentDecisions(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].ID > all[1].ID)

	apple, err := s.RecentDecisions(ctx, "AAPL", 10)
	require.NoError(t, err)
	assert.Len(t, apple, 2)
}

func TestOrderTrailForDecision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveDecision(ctx, &DecisionRecord{Symbol: "NVDA", Signal: "buy"})
	require.NoError(t, err)

	require.NoError(t, s.SaveOrder(ctx, &OrderRecord{
		DecisionID: id, Symbol: "NVDA", Side: "buy",
		IntendedQty: 40, ExecutedQty: 40, BrokerOrderID: "ord-7",
	}))

	orders, err := s.OrdersForDecision(ctx, id)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ord-7", orders[0].BrokerOrderID)
}

func TestCycleSummaries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCycle(ctx, &CycleRecord{
		StartedAtUnix: time.Now().Unix(), Symbols: 3, Decisions: 3, Executed: 1, Rejected: 1,
	}))

	cycles, err := s.RecentCycles(ctx, 5)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, 3, cycles[0].Symbols)
}
