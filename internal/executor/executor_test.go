package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockai/internal/broker"
	"stockai/internal/decision"
	"stockai/internal/ensemble"
)

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) GetAccount(ctx context.Context) (broker.Account, error) {
	args := m.Called(ctx)
	return args.Get(0).(broker.Account), args.Error(1)
}

func (m *mockBroker) GetPositions(ctx context.Context) ([]broker.Position, error) {
	args := m.Called(ctx)
	return args.Get(0).([]broker.Position), args.Error(1)
}

func (m *mockBroker) GetClock(ctx context.Context) (broker.Clock, error) {
	args := m.Called(ctx)
	return args.Get(0).(broker.Clock), args.Error(1)
}

func (m *mockBroker) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.Order, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(broker.Order), args.Error(1)
}

func buyDecision(symbol string, quantity int) decision.FinalDecision {
	return decision.FinalDecision{
		Symbol: symbol, Signal: ensemble.SignalBuy, Confidence: 75, Quantity: quantity,
	}
}

func TestExecuteSubmitsOrder(t *testing.T) {
	b := &mockBroker{}
	b.On("SubmitOrder", mock.Anything, broker.OrderRequest{
		Symbol: "AAPL", Quantity: 30, Side: broker.SideBuy,
	}).Return(broker.Order{ID: "ord-1", Status: "accepted"}, nil)

	result := New(b, false).Execute(context.Background(), buyDecision("AAPL", 30))

	require.NoError(t, result.Err)
	assert.Equal(t, "ord-1", result.OrderID)
	assert.Equal(t, 30, result.IntendedQty)
	assert.Equal(t, 30, result.ExecutedQty)
	b.AssertExpectations(t)
}

func TestExecuteDryRunSkipsBroker(t *testing.T) {
	b := &mockBroker{}

	result := New(b, true).Execute(context.Background(), buyDecision("AAPL", 30))

	require.NoError(t, result.Err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 30, result.ExecutedQty)
	b.AssertNotCalled(t, "SubmitOrder", mock.Anything, mock.Anything)
}

func TestExecuteHoldNeverTrades(t *testing.T) {
	b := &mockBroker{}

	result := New(b, false).Execute(context.Background(), decision.FinalDecision{
		Symbol: "AAPL", Signal: ensemble.SignalHold, Quantity: 0,
	})

	require.NoError(t, result.Err)
	assert.Zero(t, result.ExecutedQty)
	b.AssertNotCalled(t, "SubmitOrder", mock.Anything, mock.Anything)
}

func TestExecuteFailureIsNotRetried(t *testing.T) {
	b := &mockBroker{}
	b.On("SubmitOrder", mock.Anything, mock.Anything).
		Return(broker.Order{}, errors.New("exchange rejected")).
		Once()

	result := New(b, false).Execute(context.Background(), buyDecision("AAPL", 30))

	require.Error(t, result.Err)
	assert.Zero(t, result.ExecutedQty)
	assert.Equal(t, 30, result.IntendedQty)
	b.AssertNumberOfCalls(t, "SubmitOrder", 1)
}

func TestExecuteSellSide(t *testing.T) {
	b := &mockBroker{}
	b.On("SubmitOrder", mock.Anything, mock.MatchedBy(func(req broker.OrderRequest) bool {
		return req.Side == broker.SideSell && req.Quantity == 10
	})).Return(broker.Order{ID: "ord-2"}, nil)

	result := New(b, false).Execute(context.Background(), decision.FinalDecision{
		Symbol: "AAPL", Signal: ensemble.SignalSell, Confidence: 80, Quantity: 10,
	})

	require.NoError(t, result.Err)
	assert.Equal(t, "ord-2", result.OrderID)
}
