package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Hour)
	cb.SetStateChangeHandler(func(string, State, State) {})

	for range 3 {
		require.True(t, cb.Allow())
		cb.RecordFailure()
	}
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
	cb.SetStateChangeHandler(func(string, State, State) {})

	cb.RecordFailure()
	require.False(t, cb.Allow())

	time.Sleep(20 * time.Millisecond)
	require.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
	cb.SetStateChangeHandler(func(string, State, State) {})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.True(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Hour)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
}
