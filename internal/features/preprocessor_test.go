package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockai/internal/market"
)

func testBars(n int) []market.Bar {
	bars := make([]market.Bar, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday
	for i := range bars {
		price := 100 + 0.5*float64(i) + 3*math.Sin(float64(i)/7)
		bars[i] = market.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price - 0.2,
			High:      price + 1.0,
			Low:       price - 1.0,
			Close:     price,
			Volume:    1_000_000 + float64(i)*1000,
		}
	}
	return bars
}

func TestPreprocessRequiresMinBars(t *testing.T) {
	_, err := Preprocess(testBars(MinBars - 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPreprocessProducesFiniteFixedWidthObservation(t *testing.T) {
	bars := testBars(90)
	obs, err := Preprocess(bars)
	require.NoError(t, err)
	require.Len(t, obs, NumFeatures)

	for i, v := range obs {
		assert.Falsef(t, math.IsNaN(v), "feature %s is NaN", FeatureNames[i])
		assert.Falsef(t, math.IsInf(v, 0), "feature %s is Inf", FeatureNames[i])
	}

	last := bars[len(bars)-1]
	assert.Equal(t, last.Close, obs[FeatClose])
	assert.Equal(t, last.High, obs[FeatHigh])
	assert.Equal(t, last.Low, obs[FeatLow])
	assert.Equal(t, last.Open, obs[FeatOpen])
	assert.Equal(t, last.Volume, obs[FeatVolume])
}

func TestPreprocessMovingAverages(t *testing.T) {
	bars := testBars(90)
	obs, err := Preprocess(bars)
	require.NoError(t, err)

	closes := market.Closes(bars)
	mean := func(window int) float64 {
		sum := 0.0
		for _, v := range closes[len(closes)-window:] {
			sum += v
		}
		return sum / float64(window)
	}
	assert.InDelta(t, mean(30), obs[FeatSMA30], 1e-9)
	assert.InDelta(t, mean(60), obs[FeatSMA60], 1e-9)
}

func TestPreprocessDayOfWeek(t *testing.T) {
	bars := testBars(61)
	obs, err := Preprocess(bars)
	require.NoError(t, err)

	// 2024-01-01 is a Monday; bar 60 lands on the same weekday cadence.
	want := float64((int(bars[60].Timestamp.Weekday()) + 6) % 7)
	assert.Equal(t, want, obs[FeatDay])
	assert.GreaterOrEqual(t, obs[FeatDay], 0.0)
	assert.LessOrEqual(t, obs[FeatDay], 6.0)
}

func TestForwardFillReplacesGaps(t *testing.T) {
	series := []float64{math.NaN(), 1, math.NaN(), math.Inf(1), 4}
	forwardFill(series)
	assert.True(t, math.IsNaN(series[0]))
	assert.Equal(t, []float64{1, 1, 1, 4}, series[1:])
	assert.Equal(t, 0.0, sanitize(series[0]))
}
