// Package features turns raw OHLCV history into the fixed observation vector
// the pretrained ensemble policies were trained against. The column order and
// indicator parameters are an external contract: changing either silently
// corrupts predictions.
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"stockai/internal/market"
)

const (
	// NumFeatures is the observation width.
	NumFeatures = 14
	// MinBars seeds the 60-period SMA, the longest lookback in the set.
	MinBars = 60
)

// ErrInsufficientData marks a recoverable per-symbol failure: skip the symbol
// this cycle and continue with the rest.
var ErrInsufficientData = errors.New("insufficient price history")

// Feature column order. Do not reorder.
const (
	FeatClose = iota
	FeatHigh
	FeatLow
	FeatOpen
	FeatVolume
	FeatDay
	FeatMACD
	FeatBollUpper
	FeatBollLower
	FeatRSI30
	FeatCCI30
	FeatDX30
	FeatSMA30
	FeatSMA60
)

// FeatureNames lists the columns in observation order.
var FeatureNames = [NumFeatures]string{
	"close", "high", "low", "open", "volume", "day",
	"macd", "boll_ub", "boll_lb", "rsi_30", "cci_30",
	"dx_30", "close_30_sma", "close_60_sma",
}

// Observation is one preprocessed feature row. Always NumFeatures long and
// finite (NaN/Inf never leave this package).
type Observation []float64

// Float32s converts the observation for tensor input.
func (o Observation) Float32s() []float32 {
	out := make([]float32, len(o))
	for i, v := range o {
		out[i] = float32(v)
	}
	return out
}

// Preprocess computes the observation from the trailing bar window ending at
// the latest bar. Bars must be ascending; at least MinBars are required.
func Preprocess(bars []market.Bar) (Observation, error) {
	if len(bars) < MinBars {
		return nil, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, len(bars), MinBars)
	}

	closes := market.Closes(bars)
	highs := market.Highs(bars)
	lows := market.Lows(bars)
	volumes := market.Volumes(bars)

	macd, _, _ := talib.Macd(closes, 12, 26, 9)
	bollUpper, _, bollLower := talib.BBands(closes, 20, 2, 2, talib.SMA)
	rsi := talib.Rsi(closes, 30)
	cci := talib.Cci(highs, lows, closes, 30)
	dx := talib.Dx(highs, lows, closes, 30)
	sma30 := talib.Sma(closes, 30)
	sma60 := talib.Sma(closes, 60)

	columns := [NumFeatures][]float64{
		FeatClose:     closes,
		FeatHigh:      highs,
		FeatLow:       lows,
		FeatOpen:      opens(bars),
		FeatVolume:    volumes,
		FeatDay:       dayOfWeek(bars),
		FeatMACD:      macd,
		FeatBollUpper: bollUpper,
		FeatBollLower: bollLower,
		FeatRSI30:     rsi,
		FeatCCI30:     cci,
		FeatDX30:      dx,
		FeatSMA30:     sma30,
		FeatSMA60:     sma60,
	}

	obs := make(Observation, NumFeatures)
	for i, col := range columns {
		forwardFill(col)
		obs[i] = sanitize(col[len(col)-1])
	}
	return obs, nil
}

func opens(bars []market.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Open
	}
	return out
}

// dayOfWeek maps bar timestamps onto Monday=0..Sunday=6, matching the
// training data convention.
func dayOfWeek(bars []market.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = float64((int(b.Timestamp.UTC().Weekday()) + 6) % 7)
	}
	return out
}

// forwardFill replaces non-finite entries with the previous finite value.
// Leading gaps stay as-is and are zeroed by sanitize.
func forwardFill(series []float64) {
	last := math.NaN()
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if !math.IsNaN(last) {
				series[i] = last
			}
			continue
		}
		last = v
	}
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return v
}
