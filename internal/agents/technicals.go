package agents

import (
	"context"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"stockai/internal/market"
)

// Sub-strategy weights for the combined technical score.
var technicalWeights = map[string]float64{
	"trend":          0.25,
	"mean_reversion": 0.20,
	"momentum":       0.25,
	"volatility":     0.15,
	"stat_arb":       0.15,
}

// TechnicalsAgent blends five sub-strategies (trend, mean reversion,
// momentum, volatility regime, statistical properties) into a single
// stance with a confidence-weighted score.
type TechnicalsAgent struct{}

func NewTechnicalsAgent() *TechnicalsAgent { return &TechnicalsAgent{} }

func (a *TechnicalsAgent) Kind() Kind { return KindTechnicals }

type subSignal struct {
	stance     Stance
	confidence float64 // [0,1]
}

func (a *TechnicalsAgent) Analyze(_ context.Context, snap Snapshot) (Signal, error) {
	if len(snap.Bars) == 0 {
		return neutral(KindTechnicals, 0, "no price history"), nil
	}

	closes := market.Closes(snap.Bars)
	subs := map[string]subSignal{
		"trend":          trendSignal(snap.Bars, closes),
		"mean_reversion": meanReversionSignal(closes),
		"momentum":       momentumSignal(closes, market.Volumes(snap.Bars)),
		"volatility":     volatilitySignal(closes),
		"stat_arb":       statArbSignal(closes),
	}

	stance, confidence := combineSubSignals(subs, technicalWeights)
	return Signal{
		Agent:      KindTechnicals,
		Stance:     stance,
		Confidence: confidence,
		Reasoning: fmt.Sprintf("trend=%s mean_reversion=%s momentum=%s volatility=%s stat_arb=%s",
			subs["trend"].stance, subs["mean_reversion"].stance, subs["momentum"].stance,
			subs["volatility"].stance, subs["stat_arb"].stance),
	}, nil
}

// trendSignal compares stacked EMAs (8/21/55) with ADX as the strength
// estimate.
func trendSignal(bars []market.Bar, closes []float64) subSignal {
	if len(closes) < 56 {
		return subSignal{StanceNeutral, 0.5}
	}
	ema8 := last(talib.Ema(closes, 8))
	ema21 := last(talib.Ema(closes, 21))
	ema55 := last(talib.Ema(closes, 55))
	adx := last(talib.Adx(market.Highs(bars), market.Lows(bars), closes, 14))
	if !finite(ema8, ema21, ema55, adx) {
		return subSignal{StanceNeutral, 0.5}
	}

	strength := adx / 100.0
	switch {
	case ema8 > ema21 && ema21 > ema55:
		return subSignal{StanceBullish, strength}
	case ema8 <= ema21 && ema21 <= ema55:
		return subSignal{StanceBearish, strength}
	default:
		return subSignal{StanceNeutral, 0.5}
	}
}

// meanReversionSignal combines a 50-day z-score with position inside
// the Bollinger band.
func meanReversionSignal(closes []float64) subSignal {
	if len(closes) < 50 {
		return subSignal{StanceNeutral, 0.5}
	}
	window := closes[len(closes)-50:]
	mean, std := meanStd(window)
	if std == 0 {
		return subSignal{StanceNeutral, 0.5}
	}
	price := closes[len(closes)-1]
	zScore := (price - mean) / std

	upper, _, lower := talib.BBands(closes, 20, 2, 2, talib.SMA)
	bandWidth := last(upper) - last(lower)
	if !finite(last(upper), last(lower)) || bandWidth == 0 {
		return subSignal{StanceNeutral, 0.5}
	}
	priceVsBand := (price - last(lower)) / bandWidth

	switch {
	case zScore < -2 && priceVsBand < 0.2:
		return subSignal{StanceBullish, math.Min(math.Abs(zScore)/4, 1.0)}
	case zScore > 2 && priceVsBand > 0.8:
		return subSignal{StanceBearish, math.Min(math.Abs(zScore)/4, 1.0)}
	default:
		return subSignal{StanceNeutral, 0.5}
	}
}

// momentumSignal weights 1/3/6 month return sums and requires volume
// above its 21-day average as confirmation.
func momentumSignal(closes, volumes []float64) subSignal {
	returns := pctChange(closes)
	if len(returns) < 126 || len(volumes) < 21 {
		return subSignal{StanceNeutral, 0.5}
	}
	mom1m := sum(returns[len(returns)-21:])
	mom3m := sum(returns[len(returns)-63:])
	mom6m := sum(returns[len(returns)-126:])
	score := 0.4*mom1m + 0.3*mom3m + 0.3*mom6m

	volumeMA := mean(volumes[len(volumes)-21:])
	volumeConfirmed := volumeMA > 0 && volumes[len(volumes)-1]/volumeMA > 1.0

	switch {
	case score > 0.05 && volumeConfirmed:
		return subSignal{StanceBullish, math.Min(math.Abs(score)*5, 1.0)}
	case score < -0.05 && volumeConfirmed:
		return subSignal{StanceBearish, math.Min(math.Abs(score)*5, 1.0)}
	default:
		return subSignal{StanceNeutral, 0.5}
	}
}

// volatilitySignal reads the 21-day realized volatility against its
// 63-day regime.
func volatilitySignal(closes []float64) subSignal {
	returns := pctChange(closes)
	if len(returns) < 21+63 {
		return subSignal{StanceNeutral, 0.5}
	}
	histVol := rollingStd(returns, 21)
	for i := range histVol {
		histVol[i] *= math.Sqrt(252)
	}

	recent := histVol[len(histVol)-63:]
	volMA := mean(recent)
	_, volStd := meanStd(recent)
	if volMA == 0 || volStd == 0 {
		return subSignal{StanceNeutral, 0.5}
	}
	current := histVol[len(histVol)-1]
	regime := current / volMA
	volZ := (current - volMA) / volStd

	switch {
	case regime < 0.8 && volZ < -1:
		// Quiet regime with room to expand.
		return subSignal{StanceBullish, math.Min(math.Abs(volZ)/3, 1.0)}
	case regime > 1.2 && volZ > 1:
		return subSignal{StanceBearish, math.Min(math.Abs(volZ)/3, 1.0)}
	default:
		return subSignal{StanceNeutral, 0.5}
	}
}

// statArbSignal reads return skewness together with the Hurst exponent
// of the close series.
func statArbSignal(closes []float64) subSignal {
	returns := pctChange(closes)
	if len(returns) < 63 || len(closes) < 21 {
		return subSignal{StanceNeutral, 0.5}
	}
	skew := skewness(returns[len(returns)-63:])
	hurst := hurstExponent(closes, 20)

	switch {
	case hurst < 0.4 && skew > 1:
		return subSignal{StanceBullish, (0.5 - hurst) * 2}
	case hurst < 0.4 && skew < -1:
		return subSignal{StanceBearish, (0.5 - hurst) * 2}
	default:
		return subSignal{StanceNeutral, 0.5}
	}
}

func combineSubSignals(subs map[string]subSignal, weights map[string]float64) (Stance, float64) {
	stanceValue := map[Stance]float64{StanceBullish: 1, StanceNeutral: 0, StanceBearish: -1}

	weightedSum := 0.0
	totalConfidence := 0.0
	for name, sub := range subs {
		w := weights[name]
		weightedSum += stanceValue[sub.stance] * w * sub.confidence
		totalConfidence += w * sub.confidence
	}

	score := 0.0
	if totalConfidence > 0 {
		score = weightedSum / totalConfidence
	}

	switch {
	case score > 0.2:
		return StanceBullish, math.Abs(score) * 100
	case score < -0.2:
		return StanceBearish, math.Abs(score) * 100
	default:
		return StanceNeutral, math.Abs(score) * 100
	}
}

func last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}

// meanStd returns the mean and sample standard deviation.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) < 2 {
		return mean(xs), 0
	}
	m := mean(xs)
	variance := 0.0
	for _, x := range xs {
		variance += (x - m) * (x - m)
	}
	return m, math.Sqrt(variance / float64(len(xs)-1))
}

func pctChange(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		if xs[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, xs[i]/xs[i-1]-1)
	}
	return out
}

// rollingStd returns the windowed sample standard deviation; the first
// window-1 entries are dropped.
func rollingStd(xs []float64, window int) []float64 {
	if len(xs) < window {
		return nil
	}
	out := make([]float64, 0, len(xs)-window+1)
	for i := window; i <= len(xs); i++ {
		_, std := meanStd(xs[i-window : i])
		out = append(out, std)
	}
	return out
}

// skewness computes the adjusted Fisher-Pearson coefficient, matching
// the usual sample-skew convention.
func skewness(xs []float64) float64 {
	n := float64(len(xs))
	if n < 3 {
		return 0
	}
	m, std := meanStd(xs)
	if std == 0 {
		return 0
	}
	third := 0.0
	for _, x := range xs {
		d := (x - m) / std
		third += d * d * d
	}
	return third * n / ((n - 1) * (n - 2))
}

// hurstExponent estimates long-term memory from the scaling of lagged
// price differences. 0.5 reads as a random walk.
func hurstExponent(prices []float64, maxLag int) float64 {
	if len(prices) <= maxLag {
		return 0.5
	}
	var logLags, logTaus []float64
	for lag := 2; lag < maxLag; lag++ {
		diffs := make([]float64, len(prices)-lag)
		for i := range diffs {
			diffs[i] = prices[i+lag] - prices[i]
		}
		tau := math.Max(1e-8, math.Sqrt(populationStd(diffs)))
		logLags = append(logLags, math.Log(float64(lag)))
		logTaus = append(logTaus, math.Log(tau))
	}
	slope, ok := linearSlope(logLags, logTaus)
	if !ok {
		return 0.5
	}
	return slope
}

func populationStd(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	variance := 0.0
	for _, x := range xs {
		variance += (x - m) * (x - m)
	}
	return math.Sqrt(variance / float64(len(xs)))
}

func linearSlope(xs, ys []float64) (float64, bool) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0, false
	}
	mx, my := mean(xs), mean(ys)
	num, den := 0.0, 0.0
	for i := range xs {
		num += (xs[i] - mx) * (ys[i] - my)
		den += (xs[i] - mx) * (xs[i] - mx)
	}
	if den == 0 || !finite(num/den) {
		return 0, false
	}
	return num / den, true
}
