package market

import "time"

// Bar is one OHLCV daily bar. Sequences are ascending by timestamp with no
// duplicates; bars are immutable once fetched.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Fundamentals is a snapshot of company metrics as of a date. The upstream
// API may return a partial record; zero values mean "not reported" and
// consumers degrade instead of failing.
type Fundamentals struct {
	ROE                float64 `json:"roe"`
	NetMargin          float64 `json:"net_margin"`
	OperatingMargin    float64 `json:"operating_margin"`
	RevenueGrowth      float64 `json:"revenue_growth"`
	EarningsGrowth     float64 `json:"earnings_growth"`
	PERatio            float64 `json:"pe_ratio"`
	FreeCashFlow       float64 `json:"free_cash_flow"`
	NetIncome          float64 `json:"net_income"`
	Depreciation       float64 `json:"depreciation_and_amortization"`
	CapEx              float64 `json:"capital_expenditure"`
	WorkingCapital     float64 `json:"working_capital"`
	PrevWorkingCapital float64 `json:"previous_working_capital"`
	MarketCap          float64 `json:"market_cap"`
}

// InsiderTrade is one reported insider transaction. Shares are negative for
// dispositions.
type InsiderTrade struct {
	TransactionType string    `json:"transaction_type"`
	Shares          float64   `json:"shares"`
	Date            time.Time `json:"date"`
}

// Closes extracts the close series from a bar window.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high series from a bar window.
func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low series from a bar window.
func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volume series from a bar window.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}
