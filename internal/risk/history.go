package risk

import "github.com/ducminhle1904/quant-risk-engine/internal/stats"

// DefaultHistoryLength caps per-symbol price history at one trading year.
const DefaultHistoryLength = 252

// HistoryStore holds bounded per-symbol price series. It is shared
// between the risk calculator, the correlation analyzer, and the stress
// engine. The store is not internally synchronized: one writer per
// portfolio session, same as the rest of the engine.
type HistoryStore struct {
	maxLen int
	prices map[string][]float64
}

// NewHistoryStore creates a store capped at maxLen observations per
// symbol. maxLen <= 0 falls back to DefaultHistoryLength.
func NewHistoryStore(maxLen int) *HistoryStore {
	if maxLen <= 0 {
		maxLen = DefaultHistoryLength
	}
	return &HistoryStore{
		maxLen: maxLen,
		prices: make(map[string][]float64),
	}
}

// AddPrice appends an observation, evicting the oldest when full.
// Non-positive prices are dropped.
func (h *HistoryStore) AddPrice(symbol string, price float64) {
	if price <= 0 {
		return
	}
	series := h.prices[symbol]
	series = append(series, price)
	if len(series) > h.maxLen {
		series = series[len(series)-h.maxLen:]
	}
	h.prices[symbol] = series
}

// Prices returns a copy of the stored series for the symbol.
func (h *HistoryStore) Prices(symbol string) []float64 {
	series := h.prices[symbol]
	if len(series) == 0 {
		return nil
	}
	out := make([]float64, len(series))
	copy(out, series)
	return out
}

// Returns derives the simple-return series for the symbol.
func (h *HistoryStore) Returns(symbol string) []float64 {
	return stats.Returns(h.prices[symbol])
}

// Volatility returns the unannualized return volatility for the symbol,
// 0 when history is too short.
func (h *HistoryStore) Volatility(symbol string) float64 {
	return stats.StdDev(h.Returns(symbol))
}

// Len returns the number of stored observations for the symbol.
func (h *HistoryStore) Len(symbol string) int {
	return len(h.prices[symbol])
}

// Symbols returns every symbol with at least one observation.
func (h *HistoryStore) Symbols() []string {
	symbols := make([]string, 0, len(h.prices))
	for symbol := range h.prices {
		symbols = append(symbols, symbol)
	}
	return symbols
}
