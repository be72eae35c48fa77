package types

import "time"

// OHLCV is a single candlestick observation.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Ticker is a point-in-time price observation for a symbol.
type Ticker struct {
	Symbol    string
	Price     float64
	Timestamp time.Time
}

// Closes extracts the close prices from a candle series.
func Closes(data []OHLCV) []float64 {
	closes := make([]float64, len(data))
	for i, candle := range data {
		closes[i] = candle.Close
	}
	return closes
}
