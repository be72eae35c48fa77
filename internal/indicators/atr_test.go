package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/quant-risk-engine/pkg/types"
)

func candleSeries(prices []float64, spread float64) []types.OHLCV {
	data := make([]types.OHLCV, len(prices))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range prices {
		data[i] = types.OHLCV{
			Open:      p,
			High:      p + spread,
			Low:       p - spread,
			Close:     p,
			Volume:    1000,
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
		}
	}
	return data
}

func TestATR_InsufficientData(t *testing.T) {
	atr := NewATR(14)
	_, err := atr.Calculate(candleSeries([]float64{100, 101}, 1))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient data")
}

func TestATR_FlatMarket(t *testing.T) {
	atr := NewATR(5)
	prices := []float64{100, 100, 100, 100, 100, 100, 100}

	value, err := atr.Calculate(candleSeries(prices, 2))
	require.NoError(t, err)

	// Every true range is the high-low spread of 4.
	assert.InDelta(t, 4.0, value, 1e-9)
}

func TestATR_Incremental(t *testing.T) {
	atr := NewATR(5)
	data := candleSeries([]float64{100, 102, 101, 103, 105, 104}, 1)

	first, err := atr.Calculate(data)
	require.NoError(t, err)
	assert.Greater(t, first, 0.0)

	// Feeding one more candle updates rather than recomputes.
	extended := append(data, candleSeries([]float64{110}, 1)...)
	second, err := atr.Calculate(extended)
	require.NoError(t, err)
	assert.Greater(t, second, first)
	assert.Equal(t, second, atr.LastValue())
}

func TestATR_Reset(t *testing.T) {
	atr := NewATR(5)
	_, err := atr.Calculate(candleSeries([]float64{100, 101, 102, 103, 104, 105}, 1))
	require.NoError(t, err)

	atr.Reset()
	assert.Equal(t, 0.0, atr.LastValue())
}

func TestEMA_Update(t *testing.T) {
	ema := NewEMA(9)
	assert.False(t, ema.Initialized())

	first := ema.Update(10)
	assert.Equal(t, 10.0, first)
	assert.True(t, ema.Initialized())

	second := ema.Update(20)
	assert.Greater(t, second, 10.0)
	assert.Less(t, second, 20.0)
}
