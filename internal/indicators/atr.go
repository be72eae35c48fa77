package indicators

import (
	"errors"
	"math"

	"github.com/ducminhle1904/quant-risk-engine/pkg/types"
)

// ATR is the Average True Range volatility indicator. True ranges are
// smoothed with an EMA (Wilder-style smoothing).
type ATR struct {
	period      int
	ema         *EMA
	lastClose   float64
	initialized bool
}

// NewATR creates a new ATR indicator.
func NewATR(period int) *ATR {
	return &ATR{
		period: period,
		ema:    NewEMA(period),
	}
}

// Calculate returns the ATR over the candle series. The first call
// processes the whole series; subsequent calls fold in only the latest
// candle.
func (a *ATR) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < a.period {
		return 0, errors.New("insufficient data points for ATR calculation")
	}
	if !a.initialized {
		return a.initialCalculation(data)
	}
	return a.incrementalCalculation(data)
}

func (a *ATR) initialCalculation(data []types.OHLCV) (float64, error) {
	for i, candle := range data {
		var trueRange float64
		if i > 0 {
			trueRange = trueRange3(candle, a.lastClose)
		} else {
			trueRange = candle.High - candle.Low
		}
		a.ema.Update(trueRange)
		a.lastClose = candle.Close
	}
	a.initialized = true
	return a.ema.LastValue(), nil
}

func (a *ATR) incrementalCalculation(data []types.OHLCV) (float64, error) {
	if len(data) == 0 {
		return a.ema.LastValue(), nil
	}
	latest := data[len(data)-1]
	value := a.ema.Update(trueRange3(latest, a.lastClose))
	a.lastClose = latest.Close
	return value, nil
}

// trueRange3 is max(High-Low, |High-PrevClose|, |Low-PrevClose|).
func trueRange3(current types.OHLCV, prevClose float64) float64 {
	hl := current.High - current.Low
	hc := math.Abs(current.High - prevClose)
	lc := math.Abs(current.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}

// LastValue returns the last computed ATR value.
func (a *ATR) LastValue() float64 {
	return a.ema.LastValue()
}

// Period returns the smoothing period.
func (a *ATR) Period() int {
	return a.period
}

// RequiredPeriods returns the minimum number of candles needed.
func (a *ATR) RequiredPeriods() int {
	return a.period + 1
}

// Reset clears the indicator state for a new data series.
func (a *ATR) Reset() {
	a.ema.Reset()
	a.lastClose = 0
	a.initialized = false
}
