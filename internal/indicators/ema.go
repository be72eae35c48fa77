package indicators

// EMA is an incrementally-updated exponential moving average used for
// Wilder-style smoothing of volatility series.
type EMA struct {
	period      int
	alpha       float64
	lastValue   float64
	initialized bool
}

// NewEMA creates a new EMA with the standard alpha of 2/(period+1).
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

// Update feeds a single value into the average and returns the new EMA.
// The first value seeds the average directly.
func (e *EMA) Update(value float64) float64 {
	if !e.initialized {
		e.lastValue = value
		e.initialized = true
	} else {
		e.lastValue = value*e.alpha + e.lastValue*(1-e.alpha)
	}
	return e.lastValue
}

// LastValue returns the most recently computed EMA value.
func (e *EMA) LastValue() float64 {
	return e.lastValue
}

// Initialized reports whether the EMA has consumed any data.
func (e *EMA) Initialized() bool {
	return e.initialized
}

// Reset clears the EMA state.
func (e *EMA) Reset() {
	e.lastValue = 0
	e.initialized = false
}
