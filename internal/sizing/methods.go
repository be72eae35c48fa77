package sizing

import "math"

// FixedFractional risks a fixed percent of capital per trade. With a
// stop the size is riskAmount / stop distance; without one it falls
// back to a plain notional percent of capital.
func (e *Engine) FixedFractional(capital, entry, stop float64) *Result {
	result := &Result{Method: MethodFixedFractional, AdjustmentFactor: 1.0, Confidence: 1.0}
	if capital <= 0 {
		return result.invalid("capital %.2f must be positive", capital)
	}
	if entry <= 0 {
		return result.invalid("entry price %.2f must be positive", entry)
	}

	result.RiskAmount = capital * e.config.RiskPercent / 100

	stopDistance := math.Abs(entry - stop)
	if stop > 0 && stopDistance > 0 {
		result.Size = result.RiskAmount / stopDistance
		result.Value = result.Size * entry
	} else {
		result.Value = capital * e.config.NotionalPercent / 100
		result.Size = result.Value / entry
		result.warn("no stop attached, sizing %.1f%% of capital by notional", e.config.NotionalPercent)
	}
	result.RiskLevel = ratingFor(result.Value / capital)
	return result
}

// negativeKellyWarning is the exact message downstream alerting matches on.
const negativeKellyWarning = "negative expected value — do not trade"

// Kelly sizes by the Kelly criterion over historical win/loss stats,
// scaled down by the configured fraction and hard-capped. A negative
// raw Kelly yields size 0 with a warning rather than a short.
func (e *Engine) Kelly(capital, winRate, avgWin, avgLoss float64) *Result {
	result := &Result{Method: MethodKelly, AdjustmentFactor: 1.0, Confidence: 1.0}
	if reason, ok := validateEdgeStats(capital, winRate, avgWin, avgLoss); !ok {
		return result.invalid("%s", reason)
	}

	raw := (winRate*avgWin - (1-winRate)*avgLoss) / avgWin
	if raw <= 0 {
		result.KellyPercentage = 0
		result.RiskLevel = RatingLow
		result.warn(negativeKellyWarning)
		return result
	}

	fraction := raw * e.config.KellyFraction
	if fraction > e.config.MaxKellyPercent {
		fraction = e.config.MaxKellyPercent
		result.warn("kelly fraction capped at %.0f%%", e.config.MaxKellyPercent*100)
	}

	result.KellyPercentage = fraction
	result.Value = capital * fraction
	result.RiskAmount = result.Value
	result.RiskLevel = ratingFor(fraction)
	return result
}

// OptimalF sizes by Ralph Vince's optimal-f approximation over the same
// win/loss stats, using the payoff ratio b = avgWin/avgLoss:
// f = (winRate*(b+1) - 1) / b. Funnels into the same cap as Kelly.
func (e *Engine) OptimalF(capital, winRate, avgWin, avgLoss float64) *Result {
	result := &Result{Method: MethodOptimalF, AdjustmentFactor: 1.0, Confidence: 1.0}
	if reason, ok := validateEdgeStats(capital, winRate, avgWin, avgLoss); !ok {
		return result.invalid("%s", reason)
	}

	b := avgWin / avgLoss
	f := (winRate*(b+1) - 1) / b
	if f <= 0 {
		result.RiskLevel = RatingLow
		result.warn(negativeKellyWarning)
		return result
	}
	if f > e.config.MaxKellyPercent {
		f = e.config.MaxKellyPercent
		result.warn("optimal-f capped at %.0f%%", e.config.MaxKellyPercent*100)
	}

	result.KellyPercentage = f
	result.Value = capital * f
	result.RiskAmount = result.Value
	result.RiskLevel = ratingFor(f)
	return result
}

// FixedRatio implements Ryan Jones' fixed-ratio scaling: the unit count
// grows with the square root of accumulated profit over the delta.
// Negative cumulative profit scales back toward a single unit.
func (e *Engine) FixedRatio(capital, cumulativeProfit float64) *Result {
	result := &Result{Method: MethodFixedRatio, AdjustmentFactor: 1.0, Confidence: 1.0}
	if capital <= 0 {
		return result.invalid("capital %.2f must be positive", capital)
	}

	units := 1.0
	if cumulativeProfit > 0 {
		units = (1 + math.Sqrt(1+8*cumulativeProfit/e.config.FixedRatioDelta)) / 2
	}

	baseValue := capital * e.config.RiskPercent / 100
	result.Value = baseValue * units
	result.RiskAmount = result.Value
	result.RiskLevel = ratingFor(result.Value / capital)
	return result
}

// VolatilityBased sizes so a stop placed ATRMultiple ATRs away risks
// exactly the configured percent of capital. An unknown ATR degrades to
// the fixed-fractional notional fallback.
func (e *Engine) VolatilityBased(capital, entry, atr float64) *Result {
	result := &Result{Method: MethodVolatility, AdjustmentFactor: 1.0, Confidence: 1.0}
	if capital <= 0 {
		return result.invalid("capital %.2f must be positive", capital)
	}
	if entry <= 0 {
		return result.invalid("entry price %.2f must be positive", entry)
	}
	if atr <= 0 {
		fallback := e.FixedFractional(capital, entry, 0)
		fallback.Method = MethodVolatility
		fallback.warn("no ATR available, fell back to notional sizing")
		return fallback
	}

	result.RiskAmount = capital * e.config.RiskPercent / 100
	result.Size = result.RiskAmount / (atr * e.config.ATRMultiple)
	result.Value = result.Size * entry
	result.RiskLevel = ratingFor(result.Value / capital)
	return result
}

// RiskParity allocates capital to the symbol in inverse proportion to
// its observed volatility across all tracked symbols, so each position
// contributes roughly equal risk. Symbols without history get an equal
// split warning instead of a guess.
func (e *Engine) RiskParity(capital float64, symbol string) *Result {
	result := &Result{Method: MethodRiskParity, AdjustmentFactor: 1.0, Confidence: 1.0}
	if capital <= 0 {
		return result.invalid("capital %.2f must be positive", capital)
	}

	history := e.controller.Calculator().History()
	vol := history.Volatility(symbol)
	if vol <= 0 {
		return result.invalid("no volatility history for %s", symbol)
	}

	inverseSum := 0.0
	for _, s := range history.Symbols() {
		if v := history.Volatility(s); v > 0 {
			inverseSum += 1 / v
		}
	}
	if inverseSum <= 0 {
		return result.invalid("no volatility history tracked")
	}

	weight := (1 / vol) / inverseSum
	result.Value = capital * weight
	result.RiskAmount = result.Value * vol
	result.RiskLevel = ratingFor(weight)
	return result
}

// validateEdgeStats checks the shared Kelly/optimal-f inputs. Failures
// return a description for the warning list, never an error.
func validateEdgeStats(capital, winRate, avgWin, avgLoss float64) (string, bool) {
	switch {
	case capital <= 0:
		return "capital must be positive", false
	case winRate < 0 || winRate > 1:
		return "win rate must be in [0, 1]", false
	case avgWin <= 0:
		return "average win must be positive", false
	case avgLoss <= 0:
		return "average loss must be positive", false
	}
	return "", true
}
