// Package sizing turns a trade signal into a recommended position size.
// Six sizing methods share one result shape and one cap-and-clip
// pipeline: method output, then volatility adjustment, then
// portfolio-level concentration limiting. The engine consults the risk
// controller's halt and cooldown state before recommending anything.
package sizing

import "fmt"

// Method selects the sizing formula.
type Method string

const (
	MethodFixedFractional Method = "fixed_fractional"
	MethodKelly           Method = "kelly"
	MethodOptimalF        Method = "optimal_f"
	MethodFixedRatio      Method = "fixed_ratio"
	MethodVolatility      Method = "volatility"
	MethodRiskParity      Method = "risk_parity"
)

// RiskRating grades how aggressive a recommended allocation is.
type RiskRating string

const (
	RatingLow      RiskRating = "LOW"
	RatingModerate RiskRating = "MODERATE"
	RatingHigh     RiskRating = "HIGH"
)

// Result is the common output of every sizing method.
type Result struct {
	Method     Method
	Size       float64 // units of the instrument
	Value      float64 // notional at the entry price
	RiskAmount float64 // capital at risk if the stop is hit

	// Method-specific extras.
	KellyPercentage  float64 // final capital fraction after fraction + cap
	AdjustmentFactor float64 // volatility adjustment applied, 1.0 when none

	RiskLevel     RiskRating
	Confidence    float64 // 0 when validation failed
	Warnings      []string
	AppliedLimits []string // concentration limits that were binding
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// invalid short-circuits the result to an unusable recommendation with
// the given explanation. Validation problems never panic or error.
func (r *Result) invalid(format string, args ...interface{}) *Result {
	r.Size = 0
	r.Value = 0
	r.Confidence = 0
	r.warn(format, args...)
	return r
}

// Config holds the tunable sizing parameters. Zero values fall back to
// the defaults at construction.
type Config struct {
	RiskPercent     float64 // % of capital risked per trade
	NotionalPercent float64 // fallback notional % when no stop is given
	KellyFraction   float64 // fractional Kelly multiplier, (0, 1]
	MaxKellyPercent float64 // hard cap on the final Kelly fraction
	FixedRatioDelta float64 // profit per additional unit (fixed-ratio)
	ATRPeriod       int     // smoothing period for tracked ATR
	ATRMultiple     float64 // stop distance in ATRs for volatility sizing
}

// DefaultConfig returns the conservative baseline sizing parameters.
func DefaultConfig() Config {
	return Config{
		RiskPercent:     2.0,
		NotionalPercent: 10.0,
		KellyFraction:   0.5,
		MaxKellyPercent: 0.20,
		FixedRatioDelta: 5000,
		ATRPeriod:       14,
		ATRMultiple:     2.0,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RiskPercent <= 0 {
		c.RiskPercent = defaults.RiskPercent
	}
	if c.NotionalPercent <= 0 {
		c.NotionalPercent = defaults.NotionalPercent
	}
	if c.KellyFraction <= 0 || c.KellyFraction > 1 {
		c.KellyFraction = defaults.KellyFraction
	}
	if c.MaxKellyPercent <= 0 {
		c.MaxKellyPercent = defaults.MaxKellyPercent
	}
	if c.FixedRatioDelta <= 0 {
		c.FixedRatioDelta = defaults.FixedRatioDelta
	}
	if c.ATRPeriod <= 0 {
		c.ATRPeriod = defaults.ATRPeriod
	}
	if c.ATRMultiple <= 0 {
		c.ATRMultiple = defaults.ATRMultiple
	}
	return c
}

// ratingFor grades a capital fraction.
func ratingFor(fraction float64) RiskRating {
	switch {
	case fraction >= 0.15:
		return RatingHigh
	case fraction >= 0.08:
		return RatingModerate
	default:
		return RatingLow
	}
}
