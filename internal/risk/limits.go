package risk

import "fmt"

// RiskLimits is an immutable snapshot of the configured risk thresholds.
// Build one with NewRiskLimits; hot-updates go through the calculator or
// controller's UpdateLimits, never by mutating a shared value.
type RiskLimits struct {
	MaxPositionPercent       float64 // single position cap, % of total value
	MaxDailyLossPercent      float64
	MaxDrawdownPercent       float64
	MaxLeverage              float64
	MinCashReservePercent    float64
	MaxSectorExposurePercent float64
	MaxCorrelation           float64
}

// LimitOverrides carries optional per-field overrides for DefaultRiskLimits.
// Nil fields keep the default.
type LimitOverrides struct {
	MaxPositionPercent       *float64
	MaxDailyLossPercent      *float64
	MaxDrawdownPercent       *float64
	MaxLeverage              *float64
	MinCashReservePercent    *float64
	MaxSectorExposurePercent *float64
	MaxCorrelation           *float64
}

// DefaultRiskLimits returns the conservative baseline configuration.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxPositionPercent:       10.0,
		MaxDailyLossPercent:      5.0,
		MaxDrawdownPercent:       20.0,
		MaxLeverage:              3.0,
		MinCashReservePercent:    10.0,
		MaxSectorExposurePercent: 30.0,
		MaxCorrelation:           0.7,
	}
}

// NewRiskLimits merges the given overrides onto the defaults and returns
// the resulting value. Out-of-range overrides are rejected.
func NewRiskLimits(overrides *LimitOverrides) (RiskLimits, error) {
	limits := DefaultRiskLimits()
	if overrides == nil {
		return limits, nil
	}

	if overrides.MaxPositionPercent != nil {
		limits.MaxPositionPercent = *overrides.MaxPositionPercent
	}
	if overrides.MaxDailyLossPercent != nil {
		limits.MaxDailyLossPercent = *overrides.MaxDailyLossPercent
	}
	if overrides.MaxDrawdownPercent != nil {
		limits.MaxDrawdownPercent = *overrides.MaxDrawdownPercent
	}
	if overrides.MaxLeverage != nil {
		limits.MaxLeverage = *overrides.MaxLeverage
	}
	if overrides.MinCashReservePercent != nil {
		limits.MinCashReservePercent = *overrides.MinCashReservePercent
	}
	if overrides.MaxSectorExposurePercent != nil {
		limits.MaxSectorExposurePercent = *overrides.MaxSectorExposurePercent
	}
	if overrides.MaxCorrelation != nil {
		limits.MaxCorrelation = *overrides.MaxCorrelation
	}

	if err := limits.Validate(); err != nil {
		return RiskLimits{}, err
	}
	return limits, nil
}

// Validate checks the limits for internally impossible values.
func (l RiskLimits) Validate() error {
	if l.MaxPositionPercent <= 0 || l.MaxPositionPercent > 100 {
		return fmt.Errorf("max position percent %.2f must be in (0, 100]", l.MaxPositionPercent)
	}
	if l.MaxDailyLossPercent <= 0 || l.MaxDailyLossPercent > 100 {
		return fmt.Errorf("max daily loss percent %.2f must be in (0, 100]", l.MaxDailyLossPercent)
	}
	if l.MaxDrawdownPercent <= 0 || l.MaxDrawdownPercent > 100 {
		return fmt.Errorf("max drawdown percent %.2f must be in (0, 100]", l.MaxDrawdownPercent)
	}
	if l.MaxLeverage <= 0 {
		return fmt.Errorf("max leverage %.2f must be positive", l.MaxLeverage)
	}
	if l.MinCashReservePercent < 0 || l.MinCashReservePercent >= 100 {
		return fmt.Errorf("min cash reserve percent %.2f must be in [0, 100)", l.MinCashReservePercent)
	}
	if l.MaxSectorExposurePercent <= 0 || l.MaxSectorExposurePercent > 100 {
		return fmt.Errorf("max sector exposure percent %.2f must be in (0, 100]", l.MaxSectorExposurePercent)
	}
	if l.MaxCorrelation <= 0 || l.MaxCorrelation > 1 {
		return fmt.Errorf("max correlation %.2f must be in (0, 1]", l.MaxCorrelation)
	}
	return nil
}
