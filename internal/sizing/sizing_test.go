package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
)

func newTestEngine() *Engine {
	controller := risk.NewController(nil, nil, risk.DefaultControllerConfig())
	return NewEngine(controller, DefaultConfig())
}

func TestKelly_HalfKellyScenario(t *testing.T) {
	engine := newTestEngine()

	// Raw Kelly (0.6*200 - 0.4*100)/200 = 0.4, halved to 0.2.
	result := engine.Kelly(10000, 0.6, 200, 100)
	assert.InDelta(t, 0.20, result.KellyPercentage, 1e-9)
	assert.InDelta(t, 2000, result.Value, 1e-9)
	assert.Equal(t, RatingHigh, result.RiskLevel)
	assert.Empty(t, result.Warnings)
}

func TestKelly_NegativeEdgeYieldsZero(t *testing.T) {
	engine := newTestEngine()

	result := engine.Kelly(10000, 0.3, 100, 100)
	assert.Zero(t, result.KellyPercentage)
	assert.Zero(t, result.Value)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "negative expected value — do not trade", result.Warnings[0])
}

func TestKelly_HardCap(t *testing.T) {
	engine := newTestEngine()
	require.NoError(t, engine.SetKellyFraction(1.0))

	// Raw Kelly (0.9*300 - 0.1*100)/300 = 0.8667, full Kelly, capped at 20%.
	result := engine.Kelly(10000, 0.9, 300, 100)
	assert.InDelta(t, 0.20, result.KellyPercentage, 1e-9)
	assert.NotEmpty(t, result.Warnings)
}

func TestKelly_InvalidInputs(t *testing.T) {
	engine := newTestEngine()

	for name, result := range map[string]*Result{
		"win rate above 1": engine.Kelly(10000, 1.5, 200, 100),
		"zero avg win":     engine.Kelly(10000, 0.6, 0, 100),
		"zero avg loss":    engine.Kelly(10000, 0.6, 200, 0),
		"negative capital": engine.Kelly(-1, 0.6, 200, 100),
	} {
		assert.Zero(t, result.Confidence, name)
		assert.Zero(t, result.Value, name)
		assert.NotEmpty(t, result.Warnings, name)
	}
}

func TestSetKellyFraction_Bounds(t *testing.T) {
	engine := newTestEngine()
	assert.Error(t, engine.SetKellyFraction(0))
	assert.Error(t, engine.SetKellyFraction(-0.5))
	assert.Error(t, engine.SetKellyFraction(1.5))
	assert.NoError(t, engine.SetKellyFraction(1.0))
	assert.NoError(t, engine.SetKellyFraction(0.25))
}

func TestFixedFractional_WithStop(t *testing.T) {
	engine := newTestEngine()

	// 2% of 10000 = 200 at risk over a 5-point stop distance.
	result := engine.FixedFractional(10000, 100, 95)
	assert.InDelta(t, 200, result.RiskAmount, 1e-9)
	assert.InDelta(t, 40, result.Size, 1e-9)
	assert.InDelta(t, 4000, result.Value, 1e-9)
	assert.Empty(t, result.Warnings)
}

func TestFixedFractional_NoStopFallsBackToNotional(t *testing.T) {
	engine := newTestEngine()

	result := engine.FixedFractional(10000, 100, 0)
	assert.InDelta(t, 1000, result.Value, 1e-9)
	assert.InDelta(t, 10, result.Size, 1e-9)
	assert.NotEmpty(t, result.Warnings)
}

func TestOptimalF_CapAndNegativeEdge(t *testing.T) {
	engine := newTestEngine()

	// b=2, f = (0.6*3 - 1)/2 = 0.4, capped to 0.2.
	result := engine.OptimalF(10000, 0.6, 200, 100)
	assert.InDelta(t, 0.20, result.KellyPercentage, 1e-9)

	// b=1, f = (0.3*2 - 1)/1 < 0.
	negative := engine.OptimalF(10000, 0.3, 100, 100)
	assert.Zero(t, negative.Value)
	require.NotEmpty(t, negative.Warnings)
	assert.Equal(t, "negative expected value — do not trade", negative.Warnings[0])
}

func TestFixedRatio_GrowsWithProfit(t *testing.T) {
	engine := newTestEngine()

	flat := engine.FixedRatio(10000, 0)
	grown := engine.FixedRatio(10000, 20000)
	assert.InDelta(t, 200, flat.Value, 1e-9) // one base unit
	assert.Greater(t, grown.Value, flat.Value)

	drawn := engine.FixedRatio(10000, -5000)
	assert.InDelta(t, flat.Value, drawn.Value, 1e-9)
}

func TestVolatilityBased_SizesAgainstATR(t *testing.T) {
	engine := newTestEngine()

	// 200 at risk over a 2-ATR stop of 4 points -> 50 units.
	result := engine.VolatilityBased(10000, 100, 2)
	assert.InDelta(t, 50, result.Size, 1e-9)
	assert.InDelta(t, 5000, result.Value, 1e-9)

	fallback := engine.VolatilityBased(10000, 100, 0)
	assert.Equal(t, MethodVolatility, fallback.Method)
	assert.NotEmpty(t, fallback.Warnings)
	assert.Greater(t, fallback.Value, 0.0)
}

func TestRiskParity_InverseVolatilityWeights(t *testing.T) {
	engine := newTestEngine()
	history := engine.controller.Calculator().History()
	// Quiet series for BTC, noisy for ETH.
	prices := []float64{100, 101, 100, 101, 100, 101, 100, 101}
	for _, p := range prices {
		history.AddPrice("BTCUSDT", p)
	}
	noisy := []float64{100, 110, 95, 112, 90, 115, 88, 118}
	for _, p := range noisy {
		history.AddPrice("ETHUSDT", p)
	}

	quiet := engine.RiskParity(10000, "BTCUSDT")
	loud := engine.RiskParity(10000, "ETHUSDT")
	assert.Greater(t, quiet.Value, loud.Value, "lower volatility earns the larger allocation")
	assert.InDelta(t, 10000, quiet.Value+loud.Value, 1e-6, "weights sum to the full capital")

	unknown := engine.RiskParity(10000, "SOLUSDT")
	assert.Zero(t, unknown.Value)
	assert.Zero(t, unknown.Confidence)
}

func TestVolatilityAdjustment_Clamps(t *testing.T) {
	assert.InDelta(t, 1.0, VolatilityAdjustment(2, 2), 1e-9)
	assert.InDelta(t, 2.0, VolatilityAdjustment(10, 2), 1e-9)
	assert.InDelta(t, 0.5, VolatilityAdjustment(1, 10), 1e-9)
	assert.InDelta(t, 1.0, VolatilityAdjustment(2, 0), 1e-9)
	assert.InDelta(t, 1.0, VolatilityAdjustment(0, 2), 1e-9)
}

func TestApplyConcentrationLimits_PositionCap(t *testing.T) {
	engine := newTestEngine()
	portfolio := &risk.Portfolio{TotalValue: 100000, Cash: 100000}

	result := &Result{Size: 300, Value: 30000, RiskAmount: 600}
	engine.ApplyConcentrationLimits(result, "AAPL", portfolio)

	// Default single-position cap is 10% of total value.
	assert.InDelta(t, 10000, result.Value, 1e-9)
	assert.InDelta(t, 100, result.Size, 1e-9)
	assert.InDelta(t, 200, result.RiskAmount, 1e-9)
	assert.Contains(t, result.AppliedLimits, "position_limit")
}

func TestApplyConcentrationLimits_SectorBudget(t *testing.T) {
	engine := newTestEngine()
	engine.SetSector("AAPL", "tech")
	engine.SetSector("MSFT", "tech")

	// Existing tech exposure eats 28% of the 30% sector budget.
	portfolio := &risk.Portfolio{
		TotalValue: 100000,
		Cash:       72000,
		Positions: []risk.Position{
			{Symbol: "MSFT", Quantity: 100, EntryPrice: 250, CurrentPrice: 280, Side: risk.SideLong},
		},
	}

	result := &Result{Size: 50, Value: 5000}
	engine.ApplyConcentrationLimits(result, "AAPL", portfolio)
	assert.InDelta(t, 2000, result.Value, 1e-9)
	assert.Contains(t, result.AppliedLimits, "sector_limit")
}

func TestApplyConcentrationLimits_ExhaustedBudgetIsZeroNotNegative(t *testing.T) {
	engine := newTestEngine()
	engine.SetSector("AAPL", "tech")
	engine.SetSector("MSFT", "tech")

	portfolio := &risk.Portfolio{
		TotalValue: 100000,
		Cash:       60000,
		Positions: []risk.Position{
			{Symbol: "MSFT", Quantity: 100, EntryPrice: 350, CurrentPrice: 400, Side: risk.SideLong},
		},
	}

	result := &Result{Size: 50, Value: 5000}
	engine.ApplyConcentrationLimits(result, "AAPL", portfolio)
	assert.Zero(t, result.Value)
	assert.GreaterOrEqual(t, result.Size, 0.0)
}

func TestGetRecommendation_HaltedControllerBlocks(t *testing.T) {
	engine := newTestEngine()

	// A 6% daily loss against the default 5% limit halts trading.
	engine.controller.UpdateRiskMetrics(&risk.Portfolio{TotalValue: 100000, Cash: 100000})
	engine.controller.UpdateRiskMetrics(&risk.Portfolio{TotalValue: 94000, Cash: 94000})
	require.True(t, engine.controller.IsHalted())

	result := engine.GetRecommendation(Request{
		Symbol:  "BTCUSDT",
		Method:  MethodFixedFractional,
		Capital: 94000,
		Entry:   100,
		Stop:    95,
	}, &risk.Portfolio{TotalValue: 94000, Cash: 94000})

	assert.Zero(t, result.Size)
	assert.Zero(t, result.Confidence)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "trading halted")
}

func TestGetRecommendation_CooldownBlocks(t *testing.T) {
	engine := newTestEngine()
	engine.controller.Cooldown().EnforceCoolingOff(risk.CooldownReason{
		Type:     "daily_loss",
		Severity: "medium",
	})

	result := engine.GetRecommendation(Request{
		Symbol:  "BTCUSDT",
		Method:  MethodFixedFractional,
		Capital: 10000,
		Entry:   100,
		Stop:    95,
	}, &risk.Portfolio{TotalValue: 10000, Cash: 10000})

	assert.Zero(t, result.Size)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "cooling-off active")
}

func TestGetRecommendation_FullPipeline(t *testing.T) {
	engine := newTestEngine()
	portfolio := &risk.Portfolio{TotalValue: 100000, Cash: 100000}

	// Base fixed-fractional size 2000/5 = 400 units (40000 notional),
	// halved by the volatility adjustment to 20000, then clipped to the
	// 10% position cap.
	result := engine.GetRecommendation(Request{
		Symbol:     "BTCUSDT",
		Method:     MethodFixedFractional,
		Capital:    100000,
		Entry:      100,
		Stop:       95,
		Confidence: 0.8,
		TargetATR:  1,
		ActualATR:  10,
	}, portfolio)

	assert.InDelta(t, 0.5, result.AdjustmentFactor, 1e-9)
	assert.InDelta(t, 10000, result.Value, 1e-9)
	assert.InDelta(t, 100, result.Size, 1e-9)
	assert.Contains(t, result.AppliedLimits, "position_limit")
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}
