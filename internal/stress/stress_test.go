package stress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
)

func newTestEngine() (*Engine, *risk.Calculator) {
	calc := risk.NewCalculator(risk.DefaultRiskLimits(), nil)
	return NewEngine(calc), calc
}

// feedValues pushes a sequence of portfolio values through the
// calculator so stress runs see a populated return series.
func feedValues(calc *risk.Calculator, values ...float64) {
	for _, v := range values {
		calc.Calculate(&risk.Portfolio{TotalValue: v, Cash: v})
	}
}

func TestRunStressTest_MarketCrashImpact(t *testing.T) {
	engine, calc := newTestEngine()
	// Flat history keeps per-symbol volatility at zero so the market
	// shock term is isolated.
	for i := 0; i < 40; i++ {
		calc.History().AddPrice("BTCUSDT", 100)
	}

	portfolio := &risk.Portfolio{
		Cash:       5000,
		TotalValue: 15000,
		Positions: []risk.Position{
			{Symbol: "BTCUSDT", Quantity: 100, EntryPrice: 95, CurrentPrice: 100, Side: risk.SideLong},
		},
	}

	result := engine.RunStressTest(portfolio, Scenario{Name: "Market Crash", MarketShockPercent: -20, VolatilityMultiplier: 2.0})
	require.Len(t, result.PositionImpacts, 1)
	assert.InDelta(t, -2000, result.PositionImpacts[0].Impact, 1e-9)
	assert.InDelta(t, -2000, result.TotalImpact, 1e-9)
	assert.InDelta(t, -2000.0/15000*100, result.ImpactPercent, 1e-9)
}

func TestRunStressTest_EmptyPortfolio(t *testing.T) {
	engine, _ := newTestEngine()
	result := engine.RunStressTest(&risk.Portfolio{}, DefaultScenarios()[0])
	assert.Empty(t, result.PositionImpacts)
	assert.Zero(t, result.TotalImpact)
	assert.Zero(t, result.ImpactPercent)
}

func TestRunCatalog_CoversAllScenarios(t *testing.T) {
	engine, _ := newTestEngine()
	portfolio := &risk.Portfolio{
		Cash:       1000,
		TotalValue: 2000,
		Positions: []risk.Position{
			{Symbol: "ETHUSDT", Quantity: 1, EntryPrice: 900, CurrentPrice: 1000, Side: risk.SideLong},
		},
	}

	results := engine.RunCatalog(portfolio)
	require.Len(t, results, len(DefaultScenarios()))
	for _, r := range results {
		assert.NotEmpty(t, r.Scenario.Name)
		assert.Less(t, r.TotalImpact, 0.0, "every catalog scenario is a drawdown for a long book")
	}
}

func TestMonteCarloConfig_Validate(t *testing.T) {
	valid := MonteCarloConfig{NumSimulations: 100, TimeHorizonDays: 30, ConfidenceLevel: 0.95}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.NumSimulations = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.TimeHorizonDays = -1
	assert.Error(t, bad.Validate())

	bad = valid
	bad.ConfidenceLevel = 1.0
	assert.Error(t, bad.Validate())
}

func TestRunMonteCarlo_RejectsBadConfig(t *testing.T) {
	engine, _ := newTestEngine()
	_, err := engine.RunMonteCarlo(context.Background(), 10000, MonteCarloConfig{NumSimulations: 0, TimeHorizonDays: 30, ConfidenceLevel: 0.95})
	require.Error(t, err)
}

func TestRunMonteCarlo_SeededRunsAreDeterministic(t *testing.T) {
	engine, calc := newTestEngine()
	feedValues(calc, 10000, 10100, 10050, 10200, 10150, 10300)

	seed := int64(42)
	config := MonteCarloConfig{NumSimulations: 2000, TimeHorizonDays: 20, ConfidenceLevel: 0.95, Seed: &seed}

	first, err := engine.RunMonteCarlo(context.Background(), 10000, config)
	require.NoError(t, err)
	second, err := engine.RunMonteCarlo(context.Background(), 10000, config)
	require.NoError(t, err)

	assert.Equal(t, first.Percentiles, second.Percentiles)
	assert.Equal(t, first.VaR, second.VaR)
	assert.Equal(t, first.CVaR, second.CVaR)
	assert.Equal(t, first.MeanFinalValue, second.MeanFinalValue)
}

func TestRunMonteCarlo_SummaryInvariants(t *testing.T) {
	engine, calc := newTestEngine()
	feedValues(calc, 10000, 10100, 9900, 10050, 10200, 10100, 10250)

	seed := int64(7)
	result, err := engine.RunMonteCarlo(context.Background(), 10000, MonteCarloConfig{
		NumSimulations:  5000,
		TimeHorizonDays: 30,
		ConfidenceLevel: 0.95,
		Seed:            &seed,
	})
	require.NoError(t, err)

	assert.Equal(t, 5000, result.Simulations)
	assert.LessOrEqual(t, result.WorstCase, result.Percentiles[5])
	assert.LessOrEqual(t, result.Percentiles[5], result.Percentiles[50])
	assert.LessOrEqual(t, result.Percentiles[50], result.Percentiles[95])
	assert.LessOrEqual(t, result.Percentiles[95], result.BestCase)
	assert.GreaterOrEqual(t, result.CVaR, result.VaR)
	assert.GreaterOrEqual(t, result.VaR, 0.0)
	assert.GreaterOrEqual(t, result.ProbabilityOfProfit, 0.0)
	assert.LessOrEqual(t, result.ProbabilityOfProfit, 1.0)
}

func TestRunMonteCarlo_HonorsCancellation(t *testing.T) {
	engine, _ := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.RunMonteCarlo(ctx, 10000, MonteCarloConfig{NumSimulations: 100000, TimeHorizonDays: 252, ConfidenceLevel: 0.95})
	require.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeWorstCase_EmptyHistory(t *testing.T) {
	engine, _ := newTestEngine()
	analysis := engine.AnalyzeWorstCase()
	assert.Zero(t, analysis.SampleSize)
	assert.Zero(t, analysis.WorstDayPercent)
	assert.Zero(t, analysis.Worst5DayPercent)
	assert.Zero(t, analysis.Worst20DayPercent)
	assert.Zero(t, analysis.ProbabilityOfRuin)
}

func TestAnalyzeWorstCase_FindsWorstWindows(t *testing.T) {
	engine, calc := newTestEngine()
	// Values: flat, then a 10% single-day drop, then recovery.
	feedValues(calc, 10000, 10000, 10000, 9000, 9100, 9200, 9300, 9400)

	analysis := engine.AnalyzeWorstCase()
	assert.Equal(t, 7, analysis.SampleSize)
	assert.InDelta(t, 10, analysis.WorstDayPercent, 1e-9)
	// The worst 5-day window contains the crash partially offset by the
	// recovery days, so it is a smaller loss than the worst single day.
	assert.Greater(t, analysis.Worst5DayPercent, 0.0)
	assert.Less(t, analysis.Worst5DayPercent, analysis.WorstDayPercent)
	assert.GreaterOrEqual(t, analysis.ProbabilityOfRuin, 0.0)
	assert.LessOrEqual(t, analysis.ProbabilityOfRuin, 1.0)
}

func TestAnalyzeWorstCase_WindowExceedsHistory(t *testing.T) {
	engine, calc := newTestEngine()
	feedValues(calc, 10000, 9500, 9600)

	analysis := engine.AnalyzeWorstCase()
	assert.Equal(t, 2, analysis.SampleSize)
	// 20-day window clamps to the 2 available observations.
	assert.Greater(t, analysis.Worst20DayPercent, 0.0)
}
