// Package stress estimates tail outcomes for a portfolio: discrete shock
// scenarios, Monte Carlo return-path simulation, and worst-case analysis
// over observed history. Nothing here runs on the order hot path.
package stress

import (
	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
)

// Scenario is a discrete market shock applied to every position.
type Scenario struct {
	Name                 string
	MarketShockPercent   float64 // e.g. -20 for a 20% broad drop
	VolatilityMultiplier float64
	CorrelationShift     float64 // crisis correlation creep, [0, 1]
}

// PositionImpact is the estimated per-position loss under a scenario.
type PositionImpact struct {
	Symbol string
	Value  float64
	Impact float64 // signed currency impact
}

// StressResult is the portfolio-wide outcome of one scenario.
type StressResult struct {
	Scenario        Scenario
	PositionImpacts []PositionImpact
	TotalImpact     float64
	ImpactPercent   float64
}

// DefaultScenarios is the built-in catalog of historical-style shocks.
// Callers may pass custom scenarios of the same shape to RunStressTest.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "Market Crash", MarketShockPercent: -20, VolatilityMultiplier: 2.0, CorrelationShift: 0.3},
		{Name: "Black Swan", MarketShockPercent: -35, VolatilityMultiplier: 3.0, CorrelationShift: 0.5},
		{Name: "Flash Crash", MarketShockPercent: -10, VolatilityMultiplier: 2.5, CorrelationShift: 0.2},
		{Name: "Correction", MarketShockPercent: -10, VolatilityMultiplier: 1.5, CorrelationShift: 0.1},
		{Name: "Volatility Spike", MarketShockPercent: -3, VolatilityMultiplier: 2.5, CorrelationShift: 0.2},
	}
}

// Engine runs stress computations over the risk calculator's observed
// state (per-symbol history and portfolio returns).
type Engine struct {
	calc *risk.Calculator
}

// NewEngine creates a stress engine bound to a risk calculator.
func NewEngine(calc *risk.Calculator) *Engine {
	if calc == nil {
		calc = risk.NewCalculator(risk.DefaultRiskLimits(), nil)
	}
	return &Engine{calc: calc}
}

// RunStressTest applies the scenario to every position. Per-position
// impact is value x (shock/100 + symbolVolatility x volMultiplier).
// Symbols without history contribute only the market shock term.
func (e *Engine) RunStressTest(portfolio *risk.Portfolio, scenario Scenario) *StressResult {
	result := &StressResult{Scenario: scenario}
	if portfolio == nil || portfolio.TotalValue <= 0 {
		return result
	}

	for _, pos := range portfolio.Positions {
		value := pos.MarketValue()
		vol := e.calc.History().Volatility(pos.Symbol)
		impact := value * (scenario.MarketShockPercent/100 + vol*scenario.VolatilityMultiplier)
		result.PositionImpacts = append(result.PositionImpacts, PositionImpact{
			Symbol: pos.Symbol,
			Value:  value,
			Impact: impact,
		})
		result.TotalImpact += impact
	}
	result.ImpactPercent = result.TotalImpact / portfolio.TotalValue * 100
	return result
}

// RunCatalog runs every default scenario against the portfolio.
func (e *Engine) RunCatalog(portfolio *risk.Portfolio) []*StressResult {
	scenarios := DefaultScenarios()
	results := make([]*StressResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		results = append(results, e.RunStressTest(portfolio, scenario))
	}
	return results
}
