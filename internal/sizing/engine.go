package sizing

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/quant-risk-engine/internal/indicators"
	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
	"github.com/ducminhle1904/quant-risk-engine/pkg/types"
)

// Engine produces position-size recommendations. It is single-writer
// like the rest of the engine packages: the host serializes calls.
type Engine struct {
	controller *risk.Controller
	config     Config

	// sector lookup for concentration budgeting, symbol -> sector.
	sectors map[string]string

	// per-symbol ATR trackers fed by UpdateCandles.
	atrs map[string]*indicators.ATR
}

// NewEngine creates a sizing engine bound to the risk controller whose
// halt/cooldown state gates every recommendation.
func NewEngine(controller *risk.Controller, config Config) *Engine {
	if controller == nil {
		controller = risk.NewController(nil, nil, risk.DefaultControllerConfig())
	}
	return &Engine{
		controller: controller,
		config:     config.withDefaults(),
		sectors:    make(map[string]string),
		atrs:       make(map[string]*indicators.ATR),
	}
}

// SetKellyFraction replaces the fractional Kelly multiplier. Values
// outside (0, 1] are rejected.
func (e *Engine) SetKellyFraction(fraction float64) error {
	if fraction <= 0 || fraction > 1 {
		return fmt.Errorf("kelly fraction %.2f must be in (0, 1]", fraction)
	}
	e.config.KellyFraction = fraction
	return nil
}

// SetSector records the sector a symbol belongs to, used for the
// sector-budget side of concentration limiting.
func (e *Engine) SetSector(symbol, sector string) {
	e.sectors[symbol] = sector
}

// UpdateCandles folds the candle series into the symbol's ATR tracker.
// Short series are ignored until enough candles accumulate.
func (e *Engine) UpdateCandles(symbol string, candles []types.OHLCV) {
	atr, ok := e.atrs[symbol]
	if !ok {
		atr = indicators.NewATR(e.config.ATRPeriod)
		e.atrs[symbol] = atr
	}
	// A short series errors and leaves the tracker unseeded, which
	// TrackedATR reports as 0.
	_, _ = atr.Calculate(candles)
}

// TrackedATR returns the last ATR computed for the symbol, 0 when the
// symbol has no seeded tracker.
func (e *Engine) TrackedATR(symbol string) float64 {
	atr, ok := e.atrs[symbol]
	if !ok {
		return 0
	}
	return atr.LastValue()
}

// VolatilityAdjustment converts a target/actual ATR pair into a size
// multiplier, clamped to [0.5, 2.0]. A missing actual ATR means no
// adjustment.
func VolatilityAdjustment(targetATR, actualATR float64) float64 {
	if targetATR <= 0 || actualATR <= 0 {
		return 1.0
	}
	factor := targetATR / actualATR
	if factor < 0.5 {
		return 0.5
	}
	if factor > 2.0 {
		return 2.0
	}
	return factor
}

// ApplyConcentrationLimits clips the result's value to the
// single-position cap and the remaining sector budget, recording which
// limits were binding. The clipped value is never negative. This is the
// single authority for whether a proposed size fits the book.
func (e *Engine) ApplyConcentrationLimits(result *Result, symbol string, portfolio *risk.Portfolio) *Result {
	if result == nil || portfolio == nil || portfolio.TotalValue <= 0 || result.Value <= 0 {
		return result
	}
	limits := e.controller.Calculator().Limits()

	maxPosition := portfolio.TotalValue * limits.MaxPositionPercent / 100
	if result.Value > maxPosition {
		e.clipValue(result, maxPosition)
		result.AppliedLimits = append(result.AppliedLimits, "position_limit")
	}

	sector, ok := e.sectors[symbol]
	if !ok {
		return result
	}
	sectorBudget := portfolio.TotalValue*limits.MaxSectorExposurePercent/100 - e.sectorExposure(portfolio, sector)
	if sectorBudget < 0 {
		sectorBudget = 0
	}
	if result.Value > sectorBudget {
		e.clipValue(result, sectorBudget)
		result.AppliedLimits = append(result.AppliedLimits, "sector_limit")
	}
	return result
}

// clipValue scales Size and RiskAmount proportionally to the new value.
func (e *Engine) clipValue(result *Result, newValue float64) {
	if result.Value <= 0 {
		return
	}
	scale := newValue / result.Value
	result.Value = newValue
	result.Size *= scale
	result.RiskAmount *= scale
}

func (e *Engine) sectorExposure(portfolio *risk.Portfolio, sector string) float64 {
	total := 0.0
	for _, pos := range portfolio.Positions {
		if e.sectors[pos.Symbol] == sector {
			total += pos.MarketValue()
		}
	}
	return total
}

// Request carries everything a recommendation needs. Capital and Entry
// are required; the rest depends on the chosen method.
type Request struct {
	Symbol     string
	Method     Method
	Capital    float64
	Entry      float64
	Stop       float64 // 0 means no stop attached
	Confidence float64 // signal confidence in [0, 1], informational

	// Kelly / optimal-f inputs.
	WinRate float64
	AvgWin  float64
	AvgLoss float64

	// Volatility adjustment inputs. ActualATR falls back to the
	// engine's tracked ATR for the symbol when 0.
	TargetATR float64
	ActualATR float64
}

// GetRecommendation composes the full pipeline: controller gate, sizing
// method, volatility adjustment, concentration clipping.
func (e *Engine) GetRecommendation(req Request, portfolio *risk.Portfolio) *Result {
	result := &Result{Method: req.Method, AdjustmentFactor: 1.0, Confidence: req.Confidence}

	if e.controller.IsHalted() {
		return result.invalid("trading halted: %s", e.controller.HaltReason())
	}
	if ok, remaining := e.controller.Cooldown().CanTrade(); !ok {
		return result.invalid("cooling-off active for another %s", remaining.Round(time.Second))
	}

	switch req.Method {
	case MethodKelly:
		result = e.Kelly(req.Capital, req.WinRate, req.AvgWin, req.AvgLoss)
	case MethodOptimalF:
		result = e.OptimalF(req.Capital, req.WinRate, req.AvgWin, req.AvgLoss)
	case MethodFixedRatio:
		result = e.FixedRatio(req.Capital, portfolioProfit(portfolio))
	case MethodVolatility:
		result = e.VolatilityBased(req.Capital, req.Entry, e.actualATR(req))
	case MethodRiskParity:
		result = e.RiskParity(req.Capital, req.Symbol)
	default:
		result = e.FixedFractional(req.Capital, req.Entry, req.Stop)
	}
	result.Confidence = req.Confidence
	if result.Size <= 0 && result.Value <= 0 {
		result.Confidence = 0
		return result
	}

	factor := VolatilityAdjustment(req.TargetATR, e.actualATR(req))
	if factor != 1.0 {
		result.Size *= factor
		result.Value *= factor
		result.AdjustmentFactor = factor
	}

	// The notional methods produce a value but no unit size when no
	// entry price is known; derive units when we can.
	if result.Size == 0 && result.Value > 0 && req.Entry > 0 {
		result.Size = result.Value / req.Entry
	}

	return e.ApplyConcentrationLimits(result, req.Symbol, portfolio)
}

func (e *Engine) actualATR(req Request) float64 {
	if req.ActualATR > 0 {
		return req.ActualATR
	}
	return e.TrackedATR(req.Symbol)
}

func portfolioProfit(portfolio *risk.Portfolio) float64 {
	if portfolio == nil {
		return 0
	}
	return portfolio.CumulativeProfit
}
