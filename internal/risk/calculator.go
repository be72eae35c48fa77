package risk

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ducminhle1904/quant-risk-engine/internal/stats"
)

const (
	// Normal-distribution z-scores for the parametric VaR confidence levels.
	z95 = 1.645
	z99 = 2.326
	// Expected tail loss multiplier for a normal at 95%: phi(z95)/0.05.
	tailFactor95 = 2.063

	tradingDaysPerYear = 252

	// Empirical VaR takes over once this many portfolio returns exist.
	minHistoricalReturns = 30

	maxStoredAlerts = 100
)

// Calculator turns portfolio snapshots into RiskMetrics. It owns a small
// amount of explicit session state: the monotone peak value, the daily
// session start value, and the observed portfolio return series. One
// calculator per portfolio/session; it is not internally synchronized.
type Calculator struct {
	limits  RiskLimits
	history *HistoryStore

	peakValue       float64
	dailyStartValue float64
	lastValue       float64
	maxDrawdown     float64
	returns         []float64

	alerts []Alert // ring buffer, oldest dropped at maxStoredAlerts
}

// NewCalculator creates a calculator over the shared price history store.
func NewCalculator(limits RiskLimits, history *HistoryStore) *Calculator {
	if history == nil {
		history = NewHistoryStore(DefaultHistoryLength)
	}
	return &Calculator{
		limits:  limits,
		history: history,
	}
}

// UpdateLimits swaps in a new limit snapshot for subsequent evaluations.
func (c *Calculator) UpdateLimits(limits RiskLimits) {
	c.limits = limits
}

// Limits returns the limit snapshot currently in force.
func (c *Calculator) Limits() RiskLimits {
	return c.limits
}

// History returns the shared price history store.
func (c *Calculator) History() *HistoryStore {
	return c.history
}

// StartNewSession resets the daily-start value at a session boundary.
// The peak value is deliberately kept: drawdown never shrinks retroactively.
func (c *Calculator) StartNewSession(value float64) {
	c.dailyStartValue = value
}

// PortfolioReturns returns a copy of the observed portfolio return series.
func (c *Calculator) PortfolioReturns() []float64 {
	out := make([]float64, len(c.returns))
	copy(out, c.returns)
	return out
}

// Calculate produces a fresh RiskMetrics snapshot for the portfolio.
// An empty portfolio or non-positive total value yields all-zero metrics
// and risk level "safe"; data quality never produces an error here.
func (c *Calculator) Calculate(portfolio *Portfolio) *RiskMetrics {
	metrics := &RiskMetrics{
		RiskLevel: RiskLevelSafe,
		VaRMethod: VaRMethodParametric,
		Timestamp: time.Now(),
	}
	if portfolio == nil || portfolio.TotalValue <= 0 {
		return metrics
	}

	value := portfolio.TotalValue
	c.trackValue(value)

	metrics.CurrentDrawdown = c.currentDrawdown(value)
	metrics.MaxDrawdown = c.maxDrawdown
	metrics.DailyLossPercent = c.dailyLossPercent(value)

	metrics.Volatility = c.annualizedVolatility(portfolio)
	c.applyValueAtRisk(metrics, value)

	metrics.ConcentrationIndex, metrics.LargestPositionPercent = concentration(portfolio)
	metrics.Leverage = portfolio.GrossExposure() / value
	metrics.CorrelationRisk = c.correlationRisk(portfolio)
	metrics.CashReservePercent = portfolio.Cash / value * 100

	metrics.Alerts = c.evaluateAlerts(metrics)
	metrics.RiskLevel = c.classify(metrics)

	return metrics
}

// trackValue folds the latest portfolio value into the session state:
// peak (monotone), daily start (first observation of the session), and
// the portfolio return series used for empirical VaR.
func (c *Calculator) trackValue(value float64) {
	if c.lastValue > 0 {
		ret := (value - c.lastValue) / c.lastValue
		c.returns = append(c.returns, ret)
		if len(c.returns) > DefaultHistoryLength {
			c.returns = c.returns[len(c.returns)-DefaultHistoryLength:]
		}
	}
	c.lastValue = value

	if value > c.peakValue {
		c.peakValue = value
	}
	if c.dailyStartValue == 0 {
		c.dailyStartValue = value
	}
}

func (c *Calculator) currentDrawdown(value float64) float64 {
	if c.peakValue <= 0 {
		return 0
	}
	drawdown := (c.peakValue - value) / c.peakValue
	if drawdown < 0 {
		drawdown = 0
	}
	if drawdown > c.maxDrawdown {
		c.maxDrawdown = drawdown
	}
	return drawdown
}

func (c *Calculator) dailyLossPercent(value float64) float64 {
	if c.dailyStartValue <= 0 || value >= c.dailyStartValue {
		return 0
	}
	return (c.dailyStartValue - value) / c.dailyStartValue * 100
}

// annualizedVolatility prefers the portfolio's own return series and
// falls back to a value-weighted blend of per-symbol volatilities while
// the session is still warming up.
func (c *Calculator) annualizedVolatility(portfolio *Portfolio) float64 {
	if len(c.returns) >= 2 {
		return stats.StdDev(c.returns) * math.Sqrt(tradingDaysPerYear)
	}

	gross := portfolio.GrossExposure()
	if gross <= 0 {
		return 0
	}
	blended := 0.0
	for _, pos := range portfolio.Positions {
		weight := pos.MarketValue() / gross
		blended += weight * c.history.Volatility(pos.Symbol)
	}
	return blended * math.Sqrt(tradingDaysPerYear)
}

// applyValueAtRisk fills VaR95/99 and CVaR95. With enough observed
// portfolio returns the empirical percentile method wins; otherwise the
// parametric normal approximation is used.
func (c *Calculator) applyValueAtRisk(metrics *RiskMetrics, value float64) {
	mu := stats.Mean(c.returns)
	sigma := stats.StdDev(c.returns)

	if len(c.returns) >= minHistoricalReturns {
		metrics.VaRMethod = VaRMethodHistorical
		sorted := make([]float64, len(c.returns))
		copy(sorted, c.returns)
		sort.Float64s(sorted)

		metrics.VaR95 = clampLoss(-sorted[tailIndex(len(sorted), 0.95)] * value)
		metrics.VaR99 = clampLoss(-sorted[tailIndex(len(sorted), 0.99)] * value)

		// CVaR95 is the mean loss across the 5% tail.
		cutoff := tailIndex(len(sorted), 0.95)
		tailSum := 0.0
		for i := 0; i <= cutoff; i++ {
			tailSum += sorted[i]
		}
		metrics.CVaR95 = clampLoss(-tailSum / float64(cutoff+1) * value)
	} else {
		metrics.VaR95 = clampLoss((z95*sigma - mu) * value)
		metrics.VaR99 = clampLoss((z99*sigma - mu) * value)
		metrics.CVaR95 = clampLoss((tailFactor95*sigma - mu) * value)
	}

	// Tail ordering must hold regardless of method quirks.
	if metrics.VaR99 < metrics.VaR95 {
		metrics.VaR99 = metrics.VaR95
	}
	if metrics.CVaR95 < metrics.VaR95 {
		metrics.CVaR95 = metrics.VaR95
	}
}

// tailIndex maps a confidence level onto the sorted-return index of the
// loss quantile, e.g. (1-0.95)*n for 95%.
func tailIndex(n int, confidence float64) int {
	idx := int(float64(n) * (1 - confidence))
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

func clampLoss(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// concentration returns the Herfindahl index over position weights and
// the largest single position as a percent of total value.
func concentration(portfolio *Portfolio) (index, largestPercent float64) {
	if portfolio.TotalValue <= 0 {
		return 0, 0
	}
	for _, pos := range portfolio.Positions {
		weight := pos.MarketValue() / portfolio.TotalValue
		index += weight * weight
		if pct := weight * 100; pct > largestPercent {
			largestPercent = pct
		}
	}
	return index, largestPercent
}

// correlationRisk is the mean absolute pairwise correlation across held
// symbols. Fewer than two symbols, or pairs without overlapping history,
// contribute nothing.
func (c *Calculator) correlationRisk(portfolio *Portfolio) float64 {
	symbols := make([]string, 0, len(portfolio.Positions))
	seen := make(map[string]bool)
	for _, pos := range portfolio.Positions {
		if !seen[pos.Symbol] {
			seen[pos.Symbol] = true
			symbols = append(symbols, pos.Symbol)
		}
	}
	if len(symbols) < 2 {
		return 0
	}

	sum := 0.0
	pairs := 0
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			x := c.history.Returns(symbols[i])
			y := c.history.Returns(symbols[j])
			n := len(x)
			if len(y) < n {
				n = len(y)
			}
			if n < 2 {
				continue
			}
			sum += math.Abs(stats.PearsonCorrelation(x[len(x)-n:], y[len(y)-n:]))
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

// evaluateAlerts compares the metrics against every configured limit.
// Severity is "critical" at twice the limit or worse, "warning" below
// that; the cash reserve check inverts this (critical at half the
// minimum or less). MaxSectorExposurePercent is the one limit with no
// alert here: positions carry no sector, so it is enforced where the
// sector map lives, in position sizing.
func (c *Calculator) evaluateAlerts(metrics *RiskMetrics) []Alert {
	var raised []Alert

	check := func(alertType string, value, limit float64, message, recommendation string) {
		if limit <= 0 || value <= limit {
			return
		}
		severity := "warning"
		if value >= 2*limit {
			severity = "critical"
		}
		raised = append(raised, Alert{
			Type:           alertType,
			Severity:       severity,
			Message:        message,
			Value:          value,
			Threshold:      limit,
			Recommendation: recommendation,
			Timestamp:      metrics.Timestamp,
		})
	}

	check("position_limit", metrics.LargestPositionPercent, c.limits.MaxPositionPercent,
		fmt.Sprintf("largest position %.1f%% exceeds limit %.1f%%", metrics.LargestPositionPercent, c.limits.MaxPositionPercent),
		"reduce the oversized position")
	check("daily_loss", metrics.DailyLossPercent, c.limits.MaxDailyLossPercent,
		fmt.Sprintf("daily loss %.1f%% exceeds limit %.1f%%", metrics.DailyLossPercent, c.limits.MaxDailyLossPercent),
		"stop opening new positions today")
	check("drawdown", metrics.CurrentDrawdown*100, c.limits.MaxDrawdownPercent,
		fmt.Sprintf("drawdown %.1f%% exceeds limit %.1f%%", metrics.CurrentDrawdown*100, c.limits.MaxDrawdownPercent),
		"reduce overall exposure")
	check("leverage", metrics.Leverage, c.limits.MaxLeverage,
		fmt.Sprintf("gross leverage %.2fx exceeds limit %.2fx", metrics.Leverage, c.limits.MaxLeverage),
		"deleverage the book")
	check("correlation", metrics.CorrelationRisk, c.limits.MaxCorrelation,
		fmt.Sprintf("average correlation %.2f exceeds limit %.2f", metrics.CorrelationRisk, c.limits.MaxCorrelation),
		"diversify into uncorrelated assets")

	if min := c.limits.MinCashReservePercent; min > 0 && metrics.CashReservePercent < min {
		severity := "warning"
		if metrics.CashReservePercent <= min/2 {
			severity = "critical"
		}
		raised = append(raised, Alert{
			Type:           "cash_reserve",
			Severity:       severity,
			Message:        fmt.Sprintf("cash reserve %.1f%% is below minimum %.1f%%", metrics.CashReservePercent, min),
			Value:          metrics.CashReservePercent,
			Threshold:      min,
			Recommendation: "free up cash before adding exposure",
			Timestamp:      metrics.Timestamp,
		})
	}

	for _, alert := range raised {
		c.storeAlert(alert)
	}
	return raised
}

func (c *Calculator) storeAlert(alert Alert) {
	c.alerts = append(c.alerts, alert)
	if len(c.alerts) > maxStoredAlerts {
		c.alerts = c.alerts[len(c.alerts)-maxStoredAlerts:]
	}
}

// RecentAlerts returns a copy of the bounded alert history.
func (c *Calculator) RecentAlerts() []Alert {
	out := make([]Alert, len(c.alerts))
	copy(out, c.alerts)
	return out
}

// classify maps the metric ratios against their limits onto the
// categorical risk level. The worst ratio wins.
func (c *Calculator) classify(metrics *RiskMetrics) RiskLevel {
	worst := 0.0
	consider := func(value, limit float64) {
		if limit <= 0 {
			return
		}
		if ratio := value / limit; ratio > worst {
			worst = ratio
		}
	}
	consider(metrics.DailyLossPercent, c.limits.MaxDailyLossPercent)
	consider(metrics.CurrentDrawdown*100, c.limits.MaxDrawdownPercent)
	consider(metrics.Leverage, c.limits.MaxLeverage)
	consider(metrics.LargestPositionPercent, c.limits.MaxPositionPercent)

	switch {
	case worst >= 2.0:
		return RiskLevelEmergency
	case worst >= 1.0:
		return RiskLevelCritical
	case worst >= 0.8:
		return RiskLevelWarning
	case worst >= 0.5:
		return RiskLevelCaution
	default:
		return RiskLevelSafe
	}
}
