package risk

import (
	"math"
	"time"
)

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// OrderSide is the direction of a proposed order.
type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

// Position is a single holding inside a portfolio snapshot. Positions are
// owned by the execution layer; the engine only reads them.
type Position struct {
	Symbol       string
	Quantity     float64
	EntryPrice   float64
	CurrentPrice float64
	Side         Side
	StopLoss     float64 // 0 means no stop attached
	TakeProfit   float64 // 0 means no target attached
}

// UnrealizedPnL returns the open profit of the position, sign-adjusted
// for shorts.
func (p Position) UnrealizedPnL() float64 {
	sign := 1.0
	if p.Side == SideShort {
		sign = -1.0
	}
	return (p.CurrentPrice - p.EntryPrice) * p.Quantity * sign
}

// MarketValue returns the absolute notional value of the position.
func (p Position) MarketValue() float64 {
	return math.Abs(p.Quantity) * p.CurrentPrice
}

// Portfolio is a point-in-time account snapshot pushed in by the host.
// The engine trusts TotalValue; all ratio metrics are computed against it.
type Portfolio struct {
	Cash             float64
	Positions        []Position
	TotalValue       float64
	DailyPnL         float64
	CumulativeProfit float64
}

// GrossExposure returns the sum of absolute position values.
func (p *Portfolio) GrossExposure() float64 {
	total := 0.0
	for _, pos := range p.Positions {
		total += pos.MarketValue()
	}
	return total
}

// LargestPosition returns the position with the biggest market value,
// or nil for an empty book.
func (p *Portfolio) LargestPosition() *Position {
	var largest *Position
	for i := range p.Positions {
		if largest == nil || p.Positions[i].MarketValue() > largest.MarketValue() {
			largest = &p.Positions[i]
		}
	}
	return largest
}

// Order is a proposed trade checked against the current risk state.
type Order struct {
	Symbol   string
	Side     OrderSide
	Quantity float64
	Price    float64
	Sector   string
}

// Notional returns the order's cash value.
func (o *Order) Notional() float64 {
	return math.Abs(o.Quantity) * o.Price
}

// RiskLevel is the categorical severity of the current portfolio state.
type RiskLevel string

const (
	RiskLevelSafe      RiskLevel = "safe"
	RiskLevelCaution   RiskLevel = "caution"
	RiskLevelWarning   RiskLevel = "warning"
	RiskLevelCritical  RiskLevel = "critical"
	RiskLevelEmergency RiskLevel = "emergency"
)

// VaRMethod identifies how the value-at-risk figures were derived.
type VaRMethod string

const (
	VaRMethodParametric VaRMethod = "parametric"
	VaRMethodHistorical VaRMethod = "historical"
)

// Alert is a single limit breach raised during metric computation.
// Alerts are informational; halting is the controller's decision.
type Alert struct {
	Type           string
	Severity       string // "warning" or "critical"
	Message        string
	Value          float64
	Threshold      float64
	Recommendation string
	Timestamp      time.Time
}

// RiskMetrics is the derived risk snapshot produced on every portfolio
// update. It is never mutated in place; each call builds a fresh value.
type RiskMetrics struct {
	VaR95                  float64
	VaR99                  float64
	CVaR95                 float64
	VaRMethod              VaRMethod
	Volatility             float64 // annualized
	CurrentDrawdown        float64 // fraction of peak
	MaxDrawdown            float64 // worst drawdown seen this session
	ConcentrationIndex     float64 // Herfindahl index over position weights
	LargestPositionPercent float64
	Leverage               float64 // gross exposure / total value
	CorrelationRisk        float64 // mean absolute pairwise correlation
	DailyLossPercent       float64
	CashReservePercent     float64 // cash / total value, may be negative on margin
	RiskLevel              RiskLevel
	Alerts                 []Alert
	Timestamp              time.Time
}

// OrderDecision is the structured result of validating a proposed order.
// Rejections are reported here, never as errors.
type OrderDecision struct {
	Allowed    bool
	Action     string // "allow", "reject", "block", "halt", "cooldown"
	Violations []string
	Reasons    []string
}
