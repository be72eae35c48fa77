package risk

import (
	"fmt"
	"time"
)

// TradingState is the controller's coarse trading mode.
type TradingState string

const (
	StateNormal     TradingState = "normal"
	StateRestricted TradingState = "restricted"
	StateHalted     TradingState = "halted"
)

// ControlAction is the single outcome of one evaluation pass.
type ControlAction string

const (
	ActionNone            ControlAction = "none"
	ActionWarn            ControlAction = "warn"
	ActionReducePositions ControlAction = "reduce_positions"
	ActionBlockOrders     ControlAction = "block_orders"
	ActionHalt            ControlAction = "halt"
)

// ControlEvent records a state-machine decision for the bounded event log.
type ControlEvent struct {
	Action    ControlAction
	Reason    string
	State     TradingState
	Timestamp time.Time
}

const maxControlEvents = 100

// ControllerConfig tunes the state machine thresholds that sit on top of
// the plain RiskLimits. Zero values take the defaults.
type ControllerConfig struct {
	// EmergencyDrawdownMultiple scales MaxDrawdownPercent into the
	// immediate-halt threshold.
	EmergencyDrawdownMultiple float64
	// MaxConsecutiveLosses blocks new orders once this many losing
	// updates arrive in a row.
	MaxConsecutiveLosses int
	// ReduceAtDrawdownFraction of the drawdown limit triggers the
	// position-reduction recommendation.
	ReduceAtDrawdownFraction float64
}

// DefaultControllerConfig returns the baseline state machine tuning.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		EmergencyDrawdownMultiple: 1.5,
		MaxConsecutiveLosses:      5,
		ReduceAtDrawdownFraction:  0.75,
	}
}

func (c ControllerConfig) withDefaults() ControllerConfig {
	defaults := DefaultControllerConfig()
	if c.EmergencyDrawdownMultiple <= 0 {
		c.EmergencyDrawdownMultiple = defaults.EmergencyDrawdownMultiple
	}
	if c.MaxConsecutiveLosses <= 0 {
		c.MaxConsecutiveLosses = defaults.MaxConsecutiveLosses
	}
	if c.ReduceAtDrawdownFraction <= 0 {
		c.ReduceAtDrawdownFraction = defaults.ReduceAtDrawdownFraction
	}
	return c
}

// Controller is the stateful risk-control core. It ingests metrics on
// every portfolio update, decides on exactly one outcome per evaluation,
// and owns the halt flag the order path must respect. One controller per
// portfolio/session, single writer.
type Controller struct {
	calc     *Calculator
	cooldown *CoolingOffManager
	config   ControllerConfig

	state             TradingState
	haltReason        string
	haltedAt          time.Time
	consecutiveLosses int
	lastTotalValue    float64

	events []ControlEvent
}

// NewController wires a controller over its calculator and cooldown
// manager. Passing nil for either creates a default instance.
func NewController(calc *Calculator, cooldown *CoolingOffManager, config ControllerConfig) *Controller {
	if calc == nil {
		calc = NewCalculator(DefaultRiskLimits(), nil)
	}
	if cooldown == nil {
		cooldown = NewCoolingOffManager()
	}
	return &Controller{
		calc:     calc,
		cooldown: cooldown,
		config:   config.withDefaults(),
		state:    StateNormal,
	}
}

// Calculator exposes the underlying metrics calculator.
func (c *Controller) Calculator() *Calculator {
	return c.calc
}

// Cooldown exposes the cooling-off manager.
func (c *Controller) Cooldown() *CoolingOffManager {
	return c.cooldown
}

// State returns the current trading state.
func (c *Controller) State() TradingState {
	return c.state
}

// IsHalted reports whether trading is halted. The flag is sticky: only
// ResumeTrading clears it.
func (c *Controller) IsHalted() bool {
	return c.state == StateHalted
}

// HaltReason returns what triggered the current halt, empty when not halted.
func (c *Controller) HaltReason() string {
	if c.state != StateHalted {
		return ""
	}
	return c.haltReason
}

// UpdateLimits hot-swaps the risk limits used by subsequent evaluations.
func (c *Controller) UpdateLimits(limits RiskLimits) {
	c.calc.UpdateLimits(limits)
}

// UpdateRiskMetrics recomputes metrics for the snapshot and runs one
// evaluation pass of the state machine. This is the trigger for alerting
// and halting; it returns the metrics it acted on.
func (c *Controller) UpdateRiskMetrics(portfolio *Portfolio) *RiskMetrics {
	metrics := c.calc.Calculate(portfolio)
	c.trackLossStreak(portfolio)
	c.evaluate(metrics)
	return metrics
}

// trackLossStreak counts consecutive value-losing updates.
func (c *Controller) trackLossStreak(portfolio *Portfolio) {
	if portfolio == nil {
		return
	}
	if c.lastTotalValue > 0 {
		switch {
		case portfolio.TotalValue < c.lastTotalValue:
			c.consecutiveLosses++
		case portfolio.TotalValue > c.lastTotalValue:
			c.consecutiveLosses = 0
		}
	}
	c.lastTotalValue = portfolio.TotalValue
}

// evaluate applies the fixed priority order so exactly one outcome wins:
// emergency halt > daily-loss halt > consecutive-loss block > drawdown
// reduction recommendation > informational warning.
func (c *Controller) evaluate(metrics *RiskMetrics) {
	limits := c.calc.Limits()

	emergencyDrawdown := limits.MaxDrawdownPercent * c.config.EmergencyDrawdownMultiple
	switch {
	case metrics.RiskLevel == RiskLevelEmergency || metrics.CurrentDrawdown*100 >= emergencyDrawdown:
		c.halt(fmt.Sprintf("emergency: risk level %s, drawdown %.1f%%", metrics.RiskLevel, metrics.CurrentDrawdown*100), "critical", metrics.CurrentDrawdown*100)

	case metrics.DailyLossPercent > limits.MaxDailyLossPercent:
		c.halt(fmt.Sprintf("daily loss %.1f%% breached limit %.1f%%", metrics.DailyLossPercent, limits.MaxDailyLossPercent), "high", metrics.DailyLossPercent)

	case c.consecutiveLosses >= c.config.MaxConsecutiveLosses:
		if c.state == StateNormal {
			c.state = StateRestricted
			c.recordEvent(ActionBlockOrders, fmt.Sprintf("%d consecutive losing updates", c.consecutiveLosses))
			c.cooldown.EnforceCoolingOff(CooldownReason{
				Type:         "consecutive_losses",
				Severity:     "medium",
				TriggerValue: float64(c.consecutiveLosses),
			})
		}

	case metrics.CurrentDrawdown*100 >= limits.MaxDrawdownPercent*c.config.ReduceAtDrawdownFraction:
		c.recordEvent(ActionReducePositions, fmt.Sprintf("drawdown %.1f%% approaching limit %.1f%%", metrics.CurrentDrawdown*100, limits.MaxDrawdownPercent))

	case metrics.RiskLevel == RiskLevelWarning || metrics.RiskLevel == RiskLevelCritical:
		c.recordEvent(ActionWarn, fmt.Sprintf("risk level %s", metrics.RiskLevel))

	default:
		// Restricted state recovers on its own once the streak breaks;
		// a halt never does.
		if c.state == StateRestricted && c.consecutiveLosses == 0 {
			c.state = StateNormal
			c.recordEvent(ActionNone, "loss streak cleared, restrictions lifted")
		}
	}
}

// halt moves to the halted state. Repeat evaluations while the trigger
// persists do not re-fire the halt event.
func (c *Controller) halt(reason, severity string, triggerValue float64) {
	if c.state == StateHalted {
		return
	}
	c.state = StateHalted
	c.haltReason = reason
	c.haltedAt = time.Now()
	c.recordEvent(ActionHalt, reason)
	c.cooldown.EnforceCoolingOff(CooldownReason{
		Type:         "trading_halt",
		Severity:     severity,
		TriggerValue: triggerValue,
	})
}

// ResumeTrading is the manual override out of a halt. It always returns
// to normal regardless of current metrics.
func (c *Controller) ResumeTrading() {
	if c.state == StateNormal {
		return
	}
	c.state = StateNormal
	c.haltReason = ""
	c.consecutiveLosses = 0
	c.recordEvent(ActionNone, "trading resumed by manual override")
}

// ValidateOrder checks a proposed order against the halt state, the
// cooling-off lock, and the static limits. SELL orders are always
// permitted: liquidating risk is never blocked.
func (c *Controller) ValidateOrder(order *Order, portfolio *Portfolio) *OrderDecision {
	decision := &OrderDecision{Allowed: true, Action: "allow"}
	if order == nil {
		decision.Allowed = false
		decision.Action = "reject"
		decision.Violations = append(decision.Violations, "invalid_order")
		decision.Reasons = append(decision.Reasons, "nil order")
		return decision
	}

	if order.Side == OrderSell {
		return decision
	}

	if c.state == StateHalted {
		decision.Allowed = false
		decision.Action = "halt"
		decision.Violations = append(decision.Violations, "trading_halted")
		decision.Reasons = append(decision.Reasons, c.haltReason)
		return decision
	}

	if ok, remaining := c.cooldown.CanTrade(); !ok {
		c.cooldown.RecordViolation()
		decision.Allowed = false
		decision.Action = "cooldown"
		decision.Violations = append(decision.Violations, "cooling_off")
		decision.Reasons = append(decision.Reasons, fmt.Sprintf("cooling-off active, %s remaining", remaining.Round(time.Second)))
		return decision
	}

	if c.state == StateRestricted {
		decision.Allowed = false
		decision.Action = "block"
		decision.Violations = append(decision.Violations, "orders_blocked")
		decision.Reasons = append(decision.Reasons, "new orders blocked after consecutive losses")
		return decision
	}

	if portfolio != nil && portfolio.TotalValue > 0 {
		limits := c.calc.Limits()
		orderPercent := order.Notional() / portfolio.TotalValue * 100
		if orderPercent > limits.MaxPositionPercent {
			decision.Allowed = false
			decision.Action = "reject"
			decision.Violations = append(decision.Violations, "position_limit")
			decision.Reasons = append(decision.Reasons, fmt.Sprintf("order is %.1f%% of portfolio, limit %.1f%%", orderPercent, limits.MaxPositionPercent))
		}

		remainingCash := portfolio.Cash - order.Notional()
		minReserve := portfolio.TotalValue * limits.MinCashReservePercent / 100
		if remainingCash < minReserve {
			decision.Allowed = false
			if decision.Action == "allow" {
				decision.Action = "reject"
			}
			decision.Violations = append(decision.Violations, "cash_reserve")
			decision.Reasons = append(decision.Reasons, fmt.Sprintf("order would leave %.2f cash, reserve requires %.2f", remainingCash, minReserve))
		}
	}

	return decision
}

func (c *Controller) recordEvent(action ControlAction, reason string) {
	c.events = append(c.events, ControlEvent{
		Action:    action,
		Reason:    reason,
		State:     c.state,
		Timestamp: time.Now(),
	})
	if len(c.events) > maxControlEvents {
		c.events = c.events[len(c.events)-maxControlEvents:]
	}
}

// Events returns a copy of the bounded decision log.
func (c *Controller) Events() []ControlEvent {
	out := make([]ControlEvent, len(c.events))
	copy(out, c.events)
	return out
}

// HaltEventCount returns how many halt events are in the current log.
// Used by hosts to assert the halt fired exactly once per episode.
func (c *Controller) HaltEventCount() int {
	count := 0
	for _, ev := range c.events {
		if ev.Action == ActionHalt {
			count++
		}
	}
	return count
}
