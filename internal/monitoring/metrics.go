package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
)

var (
	// Portfolio risk metrics
	valueAtRisk = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "risk_engine_value_at_risk",
			Help: "Portfolio value at risk in account currency",
		},
		[]string{"confidence"},
	)

	portfolioVolatility = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_portfolio_volatility",
			Help: "Annualized portfolio volatility",
		},
	)

	currentDrawdown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_current_drawdown",
			Help: "Current drawdown from the portfolio peak, fraction",
		},
	)

	grossLeverage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_gross_leverage",
			Help: "Gross exposure over total portfolio value",
		},
	)

	concentration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_concentration_index",
			Help: "Herfindahl concentration index of position weights",
		},
	)

	riskLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "risk_engine_risk_level",
			Help: "1 for the active risk level, 0 otherwise",
		},
		[]string{"level"},
	)

	// Control state metrics
	tradingHalted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_trading_halted",
			Help: "1 while trading is halted",
		},
	)

	alertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_alerts_total",
			Help: "Total risk alerts raised",
		},
		[]string{"type", "severity"},
	)

	ordersBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_orders_blocked_total",
			Help: "Orders rejected by the risk controller",
		},
		[]string{"action"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(valueAtRisk)
	prometheus.MustRegister(portfolioVolatility)
	prometheus.MustRegister(currentDrawdown)
	prometheus.MustRegister(grossLeverage)
	prometheus.MustRegister(concentration)
	prometheus.MustRegister(riskLevel)
	prometheus.MustRegister(tradingHalted)
	prometheus.MustRegister(alertsTotal)
	prometheus.MustRegister(ordersBlocked)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// PublishRiskMetrics exports a freshly computed metrics snapshot.
func PublishRiskMetrics(metrics *risk.RiskMetrics) {
	if metrics == nil {
		return
	}
	valueAtRisk.WithLabelValues("95").Set(metrics.VaR95)
	valueAtRisk.WithLabelValues("99").Set(metrics.VaR99)
	portfolioVolatility.Set(metrics.Volatility)
	currentDrawdown.Set(metrics.CurrentDrawdown)
	grossLeverage.Set(metrics.Leverage)
	concentration.Set(metrics.ConcentrationIndex)

	for _, level := range []risk.RiskLevel{
		risk.RiskLevelSafe, risk.RiskLevelCaution, risk.RiskLevelWarning,
		risk.RiskLevelCritical, risk.RiskLevelEmergency,
	} {
		active := 0.0
		if level == metrics.RiskLevel {
			active = 1.0
		}
		riskLevel.WithLabelValues(string(level)).Set(active)
	}
}

// SetHalted reflects the controller's halt state.
func SetHalted(halted bool) {
	if halted {
		tradingHalted.Set(1)
	} else {
		tradingHalted.Set(0)
	}
}

// RecordAlert counts a raised risk alert.
func RecordAlert(alertType, severity string) {
	alertsTotal.WithLabelValues(alertType, severity).Inc()
}

// RecordBlockedOrder counts an order the controller refused.
func RecordBlockedOrder(action string) {
	ordersBlocked.WithLabelValues(action).Inc()
}
