package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker reports the monitor's liveness: feed freshness,
// exchange connectivity, and recent errors.
type HealthChecker struct {
	mu          sync.RWMutex
	lastUpdate  time.Time
	lastValue   float64
	isConnected bool
	halted      bool
	errors      []string
}

type HealthStatus struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	LastUpdate     time.Time `json:"last_update"`
	PortfolioValue float64   `json:"portfolio_value"`
	IsConnected    bool      `json:"is_connected"`
	TradingHalted  bool      `json:"trading_halted"`
	Uptime         string    `json:"uptime"`
	Errors         []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// RecordUpdate notes a successful portfolio refresh.
func (h *HealthChecker) RecordUpdate(totalValue float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastUpdate = time.Now()
	h.lastValue = totalValue
	h.errors = h.errors[:0]
}

// SetConnected reflects the market-data connection state.
func (h *HealthChecker) SetConnected(connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isConnected = connected
}

// SetHalted reflects the controller's halt state. A halt is reported
// but does not by itself make the monitor unhealthy.
func (h *HealthChecker) SetHalted(halted bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.halted = halted
}

// RecordError appends a recent error, keeping only the last few.
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.isConnected || time.Since(h.lastUpdate) > time.Minute*15 {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:         status,
		Timestamp:      time.Now(),
		LastUpdate:     h.lastUpdate,
		PortfolioValue: h.lastValue,
		IsConnected:    h.isConnected,
		TradingHalted:  h.halted,
		Uptime:         time.Since(startTime).String(),
		Errors:         h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
