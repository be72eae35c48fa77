package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/quant-risk-engine/internal/config"
	"github.com/ducminhle1904/quant-risk-engine/internal/correlation"
	"github.com/ducminhle1904/quant-risk-engine/internal/exchange/bybit"
	"github.com/ducminhle1904/quant-risk-engine/internal/logger"
	"github.com/ducminhle1904/quant-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/quant-risk-engine/internal/notifications"
	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
	"github.com/ducminhle1904/quant-risk-engine/internal/sizing"
	"github.com/ducminhle1904/quant-risk-engine/pkg/reporting"
	"github.com/ducminhle1904/quant-risk-engine/pkg/types"
)

// Monitor wires the exchange feed into the risk engine and keeps the
// controller state fresh on every refresh tick.
type Monitor struct {
	cfg        *config.Config
	client     *bybit.Client
	controller *risk.Controller
	analyzer   *correlation.Analyzer
	sizer      *sizing.Engine
	fileLog    *logger.Logger
	health     *monitoring.HealthChecker
	notifier   notifications.Notifier
	console    *reporting.ConsoleReporter

	// lastCandle is the newest bar timestamp already fed per symbol.
	// Kline fetches return a sliding window of recent bars; without
	// this watermark each tick would re-append the overlap.
	lastCandle map[string]time.Time

	// notifiedAlerts tracks alert types already sent externally, so a
	// persistent breach notifies once, not once per tick.
	notifiedAlerts map[string]bool

	alertedHalt bool
	stopChan    chan struct{}
}

func main() {
	var (
		envFile = flag.String("env", ".env", "Environment file path (default: .env)")
		demo    = flag.Bool("demo", true, "Use demo environment - paper account (default: true)")
	)
	flag.Parse()

	if err := loadEnvFile(*envFile); err != nil {
		log.Printf("Warning: Could not load .env file (%v), checking environment variables...", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("🛡️ Risk Monitor Starting...")
	fmt.Printf("📊 Symbols: %s\n", strings.Join(cfg.Monitor.Symbols, ", "))
	fmt.Printf("⏰ Interval: %s\n", cfg.Monitor.Interval)
	fmt.Printf("🔧 Environment: %s\n", environmentString(*demo))
	fmt.Println(strings.Repeat("=", 50))

	if cfg.Exchange.APIKey == "" || cfg.Exchange.Secret == "" {
		log.Fatal("Please set BYBIT_API_KEY and BYBIT_API_SECRET in .env file or environment variables")
	}

	client := bybit.NewClient(bybit.Config{
		APIKey:    cfg.Exchange.APIKey,
		APISecret: cfg.Exchange.Secret,
		Demo:      *demo,
	})

	fileLog, err := logger.NewLogger("bybit")
	if err != nil {
		log.Fatalf("Failed to create session log: %v", err)
	}
	defer fileLog.Close()
	fmt.Printf("📝 Session log: %s\n", fileLog.GetLogPath())

	calc := risk.NewCalculator(cfg.Limits, nil)
	calc.StartNewSession(cfg.Monitor.InitialBalance)
	controller := risk.NewController(calc, risk.NewCoolingOffManager(), risk.DefaultControllerConfig())

	sizerConfig := sizing.DefaultConfig()
	sizerConfig.RiskPercent = cfg.Sizing.RiskPercent
	sizerConfig.KellyFraction = cfg.Sizing.KellyFraction

	monitor := &Monitor{
		cfg:            cfg,
		client:         client,
		controller:     controller,
		analyzer:       correlation.NewAnalyzer(calc.History()),
		sizer:          sizing.NewEngine(controller, sizerConfig),
		fileLog:        fileLog,
		health:         monitoring.NewHealthChecker(),
		notifier:       buildNotifier(cfg),
		console:        reporting.NewConsoleReporter(),
		lastCandle:     make(map[string]time.Time),
		notifiedAlerts: make(map[string]bool),
		stopChan:       make(chan struct{}),
	}

	monitor.serveHTTP()
	go monitor.run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n🛑 Shutdown signal received...")
	close(monitor.stopChan)
	fmt.Println("✅ Monitor stopped successfully")
}

func environmentString(demo bool) string {
	if demo {
		return "demo (paper account on mainnet)"
	}
	return "live account on mainnet"
}

func loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err == nil {
		return godotenv.Load(envFile)
	}
	return fmt.Errorf("env file %s not found", envFile)
}

func buildNotifier(cfg *config.Config) notifications.Notifier {
	if cfg.Notifications.TelegramToken == "" || cfg.Notifications.TelegramChatID == "" {
		return notifications.NopNotifier{}
	}
	return notifications.NewTelegramNotifier(cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID)
}

// serveHTTP starts the Prometheus and health endpoints.
func (m *Monitor) serveHTTP() {
	go func() {
		addr := fmt.Sprintf(":%d", m.cfg.Monitoring.PrometheusPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", monitoring.NewMetricsHandler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("❌ Metrics server stopped: %v", err)
		}
	}()
	go func() {
		addr := fmt.Sprintf(":%d", m.cfg.Monitoring.HealthPort)
		mux := http.NewServeMux()
		mux.Handle("/health", m.health)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("❌ Health server stopped: %v", err)
		}
	}()
}

// run is the main refresh loop.
func (m *Monitor) run() {
	m.refresh()

	ticker := time.NewTicker(m.cfg.Monitor.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopChan:
			return
		}
	}
}

// refresh pulls fresh account and price data, recomputes metrics, and
// reacts to controller state changes.
func (m *Monitor) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m.feedPrices(ctx)

	snapshot, err := m.fetchSnapshot(ctx)
	if err != nil {
		m.health.SetConnected(false)
		m.health.RecordError(err.Error())
		m.fileLog.LogError("account refresh", err)
		if bybit.IsAuthenticationError(err) {
			log.Printf("❌ Authentication rejected, check BYBIT_API_KEY and BYBIT_API_SECRET: %v", err)
		} else {
			log.Printf("❌ Failed to refresh account: %v", err)
		}
		return
	}
	m.health.SetConnected(true)

	portfolio := snapshot.Portfolio()
	metrics := m.controller.UpdateRiskMetrics(portfolio)

	m.health.RecordUpdate(portfolio.TotalValue)
	m.health.SetHalted(m.controller.IsHalted())
	monitoring.PublishRiskMetrics(metrics)
	monitoring.SetHalted(m.controller.IsHalted())

	m.fileLog.LogRiskSnapshot(portfolio.TotalValue, metrics)
	m.console.PrintRiskMetrics(metrics)
	m.reportConcentration(portfolio)

	for _, alert := range metrics.Alerts {
		monitoring.RecordAlert(alert.Type, alert.Severity)
		m.fileLog.Alert("[%s] %s", alert.Severity, alert.Message)
	}
	if tg, ok := m.notifier.(*notifications.TelegramNotifier); ok {
		for _, alert := range newlyCritical(metrics.Alerts, m.notifiedAlerts) {
			if err := tg.SendRiskAlert(alert); err != nil {
				m.fileLog.LogError("alert notification", err)
			}
		}
	}

	m.adviseSizing(ctx, portfolio)
	m.notifyHaltTransitions(portfolio)
}

// fetchSnapshot retrieves the wallet with retry on transient errors.
func (m *Monitor) fetchSnapshot(ctx context.Context) (*bybit.AccountSnapshot, error) {
	var snapshot *bybit.AccountSnapshot
	err := m.client.Retry(ctx, func() error {
		var err error
		snapshot, err = m.client.GetAccountSnapshot(ctx, bybit.AccountTypeUnified)
		return err
	})
	return snapshot, err
}

// feedPrices pulls recent klines per symbol into the history store and
// the sizing engine's volatility trackers.
func (m *Monitor) feedPrices(ctx context.Context) {
	for _, symbol := range m.cfg.Monitor.Symbols {
		candles, err := m.client.GetKlines(ctx, bybit.KlineParams{
			Category: "linear",
			Symbol:   symbol,
			Interval: bybit.Interval1h,
			Limit:    200,
		})
		if err != nil {
			m.fileLog.LogError("kline fetch "+symbol, err)
			continue
		}

		fresh := candlesAfter(candles, m.lastCandle[symbol])
		if len(fresh) == 0 {
			continue
		}
		m.lastCandle[symbol] = fresh[len(fresh)-1].Timestamp

		history := m.controller.Calculator().History()
		for _, candle := range fresh {
			history.AddPrice(symbol, candle.Close)
		}
		m.sizer.UpdateCandles(symbol, fresh)
	}
}

// newlyCritical picks out the critical alerts whose type has not yet
// been notified this episode, records them in the set, and prunes types
// that have cleared so a recurrence notifies again.
func newlyCritical(alerts []risk.Alert, notified map[string]bool) []risk.Alert {
	active := make(map[string]bool, len(alerts))
	var fresh []risk.Alert
	for _, alert := range alerts {
		active[alert.Type] = true
		if alert.Severity != "critical" || notified[alert.Type] {
			continue
		}
		notified[alert.Type] = true
		fresh = append(fresh, alert)
	}
	for alertType := range notified {
		if !active[alertType] {
			delete(notified, alertType)
		}
	}
	return fresh
}

// candlesAfter returns the suffix of an ascending candle series that is
// strictly newer than the watermark. Re-feeding the overlap would
// fabricate a return at the seam and re-smooth the ATR with stale bars.
func candlesAfter(candles []types.OHLCV, after time.Time) []types.OHLCV {
	for i, candle := range candles {
		if candle.Timestamp.After(after) {
			return candles[i:]
		}
	}
	return nil
}

// reportConcentration logs concentration findings from the analyzer.
func (m *Monitor) reportConcentration(portfolio *risk.Portfolio) {
	risks := m.analyzer.DetectConcentrationRisk(portfolio, m.cfg.Limits.MaxPositionPercent/100)
	for _, r := range risks {
		m.fileLog.Warning("Concentration risk: %s holds %.1f%% of the book (score %.2f)",
			r.Symbol, r.Weight*100, r.RiskScore)
	}
}

// adviseSizing computes an advisory position size per symbol at the
// current price and runs the implied order through the controller, so
// the log and metrics show what the engine would allow right now.
func (m *Monitor) adviseSizing(ctx context.Context, portfolio *risk.Portfolio) {
	for _, symbol := range m.cfg.Monitor.Symbols {
		ticker, err := m.client.GetTicker(ctx, "linear", symbol)
		if err != nil {
			m.fileLog.LogError("ticker fetch "+symbol, err)
			continue
		}

		result := m.sizer.GetRecommendation(sizing.Request{
			Symbol:  symbol,
			Method:  sizing.MethodFixedFractional,
			Capital: portfolio.TotalValue,
			Entry:   ticker.Price,
		}, portfolio)
		if result.Size <= 0 {
			continue
		}

		decision := m.controller.ValidateOrder(&risk.Order{
			Symbol:   symbol,
			Side:     risk.OrderBuy,
			Quantity: result.Size,
			Price:    ticker.Price,
		}, portfolio)
		m.fileLog.LogOrderDecision(symbol, decision)
		if !decision.Allowed {
			monitoring.RecordBlockedOrder(decision.Action)
		}
	}
}

// notifyHaltTransitions fires external alerts once per halt episode.
func (m *Monitor) notifyHaltTransitions(portfolio *risk.Portfolio) {
	halted := m.controller.IsHalted()
	switch {
	case halted && !m.alertedHalt:
		m.alertedHalt = true
		reason := m.controller.HaltReason()
		m.fileLog.LogHalt(reason, portfolio.TotalValue)
		if t, ok := m.notifier.(*notifications.TelegramNotifier); ok {
			if err := t.SendHaltNotice(reason, portfolio.TotalValue); err != nil {
				m.fileLog.LogError("halt notification", err)
			}
		} else if err := m.notifier.SendAlert("critical", "trading halted: "+reason); err != nil {
			m.fileLog.LogError("halt notification", err)
		}
	case !halted:
		m.alertedHalt = false
	}
}
