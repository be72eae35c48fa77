package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
)

// Logger represents a file logger for risk monitoring sessions
type Logger struct {
	account string
	logFile *os.File
	logger  *log.Logger
	mu      sync.Mutex
	logDir  string
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelAlert   LogLevel = "ALERT"
	LogLevelControl LogLevel = "CONTROL"
	LogLevelStatus  LogLevel = "STATUS"
)

// NewLogger creates a new file logger for the specified account label
func NewLogger(account string) (*Logger, error) {
	// Create log directory if it doesn't exist
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Create log filename with timestamp
	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("risk_%s_%s.log", account, timestamp)
	logPath := filepath.Join(logDir, filename)

	// Open or create log file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		account: account,
		logFile: file,
		logger:  log.New(file, "", 0),
		logDir:  logDir,
	}

	// Write session start header
	l.writeSessionHeader()

	return l, nil
}

// writeSessionHeader writes a session start header to the log
func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
🛡️ RISK MONITORING SESSION STARTED
================================================================================
Account: %s
Started: %s
Log File: risk_%s_%s.log
================================================================================
`, l.account, time.Now().Format("2006-01-02 15:04:05"),
		l.account, time.Now().Format("2006-01-02"))

	l.logger.Print(header)
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	l.logger.Println(fmt.Sprintf("[%s] [%s] %s", timestamp, level, message))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Alert logs a risk alert
func (l *Logger) Alert(format string, args ...interface{}) {
	l.Log(LogLevelAlert, format, args...)
}

// Control logs a risk-control state change
func (l *Logger) Control(format string, args ...interface{}) {
	l.Log(LogLevelControl, format, args...)
}

// LogRiskSnapshot logs a full metrics snapshot in a status block
func (l *Logger) LogRiskSnapshot(portfolioValue float64, metrics *risk.RiskMetrics) {
	if metrics == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	statusLog := fmt.Sprintf(`
[%s] [STATUS] ==================== RISK STATUS ====================
💼 Portfolio Value: $%.2f | Risk Level: %s
📉 VaR 95%%: $%.2f | VaR 99%%: $%.2f | CVaR 95%%: $%.2f
📊 Volatility: %.2f%% | Drawdown: %.2f%% (max %.2f%%)
⚖️ Leverage: %.2fx | Concentration: %.3f | Daily Loss: %.2f%%`,
		timestamp, portfolioValue, strings.ToUpper(string(metrics.RiskLevel)),
		metrics.VaR95, metrics.VaR99, metrics.CVaR95,
		metrics.Volatility*100, metrics.CurrentDrawdown*100, metrics.MaxDrawdown*100,
		metrics.Leverage, metrics.ConcentrationIndex, metrics.DailyLossPercent)

	if len(metrics.Alerts) > 0 {
		statusLog += fmt.Sprintf("\n🚨 Active Alerts: %d", len(metrics.Alerts))
		for _, alert := range metrics.Alerts {
			statusLog += fmt.Sprintf("\n   [%s] %s", strings.ToUpper(alert.Severity), alert.Message)
		}
	} else {
		statusLog += "\n✅ No Active Alerts"
	}

	statusLog += "\n=========================================================="

	l.logger.Println(statusLog)
}

// LogHalt logs a trading halt block
func (l *Logger) LogHalt(reason string, portfolioValue float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	haltLog := fmt.Sprintf(`
[%s] [CONTROL] ==================== TRADING HALTED ====================
🛑 Reason: %s
💼 Portfolio Value: $%.2f
⏳ Cooling-off enforced; manual resume required
=============================================================`,
		timestamp, reason, portfolioValue)

	l.logger.Println(haltLog)
}

// LogOrderDecision logs the outcome of an order validation
func (l *Logger) LogOrderDecision(symbol string, decision *risk.OrderDecision) {
	if decision == nil {
		return
	}
	if decision.Allowed {
		l.Info("Order allowed - %s", symbol)
		return
	}
	l.Control("Order %s - %s: %s", decision.Action, symbol, strings.Join(decision.Reasons, "; "))
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		// Write session end header
		timestamp := time.Now().Format("2006-01-02 15:04:05")
		footer := fmt.Sprintf(`
================================================================================
🏁 RISK MONITORING SESSION ENDED
================================================================================
Ended: %s
================================================================================

`, timestamp)
		l.logger.Print(footer)

		return l.logFile.Close()
	}
	return nil
}

// GetLogPath returns the current log file path
func (l *Logger) GetLogPath() string {
	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("risk_%s_%s.log", l.account, timestamp)
	return filepath.Join(l.logDir, filename)
}
