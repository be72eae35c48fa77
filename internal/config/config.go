package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
)

type Config struct {
	Environment string
	LogLevel    string

	Exchange struct {
		Name   string
		APIKey string
		Secret string
		Demo   bool
	}

	Monitor struct {
		Symbols        []string
		Interval       time.Duration
		InitialBalance float64
	}

	Limits risk.RiskLimits

	Sizing struct {
		RiskPercent   float64
		KellyFraction float64
	}

	Monitoring struct {
		PrometheusPort int
		HealthPort     int
	}

	Notifications struct {
		TelegramToken  string
		TelegramChatID string
	}
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "debug"),
	}

	cfg.Exchange.Name = getEnv("EXCHANGE_NAME", "bybit")
	cfg.Exchange.APIKey = getEnv("BYBIT_API_KEY", "")
	cfg.Exchange.Secret = getEnv("BYBIT_API_SECRET", "")
	cfg.Exchange.Demo = getEnvBool("BYBIT_DEMO", true)

	cfg.Monitor.Symbols = getEnvList("RISK_SYMBOLS", []string{"BTCUSDT"})
	cfg.Monitor.Interval = getEnvDuration("RISK_INTERVAL", time.Minute)
	cfg.Monitor.InitialBalance = getEnvFloat("INITIAL_BALANCE", 10000.0)

	limits, err := risk.NewRiskLimits(limitOverridesFromEnv())
	if err != nil {
		return nil, err
	}
	cfg.Limits = limits

	cfg.Sizing.RiskPercent = getEnvFloat("SIZING_RISK_PERCENT", 2.0)
	cfg.Sizing.KellyFraction = getEnvFloat("SIZING_KELLY_FRACTION", 0.5)

	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 8080)
	cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 8081)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	return cfg, nil
}

// limitOverridesFromEnv maps RISK_MAX_* variables onto limit overrides.
// Unset variables keep the defaults.
func limitOverridesFromEnv() *risk.LimitOverrides {
	overrides := &risk.LimitOverrides{}
	overrides.MaxPositionPercent = getEnvFloatPtr("RISK_MAX_POSITION_PERCENT")
	overrides.MaxDailyLossPercent = getEnvFloatPtr("RISK_MAX_DAILY_LOSS_PERCENT")
	overrides.MaxDrawdownPercent = getEnvFloatPtr("RISK_MAX_DRAWDOWN_PERCENT")
	overrides.MaxLeverage = getEnvFloatPtr("RISK_MAX_LEVERAGE")
	overrides.MinCashReservePercent = getEnvFloatPtr("RISK_MIN_CASH_RESERVE_PERCENT")
	overrides.MaxSectorExposurePercent = getEnvFloatPtr("RISK_MAX_SECTOR_EXPOSURE_PERCENT")
	overrides.MaxCorrelation = getEnvFloatPtr("RISK_MAX_CORRELATION")
	return overrides
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloatPtr(key string) *float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return &parsed
		}
	}
	return nil
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
