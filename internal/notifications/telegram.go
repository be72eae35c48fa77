package notifications

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
)

type TelegramNotifier struct {
	token  string
	chatID string
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		chatID: chatID,
	}
}

func (t *TelegramNotifier) SendAlert(level, message string) error {
	emoji := "ℹ️"
	switch level {
	case "warning":
		emoji = "⚠️"
	case "critical", "error":
		emoji = "🚨"
	case "success":
		emoji = "✅"
	}

	text := fmt.Sprintf("%s *Risk Monitor Alert*\n\n%s", emoji, message)

	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)

	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("text", text)
	data.Set("parse_mode", "Markdown")

	resp, err := http.Post(apiURL, "application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// SendRiskAlert formats and sends a threshold alert from the calculator.
func (t *TelegramNotifier) SendRiskAlert(alert risk.Alert) error {
	message := fmt.Sprintf("*%s*\nCurrent: %.2f | Limit: %.2f\n%s",
		alert.Message, alert.Value, alert.Threshold, alert.Recommendation)
	return t.SendAlert(alert.Severity, message)
}

// SendHaltNotice announces a trading halt.
func (t *TelegramNotifier) SendHaltNotice(reason string, portfolioValue float64) error {
	message := fmt.Sprintf("🛑 *TRADING HALTED*\nReason: %s\nPortfolio: $%.2f\nManual resume required.",
		reason, portfolioValue)
	return t.SendAlert("critical", message)
}
