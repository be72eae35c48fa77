package bybit

import (
	"context"
	"encoding/json"
	"fmt"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
)

// AccountType represents different account types in Bybit
type AccountType string

const (
	AccountTypeUnified  AccountType = "UNIFIED"
	AccountTypeSpot     AccountType = "SPOT"
	AccountTypeContract AccountType = "CONTRACT"
)

// CoinBalance is one coin's holding valued in USD.
type CoinBalance struct {
	Coin          string
	Equity        float64
	UsdValue      float64
	UnrealizedPnL float64
}

// AccountSnapshot is the wallet state the risk monitor works from.
type AccountSnapshot struct {
	TotalEquity      float64
	AvailableBalance float64
	UnrealizedPnL    float64
	Coins            []CoinBalance
}

// GetAccountSnapshot retrieves the unified wallet state.
func (c *Client) GetAccountSnapshot(ctx context.Context, accountType AccountType) (*AccountSnapshot, error) {
	params := map[string]interface{}{
		"accountType": string(accountType),
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get account balance: %w", err)
	}

	snapshot, err := parseAccountSnapshot(result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse account balance response: %w", err)
	}
	return snapshot, nil
}

// stablecoins are treated as cash rather than positions.
var stablecoins = map[string]bool{
	"USDT": true,
	"USDC": true,
	"DAI":  true,
	"USD":  true,
}

// Portfolio converts the snapshot into the engine's portfolio shape:
// stablecoin balances become cash, every other coin a long position
// valued at its USD price.
func (s *AccountSnapshot) Portfolio() *risk.Portfolio {
	portfolio := &risk.Portfolio{TotalValue: s.TotalEquity}
	for _, coin := range s.Coins {
		if stablecoins[coin.Coin] {
			portfolio.Cash += coin.UsdValue
			continue
		}
		if coin.Equity <= 0 || coin.UsdValue <= 0 {
			continue
		}
		price := coin.UsdValue / coin.Equity
		entry := price
		if coin.UnrealizedPnL != 0 {
			entry = (coin.UsdValue - coin.UnrealizedPnL) / coin.Equity
		}
		portfolio.Positions = append(portfolio.Positions, risk.Position{
			Symbol:       coin.Coin + "USDT",
			Quantity:     coin.Equity,
			EntryPrice:   entry,
			CurrentPrice: price,
			Side:         risk.SideLong,
		})
	}
	return portfolio
}

// parseAccountSnapshot parses the wallet balance API response
func parseAccountSnapshot(response interface{}) (*AccountSnapshot, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type")
	}
	if err := ParseAPIError(serverResp.RetCode, serverResp.RetMsg); err != nil {
		return nil, err
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	var walletResult struct {
		List []struct {
			TotalEquity           string `json:"totalEquity"`
			TotalAvailableBalance string `json:"totalAvailableBalance"`
			TotalPerpUPL          string `json:"totalPerpUPL"`
			Coin                  []struct {
				Coin          string `json:"coin"`
				Equity        string `json:"equity"`
				UsdValue      string `json:"usdValue"`
				UnrealisedPnl string `json:"unrealisedPnl"`
			} `json:"coin"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &walletResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet result: %w", err)
	}
	if len(walletResult.List) == 0 {
		return nil, fmt.Errorf("no account data found")
	}

	account := walletResult.List[0]
	snapshot := &AccountSnapshot{
		TotalEquity:      parseFloat64(account.TotalEquity),
		AvailableBalance: parseFloat64(account.TotalAvailableBalance),
		UnrealizedPnL:    parseFloat64(account.TotalPerpUPL),
		Coins:            make([]CoinBalance, len(account.Coin)),
	}
	for i, coin := range account.Coin {
		snapshot.Coins[i] = CoinBalance{
			Coin:          coin.Coin,
			Equity:        parseFloat64(coin.Equity),
			UsdValue:      parseFloat64(coin.UsdValue),
			UnrealizedPnL: parseFloat64(coin.UnrealisedPnl),
		}
	}
	return snapshot, nil
}
