package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
	"github.com/ducminhle1904/quant-risk-engine/internal/stress"
	"github.com/ducminhle1904/quant-risk-engine/pkg/data"
	"github.com/ducminhle1904/quant-risk-engine/pkg/reporting"
	"github.com/ducminhle1904/quant-risk-engine/pkg/types"
)

func main() {
	var (
		dataFile     = flag.String("data", "", "CSV file with OHLCV candles (required)")
		symbol       = flag.String("symbol", "BTCUSDT", "Symbol the data file covers")
		initialValue = flag.Float64("balance", 10000, "Portfolio value the report assumes")
		simulations  = flag.Int("sims", 10000, "Number of Monte Carlo paths")
		horizon      = flag.Int("horizon", 30, "Simulation horizon in days")
		confidence   = flag.Float64("confidence", 0.95, "VaR confidence level")
		seed         = flag.Int64("seed", 0, "Random seed (0 = non-deterministic)")
		output       = flag.String("output", "", "Write an xlsx report to this path (optional)")
	)
	flag.Parse()

	if *dataFile == "" {
		fmt.Println("❌ -data is required")
		flag.Usage()
		os.Exit(1)
	}

	fmt.Println("📉 Stress Report")
	fmt.Printf("📊 Data: %s (%s)\n", *dataFile, *symbol)
	fmt.Printf("💰 Portfolio value: $%.2f\n", *initialValue)
	fmt.Println(strings.Repeat("=", 50))

	provider := data.NewCSVProvider()
	candles, err := provider.LoadData(*dataFile)
	if err != nil {
		log.Fatalf("Failed to load data: %v", err)
	}
	if err := provider.ValidateData(candles); err != nil {
		log.Fatalf("Invalid data: %v", err)
	}
	fmt.Printf("✅ Loaded %d candles (%s → %s)\n\n",
		len(candles),
		candles[0].Timestamp.Format("2006-01-02"),
		candles[len(candles)-1].Timestamp.Format("2006-01-02"))

	calc := risk.NewCalculator(risk.DefaultRiskLimits(), nil)
	portfolio := replayHistory(calc, candles, *symbol, *initialValue)
	metrics := calc.Calculate(portfolio)

	engine := stress.NewEngine(calc)
	stressResults := engine.RunCatalog(portfolio)
	worstCase := engine.AnalyzeWorstCase()

	mcConfig := stress.MonteCarloConfig{
		NumSimulations:  *simulations,
		TimeHorizonDays: *horizon,
		ConfidenceLevel: *confidence,
	}
	if *seed != 0 {
		mcConfig.Seed = seed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	mcResult, err := engine.RunMonteCarlo(ctx, *initialValue, mcConfig)
	if err != nil {
		log.Fatalf("Monte Carlo failed: %v", err)
	}

	console := reporting.NewConsoleReporter()
	console.PrintRiskMetrics(metrics)
	console.PrintStressResults(stressResults)
	console.PrintMonteCarloResult(mcResult)
	console.PrintWorstCase(worstCase)

	if *output != "" {
		report := &reporting.RiskReport{
			Metrics:    metrics,
			Stress:     stressResults,
			MonteCarlo: mcResult,
			WorstCase:  worstCase,
		}
		if err := reporting.NewExcelReporter().WriteReportXLSX(report, *output); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		fmt.Printf("\n📄 Report written to %s\n", *output)
	}
}

// replayHistory feeds the candle series through the calculator as if the
// whole balance had been held in the symbol, so returns, volatility, and
// drawdown reflect the asset's actual path. The returned portfolio is the
// final-bar state used for stress scenarios.
func replayHistory(calc *risk.Calculator, candles []types.OHLCV, symbol string, initialValue float64) *risk.Portfolio {
	closes := types.Closes(candles)
	first := closes[0]
	quantity := initialValue / first
	calc.StartNewSession(initialValue)

	var portfolio *risk.Portfolio
	for _, price := range closes {
		calc.History().AddPrice(symbol, price)
		portfolio = &risk.Portfolio{
			Positions: []risk.Position{{
				Symbol:       symbol,
				Quantity:     quantity,
				EntryPrice:   first,
				CurrentPrice: price,
				Side:         risk.SideLong,
			}},
			TotalValue: quantity * price,
		}
		calc.Calculate(portfolio)
	}
	return portfolio
}
