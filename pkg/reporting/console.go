// Package reporting renders risk, stress, and simulation results for
// humans: rounded tables on the console and multi-sheet Excel
// workbooks for offline review.
package reporting

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
	"github.com/ducminhle1904/quant-risk-engine/internal/stress"
)

// ConsoleReporter prints report tables to stdout
type ConsoleReporter struct{}

// NewConsoleReporter creates a new console reporter
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// PrintRiskMetrics prints the current risk snapshot
func (r *ConsoleReporter) PrintRiskMetrics(metrics *risk.RiskMetrics) {
	if metrics == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PORTFOLIO RISK")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"🚦 Risk Level", strings.ToUpper(string(metrics.RiskLevel))},
		{"📉 VaR 95%", fmt.Sprintf("$%.2f", metrics.VaR95)},
		{"📉 VaR 99%", fmt.Sprintf("$%.2f", metrics.VaR99)},
		{"📉 CVaR 95%", fmt.Sprintf("$%.2f", metrics.CVaR95)},
		{"📊 Volatility", fmt.Sprintf("%.2f%%", metrics.Volatility*100)},
	})

	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"🕳️ Drawdown", fmt.Sprintf("%.2f%% (max %.2f%%)", metrics.CurrentDrawdown*100, metrics.MaxDrawdown*100)},
		{"⚖️ Leverage", fmt.Sprintf("%.2fx", metrics.Leverage)},
		{"🎯 Concentration", fmt.Sprintf("%.3f", metrics.ConcentrationIndex)},
		{"🔗 Correlation Risk", fmt.Sprintf("%.2f", metrics.CorrelationRisk)},
		{"📅 Daily Loss", fmt.Sprintf("%.2f%%", metrics.DailyLossPercent)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 35, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()

	for _, alert := range metrics.Alerts {
		emoji := "⚠️"
		if alert.Severity == "critical" {
			emoji = "🚨"
		}
		fmt.Printf("%s [%s] %s — %s\n", emoji, strings.ToUpper(alert.Severity), alert.Message, alert.Recommendation)
	}
	if len(metrics.Alerts) > 0 {
		fmt.Println()
	}
}

// PrintStressResults prints the scenario catalog outcomes
func (r *ConsoleReporter) PrintStressResults(results []*stress.StressResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("STRESS SCENARIOS")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Scenario", "Shock", "Vol Mult", "Impact", "Impact %"})
	for _, result := range results {
		t.AppendRow(table.Row{
			result.Scenario.Name,
			fmt.Sprintf("%.0f%%", result.Scenario.MarketShockPercent),
			fmt.Sprintf("%.1fx", result.Scenario.VolatilityMultiplier),
			fmt.Sprintf("$%.2f", result.TotalImpact),
			fmt.Sprintf("%.2f%%", result.ImpactPercent),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

// PrintMonteCarloResult prints the simulated distribution summary
func (r *ConsoleReporter) PrintMonteCarloResult(result *stress.MonteCarloResult) {
	if result == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("MONTE CARLO (%d paths, %d days)", result.Simulations, result.Config.TimeHorizonDays))
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"💼 Initial Value", fmt.Sprintf("$%.2f", result.InitialValue)},
		{"📊 Mean Final Value", fmt.Sprintf("$%.2f", result.MeanFinalValue)},
		{"📈 Probability of Profit", fmt.Sprintf("%.1f%%", result.ProbabilityOfProfit*100)},
		{"📉 VaR", fmt.Sprintf("$%.2f", result.VaR)},
		{"📉 CVaR", fmt.Sprintf("$%.2f", result.CVaR)},
		{"🏆 Best Case", fmt.Sprintf("$%.2f", result.BestCase)},
		{"🕳️ Worst Case", fmt.Sprintf("$%.2f", result.WorstCase)},
	})

	t.AppendSeparator()

	levels := make([]int, 0, len(result.Percentiles))
	for p := range result.Percentiles {
		levels = append(levels, p)
	}
	sort.Ints(levels)
	for _, p := range levels {
		t.AppendRow(table.Row{fmt.Sprintf("p%d", p), fmt.Sprintf("$%.2f", result.Percentiles[p])})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 24, WidthMax: 24, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, WidthMax: 25, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

// PrintWorstCase prints the historical worst-case analysis
func (r *ConsoleReporter) PrintWorstCase(analysis *stress.WorstCaseAnalysis) {
	if analysis == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("WORST CASE (OBSERVED)")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📅 Worst Day", fmt.Sprintf("-%.2f%%", analysis.WorstDayPercent)},
		{"📅 Worst 5 Days", fmt.Sprintf("-%.2f%%", analysis.Worst5DayPercent)},
		{"📅 Worst 20 Days", fmt.Sprintf("-%.2f%%", analysis.Worst20DayPercent)},
		{"🎲 Probability of Ruin", fmt.Sprintf("%.1f%%", analysis.ProbabilityOfRuin*100)},
		{"🔢 Sample Size", fmt.Sprintf("%d returns", analysis.SampleSize)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 22, WidthMax: 22, Align: text.AlignLeft},
		{Number: 2, WidthMin: 18, WidthMax: 25, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}
