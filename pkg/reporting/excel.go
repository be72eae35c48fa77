package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
	"github.com/ducminhle1904/quant-risk-engine/internal/stress"
)

// ExcelStyles holds the style ids used across sheets
type ExcelStyles struct {
	HeaderStyle   int
	CurrencyStyle int
	PercentStyle  int
}

// ExcelReporter writes a multi-sheet risk report workbook
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// RiskReport bundles everything one workbook covers.
type RiskReport struct {
	Metrics    *risk.RiskMetrics
	Stress     []*stress.StressResult
	MonteCarlo *stress.MonteCarloResult
	WorstCase  *stress.WorstCaseAnalysis
}

// WriteReportXLSX writes the full risk report workbook to path
func (r *ExcelReporter) WriteReportXLSX(report *RiskReport, path string) error {
	// Ensure directory exists before creating file
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const metricsSheet = "Risk Metrics"
	const stressSheet = "Stress Scenarios"
	const monteCarloSheet = "Monte Carlo"

	fx.SetSheetName(fx.GetSheetName(0), metricsSheet)
	fx.NewSheet(stressSheet)
	fx.NewSheet(monteCarloSheet)

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeMetricsSheet(fx, metricsSheet, report, styles); err != nil {
		return err
	}
	if err := r.writeStressSheet(fx, stressSheet, report.Stress, styles); err != nil {
		return err
	}
	if err := r.writeMonteCarloSheet(fx, monteCarloSheet, report, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

// createExcelStyles creates the shared workbook styles
func (r *ExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	// Header style - dark background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7, // Currency format with $ symbol
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10, // Percentage with two decimals
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	return styles, err
}

func (r *ExcelReporter) writeMetricsSheet(fx *excelize.File, sheet string, report *RiskReport, styles ExcelStyles) error {
	metrics := report.Metrics
	if metrics == nil {
		return nil
	}

	fx.SetCellValue(sheet, "A1", "Metric")
	fx.SetCellValue(sheet, "B1", "Value")
	fx.SetCellStyle(sheet, "A1", "B1", styles.HeaderStyle)

	rows := []struct {
		name     string
		value    interface{}
		currency bool
	}{
		{"Risk Level", string(metrics.RiskLevel), false},
		{"VaR 95%", metrics.VaR95, true},
		{"VaR 99%", metrics.VaR99, true},
		{"CVaR 95%", metrics.CVaR95, true},
		{"Volatility (annualized)", metrics.Volatility, false},
		{"Current Drawdown", metrics.CurrentDrawdown, false},
		{"Max Drawdown", metrics.MaxDrawdown, false},
		{"Concentration Index", metrics.ConcentrationIndex, false},
		{"Largest Position %", metrics.LargestPositionPercent, false},
		{"Leverage", metrics.Leverage, false},
		{"Daily Loss %", metrics.DailyLossPercent, false},
	}

	for i, row := range rows {
		cellA := fmt.Sprintf("A%d", i+2)
		cellB := fmt.Sprintf("B%d", i+2)
		fx.SetCellValue(sheet, cellA, row.name)
		fx.SetCellValue(sheet, cellB, row.value)
		if row.currency {
			fx.SetCellStyle(sheet, cellB, cellB, styles.CurrencyStyle)
		}
	}

	// Alerts below the metric block
	if len(metrics.Alerts) > 0 {
		start := len(rows) + 3
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", start), "Alert")
		fx.SetCellValue(sheet, fmt.Sprintf("B%d", start), "Severity")
		fx.SetCellStyle(sheet, fmt.Sprintf("A%d", start), fmt.Sprintf("B%d", start), styles.HeaderStyle)
		for i, alert := range metrics.Alerts {
			fx.SetCellValue(sheet, fmt.Sprintf("A%d", start+1+i), alert.Message)
			fx.SetCellValue(sheet, fmt.Sprintf("B%d", start+1+i), alert.Severity)
		}
	}

	fx.SetColWidth(sheet, "A", "A", 28)
	fx.SetColWidth(sheet, "B", "B", 20)
	return nil
}

func (r *ExcelReporter) writeStressSheet(fx *excelize.File, sheet string, results []*stress.StressResult, styles ExcelStyles) error {
	headers := []string{"Scenario", "Market Shock %", "Volatility Multiplier", "Total Impact", "Impact %"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, styles.HeaderStyle)
	}

	for i, result := range results {
		row := i + 2
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), result.Scenario.Name)
		fx.SetCellValue(sheet, fmt.Sprintf("B%d", row), result.Scenario.MarketShockPercent)
		fx.SetCellValue(sheet, fmt.Sprintf("C%d", row), result.Scenario.VolatilityMultiplier)
		fx.SetCellValue(sheet, fmt.Sprintf("D%d", row), result.TotalImpact)
		fx.SetCellValue(sheet, fmt.Sprintf("E%d", row), result.ImpactPercent)
		fx.SetCellStyle(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), styles.CurrencyStyle)
	}

	fx.SetColWidth(sheet, "A", "A", 22)
	fx.SetColWidth(sheet, "B", "E", 18)
	return nil
}

func (r *ExcelReporter) writeMonteCarloSheet(fx *excelize.File, sheet string, report *RiskReport, styles ExcelStyles) error {
	result := report.MonteCarlo
	if result == nil {
		return nil
	}

	fx.SetCellValue(sheet, "A1", "Statistic")
	fx.SetCellValue(sheet, "B1", "Value")
	fx.SetCellStyle(sheet, "A1", "B1", styles.HeaderStyle)

	rows := []struct {
		name  string
		value interface{}
	}{
		{"Simulations", result.Simulations},
		{"Horizon (days)", result.Config.TimeHorizonDays},
		{"Initial Value", result.InitialValue},
		{"Mean Final Value", result.MeanFinalValue},
		{"Probability of Profit", result.ProbabilityOfProfit},
		{"VaR", result.VaR},
		{"CVaR", result.CVaR},
		{"Best Case", result.BestCase},
		{"Worst Case", result.WorstCase},
	}
	for i, row := range rows {
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), row.name)
		fx.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), row.value)
	}

	levels := make([]int, 0, len(result.Percentiles))
	for p := range result.Percentiles {
		levels = append(levels, p)
	}
	sort.Ints(levels)

	start := len(rows) + 3
	fx.SetCellValue(sheet, fmt.Sprintf("A%d", start), "Percentile")
	fx.SetCellValue(sheet, fmt.Sprintf("B%d", start), "Final Value")
	fx.SetCellStyle(sheet, fmt.Sprintf("A%d", start), fmt.Sprintf("B%d", start), styles.HeaderStyle)
	for i, p := range levels {
		row := start + 1 + i
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("p%d", p))
		fx.SetCellValue(sheet, fmt.Sprintf("B%d", row), result.Percentiles[p])
		fx.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), styles.CurrencyStyle)
	}

	// Worst-case analysis block alongside the distribution
	if wc := report.WorstCase; wc != nil {
		fx.SetCellValue(sheet, "D1", "Worst Case (Observed)")
		fx.SetCellStyle(sheet, "D1", "D1", styles.HeaderStyle)
		wcRows := []struct {
			name  string
			value float64
		}{
			{"Worst Day %", wc.WorstDayPercent},
			{"Worst 5 Days %", wc.Worst5DayPercent},
			{"Worst 20 Days %", wc.Worst20DayPercent},
			{"Probability of Ruin", wc.ProbabilityOfRuin},
		}
		for i, row := range wcRows {
			fx.SetCellValue(sheet, fmt.Sprintf("D%d", i+2), row.name)
			fx.SetCellValue(sheet, fmt.Sprintf("E%d", i+2), row.value)
		}
	}

	fx.SetColWidth(sheet, "A", "A", 24)
	fx.SetColWidth(sheet, "B", "B", 18)
	fx.SetColWidth(sheet, "D", "D", 24)
	return nil
}
