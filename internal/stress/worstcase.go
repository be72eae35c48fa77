package stress

import (
	"math"

	"github.com/ducminhle1904/quant-risk-engine/internal/stats"
)

// WorstCaseAnalysis summarizes the worst observed losses in the
// portfolio's return history.
type WorstCaseAnalysis struct {
	WorstDayPercent   float64 // most negative single-day return, as a loss %
	Worst5DayPercent  float64 // worst rolling 5-day cumulative loss %
	Worst20DayPercent float64 // worst rolling 20-day cumulative loss %
	ProbabilityOfRuin float64
	SampleSize        int
}

// AnalyzeWorstCase scans the observed portfolio returns for the worst
// single-day, rolling-week, and rolling-month losses. An empty history
// yields the zero analysis.
//
// ProbabilityOfRuin is a heuristic, not a closed-form ruin probability:
// it maps the ratio of mean return to volatility through a logistic
// curve, so a zero-edge portfolio scores 0.5 and a strongly positive
// edge approaches 0. Downstream alerting depends on this exact scale.
func (e *Engine) AnalyzeWorstCase() *WorstCaseAnalysis {
	returns := e.calc.PortfolioReturns()
	analysis := &WorstCaseAnalysis{SampleSize: len(returns)}
	if len(returns) == 0 {
		return analysis
	}

	worstDay := 0.0
	for _, r := range returns {
		if r < worstDay {
			worstDay = r
		}
	}
	analysis.WorstDayPercent = -worstDay * 100

	analysis.Worst5DayPercent = worstRollingLoss(returns, 5)
	analysis.Worst20DayPercent = worstRollingLoss(returns, 20)

	mu := stats.Mean(returns)
	sigma := stats.StdDev(returns)
	if sigma > 0 {
		analysis.ProbabilityOfRuin = 1 / (1 + math.Exp(10*mu/sigma))
	}
	return analysis
}

// worstRollingLoss returns the worst cumulative loss over any window of
// the given length, as a positive percent. Windows never exceed the
// available history.
func worstRollingLoss(returns []float64, window int) float64 {
	if len(returns) == 0 {
		return 0
	}
	if window > len(returns) {
		window = len(returns)
	}

	worst := 0.0
	for start := 0; start+window <= len(returns); start++ {
		cumulative := 1.0
		for i := start; i < start+window; i++ {
			cumulative *= 1 + returns[i]
		}
		if loss := 1 - cumulative; loss > worst {
			worst = loss
		}
	}
	return worst * 100
}
