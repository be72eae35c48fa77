// Package correlation analyzes cross-asset relationships inside a
// portfolio: pairwise correlation matrices, concentration hot spots, and
// inverse-correlated hedge candidates.
package correlation

import (
	"sort"

	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
	"github.com/ducminhle1904/quant-risk-engine/internal/stats"
)

// HedgeCorrelationCeiling is the strongest correlation a candidate may
// have with an over-weighted holding and still count as a hedge.
const HedgeCorrelationCeiling = -0.3

// ConcentrationRisk flags a position whose weight exceeds the caller's
// threshold.
type ConcentrationRisk struct {
	Symbol    string
	Weight    float64 // fraction of total value
	Value     float64
	RiskScore float64 // weight scaled by the position's own volatility
}

// HedgeRecommendation proposes an inverse-correlated hedge for an
// over-weighted holding.
type HedgeRecommendation struct {
	Symbol        string  // candidate hedge instrument
	AgainstSymbol string  // the over-weighted holding being hedged
	Correlation   float64 // negative by construction
	HedgeRatio    float64 // fraction of the holding's value to offset
	Effectiveness float64 // |correlation|, higher is better
}

// Analyzer computes correlation and concentration diagnostics over the
// shared price history store.
type Analyzer struct {
	history *risk.HistoryStore
}

// NewAnalyzer creates an analyzer over the shared history store.
func NewAnalyzer(history *risk.HistoryStore) *Analyzer {
	if history == nil {
		history = risk.NewHistoryStore(risk.DefaultHistoryLength)
	}
	return &Analyzer{history: history}
}

// History returns the underlying store.
func (a *Analyzer) History() *risk.HistoryStore {
	return a.history
}

// AddPriceData appends an observation for the symbol.
func (a *Analyzer) AddPriceData(symbol string, price float64) {
	a.history.AddPrice(symbol, price)
}

// CorrelationMatrix builds the symmetric n x n return-correlation matrix
// for the given symbols. The diagonal is forced to exactly 1.0; pairs
// without enough overlapping history yield 0.
func (a *Analyzer) CorrelationMatrix(symbols []string) [][]float64 {
	n := len(symbols)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			corr := a.PairCorrelation(symbols[i], symbols[j])
			matrix[i][j] = corr
			matrix[j][i] = corr
		}
	}
	return matrix
}

// PairCorrelation returns the return correlation between two symbols
// over their overlapping history, 0 when overlap is insufficient.
func (a *Analyzer) PairCorrelation(x, y string) float64 {
	rx := a.history.Returns(x)
	ry := a.history.Returns(y)

	n := len(rx)
	if len(ry) < n {
		n = len(ry)
	}
	if n < 2 {
		return 0
	}
	return stats.PearsonCorrelation(rx[len(rx)-n:], ry[len(ry)-n:])
}

// DetectConcentrationRisk returns one entry per position whose weight
// exceeds threshold (a fraction, e.g. 0.2 for 20%). An empty or
// zero-value portfolio yields no entries.
func (a *Analyzer) DetectConcentrationRisk(portfolio *risk.Portfolio, threshold float64) []ConcentrationRisk {
	if portfolio == nil || portfolio.TotalValue <= 0 {
		return nil
	}

	var risks []ConcentrationRisk
	for _, pos := range portfolio.Positions {
		weight := pos.MarketValue() / portfolio.TotalValue
		if weight <= threshold {
			continue
		}
		// Volatile concentrated positions score worse than calm ones;
		// without history the weight alone carries the score.
		vol := a.history.Volatility(pos.Symbol)
		score := weight * (1 + vol*100)
		risks = append(risks, ConcentrationRisk{
			Symbol:    pos.Symbol,
			Weight:    weight,
			Value:     pos.MarketValue(),
			RiskScore: score,
		})
	}

	sort.Slice(risks, func(i, j int) bool { return risks[i].RiskScore > risks[j].RiskScore })
	return risks
}

// HedgeRecommendations filters candidate symbols down to those with
// correlation below HedgeCorrelationCeiling against an over-weighted
// holding, sized to offset targetFraction of that holding's value.
// Results are sorted by hedge effectiveness, most negative correlation
// first.
func (a *Analyzer) HedgeRecommendations(portfolio *risk.Portfolio, candidates []string, overweightThreshold, targetFraction float64) []HedgeRecommendation {
	concentrated := a.DetectConcentrationRisk(portfolio, overweightThreshold)
	if len(concentrated) == 0 {
		return nil
	}

	held := make(map[string]bool, len(portfolio.Positions))
	for _, pos := range portfolio.Positions {
		held[pos.Symbol] = true
	}

	var recs []HedgeRecommendation
	for _, conc := range concentrated {
		for _, candidate := range candidates {
			if held[candidate] {
				continue
			}
			corr := a.PairCorrelation(conc.Symbol, candidate)
			if corr >= HedgeCorrelationCeiling {
				continue
			}
			// Scale the hedge by how much of the pair's movement the
			// candidate actually offsets.
			ratio := targetFraction * -corr
			recs = append(recs, HedgeRecommendation{
				Symbol:        candidate,
				AgainstSymbol: conc.Symbol,
				Correlation:   corr,
				HedgeRatio:    ratio,
				Effectiveness: -corr,
			})
		}
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].Correlation < recs[j].Correlation })
	return recs
}
