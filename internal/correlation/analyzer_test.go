package correlation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/quant-risk-engine/internal/risk"
)

// feedSeries pushes a price path into the analyzer for a symbol.
func feedSeries(a *Analyzer, symbol string, prices []float64) {
	for _, p := range prices {
		a.AddPriceData(symbol, p)
	}
}

func trendingUp() []float64 {
	return []float64{100, 102, 104, 103, 106, 108, 110, 109, 112, 115}
}

func trendingDown() []float64 {
	return []float64{100, 98, 96, 97, 94, 92, 90, 91, 88, 85}
}

func TestCorrelationMatrix_Properties(t *testing.T) {
	a := NewAnalyzer(nil)
	feedSeries(a, "AAA", trendingUp())
	feedSeries(a, "BBB", trendingDown())
	feedSeries(a, "CCC", trendingUp())

	symbols := []string{"AAA", "BBB", "CCC"}
	matrix := a.CorrelationMatrix(symbols)

	require.Len(t, matrix, 3)
	for i := range matrix {
		require.Len(t, matrix[i], 3)
		assert.Equal(t, 1.0, matrix[i][i], "diagonal must be exactly 1")
		for j := range matrix[i] {
			assert.Equal(t, matrix[i][j], matrix[j][i], "matrix must be symmetric")
			assert.GreaterOrEqual(t, matrix[i][j], -1.0)
			assert.LessOrEqual(t, matrix[i][j], 1.0)
		}
	}

	// Mirrored paths correlate negatively, matching paths positively.
	assert.Less(t, matrix[0][1], 0.0)
	assert.Greater(t, matrix[0][2], 0.0)
}

func TestCorrelationMatrix_InsufficientHistory(t *testing.T) {
	a := NewAnalyzer(nil)
	feedSeries(a, "AAA", trendingUp())
	a.AddPriceData("NEW", 50) // single observation, no returns yet

	matrix := a.CorrelationMatrix([]string{"AAA", "NEW"})
	assert.Equal(t, 0.0, matrix[0][1])
	assert.Equal(t, 1.0, matrix[1][1])
}

func TestDetectConcentrationRisk(t *testing.T) {
	a := NewAnalyzer(nil)
	portfolio := &risk.Portfolio{
		TotalValue: 100000,
		Positions: []risk.Position{
			{Symbol: "BIG", Quantity: 400, CurrentPrice: 100, Side: risk.SideLong},  // 40%
			{Symbol: "SMALL", Quantity: 50, CurrentPrice: 100, Side: risk.SideLong}, // 5%
		},
	}

	risks := a.DetectConcentrationRisk(portfolio, 0.2)
	require.Len(t, risks, 1)
	assert.Equal(t, "BIG", risks[0].Symbol)
	assert.InDelta(t, 0.4, risks[0].Weight, 1e-9)
	assert.Greater(t, risks[0].RiskScore, 0.0)
}

func TestDetectConcentrationRisk_EmptyPortfolio(t *testing.T) {
	a := NewAnalyzer(nil)
	assert.Nil(t, a.DetectConcentrationRisk(&risk.Portfolio{}, 0.2))
	assert.Nil(t, a.DetectConcentrationRisk(nil, 0.2))
}

func TestHedgeRecommendations(t *testing.T) {
	a := NewAnalyzer(nil)
	feedSeries(a, "BIG", trendingUp())
	feedSeries(a, "INVERSE", trendingDown())
	feedSeries(a, "FRIEND", trendingUp())

	portfolio := &risk.Portfolio{
		TotalValue: 100000,
		Positions: []risk.Position{
			{Symbol: "BIG", Quantity: 400, CurrentPrice: 100, Side: risk.SideLong},
		},
	}

	recs := a.HedgeRecommendations(portfolio, []string{"INVERSE", "FRIEND"}, 0.2, 0.5)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "INVERSE", rec.Symbol)
	assert.Equal(t, "BIG", rec.AgainstSymbol)
	assert.Less(t, rec.Correlation, HedgeCorrelationCeiling)
	assert.Greater(t, rec.HedgeRatio, 0.0)
	assert.InDelta(t, -rec.Correlation, rec.Effectiveness, 1e-9)
}

func TestHedgeRecommendations_SortedByEffectiveness(t *testing.T) {
	a := NewAnalyzer(nil)
	feedSeries(a, "BIG", trendingUp())
	feedSeries(a, "STRONG", trendingDown())
	// A weaker inverse: mostly mirrored with some noise.
	feedSeries(a, "WEAK", []float64{100, 99, 97, 98, 95, 94, 93, 95, 90, 89})

	portfolio := &risk.Portfolio{
		TotalValue: 100000,
		Positions: []risk.Position{
			{Symbol: "BIG", Quantity: 400, CurrentPrice: 100, Side: risk.SideLong},
		},
	}

	recs := a.HedgeRecommendations(portfolio, []string{"WEAK", "STRONG"}, 0.2, 0.5)
	require.GreaterOrEqual(t, len(recs), 1)
	for i := 1; i < len(recs); i++ {
		assert.LessOrEqual(t, recs[i-1].Correlation, recs[i].Correlation)
	}
}

func TestHedgeRecommendations_NoConcentration(t *testing.T) {
	a := NewAnalyzer(nil)
	portfolio := &risk.Portfolio{
		TotalValue: 100000,
		Positions: []risk.Position{
			{Symbol: "TINY", Quantity: 10, CurrentPrice: 100, Side: risk.SideLong},
		},
	}
	assert.Nil(t, a.HedgeRecommendations(portfolio, []string{"ANY"}, 0.2, 0.5))
}
