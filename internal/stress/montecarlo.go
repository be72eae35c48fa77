package stress

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/ducminhle1904/quant-risk-engine/internal/stats"
)

// MonteCarloConfig parameterizes a simulation run. Seed is optional:
// nil keeps the default non-reproducible time-based seeding; tests pass
// a fixed seed.
type MonteCarloConfig struct {
	NumSimulations  int
	TimeHorizonDays int
	ConfidenceLevel float64 // e.g. 0.95
	Seed            *int64
}

// Validate rejects impossible parameters before any simulation work.
func (c MonteCarloConfig) Validate() error {
	if c.NumSimulations <= 0 {
		return fmt.Errorf("numSimulations %d must be positive", c.NumSimulations)
	}
	if c.TimeHorizonDays <= 0 {
		return fmt.Errorf("timeHorizonDays %d must be positive", c.TimeHorizonDays)
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("confidenceLevel %.2f must be in (0, 1)", c.ConfidenceLevel)
	}
	return nil
}

// MonteCarloResult summarizes the simulated final-value distribution.
type MonteCarloResult struct {
	Config              MonteCarloConfig
	InitialValue        float64
	MeanFinalValue      float64
	Percentiles         map[int]float64 // p5, p10, p25, p50, p75, p90, p95
	VaR                 float64         // loss at the configured confidence
	CVaR                float64         // mean loss beyond the VaR cutoff
	ProbabilityOfProfit float64
	WorstCase           float64
	BestCase            float64
	Simulations         int
	Elapsed             time.Duration
}

// RunMonteCarlo simulates independent cumulative-return paths over the
// horizon, drawing Box-Muller normal variates parameterized by the
// portfolio's observed mean/stddev of returns. Paths are split across a
// worker per CPU and the run honors context cancellation.
func (e *Engine) RunMonteCarlo(ctx context.Context, initialValue float64, config MonteCarloConfig) (*MonteCarloResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	returns := e.calc.PortfolioReturns()
	mu := stats.Mean(returns)
	sigma := stats.StdDev(returns)

	baseSeed := time.Now().UnixNano()
	if config.Seed != nil {
		baseSeed = *config.Seed
	}

	workers := runtime.NumCPU()
	if workers > config.NumSimulations {
		workers = config.NumSimulations
	}

	finals := make([]float64, config.NumSimulations)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * config.NumSimulations / workers
		hi := (w + 1) * config.NumSimulations / workers
		wg.Add(1)
		go func(worker, lo, hi int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(baseSeed + int64(worker)))
			for i := lo; i < hi; i++ {
				if i%256 == 0 && ctx.Err() != nil {
					return
				}
				finals[i] = simulatePath(rng, initialValue, mu, sigma, config.TimeHorizonDays)
			}
		}(w, lo, hi)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return summarize(finals, initialValue, config, time.Since(start)), nil
}

// simulatePath compounds daily returns drawn from N(mu, sigma) over the
// horizon. A floor at zero keeps ruinous paths from going negative.
func simulatePath(rng *rand.Rand, initial, mu, sigma float64, days int) float64 {
	value := initial
	for d := 0; d < days; d++ {
		value *= 1 + mu + sigma*boxMuller(rng)
		if value <= 0 {
			return 0
		}
	}
	return value
}

// boxMuller draws a standard normal variate via the Box-Muller transform.
func boxMuller(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func summarize(finals []float64, initialValue float64, config MonteCarloConfig, elapsed time.Duration) *MonteCarloResult {
	sorted := make([]float64, len(finals))
	copy(sorted, finals)
	sort.Float64s(sorted)

	result := &MonteCarloResult{
		Config:       config,
		InitialValue: initialValue,
		Percentiles:  make(map[int]float64, 7),
		WorstCase:    sorted[0],
		BestCase:     sorted[len(sorted)-1],
		Simulations:  len(sorted),
		Elapsed:      elapsed,
	}

	for _, p := range []int{5, 10, 25, 50, 75, 90, 95} {
		result.Percentiles[p] = stats.Percentile(sorted, float64(p))
	}

	sum := 0.0
	profitable := 0
	for _, v := range sorted {
		sum += v
		if v > initialValue {
			profitable++
		}
	}
	result.MeanFinalValue = sum / float64(len(sorted))
	result.ProbabilityOfProfit = float64(profitable) / float64(len(sorted))

	// Loss quantile at the configured confidence, e.g. index 5% for 95%.
	cutoff := int(float64(len(sorted)) * (1 - config.ConfidenceLevel))
	if cutoff >= len(sorted) {
		cutoff = len(sorted) - 1
	}
	result.VaR = lossVersus(initialValue, sorted[cutoff])

	tailSum := 0.0
	for i := 0; i <= cutoff; i++ {
		tailSum += lossVersus(initialValue, sorted[i])
	}
	result.CVaR = tailSum / float64(cutoff+1)
	if result.CVaR < result.VaR {
		result.CVaR = result.VaR
	}

	return result
}

func lossVersus(initial, final float64) float64 {
	loss := initial - final
	if loss < 0 {
		return 0
	}
	return loss
}
