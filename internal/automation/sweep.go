package automation

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/metrics"
	"github.com/san-kum/levelflow/internal/sim"
)

type SweepConfig struct {
	Base      sim.Options
	Pair      int
	From      float64
	To        float64
	Step      float64
	Runs      int
	Ticks     int
	SeedStart int64
}

type SweepPoint struct {
	Value    float64
	Optimal  int
	Critical bool
	Metrics  map[string]float64
}

// Values lists the swept coupling values, rounded to 0.01.
func (c SweepConfig) Values() ([]float64, error) {
	if c.Step <= 0 || c.To < c.From {
		return nil, &dynamo.ControlError{Op: "sweep", Value: c.Step, Wrapped: dynamo.ErrParameterBounds}
	}
	n := int(math.Floor((c.To-c.From)/c.Step+1e-9)) + 1
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = math.Round((c.From+float64(i)*c.Step)*100) / 100
	}
	return vals, nil
}

// Sweep averages the default metrics over Runs seeds at each coupling value
// of one pair.
func Sweep(ctx context.Context, cfg SweepConfig) ([]SweepPoint, error) {
	if cfg.Pair < 0 || cfg.Pair >= dynamo.NumPairs {
		return nil, &dynamo.ControlError{Op: "sweep pair", Value: float64(cfg.Pair), Wrapped: dynamo.ErrParameterBounds}
	}
	vals, err := cfg.Values()
	if err != nil {
		return nil, err
	}
	if cfg.Runs <= 0 {
		cfg.Runs = 1
	}

	complexity := cfg.Base.Complexity
	if complexity == 0 {
		complexity = dynamo.DefaultComplexity
	}

	points := make([]SweepPoint, 0, len(vals))
	for _, v := range vals {
		opts := cfg.Base
		if opts.Coupling == (dynamo.Coupling{}) {
			opts.Coupling = dynamo.DefaultCouplingVector()
		}
		opts.Coupling[cfg.Pair] = v

		results, err := sim.NewEnsemble(opts, cfg.Runs, cfg.SeedStart, metrics.Defaults).Run(ctx, cfg.Ticks)
		if err != nil {
			return nil, fmt.Errorf("coupling %g: %w", v, err)
		}
		optimal := metrics.OptimalComplexity(opts.Coupling)
		points = append(points, SweepPoint{
			Value:    v,
			Optimal:  optimal,
			Critical: optimal == complexity,
			Metrics:  sim.Mean(results),
		})
	}
	return points, nil
}
