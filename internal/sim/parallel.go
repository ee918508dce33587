package sim

import (
	"context"
	"sync"

	"github.com/san-kum/levelflow/internal/dynamo"
)

// RunSummary is the outcome of one ensemble member.
type RunSummary struct {
	Seed          int64
	Population    int
	MemoryEntries int
	Metrics       map[string]float64
}

// Ensemble runs independently seeded simulations concurrently.
type Ensemble struct {
	opts       Options
	numRuns    int
	seedStart  int64
	newMetrics func() []dynamo.Metric
}

// NewEnsemble builds numRuns members from opts with seeds seedStart,
// seedStart+1, ... newMetrics supplies a fresh metric set per member.
func NewEnsemble(opts Options, numRuns int, seedStart int64, newMetrics func() []dynamo.Metric) *Ensemble {
	return &Ensemble{opts: opts, numRuns: numRuns, seedStart: seedStart, newMetrics: newMetrics}
}

func (e *Ensemble) Run(ctx context.Context, ticks int) ([]RunSummary, error) {
	results := make([]RunSummary, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			opts := e.opts
			opts.Seed = e.seedStart + int64(idx)
			opts.Rand = nil

			s, err := New(opts)
			if err != nil {
				errs[idx] = err
				return
			}
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					s.AddMetric(m)
				}
			}
			if err := s.Run(ctx, ticks, nil); err != nil {
				errs[idx] = err
				return
			}
			results[idx] = RunSummary{
				Seed:          opts.Seed,
				Population:    s.Population(),
				MemoryEntries: len(s.MemoryEntries()),
				Metrics:       s.Metrics(),
			}
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Mean averages each metric across summaries.
func Mean(results []RunSummary) map[string]float64 {
	out := make(map[string]float64)
	if len(results) == 0 {
		return out
	}
	for _, r := range results {
		for k, v := range r.Metrics {
			out[k] += v
		}
	}
	for k := range out {
		out[k] /= float64(len(results))
	}
	return out
}
