package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/metrics"
)

// Registry maps metric names to constructors.
type Registry struct {
	metrics map[string]func() dynamo.Metric
}

func NewRegistry() *Registry {
	r := &Registry{metrics: make(map[string]func() dynamo.Metric)}

	r.metrics["population"] = func() dynamo.Metric { return metrics.NewPopulation() }
	r.metrics["saturation"] = func() dynamo.Metric { return metrics.NewSaturation() }
	r.metrics["throughput"] = func() dynamo.Metric { return metrics.NewThroughput() }
	r.metrics["acceptance"] = func() dynamo.Metric { return metrics.NewAcceptance() }
	r.metrics["critical_fraction"] = func() dynamo.Metric { return metrics.NewCriticalFraction() }

	return r
}

func (r *Registry) GetMetric(name string) (dynamo.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

// Metrics builds the named metrics, or every metric when names is empty.
func (r *Registry) Metrics(names ...string) ([]dynamo.Metric, error) {
	if len(names) == 0 {
		names = r.ListMetrics()
	}
	out := make([]dynamo.Metric, 0, len(names))
	for _, n := range names {
		m, err := r.GetMetric(n)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
