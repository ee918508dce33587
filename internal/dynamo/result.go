package dynamo

import "fmt"

// Sample is one recorded tick of a headless run.
type Sample struct {
	Tick       uint64
	Population int
	Spawned    bool
	Expired    int
	Recorded   int
	Critical   bool
	Intensity  float64
	Upward     int
	Downward   int
}

// Columns lists the numeric series a Result exposes, in CSV order.
var Columns = []string{"population", "spawned", "expired", "recorded", "critical", "intensity", "upward", "downward"}

type Result struct {
	Samples       []Sample
	Metrics       map[string]float64
	MemoryEntries int
}

func (s Sample) Value(column string) (float64, error) {
	switch column {
	case "population":
		return float64(s.Population), nil
	case "spawned":
		return boolFloat(s.Spawned), nil
	case "expired":
		return float64(s.Expired), nil
	case "recorded":
		return float64(s.Recorded), nil
	case "critical":
		return boolFloat(s.Critical), nil
	case "intensity":
		return s.Intensity, nil
	case "upward":
		return float64(s.Upward), nil
	case "downward":
		return float64(s.Downward), nil
	}
	return 0, fmt.Errorf("unknown column %q", column)
}

// Column extracts one series from the samples.
func (r *Result) Column(name string) ([]float64, error) {
	if len(r.Samples) == 0 {
		return nil, ErrNoData
	}
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		v, err := s.Value(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
