package analysis

import "github.com/san-kum/levelflow/internal/dynamo"

type Summary struct {
	Ticks            int
	MeanPopulation   float64
	PeakPopulation   int
	Spawned          int
	Expired          int
	Recorded         int
	CriticalFraction float64
	// UpwardFraction is the share of directed particle-ticks travelling up.
	// It is 0 when no particle changed level.
	UpwardFraction float64
}

func Summarize(result *dynamo.Result) (Summary, error) {
	if result == nil || len(result.Samples) == 0 {
		return Summary{}, dynamo.ErrNoData
	}

	var s Summary
	var pop float64
	var critical, up, down int
	for _, sample := range result.Samples {
		pop += float64(sample.Population)
		s.PeakPopulation = max(s.PeakPopulation, sample.Population)
		if sample.Spawned {
			s.Spawned++
		}
		s.Expired += sample.Expired
		s.Recorded += sample.Recorded
		if sample.Critical {
			critical++
		}
		up += sample.Upward
		down += sample.Downward
	}

	s.Ticks = len(result.Samples)
	s.MeanPopulation = pop / float64(s.Ticks)
	s.CriticalFraction = float64(critical) / float64(s.Ticks)
	if up+down > 0 {
		s.UpwardFraction = float64(up) / float64(up+down)
	}
	return s, nil
}
