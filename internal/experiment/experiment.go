package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/sim"
)

type Config struct {
	Name  string
	Sim   sim.Options
	Ticks int
}

type Experiment struct {
	cfg        Config
	simulation *sim.Simulation
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(metrics []dynamo.Metric) error {
	s, err := sim.New(e.cfg.Sim)
	if err != nil {
		return fmt.Errorf("experiment %s: %w", e.cfg.Name, err)
	}
	for _, m := range metrics {
		s.AddMetric(m)
	}
	e.simulation = s
	return nil
}

// Run ticks the simulation headlessly and records one sample per tick.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulation == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	result := &dynamo.Result{Samples: make([]dynamo.Sample, 0, e.cfg.Ticks)}
	for i := 0; i < e.cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		snap := e.simulation.Frame(float64(i+1) * sim.FrameMillis)
		result.Samples = append(result.Samples, sampleOf(snap, e.simulation.LastFrame()))
	}

	result.Metrics = e.simulation.Metrics()
	result.MemoryEntries = len(e.simulation.MemoryEntries())
	return result, nil
}

// Simulation returns the underlying simulation for applying controls.
func (e *Experiment) Simulation() *sim.Simulation {
	return e.simulation
}

func sampleOf(snap sim.Snapshot, f dynamo.FrameStats) dynamo.Sample {
	s := dynamo.Sample{
		Tick:       f.Tick,
		Population: f.Population,
		Spawned:    f.Spawned,
		Expired:    f.Expired,
		Recorded:   f.Recorded,
		Critical:   f.Critical,
		Intensity:  snap.Intensity,
	}
	for _, p := range snap.Particles {
		switch {
		case p.Upward():
			s.Upward++
		case p.End.Level < p.Start.Level:
			s.Downward++
		}
	}
	return s
}
