// Package automation replays scripted control sequences and parameter
// sweeps against headless simulations.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/logging"
	"github.com/san-kum/levelflow/internal/sim"
)

var errStepAction = errors.New("step must name exactly one action")

type CouplingStep struct {
	Pair  int     `yaml:"pair"`
	Value float64 `yaml:"value"`
}

// Step is one scripted action. Exactly one field is set.
type Step struct {
	Toggle     string        `yaml:"toggle,omitempty"`
	Complexity *int          `yaml:"complexity,omitempty"`
	Coupling   *CouplingStep `yaml:"coupling,omitempty"`
	Reset      bool          `yaml:"reset,omitempty"`
	Ticks      int           `yaml:"ticks,omitempty"`
}

type Scenario struct {
	Name   string `yaml:"name"`
	Preset string `yaml:"preset,omitempty"`
	Seed   int64  `yaml:"seed,omitempty"`
	Steps  []Step `yaml:"steps"`
}

// StepReport is the simulation state after a step completed.
type StepReport struct {
	Index       int
	Action      string
	Tick        uint64
	State       sim.State
	Population  int
	Memory      int
	Complexity  int
	Coupling    dynamo.Coupling
	Critical    bool
	Description string
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) Validate() error {
	for i, st := range sc.Steps {
		n := 0
		if st.Toggle != "" {
			if _, err := dynamo.ParseMode(st.Toggle); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			n++
		}
		if st.Complexity != nil {
			n++
		}
		if st.Coupling != nil {
			n++
		}
		if st.Reset {
			n++
		}
		if st.Ticks > 0 {
			n++
		}
		if st.Ticks < 0 {
			return fmt.Errorf("step %d: ticks: %w", i+1, dynamo.ErrParameterBounds)
		}
		if n != 1 {
			return fmt.Errorf("step %d: %w", i+1, errStepAction)
		}
	}
	return nil
}

func (st Step) action() string {
	switch {
	case st.Toggle != "":
		return "toggle " + st.Toggle
	case st.Complexity != nil:
		return fmt.Sprintf("complexity %d", *st.Complexity)
	case st.Coupling != nil:
		return fmt.Sprintf("coupling %d=%g", st.Coupling.Pair, st.Coupling.Value)
	case st.Reset:
		return "reset"
	}
	return fmt.Sprintf("ticks %d", st.Ticks)
}

// Run applies every step to s in order. A rejected control aborts the run
// with the reports gathered so far.
func (sc *Scenario) Run(ctx context.Context, s *sim.Simulation, logger *slog.Logger) ([]StepReport, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	reports := make([]StepReport, 0, len(sc.Steps))
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		if err := apply(ctx, s, st); err != nil {
			return reports, fmt.Errorf("step %d (%s): %w", i+1, st.action(), err)
		}
		r := report(i+1, st.action(), s)
		logger.Debug("scenario step", "scenario", sc.Name, "step", r.Index, "action", r.Action,
			"tick", r.Tick, "population", r.Population)
		reports = append(reports, r)
	}
	return reports, nil
}

func apply(ctx context.Context, s *sim.Simulation, st Step) error {
	switch {
	case st.Toggle != "":
		m, err := dynamo.ParseMode(st.Toggle)
		if err != nil {
			return err
		}
		s.ToggleMode(m)
	case st.Complexity != nil:
		return s.SetComplexity(*st.Complexity)
	case st.Coupling != nil:
		return s.SetCoupling(st.Coupling.Pair, st.Coupling.Value)
	case st.Reset:
		s.Reset()
	default:
		return s.Run(ctx, st.Ticks, nil)
	}
	return nil
}

func report(idx int, action string, s *sim.Simulation) StepReport {
	snap := s.Snapshot()
	return StepReport{
		Index:       idx,
		Action:      action,
		Tick:        snap.Tick,
		State:       snap.State,
		Population:  len(snap.Particles),
		Memory:      snap.MemoryEntries,
		Complexity:  snap.Complexity,
		Coupling:    snap.Coupling,
		Critical:    snap.Critical,
		Description: snap.Description,
	}
}
