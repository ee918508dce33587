package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/edgemem"
	"github.com/san-kum/levelflow/internal/geometry"
	"github.com/san-kum/levelflow/internal/logging"
	"github.com/san-kum/levelflow/internal/metrics"
	"github.com/san-kum/levelflow/internal/particle"
	"github.com/san-kum/levelflow/internal/spawn"
)

const (
	FrameInterval = time.Second / 60
	FrameMillis   = 1000.0 / 60
)

// State is the scheduler-facing phase of the simulation.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

type Options struct {
	Complexity    int
	Coupling      dynamo.Coupling
	Modes         dynamo.ModeSet
	MaxPopulation int
	Seed          int64
	Mapper        geometry.Mapper
	Logger        *slog.Logger
	// Rand overrides the seeded source when set.
	Rand spawn.Rand
}

func DefaultOptions() Options {
	return Options{
		Complexity:    dynamo.DefaultComplexity,
		Coupling:      dynamo.DefaultCouplingVector(),
		MaxPopulation: spawn.DefaultMaxPopulation,
		Seed:          time.Now().UnixNano(),
		Mapper:        geometry.Default(),
	}
}

// Simulation owns the particle population, edge memory and controls. Every
// method takes the same lock, so a tick always sees one consistent
// configuration and control events land between ticks.
type Simulation struct {
	mu sync.Mutex

	initial dynamo.Coupling
	initN   int
	mapper  geometry.Mapper
	policy  *spawn.Policy
	memory  *edgemem.Memory
	log     *slog.Logger

	particles   []*particle.Particle
	modes       dynamo.ModeSet
	complexity  int
	coupling    dynamo.Coupling
	description string
	crit        metrics.Criticality
	tick        uint64
	last        dynamo.FrameStats
	metrics     []dynamo.Metric
}

// New validates opts and builds a simulation. Zero-valued fields fall back
// to DefaultOptions.
func New(opts Options) (*Simulation, error) {
	def := DefaultOptions()
	if opts.Complexity == 0 {
		opts.Complexity = def.Complexity
	}
	if opts.Coupling == (dynamo.Coupling{}) {
		opts.Coupling = def.Coupling
	}
	if opts.MaxPopulation <= 0 {
		opts.MaxPopulation = def.MaxPopulation
	}
	if opts.Mapper == (geometry.Mapper{}) {
		opts.Mapper = def.Mapper
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if err := checkComplexity(opts.Complexity); err != nil {
		return nil, err
	}
	for i, v := range opts.Coupling {
		if err := checkCoupling(i, v); err != nil {
			return nil, err
		}
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(opts.Seed))
	}

	s := &Simulation{
		initial:    opts.Coupling,
		initN:      opts.Complexity,
		mapper:     opts.Mapper,
		policy:     spawn.New(rng, opts.MaxPopulation),
		memory:     edgemem.New(),
		log:        opts.Logger,
		particles:  make([]*particle.Particle, 0, opts.MaxPopulation),
		modes:      opts.Modes,
		complexity: opts.Complexity,
		coupling:   opts.Coupling,
	}
	s.crit.Evaluate(s.complexity, s.coupling)
	return s, nil
}

func (s *Simulation) AddMetric(m dynamo.Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, m)
}

// Metrics returns the current value of every registered metric.
func (s *Simulation) Metrics() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Tick advances every particle, feeds edge memory on qualifying expiries,
// makes at most one spawn attempt and refreshes the criticality pulse.
func (s *Simulation) Tick(frameMillis float64) dynamo.FrameStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickLocked(frameMillis)
}

// Frame ticks and snapshots under one lock.
func (s *Simulation) Frame(frameMillis float64) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked(frameMillis)
	return s.snapshotLocked()
}

func (s *Simulation) tickLocked(frameMillis float64) dynamo.FrameStats {
	stats := dynamo.FrameStats{Capacity: s.policy.MaxPopulation()}

	alive := s.particles[:0]
	for _, p := range s.particles {
		if p.Advance(s.coupling, s.mapper, s.complexity) {
			alive = append(alive, p)
			continue
		}
		stats.Expired++
		key := p.Edge()
		if !edgemem.ShouldRecord(s.modes, s.coupling, key) {
			continue
		}
		stats.Recorded++
		if s.memory.Record(key, p.Color) {
			s.log.Log(context.Background(), logging.LevelTrace, "edge color learned",
				"edge", key.String(), "color", string(p.Color), "count", s.memory.Count(key))
		}
	}
	for i := len(alive); i < len(s.particles); i++ {
		s.particles[i] = nil
	}
	s.particles = alive

	np, outcome := s.policy.Attempt(s.modes, s.complexity, s.coupling, len(s.particles))
	stats.Attempted = outcome.Attempted()
	if np != nil {
		s.particles = append(s.particles, np)
		stats.Spawned = true
	}

	s.crit.Pulse(frameMillis)
	s.tick++

	stats.Tick = s.tick
	stats.Population = len(s.particles)
	stats.Complexity = s.complexity
	stats.Optimal = s.crit.Optimal
	stats.Critical = s.crit.Critical
	stats.Modes = s.modes
	s.last = stats
	for _, m := range s.metrics {
		m.Observe(stats)
	}
	return stats
}

// Run ticks n times at the nominal frame rate, stopping early if ctx ends.
func (s *Simulation) Run(ctx context.Context, n int, observe func(dynamo.FrameStats)) error {
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.mu.Lock()
		ms := float64(s.tick+1) * FrameMillis
		stats := s.tickLocked(ms)
		s.mu.Unlock()
		if observe != nil {
			observe(stats)
		}
	}
	return nil
}

// ToggleMode flips m and returns its description, which also becomes the
// current description text.
func (s *Simulation) ToggleMode(m dynamo.Mode) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := stateOf(s.modes)
	s.modes = s.modes.Toggle(m)
	s.description = m.Description()
	s.log.Debug("mode toggled", "mode", m.String(), "active", s.modes.Has(m), "modes", s.modes.String())
	if after := stateOf(s.modes); after != before {
		s.log.Info("simulation state changed", "from", before.String(), "to", after.String())
	}
	return s.description
}

// SetComplexity changes the node count per level. Particles addressing
// nodes that no longer exist are dropped.
func (s *Simulation) SetComplexity(n int) error {
	if err := checkComplexity(n); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complexity = n
	s.dropInvalidLocked()
	s.crit.Evaluate(s.complexity, s.coupling)
	s.log.Debug("complexity changed", "complexity", n, "optimal", s.crit.Optimal, "critical", s.crit.Critical)
	return nil
}

// SetCoupling sets the coefficient of pair (0: 0-1, 1: 1-2, 2: 2-3).
func (s *Simulation) SetCoupling(pair int, v float64) error {
	if err := checkCoupling(pair, v); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupling[pair] = v
	s.crit.Evaluate(s.complexity, s.coupling)
	s.log.Debug("coupling changed", "pair", pair, "value", v, "optimal", s.crit.Optimal)
	return nil
}

// Reset returns to a clean Idle state with the initial complexity and
// coupling.
func (s *Simulation) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes = 0
	for i := range s.particles {
		s.particles[i] = nil
	}
	s.particles = s.particles[:0]
	s.memory.Reset()
	s.complexity = s.initN
	s.coupling = s.initial
	s.description = ""
	s.crit = metrics.Criticality{}
	s.crit.Evaluate(s.complexity, s.coupling)
	s.log.Info("simulation reset", "tick", s.tick)
}

func (s *Simulation) dropInvalidLocked() {
	kept := s.particles[:0]
	dropped := 0
	for _, p := range s.particles {
		if p.Valid(s.complexity) {
			kept = append(kept, p)
		} else {
			dropped++
		}
	}
	for i := len(kept); i < len(s.particles); i++ {
		s.particles[i] = nil
	}
	s.particles = kept
	if dropped > 0 {
		s.log.Debug("dropped out-of-range particles", "count", dropped)
	}
}

func (s *Simulation) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stateOf(s.modes)
}

func (s *Simulation) Modes() dynamo.ModeSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modes
}

func (s *Simulation) Complexity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complexity
}

func (s *Simulation) Coupling() dynamo.Coupling {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupling
}

func (s *Simulation) Description() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.description
}

func (s *Simulation) Population() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.particles)
}

func (s *Simulation) MemoryEntries() []edgemem.KeyedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Entries()
}

func (s *Simulation) LastFrame() dynamo.FrameStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Simulation) Mapper() geometry.Mapper { return s.mapper }

func stateOf(m dynamo.ModeSet) State {
	if m.Empty() {
		return Idle
	}
	return Running
}

func checkComplexity(n int) error {
	if n < dynamo.MinComplexity || n > dynamo.MaxComplexity {
		return &dynamo.ControlError{Op: "SetComplexity", Value: float64(n), Wrapped: dynamo.ErrParameterBounds}
	}
	return nil
}

func checkCoupling(pair int, v float64) error {
	if pair < 0 || pair >= dynamo.NumPairs {
		return &dynamo.ControlError{Op: "SetCoupling", Value: float64(pair),
			Wrapped: fmt.Errorf("pair index: %w", dynamo.ErrParameterBounds)}
	}
	if !(v >= dynamo.MinCoupling && v <= dynamo.MaxCoupling) {
		return &dynamo.ControlError{Op: "SetCoupling", Value: v, Wrapped: dynamo.ErrParameterBounds}
	}
	return nil
}
