// Package spawn decides when and where new particles appear.
//
// A tick makes at most one attempt. The first active mode in priority order
// picks the endpoints, color and shape; coupling then gates admission.
package spawn

import (
	"math/rand"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/particle"
)

const (
	DefaultMaxPopulation = 50
	AttemptChance        = 0.1
	UpwardChance         = 0.9
	DiamondFactor        = 0.2
	AdmitFactor          = 0.5
)

// Rand is the subset of *rand.Rand the policy draws from.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Outcome classifies what a call to Attempt did.
type Outcome int

const (
	Full Outcome = iota
	Idle
	NoMode
	Rejected
	Spawned
)

func (o Outcome) String() string {
	switch o {
	case Full:
		return "full"
	case Idle:
		return "idle"
	case NoMode:
		return "no-mode"
	case Rejected:
		return "rejected"
	case Spawned:
		return "spawned"
	}
	return "unknown"
}

// Attempted reports whether the outcome went as far as a regime decision.
func (o Outcome) Attempted() bool {
	return o == Rejected || o == Spawned
}

// Decision is a regime's choice for one spawn attempt.
type Decision struct {
	Mode     dynamo.Mode
	EndLevel dynamo.Level
	Color    dynamo.Color
	Shape    dynamo.Shape
	// Upward is set when Energy Flow took its upward branch.
	Upward bool
}

// Decide applies the rules of mode to a particle leaving start.
func Decide(mode dynamo.Mode, start dynamo.Level, c dynamo.Coupling, rng Rand) Decision {
	d := Decision{Mode: mode, Shape: dynamo.Circle}
	switch mode {
	case dynamo.FeedbackLoop:
		d.EndLevel = dynamo.Level(rng.Intn(dynamo.NumLevels))
		d.Color = dynamo.LevelColor(start)
		if dynamo.IsLocked(c.ForPair(start, d.EndLevel)) {
			d.Shape = dynamo.Diamond
		}
	case dynamo.Emergence:
		d.EndLevel = (start + 1) % dynamo.NumLevels
		d.Color = dynamo.LevelColor(start)
		if rng.Float64() < c.At(int(start))*DiamondFactor {
			d.Shape = dynamo.Diamond
		}
	case dynamo.EnergyFlow:
		if rng.Float64() < UpwardChance {
			d.Upward = true
			d.EndLevel = min(dynamo.Organismal, start+1)
			d.Color = dynamo.LevelColor(d.EndLevel)
		} else {
			d.EndLevel = max(dynamo.Quantum, start-1)
			d.Color = dynamo.LevelColor(start)
		}
	}
	return d
}

type Policy struct {
	rng           Rand
	maxPopulation int
}

func New(rng Rand, maxPopulation int) *Policy {
	if maxPopulation <= 0 {
		maxPopulation = DefaultMaxPopulation
	}
	return &Policy{rng: rng, maxPopulation: maxPopulation}
}

// NewSeeded builds a policy over a math/rand source.
func NewSeeded(seed int64, maxPopulation int) *Policy {
	return New(rand.New(rand.NewSource(seed)), maxPopulation)
}

func (p *Policy) MaxPopulation() int { return p.maxPopulation }

// Attempt possibly produces one particle. population is the current size.
func (p *Policy) Attempt(modes dynamo.ModeSet, complexity int, c dynamo.Coupling, population int) (*particle.Particle, Outcome) {
	if population >= p.maxPopulation {
		return nil, Full
	}
	if p.rng.Float64() >= AttemptChance {
		return nil, Idle
	}
	mode, ok := modes.First()
	if !ok {
		return nil, NoMode
	}

	start := dynamo.Level(p.rng.Intn(dynamo.NumLevels))
	startNode := p.rng.Intn(complexity)
	d := Decide(mode, start, c, p.rng)
	endNode := p.rng.Intn(complexity)

	if p.rng.Float64() >= c.ForPair(start, d.EndLevel)*AdmitFactor {
		return nil, Rejected
	}
	return particle.New(start, startNode, d.EndLevel, endNode, d.Color, d.Shape), Spawned
}
