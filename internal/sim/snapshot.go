package sim

import (
	"github.com/google/uuid"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/edgemem"
	"github.com/san-kum/levelflow/internal/geometry"
)

type ParticleView struct {
	ID       uuid.UUID
	Start    dynamo.Endpoint
	End      dynamo.Endpoint
	Progress float64
	Position geometry.Point
	Trail    []geometry.Point
	Color    dynamo.Color
	Shape    dynamo.Shape
}

type NodeView struct {
	Endpoint dynamo.Endpoint
	Position geometry.Point
	Color    dynamo.Color
}

type EdgeView struct {
	Key     dynamo.EdgeKey
	From    geometry.Point
	To      geometry.Point
	Color   dynamo.Color
	Learned bool
	// Weight is the stroke width, proportional to the pair coupling.
	Weight float64
}

// Snapshot is a read-only copy of one frame.
type Snapshot struct {
	Tick          uint64
	State         State
	Modes         dynamo.ModeSet
	Complexity    int
	Optimal       int
	Critical      bool
	Intensity     float64
	Description   string
	Coupling      dynamo.Coupling
	MaxPopulation int
	Width         float64
	Height        float64
	Nodes         []NodeView
	Edges         []EdgeView
	Particles     []ParticleView
	MemoryEntries int
}

func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulation) snapshotLocked() Snapshot {
	snap := Snapshot{
		Tick:          s.tick,
		State:         stateOf(s.modes),
		Modes:         s.modes,
		Complexity:    s.complexity,
		Optimal:       s.crit.Optimal,
		Critical:      s.crit.Critical,
		Intensity:     s.crit.Intensity,
		Description:   s.description,
		Coupling:      s.coupling,
		MaxPopulation: s.policy.MaxPopulation(),
		Width:         s.mapper.Width,
		Height:        s.mapper.Height,
		MemoryEntries: s.memory.Len(),
	}

	snap.Nodes = make([]NodeView, 0, dynamo.NumLevels*s.complexity)
	for l := 0; l < dynamo.NumLevels; l++ {
		for n := 0; n < s.complexity; n++ {
			e := dynamo.Endpoint{Level: dynamo.Level(l), Node: n}
			snap.Nodes = append(snap.Nodes, NodeView{
				Endpoint: e,
				Position: s.mapper.At(e, s.complexity),
				Color:    dynamo.LevelColor(e.Level),
			})
		}
	}

	seen := make(map[dynamo.EdgeKey]bool)
	for l := 0; l < dynamo.NumLevels-1; l++ {
		for a := 0; a < s.complexity; a++ {
			for b := 0; b < s.complexity; b++ {
				key := dynamo.EdgeKey{StartLevel: dynamo.Level(l), StartNode: a, EndLevel: dynamo.Level(l + 1), EndNode: b}
				seen[key] = true
				snap.Edges = append(snap.Edges, s.edgeView(key))
			}
		}
	}
	for _, ke := range s.memory.Entries() {
		if seen[ke.Key] || !edgeValid(ke.Key, s.complexity) {
			continue
		}
		snap.Edges = append(snap.Edges, s.edgeView(ke.Key))
	}

	snap.Particles = make([]ParticleView, 0, len(s.particles))
	for _, p := range s.particles {
		snap.Particles = append(snap.Particles, ParticleView{
			ID:       p.ID,
			Start:    p.Start,
			End:      p.End,
			Progress: p.Progress,
			Position: p.Position(s.mapper, s.complexity),
			Trail:    p.Trail.Points(),
			Color:    p.Color,
			Shape:    p.Shape,
		})
	}
	return snap
}

func (s *Simulation) edgeView(key dynamo.EdgeKey) EdgeView {
	ev := EdgeView{
		Key:    key,
		From:   s.mapper.At(key.Start(), s.complexity),
		To:     s.mapper.At(key.End(), s.complexity),
		Color:  dynamo.EdgeColor(s.modes),
		Weight: edgeWeight(key, s.coupling),
	}
	if c, ok := s.memory.ColorFor(key); ok && edgemem.ShouldRecord(s.modes, s.coupling, key) {
		ev.Color = c
		ev.Learned = true
	}
	return ev
}

// edgeWeight is the pair coupling for edges between adjacent levels and
// MinCoupling for any other edge.
func edgeWeight(k dynamo.EdgeKey, c dynamo.Coupling) float64 {
	if d := k.EndLevel - k.StartLevel; d != 1 && d != -1 {
		return dynamo.MinCoupling
	}
	return c.ForPair(k.StartLevel, k.EndLevel)
}

func edgeValid(k dynamo.EdgeKey, complexity int) bool {
	return k.StartNode >= 0 && k.StartNode < complexity && k.EndNode >= 0 && k.EndNode < complexity
}

// Particle returns the view of the particle with id, if it is still alive.
func (snap Snapshot) Particle(id uuid.UUID) (ParticleView, bool) {
	for _, p := range snap.Particles {
		if p.ID == id {
			return p, true
		}
	}
	return ParticleView{}, false
}

// Upward reports whether the particle travels to a higher level.
func (p ParticleView) Upward() bool { return p.End.Level > p.Start.Level }
