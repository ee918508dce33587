// Package particle implements the lifecycle of a single flow particle.
package particle

import (
	"github.com/google/uuid"
	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/geometry"
)

// BaseStep is the progress gained per tick at coupling 1.
const BaseStep = 0.02

type Particle struct {
	ID       uuid.UUID
	Start    dynamo.Endpoint
	End      dynamo.Endpoint
	Progress float64
	Color    dynamo.Color
	Shape    dynamo.Shape
	Trail    Trail
}

func New(startLevel dynamo.Level, startNode int, endLevel dynamo.Level, endNode int, color dynamo.Color, shape dynamo.Shape) *Particle {
	return &Particle{
		ID:    uuid.New(),
		Start: dynamo.Endpoint{Level: startLevel, Node: startNode},
		End:   dynamo.Endpoint{Level: endLevel, Node: endNode},
		Color: color,
		Shape: shape,
	}
}

// Edge returns the directed connection this particle travels.
func (p *Particle) Edge() dynamo.EdgeKey {
	return dynamo.EdgeKey{
		StartLevel: p.Start.Level,
		StartNode:  p.Start.Node,
		EndLevel:   p.End.Level,
		EndNode:    p.End.Node,
	}
}

// Coefficient is the coupling that governs this particle's pair.
func (p *Particle) Coefficient(c dynamo.Coupling) float64 {
	return c.ForPair(p.Start.Level, p.End.Level)
}

// Advance moves the particle forward one tick. It returns false once
// progress exceeds 1; the trail is left untouched in that case.
func (p *Particle) Advance(c dynamo.Coupling, m geometry.Mapper, complexity int) bool {
	p.Progress += BaseStep * p.Coefficient(c)
	if p.Progress > 1 {
		return false
	}
	p.Trail.Push(p.Position(m, complexity))
	return true
}

// Position interpolates between the endpoints at the current progress.
func (p *Particle) Position(m geometry.Mapper, complexity int) geometry.Point {
	return geometry.Lerp(m.At(p.Start, complexity), m.At(p.End, complexity), p.Progress)
}

// Valid reports whether both endpoints address existing nodes.
func (p *Particle) Valid(complexity int) bool {
	return p.Start.Node >= 0 && p.Start.Node < complexity &&
		p.End.Node >= 0 && p.End.Node < complexity
}
