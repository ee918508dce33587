// Package geometry maps (level, node, complexity) addresses to canvas positions.
package geometry

import "github.com/san-kum/levelflow/internal/dynamo"

const (
	DefaultWidth  = 800.0
	DefaultHeight = 600.0
)

type Point struct {
	X, Y float64
}

// Mapper lays levels out along x and nodes along y on a Width x Height canvas.
type Mapper struct {
	Width, Height float64
}

func NewMapper(width, height float64) Mapper {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return Mapper{Width: width, Height: height}
}

func Default() Mapper {
	return Mapper{Width: DefaultWidth, Height: DefaultHeight}
}

// Position returns the canvas position of a node. Levels occupy
// NumLevels+1 evenly spaced x slots and nodes complexity+1 y slots.
// Indices are not range checked.
func (m Mapper) Position(level dynamo.Level, node, complexity int) Point {
	return Point{
		X: m.Width * float64(int(level)+1) / float64(dynamo.NumLevels+1),
		Y: m.Height * float64(node+1) / float64(complexity+1),
	}
}

func (m Mapper) At(e dynamo.Endpoint, complexity int) Point {
	return m.Position(e.Level, e.Node, complexity)
}

// Lerp interpolates between a and b; t=0 gives a, t=1 gives b.
func Lerp(a, b Point, t float64) Point {
	return Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}
