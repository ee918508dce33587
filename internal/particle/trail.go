package particle

import "github.com/san-kum/levelflow/internal/geometry"

// TrailCapacity is the number of recent positions kept per particle.
const TrailCapacity = 5

// Trail is a fixed-capacity ring buffer of recent positions.
type Trail struct {
	buf  [TrailCapacity]geometry.Point
	head int
	n    int
}

// Push appends p, overwriting the oldest sample once full.
func (t *Trail) Push(p geometry.Point) {
	t.buf[(t.head+t.n)%TrailCapacity] = p
	if t.n < TrailCapacity {
		t.n++
		return
	}
	t.head = (t.head + 1) % TrailCapacity
}

func (t *Trail) Len() int { return t.n }

// Points returns the samples oldest first.
func (t *Trail) Points() []geometry.Point {
	out := make([]geometry.Point, t.n)
	for i := 0; i < t.n; i++ {
		out[i] = t.buf[(t.head+i)%TrailCapacity]
	}
	return out
}

// Latest returns the newest sample.
func (t *Trail) Latest() (geometry.Point, bool) {
	if t.n == 0 {
		return geometry.Point{}, false
	}
	return t.buf[(t.head+t.n-1)%TrailCapacity], true
}

func (t *Trail) Reset() {
	t.head, t.n = 0, 0
}
