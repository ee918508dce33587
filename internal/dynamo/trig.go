package dynamo

import "math"

// TrigTable provides precomputed sin values for fast lookup, linearly
// interpolated between entries.
type TrigTable struct {
	sin []float64
	n   int
}

// DefaultTrigTable has 4096 entries (~0.0015 rad resolution).
var DefaultTrigTable = NewTrigTable(4096)

func NewTrigTable(n int) *TrigTable {
	t := &TrigTable{sin: make([]float64, n), n: n}
	for i := 0; i < n; i++ {
		t.sin[i] = math.Sin(float64(i) * 2 * math.Pi / float64(n))
	}
	return t
}

// Sin returns approximate sin(x).
func (t *TrigTable) Sin(x float64) float64 {
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	idx := x * float64(t.n) / (2 * math.Pi)
	i := int(idx)
	frac := idx - float64(i)
	return t.sin[i%t.n]*(1-frac) + t.sin[(i+1)%t.n]*frac
}

// Pulse maps sin(x*rate) into [0, 1].
func (t *TrigTable) Pulse(x, rate float64) float64 {
	return t.Sin(x*rate)*0.5 + 0.5
}

func FastSin(x float64) float64 {
	return DefaultTrigTable.Sin(x)
}

func FastPulse(x, rate float64) float64 {
	return DefaultTrigTable.Pulse(x, rate)
}
