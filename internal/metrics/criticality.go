package metrics

import (
	"math"

	"github.com/san-kum/levelflow/internal/dynamo"
)

// PulseRate converts frame milliseconds into the oscillation phase.
const PulseRate = 0.002

// OptimalComplexity is round(mean(coupling)*2 + 2).
func OptimalComplexity(c dynamo.Coupling) int {
	return int(math.Round(c.Mean()*2 + 2))
}

// Criticality tracks whether the current complexity matches the
// coupling-implied optimum, and the pulse intensity shown while it does.
type Criticality struct {
	Optimal   int
	Critical  bool
	Intensity float64
}

// Evaluate recomputes the optimum and critical flag. Intensity drops to 0
// when the state is no longer critical.
func (c *Criticality) Evaluate(complexity int, coupling dynamo.Coupling) {
	c.Optimal = OptimalComplexity(coupling)
	c.Critical = complexity == c.Optimal
	if !c.Critical {
		c.Intensity = 0
	}
}

// Pulse refreshes Intensity for the frame at frameMillis.
func (c *Criticality) Pulse(frameMillis float64) float64 {
	if !c.Critical {
		c.Intensity = 0
		return 0
	}
	c.Intensity = dynamo.FastPulse(frameMillis, PulseRate)
	return c.Intensity
}
