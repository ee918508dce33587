package metrics

import "github.com/san-kum/levelflow/internal/dynamo"

// Population is the mean particle count per tick.
type Population struct {
	sum     float64
	samples int
}

func NewPopulation() *Population { return &Population{} }

func (p *Population) Name() string { return "population" }

func (p *Population) Observe(f dynamo.FrameStats) {
	p.sum += float64(f.Population)
	p.samples++
}

func (p *Population) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.sum / float64(p.samples)
}

func (p *Population) Reset() { p.sum, p.samples = 0, 0 }

// Saturation is the fraction of ticks that ended at the population cap.
type Saturation struct {
	full    int
	samples int
}

func NewSaturation() *Saturation { return &Saturation{} }

func (s *Saturation) Name() string { return "saturation" }

func (s *Saturation) Observe(f dynamo.FrameStats) {
	s.samples++
	if f.Capacity > 0 && f.Population >= f.Capacity {
		s.full++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.full) / float64(s.samples)
}

func (s *Saturation) Reset() { s.full, s.samples = 0, 0 }

// Throughput is the mean number of expiries per tick.
type Throughput struct {
	expired int
	samples int
}

func NewThroughput() *Throughput { return &Throughput{} }

func (t *Throughput) Name() string { return "throughput" }

func (t *Throughput) Observe(f dynamo.FrameStats) {
	t.expired += f.Expired
	t.samples++
}

func (t *Throughput) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return float64(t.expired) / float64(t.samples)
}

func (t *Throughput) Reset() { t.expired, t.samples = 0, 0 }

// Acceptance is the share of regime decisions that passed the coupling gate.
type Acceptance struct {
	attempted int
	spawned   int
}

func NewAcceptance() *Acceptance { return &Acceptance{} }

func (a *Acceptance) Name() string { return "acceptance" }

func (a *Acceptance) Observe(f dynamo.FrameStats) {
	if f.Attempted {
		a.attempted++
	}
	if f.Spawned {
		a.spawned++
	}
}

func (a *Acceptance) Value() float64 {
	if a.attempted == 0 {
		return 0
	}
	return float64(a.spawned) / float64(a.attempted)
}

func (a *Acceptance) Reset() { a.attempted, a.spawned = 0, 0 }

// CriticalFraction is the share of ticks spent at the optimal complexity.
type CriticalFraction struct {
	critical int
	samples  int
}

func NewCriticalFraction() *CriticalFraction { return &CriticalFraction{} }

func (c *CriticalFraction) Name() string { return "critical_fraction" }

func (c *CriticalFraction) Observe(f dynamo.FrameStats) {
	c.samples++
	if f.Critical {
		c.critical++
	}
}

func (c *CriticalFraction) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.critical) / float64(c.samples)
}

func (c *CriticalFraction) Reset() { c.critical, c.samples = 0, 0 }

// Defaults returns a fresh set of every flow metric.
func Defaults() []dynamo.Metric {
	return []dynamo.Metric{
		NewPopulation(),
		NewSaturation(),
		NewThroughput(),
		NewAcceptance(),
		NewCriticalFraction(),
	}
}
