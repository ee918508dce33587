package spawn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/levelflow/internal/dynamo"
)

// scripted replays fixed draws; it panics when exhausted so tests fail loudly.
type scripted struct {
	floats []float64
	ints   []int
}

func (s *scripted) Float64() float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scripted) Intn(n int) int {
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

var unit = dynamo.Coupling{1, 1, 1}

func modes(ms ...dynamo.Mode) dynamo.ModeSet {
	var s dynamo.ModeSet
	for _, m := range ms {
		s = s.With(m)
	}
	return s
}

func TestAttempt_FullPopulation(t *testing.T) {
	p := New(&scripted{}, 50)
	if got, out := p.Attempt(modes(dynamo.Emergence), 5, unit, 50); got != nil || out != Full {
		t.Errorf("Attempt at cap = %v, %v", got, out)
	}
}

func TestAttempt_NoModeNeverSpawns(t *testing.T) {
	p := NewSeeded(1, 50)
	for i := 0; i < 2000; i++ {
		if got, _ := p.Attempt(0, 5, unit, 0); got != nil {
			t.Fatal("spawned with no active mode")
		}
	}
}

func TestAttempt_Emergence(t *testing.T) {
	// attempt, diamond roll, admission
	rng := &scripted{floats: []float64{0.05, 0.1, 0.2}, ints: []int{3, 4, 1}}
	p := New(rng, 50)

	got, out := p.Attempt(modes(dynamo.Emergence), 5, unit, 0)
	if out != Spawned {
		t.Fatalf("outcome = %v, want spawned", out)
	}
	if got.Start.Level != dynamo.Organismal || got.Start.Node != 4 {
		t.Errorf("start = %+v", got.Start)
	}
	if got.End.Level != dynamo.Quantum || got.End.Node != 1 {
		t.Errorf("emergence from top should wrap to level 0, got %+v", got.End)
	}
	if got.Color != dynamo.Pink {
		t.Errorf("color = %q, want start palette %q", got.Color, dynamo.Pink)
	}
	if got.Shape != dynamo.Diamond {
		t.Errorf("shape = %v, want diamond (0.1 < 1*0.2)", got.Shape)
	}
}

func TestAttempt_Rejected(t *testing.T) {
	// admission probability is 0.3*0.5 = 0.15
	rng := &scripted{floats: []float64{0.0, 0.9, 0.2}, ints: []int{0, 0, 0}}
	p := New(rng, 50)
	if got, out := p.Attempt(modes(dynamo.Emergence), 5, dynamo.Coupling{0.3, 1, 1}, 0); got != nil || out != Rejected {
		t.Errorf("Attempt = %v, %v; want rejected", got, out)
	}
}

func TestAttempt_PriorityOrder(t *testing.T) {
	// Feedback Loop wins over Emergence and Energy Flow: no extra float draw
	// for shape, end level comes from Intn.
	rng := &scripted{floats: []float64{0.0, 0.0}, ints: []int{1, 0, 1, 2}}
	p := New(rng, 50)
	got, out := p.Attempt(modes(dynamo.EnergyFlow, dynamo.Emergence, dynamo.FeedbackLoop), 5, unit, 0)
	if out != Spawned {
		t.Fatalf("outcome = %v", out)
	}
	if got.End.Level != dynamo.Molecular {
		t.Errorf("feedback end level = %v, want same level 1", got.End.Level)
	}
	if got.Color != dynamo.Blue {
		t.Errorf("color = %q, want %q", got.Color, dynamo.Blue)
	}
}

func TestDecide_Feedback(t *testing.T) {
	tests := []struct {
		name     string
		start    dynamo.Level
		end      int
		coupling dynamo.Coupling
		shape    dynamo.Shape
	}{
		{"backward at lock", 2, 0, dynamo.Coupling{2, 1, 1}, dynamo.Diamond},
		{"backward below lock", 2, 0, dynamo.Coupling{1.9, 2, 2}, dynamo.Circle},
		{"same level 3 uses pair 2", 3, 3, dynamo.Coupling{1, 1, 2}, dynamo.Diamond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(dynamo.FeedbackLoop, tt.start, tt.coupling, &scripted{ints: []int{tt.end}})
			if d.EndLevel != dynamo.Level(tt.end) {
				t.Errorf("end = %v, want %d", d.EndLevel, tt.end)
			}
			if d.Shape != tt.shape {
				t.Errorf("shape = %v, want %v", d.Shape, tt.shape)
			}
			if d.Color != dynamo.LevelColor(tt.start) {
				t.Errorf("color = %q", d.Color)
			}
		})
	}
}

func TestDecide_EnergyFlowColors(t *testing.T) {
	up := Decide(dynamo.EnergyFlow, 1, unit, &scripted{floats: []float64{0.5}})
	if !up.Upward || up.EndLevel != 2 || up.Color != dynamo.Amber {
		t.Errorf("upward decision = %+v", up)
	}
	top := Decide(dynamo.EnergyFlow, 3, unit, &scripted{floats: []float64{0.5}})
	if top.EndLevel != 3 {
		t.Errorf("upward from top should clamp to 3, got %v", top.EndLevel)
	}
	down := Decide(dynamo.EnergyFlow, 2, unit, &scripted{floats: []float64{0.95}})
	if down.Upward || down.EndLevel != 1 || down.Color != dynamo.Amber {
		t.Errorf("downward decision = %+v", down)
	}
	bottom := Decide(dynamo.EnergyFlow, 0, unit, &scripted{floats: []float64{0.95}})
	if bottom.EndLevel != 0 {
		t.Errorf("downward from bottom should clamp to 0, got %v", bottom.EndLevel)
	}
}

func TestDecide_EnergyFlowUpwardFraction(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const n = 20000
	upward := 0
	for i := 0; i < n; i++ {
		start := dynamo.Level(rng.Intn(dynamo.NumLevels))
		if Decide(dynamo.EnergyFlow, start, unit, rng).Upward {
			upward++
		}
	}
	frac := float64(upward) / n
	if math.Abs(frac-0.9) > 0.01 {
		t.Errorf("upward fraction = %.4f, want ~0.9", frac)
	}
}

func TestDecide_EmergenceDiamondRate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := dynamo.Coupling{2, 0.5, 1}
	const n = 20000
	diamonds := 0
	for i := 0; i < n; i++ {
		if Decide(dynamo.Emergence, 0, c, rng).Shape == dynamo.Diamond {
			diamonds++
		}
	}
	if frac := float64(diamonds) / n; math.Abs(frac-0.4) > 0.02 {
		t.Errorf("diamond fraction = %.4f, want ~0.4", frac)
	}
}

func TestOutcome_String(t *testing.T) {
	for o, want := range map[Outcome]string{Full: "full", Idle: "idle", NoMode: "no-mode", Rejected: "rejected", Spawned: "spawned"} {
		if o.String() != want {
			t.Errorf("%d.String() = %q, want %q", o, o.String(), want)
		}
	}
	if Idle.Attempted() || !Rejected.Attempted() {
		t.Error("Attempted classification wrong")
	}
}
