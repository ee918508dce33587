package particle

import (
	"math"
	"testing"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/geometry"
)

func TestNew(t *testing.T) {
	a := New(dynamo.Quantum, 1, dynamo.Molecular, 2, dynamo.Blue, dynamo.Circle)
	b := New(dynamo.Quantum, 1, dynamo.Molecular, 2, dynamo.Blue, dynamo.Circle)

	if a.Progress != 0 {
		t.Errorf("progress = %v, want 0", a.Progress)
	}
	if a.Trail.Len() != 0 {
		t.Errorf("trail len = %d, want 0", a.Trail.Len())
	}
	if a.ID == b.ID {
		t.Error("particles should get distinct identities")
	}
	want := dynamo.EdgeKey{StartLevel: 0, StartNode: 1, EndLevel: 1, EndNode: 2}
	if a.Edge() != want {
		t.Errorf("Edge() = %v, want %v", a.Edge(), want)
	}
}

func TestAdvance_StepScalesWithCoupling(t *testing.T) {
	m := geometry.Default()
	tests := []struct {
		name       string
		start, end dynamo.Level
		coupling   dynamo.Coupling
		want       float64
	}{
		{"unit coupling", 0, 1, dynamo.Coupling{1, 1, 1}, 0.02},
		{"pair 1-2 doubled", 2, 1, dynamo.Coupling{1, 2, 1}, 0.04},
		{"same level 3 clamps to pair 2", 3, 3, dynamo.Coupling{1, 1, 0.5}, 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.start, 0, tt.end, 0, dynamo.Pink, dynamo.Circle)
			if !p.Advance(tt.coupling, m, 5) {
				t.Fatal("particle expired after one step")
			}
			if math.Abs(p.Progress-tt.want) > 1e-12 {
				t.Errorf("progress = %v, want %v", p.Progress, tt.want)
			}
		})
	}
}

func TestAdvance_ExpiresAfterOne(t *testing.T) {
	m := geometry.Default()
	c := dynamo.Coupling{1, 1, 1}
	p := New(0, 0, 1, 0, dynamo.Blue, dynamo.Circle)

	steps := 0
	last := 0.0
	for p.Advance(c, m, 5) {
		if p.Progress < last {
			t.Fatalf("progress decreased: %v -> %v", last, p.Progress)
		}
		if p.Progress > 1 {
			t.Fatalf("alive particle has progress %v", p.Progress)
		}
		last = p.Progress
		steps++
		if steps > 100 {
			t.Fatal("particle never expired")
		}
	}
	if p.Progress <= 1 {
		t.Errorf("expired particle has progress %v", p.Progress)
	}
	if steps < 49 || steps > 51 {
		t.Errorf("expected ~50 live steps, got %d", steps)
	}
}

func TestAdvance_TrailKeepsLastFive(t *testing.T) {
	m := geometry.Default()
	c := dynamo.Coupling{1, 1, 1}
	p := New(0, 0, 1, 4, dynamo.Blue, dynamo.Circle)

	for i := 0; i < 8; i++ {
		p.Advance(c, m, 5)
	}
	pts := p.Trail.Points()
	if len(pts) != TrailCapacity {
		t.Fatalf("trail len = %d, want %d", len(pts), TrailCapacity)
	}
	newest := pts[len(pts)-1]
	if newest != p.Position(m, 5) {
		t.Errorf("newest trail point %+v, want current position %+v", newest, p.Position(m, 5))
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].X <= pts[i-1].X {
			t.Errorf("trail not ordered oldest first at %d: %+v", i, pts)
		}
	}
}

func TestValid(t *testing.T) {
	p := New(0, 4, 1, 2, dynamo.Blue, dynamo.Circle)
	if !p.Valid(5) {
		t.Error("node 4 valid at complexity 5")
	}
	if p.Valid(4) {
		t.Error("node 4 invalid at complexity 4")
	}
}

func TestTrail_Ring(t *testing.T) {
	var tr Trail
	if _, ok := tr.Latest(); ok {
		t.Error("empty trail has no latest")
	}
	for i := 0; i < 12; i++ {
		tr.Push(geometry.Point{X: float64(i)})
	}
	pts := tr.Points()
	for i, p := range pts {
		if p.X != float64(7+i) {
			t.Errorf("pts[%d].X = %v, want %v", i, p.X, float64(7+i))
		}
	}
	if latest, _ := tr.Latest(); latest.X != 11 {
		t.Errorf("Latest().X = %v, want 11", latest.X)
	}
	tr.Reset()
	if tr.Len() != 0 {
		t.Error("Reset should empty the trail")
	}
}
