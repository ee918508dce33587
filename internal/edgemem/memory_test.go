package edgemem

import (
	"testing"

	"github.com/san-kum/levelflow/internal/dynamo"
)

var edge = dynamo.EdgeKey{StartLevel: 1, StartNode: 2, EndLevel: 2, EndNode: 0}

func TestRecord_FirstColorHoldsUntilThreshold(t *testing.T) {
	m := New()

	if _, ok := m.ColorFor(edge); ok {
		t.Fatal("untouched edge should have no color")
	}
	if !m.Record(edge, dynamo.Green) {
		t.Error("first event should set the color")
	}
	for i := 2; i <= Threshold; i++ {
		if m.Record(edge, dynamo.Blue) {
			t.Errorf("event %d should not change color", i)
		}
		c, ok := m.ColorFor(edge)
		if !ok || c != dynamo.Green {
			t.Fatalf("after %d events ColorFor = %q,%v, want first color %q", i, c, ok, dynamo.Green)
		}
	}

	if !m.Record(edge, dynamo.Amber) {
		t.Error("event past threshold should replace the color")
	}
	c, ok := m.ColorFor(edge)
	if !ok || c != dynamo.Amber {
		t.Errorf("ColorFor = %q,%v, want %q", c, ok, dynamo.Amber)
	}
}

func TestRecord_TracksLatestAfterSettling(t *testing.T) {
	m := New()
	for i := 0; i < Threshold+1; i++ {
		m.Record(edge, dynamo.Green)
	}

	if m.Record(edge, dynamo.Green) {
		t.Error("same color should not report a change")
	}
	if !m.Record(edge, dynamo.Pink) {
		t.Error("new color should report a change")
	}
	if c, _ := m.ColorFor(edge); c != dynamo.Pink {
		t.Errorf("ColorFor = %q, want %q", c, dynamo.Pink)
	}
	if m.Count(edge) != Threshold+3 {
		t.Errorf("Count = %d, want %d", m.Count(edge), Threshold+3)
	}
}

func TestReset(t *testing.T) {
	m := New()
	m.Record(edge, dynamo.Blue)
	m.Record(dynamo.EdgeKey{}, dynamo.Blue)
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	m.Reset()
	if m.Len() != 0 || m.Count(edge) != 0 {
		t.Error("Reset should clear every entry")
	}
}

func TestEntries_Ordered(t *testing.T) {
	m := New()
	keys := []dynamo.EdgeKey{
		{StartLevel: 2, StartNode: 0, EndLevel: 3, EndNode: 1},
		{StartLevel: 0, StartNode: 3, EndLevel: 1, EndNode: 0},
		{StartLevel: 0, StartNode: 1, EndLevel: 1, EndNode: 4},
	}
	for _, k := range keys {
		m.Record(k, dynamo.Blue)
	}
	got := m.Entries()
	if got[0].Key != keys[2] || got[1].Key != keys[1] || got[2].Key != keys[0] {
		t.Errorf("unexpected order: %v", got)
	}
}

func TestShouldRecord(t *testing.T) {
	up := dynamo.EdgeKey{StartLevel: 1, EndLevel: 2}
	tests := []struct {
		name     string
		modes    dynamo.ModeSet
		coupling dynamo.Coupling
		want     bool
	}{
		{"no modes", 0, dynamo.Coupling{2, 2, 2}, false},
		{"emergence", dynamo.ModeSet(0).With(dynamo.Emergence), dynamo.Coupling{1, 1, 1}, true},
		{"feedback below lock", dynamo.ModeSet(0).With(dynamo.FeedbackLoop), dynamo.Coupling{2, 1.9, 2}, false},
		{"feedback at lock", dynamo.ModeSet(0).With(dynamo.FeedbackLoop), dynamo.Coupling{1, 2, 1}, true},
		{"energy flow only", dynamo.ModeSet(0).With(dynamo.EnergyFlow), dynamo.Coupling{2, 2, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRecord(tt.modes, tt.coupling, up); got != tt.want {
				t.Errorf("ShouldRecord = %v, want %v", got, tt.want)
			}
		})
	}
}
