// Package edgemem accumulates per-edge traffic and locks in a learned color
// once an edge has carried enough qualifying particles.
package edgemem

import (
	"sort"

	"github.com/san-kum/levelflow/internal/dynamo"
)

// Threshold is the traffic count an edge must exceed before later events
// may replace the color of its first event.
const Threshold = 5

type Entry struct {
	Count int
	Color dynamo.Color
}

type Memory struct {
	entries map[dynamo.EdgeKey]*Entry
}

func New() *Memory {
	return &Memory{entries: make(map[dynamo.EdgeKey]*Entry)}
}

// Record counts one qualifying event on key. The first event sets the
// color; every event past the threshold overwrites it. It reports whether
// the color changed.
func (m *Memory) Record(key dynamo.EdgeKey, color dynamo.Color) bool {
	e, ok := m.entries[key]
	if !ok {
		e = &Entry{Color: color}
		m.entries[key] = e
	}
	e.Count++
	if !ok {
		return true
	}
	if e.Count <= Threshold || e.Color == color {
		return false
	}
	e.Color = color
	return true
}

// ColorFor returns the learned color of key, if it has any traffic.
func (m *Memory) ColorFor(key dynamo.EdgeKey) (dynamo.Color, bool) {
	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	return e.Color, true
}

func (m *Memory) Count(key dynamo.EdgeKey) int {
	if e, ok := m.entries[key]; ok {
		return e.Count
	}
	return 0
}

func (m *Memory) Len() int { return len(m.entries) }

func (m *Memory) Reset() {
	m.entries = make(map[dynamo.EdgeKey]*Entry)
}

type KeyedEntry struct {
	Key dynamo.EdgeKey
	Entry
}

// Entries lists all entries ordered by key.
func (m *Memory) Entries() []KeyedEntry {
	out := make([]KeyedEntry, 0, len(m.entries))
	for k, e := range m.entries {
		out = append(out, KeyedEntry{Key: k, Entry: *e})
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Key, out[j].Key) })
	return out
}

// ShouldRecord is the gate for both recording on expiry and revealing the
// settled color at render time: Emergence active, or Feedback Loop active
// with the pair's coupling exactly at dynamo.LockCoupling.
func ShouldRecord(modes dynamo.ModeSet, c dynamo.Coupling, key dynamo.EdgeKey) bool {
	if modes.Has(dynamo.Emergence) {
		return true
	}
	return modes.Has(dynamo.FeedbackLoop) && dynamo.IsLocked(c.ForPair(key.StartLevel, key.EndLevel))
}

func less(a, b dynamo.EdgeKey) bool {
	if a.StartLevel != b.StartLevel {
		return a.StartLevel < b.StartLevel
	}
	if a.StartNode != b.StartNode {
		return a.StartNode < b.StartNode
	}
	if a.EndLevel != b.EndLevel {
		return a.EndLevel < b.EndLevel
	}
	return a.EndNode < b.EndNode
}
