package dynamo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Level is one of the four fixed hierarchy tiers.
type Level int

const (
	Quantum Level = iota
	Molecular
	Cellular
	Organismal
)

const (
	NumLevels = 4
	NumPairs  = NumLevels - 1

	MinComplexity     = 2
	MaxComplexity     = 6
	DefaultComplexity = 5

	MinCoupling     = 0.1
	MaxCoupling     = 2.0
	DefaultCoupling = 1.0

	// LockCoupling is the exact coefficient at which Feedback Loop traffic
	// produces diamonds and feeds edge memory.
	LockCoupling = 2.0
)

var levelNames = [NumLevels]string{"Quantum", "Molecular", "Cellular", "Organismal"}

func (l Level) String() string {
	if l < 0 || int(l) >= NumLevels {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// Color is a render-agnostic color token ("#rrggbb" or "rgba(...)").
type Color string

const (
	Green Color = "#4CAF50"
	Blue  Color = "#2196F3"
	Amber Color = "#FFC107"
	Pink  Color = "#E91E63"

	// IdleEdgeColor and ActiveEdgeColor stroke edges without a revealed
	// learned color.
	IdleEdgeColor   Color = "rgba(100, 100, 100, 0.3)"
	ActiveEdgeColor Color = "rgba(100, 100, 100, 0.1)"
)

// Palette holds one color per level.
var Palette = [NumLevels]Color{Green, Blue, Amber, Pink}

// EdgeColor is the unlearned edge stroke; it dims once any mode runs.
func EdgeColor(modes ModeSet) Color {
	if modes.Empty() {
		return IdleEdgeColor
	}
	return ActiveEdgeColor
}

// LevelColor returns the palette entry for l, clamped to a valid level.
func LevelColor(l Level) Color {
	return Palette[clampInt(int(l), 0, NumLevels-1)]
}

// RGB decodes a "#rrggbb" or "rgba(r, g, b, a)" token. Anything else
// decodes to light gray.
func (c Color) RGB() (r, g, b uint8) {
	s := string(c)
	if rgba, ok := parseRGBA(s); ok {
		return rgba[0], rgba[1], rgba[2]
	}
	if len(s) != 7 || s[0] != '#' {
		return 200, 200, 200
	}
	var v [3]uint8
	for i := 0; i < 3; i++ {
		var n uint8
		for _, ch := range s[1+2*i : 3+2*i] {
			n <<= 4
			switch {
			case ch >= '0' && ch <= '9':
				n |= uint8(ch - '0')
			case ch >= 'a' && ch <= 'f':
				n |= uint8(ch-'a') + 10
			case ch >= 'A' && ch <= 'F':
				n |= uint8(ch-'A') + 10
			}
		}
		v[i] = n
	}
	return v[0], v[1], v[2]
}

// Alpha is the opacity of an rgba token, 1 for anything else.
func (c Color) Alpha() float64 {
	if _, ok := parseRGBA(string(c)); !ok {
		return 1
	}
	s := strings.TrimSuffix(string(c), ")")
	a, err := strconv.ParseFloat(strings.TrimSpace(s[strings.LastIndexByte(s, ',')+1:]), 64)
	if err != nil {
		return 1
	}
	return ClampFloat(a, 0, 1)
}

func parseRGBA(s string) ([3]uint8, bool) {
	var out [3]uint8
	if !strings.HasPrefix(s, "rgba(") || !strings.HasSuffix(s, ")") {
		return out, false
	}
	parts := strings.Split(s[len("rgba("):len(s)-1], ",")
	if len(parts) != 4 {
		return out, false
	}
	for i := range out {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return out, false
		}
		out[i] = uint8(v)
	}
	return out, true
}

type Shape int

const (
	Circle Shape = iota
	Diamond
)

func (s Shape) String() string {
	if s == Diamond {
		return "diamond"
	}
	return "circle"
}

// Mode is a flow regime. Declaration order is dispatch priority.
type Mode int

const (
	FeedbackLoop Mode = iota
	Emergence
	EnergyFlow
)

// Modes lists every regime in dispatch priority order.
var Modes = [...]Mode{FeedbackLoop, Emergence, EnergyFlow}

func (m Mode) String() string {
	switch m {
	case FeedbackLoop:
		return "Feedback Loop"
	case Emergence:
		return "Emergence"
	case EnergyFlow:
		return "Energy Flow"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Description is the one-line text shown when a mode is toggled.
func (m Mode) Description() string {
	switch m {
	case FeedbackLoop:
		return "Feedback Loop: Illustrates how outputs of a system are routed back as inputs, influencing the system's behavior."
	case Emergence:
		return "Emergence: Shows how complex behaviors arise from simple interactions at lower levels."
	case EnergyFlow:
		return "Energy Flow: Represents the transfer of energy between different levels of the system."
	}
	return ""
}

// ParseMode accepts display names and short forms, case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "feedback loop", "feedback", "feedback-loop", "feedback_loop":
		return FeedbackLoop, nil
	case "emergence":
		return Emergence, nil
	case "energy flow", "energy", "energy-flow", "energy_flow", "energyflow":
		return EnergyFlow, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ModeSet is a set of active regimes.
type ModeSet uint8

func (s ModeSet) Has(m Mode) bool       { return s&(1<<uint(m)) != 0 }
func (s ModeSet) With(m Mode) ModeSet    { return s | 1<<uint(m) }
func (s ModeSet) Without(m Mode) ModeSet { return s &^ (1 << uint(m)) }
func (s ModeSet) Toggle(m Mode) ModeSet  { return s ^ 1<<uint(m) }
func (s ModeSet) Empty() bool            { return s == 0 }

// First returns the highest-priority active mode.
func (s ModeSet) First() (Mode, bool) {
	for _, m := range Modes {
		if s.Has(m) {
			return m, true
		}
	}
	return 0, false
}

// List returns the active modes in priority order.
func (s ModeSet) List() []Mode {
	out := make([]Mode, 0, len(Modes))
	for _, m := range Modes {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

func (s ModeSet) String() string {
	if s.Empty() {
		return "none"
	}
	names := make([]string, 0, len(Modes))
	for _, m := range s.List() {
		names = append(names, m.String())
	}
	return strings.Join(names, ", ")
}

// Coupling holds one coefficient per adjacent level pair (0-1, 1-2, 2-3).
type Coupling [NumPairs]float64

func DefaultCouplingVector() Coupling {
	return Coupling{DefaultCoupling, DefaultCoupling, DefaultCoupling}
}

// At returns the coefficient for pair index i, clamped to a valid index.
func (c Coupling) At(i int) float64 {
	return c[clampInt(i, 0, NumPairs-1)]
}

// ForPair selects the coefficient by the lower of the two levels.
func (c Coupling) ForPair(a, b Level) float64 {
	lo := a
	if b < lo {
		lo = b
	}
	return c.At(int(lo))
}

func (c Coupling) Mean() float64 {
	sum := 0.0
	for _, v := range c {
		sum += v
	}
	return sum / NumPairs
}

// IsLocked reports whether the coefficient equals LockCoupling exactly.
func IsLocked(v float64) bool {
	return v == LockCoupling
}

// Endpoint is a (level, node) address.
type Endpoint struct {
	Level Level
	Node  int
}

// EdgeKey identifies a directed node-to-node connection.
type EdgeKey struct {
	StartLevel Level
	StartNode  int
	EndLevel   Level
	EndNode    int
}

func (k EdgeKey) Start() Endpoint { return Endpoint{k.StartLevel, k.StartNode} }
func (k EdgeKey) End() Endpoint   { return Endpoint{k.EndLevel, k.EndNode} }

func (k EdgeKey) String() string {
	return fmt.Sprintf("%d:%d->%d:%d", k.StartLevel, k.StartNode, k.EndLevel, k.EndNode)
}

// FrameStats summarizes one tick for metrics.
type FrameStats struct {
	Tick       uint64
	Population int
	Capacity   int
	Attempted  bool
	Spawned    bool
	Expired    int
	Recorded   int
	Complexity int
	Optimal    int
	Critical   bool
	Modes      ModeSet
}

// Metric accumulates a scalar over a run.
type Metric interface {
	Name() string
	Observe(f FrameStats)
	Value() float64
	Reset()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampFloat bounds v to [lo, hi]; NaN maps to lo.
func ClampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
