package viz

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/export"
	"github.com/san-kum/levelflow/internal/logging"
	"github.com/san-kum/levelflow/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 22
	historyCapacity = 300
	couplingStep    = 0.1
)

// FrameMsg carries one scheduler frame into the update loop.
type FrameMsg sim.Snapshot

// Model is the live view of a running simulation.
type Model struct {
	sched    *sim.Scheduler
	sim      *sim.Simulation
	frames   chan sim.Snapshot
	snap     sim.Snapshot
	canvas   *Canvas
	theme    Theme
	title    string
	pair     int
	status   string
	showHelp bool
	history  []float64
	svgDir   string
	log      *slog.Logger
}

type Option func(*Model)

func WithTheme(name string) Option { return func(m *Model) { m.theme = GetTheme(name) } }

func WithTitle(title string) Option { return func(m *Model) { m.title = title } }

func WithLogger(l *slog.Logger) Option { return func(m *Model) { m.log = l } }

// WithSVGDir sets where the s key writes frame exports.
func WithSVGDir(dir string) Option { return func(m *Model) { m.svgDir = dir } }

// NewModel wires a live view to sched. Frames are handed over through a
// one-slot mailbox; a slow view skips frames instead of stalling the
// scheduler.
func NewModel(sched *sim.Scheduler, opts ...Option) Model {
	m := Model{
		sched:   sched,
		sim:     sched.Simulation(),
		frames:  make(chan sim.Snapshot, 1),
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		theme:   ThemeDefault,
		title:   "levelflow",
		history: make([]float64, 0, historyCapacity),
		svgDir:  ".",
		log:     logging.Discard(),
	}
	for _, o := range opts {
		o(&m)
	}
	m.snap = m.sim.Snapshot()

	frames := m.frames
	sched.OnFrame(func(s sim.Snapshot) {
		select {
		case frames <- s:
		default:
			select {
			case <-frames:
			default:
			}
			select {
			case frames <- s:
			default:
			}
		}
	})
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForFrame(m.frames, m.sched.Done())
}

// waitForFrame yields the next frame, or nil once the scheduler is stopped.
func waitForFrame(ch <-chan sim.Snapshot, stopped <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case snap := <-ch:
			return FrameMsg(snap)
		case <-stopped:
			return nil
		}
	}
}

// Update handles input events and incoming frames.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case FrameMsg:
		m.snap = sim.Snapshot(msg)
		m.history = append(m.history, float64(len(m.snap.Particles)))
		if len(m.history) > historyCapacity {
			m.history = m.history[1:]
		}
		return m, waitForFrame(m.frames, m.sched.Done())
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.sched.Stop()
		return m, tea.Quit
	case "f":
		m.status = m.sim.ToggleMode(dynamo.FeedbackLoop)
	case "e":
		m.status = m.sim.ToggleMode(dynamo.Emergence)
	case "w":
		m.status = m.sim.ToggleMode(dynamo.EnergyFlow)
	case "+", "=":
		m.adjustComplexity(1)
	case "-", "_":
		m.adjustComplexity(-1)
	case "tab":
		m.pair = (m.pair + 1) % dynamo.NumPairs
	case "shift+tab":
		m.pair = (m.pair + dynamo.NumPairs - 1) % dynamo.NumPairs
	case "up", "k":
		m.adjustCoupling(couplingStep)
	case "down", "j":
		m.adjustCoupling(-couplingStep)
	case "r":
		m.sim.Reset()
		m.history = m.history[:0]
		m.status = "reset"
	case " ", "space":
		m.sched.SetPaused(!m.sched.Paused())
	case "t":
		m.theme = NextTheme(m.theme)
	case "s":
		m.status = m.saveSVG()
	case "?":
		m.showHelp = !m.showHelp
	default:
		return m, nil
	}
	m.snap = m.sim.Snapshot()
	return m, nil
}

func (m *Model) adjustComplexity(delta int) {
	n := m.sim.Complexity() + delta
	if n < dynamo.MinComplexity || n > dynamo.MaxComplexity {
		return
	}
	if err := m.sim.SetComplexity(n); err != nil {
		m.status = err.Error()
	}
}

// adjustCoupling steps the selected pair, snapping to 0.1 and clamping to
// the valid range.
func (m *Model) adjustCoupling(delta float64) {
	c := m.sim.Coupling()
	v := math.Round((c[m.pair]+delta)*10) / 10
	v = dynamo.ClampFloat(v, dynamo.MinCoupling, dynamo.MaxCoupling)
	if err := m.sim.SetCoupling(m.pair, v); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) saveSVG() string {
	path := filepath.Join(m.svgDir, fmt.Sprintf("levelflow-%d.svg", m.snap.Tick))
	f, err := os.Create(path)
	if err != nil {
		m.log.Error("svg export failed", "path", path, "err", err)
		return "export failed: " + err.Error()
	}
	defer f.Close()
	if err := export.WriteSVG(f, m.snap); err != nil {
		m.log.Error("svg export failed", "path", path, "err", err)
		return "export failed: " + err.Error()
	}
	m.log.Info("frame exported", "path", path, "tick", m.snap.Tick)
	return "saved " + path
}

// project maps simulation coordinates onto canvas sub-pixels.
func (m *Model) project(x, y float64) (int, int) {
	pw, ph := m.canvas.PixelSize()
	w, h := m.snap.Width, m.snap.Height
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	return int(x / w * float64(pw-1)), int(y / h * float64(ph-1))
}

func (m *Model) draw() {
	m.canvas.Clear()
	snap := m.snap

	for _, e := range snap.Edges {
		x0, y0 := m.project(e.From.X, e.From.Y)
		x1, y1 := m.project(e.To.X, e.To.Y)
		m.canvas.DrawLine(x0, y0, x1, y1, colorOf(e.Color, m.theme.Edge))
	}
	for _, n := range snap.Nodes {
		x, y := m.project(n.Position.X, n.Position.Y)
		m.canvas.Disc(x, y, 2, colorOf(n.Color, m.theme.Primary))
	}
	for _, p := range snap.Particles {
		col := colorOf(p.Color, m.theme.Accent)
		for _, t := range p.Trail {
			x, y := m.project(t.X, t.Y)
			m.canvas.Paint(x, y, col)
		}
		x, y := m.project(p.Position.X, p.Position.Y)
		if p.Shape == dynamo.Diamond {
			m.canvas.Diamond(x, y, 2, col)
		} else {
			m.canvas.Disc(x, y, 1, col)
		}
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	snap := m.snap
	th := m.theme

	var s strings.Builder
	s.WriteString(GradientText(strings.ToUpper(m.title), th.Primary, th.Accent) + "\n")

	status := lipgloss.NewStyle().Foreground(th.Muted).Render("IDLE")
	if snap.State == sim.Running {
		status = lipgloss.NewStyle().Foreground(th.Success).Bold(true).Render("RUNNING")
	}
	if m.sched.Paused() {
		status = lipgloss.NewStyle().Foreground(th.Warning).Bold(true).Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	if snap.Critical {
		banner := lerpColor(th.Muted, th.Error, snap.Intensity)
		s.WriteString(lipgloss.NewStyle().Foreground(banner).Bold(true).Render("◆ CRITICALITY ◆") + "\n\n")
	}

	s.WriteString("MODES\n")
	for i, mode := range dynamo.Modes {
		mark, style := "○", lipgloss.NewStyle().Foreground(th.Muted)
		if snap.Modes.Has(mode) {
			mark, style = "●", lipgloss.NewStyle().Foreground(th.Success)
		}
		key := []string{"f", "e", "w"}[i]
		s.WriteString(style.Render(fmt.Sprintf(" %s %s  %s", mark, key, mode)) + "\n")
	}
	if snap.Description != "" {
		s.WriteString(lipgloss.NewStyle().Foreground(th.Text).Italic(true).Width(40).Render(snap.Description) + "\n")
	}
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("Complexity") + valueStyle.Render(fmt.Sprintf("%d  (optimal %d)", snap.Complexity, snap.Optimal)) + "\n")
	for i, v := range snap.Coupling {
		name := fmt.Sprintf("%s-%s", shortLevel(i), shortLevel(i+1))
		line := fmt.Sprintf("%-6s %s %.1f", name, ProgressBar(v/dynamo.MaxCoupling, 12, th.Primary), v)
		if i == m.pair {
			s.WriteString(lipgloss.NewStyle().Foreground(th.Accent).Bold(true).Render("> ") + line + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}
	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Particles") + valueStyle.Render(fmt.Sprintf("%d / %d", len(snap.Particles), snap.MaxPopulation)) + "\n")
	s.WriteString(labelStyle.Render("Memory") + valueStyle.Render(fmt.Sprintf("%d edges", snap.MemoryEntries)) + "\n")
	s.WriteString(labelStyle.Render("Tick") + valueStyle.Render(fmt.Sprintf("%d", snap.Tick)) + "\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Population"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if m.status != "" {
		s.WriteString(lipgloss.NewStyle().Foreground(th.Muted).Width(40).Render(m.status) + "\n")
	}
	s.WriteString(helpStyle.Render(Separator(40, th.Muted) + "\nf/e/w:Modes +/-:Complexity\nTab:Pair ↑↓:Coupling R:Reset\nSP:Pause T:Theme S:SVG ?:Help Q:Quit"))

	canvasView := canvasStyle.Render(m.canvas.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  F        - Toggle Feedback Loop     ║
║  E        - Toggle Emergence         ║
║  W        - Toggle Energy Flow       ║
║  + / -    - Complexity up / down     ║
║  Tab      - Select coupling pair     ║
║  Up/K     - Coupling +0.1            ║
║  Down/J   - Coupling -0.1            ║
║  R        - Reset to start settings  ║
║  Space    - Pause/Resume             ║
║  T        - Cycle themes             ║
║  S        - Save frame as SVG        ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

func shortLevel(i int) string {
	return dynamo.Level(i).String()[:1]
}

// Run starts the scheduler and blocks until the view exits. The scheduler
// is always stopped before Run returns.
func Run(ctx context.Context, sched *sim.Scheduler, opts ...Option) error {
	m := NewModel(sched, opts...)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
