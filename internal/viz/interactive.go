package viz

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/levelflow/internal/config"
	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/logging"
	"github.com/san-kum/levelflow/internal/metrics"
	"github.com/san-kum/levelflow/internal/sim"
)

var (
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

var paramNames = []string{"complexity", "coupling Q-M", "coupling M-C", "coupling C-O"}

// app picks a preset, lets the user tune it, then hands over to the live
// view.
type app struct {
	ctx         context.Context
	log         *slog.Logger
	base        *config.Config
	state       int
	cursor      int
	presets     []string
	selected    string
	cfg         *config.Config
	paramCursor int
	err         string
	sched       *sim.Scheduler
	live        Model
}

func newApp(ctx context.Context, base *config.Config, logger *slog.Logger) app {
	if logger == nil {
		logger = logging.Discard()
	}
	return app{ctx: ctx, log: logger, base: base, presets: config.ListPresets()}
}

func (m app) Init() tea.Cmd { return nil }

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		if m.state == stateSim {
			next, cmd := m.live.Update(msg)
			m.live = next.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m app) handleKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	return m, nil
}

func (m app) menuKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		cfg := *m.base
		config.Presets[m.selected].Apply(&cfg)
		m.cfg = &cfg
		m.state, m.paramCursor, m.err = stateConfig, 0, ""
	}
	return m, nil
}

func (m app) configKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(paramNames)-1 {
			m.paramCursor++
		}
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(1)
	case "enter", "s":
		return m.start()
	}
	return m, nil
}

func (m *app) nudge(dir int) {
	if m.paramCursor == 0 {
		m.cfg.Complexity = max(dynamo.MinComplexity, min(dynamo.MaxComplexity, m.cfg.Complexity+dir))
		return
	}
	i := m.paramCursor - 1
	v := math.Round((m.cfg.Coupling[i]+float64(dir)*couplingStep)*10) / 10
	m.cfg.Coupling[i] = dynamo.ClampFloat(v, dynamo.MinCoupling, dynamo.MaxCoupling)
}

func (m app) start() (app, tea.Cmd) {
	opts, err := m.cfg.SimOptions(m.log)
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	s, err := sim.New(opts)
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.sched = sim.NewScheduler(s, m.cfg.Interval())
	m.sched.SetLogger(m.log)
	m.live = NewModel(m.sched, WithTheme(m.cfg.Theme), WithTitle(m.selected), WithLogger(m.log))
	if err := m.sched.Start(m.ctx); err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.log.Info("preset started", "preset", m.selected, "complexity", m.cfg.Complexity, "coupling", m.cfg.Coupling)
	m.state = stateSim
	return m, m.live.Init()
}

func (m app) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

func header(title, sub string) string {
	h := lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	return "\n\n    " + h.Render(title) + "\n    " + dimStyle.Render(sub) + "\n    " + dimStyle.Render("─────────────────────────") + "\n\n"
}

func hints(pairs ...string) string {
	var b strings.Builder
	b.WriteString("\n    ")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + dimStyle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String() + "\n"
}

func (m app) viewMenu() string {
	var b strings.Builder
	b.WriteString(header("LEVELFLOW", "multi-level flow network"))
	for i, name := range m.presets {
		desc := config.Presets[name].Description
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"), activeStyle.Render(fmt.Sprintf("%-14s", name)), infoStyle.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", dimStyle.Render(fmt.Sprintf("%-14s", name)), dimStyle.Render(desc)))
		}
	}
	b.WriteString(hints("j/k", "navigate", "enter", "select", "q", "quit"))
	return b.String()
}

func (m app) viewConfig() string {
	var b strings.Builder
	b.WriteString(header(strings.ToUpper(m.selected), config.Presets[m.selected].Description))
	for i, name := range paramNames {
		val := fmt.Sprintf("%8d", m.cfg.Complexity)
		if i > 0 {
			val = fmt.Sprintf("%8.1f", m.cfg.Coupling[i-1])
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", cursorStyle.Render("▸"), activeStyle.Render(fmt.Sprintf("%-14s", name)), infoStyle.Bold(true).Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n", dimStyle.Render(fmt.Sprintf("%-14s", name)), dimStyle.Render(val)))
		}
	}
	b.WriteString(fmt.Sprintf("\n    %s %d\n", dimStyle.Render("optimal complexity"), optimal(m.cfg)))
	if m.err != "" {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Render(m.err) + "\n")
	}
	b.WriteString(hints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back"))
	return b.String()
}

func optimal(cfg *config.Config) int {
	return metrics.OptimalComplexity(dynamo.Coupling(cfg.Coupling))
}

// RunInteractive opens the preset picker. Any scheduler it started is
// stopped before it returns.
func RunInteractive(ctx context.Context, base *config.Config, logger *slog.Logger) error {
	final, err := tea.NewProgram(newApp(ctx, base, logger), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if a, ok := final.(app); ok && a.sched != nil {
		a.sched.Stop()
	}
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
