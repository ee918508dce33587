// Package gui is the desktop renderer. The raylib frame loop drives the
// simulation directly, one tick per rendered frame.
package gui

import (
	"image/color"
	"log/slog"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/logging"
	"github.com/san-kum/levelflow/internal/sim"
)

const (
	windowWidth  = 1280
	windowHeight = 720
	hudWidth     = 360
)

// Palette is the window color scheme.
type Palette struct {
	Name    string
	Bg      color.RGBA
	Text    color.RGBA
	TextDim color.RGBA
	Select  color.RGBA
}

var palettes = []Palette{
	{"dark", rl.NewColor(10, 10, 10, 255), rl.NewColor(180, 180, 180, 255), rl.NewColor(70, 70, 70, 255), rl.NewColor(255, 255, 255, 255)},
	{"slate", rl.NewColor(18, 24, 38, 255), rl.NewColor(200, 210, 230, 255), rl.NewColor(80, 90, 110, 255), rl.NewColor(120, 200, 255, 255)},
	{"paper", rl.NewColor(245, 245, 240, 255), rl.NewColor(40, 40, 40, 255), rl.NewColor(150, 150, 150, 255), rl.NewColor(0, 0, 0, 255)},
}

type App struct {
	Sim     *sim.Simulation
	Title   string
	Paused  bool
	Pair    int
	Palette int
	Status  string
	Snap    sim.Snapshot

	log *slog.Logger
}

func NewApp(s *sim.Simulation, title string, logger *slog.Logger) *App {
	if logger == nil {
		logger = logging.Discard()
	}
	return &App{Sim: s, Title: title, log: logger, Snap: s.Snapshot()}
}

func initWindow(title string, fps int) {
	rl.InitWindow(windowWidth, windowHeight, title)
	rl.SetTargetFPS(int32(fps))
	rl.SetExitKey(0)
}

// Run opens the window and blocks until it is closed.
func Run(s *sim.Simulation, title string, fps int, logger *slog.Logger) {
	initWindow(title, fps)
	defer rl.CloseWindow()
	app := NewApp(s, title, logger)
	app.log.Info("window opened", "width", windowWidth, "height", windowHeight, "fps", fps)
	app.RunLoop()
	app.log.Info("window closed", "tick", app.Snap.Tick)
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

// Update applies key presses and advances one frame. It reports false when
// the user asked to quit.
func (a *App) Update() bool {
	switch {
	case rl.IsKeyPressed(rl.KeyQ):
		return false
	case rl.IsKeyPressed(rl.KeyF):
		a.Status = a.Sim.ToggleMode(dynamo.FeedbackLoop)
	case rl.IsKeyPressed(rl.KeyE):
		a.Status = a.Sim.ToggleMode(dynamo.Emergence)
	case rl.IsKeyPressed(rl.KeyW):
		a.Status = a.Sim.ToggleMode(dynamo.EnergyFlow)
	case rl.IsKeyPressed(rl.KeyEqual), rl.IsKeyPressed(rl.KeyKpAdd):
		a.stepComplexity(1)
	case rl.IsKeyPressed(rl.KeyMinus), rl.IsKeyPressed(rl.KeyKpSubtract):
		a.stepComplexity(-1)
	case rl.IsKeyPressed(rl.KeyTab):
		a.Pair = (a.Pair + 1) % dynamo.NumPairs
	case rl.IsKeyPressed(rl.KeyUp):
		a.stepCoupling(0.1)
	case rl.IsKeyPressed(rl.KeyDown):
		a.stepCoupling(-0.1)
	case rl.IsKeyPressed(rl.KeyR):
		a.Sim.Reset()
		a.Status = "reset"
	case rl.IsKeyPressed(rl.KeySpace):
		a.Paused = !a.Paused
	case rl.IsKeyPressed(rl.KeyT):
		a.Palette = (a.Palette + 1) % len(palettes)
	}

	if a.Paused {
		a.Snap = a.Sim.Snapshot()
		return true
	}
	a.Snap = a.Sim.Frame(rl.GetTime() * 1000)
	return true
}

func (a *App) stepComplexity(delta int) {
	n := a.Sim.Complexity() + delta
	if n < dynamo.MinComplexity || n > dynamo.MaxComplexity {
		return
	}
	if err := a.Sim.SetComplexity(n); err != nil {
		a.Status = err.Error()
	}
}

func (a *App) stepCoupling(delta float64) {
	c := a.Sim.Coupling()
	v := dynamo.ClampFloat(math.Round((c[a.Pair]+delta)*10)/10, dynamo.MinCoupling, dynamo.MaxCoupling)
	if err := a.Sim.SetCoupling(a.Pair, v); err != nil {
		a.Status = err.Error()
	}
}
