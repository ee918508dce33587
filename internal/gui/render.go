package gui

import (
	"fmt"
	"image/color"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/geometry"
	"github.com/san-kum/levelflow/internal/sim"
)

const learnedAlpha = 0.9

func toRGBA(c dynamo.Color, alpha float64) color.RGBA {
	r, g, b := c.RGB()
	return rl.NewColor(r, g, b, uint8(alpha*255))
}

// viewport fits the simulation plane into the area left of the HUD.
type viewport struct {
	scale, offX, offY float32
}

func newViewport(snap sim.Snapshot) viewport {
	areaW, areaH := float32(windowWidth-hudWidth), float32(windowHeight)
	if snap.Width <= 0 || snap.Height <= 0 {
		return viewport{scale: 1}
	}
	scale := min(areaW/float32(snap.Width), areaH/float32(snap.Height))
	return viewport{
		scale: scale,
		offX:  (areaW - float32(snap.Width)*scale) / 2,
		offY:  (areaH - float32(snap.Height)*scale) / 2,
	}
}

func (v viewport) at(p geometry.Point) rl.Vector2 {
	return rl.NewVector2(v.offX+float32(p.X)*v.scale, v.offY+float32(p.Y)*v.scale)
}

func (a *App) Draw() {
	pal := palettes[a.Palette]
	snap := a.Snap
	vp := newViewport(snap)

	rl.BeginDrawing()
	defer rl.EndDrawing()
	rl.ClearBackground(pal.Bg)

	if snap.Critical {
		rl.DrawRectangle(0, 0, windowWidth-hudWidth, windowHeight, rl.NewColor(0, 255, 0, 51))
	}

	for _, e := range snap.Edges {
		alpha := e.Color.Alpha()
		if e.Learned {
			alpha = learnedAlpha
		}
		rl.DrawLineEx(vp.at(e.From), vp.at(e.To), float32(e.Weight), toRGBA(e.Color, alpha))
	}

	for l := 0; l < dynamo.NumLevels; l++ {
		x := vp.offX + float32(snap.Width)/float32(dynamo.NumLevels+1)*float32(l+1)*vp.scale
		label := dynamo.Level(l).String()
		w := rl.MeasureText(label, 18)
		rl.DrawText(label, int32(x)-w/2, int32(vp.offY)+12, 18, pal.Text)
	}
	for _, n := range snap.Nodes {
		pos := vp.at(n.Position)
		rl.DrawCircleV(pos, 20*vp.scale, toRGBA(n.Color, 1))
		label := fmt.Sprintf("Node %d", n.Endpoint.Node+1)
		w := rl.MeasureText(label, 10)
		rl.DrawText(label, int32(pos.X)-w/2, int32(pos.Y+24*vp.scale), 10, pal.TextDim)
	}

	for _, p := range snap.Particles {
		for i, t := range p.Trail {
			rl.DrawCircleV(vp.at(t), (1+float32(i)*0.2)*vp.scale, toRGBA(p.Color, float64(i+1)/10))
		}
		pos := vp.at(p.Position)
		col := toRGBA(p.Color, 1)
		if p.Shape == dynamo.Diamond {
			rl.DrawPoly(pos, 4, 4*vp.scale, 0, col)
		} else {
			rl.DrawCircleV(pos, 3*vp.scale, col)
		}
	}

	if snap.Critical {
		const text = "CRITICALITY"
		w := rl.MeasureText(text, 48)
		cx := int32(windowWidth-hudWidth) / 2
		rl.DrawText(text, cx-w/2, windowHeight/2-24, 48, rl.NewColor(255, 0, 0, uint8(snap.Intensity*255)))
	}

	a.drawHUD(pal)
}

func (a *App) drawHUD(pal Palette) {
	snap := a.Snap
	x := int32(windowWidth - hudWidth + 20)
	y := int32(24)
	line := func(text string, size int32, col color.RGBA) {
		rl.DrawText(text, x, y, size, col)
		y += (size + 8) * int32(1+strings.Count(text, "\n"))
	}

	rl.DrawRectangle(windowWidth-hudWidth, 0, hudWidth, windowHeight, rl.Fade(pal.TextDim, 0.15))
	line(a.Title, 24, pal.Select)
	state := "IDLE"
	if snap.State == sim.Running {
		state = "RUNNING"
	}
	if a.Paused {
		state = "PAUSED"
	}
	line(state, 16, pal.Text)
	y += 8

	keys := []string{"F", "E", "W"}
	for i, m := range dynamo.Modes {
		col := pal.TextDim
		if snap.Modes.Has(m) {
			col = toRGBA(dynamo.LevelColor(dynamo.Level(i+1)), 1)
		}
		line(fmt.Sprintf("[%s] %s", keys[i], m), 16, col)
	}
	if snap.Description != "" {
		line(wrap(snap.Description, 44), 12, pal.Text)
	}
	y += 8

	line(fmt.Sprintf("Complexity %d  (optimal %d)", snap.Complexity, snap.Optimal), 16, pal.Text)
	for i, v := range snap.Coupling {
		col := pal.TextDim
		if i == a.Pair {
			col = pal.Select
		}
		name := fmt.Sprintf("%s-%s", dynamo.Level(i), dynamo.Level(i+1))
		line(fmt.Sprintf("%-22s %.1f", name, v), 14, col)
		rl.DrawRectangle(x, y-6, int32(v/dynamo.MaxCoupling*float64(hudWidth-60)), 3, col)
		y += 4
	}
	y += 8
	line(fmt.Sprintf("Particles %d / %d", len(snap.Particles), snap.MaxPopulation), 16, pal.Text)
	line(fmt.Sprintf("Memory    %d edges", snap.MemoryEntries), 16, pal.Text)
	line(fmt.Sprintf("Tick      %d   %d fps", snap.Tick, rl.GetFPS()), 16, pal.Text)
	if a.Status != "" {
		y += 8
		line(wrap(a.Status, 44), 12, pal.TextDim)
	}

	y = windowHeight - 90
	line("+/- complexity   TAB pair   UP/DOWN coupling", 12, pal.TextDim)
	line("T palette   Q quit", 12, pal.TextDim)
	line("R reset to start settings   SPACE pause", 12, pal.TextDim)
}

// wrap breaks text into lines of at most width bytes at spaces.
func wrap(text string, width int) string {
	out := make([]byte, 0, len(text)+8)
	col := 0
	lastSpace := -1
	for i := 0; i < len(text); i++ {
		c := text[i]
		out = append(out, c)
		col++
		if c == ' ' {
			lastSpace = len(out) - 1
		}
		if col > width && lastSpace >= 0 {
			out[lastSpace] = '\n'
			col = len(out) - lastSpace - 1
			lastSpace = -1
		}
	}
	return string(out)
}
