package analysis

import (
	"strings"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D pairs each sample with the one Lag ticks later.
type PhasePortrait2D struct {
	Lag    int
	Points []Point
}

// ReturnMap builds the delay embedding (x[t], x[t+lag]).
func ReturnMap(series []float64, lag int) *PhasePortrait2D {
	if lag <= 0 {
		lag = 1
	}
	if len(series) <= lag {
		return nil
	}
	portrait := &PhasePortrait2D{Lag: lag, Points: make([]Point, 0, len(series)-lag)}
	for i := 0; i+lag < len(series); i++ {
		portrait.Points = append(portrait.Points, Point{X: series[i], Y: series[i+lag]})
	}
	return portrait
}

// PhasePortraitToASCII plots the portrait on a width x height grid.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	// identity diagonal
	for col := 0; col < width; col++ {
		row := height - 1 - col*(height-1)/(width-1)
		grid[row][col] = '·'
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		grid[row][col] = '•'
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
