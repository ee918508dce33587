// Package export renders simulation frames to static formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/sim"
)

const (
	nodeRadius     = 20
	particleRadius = 3
	diamondRadius  = 4
)

// SnapshotSVG renders snap as a standalone SVG document.
func SnapshotSVG(snap sim.Snapshot) string {
	var sb strings.Builder
	_ = WriteSVG(&sb, snap)
	return sb.String()
}

func WriteSVG(w io.Writer, snap sim.Snapshot) error {
	width, height := snap.Width, snap.Height
	b := &svgBuilder{}

	b.printf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %g %g" width="%g" height="%g">`+"\n", width, height, width, height)
	b.printf(`  <rect x="0" y="0" width="%g" height="%g" fill="rgba(200, 200, 200, 0.1)"/>`+"\n", width, height)
	if snap.Critical {
		b.printf(`  <rect x="0" y="0" width="%g" height="%g" fill="rgba(0, 255, 0, 0.2)"/>`+"\n", width, height)
	}

	b.printf("  <g id=\"edges\">\n")
	for _, e := range snap.Edges {
		b.printf(`    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%g"/>`+"\n",
			e.From.X, e.From.Y, e.To.X, e.To.Y, e.Color, e.Weight)
	}
	b.printf("  </g>\n")

	b.printf("  <g id=\"levels\">\n")
	for l := 0; l < dynamo.NumLevels; l++ {
		x := width / float64(dynamo.NumLevels+1) * float64(l+1)
		b.printf(`    <text x="%.2f" y="30" text-anchor="middle" font-weight="bold">%s</text>`+"\n", x, dynamo.Level(l))
	}
	for _, n := range snap.Nodes {
		b.printf(`    <circle cx="%.2f" cy="%.2f" r="%d" fill="%s"/>`+"\n", n.Position.X, n.Position.Y, nodeRadius, n.Color)
		b.printf(`    <text x="%.2f" y="%.2f" text-anchor="middle" font-size="10">Node %d</text>`+"\n",
			n.Position.X, n.Position.Y+nodeRadius+10, n.Endpoint.Node+1)
	}
	b.printf("  </g>\n")

	b.printf("  <g id=\"particles\">\n")
	for _, p := range snap.Particles {
		for i, t := range p.Trail {
			b.printf(`    <circle cx="%.2f" cy="%.2f" r="%.1f" fill="%s" opacity="%.1f"/>`+"\n",
				t.X, t.Y, 1+float64(i)*0.2, p.Color, float64(i+1)/10)
		}
		x, y := p.Position.X, p.Position.Y
		if p.Shape == dynamo.Diamond {
			r := float64(diamondRadius)
			b.printf(`    <polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s"/>`+"\n",
				x, y-r, x+r, y, x, y+r, x-r, y, p.Color)
		} else {
			b.printf(`    <circle cx="%.2f" cy="%.2f" r="%d" fill="%s"/>`+"\n", x, y, particleRadius, p.Color)
		}
	}
	b.printf("  </g>\n")

	if snap.Critical {
		b.printf(`  <text x="%.2f" y="%.2f" text-anchor="middle" font-size="36" font-weight="bold" fill="rgba(255, 0, 0, %.3f)">CRITICALITY</text>`+"\n",
			width/2, height/2, snap.Intensity)
	}
	b.printf("</svg>\n")

	if b.err != nil {
		return b.err
	}
	_, err := io.WriteString(w, b.sb.String())
	return err
}

type svgBuilder struct {
	sb  strings.Builder
	err error
}

func (b *svgBuilder) printf(format string, args ...any) {
	if b.err != nil {
		return
	}
	_, b.err = fmt.Fprintf(&b.sb, format, args...)
}
