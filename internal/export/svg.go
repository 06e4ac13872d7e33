package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/airace/internal/viz"
)

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`

var agentColors = []string{"#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#66aaff", "#ff6b6b"}

// CanvasToSVG converts a braille canvas to one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	w := int(float64(canvas.DotsWide()) * scale)
	h := int(float64(canvas.DotsHigh()) * scale)

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, w, h, w, h)
	sb.WriteString("<g fill=\"#00ff00\">\n")

	r := scale * 0.4
	for y := 0; y < canvas.DotsHigh(); y++ {
		for x := 0; x < canvas.DotsWide(); x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// plane maps world X/Z onto an SVG of the given size with 10% padding,
// keeping the aspect ratio.
type plane struct {
	minX, minZ, scale float64
	offX, offY        float64
	height            float64
}

func newPlane(minX, minZ, maxX, maxZ float64, width, height int) plane {
	padX := math.Max((maxX-minX)*0.1, 1)
	padZ := math.Max((maxZ-minZ)*0.1, 1)
	minX, maxX = minX-padX, maxX+padX
	minZ, maxZ = minZ-padZ, maxZ+padZ

	scale := math.Min(float64(width)/(maxX-minX), float64(height)/(maxZ-minZ))
	return plane{
		minX:   minX,
		minZ:   minZ,
		scale:  scale,
		offX:   (float64(width) - (maxX-minX)*scale) / 2,
		offY:   (float64(height) - (maxZ-minZ)*scale) / 2,
		height: float64(height),
	}
}

func (p plane) at(x, z float64) (float64, float64) {
	return p.offX + (x-p.minX)*p.scale, p.height - p.offY - (z-p.minZ)*p.scale
}

// TrackToSVG draws a top-down map of a frame: the course line, every gate
// with its trigger radius and each aircraft with its heading.
func TrackToSVG(f viz.Frame, width, height int) string {
	if len(f.Gates) == 0 {
		return ""
	}

	minX, minZ := f.Gates[0].Position.X(), f.Gates[0].Position.Z()
	maxX, maxZ := minX, minZ
	for _, g := range f.Gates {
		minX, maxX = math.Min(minX, g.Position.X()-g.Radius), math.Max(maxX, g.Position.X()+g.Radius)
		minZ, maxZ = math.Min(minZ, g.Position.Z()-g.Radius), math.Max(maxZ, g.Position.Z()+g.Radius)
	}
	for _, a := range f.Agents {
		minX, maxX = math.Min(minX, a.Position.X()), math.Max(maxX, a.Position.X())
		minZ, maxZ = math.Min(minZ, a.Position.Z()), math.Max(maxZ, a.Position.Z())
	}
	pl := newPlane(minX, minZ, maxX, maxZ, width, height)

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)

	sb.WriteString(`<path fill="none" stroke="#00cccc" stroke-width="1.5" d="`)
	for i, g := range f.Gates {
		x, y := pl.at(g.Position.X(), g.Position.Z())
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(" Z\"/>\n")

	for _, g := range f.Gates {
		x, y := pl.at(g.Position.X(), g.Position.Z())
		stroke := "#444466"
		if g.IsFinish {
			stroke = "#ffffff"
		}
		fmt.Fprintf(&sb, "<circle class=\"gate\" cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"none\" stroke=\"%s\"/>\n",
			x, y, g.Radius*pl.scale, stroke)
		fmt.Fprintf(&sb, "<text x=\"%.1f\" y=\"%.1f\" fill=\"#666688\" font-size=\"10\">%d</text>\n",
			x+g.Radius*pl.scale+2, y, g.Index)
	}

	for i, a := range f.Agents {
		if !a.Visible {
			continue
		}
		color := agentColors[i%len(agentColors)]
		x, y := pl.at(a.Position.X(), a.Position.Z())
		hx, hy := pl.at(a.Position.X()+a.Heading.X()*30, a.Position.Z()+a.Heading.Z()*30)
		fmt.Fprintf(&sb, "<g class=\"agent\"><title>%s</title><circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>"+
			"<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"%s\"/></g>\n",
			a.Name, x, y, color, x, y, hx, hy, color)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// SeriesToSVG plots values against their index as a polyline.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minY, maxY := values[0], values[0]
	for _, v := range values {
		minY, maxY = math.Min(minY, v), math.Max(maxY, v)
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2
	rangeX := float64(len(values) - 1)

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)

	for i, v := range values {
		x := float64(i) / rangeX * float64(width)
		y := float64(height) - (v-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
