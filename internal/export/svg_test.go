package export

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/airace/internal/geom"
	"github.com/san-kum/airace/internal/viz"
)

func wellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if err != nil {
			require.Equal(t, "EOF", err.Error(), "svg is not well formed")
			return
		}
	}
}

func TestCanvasToSVG(t *testing.T) {
	assert.Empty(t, CanvasToSVG(nil, 4))

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 4)
	wellFormed(t, svg)
	assert.Equal(t, 2, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, `width="16" height="16"`)
}

func TestTrackToSVG(t *testing.T) {
	f := viz.Frame{
		Gates: []viz.Gate{
			{Index: 0, Position: geom.Vec3{0, 0, 0}, Radius: 20},
			{Index: 1, Position: geom.Vec3{200, 0, 100}, Radius: 20},
			{Index: 2, Position: geom.Vec3{0, 0, 200}, Radius: 20, IsFinish: true},
		},
		Agents: []viz.AgentFrame{
			{Name: "agent-0", Position: geom.Vec3{5, 0, 5}, Heading: geom.Forward, Visible: true},
			{Name: "agent-1", Position: geom.Vec3{9, 0, 5}, Heading: geom.Forward},
		},
	}

	svg := TrackToSVG(f, 400, 300)
	wellFormed(t, svg)
	assert.Equal(t, 3, strings.Count(svg, `class="gate"`))
	assert.Equal(t, 1, strings.Count(svg, `class="agent"`), "hidden aircraft are skipped")
	assert.Contains(t, svg, "agent-0")
	assert.Contains(t, svg, `stroke="#ffffff"`)

	assert.Empty(t, TrackToSVG(viz.Frame{}, 400, 300))
}

func TestPlaneKeepsAspect(t *testing.T) {
	pl := newPlane(0, 0, 100, 100, 400, 200)
	x0, y0 := pl.at(0, 0)
	x1, y1 := pl.at(100, 100)
	assert.InDelta(t, x1-x0, y0-y1, 1e-9)
	assert.Greater(t, y0, y1)
}

func TestSeriesToSVG(t *testing.T) {
	assert.Empty(t, SeriesToSVG([]float64{1}, 100, 50, "#fff"))

	svg := SeriesToSVG([]float64{-1, 0.5, 0.5, 2}, 300, 100, "#00ff88")
	wellFormed(t, svg)
	assert.Equal(t, 3, strings.Count(svg, " L"))
	assert.Contains(t, svg, `stroke="#00ff88"`)
}
