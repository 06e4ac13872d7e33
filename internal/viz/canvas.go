package viz

import (
	"math"
	"strings"
)

// Each cell is one braille rune holding a 2x4 block of dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBlank = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a monochrome dot canvas. Dot coordinates run from (0, 0) at the
// top left to (DotsWide()-1, DotsHigh()-1).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) DotsWide() int { return c.Width * 2 }
func (c *Canvas) DotsHigh() int { return c.Height * 4 }

func (c *Canvas) cell(x, y int) (row, col int, mask rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, pixelMap[y%4][x%2], true
}

// Set lights a dot. Out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if row, col, mask, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= mask
	}
}

func (c *Canvas) Unset(x, y int) {
	if row, col, mask, ok := c.cell(x, y); ok {
		c.Grid[row][col] &^= mask
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, mask, ok := c.cell(x, y)
	return ok && c.Grid[row][col]&mask != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCircle outlines a circle with the midpoint algorithm.
func (c *Canvas) DrawCircle(cx, cy, r int) {
	if r <= 0 {
		c.Set(cx, cy)
		return
	}
	x, y, d := r, 0, 1-r
	for x >= y {
		for _, p := range [8][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}} {
			c.Set(cx+p[0], cy+p[1])
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

// FillBlock lights a (2r+1)-dot square around (cx, cy).
func (c *Canvas) FillBlock(cx, cy, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c.Set(cx+dx, cy+dy)
		}
	}
}

// DrawCross draws an X of half-size r, used for exploding aircraft.
func (c *Canvas) DrawCross(cx, cy, r int) {
	c.DrawLine(cx-r, cy-r, cx+r, cy+r)
	c.DrawLine(cx-r, cy+r, cx+r, cy-r)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

// Viewport maps a world rectangle onto canvas dots, preserving aspect so
// circles stay round.
type Viewport struct {
	minX, minY float64
	scale      float64
	offX, offY float64
	dotsHigh   int
}

// FitViewport frames the given bounds with a margin of dots on each side.
func FitViewport(c *Canvas, minX, minY, maxX, maxY float64, margin int) Viewport {
	w := float64(c.DotsWide() - 2*margin)
	h := float64(c.DotsHigh() - 2*margin)
	spanX := math.Max(maxX-minX, 1e-9)
	spanY := math.Max(maxY-minY, 1e-9)
	scale := math.Min(w/spanX, h/spanY)

	return Viewport{
		minX:     minX,
		minY:     minY,
		scale:    scale,
		offX:     float64(margin) + (w-spanX*scale)/2,
		offY:     float64(margin) + (h-spanY*scale)/2,
		dotsHigh: c.DotsHigh(),
	}
}

// Map converts world (x, y) with y pointing up into canvas dots.
func (v Viewport) Map(x, y float64) (int, int) {
	px := v.offX + (x-v.minX)*v.scale
	py := v.offY + (y-v.minY)*v.scale
	return int(math.Round(px)), v.dotsHigh - 1 - int(math.Round(py))
}

// Scale converts a world length to dots.
func (v Viewport) Scale(d float64) int { return int(math.Round(d * v.scale)) }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
