package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jmverlaan/climogram/pkg/model"
)

// Braille-cell line chart. Each terminal cell packs 2x4 dots, so a
// plot of W cells by H cells gives a 2W x 4H dot canvas.
const (
	brailleBase  = 0x2800
	dotsPerCellX = 2
	dotsPerCellY = 4
)

// brailleDotBits maps (dx, dy) within a cell to the Unicode braille bit.
var brailleDotBits = [dotsPerCellX][dotsPerCellY]rune{
	{0x01, 0x02, 0x04, 0x40}, // left column, top to bottom
	{0x08, 0x10, 0x20, 0x80}, // right column, top to bottom
}

type brailleCanvas struct {
	cells  [][]rune
	width  int // in cells
	height int // in cells
}

func newBrailleCanvas(width, height int) *brailleCanvas {
	cells := make([][]rune, height)
	for y := range cells {
		cells[y] = make([]rune, width)
	}
	return &brailleCanvas{cells: cells, width: width, height: height}
}

// set turns on the dot at dot-grid coordinates (x, y). Out-of-range
// dots are ignored so line clipping stays simple.
func (c *brailleCanvas) set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cx, cy := x/dotsPerCellX, y/dotsPerCellY
	if cx >= c.width || cy >= c.height {
		return
	}
	c.cells[cy][cx] |= brailleDotBits[x%dotsPerCellX][y%dotsPerCellY]
}

// line draws a dot line from (x0, y0) to (x1, y1) with Bresenham.
func (c *brailleCanvas) line(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *brailleCanvas) rows() []string {
	out := make([]string, c.height)
	for y, row := range c.cells {
		var sb strings.Builder
		for _, cell := range row {
			if cell == 0 {
				sb.WriteRune(' ')
			} else {
				sb.WriteRune(brailleBase + cell)
			}
		}
		out[y] = sb.String()
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// renderChart draws points as a braille line chart with a y-axis of
// value labels and first/last year markers underneath. width and
// height are the total character budget including axes.
func renderChart(points []model.AggregatedPoint, width, height int) string {
	if len(points) == 0 {
		return ""
	}

	lo, hi := points[0].Value, points[0].Value
	for _, p := range points {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}
	if hi == lo {
		lo--
		hi++
	}

	// Y-axis gutter sized to the widest label.
	labelHi := fmt.Sprintf("%.1f", hi)
	labelLo := fmt.Sprintf("%.1f", lo)
	gutter := runewidth.StringWidth(labelHi)
	if w := runewidth.StringWidth(labelLo); w > gutter {
		gutter = w
	}

	plotW := width - gutter - 2 // gutter + "┤" separator
	plotH := height - 2         // x-axis line + year labels
	if plotW < 4 || plotH < 2 {
		return ""
	}

	canvas := newBrailleCanvas(plotW, plotH)
	dotsW := plotW*dotsPerCellX - 1
	dotsH := plotH*dotsPerCellY - 1

	n := len(points)
	px, py := make([]int, n), make([]int, n)
	for i, p := range points {
		if n > 1 {
			px[i] = i * dotsW / (n - 1)
		} else {
			px[i] = dotsW / 2
		}
		py[i] = dotsH - int((p.Value-lo)/(hi-lo)*float64(dotsH)+0.5)
	}
	if n == 1 {
		canvas.set(px[0], py[0])
	}
	for i := 1; i < n; i++ {
		canvas.line(px[i-1], py[i-1], px[i], py[i])
	}

	var sb strings.Builder
	for y, row := range canvas.rows() {
		label := strings.Repeat(" ", gutter)
		switch y {
		case 0:
			label = pad(labelHi, gutter)
		case plotH - 1:
			label = pad(labelLo, gutter)
		}
		sb.WriteString(label)
		sb.WriteString(" ┤")
		sb.WriteString(row)
		sb.WriteByte('\n')
	}

	sb.WriteString(strings.Repeat(" ", gutter))
	sb.WriteString(" └")
	sb.WriteString(strings.Repeat("─", plotW))
	sb.WriteByte('\n')

	first, last := points[0].Date, points[n-1].Date
	gap := plotW - runewidth.StringWidth(first) - runewidth.StringWidth(last)
	sb.WriteString(strings.Repeat(" ", gutter+2))
	sb.WriteString(first)
	if gap > 0 && last != first {
		sb.WriteString(strings.Repeat(" ", gap))
		sb.WriteString(last)
	}

	return sb.String()
}

// pad right-aligns s into a field of the given display width.
func pad(s string, width int) string {
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}
