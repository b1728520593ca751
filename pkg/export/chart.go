// Package export renders aggregated series as static line charts.
package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/jmverlaan/climogram/pkg/model"
)

// ChartOptions controls chart export behaviour.
type ChartOptions struct {
	Path     string                  // Output path; format inferred from extension when Format empty
	Format   string                  // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title    string                  // Optional title; defaults to the category name
	Category model.Category          // Series being rendered
	Points   []model.AggregatedPoint // One point per year, ascending
	Range    model.YearRange         // Resolved year range, rendered in the summary line
}

// SaveChart renders a yearly-mean line chart (SVG or PNG) with a small
// summary block.
func SaveChart(opts ChartOptions) error {
	if len(opts.Points) == 0 {
		return fmt.Errorf("no points to export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg" // safe default
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent dir: %w", err)
		}
	}

	layout := buildLayout(opts)

	switch format {
	case "svg":
		return renderSVG(opts.Path, layout)
	case "png":
		return renderPNG(opts.Path, layout)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// --- layout computation ----------------------------------------------------

type chartPoint struct {
	X, Y  float64
	Label string // year
	Value float64
}

type tick struct {
	Pos   float64
	Label string
}

type layoutResult struct {
	Width  int
	Height int

	PlotX, PlotY float64
	PlotW, PlotH float64

	Points     []chartPoint
	ValueTicks []tick // horizontal gridlines, Pos is Y
	YearTicks  []tick // x-axis labels, Pos is X

	Title    string
	Subtitle string
}

func buildLayout(opts ChartOptions) layoutResult {
	const (
		marginLeft   = 72.0
		marginRight  = 28.0
		marginTop    = 64.0
		marginBottom = 48.0
		minPlotW     = 480.0
		plotH        = 360.0
		valueTicks   = 5
	)

	n := len(opts.Points)
	plotW := float64(n-1) * 48
	if plotW < minPlotW {
		plotW = minPlotW
	}

	lo, hi := opts.Points[0].Value, opts.Points[0].Value
	for _, p := range opts.Points {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}
	if hi == lo {
		// Flat series: pad so the line sits mid-plot.
		lo--
		hi++
	}

	points := make([]chartPoint, n)
	for i, p := range opts.Points {
		x := marginLeft
		if n > 1 {
			x += float64(i) / float64(n-1) * plotW
		} else {
			x += plotW / 2
		}
		y := marginTop + plotH - (p.Value-lo)/(hi-lo)*plotH
		points[i] = chartPoint{X: x, Y: y, Label: p.Date, Value: p.Value}
	}

	vticks := make([]tick, 0, valueTicks)
	for i := 0; i < valueTicks; i++ {
		frac := float64(i) / float64(valueTicks-1)
		value := lo + (hi-lo)*frac
		y := marginTop + plotH - frac*plotH
		vticks = append(vticks, tick{Pos: y, Label: fmt.Sprintf("%.2f", value)})
	}

	// Thin out year labels so they never collide.
	step := 1
	if n > 12 {
		step = int(math.Ceil(float64(n) / 12))
	}
	yticks := make([]tick, 0, n)
	for i := 0; i < n; i += step {
		yticks = append(yticks, tick{Pos: points[i].X, Label: points[i].Label})
	}
	if last := n - 1; last%step != 0 {
		yticks = append(yticks, tick{Pos: points[last].X, Label: points[last].Label})
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = opts.Category.Title()
	}
	subtitle := fmt.Sprintf("yearly mean, %d–%d (%d years)", opts.Range.Start, opts.Range.End, n)

	return layoutResult{
		Width:      int(marginLeft + plotW + marginRight),
		Height:     int(marginTop + plotH + marginBottom),
		PlotX:      marginLeft,
		PlotY:      marginTop,
		PlotW:      plotW,
		PlotH:      plotH,
		Points:     points,
		ValueTicks: vticks,
		YearTicks:  yticks,
		Title:      title,
		Subtitle:   subtitle,
	}
}

// --- rendering -------------------------------------------------------------

var (
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorGrid     = color.RGBA{0xdd, 0xe2, 0xe8, 0xff}
	colorAxis     = color.RGBA{0x44, 0x4c, 0x56, 0xff}
	colorSeries   = color.RGBA{0x2b, 0x6c, 0xb8, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
)

func renderPNG(path string, layout layoutResult) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Title, layout.PlotX, 24, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(layout.Subtitle, layout.PlotX, 42, 0, 0.5)

	// gridlines + value labels
	for _, t := range layout.ValueTicks {
		dc.SetColor(colorGrid)
		dc.SetLineWidth(1)
		dc.DrawLine(layout.PlotX, t.Pos, layout.PlotX+layout.PlotW, t.Pos)
		dc.Stroke()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(t.Label, layout.PlotX-8, t.Pos, 1, 0.5)
	}

	// axes
	dc.SetColor(colorAxis)
	dc.SetLineWidth(1.5)
	dc.DrawLine(layout.PlotX, layout.PlotY, layout.PlotX, layout.PlotY+layout.PlotH)
	dc.DrawLine(layout.PlotX, layout.PlotY+layout.PlotH, layout.PlotX+layout.PlotW, layout.PlotY+layout.PlotH)
	dc.Stroke()

	// year labels
	dc.SetColor(colorSubtle)
	for _, t := range layout.YearTicks {
		dc.DrawStringAnchored(t.Label, t.Pos, layout.PlotY+layout.PlotH+16, 0.5, 0.5)
	}

	// series polyline
	dc.SetColor(colorSeries)
	dc.SetLineWidth(2)
	for i, p := range layout.Points {
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
			continue
		}
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
	for _, p := range layout.Points {
		dc.DrawCircle(p.X, p.Y, 2.5)
		dc.Fill()
	}

	return dc.SavePNG(path)
}

func renderSVG(path string, layout layoutResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return renderSVGToWriter(file, layout)
}

func renderSVGToWriter(w io.Writer, layout layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	canvas.Text(int(layout.PlotX), 24, layout.Title,
		fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(int(layout.PlotX), 42, layout.Subtitle,
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))

	for _, t := range layout.ValueTicks {
		canvas.Line(int(layout.PlotX), int(t.Pos), int(layout.PlotX+layout.PlotW), int(t.Pos),
			fmt.Sprintf("stroke:%s;stroke-width:1", css(colorGrid)))
		canvas.Text(int(layout.PlotX)-8, int(t.Pos)+4, t.Label,
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:end", css(colorSubtle)))
	}

	canvas.Line(int(layout.PlotX), int(layout.PlotY), int(layout.PlotX), int(layout.PlotY+layout.PlotH),
		fmt.Sprintf("stroke:%s;stroke-width:1.5", css(colorAxis)))
	canvas.Line(int(layout.PlotX), int(layout.PlotY+layout.PlotH),
		int(layout.PlotX+layout.PlotW), int(layout.PlotY+layout.PlotH),
		fmt.Sprintf("stroke:%s;stroke-width:1.5", css(colorAxis)))

	for _, t := range layout.YearTicks {
		canvas.Text(int(t.Pos), int(layout.PlotY+layout.PlotH)+18, t.Label,
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
	}

	xs := make([]int, len(layout.Points))
	ys := make([]int, len(layout.Points))
	for i, p := range layout.Points {
		xs[i] = int(p.X)
		ys[i] = int(p.Y)
	}
	canvas.Polyline(xs, ys, fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", css(colorSeries)))
	for _, p := range layout.Points {
		canvas.Circle(int(p.X), int(p.Y), 2, fmt.Sprintf("fill:%s", css(colorSeries)))
	}

	canvas.End()
	return nil
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
