package ui

import (
	"strings"
	"testing"

	"github.com/jmverlaan/climogram/pkg/model"
)

func samplePoints() []model.AggregatedPoint {
	return []model.AggregatedPoint{
		{Date: "2018", Value: 9.5},
		{Date: "2019", Value: 11.3},
		{Date: "2020", Value: 10.0},
	}
}

func TestRenderChartShowsAxisLabels(t *testing.T) {
	out := renderChart(samplePoints(), 60, 12)
	if out == "" {
		t.Fatal("empty chart")
	}
	for _, want := range []string{"11.3", "9.5", "2018", "2020"} {
		if !strings.Contains(out, want) {
			t.Errorf("chart missing %q:\n%s", want, out)
		}
	}
}

func TestRenderChartLineCountMatchesHeight(t *testing.T) {
	const height = 12
	out := renderChart(samplePoints(), 60, height)
	if got := len(strings.Split(out, "\n")); got != height {
		t.Errorf("chart has %d lines, want %d", got, height)
	}
}

func TestRenderChartContainsBrailleDots(t *testing.T) {
	out := renderChart(samplePoints(), 60, 12)
	found := false
	for _, r := range out {
		if r > brailleBase && r <= brailleBase+0xff {
			found = true
			break
		}
	}
	if !found {
		t.Error("chart has no braille cells")
	}
}

func TestRenderChartHandlesDegenerateSizes(t *testing.T) {
	if out := renderChart(samplePoints(), 5, 2); out != "" {
		t.Errorf("tiny chart = %q, want empty", out)
	}
	if out := renderChart(nil, 60, 12); out != "" {
		t.Errorf("no points = %q, want empty", out)
	}
}

func TestRenderChartSinglePoint(t *testing.T) {
	out := renderChart(samplePoints()[:1], 40, 10)
	if out == "" {
		t.Fatal("single point chart empty")
	}
	if !strings.Contains(out, "2018") {
		t.Error("single point chart missing year label")
	}
}

func TestBrailleCanvasSetAndClip(t *testing.T) {
	c := newBrailleCanvas(2, 1)
	c.set(0, 0)
	c.set(3, 3)
	c.set(-1, 0)  // clipped
	c.set(4, 0)   // clipped
	c.set(0, 100) // clipped

	rows := c.rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	want := string([]rune{brailleBase + 0x01, brailleBase + 0x80})
	if rows[0] != want {
		t.Errorf("row = %q, want %q", rows[0], want)
	}
}
