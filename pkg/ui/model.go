// Package ui implements the climogram terminal interface: a tabbed
// line-chart view over the aggregated series, driven entirely by
// messages from the background load coordinator.
package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmverlaan/climogram/pkg/export"
	"github.com/jmverlaan/climogram/pkg/model"
	"github.com/jmverlaan/climogram/pkg/worker"
)

// dataRequester is the slice of the coordinator the UI needs. Tests
// substitute a fake; production passes *worker.Coordinator.
type dataRequester interface {
	Get(cat model.Category, rng *model.YearRange)
	Terminate()
	Messages() <-chan tea.Msg
	Done() <-chan struct{}
}

type viewState int

const (
	stateConnecting viewState = iota // waiting for the store to open
	stateLoading                     // first request for a category in flight
	stateChart                       // series on screen
	stateError                       // coordinator reported a failure
)

// Model is the Bubble Tea model for the chart view.
type Model struct {
	requester dataRequester

	state    viewState
	category model.Category

	points []model.AggregatedPoint
	years  []int // all years available for the category, ascending
	rng    model.YearRange

	width   int
	height  int
	spinner spinner.Model

	err      error
	showHelp bool
	flash    string // transient status line (copy/export confirmations)
	pending  bool   // a range request is in flight while the chart stays up
}

// NewModel builds the initial model. The coordinator must already be
// started; the model issues the first Get once ReadyMsg arrives.
func NewModel(requester dataRequester, initial model.Category) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	if !initial.Valid() {
		initial = model.CategoryTemperature
	}
	return Model{
		requester: requester,
		state:     stateConnecting,
		category:  initial,
		spinner:   sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

// listen blocks on the coordinator's message channel and hands the
// next message to Update. Re-armed after every received message.
func (m Model) listen() tea.Cmd {
	msgs := m.requester.Messages()
	done := m.requester.Done()
	return func() tea.Msg {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			return msg
		case <-done:
			return nil
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	default:
		return m.handleWorkerMsg(msg)
	}
}

func (m Model) handleWorkerMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case worker.ReadyMsg:
		m.state = stateLoading
		m.requester.Get(m.category, nil)
		return m, m.listen()

	case worker.DataMsg:
		if msg.Category != m.category {
			// Response for a tab we already left.
			return m, m.listen()
		}
		m.points = msg.Points
		m.years = msg.Years
		m.rng = msg.Range
		m.state = stateChart
		m.pending = false
		m.err = nil
		return m, m.listen()

	case worker.ErrorMsg:
		m.err = msg.Err
		m.state = stateError
		m.pending = false
		return m, m.listen()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.requester.Terminate()
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "tab", "right":
		return m.switchCategory(1)
	case "shift+tab", "left":
		return m.switchCategory(-1)

	case "[":
		return m.adjustRange(-1, 0)
	case "]":
		return m.adjustRange(1, 0)
	case "{":
		return m.adjustRange(0, -1)
	case "}":
		return m.adjustRange(0, 1)

	case "r":
		if m.state == stateChart {
			m.pending = true
			m.requester.Get(m.category, nil)
		}
		return m, nil

	case "c":
		return m.copyCSV()

	case "e":
		return m.exportPNG()

	case "enter":
		if m.state == stateError {
			m.state = stateLoading
			m.err = nil
			m.requester.Get(m.category, nil)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) switchCategory(dir int) (tea.Model, tea.Cmd) {
	if m.state == stateConnecting {
		return m, nil
	}
	cats := model.Categories()
	idx := 0
	for i, c := range cats {
		if c == m.category {
			idx = i
			break
		}
	}
	m.category = cats[(idx+dir+len(cats))%len(cats)]
	m.points = nil
	m.years = nil
	m.state = stateLoading
	m.requester.Get(m.category, nil)
	return m, nil
}

// adjustRange nudges the visible range by one year on either end,
// clamped to the years the cache actually holds, and requests the new
// slice. The chart stays on screen until the fresh data lands.
func (m Model) adjustRange(dStart, dEnd int) (tea.Model, tea.Cmd) {
	if m.state != stateChart || len(m.years) == 0 {
		return m, nil
	}
	minYear, maxYear := m.years[0], m.years[len(m.years)-1]

	next := m.rng
	next.Start = clamp(next.Start+dStart, minYear, next.End)
	next.End = clamp(next.End+dEnd, next.Start, maxYear)
	if next == m.rng {
		return m, nil
	}

	m.rng = next
	m.pending = true
	rng := next
	m.requester.Get(m.category, &rng)
	return m, nil
}

func (m Model) copyCSV() (tea.Model, tea.Cmd) {
	if m.state != stateChart || len(m.points) == 0 {
		return m, nil
	}
	var sb strings.Builder
	sb.WriteString("year,value\n")
	for _, p := range m.points {
		fmt.Fprintf(&sb, "%s,%.2f\n", p.Date, p.Value)
	}
	if err := clipboard.WriteAll(sb.String()); err != nil {
		m.flash = "clipboard unavailable"
		return m, nil
	}
	m.flash = fmt.Sprintf("copied %d rows as CSV", len(m.points))
	return m, nil
}

func (m Model) exportPNG() (tea.Model, tea.Cmd) {
	if m.state != stateChart || len(m.points) == 0 {
		return m, nil
	}
	path := fmt.Sprintf("climogram-%s-%d-%d.png", m.category, m.rng.Start, m.rng.End)
	err := export.SaveChart(export.ChartOptions{
		Path:     path,
		Format:   "png",
		Category: m.category,
		Points:   m.points,
		Range:    m.rng,
	})
	if err != nil {
		m.flash = fmt.Sprintf("export failed: %v", err)
		return m, nil
	}
	m.flash = "exported " + path
	return m, nil
}

func (m Model) View() string {
	if m.showHelp {
		return renderHelp(m.width)
	}

	var sb strings.Builder
	sb.WriteString(m.renderTabs())
	sb.WriteByte('\n')

	switch m.state {
	case stateConnecting:
		sb.WriteString(fmt.Sprintf("\n %s opening series cache...\n", m.spinner.View()))
	case stateLoading:
		sb.WriteString(fmt.Sprintf("\n %s loading %s...\n", m.spinner.View(), m.category.Title()))
	case stateError:
		sb.WriteString("\n")
		sb.WriteString(errorBannerStyle.Render(fmt.Sprintf("error: %v", m.err)))
		sb.WriteString("\n\n")
		sb.WriteString(statusStyle.Render("press enter to retry, q to quit"))
		sb.WriteByte('\n')
	case stateChart:
		sb.WriteString(m.renderChartBody())
	}

	sb.WriteByte('\n')
	sb.WriteString(m.renderStatus())
	return sb.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, 2)
	for _, c := range model.Categories() {
		style := tabStyle
		if c == m.category {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(c.Title()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderChartBody() string {
	w := m.width
	if w <= 0 {
		w = 80
	}
	h := m.height - 6 // tabs, title, status
	if h < 8 {
		h = 8
	}

	var sb strings.Builder
	title := fmt.Sprintf("%s, yearly mean %d–%d", m.category.Title(), m.rng.Start, m.rng.End)
	if m.pending {
		title += "  " + m.spinner.View()
	}
	sb.WriteString(" " + titleStyle.Render(title) + "\n")
	sb.WriteString(chartStyle.Render(renderChart(m.points, w-2, h)))
	sb.WriteByte('\n')
	return sb.String()
}

func (m Model) renderStatus() string {
	if m.flash != "" {
		return " " + flashStyle.Render(m.flash)
	}
	hint := "tab: category  [ ] { }: range  r: reset  c: copy  e: export  ?: help  q: quit"
	return " " + statusStyle.Render(hint)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
