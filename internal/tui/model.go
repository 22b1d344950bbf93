// Package tui renders the live dashboard in the terminal.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"minetrack/internal/aggregate"
	"minetrack/internal/registry"
	"minetrack/internal/session"
	"minetrack/internal/telemetry"
)

// DefaultRefresh is how often the model pulls from its source.
const DefaultRefresh = time.Second

// Source is what the dashboard reads from and toggles.
type Source interface {
	Summary() session.Summary
	Entities() []session.EntityView
	SeriesControls() []session.SeriesControl
	VisibleSeries() map[string][]telemetry.Sample
	SetVisibility(id string, visible bool) bool
	SetAllVisibility(visible bool)
}

type refreshMsg struct{}

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

func levelColor(sum session.Summary) lipgloss.Color {
	if sum.Status != session.StatusLive.String() {
		if sum.Status == session.StatusDisconnected.String() {
			return lipgloss.Color("9")
		}
		return lipgloss.Color("8")
	}
	switch sum.Level {
	case aggregate.LevelOperational:
		return lipgloss.Color("10")
	case aggregate.LevelUnstable:
		return lipgloss.Color("11")
	default:
		return lipgloss.Color("9")
	}
}

type model struct {
	src      Source
	refresh  time.Duration
	table    table.Model
	vp       viewport.Model
	summary  session.Summary
	entities []session.EntityView
	controls []session.SeriesControl
	series   map[string][]telemetry.Sample
	cursor   int
	wrap     bool
	width    int
	height   int
}

func newModel(src Source, refresh time.Duration) model {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	cols := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Server", Width: 20},
		{Title: "Type", Width: 4},
		{Title: "Address", Width: 24},
		{Title: "Status", Width: 22},
		{Title: "Trend", Width: 8},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(1))
	return model{
		src:     src,
		refresh: refresh,
		table:   t,
		vp:      viewport.New(0, 0),
		width:   80,
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg { return refreshMsg{} }
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.layout()
	case refreshMsg:
		m.pull()
		return m, m.tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "j", "down":
			if m.cursor < len(m.controls)-1 {
				m.cursor++
			}
			m.layout()
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
			m.layout()
		case " ":
			if m.cursor < len(m.controls) {
				c := m.controls[m.cursor]
				m.src.SetVisibility(c.ID, !c.Visible)
				m.pull()
			}
		case "a":
			m.src.SetAllVisibility(true)
			m.pull()
		case "A":
			m.src.SetAllVisibility(false)
			m.pull()
		case "w":
			m.wrap = !m.wrap
			m.layout()
		}
	}
	return m, nil
}

// pull copies the source state into the model.
func (m *model) pull() {
	m.summary = m.src.Summary()
	m.entities = m.src.Entities()
	m.controls = m.src.SeriesControls()
	m.series = m.src.VisibleSeries()
	if m.cursor >= len(m.controls) {
		m.cursor = max(len(m.controls)-1, 0)
	}
	rows := make([]table.Row, 0, len(m.entities))
	for _, e := range m.entities {
		rank := ""
		if e.Rank > 0 {
			rank = strconv.Itoa(e.Rank)
		}
		rows = append(rows, table.Row{rank, e.ID, e.Type, e.IP, e.Status, e.Trend})
	}
	m.table.SetRows(rows)
	m.layout()
}

func (m *model) layout() {
	m.vp.SetContent(m.renderControls())
	tableRows := max(len(m.entities), 1)
	if m.height > 0 {
		fixed := lipgloss.Height(m.renderHeader()) + lipgloss.Height(m.renderBottom()) + 4
		avail := max(m.height-fixed, 2)
		ctl := min(max(len(m.controls), 1), avail/2)
		tableRows = max(min(tableRows, avail-ctl-1), 1)
		m.vp.Height = ctl
	} else {
		m.vp.Height = max(len(m.controls), 1)
	}
	m.table.SetHeight(tableRows + 1)
}

func (m model) renderHeader() string {
	tagline := m.summary.Message
	if tagline == "" {
		tagline = m.summary.Status
	}
	if m.wrap && m.width > 0 {
		tagline = wordwrap.String(tagline, m.width)
	}
	status := lipgloss.NewStyle().Foreground(levelColor(m.summary)).Render(tagline)
	totals := fmt.Sprintf("%s players on %d servers", registry.FormatCount(m.summary.TotalPlayers), m.summary.KnownEntities)
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("minetrack"), status, totals)
}

func (m model) renderControls() string {
	if len(m.controls) == 0 {
		return dimStyle.Render("no series")
	}
	lines := make([]string, len(m.controls))
	for i, c := range m.controls {
		mark := "[ ]"
		if c.Visible {
			mark = "[x]"
		}
		line := mark + " " + c.ID
		if c.Visible {
			line += " " + renderSparkline(m.series[c.ID], 24)
		}
		if i == m.cursor {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func (m model) renderBottom() string {
	wrapColor := lipgloss.Color("9")
	if m.wrap {
		wrapColor = lipgloss.Color("10")
	}
	wrapIndicator := lipgloss.NewStyle().Foreground(wrapColor).Render("●")
	return dimStyle.Render("j/k move | space toggle | a/A show/hide all | q quit") + " | Wrap " + wrapIndicator
}

func (m model) View() string {
	divider := strings.Repeat("─", max(m.width, 1))
	return strings.Join([]string{
		m.renderHeader(),
		divider,
		m.table.View(),
		divider,
		"Graph:",
		m.vp.View(),
		divider,
		m.renderBottom(),
	}, "\n")
}

// Run starts the dashboard and blocks until the user quits or ctx ends.
func Run(ctx context.Context, src Source, refresh time.Duration) error {
	p := tea.NewProgram(newModel(src, refresh), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
