// Package ui is the terminal browser for a finished analysis.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/moyu/internal/analysis"
	"github.com/abelbrown/moyu/internal/eventlog"
)

// Tab is one page of the browser.
type Tab int

const (
	TabRanking Tab = iota
	TabHours
	TabWeekdays
	TabWords
	TabEfficiency
	TabEvents
	numTabs
)

var tabNames = [numTabs]string{"Ranking", "Hours", "Weekdays", "Words", "Efficiency", "Events"}

func (t Tab) String() string {
	if t < 0 || t >= numTabs {
		return fmt.Sprintf("Tab(%d)", int(t))
	}
	return tabNames[t]
}

// chrome is the title line, the tab line and the status bar.
const chrome = 3

// Model is the root Bubble Tea model. It only reads the dataset.
type Model struct {
	title  string
	data   *analysis.Dataset
	events *eventlog.RingBuffer
	now    func() time.Time

	tab    Tab
	table  table.Model
	vp     viewport.Model
	width  int
	height int
	ready  bool
}

// New creates a browser over d. events, which may be nil, feeds the
// Events tab.
func New(title string, d *analysis.Dataset, events *eventlog.RingBuffer) Model {
	if d == nil {
		d = &analysis.Dataset{}
	}
	m := Model{
		title:  title,
		data:   d,
		events: events,
		now:    time.Now,
		table:  newRankingTable(d),
		vp:     viewport.New(0, 0),
	}
	return m
}

func newRankingTable(d *analysis.Dataset) table.Model {
	rows := make([]table.Row, len(d.Ranking))
	for i, r := range d.Ranking {
		rows[i] = table.Row{
			fmt.Sprint(r.Rank),
			r.Identity,
			fmt.Sprint(r.Count),
			fmt.Sprintf("%.2f", r.PerDay),
			r.Note(),
		}
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Rank", Width: 6},
			{Title: "Nickname", Width: 20},
			{Title: "Messages", Width: 10},
			{Title: "Per day", Width: 10},
			{Title: "Note", Width: 26},
		}),
		table.WithRows(rows),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).Foreground(colorHighlight)
	s.Selected = s.Selected.Foreground(lipgloss.Color("255")).Background(colorPrimary)
	t.SetStyles(s)
	return t
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.setTab((m.tab + 1) % numTabs)
			return m, nil
		case "shift+tab", "left", "h":
			m.setTab((m.tab + numTabs - 1) % numTabs)
			return m, nil
		case "1", "2", "3", "4", "5", "6":
			m.setTab(Tab(msg.String()[0] - '1'))
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.tab == TabRanking {
		m.table, cmd = m.table.Update(msg)
	} else {
		m.vp, cmd = m.vp.Update(msg)
	}
	return m, cmd
}

func (m *Model) setTab(t Tab) {
	m.tab = t
	m.vp.SetContent(m.content())
	m.vp.GotoTop()
}

func (m *Model) resize() {
	h := max(1, m.height-chrome)
	m.table.SetHeight(h)
	m.table.SetWidth(m.width)
	m.vp.Width = m.width
	m.vp.Height = h
	m.vp.SetContent(m.content())
}

// content renders the body of every tab except Ranking.
func (m Model) content() string {
	d := m.data
	w := m.width
	var parts []string
	section := func(title, body string) {
		parts = append(parts, SectionHeader.Render(title), body)
	}

	switch m.tab {
	case TabHours:
		section("All valid messages by hour", renderBars(d.Hourly, w))
		section("Business hours", renderBars(d.Window, w))
		section("Top identities by hour", renderComparison(d.FocusHours, w))
	case TabWeekdays:
		section("Active messages by weekday", renderBars(d.WeekdayTrend, w))
		section("Top identities by weekday", renderComparison(d.FocusWeekdays, w))
		section("Weekday × hour", renderHeatmap(d.Heatmap))
		section("Active messages per day", renderTrend(d.Trend, w))
	case TabWords:
		section("Most used words", renderWords(d.Words, w))
		for _, fw := range d.FocusWords {
			section(fw.Identity, renderWords(fw, w))
		}
	case TabEfficiency:
		section("Average active messages per day", renderBars(rateBars(d.DailyAverage), w))
		section("Active messages per business hour", renderBars(rateBars(d.Efficiency), w))
	case TabEvents:
		var counts map[eventlog.Kind]int
		var problems []eventlog.Event
		if m.events != nil {
			counts, problems = m.events.Stats(), m.events.Filter("", eventlog.LevelWarn)
		}
		section("Run events", renderEvents(counts, problems, m.now(), w))
	}
	return strings.Join(parts, "\n")
}

// View renders the UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := TitleStyle.Render(m.title)
	tabs := make([]string, numTabs)
	for i := range numTabs {
		label := fmt.Sprintf("%d %s", i+1, i)
		if i == m.tab {
			tabs[i] = ActiveTabStyle.Render(label)
		} else {
			tabs[i] = TabStyle.Render(label)
		}
	}

	var body string
	if m.tab == TabRanking {
		if len(m.data.Ranking) == 0 {
			body = MutedStyle.Render("  No messages inside the active window.")
		} else {
			body = m.table.View()
		}
	} else {
		body = m.vp.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		body,
		m.statusBar(),
	)
}

func (m Model) statusBar() string {
	keys := StatusBarKey.Render("tab") + StatusBarText.Render(":next  ") +
		StatusBarKey.Render("1-6") + StatusBarText.Render(":jump  ") +
		StatusBarKey.Render("j/k") + StatusBarText.Render(":scroll  ") +
		StatusBarKey.Render("q") + StatusBarText.Render(":quit")
	c := m.data.Counters
	info := StatusBarText.Render(fmt.Sprintf("  %d active days · %d active of %d valid", m.data.ActiveDays, c.Active, c.Valid))
	return StatusBar.Width(m.width).Render(keys + info)
}

// CurrentTab returns the selected tab (for testing).
func (m Model) CurrentTab() Tab {
	return m.tab
}
