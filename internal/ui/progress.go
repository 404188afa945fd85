// Package ui renders terminal views for lspkit commands.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"lspkit/internal/replay"
)

type progressModel struct {
	title   string
	events  <-chan replay.Event
	spinner spinner.Model
	prog    progress.Model
	items   []stepItem
	session string
	failed  bool
	width   int
	done    bool
}

type stepItem struct {
	label  string
	status replay.Status
	detail string
}

type eventMsg replay.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that follows a replay through
// its events. labels name the scripted messages in order.
func NewProgressModel(title string, labels []string, events <-chan replay.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]stepItem, len(labels))
	for i, label := range labels {
		items[i] = stepItem{label: label, status: replay.StatusQueued}
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(replay.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	if m.failed {
		titleStyle = titleStyle.Foreground(lipgloss.Color("1"))
	}
	header := m.title
	if m.session != "" {
		header = fmt.Sprintf("%s (%s)", header, m.session)
	}
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 8
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	for _, item := range m.items {
		line := item.label
		if item.detail != "" {
			line += ": " + item.detail
		}
		status := styleStatus(item.status).Render(fmt.Sprintf("%8s", item.status))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(line, nameWidth))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(m.fraction()))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev replay.Event) tea.Cmd {
	if ev.Step < 0 {
		m.session = ev.Detail
		m.failed = ev.Status == replay.StatusError
		return nil
	}
	if ev.Step >= len(m.items) {
		return nil
	}
	m.items[ev.Step].status = ev.Status
	m.items[ev.Step].detail = ev.Detail
	return m.prog.SetPercent(m.fraction())
}

// fraction is the share of steps that reached a terminal status.
func (m *progressModel) fraction() float64 {
	if len(m.items) == 0 {
		return 1
	}
	settled := 0
	for _, item := range m.items {
		if item.status.Terminal() {
			settled++
		}
	}
	return float64(settled) / float64(len(m.items))
}

func styleStatus(status replay.Status) lipgloss.Style {
	switch status {
	case replay.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case replay.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case replay.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
