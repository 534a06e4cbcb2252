package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Status is the per-file state shown in watch mode.
type Status uint8

const (
	StatusQueued Status = iota
	StatusLinting
	StatusClean
	StatusIssues
	StatusFailed
)

// Event is one update from the watch loop: a file entered a new state,
// optionally carrying its diagnostic counts.
type Event struct {
	Path     string
	Status   Status
	Errors   int
	Warnings int
}

type watchModel struct {
	title   string
	events  <-chan Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	width   int
	passes  int
	done    bool
}

type fileItem struct {
	path     string
	status   Status
	errors   int
	warnings int
}

type eventMsg Event
type doneMsg struct{}

// NewWatchModel returns a Bubble Tea model that renders live relint
// results. Files not in the initial list are added as events mention
// them.
func NewWatchModel(title string, files []string, events <-chan Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: StatusQueued})
		index[file] = i
	}
	return &watchModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		next, cmd := m.prog.Update(msg)
		m.prog = next.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *watchModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.passes > 0 {
		header = fmt.Sprintf("%s (pass %d)", header, m.passes)
	}
	if m.done {
		header = fmt.Sprintf("stopped: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 14
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	for _, item := range m.items {
		name := truncate(item.path, nameWidth)
		label := statusLabel(item)
		styled := styleStatus(item.status).Render(fmt.Sprintf("%14s", label))
		b.WriteString(fmt.Sprintf("  %s %s\n", styled, name))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m *watchModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *watchModel) applyEvent(ev Event) tea.Cmd {
	if ev.Path == "" {
		return nil
	}
	idx, ok := m.index[ev.Path]
	if !ok {
		idx = len(m.items)
		m.items = append(m.items, fileItem{path: ev.Path})
		m.index[ev.Path] = idx
	}
	m.items[idx].status = ev.Status
	m.items[idx].errors = ev.Errors
	m.items[idx].warnings = ev.Warnings

	// a pass completes when every file has left the in-flight states
	settled := 0
	for _, item := range m.items {
		if item.status != StatusQueued && item.status != StatusLinting {
			settled++
		}
	}
	if settled == len(m.items) && ev.Status != StatusLinting {
		m.passes++
	}
	return m.prog.SetPercent(float64(settled) / float64(len(m.items)))
}

func statusLabel(item fileItem) string {
	switch item.status {
	case StatusQueued:
		return "queued"
	case StatusLinting:
		return "linting"
	case StatusClean:
		return "clean"
	case StatusIssues:
		switch {
		case item.errors > 0 && item.warnings > 0:
			return fmt.Sprintf("%dE %dW", item.errors, item.warnings)
		case item.errors > 0:
			return fmt.Sprintf("%d errors", item.errors)
		default:
			return fmt.Sprintf("%d warnings", item.warnings)
		}
	case StatusFailed:
		return "parse error"
	default:
		return ""
	}
}

func styleStatus(status Status) lipgloss.Style {
	switch status {
	case StatusClean:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case StatusIssues:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case StatusFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case StatusLinting:
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
