package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"phpmdls/internal/batch"
)

type progressModel struct {
	title    string
	events   <-chan batch.Event
	spinner  spinner.Model
	bar      progress.Model
	items    []fileItem
	byPath   map[string]*fileItem
	finished int
	found    int
	width    int
	done     bool
}

type fileItem struct {
	path   string
	status batch.Status
	count  int
}

type (
	checkEventMsg batch.Event
	eventsClosed  struct{}
)

const defaultWidth = 80

// NewProgressModel returns a Bubble Tea model that renders check progress.
// The program quits once events is closed; q or ctrl+c leave the view
// early while the check keeps running.
func NewProgressModel(title string, files []string, events <-chan batch.Event) tea.Model {
	m := &progressModel{
		title:   title,
		events:  events,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(statusStyles[batch.StatusRunning])),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(defaultWidth-4)),
		items:   make([]fileItem, len(files)),
		byPath:  make(map[string]*fileItem, len(files)),
		width:   defaultWidth,
	}
	for i, file := range files {
		m.items[i] = fileItem{path: file, status: batch.StatusQueued}
		m.byPath[file] = &m.items[i]
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent)
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case checkEventMsg:
		cmd = tea.Batch(m.applyEvent(batch.Event(msg)), m.waitForEvent)
	case eventsClosed:
		m.done = true
		cmd = tea.Quit
	case tea.KeyMsg:
		if k := msg.String(); k == "q" || k == "ctrl+c" {
			cmd = tea.Quit
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case spinner.TickMsg:
		if !m.done {
			m.spinner, cmd = m.spinner.Update(msg)
		}
	case progress.FrameMsg:
		var bar tea.Model
		bar, cmd = m.bar.Update(msg)
		m.bar = bar.(progress.Model)
	}
	return m, cmd
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	countStyle  = lipgloss.NewStyle().Faint(true)

	statusStyles = map[batch.Status]lipgloss.Style{
		batch.StatusQueued:     lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		batch.StatusRunning:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		batch.StatusClean:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		batch.StatusViolations: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		batch.StatusError:      lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

const statusColumn = 12

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	lead := m.spinner.View()
	if m.done {
		lead = "done:"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s %s (%d/%d, %d issues)", lead, m.title, m.finished, len(m.items), m.found)))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusColumn-10, 20)
	for _, item := range m.items {
		b.WriteString(m.renderItem(item, nameWidth))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

func (m *progressModel) renderItem(item fileItem, nameWidth int) string {
	status := fmt.Sprintf("%*s", statusColumn, item.status)
	line := "  " + statusStyles[item.status].Render(status) + " " + truncate(item.path, nameWidth)
	if item.count > 0 {
		line += " " + countStyle.Render(fmt.Sprintf("(%d)", item.count))
	}
	return line
}

// waitForEvent blocks on the event channel; it is re-armed after every
// event.
func (m *progressModel) waitForEvent() tea.Msg {
	ev, ok := <-m.events
	if !ok {
		return eventsClosed{}
	}
	return checkEventMsg(ev)
}

func (m *progressModel) applyEvent(ev batch.Event) tea.Cmd {
	item, ok := m.byPath[ev.File]
	if !ok || item.status.Finished() {
		return nil
	}
	item.status = ev.Status
	item.count = ev.Diagnostics
	if !ev.Status.Finished() {
		return nil
	}
	m.finished++
	m.found += ev.Diagnostics
	return m.bar.SetPercent(float64(m.finished) / float64(len(m.items)))
}

// Truncate shortens value to width display cells, marking the cut with "...".
func Truncate(value string, width int) string {
	return truncate(value, width)
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
	return runewidth.Truncate(value, width, "...")
}
