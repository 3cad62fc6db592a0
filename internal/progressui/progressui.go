// Package progressui renders ingestion progress as a small Bubble Tea
// program, in the style of the driver CLI's own TUI. Falls back to plain
// logging when stdout is not a terminal.
package progressui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"simalign/internal/statusapi"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFFF00")).
			Padding(0, 2).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399")).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399")).
			Bold(true)
)

const pollInterval = 100 * time.Millisecond

// IsTerminal reports whether fd refers to an interactive terminal, the
// gate cmd/simstrobe uses to decide between the TUI and plain logging.
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

type tickMsg time.Time

// Model polls a statusapi.Tracker and renders its snapshot.
type Model struct {
	tracker *statusapi.Tracker
	snap    statusapi.Snapshot
	done    bool
}

// New builds a Model that polls tracker until its phase reaches PhaseDone.
func New(tracker *statusapi.Tracker) Model {
	return Model{tracker: tracker, snap: tracker.Get()}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tickMsg:
		m.snap = m.tracker.Get()
		if m.snap.Phase == statusapi.PhaseDone {
			m.done = true
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	header := headerStyle.Render(" simalign ingest ")

	row := func(label string, value any) string {
		return fmt.Sprintf("%s %s", labelStyle.Render(label+":"), valueStyle.Render(fmt.Sprint(value)))
	}

	body := fmt.Sprintf(
		"%s\n\n%s\n%s\n%s\n%s\n",
		header,
		row("phase", m.snap.Phase),
		row("names ingested", m.snap.NamesIngested),
		row("slots allocated", m.snap.SlotsAllocated),
		row("transitions so far", m.snap.TransitionsSoFar),
	)

	if m.done {
		body += "\n" + doneStyle.Render("done")
	}
	return body
}

// Run drives the program to completion, polling tracker until it
// observes PhaseDone or the user interrupts with Ctrl-C.
func Run(tracker *statusapi.Tracker) error {
	_, err := tea.NewProgram(New(tracker)).Run()
	return err
}
