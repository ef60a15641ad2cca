// Package tui implements the `watch` CLI subcommand: a live view of a
// digest's progress through the C8 state machine, polling the store on an
// interval until the digest reaches READY or the user quits.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"newsdigest/internal/core"
	"newsdigest/internal/persistence"
)

var stageOrder = []core.DigestState{
	core.StateCreated,
	core.StateArticlesCollected,
	core.StateArticlesEmbedded,
	core.StateStoriesGenerated,
	core.StateStoriesEmbedded,
	core.StateImagesCollected,
	core.StateRundownsGenerated,
	core.StateReady,
}

var (
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle   = lipgloss.NewStyle().Bold(true).MarginBottom(1)
)

type tickMsg time.Time

type digestMsg struct {
	digest *core.Digest
	err    error
}

type model struct {
	db       persistence.Database
	digestID int
	poll     time.Duration
	digest   *core.Digest
	err      error
	quitting bool
}

// Run starts the watch TUI for digestID, polling every interval until the
// digest is READY or the user presses q/ctrl+c.
func Run(db persistence.Database, digestID int, poll time.Duration) error {
	m := model{db: db, digestID: digestID, poll: poll}
	p := tea.NewProgram(m)
	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

func (m model) fetch() tea.Cmd {
	return func() tea.Msg {
		d, err := m.db.Digests().Get(context.Background(), m.digestID)
		return digestMsg{digest: d, err: err}
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.poll, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case digestMsg:
		m.digest = msg.digest
		m.err = msg.err
		if m.digest != nil && m.digest.State == core.StateReady {
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("watching digest %d", m.digestID)))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(fmt.Sprintf("error: %v\n", m.err))
		return b.String()
	}
	if m.digest == nil {
		b.WriteString("loading...\n")
		return b.String()
	}

	for _, stage := range stageOrder {
		switch {
		case stage == m.digest.State:
			b.WriteString(currentStyle.Render(fmt.Sprintf("-> %s", stage)))
		case stage.Before(m.digest.State):
			b.WriteString(doneStyle.Render(fmt.Sprintf(" v %s", stage)))
		default:
			b.WriteString(pendingStyle.Render(fmt.Sprintf("   %s", stage)))
		}
		b.WriteString("\n")
	}

	if !m.quitting {
		b.WriteString("\n(q to quit)\n")
	}
	return b.String()
}
