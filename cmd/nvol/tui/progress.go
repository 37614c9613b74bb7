// Package tui renders a live ingest-progress view: one bar tracking how
// many of a scale's touched blocks have been flushed to the data store,
// in the same Morton order the engine flushes them in.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/neurovol/neurovol/internal/engine"
)

var (
	barFilledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#42"))
	barEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666"))
	labelStyle     = lipgloss.NewStyle().Bold(true)
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#196"))
)

type blockFlushedMsg struct{ done, total int }
type flushDoneMsg struct{ err error }

type model struct {
	scaleKey string
	done     int
	total    int
	err      error
	finished bool
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case blockFlushedMsg:
		m.done, m.total = msg.done, msg.total
		return m, nil
	case flushDoneMsg:
		m.err = msg.err
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("ingest %s failed: %v\n", m.scaleKey, m.err))
	}
	if m.total == 0 {
		return labelStyle.Render(fmt.Sprintf("flushing %s: no touched blocks\n", m.scaleKey))
	}

	const barWidth = 40
	filled := barWidth * m.done / m.total
	bar := barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))

	status := fmt.Sprintf("%s: %s %d/%d", labelStyle.Render("flushing "+m.scaleKey), bar, m.done, m.total)
	if m.finished {
		status += " done\n"
	} else {
		status += "\n"
	}
	return status
}

// RunIngestProgress drives eng.FlushScaleProgress for scaleKey through a
// bubbletea program, rendering a live bar as each block is visited.
func RunIngestProgress(eng *engine.Engine, scaleKey string) error {
	p := tea.NewProgram(model{scaleKey: scaleKey})

	go func() {
		ctx := context.Background()
		err := eng.FlushScaleProgress(ctx, scaleKey, func(done, total int) {
			p.Send(blockFlushedMsg{done: done, total: total})
		})
		p.Send(flushDoneMsg{err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	return finalModel.(model).err
}
