package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/weftrun/weft/internal/runstate"
)

var (
	succeededStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	skippedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	headerStyle    = lipgloss.NewStyle().Bold(true)
)

func stateStyle(s runstate.State) lipgloss.Style {
	switch s {
	case runstate.StateSucceeded:
		return succeededStyle
	case runstate.StateFailed:
		return failedStyle
	case runstate.StateSkipped:
		return skippedStyle
	default:
		return pendingStyle
	}
}

func stateSymbol(s runstate.State) string {
	switch s {
	case runstate.StateSucceeded:
		return "✔"
	case runstate.StateFailed:
		return "✖"
	case runstate.StateSkipped:
		return "⊘"
	case runstate.StateRunning:
		return "…"
	default:
		return "?"
	}
}

// renderSummary builds the per-step state table the CLI prints after a run
// completes.
func renderSummary(store *runstate.Store) string {
	view := store.ViewSnapshot()

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("run %s", view.RunID)))
	b.WriteString("\n")

	names := make([]string, 0, len(view.Steps))
	for name := range view.Steps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		state := view.Steps[name]
		style := stateStyle(state.State)
		line := fmt.Sprintf("%s %-24s %s", stateSymbol(state.State), name, state.State)
		if state.Error != "" {
			line += fmt.Sprintf(" (%s)", state.Error)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
