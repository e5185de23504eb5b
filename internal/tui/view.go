package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/atlcheck/internal/adapter"
)

// View renders the page.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		titleStyle.Render("atlcheck • ATL model checker") + "  " + m.status(),
		section("LCGS model", adapter.KeyModel),
		m.modelEditor.View(),
		section("ATL formula", adapter.KeyFormula),
		m.formulaInput.View(),
		section("Result", adapter.KeyResult),
		resultStyle.Render(m.renderResult()),
		m.help.ShortHelpView(m.keys.ShortHelp()),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func section(title, key string) string {
	return sectionStyle.Render(title) + " " + keyStyle.Render("#"+key)
}

func (m Model) status() string {
	switch {
	case m.engine == engineLoading:
		return m.spinner.View() + pendingStyle.Render(" loading engine")
	case m.engine == engineUnavailable:
		return failureStyle.Render("engine unavailable")
	case m.solving:
		return m.spinner.View() + pendingStyle.Render(" checking")
	}
	return successStyle.Render("ready")
}

// renderResult shows the engine's text unchanged; only the colour depends on
// the verdict.
func (m Model) renderResult() string {
	if !m.hasResult {
		return pendingStyle.Render(fmt.Sprintf("press %s to check the formula", m.keys.Solve.Help().Key))
	}
	switch m.result {
	case "true":
		return successStyle.Render(m.result)
	case "false":
		return refutedStyle.Render(m.result)
	}
	return m.result
}
