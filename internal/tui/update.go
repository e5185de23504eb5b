package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles Bubble Tea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EngineLoadedMsg:
		if msg.Err != nil {
			m.engine = engineUnavailable
		} else {
			m.engine = engineReady
		}
		return m, nil

	case SolvedMsg:
		m.solving = false
		if text, writes := m.bindings.Result(); writes > 0 {
			m.result, m.hasResult = text, true
		}
		return m, nil

	case spinner.TickMsg:
		if m.engine != engineLoading && !m.solving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.modelEditor.SetWidth(msg.Width - 4)
		m.formulaInput.Width = msg.Width - 8
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			return m, m.toggleFocus()
		case key.Matches(msg, m.keys.Solve):
			return m.solve()
		}
	}

	var cmd tea.Cmd
	if m.focus == focusModel {
		m.modelEditor, cmd = m.modelEditor.Update(msg)
	} else {
		m.formulaInput, cmd = m.formulaInput.Update(msg)
	}
	m.syncInputs()
	return m, cmd
}

// solve clicks the control. Before the engine is bound, or while a previous
// click is still running, the control is inert.
func (m Model) solve() (tea.Model, tea.Cmd) {
	if m.solving || !m.bindings.Bound() {
		return m, nil
	}
	m.syncInputs()
	m.solving = true
	return m, tea.Batch(clickCmd(m.bindings), m.spinner.Tick)
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusModel {
		m.focus = focusFormula
		m.modelEditor.Blur()
		return m.formulaInput.Focus()
	}
	m.focus = focusModel
	m.formulaInput.Blur()
	return m.modelEditor.Focus()
}
