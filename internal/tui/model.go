// Package tui is the terminal front-end: a model editor, a formula input, a
// solve control and a result pane, bound to the engine through the adapter.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// EngineLoadedMsg reports the outcome of the adapter's engine load.
type EngineLoadedMsg struct {
	Err error
}

// SolvedMsg is sent once a click has been handled.
type SolvedMsg struct{}

type focus int

const (
	focusModel focus = iota
	focusFormula
)

type engineState int

const (
	engineLoading engineState = iota
	engineReady
	engineUnavailable
)

type keyMap struct {
	Solve key.Binding
	Next  key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding { return []key.Binding{k.Solve, k.Next, k.Quit} }

func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

func defaultKeyMap() keyMap {
	return keyMap{
		Solve: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "solve")),
		Next:  key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch field")),
		Quit:  key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

// Model is the Bubble Tea state of the terminal page.
type Model struct {
	bindings *Bindings
	loaded   <-chan error

	modelEditor  textarea.Model
	formulaInput textinput.Model
	spinner      spinner.Model
	help         help.Model
	keys         keyMap

	focus     focus
	engine    engineState
	solving   bool
	result    string
	hasResult bool
	quitting  bool

	width int
}

// NewModel creates the page. loaded is the adapter's load future; it may be
// nil when the engine is bound elsewhere.
func NewModel(bindings *Bindings, loaded <-chan error, modelText, formulaText string) Model {
	editor := textarea.New()
	editor.Placeholder = "player p1 = ..."
	editor.CharLimit = 0
	editor.ShowLineNumbers = true
	editor.SetHeight(14)
	editor.SetValue(modelText)
	editor.Focus()

	input := textinput.New()
	input.Placeholder = "<<p1>> F goal"
	input.Prompt = "φ "
	input.SetValue(formulaText)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := Model{
		bindings:     bindings,
		loaded:       loaded,
		modelEditor:  editor,
		formulaInput: input,
		spinner:      s,
		help:         help.New(),
		keys:         defaultKeyMap(),
	}
	if loaded == nil && bindings.Bound() {
		m.engine = engineReady
	}
	m.syncInputs()
	return m
}

// Init starts the engine wait and the spinner.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.loaded != nil {
		cmds = append(cmds, waitForEngine(m.loaded), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func waitForEngine(loaded <-chan error) tea.Cmd {
	return func() tea.Msg {
		return EngineLoadedMsg{Err: <-loaded}
	}
}

func clickCmd(bindings *Bindings) tea.Cmd {
	return func() tea.Msg {
		bindings.Click()
		return SolvedMsg{}
	}
}

func (m *Model) syncInputs() {
	m.bindings.setInputs(m.modelEditor.Value(), m.formulaInput.Value())
}

// Result returns the text shown in the result pane.
func (m Model) Result() (string, bool) {
	return m.result, m.hasResult
}

// Solving reports whether a click is being handled.
func (m Model) Solving() bool {
	return m.solving
}
