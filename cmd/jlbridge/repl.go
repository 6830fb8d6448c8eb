package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pgs62/juliabridge/bridge"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#389826")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const historyLimit = 200

type exchange struct {
	expr   string
	output string
	failed bool
}

type replModel struct {
	b       *bridge.Bridge
	input   textinput.Model
	history []exchange
	busy    bool
	pending string
}

type evalDoneMsg struct {
	expr string
	res  bridge.Result
}

func newReplModel(b *bridge.Bridge) *replModel {
	ti := textinput.New()
	ti.Prompt = "julia> "
	ti.PromptStyle = promptStyle
	ti.Placeholder = "expression"
	ti.Width = 72
	ti.Focus()
	return &replModel{b: b, input: ti}
}

func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			if m.busy {
				return m, nil
			}
			expr := strings.TrimSpace(m.input.Value())
			if expr == "" {
				return m, nil
			}
			m.busy = true
			m.pending = expr
			m.input.Reset()
			return m, m.evalCmd(expr)
		}

	case evalDoneMsg:
		m.busy = false
		m.pending = ""
		ex := exchange{expr: msg.expr}
		if msg.res.Failed() {
			ex.output = msg.res.ErrText
			ex.failed = true
		} else {
			ex.output = msg.res.Value.String()
		}
		m.history = append(m.history, ex)
		if len(m.history) > historyLimit {
			m.history = m.history[len(m.history)-historyLimit:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// evalCmd runs the call off the update loop; the protocol blocks until
// the worker answers.
func (m *replModel) evalCmd(expr string) tea.Cmd {
	return func() tea.Msg {
		return evalDoneMsg{expr: expr, res: m.b.EvalResult(context.Background(), expr)}
	}
}

func (m *replModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Julia Bridge"))
	b.WriteString("\n\n")

	for _, ex := range m.history {
		b.WriteString(promptStyle.Render("julia> "))
		b.WriteString(ex.expr)
		b.WriteString("\n")
		if ex.failed {
			b.WriteString(errorStyle.Render(ex.output))
		} else {
			b.WriteString(resultStyle.Render(ex.output))
		}
		b.WriteString("\n\n")
	}

	if m.busy {
		b.WriteString(promptStyle.Render("julia> "))
		b.WriteString(m.pending)
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("waiting for worker..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter evaluate • esc quit"))
	return b.String()
}

func runRepl(b *bridge.Bridge) error {
	p := tea.NewProgram(newReplModel(b), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
