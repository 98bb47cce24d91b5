package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"filescript/internal/errs"
)

// ScriptRunner is the console-facing subset of the interpreter. Variables
// persist across Eval calls.
type ScriptRunner interface {
	Eval(source string) (string, error)
}

// Model is the Bubble Tea model for the interactive script console.
type Model struct {
	runner     ScriptRunner
	input      textinput.Model
	viewport   viewport.Model
	transcript []string
	status     string
	ready      bool
}

// New creates a new console model instance.
func New(runner ScriptRunner, sandboxRoot string) Model {
	ti := textinput.New()
	ti.Prompt = ">>> "
	ti.Placeholder = "Type a script line and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		runner:   runner,
		input:    ti,
		viewport: vp,
		status:   "Sandbox root: " + sandboxRoot,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for the frame around the transcript box
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			line := m.input.Value()
			if strings.TrimSpace(line) != "" {
				m.runLine(line)
				m.input.SetValue("")
				m.viewport.SetContent(m.renderTranscript())
				m.viewport.GotoBottom()
				return m, nil
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) runLine(line string) {
	m.transcript = append(m.transcript, promptStyle.Render(">>> ")+line)
	output, err := m.runner.Eval(line)
	if output != "" {
		m.transcript = append(m.transcript, strings.TrimRight(output, "\n"))
	}
	if err != nil {
		m.transcript = append(m.transcript, errorStyle.Render(formatScriptError(err)))
		m.status = "Error"
		return
	}
	m.status = "OK"
}

func formatScriptError(err error) string {
	var syntaxErr *errs.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Format()
	}
	var runtimeErr *errs.RuntimeError
	if errors.As(err, &runtimeErr) {
		return runtimeErr.Format()
	}
	return err.Error()
}

// View renders the console layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("filescript console")
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "Type a script line to evaluate it."
	}
	return strings.Join(m.transcript, "\n")
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	promptStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
