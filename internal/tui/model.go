package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/internal/domain"
)

// AnswerPort is the TUI-facing subset of the pipeline service.
type AnswerPort interface {
	Answer(ctx context.Context, query string) (string, domain.RetrievalResult, error)
	IndexSize() int
}

// answerMsg carries a completed answer back into the update loop.
type answerMsg struct {
	query   string
	answer  string
	results domain.RetrievalResult
	err     error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	service  AnswerPort
	name     string
	input    textinput.Model
	viewport viewport.Model
	history  []string
	status   string
	ready    bool
	waiting  bool
}

// New creates a new chat model instance.
func New(service AnswerPort, name string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		name:     name,
		input:    ti,
		viewport: vp,
		status:   fmt.Sprintf("Index ready with %d chunks. Type to ask.", service.IndexSize()),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ch)
		m.viewport.SetContent(m.renderHistory())
		return m, nil
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			if errors.Is(msg.err, domain.ErrGenerationUnavailable) {
				m.status = "Could not generate a response. Sources shown below."
				m.history = append(m.history, renderTurn(msg.query, "(no answer)", msg.results))
			} else {
				m.status = "Error: " + msg.err.Error()
			}
		} else {
			m.status = "Answered. Ask another question."
			m.history = append(m.history, renderTurn(msg.query, msg.answer, msg.results))
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.waiting {
				m.waiting = true
				m.status = "Thinking..."
				m.input.SetValue("")
				return m, askCmd(m.service, q)
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

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(m.name)
	chat := chatBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func askCmd(service AnswerPort, query string) tea.Cmd {
	return func() tea.Msg {
		answer, results, err := service.Answer(context.Background(), query)
		return answerMsg{query: query, answer: answer, results: results, err: err}
	}
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "No questions yet."
	}
	return strings.Join(m.history, "\n\n")
}

func renderTurn(query, answer string, results domain.RetrievalResult) string {
	var b strings.Builder
	b.WriteString(questionStyle.Render("You: "+query) + "\n")
	b.WriteString(strings.TrimSpace(answer))
	if len(results) > 0 {
		b.WriteString("\n")
		for _, r := range results {
			b.WriteString(sourceStyle.Render(fmt.Sprintf("  %s (score %.3f)", r.Chunk.DocumentPath, r.Score)) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

var (
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sourceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
