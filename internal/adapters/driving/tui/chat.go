// Package tui implements the interactive chat interface: a scrolling
// conversation transcript over the indexed documents, answered through
// the retrieval-augmented pipeline.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

// ChatService is the TUI-facing subset of the RAG service.
type ChatService interface {
	AugmentedQuery(ctx context.Context, query string, opts domain.AskOptions) (*domain.QueryOutcome, error)
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	degradedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// turn is one question/answer exchange in the transcript.
type turn struct {
	question string
	outcome  *domain.QueryOutcome
	err      error
}

// outcomeMsg carries a completed augmented query back to Update.
type outcomeMsg struct {
	question string
	outcome  *domain.QueryOutcome
	err      error
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	service  ChatService
	input    textinput.Model
	viewport viewport.Model
	turns    []turn
	status   string
	waiting  bool
	ready    bool
}

// New creates a new chat model.
func New(service ChatService) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		input:    ti,
		viewport: vp,
		status:   "Ready. Ask about your documents.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case outcomeMsg:
		m.waiting = false
		m.turns = append(m.turns, turn{question: msg.question, outcome: msg.outcome, err: msg.err})
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else if msg.outcome.Degraded {
			m.status = "Degraded: " + msg.outcome.DegradedReason
		} else {
			m.status = fmt.Sprintf("Answered from %d chunks", msg.outcome.NFound)
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.waiting {
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.waiting = true
			m.status = "Thinking..."
			return m, m.ask(q)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the augmented query off the UI goroutine.
func (m Model) ask(question string) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		outcome, err := service.AugmentedQuery(context.Background(), question, domain.AskOptions{})
		return outcomeMsg{question: question, outcome: outcome, err: err}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("studyrag chat")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return "No questions yet."
	}

	blocks := make([]string, 0, len(m.turns))
	for _, t := range m.turns {
		var b strings.Builder
		b.WriteString(questionStyle.Render("You: " + t.question))
		b.WriteString("\n")

		switch {
		case t.err != nil:
			b.WriteString(degradedStyle.Render("Error: " + t.err.Error()))
		case t.outcome.Degraded:
			b.WriteString(degradedStyle.Render("Could not generate an answer: " + t.outcome.DegradedReason))
			b.WriteString("\n")
			b.WriteString(t.outcome.ContextUsed)
		default:
			b.WriteString(t.outcome.Answer)
		}

		if t.outcome != nil && len(t.outcome.Sources) > 0 {
			b.WriteString("\n")
			b.WriteString(sourceStyle.Render("Sources: " + strings.Join(t.outcome.Sources, ", ")))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
