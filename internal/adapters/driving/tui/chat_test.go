package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

type fakeChatService struct {
	outcome *domain.QueryOutcome
	err     error
	asked   []string
}

func (f *fakeChatService) AugmentedQuery(_ context.Context, query string, _ domain.AskOptions) (*domain.QueryOutcome, error) {
	f.asked = append(f.asked, query)
	return f.outcome, f.err
}

func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func typeAndEnter(m Model, text string) (Model, tea.Cmd) {
	for _, r := range text {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

func TestChat_AskFlow(t *testing.T) {
	svc := &fakeChatService{outcome: &domain.QueryOutcome{
		Answer:  "Mitochondria produce ATP.",
		Sources: []string{"bio.txt"},
		NFound:  2,
	}}
	m := sized(New(svc))

	m, cmd := typeAndEnter(m, "what produces ATP?")
	require.NotNil(t, cmd)
	assert.True(t, m.waiting)
	assert.Equal(t, "Thinking...", m.status)

	// Run the command synchronously and feed the message back.
	msg := cmd()
	updated, _ := m.Update(msg)
	m = updated.(Model)

	assert.False(t, m.waiting)
	assert.Equal(t, []string{"what produces ATP?"}, svc.asked)
	require.Len(t, m.turns, 1)
	assert.Contains(t, m.View(), "Mitochondria produce ATP.")
	assert.Contains(t, m.View(), "Sources: bio.txt")
}

func TestChat_EmptyInputIgnored(t *testing.T) {
	svc := &fakeChatService{}
	m := sized(New(svc))

	m, cmd := typeAndEnter(m, "   ")
	assert.Nil(t, cmd)
	assert.False(t, m.waiting)
	assert.Empty(t, svc.asked)
}

func TestChat_EnterIgnoredWhileWaiting(t *testing.T) {
	svc := &fakeChatService{outcome: &domain.QueryOutcome{Answer: "ok"}}
	m := sized(New(svc))

	m, _ = typeAndEnter(m, "first")
	require.True(t, m.waiting)

	_, cmd := typeAndEnter(m, "second")
	assert.Nil(t, cmd, "no new query while one is in flight")
}

func TestChat_DegradedOutcomeShowsContext(t *testing.T) {
	svc := &fakeChatService{outcome: &domain.QueryOutcome{
		ContextUsed:    "[Source 1: bio.txt]\nMitochondria produce ATP.",
		Sources:        []string{"bio.txt"},
		NFound:         1,
		Degraded:       true,
		DegradedReason: "generation backend unavailable",
	}}
	m := sized(New(svc))

	m, cmd := typeAndEnter(m, "q")
	updated, _ := m.Update(cmd())
	m = updated.(Model)

	assert.Contains(t, m.status, "Degraded")
	assert.Contains(t, m.View(), "generation backend unavailable")
	assert.Contains(t, m.View(), "[Source 1: bio.txt]")
}

func TestChat_ServiceError(t *testing.T) {
	svc := &fakeChatService{err: errors.New("index corrupted")}
	m := sized(New(svc))

	m, cmd := typeAndEnter(m, "q")
	updated, _ := m.Update(cmd())
	m = updated.(Model)

	assert.Contains(t, m.status, "index corrupted")
	require.Len(t, m.turns, 1)
}

func TestChat_QuitKeys(t *testing.T) {
	m := sized(New(&fakeChatService{}))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
