package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbot/internal/config"
	"orderbot/internal/order"
)

type call struct {
	system    string
	turns     []Turn
	maxTokens int
}

type scriptedCompleter struct {
	replies []string
	err     error
	calls   []call
}

func (s *scriptedCompleter) Complete(_ context.Context, system string, turns []Turn, maxTokens int) (string, error) {
	s.calls = append(s.calls, call{system: system, turns: turns, maxTokens: maxTokens})
	if s.err != nil {
		return "", s.err
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func TestReplyAccumulatesTurns(t *testing.T) {
	sc := &scriptedCompleter{replies: []string{"Tenemos hamburguesas.", "Anotado."}}
	c := NewConversation(sc, config.AssistantConfig{MaxTokens: 300}, nil)

	assert.Equal(t, "Tenemos hamburguesas.", c.Reply(context.Background(), "hola"))
	assert.Equal(t, "Anotado.", c.Reply(context.Background(), "2 clásicas"))

	require.Len(t, sc.calls, 2)
	assert.Equal(t, DefaultSystemPrompt, sc.calls[0].system)
	assert.Equal(t, 300, sc.calls[0].maxTokens)
	assert.Equal(t, []Turn{
		{Role: RoleUser, Text: OpeningQuestion},
		{Role: RoleUser, Text: "hola"},
	}, sc.calls[0].turns)
	assert.Len(t, sc.calls[1].turns, 4)
	assert.Len(t, c.Turns(), 5)
}

func TestReplyFallsBackToApology(t *testing.T) {
	sc := &scriptedCompleter{err: errors.New("quota exceeded")}
	c := NewConversation(sc, config.AssistantConfig{SystemPrompt: "menu"}, nil)

	assert.Equal(t, Apology, c.Reply(context.Background(), "hola"))
	turns := c.Turns()
	assert.Equal(t, Turn{Role: RoleAssistant, Text: Apology}, turns[len(turns)-1])
	assert.Equal(t, "menu", sc.calls[0].system)
	assert.Equal(t, 1000, sc.calls[0].maxTokens)
}

func TestSummarizeBuildsPrompt(t *testing.T) {
	sc := &scriptedCompleter{replies: []string{"ok", "2 Hamburguesa Clásica - $12000"}}
	c := NewConversation(sc, config.AssistantConfig{}, nil)
	c.Reply(context.Background(), "quiero 2 clásicas")

	summary, err := c.Summarize(context.Background(), order.Customer{
		Name: "Ana", Phone: "3001112233", Address: "Cra 1", Payment: order.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "2 Hamburguesa Clásica - $12000", summary)

	last := sc.calls[len(sc.calls)-1]
	assert.Equal(t, summarySystemPrompt, last.system)
	assert.Equal(t, summaryMaxTokens, last.maxTokens)
	require.Len(t, last.turns, 1)
	prompt := last.turns[0].Text
	assert.Contains(t, prompt, "X [nombre del producto] - $[precio]")
	assert.Contains(t, prompt, "Nombre: Ana\nTeléfono: 3001112233")
	assert.Contains(t, prompt, "user: quiero 2 clásicas\nassistant: ok\n")
	assert.Contains(t, prompt, "Resumen del pedido:")
}

func TestSummarizeError(t *testing.T) {
	c := NewConversation(&scriptedCompleter{err: errors.New("boom")}, config.AssistantConfig{}, nil)
	_, err := c.Summarize(context.Background(), order.Customer{})
	assert.ErrorContains(t, err, "boom")
}

func TestNewGeminiCompleterRequiresKey(t *testing.T) {
	_, err := NewGeminiCompleter(context.Background(), "", "")
	assert.Error(t, err)
}
