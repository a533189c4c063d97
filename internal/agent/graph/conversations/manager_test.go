package conversations

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeg-helpline/server/internal/agent/model"
	"github.com/aeg-helpline/server/internal/agent/repo"
	"github.com/aeg-helpline/server/internal/dialog"
)

func newManager(maxTurns int) *MessagesManager {
	var cfg model.ConversationConfig
	cfg.NLU.MaxTurns = maxTurns
	return NewMessagesManager(repo.NewMemoryConversationRepository(0), cfg)
}

func TestMessagesManagerTranscript(t *testing.T) {
	ctx := context.Background()
	mm := newManager(5)

	require.NoError(t, mm.SaveUserMessage(ctx, "c1", "asbestos"))
	require.NoError(t, mm.SaveBotMessages(ctx, "c1", []dialog.Activity{
		{Text: "It looks like you need help with an asbestos problem."},
		{Text: ""},
		{Text: "Would you like to book?"},
	}))

	history, err := mm.Transcript(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history.Messages, 3)
	assert.Equal(t, schema.User, history.Messages[0].Role)
	assert.Equal(t, schema.Assistant, history.Messages[2].Role)
	assert.Equal(t, "Would you like to book?", history.Messages[2].Content)

	require.NoError(t, mm.Clear(ctx, "c1"))
	history, err = mm.Transcript(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, history.Messages)
}

func TestBuildNLUContext(t *testing.T) {
	ctx := context.Background()
	mm := newManager(2)

	require.NoError(t, mm.SaveUserMessage(ctx, "c1", "hi"))
	require.NoError(t, mm.SaveBotMessages(ctx, "c1", []dialog.Activity{{Text: "What can we help you with today?"}}))
	require.NoError(t, mm.SaveUserMessage(ctx, "c1", "asbestos"))
	require.NoError(t, mm.SaveBotMessages(ctx, "c1", []dialog.Activity{{Text: "Would you like to book an appointment?"}}))
	require.NoError(t, mm.SaveUserMessage(ctx, "c1", "yes"))

	got, err := mm.BuildNLUContext(ctx, "c1", "yes")
	require.NoError(t, err)
	assert.Equal(t, "UserMessage(asbestos)\nAssistantMessage(Would you like to book an appointment?)", got)

	got, err = mm.BuildNLUContext(ctx, "empty", "hello")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewMessagesManagerDefaultsMaxTurns(t *testing.T) {
	assert.Equal(t, defaultNLUMaxTurns, newManager(0).nluMaxTurns)
}
