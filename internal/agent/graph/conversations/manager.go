package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/aeg-helpline/server/internal/agent/model"
	"github.com/aeg-helpline/server/internal/dialog"
)

const defaultNLUMaxTurns = 5

type MessagesManager struct {
	conversationRepo model.ConversationRepository
	nluMaxTurns      int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	maxTurns := config.NLU.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultNLUMaxTurns
	}
	return &MessagesManager{
		conversationRepo: conversationRepo,
		nluMaxTurns:      maxTurns,
	}
}

// SaveUserMessage appends the inbound message to the transcript.
func (cm *MessagesManager) SaveUserMessage(ctx context.Context, conversationID string, text string) error {
	return cm.conversationRepo.AddMessage(ctx, conversationID, schema.UserMessage(text))
}

// SaveBotMessages appends the bot replies of one turn to the transcript.
func (cm *MessagesManager) SaveBotMessages(ctx context.Context, conversationID string, activities []dialog.Activity) error {
	for _, msg := range model.MessagesFromActivities(activities) {
		if err := cm.conversationRepo.AddMessage(ctx, conversationID, msg); err != nil {
			return err
		}
	}
	return nil
}

// =========== Function for NLU ===========

// BuildNLUContext renders the recent transcript for the classifier. The
// trailing user message equal to current is left out, since the classifier
// receives it separately.
func (cm *MessagesManager) BuildNLUContext(ctx context.Context, conversationID string, current string) (string, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return "", err
	}
	messages := history.Messages
	if n := len(messages); n > 0 {
		last := messages[n-1]
		if last != nil && last.Role == schema.User && strings.TrimSpace(last.Content) == strings.TrimSpace(current) {
			messages = messages[:n-1]
		}
	}
	return renderNLUContext(trimTail(messages, cm.nluMaxTurns)), nil
}

func renderNLUContext(messages []*schema.Message) string {
	var contextBuilder strings.Builder
	for _, msg := range messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			contextBuilder.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			contextBuilder.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	return strings.TrimSuffix(contextBuilder.String(), "\n")
}

// Transcript loads the full stored conversation.
func (cm *MessagesManager) Transcript(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	return cm.conversationRepo.LoadHistory(ctx, conversationID)
}

// Clear removes the stored conversation.
func (cm *MessagesManager) Clear(ctx context.Context, conversationID string) error {
	return cm.conversationRepo.ClearHistory(ctx, conversationID)
}

// ====================== Helper function ======================
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
