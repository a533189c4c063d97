package model

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/aeg-helpline/server/internal/dialog"
)

type ConversationRepository interface {
	// AddMessage adds a message to the conversation history for the given conversation
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory retrieves the conversation history for a conversation
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all conversation history for a conversation
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of messages in the conversation
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}

// DialogStateRepository persists the dialog stack of each conversation between turns.
type DialogStateRepository interface {
	// Load returns the stored state, or an empty state when none exists.
	Load(ctx context.Context, conversationID string) (*DialogState, error)

	// Save replaces the stored state and refreshes its TTL.
	Save(ctx context.Context, conversationID string, state *DialogState) error

	// Delete removes the stored state.
	Delete(ctx context.Context, conversationID string) error
}

// DialogState is the persisted root dialog stack of one conversation.
type DialogState struct {
	ConversationID string             `json:"conversation_id"`
	Stack          []*dialog.Instance `json:"stack,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}
