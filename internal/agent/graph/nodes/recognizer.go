package nodes

import (
	"context"

	"github.com/aeg-helpline/server/internal/agent/graph/conversations"
	"github.com/aeg-helpline/server/internal/agent/model"
	"github.com/aeg-helpline/server/internal/agent/recognizer"
	logx "github.com/aeg-helpline/server/pkg/logger"
)

// ContextualRecognizer fills the conversation context of each NLU query from
// the stored transcript before delegating.
type ContextualRecognizer struct {
	next recognizer.Recognizer
	mm   *conversations.MessagesManager
}

func NewContextualRecognizer(next recognizer.Recognizer, mm *conversations.MessagesManager) *ContextualRecognizer {
	return &ContextualRecognizer{next: next, mm: mm}
}

func (r *ContextualRecognizer) IsConfigured() bool {
	return r.next.IsConfigured()
}

func (r *ContextualRecognizer) Recognize(ctx context.Context, in model.NLUInput) (*model.RecognizerResult, error) {
	if in.Context == "" && r.mm != nil {
		conversationCtx, err := r.mm.BuildNLUContext(ctx, in.ConversationID, in.Text)
		if err != nil {
			// Classify without history rather than failing the turn.
			logx.Warn().
				Str("conversation_id", in.ConversationID).
				Err(err).
				Msg("Error getting conversation context")
		} else {
			in.Context = conversationCtx
		}
	}
	return r.next.Recognize(ctx, in)
}
