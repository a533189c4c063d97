package model

import (
	"github.com/cloudwego/eino/schema"

	"github.com/aeg-helpline/server/internal/dialog"
)

// Interruption commands handled before the active dialog sees a message.
const (
	InterruptionHelp   = "help"
	InterruptionCancel = "cancel"
)

// AppState stores per-turn state for the Eino Graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Turns of one conversation never run concurrently; the runner holds a
//     per-conversation lock around each invocation.
type AppState struct {
	ConversationID string
	Text           string
	// Interruption is the command detected by the input converter, empty for a normal turn.
	Interruption string
	// Stack is the dialog stack loaded at the start of the turn and mutated by the dialog node.
	Stack []*dialog.Instance
	// Result of the NLU call made during the turn, if any.
	Recognition *RecognizerResult
	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// TurnInput is one inbound user message.
type TurnInput struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// TurnOutput is the bot's answer to one TurnInput.
type TurnOutput struct {
	ConversationID string            `json:"conversation_id"`
	Activities     []dialog.Activity `json:"activities"`
	// ActiveDialogs is the innermost active dialog chain after the turn.
	ActiveDialogs []string `json:"active_dialogs,omitempty"`
	// Intent is the top intent recognized during the turn, if recognition ran.
	Intent  string  `json:"intent,omitempty"`
	CostUSD float64 `json:"cost_usd,omitempty"`
}

// MessagesFromActivities converts bot replies to transcript messages.
func MessagesFromActivities(activities []dialog.Activity) []*schema.Message {
	out := make([]*schema.Message, 0, len(activities))
	for _, a := range activities {
		if a.Text == "" {
			continue
		}
		out = append(out, schema.AssistantMessage(a.Text, nil))
	}
	return out
}
