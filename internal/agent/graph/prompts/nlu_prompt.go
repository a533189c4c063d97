package prompts

import (
	_ "embed"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/aeg-helpline/server/internal/agent/model"
)

//go:embed template/nlu_prompt.txt
var nluSystemPrompt string

const nluUserPrompt = "<conversation_context>\n{context}\n</conversation_context>\n" +
	"<current_message_to_analyze>\n{text}\n</current_message_to_analyze>"

// NewNLUTemplate returns the chat template of the intent classifier.
// The system prompt holds no template variables and is passed through verbatim.
func NewNLUTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
		schema.UserMessage(nluUserPrompt),
	)
}

// NLUVariables builds the template variables for in.
func NLUVariables(in model.NLUInput) map[string]any {
	return map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(nluSystemPrompt)},
		"context":         sanitize(in.Context),
		"text":            sanitize(in.Text),
	}
}

var promptDelimiters = strings.NewReplacer(
	"<||>", " ",
	"<|COMPLETE|>", " ",
	"</current_message_to_analyze>", " ",
	"</conversation_context>", " ",
)

// sanitize keeps user text from closing the prompt's tags or faking records.
func sanitize(s string) string {
	return strings.TrimSpace(promptDelimiters.Replace(s))
}
