package dialog

import "time"

// InputHint tells the channel whether the bot expects a reply to an activity.
type InputHint string

const (
	ExpectingInput InputHint = "expectingInput"
	IgnoringInput  InputHint = "ignoringInput"
	AcceptingInput InputHint = "acceptingInput"
)

const MessageActivity = "message"

// Activity is one outbound bot message.
type Activity struct {
	Type             string    `json:"type"`
	Text             string    `json:"text"`
	InputHint        InputHint `json:"input_hint,omitempty"`
	SuggestedActions []string  `json:"suggested_actions,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Turn carries one inbound message and collects the replies produced while
// handling it. A Turn is owned by a single goroutine.
type Turn struct {
	ConversationID string
	Text           string
	Replies        []Activity

	// Clock is the reference time for relative dates; nil means time.Now.
	Clock func() time.Time

	values map[string]any
}

func NewTurn(conversationID, text string) *Turn {
	return &Turn{ConversationID: conversationID, Text: text}
}

// Now returns the turn's reference time.
func (t *Turn) Now() time.Time {
	if t.Clock != nil {
		return t.Clock()
	}
	return time.Now()
}

// Send appends a to the replies, stamping type and time when missing.
func (t *Turn) Send(a Activity) {
	if a.Type == "" {
		a.Type = MessageActivity
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = t.Now().UTC()
	}
	t.Replies = append(t.Replies, a)
}

// SendActivity sends a plain text message.
func (t *Turn) SendActivity(text string, hint InputHint) {
	t.Send(Activity{Text: text, InputHint: hint})
}

// Set stores a turn scoped value. Values are dropped when the turn ends.
func (t *Turn) Set(key string, v any) {
	if t.values == nil {
		t.values = make(map[string]any)
	}
	t.values[key] = v
}

// Get returns a turn scoped value.
func (t *Turn) Get(key string) (any, bool) {
	v, ok := t.values[key]
	return v, ok
}

// ReplyTexts returns the text of every reply, in order.
func (t *Turn) ReplyTexts() []string {
	out := make([]string, 0, len(t.Replies))
	for _, r := range t.Replies {
		out = append(out, r.Text)
	}
	return out
}
