package model

import (
	"sort"

	"github.com/cloudwego/eino/schema"
)

// Intent labels understood by the help line script.
const (
	IntentAsbestosAppointment = "AsbestosAppointment"
	IntentConfirm             = "Utilities_Confirm"
	IntentInsurance           = "Insurance"
	IntentPocket              = "Pocket"
	IntentNone                = "None"
)

// KnownIntents lists every label except None.
var KnownIntents = []string{
	IntentAsbestosAppointment,
	IntentConfirm,
	IntentInsurance,
	IntentPocket,
}

// IsKnownIntent reports whether name is one of KnownIntents.
func IsKnownIntent(name string) bool {
	for _, k := range KnownIntents {
		if k == name {
			return true
		}
	}
	return false
}

// Recognizer sources.
const (
	SourceLLM     = "llm"
	SourceKeyword = "keyword"
)

type Intent struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// NLUInput is what the recognizer chain receives for one utterance.
type NLUInput struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	// Context is the rendered recent transcript, possibly empty.
	Context string `json:"context,omitempty"`
}

// RecognizerResult is the outcome of one NLU call.
type RecognizerResult struct {
	Text    string             `json:"text"`
	Intents []Intent           `json:"intents"`
	Source  string             `json:"source"`
	Usage   *schema.TokenUsage `json:"usage,omitempty"`
	Cost    *UsageCost         `json:"cost,omitempty"`
	// ParsingErrors holds per-record hints from the output parser.
	ParsingErrors []string `json:"parsing_errors,omitempty"`
}

// TopIntent returns the highest scoring intent, or None with score 0.
func (r *RecognizerResult) TopIntent() Intent {
	if r == nil || len(r.Intents) == 0 {
		return Intent{Name: IntentNone}
	}
	best := r.Intents[0]
	for _, it := range r.Intents[1:] {
		if it.Score > best.Score {
			best = it
		}
	}
	return best
}

// SortIntents orders intents by descending score.
func (r *RecognizerResult) SortIntents() {
	sort.SliceStable(r.Intents, func(i, j int) bool {
		return r.Intents[i].Score > r.Intents[j].Score
	})
}
