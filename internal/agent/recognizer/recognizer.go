// Package recognizer classifies user utterances into the help line intents.
package recognizer

import (
	"context"
	"strings"

	"github.com/aeg-helpline/server/internal/agent/model"
	logx "github.com/aeg-helpline/server/pkg/logger"
)

// Recognizer maps an utterance to scored intents.
type Recognizer interface {
	Recognize(ctx context.Context, in model.NLUInput) (*model.RecognizerResult, error)
	// IsConfigured reports whether an external NLU model backs the recognizer.
	IsConfigured() bool
}

// Fallback tries the primary recognizer and falls back to the secondary when
// the primary is missing or fails.
type Fallback struct {
	primary   Recognizer
	secondary Recognizer
}

// NewFallback builds a Fallback. primary may be nil.
func NewFallback(primary, secondary Recognizer) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) IsConfigured() bool {
	return f.primary != nil && f.primary.IsConfigured()
}

func (f *Fallback) Recognize(ctx context.Context, in model.NLUInput) (*model.RecognizerResult, error) {
	if f.primary != nil {
		res, err := f.primary.Recognize(ctx, in)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		logx.Warn().Err(err).
			Str("conversation_id", in.ConversationID).
			Msg("NLU model failed, falling back to keyword rules")
	}
	return f.secondary.Recognize(ctx, in)
}

// applyThreshold drops intents scored below min, so a weak top intent reads as None.
func applyThreshold(res *model.RecognizerResult, min float64) {
	kept := res.Intents[:0]
	for _, it := range res.Intents {
		if it.Score >= min {
			kept = append(kept, it)
		}
	}
	res.Intents = kept
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
