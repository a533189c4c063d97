package dialogs

import (
	"context"

	"github.com/aeg-helpline/server/internal/agent/model"
	"github.com/aeg-helpline/server/internal/agent/recognizer"
	"github.com/aeg-helpline/server/internal/dialog"
)

const recognitionKey = "dialogs.recognition"

// Recognition returns the NLU result computed during turn, if any.
func Recognition(turn *dialog.Turn) (*model.RecognizerResult, bool) {
	v, ok := turn.Get(recognitionKey)
	if !ok {
		return nil, false
	}
	res, ok := v.(*model.RecognizerResult)
	return res, ok
}

// recognize runs r once per turn. Act steps chained on one utterance reuse the result.
func recognize(ctx context.Context, r recognizer.Recognizer, turn *dialog.Turn) (*model.RecognizerResult, error) {
	if res, ok := Recognition(turn); ok {
		return res, nil
	}
	res, err := r.Recognize(ctx, model.NLUInput{ConversationID: turn.ConversationID, Text: turn.Text})
	if err != nil {
		return nil, err
	}
	turn.Set(recognitionKey, res)
	return res, nil
}
