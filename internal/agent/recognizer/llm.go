package recognizer

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/aeg-helpline/server/internal/agent/graph/observers"
	"github.com/aeg-helpline/server/internal/agent/graph/parsers"
	"github.com/aeg-helpline/server/internal/agent/graph/prompts"
	agentmodel "github.com/aeg-helpline/server/internal/agent/model"
	errx "github.com/aeg-helpline/server/internal/core/error"
	logx "github.com/aeg-helpline/server/pkg/logger"
)

// LLM classifies utterances with a chat model:
// NLUInput -> template variables -> chat template -> chat model -> tuple parser.
type LLM struct {
	runnable      compose.Runnable[agentmodel.NLUInput, *agentmodel.RecognizerResult]
	minConfidence float64
}

// NewLLM compiles the recognition chain around cm.
func NewLLM(ctx context.Context, cm model.BaseChatModel, modelName string, minConfidence float64) (*LLM, error) {
	if cm == nil {
		return nil, fmt.Errorf("chat model is nil")
	}

	chain := compose.NewChain[agentmodel.NLUInput, *agentmodel.RecognizerResult]()
	chain.
		AppendLambda(compose.InvokableLambda(func(_ context.Context, in agentmodel.NLUInput) (map[string]any, error) {
			return prompts.NLUVariables(in), nil
		})).
		AppendChatTemplate(prompts.NewNLUTemplate()).
		AppendChatModel(cm).
		AppendLambda(compose.InvokableLambda(func(_ context.Context, msg *schema.Message) (*agentmodel.RecognizerResult, error) {
			return parseModelOutput(msg, modelName)
		}))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling NLU chain")
		return nil, fmt.Errorf("error compiling NLU chain: %w", err)
	}
	return &LLM{runnable: runnable, minConfidence: minConfidence}, nil
}

func (r *LLM) IsConfigured() bool {
	return true
}

func (r *LLM) Recognize(ctx context.Context, in agentmodel.NLUInput) (*agentmodel.RecognizerResult, error) {
	in.Text = normalizeText(in.Text)
	res, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, errx.WrapNLU(err)
	}
	res.Text = in.Text
	applyThreshold(res, r.minConfidence)

	if len(res.ParsingErrors) > 0 {
		logx.Warn().
			Str("conversation_id", in.ConversationID).
			Strs("errors", res.ParsingErrors).
			Msg("NLU output had unparsable records")
	}
	ev := logx.Debug().
		Str("conversation_id", in.ConversationID).
		Str("intent", res.TopIntent().Name).
		Int("parsing_errors", len(res.ParsingErrors))
	if res.Cost != nil {
		ev = ev.Float64("total_cost_usd", res.Cost.TotalCost)
	}
	ev.Msg("NLU recognized")
	return res, nil
}

func parseModelOutput(msg *schema.Message, modelName string) (*agentmodel.RecognizerResult, error) {
	if msg == nil {
		return nil, fmt.Errorf("nlu model returned no message")
	}
	res, err := parsers.ParseNLUResponse(msg.Content)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("parsing returned nil result")
	}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		res.Usage = msg.ResponseMeta.Usage
		res.Cost = agentmodel.PriceUsage(modelName, msg.ResponseMeta.Usage)
	}
	return res, nil
}
