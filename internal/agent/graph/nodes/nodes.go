package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/cloudwego/eino/compose"

	"github.com/aeg-helpline/server/internal/agent/dialogs"
	"github.com/aeg-helpline/server/internal/agent/graph/conversations"
	"github.com/aeg-helpline/server/internal/agent/model"
	errx "github.com/aeg-helpline/server/internal/core/error"
	"github.com/aeg-helpline/server/internal/dialog"
	logx "github.com/aeg-helpline/server/pkg/logger"
)

// Node names of the turn graph.
const (
	NodeInputConverter = "InputConverter"
	NodeInterruption   = "Interruption"
	NodeDialogTurn     = "DialogTurn"
	NodeFinalizer      = "Finalizer"
)

// LoadedTurn is the inbound message together with the stored dialog stack.
type LoadedTurn struct {
	ConversationID string
	Text           string
	Interruption   string
	Stack          []*dialog.Instance
}

// TurnReplies is what a dialog node produced for one turn.
type TurnReplies struct {
	Activities  []dialog.Activity
	Stack       []*dialog.Instance
	Recognition *model.RecognizerResult
}

// TurnDeps are the collaborators shared by the dialog nodes.
type TurnDeps struct {
	Host            *dialog.Host
	MessagesManager *conversations.MessagesManager
	DialogStates    model.DialogStateRepository
	// Clock is the reference time of each turn; nil means time.Now.
	Clock func() time.Time
}

func (d *TurnDeps) newTurn(in LoadedTurn) *dialog.Turn {
	turn := dialog.NewTurn(in.ConversationID, in.Text)
	turn.Clock = d.Clock
	return turn
}

// DetectInterruption maps global commands to an interruption, or returns ""
// for a normal message.
func DetectInterruption(text string) string {
	norm := strings.Join(strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
	switch norm {
	case "help":
		return model.InterruptionHelp
	case "cancel", "quit", "start over":
		return model.InterruptionCancel
	}
	return ""
}

// NewInputConverterPreHandler resets the per-turn state.
func NewInputConverterPreHandler() func(context.Context, model.TurnInput, *model.AppState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.AppState) (model.TurnInput, error) {
		s.ConversationID = in.ConversationID
		s.Text = in.Text
		s.Interruption = ""
		s.Stack = nil
		s.Recognition = nil
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode records the user message and loads the dialog stack.
func NewInputConverterNode(deps *TurnDeps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (LoadedTurn, error) {
		if strings.TrimSpace(in.ConversationID) == "" {
			return LoadedTurn{}, errx.InvalidInput(fmt.Errorf("conversation id is empty"))
		}
		if strings.TrimSpace(in.Text) != "" {
			if err := deps.MessagesManager.SaveUserMessage(ctx, in.ConversationID, in.Text); err != nil {
				return LoadedTurn{}, fmt.Errorf("save user message: %w", err)
			}
		}

		state, err := deps.DialogStates.Load(ctx, in.ConversationID)
		if err != nil {
			return LoadedTurn{}, fmt.Errorf("load dialog state: %w", err)
		}

		return LoadedTurn{
			ConversationID: in.ConversationID,
			Text:           in.Text,
			Interruption:   DetectInterruption(in.Text),
			Stack:          state.Stack,
		}, nil
	})
}

// NewInputConverterPostHandler copies the loaded turn into the graph state.
func NewInputConverterPostHandler() func(context.Context, LoadedTurn, *model.AppState) (LoadedTurn, error) {
	return func(ctx context.Context, out LoadedTurn, s *model.AppState) (LoadedTurn, error) {
		s.Interruption = out.Interruption
		s.Stack = out.Stack
		logx.Debug().
			Str("conversation_id", out.ConversationID).
			Str("node", NodeInputConverter).
			Int("stack_depth", len(out.Stack)).
			Str("interruption", out.Interruption).
			Msg("Turn loaded")
		return out, nil
	}
}

// NewInterruptionCondition routes global commands away from the active dialog.
func NewInterruptionCondition() func(context.Context, LoadedTurn) (string, error) {
	return func(ctx context.Context, in LoadedTurn) (string, error) {
		if in.Interruption != "" {
			logx.Debug().Str("conversation_id", in.ConversationID).Str("interruption", in.Interruption).
				Msg("Routing to Interruption")
			return NodeInterruption, nil
		}
		return NodeDialogTurn, nil
	}
}

// NewInterruptionNode handles "help" and "cancel" style commands.
// Help shows the help text and repeats the pending question; cancel clears
// the stack and starts the main dialog again.
func NewInterruptionNode(deps *TurnDeps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in LoadedTurn) (TurnReplies, error) {
		turn := deps.newTurn(in)
		stack := in.Stack

		switch in.Interruption {
		case model.InterruptionHelp:
			turn.SendActivity(dialogs.HelpMessage, dialog.IgnoringInput)
			if len(stack) > 0 {
				if err := deps.Host.Reprompt(ctx, turn, &stack); err != nil {
					return TurnReplies{}, errx.WrapDialog(err)
				}
				return TurnReplies{Activities: turn.Replies, Stack: stack}, nil
			}
		case model.InterruptionCancel:
			if _, err := deps.Host.CancelAll(ctx, turn, &stack); err != nil {
				return TurnReplies{}, errx.WrapDialog(err)
			}
			turn.SendActivity(dialogs.CancelMessage, dialog.IgnoringInput)
		default:
			return TurnReplies{}, fmt.Errorf("unknown interruption %q", in.Interruption)
		}

		if _, err := deps.Host.Run(ctx, turn, &stack); err != nil {
			return TurnReplies{}, errx.WrapDialog(err)
		}
		return TurnReplies{Activities: turn.Replies, Stack: stack}, nil
	})
}

// NewDialogTurnNode runs the message through the active dialog.
func NewDialogTurnNode(deps *TurnDeps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in LoadedTurn) (TurnReplies, error) {
		turn := deps.newTurn(in)
		stack := in.Stack

		res, err := deps.Host.Run(ctx, turn, &stack)
		if err != nil {
			return TurnReplies{}, errx.WrapDialog(err)
		}
		out := TurnReplies{Activities: turn.Replies, Stack: stack}
		if rec, ok := dialogs.Recognition(turn); ok {
			out.Recognition = rec
		}

		logx.Debug().
			Str("conversation_id", in.ConversationID).
			Str("node", NodeDialogTurn).
			Str("status", string(res.Status)).
			Strs("active_dialogs", dialog.ActivePath(stack)).
			Msg("Dialog turn done")
		return out, nil
	})
}

// NewDialogPostHandler stores the dialog outcome in the graph state.
func NewDialogPostHandler() func(context.Context, TurnReplies, *model.AppState) (TurnReplies, error) {
	return func(ctx context.Context, out TurnReplies, s *model.AppState) (TurnReplies, error) {
		s.Stack = out.Stack
		if out.Recognition != nil {
			s.Recognition = out.Recognition
			if cost := out.Recognition.Cost; cost != nil {
				// Accumulate only total cost into state
				s.TotalCostUSD += cost.TotalCost
			}
		}
		return out, nil
	}
}

// NewFinalizerNode persists the stack and the bot replies and assembles the output.
func NewFinalizerNode(deps *TurnDeps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in TurnReplies) (model.TurnOutput, error) {
		var (
			conversationID string
			stack          []*dialog.Instance
			recognition    *model.RecognizerResult
			totalCost      float64
		)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			conversationID = s.ConversationID
			stack = s.Stack
			recognition = s.Recognition
			totalCost = s.TotalCostUSD
			return nil
		})
		if err != nil {
			return model.TurnOutput{}, fmt.Errorf("failed to access state: %w", err)
		}

		if err := deps.DialogStates.Save(ctx, conversationID, &model.DialogState{
			ConversationID: conversationID,
			Stack:          stack,
		}); err != nil {
			return model.TurnOutput{}, fmt.Errorf("save dialog state: %w", err)
		}

		if err := deps.MessagesManager.SaveBotMessages(ctx, conversationID, in.Activities); err != nil {
			// The reply is still delivered; only the transcript misses it.
			logx.Error().
				Str("conversation_id", conversationID).
				Err(err).
				Msg("Error saving bot messages")
		}

		out := model.TurnOutput{
			ConversationID: conversationID,
			Activities:     in.Activities,
			ActiveDialogs:  dialog.ActivePath(stack),
			CostUSD:        totalCost,
		}
		if out.Activities == nil {
			out.Activities = []dialog.Activity{}
		}
		if recognition != nil {
			out.Intent = recognition.TopIntent().Name
		}
		return out, nil
	})
}
