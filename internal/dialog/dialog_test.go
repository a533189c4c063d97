package dialog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name string `json:"name"`
	Age  string `json:"age"`
}

// newProfileDialog asks for a name and an age and ends with the profile.
func newProfileDialog(t *testing.T) *ComponentDialog {
	t.Helper()
	c := NewComponentDialog("profile")
	require.NoError(t, c.AddDialog(NewWaterfall("profileSteps",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			return sc.Prompt(ctx, "text", PromptOptions{Prompt: "What is your name?"})
		},
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			var p profile
			if err := sc.Options(&p); err != nil {
				return TurnResult{}, err
			}
			p.Name = sc.Result.(string)
			if err := sc.SetOptions(p); err != nil {
				return TurnResult{}, err
			}
			return sc.Prompt(ctx, "text", PromptOptions{Prompt: "How old are you?", RetryPrompt: "Please tell me your age."})
		},
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			var p profile
			if err := sc.Options(&p); err != nil {
				return TurnResult{}, err
			}
			p.Age = sc.Result.(string)
			return sc.EndDialog(ctx, p)
		},
	)))
	require.NoError(t, c.AddDialog(NewTextPrompt("text")))
	return c
}

// runTurn runs one turn and round-trips the stack through JSON the way the
// repositories persist it between turns.
func runTurn(t *testing.T, h *Host, stack *[]*Instance, text string) (TurnResult, *Turn) {
	t.Helper()
	turn := NewTurn("conv-1", text)
	res, err := h.Run(context.Background(), turn, stack)
	require.NoError(t, err)

	raw, err := json.Marshal(*stack)
	require.NoError(t, err)
	var restored []*Instance
	require.NoError(t, json.Unmarshal(raw, &restored))
	*stack = restored
	return res, turn
}

func TestHostRunsComponentAcrossTurns(t *testing.T) {
	h, err := NewHost(newProfileDialog(t))
	require.NoError(t, err)

	var stack []*Instance
	res, turn := runTurn(t, h, &stack, "hi")
	assert.Equal(t, StatusWaiting, res.Status)
	assert.Equal(t, []string{"What is your name?"}, turn.ReplyTexts())
	assert.Equal(t, []string{"profile", "profileSteps", "text"}, ActivePath(stack))

	_, turn = runTurn(t, h, &stack, "Ada")
	assert.Equal(t, []string{"How old are you?"}, turn.ReplyTexts())

	_, turn = runTurn(t, h, &stack, "   ")
	assert.Equal(t, []string{"Please tell me your age."}, turn.ReplyTexts())
	assert.Equal(t, 1, stack[0].Stack[1].Attempts)

	res, turn = runTurn(t, h, &stack, "36")
	assert.Empty(t, turn.Replies)
	assert.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, profile{Name: "Ada", Age: "36"}, res.Result)
	assert.Empty(t, stack)
}

func TestWaterfallNextAndValues(t *testing.T) {
	w := NewWaterfall("steps",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			require.NoError(t, sc.SetValue("seen", []int{sc.Index}))
			return sc.Next(ctx, "skipped")
		},
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			var seen []int
			ok, err := sc.Value("seen", &seen)
			require.NoError(t, err)
			require.True(t, ok)
			sc.SendActivity("step 1 got "+sc.Result.(string), IgnoringInput)
			return EndOfTurn, nil
		},
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			return sc.EndDialog(ctx, sc.Result)
		},
	)
	h, err := NewHost(w)
	require.NoError(t, err)

	var stack []*Instance
	_, turn := runTurn(t, h, &stack, "start")
	assert.Equal(t, []string{"step 1 got skipped"}, turn.ReplyTexts())

	res, _ := runTurn(t, h, &stack, "raw text")
	assert.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, "raw text", res.Result)
}

func TestWaterfallNextTwiceFails(t *testing.T) {
	w := NewWaterfall("steps",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			if _, err := sc.Next(ctx, nil); err != nil {
				return TurnResult{}, err
			}
			return sc.Next(ctx, nil)
		},
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			return EndOfTurn, nil
		},
	)
	h, err := NewHost(w)
	require.NoError(t, err)

	var stack []*Instance
	_, err = h.Run(context.Background(), NewTurn("c", "x"), &stack)
	assert.ErrorContains(t, err, "next called twice")
}

func TestReplaceDialogRestartsWaterfall(t *testing.T) {
	type restart struct {
		Message string `json:"message"`
	}
	c := NewComponentDialog("root")
	require.NoError(t, c.AddDialog(NewWaterfall("loop",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			opts := restart{Message: "Hello"}
			if err := sc.Options(&opts); err != nil {
				return TurnResult{}, err
			}
			return sc.Prompt(ctx, "text", PromptOptions{Prompt: opts.Message})
		},
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			return sc.ReplaceDialog(ctx, "loop", restart{Message: "Again: " + sc.Result.(string)})
		},
	)))
	require.NoError(t, c.AddDialog(NewTextPrompt("text")))
	h, err := NewHost(c)
	require.NoError(t, err)

	var stack []*Instance
	_, turn := runTurn(t, h, &stack, "")
	assert.Equal(t, []string{"Hello"}, turn.ReplyTexts())

	_, turn = runTurn(t, h, &stack, "ping")
	assert.Equal(t, []string{"Again: ping"}, turn.ReplyTexts())
	assert.Equal(t, []string{"root", "loop", "text"}, ActivePath(stack))
	assert.Len(t, stack[0].Stack, 2)
}

func TestChoicePromptRendersAndRetries(t *testing.T) {
	c := NewComponentDialog("pick")
	require.NoError(t, c.AddDialog(NewWaterfall("pickSteps",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			return sc.Prompt(ctx, "choice", PromptOptions{
				Prompt:      "Which carrier?",
				RetryPrompt: "Pick from 1 to 4.",
				Choices:     carriers,
			})
		},
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			return sc.EndDialog(ctx, sc.Result)
		},
	)))
	require.NoError(t, c.AddDialog(NewChoicePrompt("choice")))
	h, err := NewHost(c)
	require.NoError(t, err)

	var stack []*Instance
	_, turn := runTurn(t, h, &stack, "")
	require.Len(t, turn.Replies, 1)
	assert.Equal(t, "Which carrier? (1) AIG, (2) Geico, (3) Progressive, or (4) Prudential", turn.Replies[0].Text)
	assert.Equal(t, []string{"AIG", "Geico", "Progressive", "Prudential"}, turn.Replies[0].SuggestedActions)
	assert.Equal(t, ExpectingInput, turn.Replies[0].InputHint)

	_, turn = runTurn(t, h, &stack, "allstate")
	require.Len(t, turn.Replies, 1)
	assert.Equal(t, "Pick from 1 to 4. (1) AIG, (2) Geico, (3) Progressive, or (4) Prudential", turn.Replies[0].Text)

	res, _ := runTurn(t, h, &stack, "geico")
	assert.Equal(t, StatusComplete, res.Status)
	found, ok := res.Result.(FoundChoice)
	require.True(t, ok)
	assert.Equal(t, "Geico", found.Value)
}

func TestPromptValidator(t *testing.T) {
	p := NewTextPrompt("digits").WithValidator(func(_ context.Context, _ *Turn, v string) bool {
		for _, r := range v {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})
	c := NewComponentDialog("ask")
	require.NoError(t, c.AddDialog(NewWaterfall("askSteps",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			return sc.Prompt(ctx, "digits", PromptOptions{Prompt: "Number?"})
		},
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			return sc.EndDialog(ctx, sc.Result)
		},
	)))
	require.NoError(t, c.AddDialog(p))
	h, err := NewHost(c)
	require.NoError(t, err)

	var stack []*Instance
	runTurn(t, h, &stack, "")
	_, turn := runTurn(t, h, &stack, "abc")
	assert.Equal(t, []string{"Number?"}, turn.ReplyTexts())
	res, _ := runTurn(t, h, &stack, "123")
	assert.Equal(t, "123", res.Result)
}

func TestHostRepromptAndCancel(t *testing.T) {
	h, err := NewHost(newProfileDialog(t))
	require.NoError(t, err)

	var stack []*Instance
	runTurn(t, h, &stack, "hi")

	turn := NewTurn("conv-1", "help")
	require.NoError(t, h.Reprompt(context.Background(), turn, &stack))
	assert.Equal(t, []string{"What is your name?"}, turn.ReplyTexts())

	res, err := h.CancelAll(context.Background(), turn, &stack)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Empty(t, stack)

	res, err = h.CancelAll(context.Background(), turn, &stack)
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, res.Status)
}

func TestActivePathListsInnerFrames(t *testing.T) {
	stack := []*Instance{{
		ID: "MainDialog",
		Stack: []*Instance{
			{ID: "mainWaterfallDialog"},
			{ID: "bookingDialog", Stack: []*Instance{{ID: "bookingWaterfall"}, {ID: "TextPrompt"}}},
		},
	}}
	assert.Equal(t, []string{"MainDialog", "mainWaterfallDialog", "bookingDialog", "bookingWaterfall", "TextPrompt"}, ActivePath(stack))
	assert.Equal(t, []string{"solo"}, ActivePath([]*Instance{{ID: "other"}, {ID: "solo"}}))
	assert.Nil(t, ActivePath(nil))
}

func TestBeginUnknownDialog(t *testing.T) {
	var stack []*Instance
	dc := NewContext(NewTurn("c", ""), NewSet(), &stack)
	_, err := dc.BeginDialog(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrDialogNotFound)
}

func TestSetRejectsDuplicates(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add(NewTextPrompt("text")))
	assert.ErrorIs(t, s.Add(NewTextPrompt("text")), ErrDuplicateDialog)
	assert.Error(t, s.Add(nil))
	assert.Equal(t, []string{"text"}, s.IDs())
}

func TestNewHostRequiresRoot(t *testing.T) {
	_, err := NewHost(nil)
	assert.Error(t, err)
}

func TestRecognizeDate(t *testing.T) {
	ref := time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

	got, ok := RecognizeDate("2026-11-03", ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.November, 3, 0, 0, 0, 0, time.UTC), got)

	got, ok = RecognizeDate("November 3, 2026", ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.November, 3, 0, 0, 0, 0, time.UTC), got)

	got, ok = RecognizeDate("tomorrow", ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC), got)

	_, ok = RecognizeDate("whenever works", ref)
	assert.False(t, ok)
	_, ok = RecognizeDate("", ref)
	assert.False(t, ok)
}
