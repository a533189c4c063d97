package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// PromptOptions configures one prompt call.
type PromptOptions struct {
	Prompt      string   `json:"prompt"`
	RetryPrompt string   `json:"retry_prompt,omitempty"`
	Choices     []Choice `json:"choices,omitempty"`
}

// Validator accepts or rejects a recognized prompt value.
type Validator[T any] func(ctx context.Context, turn *Turn, value T) bool

// Prompt asks a question and ends with the recognized value of type T.
// Unrecognized or rejected input sends the retry prompt and keeps waiting.
type Prompt[T any] struct {
	id        string
	recognize func(turn *Turn, opts PromptOptions) (T, bool)
	render    func(opts PromptOptions, text string) Activity
	validator Validator[T]
}

func (p *Prompt[T]) ID() string {
	return p.id
}

// WithValidator adds an extra acceptance check after recognition.
func (p *Prompt[T]) WithValidator(v Validator[T]) *Prompt[T] {
	p.validator = v
	return p
}

func (p *Prompt[T]) BeginDialog(_ context.Context, dc *Context, options any) (TurnResult, error) {
	opts, err := promptOptions(options)
	if err != nil {
		return TurnResult{}, fmt.Errorf("prompt %q: %w", p.id, err)
	}
	p.send(dc.Turn, opts, false)
	return EndOfTurn, nil
}

func (p *Prompt[T]) ContinueDialog(ctx context.Context, dc *Context) (TurnResult, error) {
	inst := dc.ActiveDialog()
	opts, err := storedOptions(inst)
	if err != nil {
		return TurnResult{}, fmt.Errorf("prompt %q: %w", p.id, err)
	}

	value, ok := p.recognize(dc.Turn, opts)
	if ok && p.validator != nil {
		ok = p.validator(ctx, dc.Turn, value)
	}
	if ok {
		return dc.EndDialog(ctx, value)
	}

	inst.Attempts++
	p.send(dc.Turn, opts, true)
	return EndOfTurn, nil
}

// ResumeDialog re-asks the question when a dialog pushed above the prompt ends.
func (p *Prompt[T]) ResumeDialog(ctx context.Context, dc *Context, _ any) (TurnResult, error) {
	if err := p.RepromptDialog(ctx, dc, dc.ActiveDialog()); err != nil {
		return TurnResult{}, err
	}
	return EndOfTurn, nil
}

func (p *Prompt[T]) RepromptDialog(_ context.Context, dc *Context, inst *Instance) error {
	opts, err := storedOptions(inst)
	if err != nil {
		return fmt.Errorf("prompt %q: %w", p.id, err)
	}
	p.send(dc.Turn, opts, false)
	return nil
}

func (p *Prompt[T]) send(turn *Turn, opts PromptOptions, retry bool) {
	text := opts.Prompt
	if retry && opts.RetryPrompt != "" {
		text = opts.RetryPrompt
	}
	if text == "" {
		return
	}
	turn.Send(p.render(opts, text))
}

// NewTextPrompt accepts any non-blank message and returns it verbatim.
func NewTextPrompt(id string) *Prompt[string] {
	return &Prompt[string]{
		id: id,
		recognize: func(turn *Turn, _ PromptOptions) (string, bool) {
			if strings.TrimSpace(turn.Text) == "" {
				return "", false
			}
			return turn.Text, true
		},
		render: plainRender,
	}
}

// NewChoicePrompt recognizes one of the prompt's choices and returns a FoundChoice.
func NewChoicePrompt(id string) *Prompt[FoundChoice] {
	return &Prompt[FoundChoice]{
		id: id,
		recognize: func(turn *Turn, opts PromptOptions) (FoundChoice, bool) {
			return RecognizeChoice(turn.Text, opts.Choices)
		},
		render: func(opts PromptOptions, text string) Activity {
			a := Activity{Text: text, InputHint: ExpectingInput, SuggestedActions: Values(opts.Choices)}
			if len(opts.Choices) > 0 {
				a.Text = text + " " + InlineList(opts.Choices)
			}
			return a
		},
	}
}

var confirmChoices = []Choice{
	{Value: "Yes", Synonyms: []string{"y", "yeah", "yep", "sure", "ok", "okay", "correct", "confirm", "right"}},
	{Value: "No", Synonyms: []string{"n", "nope", "nah", "incorrect", "wrong"}},
}

// NewConfirmPrompt recognizes yes/no answers.
func NewConfirmPrompt(id string) *Prompt[bool] {
	return &Prompt[bool]{
		id: id,
		recognize: func(turn *Turn, _ PromptOptions) (bool, bool) {
			return RecognizeConfirm(turn.Text)
		},
		render: func(_ PromptOptions, text string) Activity {
			return Activity{
				Text:             text + " " + InlineList(confirmChoices),
				InputHint:        ExpectingInput,
				SuggestedActions: Values(confirmChoices),
			}
		},
	}
}

// RecognizeConfirm returns (answer, recognized) for yes/no style input.
func RecognizeConfirm(text string) (bool, bool) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return false, false
	}
	if found, ok := RecognizeChoice(text, confirmChoices); ok {
		return found.Index == 0, true
	}
	// "yes please", "no thanks"
	if found, ok := RecognizeChoice(tokens[0], confirmChoices); ok {
		return found.Index == 0, true
	}
	return false, false
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

var dateParser = newDateParser()

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// NewDatePrompt recognizes absolute ("2026-11-03", "November 3, 2026") and
// relative ("tomorrow", "next friday") dates and returns midnight of that day.
func NewDatePrompt(id string) *Prompt[time.Time] {
	return &Prompt[time.Time]{
		id: id,
		recognize: func(turn *Turn, _ PromptOptions) (time.Time, bool) {
			return RecognizeDate(turn.Text, turn.Now())
		},
		render: plainRender,
	}
}

// RecognizeDate parses text relative to ref.
func RecognizeDate(text string, ref time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, ref.Location()); err == nil {
			return t, true
		}
	}
	r, err := dateParser.Parse(text, ref)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	y, m, d := r.Time.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ref.Location()), true
}

func plainRender(_ PromptOptions, text string) Activity {
	return Activity{Text: text, InputHint: ExpectingInput}
}

func promptOptions(options any) (PromptOptions, error) {
	switch v := options.(type) {
	case PromptOptions:
		return v, nil
	case *PromptOptions:
		if v == nil {
			return PromptOptions{}, nil
		}
		return *v, nil
	case nil:
		return PromptOptions{}, nil
	default:
		return PromptOptions{}, fmt.Errorf("unsupported prompt options %T", options)
	}
}

func storedOptions(inst *Instance) (PromptOptions, error) {
	var opts PromptOptions
	if inst == nil || len(inst.Options) == 0 {
		return opts, nil
	}
	if err := json.Unmarshal(inst.Options, &opts); err != nil {
		return opts, fmt.Errorf("decode prompt options: %w", err)
	}
	return opts, nil
}
