package dialog

import (
	"context"
	"encoding/json"
	"fmt"
)

// Context binds a dialog set to a stack for the duration of one turn.
// Component dialogs create child contexts over their inner stack.
type Context struct {
	Turn   *Turn
	Parent *Context

	dialogs *Set
	stack   *[]*Instance
}

func NewContext(turn *Turn, dialogs *Set, stack *[]*Instance) *Context {
	return &Context{Turn: turn, dialogs: dialogs, stack: stack}
}

// Stack returns the instances of this context, bottom first.
func (dc *Context) Stack() []*Instance {
	return *dc.stack
}

// ActiveDialog returns the instance on top of the stack, or nil.
func (dc *Context) ActiveDialog() *Instance {
	s := *dc.stack
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// FindDialog looks id up in this context's set, then in the parents' sets.
func (dc *Context) FindDialog(id string) Dialog {
	if d := dc.dialogs.Find(id); d != nil {
		return d
	}
	if dc.Parent != nil {
		return dc.Parent.FindDialog(id)
	}
	return nil
}

// BeginDialog pushes a new instance of id and starts it.
func (dc *Context) BeginDialog(ctx context.Context, id string, options any) (TurnResult, error) {
	d := dc.FindDialog(id)
	if d == nil {
		return TurnResult{}, fmt.Errorf("begin %q: %w", id, ErrDialogNotFound)
	}
	inst := &Instance{ID: id}
	if options != nil {
		raw, err := json.Marshal(options)
		if err != nil {
			return TurnResult{}, fmt.Errorf("encode options for %q: %w", id, err)
		}
		inst.Options = raw
	}
	*dc.stack = append(*dc.stack, inst)
	return d.BeginDialog(ctx, dc, options)
}

// Prompt begins the prompt dialog id with opts.
func (dc *Context) Prompt(ctx context.Context, id string, opts PromptOptions) (TurnResult, error) {
	return dc.BeginDialog(ctx, id, opts)
}

// ContinueDialog hands the turn to the active dialog. It returns StatusEmpty
// when the stack is empty.
func (dc *Context) ContinueDialog(ctx context.Context) (TurnResult, error) {
	inst := dc.ActiveDialog()
	if inst == nil {
		return TurnResult{Status: StatusEmpty}, nil
	}
	d := dc.FindDialog(inst.ID)
	if d == nil {
		return TurnResult{}, fmt.Errorf("continue %q: %w", inst.ID, ErrDialogNotFound)
	}
	return d.ContinueDialog(ctx, dc)
}

// EndDialog pops the active dialog and resumes its parent with result.
func (dc *Context) EndDialog(ctx context.Context, result any) (TurnResult, error) {
	dc.pop()
	inst := dc.ActiveDialog()
	if inst == nil {
		return TurnResult{Status: StatusComplete, Result: result}, nil
	}
	d := dc.FindDialog(inst.ID)
	if d == nil {
		return TurnResult{}, fmt.Errorf("resume %q: %w", inst.ID, ErrDialogNotFound)
	}
	return d.ResumeDialog(ctx, dc, result)
}

// ReplaceDialog pops the active dialog without resuming its parent and begins id in its place.
func (dc *Context) ReplaceDialog(ctx context.Context, id string, options any) (TurnResult, error) {
	dc.pop()
	return dc.BeginDialog(ctx, id, options)
}

// CancelAllDialogs clears the stack.
func (dc *Context) CancelAllDialogs(_ context.Context) (TurnResult, error) {
	if len(*dc.stack) == 0 {
		return TurnResult{Status: StatusEmpty}, nil
	}
	*dc.stack = nil
	return TurnResult{Status: StatusCancelled}, nil
}

// RepromptDialog asks the active dialog to repeat its question.
func (dc *Context) RepromptDialog(ctx context.Context) error {
	inst := dc.ActiveDialog()
	if inst == nil {
		return nil
	}
	d := dc.FindDialog(inst.ID)
	if d == nil {
		return fmt.Errorf("reprompt %q: %w", inst.ID, ErrDialogNotFound)
	}
	if r, ok := d.(Reprompter); ok {
		return r.RepromptDialog(ctx, dc, inst)
	}
	return nil
}

// SendActivity sends a plain text reply for this turn.
func (dc *Context) SendActivity(text string, hint InputHint) {
	dc.Turn.SendActivity(text, hint)
}

func (dc *Context) pop() {
	s := *dc.stack
	if len(s) == 0 {
		return
	}
	s[len(s)-1] = nil
	*dc.stack = s[:len(s)-1]
}
