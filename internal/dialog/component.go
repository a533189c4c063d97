package dialog

import (
	"context"
	"fmt"
)

// ComponentDialog groups dialogs behind a single ID. Its inner stack is kept
// in its own instance, and it ends when the inner stack completes.
type ComponentDialog struct {
	id string
	// InitialDialogID is begun when the component starts. Defaults to the first added dialog.
	InitialDialogID string

	dialogs *Set
}

func NewComponentDialog(id string) *ComponentDialog {
	return &ComponentDialog{id: id, dialogs: NewSet()}
}

func (c *ComponentDialog) ID() string {
	return c.id
}

// AddDialog registers d in the component's inner set.
func (c *ComponentDialog) AddDialog(d Dialog) error {
	if err := c.dialogs.Add(d); err != nil {
		return fmt.Errorf("component %q: %w", c.id, err)
	}
	if c.InitialDialogID == "" {
		c.InitialDialogID = d.ID()
	}
	return nil
}

// Dialogs returns the inner dialog set.
func (c *ComponentDialog) Dialogs() *Set {
	return c.dialogs
}

func (c *ComponentDialog) BeginDialog(ctx context.Context, dc *Context, options any) (TurnResult, error) {
	if c.InitialDialogID == "" {
		return TurnResult{}, fmt.Errorf("component %q: no initial dialog", c.id)
	}
	res, err := c.inner(dc).BeginDialog(ctx, c.InitialDialogID, options)
	return c.afterInner(ctx, dc, res, err)
}

func (c *ComponentDialog) ContinueDialog(ctx context.Context, dc *Context) (TurnResult, error) {
	res, err := c.inner(dc).ContinueDialog(ctx)
	return c.afterInner(ctx, dc, res, err)
}

// ResumeDialog runs when a dialog begun on the outer stack above the component
// ended. The component re-asks its current question and waits.
func (c *ComponentDialog) ResumeDialog(ctx context.Context, dc *Context, _ any) (TurnResult, error) {
	if err := c.RepromptDialog(ctx, dc, dc.ActiveDialog()); err != nil {
		return TurnResult{}, err
	}
	return EndOfTurn, nil
}

func (c *ComponentDialog) RepromptDialog(ctx context.Context, dc *Context, inst *Instance) error {
	return c.innerFor(dc, inst).RepromptDialog(ctx)
}

func (c *ComponentDialog) inner(dc *Context) *Context {
	return c.innerFor(dc, dc.ActiveDialog())
}

func (c *ComponentDialog) innerFor(dc *Context, inst *Instance) *Context {
	return &Context{Turn: dc.Turn, Parent: dc, dialogs: c.dialogs, stack: &inst.Stack}
}

func (c *ComponentDialog) afterInner(ctx context.Context, dc *Context, res TurnResult, err error) (TurnResult, error) {
	if err != nil {
		return TurnResult{}, err
	}
	switch res.Status {
	case StatusComplete:
		return dc.EndDialog(ctx, res.Result)
	case StatusEmpty, StatusCancelled:
		return dc.EndDialog(ctx, nil)
	default:
		return res, nil
	}
}
