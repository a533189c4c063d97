package dialog

import (
	"context"
	"fmt"
)

// Host runs turns of a root dialog against a caller-owned stack.
type Host struct {
	root    Dialog
	dialogs *Set
}

func NewHost(root Dialog) (*Host, error) {
	if root == nil {
		return nil, fmt.Errorf("dialog host: root dialog is nil")
	}
	set := NewSet()
	if err := set.Add(root); err != nil {
		return nil, err
	}
	return &Host{root: root, dialogs: set}, nil
}

// RootID returns the ID of the root dialog.
func (h *Host) RootID() string {
	return h.root.ID()
}

// Run continues the active dialog, or begins the root when the stack is empty.
func (h *Host) Run(ctx context.Context, turn *Turn, stack *[]*Instance) (TurnResult, error) {
	dc := NewContext(turn, h.dialogs, stack)
	res, err := dc.ContinueDialog(ctx)
	if err != nil {
		return TurnResult{}, err
	}
	if res.Status == StatusEmpty {
		return dc.BeginDialog(ctx, h.root.ID(), nil)
	}
	return res, nil
}

// Reprompt asks the innermost active dialog to repeat its question.
func (h *Host) Reprompt(ctx context.Context, turn *Turn, stack *[]*Instance) error {
	return NewContext(turn, h.dialogs, stack).RepromptDialog(ctx)
}

// CancelAll clears the stack.
func (h *Host) CancelAll(ctx context.Context, turn *Turn, stack *[]*Instance) (TurnResult, error) {
	return NewContext(turn, h.dialogs, stack).CancelAllDialogs(ctx)
}
