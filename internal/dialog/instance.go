package dialog

import "encoding/json"

// Instance is the persisted frame of one active dialog. It is stored as JSON
// between turns, so everything a dialog needs on the next turn lives here.
type Instance struct {
	ID       string                     `json:"id"`
	Step     int                        `json:"step"`
	Attempts int                        `json:"attempts,omitempty"`
	Options  json.RawMessage            `json:"options,omitempty"`
	Values   map[string]json.RawMessage `json:"values,omitempty"`
	// Stack holds the inner stack of a component dialog.
	Stack []*Instance `json:"stack,omitempty"`
}

// Path returns the IDs from this instance down to the innermost active dialog.
// Every frame of an inner stack is listed; only the top one is descended into.
func (i *Instance) Path() []string {
	var path []string
	for cur := i; cur != nil; {
		path = append(path, cur.ID)
		if len(cur.Stack) == 0 {
			break
		}
		top := len(cur.Stack) - 1
		for _, below := range cur.Stack[:top] {
			path = append(path, below.ID)
		}
		cur = cur.Stack[top]
	}
	return path
}

// ActivePath returns the IDs of the innermost active dialog chain of stack.
func ActivePath(stack []*Instance) []string {
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1].Path()
}
