// Package dialog hosts the waterfall dialogs, prompts and component dialogs
// the help line script is built from. Each conversation owns a stack of dialog
// instances; a turn continues the instance on top of it, and prompts suspend
// the stack until the next inbound message.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Status describes how a dialog turn ended.
type Status string

const (
	// StatusEmpty means no dialog was active on the stack.
	StatusEmpty Status = "empty"
	// StatusWaiting means the active dialog is waiting for the next message.
	StatusWaiting Status = "waiting"
	// StatusComplete means the root dialog ended; Result holds its return value.
	StatusComplete Status = "complete"
	// StatusCancelled means the stack was cleared.
	StatusCancelled Status = "cancelled"
)

// TurnResult is returned by every dialog operation.
type TurnResult struct {
	Status Status
	Result any
}

// EndOfTurn suspends the stack until the next message.
var EndOfTurn = TurnResult{Status: StatusWaiting}

var (
	ErrDialogNotFound  = errors.New("dialog not found")
	ErrDuplicateDialog = errors.New("dialog already registered")
)

// Dialog is a unit of conversation that can be pushed on a dialog stack.
type Dialog interface {
	ID() string
	// BeginDialog runs when the dialog is pushed. Its instance is already on top of dc's stack.
	BeginDialog(ctx context.Context, dc *Context, options any) (TurnResult, error)
	// ContinueDialog runs when a message arrives while the dialog is on top of the stack.
	ContinueDialog(ctx context.Context, dc *Context) (TurnResult, error)
	// ResumeDialog runs when a child dialog ended and this dialog is on top again.
	ResumeDialog(ctx context.Context, dc *Context, result any) (TurnResult, error)
}

// Reprompter is implemented by dialogs that can repeat their last question.
type Reprompter interface {
	RepromptDialog(ctx context.Context, dc *Context, inst *Instance) error
}

// Set is a registry of dialogs addressable by ID.
type Set struct {
	dialogs map[string]Dialog
}

func NewSet() *Set {
	return &Set{dialogs: make(map[string]Dialog)}
}

// Add registers d. IDs must be unique within a set.
func (s *Set) Add(d Dialog) error {
	if d == nil {
		return fmt.Errorf("add dialog: dialog is nil")
	}
	if _, ok := s.dialogs[d.ID()]; ok {
		return fmt.Errorf("add dialog %q: %w", d.ID(), ErrDuplicateDialog)
	}
	s.dialogs[d.ID()] = d
	return nil
}

// Find returns the dialog registered under id, or nil.
func (s *Set) Find(id string) Dialog {
	return s.dialogs[id]
}

// IDs returns the registered dialog IDs in lexical order.
func (s *Set) IDs() []string {
	ids := make([]string, 0, len(s.dialogs))
	for id := range s.dialogs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
