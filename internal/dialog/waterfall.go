package dialog

import (
	"context"
	"encoding/json"
	"fmt"
)

// Step is one function of a waterfall. It must return the result of a
// Context or StepContext operation (Prompt, BeginDialog, Next, EndDialog...)
// or EndOfTurn.
type Step func(ctx context.Context, sc *StepContext) (TurnResult, error)

// Waterfall runs its steps in order, suspending whenever a step waits for input.
// When the last step resumes, the waterfall ends with the last result.
type Waterfall struct {
	id    string
	steps []Step
}

func NewWaterfall(id string, steps ...Step) *Waterfall {
	return &Waterfall{id: id, steps: steps}
}

func (w *Waterfall) ID() string {
	return w.id
}

// Len returns the number of steps.
func (w *Waterfall) Len() int {
	return len(w.steps)
}

func (w *Waterfall) BeginDialog(ctx context.Context, dc *Context, _ any) (TurnResult, error) {
	return w.runStep(ctx, dc, 0, nil)
}

// ContinueDialog resumes the waterfall with the raw message text.
func (w *Waterfall) ContinueDialog(ctx context.Context, dc *Context) (TurnResult, error) {
	return w.ResumeDialog(ctx, dc, dc.Turn.Text)
}

func (w *Waterfall) ResumeDialog(ctx context.Context, dc *Context, result any) (TurnResult, error) {
	inst := dc.ActiveDialog()
	if inst == nil || inst.ID != w.id {
		return TurnResult{}, fmt.Errorf("waterfall %q: instance is not on top of the stack", w.id)
	}
	return w.runStep(ctx, dc, inst.Step+1, result)
}

func (w *Waterfall) runStep(ctx context.Context, dc *Context, index int, result any) (TurnResult, error) {
	if index >= len(w.steps) {
		return dc.EndDialog(ctx, result)
	}
	inst := dc.ActiveDialog()
	inst.Step = index

	sc := &StepContext{
		Context:   dc,
		Index:     index,
		Result:    result,
		waterfall: w,
		instance:  inst,
	}
	res, err := w.steps[index](ctx, sc)
	if err != nil {
		return TurnResult{}, fmt.Errorf("waterfall %q step %d: %w", w.id, index, err)
	}
	return res, nil
}

// StepContext is handed to each waterfall step.
type StepContext struct {
	*Context

	// Index of the running step.
	Index int
	// Result is the value produced by the previous step or child dialog.
	Result any

	waterfall  *Waterfall
	instance   *Instance
	nextCalled bool
}

// Next skips to the following step, passing result along.
func (sc *StepContext) Next(ctx context.Context, result any) (TurnResult, error) {
	if sc.nextCalled {
		return TurnResult{}, fmt.Errorf("waterfall %q step %d: next called twice", sc.waterfall.id, sc.Index)
	}
	sc.nextCalled = true
	return sc.waterfall.ResumeDialog(ctx, sc.Context, result)
}

// Options decodes the options the waterfall was begun with into v.
// v is left untouched when the waterfall has no options.
func (sc *StepContext) Options(v any) error {
	if len(sc.instance.Options) == 0 {
		return nil
	}
	if err := json.Unmarshal(sc.instance.Options, v); err != nil {
		return fmt.Errorf("decode options of %q: %w", sc.waterfall.id, err)
	}
	return nil
}

// SetOptions replaces the stored options, so later steps see the update.
func (sc *StepContext) SetOptions(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode options of %q: %w", sc.waterfall.id, err)
	}
	sc.instance.Options = raw
	return nil
}

// Value decodes the value stored under key into v and reports whether it existed.
func (sc *StepContext) Value(key string, v any) (bool, error) {
	raw, ok := sc.instance.Values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode value %q of %q: %w", key, sc.waterfall.id, err)
	}
	return true, nil
}

// SetValue stores v under key for the lifetime of the waterfall instance.
func (sc *StepContext) SetValue(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode value %q of %q: %w", key, sc.waterfall.id, err)
	}
	if sc.instance.Values == nil {
		sc.instance.Values = make(map[string]json.RawMessage)
	}
	sc.instance.Values[key] = raw
	return nil
}
