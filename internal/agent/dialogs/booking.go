package dialogs

import (
	"context"
	"time"

	"github.com/aeg-helpline/server/internal/agent/model"
	"github.com/aeg-helpline/server/internal/dialog"
)

const (
	BookingDialogID  = "bookingDialog"
	bookingWaterfall = "bookingWaterfall"
	datePromptID     = "DatePrompt"
	confirmPromptID  = "ConfirmPrompt"
)

// BookingDialog collects the inspection address, city and date, then asks
// for confirmation. It ends with the BookingDetails when confirmed and with
// no result otherwise. Fields already present in the options are not asked again.
type BookingDialog struct {
	*dialog.ComponentDialog
}

func NewBookingDialog(id string) (*BookingDialog, error) {
	if id == "" {
		id = BookingDialogID
	}
	d := &BookingDialog{ComponentDialog: dialog.NewComponentDialog(id)}
	for _, child := range []dialog.Dialog{
		dialog.NewWaterfall(bookingWaterfall,
			d.destinationStep,
			d.originStep,
			d.dateStep,
			d.confirmStep,
			d.finalStep,
		),
		dialog.NewTextPrompt(textPromptID),
		dialog.NewDatePrompt(datePromptID).WithValidator(notInPast),
		dialog.NewConfirmPrompt(confirmPromptID),
	} {
		if err := d.AddDialog(child); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func notInPast(_ context.Context, turn *dialog.Turn, day time.Time) bool {
	now := turn.Now().In(day.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, day.Location())
	return !day.Before(today)
}

func (d *BookingDialog) details(sc *dialog.StepContext) (model.BookingDetails, error) {
	var details model.BookingDetails
	err := sc.Options(&details)
	return details, err
}

func (d *BookingDialog) destinationStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	details, err := d.details(sc)
	if err != nil {
		return dialog.TurnResult{}, err
	}
	if details.Destination != "" {
		return sc.Next(ctx, details.Destination)
	}
	return sc.Prompt(ctx, textPromptID, dialog.PromptOptions{Prompt: AddressPrompt})
}

func (d *BookingDialog) originStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	details, err := d.details(sc)
	if err != nil {
		return dialog.TurnResult{}, err
	}
	details.Destination, _ = sc.Result.(string)
	if err := sc.SetOptions(details); err != nil {
		return dialog.TurnResult{}, err
	}
	if details.Origin != "" {
		return sc.Next(ctx, details.Origin)
	}
	return sc.Prompt(ctx, textPromptID, dialog.PromptOptions{Prompt: CityPrompt})
}

func (d *BookingDialog) dateStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	details, err := d.details(sc)
	if err != nil {
		return dialog.TurnResult{}, err
	}
	details.Origin, _ = sc.Result.(string)
	if err := sc.SetOptions(details); err != nil {
		return dialog.TurnResult{}, err
	}
	if details.TravelDate != "" {
		return sc.Next(ctx, details.TravelDate)
	}
	return sc.Prompt(ctx, datePromptID, dialog.PromptOptions{Prompt: DatePrompt, RetryPrompt: DateRetryPrompt})
}

func (d *BookingDialog) confirmStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	details, err := d.details(sc)
	if err != nil {
		return dialog.TurnResult{}, err
	}
	switch v := sc.Result.(type) {
	case time.Time:
		details.TravelDate = v.Format(time.DateOnly)
	case string:
		details.TravelDate = v
	}
	if err := sc.SetOptions(details); err != nil {
		return dialog.TurnResult{}, err
	}
	return sc.Prompt(ctx, confirmPromptID, dialog.PromptOptions{
		Prompt:      BookingConfirmPrompt(details),
		RetryPrompt: ConfirmRetryText,
	})
}

func (d *BookingDialog) finalStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	if confirmed, _ := sc.Result.(bool); !confirmed {
		return sc.EndDialog(ctx, nil)
	}
	details, err := d.details(sc)
	if err != nil {
		return dialog.TurnResult{}, err
	}
	return sc.EndDialog(ctx, details)
}
