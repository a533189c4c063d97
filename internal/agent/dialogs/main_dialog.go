// Package dialogs scripts the help line conversation: the main dialog routes
// on the recognized intent into the insurance lookup and the inspection booking.
package dialogs

import (
	"context"
	"errors"
	"reflect"

	"github.com/aeg-helpline/server/internal/agent/model"
	"github.com/aeg-helpline/server/internal/agent/recognizer"
	"github.com/aeg-helpline/server/internal/dialog"
	logx "github.com/aeg-helpline/server/pkg/logger"
)

const (
	MainDialogID        = "MainDialog"
	MainWaterfallDialog = "mainWaterfallDialog"
	insuranceValueKey   = "insurance"
)

var (
	ErrMissingRecognizer    = errors.New("[MainDialog]: missing parameter 'recognizer' is required")
	ErrMissingBookingDialog = errors.New("[MainDialog]: missing parameter 'bookingDialog' is required")
)

// MainOptions are the options of the main waterfall.
type MainOptions struct {
	// RestartMsg replaces the welcome message when the waterfall restarts.
	RestartMsg string `json:"restart_msg,omitempty"`
}

// MainDialog is the root of the help line conversation.
type MainDialog struct {
	*dialog.ComponentDialog

	recognizer recognizer.Recognizer
	bookingID  string
}

// isNil also catches a nil pointer stored in a non-nil interface.
func isNil(d dialog.Dialog) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// NewMainDialog wires the main waterfall around r and booking.
func NewMainDialog(r recognizer.Recognizer, booking dialog.Dialog) (*MainDialog, error) {
	if r == nil {
		return nil, ErrMissingRecognizer
	}
	if isNil(booking) {
		return nil, ErrMissingBookingDialog
	}

	insurance, err := NewInsuranceDialog(InsuranceDialogID)
	if err != nil {
		return nil, err
	}

	d := &MainDialog{
		ComponentDialog: dialog.NewComponentDialog(MainDialogID),
		recognizer:      r,
		bookingID:       booking.ID(),
	}
	for _, child := range []dialog.Dialog{
		dialog.NewChoicePrompt(cardPromptID),
		insurance,
		booking,
		dialog.NewTextPrompt(textPromptID),
		dialog.NewWaterfall(MainWaterfallDialog,
			d.introStep,
			d.actStep,
			d.actStep,
			d.actStep,
			d.bookingStep,
			d.finalStep,
		),
	} {
		if err := d.AddDialog(child); err != nil {
			return nil, err
		}
	}
	d.InitialDialogID = MainWaterfallDialog
	return d, nil
}

func (d *MainDialog) introStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	if !d.recognizer.IsConfigured() {
		sc.SendActivity(NLUNotConfiguredMessage, dialog.IgnoringInput)
	}

	var opts MainOptions
	if err := sc.Options(&opts); err != nil {
		return dialog.TurnResult{}, err
	}
	text := opts.RestartMsg
	if text == "" {
		text = WelcomeMessage
	}
	return sc.Prompt(ctx, textPromptID, dialog.PromptOptions{Prompt: text})
}

func (d *MainDialog) actStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	// The insurance dialog ended on this turn; the utterance was the account
	// number, so pass the details on to the booking step.
	if details, ok := sc.Result.(model.InsuranceDetails); ok {
		return sc.Next(ctx, details)
	}

	res, err := recognize(ctx, d.recognizer, sc.Turn)
	if err != nil {
		return dialog.TurnResult{}, err
	}
	top := res.TopIntent()
	logx.Debug().
		Str("conversation_id", sc.Turn.ConversationID).
		Str("intent", top.Name).
		Float64("score", top.Score).
		Int("step", sc.Index).
		Msg("main dialog act")

	switch top.Name {
	case model.IntentAsbestosAppointment:
		return sc.Prompt(ctx, textPromptID, dialog.PromptOptions{Prompt: AsbestosMessage})
	case model.IntentConfirm:
		return sc.Prompt(ctx, textPromptID, dialog.PromptOptions{Prompt: ConfirmMessage})
	case model.IntentInsurance:
		return sc.BeginDialog(ctx, InsuranceDialogID, model.InsuranceDetails{})
	case model.IntentPocket:
		return sc.Next(ctx, nil)
	default:
		return sc.ReplaceDialog(ctx, MainWaterfallDialog, MainOptions{RestartMsg: DidNotUnderstandMessage(top.Name)})
	}
}

func (d *MainDialog) bookingStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	if details, ok := sc.Result.(model.InsuranceDetails); ok {
		if err := sc.SetValue(insuranceValueKey, details); err != nil {
			return dialog.TurnResult{}, err
		}
	}
	return sc.BeginDialog(ctx, d.bookingID, model.BookingDetails{})
}

func (d *MainDialog) finalStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	// Nil when the booking was declined.
	if details, ok := sc.Result.(model.BookingDetails); ok {
		sc.SendActivity(BookedMessage(details), dialog.IgnoringInput)

		var insurance model.InsuranceDetails
		hasInsurance, err := sc.Value(insuranceValueKey, &insurance)
		if err != nil {
			return dialog.TurnResult{}, err
		}
		ev := logx.Info().
			Str("conversation_id", sc.Turn.ConversationID).
			Str("travel_date", details.TravelDate).
			Str("origin", details.Origin)
		if hasInsurance {
			ev = ev.Str("carrier", insurance.Carrier)
		}
		ev.Msg("inspection booked")
	}
	return sc.ReplaceDialog(ctx, MainWaterfallDialog, MainOptions{RestartMsg: WhatElseMessage})
}
