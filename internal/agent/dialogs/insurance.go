package dialogs

import (
	"context"
	"strings"

	"github.com/aeg-helpline/server/internal/agent/model"
	"github.com/aeg-helpline/server/internal/dialog"
)

const (
	InsuranceDialogID  = "insuranceDialog"
	insuranceWaterfall = "waterfallDialog"
	cardPromptID       = "cardPrompt"
	textPromptID       = "TextPrompt"
)

// InsuranceChoices returns the supported carriers with their synonyms.
func InsuranceChoices() []dialog.Choice {
	return []dialog.Choice{
		{Value: "AIG", Synonyms: []string{"aig", "Aig"}},
		{Value: "Geico", Synonyms: []string{"geico"}},
		{Value: "Progressive", Synonyms: []string{"progressive"}},
		{Value: "Prudential", Synonyms: []string{"prudential"}},
	}
}

// InsuranceDialog asks for the carrier and the account number and ends with
// the InsuranceDetails, or with no result when no number was given.
type InsuranceDialog struct {
	*dialog.ComponentDialog
}

func NewInsuranceDialog(id string) (*InsuranceDialog, error) {
	if id == "" {
		id = InsuranceDialogID
	}
	d := &InsuranceDialog{ComponentDialog: dialog.NewComponentDialog(id)}
	for _, child := range []dialog.Dialog{
		dialog.NewWaterfall(insuranceWaterfall,
			d.carrierStep,
			d.numberStep,
			d.finalStep,
		),
		dialog.NewChoicePrompt(cardPromptID),
		dialog.NewTextPrompt(textPromptID),
	} {
		if err := d.AddDialog(child); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *InsuranceDialog) carrierStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	return sc.Prompt(ctx, cardPromptID, dialog.PromptOptions{
		Prompt:      CarrierPrompt,
		RetryPrompt: CarrierRetryPrompt,
		Choices:     InsuranceChoices(),
	})
}

func (d *InsuranceDialog) numberStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	var details model.InsuranceDetails
	if err := sc.Options(&details); err != nil {
		return dialog.TurnResult{}, err
	}
	if found, ok := sc.Result.(dialog.FoundChoice); ok {
		details.Carrier = found.Value
	}
	if err := sc.SetOptions(details); err != nil {
		return dialog.TurnResult{}, err
	}
	return sc.Prompt(ctx, textPromptID, dialog.PromptOptions{Prompt: InsuranceNumberMsg})
}

func (d *InsuranceDialog) finalStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	number, ok := sc.Result.(string)
	if !ok || strings.TrimSpace(number) == "" {
		return sc.EndDialog(ctx, nil)
	}
	var details model.InsuranceDetails
	if err := sc.Options(&details); err != nil {
		return dialog.TurnResult{}, err
	}
	details.InsuranceNumber = number
	sc.SendActivity(InsuranceFoundMessage(details), dialog.IgnoringInput)
	return sc.EndDialog(ctx, details)
}
