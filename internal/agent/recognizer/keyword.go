package recognizer

import (
	"context"
	"strings"
	"unicode"

	"github.com/aeg-helpline/server/internal/agent/model"
)

type keywordRule struct {
	intent string
	// phrases are lowercase word sequences matched on word boundaries.
	phrases []string
}

// Rules are listed by priority; on equal scores the earlier rule wins, so
// "yes, book me" confirms instead of asking about asbestos again.
var keywordRules = []keywordRule{
	{intent: model.IntentInsurance, phrases: []string{
		"insurance", "insured", "insurer", "policy", "carrier", "coverage",
		"aig", "geico", "progressive", "prudential",
	}},
	{intent: model.IntentPocket, phrases: []string{
		"pocket", "out of pocket", "cash", "card", "credit", "debit", "myself",
		"self pay", "pay it", "personally",
	}},
	{intent: model.IntentConfirm, phrases: []string{
		"yes", "y", "yeah", "yep", "yup", "sure", "ok", "okay", "confirm",
		"correct", "sounds good", "lets do it", "please do", "of course",
		"absolutely",
	}},
	{intent: model.IntentAsbestosAppointment, phrases: []string{
		"asbestos", "inspection", "inspect", "inspector", "appointment", "book",
		"booking", "schedule", "visit", "test",
	}},
}

// Keyword recognizes intents with fixed word lists. It needs no external
// service and backs the help line when no NLU model is configured.
type Keyword struct {
	minConfidence float64
}

func NewKeyword(minConfidence float64) *Keyword {
	return &Keyword{minConfidence: minConfidence}
}

func (k *Keyword) IsConfigured() bool {
	return false
}

func (k *Keyword) Recognize(_ context.Context, in model.NLUInput) (*model.RecognizerResult, error) {
	text := normalizeText(in.Text)
	res := &model.RecognizerResult{
		Text:    text,
		Intents: []model.Intent{},
		Source:  model.SourceKeyword,
	}

	padded := " " + strings.Join(words(text), " ") + " "
	for _, rule := range keywordRules {
		hits := 0
		for _, p := range rule.phrases {
			if strings.Contains(padded, " "+p+" ") {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		res.Intents = append(res.Intents, model.Intent{Name: rule.intent, Score: keywordScore(hits)})
	}
	res.SortIntents()
	applyThreshold(res, k.minConfidence)
	return res, nil
}

// keywordScore is 0.6 for one hit, growing by 0.1 per extra hit up to 0.95.
func keywordScore(hits int) float64 {
	s := 0.6 + 0.1*float64(hits-1)
	if s > 0.95 {
		return 0.95
	}
	return s
}

// words lowercases s and splits it on anything but letters and digits,
// dropping apostrophes so "let's" reads as "lets".
func words(s string) []string {
	s = strings.ReplaceAll(strings.ToLower(s), "'", "")
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
