package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var carriers = []Choice{
	{Value: "AIG", Synonyms: []string{"aig", "Aig"}},
	{Value: "Geico", Synonyms: []string{"geico"}},
	{Value: "Progressive", Synonyms: []string{"progressive"}},
	{Value: "Prudential", Synonyms: []string{"prudential"}},
}

func TestRecognizeChoice(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"AIG", "AIG", true},
		{"  aig ", "AIG", true},
		{"geico", "Geico", true},
		{"PROGRESSIVE!", "Progressive", true},
		{"2", "Geico", true},
		{"number 4", "Prudential", true},
		{"the third", "Progressive", true},
		{"I have prudential I think", "Prudential", true},
		{"5", "", false},
		{"state farm", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			found, ok := RecognizeChoice(tt.input, carriers)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, found.Value)
		})
	}
}

func TestRecognizeChoiceReportsIndexAndSynonym(t *testing.T) {
	found, ok := RecognizeChoice("Aig", carriers)
	assert.True(t, ok)
	assert.Equal(t, 0, found.Index)
	assert.Equal(t, 1.0, found.Score)
	assert.Equal(t, "AIG", found.Synonym)
}

func TestInlineList(t *testing.T) {
	assert.Equal(t, "(1) AIG, (2) Geico, (3) Progressive, or (4) Prudential", InlineList(carriers))
	assert.Equal(t, "(1) Yes or (2) No", InlineList(confirmChoices))
	assert.Equal(t, "(1) AIG", InlineList(carriers[:1]))
	assert.Equal(t, "", InlineList(nil))
}

func TestRecognizeConfirm(t *testing.T) {
	tests := []struct {
		input  string
		answer bool
		ok     bool
	}{
		{"yes", true, true},
		{"Yes please", true, true},
		{"yep", true, true},
		{"1", true, true},
		{"no", false, true},
		{"No thanks", false, true},
		{"2", false, true},
		{"maybe later", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			answer, ok := RecognizeConfirm(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.answer, answer)
		})
	}
}
