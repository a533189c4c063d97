package dialog

import (
	"strconv"
	"strings"
	"unicode"
)

// Choice is one selectable option of a choice prompt.
type Choice struct {
	Value    string   `json:"value"`
	Synonyms []string `json:"synonyms,omitempty"`
}

// FoundChoice is the option recognized from user input.
type FoundChoice struct {
	Value string  `json:"value"`
	Index int     `json:"index"`
	Score float64 `json:"score"`
	// Synonym is the value or synonym that matched.
	Synonym string `json:"synonym,omitempty"`
}

var ordinals = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"1st": 1, "2nd": 2, "3rd": 3, "4th": 4, "5th": 5,
}

// RecognizeChoice matches text against choices. Exact value or synonym
// matches win, then list numbers and ordinals ("2", "second"), then the
// option whose value or synonym appears as whole words in the text.
func RecognizeChoice(text string, choices []Choice) (FoundChoice, bool) {
	tokens := tokenize(text)
	if len(tokens) == 0 || len(choices) == 0 {
		return FoundChoice{}, false
	}
	utterance := strings.Join(tokens, " ")

	for i, c := range choices {
		for _, candidate := range candidates(c) {
			if strings.Join(tokenize(candidate), " ") == utterance {
				return FoundChoice{Value: c.Value, Index: i, Score: 1, Synonym: candidate}, true
			}
		}
	}

	if n, ok := ordinalIndex(tokens); ok && n >= 1 && n <= len(choices) {
		c := choices[n-1]
		return FoundChoice{Value: c.Value, Index: n - 1, Score: 1, Synonym: c.Value}, true
	}

	best := FoundChoice{Index: -1}
	for i, c := range choices {
		for _, candidate := range candidates(c) {
			ct := tokenize(candidate)
			if len(ct) == 0 || !containsPhrase(tokens, ct) {
				continue
			}
			score := float64(len(ct)) / float64(len(tokens))
			if score > best.Score {
				best = FoundChoice{Value: c.Value, Index: i, Score: score, Synonym: candidate}
			}
		}
	}
	if best.Index < 0 {
		return FoundChoice{}, false
	}
	return best, true
}

// InlineList renders choices as "(1) AIG, (2) Geico, or (3) Progressive".
func InlineList(choices []Choice) string {
	var b strings.Builder
	for i, c := range choices {
		switch {
		case i == 0:
		case i == len(choices)-1 && len(choices) == 2:
			b.WriteString(" or ")
		case i == len(choices)-1:
			b.WriteString(", or ")
		default:
			b.WriteString(", ")
		}
		b.WriteString("(" + strconv.Itoa(i+1) + ") " + c.Value)
	}
	return b.String()
}

// Values returns the display values of choices.
func Values(choices []Choice) []string {
	out := make([]string, 0, len(choices))
	for _, c := range choices {
		out = append(out, c.Value)
	}
	return out
}

func candidates(c Choice) []string {
	return append([]string{c.Value}, c.Synonyms...)
}

func ordinalIndex(tokens []string) (int, bool) {
	// "2", "second", "number 2", "the second"
	if len(tokens) == 0 || len(tokens) > 2 {
		return 0, false
	}
	last := tokens[len(tokens)-1]
	if n, err := strconv.Atoi(last); err == nil {
		return n, true
	}
	if n, ok := ordinals[last]; ok {
		return n, true
	}
	return 0, false
}

func containsPhrase(tokens, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j := range phrase {
			if tokens[i+j] != phrase[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
