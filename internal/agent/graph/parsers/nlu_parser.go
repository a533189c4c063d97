package parsers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aeg-helpline/server/internal/agent/model"
	errx "github.com/aeg-helpline/server/internal/core/error"
	logx "github.com/aeg-helpline/server/pkg/logger"
)

const (
	recDelim = "##"
	tupDelim = "<||>"
	endDelim = "<|COMPLETE|>"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 32 * 1024 // 32KB
	maxRecords    = 50        // maximum number of records to process
	maxTupleLen   = 1024      // 1KB per tuple
	maxErrSnippet = 200       // limit error snippet size
)

type rawTuple struct {
	Type  string
	Parts []string
}

func parseRawTuple(s string) (*rawTuple, error) {
	if s == "" {
		return nil, fmt.Errorf("empty tuple")
	}
	// enforce a sane upper bound per record
	if len(s) > maxTupleLen {
		return nil, fmt.Errorf("tuple too large")
	}

	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("invalid tuple parens")
	}
	// remove the outermost parens only
	inner := s[1 : len(s)-1]
	parts := strings.SplitN(inner, tupDelim, 4)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid tuple parts")
	}
	return &rawTuple{Type: strings.ToLower(strings.TrimSpace(parts[0])), Parts: parts}, nil
}

func parseFloatInRange(s, name string, min, max float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse: %w", name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s invalid number", name)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s out of range", name)
	}
	return v, nil
}

// canonicalIntent maps a label to its canonical spelling, ignoring case,
// spaces and underscores ("utilities confirm" -> Utilities_Confirm).
func canonicalIntent(label string) (string, bool) {
	norm := func(s string) string {
		return strings.NewReplacer("_", "", " ", "", "-", "").Replace(strings.ToLower(s))
	}
	want := norm(label)
	if want == norm(model.IntentNone) {
		return model.IntentNone, true
	}
	for _, k := range model.KnownIntents {
		if norm(k) == want {
			return k, true
		}
	}
	return "", false
}

// ParseNLUResponse parses "(intent<||>Name<||>confidence)##...<|COMPLETE|>"
// output into a RecognizerResult. Malformed records and unknown labels are
// skipped and listed in ParsingErrors; intents come back sorted by score.
func ParseNLUResponse(content string) (resp *model.RecognizerResult, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "nlu_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("nlu parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			resp = nil
		}
	}()

	resp = &model.RecognizerResult{
		Intents: []model.Intent{},
		Source:  model.SourceLLM,
	}
	addErr := func(msg string) {
		resp.ParsingErrors = append(resp.ParsingErrors, msg)
	}

	// content length guard
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "nlu_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = truncateRunes(content, maxContentLen)
		addErr("truncated")
	}
	// honor completion delimiter if present
	if idx := strings.Index(content, endDelim); idx >= 0 {
		content = content[:idx]
	}

	scores := map[string]float64{}
	var order []string

	processed := 0
	for _, rec := range strings.Split(content, recDelim) {
		if processed >= maxRecords {
			addErr("records_capped")
			logx.Warn().
				Str("component", "nlu_parser").
				Int("max_records", maxRecords).
				Msg("record processing capped")
			break
		}
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		processed++

		rt, rerr := parseRawTuple(rec)
		if rerr != nil {
			addErr(fmt.Sprintf("bad_record: %s", safeSnippet(rec)))
			continue
		}
		if rt.Type != "intent" {
			addErr("unknown tuple type")
			continue
		}
		if len(rt.Parts) < 3 {
			addErr("intent: insufficient parts")
			continue
		}
		label := strings.TrimSpace(rt.Parts[1])
		if !utf8.ValidString(label) || label == "" {
			addErr("intent: invalid name utf8")
			continue
		}
		name, ok := canonicalIntent(label)
		if !ok {
			addErr(fmt.Sprintf("intent: unknown label %s", safeSnippet(label)))
			continue
		}
		conf, cerr := parseFloatInRange(rt.Parts[2], "intent.confidence", 0, 1)
		if cerr != nil {
			addErr("intent: invalid confidence")
			continue
		}
		prev, seen := scores[name]
		if !seen {
			order = append(order, name)
		}
		if !seen || conf > prev {
			scores[name] = conf
		}
	}

	for _, name := range order {
		resp.Intents = append(resp.Intents, model.Intent{Name: name, Score: scores[name]})
	}
	resp.SortIntents()
	return resp, nil
}

// --- helpers ---

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	return truncateRunes(s, maxErrSnippet)
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
