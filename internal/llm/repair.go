package llm

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/titanous/json5"
)

// Repairer turns near-JSON model output into parseable JSON through an
// ordered tier pipeline. The first tier whose output parses wins; if every
// tier fails the output is declared irreparable.
type Repairer struct {
	tiers []repairTier
}

type repairTier struct {
	name string
	run  func(string) ([]byte, error)
}

func NewRepairer() *Repairer {
	return &Repairer{tiers: []repairTier{
		{"direct", func(s string) ([]byte, error) {
			return attemptParse(s)
		}},
		{"sanitize", func(s string) ([]byte, error) {
			return attemptParse(sanitizeAlmostJSON(s))
		}},
		{"json5", func(s string) ([]byte, error) {
			var v any
			if err := json5.Unmarshal([]byte(sanitizeAlmostJSON(s)), &v); err != nil {
				return nil, err
			}
			return json.Marshal(v)
		}},
		{"jsonrepair", func(s string) ([]byte, error) {
			repaired, err := jsonrepair.JSONRepair(sanitizeAlmostJSON(s))
			if err != nil {
				return nil, err
			}
			return attemptParse(repaired)
		}},
		{"bracket-sweep", func(s string) ([]byte, error) {
			return attemptParse(bracketSweepRe.ReplaceAllString(sanitizeAlmostJSON(s), "}, {"))
		}},
	}}
}

// Repair runs the tier pipeline over raw model output and returns valid
// JSON bytes, or an IrreparableOutputError once every tier has failed.
func (r *Repairer) Repair(raw string) ([]byte, error) {
	sliced := sliceLikelyJSON(stripCodeFences(raw))

	var lastErr error
	for _, tier := range r.tiers {
		data, err := tier.run(sliced)
		if err == nil {
			if tier.name != "direct" {
				log.Printf("[repair] Recovered output at tier %q (%d bytes)", tier.name, len(data))
			}
			return data, nil
		}
		lastErr = fmt.Errorf("tier %s: %w", tier.name, err)
	}

	log.Printf("[repair] ❌ Output irreparable after %d tiers. Head:\n%s", len(r.tiers), truncate(raw, 400))
	return nil, newIrreparableError(raw, lastErr)
}

// attemptParse checks that s is structurally valid JSON, logging a window
// around the failure position when the error is position-indexed.
func attemptParse(s string) ([]byte, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		if syn, ok := err.(*json.SyntaxError); ok {
			logParseWindow(s, int(syn.Offset))
		}
		return nil, err
	}
	return []byte(s), nil
}

const parseWindowSpan = 160

func logParseWindow(raw string, pos int) {
	start := pos - parseWindowSpan
	if start < 0 {
		start = 0
	}
	end := pos + parseWindowSpan
	if end > len(raw) {
		end = len(raw)
	}
	log.Printf("[repair] ✂️ JSON window (%d..%d):\n%s", start, end, raw[start:end])
}

var codeFenceRe = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

func stripCodeFences(s string) string {
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// sliceLikelyJSON trims the text to the span from the first { or [ to the
// last } or ].
func sliceLikelyJSON(s string) string {
	first := -1
	for _, c := range []string{"{", "["} {
		if i := strings.Index(s, c); i >= 0 && (first < 0 || i < first) {
			first = i
		}
	}
	if first < 0 {
		return s
	}

	last := strings.LastIndex(s, "}")
	if i := strings.LastIndex(s, "]"); i > last {
		last = i
	}
	if last > first {
		return s[first : last+1]
	}
	return s
}

var (
	smartDoubleRe   = regexp.MustCompile("[“”]")
	smartSingleRe   = regexp.MustCompile("[‘’]")
	trailingCommaRe = regexp.MustCompile(`,(\s*[\]}])`)
	adjacentObjRe   = regexp.MustCompile(`}\s*{`)
	doubleCloseRe   = regexp.MustCompile(`}\s*},`)
	closeOpenRe     = regexp.MustCompile(`}\s*}\s*{`)
	controlCharRe   = regexp.MustCompile("[\\x00-\\x1f\\x7f-\\x9f]")

	// An array element erroneously closed with ] instead of } before the
	// next object. Website values are the most common occurrence, then any
	// string pair, then bare literals.
	websiteBracketRe = regexp.MustCompile(`("website"\s*:\s*"[^"]*")\s*\]\s*,\s*\{`)
	stringBracketRe  = regexp.MustCompile(`("[^"]*"\s*:\s*"[^"]*")\s*\]\s*,\s*\{`)
	literalBracketRe = regexp.MustCompile(`("[^"]+"\s*:\s*(?:true|false|null|-?\d+(?:\.\d+)?))\s*\]\s*,\s*\{`)

	unquotedKeyRe    = regexp.MustCompile(`([{,\[\s]\s*)([a-zA-Z_$][a-zA-Z0-9_$]*)\s*:`)
	leadingKeyRe     = regexp.MustCompile(`^(\s*)([a-zA-Z_$][a-zA-Z0-9_$]*)\s*:`)
	singleQuoteKeyRe = regexp.MustCompile(`'([^']*)'(\s*):`)

	// Incomplete trailing pairs produced by truncation.
	truncObjRe  = regexp.MustCompile(`,"[^"]*":\{"[^"}]*$`)
	truncStrRe  = regexp.MustCompile(`,"[^"]*":"[^"]*$`)
	truncArrRe  = regexp.MustCompile(`,"[^"]*":\[[^\]]*$`)
	truncBareRe = regexp.MustCompile(`,"[^"]*":$`)

	bracketSweepRe = regexp.MustCompile(`\]\s*,\s*\{`)
)

// sanitizeAlmostJSON applies the heuristic fixes for the defects the model
// actually produces: smart quotes, trailing commas, missing commas between
// objects, the "],{" mis-close, unquoted keys, truncated tails, and
// unbalanced closers.
func sanitizeAlmostJSON(text string) string {
	s := strings.TrimSpace(text)
	s = sliceLikelyJSON(stripCodeFences(s))

	s = smartDoubleRe.ReplaceAllString(s, `"`)
	s = smartSingleRe.ReplaceAllString(s, "'")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = adjacentObjRe.ReplaceAllString(s, "},{")
	s = doubleCloseRe.ReplaceAllString(s, "},")
	s = closeOpenRe.ReplaceAllString(s, "},{")
	s = controlCharRe.ReplaceAllString(s, "")

	s = websiteBracketRe.ReplaceAllString(s, "$1}, {")
	s = stringBracketRe.ReplaceAllString(s, "$1}, {")
	s = literalBracketRe.ReplaceAllString(s, "$1}, {")

	s = unquotedKeyRe.ReplaceAllString(s, `$1"$2":`)
	s = leadingKeyRe.ReplaceAllString(s, `$1"$2":`)
	s = singleQuoteKeyRe.ReplaceAllString(s, `"$1"$2:`)

	s = trailingCommaRe.ReplaceAllString(s, "$1")

	s = truncObjRe.ReplaceAllString(s, "")
	s = truncStrRe.ReplaceAllString(s, "")
	s = truncArrRe.ReplaceAllString(s, "")
	s = truncBareRe.ReplaceAllString(s, "")

	// Balance unmatched openers by appending closers.
	openBraces := strings.Count(s, "{") - strings.Count(s, "}")
	openBrackets := strings.Count(s, "[") - strings.Count(s, "]")
	for i := 0; i < openBraces; i++ {
		s += "}"
	}
	for i := 0; i < openBrackets; i++ {
		s += "]"
	}

	return strings.TrimSpace(s)
}
