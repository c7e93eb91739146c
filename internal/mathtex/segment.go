// Package mathtex segments chat text into prose and math-notation spans
// and converts the math spans into terminal-displayable form.
//
// Both halves are pure: Segment and Convert hold no state between
// calls, never fail, and are safe to invoke from any call site. A
// streaming caller simply re-segments its accumulated buffer on each
// update.
package mathtex

import "strings"

// DelimiterRule describes one math-notation syntax: an opening and
// closing marker pair plus its matching behavior.
type DelimiterRule struct {
	Open   string
	Close  string
	Inline bool

	// NoNewline stops the closing-marker search at the end of the
	// line, so a lone "$" in prose cannot swallow unrelated currency
	// text on later lines.
	NoNewline bool

	// EscapeCheck skips markers preceded by a backslash. Only the
	// single-dollar rule carries it; the double-dollar form does not,
	// and that asymmetry is deliberate.
	EscapeCheck bool
}

// Rules holds the four delimiter syntaxes in priority order. At each
// scan position the rule matching at the earliest offset wins; ties at
// the same offset resolve to the earliest rule in this list, which is
// why "$$" precedes "$" — adjacent dollars must never be read as two
// empty inline spans.
var Rules = []DelimiterRule{
	{Open: "$$", Close: "$$"},
	{Open: `\[`, Close: `\]`},
	{Open: `\(`, Close: `\)`, Inline: true},
	{Open: "$", Close: "$", Inline: true, NoNewline: true, EscapeCheck: true},
}

// Span kinds.
const (
	SpanText = "text"
	SpanMath = "math"
)

// Span is a contiguous typed slice of segmented input. For math spans
// Text holds the verbatim interior (delimiters stripped, whitespace
// kept) so the original input can be reconstructed exactly.
type Span struct {
	Kind   string
	Text   string
	Inline bool
	Rule   *DelimiterRule // matched rule; nil for plain text
}

// Fragment returns the math interior with surrounding whitespace
// trimmed, the form converters consume.
func (s Span) Fragment() string {
	return strings.TrimSpace(s.Text)
}

// Reconstruct returns the span as it appeared in the input, with math
// delimiters re-inserted.
func (s Span) Reconstruct() string {
	if s.Kind == SpanMath && s.Rule != nil {
		return s.Rule.Open + s.Text + s.Rule.Close
	}
	return s.Text
}

// Segment scans text for the four math-delimiter syntaxes and returns
// ordered, non-overlapping spans covering the entire input. It is
// total: malformed or unterminated delimiters degrade to plain text,
// and concatenating Reconstruct over the result always reproduces the
// input exactly.
func Segment(text string) []Span {
	var spans []Span
	pos := 0  // start of pending plain text
	from := 0 // opener search cursor
	for {
		rule, start := findOpener(text, from)
		if rule == nil {
			break
		}
		interiorStart := start + len(rule.Open)
		end := findCloser(text, interiorStart, rule)
		if end < 0 {
			// Unterminated opener: the marker itself is literal text.
			// Resume one character past it so it cannot swallow the
			// rest of the document.
			from = start + 1
			continue
		}
		if start > pos {
			spans = append(spans, Span{Kind: SpanText, Text: text[pos:start]})
		}
		spans = append(spans, Span{
			Kind:   SpanMath,
			Text:   text[interiorStart:end],
			Inline: rule.Inline,
			Rule:   rule,
		})
		pos = end + len(rule.Close)
		from = pos
	}
	if pos < len(text) {
		spans = append(spans, Span{Kind: SpanText, Text: text[pos:]})
	}
	if len(spans) == 0 {
		// Empty input still yields one (empty) plain span.
		spans = append(spans, Span{Kind: SpanText})
	}
	return spans
}

// findOpener returns the rule whose opening marker matches earliest at
// or after from, with ties resolved by rule order.
func findOpener(text string, from int) (*DelimiterRule, int) {
	best := -1
	var bestRule *DelimiterRule
	for i := range Rules {
		r := &Rules[i]
		idx := indexUnescaped(text, r.Open, from, r.EscapeCheck)
		if idx >= 0 && (best < 0 || idx < best) {
			best = idx
			bestRule = r
		}
	}
	return bestRule, best
}

// findCloser returns the index of the rule's closing marker searched
// non-greedily from from, or -1 when the span is unterminated.
func findCloser(text string, from int, r *DelimiterRule) int {
	limit := len(text)
	if r.NoNewline {
		if i := strings.IndexAny(text[from:], "\n\r"); i >= 0 {
			limit = from + i
		}
	}
	return indexUnescaped(text[:limit], r.Close, from, r.EscapeCheck)
}

// indexUnescaped finds marker in text at or after from. With
// escapeCheck set, occurrences directly preceded by a backslash are
// skipped.
func indexUnescaped(text, marker string, from int, escapeCheck bool) int {
	for from <= len(text)-len(marker) {
		idx := strings.Index(text[from:], marker)
		if idx < 0 {
			return -1
		}
		abs := from + idx
		if escapeCheck && abs > 0 && text[abs-1] == '\\' {
			from = abs + 1
			continue
		}
		return abs
	}
	return -1
}
