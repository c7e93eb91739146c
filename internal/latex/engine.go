// Package latex converts LaTeX math fragments to plain Unicode text by
// recursive descent over commands, groups, and script markers. It is
// deliberately strict: a command outside its tables is a conversion
// failure, so callers can fall back to a cruder approximation instead
// of showing half-translated markup.
package latex

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Engine is the semantic text backend. The zero value is ready to use.
type Engine struct{}

// NewEngine returns a converter engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Render converts one math fragment to Unicode text. It reports an
// error for the first unrecognized command and contains parser panics.
func (e *Engine) Render(fragment string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("latex: parse panic: %v", r)
		}
	}()
	p := &parser{}
	text := p.parse(fragment)
	if p.unknown != "" {
		return "", fmt.Errorf("latex: unsupported command %q", p.unknown)
	}
	return text, nil
}

// parser carries conversion state across recursive calls. unknown holds
// the first command with no table entry; output is still produced so a
// future lenient mode could use it.
type parser struct {
	unknown string
}

func (p *parser) fail(cmd string) {
	if p.unknown == "" {
		p.unknown = cmd
	}
}

var commandRe = regexp.MustCompile(`^\\([a-zA-Z]+|.)`)

// parseCommand reads a control sequence at src[i]: a backslash followed
// by a letter run, or a single-character escape.
func parseCommand(src string, i int) (cmd string, next int) {
	if m := commandRe.FindString(src[i:]); m != "" {
		return m, i + len(m)
	}
	return `\`, i + 1
}

var fracCommands = map[string]bool{
	`\frac`: true, `\dfrac`: true, `\tfrac`: true, `\cfrac`: true,
}

func (p *parser) parse(src string) string {
	var out strings.Builder
	i := 0
	for i < len(src) {
		switch c := src[i]; {
		case c == '\\':
			cmd, rest := parseCommand(src, i)
			if fracCommands[cmd] {
				// A digit directly before a fraction reads as a mixed
				// number; keep them apart.
				if s := out.String(); len(s) > 0 && s[len(s)-1] >= '0' && s[len(s)-1] <= '9' {
					out.WriteByte(' ')
				}
			}
			text, next := p.command(cmd, src, rest)
			out.WriteString(text)
			i = next
		case c == '{':
			text, next := p.block(src, i)
			out.WriteString(text)
			i = next
		case c == '^' || c == '_':
			arg, next := p.scriptArg(src, i+1)
			if c == '^' {
				out.WriteString(superscript(arg))
			} else {
				out.WriteString(subscript(arg))
			}
			i = next
		case unicode.IsSpace(rune(c)):
			text, next := collapseSpaces(src, i)
			out.WriteString(text)
			i = next
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// command dispatches one control sequence. Order matters: the symbol
// table is the hot path, argument-taking commands follow, and anything
// left marks the conversion failed.
func (p *parser) command(cmd, src string, i int) (string, int) {
	if glyph, ok := symbols[cmd]; ok {
		return glyph, i
	}
	if a, ok := accents[cmd]; ok {
		arg, next := p.block(src, i)
		return combine(arg, a), next
	}
	if _, ok := styles[cmd]; ok {
		arg, next := p.block(src, i)
		return restyle(cmd, arg), next
	}

	switch cmd {
	case `\frac`, `\dfrac`, `\tfrac`, `\cfrac`:
		numer, j := p.block(src, i)
		denom, k := p.block(src, j)
		return fraction(numer, denom), k

	case `\sqrt`:
		index, j := p.optional(src, i)
		radicand, k := p.block(src, j)
		return root(strings.TrimSpace(index), strings.TrimSpace(radicand)), k

	case `\text`, `\textrm`, `\textup`, `\textbf`, `\textit`, `\texttt`,
		`\operatorname`, `\mathop`, `\mbox`:
		arg, next := p.block(src, i)
		return arg, next

	case `\left`, `\right`:
		return p.delimiter(src, i)

	case `\binom`, `\tbinom`, `\dbinom`:
		n, j := p.block(src, i)
		k, l := p.block(src, j)
		return "C(" + n + "," + k + ")", l

	case `\not`:
		return p.negation(src, i)

	case `\boxed`:
		arg, next := p.block(src, i)
		return "[" + arg + "]", next

	case `\pmod`:
		arg, next := p.block(src, i)
		return " (mod " + arg + ")", next

	case `\overset`, `\stackrel`:
		over, j := p.block(src, i)
		base, k := p.block(src, j)
		if sup, ok := mapRunes(strings.TrimSpace(over), superscripts); ok {
			return base + sup, k
		}
		return base + "^(" + over + ")", k

	case `\underset`:
		under, j := p.block(src, i)
		base, k := p.block(src, j)
		if sub, ok := mapRunes(strings.TrimSpace(under), subscripts); ok {
			return base + sub, k
		}
		return base + "_(" + under + ")", k

	case `\overbrace`:
		arg, next := p.block(src, i)
		return combine(arg, accents[`\overline`]), next

	case `\underbrace`:
		arg, next := p.block(src, i)
		return combine(arg, accents[`\underline`]), next

	case `\xrightarrow`:
		label, next := p.block(src, i)
		if strings.TrimSpace(label) != "" {
			return "→(" + label + ")", next
		}
		return "→", next

	case `\xleftarrow`:
		label, next := p.block(src, i)
		if strings.TrimSpace(label) != "" {
			return "←(" + label + ")", next
		}
		return "←", next

	case `\phantom`, `\hphantom`, `\vphantom`:
		arg, next := p.block(src, i)
		n := utf8.RuneCountInString(arg)
		if n < 1 {
			n = 1
		}
		return strings.Repeat(" ", n), next

	case `\color`, `\textcolor`:
		_, next := p.block(src, i)
		return "", next

	case `\begin`:
		name, j := parseEnvName(src, i)
		body, k := parseEnvBody(src, j, name)
		return p.environment(name, body), k

	case `\end`:
		// Stray \end with no matching \begin; swallow the name.
		_, next := parseEnvName(src, i)
		return "", next
	}

	p.fail(cmd)
	return cmd, i
}

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

// block reads a {...} group, or a single token when no brace follows.
func (p *parser) block(src string, i int) (string, int) {
	if i >= len(src) {
		return "", i
	}
	if src[i] != '{' {
		if src[i] == '\\' {
			cmd, next := parseCommand(src, i)
			return p.command(cmd, src, next)
		}
		r, size := utf8.DecodeRuneInString(src[i:])
		return string(r), i + size
	}
	depth, j := 1, i+1
	for j < len(src) && depth > 0 {
		switch src[j] {
		case '{':
			depth++
		case '}':
			depth--
		}
		j++
	}
	inner := src[i+1 : j]
	if depth == 0 {
		inner = src[i+1 : j-1]
	}
	return p.parse(inner), j
}

// optional reads a [...] group if present.
func (p *parser) optional(src string, i int) (string, int) {
	if i >= len(src) || src[i] != '[' {
		return "", i
	}
	depth, j := 1, i+1
	for j < len(src) && depth > 0 {
		switch src[j] {
		case '[':
			depth++
		case ']':
			depth--
		}
		j++
	}
	inner := src[i+1 : j]
	if depth == 0 {
		inner = src[i+1 : j-1]
	}
	return p.parse(inner), j
}

// scriptArg reads the argument of a ^ or _ marker: a group, a command,
// or a single rune.
func (p *parser) scriptArg(src string, i int) (string, int) {
	if i >= len(src) {
		return "", i
	}
	switch src[i] {
	case '{':
		return p.block(src, i)
	case '\\':
		cmd, next := parseCommand(src, i)
		return p.command(cmd, src, next)
	}
	r, size := utf8.DecodeRuneInString(src[i:])
	return string(r), i + size
}

func collapseSpaces(src string, i int) (string, int) {
	j := i
	newline := false
	for j < len(src) && unicode.IsSpace(rune(src[j])) {
		if src[j] == '\n' {
			newline = true
		}
		j++
	}
	if newline {
		return "\n", j
	}
	return " ", j
}

// delimiter reads the token after \left or \right. A period is the
// invisible delimiter.
func (p *parser) delimiter(src string, i int) (string, int) {
	if i >= len(src) {
		return "", i
	}
	if src[i] == '\\' {
		cmd, next := parseCommand(src, i)
		if glyph, ok := symbols[cmd]; ok {
			return glyph, next
		}
		return strings.TrimPrefix(cmd, `\`), next
	}
	if src[i] == '.' {
		return "", i + 1
	}
	r, size := utf8.DecodeRuneInString(src[i:])
	return string(r), i + size
}

// negation handles \not by negating the following symbol.
func (p *parser) negation(src string, i int) (string, int) {
	if i >= len(src) {
		return "̸", i
	}
	var sym string
	var next int
	if src[i] == '\\' {
		cmd, j := parseCommand(src, i)
		sym, next = symbols[cmd], j
		if sym == "" {
			sym = strings.TrimPrefix(cmd, `\`)
		}
	} else {
		r, size := utf8.DecodeRuneInString(src[i:])
		sym, next = string(r), i+size
	}
	return negate(sym), next
}

func negate(sym string) string {
	sym = strings.TrimSpace(sym)
	if sym == "" {
		return " "
	}
	if n, ok := negations[sym]; ok {
		return n
	}
	r, size := utf8.DecodeRuneInString(sym)
	return string(r) + "̸" + sym[size:]
}

// ---------------------------------------------------------------------------
// Glyph construction
// ---------------------------------------------------------------------------

// mapRunes converts text through a script alphabet. It succeeds only
// when every rune has an entry.
func mapRunes(text string, table map[rune]rune) (string, bool) {
	if text == "" {
		return "", false
	}
	var b strings.Builder
	for _, r := range text {
		m, ok := table[r]
		if !ok {
			return "", false
		}
		b.WriteRune(m)
	}
	return b.String(), true
}

func superscript(arg string) string {
	return script(arg, superscripts, "^")
}

func subscript(arg string) string {
	return script(arg, subscripts, "_")
}

func script(arg string, table map[rune]rune, marker string) string {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return ""
	}
	if s, ok := mapRunes(arg, table); ok {
		return s
	}
	if utf8.RuneCountInString(arg) == 1 {
		return marker + arg
	}
	return marker + "(" + arg + ")"
}

// combine applies a combining accent to already-converted text.
func combine(text string, a accent) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return text
	}
	switch a.Mode {
	case firstChar:
		// Place the mark after the first visible rune, past any
		// leading spaces and marks already present.
		i := 1
		for i < len(runes) && (unicode.IsSpace(runes[i]) || isCombining(runes[i])) {
			i++
		}
		if i >= len(runes) {
			return string(runes) + string(a.Mark)
		}
		return string(runes[:i]) + string(a.Mark) + string(runes[i:])
	case allChars:
		var b strings.Builder
		for _, r := range runes {
			b.WriteRune(r)
			b.WriteRune(a.Mark)
		}
		return b.String()
	}
	return text
}

func isCombining(r rune) bool {
	return (r >= '̀' && r <= 'ͯ') ||
		(r >= '᪰' && r <= '᫿') ||
		(r >= '᷀' && r <= '᷿') ||
		(r >= '⃐' && r <= '⃿') ||
		(r >= '︠' && r <= '︯')
}

func restyle(cmd, text string) string {
	table := styles[cmd]
	if table == nil {
		return text
	}
	var b strings.Builder
	for _, r := range text {
		if styled, ok := table[r]; ok {
			b.WriteRune(styled)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func fraction(numer, denom string) string {
	n, d := strings.TrimSpace(numer), strings.TrimSpace(denom)
	if n == "" && d == "" {
		return ""
	}
	if glyph, ok := vulgarFractions[[2]string{n, d}]; ok {
		return glyph
	}
	return parenthesize(n) + "/" + parenthesize(d)
}

// parenthesize wraps text that is not a bare identifier or number, so
// linearized fractions keep their grouping.
func parenthesize(text string) string {
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && !isCombining(r) && r != '_' {
			return "(" + text + ")"
		}
	}
	return text
}

func root(index, radicand string) string {
	var radix string
	switch index {
	case "", "2":
		radix = "√"
	case "3":
		radix = "∛"
	case "4":
		radix = "∜"
	default:
		if sup, ok := mapRunes(index, superscripts); ok {
			radix = sup + "√"
		} else {
			radix = "(" + index + ")√"
		}
	}
	return radix + combine(radicand, accents[`\overline`])
}

// ---------------------------------------------------------------------------
// Environments
// ---------------------------------------------------------------------------

var matrixDelims = map[string][2]string{
	"matrix":      {"", ""},
	"smallmatrix": {"", ""},
	"pmatrix":     {"(", ")"},
	"bmatrix":     {"[", "]"},
	"Bmatrix":     {"{", "}"},
	"vmatrix":     {"|", "|"},
	"Vmatrix":     {"‖", "‖"},
}

var alignLike = map[string]bool{
	"align": true, "align*": true, "aligned": true,
	"gather": true, "gather*": true, "gathered": true,
	"equation": true, "equation*": true, "split": true,
	"multline": true, "multline*": true,
}

func parseEnvName(src string, i int) (string, int) {
	if i < len(src) && src[i] == '{' {
		if close := strings.IndexByte(src[i:], '}'); close != -1 {
			return src[i+1 : i+close], i + close + 1
		}
	}
	return "", i
}

func parseEnvBody(src string, i int, name string) (string, int) {
	end := `\end{` + name + `}`
	if at := strings.Index(src[i:], end); at != -1 {
		return src[i : i+at], i + at + len(end)
	}
	return src[i:], len(src)
}

func (p *parser) environment(name, body string) string {
	if delims, ok := matrixDelims[name]; ok {
		return p.matrix(body, delims[0], delims[1], name == "smallmatrix")
	}
	switch {
	case name == "cases":
		return p.cases(body)
	case name == "array":
		return p.array(body)
	case alignLike[name]:
		return p.align(body)
	}
	p.fail(`\begin{` + name + `}`)
	return p.parse(body)
}

func (p *parser) matrix(body, left, right string, compact bool) string {
	cellSep, rowSep := "  ", "\n"
	if compact {
		cellSep, rowSep = ", ", "; "
	}
	var rows []string
	for _, row := range strings.Split(body, `\\`) {
		row = strings.TrimSpace(row)
		if row == "" {
			continue
		}
		var cells []string
		for _, cell := range strings.Split(row, "&") {
			cells = append(cells, p.parse(strings.TrimSpace(cell)))
		}
		rows = append(rows, strings.Join(cells, cellSep))
	}
	body = strings.Join(rows, rowSep)
	return left + body + right
}

func (p *parser) cases(body string) string {
	var parts []string
	for _, row := range strings.Split(body, `\\`) {
		row = strings.TrimSpace(row)
		if row == "" {
			continue
		}
		halves := strings.SplitN(row, "&", 2)
		line := p.parse(strings.TrimSpace(halves[0]))
		if len(halves) > 1 {
			if cond := p.parse(strings.TrimSpace(halves[1])); cond != "" {
				line += ", " + cond
			}
		}
		parts = append(parts, line)
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return "⎧ " + parts[0]
	}
	lines := make([]string, len(parts))
	for i, part := range parts {
		switch i {
		case 0:
			lines[i] = "⎧ " + part
		case len(parts) - 1:
			lines[i] = "⎩ " + part
		default:
			lines[i] = "⎨ " + part
		}
	}
	return strings.Join(lines, "\n")
}

func (p *parser) align(body string) string {
	var rows []string
	for _, row := range strings.Split(body, `\\`) {
		row = strings.TrimSpace(row)
		if row == "" {
			continue
		}
		rows = append(rows, p.parse(strings.ReplaceAll(row, "&", " ")))
	}
	return strings.Join(rows, "\n")
}

// array drops the leading column-format group, then renders as a bare
// matrix.
func (p *parser) array(body string) string {
	stripped := strings.TrimSpace(body)
	if strings.HasPrefix(stripped, "{") {
		if close := strings.IndexByte(stripped, '}'); close != -1 {
			stripped = stripped[close+1:]
		}
	}
	return p.matrix(stripped, "", "", false)
}
