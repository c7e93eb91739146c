package mathtex

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Mode selects the converter output form.
type Mode int

const (
	ModeText Mode = iota
	ModeImage
)

// ResultKind tags a ConversionResult.
type ResultKind int

const (
	ResultText ResultKind = iota
	ResultImage
	ResultFailed
)

// ConversionResult is the outcome of converting one math fragment.
// Exactly one of Text or PNG is populated, per Kind; Failed results
// carry neither and the caller falls back to the raw delimited
// fragment.
type ConversionResult struct {
	Kind      ResultKind
	Text      string
	PNG       []byte
	WidthHint int // display width in terminal columns, image results only
}

// TextEngine is the tier-1 capability: a semantic LaTeX-to-text
// converter whose output is used verbatim on success.
type TextEngine interface {
	Render(fragment string) (string, error)
}

// SymbolicEngine is the tier-3 capability: parse the fragment as a
// mathematical expression and pretty-print it.
type SymbolicEngine interface {
	Pretty(fragment string) (string, error)
}

// Rasterizer is the image-mode capability: render a delimited fragment
// to PNG bytes sized by the inline flag.
type Rasterizer interface {
	Render(fragment string, inline bool) ([]byte, error)
}

// Backends is the optional-capability registry consulted by the
// conversion cascade. Nil fields are absent capabilities. Resolve once
// at startup and pass to NewConverter; the cascade degrades through
// missing tiers silently.
type Backends struct {
	TextEngine TextEngine
	Symbolic   SymbolicEngine
	Rasterizer Rasterizer
}

// Converter turns math fragments into display text or images. It is
// stateless apart from the backend registry and safe for concurrent
// use.
type Converter struct {
	backends Backends
}

// NewConverter builds a converter over the given capability registry.
func NewConverter(b Backends) *Converter {
	return &Converter{backends: b}
}

// CanRasterize reports whether an image backend is present.
func (c *Converter) CanRasterize() bool {
	return c.backends.Rasterizer != nil
}

// Display width hints reported with image results.
const (
	inlineWidthHint = 50
	blockWidthHint  = 80
)

// symbolicRatio is the acceptance threshold for tier 3: the
// pretty-printed form must be strictly longer than this multiple of
// the table-based result, or the table result is kept. A degenerate
// one-token echo from the symbolic engine is technically valid but
// worse than the glyph approximation.
const symbolicRatio = 1.2

// Convert produces a display form for one math fragment. It is total:
// the worst textual outcome is the original fragment restored inside
// its delimiters, and the worst image outcome is Failed.
func (c *Converter) Convert(fragment string, mode Mode, inline bool) ConversionResult {
	if mode == ModeImage {
		return c.convertImage(fragment, inline)
	}
	return c.convertText(fragment, inline)
}

func (c *Converter) convertText(fragment string, inline bool) ConversionResult {
	if c.backends.TextEngine != nil {
		if out, err := safeRender(c.backends.TextEngine, fragment); err == nil {
			return ConversionResult{Kind: ResultText, Text: out}
		}
	}

	out := glyphReplace(fragment)

	if c.backends.Symbolic != nil {
		if pretty, err := safePretty(c.backends.Symbolic, fragment); err == nil {
			if float64(utf8.RuneCountInString(pretty)) > float64(utf8.RuneCountInString(out))*symbolicRatio {
				out = pretty
			}
		}
	}

	if strings.TrimSpace(out) == "" && strings.TrimSpace(fragment) != "" {
		// Nothing survived the cascade: restore the source rather than
		// losing information.
		return ConversionResult{Kind: ResultText, Text: Delimit(fragment, inline)}
	}
	return ConversionResult{Kind: ResultText, Text: out}
}

func (c *Converter) convertImage(fragment string, inline bool) ConversionResult {
	if c.backends.Rasterizer == nil {
		return ConversionResult{Kind: ResultFailed}
	}
	png, err := safeRaster(c.backends.Rasterizer, fragment, inline)
	if err != nil || len(png) == 0 {
		return ConversionResult{Kind: ResultFailed}
	}
	hint := blockWidthHint
	if inline {
		hint = inlineWidthHint
	}
	return ConversionResult{Kind: ResultImage, PNG: png, WidthHint: hint}
}

// Delimit wraps a fragment in canonical math delimiters: $...$ inline,
// $$...$$ block.
func Delimit(fragment string, inline bool) string {
	if inline {
		return "$" + fragment + "$"
	}
	return "$$" + fragment + "$$"
}

// ---------------------------------------------------------------------------
// Tier 2: glyph table + rewrite rules
// ---------------------------------------------------------------------------

var (
	fracRe      = regexp.MustCompile(`\\frac\{([^}]+)\}\{([^}]+)\}`)
	supBracedRe = regexp.MustCompile(`\^ *\{ *(\d+) *\}`)
	subBracedRe = regexp.MustCompile(`_ *\{ *(\d+) *\}`)
	supPlainRe  = regexp.MustCompile(`\^ *(\d+)`)
	subPlainRe  = regexp.MustCompile(`_ *(\d+)`)
)

// glyphReplace is the table-and-rewrite tier: trim brace clutter,
// substitute command glyphs in table order, rewrite fractions, then
// digit super/subscripts.
func glyphReplace(fragment string) string {
	result := strings.Trim(fragment, " {}")

	for _, g := range greekGlyphs {
		result = strings.ReplaceAll(result, g.Cmd, g.Glyph)
	}
	for _, g := range symbolGlyphs {
		result = strings.ReplaceAll(result, g.Cmd, g.Glyph)
	}

	result = fracRe.ReplaceAllString(result, "$1/$2")

	result = supBracedRe.ReplaceAllStringFunc(result, func(m string) string {
		return scriptDigits(m, 0x2070)
	})
	result = subBracedRe.ReplaceAllStringFunc(result, func(m string) string {
		return scriptDigits(m, 0x2080)
	})
	result = supPlainRe.ReplaceAllStringFunc(result, func(m string) string {
		return scriptDigits(m, 0x2070)
	})
	result = subPlainRe.ReplaceAllStringFunc(result, func(m string) string {
		return scriptDigits(m, 0x2080)
	})

	// Precomposed forms, for the cases the digit rules did not consume.
	result = strings.ReplaceAll(result, "^2", "²")
	result = strings.ReplaceAll(result, "^3", "³")
	result = strings.ReplaceAll(result, "^-1", "⁻¹")

	return result
}

// scriptDigits converts every digit in m to base+digit, dropping the
// marker, spaces, and braces that came along with the match. The base
// offset is applied uniformly (superscript base U+2070, subscript base
// U+2080), matching the established digit-by-digit formula.
func scriptDigits(m string, base rune) string {
	var b strings.Builder
	for _, r := range m {
		if r >= '0' && r <= '9' {
			b.WriteRune(base + r - '0')
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Whole-text helpers
// ---------------------------------------------------------------------------

// RenderText replaces every math span in text with its textual
// conversion. Every non-math character passes through untouched, in
// order.
func (c *Converter) RenderText(text string) string {
	var b strings.Builder
	for _, s := range Segment(text) {
		if s.Kind == SpanMath {
			b.WriteString(c.Convert(s.Fragment(), ModeText, s.Inline).Text)
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// Block is one unit of image-mode output: plain text, or a rendered
// math image with its size hint. Image blocks keep the delimited source
// fragment so a display-sink failure can still print something.
type Block struct {
	Text      string
	PNG       []byte
	Inline    bool
	WidthHint int
	Fragment  string
}

// IsImage reports whether the block carries image bytes.
func (b Block) IsImage() bool {
	return len(b.PNG) > 0
}

// RenderBlocks segments text and converts math spans to images,
// returning ordered display blocks. Spans the rasterizer cannot render
// come back as delimited plain text, so no content is ever dropped.
func (c *Converter) RenderBlocks(text string) []Block {
	var blocks []Block
	for _, s := range Segment(text) {
		if s.Kind != SpanMath {
			blocks = append(blocks, Block{Text: s.Text})
			continue
		}
		res := c.Convert(s.Fragment(), ModeImage, s.Inline)
		if res.Kind == ResultImage {
			blocks = append(blocks, Block{
				PNG:       res.PNG,
				Inline:    s.Inline,
				WidthHint: res.WidthHint,
				Fragment:  Delimit(s.Fragment(), s.Inline),
			})
		} else {
			blocks = append(blocks, Block{Text: Delimit(s.Fragment(), s.Inline)})
		}
	}
	return blocks
}

// ---------------------------------------------------------------------------
// Backend guards
// ---------------------------------------------------------------------------

// A panicking backend must read as an unavailable tier, never as a
// converter failure.

func safeRender(e TextEngine, fragment string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text engine panic: %v", r)
		}
	}()
	return e.Render(fragment)
}

func safePretty(e SymbolicEngine, fragment string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("symbolic engine panic: %v", r)
		}
	}()
	return e.Pretty(fragment)
}

func safeRaster(r Rasterizer, fragment string, inline bool) (png []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("rasterizer panic: %v", rec)
		}
	}()
	return r.Render(fragment, inline)
}
