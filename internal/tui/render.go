package tui

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"

	"github.com/parleylabs/parley/internal/mathtex"
)

var openFenceRe = regexp.MustCompile("([^\\n])```([A-Za-z0-9_-]*)")
var numberedListRe = regexp.MustCompile(`^(\s*)(\d+)\.\s+(.+)`)
var inlineCodeRe = regexp.MustCompile("`([^`]+)`")
var boldRe = regexp.MustCompile(`\*\*(.+?)\*\*`)
var strikethroughRe = regexp.MustCompile(`~~(.+?)~~`)
var linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
var hrRe = regexp.MustCompile(`^[-*_]{3,}\s*$`)
var tableRowRe = regexp.MustCompile(`^\s*\|(.+)\|\s*$`)              // rows with outer pipes
var tableRowLooseRe = regexp.MustCompile(`^[^|]*\|[^|]*(\|[^|]*)+$`) // rows without outer pipes (2+ cells)
var tableSepRe = regexp.MustCompile(`^\s*\|?\s*:?-+:?\s*(\|\s*:?-+:?\s*)+\|?\s*$`)

var knownCodeLangs = map[string]bool{
	"python": true, "py": true, "javascript": true, "js": true, "typescript": true, "ts": true,
	"go": true, "rust": true, "java": true, "c": true, "cpp": true, "c++": true, "csharp": true,
	"cs": true, "json": true, "yaml": true, "yml": true, "bash": true, "sh": true, "shell": true,
	"sql": true, "html": true, "css": true, "xml": true, "markdown": true, "md": true,
}

// Renderer runs math conversion ahead of markdown styling. Non-math
// text reaches the markdown layer byte for byte; only matched math
// spans are substituted.
type Renderer struct {
	conv *mathtex.Converter
}

// NewRenderer wraps a math converter for terminal output.
func NewRenderer(conv *mathtex.Converter) *Renderer {
	return &Renderer{conv: conv}
}

// Block is one unit of image-mode output: either styled text lines or
// a PNG buffer with its display size hint. Image blocks carry the
// delimited source fragment as a fallback for terminals that reject
// the image write.
type Block struct {
	Lines     []string
	PNG       []byte
	Inline    bool
	WidthHint int
	Fragment  string
}

// IsImage reports whether the block carries image bytes.
func (b Block) IsImage() bool {
	return len(b.PNG) > 0
}

// RenderResponse renders a complete assistant reply: math spans are
// converted to Unicode text first, then the whole result is
// markdown-styled and prefixed with the assistant icon.
func (r *Renderer) RenderResponse(content string, width int) string {
	contentWidth := max(20, width-4)
	lines := RenderAssistantLines(r.conv.RenderText(content), contentWidth-2)
	return PrefixResponse(lines)
}

// RenderResponseBlocks renders a reply for image-capable terminals:
// math spans become PNG blocks, everything between them is
// markdown-styled text. Blocks come back in source order so the caller
// can print them sequentially.
func (r *Renderer) RenderResponseBlocks(content string, width int) []Block {
	contentWidth := max(20, width-4)
	var out []Block
	for _, mb := range r.conv.RenderBlocks(content) {
		if mb.IsImage() {
			out = append(out, Block{PNG: mb.PNG, Inline: mb.Inline, WidthHint: mb.WidthHint, Fragment: mb.Fragment})
			continue
		}
		if mb.Text == "" {
			continue
		}
		out = append(out, Block{Lines: RenderAssistantLines(mb.Text, contentWidth)})
	}
	return out
}

// RenderPlain converts math spans but applies no terminal styling.
// Used when stdout is not a TTY.
func (r *Renderer) RenderPlain(content string) string {
	return r.conv.RenderText(content)
}

// RenderStreaming renders a partial reply during streaming: textual
// math conversion only, markdown-styled, no icon prefix. The whole
// buffer is re-scanned on every call so spans that complete mid-stream
// upgrade in place.
func (r *Renderer) RenderStreaming(content string, width int) []string {
	contentWidth := max(20, width-4)
	return RenderAssistantLines(r.conv.RenderText(content), contentWidth)
}

// PrefixResponse joins styled lines under the assistant icon, matching
// the transcript layout: icon on the first line, two-space hang indent
// for the rest. Lines the model starts with "Error:" show in the error
// color.
func PrefixResponse(lines []string) string {
	if len(lines) == 0 {
		return AsstIconStyle.Render("● ")
	}
	var b strings.Builder
	first := lines[0]
	if strings.HasPrefix(first, "Error:") {
		first = ErrorLineStyle.Render(first)
	}
	b.WriteString(AsstIconStyle.Render("● ") + first)
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(line, "Error:") {
			line = ErrorLineStyle.Render(line)
		}
		b.WriteString("\n  " + line)
	}
	return b.String()
}

// WrapWords splits s into lines that fit within width, breaking at word
// boundaries. Words longer than width are hard-broken.
func WrapWords(s string, width int) []string {
	if width < 10 {
		width = 10
	}
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return []string{""}
	}
	lines := make([]string, 0, 8)
	cur := ""
	for _, word := range parts {
		next := word
		if cur != "" {
			next = cur + " " + word
		}
		if len(next) <= width {
			cur = next
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
		}
		for len(word) > width {
			lines = append(lines, word[:width])
			word = word[width:]
		}
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// RenderAssistantLines converts markdown-ish assistant text into styled,
// word-wrapped terminal lines.
func RenderAssistantLines(content string, width int) []string {
	if width < 20 {
		width = 20
	}
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = openFenceRe.ReplaceAllString(normalized, "$1\n```$2")
	rawLines := strings.Split(normalized, "\n")
	out := make([]string, 0, len(rawLines)+8)
	inCode := false
	codeLang := ""
	firstCodeLinePendingLang := false
	codeBuf := make([]string, 0, 32)

	// Table accumulation state.
	inTable := false
	var tableHeaders []string
	var tableRows [][]string

	flushTable := func() {
		if len(tableHeaders) > 0 && len(tableRows) > 0 {
			out = append(out, RenderTable(tableHeaders, tableRows, width)...)
		}
		inTable = false
		tableHeaders = nil
		tableRows = nil
	}

	for i, raw := range rawLines {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)

		// --- Code fence handling (highest priority) ---
		if strings.HasPrefix(trimmed, "```") {
			if inTable {
				flushTable()
			}
			if !inCode {
				inCode = true
				codeLang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
				firstCodeLinePendingLang = codeLang == ""
				if codeLang == "" {
					codeLang = "text"
				}
				codeBuf = codeBuf[:0]
			} else {
				out = append(out, renderHighlightedCodeBlock(codeLang, strings.Join(codeBuf, "\n"), width)...)
				inCode = false
				codeLang = ""
				firstCodeLinePendingLang = false
				codeBuf = codeBuf[:0]
			}
			continue
		}

		if inCode {
			if firstCodeLinePendingLang {
				candidate := strings.ToLower(strings.TrimSpace(trimmed))
				if knownCodeLangs[candidate] {
					codeLang = candidate
					firstCodeLinePendingLang = false
					continue
				}
				firstCodeLinePendingLang = false
			}
			codeBuf = append(codeBuf, line)
			continue
		}

		// --- Table handling ---
		isTableRow := tableRowRe.MatchString(trimmed) || tableRowLooseRe.MatchString(trimmed)

		if inTable {
			if tableSepRe.MatchString(trimmed) {
				// Skip separator line (already consumed headers).
				continue
			}
			if isTableRow {
				cells := ParseTableRow(trimmed)
				// Pad or truncate to match header count.
				for len(cells) < len(tableHeaders) {
					cells = append(cells, "")
				}
				if len(cells) > len(tableHeaders) {
					cells = cells[:len(tableHeaders)]
				}
				tableRows = append(tableRows, cells)
				continue
			}
			// Non-table line while in table. During streaming a new row
			// may be arriving incomplete (not enough pipes yet). If this
			// is the last non-empty line, skip it so it doesn't flash as
			// plain text below the table.
			if isLastNonEmptyLine(rawLines, i) {
				continue
			}
			// Otherwise the table is done -- flush and fall through.
			flushTable()
		}

		// Detect table start: current line contains pipes and next line is a separator.
		if !inTable && isTableRow {
			if i+1 < len(rawLines) && tableSepRe.MatchString(strings.TrimSpace(rawLines[i+1])) {
				inTable = true
				tableHeaders = ParseTableRow(trimmed)
				tableRows = nil
				continue
			}
			// During streaming the header may arrive before the separator.
			// If this pipe-containing line is the last non-empty line, skip
			// it so it doesn't flash as plain text. It will render properly
			// once the separator arrives on the next delta.
			if isLastNonEmptyLine(rawLines, i) {
				continue
			}
		}

		if trimmed == "" {
			out = append(out, "")
			continue
		}

		// --- Horizontal rule ---
		if hrRe.MatchString(trimmed) {
			out = append(out, HrStyle.Render(strings.Repeat("─", min(width, 40))))
			continue
		}

		// --- Blockquotes ---
		if strings.HasPrefix(trimmed, "> ") || trimmed == ">" {
			quoteText := strings.TrimPrefix(trimmed, "> ")
			quoteText = strings.TrimPrefix(quoteText, ">")
			wrapped := WrapWords(quoteText, width-4)
			for _, wl := range wrapped {
				out = append(out, BlockquoteStyle.Render("│ ")+ApplyInlineFormatting(wl))
			}
			continue
		}

		// --- Headings ---
		if strings.HasPrefix(trimmed, "### ") || strings.HasPrefix(trimmed, "## ") || strings.HasPrefix(trimmed, "# ") {
			headingText := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			for _, wl := range WrapWords(headingText, width) {
				out = append(out, HeadingStyle.Render(ApplyInlineFormatting(wl)))
			}
			continue
		}

		// --- Bullet lists (supports nesting via indentation) ---
		if indent, item, ok := ParseBulletLine(line); ok {
			indentStr := strings.Repeat(" ", indent)
			wrapped := WrapWords(item, width-2-indent)
			if len(wrapped) > 0 {
				out = append(out, indentStr+BulletStyle.Render("• ")+ApplyInlineFormatting(wrapped[0]))
				contIndent := indentStr + "  "
				for j := 1; j < len(wrapped); j++ {
					out = append(out, contIndent+ApplyInlineFormatting(wrapped[j]))
				}
			}
			continue
		}

		// --- Numbered lists (supports indentation) ---
		if match := numberedListRe.FindStringSubmatch(line); match != nil {
			leadingSpaces := len(match[1])
			indentStr := strings.Repeat(" ", leadingSpaces)
			prefix := match[2] + ". "
			item := match[3]
			wrapped := WrapWords(item, width-len(prefix)-leadingSpaces)
			if len(wrapped) > 0 {
				out = append(out, indentStr+BulletStyle.Render(prefix)+ApplyInlineFormatting(wrapped[0]))
				contIndent := indentStr + strings.Repeat(" ", len(prefix))
				for j := 1; j < len(wrapped); j++ {
					out = append(out, contIndent+ApplyInlineFormatting(wrapped[j]))
				}
			}
			continue
		}

		// --- Regular paragraph text ---
		wrapped := WrapWords(line, width)
		if len(wrapped) == 0 {
			out = append(out, "")
			continue
		}
		for _, wl := range wrapped {
			out = append(out, ApplyInlineFormatting(wl))
		}
	}

	if inCode {
		out = append(out, renderHighlightedCodeBlock(codeLang, strings.Join(codeBuf, "\n"), width)...)
	}
	if inTable {
		flushTable()
	}

	return out
}

// isLastNonEmptyLine returns true if rawLines[i] is the last line that
// contains non-whitespace content.
func isLastNonEmptyLine(rawLines []string, i int) bool {
	for j := i + 1; j < len(rawLines); j++ {
		if strings.TrimSpace(rawLines[j]) != "" {
			return false
		}
	}
	return true
}

// ParseBulletLine detects a bullet list line (-, +, or *) with optional
// leading whitespace for nesting. Returns the indent level in spaces,
// the item text, and whether it matched.
func ParseBulletLine(line string) (indent int, item string, ok bool) {
	// Count leading whitespace.
	for _, ch := range line {
		if ch == ' ' {
			indent++
		} else if ch == '\t' {
			indent += 2
		} else {
			break
		}
	}
	rest := line[indent:]
	if strings.HasPrefix(rest, "- ") || strings.HasPrefix(rest, "+ ") {
		return indent, strings.TrimSpace(rest[2:]), true
	}
	if strings.HasPrefix(rest, "* ") && !hrRe.MatchString(strings.TrimSpace(rest)) {
		return indent, strings.TrimSpace(rest[2:]), true
	}
	return 0, "", false
}

// ParseTableRow splits a pipe-delimited table row into trimmed cell strings.
func ParseTableRow(line string) []string {
	line = strings.TrimSpace(line)
	// Strip leading and trailing pipes.
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// RenderTable renders a markdown table with box-drawing characters.
func RenderTable(headers []string, rows [][]string, width int) []string {
	numCols := len(headers)
	if numCols == 0 {
		return nil
	}

	const cellPad = 2 // one space each side of cell content

	// Calculate max content width for each column.
	colWidths := make([]int, numCols)
	for i, h := range headers {
		if w := stripMarkdownWidth(h); w > colWidths[i] {
			colWidths[i] = w
		}
	}
	for _, row := range rows {
		for i := 0; i < numCols && i < len(row); i++ {
			if w := stripMarkdownWidth(row[i]); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	// Fixed overhead: numCols+1 border chars + cellPad per column.
	fixedOverhead := numCols + 1 + numCols*cellPad
	available := width - fixedOverhead
	if available < numCols {
		available = numCols
	}

	// If total content width exceeds available, shrink proportionally.
	totalContent := 0
	for _, w := range colWidths {
		totalContent += w
	}
	if totalContent > available {
		for i := range colWidths {
			colWidths[i] = max(1, colWidths[i]*available/totalContent)
		}
	}

	// Build border lines.
	borderTop := buildBorder("┌", "┬", "┐", "─", colWidths, cellPad)
	borderMid := buildBorder("├", "┼", "┤", "─", colWidths, cellPad)
	borderBot := buildBorder("└", "┴", "┘", "─", colWidths, cellPad)

	out := make([]string, 0, len(rows)+4)
	out = append(out, TableBorderStyle.Render(borderTop))

	// Header row.
	out = append(out, renderTableRow(headers, colWidths, cellPad, true))

	out = append(out, TableBorderStyle.Render(borderMid))

	// Data rows.
	for _, row := range rows {
		// Pad row to match column count.
		padded := make([]string, numCols)
		copy(padded, row)
		out = append(out, renderTableRow(padded, colWidths, cellPad, false))
	}

	out = append(out, TableBorderStyle.Render(borderBot))
	return out
}

// stripMarkdownWidth returns the visual width of text after stripping
// common inline markdown markers.
func stripMarkdownWidth(s string) int {
	s = inlineCodeRe.ReplaceAllString(s, "$1")
	s = boldRe.ReplaceAllString(s, "$1")
	s = strikethroughRe.ReplaceAllString(s, "$1")
	s = linkRe.ReplaceAllString(s, "$1 ($2)")
	return lipgloss.Width(s)
}

// buildBorder constructs a table border line using box-drawing characters.
func buildBorder(left, mid, right, horiz string, colWidths []int, cellPad int) string {
	var b strings.Builder
	b.WriteString(left)
	for i, w := range colWidths {
		b.WriteString(strings.Repeat(horiz, w+cellPad))
		if i < len(colWidths)-1 {
			b.WriteString(mid)
		}
	}
	b.WriteString(right)
	return b.String()
}

// renderTableRow renders a single row of a table.
func renderTableRow(cells []string, colWidths []int, cellPad int, isHeader bool) string {
	var b strings.Builder
	b.WriteString(TableBorderStyle.Render("│"))
	for i, w := range colWidths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}

		// Format the cell first, then measure and pad based on styled width.
		var styled string
		if isHeader {
			// Strip bold markers from headers since the style already applies bold.
			clean := boldRe.ReplaceAllString(cell, "$1")
			styled = TableHeaderStyle.Render(clean)
		} else {
			styled = ApplyInlineFormatting(cell)
		}

		styledWidth := lipgloss.Width(styled)

		// Truncate if styled content exceeds column width.
		if styledWidth > w {
			// Re-format from a truncated raw cell.
			raw := boldRe.ReplaceAllString(cell, "$1")
			raw = inlineCodeRe.ReplaceAllString(raw, "$1")
			raw = strikethroughRe.ReplaceAllString(raw, "$1")
			raw = linkRe.ReplaceAllString(raw, "$1 ($2)")
			raw = TruncateToWidth(raw, w)
			if isHeader {
				styled = TableHeaderStyle.Render(raw)
			} else {
				styled = raw
			}
			styledWidth = lipgloss.Width(styled)
		}

		padRight := w - styledWidth
		if padRight < 0 {
			padRight = 0
		}
		b.WriteString(" " + styled + strings.Repeat(" ", padRight) + " ")
		if i < len(colWidths)-1 {
			b.WriteString(TableBorderStyle.Render("│"))
		}
	}
	b.WriteString(TableBorderStyle.Render("│"))
	return b.String()
}

// TruncateToWidth truncates s to fit within maxWidth visible columns,
// handling multi-byte characters safely.
func TruncateToWidth(s string, maxWidth int) string {
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	for i := len(runes); i > 0; i-- {
		candidate := string(runes[:i])
		if lipgloss.Width(candidate) <= maxWidth {
			return candidate
		}
	}
	return ""
}

// renderHighlightedCodeBlock syntax-highlights a fenced code block using
// Chroma and prepends subtle line numbers with a gutter.
func renderHighlightedCodeBlock(lang string, code string, width int) []string {
	if width < 20 {
		width = 20
	}
	if lang == "" || lang == "text" {
		lang = "plaintext"
	}

	var highlighted bytes.Buffer
	if err := quick.Highlight(&highlighted, code, lang, "terminal256", "dracula"); err != nil {
		highlighted.Reset()
		if err := quick.Highlight(&highlighted, code, "plaintext", "terminal256", "dracula"); err != nil {
			// plaintext highlight fallback; nothing further to do
		}
	}
	hlLines := strings.Split(strings.TrimSuffix(highlighted.String(), "\n"), "\n")
	if len(hlLines) == 0 {
		hlLines = []string{""}
	}

	out := make([]string, 0, len(hlLines))
	for i, line := range hlLines {
		lineNo := CodeGutterStyle.Render(fmt.Sprintf("%3d", i+1))
		gutter := CodeGutterStyle.Render(" │ ")
		out = append(out, lineNo+gutter+line)
	}
	return out
}

// ApplyInlineFormatting handles inline markdown: `code`, [text](url),
// **bold**, *italic*, and ~~strikethrough~~.
// Should not be applied to code block lines.
func ApplyInlineFormatting(s string) string {
	// Inline code first -- protect contents from further processing.
	s = inlineCodeRe.ReplaceAllStringFunc(s, func(match string) string {
		inner := inlineCodeRe.FindStringSubmatch(match)[1]
		return InlineCodeStyle.Render(inner)
	})

	// Links: [text](url) -> text (url)
	s = linkRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := linkRe.FindStringSubmatch(match)
		return LinkTextStyle.Render(parts[1]) + LinkURLStyle.Render(" ("+parts[2]+")")
	})

	// Strikethrough: ~~text~~
	s = strikethroughRe.ReplaceAllStringFunc(s, func(match string) string {
		inner := strikethroughRe.FindStringSubmatch(match)[1]
		return StrikethroughStyle.Render(inner)
	})

	// Bold: **text** (must come before italic to avoid conflict)
	s = boldRe.ReplaceAllStringFunc(s, func(match string) string {
		inner := boldRe.FindStringSubmatch(match)[1]
		return BoldInlineStyle.Render(inner)
	})

	// Italic: *text*
	s = ApplyItalic(s)

	return s
}

// ApplyItalic handles *italic* markers that weren't consumed by bold.
// It manually scans for single * delimiters that aren't adjacent to other *s.
func ApplyItalic(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		// Skip ANSI escape sequences (from already-styled content).
		if s[i] == '\x1b' {
			j := i + 1
			for j < len(s) && s[j] != 'm' {
				j++
			}
			if j < len(s) {
				j++ // include the 'm'
			}
			b.WriteString(s[i:j])
			i = j
			continue
		}

		if s[i] != '*' {
			b.WriteByte(s[i])
			i++
			continue
		}

		// Found a *. Check it's not ** (bold already handled).
		if i+1 < len(s) && s[i+1] == '*' {
			b.WriteByte(s[i])
			i++
			continue
		}

		// Look for the closing *.
		end := strings.Index(s[i+1:], "*")
		if end < 0 {
			b.WriteByte(s[i])
			i++
			continue
		}
		end += i + 1 // absolute position of closing *

		// Make sure closing * isn't part of ** either.
		if end+1 < len(s) && s[end+1] == '*' {
			b.WriteByte(s[i])
			i++
			continue
		}

		inner := s[i+1 : end]
		if len(inner) == 0 {
			b.WriteByte(s[i])
			i++
			continue
		}

		b.WriteString(ItalicInlineStyle.Render(inner))
		i = end + 1
	}
	return b.String()
}

// RenderPanel draws content inside a rounded box with the title set
// into the top border. Lines wider than the panel are hard-wrapped;
// tabs are expanded so width math stays honest.
func RenderPanel(title, content string, width int) []string {
	if width < 24 {
		width = 24
	}
	inner := width - 4 // two border chars plus one space padding each side

	top := "╭─ "
	titleWidth := lipgloss.Width(title)
	fill := width - lipgloss.Width(top) - titleWidth - 2
	if fill < 1 {
		title = TruncateToWidth(title, titleWidth+fill-1)
		fill = 1
	}
	out := make([]string, 0, 8)
	out = append(out, PanelBorderStyle.Render(top)+PanelTitleStyle.Render(title)+PanelBorderStyle.Render(" "+strings.Repeat("─", fill)+"╮"))

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\t", "    ")
	for _, raw := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		for _, line := range hardWrap(raw, inner) {
			pad := inner - lipgloss.Width(line)
			if pad < 0 {
				pad = 0
			}
			out = append(out, PanelBorderStyle.Render("│")+" "+line+strings.Repeat(" ", pad)+" "+PanelBorderStyle.Render("│"))
		}
	}

	out = append(out, PanelBorderStyle.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	return out
}

// hardWrap splits a line into width-sized pieces without collapsing
// whitespace, so indentation in file content survives.
func hardWrap(line string, width int) []string {
	if lipgloss.Width(line) <= width {
		return []string{line}
	}
	var out []string
	for lipgloss.Width(line) > width {
		head := TruncateToWidth(line, width)
		if head == "" {
			break
		}
		out = append(out, head)
		line = line[len(head):]
	}
	return append(out, line)
}
