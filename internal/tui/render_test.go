package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/parleylabs/parley/internal/mathtex"
)

// stubRaster satisfies mathtex.Rasterizer for block-output tests.
type stubRaster struct {
	png []byte
	err error
}

func (s stubRaster) Render(fragment string, inline bool) ([]byte, error) {
	return s.png, s.err
}

func textRenderer() *Renderer {
	return NewRenderer(mathtex.NewConverter(mathtex.Backends{}))
}

// ---------------------------------------------------------------------------
// Math-aware renderer tests
// ---------------------------------------------------------------------------

func TestRenderer_RenderResponse_convertsMath(t *testing.T) {
	r := textRenderer()
	out := r.RenderResponse(`Let $x^{10}$ be big`, 80)

	if !strings.Contains(out, "xⁱ⁰") {
		t.Errorf("math span not converted, got %q", out)
	}
	if strings.Contains(out, "$") {
		t.Errorf("delimiters should be consumed, got %q", out)
	}
	if !strings.Contains(out, "●") {
		t.Error("response should carry the assistant icon")
	}
}

func TestRenderer_RenderResponse_keepsProse(t *testing.T) {
	r := textRenderer()
	out := r.RenderResponse("price is $5 and more", 80)
	if !strings.Contains(out, "price is $5 and more") {
		t.Errorf("unterminated dollar must stay literal, got %q", out)
	}
}

func TestRenderer_RenderStreaming_rescansWholeBuffer(t *testing.T) {
	r := textRenderer()

	// Open span: nothing to convert yet, text stays raw.
	partial := r.RenderStreaming(`value is $\alpha`, 80)
	if !strings.Contains(strings.Join(partial, "\n"), `$\alpha`) {
		t.Errorf("incomplete span should stay raw, got %v", partial)
	}

	// Same buffer once the closer arrives: span upgrades in place.
	complete := r.RenderStreaming(`value is $\alpha$`, 80)
	joined := strings.Join(complete, "\n")
	if !strings.Contains(joined, "α") {
		t.Errorf("completed span should be converted, got %v", complete)
	}
	if strings.Contains(joined, `\alpha`) {
		t.Errorf("raw fragment should be gone after completion, got %v", complete)
	}
}

func TestRenderer_RenderPlain(t *testing.T) {
	r := textRenderer()
	out := r.RenderPlain(`$\alpha$ and **bold**`)
	if !strings.Contains(out, "α") {
		t.Errorf("math should convert in plain output, got %q", out)
	}
	if !strings.Contains(out, "**bold**") {
		t.Errorf("plain output must not style markdown, got %q", out)
	}
	if strings.Contains(out, "\x1b") {
		t.Errorf("plain output must not contain escape sequences, got %q", out)
	}
}

func TestRenderer_RenderResponseBlocks_orderPreserved(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	conv := mathtex.NewConverter(mathtex.Backends{Rasterizer: stubRaster{png: png}})
	r := NewRenderer(conv)

	blocks := r.RenderResponseBlocks("before $x$ after", 80)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3: %+v", len(blocks), blocks)
	}
	if blocks[0].IsImage() || !strings.Contains(strings.Join(blocks[0].Lines, "\n"), "before") {
		t.Errorf("block 0 = %+v, want text 'before'", blocks[0])
	}
	if !blocks[1].IsImage() || !blocks[1].Inline || blocks[1].WidthHint != 50 {
		t.Errorf("block 1 = %+v, want inline image hint 50", blocks[1])
	}
	if blocks[2].IsImage() || !strings.Contains(strings.Join(blocks[2].Lines, "\n"), "after") {
		t.Errorf("block 2 = %+v, want text 'after'", blocks[2])
	}
}

func TestRenderer_RenderResponseBlocks_rasterFailureFallsBack(t *testing.T) {
	conv := mathtex.NewConverter(mathtex.Backends{Rasterizer: stubRaster{err: errors.New("no font")}})
	r := NewRenderer(conv)

	blocks := r.RenderResponseBlocks(`see $x^2$ here`, 80)
	for _, b := range blocks {
		if b.IsImage() {
			t.Fatalf("no block should be an image, got %+v", b)
		}
	}
	joined := ""
	for _, b := range blocks {
		joined += strings.Join(b.Lines, "\n") + "\n"
	}
	if !strings.Contains(joined, "$x^2$") {
		t.Errorf("failed span should show raw delimited source, got %q", joined)
	}
}

func TestPrefixResponse(t *testing.T) {
	out := PrefixResponse([]string{"first line", "second line"})
	if !strings.HasPrefix(out, AsstIconStyle.Render("● ")) {
		t.Error("output should start with the assistant icon")
	}
	if !strings.Contains(out, "\n  second line") {
		t.Errorf("continuation lines should hang-indent, got %q", out)
	}
}

func TestPrefixResponse_empty(t *testing.T) {
	out := PrefixResponse(nil)
	if !strings.Contains(out, "●") {
		t.Errorf("empty response still shows the icon, got %q", out)
	}
}

// ---------------------------------------------------------------------------
// Panel tests
// ---------------------------------------------------------------------------

func TestRenderPanel(t *testing.T) {
	lines := RenderPanel("notes.txt", "alpha\nbeta", 40)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines (border + 2 content + border), got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "╭") || !strings.Contains(lines[0], "notes.txt") {
		t.Errorf("top border should carry the title, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "alpha") {
		t.Errorf("content line missing, got %q", lines[1])
	}
	if !strings.Contains(lines[len(lines)-1], "╰") {
		t.Errorf("bottom border missing, got %q", lines[len(lines)-1])
	}
}

func TestRenderPanel_hardWrapsPreservingIndent(t *testing.T) {
	content := "    indented line that is far too long to fit inside a narrow panel"
	lines := RenderPanel("x", content, 30)
	if len(lines) < 4 {
		t.Fatalf("long line should wrap to multiple rows, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[1], "    indented") {
		t.Errorf("leading indentation should survive, got %q", lines[1])
	}
}

func TestRenderPanel_expandsTabs(t *testing.T) {
	lines := RenderPanel("x", "a\tb", 40)
	joined := strings.Join(lines, "\n")
	if strings.Contains(joined, "\t") {
		t.Errorf("tabs should be expanded, got %q", joined)
	}
}

// ---------------------------------------------------------------------------
// Table rendering tests
// ---------------------------------------------------------------------------

func TestParseTableRow(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "simple two columns",
			in:   "| Rule | Detail |",
			want: []string{"Rule", "Detail"},
		},
		{
			name: "three columns with spacing",
			in:   "|  Name  |  Age  |  City  |",
			want: []string{"Name", "Age", "City"},
		},
		{
			name: "empty cells",
			in:   "| | data | |",
			want: []string{"", "data", ""},
		},
		{
			name: "no leading pipe handled",
			in:   " col1 | col2 |",
			want: []string{"col1", "col2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTableRow(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseTableRow(%q) returned %d cells, want %d: %v", tt.in, len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("cell[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRenderTable(t *testing.T) {
	headers := []string{"Rule", "Detail"}
	rows := [][]string{
		{"def keyword", "Used to define every function"},
		{"return", "Optional"},
	}

	lines := RenderTable(headers, rows, 60)

	if len(lines) == 0 {
		t.Fatal("RenderTable returned empty output")
	}

	// Check box-drawing characters are present.
	joined := strings.Join(lines, "\n")
	for _, ch := range []string{"┌", "┐", "├", "┤", "└", "┘", "─", "│"} {
		if !strings.Contains(joined, ch) {
			t.Errorf("missing box-drawing character %q in table output", ch)
		}
	}

	// Check that header content appears.
	if !strings.Contains(joined, "Rule") {
		t.Error("header 'Rule' not found in table output")
	}
	if !strings.Contains(joined, "Detail") {
		t.Error("header 'Detail' not found in table output")
	}

	// Check data cells.
	if !strings.Contains(joined, "def keyword") {
		t.Error("cell 'def keyword' not found in table output")
	}
}

func TestRenderTable_EmptyRows(t *testing.T) {
	lines := RenderTable([]string{}, nil, 60)
	if lines != nil {
		t.Errorf("expected nil for empty headers, got %d lines", len(lines))
	}
}

func TestRenderTable_SingleColumn(t *testing.T) {
	headers := []string{"Name"}
	rows := [][]string{{"Alice"}, {"Bob"}}
	lines := RenderTable(headers, rows, 40)
	if len(lines) == 0 {
		t.Fatal("expected non-empty output")
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "Alice") || !strings.Contains(joined, "Bob") {
		t.Error("cell contents should appear")
	}
}

func TestRenderTable_WideContentShrinks(t *testing.T) {
	headers := []string{"A very long header", "Another long header"}
	rows := [][]string{{"short", "short"}}
	// Width of 30 should force column shrinking
	lines := RenderTable(headers, rows, 30)
	if len(lines) == 0 {
		t.Fatal("expected non-empty output")
	}
}

func TestRenderAssistantLines_Table(t *testing.T) {
	input := "| Name | Age |\n| --- | --- |\n| Alice | 30 |\n| Bob | 25 |"
	lines := RenderAssistantLines(input, 60)
	joined := strings.Join(lines, "\n")

	if !strings.Contains(joined, "┌") {
		t.Error("table should contain box-drawing top-left corner")
	}
	if !strings.Contains(joined, "Alice") {
		t.Error("table should contain 'Alice'")
	}
	if !strings.Contains(joined, "Bob") {
		t.Error("table should contain 'Bob'")
	}
}

func TestRenderAssistantLines_TableWithoutOuterPipes(t *testing.T) {
	// Tables where rows don't have leading/trailing pipes should still render.
	input := "Name | Age | City\n--- | --- | ---\nAlice | 30 | NYC\nBob | 25 | LA"
	lines := RenderAssistantLines(input, 60)
	joined := strings.Join(lines, "\n")

	if !strings.Contains(joined, "┌") {
		t.Error("table without outer pipes should contain box-drawing top-left corner")
	}
	if !strings.Contains(joined, "Alice") {
		t.Error("table should contain 'Alice'")
	}
	// The header row should NOT appear as plain text before the table.
	for _, line := range lines {
		if line == "Name | Age | City" {
			t.Error("header row should not appear as plain text -- it should be rendered inside the table")
		}
	}
}

func TestRenderAssistantLines_PendingTableHeaderSkipped(t *testing.T) {
	// During streaming, a table header may arrive before the separator.
	// It should be skipped (not rendered as plain text) so it doesn't flash.
	input := "Some intro text.\n\n| Name | Age |"
	lines := RenderAssistantLines(input, 60)
	joined := strings.Join(lines, "\n")

	if strings.Contains(joined, "| Name | Age |") {
		t.Error("pending table header at end of content should not appear as plain text")
	}
	if !strings.Contains(joined, "Some intro text.") {
		t.Error("text before the pending header should still render")
	}
}

// ---------------------------------------------------------------------------
// Markdown block tests
// ---------------------------------------------------------------------------

func TestRenderAssistantLines_HorizontalRule(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"triple dash", "---"},
		{"long dash", "-----"},
		{"triple asterisk", "***"},
		{"triple underscore", "___"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := RenderAssistantLines(tt.in, 60)
			if len(lines) == 0 {
				t.Fatal("expected at least one line")
			}
			if !strings.Contains(lines[0], "─") {
				t.Errorf("horizontal rule should render as a line, got %q", lines[0])
			}
		})
	}
}

func TestRenderAssistantLines_CodeBlock(t *testing.T) {
	input := "```go\nfmt.Println(\"hi\")\n```"
	lines := RenderAssistantLines(input, 60)
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "Println") {
		t.Error("code content should be preserved")
	}
	if !strings.Contains(joined, "│") {
		t.Error("code block should carry the gutter")
	}
	if !strings.Contains(joined, "1") {
		t.Error("code block should carry line numbers")
	}
}

func TestRenderAssistantLines_NestedBullets(t *testing.T) {
	input := "- top level\n  - nested item\n    - deep nested"
	lines := RenderAssistantLines(input, 60)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}
	// First line should have no leading indent.
	if strings.HasPrefix(lines[0], " ") {
		t.Error("top-level bullet should not be indented")
	}
	// Second line should have some indent.
	if !strings.HasPrefix(lines[1], "  ") {
		t.Error("nested bullet should be indented")
	}
}

func TestRenderAssistantLines_Blockquote(t *testing.T) {
	input := "> This is a quote"
	lines := RenderAssistantLines(input, 60)
	if len(lines) == 0 {
		t.Fatal("expected at least one line for blockquote")
	}
	if !strings.Contains(lines[0], "│") {
		t.Errorf("blockquote should contain gutter, got: %q", lines[0])
	}
	if !strings.Contains(lines[0], "This is a quote") {
		t.Error("blockquote content should be preserved")
	}
}

func TestRenderAssistantLines_NumberedListIndented(t *testing.T) {
	input := "  1. indented item"
	lines := RenderAssistantLines(input, 60)
	if len(lines) == 0 {
		t.Fatal("expected at least one line")
	}
	if !strings.HasPrefix(lines[0], "  ") {
		t.Error("indented numbered item should preserve indentation")
	}
}

// ---------------------------------------------------------------------------
// Inline formatting tests
// ---------------------------------------------------------------------------

func TestApplyInlineFormatting_InlineCode(t *testing.T) {
	result := ApplyInlineFormatting("use `fmt.Println` here")
	if strings.Contains(result, "`") {
		t.Error("backticks should be removed from inline code")
	}
	if !strings.Contains(result, "fmt.Println") {
		t.Error("inline code content should be preserved")
	}
}

func TestApplyInlineFormatting_Bold(t *testing.T) {
	result := ApplyInlineFormatting("this is **bold** text")
	if strings.Contains(result, "**") {
		t.Error("bold markers should be removed")
	}
	if !strings.Contains(result, "bold") {
		t.Error("bold content should be preserved")
	}
}

func TestApplyInlineFormatting_Strikethrough(t *testing.T) {
	result := ApplyInlineFormatting("this is ~~removed~~ text")
	if strings.Contains(result, "~~") {
		t.Error("strikethrough markers should be removed")
	}
	if !strings.Contains(result, "removed") {
		t.Error("strikethrough content should be preserved")
	}
}

func TestApplyInlineFormatting_Link(t *testing.T) {
	result := ApplyInlineFormatting("see [docs](https://example.com) for info")
	if strings.Contains(result, "[docs]") {
		t.Error("link markdown should be transformed")
	}
	if !strings.Contains(result, "docs") {
		t.Error("link text should be preserved")
	}
	if !strings.Contains(result, "https://example.com") {
		t.Error("link URL should be preserved")
	}
}

func TestApplyInlineFormatting_Italic(t *testing.T) {
	result := ApplyInlineFormatting("this is *italic* text")
	// The * markers should be consumed.
	if !strings.Contains(result, "italic") {
		t.Error("italic content should be preserved")
	}
}

func TestApplyInlineFormatting_CodeProtectsBold(t *testing.T) {
	result := ApplyInlineFormatting("use `**kwargs**` in Python")
	// The **kwargs** inside backticks should NOT be treated as bold.
	if !strings.Contains(result, "kwargs") {
		t.Error("inline code content should be preserved")
	}
}

// ---------------------------------------------------------------------------
// Parsing helpers
// ---------------------------------------------------------------------------

func TestParseBulletLine(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantIndent int
		wantItem   string
		wantOK     bool
	}{
		{"top-level dash", "- item", 0, "item", true},
		{"indented dash", "  - sub item", 2, "sub item", true},
		{"deeply indented", "    - deep", 4, "deep", true},
		{"plus marker", "+ item", 0, "item", true},
		{"asterisk marker", "* item", 0, "item", true},
		{"not a bullet", "regular text", 0, "", false},
		{"horizontal rule not bullet", "***", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indent, item, ok := ParseBulletLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if indent != tt.wantIndent {
				t.Errorf("indent = %d, want %d", indent, tt.wantIndent)
			}
			if item != tt.wantItem {
				t.Errorf("item = %q, want %q", item, tt.wantItem)
			}
		})
	}
}

func TestTruncateToWidth(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"ascii fits", "hello", 10, "hello"},
		{"ascii truncated", "hello world", 5, "hello"},
		{"empty string", "", 5, ""},
		{"unicode em dash", "a—b", 3, "a—b"},
		{"unicode truncated", "a—b—c", 3, "a—b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateToWidth(tt.in, tt.width)
			if got != tt.want {
				t.Errorf("TruncateToWidth(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrapWords(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		width     int
		wantLines int
	}{
		{"empty", "", 40, 1},
		{"fits in one line", "hello world", 40, 1},
		{"wraps at word boundary", "hello world foo bar", 11, 2},
		{"long word hard breaks", strings.Repeat("x", 25), 10, 3},
		{"width below min uses 10", "hello world", 5, 2}, // "hello world" is 11 chars > min width 10
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapWords(tt.input, tt.width)
			if len(got) != tt.wantLines {
				t.Errorf("WrapWords(%q, %d) = %d lines, want %d: %v", tt.input, tt.width, len(got), tt.wantLines, got)
			}
		})
	}
}

func TestIsLastNonEmptyLine(t *testing.T) {
	lines := []string{"hello", "world", "", ""}
	if isLastNonEmptyLine(lines, 0) {
		t.Error("line 0 is not the last non-empty line")
	}
	if !isLastNonEmptyLine(lines, 1) {
		t.Error("line 1 should be the last non-empty line")
	}
}
