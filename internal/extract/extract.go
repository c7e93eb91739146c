// Package extract turns files and URLs into plain text for conversation
// context. PDF, DOCX and XLSX get format-aware extraction; HTML is reduced
// to its text; everything else is read verbatim with size caps.
package extract

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"
)

const (
	// maxReadBytes caps how much of a file or response body is read.
	maxReadBytes = 1024 * 1024
	// maxOutputBytes caps the extracted text handed to the conversation.
	maxOutputBytes = 50 * 1024
)

// fetchHTTPClient is overridable in tests.
var fetchHTTPClient = &http.Client{Timeout: 30 * time.Second}

// Source extracts text from a local path or an http(s) URL.
func Source(arg string) (string, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return FromURL(arg)
	}
	return FromPath(arg)
}

// FromPath extracts text from a local file based on its extension.
func FromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return pdfToText(path)
	case ".docx":
		return docxToText(path)
	case ".xlsx", ".xlsm":
		return sheetToText(path)
	default:
		return plainText(path)
	}
}

// FromURL fetches a URL and reduces HTML responses to text.
func FromURL(rawURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "parley/1.0 (chat client)")

	resp, err := fetchHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	content := string(data)
	ct := resp.Header.Get("Content-Type")
	if strings.Contains(ct, "html") || strings.HasPrefix(strings.TrimSpace(content), "<") {
		content = htmlToText(content)
	}
	return capOutput(content), nil
}

// ---------------------------------------------------------------------------
// Format-specific extractors
// ---------------------------------------------------------------------------

func pdfToText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	rd, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(rd, maxReadBytes)); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return capOutput(buf.String()), nil
}

var docxTagRe = regexp.MustCompile(`<[^>]+>`)

func docxToText(path string) (string, error) {
	d, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("opening docx: %w", err)
	}
	defer d.Close()

	// GetContent returns the raw document.xml; paragraph and break tags
	// become newlines, everything else is stripped.
	content := d.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = strings.ReplaceAll(content, "<w:br/>", "\n")
	content = strings.ReplaceAll(content, "<w:tab/>", "\t")
	content = docxTagRe.ReplaceAllString(content, "")
	content = stdhtml.UnescapeString(content)
	return capOutput(strings.TrimSpace(content)), nil
}

func sheetToText(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		fmt.Fprintf(&b, "## %s\n", sheet)
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
	}
	return capOutput(b.String()), nil
}

func plainText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxReadBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if isBinary(data) {
		return "", fmt.Errorf("%s looks like a binary file", path)
	}
	return capOutput(string(data)), nil
}

// isBinary reports whether the data contains a NUL in its first KB.
func isBinary(data []byte) bool {
	probe := data
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	return bytes.IndexByte(probe, 0) >= 0
}

func capOutput(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return s[:maxOutputBytes] + "\n... (truncated at 50KB)"
}

// ---------------------------------------------------------------------------
// HTML reduction
// ---------------------------------------------------------------------------

// htmlToText parses HTML and collects visible text, with newlines at block
// boundaries. Script, style and head subtrees are dropped.
func htmlToText(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	var b strings.Builder
	lastSpace := true
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			for _, r := range n.Data {
				if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
					if !lastSpace {
						b.WriteByte(' ')
						lastSpace = true
					}
					continue
				}
				b.WriteRune(r)
				lastSpace = false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "section", "article":
				b.WriteByte('\n')
				lastSpace = true
			}
		}
	}
	walk(doc)

	result := b.String()
	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(result)
}
