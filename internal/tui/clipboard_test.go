package tui

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func TestCopyToClipboard(t *testing.T) {
	var buf bytes.Buffer
	if err := CopyToClipboard(&buf, "hello clipboard"); err != nil {
		t.Fatalf("CopyToClipboard: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\x1b]52;c;") {
		t.Errorf("output should start with the OSC 52 prefix, got %q", out)
	}
	if !strings.HasSuffix(out, "\x07") {
		t.Errorf("output should end with BEL, got %q", out)
	}

	payload := strings.TrimSuffix(strings.TrimPrefix(out, "\x1b]52;c;"), "\x07")
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if string(decoded) != "hello clipboard" {
		t.Errorf("decoded = %q, want %q", decoded, "hello clipboard")
	}
}

func TestCopyToClipboard_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := CopyToClipboard(&buf, ""); err == nil {
		t.Fatal("empty text should error")
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written on error, got %q", buf.String())
	}
}
