package tui

import (
	"encoding/base64"
	"fmt"
	"io"
)

// CopyToClipboard writes text to the system clipboard through the
// OSC 52 escape sequence, which works over SSH and inside tmux-aware
// terminals where spawning pbcopy/xclip would not.
func CopyToClipboard(w io.Writer, text string) error {
	if text == "" {
		return fmt.Errorf("nothing to copy")
	}
	enc := base64.StdEncoding.EncodeToString([]byte(text))
	_, err := fmt.Fprintf(w, "\x1b]52;c;%s\x07", enc)
	return err
}
