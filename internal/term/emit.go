package term

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// kittyChunkSize is the payload limit per graphics escape; the protocol
// caps chunks at 4096 bytes of encoded data.
const kittyChunkSize = 4096

// ErrNoImageSupport is returned when neither graphics protocol is
// available.
var ErrNoImageSupport = errors.New("terminal does not support inline images")

// WriteImage emits PNG data to w using the first protocol the terminal
// supports. widthCells scales the image to a column count; zero leaves
// sizing to the terminal.
func WriteImage(w io.Writer, caps Capabilities, png []byte, widthCells int) error {
	switch {
	case caps.Kitty:
		return writeKitty(w, png, widthCells)
	case caps.ITerm:
		return writeITerm(w, png, widthCells)
	}
	return ErrNoImageSupport
}

// writeKitty transmits with a=T (transmit and display) and f=100 (PNG),
// splitting the base64 payload into continuation chunks.
func writeKitty(w io.Writer, png []byte, widthCells int) error {
	payload := base64.StdEncoding.EncodeToString(png)

	first := true
	for len(payload) > 0 {
		n := kittyChunkSize
		if n > len(payload) {
			n = len(payload)
		}
		chunk, rest := payload[:n], payload[n:]

		var ctrl string
		switch {
		case first && rest == "":
			ctrl = kittyControl(widthCells, -1)
		case first:
			ctrl = kittyControl(widthCells, 1)
		case rest != "":
			ctrl = "m=1"
		default:
			ctrl = "m=0"
		}
		if _, err := fmt.Fprintf(w, "\x1b_G%s;%s\x1b\\", ctrl, chunk); err != nil {
			return err
		}
		first = false
		payload = rest
	}
	return nil
}

func kittyControl(widthCells, more int) string {
	ctrl := "a=T,f=100"
	if widthCells > 0 {
		ctrl += fmt.Sprintf(",c=%d", widthCells)
	}
	if more >= 0 {
		ctrl += fmt.Sprintf(",m=%d", more)
	}
	return ctrl
}

// writeITerm emits the OSC 1337 inline file sequence.
func writeITerm(w io.Writer, png []byte, widthCells int) error {
	payload := base64.StdEncoding.EncodeToString(png)
	size := fmt.Sprintf("File=inline=1;size=%d", len(png))
	if widthCells > 0 {
		size += fmt.Sprintf(";width=%d", widthCells)
	}
	_, err := fmt.Fprintf(w, "\x1b]1337;%s:%s\a", size, payload)
	return err
}
