// Package raster draws math fragments into PNG images for terminals
// with inline image support.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	inlineScale = 2
	blockScale  = 3
	padding     = 2
	maxDim      = 4096
)

// Renderer rasterizes delimited math fragments onto a transparent
// canvas with a bitmap face, then pixel-scales the result.
type Renderer struct {
	face *basicfont.Face
}

// NewRenderer returns a PNG renderer.
func NewRenderer() *Renderer {
	return &Renderer{face: basicfont.Face7x13}
}

// Render draws the fragment inside canonical math delimiters and
// returns PNG bytes. Inline fragments are scaled smaller than block
// ones.
func (r *Renderer) Render(fragment string, inline bool) ([]byte, error) {
	delim := "$$"
	scale := blockScale
	if inline {
		delim = "$"
		scale = inlineScale
	}
	text := delim + fragment + delim

	lines := strings.Split(text, "\n")
	width := 0
	for _, line := range lines {
		if w := font.MeasureString(r.face, line).Ceil(); w > width {
			width = w
		}
	}
	width += 2 * padding
	height := len(lines)*r.face.Height + 2*padding
	if width*scale > maxDim || height*scale > maxDim {
		return nil, fmt.Errorf("raster: fragment too large (%dx%d px)", width*scale, height*scale)
	}

	base := image.NewRGBA(image.Rect(0, 0, width, height))
	d := font.Drawer{
		Dst:  base,
		Src:  image.NewUniform(color.White),
		Face: r.face,
	}
	for i, line := range lines {
		d.Dot = fixed.P(padding, padding+r.face.Ascent+i*r.face.Height)
		d.DrawString(line)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), base, base.Bounds(), xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("raster: encode: %w", err)
	}
	return buf.Bytes(), nil
}
