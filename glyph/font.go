// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package glyph

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	fixedpt "golang.org/x/image/math/fixed"
)

// Size selects one of the built-in ASCII fonts. Its value is the horizontal
// advance in pixels.
type Size int

const (
	// Size8x16 selects the 8 pixels wide, 16 pixels high font.
	Size8x16 Size = 8
	// Size6x8 selects the 6 pixels wide, 8 pixels high font.
	Size6x8 Size = 6
)

func (s Size) String() string {
	switch s {
	case Size8x16:
		return "8x16"
	case Size6x8:
		return "6x8"
	default:
		return fmt.Sprintf("Size(%d)", int(s))
	}
}

// Font is an immutable table of fixed-size glyphs indexed by character code.
type Font struct {
	width  int
	height int
	first  byte
	glyphs [][]byte
}

// NewFont returns a font whose glyph i is the character first+i.
//
// Every glyph must be exactly width*((height+7)/8) bytes.
func NewFont(width, height int, first byte, glyphs [][]byte) (*Font, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("glyph: invalid font size %dx%d", width, height)
	}
	if int(first)+len(glyphs) > 256 {
		return nil, fmt.Errorf("glyph: %d glyphs starting at %#x overflow the byte range", len(glyphs), first)
	}
	size := glyphBytes(width, height)
	f := &Font{width: width, height: height, first: first, glyphs: make([][]byte, len(glyphs))}
	for i, g := range glyphs {
		if len(g) != size {
			return nil, fmt.Errorf("glyph: glyph %#x has %d bytes, want %d", int(first)+i, len(g), size)
		}
		f.glyphs[i] = append([]byte(nil), g...)
	}
	return f, nil
}

// FromFace rasterises the characters first..last of face into a font of
// width x height cells, baseline at the face's ascent.
func FromFace(face font.Face, width, height int, first, last byte) (*Font, error) {
	if last < first {
		return nil, fmt.Errorf("glyph: empty character range %#x..%#x", first, last)
	}
	ascent := face.Metrics().Ascent.Ceil()

	glyphs := make([][]byte, 0, int(last)-int(first)+1)
	for c := int(first); c <= int(last); c++ {
		glyphs = append(glyphs, rasterise(face, string(rune(c)), width, height, ascent))
	}
	return NewFont(width, height, first, glyphs)
}

// Width is the glyph width in pixels.
func (f *Font) Width() int {
	return f.width
}

// Height is the glyph height in pixels.
func (f *Font) Height() int {
	return f.height
}

// Glyph returns the bitmap of c. The returned slice must not be modified.
func (f *Font) Glyph(c byte) ([]byte, bool) {
	i := int(c) - int(f.first)
	if i < 0 || i >= len(f.glyphs) {
		return nil, false
	}
	return f.glyphs[i], true
}

func glyphBytes(width, height int) int {
	return width * ((height + 7) / 8)
}

// rasterise draws s with face and packs the result in 8-row strips.
func rasterise(face font.Face, s string, width, height, baseline int) []byte {
	dst := image.NewAlpha(image.Rect(0, 0, width, height))
	d := font.Drawer{
		Dst:  dst,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixedpt.P(0, baseline),
	}
	d.DrawString(s)
	return pack(dst, width, height)
}

func pack(img *image.Alpha, width, height int) []byte {
	out := make([]byte, glyphBytes(width, height))
	for j := 0; j*8 < height; j++ {
		for i := 0; i < width; i++ {
			var v byte
			for bit := 0; bit < 8; bit++ {
				row := j*8 + bit
				if row < height && img.AlphaAt(i, row).A >= 0x80 {
					v |= 1 << bit
				}
			}
			out[j*width+i] = v
		}
	}
	return out
}
