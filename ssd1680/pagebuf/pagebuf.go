// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pagebuf

import (
	"errors"
	"image"
	"image/color"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	// Pages is the number of 8-row pages.
	Pages = 16
	// Columns is the number of byte columns per page.
	Columns = 248
	// Width is the addressable width in pixels.
	Width = Columns
	// Height is the addressable height in pixels.
	Height = Pages * 8
	// Size is the buffer size in bytes.
	Size = Pages * Columns
)

var errSize = errors.New("pagebuf: data must be exactly 16*248 bytes")

// Buffer is the packed frame buffer.
//
// It is not safe for concurrent use.
type Buffer struct {
	pix [Pages][Columns]byte
}

// New returns a cleared buffer.
func New() *Buffer {
	return &Buffer{}
}

// Clear sets every byte to zero.
func (b *Buffer) Clear() {
	b.pix = [Pages][Columns]byte{}
}

// ClearArea clears the bits of rows [y, y+h) and columns [x, x+w).
func (b *Buffer) ClearArea(x, y, w, h int) {
	b.apply(x, y, w, h, func(p *byte, mask byte) {
		*p &^= mask
	})
}

// Reverse inverts every bit.
func (b *Buffer) Reverse() {
	for page := range b.pix {
		for col := range b.pix[page] {
			b.pix[page][col] ^= 0xFF
		}
	}
}

// ReverseArea inverts the bits of rows [y, y+h) and columns [x, x+w).
func (b *Buffer) ReverseArea(x, y, w, h int) {
	b.apply(x, y, w, h, func(p *byte, mask byte) {
		*p ^= mask
	})
}

// PlotImage blits a bitmap whose top-left corner is at (x, y) in top-down
// coordinates.
//
// The bitmap is stored in 8-row strips, strip j column i at bitmap[j*w+i],
// bit 0 being the top row of the strip. Missing bitmap bytes read as zero.
//
// Bitmaps taller than one strip are placed with the panel's page arithmetic:
// a 16 row glyph at a y multiple of 8 covers rows y+8 to y+23. Rows y to
// y+h-1 and every row a strip lands on are cleared first, so a blit
// overwrites rather than merges.
func (b *Buffer) PlotImage(x, y, w, h int, bitmap []byte) {
	if w <= 0 || h <= 0 {
		return
	}

	// The panel scans bottom-up.
	deviceY := Height - y - h

	b.ClearArea(x, deviceY, w, h)

	page, shift := pageShift(deviceY)
	strips := (h-1)/8 + 1

	// The strips land one page above the cleared rows when shift is
	// non-zero, so their footprint is cleared as well. All strips are
	// cleared before any is written since neighbours share a page.
	for j := 0; j < strips; j++ {
		m := uint(0xFF) >> (8 - min(8, h-8*j))
		for i := 0; i < w; i++ {
			b.mask(page-j, x+i, byte(m<<shift))
			b.mask(page-j-1, x+i, byte(m>>(8-shift)))
		}
	}

	for j := 0; j < strips; j++ {
		for i := 0; i < w; i++ {
			col := x + i
			if col < 0 || col >= Columns {
				continue
			}

			var v uint
			if k := j*w + i; k < len(bitmap) {
				v = uint(bitmap[k])
			}

			b.or(page-j, col, byte(v<<shift))
			b.or(page-j-1, col, byte(v>>(8-shift)))
		}
	}
}

// Byte returns the byte at (page, col), zero outside of the grid.
func (b *Buffer) Byte(page, col int) byte {
	if !inGrid(page, col) {
		return 0
	}
	return b.pix[page][col]
}

// Page returns a copy of one page, nil outside of the grid.
func (b *Buffer) Page(page int) []byte {
	if page < 0 || page >= Pages {
		return nil
	}
	out := make([]byte, Columns)
	copy(out, b.pix[page][:])
	return out
}

// Bytes returns a copy of the buffer, page-major, column-minor; the order in
// which it is streamed to the panel.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, Size)
	for page := range b.pix {
		out = append(out, b.pix[page][:]...)
	}
	return out
}

// SetBytes replaces the whole buffer with data in the Bytes order.
func (b *Buffer) SetBytes(data []byte) error {
	if len(data) != Size {
		return errSize
	}
	for page := range b.pix {
		copy(b.pix[page][:], data[page*Columns:])
	}
	return nil
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements image.Image.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}

// At implements image.Image, in top-down viewer coordinates.
func (b *Buffer) At(x, y int) color.Color {
	return b.BitAt(x, y)
}

// BitAt returns the pixel at (x, y) in top-down viewer coordinates.
func (b *Buffer) BitAt(x, y int) image1bit.Bit {
	page, mask, ok := locate(x, y)
	if !ok {
		return image1bit.Off
	}
	return image1bit.Bit(b.pix[page][x]&mask != 0)
}

// Set implements draw.Image, in top-down viewer coordinates.
func (b *Buffer) Set(x, y int, c color.Color) {
	b.SetBit(x, y, image1bit.BitModel.Convert(c).(image1bit.Bit))
}

// SetBit sets the pixel at (x, y) in top-down viewer coordinates.
func (b *Buffer) SetBit(x, y int, v image1bit.Bit) {
	page, mask, ok := locate(x, y)
	if !ok {
		return
	}
	if v {
		b.pix[page][x] |= mask
	} else {
		b.pix[page][x] &^= mask
	}
}

func (b *Buffer) apply(x, y, w, h int, op func(p *byte, mask byte)) {
	x0, x1 := max(x, 0), min(x+w, Columns)
	y0, y1 := max(y, 0), min(y+h, Height)

	for row := y0; row < y1; row++ {
		mask := byte(1) << (row % 8)
		for col := x0; col < x1; col++ {
			op(&b.pix[row/8][col], mask)
		}
	}
}

func (b *Buffer) mask(page, col int, m byte) {
	if inGrid(page, col) {
		b.pix[page][col] &^= m
	}
}

func (b *Buffer) or(page, col int, v byte) {
	if inGrid(page, col) {
		b.pix[page][col] |= v
	}
}

// pageShift splits a device row into a page and a bit offset. Integer
// division truncates toward zero, so negative rows are corrected by hand.
func pageShift(deviceY int) (page, shift int) {
	page, shift = deviceY/8, deviceY%8
	if deviceY < 0 {
		page--
		shift += 8
	}
	return page, shift
}

func inGrid(page, col int) bool {
	return page >= 0 && page < Pages && col >= 0 && col < Columns
}

func locate(x, y int) (page int, mask byte, ok bool) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return 0, 0, false
	}
	return Pages - 1 - y/8, byte(1) << (y % 8), true
}

var _ image.Image = &Buffer{}
