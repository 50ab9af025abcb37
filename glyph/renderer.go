// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package glyph

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Blitter receives the bitmaps produced by a Renderer.
//
// x and y are the top-left corner in top-down coordinates; bitmap is laid
// out in 8-row strips as described in the package documentation.
type Blitter interface {
	PlotImage(x, y, w, h int, bitmap []byte)
}

// Opts configures a Renderer.
type Opts struct {
	// Large is used for Size8x16. It must be 8x16. Defaults to ASCII8x16.
	Large *Font
	// Small is used for Size6x8. It must be 6x8. Defaults to ASCII6x8.
	Small *Font
	// Table maps double-byte characters to glyphs. Defaults to an empty
	// UTF-8 table which draws DefaultFallback for every character.
	Table *Table
}

// Renderer draws text and numbers into a Blitter.
//
// It is not safe for concurrent use unless the Blitter is.
type Renderer struct {
	dst   Blitter
	large *Font
	small *Font
	table *Table
}

// New returns a Renderer drawing into dst.
func New(dst Blitter, opts *Opts) (*Renderer, error) {
	if dst == nil {
		return nil, errors.New("glyph: destination is required")
	}
	if opts == nil {
		opts = &Opts{}
	}
	r := &Renderer{dst: dst, large: opts.Large, small: opts.Small, table: opts.Table}
	if r.large == nil {
		r.large = ASCII8x16()
	}
	if r.small == nil {
		r.small = ASCII6x8()
	}
	if r.large.Width() != 8 || r.large.Height() != 16 {
		return nil, fmt.Errorf("glyph: large font is %dx%d, want 8x16", r.large.Width(), r.large.Height())
	}
	if r.small.Width() != 6 || r.small.Height() != 8 {
		return nil, fmt.Errorf("glyph: small font is %dx%d, want 6x8", r.small.Width(), r.small.Height())
	}
	if r.table == nil {
		t, err := NewTable(KeyWidth, nil, DefaultFallback)
		if err != nil {
			return nil, err
		}
		r.table = t
	}
	return r, nil
}

// ShowChar draws c with its top-left corner at (x, y).
//
// Characters outside of the font and unknown sizes draw nothing.
func (r *Renderer) ShowChar(x, y int, c byte, size Size) {
	f := r.font(size)
	if f == nil {
		return
	}
	g, ok := f.Glyph(c)
	if !ok {
		return
	}
	r.dst.PlotImage(x, y, f.Width(), f.Height(), g)
}

// ShowString draws s one byte per character, advancing by size.
func (r *Renderer) ShowString(x, y int, s string, size Size) {
	for i := 0; i < len(s); i++ {
		r.ShowChar(x+i*int(size), y, s[i], size)
	}
}

// ShowNum draws n as exactly length decimal digits. Leading positions are
// zero-padded and higher digits are dropped.
func (r *Renderer) ShowNum(x, y int, n uint32, length int, size Size) {
	r.showDigits(x, y, uint64(n), 10, length, size)
}

// ShowSignedNum draws a '+' or '-' sign followed by length decimal digits of
// the magnitude of n.
func (r *Renderer) ShowSignedNum(x, y int, n int32, length int, size Size) {
	mag := int64(n)
	if mag >= 0 {
		r.ShowChar(x, y, '+', size)
	} else {
		r.ShowChar(x, y, '-', size)
		mag = -mag
	}
	r.showDigits(x+int(size), y, uint64(mag), 10, length, size)
}

// ShowHexNum draws n as exactly length upper case hexadecimal digits.
func (r *Renderer) ShowHexNum(x, y int, n uint32, length int, size Size) {
	r.showDigits(x, y, uint64(n), 16, length, size)
}

// ShowBinNum draws n as exactly length binary digits.
func (r *Renderer) ShowBinNum(x, y int, n uint32, length int, size Size) {
	r.showDigits(x, y, uint64(n), 2, length, size)
}

// ShowFloatNum draws a sign, intLength integer digits, a '.' and fraLength
// fractional digits. The fraction is rounded half away from zero and a carry
// propagates into the integer part, so 3.996 with two fractional digits reads
// "+4.00".
//
// Digits beyond intLength are dropped from the left, as with ShowNum. NaN
// and infinities draw '?' in every digit position.
func (r *Renderer) ShowFloatNum(x, y int, n float64, intLength, fraLength int, size Size) {
	adv := int(size)
	dot := x + (intLength+1)*adv

	if n >= 0 || math.IsNaN(n) {
		r.ShowChar(x, y, '+', size)
	} else {
		r.ShowChar(x, y, '-', size)
		n = -n
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		r.showRepeat(x+adv, y, '?', intLength, size)
		r.ShowChar(dot, y, '.', size)
		r.showRepeat(dot+adv, y, '?', fraLength, size)
		return
	}

	in, fra := fixed(math.Abs(n), max(fraLength, 0))

	r.showText(x+adv, y, in, intLength, size)
	r.ShowChar(dot, y, '.', size)
	r.showText(dot+adv, y, fra, fraLength, size)
}

// ShowChinese draws text in 16x16 cells, one cell per KeyWidth bytes. A
// trailing partial character is ignored.
func (r *Renderer) ShowChinese(x, y int, text string) {
	kw := r.table.KeyWidth()
	for i := 0; i+kw <= len(text); i += kw {
		r.dst.PlotImage(x+(i/kw)*CellWidth, y, CellWidth, CellHeight, r.table.Glyph(text[i:i+kw]))
	}
}

// ShowImage draws an arbitrary w x h bitmap.
func (r *Renderer) ShowImage(x, y, w, h int, bitmap []byte) {
	r.dst.PlotImage(x, y, w, h, bitmap)
}

func (r *Renderer) font(size Size) *Font {
	switch size {
	case Size8x16:
		return r.large
	case Size6x8:
		return r.small
	default:
		return nil
	}
}

// showDigits draws the length least significant digits of n, most
// significant first.
func (r *Renderer) showDigits(x, y int, n, base uint64, length int, size Size) {
	for k := 0; k < length; k++ {
		d := digit(n, base, length-1-k)
		r.ShowChar(x+k*int(size), y, digitChar(d), size)
	}
}

// showText draws the last length characters of s, padded on the left with
// '0'.
func (r *Renderer) showText(x, y int, s string, length int, size Size) {
	for k := 0; k < length; k++ {
		c := byte('0')
		if i := len(s) - length + k; i >= 0 {
			c = s[i]
		}
		r.ShowChar(x+k*int(size), y, c, size)
	}
}

func (r *Renderer) showRepeat(x, y int, c byte, count int, size Size) {
	for k := 0; k < count; k++ {
		r.ShowChar(x+k*int(size), y, c, size)
	}
}

// digit returns the digit of n at position pos, 0 being the least
// significant.
func digit(n, base uint64, pos int) byte {
	for ; pos > 0 && n > 0; pos-- {
		n /= base
	}
	return byte(n % base)
}

func digitChar(d byte) byte {
	if d < 10 {
		return '0' + d
	}
	return 'A' + d - 10
}

// fixed returns the integer and fraction digits of n >= 0 rounded half away
// from zero to prec fraction digits. It works on the shortest decimal form of
// n, so there is no limit on the number of digits.
func fixed(n float64, prec int) (in, fra string) {
	mant, exp, _ := strings.Cut(strconv.FormatFloat(n, 'e', -1, 64), "e")
	e, _ := strconv.Atoi(exp)
	digits := strings.Replace(mant, ".", "", 1)

	// Digits before the decimal point.
	point := e + 1
	if point <= 0 {
		digits = strings.Repeat("0", 1-point) + digits
		point = 1
	}
	if pad := point + prec + 1 - len(digits); pad > 0 {
		digits += strings.Repeat("0", pad)
	}

	b := []byte(digits[:point+prec])
	if digits[point+prec] >= '5' {
		i := len(b) - 1
		for ; i >= 0 && b[i] == '9'; i-- {
			b[i] = '0'
		}
		if i < 0 {
			b = append([]byte{'1'}, b...)
			point++
		} else {
			b[i]++
		}
	}
	return string(b[:point]), string(b[point:])
}
