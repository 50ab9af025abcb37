// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package glyph

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

const (
	// CellWidth is the width of a double-byte glyph in pixels.
	CellWidth = 16
	// CellHeight is the height of a double-byte glyph in pixels.
	CellHeight = 16
	// CellSize is the bitmap size of a double-byte glyph in bytes.
	CellSize = CellWidth * CellHeight / 8
	// KeyWidth is the byte length of a UTF-8 encoded CJK character.
	KeyWidth = 3
)

// ErrNoFallback is returned by NewTable when no usable fallback glyph is
// given.
var ErrNoFallback = errors.New("glyph: table has no fallback glyph")

// Cell is a single entry of a double-byte glyph table.
type Cell struct {
	// Key is the encoded character, exactly the table's key width long. An
	// empty key terminates the table.
	Key string
	// Data is the 16x16 bitmap in two 8-row strips.
	Data []byte
}

// Table maps fixed-width encoded characters to 16x16 glyphs.
//
// Characters missing from the table render with the fallback glyph.
type Table struct {
	keyWidth int
	cells    map[string][]byte
	fallback []byte
}

// NewTable builds a table from cells, up to the first cell with an empty key.
// When a key appears more than once, the first occurrence wins.
func NewTable(keyWidth int, cells []Cell, fallback []byte) (*Table, error) {
	if keyWidth <= 0 {
		return nil, fmt.Errorf("glyph: invalid key width %d", keyWidth)
	}
	if len(fallback) != CellSize {
		return nil, ErrNoFallback
	}
	t := &Table{
		keyWidth: keyWidth,
		cells:    make(map[string][]byte, len(cells)),
		fallback: append([]byte(nil), fallback...),
	}
	for _, c := range cells {
		if c.Key == "" {
			break
		}
		if len(c.Key) != keyWidth {
			return nil, fmt.Errorf("glyph: key %q is %d bytes, want %d", c.Key, len(c.Key), keyWidth)
		}
		if len(c.Data) != CellSize {
			return nil, fmt.Errorf("glyph: glyph %q has %d bytes, want %d", c.Key, len(c.Data), CellSize)
		}
		if _, ok := t.cells[c.Key]; ok {
			continue
		}
		t.cells[c.Key] = append([]byte(nil), c.Data...)
	}
	return t, nil
}

// TableFromFace rasterises every character of chars with face into a
// UTF-8 keyed table.
func TableFromFace(face font.Face, chars string, fallback []byte) (*Table, error) {
	ascent := face.Metrics().Ascent.Ceil()
	if ascent > CellHeight {
		ascent = CellHeight
	}

	var cells []Cell
	for _, r := range chars {
		if r == utf8.RuneError {
			return nil, errors.New("glyph: invalid UTF-8 in character list")
		}
		key := string(r)
		if len(key) != KeyWidth {
			return nil, fmt.Errorf("glyph: %q is not a %d byte character", key, KeyWidth)
		}
		cells = append(cells, Cell{Key: key, Data: rasterise(face, key, CellWidth, CellHeight, ascent)})
	}
	return NewTable(KeyWidth, cells, fallback)
}

// LoadTrueType parses a TrueType font and returns a face of the given pixel
// size.
func LoadTrueType(data []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("glyph: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// KeyWidth is the byte length of every key.
func (t *Table) KeyWidth() int {
	return t.keyWidth
}

// Len is the number of characters in the table.
func (t *Table) Len() int {
	return len(t.cells)
}

// Lookup returns the glyph for key, if present.
func (t *Table) Lookup(key string) ([]byte, bool) {
	g, ok := t.cells[key]
	return g, ok
}

// Glyph returns the glyph for key, or the fallback glyph.
func (t *Table) Glyph(key string) []byte {
	if g, ok := t.cells[key]; ok {
		return g
	}
	return t.fallback
}

// DefaultFallback is a boxed question mark.
var DefaultFallback = []byte{
	// Rows 0-7.
	0xFF, 0x01, 0x01, 0x01, 0x01, 0x11, 0x09, 0x09,
	0x89, 0x49, 0x31, 0x01, 0x01, 0x01, 0x01, 0xFF,
	// Rows 8-15.
	0xFF, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x8B,
	0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0xFF,
}
