// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package glyph renders characters, fixed-width numbers and 16x16
// double-byte glyphs into a page-packed 1-bit frame buffer.
//
// Glyph bitmaps are stored column-major in 8-row strips: strip j, column i is
// byte j*width+i and bit 0 is the top row of the strip. Every drawing call is
// a sequence of image blits through the Blitter interface, so the renderer
// does not depend on a particular buffer.
//
// Two ASCII fonts are built in, 8x16 and 6x8. The font is selected with a
// Size, whose value is also the horizontal advance in pixels.
package glyph
