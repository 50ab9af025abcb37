// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pagebuf implements the packed 1-bit frame buffer of a 248x128
// SSD1680 e-paper panel.
//
// The buffer is a grid of 16 pages by 248 columns. Each cell is one byte and
// bit b of the byte at (page, column) is device row page*8+b, bit 0 being the
// first row of the page. The panel scans pages bottom-up, so a viewer's row v
// lives in page 15-v/8, bit v%8.
//
// Drawing never fails: anything that falls outside the grid is dropped.
package pagebuf
