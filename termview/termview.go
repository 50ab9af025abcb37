// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termview implements a 1-bit display.Drawer that outputs to a
// terminal, using ANSI colors when the output is one and plain characters
// otherwise.
//
// Useful to preview an e-paper layout without the panel, or in tests.
package termview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Mode selects how pixels are written.
type Mode int

const (
	// Auto uses ANSI when the writer is a terminal and Plain otherwise.
	Auto Mode = iota
	// ANSI writes one colored block per pixel.
	ANSI
	// Plain writes '#' for ink and '.' for paper.
	Plain
)

// Opts represents the options available for this display.
type Opts struct {
	// Width and Height default to the 248x128 panel.
	Width  int
	Height int
	// W defaults to stdout.
	W       io.Writer
	Mode    Mode
	Palette *ansi256.Palette
	// Ink and Paper default to black on white.
	Ink   color.NRGBA
	Paper color.NRGBA

	_ struct{}
}

// Dev is a 1-bit panel emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	mode    Mode
	palette ansi256.Palette
	ink     string
	paper   string

	img   *image1bit.VerticalLSB
	buf   bytes.Buffer
	drawn bool
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = 248
	}
	if h <= 0 {
		h = 128
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	ink, paper := opts.Ink, opts.Paper
	if ink == (color.NRGBA{}) && paper == (color.NRGBA{}) {
		ink = color.NRGBA{0, 0, 0, 255}
		paper = color.NRGBA{255, 255, 255, 255}
	}

	d := &Dev{
		w:       opts.W,
		mode:    opts.Mode,
		palette: *p,
		img:     image1bit.NewVerticalLSB(image.Rect(0, 0, w, h)),
	}
	if d.w == nil {
		d.w = colorable.NewColorableStdout()
		if d.mode == Auto {
			d.mode = Plain
			if isTerminal(os.Stdout) {
				d.mode = ANSI
			}
		}
	}
	if d.mode == Auto {
		d.mode = Plain
		if f, ok := d.w.(*os.File); ok && isTerminal(f) {
			d.mode = ANSI
		}
	}
	d.ink = d.palette.Block(ink)
	d.paper = d.palette.Block(paper)
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("TermView{%dx%d}", d.img.Rect.Dx(), d.img.Rect.Dy())
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so it is not corrupted.
func (d *Dev) Halt() error {
	if d.mode != ANSI {
		return nil
	}
	_, err := io.WriteString(d.w, "\033[0m")
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.img.Rect
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	dst := r.Intersect(d.img.Rect)
	sp = sp.Add(dst.Min.Sub(r.Min))
	draw.Src.Draw(d.img, dst, src, sp)
	return d.refresh()
}

// Show draws img over the whole display.
func (d *Dev) Show(img image.Image) error {
	return d.Draw(d.img.Rect, img, img.Bounds().Min)
}

func (d *Dev) refresh() error {
	b := d.img.Rect
	d.buf.Reset()
	if d.mode == ANSI && d.drawn {
		// Redraw in place.
		fmt.Fprintf(&d.buf, "\033[%dA", b.Dy())
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		if d.mode == ANSI {
			_, _ = d.buf.WriteString("\r\033[0m")
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			on := bool(d.img.BitAt(x, y))
			switch {
			case d.mode == ANSI && on:
				_, _ = d.buf.WriteString(d.ink)
			case d.mode == ANSI:
				_, _ = d.buf.WriteString(d.paper)
			case on:
				_ = d.buf.WriteByte('#')
			default:
				_ = d.buf.WriteByte('.')
			}
		}
		if d.mode == ANSI {
			_, _ = d.buf.WriteString("\033[0m")
		}
		_ = d.buf.WriteByte('\n')
	}
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
