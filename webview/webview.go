// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/GermanBionicSystems/epaper/ssd1680/pagebuf"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Opts configures a Dev.
type Opts struct {
	// Width and Height of the mirrored frame in pixels. Zero selects the
	// panel size.
	Width, Height int
	// Scale magnifies each pixel into a Scale x Scale square. Defaults to 2.
	Scale int
	// Ink and Paper are the colors of set and cleared pixels. Black on white
	// when both are zero.
	Ink, Paper color.Gray
	// Keepalive resends the current frame when nothing was drawn for that
	// long. Zero disables it.
	Keepalive time.Duration

	// Logger receives request logs. Disabled when nil.
	Logger *zerolog.Logger
	// Clock drives Keepalive. The real clock is used when nil.
	Clock clockwork.Clock
}

// Dev is a display.Drawer whose frames are served over HTTP.
type Dev struct {
	scale     int
	bounds    image.Rectangle
	ink       color.Gray
	paper     color.Gray
	keepalive time.Duration
	log       zerolog.Logger
	clock     clockwork.Clock

	mu       sync.Mutex
	img      *image.Gray
	clients  map[*client]struct{}
	snapshot []byte
}

// New returns a Dev showing a blank frame. opts may be nil.
func New(opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	w, h := opts.Width, opts.Height
	if w == 0 {
		w = pagebuf.Width
	}
	if h == 0 {
		h = pagebuf.Height
	}
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("webview: invalid size %dx%d", w, h)
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 2
	}
	if scale < 0 {
		return nil, fmt.Errorf("webview: invalid scale %d", scale)
	}
	d := &Dev{
		scale:     scale,
		bounds:    image.Rect(0, 0, w, h),
		ink:       opts.Ink,
		paper:     opts.Paper,
		keepalive: opts.Keepalive,
		log:       zerolog.Nop(),
		clock:     opts.Clock,
		img:       image.NewGray(image.Rect(0, 0, w*scale, h*scale)),
		clients:   map[*client]struct{}{},
	}
	if d.ink == d.paper {
		d.ink, d.paper = color.Gray{Y: 0}, color.Gray{Y: 0xFF}
	}
	if opts.Logger != nil {
		d.log = *opts.Logger
	}
	if d.clock == nil {
		d.clock = clockwork.NewRealClock()
	}
	for i := range d.img.Pix {
		d.img.Pix[i] = d.paper.Y
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("WebView{%dx%d}", d.bounds.Dx(), d.bounds.Dy())
}

// Halt implements conn.Resource. It ends every running stream.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := range d.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
	return nil
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.bounds
}

// Draw implements display.Drawer. Pixels of src are reduced to on or off and
// every connected client is sent the new frame.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, sp image.Point) error {
	r := dstRect.Intersect(d.bounds)
	sp = sp.Add(r.Min.Sub(dstRect.Min))

	d.mu.Lock()
	defer d.mu.Unlock()

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := d.paper
			if image1bit.BitModel.Convert(src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y)).(image1bit.Bit) {
				c = d.ink
			}
			d.fill(x, y, c)
		}
	}

	d.snapshot = nil
	for c := range d.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
	return nil
}

// Image returns a copy of the magnified frame.
func (d *Dev) Image() *image.Gray {
	d.mu.Lock()
	defer d.mu.Unlock()
	img := image.NewGray(d.img.Rect)
	copy(img.Pix, d.img.Pix)
	return img
}

func (d *Dev) fill(x, y int, c color.Gray) {
	for dy := 0; dy < d.scale; dy++ {
		off := d.img.PixOffset(x*d.scale, y*d.scale+dy)
		for dx := 0; dx < d.scale; dx++ {
			d.img.Pix[off+dx] = c.Y
		}
	}
}

var encoder = png.Encoder{CompressionLevel: png.BestSpeed}

// frame returns the PNG encoding of the current frame. The result is shared
// and must not be modified.
func (d *Dev) frame() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snapshot == nil {
		var buf bytes.Buffer
		if err := encoder.Encode(&buf, d.img); err != nil {
			return nil, err
		}
		d.snapshot = buf.Bytes()
	}
	return d.snapshot, nil
}

var _ display.Drawer = (*Dev)(nil)
var _ conn.Resource = (*Dev)(nil)
var _ http.Handler = (*Dev)(nil)
