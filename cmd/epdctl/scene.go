// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/GermanBionicSystems/epaper/glyph"
	"github.com/GermanBionicSystems/epaper/ssd1680/pagebuf"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/inconsolata"
)

// scene draws a static picture once, then updates part of it on every tick.
type scene interface {
	Setup(t target, r *glyph.Renderer) error
	Tick(t target, r *glyph.Renderer, n int) error
}

// counterScene shows a title and a 5 digit counter.
type counterScene struct {
	title string
}

func (s *counterScene) Setup(t target, r *glyph.Renderer) error {
	t.Clear()
	r.ShowString(0, 0, s.title, glyph.Size8x16)
	return nil
}

func (s *counterScene) Tick(t target, r *glyph.Renderer, n int) error {
	r.ShowNum(0, 32, uint32(uint16(n)), 5, glyph.Size8x16)
	return nil
}

// textScene shows a line of text, an optional double-byte line and a clock
// with a few numeric read-outs.
//
// 16 row glyphs drawn at y cover rows y+8 to y+23 and clear from y, so the
// 16 row lines are 24 rows apart.
type textScene struct {
	text  string
	cjk   string
	start time.Time
	now   func() time.Time
}

func (s *textScene) Setup(t target, r *glyph.Renderer) error {
	t.Clear()
	r.ShowString(0, 0, s.text, glyph.Size8x16)
	if s.cjk != "" {
		r.ShowChinese(0, 24, s.cjk)
	}
	return nil
}

func (s *textScene) Tick(t target, r *glyph.Renderer, n int) error {
	now := s.now()
	r.ShowString(0, 48, now.Format("15:04:05"), glyph.Size8x16)

	up := now.Sub(s.start).Minutes()
	r.ShowString(0, 72, "up", glyph.Size6x8)
	r.ShowFloatNum(18, 72, up, 4, 2, glyph.Size6x8)

	r.ShowString(0, 80, "n", glyph.Size6x8)
	r.ShowSignedNum(12, 80, int32(n), 5, glyph.Size6x8)
	r.ShowHexNum(60, 80, uint32(n), 4, glyph.Size6x8)
	r.ShowBinNum(96, 80, uint32(n), 8, glyph.Size6x8)

	// Battery-style bar, one column per percent.
	level := int(math.Mod(float64(n)*5, 101))
	bar := make([]byte, 100)
	for i := range bar[:level] {
		bar[i] = 0x7E
	}
	r.ShowImage(0, 96, len(bar), 8, bar)
	return nil
}

// imageScene shows a picture scaled to fit above a caption.
type imageScene struct {
	src     image.Image
	caption string
}

func newImageScene(path, caption string) (*imageScene, error) {
	src, err := gg.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	return &imageScene{src: src, caption: caption}, nil
}

func (s *imageScene) Setup(t target, r *glyph.Renderer) error {
	img := s.compose(pagebuf.Width, pagebuf.Height)
	t.Clear()
	t.Render(func(b *pagebuf.Buffer) {
		draw.Draw(b, b.Bounds(), img, img.Bounds().Min, draw.Src)
	})
	return nil
}

func (s *imageScene) Tick(target, *glyph.Renderer, int) error {
	return nil
}

// compose renders the picture in white on black, which maps to set bits.
func (s *imageScene) compose(w, h int) image.Image {
	dc := gg.NewContext(w, h)
	dc.SetColor(color.Black)
	dc.Clear()

	area := float64(h)
	if s.caption != "" {
		area -= 16
	}
	b := s.src.Bounds()
	scale := math.Min(float64(w)/float64(b.Dx()), area/float64(b.Dy()))
	if scale > 0 {
		dc.Push()
		dc.Translate((float64(w)-float64(b.Dx())*scale)/2, (area-float64(b.Dy())*scale)/2)
		dc.Scale(scale, scale)
		dc.DrawImage(s.src, 0, 0)
		dc.Pop()
	}

	if s.caption != "" {
		dc.SetFontFace(inconsolata.Regular8x16)
		dc.SetColor(color.White)
		dc.DrawStringAnchored(s.caption, float64(w)/2, float64(h)-8, 0.5, 0.5)
	}
	return dc.Image()
}
