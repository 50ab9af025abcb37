// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/epaper/glyph"
	"github.com/GermanBionicSystems/epaper/ssd1680/pagebuf"
	"github.com/GermanBionicSystems/epaper/termview"
	"github.com/GermanBionicSystems/epaper/webview"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/display"
)

func newTestPreview(t *testing.T) (*previewTarget, *bytes.Buffer, *glyph.Renderer) {
	t.Helper()
	var out bytes.Buffer
	p := newPreview(&termview.Opts{W: &out, Mode: termview.Plain})
	r, err := glyph.New(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	return p, &out, r
}

func TestCounterScene(t *testing.T) {
	p, out, r := newTestPreview(t)
	pl := &player{t: p, r: r, sc: &counterScene{title: "LZ1104"}}

	if err := pl.sc.Setup(p, r); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := pl.frame(); err != nil {
			t.Fatalf("frame() failed: %v", err)
		}
	}

	// Same picture drawn directly.
	want := pagebuf.New()
	wr, err := glyph.New(want, nil)
	if err != nil {
		t.Fatal(err)
	}
	wr.ShowString(0, 0, "LZ1104", glyph.Size8x16)
	wr.ShowNum(0, 32, 2, 5, glyph.Size8x16)

	if diff := cmp.Diff(p.buf.Bytes(), want.Bytes()); diff != "" {
		t.Errorf("buffer difference (-got +want):\n%s", diff)
	}
	if pl.n != 3 {
		t.Errorf("n = %d, want 3", pl.n)
	}
	if got := strings.Count(out.String(), "\n"); got != 3*128 {
		t.Errorf("preview wrote %d lines, want %d", got, 3*128)
	}
}

func TestCounterWraps(t *testing.T) {
	p, _, r := newTestPreview(t)
	sc := &counterScene{}

	if err := sc.Tick(p, r, 65536+7); err != nil {
		t.Fatal(err)
	}

	want := pagebuf.New()
	wr, _ := glyph.New(want, nil)
	wr.ShowNum(0, 32, 7, 5, glyph.Size8x16)
	if diff := cmp.Diff(p.buf.Bytes(), want.Bytes()); diff != "" {
		t.Errorf("buffer difference (-got +want):\n%s", diff)
	}
}

func TestTextScene(t *testing.T) {
	p, _, r := newTestPreview(t)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(90 * time.Second)
	sc, err := newScene(&flags{scene: "text", text: "hi", cjk: "中"}, func() time.Time { return start })
	if err != nil {
		t.Fatal(err)
	}
	sc.(*textScene).now = func() time.Time { return now }

	if err := sc.Setup(p, r); err != nil {
		t.Fatal(err)
	}
	if err := sc.Tick(p, r, 10); err != nil {
		t.Fatal(err)
	}

	want := pagebuf.New()
	wr, _ := glyph.New(want, nil)
	wr.ShowString(0, 0, "hi", glyph.Size8x16)
	wr.ShowChinese(0, 24, "中")
	wr.ShowString(0, 48, "12:01:30", glyph.Size8x16)
	wr.ShowString(0, 72, "up", glyph.Size6x8)
	wr.ShowFloatNum(18, 72, 1.5, 4, 2, glyph.Size6x8)
	wr.ShowString(0, 80, "n", glyph.Size6x8)
	wr.ShowSignedNum(12, 80, 10, 5, glyph.Size6x8)
	wr.ShowHexNum(60, 80, 10, 4, glyph.Size6x8)
	wr.ShowBinNum(96, 80, 10, 8, glyph.Size6x8)
	bar := make([]byte, 100)
	for i := 0; i < 50; i++ {
		bar[i] = 0x7E
	}
	wr.ShowImage(0, 96, 100, 8, bar)

	if diff := cmp.Diff(p.buf.Bytes(), want.Bytes()); diff != "" {
		t.Errorf("buffer difference (-got +want):\n%s", diff)
	}
}

func TestImageScene(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	path := filepath.Join(t.TempDir(), "white.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	sc, err := newScene(&flags{scene: "image", image: path}, time.Now)
	if err != nil {
		t.Fatalf("newScene() failed: %v", err)
	}

	p, _, r := newTestPreview(t)
	if err := sc.Setup(p, r); err != nil {
		t.Fatal(err)
	}

	// A white square scaled to the full height, centered.
	if got := p.buf.BitAt(pagebuf.Width/2, pagebuf.Height/2); !bool(got) {
		t.Error("center pixel is off")
	}
	if got := p.buf.BitAt(0, pagebuf.Height/2); bool(got) {
		t.Error("left margin pixel is on")
	}

	img := sc.(*imageScene).compose(pagebuf.Width, pagebuf.Height)
	if c := color.GrayModel.Convert(img.At(0, 0)).(color.Gray); c.Y != 0 {
		t.Errorf("background = %v, want black", c)
	}
}

func TestNewScene(t *testing.T) {
	for _, f := range []flags{
		{scene: "bogus"},
		{scene: "image"},
		{scene: "image", image: filepath.Join(t.TempDir(), "missing.png")},
	} {
		if _, err := newScene(&f, time.Now); err == nil {
			t.Errorf("newScene(%+v) succeeded", f)
		}
	}
}

func TestLoadTable(t *testing.T) {
	table, err := loadTable("", "中")
	if err != nil || table != nil {
		t.Errorf("loadTable() without a font = %v, %v; want nil, nil", table, err)
	}
	if _, err := loadTable(filepath.Join(t.TempDir(), "missing.ttf"), "中"); err == nil {
		t.Error("loadTable() with a missing font succeeded")
	}
}

func TestPlayerMirrors(t *testing.T) {
	p, _, r := newTestPreview(t)
	view, err := webview.New(&webview.Opts{Width: pagebuf.Width, Height: pagebuf.Height, Scale: 1})
	if err != nil {
		t.Fatal(err)
	}
	pl := &player{t: p, r: r, sc: &counterScene{title: "LZ1104"}, mirrors: []display.Drawer{view}}
	if err := pl.sc.Setup(p, r); err != nil {
		t.Fatal(err)
	}
	if err := pl.frame(); err != nil {
		t.Fatal(err)
	}

	img := view.Image()
	for y := 0; y < pagebuf.Height; y++ {
		for x := 0; x < pagebuf.Width; x++ {
			ink := img.GrayAt(x, y).Y == 0
			if want := bool(p.buf.BitAt(x, y)); ink != want {
				t.Fatalf("mirror pixel (%d, %d) = %t, want %t", x, y, ink, want)
			}
		}
	}
}
