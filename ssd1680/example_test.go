// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1680_test

import (
	"image"
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/GermanBionicSystems/epaper/bitbang"
	"github.com/GermanBionicSystems/epaper/glyph"
	"github.com/GermanBionicSystems/epaper/ssd1680"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	dev, err := ssd1680.NewGPIO(&ssd1680.Pins{
		Pins: bitbang.Pins{
			SCL:  gpioreg.ByName("GPIO11"),
			SDA:  gpioreg.ByName("GPIO10"),
			DC:   gpioreg.ByName("GPIO25"),
			CS:   gpioreg.ByName("GPIO8"),
			Busy: gpioreg.ByName("GPIO24"),
		},
		RST: gpioreg.ByName("GPIO17"),
	}, &ssd1680.Panel248x128)
	if err != nil {
		log.Fatalf("Failed to initialize driver: %v", err)
	}

	if err := dev.Init(); err != nil {
		log.Fatalf("Failed to initialize display: %v", err)
	}

	// Text and numbers go through the glyph renderer, straight into the
	// frame buffer.
	r, err := glyph.New(dev, nil)
	if err != nil {
		log.Fatal(err)
	}
	r.ShowString(0, 0, "LZ1104", glyph.Size8x16)
	r.ShowFloatNum(0, 24, 21.5, 2, 1, glyph.Size8x16)

	if err := dev.Update(); err != nil {
		log.Fatal(err)
	}
}

func Example_draw() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	dev, err := ssd1680.NewGPIO(&ssd1680.Pins{
		Pins: bitbang.Pins{
			SCL:  gpioreg.ByName("GPIO11"),
			SDA:  gpioreg.ByName("GPIO10"),
			DC:   gpioreg.ByName("GPIO25"),
			CS:   gpioreg.ByName("GPIO8"),
			Busy: gpioreg.ByName("GPIO24"),
		},
		RST: gpioreg.ByName("GPIO17"),
	}, nil)
	if err != nil {
		log.Fatal(err)
	}
	if err := dev.Init(); err != nil {
		log.Fatal(err)
	}

	// Any image.Image can be drawn through display.Drawer.
	img := image1bit.NewVerticalLSB(dev.Bounds())
	f := basicfont.Face7x13
	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: f,
		Dot:  fixed.P(0, img.Bounds().Dy()-1-f.Descent),
	}
	drawer.DrawString("Hello from periph!")

	if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		log.Fatal(err)
	}
}
