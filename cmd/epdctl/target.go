// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/GermanBionicSystems/epaper/bitbang"
	"github.com/GermanBionicSystems/epaper/cmd/epdctl/internal/config"
	"github.com/GermanBionicSystems/epaper/ssd1680"
	"github.com/GermanBionicSystems/epaper/ssd1680/pagebuf"
	"github.com/GermanBionicSystems/epaper/termview"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// target is where scenes draw: the panel or a terminal preview.
type target interface {
	PlotImage(x, y, w, h int, bitmap []byte)
	Clear()
	Render(fn func(b *pagebuf.Buffer))
	Flush() error
	Close() error
}

type panelTarget struct {
	*ssd1680.Dev
}

func (p panelTarget) Flush() error {
	return p.Update()
}

func (p panelTarget) Close() error {
	return p.Halt()
}

type previewTarget struct {
	buf  *pagebuf.Buffer
	view *termview.Dev
}

func newPreview(opts *termview.Opts) *previewTarget {
	return &previewTarget{buf: pagebuf.New(), view: termview.New(opts)}
}

func (p *previewTarget) PlotImage(x, y, w, h int, bitmap []byte) {
	p.buf.PlotImage(x, y, w, h, bitmap)
}

func (p *previewTarget) Clear() {
	p.buf.Clear()
}

func (p *previewTarget) Render(fn func(b *pagebuf.Buffer)) {
	fn(p.buf)
}

func (p *previewTarget) Flush() error {
	return p.view.Show(p.buf)
}

func (p *previewTarget) Close() error {
	return p.view.Halt()
}

// openPanel initializes periph, looks the pins up and brings the panel up.
func openPanel(cfg *config.Config) (*panelTarget, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}

	var missing []string
	lookup := func(name string) gpio.PinIO {
		if name == "" {
			return nil
		}
		p := gpioreg.ByName(name)
		if p == nil {
			missing = append(missing, name)
		}
		return p
	}
	pins := &ssd1680.Pins{
		Pins: bitbang.Pins{
			SCL:  lookup(cfg.Pins.SCL),
			SDA:  lookup(cfg.Pins.SDA),
			DC:   lookup(cfg.Pins.DC),
			CS:   lookup(cfg.Pins.CS),
			Busy: lookup(cfg.Pins.Busy),
		},
	}
	if rst := lookup(cfg.Pins.RST); rst != nil {
		pins.RST = rst
	}
	if len(missing) != 0 {
		return nil, fmt.Errorf("unknown pins %v", missing)
	}

	opts := cfg.PanelOpts()
	dev, err := ssd1680.NewGPIO(pins, &opts)
	if err != nil {
		return nil, err
	}
	log.Info().Stringer("dev", dev).Dur("busy_timeout", opts.BusyTimeout).Msg("panel opened")

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	log.Debug().Stringer("state", dev.State()).Msg("panel initialized")
	return &panelTarget{Dev: dev}, nil
}
