// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config holds the epdctl YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/GermanBionicSystems/epaper/ssd1680"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Pins names the GPIO lines, as known to gpioreg.
//
// Pins left out of a file keep their default. RST alone may be set to the
// empty string, for panels without a wired reset line.
type Pins struct {
	SCL  string `yaml:"scl"`
	SDA  string `yaml:"sda"`
	DC   string `yaml:"dc"`
	CS   string `yaml:"cs"`
	RST  string `yaml:"rst"`
	Busy string `yaml:"busy"`
}

// Panel overrides parts of ssd1680.Panel248x128.
type Panel struct {
	// BusyTimeout bounds every busy wait. Zero waits forever.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
	// ResetDelay is held after each edge of the reset pulse.
	ResetDelay time.Duration `yaml:"reset_delay"`
	// VCOM overrides the VCOM register when set.
	VCOM *uint8 `yaml:"vcom,omitempty"`
	// Border overrides the border waveform when set.
	Border *uint8 `yaml:"border,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Pins  Pins  `yaml:"pins"`
	Panel Panel `yaml:"panel"`

	// Refresh is a cron schedule, with the @every and @hourly style
	// descriptors allowed.
	Refresh string `yaml:"refresh"`

	// LogLevel is a zerolog level name.
	LogLevel string `yaml:"log_level"`

	// CJKFont is a TrueType file used for double-byte text.
	CJKFont string `yaml:"cjk_font,omitempty"`
}

// Default returns the configuration of a panel wired to the Raspberry Pi
// SPI0 header pins, refreshed every 2 seconds.
func Default() *Config {
	return &Config{
		Pins: Pins{
			SCL:  "GPIO11",
			SDA:  "GPIO10",
			DC:   "GPIO25",
			CS:   "GPIO8",
			RST:  "GPIO17",
			Busy: "GPIO24",
		},
		Panel: Panel{
			ResetDelay: ssd1680.Panel248x128.ResetDelay,
		},
		Refresh:  "@every 2s",
		LogLevel: "info",
	}
}

// Load reads the YAML file at path on top of Default. An empty path returns
// Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize fills in zero values with defaults.
func (c *Config) Normalize() {
	def := Default()
	if c.Refresh == "" {
		c.Refresh = def.Refresh
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Panel.ResetDelay == 0 {
		c.Panel.ResetDelay = def.Panel.ResetDelay
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	for _, p := range []struct {
		name, value string
	}{
		{"scl", c.Pins.SCL},
		{"sda", c.Pins.SDA},
		{"dc", c.Pins.DC},
		{"cs", c.Pins.CS},
		{"busy", c.Pins.Busy},
	} {
		if p.value == "" {
			return fmt.Errorf("pins.%s is required", p.name)
		}
	}
	if c.Panel.BusyTimeout < 0 {
		return errors.New("panel.busy_timeout must not be negative")
	}
	if c.Panel.ResetDelay < 0 {
		return errors.New("panel.reset_delay must not be negative")
	}
	if _, err := c.Schedule(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Schedule parses Refresh.
func (c *Config) Schedule() (cron.Schedule, error) {
	s, err := cron.ParseStandard(c.Refresh)
	if err != nil {
		return nil, fmt.Errorf("refresh %q: %w", c.Refresh, err)
	}
	return s, nil
}

// Level parses LogLevel.
func (c *Config) Level() (zerolog.Level, error) {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// PanelOpts returns the panel configuration.
func (c *Config) PanelOpts() ssd1680.Opts {
	opts := ssd1680.Panel248x128
	opts.BusyTimeout = c.Panel.BusyTimeout
	opts.ResetDelay = c.Panel.ResetDelay
	if c.Panel.VCOM != nil {
		opts.VCOM = *c.Panel.VCOM
	}
	if c.Panel.Border != nil {
		opts.Border = *c.Panel.Border
	}
	return opts
}
