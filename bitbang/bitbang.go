// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

var (
	// ErrBusyTimeout is returned by WaitBusyTimeout when the busy line is
	// still asserted once the timeout has elapsed.
	ErrBusyTimeout = errors.New("bitbang: timed out waiting for busy line")

	errReadNotSupported = errors.New("bitbang: bus is write-only")
)

// Sleeper is the millisecond delay primitive used by the bus. clockwork.Clock
// implements it.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Pins lists the lines the bus drives.
type Pins struct {
	SCL  gpio.PinOut // Clock.
	SDA  gpio.PinOut // Data, MSB first.
	DC   gpio.PinOut // Low for a command, high for data.
	CS   gpio.PinOut // Chip-select, active low.
	Busy gpio.PinIn  // High while the panel is busy.
}

// Opts holds the bus timing.
type Opts struct {
	// Delay provides sleeping. The real clock is used when nil.
	Delay Sleeper
	// PollInterval is the pause between two reads of the busy line. Zero
	// spins.
	PollInterval time.Duration
	// Settle is the hold time after the busy line is released.
	Settle time.Duration
}

// DefaultOpts is the timing the SSD1680 panels expect.
var DefaultOpts = Opts{
	PollInterval: time.Millisecond,
	Settle:       10 * time.Millisecond,
}

// Bus is a bit-banged serial bus.
//
// It implements conn.Conn for raw, write-only transfers.
type Bus struct {
	scl  gpio.PinOut
	sda  gpio.PinOut
	dc   gpio.PinOut
	cs   gpio.PinOut
	busy gpio.PinIn

	delay  Sleeper
	poll   time.Duration
	settle time.Duration
}

// New returns a bus driving the given pins.
//
// The busy line is configured as a pulled-up input and every output is set
// to its idle (high) level.
func New(pins *Pins, opts *Opts) (*Bus, error) {
	if pins == nil {
		return nil, errors.New("bitbang: pins are required")
	}
	for _, p := range []struct {
		name string
		set  bool
	}{
		{"SCL", pins.SCL != nil},
		{"SDA", pins.SDA != nil},
		{"DC", pins.DC != nil},
		{"CS", pins.CS != nil},
		{"BUSY", pins.Busy != nil},
	} {
		if !p.set {
			return nil, fmt.Errorf("bitbang: %s pin is required", p.name)
		}
	}
	if opts == nil {
		opts = &DefaultOpts
	}

	b := &Bus{
		scl:    pins.SCL,
		sda:    pins.SDA,
		dc:     pins.DC,
		cs:     pins.CS,
		busy:   pins.Busy,
		delay:  opts.Delay,
		poll:   opts.PollInterval,
		settle: opts.Settle,
	}
	if b.delay == nil {
		b.delay = clockwork.NewRealClock()
	}

	if err := b.busy.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("bitbang: configuring busy pin: %w", err)
	}

	eh := errorHandler{b: b}
	eh.csOut(gpio.High)
	eh.dcOut(gpio.High)
	eh.sdaOut(gpio.High)
	eh.sclOut(gpio.High)
	if eh.err != nil {
		return nil, fmt.Errorf("bitbang: setting idle levels: %w", eh.err)
	}

	return b, nil
}

// WriteCommand sends one byte with the select line low.
func (b *Bus) WriteCommand(cmd byte) error {
	eh := errorHandler{b: b}

	eh.csOut(gpio.Low)
	eh.dcOut(gpio.Low)
	eh.sendByte(cmd)
	eh.dcOut(gpio.High)
	eh.release()

	return eh.err
}

// WriteData sends a burst of bytes with the select line high, within a
// single chip-select frame.
func (b *Bus) WriteData(data ...byte) error {
	eh := errorHandler{b: b}

	eh.csOut(gpio.Low)
	eh.dcOut(gpio.High)
	for _, d := range data {
		eh.sendByte(d)
	}
	eh.release()

	return eh.err
}

// Tx implements conn.Conn.
//
// The bytes in w are clocked out within one chip-select frame, leaving the
// data/command line untouched. r must be empty.
func (b *Bus) Tx(w, r []byte) error {
	if len(r) != 0 {
		return errReadNotSupported
	}
	eh := errorHandler{b: b}

	eh.csOut(gpio.Low)
	for _, d := range w {
		eh.sendByte(d)
	}
	eh.release()

	return eh.err
}

// Duplex implements conn.Conn.
func (b *Bus) Duplex() conn.Duplex {
	return conn.Half
}

// WaitBusy blocks until the busy line reads low, then holds for the settle
// delay.
//
// There is no timeout: an unresponsive panel blocks forever. Use
// WaitBusyTimeout to bound the wait.
func (b *Bus) WaitBusy() {
	for b.busy.Read() == gpio.High {
		b.sleep(b.poll)
	}
	b.sleep(b.settle)
}

// WaitBusyTimeout is like WaitBusy but gives up with ErrBusyTimeout once the
// accumulated polling delay reaches timeout. A timeout of zero or less waits
// forever.
func (b *Bus) WaitBusyTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		b.WaitBusy()
		return nil
	}

	step := b.poll
	if step <= 0 {
		step = time.Millisecond
	}

	var waited time.Duration
	for b.busy.Read() == gpio.High {
		if waited >= timeout {
			return ErrBusyTimeout
		}
		b.delay.Sleep(step)
		waited += step
	}
	b.sleep(b.settle)

	return nil
}

// Halt implements conn.Resource.
//
// It releases chip-select.
func (b *Bus) Halt() error {
	return b.cs.Out(gpio.High)
}

func (b *Bus) String() string {
	return fmt.Sprintf("bitbang{SCL: %s, SDA: %s, DC: %s, CS: %s, BUSY: %s}", b.scl, b.sda, b.dc, b.cs, b.busy)
}

func (b *Bus) sleep(d time.Duration) {
	if d > 0 {
		b.delay.Sleep(d)
	}
}

var _ conn.Conn = &Bus{}
var _ conn.Resource = &Bus{}
