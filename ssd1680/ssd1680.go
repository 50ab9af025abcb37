// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1680

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/GermanBionicSystems/epaper/bitbang"
	"github.com/GermanBionicSystems/epaper/ssd1680/pagebuf"
	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Commands
const (
	driverOutputControl            byte = 0x01
	gateDrivingVoltageControl      byte = 0x03
	sourceDrivingVoltageControl    byte = 0x04
	setCursorStart                 byte = 0x0F
	dataEntryModeSetting           byte = 0x11
	swReset                        byte = 0x12
	masterActivation               byte = 0x20
	displayUpdateControl2          byte = 0x22
	writeRAMBW                     byte = 0x24
	writeVcomRegister              byte = 0x2C
	writeLutRegister               byte = 0x32
	borderWaveformControl          byte = 0x3C
	setRAMXAddressStartEndPosition byte = 0x44
	setRAMYAddressStartEndPosition byte = 0x45
	setRAMXAddressCounter          byte = 0x4E
	setRAMYAddressCounter          byte = 0x4F
)

const (
	width  = pagebuf.Width
	height = pagebuf.Height
)

// ErrNotInitialized is returned by Update before a successful Init.
var ErrNotInitialized = errors.New("ssd1680: panel is not initialized")

// Bus is the command/data link to the controller. *bitbang.Bus implements
// it.
type Bus interface {
	WriteCommand(cmd byte) error
	WriteData(data ...byte) error
	// WaitBusyTimeout blocks until the panel is ready. A timeout of zero or
	// less waits forever.
	WaitBusyTimeout(timeout time.Duration) error
}

// Pins lists every line of a bit-banged panel.
type Pins struct {
	bitbang.Pins
	RST gpio.PinOut // Hardware reset, active low.
}

// Opts is the panel configuration written by Init and Update.
type Opts struct {
	// Init.
	DriverOutput  [3]byte
	InitEntryMode byte
	InitWindowX   [2]byte
	InitWindowY   [4]byte
	Border        byte
	VCOM          byte
	GateVoltage   byte
	SourceVoltage [3]byte
	LUTFill       byte
	LUTLength     int

	// Update.
	UpdateEntryMode byte
	UpdateWindowX   [2]byte
	UpdateWindowY   [4]byte
	CounterX        byte
	CounterY        [2]byte
	UpdateMode      byte

	// ResetDelay is held after each edge of the reset pulse.
	ResetDelay time.Duration
	// BusyTimeout bounds every wait on the busy line. Zero waits forever.
	BusyTimeout time.Duration
	// Delay provides sleeping. The real clock is used when nil.
	Delay bitbang.Sleeper
}

// Panel248x128 is the configuration of the 248x128 panel.
var Panel248x128 = Opts{
	DriverOutput:  [3]byte{0xF7, 0x00, 0x00},
	InitEntryMode: 0x04,
	InitWindowX:   [2]byte{0x0E, 0x03},
	InitWindowY:   [4]byte{0xF7, 0x00, 0x00, 0x00},
	Border:        0xC0,
	VCOM:          0x70,
	GateVoltage:   0x17,
	SourceVoltage: [3]byte{0x41, 0x00, 0x32},
	LUTFill:       0xFF,
	LUTLength:     224,

	UpdateEntryMode: 0x07,
	UpdateWindowX:   [2]byte{0x00, 0x0F},
	UpdateWindowY:   [4]byte{0x00, 0x00, 0xF7, 0x00},
	CounterX:        0x0F,
	CounterY:        [2]byte{0xF7, 0x00},
	UpdateMode:      0xF7,

	ResetDelay: 15 * time.Millisecond,
}

// State is the controller state as tracked by the driver.
type State int

// Init goes through SoftReset and Configuring, Update through Transmitting,
// Refreshing and BusyWait. Both end in Idle, or in Uninitialized on failure.
const (
	Uninitialized State = iota
	SoftReset
	Configuring
	Idle
	Transmitting
	Refreshing
	BusyWait
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case SoftReset:
		return "SoftReset"
	case Configuring:
		return "Configuring"
	case Idle:
		return "Idle"
	case Transmitting:
		return "Transmitting"
	case Refreshing:
		return "Refreshing"
	case BusyWait:
		return "BusyWait"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Dev is a handle to the panel.
//
// It is safe for concurrent use; every method holds the same lock.
type Dev struct {
	mu sync.Mutex

	bus   Bus
	rst   gpio.PinOut
	opts  Opts
	delay bitbang.Sleeper
	buf   *pagebuf.Buffer
	state State

	// trace observes state transitions.
	trace func(State)
}

// New returns a handle to a panel on bus. rst may be nil when the reset line
// is not wired.
func New(bus Bus, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if bus == nil {
		return nil, errors.New("ssd1680: bus is required")
	}
	if opts == nil {
		opts = &Panel248x128
	}
	if opts.LUTLength < 0 {
		return nil, fmt.Errorf("ssd1680: invalid LUT length %d", opts.LUTLength)
	}
	d := &Dev{
		bus:   bus,
		rst:   rst,
		opts:  *opts,
		delay: opts.Delay,
		buf:   pagebuf.New(),
	}
	if d.delay == nil {
		d.delay = clockwork.NewRealClock()
	}
	return d, nil
}

// NewGPIO returns a handle to a panel wired to plain GPIO lines.
func NewGPIO(pins *Pins, opts *Opts) (*Dev, error) {
	if pins == nil {
		return nil, errors.New("ssd1680: pins are required")
	}
	if opts == nil {
		opts = &Panel248x128
	}
	busOpts := bitbang.DefaultOpts
	busOpts.Delay = opts.Delay
	bus, err := bitbang.New(&pins.Pins, &busOpts)
	if err != nil {
		return nil, err
	}
	return New(bus, pins.RST, opts)
}

// Init resets and configures the panel.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	eh := d.errorHandler()
	d.setState(Uninitialized)
	d.reset(eh)

	d.setState(SoftReset)
	softReset(eh)

	d.setState(Configuring)
	configureDisplay(eh, &d.opts)

	return d.finish(eh.err)
}

// Update sends the frame buffer to the panel and waits for the refresh to
// complete.
func (d *Dev) Update() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update()
}

// SetCursor positions the column cursor at x with a run of length columns.
func (d *Dev) SetCursor(x, length int) error {
	if x < 0 || x > width {
		return fmt.Errorf("ssd1680: cursor column %d out of range [0, %d]", x, width)
	}
	if length < 0 || length > 0xFF {
		return fmt.Errorf("ssd1680: cursor length %d out of range [0, 255]", length)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	eh := d.errorHandler()
	setCursor(eh, x, length)
	return eh.err
}

// State returns the controller state.
func (d *Dev) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Buffer returns the frame buffer.
//
// The buffer is not locked; callers sharing the Dev between goroutines should
// draw through Dev's methods instead.
func (d *Dev) Buffer() *pagebuf.Buffer {
	return d.buf
}

// Clear clears the frame buffer. The panel is unchanged until Update.
func (d *Dev) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf.Clear()
}

// PlotImage blits a strip-packed bitmap into the frame buffer. It makes Dev a
// glyph.Blitter.
func (d *Dev) PlotImage(x, y, w, h int, bitmap []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf.PlotImage(x, y, w, h, bitmap)
}

// Render runs fn with exclusive access to the frame buffer.
func (d *Dev) Render(fn func(b *pagebuf.Buffer)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.buf)
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, width, height)
}

// Draw implements display.Drawer. It composites src into the frame buffer
// and updates the panel.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	r := dstRect.Intersect(d.buf.Bounds())
	sp = sp.Add(r.Min.Sub(dstRect.Min))
	draw.Src.Draw(d.buf, r, src, sp)

	return d.update()
}

// Halt blanks the panel.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf.Clear()
	if d.state != Idle {
		return nil
	}
	return d.update()
}

func (d *Dev) String() string {
	if s, ok := d.bus.(fmt.Stringer); ok {
		return fmt.Sprintf("ssd1680{%s}", s)
	}
	return "ssd1680"
}

func (d *Dev) errorHandler() *errorHandler {
	return &errorHandler{bus: d.bus, timeout: d.opts.BusyTimeout}
}

func (d *Dev) reset(eh *errorHandler) {
	if d.rst == nil {
		return
	}
	eh.pinOut(d.rst, gpio.Low)
	d.sleep(d.opts.ResetDelay)
	eh.pinOut(d.rst, gpio.High)
	d.sleep(d.opts.ResetDelay)
}

func (d *Dev) update() error {
	if d.state != Idle {
		return ErrNotInitialized
	}

	eh := d.errorHandler()

	d.setState(Transmitting)
	setFullWindow(eh, &d.opts)
	writeFrame(eh, d.buf.Bytes())

	d.setState(Refreshing)
	turnOnDisplay(eh, &d.opts)

	d.setState(BusyWait)
	eh.waitUntilIdle()

	return d.finish(eh.err)
}

// finish moves to Idle, or back to Uninitialized when err is set.
func (d *Dev) finish(err error) error {
	if err != nil {
		d.setState(Uninitialized)
		return err
	}
	d.setState(Idle)
	return nil
}

func (d *Dev) setState(s State) {
	d.state = s
	if d.trace != nil {
		d.trace(s)
	}
}

func (d *Dev) sleep(t time.Duration) {
	if t > 0 {
		d.delay.Sleep(t)
	}
}

var _ display.Drawer = &Dev{}
var _ conn.Resource = &Dev{}
