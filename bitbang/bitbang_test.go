// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type event struct {
	pin   string
	level gpio.Level
}

type recorder struct {
	events []event
}

// recordingPin is a gpiotest.Pin which logs every level it is driven to.
type recordingPin struct {
	gpiotest.Pin
	rec *recorder
	err error
}

func (p *recordingPin) Out(l gpio.Level) error {
	if p.err != nil {
		return p.err
	}
	p.rec.events = append(p.rec.events, event{pin: p.N, level: l})
	return p.Pin.Out(l)
}

// busyPin returns a scripted sequence of levels, then Low forever.
type busyPin struct {
	gpiotest.Pin
	levels []gpio.Level
	reads  int
}

func (p *busyPin) In(gpio.Pull, gpio.Edge) error {
	return nil
}

func (p *busyPin) Read() gpio.Level {
	p.reads++
	if len(p.levels) == 0 {
		return gpio.Low
	}
	l := p.levels[0]
	p.levels = p.levels[1:]
	return l
}

type fakeSleeper struct {
	slept []time.Duration
}

func (s *fakeSleeper) Sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

type fixture struct {
	rec   *recorder
	scl   *recordingPin
	sda   *recordingPin
	dc    *recordingPin
	cs    *recordingPin
	busy  *busyPin
	sleep *fakeSleeper
	bus   *Bus
}

func newFixture(t *testing.T, busy ...gpio.Level) *fixture {
	t.Helper()

	rec := &recorder{}
	f := &fixture{
		rec:   rec,
		scl:   &recordingPin{Pin: gpiotest.Pin{N: "SCL"}, rec: rec},
		sda:   &recordingPin{Pin: gpiotest.Pin{N: "SDA"}, rec: rec},
		dc:    &recordingPin{Pin: gpiotest.Pin{N: "DC"}, rec: rec},
		cs:    &recordingPin{Pin: gpiotest.Pin{N: "CS"}, rec: rec},
		busy:  &busyPin{Pin: gpiotest.Pin{N: "BUSY"}, levels: busy},
		sleep: &fakeSleeper{},
	}

	bus, err := New(&Pins{SCL: f.scl, SDA: f.sda, DC: f.dc, CS: f.cs, Busy: f.busy}, &Opts{
		Delay:        f.sleep,
		PollInterval: time.Millisecond,
		Settle:       10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	f.bus = bus
	rec.events = nil

	return f
}

// sampled returns the data line level at every rising clock edge.
func sampled(events []event) []int {
	var bits []int
	var sda gpio.Level
	for _, e := range events {
		switch e.pin {
		case "SDA":
			sda = e.level
		case "SCL":
			if e.level == gpio.High {
				if sda {
					bits = append(bits, 1)
				} else {
					bits = append(bits, 0)
				}
			}
		}
	}
	return bits
}

func byteEvents(v byte) []event {
	var out []event
	for i := 0; i < 8; i++ {
		out = append(out,
			event{"SCL", gpio.Low},
			event{"SDA", v&(0x80>>i) != 0},
			event{"SCL", gpio.High},
		)
	}
	return out
}

func TestNew(t *testing.T) {
	rec := &recorder{}
	pin := func(name string) *recordingPin {
		return &recordingPin{Pin: gpiotest.Pin{N: name}, rec: rec}
	}

	if _, err := New(nil, nil); err == nil {
		t.Error("New(nil) succeeded")
	}

	_, err := New(&Pins{SCL: pin("SCL"), SDA: pin("SDA"), DC: pin("DC"), CS: pin("CS")}, nil)
	if err == nil || err.Error() != "bitbang: BUSY pin is required" {
		t.Errorf("New() without busy pin: got %v", err)
	}

	busy := &gpiotest.Pin{N: "BUSY"}
	bus, err := New(&Pins{SCL: pin("SCL"), SDA: pin("SDA"), DC: pin("DC"), CS: pin("CS"), Busy: busy}, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	want := []event{{"CS", gpio.High}, {"DC", gpio.High}, {"SDA", gpio.High}, {"SCL", gpio.High}}
	if diff := cmp.Diff(rec.events, want, cmp.AllowUnexported(event{})); diff != "" {
		t.Errorf("idle levels difference (-got +want):\n%s", diff)
	}

	if busy.P != gpio.PullUp {
		t.Errorf("busy pull = %v, want %v", busy.P, gpio.PullUp)
	}

	if diff := cmp.Diff(bus.String(), "bitbang{SCL: SCL(0), SDA: SDA(0), DC: DC(0), CS: CS(0), BUSY: BUSY(0)}"); diff != "" {
		t.Errorf("String() difference (-got +want):\n%s", diff)
	}
}

func TestSerialFraming(t *testing.T) {
	f := newFixture(t)

	if err := f.bus.WriteData(0xA5); err != nil {
		t.Fatalf("WriteData() failed: %v", err)
	}

	if diff := cmp.Diff(sampled(f.rec.events), []int{1, 0, 1, 0, 0, 1, 0, 1}); diff != "" {
		t.Errorf("sampled bits difference (-got +want):\n%s", diff)
	}

	rising := 0
	last := gpio.High
	for _, e := range f.rec.events {
		if e.pin != "SCL" {
			continue
		}
		if last == gpio.Low && e.level == gpio.High {
			rising++
		}
		last = e.level
	}
	if rising != 8 {
		t.Errorf("got %d rising clock edges, want 8", rising)
	}
}

func TestWriteCommand(t *testing.T) {
	f := newFixture(t)

	if err := f.bus.WriteCommand(0x12); err != nil {
		t.Fatalf("WriteCommand() failed: %v", err)
	}

	want := []event{{"CS", gpio.Low}, {"DC", gpio.Low}}
	want = append(want, byteEvents(0x12)...)
	want = append(want, event{"DC", gpio.High}, event{"CS", gpio.High})

	if diff := cmp.Diff(f.rec.events, want, cmp.AllowUnexported(event{})); diff != "" {
		t.Errorf("WriteCommand() difference (-got +want):\n%s", diff)
	}
}

func TestWriteData(t *testing.T) {
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{name: "empty"},
		{name: "single", data: []byte{0xF7}},
		{name: "burst", data: []byte{0x41, 0x00, 0x32}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			if err := f.bus.WriteData(tc.data...); err != nil {
				t.Fatalf("WriteData() failed: %v", err)
			}

			want := []event{{"CS", gpio.Low}, {"DC", gpio.High}}
			for _, d := range tc.data {
				want = append(want, byteEvents(d)...)
			}
			want = append(want, event{"CS", gpio.High})

			if diff := cmp.Diff(f.rec.events, want, cmp.AllowUnexported(event{})); diff != "" {
				t.Errorf("WriteData() difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestTx(t *testing.T) {
	f := newFixture(t)

	if err := f.bus.Tx([]byte{0x01}, make([]byte, 1)); !errors.Is(err, errReadNotSupported) {
		t.Errorf("Tx() with read buffer: got %v, want %v", err, errReadNotSupported)
	}
	f.rec.events = nil

	if err := f.bus.Tx([]byte{0x80}, nil); err != nil {
		t.Fatalf("Tx() failed: %v", err)
	}

	want := []event{{"CS", gpio.Low}}
	want = append(want, byteEvents(0x80)...)
	want = append(want, event{"CS", gpio.High})

	if diff := cmp.Diff(f.rec.events, want, cmp.AllowUnexported(event{})); diff != "" {
		t.Errorf("Tx() difference (-got +want):\n%s", diff)
	}
}

func TestPinError(t *testing.T) {
	wantErr := errors.New("pin failure")

	for _, tc := range []struct {
		name string
		op   func(b *Bus) error
		want []event
	}{
		{
			name: "command",
			op:   func(b *Bus) error { return b.WriteCommand(0x20) },
			// The sequence stops at the first failure, then CS is released.
			want: []event{{"CS", gpio.Low}, {"DC", gpio.Low}, {"SCL", gpio.Low}, {"CS", gpio.High}},
		},
		{
			name: "data",
			op:   func(b *Bus) error { return b.WriteData(0x01, 0x02) },
			want: []event{{"CS", gpio.Low}, {"DC", gpio.High}, {"SCL", gpio.Low}, {"CS", gpio.High}},
		},
		{
			name: "tx",
			op:   func(b *Bus) error { return b.Tx([]byte{0xFF}, nil) },
			want: []event{{"CS", gpio.Low}, {"SCL", gpio.Low}, {"CS", gpio.High}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.sda.err = wantErr

			if err := tc.op(f.bus); !errors.Is(err, wantErr) {
				t.Fatalf("error = %v, want %v", err, wantErr)
			}
			if diff := cmp.Diff(f.rec.events, tc.want, cmp.AllowUnexported(event{})); diff != "" {
				t.Errorf("events difference (-got +want):\n%s", diff)
			}
			if f.cs.Read() != gpio.High {
				t.Error("CS is still asserted")
			}
		})
	}
}

func TestWaitBusy(t *testing.T) {
	f := newFixture(t, gpio.High, gpio.High, gpio.Low)

	f.bus.WaitBusy()

	if f.busy.reads != 3 {
		t.Errorf("got %d reads, want 3", f.busy.reads)
	}

	want := []time.Duration{time.Millisecond, time.Millisecond, 10 * time.Millisecond}
	if diff := cmp.Diff(f.sleep.slept, want); diff != "" {
		t.Errorf("sleeps difference (-got +want):\n%s", diff)
	}
}

func TestWaitBusyTimeout(t *testing.T) {
	for _, tc := range []struct {
		name      string
		levels    []gpio.Level
		timeout   time.Duration
		wantErr   error
		wantSlept []time.Duration
	}{
		{
			name:      "ready",
			timeout:   5 * time.Millisecond,
			wantSlept: []time.Duration{10 * time.Millisecond},
		},
		{
			name:      "released in time",
			levels:    []gpio.Level{gpio.High, gpio.High},
			timeout:   5 * time.Millisecond,
			wantSlept: []time.Duration{time.Millisecond, time.Millisecond, 10 * time.Millisecond},
		},
		{
			name:    "stuck",
			levels:  []gpio.Level{gpio.High, gpio.High, gpio.High, gpio.High, gpio.High},
			timeout: 3 * time.Millisecond,
			wantErr: ErrBusyTimeout,
			wantSlept: []time.Duration{
				time.Millisecond, time.Millisecond, time.Millisecond,
			},
		},
		{
			name:      "unbounded",
			levels:    []gpio.Level{gpio.High},
			wantSlept: []time.Duration{time.Millisecond, 10 * time.Millisecond},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.levels...)

			err := f.bus.WaitBusyTimeout(tc.timeout)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("WaitBusyTimeout() error = %v, want %v", err, tc.wantErr)
			}

			if diff := cmp.Diff(f.sleep.slept, tc.wantSlept, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("sleeps difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestHalt(t *testing.T) {
	f := newFixture(t)

	if err := f.bus.Halt(); err != nil {
		t.Fatalf("Halt() failed: %v", err)
	}

	if diff := cmp.Diff(f.rec.events, []event{{"CS", gpio.High}}, cmp.AllowUnexported(event{})); diff != "" {
		t.Errorf("Halt() difference (-got +want):\n%s", diff)
	}
}
