// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import (
	"periph.io/x/conn/v3/gpio"
)

// errorHandler latches the first pin error of a sequence; every later step
// becomes a no-op.
type errorHandler struct {
	b   *Bus
	err error
}

func (eh *errorHandler) out(p gpio.PinOut, l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = p.Out(l)
}

func (eh *errorHandler) sclOut(l gpio.Level) {
	eh.out(eh.b.scl, l)
}

func (eh *errorHandler) sdaOut(l gpio.Level) {
	eh.out(eh.b.sda, l)
}

func (eh *errorHandler) dcOut(l gpio.Level) {
	eh.out(eh.b.dc, l)
}

func (eh *errorHandler) csOut(l gpio.Level) {
	eh.out(eh.b.cs, l)
}

// release drives the select line high even after a failure. The first error
// is kept.
func (eh *errorHandler) release() {
	if err := eh.b.cs.Out(gpio.High); eh.err == nil {
		eh.err = err
	}
}

// sendByte clocks out one byte, most significant bit first.
func (eh *errorHandler) sendByte(v byte) {
	for i := 0; i < 8; i++ {
		eh.sclOut(gpio.Low)
		eh.sdaOut(v&(0x80>>i) != 0)
		eh.sclOut(gpio.High)
	}
}
