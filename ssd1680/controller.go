// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1680

import "bytes"

type controller interface {
	sendCommand(byte)
	sendData([]byte)
	waitUntilIdle()
}

func softReset(ctrl controller) {
	ctrl.waitUntilIdle()
	ctrl.sendCommand(swReset)
	ctrl.waitUntilIdle()
}

func configureDisplay(ctrl controller, opts *Opts) {
	ctrl.sendCommand(driverOutputControl)
	ctrl.sendData(opts.DriverOutput[:])

	ctrl.sendCommand(dataEntryModeSetting)
	ctrl.sendData([]byte{opts.InitEntryMode})

	ctrl.sendCommand(setRAMXAddressStartEndPosition)
	ctrl.sendData(opts.InitWindowX[:])

	ctrl.sendCommand(setRAMYAddressStartEndPosition)
	ctrl.sendData(opts.InitWindowY[:])

	ctrl.sendCommand(borderWaveformControl)
	ctrl.sendData([]byte{opts.Border})

	ctrl.sendCommand(writeVcomRegister)
	ctrl.sendData([]byte{opts.VCOM})

	ctrl.sendCommand(gateDrivingVoltageControl)
	ctrl.sendData([]byte{opts.GateVoltage})

	ctrl.sendCommand(sourceDrivingVoltageControl)
	ctrl.sendData(opts.SourceVoltage[:])

	ctrl.sendCommand(writeLutRegister)
	ctrl.sendData(bytes.Repeat([]byte{opts.LUTFill}, opts.LUTLength))

	ctrl.waitUntilIdle()
}

// setFullWindow addresses the whole RAM, 16 pages by 248 columns.
func setFullWindow(ctrl controller, opts *Opts) {
	ctrl.sendCommand(dataEntryModeSetting)
	ctrl.sendData([]byte{opts.UpdateEntryMode})

	ctrl.sendCommand(setRAMXAddressStartEndPosition)
	ctrl.sendData(opts.UpdateWindowX[:])

	ctrl.sendCommand(setRAMYAddressStartEndPosition)
	ctrl.sendData(opts.UpdateWindowY[:])

	ctrl.sendCommand(setRAMXAddressCounter)
	ctrl.sendData([]byte{opts.CounterX})

	ctrl.sendCommand(setRAMYAddressCounter)
	ctrl.sendData(opts.CounterY[:])
}

func writeFrame(ctrl controller, frame []byte) {
	ctrl.sendCommand(writeRAMBW)
	ctrl.sendData(frame)
}

func turnOnDisplay(ctrl controller, opts *Opts) {
	ctrl.sendCommand(displayUpdateControl2)
	ctrl.sendData([]byte{opts.UpdateMode})
	ctrl.sendCommand(masterActivation)
}

func setCursor(ctrl controller, x, length int) {
	ctrl.sendCommand(setCursorStart)
	ctrl.sendData([]byte{byte(width - x)})

	ctrl.sendCommand(driverOutputControl)
	ctrl.sendData([]byte{byte(length)})
}
