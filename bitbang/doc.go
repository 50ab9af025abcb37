// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bitbang implements a software-emulated, write-only, MSB-first
// synchronous serial bus over plain GPIO lines, as used by small e-paper
// panels wired without a hardware SPI peripheral.
//
// The bus drives four outputs (clock, data, data/command select and
// chip-select) and reads one input, the panel's busy line. Bytes are framed
// either as a command (select line low) or as a data burst (select line high).
//
// Each bit is sent as: clock low, data set, clock high. The receiver samples
// on the rising edge.
package bitbang
