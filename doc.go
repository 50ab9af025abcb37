// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epaper is a container for the 248x128 e-paper panel driver.
//
// bitbang is the GPIO serial bus, ssd1680 the panel controller with its
// page-packed frame buffer in ssd1680/pagebuf, and glyph renders text and
// numbers into it. termview previews a frame in the terminal, webview streams
// it to browsers and cmd/epdctl ties everything together.
package epaper
