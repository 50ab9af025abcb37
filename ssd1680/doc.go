// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1680 controls 248x128 monochrome e-paper panels driven by an
// SSD1680 compatible controller over a bit-banged serial bus.
//
// The driver keeps a page-packed frame buffer. Drawing only touches the
// buffer; Update streams the whole buffer to the panel and blocks until the
// full refresh completes.
//
// Only full refreshes are supported. The panel scans bottom-up, so page 15
// of the buffer is the top of the picture.
package ssd1680
