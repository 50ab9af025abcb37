// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package webview mirrors a 1-bit frame over HTTP.
//
// Every GET request receives a multipart/x-mixed-replace stream of PNG
// images, the format browsers show as a live picture. A client gets the
// current frame on connect and a new part after every Draw.
package webview
