// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webview

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/textproto"
	"strconv"
	"time"
)

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

// newBoundary returns a random MIME boundary (RFC 2046, section 5.1.1).
func newBoundary() string {
	var buf [30]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", buf[:])
}

// partWriter writes an endless multipart body. mime/multipart.Writer only
// emits the closing boundary of a part once the next one starts, which keeps
// browsers from showing the latest frame.
type partWriter struct {
	w        io.Writer
	boundary string
	started  bool
}

// writePart writes header and body followed by the boundary line. It sets
// the Content-Length of header.
func (p *partWriter) writePart(header textproto.MIMEHeader, body []byte) error {
	header.Set("Content-Length", strconv.Itoa(len(body)))

	var buf bytes.Buffer
	if !p.started {
		fmt.Fprintf(&buf, "--%s\r\n", p.boundary)
		p.started = true
	}
	for name, values := range header {
		for _, v := range values {
			fmt.Fprintf(&buf, "%s: %s\r\n", name, v)
		}
	}
	buf.WriteString("\r\n")
	buf.Write(body)
	fmt.Fprintf(&buf, "\r\n--%s\r\n", p.boundary)

	_, err := buf.WriteTo(p.w)
	return err
}

// ServeHTTP streams the frame to GET requests until the client goes away or
// the Dev is halted.
func (d *Dev) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := d.log.With().Str("remote", r.RemoteAddr).Logger()

	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	pw := &partWriter{w: w, boundary: newBoundary()}
	w.Header().Set("Content-Type", mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
		"boundary": pw.boundary,
	}))

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	d.mu.Lock()
	d.clients[c] = struct{}{}
	d.mu.Unlock()
	log.Debug().Msg("viewer connected")

	defer func() {
		d.mu.Lock()
		delete(d.clients, c)
		d.mu.Unlock()
		log.Debug().Msg("viewer disconnected")
	}()

	var keepalive <-chan time.Time
	if d.keepalive > 0 {
		t := d.clock.NewTicker(d.keepalive)
		defer t.Stop()
		keepalive = t.Chan()
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Type", "image/png")
	header.Set("Content-Transfer-Encoding", "binary")

	for {
		body, err := d.frame()
		if err != nil {
			log.Error().Err(err).Msg("encoding frame failed")
			return
		}
		// Write errors end the stream; there is no way to report them inside
		// an image stream.
		if err := pw.writePart(header, body); err != nil {
			log.Debug().Err(err).Msg("write failed")
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		select {
		case <-c.refresh:
		case <-keepalive:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}

