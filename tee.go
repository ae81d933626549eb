// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

import "io"

// RawTee wraps a Decoder so that every byte consumed while decoding one
// value is, in the same step, relayed verbatim to dst — no separate
// destination copy is ever accumulated. Adapted from the teacher's
// Forwarder (forward.go): the "read" phase there is this decoder's own
// byte consumption, and the "write" phase is a direct io.Writer.Write of
// exactly those bytes. Retry rule mirrors Forwarder's: on error, call
// UnpackOne again on the same RawTee instance to resume.
type RawTee struct {
	d        *Decoder
	dst      io.Writer
	userSink TraceSink
	writeErr error
}

// NewRawTee wraps an existing Decoder, relaying the raw wire bytes of each
// decode step to dst. It installs its own TraceSink on d, chaining any
// TraceSink already configured via Options so both observers see every
// step. Do not drive d directly once wrapped; go through the RawTee.
func NewRawTee(d *Decoder, dst io.Writer) *RawTee {
	t := &RawTee{d: d, dst: dst, userSink: d.opts.TraceSink}
	d.opts.TraceSink = t.relay
	return t
}

func (t *RawTee) relay(b []byte) {
	if t.userSink != nil {
		t.userSink(b)
	}
	if t.writeErr != nil {
		return
	}
	if _, err := t.dst.Write(b); err != nil {
		t.writeErr = err
	}
}

// UnpackOne decodes the next value, relaying its raw wire bytes to dst as
// they are consumed. A dst write failure surfaces from this call even
// though decoding itself succeeded; the decoded value is still returned
// alongside the error.
func (t *RawTee) UnpackOne() (Value, error) {
	v, err := t.d.UnpackOne()
	if t.writeErr != nil {
		werr := t.writeErr
		t.writeErr = nil
		if err == nil {
			err = werr
		}
	}
	return v, err
}

// Feed forwards to the wrapped Decoder.
func (t *RawTee) Feed(p []byte) error { return t.d.Feed(p) }
