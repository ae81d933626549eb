// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

import (
	"errors"
	"io"
	"runtime"
	"time"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock and ErrMore are the same control-flow sentinels the teacher
// re-exposes from code.hybscloud.com/iox (framer.go): "no bytes right now,
// call again" and "partial progress happened, more is coming on this same
// logical operation", respectively. A ByteProducer may return either in
// place of a hard error without being mistaken for end-of-stream (io.EOF).
var (
	ErrWouldBlock = iox.ErrWouldBlock
	ErrMore       = iox.ErrMore
)

// Decoder is the streaming decoder described in spec.md §6: a format
// decoder (core), a stream buffer, and a *Options binding them together,
// mirroring the teacher's Reader/Writer wrapping a *framer.
type Decoder struct {
	core *core
	buf  *streamBuffer
	opts *Options

	pushFed   bool // Feed has been called at least once
	exhausted bool // producer signaled end-of-stream (io.EOF or empty pull)
}

// New constructs a Decoder. It is either producer-backed (WithByteProducer)
// or push-fed (via Feed); mixing the two is rejected as a *ConfigError the
// first time the conflict is observed.
func New(opts ...Option) (*Decoder, error) {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.resolve(); err != nil {
		return nil, err
	}
	return &Decoder{
		core: newCore(&o),
		buf:  newStreamBuffer(o.effectiveMaxBufferSize()),
		opts: &o,
	}, nil
}

// Feed appends p to the internal stream buffer for push-mode use. It is a
// *ConfigError to call Feed on a producer-backed Decoder (spec.md §4.3
// "mutual exclusion").
func (d *Decoder) Feed(p []byte) error {
	if d.opts.ByteProducer != nil {
		return newConfigError("Feed: decoder is producer-backed (WithByteProducer configured)")
	}
	d.pushFed = true
	return d.buf.append(p)
}

// waitOnceOnWouldBlock mirrors the teacher's framer.waitOnceOnWouldBlock
// (internal.go): returns whether the caller should retry, sleeping or
// yielding per RetryDelay.
func (d *Decoder) waitOnceOnWouldBlock() bool {
	if d.opts.RetryDelay < 0 {
		return false
	}
	if d.opts.RetryDelay == 0 {
		runtime.Gosched()
		return true
	}
	time.Sleep(d.opts.RetryDelay)
	return true
}

// pull requests one round of bytes from the configured ByteProducer and
// appends whatever arrives, treating io.EOF and an empty, error-free result
// as end-of-stream (spec.md §4.3 "producer pull"). iox.ErrWouldBlock is
// retried per the RetryDelay policy, same as the teacher's readOnce.
func (d *Decoder) pull() (gotBytes bool, err error) {
	if d.opts.ByteProducer == nil || d.exhausted {
		return false, nil
	}
	for {
		p, perr := d.opts.ByteProducer()
		if len(p) > 0 {
			if aerr := d.buf.append(p); aerr != nil {
				return gotBytes, aerr
			}
			gotBytes = true
		}
		switch {
		case perr == nil:
			if len(p) == 0 {
				d.exhausted = true
			}
			return gotBytes, nil
		case errors.Is(perr, io.EOF):
			d.exhausted = true
			return gotBytes, nil
		case errors.Is(perr, iox.ErrWouldBlock):
			if gotBytes {
				return true, nil
			}
			if !d.waitOnceOnWouldBlock() {
				return false, ErrWouldBlock
			}
		default:
			return gotBytes, perr
		}
	}
}

// unpackEntry drives the coordinator loop from spec.md §4.4: invoke the
// core over the current unread window, hand consumed bytes to the trace
// sink, and on NEED_MORE either pull more from the producer or surface
// ErrOutOfData for a push-fed decoder waiting on the caller's next Feed.
func (d *Decoder) unpackEntry(mode entryMode) (Value, error) {
	for {
		window := d.buf.readableSlice()
		pos := 0
		v, complete, err := d.core.decodeEntry(window, &pos, mode)
		if pos > 0 {
			if d.opts.TraceSink != nil {
				d.opts.TraceSink(append([]byte(nil), window[:pos]...))
			}
			d.buf.advance(pos)
		}
		if err != nil {
			return Value{}, err
		}
		if complete {
			d.core.reset()
			return v, nil
		}
		if d.exhausted {
			return Value{}, ErrOutOfData
		}
		if d.opts.ByteProducer == nil {
			return Value{}, ErrOutOfData
		}
		got, perr := d.pull()
		if perr != nil {
			return Value{}, perr
		}
		if !got && !d.exhausted {
			return Value{}, ErrOutOfData
		}
	}
}

// UnpackOne decodes and returns the next complete value (spec.md §6
// unpack_one / decode_value).
func (d *Decoder) UnpackOne() (Value, error) {
	return d.unpackEntry(modeValue)
}

// SkipOne decodes and discards the next complete value.
func (d *Decoder) SkipOne() error {
	_, err := d.unpackEntry(modeValue)
	return err
}

// ReadArrayHeader consumes only the header of the next value, which must be
// an array, and returns its declared length.
func (d *Decoder) ReadArrayHeader() (uint64, error) {
	v, err := d.unpackEntry(modeArrayHeader)
	if err != nil {
		return 0, err
	}
	return v.Uint64, nil
}

// ReadMapHeader consumes only the header of the next value, which must be a
// map, and returns its declared pair count. The caller is then responsible
// for issuing 2N subsequent decodes.
func (d *Decoder) ReadMapHeader() (uint64, error) {
	v, err := d.unpackEntry(modeMapHeader)
	if err != nil {
		return 0, err
	}
	return v.Uint64, nil
}

// ReadRawBytes reads exactly n raw, undecoded bytes from the stream buffer,
// advancing head. Unlike UnpackOne it has no scalar-in-progress state of
// its own to resume from: if fewer than n bytes are currently buffered, no
// bytes are consumed and the call can simply be retried once more input
// arrives.
func (d *Decoder) ReadRawBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, wrapf(ErrInvalidPayload, "read_raw_bytes: negative length %d", n)
	}
	for {
		if d.buf.unread() >= n {
			window := d.buf.readableSlice()
			out := append([]byte(nil), window[:n]...)
			d.buf.advance(n)
			if d.opts.TraceSink != nil {
				d.opts.TraceSink(out)
			}
			return out, nil
		}
		if d.exhausted || d.opts.ByteProducer == nil {
			return nil, ErrOutOfData
		}
		got, err := d.pull()
		if err != nil {
			return nil, err
		}
		if !got && !d.exhausted {
			return nil, ErrOutOfData
		}
	}
}

// Next implements the iterator protocol named in spec.md §6: it behaves
// exactly like UnpackOne, except ErrOutOfData — ordinary mid-stream
// exhaustion — is reported as ErrStopIteration, the iterator-flavored
// spelling of the same condition (spec.md §7, §8 scenario 4).
func (d *Decoder) Next() (Value, error) {
	v, err := d.unpackEntry(modeValue)
	if errors.Is(err, ErrOutOfData) {
		return Value{}, ErrStopIteration
	}
	return v, err
}
