// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

// Decode implements spec.md §6's one-shot function: build a decoder over
// data, decode exactly one value, and fail with *ExtraDataError if any
// bytes remain afterward (the "unpack_all" contract in spec.md §4.4).
// WithByteProducer is meaningless here and rejected via the usual Feed/
// ByteProducer mutual-exclusion check, since Decode always push-feeds data.
func Decode(data []byte, opts ...Option) (Value, error) {
	d, err := New(opts...)
	if err != nil {
		return Value{}, err
	}
	if err := d.Feed(data); err != nil {
		return Value{}, err
	}
	v, err := d.UnpackOne()
	if err != nil {
		return Value{}, err
	}
	if d.buf.unread() > 0 {
		remainder := append([]byte(nil), d.buf.readableSlice()...)
		return v, &ExtraDataError{Value: v, Remainder: remainder}
	}
	return v, nil
}

// Unmarshal is Decode under the naming convention Go's encoding/* packages
// use for their one-shot entry points.
func Unmarshal(data []byte, opts ...Option) (Value, error) {
	return Decode(data, opts...)
}
