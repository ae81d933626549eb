// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

// Named preset bundles: single-source-of-truth mappings from a name to a
// bundle of low-level Options, the same shape as the teacher's
// netopts.go (netKind -> (Protocol, ByteOrder) via defaultsFor), adapted
// from "which transport" to "which decode semantics".

// WithPythonSemantics configures the decoder to match the reference
// msgpack-python library's historical defaults: arrays as mutable
// sequences, str-family payloads left as raw bytes (no implicit text
// decoding), strict error policy if a StringEncoding is later added on top.
func WithPythonSemantics() Option {
	return func(o *Options) {
		o.UseList = true
		o.StringEncoding = nil
		o.DecodingErrors = ErrorsStrict
	}
}

// WithUTF8Strings configures str-family payloads to decode as UTF-8 text
// under the strict policy, and arrays as immutable Tuples (a common pairing
// for callers treating decoded values as read-only configuration/data
// trees rather than working lists).
func WithUTF8Strings() Option {
	return func(o *Options) {
		enc, _ := LookupStringEncoding("utf-8")
		o.StringEncoding = enc
		o.DecodingErrors = ErrorsStrict
		o.UseList = false
	}
}

// WithRawBinary configures every str-family and bin-family payload to
// surface as raw bytes: no StringEncoding, i.e. the wire's text/binary
// distinction is preserved in Value.Kind but never decoded to a Go string.
func WithRawBinary() Option {
	return func(o *Options) {
		o.StringEncoding = nil
	}
}
