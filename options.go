// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

import (
	"math"
	"time"

	"golang.org/x/text/encoding"
)

// ByteProducer is the out-of-scope byte-source collaborator named in
// spec.md §1: a function that yields additional bytes on demand, or
// signals end-of-stream with io.EOF. It may also return (nil,
// iox.ErrWouldBlock) to mean "no bytes right now, call me again" without
// that being mistaken for end-of-stream — the same vocabulary the teacher's
// own transports use (code.hybscloud.com/iox).
type ByteProducer func() ([]byte, error)

// TraceSink receives exactly the raw wire bytes consumed by the most
// recent UnpackOne-equivalent step (spec.md §4.4 coordinator step 3), for
// wire-level debugging/auditing. It is never the sole copy of the bytes —
// RawTee (tee.go) should be used instead when the sink itself must own a
// verbatim forward of the stream.
type TraceSink func([]byte)

// Options configures decoding behavior.
type Options struct {
	// ByteProducer puts the Decoder in pull mode. Mutually exclusive with
	// feeding it directly via Decoder.Feed.
	ByteProducer ByteProducer

	// ReadSize is an upper-bound hint for how many bytes a single
	// ByteProducer pull should return. ByteProducer itself takes no size
	// argument, so this is never passed to it; it only bounds validation
	// against MaxBufferSize and documents the intended pull granularity for
	// callers implementing ByteProducer. Zero means "compute the default":
	// min(1<<20, effective MaxBufferSize).
	ReadSize int

	// MaxBufferSize caps the stream buffer's capacity. Zero means no cap
	// (treated as math.MaxInt).
	MaxBufferSize int

	// RetryDelay controls how the coordinator handles iox.ErrWouldBlock
	// from a ByteProducer:
	//   - negative: nonblock, return ErrWouldBlock immediately
	//   - zero: yield (runtime.Gosched) and retry
	//   - positive: sleep for the duration and retry
	RetryDelay time.Duration

	// UseList selects whether decoded arrays materialize as a mutable
	// []Value (true) or an immutable Tuple (false). Default true.
	UseList bool

	// ObjectHook is invoked with each completed map. Mutually exclusive
	// with ObjectPairsHook.
	ObjectHook ObjectHook
	// ObjectPairsHook is invoked with each completed map's raw pair list
	// instead of a *Map. Mutually exclusive with ObjectHook.
	ObjectPairsHook ObjectPairsHook
	// ListHook is invoked with each completed array.
	ListHook ListHook

	// StringEncoding, when non-nil, makes str-family payloads decode to
	// text (Value.Str) using this codec. When nil, str-family payloads stay
	// raw bytes (Value.Bin), same as bin-family.
	StringEncoding encoding.Encoding
	// DecodingErrors selects the error policy for StringEncoding. Default
	// ErrorsStrict.
	DecodingErrors DecodingErrors

	// TraceSink, when non-nil, is handed the raw bytes consumed by each
	// UnpackOne-equivalent step.
	TraceSink TraceSink
}

var defaultOptions = Options{
	ReadSize:       0, // resolved at construction, see effectiveReadSize
	MaxBufferSize:  0, // unbounded (math.MaxInt)
	RetryDelay:     -1,
	UseList:        true,
	DecodingErrors: ErrorsStrict,
}

// Option configures a Decoder at construction. The pattern mirrors the
// teacher's own Option func(*Options) (options.go).
type Option func(*Options)

// WithByteProducer puts the decoder in pull mode, sourcing bytes from fn on
// demand. Mutually exclusive with Feed; combining the two is a CONFIG_ERROR
// surfaced at the first conflicting call.
func WithByteProducer(fn ByteProducer) Option {
	return func(o *Options) { o.ByteProducer = fn }
}

// WithReadSize sets the ReadSize hint. It is checked against MaxBufferSize
// at construction but is not passed to the ByteProducer, so it does not
// limit how many bytes a single pull returns.
func WithReadSize(n int) Option {
	return func(o *Options) { o.ReadSize = n }
}

// WithMaxBufferSize caps the internal stream buffer's capacity.
func WithMaxBufferSize(n int) Option {
	return func(o *Options) { o.MaxBufferSize = n }
}

// WithRetryDelay sets the retry/wait policy used when a ByteProducer
// returns iox.ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.RetryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry) on
// iox.ErrWouldBlock.
func WithBlock() Option {
	return func(o *Options) { o.RetryDelay = 0 }
}

// WithNonblock forces non-blocking behavior (return iox.ErrWouldBlock
// immediately). Default.
func WithNonblock() Option {
	return func(o *Options) { o.RetryDelay = -1 }
}

// WithUseList selects mutable-slice (true) vs immutable-Tuple (false)
// array materialization.
func WithUseList(use bool) Option {
	return func(o *Options) { o.UseList = use }
}

// WithObjectHook sets the completed-map hook.
func WithObjectHook(hook ObjectHook) Option {
	return func(o *Options) { o.ObjectHook = hook }
}

// WithObjectPairsHook sets the completed-map-pairs hook.
func WithObjectPairsHook(hook ObjectPairsHook) Option {
	return func(o *Options) { o.ObjectPairsHook = hook }
}

// WithListHook sets the completed-array hook.
func WithListHook(hook ListHook) Option {
	return func(o *Options) { o.ListHook = hook }
}

// WithStringEncoding makes str-family payloads decode to text using enc.
func WithStringEncoding(enc encoding.Encoding) Option {
	return func(o *Options) { o.StringEncoding = enc }
}

// WithDecodingErrors sets the error policy used alongside StringEncoding.
func WithDecodingErrors(policy DecodingErrors) Option {
	return func(o *Options) { o.DecodingErrors = policy }
}

// WithTraceSink sets the raw-bytes-consumed trace callback.
func WithTraceSink(sink TraceSink) Option {
	return func(o *Options) { o.TraceSink = sink }
}

// resolve validates mutually-exclusive settings (CONFIG_ERROR, spec.md §7)
// and fills in the computed defaults (spec.md §9's read_size/max_buffer_size
// open question: read_size is resolved once here against the
// zero-means-MaxInt sentinel, not recomputed per pull).
func (o *Options) resolve() error {
	if o.ObjectHook != nil && o.ObjectPairsHook != nil {
		return newConfigError("object_hook and object_pairs_hook are mutually exclusive")
	}
	effectiveMax := o.MaxBufferSize
	if effectiveMax <= 0 {
		effectiveMax = math.MaxInt
	}
	if o.ReadSize <= 0 {
		o.ReadSize = minInt(1<<20, effectiveMax)
	}
	if o.ReadSize > effectiveMax {
		return newConfigError("read_size (%d) exceeds max_buffer_size (%d)", o.ReadSize, effectiveMax)
	}
	return nil
}

func (o *Options) effectiveMaxBufferSize() int {
	if o.MaxBufferSize <= 0 {
		return math.MaxInt
	}
	return o.MaxBufferSize
}
