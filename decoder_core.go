// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

import (
	"encoding/binary"
	"math"
)

// entryMode selects which entry variant (spec.md §4.1) the current
// decodeEntry call is serving; skipping a value uses modeValue and discards
// the result (Decoder.SkipOne). It only changes how the very first
// tag byte of the call is interpreted; once a value starts cascading
// through nested containers, mode no longer matters.
type entryMode uint8

const (
	modeValue entryMode = iota
	modeArrayHeader
	modeMapHeader
)

// onComplete names what to do once the header/length-field bytes currently
// being accumulated in pendingScalar finish arriving.
type onComplete uint8

const (
	completeFixedScalar onComplete = iota
	completeStrOrBinLen
	completePushContainer
	completeReturnHeaderN
)

// pendingScalar is the "scalar-in-progress" state named in spec.md §3: a
// multi-byte scalar, string/bin length field, or string/bin payload whose
// bytes have not yet fully arrived. Exactly one can be in flight at a time,
// regardless of container nesting depth, mirroring internal.go's single
// fr.header/fr.length/fr.offset triple generalized to the full tag table.
type pendingScalar struct {
	active bool

	tag  byte
	next onComplete

	// header/length-field accumulation (0-8 bytes)
	hdr    [8]byte
	hdrLen int // bytes needed for the fixed scalar or the length field
	hdrGot int

	// string/bin payload accumulation, once length is known
	isStr      bool
	length     int64
	payload    []byte
	haveLength bool

	containerKind frameKind
}

// core is the resumable format decoder state machine: a pure function over
// (bytes, cursor, state) in spirit, with state reified as this struct's
// fields rather than call-stack/goroutine state, per spec.md §9's design
// note and the teacher's own internal.go state machine.
type core struct {
	stack   []*frame
	pending pendingScalar
	opts    *Options
}

func newCore(opts *Options) *core {
	return &core{opts: opts}
}

// reset clears decoder state after a COMPLETE outcome (spec.md §3: "after
// any COMPLETE, the container stack is empty").
func (c *core) reset() {
	c.stack = c.stack[:0]
	c.pending = pendingScalar{}
}

// step is what one trip around decodeEntry's loop produces.
type step struct {
	kind  stepKind
	value Value
}

type stepKind uint8

const (
	stepContinue stepKind = iota // state advanced, no value yet; loop again
	stepEmit                     // value is a completed leaf/container; feed to emit
	stepReturn                   // value is decodeEntry's direct return (header variants)
)

// decodeEntry advances the state machine by consuming a prefix of
// buf[*pos:], per the contract in spec.md §4.1. It returns:
//   - (value, true, nil)  — COMPLETE
//   - (Value{}, false, nil) — NEED_MORE (input exhausted, *pos left at the
//     last fully committed byte)
//   - (Value{}, false, err) — ERROR
func (c *core) decodeEntry(buf []byte, pos *int, mode entryMode) (Value, bool, error) {
	first := true
	for {
		var s step
		var err error

		if !c.pending.active {
			if *pos >= len(buf) {
				return Value{}, false, nil
			}
			tag := buf[*pos]
			*pos++
			s, err = c.startTag(tag, mode, first)
			first = false
		} else {
			done, derr := c.advancePending(buf, pos)
			if derr != nil {
				return Value{}, false, derr
			}
			if !done {
				return Value{}, false, nil
			}
			s, err = c.resolvePending(mode)
		}
		if err != nil {
			return Value{}, false, err
		}

		switch s.kind {
		case stepContinue:
			continue
		case stepReturn:
			return s.value, true, nil
		default: // stepEmit
			complete, eerr := c.emit(s.value)
			if eerr != nil {
				return Value{}, false, eerr
			}
			if complete != nil {
				return *complete, true, nil
			}
		}
	}
}

// startTag interprets one freshly-read tag byte.
func (c *core) startTag(tag byte, mode entryMode, first bool) (step, error) {
	switch {
	case tag <= tagPosFixintMax:
		if headerModeRejects(mode, first) {
			return step{}, wrongHeaderKindError(mode, "a scalar value")
		}
		return step{kind: stepEmit, value: Value{Kind: KindUint64, Uint64: uint64(tag)}}, nil
	case tag >= tagNegFixintMin:
		if headerModeRejects(mode, first) {
			return step{}, wrongHeaderKindError(mode, "a scalar value")
		}
		return step{kind: stepEmit, value: Value{Kind: KindInt64, Int64: int64(tag) - 0x100}}, nil
	case tag >= tagFixmapMin && tag <= tagFixmapMax:
		return c.startContainer(frameMap, int(tag&tagFixmapN), mode, first)
	case tag >= tagFixarrayMin && tag <= tagFixarrayMax:
		return c.startContainer(frameArray, int(tag&tagFixarrayN), mode, first)
	case tag >= tagFixstrMin && tag <= tagFixstrMax:
		if headerModeRejects(mode, first) {
			return step{}, wrongHeaderKindError(mode, "a string value")
		}
		return c.startStringPayload(int64(tag & tagFixstrN))
	}

	switch tag {
	case tagNil, tagFalse, tagTrue:
		if headerModeRejects(mode, first) {
			return step{}, wrongHeaderKindError(mode, "a scalar value")
		}
		switch tag {
		case tagNil:
			return step{kind: stepEmit, value: Value{Kind: KindNil}}, nil
		case tagFalse:
			return step{kind: stepEmit, value: Value{Kind: KindBool, Bool: false}}, nil
		default:
			return step{kind: stepEmit, value: Value{Kind: KindBool, Bool: true}}, nil
		}
	}

	shape, isContainer, containerKind, ok := classify(tag)
	if !ok {
		return step{}, ErrUnrecognizedTag
	}
	if isContainer {
		if mismatchedHeaderMode(mode, first, containerKind) {
			return step{}, wrongHeaderKindError(mode, frameKindName(containerKind))
		}
		c.pending = pendingScalar{
			active:        true,
			tag:           tag,
			next:          pendingNextForHeader(mode, first, containerKind),
			hdrLen:        shape.lenBytes,
			containerKind: containerKind,
		}
		return step{kind: stepContinue}, nil
	}
	if headerModeRejects(mode, first) {
		if shape.fixedPayload > 0 {
			return step{}, wrongHeaderKindError(mode, "a scalar value")
		}
		if isStrTag(tag) {
			return step{}, wrongHeaderKindError(mode, "a string value")
		}
		return step{}, wrongHeaderKindError(mode, "a binary value")
	}
	if shape.fixedPayload > 0 {
		c.pending = pendingScalar{active: true, tag: tag, next: completeFixedScalar, hdrLen: shape.fixedPayload}
		return step{kind: stepContinue}, nil
	}
	// str8/16/32 or bin8/16/32: read the length field first.
	c.pending = pendingScalar{active: true, tag: tag, next: completeStrOrBinLen, hdrLen: shape.lenBytes, isStr: isStrTag(tag)}
	return step{kind: stepContinue}, nil
}

// headerModeRejects reports whether the first tag of a modeArrayHeader/
// modeMapHeader call denotes something other than the expected container,
// per spec.md §4.1's "the next value, which must be an array/map" contract
// for read_array_header/read_map_header.
func headerModeRejects(mode entryMode, first bool) bool {
	return first && mode != modeValue
}

func pendingNextForHeader(mode entryMode, first bool, kind frameKind) onComplete {
	if first && ((mode == modeArrayHeader && kind == frameArray) || (mode == modeMapHeader && kind == frameMap)) {
		return completeReturnHeaderN
	}
	return completePushContainer
}

func mismatchedHeaderMode(mode entryMode, first bool, kind frameKind) bool {
	if !first || mode == modeValue {
		return false
	}
	if mode == modeArrayHeader && kind != frameArray {
		return true
	}
	if mode == modeMapHeader && kind != frameMap {
		return true
	}
	return false
}

func frameKindName(kind frameKind) string {
	if kind == frameMap {
		return "map"
	}
	return "array"
}

func wrongHeaderKindError(mode entryMode, got string) error {
	want := "array"
	if mode == modeMapHeader {
		want = "map"
	}
	return wrapf(ErrInvalidPayload, "expected %s header, got %s", want, got)
}

// startContainer handles fixmap/fixarray, whose count is encoded directly
// in the tag with no length field to wait for.
func (c *core) startContainer(kind frameKind, n int, mode entryMode, first bool) (step, error) {
	if mismatchedHeaderMode(mode, first, kind) {
		return step{}, wrongHeaderKindError(mode, frameKindName(kind))
	}
	if first && ((mode == modeArrayHeader && kind == frameArray) || (mode == modeMapHeader && kind == frameMap)) {
		return step{kind: stepReturn, value: Value{Kind: KindUint64, Uint64: uint64(n)}}, nil
	}
	if n == 0 {
		v, err := c.buildContainer(emptyFrame(kind))
		return step{kind: stepEmit, value: v}, err
	}
	c.stack = append(c.stack, newFrameOf(kind, n))
	return step{kind: stepContinue}, nil
}

func emptyFrame(kind frameKind) *frame {
	if kind == frameArray {
		return newArrayFrame(0)
	}
	return newMapFrame(0)
}

func newFrameOf(kind frameKind, n int) *frame {
	if kind == frameArray {
		return newArrayFrame(n)
	}
	return newMapFrame(n)
}

// startStringPayload handles fixstr, whose length is encoded directly in
// the tag with no length field to wait for.
func (c *core) startStringPayload(n int64) (step, error) {
	if n == 0 {
		v, err := c.finishStringOrBin(true, nil)
		return step{kind: stepEmit, value: v}, err
	}
	c.pending = pendingScalar{
		active: true, isStr: true, next: completeStrOrBinLen,
		length: n, haveLength: true,
		payload: make([]byte, 0, minInt64(n, maxPrealloc)),
	}
	return step{kind: stepContinue}, nil
}

func minInt64(a int64, b int) int64 {
	if a < int64(b) {
		return a
	}
	return int64(b)
}

// advancePending copies as many bytes as are available from buf[*pos:] into
// whichever accumulator (header or payload) is currently active. It reports
// done=true once the current stage's target byte count has been fully
// collected, resolving the length field and starting the payload stage
// in-line when needed.
func (c *core) advancePending(buf []byte, pos *int) (done bool, err error) {
	p := &c.pending

	if p.haveLength {
		return advanceInto(&p.payload, p.length, buf, pos), nil
	}

	need := p.hdrLen - p.hdrGot
	avail := len(buf) - *pos
	n := need
	if avail < n {
		n = avail
	}
	if n > 0 {
		copy(p.hdr[p.hdrGot:p.hdrGot+n], buf[*pos:*pos+n])
		*pos += n
		p.hdrGot += n
	}
	if p.hdrGot < p.hdrLen {
		return false, nil
	}
	if p.next != completeStrOrBinLen && p.next != completePushContainer && p.next != completeReturnHeaderN {
		return true, nil
	}
	// The length field itself just finished; resolve it and, for
	// string/bin, start the payload stage immediately with whatever bytes
	// remain in buf.
	p.length = int64(parseUintField(p.hdr[:p.hdrLen]))
	if p.next == completePushContainer || p.next == completeReturnHeaderN {
		return true, nil
	}
	p.haveLength = true
	if p.length == 0 {
		return true, nil
	}
	p.payload = make([]byte, 0, minInt64(p.length, maxPrealloc))
	return advanceInto(&p.payload, p.length, buf, pos), nil
}

// advanceInto appends as many of the needed bytes as are available in
// buf[*pos:] to *payload, advancing *pos, and reports whether the target
// length has now been fully collected.
func advanceInto(payload *[]byte, target int64, buf []byte, pos *int) bool {
	need := target - int64(len(*payload))
	avail := int64(len(buf) - *pos)
	n := need
	if avail < n {
		n = avail
	}
	if n > 0 {
		*payload = append(*payload, buf[*pos:*pos+int(n)]...)
		*pos += int(n)
	}
	return int64(len(*payload)) >= target
}

func parseUintField(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	case 8:
		return binary.BigEndian.Uint64(b)
	default:
		return 0
	}
}

// resolvePending interprets a just-completed pendingScalar.
func (c *core) resolvePending(mode entryMode) (step, error) {
	p := c.pending
	c.pending = pendingScalar{}

	switch p.next {
	case completeFixedScalar:
		v, err := decodeFixedScalar(p.tag, p.hdr[:p.hdrLen])
		return step{kind: stepEmit, value: v}, err
	case completeStrOrBinLen:
		v, err := c.finishStringOrBin(p.isStr, p.payload)
		return step{kind: stepEmit, value: v}, err
	case completeReturnHeaderN:
		return step{kind: stepReturn, value: Value{Kind: KindUint64, Uint64: uint64(p.length)}}, nil
	case completePushContainer:
		n := int(p.length)
		if n == 0 {
			v, err := c.buildContainer(emptyFrame(p.containerKind))
			return step{kind: stepEmit, value: v}, err
		}
		c.stack = append(c.stack, newFrameOf(p.containerKind, n))
		return step{kind: stepContinue}, nil
	}
	return step{}, nil
}

func (c *core) finishStringOrBin(isStr bool, raw []byte) (Value, error) {
	if isStr {
		v := Value{Kind: KindStr, Bin: raw}
		if c.opts.StringEncoding != nil {
			s, err := decodeText(raw, c.opts.StringEncoding, c.opts.DecodingErrors)
			if err != nil {
				return Value{}, err
			}
			v.Str = s
		}
		return v, nil
	}
	return Value{Kind: KindBin, Bin: raw}, nil
}

func decodeFixedScalar(tag byte, b []byte) (Value, error) {
	switch tag {
	case tagUint8:
		return Value{Kind: KindUint64, Uint64: uint64(b[0])}, nil
	case tagUint16:
		return Value{Kind: KindUint64, Uint64: uint64(binary.BigEndian.Uint16(b))}, nil
	case tagUint32:
		return Value{Kind: KindUint64, Uint64: uint64(binary.BigEndian.Uint32(b))}, nil
	case tagUint64:
		return Value{Kind: KindUint64, Uint64: binary.BigEndian.Uint64(b)}, nil
	case tagInt8:
		return Value{Kind: KindInt64, Int64: int64(int8(b[0]))}, nil
	case tagInt16:
		return Value{Kind: KindInt64, Int64: int64(int16(binary.BigEndian.Uint16(b)))}, nil
	case tagInt32:
		return Value{Kind: KindInt64, Int64: int64(int32(binary.BigEndian.Uint32(b)))}, nil
	case tagInt64:
		return Value{Kind: KindInt64, Int64: int64(binary.BigEndian.Uint64(b))}, nil
	case tagFloat32:
		return Value{Kind: KindFloat32, Float32: math.Float32frombits(binary.BigEndian.Uint32(b))}, nil
	case tagFloat64:
		return Value{Kind: KindFloat64, Float64: math.Float64frombits(binary.BigEndian.Uint64(b))}, nil
	default:
		return Value{}, ErrUnrecognizedTag
	}
}

// emit attaches v to the top-of-stack frame, cascading container completion
// up through any number of ancestor frames (spec.md §4.1's "cascading"
// container policy). It returns a non-nil *Value exactly when the root
// value has been fully built.
func (c *core) emit(v Value) (*Value, error) {
	for {
		if len(c.stack) == 0 {
			return &v, nil
		}
		top := c.stack[len(c.stack)-1]
		top.addChild(v)
		if !top.full() {
			return nil, nil
		}
		c.stack = c.stack[:len(c.stack)-1]
		built, err := c.buildContainer(top)
		if err != nil {
			return nil, err
		}
		v = built
	}
}

func (c *core) buildContainer(f *frame) (Value, error) {
	if f.kind == frameArray {
		return c.buildArray(f.values)
	}
	return c.buildMapValue(f.pairs)
}

func (c *core) buildArray(values []Value) (Value, error) {
	var arr any
	if c.opts.UseList {
		arr = values
	} else {
		arr = Tuple(values)
	}
	if c.opts.ListHook != nil {
		replaced, err := callListHook(c.opts.ListHook, arr)
		if err != nil {
			return Value{}, err
		}
		arr = replaced
	}
	return Value{Kind: KindArray, Array: arr}, nil
}

func (c *core) buildMapValue(pairs Pairs) (Value, error) {
	if c.opts.ObjectPairsHook != nil {
		replaced, err := callPairsHook(c.opts.ObjectPairsHook, pairs)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindMap, Map: replaced}, nil
	}
	m := buildMap(pairs)
	var result any = m
	if c.opts.ObjectHook != nil {
		replaced, err := callObjectHook(c.opts.ObjectHook, m)
		if err != nil {
			return Value{}, err
		}
		result = replaced
	}
	return Value{Kind: KindMap, Map: result}, nil
}
