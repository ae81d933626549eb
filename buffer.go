// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

// streamBuffer is the bounded internal buffer described in spec.md §4.3: a
// single contiguous byte region with head (read cursor) and tail (write
// cursor), plus a compact-or-grow policy that guarantees forward progress
// without unbounded memory use. It owns no knowledge of producers, retries,
// or decode state — those live in the coordinator (decoder.go), the same
// separation the teacher draws between internal.go's byte mechanics and
// framer.go's retry-driving wiring.
type streamBuffer struct {
	buf     []byte
	head    int
	tail    int
	maxSize int // hard cap on capacity; already resolved, never 0 here
}

func newStreamBuffer(maxSize int) *streamBuffer {
	return &streamBuffer{maxSize: maxSize}
}

// readableSlice returns the unread region [head, tail). The caller must not
// retain it across a call to append, which may reallocate or shift buf.
func (b *streamBuffer) readableSlice() []byte {
	return b.buf[b.head:b.tail]
}

// advance moves head forward by n, committing those bytes as consumed.
// n must be in [0, tail-head]; the coordinator is the only caller and
// always derives n from the decoder's own cursor, so this is not
// defensively clamped.
func (b *streamBuffer) advance(n int) {
	b.head += n
}

// unread reports how many bytes are currently buffered but not yet
// consumed.
func (b *streamBuffer) unread() int {
	return b.tail - b.head
}

// append implements spec.md §4.3's append policy: compact if the unread
// content plus the new bytes fit in the existing capacity, else grow to
// min(2×required, maxSize) or fail with ErrBufferFull if required itself
// exceeds maxSize. On allocation failure the old buffer is left intact
// (strong exception safety) and an *AllocationError is returned.
func (b *streamBuffer) append(src []byte) error {
	l := len(src)
	if l == 0 {
		return nil
	}
	if b.tail+l > len(b.buf) {
		unread := b.unread()
		required := unread + l
		if unread+l <= len(b.buf) {
			b.compact()
		} else {
			if required > b.maxSize {
				return ErrBufferFull
			}
			newCap := required * 2
			if newCap > b.maxSize {
				newCap = b.maxSize
			}
			if newCap < required {
				newCap = required
			}
			nb, err := safeAlloc(newCap)
			if err != nil {
				return newAllocationError(newCap)
			}
			copy(nb, b.buf[b.head:b.tail])
			b.buf = nb
			b.tail = unread
			b.head = 0
		}
	}
	copy(b.buf[b.tail:], src)
	b.tail += l
	return nil
}

// compact shifts unread bytes to the front of the existing buffer, freeing
// the consumed prefix without reallocating.
func (b *streamBuffer) compact() {
	if b.head == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.head:b.tail])
	b.head = 0
	b.tail = n
}

// safeAlloc recovers from an allocation-failure panic so append can report
// *AllocationError instead of crashing the process, per spec.md §4.3's
// strong-exception-safety requirement.
func safeAlloc(n int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrAllocationFailed
		}
	}()
	buf = make([]byte, n)
	return buf, nil
}
