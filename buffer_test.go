// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

import (
	"bytes"
	"testing"
)

func TestStreamBufferAppend_SimpleGrowth(t *testing.T) {
	b := newStreamBuffer(1 << 20)
	if err := b.append([]byte("hello")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := string(b.readableSlice()); got != "hello" {
		t.Fatalf("readableSlice = %q, want %q", got, "hello")
	}
}

func TestStreamBufferAppend_CompactsBeforeGrowing(t *testing.T) {
	b := newStreamBuffer(1 << 20)
	if err := b.append(make([]byte, 16)); err != nil {
		t.Fatalf("append: %v", err)
	}
	b.advance(12) // leaves 4 unread bytes, 12 bytes of consumed prefix
	capBefore := len(b.buf)

	// Appending a payload that fits once the consumed prefix is reclaimed
	// must compact in place rather than reallocate.
	if err := b.append(make([]byte, capBefore-4)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(b.buf) != capBefore {
		t.Fatalf("buffer reallocated on a compactable append: cap %d -> %d", capBefore, len(b.buf))
	}
	if b.head != 0 {
		t.Fatalf("head = %d after compaction, want 0", b.head)
	}
	if b.unread() != capBefore {
		t.Fatalf("unread = %d, want %d", b.unread(), capBefore)
	}
}

func TestStreamBufferAppend_CompactionPreservesContent(t *testing.T) {
	b := newStreamBuffer(1 << 20)
	payload := []byte("0123456789abcdef")
	if err := b.append(payload); err != nil {
		t.Fatalf("append: %v", err)
	}
	b.advance(6)
	want := append([]byte(nil), b.readableSlice()...)

	// Capacity is 32 with 10 unread bytes at [6, 16): 20 more bytes do not
	// fit at the tail but do fit once the consumed prefix is reclaimed.
	if err := b.append(make([]byte, 20)); err != nil {
		t.Fatalf("append: %v", err)
	}
	got := b.readableSlice()[:len(want)]
	if !bytes.Equal(got, want) {
		t.Fatalf("content mismatch after compaction: got %q, want %q", got, want)
	}
}

func TestStreamBufferAppend_GrowsWhenCompactionInsufficient(t *testing.T) {
	b := newStreamBuffer(1 << 20)
	if err := b.append(make([]byte, 8)); err != nil {
		t.Fatalf("append: %v", err)
	}
	// No bytes consumed, so compaction can't help; 8+16 bytes exceed the
	// 16-byte capacity of the first growth, so this must grow.
	if err := b.append(make([]byte, 16)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if b.unread() != 24 {
		t.Fatalf("unread = %d, want 24", b.unread())
	}
	if len(b.buf) < 24 {
		t.Fatalf("cap = %d, did not grow to fit", len(b.buf))
	}
}

func TestStreamBufferAppend_BufferFullWhenRequiredExceedsMax(t *testing.T) {
	b := newStreamBuffer(10)
	if err := b.append(make([]byte, 8)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := b.append(make([]byte, 8)); err != ErrBufferFull {
		t.Fatalf("append over max_buffer_size = %v, want ErrBufferFull", err)
	}
}

func TestStreamBufferAdvance_MonotonicAndBounded(t *testing.T) {
	b := newStreamBuffer(1 << 20)
	_ = b.append([]byte("abcdef"))
	b.advance(2)
	if b.head != 2 {
		t.Fatalf("head = %d, want 2", b.head)
	}
	b.advance(4)
	if b.head != b.tail {
		t.Fatalf("head = %d, tail = %d, want equal after consuming everything", b.head, b.tail)
	}
	if b.unread() != 0 {
		t.Fatalf("unread = %d, want 0", b.unread())
	}
}
