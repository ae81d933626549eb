// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/msgpack"
)

// scriptedProducer replays a fixed sequence of pulls, mirroring the
// teacher's scriptedReader (framer_test.go) adapted to the ByteProducer
// signature (func() ([]byte, error)) instead of io.Reader.
type scriptedProducer struct {
	steps []struct {
		b   []byte
		err error
	}
	step int
}

func (p *scriptedProducer) next() ([]byte, error) {
	if p.step >= len(p.steps) {
		return nil, nil
	}
	st := p.steps[p.step]
	p.step++
	return st.b, st.err
}

func TestDecode_Scenario1_FixarrayOfFixints(t *testing.T) {
	v, err := msgpack.Decode([]byte{0x93, 0x01, 0x02, 0x03})
	require.NoError(t, err)
	arr, ok := v.Array.([]msgpack.Value)
	require.True(t, ok)
	require.Len(t, arr, 3)
	assert.Equal(t, uint64(1), arr[0].Uint64)
	assert.Equal(t, uint64(2), arr[1].Uint64)
	assert.Equal(t, uint64(3), arr[2].Uint64)
}

func TestDecode_Scenario1_TupleWhenUseListFalse(t *testing.T) {
	v, err := msgpack.Decode([]byte{0x93, 0x01, 0x02, 0x03}, msgpack.WithUseList(false))
	require.NoError(t, err)
	tup, ok := v.Array.(msgpack.Tuple)
	require.True(t, ok)
	require.Len(t, tup, 3)
}

func TestDecode_Scenario2_MapWithUTF8StringEncoding(t *testing.T) {
	enc, ok := msgpack.LookupStringEncoding("utf-8")
	require.True(t, ok)
	v, err := msgpack.Decode(
		[]byte{0x82, 0xa1, 0x61, 0x01, 0xa1, 0x62, 0x02},
		msgpack.WithStringEncoding(enc),
	)
	require.NoError(t, err)
	m, ok := v.Map.(*msgpack.Map)
	require.True(t, ok)
	got, present := m.Get("a")
	require.True(t, present)
	assert.Equal(t, uint64(1), got.Uint64)
	got, present = m.Get("b")
	require.True(t, present)
	assert.Equal(t, uint64(2), got.Uint64)
}

func TestDecode_Scenario2_MapWithoutEncodingKeepsRawBytes(t *testing.T) {
	v, err := msgpack.Decode([]byte{0x82, 0xa1, 0x61, 0x01, 0xa1, 0x62, 0x02})
	require.NoError(t, err)
	m := v.Map.(*msgpack.Map)
	got, present := m.Get(string([]byte("a")))
	require.True(t, present)
	assert.Equal(t, uint64(1), got.Uint64)
}

func TestDecode_Scenario3_FixedWidthIntegers(t *testing.T) {
	v, err := msgpack.Decode([]byte{0xcd, 0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, uint64(256), v.Uint64)

	v, err = msgpack.Decode([]byte{0xd1, 0xff, 0x00})
	require.NoError(t, err)
	assert.Equal(t, int64(-256), v.Int64)
}

func TestDecode_Scenario5_ExtraDataAfterOneValue(t *testing.T) {
	_, err := msgpack.Decode([]byte{0xc0, 0xc3})
	var extra *msgpack.ExtraDataError
	require.ErrorAs(t, err, &extra)
	assert.Equal(t, msgpack.KindNil, extra.Value.Kind)
	assert.Equal(t, []byte{0xc3}, extra.Remainder)
}

func TestDecode_Scenario6_UnrecognizedTag(t *testing.T) {
	_, err := msgpack.Decode([]byte{0xc1})
	assert.ErrorIs(t, err, msgpack.ErrUnrecognizedTag)
}

func TestDecoder_Scenario4_SplitFeedYieldsStopIterationThenValue(t *testing.T) {
	d, err := msgpack.New()
	require.NoError(t, err)

	require.NoError(t, d.Feed([]byte{0x93, 0x01}))
	_, err = d.Next()
	assert.ErrorIs(t, err, msgpack.ErrStopIteration)

	require.NoError(t, d.Feed([]byte{0x02, 0x03}))
	v, err := d.Next()
	require.NoError(t, err)
	arr := v.Array.([]msgpack.Value)
	require.Len(t, arr, 3)
	assert.Equal(t, uint64(1), arr[0].Uint64)
	assert.Equal(t, uint64(2), arr[1].Uint64)
	assert.Equal(t, uint64(3), arr[2].Uint64)
}

func TestDecoder_FeedThenUnpackOneReportsOutOfDataNotStopIteration(t *testing.T) {
	d, err := msgpack.New()
	require.NoError(t, err)
	require.NoError(t, d.Feed([]byte{0x93, 0x01}))
	_, err = d.UnpackOne()
	assert.ErrorIs(t, err, msgpack.ErrOutOfData)
}

func TestDecoder_ByteProducerResumesAcrossWouldBlock(t *testing.T) {
	p := &scriptedProducer{steps: []struct {
		b   []byte
		err error
	}{
		{b: []byte{0x93, 0x01}},
		{err: iox.ErrWouldBlock},
		{b: []byte{0x02, 0x03}},
	}}
	d, err := msgpack.New(msgpack.WithByteProducer(p.next), msgpack.WithBlock())
	require.NoError(t, err)
	v, err := d.UnpackOne()
	require.NoError(t, err)
	arr := v.Array.([]msgpack.Value)
	require.Len(t, arr, 3)
	assert.Equal(t, uint64(3), arr[2].Uint64)
}

func TestDecoder_ByteProducerNonblockReturnsErrWouldBlock(t *testing.T) {
	p := &scriptedProducer{steps: []struct {
		b   []byte
		err error
	}{
		{b: []byte{0x93, 0x01}},
		{err: iox.ErrWouldBlock},
	}}
	d, err := msgpack.New(msgpack.WithByteProducer(p.next), msgpack.WithNonblock())
	require.NoError(t, err)
	_, err = d.UnpackOne()
	assert.ErrorIs(t, err, msgpack.ErrWouldBlock)
}

func TestDecoder_ByteProducerAndFeedAreMutuallyExclusive(t *testing.T) {
	d, err := msgpack.New(msgpack.WithByteProducer(func() ([]byte, error) { return nil, nil }))
	require.NoError(t, err)
	err = d.Feed([]byte{0x01})
	var cfgErr *msgpack.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestDecoder_ObjectHookAndObjectPairsHookMutuallyExclusive(t *testing.T) {
	_, err := msgpack.New(
		msgpack.WithObjectHook(func(*msgpack.Map) (any, error) { return nil, nil }),
		msgpack.WithObjectPairsHook(func(msgpack.Pairs) (any, error) { return nil, nil }),
	)
	var cfgErr *msgpack.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestDecode_ObjectHookReplacesDecodedMap(t *testing.T) {
	type point struct{ x, y uint64 }
	hook := func(m *msgpack.Map) (any, error) {
		x, _ := m.Get("x")
		y, _ := m.Get("y")
		return point{x: x.Uint64, y: y.Uint64}, nil
	}
	v, err := msgpack.Decode(
		[]byte{0x82, 0xa1, 0x78, 0x01, 0xa1, 0x79, 0x02},
		msgpack.WithStringEncoding(mustUTF8(t)),
		msgpack.WithObjectHook(hook),
	)
	require.NoError(t, err)
	assert.Equal(t, point{x: 1, y: 2}, v.Map)
}

func TestDecode_HookPanicBecomesHookError(t *testing.T) {
	hook := func(m *msgpack.Map) (any, error) { panic("boom") }
	_, err := msgpack.Decode([]byte{0x80}, msgpack.WithObjectHook(hook))
	var hookErr *msgpack.HookError
	require.ErrorAs(t, err, &hookErr)
}

func TestDecode_ObjectPairsHookSeesRawDuplicateKeys(t *testing.T) {
	var seen msgpack.Pairs
	hook := func(p msgpack.Pairs) (any, error) {
		seen = p
		return nil, nil
	}
	_, err := msgpack.Decode(
		[]byte{0x82, 0xa1, 0x61, 0x01, 0xa1, 0x61, 0x02},
		msgpack.WithStringEncoding(mustUTF8(t)),
		msgpack.WithObjectPairsHook(hook),
	)
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Equal(t, "a", seen[0].Key.Str)
	assert.Equal(t, "a", seen[1].Key.Str)
}

func TestWithPythonSemantics_ArraysAreMutableStringsRaw(t *testing.T) {
	v, err := msgpack.Decode([]byte{0x91, 0xa1, 0x61}, msgpack.WithPythonSemantics())
	require.NoError(t, err)
	arr, ok := v.Array.([]msgpack.Value)
	require.True(t, ok)
	require.Len(t, arr, 1)
	assert.Equal(t, []byte("a"), arr[0].Bin)
	assert.Empty(t, arr[0].Str)
}

func TestWithUTF8Strings_DecodesTextAndUsesTuples(t *testing.T) {
	v, err := msgpack.Decode([]byte{0x91, 0xa1, 0x61}, msgpack.WithUTF8Strings())
	require.NoError(t, err)
	tup, ok := v.Array.(msgpack.Tuple)
	require.True(t, ok)
	assert.Equal(t, "a", tup[0].Str)
}

func TestRawTee_RelaysExactConsumedBytes(t *testing.T) {
	d, err := msgpack.New()
	require.NoError(t, err)
	require.NoError(t, d.Feed([]byte{0x93, 0x01, 0x02, 0x03}))

	var relayed bytes.Buffer
	tee := msgpack.NewRawTee(d, &relayed)
	v, err := tee.UnpackOne()
	require.NoError(t, err)
	assert.Len(t, v.Array.([]msgpack.Value), 3)
	assert.Equal(t, []byte{0x93, 0x01, 0x02, 0x03}, relayed.Bytes())
}

func TestDecoder_ReadArrayHeaderThenElements(t *testing.T) {
	d, err := msgpack.New()
	require.NoError(t, err)
	require.NoError(t, d.Feed([]byte{0x93, 0x01, 0x02, 0x03}))
	n, err := d.ReadArrayHeader()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
	for _, want := range []uint64{1, 2, 3} {
		v, err := d.UnpackOne()
		require.NoError(t, err)
		assert.Equal(t, want, v.Uint64)
	}
}

func TestDecoder_ReadRawBytesResumesAcrossFeed(t *testing.T) {
	d, err := msgpack.New()
	require.NoError(t, err)
	require.NoError(t, d.Feed([]byte{0xde, 0xad}))
	_, err = d.ReadRawBytes(4)
	assert.ErrorIs(t, err, msgpack.ErrOutOfData)

	require.NoError(t, d.Feed([]byte{0xbe, 0xef}))
	raw, err := d.ReadRawBytes(4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, raw)
}

func TestDecoder_SkipOneConsumesWithoutReturningValue(t *testing.T) {
	d, err := msgpack.New()
	require.NoError(t, err)
	require.NoError(t, d.Feed([]byte{0x01, 0x02}))
	require.NoError(t, d.SkipOne())
	v, err := d.UnpackOne()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v.Uint64)
}

func mustUTF8(t *testing.T) encoding.Encoding {
	t.Helper()
	enc, ok := msgpack.LookupStringEncoding("utf-8")
	require.True(t, ok)
	return enc
}
