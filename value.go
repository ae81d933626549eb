// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

// Kind identifies which alternative of the Value tagged union is populated.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindBin
	KindStr
	KindArray
	KindMap
)

// Value is the decoded-value tagged union described in spec.md §3. Kind
// selects the meaningful field (Bin and Str both for an encoded KindStr).
// Integer width is minimized on
// decode to the narrowest exact representation by the wire tag; this type
// keeps the full 64-bit field regardless, since Go has no narrower general
// integer "value" type worth carrying around a tree.
type Value struct {
	Kind Kind

	Bool    bool
	Int64   int64
	Uint64  uint64
	Float32 float32
	Float64 float64

	// Bin holds raw bytes for KindBin, and the undecoded payload for
	// KindStr, whether or not a StringEncoding is configured.
	Bin []byte
	// Str holds decoded text for KindStr when a StringEncoding is
	// configured.
	Str string

	// Array holds the array payload for KindArray. It is a Tuple (wrapping
	// a slice but documented as immutable) when UseList is false, and a
	// bare mutable []Value when UseList is true; callers type-switch.
	Array any

	// Map holds the finished result for KindMap: either the return value of
	// ObjectPairsHook (if configured), the return value of ObjectHook
	// applied to a *Map (if configured), or a *Map.
	Map any
}

// Tuple is an immutable ordered sequence, used for arrays when UseList is
// false. Modeled on the ogórek decoder's Tuple []interface{} split between
// mutable and immutable Python sequence types.
type Tuple []Value

// Pair is one key-value entry of a decoded map, in wire order.
type Pair struct {
	Key   Value
	Value Value
}

// Pairs is the ordered list of key-value entries passed verbatim to
// ObjectPairsHook. Unlike Map, it preserves duplicate keys exactly as they
// appeared on the wire.
type Pairs []Pair

// Map is the default materialization of a decoded map when neither
// ObjectHook nor ObjectPairsHook is configured. Duplicate keys resolve
// last-value-wins while keeping the position of the key's first occurrence,
// matching ordinary dict-assignment semantics (spec.md §9 open question).
type Map struct {
	entries Pairs
	index   map[any]int // decoded key -> index into entries, for non-duplicate keys
}

func newMap(cap int) *Map {
	return &Map{entries: make(Pairs, 0, cap), index: make(map[any]int, cap)}
}

// frameKind distinguishes array and map container frames on the decoder's
// container stack.
type frameKind uint8

const (
	frameArray frameKind = iota
	frameMap
)

// frame is one container-in-progress, per spec.md §3's "Decoder state"
// container-frame record: kind, declared count, elements collected so far,
// and (for maps) whether a key is pending its value.
type frame struct {
	kind frameKind
	n    int // declared element count (array) or pair count (map)

	// collected elements, growing as children complete. For frameArray this
	// is the array payload directly; for frameMap these are Pair halves
	// accumulated two at a time.
	values []Value
	pairs  Pairs

	haveKey bool
	key     Value
}

func newArrayFrame(n int) *frame {
	return &frame{kind: frameArray, n: n, values: make([]Value, 0, minInt(n, maxPrealloc))}
}

func newMapFrame(n int) *frame {
	return &frame{kind: frameMap, n: n, pairs: make(Pairs, 0, minInt(n, maxPrealloc))}
}

// maxPrealloc bounds how much a single untrusted length field can make the
// decoder pre-allocate; spec.md §4.1's size-limits clause forbids sizing
// payload buffers directly off the wire. Frames beyond this just grow via
// append like any slice.
const maxPrealloc = 4096

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// full reports whether the frame has collected its declared number of
// children (spec.md §4.1 container policy: "if the frame is now full, pop
// it").
func (f *frame) full() bool {
	switch f.kind {
	case frameArray:
		return len(f.values) >= f.n
	default:
		return len(f.pairs) >= f.n
	}
}

// addChild attaches one completed child value to the frame, per spec.md
// §4.1's "on each completed child value" container policy.
func (f *frame) addChild(v Value) {
	switch f.kind {
	case frameArray:
		f.values = append(f.values, v)
	case frameMap:
		if !f.haveKey {
			f.key = v
			f.haveKey = true
			return
		}
		f.pairs = append(f.pairs, Pair{Key: f.key, Value: v})
		f.haveKey = false
	}
}

// buildMap materializes the default last-wins Map from an ordered pair
// list: a key's value is the last one seen on the wire, but its position in
// Pairs() is that of its first occurrence.
func buildMap(pairs Pairs) *Map {
	m := newMap(len(pairs))
	for _, p := range pairs {
		key, comparable := mapKey(p.Key)
		if comparable {
			if idx, ok := m.index[key]; ok {
				m.entries[idx].Value = p.Value
				continue
			}
		}
		m.entries = append(m.entries, p)
		if comparable {
			m.index[key] = len(m.entries) - 1
		}
	}
	return m
}

// mapKey converts a decoded key Value into a Go comparable usable as a map
// key. Keys that decode to non-comparable values (nested arrays/maps) are
// still stored in Pairs/entries in order but are not indexed for O(1)
// lookup; Len/Pairs iteration still sees them.
func mapKey(v Value) (any, bool) {
	switch v.Kind {
	case KindNil:
		return nil, true
	case KindBool:
		return v.Bool, true
	case KindInt64:
		return v.Int64, true
	case KindUint64:
		return v.Uint64, true
	case KindFloat32:
		return v.Float32, true
	case KindFloat64:
		return v.Float64, true
	case KindStr:
		if v.Str == "" && v.Bin != nil {
			return string(v.Bin), true
		}
		return v.Str, true
	case KindBin:
		return string(v.Bin), true
	default:
		return nil, false
	}
}

// Len returns the number of distinct entries after duplicate-key
// resolution.
func (m *Map) Len() int { return len(m.entries) }

// Pairs returns the resolved entries in first-occurrence order.
func (m *Map) Pairs() Pairs { return m.entries }

// Get looks up a key by its decoded Go value (as returned by mapKey);
// present is false both for "absent" and for non-comparable keys, which are
// never indexed.
func (m *Map) Get(key any) (Value, bool) {
	idx, ok := m.index[key]
	if !ok {
		return Value{}, false
	}
	return m.entries[idx].Value, true
}
