// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

// Wire tag boundaries, named rather than left as magic numbers (the
// teacher's own internal.go names its frame-header byte boundaries the same
// way: frameHeaderLen, framePayloadMaxLen8Bits, ...). See spec.md §4.1 for
// the full tag table this file encodes.
const (
	tagPosFixintMax = 0x7f
	tagNegFixintMin = 0xe0

	tagFixmapMin = 0x80
	tagFixmapMax = 0x8f
	tagFixmapN   = 0x0f

	tagFixarrayMin = 0x90
	tagFixarrayMax = 0x9f
	tagFixarrayN   = 0x0f

	tagFixstrMin = 0xa0
	tagFixstrMax = 0xbf
	tagFixstrN   = 0x1f

	tagNil     = 0xc0
	tagReserved = 0xc1 // unassigned; spec.md Non-goals exclude ext-tag compatibility
	tagFalse   = 0xc2
	tagTrue    = 0xc3

	tagBin8  = 0xc4
	tagBin16 = 0xc5
	tagBin32 = 0xc6

	// 0xc7..0xc9, 0xd4..0xd8 are the "ext" family (fixext1/2/4/8/16, ext
	// 8/16/32). spec.md's Non-goals explicitly exclude any backward-
	// compatible extension handling for non-MessagePack tags, so these fall
	// through to classify's default case (ErrUnrecognizedTag) like any other
	// unassigned byte.

	tagFloat32 = 0xca
	tagFloat64 = 0xcb

	tagUint8  = 0xcc
	tagUint16 = 0xcd
	tagUint32 = 0xce
	tagUint64 = 0xcf

	tagInt8  = 0xd0
	tagInt16 = 0xd1
	tagInt32 = 0xd2
	tagInt64 = 0xd3

	tagStr8  = 0xd9
	tagStr16 = 0xda
	tagStr32 = 0xdb

	tagArray16 = 0xdc
	tagArray32 = 0xdd

	tagMap16 = 0xde
	tagMap32 = 0xdf
)

// tagShape describes the shape of what follows a leading tag byte: how many
// additional "length" bytes precede the payload (if any) and how many fixed
// payload bytes follow directly. Whether the tag is a container header is
// reported separately by classify.
type tagShape struct {
	// lenBytes is the number of big-endian length-field bytes that follow
	// the tag before the payload (string/bin/array/map families). Zero for
	// fixed-size scalars and fixed-N containers, where N is encoded in the
	// tag itself.
	lenBytes int
	// fixedPayload is the number of payload bytes that follow the tag
	// directly for fixed-size scalars (bool/float/int families). Zero
	// otherwise.
	fixedPayload int
}

// classify reports everything startTag needs to know about a non-fixint,
// non-fixmap, non-fixarray, non-fixstr tag byte: whether it is recognized,
// and if so its shape. The fixed-range tags (positive/negative fixint,
// fixmap, fixarray, fixstr) are handled directly by their numeric ranges in
// decoder_core.go and never reach this table.
func classify(tag byte) (shape tagShape, isContainer bool, containerKind frameKind, ok bool) {
	switch tag {
	case tagNil, tagFalse, tagTrue:
		return tagShape{}, false, 0, true
	case tagUint8, tagInt8:
		return tagShape{fixedPayload: 1}, false, 0, true
	case tagUint16, tagInt16:
		return tagShape{fixedPayload: 2}, false, 0, true
	case tagFloat32, tagUint32, tagInt32:
		return tagShape{fixedPayload: 4}, false, 0, true
	case tagFloat64, tagUint64, tagInt64:
		return tagShape{fixedPayload: 8}, false, 0, true
	case tagBin8, tagStr8:
		return tagShape{lenBytes: 1}, false, 0, true
	case tagBin16, tagStr16:
		return tagShape{lenBytes: 2}, false, 0, true
	case tagBin32, tagStr32:
		return tagShape{lenBytes: 4}, false, 0, true
	case tagArray16:
		return tagShape{lenBytes: 2}, true, frameArray, true
	case tagArray32:
		return tagShape{lenBytes: 4}, true, frameArray, true
	case tagMap16:
		return tagShape{lenBytes: 2}, true, frameMap, true
	case tagMap32:
		return tagShape{lenBytes: 4}, true, frameMap, true
	default:
		return tagShape{}, false, 0, false
	}
}

// isStrTag reports whether tag denotes one of the str family (fixstr,
// str8/16/32); bin-family tags always emit raw bytes regardless of
// StringEncoding (spec.md §4.1 String handling).
func isStrTag(tag byte) bool {
	if tag >= tagFixstrMin && tag <= tagFixstrMax {
		return true
	}
	return tag == tagStr8 || tag == tagStr16 || tag == tagStr32
}
