// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodingErrors selects the error policy applied when raw str-family bytes
// cannot be decoded under the configured StringEncoding (spec.md §4.1
// "String handling").
type DecodingErrors uint8

const (
	// ErrorsStrict fails the decode with ErrInvalidPayload on the first
	// invalid byte sequence. Default.
	ErrorsStrict DecodingErrors = iota
	// ErrorsReplace substitutes U+FFFD for invalid sequences and continues.
	ErrorsReplace
	// ErrorsIgnore drops invalid sequences and continues.
	ErrorsIgnore
)

// LookupStringEncoding resolves a Python-style codec name ("utf-8",
// "utf-16", "latin-1", "shift_jis", ...) to a golang.org/x/text
// encoding.Encoding, for use with WithStringEncoding. It covers the
// encodings callers are most likely to name; for anything else, pass an
// encoding.Encoding directly.
func LookupStringEncoding(name string) (encoding.Encoding, bool) {
	switch normalizeEncodingName(name) {
	case "utf8", "utf-8", "u8":
		return unicode.UTF8, true
	case "utf16", "utf-16":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), true
	case "utf16le", "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), true
	case "utf16be", "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), true
	case "latin1", "latin-1", "iso-8859-1", "8859-1":
		return charmap.ISO8859_1, true
	case "shiftjis", "shift_jis", "sjis":
		return japanese.ShiftJIS, true
	default:
		return nil, false
	}
}

func normalizeEncodingName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '_' || r == ' ' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}

// decodeText decodes raw str-family payload bytes per enc and policy.
//
// encoding.ReplaceUnsupported only wraps an Encoding's *encoder* (it
// substitutes U+FFFD for runes the target charset can't represent on the
// way out); it leaves the decoder untouched, so it is no help for invalid
// bytes arriving on the way in. "replace" and "ignore" are therefore both
// implemented the same way here: resynchronize past whatever prefix the
// decoder rejects, either substituting U+FFFD (replace) or dropping it
// (ignore).
func decodeText(raw []byte, enc encoding.Encoding, policy DecodingErrors) (string, error) {
	switch policy {
	case ErrorsReplace:
		return decodeResyncing(enc.NewDecoder(), raw, true), nil
	case ErrorsIgnore:
		return decodeResyncing(enc.NewDecoder(), raw, false), nil
	default: // ErrorsStrict
		out, _, err := transform.Bytes(enc.NewDecoder(), raw)
		if err != nil {
			return "", wrapf(ErrInvalidPayload, "decoding_errors=strict: %v", err)
		}
		return string(out), nil
	}
}

// decodeResyncing decodes raw, and on the first byte the decoder rejects,
// either substitutes U+FFFD (replace) or drops it (ignore) and resumes
// decoding from the next byte. str payloads are bounded (spec.md size
// limits), so this stays a single pass in the common all-valid case.
func decodeResyncing(dec *encoding.Decoder, raw []byte, substitute bool) string {
	var out bytes.Buffer
	for len(raw) > 0 {
		s, n, err := transform.Bytes(dec, raw)
		out.Write(s)
		if err == nil {
			break
		}
		if n >= len(raw) {
			break
		}
		if substitute {
			out.WriteRune(utf8.RuneError)
		}
		raw = raw[n+1:]
		dec.Reset()
	}
	return out.String()
}
