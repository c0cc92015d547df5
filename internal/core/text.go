package core

// text.go normalizes text payloads before they are rendered.
//
// Every text value passes through two steps:
//
//   - Trim: strip leading and trailing ASCII spaces (only ' ', not tabs or
//     other whitespace; fixed-width CHAR columns are padded with spaces)
//   - Canonical: convert from the source's native encoding to UTF-8
//
// Strings returned by the driver are expected to be UTF-8 already and are only
// validated. Wide ([]uint16) payloads are decoded as UTF-16. Byte payloads are
// decoded with the configured source encoding (SOURCE_ENCODING).

import (
	"bytes"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultSourceEncoding is used when no source encoding is configured.
const DefaultSourceEncoding = "utf-8"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextNormalizer trims text values and converts them to UTF-8.
// A nil *TextNormalizer behaves like one configured for UTF-8.
type TextNormalizer struct {
	name string
	enc  encoding.Encoding // nil for UTF-8
	wide bool              // enc is UTF-16
	big  bool              // UTF-16 big endian
}

// NewTextNormalizer returns a normalizer for the named source encoding.
// Names are resolved with the WHATWG encoding index, so labels such as
// "utf-8", "windows-1252", "latin1" and "utf-16le" are accepted.
func NewTextNormalizer(sourceEncoding string) (*TextNormalizer, error) {
	if strings.TrimSpace(sourceEncoding) == "" {
		sourceEncoding = DefaultSourceEncoding
	}
	enc, err := htmlindex.Get(sourceEncoding)
	if err != nil {
		return nil, EncodingError("unknown source encoding %q", sourceEncoding)
	}
	name, _ := htmlindex.Name(enc)

	n := &TextNormalizer{name: name}
	switch name {
	case "utf-8":
		// pass-through, validated only
	case "utf-16le":
		n.wide = true
	case "utf-16be":
		n.wide, n.big = true, true
	default:
		n.enc = enc
	}
	return n, nil
}

// Name returns the canonical name of the source encoding.
func (n *TextNormalizer) Name() string {
	if n == nil || n.name == "" {
		return DefaultSourceEncoding
	}
	return n.name
}

// Trim removes leading and trailing ASCII spaces. An empty or all-space input
// yields "". Trim is idempotent and never lengthens s.
func Trim(s string) string {
	return strings.Trim(s, " ")
}

// trimWide is Trim over UTF-16 code units.
func trimWide(units []uint16) []uint16 {
	start, end := 0, len(units)
	for start < end && units[start] == ' ' {
		start++
	}
	for end > start && units[end-1] == ' ' {
		end--
	}
	return units[start:end]
}

// Canonical validates that s is well-formed UTF-8.
func (n *TextNormalizer) Canonical(s string) (string, error) {
	if isASCII(s) || utf8.ValidString(s) {
		return s, nil
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return "", EncodingError("invalid UTF-8 byte 0x%02x at offset %d", s[i], i)
		}
		i += size
	}
	return s, nil
}

// CanonicalWide decodes UTF-16 code units. An unpaired surrogate is an
// EncodingError; utf16.Decode would silently replace it.
func (n *TextNormalizer) CanonicalWide(units []uint16) (string, error) {
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		switch {
		case 0xD800 <= u && u < 0xDC00:
			if i+1 >= len(units) || !(0xDC00 <= units[i+1] && units[i+1] < 0xE000) {
				return "", EncodingError("unpaired high surrogate 0x%04x at index %d", u, i)
			}
			i++
		case 0xDC00 <= u && u < 0xE000:
			return "", EncodingError("unpaired low surrogate 0x%04x at index %d", u, i)
		}
	}
	return string(utf16.Decode(units)), nil
}

// CanonicalBytes decodes b from the source encoding. A leading byte order mark
// is dropped.
func (n *TextNormalizer) CanonicalBytes(b []byte) (string, error) {
	switch {
	case n == nil || (n.enc == nil && !n.wide):
		return n.Canonical(string(bytes.TrimPrefix(b, utf8BOM)))
	case n.wide:
		units, err := n.bytesToUnits(b)
		if err != nil {
			return "", err
		}
		return n.CanonicalWide(units)
	}

	out, err := n.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", EncodingError("decode %s: %v", n.name, err)
	}
	// Legacy code pages cannot encode U+FFFD, so its presence means the
	// decoder hit a byte sequence it could not map.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", EncodingError("invalid %s byte sequence", n.name)
	}
	return string(out), nil
}

func (n *TextNormalizer) bytesToUnits(b []byte) ([]uint16, error) {
	if len(b)%2 != 0 {
		return nil, EncodingError("odd-length %s payload (%d bytes)", n.name, len(b))
	}
	big := n.big
	if len(b) >= 2 {
		switch {
		case b[0] == 0xFF && b[1] == 0xFE:
			big, b = false, b[2:]
		case b[0] == 0xFE && b[1] == 0xFF:
			big, b = true, b[2:]
		}
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		if big {
			units[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
		} else {
			units[i] = uint16(b[2*i+1])<<8 | uint16(b[2*i])
		}
	}
	return units, nil
}

// NormalizeString trims s and converts it to the canonical encoding.
func (n *TextNormalizer) NormalizeString(s string) (string, error) {
	return n.Canonical(Trim(s))
}

// NormalizeWide trims units and converts them to the canonical encoding.
func (n *TextNormalizer) NormalizeWide(units []uint16) (string, error) {
	return n.CanonicalWide(trimWide(units))
}

// NormalizeBytes decodes b from the source encoding and trims the result.
func (n *TextNormalizer) NormalizeBytes(b []byte) (string, error) {
	s, err := n.CanonicalBytes(b)
	if err != nil {
		return "", err
	}
	return Trim(s), nil
}

// isASCII returns true if all bytes are ASCII (< 128).
// Fast path: most column data is plain ASCII.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
