package strcodec

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/viant/shapejson/jsonerr"
)

// Width is the code unit width of a decode target.
type Width uint8

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
)

const (
	surrogateMin     = 0xD800
	highSurrogateMax = 0xDBFF
	lowSurrogateMin  = 0xDC00
	surrogateMax     = 0xDFFF
)

// Unescape appends the decoded UTF-8 form of raw, the body of a JSON string without
// quotes, to dst. On failure it returns the error code and the index in raw where the
// offending escape starts.
func Unescape(dst []byte, raw []byte) ([]byte, jsonerr.Code, int) {
	start := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' {
			continue
		}
		dst = append(dst, raw[start:i]...)
		unit, next, code := decodeEscape(raw, i)
		if code != jsonerr.None {
			return dst, code, i
		}
		if unit >= surrogateMin && unit <= surrogateMax {
			r, after, ok := combineSurrogate(raw, unit, next)
			if !ok {
				return dst, jsonerr.UnicodeEscapeConversionFailure, i
			}
			dst = utf8.AppendRune(dst, r)
			next = after
		} else {
			dst = utf8.AppendRune(dst, unit)
		}
		i = next - 1
		start = next
	}
	return append(dst, raw[start:]...), jsonerr.None, 0
}

// UnescapeUnits decodes raw into code units of the given width, calling emit for each.
// Width16 keeps unpaired surrogates as raw units; Width8 emits UTF-8 bytes.
func UnescapeUnits(raw []byte, width Width, emit func(unit uint32)) (jsonerr.Code, int) {
	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '\\' {
			if width == Width8 || c < utf8.RuneSelf {
				emit(uint32(c))
				i++
				continue
			}
			r, size := utf8.DecodeRune(raw[i:])
			emitRune(r, width, emit)
			i += size
			continue
		}
		unit, next, code := decodeEscape(raw, i)
		if code != jsonerr.None {
			return code, i
		}
		if unit >= surrogateMin && unit <= surrogateMax {
			if r, after, ok := combineSurrogate(raw, unit, next); ok {
				emitRune(r, width, emit)
				i = after
				continue
			}
			if width != Width16 {
				return jsonerr.UnicodeEscapeConversionFailure, i
			}
			emit(uint32(unit))
			i = next
			continue
		}
		emitRune(unit, width, emit)
		i = next
	}
	return jsonerr.None, 0
}

func emitRune(r rune, width Width, emit func(uint32)) {
	switch width {
	case Width8:
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		for _, b := range buf[:n] {
			emit(uint32(b))
		}
	case Width16:
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			emit(uint32(r1))
			emit(uint32(r2))
			return
		}
		emit(uint32(r))
	default:
		emit(uint32(r))
	}
}

// decodeEscape decodes the escape starting at raw[i] == '\\'. For \u escapes the
// returned unit is the raw UTF-16 code unit.
func decodeEscape(raw []byte, i int) (rune, int, jsonerr.Code) {
	if i+1 >= len(raw) {
		return 0, 0, jsonerr.InvalidEscape
	}
	switch raw[i+1] {
	case '"', '\\', '/':
		return rune(raw[i+1]), i + 2, jsonerr.None
	case 'b':
		return '\b', i + 2, jsonerr.None
	case 'f':
		return '\f', i + 2, jsonerr.None
	case 'n':
		return '\n', i + 2, jsonerr.None
	case 'r':
		return '\r', i + 2, jsonerr.None
	case 't':
		return '\t', i + 2, jsonerr.None
	case 'u':
		unit, ok := ParseHex4(raw[i+2:])
		if !ok {
			return 0, 0, jsonerr.URequiresHexDigits
		}
		return unit, i + 6, jsonerr.None
	}
	return 0, 0, jsonerr.InvalidEscape
}

// combineSurrogate pairs a high surrogate with a following \u low surrogate.
func combineSurrogate(raw []byte, high rune, next int) (rune, int, bool) {
	if high > highSurrogateMax {
		return 0, 0, false
	}
	if next+6 > len(raw) || raw[next] != '\\' || raw[next+1] != 'u' {
		return 0, 0, false
	}
	low, ok := ParseHex4(raw[next+2:])
	if !ok || low < lowSurrogateMin || low > surrogateMax {
		return 0, 0, false
	}
	return utf16.DecodeRune(high, low), next + 6, true
}

// ParseHex4 parses the first four bytes of b as a hexadecimal code unit.
func ParseHex4(b []byte) (rune, bool) {
	if len(b) < 4 {
		return 0, false
	}
	var v rune
	for _, c := range b[:4] {
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | rune(c-'0')
		case c >= 'a' && c <= 'f':
			v = v<<4 | rune(c-'a'+10)
		case c >= 'A' && c <= 'F':
			v = v<<4 | rune(c-'A'+10)
		default:
			return 0, false
		}
	}
	return v, true
}
