package strcodec

import (
	"slices"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// escapeTable maps a byte to its short escape letter, 'u' for \u00XX, or 0 when the
// byte is copied verbatim.
var escapeTable = func() [256]byte {
	var table [256]byte
	for i := 0; i < 0x20; i++ {
		table[i] = 'u'
	}
	table['"'] = '"'
	table['\\'] = '\\'
	table['\b'] = 'b'
	table['\f'] = 'f'
	table['\n'] = 'n'
	table['\r'] = 'r'
	table['\t'] = 't'
	return table
}()

// NeedsEscape reports whether s holds a byte that must be escaped.
func NeedsEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		if escapeTable[s[i]] != 0 {
			return true
		}
	}
	return false
}

// AppendQuoted appends s as a quoted JSON string.
func AppendQuoted(dst []byte, s string) []byte {
	dst = slices.Grow(dst, len(s)+2)
	dst = append(dst, '"')
	dst = AppendEscaped(dst, s)
	return append(dst, '"')
}

// AppendEscaped appends the escaped body of s without quotes. Bytes outside the
// escape table, including any UTF-8, are copied verbatim.
func AppendEscaped(dst []byte, s string) []byte {
	start := 0
	for i := 0; i < len(s); i++ {
		esc := escapeTable[s[i]]
		if esc == 0 {
			continue
		}
		dst = append(dst, s[start:i]...)
		if esc == 'u' {
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[s[i]>>4], hexDigits[s[i]&0xF])
		} else {
			dst = append(dst, '\\', esc)
		}
		start = i + 1
	}
	return append(dst, s[start:]...)
}

// AppendQuotedRune appends one code point as a quoted string. Surrogate code points
// are written as \uXXXX escapes since UTF-8 cannot carry them.
func AppendQuotedRune(dst []byte, r rune) []byte {
	dst = append(dst, '"')
	switch {
	case r >= 0xD800 && r <= 0xDFFF:
		dst = appendUnitEscape(dst, uint16(r))
	case r < utf8.RuneSelf:
		var one [1]byte
		one[0] = byte(r)
		dst = AppendEscaped(dst, string(one[:]))
	default:
		dst = utf8.AppendRune(dst, r)
	}
	return append(dst, '"')
}

// AppendQuotedUnit16 appends one UTF-16 code unit as a quoted string.
func AppendQuotedUnit16(dst []byte, unit uint16) []byte {
	return AppendQuotedRune(dst, rune(unit))
}

// AppendQuotedUnit8 appends one Latin-1 code unit as a quoted string. Units from 0x80
// are escaped so the document carries the code point rather than a UTF-8 sequence.
func AppendQuotedUnit8(dst []byte, unit byte) []byte {
	if unit < utf8.RuneSelf {
		return AppendQuotedRune(dst, rune(unit))
	}
	dst = append(dst, '"')
	dst = appendUnitEscape(dst, uint16(unit))
	return append(dst, '"')
}

func appendUnitEscape(dst []byte, unit uint16) []byte {
	return append(dst, '\\', 'u',
		hexDigits[unit>>12&0xF], hexDigits[unit>>8&0xF], hexDigits[unit>>4&0xF], hexDigits[unit&0xF])
}
