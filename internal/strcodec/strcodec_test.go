package strcodec

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/shapejson/jsonerr"
)

func TestUnescape(t *testing.T) {
	testCases := []struct {
		description string
		raw         string
		expect      string
		code        jsonerr.Code
		at          int
	}{
		{description: "plain", raw: "abc", expect: "abc"},
		{description: "short escapes", raw: `a\"b\\c\/d\b\f\n\r\t`, expect: "a\"b\\c/d\b\f\n\r\t"},
		{description: "unicode", raw: `\u0041`, expect: "A"},
		{description: "utf8 passthrough", raw: "zażółć", expect: "zażółć"},
		{description: "surrogate pair", raw: `\uD83D\uDE00!`, expect: "😀!"},
		{description: "lone high surrogate", raw: `x\uD800`, code: jsonerr.UnicodeEscapeConversionFailure, at: 1},
		{description: "high then non low", raw: `\uD800A`, code: jsonerr.UnicodeEscapeConversionFailure},
		{description: "lone low surrogate", raw: `\uDC00`, code: jsonerr.UnicodeEscapeConversionFailure},
		{description: "short hex", raw: `ab\u12`, code: jsonerr.URequiresHexDigits, at: 2},
		{description: "non hex", raw: `\u12G4`, code: jsonerr.URequiresHexDigits},
		{description: "bad escape", raw: `\x`, code: jsonerr.InvalidEscape},
		{description: "dangling backslash", raw: `abc\`, code: jsonerr.InvalidEscape, at: 3},
	}
	for _, testCase := range testCases {
		actual, code, at := Unescape(nil, []byte(testCase.raw))
		if !assert.Equal(t, testCase.code, code, testCase.description) {
			continue
		}
		if code != jsonerr.None {
			assert.Equal(t, testCase.at, at, testCase.description)
			continue
		}
		assert.Equal(t, testCase.expect, string(actual), testCase.description)
	}
}

func TestUnescapeUnits(t *testing.T) {
	collect := func(raw string, width Width) ([]uint32, jsonerr.Code) {
		var units []uint32
		code, _ := UnescapeUnits([]byte(raw), width, func(unit uint32) { units = append(units, unit) })
		return units, code
	}

	units, code := collect(`\uD800`, Width16)
	require.Equal(t, jsonerr.None, code)
	assert.Equal(t, []uint32{0xD800}, units, "16-bit targets hold a raw surrogate")

	_, code = collect(`\uD800`, Width32)
	assert.Equal(t, jsonerr.UnicodeEscapeConversionFailure, code)
	_, code = collect(`\uD800`, Width8)
	assert.Equal(t, jsonerr.UnicodeEscapeConversionFailure, code)

	units, code = collect(`\uD83D\uDE00`, Width16)
	require.Equal(t, jsonerr.None, code)
	assert.Equal(t, []uint32{0xD83D, 0xDE00}, units)

	units, code = collect("😀", Width32)
	require.Equal(t, jsonerr.None, code)
	assert.Equal(t, []uint32{0x1F600}, units)

	units, code = collect("é", Width8)
	require.Equal(t, jsonerr.None, code)
	assert.Equal(t, []uint32{0xC3, 0xA9}, units)
}

func TestAppendQuoted(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		expect      string
	}{
		{description: "plain", input: "abc", expect: `"abc"`},
		{description: "quote and backslash", input: `a"b\c`, expect: `"a\"b\\c"`},
		{description: "short controls", input: "\b\f\n\r\t", expect: `"\b\f\n\r\t"`},
		{description: "other controls", input: "\x00\x1f", expect: `"\u0000\u001f"`},
		{description: "utf8 verbatim", input: "ß<>&", expect: `"ß<>&"`},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, string(AppendQuoted(nil, testCase.input)), testCase.description)
		assert.Equal(t, testCase.input != "abc" && testCase.input != "ß<>&", NeedsEscape(testCase.input), testCase.description)
	}
}

func TestRoundTrip_AllScalarValues(t *testing.T) {
	buf := make([]byte, 0, 16)
	for r := rune(0); r <= utf8.MaxRune; r++ {
		if r >= surrogateMin && r <= surrogateMax {
			continue
		}
		s := string(r)
		buf = AppendEscaped(buf[:0], s)
		decoded, code, _ := Unescape(nil, buf)
		if code != jsonerr.None || string(decoded) != s {
			t.Fatalf("round trip failed for %U: %v %q", r, code, decoded)
		}
	}
}

func TestAppendQuotedRune(t *testing.T) {
	assert.Equal(t, `"A"`, string(AppendQuotedRune(nil, 'A')))
	assert.Equal(t, `"\n"`, string(AppendQuotedRune(nil, '\n')))
	assert.Equal(t, `"😀"`, string(AppendQuotedRune(nil, '😀')))
	assert.Equal(t, `"\ud800"`, string(AppendQuotedUnit16(nil, 0xD800)))
	assert.Equal(t, `"z"`, string(AppendQuotedUnit8(nil, 'z')))
	assert.Equal(t, `"\u00e9"`, string(AppendQuotedUnit8(nil, 0xE9)))

	var units []uint32
	code, _ := UnescapeUnits(AppendQuotedUnit16(nil, 0xD800)[1:7], Width16, func(u uint32) { units = append(units, u) })
	require.Equal(t, jsonerr.None, code)
	assert.Equal(t, []uint32{0xD800}, units)
}
