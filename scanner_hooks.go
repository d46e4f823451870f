package shapejson

import (
	"bytes"

	"github.com/viant/shapejson/unmarshal"
)

// ScannerHooks contains block-scan hooks for decoder whitespace and token scans.
type ScannerHooks = unmarshal.ScannerHooks

// IndexScannerHooks locates quotes, escapes and structural bytes with the bytes package
// index functions, which scan whole words at a time.
type IndexScannerHooks struct{}

func (IndexScannerHooks) SkipWhitespace(data []byte, pos int) int {
	for pos < len(data) {
		switch data[pos] {
		case ' ', '\n', '\r', '\t':
			pos++
		default:
			return pos
		}
	}
	return pos
}

func (IndexScannerHooks) FindQuoteOrEscape(data []byte, pos int) (int, int) {
	if pos >= len(data) {
		return -1, -1
	}
	rest := data[pos:]
	quote := bytes.IndexByte(rest, '"')
	window := rest
	if quote >= 0 {
		window = rest[:quote]
	}
	if escape := bytes.IndexByte(window, '\\'); escape >= 0 {
		return -1, pos + escape
	}
	if quote >= 0 {
		return pos + quote, -1
	}
	return -1, -1
}

func (IndexScannerHooks) FindStructural(data []byte, pos int) int {
	if pos >= len(data) {
		return -1
	}
	if i := bytes.IndexAny(data[pos:], "{}[]:,"); i >= 0 {
		return pos + i
	}
	return -1
}
