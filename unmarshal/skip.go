package unmarshal

import (
	"github.com/viant/shapejson/internal/strcodec"
	"github.com/viant/shapejson/jsonerr"
)

// skipValue consumes one value of any shape.
func (d *decoder) skipValue() error {
	c, err := d.next()
	if err != nil {
		return err
	}
	switch c {
	case '{':
		return d.skipObject()
	case '[':
		return d.skipArray()
	case '"':
		return d.skipString()
	case 't':
		return d.literal("true", jsonerr.SyntaxError)
	case 'f':
		return d.literal("false", jsonerr.SyntaxError)
	case 'n':
		return d.literal("null", jsonerr.SyntaxError)
	}
	if c == '-' || (c >= '0' && c <= '9') {
		_, err = d.numberSpan()
		return err
	}
	return d.fail(jsonerr.SyntaxError)
}

func (d *decoder) skipObject() error {
	if err := d.openObject(); err != nil {
		return err
	}
	c, err := d.next()
	if err != nil {
		return err
	}
	if c == '}' {
		d.pos++
		d.leave()
		return nil
	}
	for {
		if c, err = d.next(); err != nil {
			return err
		}
		if c != '"' {
			return d.fail(jsonerr.SyntaxError)
		}
		if err = d.skipString(); err != nil {
			return err
		}
		if err = d.expect(':', jsonerr.ExpectedColon); err != nil {
			return err
		}
		if err = d.skipValue(); err != nil {
			return err
		}
		done, err := d.objectSeparator()
		if err != nil {
			return err
		}
		if done {
			d.leave()
			return nil
		}
	}
}

func (d *decoder) skipArray() error {
	if err := d.openArray(); err != nil {
		return err
	}
	c, err := d.next()
	if err != nil {
		return err
	}
	if c == ']' {
		d.pos++
		d.leave()
		return nil
	}
	for {
		if err = d.skipValue(); err != nil {
			return err
		}
		done, err := d.arraySeparator()
		if err != nil {
			return err
		}
		if done {
			d.leave()
			return nil
		}
	}
}

// skipString consumes the string at the current quote. Escapes are only validated
// under conformance.
func (d *decoder) skipString() error {
	start := d.pos + 1
	end, escaped, err := d.stringEnd(start)
	if err != nil {
		return err
	}
	if d.cfg.ForceConformance {
		raw := d.data[start:end]
		if err = d.checkControl(raw, start); err != nil {
			return err
		}
		if escaped {
			var code jsonerr.Code
			var at int
			if d.strBuf, code, at = strcodec.Unescape(d.strBuf[:0], raw); code != jsonerr.None {
				return d.failAt(code, start+at)
			}
		}
	}
	d.pos = end + 1
	return nil
}

// stringEnd returns the index of the quote closing the string body that starts at
// start and whether the body holds escapes.
func (d *decoder) stringEnd(start int) (int, bool, error) {
	quote, escape := d.hooks.FindQuoteOrEscape(d.data, start)
	if quote >= 0 {
		return quote, false, nil
	}
	if escape < 0 {
		return 0, false, d.failAt(jsonerr.UnexpectedEnd, len(d.data))
	}
	for i := escape; i < len(d.data); {
		switch d.data[i] {
		case '\\':
			i += 2
		case '"':
			return i, true, nil
		default:
			i++
		}
	}
	return 0, true, d.failAt(jsonerr.UnexpectedEnd, len(d.data))
}

// countElements returns an upper bound of the element count of the array whose first
// element starts at the current position. The input is not validated.
func (d *decoder) countElements() int {
	data := d.data
	count, depth := 1, 0
	quote := -2
	for i := d.pos; i < len(data); {
		if quote != -1 && quote < i {
			q, e := d.hooks.FindQuoteOrEscape(data, i)
			quote = max(q, e)
		}
		s := d.hooks.FindStructural(data, i)
		if s < 0 {
			return count
		}
		if quote >= 0 && quote < s {
			if data[quote] != '"' {
				i = quote + 1
				continue
			}
			end, _, err := d.stringEndQuiet(quote + 1)
			if err {
				return count
			}
			i = end + 1
			quote = -2
			continue
		}
		switch data[s] {
		case '[', '{':
			depth++
		case ']', '}':
			if depth == 0 {
				return count
			}
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
		i = s + 1
	}
	return count
}

// stringEndQuiet is stringEnd without latching an error.
func (d *decoder) stringEndQuiet(start int) (int, bool, bool) {
	for i := start; i < len(d.data); {
		switch d.data[i] {
		case '\\':
			i += 2
		case '"':
			return i, true, false
		default:
			i++
		}
	}
	return 0, false, true
}

// numberSpan consumes a number literal. Under conformance the RFC 8259 grammar is
// enforced, otherwise any run of number bytes is taken and left to the parser.
func (d *decoder) numberSpan() ([]byte, error) {
	start := d.pos
	end := start
	if d.cfg.ForceConformance {
		end = scanNumber(d.data, start)
	} else {
		for end < len(d.data) && isNumberByte(d.data[end]) {
			end++
		}
	}
	if end == start {
		if start >= len(d.data) {
			return nil, d.failAt(jsonerr.UnexpectedEnd, start)
		}
		return nil, d.fail(jsonerr.ParseNumberFailure)
	}
	d.pos = end
	return d.data[start:end], nil
}

func isNumberByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c == '-', c == '+', c == '.', c == 'e', c == 'E':
		return true
	}
	return false
}

// scanNumber returns the end of the JSON number starting at i, or i when there is none.
func scanNumber(data []byte, i int) int {
	start := i
	if i < len(data) && data[i] == '-' {
		i++
	}
	if i >= len(data) {
		return start
	}
	switch {
	case data[i] == '0':
		i++
	case data[i] >= '1' && data[i] <= '9':
		i = digits(data, i)
	default:
		return start
	}
	if i < len(data) && data[i] == '.' {
		if i+1 >= len(data) || !isDigit(data[i+1]) {
			return start
		}
		i = digits(data, i+1)
	}
	if i < len(data) && (data[i] == 'e' || data[i] == 'E') {
		i++
		if i < len(data) && (data[i] == '+' || data[i] == '-') {
			i++
		}
		if i >= len(data) || !isDigit(data[i]) {
			return start
		}
		i = digits(data, i)
	}
	return i
}

func digits(data []byte, i int) int {
	for i < len(data) && isDigit(data[i]) {
		i++
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
