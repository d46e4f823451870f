package unmarshal

import (
	"bytes"
	"encoding"
	"reflect"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/viant/shapejson/internal/strcodec"
	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/xunsafe"
)

// readString reads a quoted string. The result aliases the input when the body has no
// escapes, otherwise it aliases *buf; either way it is only valid until the next read.
func (d *decoder) readString(buf *[]byte) ([]byte, error) {
	c, err := d.next()
	if err != nil {
		return nil, err
	}
	if c != '"' {
		return nil, d.fail(jsonerr.SyntaxError)
	}
	start := d.pos + 1
	end, escaped, err := d.stringEnd(start)
	if err != nil {
		return nil, err
	}
	raw := d.data[start:end]
	if d.cfg.ForceConformance {
		if err = d.checkControl(raw, start); err != nil {
			return nil, err
		}
	}
	d.pos = end + 1
	if !escaped {
		return raw, nil
	}
	out, code, at := strcodec.Unescape((*buf)[:0], raw)
	*buf = out
	if code != jsonerr.None {
		return nil, d.failAt(code, start+at)
	}
	return out, nil
}

// checkControl rejects raw control characters; a NUL is reported as a truncated input.
func (d *decoder) checkControl(raw []byte, start int) error {
	for i, c := range raw {
		if c >= 0x20 {
			continue
		}
		if c == 0 {
			return d.failAt(jsonerr.UnexpectedEnd, start+i)
		}
		return d.failAt(jsonerr.SyntaxError, start+i)
	}
	return nil
}

func stringDecoder(rawNumber bool) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		c, err := d.next()
		if err != nil {
			return err
		}
		switch {
		case c == 'n':
			_, err = d.nullInto()
			return err
		case c != '"' && (rawNumber || d.cfg.RawNumbers):
			text, err := d.numberSpan()
			if err != nil {
				return err
			}
			*xunsafe.AsStringPtr(ptr) = string(text)
			return nil
		}
		value, err := d.readString(&d.strBuf)
		if err != nil {
			return err
		}
		*xunsafe.AsStringPtr(ptr) = string(value)
		return nil
	}
}

// charDecoder reads a string holding exactly one code unit of the given width.
func charDecoder(width int) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		c, err := d.next()
		if err != nil {
			return err
		}
		if c == 'n' {
			_, err = d.nullInto()
			return err
		}
		if c != '"' {
			return d.fail(jsonerr.SyntaxError)
		}
		start := d.pos + 1
		end, _, err := d.stringEnd(start)
		if err != nil {
			return err
		}
		raw := d.data[start:end]
		if d.cfg.ForceConformance {
			if err = d.checkControl(raw, start); err != nil {
				return err
			}
		}
		// 8-bit chars hold a Latin-1 code point, not a UTF-8 byte.
		unitWidth := strcodec.Width(width)
		if unitWidth == strcodec.Width8 {
			unitWidth = strcodec.Width32
		}
		count := 0
		var unit uint32
		code, at := strcodec.UnescapeUnits(raw, unitWidth, func(u uint32) {
			count++
			unit = u
		})
		if code != jsonerr.None {
			return d.failAt(code, start+at)
		}
		if count != 1 {
			return d.failDetail(jsonerr.SyntaxError, start, "expected a single character")
		}
		if width == 8 && unit > 0xFF {
			return d.failDetail(jsonerr.InvalidValue, start, "character does not fit 8 bits")
		}
		switch width {
		case 8:
			*(*uint8)(ptr) = uint8(unit)
		case 16:
			*(*uint16)(ptr) = uint16(unit)
		default:
			*(*int32)(ptr) = int32(unit)
		}
		d.pos = end + 1
		return nil
	}
}

// charArrayDecoder copies a string into a fixed byte array, zero filling the rest.
func charArrayDecoder(size int) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		if handled, err := d.nullInto(); handled || err != nil {
			return err
		}
		start := d.pos
		value, err := d.readString(&d.strBuf)
		if err != nil {
			return err
		}
		if len(value) > size {
			return d.failDetail(jsonerr.UnexpectedEnd, start, "string exceeds character array")
		}
		dst := unsafe.Slice((*byte)(ptr), size)
		n := copy(dst, value)
		clear(dst[n:])
		return nil
	}
}

func timeDecoder(layout string) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		if handled, err := d.nullInto(); handled || err != nil {
			return err
		}
		start := d.pos
		value, err := d.readString(&d.strBuf)
		if err != nil {
			return err
		}
		useLayout := layout
		if useLayout == "" {
			useLayout = d.cfg.TimeLayout
		}
		ts, err := time.Parse(useLayout, string(value))
		if err != nil {
			return d.failCause(jsonerr.InvalidValue, start, err)
		}
		*xunsafe.AsTimePtr(ptr) = ts
		return nil
	}
}

func textUnmarshalerDecoder(rType reflect.Type) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		if handled, err := d.nullInto(); handled || err != nil {
			return err
		}
		start := d.pos
		value, err := d.readString(&d.strBuf)
		if err != nil {
			return err
		}
		target := reflect.NewAt(rType, ptr).Interface().(encoding.TextUnmarshaler)
		if err = target.UnmarshalText(bytes.Clone(value)); err != nil {
			return d.failCause(jsonerr.InvalidValue, start, errors.Wrapf(err, "failed to unmarshal text into %v", rType))
		}
		return nil
	}
}
