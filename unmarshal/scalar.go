package unmarshal

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/shape"
	"github.com/viant/xunsafe"
)

func boolDecoder(quoted bool) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		c, err := d.next()
		if err != nil {
			return err
		}
		if c == 'n' {
			_, err = d.nullInto()
			return err
		}
		q := quoted || d.cfg.Quoted
		if q {
			if c != '"' {
				return d.fail(jsonerr.SyntaxError)
			}
			d.pos++
		}
		var value bool
		switch {
		case d.pos >= len(d.data):
			return d.fail(jsonerr.UnexpectedEnd)
		case d.data[d.pos] == 't':
			err = d.literal("true", jsonerr.ExpectedTrueOrFalse)
			value = true
		case d.data[d.pos] == 'f':
			err = d.literal("false", jsonerr.ExpectedTrueOrFalse)
		default:
			return d.fail(jsonerr.ExpectedTrueOrFalse)
		}
		if err != nil {
			return err
		}
		if q {
			if d.pos >= len(d.data) || d.data[d.pos] != '"' {
				return d.fail(jsonerr.SyntaxError)
			}
			d.pos++
		}
		*xunsafe.AsBoolPtr(ptr) = value
		return nil
	}
}

// numberText consumes a number literal, optionally wrapped in quotes.
func (d *decoder) numberText(c byte, quoted bool) ([]byte, error) {
	if !quoted {
		return d.numberSpan()
	}
	if c != '"' {
		return nil, d.fail(jsonerr.SyntaxError)
	}
	d.pos++
	text, err := d.numberSpan()
	if err != nil {
		return nil, err
	}
	if d.pos >= len(d.data) || d.data[d.pos] != '"' {
		return nil, d.fail(jsonerr.ParseNumberFailure)
	}
	d.pos++
	return text, nil
}

func numberDecoder(kind reflect.Kind, quoted bool) decodeFunc {
	switch kind {
	case reflect.Int:
		return intDecoder(strconv.IntSize, quoted, func(p unsafe.Pointer, v int64) { *xunsafe.AsIntPtr(p) = int(v) })
	case reflect.Int8:
		return intDecoder(8, quoted, func(p unsafe.Pointer, v int64) { *xunsafe.AsInt8Ptr(p) = int8(v) })
	case reflect.Int16:
		return intDecoder(16, quoted, func(p unsafe.Pointer, v int64) { *xunsafe.AsInt16Ptr(p) = int16(v) })
	case reflect.Int32:
		return intDecoder(32, quoted, func(p unsafe.Pointer, v int64) { *xunsafe.AsInt32Ptr(p) = int32(v) })
	case reflect.Int64:
		return intDecoder(64, quoted, func(p unsafe.Pointer, v int64) { *xunsafe.AsInt64Ptr(p) = v })
	case reflect.Uint:
		return uintDecoder(strconv.IntSize, quoted, func(p unsafe.Pointer, v uint64) { *xunsafe.AsUintPtr(p) = uint(v) })
	case reflect.Uint8:
		return uintDecoder(8, quoted, func(p unsafe.Pointer, v uint64) { *xunsafe.AsUint8Ptr(p) = uint8(v) })
	case reflect.Uint16:
		return uintDecoder(16, quoted, func(p unsafe.Pointer, v uint64) { *xunsafe.AsUint16Ptr(p) = uint16(v) })
	case reflect.Uint32:
		return uintDecoder(32, quoted, func(p unsafe.Pointer, v uint64) { *xunsafe.AsUint32Ptr(p) = uint32(v) })
	case reflect.Uint64:
		return uintDecoder(64, quoted, func(p unsafe.Pointer, v uint64) { *xunsafe.AsUint64Ptr(p) = v })
	case reflect.Uintptr:
		return uintDecoder(64, quoted, func(p unsafe.Pointer, v uint64) { *(*uintptr)(p) = uintptr(v) })
	case reflect.Float32:
		return floatDecoder(32, quoted, func(p unsafe.Pointer, v float64) { *xunsafe.AsFloat32Ptr(p) = float32(v) })
	case reflect.Float64:
		return floatDecoder(64, quoted, func(p unsafe.Pointer, v float64) { *xunsafe.AsFloat64Ptr(p) = v })
	}
	return nil
}

// readNumber returns the literal text and its offset, or handled when a null was consumed.
func (d *decoder) readNumber(quoted bool) (text []byte, start int, handled bool, err error) {
	c, err := d.next()
	if err != nil {
		return nil, 0, false, err
	}
	if c == 'n' {
		_, err = d.nullInto()
		return nil, 0, true, err
	}
	start = d.pos
	text, err = d.numberText(c, quoted || d.cfg.Quoted)
	return text, start, false, err
}

func intDecoder(bitSize int, quoted bool, store func(unsafe.Pointer, int64)) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		text, start, handled, err := d.readNumber(quoted)
		if handled || err != nil {
			return err
		}
		value, err := strconv.ParseInt(bytesToStringNoCopy(text), 10, bitSize)
		if err != nil {
			var ok bool
			if value, ok = d.coerceInt(text, bitSize); !ok {
				return d.failDetail(jsonerr.ParseNumberFailure, start, string(text))
			}
		}
		store(ptr, value)
		return nil
	}
}

func uintDecoder(bitSize int, quoted bool, store func(unsafe.Pointer, uint64)) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		text, start, handled, err := d.readNumber(quoted)
		if handled || err != nil {
			return err
		}
		value, err := strconv.ParseUint(bytesToStringNoCopy(text), 10, bitSize)
		if err != nil {
			signed, ok := d.coerceInt(text, 64)
			if !ok || signed < 0 || (bitSize < 64 && uint64(signed) >= 1<<bitSize) {
				return d.failDetail(jsonerr.ParseNumberFailure, start, string(text))
			}
			value = uint64(signed)
		}
		store(ptr, value)
		return nil
	}
}

// coerceInt accepts an integral float literal such as 1e3 or 2.0 under CoerceNumbers.
func (d *decoder) coerceInt(text []byte, bitSize int) (int64, bool) {
	if d.cfg.NumberPolicy != CoerceNumbers || bytes.IndexAny(text, ".eE") < 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(bytesToStringNoCopy(text), 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	limit := math.Ldexp(1, bitSize-1)
	if f < -limit || f >= limit {
		return 0, false
	}
	return int64(f), true
}

func floatDecoder(bitSize int, quoted bool, store func(unsafe.Pointer, float64)) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		text, start, handled, err := d.readNumber(quoted)
		if handled || err != nil {
			return err
		}
		value, err := strconv.ParseFloat(bytesToStringNoCopy(text), bitSize)
		if err != nil {
			return d.failDetail(jsonerr.ParseNumberFailure, start, string(text))
		}
		store(ptr, value)
		return nil
	}
}

// enumDecoder reads an enumerator name; a bare number is taken as the underlying value.
func enumDecoder(desc *shape.Descriptor) decodeFunc {
	rType := desc.Type
	spec := desc.Enum
	numeric := numberDecoder(desc.Kind, false)
	return func(d *decoder, ptr unsafe.Pointer) error {
		c, err := d.next()
		if err != nil {
			return err
		}
		switch {
		case c == '"':
			start := d.pos
			name, err := d.readString(&d.strBuf)
			if err != nil {
				return err
			}
			value, ok := spec.Value(bytesToStringNoCopy(name))
			if !ok {
				return d.failDetail(jsonerr.UnexpectedEnum, start, string(name))
			}
			reflect.NewAt(rType, ptr).Elem().Set(value)
			return nil
		case c == 'n':
			_, err = d.nullInto()
			return err
		case numeric != nil:
			return numeric(d, ptr)
		}
		return d.fail(jsonerr.UnexpectedEnum)
	}
}

// rawSpan consumes one value and returns its exact input text.
func (d *decoder) rawSpan() ([]byte, int, error) {
	d.skipWS()
	start := d.pos
	if err := d.skipValue(); err != nil {
		return nil, start, err
	}
	return d.data[start:d.pos], start, nil
}

func rawDecoder(kind reflect.Kind) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		span, _, err := d.rawSpan()
		if err != nil {
			return err
		}
		if kind == reflect.String {
			*xunsafe.AsStringPtr(ptr) = string(span)
			return nil
		}
		*(*[]byte)(ptr) = bytes.Clone(span)
		return nil
	}
}

func jsonUnmarshalerDecoder(rType reflect.Type) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		span, start, err := d.rawSpan()
		if err != nil {
			return err
		}
		target := reflect.NewAt(rType, ptr).Interface().(json.Unmarshaler)
		if err = target.UnmarshalJSON(span); err != nil {
			return d.failCause(jsonerr.InvalidValue, start, errors.Wrapf(err, "failed to unmarshal %v", rType))
		}
		return nil
	}
}

func skipDecoder(desc *shape.Descriptor) decodeFunc {
	switch {
	case desc.Has(shape.TraitHidden):
		return func(d *decoder, _ unsafe.Pointer) error {
			d.skipWS()
			return d.fail(jsonerr.AttemptReadHidden)
		}
	case desc.Has(shape.TraitFunc):
		return func(d *decoder, _ unsafe.Pointer) error {
			d.skipWS()
			return d.fail(jsonerr.AttemptMemberFuncRead)
		}
	}
	return func(d *decoder, _ unsafe.Pointer) error {
		return d.skipValue()
	}
}

func alwaysNullDecoder(d *decoder, _ unsafe.Pointer) error {
	c, err := d.next()
	if err != nil {
		return err
	}
	if c != 'n' {
		return d.fail(jsonerr.SyntaxError)
	}
	return d.literal("null", jsonerr.SyntaxError)
}
