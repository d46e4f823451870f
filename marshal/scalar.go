package marshal

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/viant/shapejson/internal/strcodec"
	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/shape"
	"github.com/viant/xunsafe"
)

// appendNumberFunc appends the number at ptr; false reports a non finite float.
type appendNumberFunc func(dst []byte, ptr unsafe.Pointer) ([]byte, bool)

func numberAppender(kind reflect.Kind) appendNumberFunc {
	switch kind {
	case reflect.Int:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			return strconv.AppendInt(dst, int64(xunsafe.AsInt(ptr)), 10), true
		}
	case reflect.Int8:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			return strconv.AppendInt(dst, int64(xunsafe.AsInt8(ptr)), 10), true
		}
	case reflect.Int16:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			return strconv.AppendInt(dst, int64(xunsafe.AsInt16(ptr)), 10), true
		}
	case reflect.Int32:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			return strconv.AppendInt(dst, int64(xunsafe.AsInt32(ptr)), 10), true
		}
	case reflect.Int64:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			return strconv.AppendInt(dst, xunsafe.AsInt64(ptr), 10), true
		}
	case reflect.Uint:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			return strconv.AppendUint(dst, uint64(xunsafe.AsUint(ptr)), 10), true
		}
	case reflect.Uint8:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			return strconv.AppendUint(dst, uint64(xunsafe.AsUint8(ptr)), 10), true
		}
	case reflect.Uint16:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			return strconv.AppendUint(dst, uint64(xunsafe.AsUint16(ptr)), 10), true
		}
	case reflect.Uint32:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			return strconv.AppendUint(dst, uint64(xunsafe.AsUint32(ptr)), 10), true
		}
	case reflect.Uint64:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			return strconv.AppendUint(dst, xunsafe.AsUint64(ptr), 10), true
		}
	case reflect.Uintptr:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			return strconv.AppendUint(dst, uint64(*(*uintptr)(ptr)), 10), true
		}
	case reflect.Float32:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			f := float64(xunsafe.AsFloat32(ptr))
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return dst, false
			}
			return strconv.AppendFloat(dst, f, 'g', -1, 32), true
		}
	case reflect.Float64:
		return func(dst []byte, ptr unsafe.Pointer) ([]byte, bool) {
			f := xunsafe.AsFloat64(ptr)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return dst, false
			}
			return strconv.AppendFloat(dst, f, 'g', -1, 64), true
		}
	}
	return nil
}

// numberEncoder writes a number; NaN and infinities have no JSON form and become null.
func numberEncoder(kind reflect.Kind, quoted bool) encodeFunc {
	appendNumber := numberAppender(kind)
	return func(e *encoder, ptr unsafe.Pointer) error {
		start := len(e.buf)
		q := quoted || e.cfg.Quoted
		if q {
			e.buf = append(e.buf, '"')
		}
		buf, ok := appendNumber(e.buf, ptr)
		if !ok {
			e.buf = append(e.buf[:start], "null"...)
			return nil
		}
		e.buf = buf
		if q {
			e.buf = append(e.buf, '"')
		}
		return nil
	}
}

func boolEncoder(quoted bool) encodeFunc {
	return func(e *encoder, ptr unsafe.Pointer) error {
		q := quoted || e.cfg.Quoted
		if q {
			e.buf = append(e.buf, '"')
		}
		if xunsafe.AsBool(ptr) {
			e.buf = append(e.buf, "true"...)
		} else {
			e.buf = append(e.buf, "false"...)
		}
		if q {
			e.buf = append(e.buf, '"')
		}
		return nil
	}
}

func stringEncoder(e *encoder, ptr unsafe.Pointer) error {
	e.buf = strcodec.AppendQuoted(e.buf, xunsafe.AsString(ptr))
	return nil
}

// numberTextEncoder writes a string member holding a numeric literal verbatim.
func numberTextEncoder(e *encoder, ptr unsafe.Pointer) error {
	text := xunsafe.AsString(ptr)
	if text == "" {
		e.null()
		return nil
	}
	e.buf = append(e.buf, text...)
	return nil
}

func timeEncoder(layout string) encodeFunc {
	return func(e *encoder, ptr unsafe.Pointer) error {
		l := layout
		if l == "" {
			l = e.cfg.TimeLayout
		}
		e.buf = append(e.buf, '"')
		e.buf = xunsafe.AsTime(ptr).AppendFormat(e.buf, l)
		e.buf = append(e.buf, '"')
		return nil
	}
}

// charArrayEncoder writes a fixed character buffer up to its first NUL.
func charArrayEncoder(size int) encodeFunc {
	return func(e *encoder, ptr unsafe.Pointer) error {
		chars := unsafe.Slice((*byte)(ptr), size)
		n := bytes.IndexByte(chars, 0)
		if n < 0 {
			n = size
		}
		e.buf = strcodec.AppendQuoted(e.buf, unsafe.String((*byte)(ptr), n))
		return nil
	}
}

func charEncoder(width int) encodeFunc {
	switch width {
	case 16:
		return func(e *encoder, ptr unsafe.Pointer) error {
			e.buf = strcodec.AppendQuotedUnit16(e.buf, xunsafe.AsUint16(ptr))
			return nil
		}
	case 32:
		return func(e *encoder, ptr unsafe.Pointer) error {
			e.buf = strcodec.AppendQuotedRune(e.buf, rune(xunsafe.AsInt32(ptr)))
			return nil
		}
	}
	return func(e *encoder, ptr unsafe.Pointer) error {
		e.buf = strcodec.AppendQuotedUnit8(e.buf, xunsafe.AsUint8(ptr))
		return nil
	}
}

// enumEncoder writes the registered name, or the plain value of a numeric enum.
func enumEncoder(desc *shape.Descriptor) encodeFunc {
	spec := desc.Enum
	rType := desc.Type
	appendNumber := numberAppender(desc.Kind)
	return func(e *encoder, ptr unsafe.Pointer) error {
		value := reflect.NewAt(rType, ptr).Elem().Interface()
		if name, ok := spec.Name(value); ok {
			e.buf = strcodec.AppendQuoted(e.buf, name)
			return nil
		}
		if appendNumber == nil {
			return e.failDetail(jsonerr.UnexpectedEnum, fmt.Sprint(value), nil)
		}
		buf, ok := appendNumber(e.buf, ptr)
		if !ok {
			return e.failDetail(jsonerr.UnexpectedEnum, fmt.Sprint(value), nil)
		}
		e.buf = buf
		return nil
	}
}

// rawEncoder passes pre encoded JSON through; an empty value is written as null.
func rawEncoder(kind reflect.Kind) encodeFunc {
	if kind == reflect.String {
		return func(e *encoder, ptr unsafe.Pointer) error {
			raw := xunsafe.AsString(ptr)
			if raw == "" {
				e.null()
				return nil
			}
			e.buf = append(e.buf, raw...)
			return nil
		}
	}
	return func(e *encoder, ptr unsafe.Pointer) error {
		raw := *(*[]byte)(ptr)
		if len(raw) == 0 {
			e.null()
			return nil
		}
		e.buf = append(e.buf, raw...)
		return nil
	}
}

func jsonMarshalerEncoder(rType reflect.Type) encodeFunc {
	return func(e *encoder, ptr unsafe.Pointer) error {
		source := reflect.NewAt(rType, ptr).Interface().(json.Marshaler)
		data, err := source.MarshalJSON()
		if err != nil {
			return e.failDetail(jsonerr.InvalidValue, rType.String(), errors.Wrapf(err, "failed to marshal %v", rType))
		}
		if len(data) == 0 {
			e.null()
			return nil
		}
		e.buf = append(e.buf, data...)
		return nil
	}
}

func textMarshalerEncoder(rType reflect.Type) encodeFunc {
	return func(e *encoder, ptr unsafe.Pointer) error {
		source := reflect.NewAt(rType, ptr).Interface().(encoding.TextMarshaler)
		text, err := source.MarshalText()
		if err != nil {
			return e.failDetail(jsonerr.InvalidValue, rType.String(), errors.Wrapf(err, "failed to marshal text of %v", rType))
		}
		e.buf = strcodec.AppendQuoted(e.buf, bytesToStringNoCopy(text))
		return nil
	}
}

func nullEncoder(e *encoder, _ unsafe.Pointer) error {
	e.null()
	return nil
}

func bytesToStringNoCopy(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
