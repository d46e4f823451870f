package unmarshal

import (
	"bytes"
	"encoding"
	"reflect"
	"strconv"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/shape"
)

func (c *compiler) arrayDecoder(desc *shape.Descriptor) decodeFunc {
	elem := c.plan(desc.Elem)
	size := desc.Type.Elem().Size()
	if desc.Kind == reflect.Array {
		return fixedArrayDecoder(desc.Len, size, elem)
	}
	return sliceDecoder(desc.Type, size, elem, composite(desc.Elem))
}

// composite elements are expensive to move, so their slices are sized by a pre-count.
func composite(desc *shape.Descriptor) bool {
	switch desc.Shape {
	case shape.Object, shape.Tuple, shape.Array, shape.Map, shape.Set:
		return true
	}
	return false
}

// fixedArrayDecoder reads into a Go array; elements past the input keep their value.
func fixedArrayDecoder(n int, size uintptr, elem *typePlan) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		if handled, err := d.nullInto(); handled || err != nil {
			return err
		}
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
		for i := 0; ; i++ {
			if i >= n {
				return d.fail(jsonerr.ExceededStaticArraySize)
			}
			if err = elem.decode(d, unsafe.Add(ptr, uintptr(i)*size)); err != nil {
				return err
			}
			done, err := d.arraySeparator()
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		d.leave()
		return nil
	}
}

// sliceDecoder reuses existing elements, appends past the current length and truncates
// to the number of elements read.
func sliceDecoder(rType reflect.Type, size uintptr, elem *typePlan, precount bool) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		handled, err := d.null()
		if err != nil {
			return err
		}
		slice := reflect.NewAt(rType, ptr).Elem()
		if handled {
			slice.SetZero()
			return nil
		}
		if err = d.openArray(); err != nil {
			return err
		}
		c, err := d.next()
		if err != nil {
			return err
		}
		if c == ']' {
			d.pos++
			d.leave()
			if slice.IsNil() || (d.cfg.ShrinkToFit && slice.Cap() > 0) {
				slice.Set(reflect.MakeSlice(rType, 0, 0))
				return nil
			}
			slice.SetLen(0)
			return nil
		}
		if precount {
			if count := d.countElements(); count > slice.Cap() {
				grown := reflect.MakeSlice(rType, slice.Len(), count)
				reflect.Copy(grown, slice)
				slice.Set(grown)
			}
		}
		n := 0
		for {
			if n == slice.Len() {
				if n == slice.Cap() {
					slice.Grow(1)
				}
				slice.SetLen(n + 1)
				slice.Index(n).SetZero()
			}
			if err = elem.decode(d, unsafe.Add(slice.UnsafePointer(), uintptr(n)*size)); err != nil {
				return err
			}
			n++
			done, err := d.arraySeparator()
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		d.leave()
		slice.SetLen(n)
		if d.cfg.ShrinkToFit && slice.Cap() > n {
			fitted := reflect.MakeSlice(rType, n, n)
			reflect.Copy(fitted, slice)
			slice.Set(fitted)
		}
		return nil
	}
}

// setDecoder clears the set, then inserts every element.
func (c *compiler) setDecoder(desc *shape.Descriptor) decodeFunc {
	key := c.plan(desc.Elem)
	rType := desc.Type
	member := reflect.New(rType.Elem()).Elem()
	return func(d *decoder, ptr unsafe.Pointer) error {
		handled, err := d.null()
		if err != nil {
			return err
		}
		set := reflect.NewAt(rType, ptr).Elem()
		if handled {
			set.SetZero()
			return nil
		}
		if err = d.openArray(); err != nil {
			return err
		}
		if set.IsNil() {
			set.Set(reflect.MakeMap(rType))
		} else {
			set.Clear()
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
		item := reflect.New(rType.Key())
		for {
			item.Elem().SetZero()
			if err = key.decode(d, item.UnsafePointer()); err != nil {
				return err
			}
			set.SetMapIndex(item.Elem(), member)
			done, err := d.arraySeparator()
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		d.leave()
		return nil
	}
}

// tupleDecoder reads struct fields positionally from an array of exactly their count.
func (c *compiler) tupleDecoder(desc *shape.Descriptor) decodeFunc {
	fields := make([]*fieldPlan, len(desc.Fields))
	for i, field := range desc.Fields {
		fields[i] = &fieldPlan{field: field, decode: c.fieldDecoder(field)}
	}
	return func(d *decoder, ptr unsafe.Pointer) error {
		if handled, err := d.nullInto(); handled || err != nil {
			return err
		}
		if err := d.openArray(); err != nil {
			return err
		}
		for i, fp := range fields {
			c, err := d.next()
			if err != nil {
				return err
			}
			if i > 0 {
				if c != ',' {
					return d.fail(jsonerr.ExpectedBracket)
				}
				d.pos++
				if c, err = d.next(); err != nil {
					return err
				}
			}
			if c == ']' {
				return d.fail(jsonerr.ExpectedBracket)
			}
			if err = fp.decode(d, fp.field.Pointer(ptr, true)); err != nil {
				return err
			}
		}
		if err := d.expect(']', jsonerr.ExpectedBracket); err != nil {
			return err
		}
		d.leave()
		return nil
	}
}

type keyParser func(d *decoder, raw []byte, offset int) (reflect.Value, error)

// mapDecoder merges members into the map; existing values are read into in place.
func (c *compiler) mapDecoder(desc *shape.Descriptor) decodeFunc {
	rType := desc.Type
	value := c.plan(desc.Elem)
	parseKey := mapKeyParser(desc.Key)
	return func(d *decoder, ptr unsafe.Pointer) error {
		handled, err := d.null()
		if err != nil {
			return err
		}
		m := reflect.NewAt(rType, ptr).Elem()
		if handled {
			m.SetZero()
			return nil
		}
		if err = d.openObject(); err != nil {
			return err
		}
		if m.IsNil() {
			m.Set(reflect.MakeMap(rType))
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
		slot := reflect.New(rType.Elem())
		for {
			offset := d.pos
			raw, err := d.readString(&d.keyBuf)
			if err != nil {
				return err
			}
			key, err := parseKey(d, raw, offset)
			if err != nil {
				return err
			}
			if err = d.expect(':', jsonerr.ExpectedColon); err != nil {
				return err
			}
			slot.Elem().SetZero()
			if existing := m.MapIndex(key); existing.IsValid() {
				slot.Elem().Set(existing)
			}
			if err = value.decode(d, slot.UnsafePointer()); err != nil {
				return err
			}
			m.SetMapIndex(key, slot.Elem())
			done, err := d.objectSeparator()
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		d.leave()
		return nil
	}
}

// mapKeyParser converts a member name into a key of the map's key shape.
func mapKeyParser(key *shape.Descriptor) keyParser {
	rType := key.Type
	invalid := func(d *decoder, raw []byte, offset int) (reflect.Value, error) {
		return reflect.Value{}, d.failDetail(jsonerr.ParseNumberFailure, offset, string(raw))
	}
	switch {
	case key.Has(shape.TraitTextUnmarshaler):
		return func(d *decoder, raw []byte, offset int) (reflect.Value, error) {
			target := reflect.New(rType)
			if err := target.Interface().(encoding.TextUnmarshaler).UnmarshalText(bytes.Clone(raw)); err != nil {
				return reflect.Value{}, d.failCause(jsonerr.InvalidValue, offset, errors.Wrapf(err, "invalid map key %q", raw))
			}
			return target.Elem(), nil
		}
	case key.Shape == shape.Enum:
		return func(d *decoder, raw []byte, offset int) (reflect.Value, error) {
			value, ok := key.Enum.Value(string(raw))
			if !ok {
				return reflect.Value{}, d.failDetail(jsonerr.UnexpectedEnum, offset, string(raw))
			}
			return value, nil
		}
	case key.Shape == shape.String:
		return func(d *decoder, raw []byte, offset int) (reflect.Value, error) {
			return reflect.ValueOf(string(raw)).Convert(rType), nil
		}
	case key.Shape == shape.Bool:
		return func(d *decoder, raw []byte, offset int) (reflect.Value, error) {
			value := string(raw) == "true"
			if !value && string(raw) != "false" {
				return reflect.Value{}, d.failDetail(jsonerr.ExpectedTrueOrFalse, offset, string(raw))
			}
			return reflect.ValueOf(value).Convert(rType), nil
		}
	}
	switch rType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(d *decoder, raw []byte, offset int) (reflect.Value, error) {
			n, err := strconv.ParseInt(string(raw), 10, rType.Bits())
			if err != nil {
				return invalid(d, raw, offset)
			}
			value := reflect.New(rType).Elem()
			value.SetInt(n)
			return value, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(d *decoder, raw []byte, offset int) (reflect.Value, error) {
			n, err := strconv.ParseUint(string(raw), 10, rType.Bits())
			if err != nil {
				return invalid(d, raw, offset)
			}
			value := reflect.New(rType).Elem()
			value.SetUint(n)
			return value, nil
		}
	}
	return func(d *decoder, raw []byte, offset int) (reflect.Value, error) {
		n, err := strconv.ParseFloat(string(raw), rType.Bits())
		if err != nil {
			return invalid(d, raw, offset)
		}
		value := reflect.New(rType).Elem()
		value.SetFloat(n)
		return value, nil
	}
}
