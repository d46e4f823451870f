package marshal

import (
	"cmp"
	"encoding"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/viant/shapejson/internal/strcodec"
	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/shape"
)

func (c *compiler) arrayEncoder(desc *shape.Descriptor) encodeFunc {
	elem := c.plan(desc.Elem)
	size := desc.Elem.Type.Size()
	if desc.Kind == reflect.Array {
		n := desc.Len
		return func(e *encoder, ptr unsafe.Pointer) error {
			return e.elements(ptr, n, size, elem)
		}
	}
	return func(e *encoder, ptr unsafe.Pointer) error {
		// every slice header shares the []byte layout
		items := *(*[]byte)(ptr)
		data := unsafe.Pointer(unsafe.SliceData(items))
		if data == nil && e.cfg.NilSlicePolicy == NilSliceNull {
			e.null()
			return nil
		}
		return e.elements(data, len(items), size, elem)
	}
}

func (e *encoder) elements(data unsafe.Pointer, n int, size uintptr, elem *typePlan) error {
	if n == 0 {
		e.buf = append(e.buf, '[', ']')
		return nil
	}
	if err := e.open('['); err != nil {
		return err
	}
	first := true
	for i := 0; i < n; i++ {
		e.separator(&first)
		if err := elem.encode(e, unsafe.Add(data, uintptr(i)*size)); err != nil {
			return err
		}
	}
	e.close(']', false)
	return nil
}

func (c *compiler) tupleEncoder(desc *shape.Descriptor) encodeFunc {
	fields := make([]*fieldPlan, 0, len(desc.Fields))
	for _, field := range desc.Fields {
		fields = append(fields, c.fieldPlan(field))
	}
	return func(e *encoder, ptr unsafe.Pointer) error {
		if len(fields) == 0 {
			e.buf = append(e.buf, '[', ']')
			return nil
		}
		if err := e.open('['); err != nil {
			return err
		}
		first := true
		for _, fp := range fields {
			e.separator(&first)
			fieldPtr := fp.field.Pointer(ptr, false)
			if fieldPtr == nil {
				e.null()
				continue
			}
			if err := fp.encode(e, fieldPtr); err != nil {
				return err
			}
		}
		e.close(']', false)
		return nil
	}
}

type mapEntry struct {
	text  string
	key   reflect.Value
	value reflect.Value
}

// keyFormatter renders a map key or set member as object key text.
type keyFormatter func(key reflect.Value) (string, error)

func newKeyFormatter(desc *shape.Descriptor) keyFormatter {
	switch {
	case desc.Shape == shape.Enum:
		spec := desc.Enum
		return func(key reflect.Value) (string, error) {
			if name, ok := spec.Name(key.Interface()); ok {
				return name, nil
			}
			if text, ok := numericKeyText(key); ok {
				return text, nil
			}
			return "", jsonerr.UnexpectedEnum
		}
	case desc.Has(shape.TraitTextMarshaler):
		return func(key reflect.Value) (string, error) {
			holder := reflect.New(key.Type())
			holder.Elem().Set(key)
			text, err := holder.Interface().(encoding.TextMarshaler).MarshalText()
			if err != nil {
				return "", errors.Wrapf(err, "failed to marshal map key %v", key.Type())
			}
			return string(text), nil
		}
	case desc.Kind == reflect.String:
		return func(key reflect.Value) (string, error) {
			return key.String(), nil
		}
	case desc.Kind == reflect.Bool:
		return func(key reflect.Value) (string, error) {
			return strconv.FormatBool(key.Bool()), nil
		}
	}
	return func(key reflect.Value) (string, error) {
		if text, ok := numericKeyText(key); ok {
			return text, nil
		}
		return "", fmt.Errorf("unsupported key kind %v", key.Kind())
	}
}

func numericKeyText(key reflect.Value) (string, bool) {
	switch key.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(key.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(key.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(key.Float(), 'g', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(key.Float(), 'g', -1, 64), true
	}
	return "", false
}

// compareEntries orders numeric keys by value and everything else by key text.
func compareEntries(kind reflect.Kind) func(a, b mapEntry) int {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b mapEntry) int { return cmp.Compare(a.key.Int(), b.key.Int()) }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(a, b mapEntry) int { return cmp.Compare(a.key.Uint(), b.key.Uint()) }
	case reflect.Float32, reflect.Float64:
		return func(a, b mapEntry) int { return cmp.Compare(a.key.Float(), b.key.Float()) }
	}
	return func(a, b mapEntry) int { return strings.Compare(a.text, b.text) }
}

// sortedEntries snapshots m in key order; maps are written deterministically.
func (e *encoder) sortedEntries(m reflect.Value, format keyFormatter, compare func(a, b mapEntry) int, withValues bool) ([]mapEntry, error) {
	entries := make([]mapEntry, 0, m.Len())
	iter := m.MapRange()
	for iter.Next() {
		entry := mapEntry{key: iter.Key()}
		text, err := format(entry.key)
		if err != nil {
			return nil, e.failDetail(jsonerr.InvalidValue, fmt.Sprint(entry.key.Interface()), err)
		}
		entry.text = text
		if withValues {
			entry.value = iter.Value()
		}
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, compare)
	return entries, nil
}

func (c *compiler) mapEncoder(desc *shape.Descriptor) encodeFunc {
	value := c.plan(desc.Elem)
	format := newKeyFormatter(desc.Key)
	compare := compareEntries(desc.Key.Kind)
	isNull := nullFunc(desc.Elem)
	rType := desc.Type
	valueType := desc.Elem.Type
	return func(e *encoder, ptr unsafe.Pointer) error {
		m := reflect.NewAt(rType, ptr).Elem()
		if m.IsNil() {
			e.null()
			return nil
		}
		if m.Len() == 0 {
			e.buf = append(e.buf, '{', '}')
			return nil
		}
		entries, err := e.sortedEntries(m, format, compare, true)
		if err != nil {
			return err
		}
		holder := reflect.New(valueType)
		valuePtr := holder.UnsafePointer()
		if err = e.open('{'); err != nil {
			return err
		}
		first := true
		for _, entry := range entries {
			holder.Elem().Set(entry.value)
			if e.cfg.SkipNullMembers && isNull(e, valuePtr) {
				continue
			}
			e.separator(&first)
			e.buf = strcodec.AppendQuoted(e.buf, entry.text)
			e.colon()
			if err = value.encode(e, valuePtr); err != nil {
				return err
			}
		}
		e.close('}', first)
		return nil
	}
}

// setEncoder writes the members of a map[K]struct{} as an array.
func (c *compiler) setEncoder(desc *shape.Descriptor) encodeFunc {
	member := c.plan(desc.Elem)
	format := newKeyFormatter(desc.Elem)
	compare := compareEntries(desc.Elem.Kind)
	rType := desc.Type
	keyType := desc.Elem.Type
	return func(e *encoder, ptr unsafe.Pointer) error {
		m := reflect.NewAt(rType, ptr).Elem()
		if m.IsNil() && e.cfg.NilSlicePolicy == NilSliceNull {
			e.null()
			return nil
		}
		if m.Len() == 0 {
			e.buf = append(e.buf, '[', ']')
			return nil
		}
		entries, err := e.sortedEntries(m, format, compare, false)
		if err != nil {
			return err
		}
		holder := reflect.New(keyType)
		keyPtr := holder.UnsafePointer()
		if err = e.open('['); err != nil {
			return err
		}
		first := true
		for _, entry := range entries {
			holder.Elem().Set(entry.key)
			e.separator(&first)
			if err = member.encode(e, keyPtr); err != nil {
				return err
			}
		}
		e.close(']', false)
		return nil
	}
}
