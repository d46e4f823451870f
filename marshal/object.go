package marshal

import (
	"reflect"
	"strings"
	"unsafe"

	"github.com/viant/shapejson/internal/strcodec"
	"github.com/viant/shapejson/shape"
	"github.com/viant/xunsafe"
)

type fieldPlan struct {
	field   *shape.Field
	key     []byte
	comment string
	encode  encodeFunc
	empty   func(ptr unsafe.Pointer) bool
	isNull  func(e *encoder, ptr unsafe.Pointer) bool
}

type objectPlan struct {
	desc   *shape.Descriptor
	fields []*fieldPlan
}

func (c *compiler) objectPlan(desc *shape.Descriptor) *objectPlan {
	p := &objectPlan{desc: desc}
	for _, field := range desc.Fields {
		if field.Desc.Shape == shape.Skip {
			continue
		}
		p.fields = append(p.fields, c.fieldPlan(field))
	}
	return p
}

func (c *compiler) fieldPlan(field *shape.Field) *fieldPlan {
	name := field.Name
	if c.compileName != nil && !field.Explicit {
		if alias := c.compileName(name); alias != "" {
			name = alias
		}
	}
	return &fieldPlan{
		field:   field,
		key:     strcodec.AppendQuoted(nil, name),
		comment: strings.ReplaceAll(field.Comment, "*/", "* /"),
		encode:  c.fieldEncoder(field),
		empty:   emptyFunc(field.Desc),
		isNull:  nullFunc(field.Desc),
	}
}

// fieldEncoder applies member options on top of the type's plan, as the read side does.
func (c *compiler) fieldEncoder(field *shape.Field) encodeFunc {
	desc := field.Desc
	if encode := optionEncoder(desc, field); encode != nil {
		return encode
	}
	if desc.Shape == shape.Nullable && !desc.Has(shape.TraitOptional) {
		if inner := optionEncoder(desc.Elem, field); inner != nil {
			return pointerEncoder(inner)
		}
	}
	plan := c.plan(desc)
	return func(e *encoder, ptr unsafe.Pointer) error {
		return plan.encode(e, ptr)
	}
}

func optionEncoder(desc *shape.Descriptor, field *shape.Field) encodeFunc {
	switch {
	case field.Quoted && desc.Shape == shape.Number && desc.Traits == 0:
		return numberEncoder(desc.Kind, true)
	case field.Quoted && desc.Shape == shape.Bool && desc.Traits == 0:
		return boolEncoder(true)
	case field.Number && desc.Shape == shape.String && desc.Traits == 0 && desc.Kind == reflect.String:
		return numberTextEncoder
	case field.TimeLayout != "" && desc.Has(shape.TraitTime):
		return timeEncoder(field.TimeLayout)
	}
	return nil
}

func (fp *fieldPlan) omitted(e *encoder, ptr unsafe.Pointer) bool {
	if (fp.field.OmitEmpty || e.cfg.OmitEmpty) && fp.empty(ptr) {
		return true
	}
	return e.cfg.SkipNullMembers && fp.isNull(e, ptr)
}

func (p *objectPlan) encode(e *encoder, ptr unsafe.Pointer) error {
	return p.encodeTagged(e, ptr, "", "")
}

// encodeTagged writes an object, led by the tag member when a discriminator is given.
func (p *objectPlan) encodeTagged(e *encoder, ptr unsafe.Pointer, tag, id string) error {
	if err := e.open('{'); err != nil {
		return err
	}
	first := true
	if tag != "" {
		e.separator(&first)
		e.buf = strcodec.AppendQuoted(e.buf, tag)
		e.colon()
		e.buf = strcodec.AppendQuoted(e.buf, id)
	}
	for _, fp := range p.fields {
		fieldPtr := fp.field.Pointer(ptr, false)
		if fieldPtr == nil || fp.omitted(e, fieldPtr) {
			continue
		}
		e.separator(&first)
		e.buf = append(e.buf, fp.key...)
		e.colon()
		if err := fp.encode(e, fieldPtr); err != nil {
			return err
		}
		if fp.comment != "" && e.cfg.Comments {
			if e.cfg.Prettify {
				e.buf = append(e.buf, ' ')
			}
			e.buf = append(e.buf, "/*"...)
			e.buf = append(e.buf, fp.comment...)
			e.buf = append(e.buf, "*/"...)
		}
	}
	e.close('}', first)
	return nil
}

// emptyFunc reports the zero values omitempty drops: false, 0, "", nil and empty
// collections. Structs are never empty unless they are a null Optional.
func emptyFunc(desc *shape.Descriptor) func(ptr unsafe.Pointer) bool {
	rType := desc.Type
	switch desc.Kind {
	case reflect.Bool:
		return func(ptr unsafe.Pointer) bool { return !xunsafe.AsBool(ptr) }
	case reflect.Int:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsInt(ptr) == 0 }
	case reflect.Int8:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsInt8(ptr) == 0 }
	case reflect.Int16:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsInt16(ptr) == 0 }
	case reflect.Int32:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsInt32(ptr) == 0 }
	case reflect.Int64:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsInt64(ptr) == 0 }
	case reflect.Uint:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsUint(ptr) == 0 }
	case reflect.Uint8:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsUint8(ptr) == 0 }
	case reflect.Uint16:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsUint16(ptr) == 0 }
	case reflect.Uint32:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsUint32(ptr) == 0 }
	case reflect.Uint64:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsUint64(ptr) == 0 }
	case reflect.Uintptr:
		return func(ptr unsafe.Pointer) bool { return *(*uintptr)(ptr) == 0 }
	case reflect.Float32:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsFloat32(ptr) == 0 }
	case reflect.Float64:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsFloat64(ptr) == 0 }
	case reflect.String:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsString(ptr) == "" }
	case reflect.Slice:
		return func(ptr unsafe.Pointer) bool { return len(*(*[]byte)(ptr)) == 0 }
	case reflect.Array:
		n := desc.Type.Len()
		return func(ptr unsafe.Pointer) bool { return n == 0 }
	case reflect.Ptr:
		return func(ptr unsafe.Pointer) bool { return *(*unsafe.Pointer)(ptr) == nil }
	case reflect.Map:
		return func(ptr unsafe.Pointer) bool { return reflect.NewAt(rType, ptr).Elem().Len() == 0 }
	case reflect.Interface:
		return func(ptr unsafe.Pointer) bool { return reflect.NewAt(rType, ptr).Elem().IsNil() }
	case reflect.Struct:
		if desc.Has(shape.TraitOptional) {
			return func(ptr unsafe.Pointer) bool {
				return reflect.NewAt(rType, ptr).Interface().(shape.Optional).IsNull()
			}
		}
	}
	return func(unsafe.Pointer) bool { return false }
}

// nullFunc reports whether the value at ptr is written as null.
func nullFunc(desc *shape.Descriptor) func(e *encoder, ptr unsafe.Pointer) bool {
	rType := desc.Type
	switch desc.Shape {
	case shape.AlwaysNull:
		return func(*encoder, unsafe.Pointer) bool { return true }
	case shape.Nullable:
		if desc.Has(shape.TraitOptional) {
			return func(_ *encoder, ptr unsafe.Pointer) bool {
				return reflect.NewAt(rType, ptr).Interface().(shape.Optional).IsNull()
			}
		}
		return func(_ *encoder, ptr unsafe.Pointer) bool { return *(*unsafe.Pointer)(ptr) == nil }
	case shape.Union:
		return func(_ *encoder, ptr unsafe.Pointer) bool { return reflect.NewAt(rType, ptr).Elem().IsNil() }
	case shape.Map:
		return func(_ *encoder, ptr unsafe.Pointer) bool { return reflect.NewAt(rType, ptr).Elem().IsNil() }
	case shape.Array, shape.Set:
		if desc.Kind == reflect.Array {
			break
		}
		if desc.Kind == reflect.Map {
			return func(e *encoder, ptr unsafe.Pointer) bool {
				return e.cfg.NilSlicePolicy == NilSliceNull && reflect.NewAt(rType, ptr).Elem().IsNil()
			}
		}
		return func(e *encoder, ptr unsafe.Pointer) bool {
			return e.cfg.NilSlicePolicy == NilSliceNull && unsafe.SliceData(*(*[]byte)(ptr)) == nil
		}
	case shape.Raw:
		if desc.Has(shape.TraitJSONMarshaler) {
			break
		}
		empty := emptyFunc(desc)
		return func(_ *encoder, ptr unsafe.Pointer) bool { return empty(ptr) }
	}
	return func(*encoder, unsafe.Pointer) bool { return false }
}
