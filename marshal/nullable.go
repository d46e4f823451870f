package marshal

import (
	"reflect"
	"unsafe"

	"github.com/viant/shapejson/shape"
	"github.com/viant/xunsafe"
)

func (c *compiler) nullableEncoder(desc *shape.Descriptor) encodeFunc {
	elem := c.plan(desc.Elem)
	inner := func(e *encoder, ptr unsafe.Pointer) error {
		return elem.encode(e, ptr)
	}
	if desc.Has(shape.TraitOptional) {
		return optionalEncoder(desc.Type, inner)
	}
	return pointerEncoder(inner)
}

func optionalEncoder(rType reflect.Type, inner encodeFunc) encodeFunc {
	return func(e *encoder, ptr unsafe.Pointer) error {
		value := reflect.NewAt(rType, ptr).Interface().(shape.Optional).ValuePtr()
		if value == nil {
			e.null()
			return nil
		}
		return inner(e, xunsafe.AsPointer(value))
	}
}

func pointerEncoder(inner encodeFunc) encodeFunc {
	return func(e *encoder, ptr unsafe.Pointer) error {
		target := *(*unsafe.Pointer)(ptr)
		if target == nil {
			e.null()
			return nil
		}
		return inner(e, target)
	}
}
