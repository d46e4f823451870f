package unmarshal

import (
	"reflect"
	"unsafe"

	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/shape"
	"github.com/viant/xunsafe"
)

func (c *compiler) nullableDecoder(desc *shape.Descriptor) decodeFunc {
	elem := c.plan(desc.Elem)
	if desc.Has(shape.TraitOptional) {
		return optionalDecoder(desc.Type, elem)
	}
	return pointerDecoder(desc.Type.Elem(), func(d *decoder, ptr unsafe.Pointer) error {
		return elem.decode(d, ptr)
	})
}

// pointerDecoder resets the pointer on null, otherwise allocates a missing value and
// reads into it.
func pointerDecoder(elemType reflect.Type, inner decodeFunc) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		c, err := d.next()
		if err != nil {
			return err
		}
		slot := (*unsafe.Pointer)(ptr)
		if c == 'n' {
			if err = d.literal("null", jsonerr.SyntaxError); err != nil {
				return err
			}
			*slot = nil
			return nil
		}
		if *slot == nil {
			*slot = reflect.New(elemType).UnsafePointer()
		}
		return inner(d, *slot)
	}
}

func optionalDecoder(rType reflect.Type, elem *typePlan) decodeFunc {
	return func(d *decoder, ptr unsafe.Pointer) error {
		c, err := d.next()
		if err != nil {
			return err
		}
		optional := reflect.NewAt(rType, ptr).Interface().(shape.Optional)
		if c == 'n' {
			if err = d.literal("null", jsonerr.SyntaxError); err != nil {
				return err
			}
			optional.SetNull()
			return nil
		}
		return elem.decode(d, xunsafe.AsPointer(optional.Ensure()))
	}
}
