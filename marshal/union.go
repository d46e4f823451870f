package marshal

import (
	"reflect"
	"unsafe"

	"github.com/viant/shapejson/internal/strcodec"
	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/shape"
)

type unionPlan struct {
	desc  *shape.Descriptor
	union *shape.UnionDescriptor
	alts  []*typePlan
	// objects holds, per alternative, the plan of the struct written as an object.
	objects []*typePlan
	// indirect marks pointer alternatives whose object sits behind the held pointer.
	indirect []bool
}

func (c *compiler) unionEncoder(desc *shape.Descriptor) encodeFunc {
	u := desc.Union
	p := &unionPlan{desc: desc, union: u}
	for _, alt := range u.Alternatives {
		p.alts = append(p.alts, c.plan(alt))
		objectDesc, indirect := alt, false
		if alt.Shape == shape.Nullable && !alt.Has(shape.TraitOptional) {
			objectDesc, indirect = alt.Elem, true
		}
		var holder *typePlan
		if objectDesc.Shape == shape.Object && !objectDesc.Has(shape.TraitJSONMarshaler) && !objectDesc.Has(shape.TraitTextMarshaler) {
			holder = c.plan(objectDesc)
		}
		p.objects = append(p.objects, holder)
		p.indirect = append(p.indirect, indirect)
	}
	return p.encode
}

// valuePointer copies the dynamic value of an interface into addressable memory.
func valuePointer(value reflect.Value) unsafe.Pointer {
	holder := reflect.New(value.Type())
	holder.Elem().Set(value)
	return holder.UnsafePointer()
}

func (p *unionPlan) encode(e *encoder, ptr unsafe.Pointer) error {
	iface := reflect.NewAt(p.desc.Type, ptr).Elem()
	if iface.IsNil() {
		e.null()
		return nil
	}
	value := iface.Elem()
	k := p.union.IndexOfType(value.Type())
	if k < 0 {
		if p.desc.Has(shape.TraitAny) {
			return e.dynamic(value)
		}
		return e.failDetail(jsonerr.NoMatchingVariantType, value.Type().String(), nil)
	}
	valuePtr := valuePointer(value)
	if p.union.ArrayWrapped {
		return p.encodeWrapped(e, valuePtr, k)
	}
	if e.cfg.WriteTypeInfo && p.union.Tag != "" && p.objects[k] != nil {
		structPtr := valuePtr
		if p.indirect[k] {
			if structPtr = *(*unsafe.Pointer)(valuePtr); structPtr == nil {
				e.null()
				return nil
			}
		}
		return p.objects[k].object.encodeTagged(e, structPtr, p.union.Tag, p.union.IDs[k])
	}
	return p.alts[k].encode(e, valuePtr)
}

// encodeWrapped writes the ["id", value] form.
func (p *unionPlan) encodeWrapped(e *encoder, valuePtr unsafe.Pointer, k int) error {
	if err := e.open('['); err != nil {
		return err
	}
	first := true
	e.separator(&first)
	e.buf = strcodec.AppendQuoted(e.buf, p.union.IDs[k])
	e.separator(&first)
	if err := p.alts[k].encode(e, valuePtr); err != nil {
		return err
	}
	e.close(']', false)
	return nil
}

// dynamic writes a value held by an any whose type is not one of the generic JSON types.
func (e *encoder) dynamic(value reflect.Value) error {
	rType := value.Type()
	var ptr unsafe.Pointer
	if rType.Kind() == reflect.Ptr {
		if value.IsNil() {
			e.null()
			return nil
		}
		ptr = value.UnsafePointer()
		rType = rType.Elem()
	} else {
		ptr = valuePointer(value)
	}
	plan, err := e.engine.planFor(rType)
	if err != nil {
		return err
	}
	return plan.encode(e, ptr)
}
