package shape

import (
	"fmt"
	"reflect"

	"github.com/viant/shapejson/internal/tagutil"
	"github.com/viant/xunsafe"
)

// UnsupportedTypeError reports a type no shape applies to.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type %v: %s", e.Type, e.Reason)
}

type builder struct {
	registry   *Registry
	generation uint64
	building   map[reflect.Type]*Descriptor
	// unions are indexed once the whole graph is built; a recursive
	// alternative is still incomplete while its union is compiled.
	unions []*UnionDescriptor
}

func (b *builder) build(rType reflect.Type) (*Descriptor, error) {
	d, err := b.describe(rType)
	if err != nil {
		return nil, err
	}
	for _, u := range b.unions {
		u.index()
	}
	return d, nil
}

func (b *builder) describe(rType reflect.Type) (*Descriptor, error) {
	if rType == nil {
		return nil, &UnsupportedTypeError{Reason: "nil type"}
	}
	if d, ok := b.building[rType]; ok {
		return d, nil
	}
	if d, ok := descriptors.Get(cacheKey{registry: b.registry, generation: b.generation, rType: rType}); ok {
		return d, nil
	}
	d := &Descriptor{Type: rType, Kind: rType.Kind()}
	b.building[rType] = d
	if err := b.classify(d); err != nil {
		return nil, err
	}
	return d, nil
}

// classify applies the capability checks in priority order; the first match wins.
func (b *builder) classify(d *Descriptor) error {
	if matched, err := b.classifyDeclared(d); matched || err != nil {
		return err
	}
	rType := d.Type
	switch rType {
	case nullType:
		d.Shape = AlwaysNull
		return nil
	case skippedType:
		d.Shape = Skip
		return nil
	case hiddenType:
		d.Shape = Skip
		d.Traits |= TraitHidden
		return nil
	case char8Type, char16Type, char32Type:
		d.Shape = Char
		d.Width = int(rType.Size() * 8)
		return nil
	}
	switch rType.Kind() {
	case reflect.Func:
		d.Shape = Skip
		d.Traits |= TraitFunc
	case reflect.Bool:
		d.Shape = Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		d.Shape = Number
	case reflect.String:
		d.Shape = String
		d.Width = 8
	case reflect.Array:
		if rType.Elem() == char8Type {
			d.Shape = String
			d.Width = 8
			d.Len = rType.Len()
			d.Traits |= TraitCharArray
			return nil
		}
		d.Shape = Array
		d.Len = rType.Len()
		return b.elem(d, rType.Elem())
	case reflect.Slice:
		d.Shape = Array
		return b.elem(d, rType.Elem())
	case reflect.Map:
		return b.mapShape(d)
	case reflect.Struct:
		d.Shape = Object
		return b.fields(d)
	case reflect.Interface:
		if rType != emptyInterfaceType {
			return &UnsupportedTypeError{Type: rType, Reason: "interface is not a registered union"}
		}
		return b.anyUnion(d)
	case reflect.Ptr:
		d.Shape = Nullable
		return b.elem(d, rType.Elem())
	default:
		return &UnsupportedTypeError{Type: rType, Reason: "no shape for kind " + rType.Kind().String()}
	}
	return nil
}

// classifyDeclared handles explicit declarations: registry entries, raw types,
// codec interfaces and the optional capability.
func (b *builder) classifyDeclared(d *Descriptor) (bool, error) {
	rType := d.Type
	reg := b.registry
	switch {
	case reg.isRaw(rType), rType == rawJSONType, rType == rawMessageType:
		d.Shape = Raw
		return true, nil
	case reg.enum(rType) != nil:
		d.Shape = Enum
		d.Enum = reg.enum(rType)
		return true, nil
	case reg.isTuple(rType):
		d.Shape = Tuple
		return true, b.fields(d)
	case reg.union(rType) != nil:
		d.Shape = Union
		return true, b.union(d, reg.union(rType))
	}
	if rType.Kind() == reflect.Ptr || rType.Kind() == reflect.Interface {
		return false, nil
	}
	if rType == timeType {
		d.Shape = String
		d.Width = 8
		d.Traits |= TraitTime
		return true, nil
	}
	ptrType := reflect.PointerTo(rType)
	if ptrType.Implements(optionalType) {
		d.Shape = Nullable
		d.Traits |= TraitOptional
		sample := reflect.New(rType).Interface().(Optional).Ensure()
		inner := reflect.TypeOf(sample)
		if inner == nil || inner.Kind() != reflect.Ptr {
			return true, &UnsupportedTypeError{Type: rType, Reason: "Ensure must return a pointer"}
		}
		return true, b.elem(d, inner.Elem())
	}
	if ptrType.Implements(jsonMarshalerType) {
		d.Traits |= TraitJSONMarshaler
	}
	if ptrType.Implements(jsonUnmarshalType) {
		d.Traits |= TraitJSONUnmarshaler
	}
	if ptrType.Implements(textMarshalerType) {
		d.Traits |= TraitTextMarshaler
	}
	if ptrType.Implements(textUnmarshalType) {
		d.Traits |= TraitTextUnmarshaler
	}
	switch {
	case d.Has(TraitJSONMarshaler | TraitJSONUnmarshaler):
		d.Shape = Raw
		return true, nil
	case d.Has(TraitTextMarshaler|TraitTextUnmarshaler) && d.Traits&(TraitJSONMarshaler|TraitJSONUnmarshaler) == 0:
		d.Shape = String
		d.Width = 8
		return true, nil
	}
	return false, nil
}

func (b *builder) elem(d *Descriptor, elemType reflect.Type) error {
	elem, err := b.describe(elemType)
	if err != nil {
		return err
	}
	d.Elem = elem
	return nil
}

func (b *builder) mapShape(d *Descriptor) error {
	rType := d.Type
	keyType := rType.Key()
	key, err := b.describe(keyType)
	if err != nil {
		return err
	}
	switch {
	case key.Shape == Number, key.Shape == Bool, key.Shape == Enum:
	case key.Shape == String && !key.Has(TraitCharArray):
	default:
		return &UnsupportedTypeError{Type: rType, Reason: "map key " + key.String() + " cannot be an object key"}
	}
	valueType := rType.Elem()
	if valueType.Kind() == reflect.Struct && valueType.NumField() == 0 && valueType != nullType && valueType != skippedType && valueType != hiddenType {
		d.Shape = Set
		d.Elem = key
		return nil
	}
	d.Shape = Map
	d.Key = key
	return b.elem(d, valueType)
}

func (b *builder) union(d *Descriptor, spec *UnionSpec) error {
	u := &UnionDescriptor{Tag: spec.Tag, ArrayWrapped: spec.ArrayWrapped}
	d.Union = u
	for _, alt := range spec.Alternatives {
		altDesc, err := b.describe(alt.Type)
		if err != nil {
			return err
		}
		u.Alternatives = append(u.Alternatives, altDesc)
		u.IDs = append(u.IDs, alt.ID)
	}
	b.unions = append(b.unions, u)
	return nil
}

// anyUnion models interface{} as the union of the generic JSON value types.
func (b *builder) anyUnion(d *Descriptor) error {
	d.Shape = Union
	d.Traits |= TraitAny
	u := &UnionDescriptor{}
	d.Union = u
	samples := []struct {
		id    string
		rType reflect.Type
	}{
		{"bool", reflect.TypeOf(false)},
		{"number", reflect.TypeOf(float64(0))},
		{"string", reflect.TypeOf("")},
		{"array", reflect.TypeOf([]any(nil))},
		{"object", reflect.TypeOf(map[string]any(nil))},
	}
	for _, sample := range samples {
		altDesc, err := b.describe(sample.rType)
		if err != nil {
			return err
		}
		u.Alternatives = append(u.Alternatives, altDesc)
		u.IDs = append(u.IDs, sample.id)
	}
	b.unions = append(b.unions, u)
	return nil
}

func (b *builder) fields(d *Descriptor) error {
	names := map[string]bool{}
	var markerFlags map[string]*xunsafe.Field
	var collect func(rType reflect.Type, parent []*xunsafe.Field, topLevel bool) error
	collect = func(rType reflect.Type, parent []*xunsafe.Field, topLevel bool) error {
		for i := 0; i < rType.NumField(); i++ {
			sf := rType.Field(i)
			if sf.PkgPath != "" {
				continue
			}
			tag := tagutil.ResolveFieldTag(sf)
			if tag.Marker {
				if topLevel && d.Marker == nil {
					d.Marker, markerFlags = newMarker(sf)
				}
				continue
			}
			if tag.Ignore {
				continue
			}
			xField := xunsafe.NewField(sf)
			chain := append(append([]*xunsafe.Field{}, parent...), xField)
			if tag.Inline && d.Shape == Object {
				if inner := inlineType(b.registry, sf.Type); inner != nil {
					if err := collect(inner, chain, false); err != nil {
						return err
					}
					continue
				}
			}
			if names[tag.Name] {
				continue
			}
			names[tag.Name] = true
			fieldDesc, err := b.describe(sf.Type)
			if err != nil {
				return err
			}
			field := &Field{
				Name:       tag.Name,
				GoName:     sf.Name,
				Explicit:   tag.Explicit,
				Index:      len(d.Fields),
				Path:       chain,
				Desc:       fieldDesc,
				OmitEmpty:  tag.OmitEmpty,
				Quoted:     tag.Quoted,
				Number:     tag.Number,
				Comment:    tag.Comment,
				TimeLayout: tag.TimeLayout,
			}
			field.Required = tag.Required || !(tag.Optional || tag.OmitEmpty || fieldDesc.Nullish())
			d.Fields = append(d.Fields, field)
		}
		return nil
	}
	if err := collect(d.Type, nil, true); err != nil {
		return err
	}
	for _, field := range d.Fields {
		field.MarkerFlag = markerFlags[field.GoName]
	}
	return nil
}

func newMarker(sf reflect.StructField) (*Marker, map[string]*xunsafe.Field) {
	holderType := sf.Type
	flagsType := holderType
	if flagsType.Kind() == reflect.Ptr {
		flagsType = flagsType.Elem()
	}
	if flagsType.Kind() != reflect.Struct {
		return nil, nil
	}
	flags := map[string]*xunsafe.Field{}
	for i := 0; i < flagsType.NumField(); i++ {
		if mf := flagsType.Field(i); mf.Type.Kind() == reflect.Bool {
			flags[mf.Name] = xunsafe.NewField(mf)
		}
	}
	return &Marker{Holder: xunsafe.NewField(sf), HolderType: holderType, flags: flags}, flags
}

// inlineType returns the struct type whose fields get promoted, or nil when the
// embedded type carries its own encoding.
func inlineType(reg *Registry, rType reflect.Type) reflect.Type {
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	if rType.Kind() != reflect.Struct || rType == timeType || reg.isTuple(rType) {
		return nil
	}
	ptrType := reflect.PointerTo(rType)
	for _, capability := range []reflect.Type{optionalType, jsonMarshalerType, jsonUnmarshalType, textMarshalerType, textUnmarshalType} {
		if ptrType.Implements(capability) {
			return nil
		}
	}
	return rType
}
