package shape

import (
	"reflect"
	"unsafe"

	"github.com/viant/shapejson/internal/lru"
	"github.com/viant/xunsafe"
)

// MaxAlternatives bounds union size so alternative sets fit a uint64 bitset.
const MaxAlternatives = 64

// Trait refines a shape with the hooks an engine has to honour.
type Trait uint16

const (
	TraitJSONMarshaler Trait = 1 << iota
	TraitJSONUnmarshaler
	TraitTextMarshaler
	TraitTextUnmarshaler
	TraitTime
	TraitCharArray
	TraitHidden
	TraitFunc
	TraitOptional
	TraitAny
)

// Descriptor is the compiled shape of one Go type.
type Descriptor struct {
	Type   reflect.Type
	Kind   reflect.Kind
	Shape  Shape
	Traits Trait
	// Width is the code unit width of String and Char shapes.
	Width int
	// Len is the capacity of Go arrays and char arrays.
	Len    int
	Elem   *Descriptor
	Key    *Descriptor
	Fields []*Field
	Marker *Marker
	Enum   *EnumSpec
	Union  *UnionDescriptor
}

// Has reports whether all traits in t are set.
func (d *Descriptor) Has(t Trait) bool { return d.Traits&t == t }

func (d *Descriptor) String() string {
	return d.Shape.String() + "(" + d.Type.String() + ")"
}

// Nullish reports whether a value of the shape may legitimately be absent.
func (d *Descriptor) Nullish() bool {
	switch d.Shape {
	case Nullable, AlwaysNull, Skip:
		return true
	}
	return false
}

// Field is one member of an Object or Tuple descriptor.
type Field struct {
	Name     string
	GoName   string
	Explicit bool
	Index    int
	Path     []*xunsafe.Field
	Desc     *Descriptor

	OmitEmpty  bool
	Quoted     bool
	Number     bool
	Required   bool
	Comment    string
	TimeLayout string
	MarkerFlag *xunsafe.Field
}

// Pointer resolves the field address from the owning struct address. Nil embedded
// pointers are allocated when alloc is set, otherwise nil is returned.
func (f *Field) Pointer(structPtr unsafe.Pointer, alloc bool) unsafe.Pointer {
	current := structPtr
	last := len(f.Path) - 1
	for i, xField := range f.Path {
		ptr := xField.Pointer(current)
		if i == last {
			return ptr
		}
		if xField.Type.Kind() != reflect.Ptr {
			current = ptr
			continue
		}
		next := (*unsafe.Pointer)(ptr)
		if *next == nil {
			if !alloc {
				return nil
			}
			*next = unsafe.Pointer(reflect.New(xField.Type.Elem()).Pointer())
		}
		current = *next
	}
	return current
}

// Marker is a presence holder: a struct of bool flags named after the decoded fields.
type Marker struct {
	Holder     *xunsafe.Field
	HolderType reflect.Type
	flags      map[string]*xunsafe.Field
}

// Ensure returns the holder address, allocating a nil holder pointer.
func (m *Marker) Ensure(structPtr unsafe.Pointer) unsafe.Pointer {
	ptr := m.Holder.Pointer(structPtr)
	if m.HolderType.Kind() != reflect.Ptr {
		return ptr
	}
	holder := (*unsafe.Pointer)(ptr)
	if *holder == nil {
		*holder = unsafe.Pointer(reflect.New(m.HolderType.Elem()).Pointer())
	}
	return *holder
}

// UnionDescriptor is the compiled form of a union.
type UnionDescriptor struct {
	Tag          string
	ArrayWrapped bool
	Alternatives []*Descriptor
	IDs          []string
	// Deducible is set when every token class but object has at most one alternative.
	Deducible bool
	ByClass   [classCount]int
	Objects   []int
}

// IndexOfID returns the alternative index for a discriminator id.
func (u *UnionDescriptor) IndexOfID(id string) int {
	for i, candidate := range u.IDs {
		if candidate == id {
			return i
		}
	}
	return -1
}

// IndexOfType returns the alternative index holding values of rType.
func (u *UnionDescriptor) IndexOfType(rType reflect.Type) int {
	for i, alt := range u.Alternatives {
		if alt.Type == rType {
			return i
		}
	}
	return -1
}

// Alternative returns the alternative index for the token class.
func (u *UnionDescriptor) Alternative(class Class) int {
	return u.ByClass[class]
}

func (u *UnionDescriptor) index() {
	for i := range u.ByClass {
		u.ByClass[i] = -1
	}
	u.Deducible = true
	for i, alt := range u.Alternatives {
		class := ClassOf(alt)
		switch class {
		case ClassNone:
			u.Deducible = false
		case ClassObject:
			u.Objects = append(u.Objects, i)
		default:
			if u.ByClass[class] >= 0 {
				u.Deducible = false
				continue
			}
			u.ByClass[class] = i
		}
	}
	if len(u.Objects) == 1 {
		u.ByClass[ClassObject] = u.Objects[0]
	}
}

type cacheKey struct {
	registry   *Registry
	generation uint64
	rType      reflect.Type
}

var descriptors = lru.New[cacheKey, *Descriptor](4096)

// Describe returns the descriptor for rType from the default registry.
func Describe(rType reflect.Type) (*Descriptor, error) {
	return Default.Describe(rType)
}

// Classify returns the shape of rType from the default registry.
func Classify(rType reflect.Type) (Shape, error) {
	d, err := Default.Describe(rType)
	if err != nil {
		return Invalid, err
	}
	return d.Shape, nil
}

// Describe compiles, or returns the cached, descriptor for rType.
func (r *Registry) Describe(rType reflect.Type) (*Descriptor, error) {
	key := cacheKey{registry: r, generation: r.Generation(), rType: rType}
	return descriptors.Load(key, func() (*Descriptor, error) {
		b := &builder{registry: r, generation: key.generation, building: map[reflect.Type]*Descriptor{}}
		return b.build(rType)
	})
}
