package shape

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// Alternative is one member type of a union with its discriminator id.
type Alternative struct {
	ID   string
	Type reflect.Type
}

// UnionSpec declares an interface type as a tagged union.
type UnionSpec struct {
	// Tag is the discriminator key, empty for structurally deduced unions.
	Tag          string
	Alternatives []Alternative
	// ArrayWrapped encodes the union as ["id", value].
	ArrayWrapped bool
}

// EnumSpec maps enum names to values of one type.
type EnumSpec struct {
	Names   []string
	byName  map[string]reflect.Value
	byValue map[any]string
}

// Value returns the value registered for name.
func (e *EnumSpec) Value(name string) (reflect.Value, bool) {
	v, ok := e.byName[name]
	return v, ok
}

// Name returns the name registered for value.
func (e *EnumSpec) Name(value any) (string, bool) {
	name, ok := e.byValue[value]
	return name, ok
}

// Registry holds explicit shape declarations. The zero value is not usable; use NewRegistry.
type Registry struct {
	mu         sync.RWMutex
	generation atomic.Uint64
	unions     map[reflect.Type]*UnionSpec
	enums      map[reflect.Type]*EnumSpec
	tuples     map[reflect.Type]bool
	raws       map[reflect.Type]bool
}

// Default is the process wide registry used when no registry option is given.
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		unions: map[reflect.Type]*UnionSpec{},
		enums:  map[reflect.Type]*EnumSpec{},
		tuples: map[reflect.Type]bool{},
		raws:   map[reflect.Type]bool{},
	}
}

// Generation changes on every registration; descriptor caches key on it.
func (r *Registry) Generation() uint64 { return r.generation.Load() }

// RegisterUnion declares iface, an interface type, as a union of the given alternatives.
func (r *Registry) RegisterUnion(iface reflect.Type, spec UnionSpec) error {
	if iface == nil || iface.Kind() != reflect.Interface {
		return fmt.Errorf("union type %v is not an interface", iface)
	}
	if len(spec.Alternatives) == 0 {
		return fmt.Errorf("union %v has no alternatives", iface)
	}
	if len(spec.Alternatives) > MaxAlternatives {
		return fmt.Errorf("union %v has %d alternatives, max %d", iface, len(spec.Alternatives), MaxAlternatives)
	}
	ids := map[string]bool{}
	for _, alt := range spec.Alternatives {
		if alt.Type == nil || !alt.Type.Implements(iface) {
			return fmt.Errorf("alternative %v does not implement %v", alt.Type, iface)
		}
		if alt.ID == "" {
			return fmt.Errorf("alternative %v of %v has empty id", alt.Type, iface)
		}
		if ids[alt.ID] {
			return fmt.Errorf("duplicate alternative id %q in %v", alt.ID, iface)
		}
		ids[alt.ID] = true
	}
	cp := spec
	cp.Alternatives = append([]Alternative(nil), spec.Alternatives...)
	r.mu.Lock()
	r.unions[iface] = &cp
	r.mu.Unlock()
	r.generation.Add(1)
	return nil
}

// RegisterEnum declares rType as an enum with the given name to value table.
func (r *Registry) RegisterEnum(rType reflect.Type, names map[string]any) error {
	if rType == nil || !rType.Comparable() {
		return fmt.Errorf("enum type %v is not comparable", rType)
	}
	spec := &EnumSpec{byName: map[string]reflect.Value{}, byValue: map[any]string{}}
	for name, value := range names {
		v := reflect.ValueOf(value)
		if !v.IsValid() || v.Type() != rType {
			return fmt.Errorf("enum %v: value for %q has type %T", rType, name, value)
		}
		spec.byName[name] = v
		if prev, ok := spec.byValue[value]; !ok || name < prev {
			spec.byValue[value] = name
		}
		spec.Names = append(spec.Names, name)
	}
	sort.Strings(spec.Names)
	r.mu.Lock()
	r.enums[rType] = spec
	r.mu.Unlock()
	r.generation.Add(1)
	return nil
}

// RegisterTuple declares a struct type to be encoded as a positional array.
func (r *Registry) RegisterTuple(rType reflect.Type) error {
	if rType == nil || rType.Kind() != reflect.Struct {
		return fmt.Errorf("tuple type %v is not a struct", rType)
	}
	r.mu.Lock()
	r.tuples[rType] = true
	r.mu.Unlock()
	r.generation.Add(1)
	return nil
}

// RegisterRaw declares rType, a string or byte slice kind, as raw JSON passthrough.
func (r *Registry) RegisterRaw(rType reflect.Type) error {
	if rType == nil || !(rType.Kind() == reflect.String || (rType.Kind() == reflect.Slice && rType.Elem().Kind() == reflect.Uint8)) {
		return fmt.Errorf("raw type %v must be a string or []byte kind", rType)
	}
	r.mu.Lock()
	r.raws[rType] = true
	r.mu.Unlock()
	r.generation.Add(1)
	return nil
}

func (r *Registry) union(rType reflect.Type) *UnionSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.unions[rType]
}

func (r *Registry) enum(rType reflect.Type) *EnumSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enums[rType]
}

func (r *Registry) isTuple(rType reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tuples[rType]
}

func (r *Registry) isRaw(rType reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.raws[rType]
}
