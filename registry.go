package shapejson

import (
	"reflect"

	"github.com/viant/shapejson/shape"
	"go.uber.org/zap"
)

type (
	// Registry holds union, enum, tuple and raw declarations.
	Registry = shape.Registry
	// Alternative is one member type of a union.
	Alternative = shape.Alternative
	// Opt is a value that may be absent or null.
	Opt[T any] = shape.Opt[T]
	// Null always reads and writes null.
	Null = shape.Null
	// Skipped members are consumed on read and never written.
	Skipped = shape.Skipped
	// Hidden members fail on read and are never written.
	Hidden  = shape.Hidden
	RawJSON = shape.RawJSON
	Char8   = shape.Char8
	Char16  = shape.Char16
	Char32  = shape.Char32
)

// Some returns a present optional value.
func Some[T any](value T) Opt[T] { return shape.Some(value) }

// NewRegistry returns an empty registry isolated from the default one.
func NewRegistry() *Registry { return shape.NewRegistry() }

// Alt declares the alternative T with discriminator id.
func Alt[T any](id string) Alternative {
	return Alternative{ID: id, Type: reflect.TypeFor[T]()}
}

func registryOrDefault(r *Registry) *Registry {
	if r == nil {
		return shape.Default
	}
	return r
}

// RegisterUnion declares the interface I as a union of alts, discriminated by tag
// when tag is not empty and deduced from the member structure otherwise.
func RegisterUnion[I any](r *Registry, tag string, alts ...Alternative) error {
	return registerUnion[I](r, shape.UnionSpec{Tag: tag, Alternatives: alts})
}

// RegisterWrappedUnion declares the interface I as a union written as ["id", value].
func RegisterWrappedUnion[I any](r *Registry, alts ...Alternative) error {
	return registerUnion[I](r, shape.UnionSpec{Alternatives: alts, ArrayWrapped: true})
}

func registerUnion[I any](r *Registry, spec shape.UnionSpec) error {
	iface := reflect.TypeFor[I]()
	if err := registryOrDefault(r).RegisterUnion(iface, spec); err != nil {
		return err
	}
	zap.L().Debug("registered union", zap.Stringer("type", iface), zap.String("tag", spec.Tag), zap.Int("alternatives", len(spec.Alternatives)))
	return nil
}

// RegisterEnum declares T as an enum read and written by name.
func RegisterEnum[T comparable](r *Registry, names map[string]T) error {
	values := make(map[string]any, len(names))
	for name, value := range names {
		values[name] = value
	}
	rType := reflect.TypeFor[T]()
	if err := registryOrDefault(r).RegisterEnum(rType, values); err != nil {
		return err
	}
	zap.L().Debug("registered enum", zap.Stringer("type", rType), zap.Int("names", len(names)))
	return nil
}

// RegisterTuple declares the struct T as a tuple read and written as a positional array.
func RegisterTuple[T any](r *Registry) error {
	return registryOrDefault(r).RegisterTuple(reflect.TypeFor[T]())
}

// RegisterRaw declares T, a string or byte slice type, as holding verbatim JSON text.
func RegisterRaw[T any](r *Registry) error {
	return registryOrDefault(r).RegisterRaw(reflect.TypeFor[T]())
}
