package shape

import (
	"encoding"
	stdjson "encoding/json"
	"reflect"
	"time"
)

// Null always encodes as null and only accepts null.
type Null struct{}

// Skipped members are never written and their input value is discarded.
type Skipped struct{}

// Hidden members are never written and reading one is an error.
type Hidden struct{}

// Char8, Char16 and Char32 hold a single character as one code unit of the given width.
type (
	Char8  uint8
	Char16 uint16
	Char32 rune
)

// RawJSON holds an already encoded JSON value that is passed through verbatim.
type RawJSON []byte

// Optional is the capability a nullable wrapper exposes, implemented on the pointer receiver.
type Optional interface {
	IsNull() bool
	SetNull()
	// Ensure constructs a value when empty and returns a pointer to it.
	Ensure() any
	// ValuePtr returns a pointer to the held value or nil.
	ValuePtr() any
}

// Opt is a generic nullable value.
type Opt[T any] struct {
	value T
	valid bool
}

// Some returns a non-null Opt.
func Some[T any](value T) Opt[T] { return Opt[T]{value: value, valid: true} }

// Get returns the value and whether it is set.
func (o Opt[T]) Get() (T, bool) { return o.value, o.valid }

func (o *Opt[T]) IsNull() bool { return !o.valid }

func (o *Opt[T]) SetNull() {
	var zero T
	o.value = zero
	o.valid = false
}

func (o *Opt[T]) Ensure() any {
	o.valid = true
	return &o.value
}

func (o *Opt[T]) ValuePtr() any {
	if !o.valid {
		return nil
	}
	return &o.value
}

var (
	nullType           = reflect.TypeOf(Null{})
	skippedType        = reflect.TypeOf(Skipped{})
	hiddenType         = reflect.TypeOf(Hidden{})
	char8Type          = reflect.TypeOf(Char8(0))
	char16Type         = reflect.TypeOf(Char16(0))
	char32Type         = reflect.TypeOf(Char32(0))
	rawJSONType        = reflect.TypeOf(RawJSON(nil))
	rawMessageType     = reflect.TypeOf(stdjson.RawMessage(nil))
	timeType           = reflect.TypeOf(time.Time{})
	optionalType       = reflect.TypeOf((*Optional)(nil)).Elem()
	jsonMarshalerType  = reflect.TypeOf((*stdjson.Marshaler)(nil)).Elem()
	jsonUnmarshalType  = reflect.TypeOf((*stdjson.Unmarshaler)(nil)).Elem()
	textMarshalerType  = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalType  = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	emptyInterfaceType = reflect.TypeOf((*any)(nil)).Elem()
)
