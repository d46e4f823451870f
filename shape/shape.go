// Package shape classifies Go types into the closed set of JSON encodings the codec
// supports and compiles per-type descriptors consumed by the marshal and unmarshal engines.
package shape

// Shape is how a type is encoded.
type Shape uint8

const (
	Invalid Shape = iota
	Bool
	Number
	String
	Char
	Array
	Tuple
	Object
	Map
	Set
	Enum
	Union
	Nullable
	Raw
	Skip
	AlwaysNull
)

var shapeNames = [...]string{
	Invalid:    "invalid",
	Bool:       "bool",
	Number:     "number",
	String:     "string",
	Char:       "char",
	Array:      "array",
	Tuple:      "tuple",
	Object:     "object",
	Map:        "map",
	Set:        "set",
	Enum:       "enum",
	Union:      "union",
	Nullable:   "nullable",
	Raw:        "raw",
	Skip:       "skip",
	AlwaysNull: "null",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "invalid"
}

// Class is the JSON token class a shape starts with; union deduction works on classes.
type Class uint8

const (
	ClassNone Class = iota
	ClassNull
	ClassBool
	ClassNumber
	ClassString
	ClassArray
	ClassObject
	classCount
)

// ClassOf returns the token class a value of d starts with, ClassNone when unpredictable.
func ClassOf(d *Descriptor) Class {
	if d == nil {
		return ClassNone
	}
	switch d.Shape {
	case Bool:
		return ClassBool
	case Number:
		return ClassNumber
	case String, Char, Enum:
		return ClassString
	case Array, Tuple, Set:
		return ClassArray
	case Object, Map:
		return ClassObject
	case AlwaysNull:
		return ClassNull
	case Nullable:
		return ClassOf(d.Elem)
	}
	return ClassNone
}
