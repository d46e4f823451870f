package shape

import (
	stdjson "encoding/json"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color int

type point struct {
	X int
	Y int
}

type animal interface{ sound() string }

type dog struct{ Bark string }

func (dog) sound() string { return "woof" }

type cat struct{ Meow string }

func (*cat) sound() string { return "meow" }

type custom struct{}

func (custom) MarshalJSON() ([]byte, error) { return []byte(`1`), nil }
func (*custom) UnmarshalJSON([]byte) error  { return nil }

type onlyMarshaler struct{ A int }

func (onlyMarshaler) MarshalJSON() ([]byte, error) { return []byte(`{}`), nil }

type node struct {
	Value int
	Next  *node
}

type figure interface{ area() float64 }

type group struct{ Items []figure }

func (*group) area() float64 { return 0 }

type circle struct{ Radius float64 }

func (circle) area() float64 { return 0 }

type drawing struct{ Root *group }

func newTestRegistry(t *testing.T) *Registry {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterEnum(reflect.TypeOf(color(0)), map[string]any{"red": color(1), "green": color(2)}))
	require.NoError(t, reg.RegisterTuple(reflect.TypeOf(point{})))
	require.NoError(t, reg.RegisterUnion(reflect.TypeOf((*animal)(nil)).Elem(), UnionSpec{
		Tag: "kind",
		Alternatives: []Alternative{
			{ID: "dog", Type: reflect.TypeOf(dog{})},
			{ID: "cat", Type: reflect.TypeOf(&cat{})},
		},
	}))
	return reg
}

func TestRegistry_Classify(t *testing.T) {
	reg := newTestRegistry(t)
	testCases := []struct {
		description string
		value       any
		expect      Shape
	}{
		{description: "bool", value: true, expect: Bool},
		{description: "int", value: 1, expect: Number},
		{description: "uint8", value: uint8(1), expect: Number},
		{description: "float", value: 1.5, expect: Number},
		{description: "string", value: "", expect: String},
		{description: "char8", value: Char8('a'), expect: Char},
		{description: "char32", value: Char32('a'), expect: Char},
		{description: "char array", value: [4]Char8{}, expect: String},
		{description: "time", value: time.Time{}, expect: String},
		{description: "text marshaler", value: net.IP{}, expect: String},
		{description: "enum", value: color(1), expect: Enum},
		{description: "tuple", value: point{}, expect: Tuple},
		{description: "slice", value: []int{}, expect: Array},
		{description: "array", value: [3]int{}, expect: Array},
		{description: "set", value: map[string]struct{}{}, expect: Set},
		{description: "map", value: map[string]int{}, expect: Map},
		{description: "int keyed map", value: map[int]string{}, expect: Map},
		{description: "object", value: dog{}, expect: Object},
		{description: "pointer", value: &dog{}, expect: Nullable},
		{description: "opt", value: Opt[int]{}, expect: Nullable},
		{description: "raw", value: RawJSON{}, expect: Raw},
		{description: "raw message", value: stdjson.RawMessage{}, expect: Raw},
		{description: "custom codec", value: custom{}, expect: Raw},
		{description: "marshaler only stays structural", value: onlyMarshaler{}, expect: Object},
		{description: "null", value: Null{}, expect: AlwaysNull},
		{description: "skipped", value: Skipped{}, expect: Skip},
		{description: "hidden", value: Hidden{}, expect: Skip},
		{description: "func", value: func() {}, expect: Skip},
	}
	for _, testCase := range testCases {
		d, err := reg.Describe(reflect.TypeOf(testCase.value))
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expect, d.Shape, testCase.description)
	}

	d, err := reg.Describe(reflect.TypeOf((*animal)(nil)).Elem())
	require.NoError(t, err)
	assert.Equal(t, Union, d.Shape)

	d, err = reg.Describe(reflect.TypeOf((*any)(nil)).Elem())
	require.NoError(t, err)
	assert.Equal(t, Union, d.Shape)
	assert.True(t, d.Has(TraitAny))
	assert.True(t, d.Union.Deducible)
}

func TestRegistry_Unsupported(t *testing.T) {
	reg := NewRegistry()
	for _, value := range []any{make(chan int), complex(1, 2), map[[2]int]int{}} {
		_, err := reg.Describe(reflect.TypeOf(value))
		var unsupported *UnsupportedTypeError
		assert.ErrorAs(t, err, &unsupported, reflect.TypeOf(value).String())
	}
	_, err := reg.Describe(reflect.TypeOf((*animal)(nil)).Elem())
	assert.Error(t, err, "unregistered interfaces have no shape")
}

func TestRegistry_Fields(t *testing.T) {
	type Base struct {
		ID int `json:"id"`
	}
	type Has struct {
		ID   bool
		Name bool
	}
	type record struct {
		*Base
		Name     string  `json:"name" comment:"display name"`
		Nick     *string `json:"nick"`
		Count    int     `json:"count,string,omitempty"`
		Amount   string  `json:"amount,number"`
		Secret   string  `json:"-"`
		internal int
		Has      *Has `setMarker:"true"`
	}
	d, err := NewRegistry().Describe(reflect.TypeOf(record{}))
	require.NoError(t, err)
	require.Equal(t, Object, d.Shape)
	require.Len(t, d.Fields, 5)

	var names []string
	for _, field := range d.Fields {
		names = append(names, field.Name)
	}
	assert.Equal(t, []string{"id", "name", "nick", "count", "amount"}, names)
	assert.True(t, d.Fields[0].Required)
	assert.NotNil(t, d.Fields[0].MarkerFlag)
	assert.Len(t, d.Fields[0].Path, 2)
	assert.Equal(t, "display name", d.Fields[1].Comment)
	assert.False(t, d.Fields[2].Required, "pointers are optional")
	assert.True(t, d.Fields[3].Quoted)
	assert.False(t, d.Fields[3].Required, "omitempty fields are optional")
	assert.True(t, d.Fields[4].Number)
	require.NotNil(t, d.Marker)

	value := record{}
	ptr := reflect.ValueOf(&value).UnsafePointer()
	assert.True(t, d.Fields[0].Pointer(ptr, false) == nil)
	idPtr := d.Fields[0].Pointer(ptr, true)
	require.NotNil(t, value.Base)
	*(*int)(idPtr) = 7
	assert.Equal(t, 7, value.ID)

	holder := d.Marker.Ensure(ptr)
	require.NotNil(t, value.Has)
	*(*bool)(d.Fields[1].MarkerFlag.Pointer(holder)) = true
	assert.True(t, value.Has.Name)
}

func TestRegistry_Recursive(t *testing.T) {
	d, err := NewRegistry().Describe(reflect.TypeOf(node{}))
	require.NoError(t, err)
	next := d.Fields[1].Desc
	assert.Equal(t, Nullable, next.Shape)
	assert.Same(t, d, next.Elem)
}

func TestRegistry_RecursiveUnion(t *testing.T) {
	itemsUnion := func(groupDesc *Descriptor) *UnionDescriptor {
		return groupDesc.Fields[0].Desc.Elem.Union
	}
	var testCases = []struct {
		description string
		rType       reflect.Type
		union       func(d *Descriptor) *UnionDescriptor
	}{
		{
			description: "interface first",
			rType:       reflect.TypeOf((*figure)(nil)).Elem(),
			union:       func(d *Descriptor) *UnionDescriptor { return d.Union },
		},
		{
			description: "pointer alternative first",
			rType:       reflect.TypeOf(&group{}),
			union:       func(d *Descriptor) *UnionDescriptor { return itemsUnion(d.Elem) },
		},
		{
			description: "pointer alternative as a field",
			rType:       reflect.TypeOf(drawing{}),
			union:       func(d *Descriptor) *UnionDescriptor { return itemsUnion(d.Fields[0].Desc.Elem) },
		},
	}
	for _, testCase := range testCases {
		reg := NewRegistry()
		require.NoError(t, reg.RegisterUnion(reflect.TypeOf((*figure)(nil)).Elem(), UnionSpec{
			Tag: "kind",
			Alternatives: []Alternative{
				{ID: "group", Type: reflect.TypeOf(&group{})},
				{ID: "circle", Type: reflect.TypeOf(circle{})},
			},
		}), testCase.description)
		var d *Descriptor
		var err error
		require.NotPanics(t, func() { d, err = reg.Describe(testCase.rType) }, testCase.description)
		require.NoError(t, err, testCase.description)
		u := testCase.union(d)
		require.NotNil(t, u, testCase.description)
		assert.True(t, u.Deducible, testCase.description)
		assert.Equal(t, []int{0, 1}, u.Objects, testCase.description)
		assert.Equal(t, -1, u.Alternative(ClassObject), testCase.description)
		assert.Equal(t, Nullable, u.Alternatives[0].Shape, testCase.description)
		assert.Equal(t, ClassObject, ClassOf(u.Alternatives[0]), testCase.description)
	}
}

func TestClassOf_Nil(t *testing.T) {
	assert.Equal(t, ClassNone, ClassOf(nil))
	assert.Equal(t, ClassNone, ClassOf(&Descriptor{Shape: Nullable}))
}

func TestUnionDescriptor_Index(t *testing.T) {
	reg := newTestRegistry(t)
	d, err := reg.Describe(reflect.TypeOf((*animal)(nil)).Elem())
	require.NoError(t, err)
	u := d.Union
	assert.True(t, u.Deducible)
	assert.Equal(t, []int{0, 1}, u.Objects)
	assert.Equal(t, -1, u.Alternative(ClassObject), "two object alternatives need key discrimination")
	assert.Equal(t, 1, u.IndexOfID("cat"))
	assert.Equal(t, 0, u.IndexOfType(reflect.TypeOf(dog{})))
	assert.Equal(t, -1, u.IndexOfID("cow"))

	numbers := NewRegistry()
	require.NoError(t, numbers.RegisterUnion(reflect.TypeOf((*stdjson.Marshaler)(nil)).Elem(), UnionSpec{
		Alternatives: []Alternative{{ID: "a", Type: reflect.TypeOf(custom{})}, {ID: "b", Type: reflect.TypeOf(stdjson.RawMessage(nil))}},
	}))
	d, err = numbers.Describe(reflect.TypeOf((*stdjson.Marshaler)(nil)).Elem())
	require.NoError(t, err)
	assert.False(t, d.Union.Deducible, "raw alternatives have no predictable token class")
}

func TestRegistry_RegisterErrors(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.RegisterUnion(reflect.TypeOf(0), UnionSpec{}))
	assert.Error(t, reg.RegisterUnion(reflect.TypeOf((*animal)(nil)).Elem(), UnionSpec{}))
	assert.Error(t, reg.RegisterUnion(reflect.TypeOf((*animal)(nil)).Elem(), UnionSpec{
		Alternatives: []Alternative{{ID: "x", Type: reflect.TypeOf(0)}},
	}))
	assert.Error(t, reg.RegisterUnion(reflect.TypeOf((*animal)(nil)).Elem(), UnionSpec{
		Alternatives: []Alternative{{ID: "x", Type: reflect.TypeOf(dog{})}, {ID: "x", Type: reflect.TypeOf(&cat{})}},
	}))
	assert.Error(t, reg.RegisterEnum(reflect.TypeOf(color(0)), map[string]any{"red": 1}))
	assert.Error(t, reg.RegisterTuple(reflect.TypeOf(0)))
	assert.Error(t, reg.RegisterRaw(reflect.TypeOf(0)))

	before := reg.Generation()
	require.NoError(t, reg.RegisterRaw(reflect.TypeOf("")))
	assert.Greater(t, reg.Generation(), before)
}

func TestComputeKeyStats(t *testing.T) {
	testCases := []struct {
		description string
		names       []string
		expect      KeyStats
	}{
		{description: "empty", names: nil, expect: KeyStats{}},
		{description: "equal lengths", names: []string{"ab", "cd"}, expect: KeyStats{Min: 2, Max: 2}},
		{description: "range", names: []string{"a", "abcdef"}, expect: KeyStats{Min: 1, Max: 6}},
		{description: "escape", names: []string{"a\"b"}, expect: KeyStats{Min: 3, Max: 3, NeedsEscape: true}},
		{description: "non ascii", names: []string{"é"}, expect: KeyStats{Min: 2, Max: 2, NeedsEscape: true}},
	}
	for _, testCase := range testCases {
		actual := ComputeKeyStats(testCase.names)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
	assert.Equal(t, 5, KeyStats{Min: 1, Max: 6}.Range())
}
