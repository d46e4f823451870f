package marshal

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/shape"
	"github.com/viant/shapejson/unmarshal"
)

type address struct {
	City string  `json:"city"`
	Zip  *string `json:"zip"`
}

type account struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Tags    []string `json:"tags"`
	Ratio   float64  `json:"ratio"`
	Address *address `json:"address"`
	Active  bool     `json:"active"`
}

func sampleAccount() *account {
	return &account{ID: 1, Name: `a"b`, Tags: []string{"x"}, Ratio: 0.5, Address: &address{City: "Paris"}, Active: true}
}

func TestEngine_Marshal(t *testing.T) {
	out, err := New(Config{}).Marshal(sampleAccount())
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"name":"a\"b","tags":["x"],"ratio":0.5,"address":{"city":"Paris","zip":null},"active":true}`, string(out))

	assert.Equal(t, "Paris", gjson.GetBytes(out, "address.city").String())
	assert.EqualValues(t, 1, gjson.GetBytes(out, "tags.#").Int())
	assert.Equal(t, gjson.Null, gjson.GetBytes(out, "address.zip").Type)

	var decoded account
	require.NoError(t, unmarshal.New(unmarshal.Config{}).Unmarshal(out, &decoded))
	assert.Equal(t, sampleAccount(), &decoded)

	byValue, err := New(Config{}).Marshal(*sampleAccount())
	require.NoError(t, err)
	assert.Equal(t, string(out), string(byValue))
}

func TestEngine_Prettify(t *testing.T) {
	out, err := New(Config{Prettify: true}).Marshal(sampleAccount())
	require.NoError(t, err)
	expect := `{
   "id": 1,
   "name": "a\"b",
   "tags": [
      "x"
   ],
   "ratio": 0.5,
   "address": {
      "city": "Paris",
      "zip": null
   },
   "active": true
}`
	assert.Equal(t, expect, string(out))

	var decoded account
	require.NoError(t, unmarshal.New(unmarshal.Config{}).Unmarshal(out, &decoded))
	assert.Equal(t, sampleAccount(), &decoded)

	tabs, err := New(Config{Prettify: true, IndentChar: '\t', IndentWidth: 1}).Marshal(map[string][]int{"a": {1, 2}, "b": {}})
	require.NoError(t, err)
	assert.Equal(t, "{\n\t\"a\": [\n\t\t1,\n\t\t2\n\t],\n\t\"b\": []\n}", string(tabs))

	empty, err := New(Config{Prettify: true, SkipNullMembers: true}).Marshal(struct {
		P *int `json:"p"`
	}{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty))
}

type Base struct {
	A int `json:"a"`
}

type markerFlags struct {
	Z bool
}

type members struct {
	*Base
	Z   int           `json:"z"`
	S   shape.Skipped `json:"s"`
	H   shape.Hidden  `json:"h"`
	F   func()        `json:"f"`
	N   shape.Null    `json:"n"`
	Has *markerFlags  `setMarker:"true"`
}

type nullish struct {
	P *int           `json:"p"`
	O shape.Opt[int] `json:"o"`
	V int            `json:"v"`
	L []int          `json:"l"`
	M map[string]int `json:"m"`
	N shape.Null     `json:"n"`
}

type sparse struct {
	A int    `json:"a,omitempty"`
	B string `json:"b,omitempty"`
	C []int  `json:"c,omitempty"`
	D bool   `json:"d"`
}

type commented struct {
	A int `json:"a" comment:"first"`
	B int `json:"b"`
}

type quoted struct {
	N int     `json:"n,string"`
	B bool    `json:"b,string"`
	F float64 `json:"f"`
}

type numberText struct {
	Amount string `json:"amount,number"`
	Empty  string `json:"empty,number"`
}

type nonFinite struct {
	F float64
	G float32
}

func TestEngine_Members(t *testing.T) {
	five := 5
	testCases := []struct {
		description string
		cfg         Config
		value       interface{}
		expect      string
	}{
		{description: "nil embedded pointer, skipped members, marker", value: members{Z: 1, Has: &markerFlags{Z: true}}, expect: `{"z":1,"n":null}`},
		{description: "embedded pointer", value: members{Base: &Base{A: 2}, Z: 1}, expect: `{"a":2,"z":1,"n":null}`},
		{description: "null members written", value: nullish{}, expect: `{"p":null,"o":null,"v":0,"l":null,"m":null,"n":null}`},
		{description: "null members skipped", cfg: Config{SkipNullMembers: true}, value: nullish{}, expect: `{"v":0}`},
		{description: "nil slice as empty", cfg: Config{SkipNullMembers: true, NilSlicePolicy: NilSliceEmpty}, value: nullish{}, expect: `{"v":0,"l":[]}`},
		{description: "set values", cfg: Config{SkipNullMembers: true}, value: nullish{P: &five, O: shape.Some(6)}, expect: `{"p":5,"o":6,"v":0}`},
		{description: "omitempty", value: sparse{}, expect: `{"d":false}`},
		{description: "omitempty keeps values", value: sparse{A: 1, B: "b", C: []int{2}}, expect: `{"a":1,"b":"b","c":[2],"d":false}`},
		{description: "global omitempty", cfg: Config{OmitEmpty: true}, value: sparse{}, expect: `{}`},
		{description: "comments off", value: commented{A: 1, B: 2}, expect: `{"a":1,"b":2}`},
		{description: "comments", cfg: Config{Comments: true}, value: commented{A: 1, B: 2}, expect: `{"a":1/*first*/,"b":2}`},
		{description: "pretty comments", cfg: Config{Comments: true, Prettify: true}, value: commented{A: 1, B: 2}, expect: "{\n   \"a\": 1 /*first*/,\n   \"b\": 2\n}"},
		{description: "string option", value: quoted{N: 5, B: true, F: 1.5}, expect: `{"n":"5","b":"true","f":1.5}`},
		{description: "global quoted", cfg: Config{Quoted: true}, value: quoted{N: 5, B: true, F: 1.5}, expect: `{"n":"5","b":"true","f":"1.5"}`},
		{description: "number option", value: numberText{Amount: "12.50"}, expect: `{"amount":12.50,"empty":null}`},
		{description: "non finite floats", value: nonFinite{F: math.NaN(), G: float32(math.Inf(1))}, expect: `{"F":null,"G":null}`},
	}
	for _, testCase := range testCases {
		out, err := New(testCase.cfg).Marshal(testCase.value)
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expect, string(out), testCase.description)
	}
}

func TestEngine_Comments_RoundTrip(t *testing.T) {
	out, err := New(Config{Comments: true, Prettify: true}).Marshal(commented{A: 1, B: 2})
	require.NoError(t, err)
	var decoded commented
	require.NoError(t, unmarshal.New(unmarshal.Config{}).Unmarshal(out, &decoded))
	assert.Equal(t, commented{A: 1, B: 2}, decoded)

	strict := unmarshal.New(unmarshal.Config{ForceConformance: true})
	assert.Error(t, strict.Unmarshal(out, &decoded))
}

type celsius float64

func (c celsius) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatFloat(float64(c), 'f', 1, 64) + `C"`), nil
}

type level int

func (l level) MarshalText() ([]byte, error) {
	return []byte("L" + strconv.Itoa(int(l))), nil
}

type chars struct {
	C    shape.Char8    `json:"c"`
	W    shape.Char16   `json:"w"`
	R    shape.Char32   `json:"r"`
	Name [6]shape.Char8 `json:"name"`
}

func TestEngine_Scalars(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	testCases := []struct {
		description string
		cfg         Config
		value       interface{}
		expect      string
	}{
		{description: "nil", value: nil, expect: `null`},
		{description: "nil pointer", value: (*account)(nil), expect: `null`},
		{description: "int", value: -42, expect: `-42`},
		{description: "uint8", value: uint8(200), expect: `200`},
		{description: "float", value: 3.14, expect: `3.14`},
		{description: "float32", value: float32(0.1), expect: `0.1`},
		{description: "large float", value: 1e21, expect: `1e+21`},
		{description: "escaped string", value: "a\tb\n\"c\\", expect: `"a\tb\n\"c\\"`},
		{description: "utf8 verbatim", value: "żółw", expect: `"żółw"`},
		{description: "bool", value: false, expect: `false`},
		{description: "time", value: at, expect: `"2024-01-02T03:04:05Z"`},
		{description: "time layout", cfg: Config{TimeLayout: "2006-01-02"}, value: at, expect: `"2024-01-02"`},
		{description: "json marshaler", value: celsius(21.5), expect: `"21.5C"`},
		{description: "text marshaler", value: level(3), expect: `"L3"`},
		{description: "raw", value: shape.RawJSON(`{"a":[1]}`), expect: `{"a":[1]}`},
		{description: "empty raw", value: shape.RawJSON(nil), expect: `null`},
		{description: "chars", value: chars{C: 'a', W: 'z', R: 'q', Name: [6]shape.Char8{'b', 'o', 'b'}}, expect: `{"c":"a","w":"z","r":"q","name":"bob"}`},
		{description: "full char array", value: [3]shape.Char8{'a', 'b', 'c'}, expect: `"abc"`},
		{description: "latin-1 char", value: shape.Char8(0xE9), expect: `"\u00e9"`},
		{description: "high char", value: shape.Char8(0xFF), expect: `"\u00ff"`},
		{description: "always null", value: shape.Null{}, expect: `null`},
	}
	for _, testCase := range testCases {
		out, err := New(testCase.cfg).Marshal(testCase.value)
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expect, string(out), testCase.description)
	}
}

type point struct {
	X int
	Y int
}

type color int

type tone string

func TestEngine_Containers(t *testing.T) {
	registry := shape.NewRegistry()
	require.NoError(t, registry.RegisterTuple(reflect.TypeOf(point{})))
	require.NoError(t, registry.RegisterEnum(reflect.TypeOf(color(0)), map[string]any{"red": color(1), "green": color(2)}))
	require.NoError(t, registry.RegisterEnum(reflect.TypeOf(tone("")), map[string]any{"warm": tone("w")}))

	testCases := []struct {
		description string
		cfg         Config
		value       interface{}
		expect      string
		code        jsonerr.Code
	}{
		{description: "go array", value: [3]int{1, 2, 3}, expect: `[1,2,3]`},
		{description: "bytes as numbers", value: []byte{1, 2}, expect: `[1,2]`},
		{description: "empty slice", value: []int{}, expect: `[]`},
		{description: "nil slice", value: []int(nil), expect: `null`},
		{description: "nil slice as empty", cfg: Config{NilSlicePolicy: NilSliceEmpty}, value: []int(nil), expect: `[]`},
		{description: "nested", value: [][]string{{"a"}, {}, nil}, expect: `[["a"],[],null]`},
		{description: "string keys sorted", value: map[string]int{"b": 2, "a": 1}, expect: `{"a":1,"b":2}`},
		{description: "int keys numeric order", value: map[int]string{10: "x", 9: "y", -1: "z"}, expect: `{"-1":"z","9":"y","10":"x"}`},
		{description: "bool keys", value: map[bool]int{true: 1, false: 0}, expect: `{"false":0,"true":1}`},
		{description: "text keys", value: map[level]int{3: 1, 1: 2}, expect: `{"L1":2,"L3":1}`},
		{description: "empty map", value: map[string]int{}, expect: `{}`},
		{description: "nil map", value: map[string]int(nil), expect: `null`},
		{description: "map skips null values", cfg: Config{SkipNullMembers: true}, value: map[string]*int{"a": nil}, expect: `{}`},
		{description: "set", value: map[string]struct{}{"b": {}, "a": {}}, expect: `["a","b"]`},
		{description: "int set", value: map[int]struct{}{10: {}, 2: {}}, expect: `[2,10]`},
		{description: "nil set", value: map[int]struct{}(nil), expect: `null`},
		{description: "tuple", cfg: Config{Registry: registry}, value: point{X: 1, Y: 2}, expect: `[1,2]`},
		{description: "enum names", cfg: Config{Registry: registry}, value: []color{1, 2, 5}, expect: `["red","green",5]`},
		{description: "enum keys", cfg: Config{Registry: registry}, value: map[color]int{2: 1}, expect: `{"green":1}`},
		{description: "string enum", cfg: Config{Registry: registry}, value: tone("w"), expect: `"warm"`},
		{description: "unknown string enum", cfg: Config{Registry: registry}, value: tone("x"), code: jsonerr.UnexpectedEnum},
		{description: "unsupported", value: make(chan int), code: jsonerr.UnsupportedType},
		{description: "unsupported member", value: struct{ C chan int }{}, code: jsonerr.UnsupportedType},
	}
	for _, testCase := range testCases {
		out, err := New(testCase.cfg).Marshal(testCase.value)
		if testCase.code != jsonerr.None {
			assert.Equal(t, testCase.code, jsonerr.CodeOf(err), testCase.description)
			continue
		}
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expect, string(out), testCase.description)
	}
}

func TestEngine_Any(t *testing.T) {
	value := map[string]any{
		"s": "x",
		"n": 1,
		"l": []any{true, nil, 2.5},
		"o": map[string]any{"k": int64(7)},
		"p": &point{X: 1},
	}
	out, err := New(Config{}).Marshal(value)
	require.NoError(t, err)
	assert.Equal(t, `{"l":[true,null,2.5],"n":1,"o":{"k":7},"p":{"X":1,"Y":0},"s":"x"}`, string(out))
}

type figure interface{ figure() }

type circle struct {
	R int `json:"r"`
}

type square struct {
	Side int `json:"side"`
}

type figureLabel string

type triangle struct{}

func (circle) figure()      {}
func (*square) figure()     {}
func (figureLabel) figure() {}
func (triangle) figure()    {}

type drawing struct {
	Figure figure `json:"figure"`
}

func figureRegistry(t *testing.T, wrapped bool) *shape.Registry {
	registry := shape.NewRegistry()
	tag := "kind"
	if wrapped {
		tag = ""
	}
	require.NoError(t, registry.RegisterUnion(reflect.TypeOf((*figure)(nil)).Elem(), shape.UnionSpec{
		Tag:          tag,
		ArrayWrapped: wrapped,
		Alternatives: []shape.Alternative{
			{ID: "circle", Type: reflect.TypeOf(circle{})},
			{ID: "square", Type: reflect.TypeOf(&square{})},
			{ID: "label", Type: reflect.TypeOf(figureLabel(""))},
		},
	}))
	return registry
}

func TestEngine_Union(t *testing.T) {
	tagged := figureRegistry(t, false)
	wrapped := figureRegistry(t, true)
	testCases := []struct {
		description string
		cfg         Config
		value       drawing
		expect      string
	}{
		{description: "structural", cfg: Config{Registry: tagged}, value: drawing{Figure: circle{R: 2}}, expect: `{"figure":{"r":2}}`},
		{description: "type info", cfg: Config{Registry: tagged, WriteTypeInfo: true}, value: drawing{Figure: circle{R: 2}}, expect: `{"figure":{"kind":"circle","r":2}}`},
		{description: "pointer alternative", cfg: Config{Registry: tagged, WriteTypeInfo: true}, value: drawing{Figure: &square{Side: 3}}, expect: `{"figure":{"kind":"square","side":3}}`},
		{description: "non object alternative", cfg: Config{Registry: tagged, WriteTypeInfo: true}, value: drawing{Figure: figureLabel("x")}, expect: `{"figure":"x"}`},
		{description: "nil", cfg: Config{Registry: tagged, WriteTypeInfo: true}, value: drawing{}, expect: `{"figure":null}`},
		{description: "wrapped", cfg: Config{Registry: wrapped}, value: drawing{Figure: circle{R: 2}}, expect: `{"figure":["circle",{"r":2}]}`},
		{description: "wrapped label", cfg: Config{Registry: wrapped}, value: drawing{Figure: figureLabel("x")}, expect: `{"figure":["label","x"]}`},
	}
	for _, testCase := range testCases {
		out, err := New(testCase.cfg).Marshal(&testCase.value)
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expect, string(out), testCase.description)

		var decoded drawing
		require.NoError(t, unmarshal.New(unmarshal.Config{Registry: testCase.cfg.Registry}).Unmarshal(out, &decoded), testCase.description)
		assert.Equal(t, testCase.value, decoded, testCase.description)
	}

	_, err := New(Config{Registry: tagged}).Marshal(drawing{Figure: triangle{}})
	assert.Equal(t, jsonerr.NoMatchingVariantType, jsonerr.CodeOf(err))
	assert.Equal(t, len(`{"figure":`), jsonerr.OffsetOf(err))
}

type caseKeyed struct {
	UserName string
	ID       int `json:"ID"`
}

func TestEngine_CompileName(t *testing.T) {
	engine := New(Config{CaseKey: "lower", CompileName: strings.ToLower})
	out, err := engine.Marshal(caseKeyed{UserName: "x", ID: 1})
	require.NoError(t, err)
	assert.Equal(t, `{"username":"x","ID":1}`, string(out))
}

type node struct {
	Next *node `json:"next"`
}

func TestEngine_MaxDepth(t *testing.T) {
	n := &node{}
	n.Next = n
	_, err := New(Config{MaxDepth: 8}).Marshal(n)
	assert.Equal(t, jsonerr.ExceededMaxRecursiveDepth, jsonerr.CodeOf(err))

	out, err := New(Config{}).Marshal(&node{Next: &node{}})
	require.NoError(t, err)
	assert.Equal(t, `{"next":{"next":null}}`, string(out))
}

func TestEngine_MarshalTo(t *testing.T) {
	engine := New(Config{})
	out, err := engine.MarshalTo([]byte("x="), 5)
	require.NoError(t, err)
	assert.Equal(t, "x=5", string(out))

	out, err = engine.MarshalTo(out, []int{1})
	require.NoError(t, err)
	assert.Equal(t, "x=5[1]", string(out))

	_, err = engine.MarshalTo(nil, make(chan int))
	assert.Error(t, err)
}

func BenchmarkEngine_Marshal(b *testing.B) {
	engine := New(Config{})
	value := sampleAccount()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Marshal(value); err != nil {
			b.Fatal(err)
		}
	}
}
