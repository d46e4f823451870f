package unmarshal

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/shape"
)

type variant interface{ variant() }

type withY struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type withZ struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func (withY) variant()  {}
func (*withZ) variant() {}

type variantText string

func (variantText) variant() {}

type variantHolder struct {
	Value variant `json:"value"`
}

func variantRegistry(t *testing.T, tag string, wrapped bool) *shape.Registry {
	registry := shape.NewRegistry()
	require.NoError(t, registry.RegisterUnion(reflect.TypeOf((*variant)(nil)).Elem(), shape.UnionSpec{
		Tag:          tag,
		ArrayWrapped: wrapped,
		Alternatives: []shape.Alternative{
			{ID: "y", Type: reflect.TypeOf(withY{})},
			{ID: "z", Type: reflect.TypeOf(&withZ{})},
			{ID: "text", Type: reflect.TypeOf(variantText(""))},
		},
	}))
	return registry
}

func TestUnion_Deduction(t *testing.T) {
	testCases := []struct {
		description string
		tag         string
		cfg         Config
		input       string
		expect      variant
		code        jsonerr.Code
	}{
		{description: "y key selects withY", input: `{"value":{"y":5}}`, expect: withY{Y: 5}},
		{description: "z key selects withZ", input: `{"value":{"z":5}}`, expect: &withZ{Z: 5}},
		{description: "shared key then z", input: `{"value":{"x":1,"z":5}}`, expect: &withZ{X: 1, Z: 5}},
		{description: "shared key only picks the first", input: `{"value":{"x":1}}`, expect: withY{X: 1}},
		{description: "empty object picks the first", input: `{"value":{}}`, expect: withY{}},
		{description: "string class", input: `{"value":"abc"}`, expect: variantText("abc")},
		{description: "null clears", input: `{"value":null}`, expect: nil},
		{description: "unknown key", input: `{"value":{"w":1}}`, code: jsonerr.NoMatchingVariantType},
		{description: "number class", input: `{"value":1}`, code: jsonerr.NoMatchingVariantType},
		{description: "discriminator", tag: "kind", input: `{"value":{"x":2,"kind":"z"}}`, expect: &withZ{X: 2}},
		{description: "discriminator first", tag: "kind", input: `{"value":{"kind":"y","x":3,"y":4}}`, expect: withY{X: 3, Y: 4}},
		{description: "unknown discriminator", tag: "kind", input: `{"value":{"kind":"w"}}`, code: jsonerr.NoMatchingVariantType},
		{description: "discriminator tolerated by strict reads", tag: "kind", cfg: Config{UnknownFieldPolicy: ErrorOnUnknown}, input: `{"value":{"kind":"y","y":4}}`, expect: withY{Y: 4}},
		{description: "strict unknown after resolution", cfg: Config{UnknownFieldPolicy: ErrorOnUnknown}, input: `{"value":{"y":4,"q":1}}`, code: jsonerr.UnknownKey},
		{description: "trailing comma", input: `{"value":{"x":1,}}`, code: jsonerr.SyntaxError},
		{description: "folded key selects withY", cfg: Config{CaseInsensitiveKeys: true}, input: `{"value":{"Y":5}}`, expect: withY{Y: 5}},
		{description: "folded keys then z", cfg: Config{CaseInsensitiveKeys: true}, input: `{"value":{"X":1,"Z":5}}`, expect: &withZ{X: 1, Z: 5}},
		{description: "exact keys do not fold", input: `{"value":{"Y":5}}`, code: jsonerr.NoMatchingVariantType},
	}
	for _, testCase := range testCases {
		for _, strategy := range []UnionStrategy{UnionRewind, UnionBuffered} {
			cfg := testCase.cfg
			cfg.UnionStrategy = strategy
			cfg.Registry = variantRegistry(t, testCase.tag, false)
			var holder variantHolder
			err := New(cfg).Unmarshal([]byte(testCase.input), &holder)
			if testCase.code != jsonerr.None {
				assert.Equal(t, testCase.code, jsonerr.CodeOf(err), testCase.description)
				continue
			}
			if !assert.NoError(t, err, testCase.description) {
				continue
			}
			if testCase.expect == nil {
				assert.Nil(t, holder.Value, testCase.description)
				continue
			}
			assert.Equal(t, testCase.expect, holder.Value, testCase.description)
		}
	}
}

func TestUnion_StrategiesAgree(t *testing.T) {
	inputs := []string{
		`{"value":{"x":1,"y":2}}`,
		`{"value":{"x":1, "x":3, "z":2}}`,
		`{"value":{"x":{"ignored":[1,2]},"z":2}}`,
		`{"value":{"kind":"z","x":5}}`,
		`{"value":{"x":5,"kind":"y","y":6}}`,
	}
	for _, input := range inputs {
		var results []variantHolder
		for _, strategy := range []UnionStrategy{UnionRewind, UnionBuffered} {
			cfg := Config{UnionStrategy: strategy, Registry: variantRegistry(t, "kind", false)}
			var holder variantHolder
			err := New(cfg).Unmarshal([]byte(input), &holder)
			if err != nil {
				results = append(results, variantHolder{Value: variantText(jsonerr.CodeOf(err).String())})
				continue
			}
			results = append(results, holder)
		}
		assert.Equal(t, results[0], results[1], input)
	}
}

func TestUnion_ArrayWrapped(t *testing.T) {
	engine := New(Config{Registry: variantRegistry(t, "", true)})
	var holder variantHolder
	require.NoError(t, engine.Unmarshal([]byte(`{"value":["z",{"z":3}]}`), &holder))
	assert.Equal(t, &withZ{Z: 3}, holder.Value)
	require.NoError(t, engine.Unmarshal([]byte(`{"value":["text","t"]}`), &holder))
	assert.Equal(t, variantText("t"), holder.Value)

	err := engine.Unmarshal([]byte(`{"value":["q",1]}`), &holder)
	assert.Equal(t, jsonerr.NoMatchingVariantType, jsonerr.CodeOf(err))
	err = engine.Unmarshal([]byte(`{"value":["text","t","u"]}`), &holder)
	assert.Equal(t, jsonerr.ExpectedBracket, jsonerr.CodeOf(err))
}

func TestUnion_Any(t *testing.T) {
	var actual interface{}
	require.NoError(t, New(Config{}).Unmarshal([]byte(`{"a":[1,"b",true,null,{"c":2.5}]}`), &actual))
	assert.Equal(t, map[string]interface{}{
		"a": []interface{}{1.0, "b", true, nil, map[string]interface{}{"c": 2.5}},
	}, actual)

	prior := interface{}(map[string]interface{}{"old": 1.0})
	require.NoError(t, New(Config{}).Unmarshal([]byte(`{"new":2}`), &prior))
	assert.Equal(t, map[string]interface{}{"new": 2.0}, prior, "an any value is replaced, not merged")
}

type numeric interface{}

func TestUnion_NotDeducible(t *testing.T) {
	registry := shape.NewRegistry()
	type small int
	type large int64
	require.NoError(t, registry.RegisterUnion(reflect.TypeOf((*numeric)(nil)).Elem(), shape.UnionSpec{
		Alternatives: []shape.Alternative{{ID: "small", Type: reflect.TypeOf(small(0))}, {ID: "large", Type: reflect.TypeOf(large(0))}},
	}))
	engine := New(Config{Registry: registry})

	var held numeric = large(0)
	require.NoError(t, engine.Unmarshal([]byte(`12`), &held))
	assert.Equal(t, large(12), held)

	var empty numeric
	err := engine.Unmarshal([]byte(`12`), &empty)
	assert.Equal(t, jsonerr.NoMatchingVariantType, jsonerr.CodeOf(err))
}
