package marshal

import (
	"reflect"
	"time"
	"unsafe"

	"github.com/viant/shapejson/internal/lru"
	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/shape"
	"github.com/viant/xunsafe"
	"go.uber.org/zap"
)

const (
	DefaultIndentWidth = 3
	DefaultMaxDepth    = 10000
)

// NilSlicePolicy controls how a nil slice is written.
type NilSlicePolicy int

const (
	NilSliceNull NilSlicePolicy = iota
	NilSliceEmpty
)

// Config is the resolved write configuration.
type Config struct {
	Prettify    bool
	IndentChar  byte
	IndentWidth int
	// SkipNullMembers drops object and map members holding a null state value.
	SkipNullMembers bool
	OmitEmpty       bool
	// WriteTypeInfo emits the discriminator first in union object alternatives.
	WriteTypeInfo  bool
	Comments       bool
	NilSlicePolicy NilSlicePolicy
	// Quoted writes numbers and bools inside quotes.
	Quoted      bool
	MaxDepth    int
	TimeLayout  string
	CaseKey     string
	CompileName func(string) string
	Source      string
	Registry    *shape.Registry
	Logger      *zap.Logger
}

type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	if cfg.IndentChar == 0 {
		cfg.IndentChar = ' '
	}
	if cfg.IndentWidth == 0 {
		cfg.IndentWidth = DefaultIndentWidth
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.TimeLayout == "" {
		cfg.TimeLayout = time.RFC3339Nano
	}
	if cfg.Registry == nil {
		cfg.Registry = shape.Default
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Engine{cfg: cfg}
}

// Marshal returns the JSON encoding of value.
func (e *Engine) Marshal(value interface{}) ([]byte, error) {
	s := acquireEncoder(e)
	defer releaseEncoder(s)
	if err := e.encodeValue(s, value); err != nil {
		return nil, err
	}
	return append([]byte(nil), s.buf...), nil
}

// MarshalTo appends the JSON encoding of value to dst and returns the resulting slice.
func (e *Engine) MarshalTo(dst []byte, value interface{}) ([]byte, error) {
	s := acquireEncoder(e)
	pooled := s.buf
	s.buf = ensureSpare(dst, 128)
	defer func() {
		s.buf = pooled[:0]
		releaseEncoder(s)
	}()
	if err := e.encodeValue(s, value); err != nil {
		return nil, err
	}
	return s.buf, nil
}

func (e *Engine) encodeValue(s *encoder, value interface{}) error {
	if value == nil {
		s.buf = append(s.buf, "null"...)
		return nil
	}
	rType := reflect.TypeOf(value)
	var ptr unsafe.Pointer
	if rType.Kind() == reflect.Ptr {
		if ptr = xunsafe.AsPointer(value); ptr == nil {
			s.buf = append(s.buf, "null"...)
			return nil
		}
		rType = rType.Elem()
	} else {
		holder := reflect.New(rType)
		holder.Elem().Set(reflect.ValueOf(value))
		ptr = holder.UnsafePointer()
	}
	plan, err := e.planFor(rType)
	if err != nil {
		return err
	}
	return plan.encode(s, ptr)
}

type encodeFunc func(e *encoder, ptr unsafe.Pointer) error

type typePlan struct {
	desc   *shape.Descriptor
	encode encodeFunc
	object *objectPlan
}

type planKey struct {
	rType      reflect.Type
	registry   *shape.Registry
	generation uint64
	caseKey    string
}

var planCache = lru.New[planKey, *typePlan](2048)

func (e *Engine) planFor(rType reflect.Type) (*typePlan, error) {
	registry := e.cfg.Registry
	key := planKey{rType: rType, registry: registry, generation: registry.Generation(), caseKey: e.cfg.CaseKey}
	plan, err := planCache.Load(key, func() (*typePlan, error) {
		desc, err := registry.Describe(rType)
		if err != nil {
			return nil, err
		}
		c := &compiler{compileName: e.cfg.CompileName, plans: map[reflect.Type]*typePlan{}}
		plan := c.plan(desc)
		e.cfg.Logger.Debug("compiled encode plan",
			zap.Stringer("type", rType),
			zap.Stringer("shape", desc.Shape),
			zap.Int("types", len(c.plans)))
		return plan, nil
	})
	if err != nil {
		e.cfg.Logger.Debug("encode plan failed", zap.Stringer("type", rType), zap.Error(err))
		return nil, &jsonerr.Error{Code: jsonerr.UnsupportedType, Offset: -1, Source: e.cfg.Source, Detail: rType.String(), Cause: err}
	}
	return plan, nil
}

type compiler struct {
	compileName func(string) string
	plans       map[reflect.Type]*typePlan
}

// plan returns the plan for desc; see the read side for the late binding contract.
func (c *compiler) plan(desc *shape.Descriptor) *typePlan {
	if p, ok := c.plans[desc.Type]; ok {
		return p
	}
	p := &typePlan{desc: desc}
	c.plans[desc.Type] = p
	p.encode = c.compile(desc, p)
	return p
}

func (c *compiler) compile(desc *shape.Descriptor, p *typePlan) encodeFunc {
	switch desc.Shape {
	case shape.Nullable, shape.Union, shape.Skip, shape.AlwaysNull:
	default:
		if desc.Has(shape.TraitJSONMarshaler) {
			return jsonMarshalerEncoder(desc.Type)
		}
		if desc.Has(shape.TraitTextMarshaler) {
			return textMarshalerEncoder(desc.Type)
		}
	}
	switch desc.Shape {
	case shape.Bool:
		return boolEncoder(false)
	case shape.Number:
		return numberEncoder(desc.Kind, false)
	case shape.String:
		switch {
		case desc.Has(shape.TraitTime):
			return timeEncoder("")
		case desc.Has(shape.TraitCharArray):
			return charArrayEncoder(desc.Len)
		}
		return stringEncoder
	case shape.Char:
		return charEncoder(desc.Width)
	case shape.Enum:
		return enumEncoder(desc)
	case shape.Raw:
		return rawEncoder(desc.Kind)
	case shape.Skip, shape.AlwaysNull:
		return nullEncoder
	case shape.Nullable:
		return c.nullableEncoder(desc)
	case shape.Array:
		return c.arrayEncoder(desc)
	case shape.Set:
		return c.setEncoder(desc)
	case shape.Tuple:
		return c.tupleEncoder(desc)
	case shape.Object:
		p.object = c.objectPlan(desc)
		return p.object.encode
	case shape.Map:
		return c.mapEncoder(desc)
	case shape.Union:
		return c.unionEncoder(desc)
	}
	return func(e *encoder, _ unsafe.Pointer) error {
		return e.failDetail(jsonerr.UnsupportedType, desc.Type.String(), nil)
	}
}
