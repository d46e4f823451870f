package unmarshal

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

// DefaultMaxDepth bounds array and object nesting.
const DefaultMaxDepth = 10000

type UnknownFieldPolicy int

const (
	IgnoreUnknown UnknownFieldPolicy = iota
	ErrorOnUnknown
)

type MissingFieldPolicy int

const (
	IgnoreMissing MissingFieldPolicy = iota
	ErrorOnMissing
)

type DuplicateKeyPolicy int

const (
	LastWins DuplicateKeyPolicy = iota
	ErrorOnDuplicate
)

type NullPolicy int

const (
	CompatNulls NullPolicy = iota
	StrictNulls
)

type NumberPolicy int

const (
	CoerceNumbers NumberPolicy = iota
	ExactNumbers
)

// UnionStrategy selects how an object union alternative is materialized once resolved.
type UnionStrategy int

const (
	// UnionRewind rewinds to the opening brace and parses the object again.
	UnionRewind UnionStrategy = iota
	// UnionBuffered records member spans while scanning and replays them.
	UnionBuffered
)

type ScannerHooks interface {
	SkipWhitespace(data []byte, pos int) int
	FindQuoteOrEscape(data []byte, pos int) (quotePos int, escapePos int)
	FindStructural(data []byte, pos int) int
}

// Config is the resolved read configuration.
type Config struct {
	Hooks              ScannerHooks
	UnknownFieldPolicy UnknownFieldPolicy
	MissingFieldPolicy MissingFieldPolicy
	DuplicateKeyPolicy DuplicateKeyPolicy
	NullPolicy         NullPolicy
	NumberPolicy       NumberPolicy
	UnionStrategy      UnionStrategy
	// ForceConformance enforces RFC 8259 text rules: no raw control characters, no comments,
	// strict number grammar.
	ForceConformance bool
	// Quoted expects numbers and bools inside quotes.
	Quoted bool
	// RawNumbers lets string fields take a bare numeric literal.
	RawNumbers          bool
	HashKeys            bool
	CaseInsensitiveKeys bool
	ShrinkToFit         bool
	MaxDepth            int
	TimeLayout          string
	CaseKey             string
	CompileName         func(string) string
	Source              string
	Registry            *shape.Registry
	Logger              *zap.Logger
}

type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	if cfg.Hooks == nil {
		cfg.Hooks = scalarHooks{}
	}
	if cfg.TimeLayout == "" {
		cfg.TimeLayout = time.RFC3339Nano
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.Registry == nil {
		cfg.Registry = shape.Default
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Engine{cfg: cfg}
}

// Unmarshal decodes the whole document in data into dest, a non-nil pointer.
func (e *Engine) Unmarshal(data []byte, dest interface{}) error {
	if dest == nil {
		return &jsonerr.Error{Code: jsonerr.InvalidValue, Offset: -1, Source: e.cfg.Source, Detail: "nil destination"}
	}
	rType := reflect.TypeOf(dest)
	if rType.Kind() != reflect.Ptr || reflect.ValueOf(dest).IsNil() {
		return &jsonerr.Error{Code: jsonerr.InvalidValue, Offset: -1, Source: e.cfg.Source, Detail: "destination must be a non-nil pointer, got " + rType.String()}
	}
	plan, err := e.planFor(rType.Elem())
	if err != nil {
		return err
	}
	d := acquireDecoder(&e.cfg, data)
	defer releaseDecoder(d)
	if err := plan.decode(d, xunsafe.AsPointer(dest)); err != nil {
		return err
	}
	return d.finish()
}

// Valid reports whether data is exactly one conforming JSON value.
func (e *Engine) Valid(data []byte) error {
	cfg := e.cfg
	cfg.ForceConformance = true
	d := acquireDecoder(&cfg, data)
	defer releaseDecoder(d)
	if err := d.skipValue(); err != nil {
		return err
	}
	return d.finish()
}

type decodeFunc func(d *decoder, ptr unsafe.Pointer) error

type typePlan struct {
	desc   *shape.Descriptor
	decode decodeFunc
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
		c := &compiler{compileName: e.cfg.CompileName, logger: e.cfg.Logger, plans: map[reflect.Type]*typePlan{}}
		plan := c.plan(desc)
		e.cfg.Logger.Debug("compiled decode plan",
			zap.Stringer("type", rType),
			zap.Stringer("shape", desc.Shape),
			zap.Int("types", len(c.plans)))
		return plan, nil
	})
	if err != nil {
		e.cfg.Logger.Debug("decode plan failed", zap.Stringer("type", rType), zap.Error(err))
		return nil, &jsonerr.Error{Code: jsonerr.UnsupportedType, Offset: -1, Source: e.cfg.Source, Detail: rType.String(), Cause: err}
	}
	return plan, nil
}

type compiler struct {
	compileName func(string) string
	logger      *zap.Logger
	plans       map[reflect.Type]*typePlan
}

// plan returns the plan for desc. Plans are registered before their body is compiled,
// so closures must call plan.decode late to support recursive types.
func (c *compiler) plan(desc *shape.Descriptor) *typePlan {
	if p, ok := c.plans[desc.Type]; ok {
		return p
	}
	p := &typePlan{desc: desc}
	c.plans[desc.Type] = p
	p.decode = c.compile(desc, p)
	return p
}

func (c *compiler) compile(desc *shape.Descriptor, p *typePlan) decodeFunc {
	if desc.Shape != shape.Nullable && desc.Has(shape.TraitJSONUnmarshaler) {
		return jsonUnmarshalerDecoder(desc.Type)
	}
	if desc.Shape == shape.String && desc.Has(shape.TraitTextUnmarshaler) {
		return textUnmarshalerDecoder(desc.Type)
	}
	switch desc.Shape {
	case shape.Bool:
		return boolDecoder(false)
	case shape.Number:
		return numberDecoder(desc.Kind, false)
	case shape.String:
		switch {
		case desc.Has(shape.TraitTime):
			return timeDecoder("")
		case desc.Has(shape.TraitCharArray):
			return charArrayDecoder(desc.Len)
		}
		return stringDecoder(false)
	case shape.Char:
		return charDecoder(desc.Width)
	case shape.Enum:
		return enumDecoder(desc)
	case shape.Raw:
		return rawDecoder(desc.Kind)
	case shape.Skip:
		return skipDecoder(desc)
	case shape.AlwaysNull:
		return alwaysNullDecoder
	case shape.Nullable:
		return c.nullableDecoder(desc)
	case shape.Array:
		return c.arrayDecoder(desc)
	case shape.Set:
		return c.setDecoder(desc)
	case shape.Tuple:
		return c.tupleDecoder(desc)
	case shape.Object:
		p.object = c.objectPlan(desc)
		return p.object.decode
	case shape.Map:
		return c.mapDecoder(desc)
	case shape.Union:
		return c.unionDecoder(desc)
	}
	return func(d *decoder, _ unsafe.Pointer) error {
		return d.failDetail(jsonerr.UnsupportedType, d.pos, desc.Type.String())
	}
}
