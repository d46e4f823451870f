package shapejson

import (
	"context"

	"github.com/viant/shapejson/marshal"
	"github.com/viant/shapejson/shape"
	"github.com/viant/shapejson/unmarshal"
	"github.com/viant/tagly/format"
	"github.com/viant/tagly/format/text"
	"go.uber.org/zap"
)

// Mode controls compatibility vs strict behavior.
type Mode int

const (
	ModeCompat Mode = iota
	// ModeStrict rejects unknown, missing and duplicate keys, null into non nullable
	// values, lossy numbers and non conforming text, unless a policy is set explicitly.
	ModeStrict
)

// UnknownFieldPolicy controls unknown key handling.
type UnknownFieldPolicy = unmarshal.UnknownFieldPolicy

const (
	IgnoreUnknown  = unmarshal.IgnoreUnknown
	ErrorOnUnknown = unmarshal.ErrorOnUnknown
)

// MissingFieldPolicy controls required member handling.
type MissingFieldPolicy = unmarshal.MissingFieldPolicy

const (
	IgnoreMissing  = unmarshal.IgnoreMissing
	ErrorOnMissing = unmarshal.ErrorOnMissing
)

// DuplicateKeyPolicy controls duplicate object key behavior.
type DuplicateKeyPolicy = unmarshal.DuplicateKeyPolicy

const (
	LastWins         = unmarshal.LastWins
	ErrorOnDuplicate = unmarshal.ErrorOnDuplicate
)

// NullPolicy controls null assignment behavior.
type NullPolicy = unmarshal.NullPolicy

const (
	CompatNulls = unmarshal.CompatNulls
	StrictNulls = unmarshal.StrictNulls
)

// NumberPolicy controls numeric coercion behavior.
type NumberPolicy = unmarshal.NumberPolicy

const (
	CoerceNumbers = unmarshal.CoerceNumbers
	ExactNumbers  = unmarshal.ExactNumbers
)

// UnionStrategy selects how a resolved object union alternative is read.
type UnionStrategy = unmarshal.UnionStrategy

const (
	UnionRewind   = unmarshal.UnionRewind
	UnionBuffered = unmarshal.UnionBuffered
)

// NilSlicePolicy controls marshal output for nil slices.
type NilSlicePolicy = marshal.NilSlicePolicy

const (
	NilSliceAsNull       = marshal.NilSliceNull
	NilSliceAsEmptyArray = marshal.NilSliceEmpty
)

// KeyLookup selects how member names are matched against declared fields.
type KeyLookup int

const (
	// LinearLookup compares against the names of the same length.
	LinearLookup KeyLookup = iota
	// HashLookup uses a map keyed by name.
	HashLookup
)

// Option mutates runtime options.
type Option interface{ apply(*Options) }

// Options defines runtime behavior.
type Options struct {
	Ctx context.Context

	Mode                Mode
	UnknownFieldPolicy  UnknownFieldPolicy
	MissingFieldPolicy  MissingFieldPolicy
	DuplicateKeyPolicy  DuplicateKeyPolicy
	NullPolicy          NullPolicy
	NumberPolicy        NumberPolicy
	UnionStrategy       UnionStrategy
	KeyLookup           KeyLookup
	CaseInsensitiveKeys bool
	ForceConformance    bool
	ShrinkToFit         bool
	Quoted              bool
	RawNumbers          bool
	MaxDepth            int

	CaseFormat text.CaseFormat
	FormatTag  *format.Tag
	TimeLayout string

	Prettify        bool
	IndentChar      byte
	IndentWidth     int
	SkipNullMembers bool
	OmitEmpty       bool
	WriteTypeInfo   bool
	Comments        bool
	NilSlicePolicy  NilSlicePolicy

	Source       string
	Registry     *shape.Registry
	Logger       *zap.Logger
	BatchWorkers int
	scannerHooks ScannerHooks

	setUnknownFieldPolicy  bool
	setMissingFieldPolicy  bool
	setDuplicateKeyPolicy  bool
	setNullPolicy          bool
	setNumberPolicy        bool
	setCaseInsensitiveKeys bool
	setForceConformance    bool
	setCaseFormat          bool
}
