package shapejson

import (
	"context"
	"runtime"
	"time"

	"github.com/viant/shapejson/marshal"
	"github.com/viant/shapejson/shape"
	"github.com/viant/shapejson/unmarshal"
	"github.com/viant/tagly/format"
	"github.com/viant/tagly/format/text"
	ftime "github.com/viant/tagly/format/time"
	"go.uber.org/zap"
)

type optionFn func(*Options)

func (o optionFn) apply(opts *Options) { o(opts) }

func WithContext(ctx context.Context) Option {
	return optionFn(func(o *Options) { o.Ctx = ctx })
}

func WithMode(mode Mode) Option {
	return optionFn(func(o *Options) { o.Mode = mode })
}

func WithUnknownFieldPolicy(policy UnknownFieldPolicy) Option {
	return optionFn(func(o *Options) {
		o.UnknownFieldPolicy = policy
		o.setUnknownFieldPolicy = true
	})
}

func WithMissingFieldPolicy(policy MissingFieldPolicy) Option {
	return optionFn(func(o *Options) {
		o.MissingFieldPolicy = policy
		o.setMissingFieldPolicy = true
	})
}

func WithDuplicateKeyPolicy(policy DuplicateKeyPolicy) Option {
	return optionFn(func(o *Options) {
		o.DuplicateKeyPolicy = policy
		o.setDuplicateKeyPolicy = true
	})
}

func WithNullPolicy(policy NullPolicy) Option {
	return optionFn(func(o *Options) {
		o.NullPolicy = policy
		o.setNullPolicy = true
	})
}

func WithNumberPolicy(policy NumberPolicy) Option {
	return optionFn(func(o *Options) {
		o.NumberPolicy = policy
		o.setNumberPolicy = true
	})
}

func WithUnionStrategy(strategy UnionStrategy) Option {
	return optionFn(func(o *Options) { o.UnionStrategy = strategy })
}

func WithKeyLookup(lookup KeyLookup) Option {
	return optionFn(func(o *Options) { o.KeyLookup = lookup })
}

func WithCaseInsensitiveKeys(enabled bool) Option {
	return optionFn(func(o *Options) {
		o.CaseInsensitiveKeys = enabled
		o.setCaseInsensitiveKeys = true
	})
}

// WithForceConformance rejects comments, raw control characters and lenient numbers.
func WithForceConformance(enabled bool) Option {
	return optionFn(func(o *Options) {
		o.ForceConformance = enabled
		o.setForceConformance = true
	})
}

func WithShrinkToFit(enabled bool) Option {
	return optionFn(func(o *Options) { o.ShrinkToFit = enabled })
}

// WithQuoted reads and writes every number and bool inside quotes.
func WithQuoted(enabled bool) Option {
	return optionFn(func(o *Options) { o.Quoted = enabled })
}

// WithRawNumbers lets string members take a bare numeric literal.
func WithRawNumbers(enabled bool) Option {
	return optionFn(func(o *Options) { o.RawNumbers = enabled })
}

func WithMaxDepth(depth int) Option {
	return optionFn(func(o *Options) { o.MaxDepth = depth })
}

func WithCaseFormat(caseFormat text.CaseFormat) Option {
	return optionFn(func(o *Options) {
		o.CaseFormat = caseFormat
		o.setCaseFormat = true
	})
}

func WithFormatTag(tag *format.Tag) Option {
	return optionFn(func(o *Options) { o.FormatTag = tag })
}

func WithTimeLayout(layout string) Option {
	return optionFn(func(o *Options) { o.TimeLayout = layout })
}

func WithPrettify(enabled bool) Option {
	return optionFn(func(o *Options) { o.Prettify = enabled })
}

// WithIndent enables prettified output indented by width copies of char per level.
func WithIndent(char byte, width int) Option {
	return optionFn(func(o *Options) {
		o.Prettify = true
		o.IndentChar = char
		o.IndentWidth = width
	})
}

func WithSkipNullMembers(enabled bool) Option {
	return optionFn(func(o *Options) { o.SkipNullMembers = enabled })
}

func WithOmitEmpty(enabled bool) Option {
	return optionFn(func(o *Options) { o.OmitEmpty = enabled })
}

func WithWriteTypeInfo(enabled bool) Option {
	return optionFn(func(o *Options) { o.WriteTypeInfo = enabled })
}

// WithComments writes the comment tag of a member after its value.
func WithComments(enabled bool) Option {
	return optionFn(func(o *Options) { o.Comments = enabled })
}

func WithNilSlicePolicy(policy NilSlicePolicy) Option {
	return optionFn(func(o *Options) { o.NilSlicePolicy = policy })
}

// WithSource labels errors with the origin of the document.
func WithSource(source string) Option {
	return optionFn(func(o *Options) { o.Source = source })
}

func WithRegistry(registry *shape.Registry) Option {
	return optionFn(func(o *Options) { o.Registry = registry })
}

func WithLogger(logger *zap.Logger) Option {
	return optionFn(func(o *Options) { o.Logger = logger })
}

func WithBatchWorkers(workers int) Option {
	return optionFn(func(o *Options) { o.BatchWorkers = workers })
}

func WithScannerHooks(hooks ScannerHooks) Option {
	return optionFn(func(o *Options) { o.scannerHooks = hooks })
}

func defaultOptions() Options {
	return Options{
		Mode:               ModeCompat,
		UnknownFieldPolicy: IgnoreUnknown,
		MissingFieldPolicy: IgnoreMissing,
		DuplicateKeyPolicy: LastWins,
		NullPolicy:         CompatNulls,
		NumberPolicy:       CoerceNumbers,
		UnionStrategy:      UnionRewind,
		KeyLookup:          LinearLookup,
		MaxDepth:           unmarshal.DefaultMaxDepth,
		CaseFormat:         text.CaseFormatUndefined,
		TimeLayout:         time.RFC3339Nano,
		IndentChar:         ' ',
		IndentWidth:        marshal.DefaultIndentWidth,
		NilSlicePolicy:     NilSliceAsNull,
		scannerHooks:       IndexScannerHooks{},
	}
}

func resolveOptions(ctx context.Context, opts []Option) Options {
	result := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(&result)
	}
	if ctx != nil {
		result.Ctx = ctx
	}
	if result.Ctx == nil {
		result.Ctx = context.Background()
	}
	if result.FormatTag != nil {
		if result.FormatTag.TimeLayout != "" {
			result.TimeLayout = result.FormatTag.TimeLayout
		} else if result.FormatTag.DateFormat != "" {
			result.TimeLayout = ftime.DateFormatToTimeLayout(result.FormatTag.DateFormat)
		}
		if !result.setCaseFormat {
			cf := text.CaseFormat(result.FormatTag.CaseFormat)
			if cf != "" && cf != "-" {
				result.CaseFormat = cf
			}
		}
	}
	switch result.Mode {
	case ModeStrict:
		if !result.setUnknownFieldPolicy {
			result.UnknownFieldPolicy = ErrorOnUnknown
		}
		if !result.setMissingFieldPolicy {
			result.MissingFieldPolicy = ErrorOnMissing
		}
		if !result.setDuplicateKeyPolicy {
			result.DuplicateKeyPolicy = ErrorOnDuplicate
		}
		if !result.setNullPolicy {
			result.NullPolicy = StrictNulls
		}
		if !result.setNumberPolicy {
			result.NumberPolicy = ExactNumbers
		}
		if !result.setForceConformance {
			result.ForceConformance = true
		}
	default:
		if !result.setCaseInsensitiveKeys {
			result.CaseInsensitiveKeys = true
		}
	}
	if result.scannerHooks == nil {
		result.scannerHooks = IndexScannerHooks{}
	}
	if result.Logger == nil {
		result.Logger = zap.NewNop()
	}
	if result.BatchWorkers <= 0 {
		result.BatchWorkers = runtime.GOMAXPROCS(0)
	}
	return result
}

func (o *Options) unmarshalConfig() unmarshal.Config {
	caseKey, compileName := caseFormatTransformer{caseFormat: o.CaseFormat}.names()
	return unmarshal.Config{
		Hooks:               o.scannerHooks,
		UnknownFieldPolicy:  o.UnknownFieldPolicy,
		MissingFieldPolicy:  o.MissingFieldPolicy,
		DuplicateKeyPolicy:  o.DuplicateKeyPolicy,
		NullPolicy:          o.NullPolicy,
		NumberPolicy:        o.NumberPolicy,
		UnionStrategy:       o.UnionStrategy,
		ForceConformance:    o.ForceConformance,
		Quoted:              o.Quoted,
		RawNumbers:          o.RawNumbers,
		HashKeys:            o.KeyLookup == HashLookup,
		CaseInsensitiveKeys: o.CaseInsensitiveKeys,
		ShrinkToFit:         o.ShrinkToFit,
		MaxDepth:            o.MaxDepth,
		TimeLayout:          o.TimeLayout,
		CaseKey:             caseKey,
		CompileName:         compileName,
		Source:              o.Source,
		Registry:            o.Registry,
		Logger:              o.Logger,
	}
}

func (o *Options) marshalConfig() marshal.Config {
	caseKey, compileName := caseFormatTransformer{caseFormat: o.CaseFormat}.names()
	return marshal.Config{
		Prettify:        o.Prettify,
		IndentChar:      o.IndentChar,
		IndentWidth:     o.IndentWidth,
		SkipNullMembers: o.SkipNullMembers,
		OmitEmpty:       o.OmitEmpty,
		WriteTypeInfo:   o.WriteTypeInfo,
		Comments:        o.Comments,
		NilSlicePolicy:  o.NilSlicePolicy,
		Quoted:          o.Quoted,
		MaxDepth:        o.MaxDepth,
		TimeLayout:      o.TimeLayout,
		CaseKey:         caseKey,
		CompileName:     compileName,
		Source:          o.Source,
		Registry:        o.Registry,
		Logger:          o.Logger,
	}
}
