package shapejson

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/viant/tagly/format/text"
	"gopkg.in/yaml.v3"
)

// Config is the YAML form of the runtime options. Unset members keep their defaults.
type Config struct {
	Mode                string `yaml:"mode,omitempty"`
	UnknownFields       string `yaml:"unknownFields,omitempty"`
	MissingFields       string `yaml:"missingFields,omitempty"`
	DuplicateKeys       string `yaml:"duplicateKeys,omitempty"`
	Nulls               string `yaml:"nulls,omitempty"`
	Numbers             string `yaml:"numbers,omitempty"`
	UnionStrategy       string `yaml:"unionStrategy,omitempty"`
	KeyLookup           string `yaml:"keyLookup,omitempty"`
	CaseInsensitiveKeys *bool  `yaml:"caseInsensitiveKeys,omitempty"`
	ForceConformance    *bool  `yaml:"forceConformance,omitempty"`
	ShrinkToFit         bool   `yaml:"shrinkToFit,omitempty"`
	Quoted              bool   `yaml:"quoted,omitempty"`
	RawNumbers          bool   `yaml:"rawNumbers,omitempty"`
	MaxDepth            int    `yaml:"maxDepth,omitempty"`
	CaseFormat          string `yaml:"caseFormat,omitempty"`
	TimeLayout          string `yaml:"timeLayout,omitempty"`

	Prettify        bool   `yaml:"prettify,omitempty"`
	Indent          string `yaml:"indent,omitempty"`
	SkipNullMembers bool   `yaml:"skipNullMembers,omitempty"`
	OmitEmpty       bool   `yaml:"omitEmpty,omitempty"`
	WriteTypeInfo   bool   `yaml:"writeTypeInfo,omitempty"`
	Comments        bool   `yaml:"comments,omitempty"`
	NilSlices       string `yaml:"nilSlices,omitempty"`

	Source       string `yaml:"source,omitempty"`
	BatchWorkers int    `yaml:"batchWorkers,omitempty"`
}

// LoadConfig decodes a YAML document, rejecting unknown members. An empty document
// yields an empty Config.
func LoadConfig(data []byte) (*Config, error) {
	ret := &Config{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(ret); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	return ret, nil
}

// Options converts the configuration to options.
func (c *Config) Options() ([]Option, error) {
	var ret []Option
	add := func(opt Option) { ret = append(ret, opt) }
	switch c.Mode {
	case "":
	case "compat":
		add(WithMode(ModeCompat))
	case "strict":
		add(WithMode(ModeStrict))
	default:
		return nil, errors.Errorf("unsupported mode: %q", c.Mode)
	}
	type choice struct {
		name    string
		value   string
		options map[string]Option
	}
	choices := []choice{
		{"unknownFields", c.UnknownFields, map[string]Option{"ignore": WithUnknownFieldPolicy(IgnoreUnknown), "error": WithUnknownFieldPolicy(ErrorOnUnknown)}},
		{"missingFields", c.MissingFields, map[string]Option{"ignore": WithMissingFieldPolicy(IgnoreMissing), "error": WithMissingFieldPolicy(ErrorOnMissing)}},
		{"duplicateKeys", c.DuplicateKeys, map[string]Option{"lastWins": WithDuplicateKeyPolicy(LastWins), "error": WithDuplicateKeyPolicy(ErrorOnDuplicate)}},
		{"nulls", c.Nulls, map[string]Option{"compat": WithNullPolicy(CompatNulls), "strict": WithNullPolicy(StrictNulls)}},
		{"numbers", c.Numbers, map[string]Option{"coerce": WithNumberPolicy(CoerceNumbers), "exact": WithNumberPolicy(ExactNumbers)}},
		{"unionStrategy", c.UnionStrategy, map[string]Option{"rewind": WithUnionStrategy(UnionRewind), "buffered": WithUnionStrategy(UnionBuffered)}},
		{"keyLookup", c.KeyLookup, map[string]Option{"linear": WithKeyLookup(LinearLookup), "hash": WithKeyLookup(HashLookup)}},
		{"nilSlices", c.NilSlices, map[string]Option{"null": WithNilSlicePolicy(NilSliceAsNull), "empty": WithNilSlicePolicy(NilSliceAsEmptyArray)}},
	}
	for _, ch := range choices {
		if ch.value == "" {
			continue
		}
		opt, ok := ch.options[ch.value]
		if !ok {
			return nil, errors.Errorf("unsupported %v: %q", ch.name, ch.value)
		}
		add(opt)
	}
	if c.CaseInsensitiveKeys != nil {
		add(WithCaseInsensitiveKeys(*c.CaseInsensitiveKeys))
	}
	if c.ForceConformance != nil {
		add(WithForceConformance(*c.ForceConformance))
	}
	if c.ShrinkToFit {
		add(WithShrinkToFit(true))
	}
	if c.Quoted {
		add(WithQuoted(true))
	}
	if c.RawNumbers {
		add(WithRawNumbers(true))
	}
	if c.MaxDepth < 0 {
		return nil, errors.Errorf("invalid maxDepth: %v", c.MaxDepth)
	}
	if c.MaxDepth > 0 {
		add(WithMaxDepth(c.MaxDepth))
	}
	if c.CaseFormat != "" {
		caseFormat := text.NewCaseFormat(c.CaseFormat)
		if !caseFormat.IsDefined() {
			return nil, errors.Errorf("unsupported caseFormat: %q", c.CaseFormat)
		}
		add(WithCaseFormat(caseFormat))
	}
	if c.TimeLayout != "" {
		add(WithTimeLayout(c.TimeLayout))
	}
	if c.Indent != "" {
		char := c.Indent[0]
		for i := 1; i < len(c.Indent); i++ {
			if c.Indent[i] != char {
				return nil, errors.Errorf("indent must repeat one character: %q", c.Indent)
			}
		}
		add(WithIndent(char, len(c.Indent)))
	} else if c.Prettify {
		add(WithPrettify(true))
	}
	if c.SkipNullMembers {
		add(WithSkipNullMembers(true))
	}
	if c.OmitEmpty {
		add(WithOmitEmpty(true))
	}
	if c.WriteTypeInfo {
		add(WithWriteTypeInfo(true))
	}
	if c.Comments {
		add(WithComments(true))
	}
	if c.Source != "" {
		add(WithSource(c.Source))
	}
	if c.BatchWorkers > 0 {
		add(WithBatchWorkers(c.BatchWorkers))
	}
	return ret, nil
}
