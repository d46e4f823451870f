package tagutil

import (
	"reflect"
	"sync"

	"github.com/viant/tagly/format"
	ftime "github.com/viant/tagly/format/time"
)

// FormatFieldTag captures the `format` tag attributes the codec honours.
type FormatFieldTag struct {
	Name          string
	HasNameOrCase bool
	OmitEmpty     bool
	Ignore        bool
	Inline        bool
	Nullable      *bool
	TimeLayout    string

	rawName    string
	caseFormat string
}

// ResolvedFieldTag is the effective per-field tag after json/format precedence.
type ResolvedFieldTag struct {
	Name       string
	Explicit   bool
	OmitEmpty  bool
	Ignore     bool
	Inline     bool
	Quoted     bool
	Number     bool
	Optional   bool
	Required   bool
	Marker     bool
	Comment    string
	TimeLayout string
}

var formatTagCache sync.Map // map[string]FormatFieldTag

// ParseFormatFieldTag parses the tagly `format` tag.
func ParseFormatFieldTag(sf reflect.StructField, baseName string) FormatFieldTag {
	rawTag := string(sf.Tag)
	var ret FormatFieldTag
	if cached, ok := formatTagCache.Load(rawTag); ok {
		ret = cached.(FormatFieldTag)
	} else {
		ret = parseFormatTag(rawTag)
		formatTagCache.Store(rawTag, ret)
	}
	if ret.HasNameOrCase {
		tag := &format.Tag{Name: ret.rawName, CaseFormat: ret.caseFormat}
		if tag.Name == "" {
			tag.Name = baseName
		}
		ret.Name = tag.CaseFormatName("")
	}
	return ret
}

func parseFormatTag(rawTag string) FormatFieldTag {
	tag, err := format.Parse(reflect.StructTag(rawTag))
	if err != nil || tag == nil {
		return FormatFieldTag{}
	}
	ret := FormatFieldTag{
		OmitEmpty:  tag.Omitempty,
		Ignore:     tag.Ignore,
		Inline:     tag.Inline,
		Nullable:   tag.Nullable,
		TimeLayout: tag.TimeLayout,
	}
	if ret.TimeLayout == "" && tag.DateFormat != "" {
		ret.TimeLayout = ftime.DateFormatToTimeLayout(tag.DateFormat)
	}
	if tag.Name != "" || tag.CaseFormat != "" {
		ret.rawName = tag.Name
		ret.caseFormat = tag.CaseFormat
		ret.HasNameOrCase = true
	}
	return ret
}

// ResolveFieldTag resolves precedence among json, format and codec specific tags.
// An explicit json name wins over a format name; ignore comes from json:"-",
// internal:"true" or format ignore; inline from anonymity, jsonx:"inline" or format inline.
func ResolveFieldTag(sf reflect.StructField) ResolvedFieldTag {
	jTag := ParseJSONTag(sf.Name, sf.Tag.Get("json"))
	fTag := ParseFormatFieldTag(sf, jTag.Name)
	ret := ResolvedFieldTag{
		Name:       jTag.Name,
		Explicit:   jTag.Explicit,
		OmitEmpty:  jTag.OmitEmpty || fTag.OmitEmpty,
		Ignore:     jTag.Transient || sf.Tag.Get("internal") == "true" || fTag.Ignore,
		Inline:     (sf.Anonymous && !jTag.Explicit) || sf.Tag.Get("jsonx") == "inline" || fTag.Inline,
		Quoted:     jTag.Quoted,
		Number:     jTag.Number,
		Optional:   jTag.Optional,
		Required:   jTag.Required,
		Marker:     sf.Tag.Get("setMarker") == "true",
		Comment:    sf.Tag.Get("comment"),
		TimeLayout: fTag.TimeLayout,
	}
	if !jTag.Explicit && fTag.HasNameOrCase && fTag.Name != "" {
		ret.Name = fTag.Name
		ret.Explicit = true
	}
	if fTag.Nullable != nil && *fTag.Nullable {
		ret.Optional = true
	}
	return ret
}
