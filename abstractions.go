package shapejson

import "github.com/viant/tagly/format/text"

// caseFormatTransformer renames members that carry no explicit name.
type caseFormatTransformer struct {
	caseFormat text.CaseFormat
}

func (c caseFormatTransformer) Transform(fieldName string) string {
	if c.caseFormat == "" || c.caseFormat == text.CaseFormatUndefined {
		return fieldName
	}
	if fieldName == "ID" {
		switch c.caseFormat {
		case text.CaseFormatLower, text.CaseFormatLowerCamel, text.CaseFormatLowerUnderscore:
			return "id"
		}
	}
	src := text.DetectCaseFormat(fieldName)
	if !src.IsDefined() {
		src = text.CaseFormatUpperCamel
	}
	return src.Format(fieldName, c.caseFormat)
}

// names returns the plan cache key and the compile time name function, nil when no
// case format applies.
func (c caseFormatTransformer) names() (string, func(string) string) {
	if c.caseFormat == "" || c.caseFormat == text.CaseFormatUndefined {
		return "", nil
	}
	return string(c.caseFormat), c.Transform
}
