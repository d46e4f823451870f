package tagutil

import "strings"

// JSONTag is the parsed `json` struct tag.
type JSONTag struct {
	Name      string
	Explicit  bool
	Transient bool
	OmitEmpty bool
	// Quoted is the `string` option: numbers and bools travel inside quotes.
	Quoted bool
	// Number is the `number` option: a string field holds a raw numeric literal.
	Number   bool
	Optional bool
	Required bool
}

func ParseJSONTag(defaultName string, raw string) JSONTag {
	if raw == "" {
		return JSONTag{Name: defaultName}
	}
	name, rest, _ := strings.Cut(raw, ",")
	tag := JSONTag{Name: name, Explicit: name != "", Transient: name == "-" && rest == ""}
	if name == "" {
		tag.Name = defaultName
	}
	for rest != "" {
		var opt string
		opt, rest, _ = strings.Cut(rest, ",")
		switch opt {
		case "omitempty", "omitzero":
			tag.OmitEmpty = true
		case "string":
			tag.Quoted = true
		case "number":
			tag.Number = true
		case "optional":
			tag.Optional = true
		case "required":
			tag.Required = true
		}
	}
	return tag
}
