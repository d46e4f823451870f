package jsonerr

// Code identifies a read or write failure kind.
type Code uint8

const (
	None Code = iota
	SyntaxError
	UnexpectedEnd
	ExpectedTrueOrFalse
	ExpectedBracket
	ExpectedBrace
	ExpectedColon
	InvalidEscape
	URequiresHexDigits
	UnicodeEscapeConversionFailure
	ParseNumberFailure
	UnexpectedEnum
	UnknownKey
	MissingKey
	DuplicateKey
	NoMatchingVariantType
	KeyNotFound
	InvalidNullableRead
	ExceededStaticArraySize
	ExceededMaxRecursiveDepth
	AttemptMemberFuncRead
	AttemptReadHidden
	UnsupportedType
	InvalidValue
)

var codeNames = [...]string{
	None:                           "none",
	SyntaxError:                    "syntax_error",
	UnexpectedEnd:                  "unexpected_end",
	ExpectedTrueOrFalse:            "expected_true_or_false",
	ExpectedBracket:                "expected_bracket",
	ExpectedBrace:                  "expected_brace",
	ExpectedColon:                  "expected_colon",
	InvalidEscape:                  "invalid_escape",
	URequiresHexDigits:             "u_requires_hex_digits",
	UnicodeEscapeConversionFailure: "unicode_escape_conversion_failure",
	ParseNumberFailure:             "parse_number_failure",
	UnexpectedEnum:                 "unexpected_enum",
	UnknownKey:                     "unknown_key",
	MissingKey:                     "missing_key",
	DuplicateKey:                   "duplicate_key",
	NoMatchingVariantType:          "no_matching_variant_type",
	KeyNotFound:                    "key_not_found",
	InvalidNullableRead:            "invalid_nullable_read",
	ExceededStaticArraySize:        "exceeded_static_array_size",
	ExceededMaxRecursiveDepth:      "exceeded_max_recursive_depth",
	AttemptMemberFuncRead:          "attempt_member_func_read",
	AttemptReadHidden:              "attempt_read_hidden",
	UnsupportedType:                "unsupported_type",
	InvalidValue:                   "invalid_value",
}

// String returns the snake_case name of the code.
func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "unknown_error"
}

// Error lets a bare Code be used as an errors.Is target.
func (c Code) Error() string { return c.String() }

// ParseCode returns the code with the given name.
func ParseCode(name string) (Code, bool) {
	for i, candidate := range codeNames {
		if candidate == name {
			return Code(i), true
		}
	}
	return None, false
}
