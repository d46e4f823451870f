package shapejson

import "github.com/viant/shapejson/jsonerr"

// Error is the error returned by every read and write failure.
type Error = jsonerr.Error

// Code identifies the failure kind of an Error.
type Code = jsonerr.Code

const (
	SyntaxError                    = jsonerr.SyntaxError
	UnexpectedEnd                  = jsonerr.UnexpectedEnd
	ExpectedTrueOrFalse            = jsonerr.ExpectedTrueOrFalse
	ExpectedBracket                = jsonerr.ExpectedBracket
	ExpectedBrace                  = jsonerr.ExpectedBrace
	ExpectedColon                  = jsonerr.ExpectedColon
	InvalidEscape                  = jsonerr.InvalidEscape
	URequiresHexDigits             = jsonerr.URequiresHexDigits
	UnicodeEscapeConversionFailure = jsonerr.UnicodeEscapeConversionFailure
	ParseNumberFailure             = jsonerr.ParseNumberFailure
	UnexpectedEnum                 = jsonerr.UnexpectedEnum
	UnknownKey                     = jsonerr.UnknownKey
	MissingKey                     = jsonerr.MissingKey
	DuplicateKey                   = jsonerr.DuplicateKey
	NoMatchingVariantType          = jsonerr.NoMatchingVariantType
	KeyNotFound                    = jsonerr.KeyNotFound
	InvalidNullableRead            = jsonerr.InvalidNullableRead
	ExceededStaticArraySize        = jsonerr.ExceededStaticArraySize
	ExceededMaxRecursiveDepth      = jsonerr.ExceededMaxRecursiveDepth
	AttemptMemberFuncRead          = jsonerr.AttemptMemberFuncRead
	AttemptReadHidden              = jsonerr.AttemptReadHidden
	UnsupportedType                = jsonerr.UnsupportedType
	InvalidValue                   = jsonerr.InvalidValue
)

// CodeOf returns the code of the first Error in the chain of err.
func CodeOf(err error) Code { return jsonerr.CodeOf(err) }

// OffsetOf returns the byte offset of the first Error in the chain of err, -1 when unknown.
func OffsetOf(err error) int { return jsonerr.OffsetOf(err) }
