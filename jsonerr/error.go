package jsonerr

import (
	"errors"
	"strconv"
	"strings"
)

// Error is a structured read or write failure.
type Error struct {
	Code   Code
	Offset int
	Source string
	Detail string
	Cause  error
}

// New creates an error for code at offset.
func New(code Code, offset int) *Error {
	return &Error{Code: code, Offset: offset}
}

// Newf creates an error with a detail, usually the offending key or type.
func Newf(code Code, offset int, detail string) *Error {
	return &Error{Code: code, Offset: offset, Detail: detail}
}

func (e *Error) Error() string {
	sb := strings.Builder{}
	sb.WriteString("shapejson: ")
	sb.WriteString(e.Code.String())
	if e.Detail != "" {
		sb.WriteString(" ")
		sb.WriteString(strconv.Quote(e.Detail))
	}
	if e.Offset >= 0 {
		sb.WriteString(" at ")
		sb.WriteString(strconv.Itoa(e.Offset))
	}
	if e.Source != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Source)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error or a bare Code by code only.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Code:
		return e.Code == t
	case *Error:
		return t != nil && e.Code == t.Code
	}
	return false
}

// CodeOf returns the code carried by err, None for nil and InvalidValue for foreign errors.
func CodeOf(err error) Code {
	if err == nil {
		return None
	}
	var target *Error
	if errors.As(err, &target) {
		return target.Code
	}
	return InvalidValue
}

// OffsetOf returns the byte offset carried by err or -1.
func OffsetOf(err error) int {
	var target *Error
	if errors.As(err, &target) {
		return target.Offset
	}
	return -1
}
