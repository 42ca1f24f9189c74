package hl7

import (
	"fmt"
	"runtime/debug"
)

// Kind classifies the failures the tokenizer and extractor can report.
type Kind int

const (
	// KindMalformed means the raw input could not be decomposed into a
	// header segment, or the delimiters could not be derived from it.
	KindMalformed Kind = iota + 1
	// KindSegmentNotFound means a semantically required segment is absent.
	KindSegmentNotFound
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindSegmentNotFound:
		return "segment not found"
	default:
		return "unknown"
	}
}

// Error is the tagged failure result of a parse or extraction call. Trace is
// a diagnostic capture for operator debugging; it is carried as data and
// never drives control flow.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
	Trace string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:  kind,
		Msg:   fmt.Sprintf(format, args...),
		Cause: cause,
		Trace: string(debug.Stack()),
	}
}
