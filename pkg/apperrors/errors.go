// Package apperrors classifies engine failures so the HTTP boundary can map
// them onto user-facing responses without inspecting message text. Every
// engine function fails fast with one of the kinds below; no partial result
// ever accompanies an error.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind identifies the failure class of an engine error.
type Kind int

const (
	// KindUnknown marks errors that did not originate in the engine.
	KindUnknown Kind = iota

	// KindInput: missing required files or parameters, wrong file count for
	// an operation requiring an exact count, missing key or column mapping.
	KindInput

	// KindParse: malformed tabular text or unparsable JSON input.
	KindParse

	// KindMapping: a referenced column (join key, dedup key, return column)
	// does not exist in the relevant table.
	KindMapping

	// KindEmptyResult: the transformation legitimately produced zero usable
	// rows or would remove every column.
	KindEmptyResult
)

// String returns a short tag for logs.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindParse:
		return "parse"
	case KindMapping:
		return "mapping"
	case KindEmptyResult:
		return "empty_result"
	default:
		return "unknown"
	}
}

// Error is a kind-classified failure with a human-readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Inputf builds a KindInput error.
func Inputf(format string, a ...any) error {
	return &Error{Kind: KindInput, Msg: fmt.Sprintf(format, a...)}
}

// Parsef builds a KindParse error.
func Parsef(format string, a ...any) error {
	return &Error{Kind: KindParse, Msg: fmt.Sprintf(format, a...)}
}

// Mappingf builds a KindMapping error.
func Mappingf(format string, a ...any) error {
	return &Error{Kind: KindMapping, Msg: fmt.Sprintf(format, a...)}
}

// EmptyResultf builds a KindEmptyResult error.
func EmptyResultf(format string, a ...any) error {
	return &Error{Kind: KindEmptyResult, Msg: fmt.Sprintf(format, a...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, err error, msg string) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, unwrapping as needed. Errors that are
// not kind-classified report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }
