// Package token defines the JSON token stream boundary of the binding
// engine: a Reader that yields tokens from an input document and a Writer
// that emits them. Adapters speak only in tokens; the lexical work
// (scanning, escaping) is delegated to the configured JSON backend.
package token

import "fmt"

type Kind int

const (
	BeginObject Kind = iota
	EndObject
	BeginArray
	EndArray
	Name
	String
	Number
	Bool
	Null
	EOF
)

func (k Kind) String() string {
	switch k {
	case BeginObject:
		return "begin-object"
	case EndObject:
		return "end-object"
	case BeginArray:
		return "begin-array"
	case EndArray:
		return "end-array"
	case Name:
		return "name"
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Null:
		return "null"
	case EOF:
		return "end-of-document"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Reader interface {
	// Peek reports the kind of the next token without consuming it.
	Peek() (Kind, error)

	BeginObject() error
	EndObject() error
	BeginArray() error
	EndArray() error

	// Name consumes and returns the next object member name.
	Name() (string, error)

	// String consumes a string value. In lenient mode a number or bool
	// value is accepted and returned as its literal text.
	String() (string, error)
	// Number consumes a number value and returns its raw literal. A string
	// value is accepted too; the caller's parse decides whether its text
	// forms a valid number.
	Number() (string, error)
	Bool() (bool, error)
	Null() error

	// SkipValue consumes the next value, including everything a nested
	// structure contains.
	SkipValue() error

	SetLenient(lenient bool)
}

type Writer interface {
	BeginObject() error
	EndObject() error
	BeginArray() error
	EndArray() error

	Name(name string) error
	String(s string) error
	// Number writes a raw number literal, e.g. "42" or "1.5e3".
	Number(literal string) error
	Bool(b bool) error
	Null() error
}

// UnexpectedError reports a token of the wrong kind, e.g. a string where a
// begin-object was required.
type UnexpectedError struct {
	Want Kind
	Got  Kind
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("token: expected %s but was %s", e.Want, e.Got)
}

// DepthError reports input nested deeper than the reader's limit.
type DepthError struct {
	Limit int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("token: nesting exceeds %d levels", e.Limit)
}
