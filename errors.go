package jsonbind

import (
	"fmt"
	"reflect"
)

// ConfigurationError reports a registration or directive whose shape is
// unusable: an implementation that is none of the adapter capabilities, an
// unknown named directive, a directive-bound factory declining its own
// type, or mutation of a Binder already in use.
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string {
	return "jsonbind: configuration: " + e.msg
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

// TypeMismatchError reports a value flowing through an adapter whose
// declared target type does not match. This is detectable only at first
// use, not when the directive or registration is bound.
type TypeMismatchError struct {
	Want reflect.Type
	Got  reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("jsonbind: adapter for %s used with %s", e.Want, e.Got)
}

// SyntaxError reports structurally malformed input: a duplicate object key,
// an unexpected token kind, an unterminated structure. It is always fatal
// to the operation, never repaired.
type SyntaxError struct {
	msg string
}

func (e *SyntaxError) Error() string {
	return "jsonbind: syntax: " + e.msg
}

func syntaxErrorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{msg: fmt.Sprintf(format, args...)}
}

// UnsupportedKeyError reports a map key that does not collapse to a single
// primitive wire value while the codec is in simple (string-keyed) mode.
type UnsupportedKeyError struct {
	Key Descriptor
}

func (e *UnsupportedKeyError) Error() string {
	return fmt.Sprintf("jsonbind: map key type %s does not serialize to a primitive; enable complex map key serialization", e.Key)
}
