package ffi

import "fmt"

// Error is the typed error hierarchy a Routine's Call may return. The
// registry never lets one escape to the VM as a Go panic — Dispatch always
// converts it to an "Error: <message>" Atom (spec §4.6, §7).
type Error struct {
	Kind    ErrorKind
	Message string
}

// ErrorKind discriminates the taxonomy spec §4.6 names.
type ErrorKind byte

const (
	ArgumentCount ErrorKind = iota
	ArgumentType
	RuntimeError
	FunctionNotFound
)

func (e *Error) Error() string { return e.Message }

// NewArgumentCount reports a routine called with the wrong arity.
func NewArgumentCount(name string, expected, got int) *Error {
	return &Error{Kind: ArgumentCount, Message: fmt.Sprintf("%s: expected %d argument(s), got %d", name, expected, got)}
}

// NewArgumentType reports an argument of the wrong FFI kind.
func NewArgumentType(name string, argIndex int, expected string, got Kind) *Error {
	return &Error{Kind: ArgumentType, Message: fmt.Sprintf("%s: argument %d: expected %s, got %s", name, argIndex, expected, got)}
}

// NewRuntimeError wraps an arbitrary host-side failure.
func NewRuntimeError(name, message string) *Error {
	return &Error{Kind: RuntimeError, Message: fmt.Sprintf("%s: %s", name, message)}
}

// NewFunctionNotFound reports a Dispatch against an unregistered name.
func NewFunctionNotFound(name string) *Error {
	return &Error{Kind: FunctionNotFound, Message: fmt.Sprintf("function not found: %s", name)}
}

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "Number"
	case KindBoolean:
		return "Boolean"
	case KindString:
		return "String"
	case KindUnit:
		return "Unit"
	case KindUndefined:
		return "Undefined"
	case KindArray:
		return "Array"
	case KindObject:
		return "Object"
	default:
		return "Unknown"
	}
}
