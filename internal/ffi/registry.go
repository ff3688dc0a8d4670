package ffi

import (
	"fmt"

	"github.com/ion-lang/ion/internal/value"
)

// Routine is one registry entry: a name, an arity contract, and the host
// function itself. Variadic routines declare MinArity as their floor and
// set Variadic so extra trailing arguments are passed through uncounted
// (spec §4.6).
type Routine struct {
	Name        string
	MinArity    int
	Variadic    bool
	Description string
	Call        func(args []Value) (Value, error)
}

// Registry is a name-keyed table of host routines, the VM-global
// collaborator the engine's Call opcode dispatches FFI targets through.
type Registry struct {
	routines map[string]*Routine
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{routines: make(map[string]*Routine)}
}

// Register installs (or replaces) a routine by name.
func (r *Registry) Register(routine *Routine) {
	r.routines[routine.Name] = routine
}

// Lookup returns the routine registered under name, if any.
func (r *Registry) Lookup(name string) (*Routine, bool) {
	routine, ok := r.routines[name]
	return routine, ok
}

// Names returns every registered routine name, for `ion info`-style
// introspection.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.routines))
	for name := range r.routines {
		names = append(names, name)
	}
	return names
}

// Dispatch implements the invocation protocol: lookup by name, arity
// check, convert each argument to FfiValue, invoke, convert the result
// back. Any failure (unknown name, bad arity, routine error) becomes an
// Atom of the form "Error: <message>" rather than a Go error or panic
// reaching the caller (spec §4.6).
func (r *Registry) Dispatch(name string, args []value.Value) value.Value {
	routine, ok := r.routines[name]
	if !ok {
		return errorAtom(NewFunctionNotFound(name))
	}

	if len(args) < routine.MinArity || (!routine.Variadic && len(args) != routine.MinArity) {
		return errorAtom(NewArgumentCount(name, routine.MinArity, len(args)))
	}

	converted := make([]Value, len(args))
	for i, a := range args {
		converted[i] = ToFFI(a)
	}

	result, err := routine.Call(converted)
	if err != nil {
		return errorAtom(err)
	}
	return ToVM(result)
}

func errorAtom(err error) value.Value {
	return value.Atom(fmt.Sprintf("Error: %s", err.Error()))
}
