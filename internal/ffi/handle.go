package ffi

import "github.com/ion-lang/ion/internal/process"

// FunctionHandle builds a lightweight, callable Function record backed by
// a registry entry — what §4.8's resolver installs for a `__stdlib:<name>`
// reference, and what the scheduler's `__stdlib:<name>` LoadConst fallback
// (ResolveStdlib) constructs on demand (spec §4.2, §4.8).
func FunctionHandle(routine *Routine) *process.Function {
	return &process.Function{
		Name:    routine.Name,
		Arity:   uint32(routine.MinArity),
		Kind:    process.KindFFI,
		FFIName: routine.Name,
	}
}
