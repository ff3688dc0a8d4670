// Package resolver implements the load-time reference-resolution pass:
// rewriting symbolic __function_ref:<name> and __stdlib:<name> sentinel
// atoms into direct Function handles before a package's functions run for
// the first time (spec §4.8, §9).
package resolver

import (
	"strings"

	"github.com/ion-lang/ion/internal/ffi"
	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

const (
	functionRefPrefix = "__function_ref:"
	stdlibPrefix      = "__stdlib:"
)

// Resolve walks every LoadConst in every bytecode function in fns and
// rewrites sentinel atoms in place. A name absent from both fns and
// registry is left as an atom; §4.2's runtime fallback then yields
// Undefined when it is loaded. Safe to call more than once — an
// already-rewritten LoadConst's inline value is no longer an Atom, so a
// second pass is a no-op (spec §4.8, "idempotent").
func Resolve(fns []*process.Function, registry *ffi.Registry) {
	byName := make(map[string]*process.Function, len(fns))
	for _, fn := range fns {
		if fn.Name != "" {
			byName[fn.Name] = fn
		}
	}

	for _, fn := range fns {
		if fn.Kind != process.KindBytecode {
			continue
		}
		for _, inst := range fn.Instructions {
			if inst.Op != opcode.OpLoadConst {
				continue
			}
			rewrite(inst, byName, registry)
		}
	}
}

func rewrite(inst *opcode.Instruction, byName map[string]*process.Function, registry *ffi.Registry) {
	if inst.Const.Kind != value.KindAtom {
		return
	}
	name := inst.Const.AsText()

	switch {
	case strings.HasPrefix(name, functionRefPrefix):
		target := strings.TrimPrefix(name, functionRefPrefix)
		if fn, ok := byName[target]; ok {
			inst.Const = value.FunctionOf(fn)
		}
	case strings.HasPrefix(name, stdlibPrefix):
		target := strings.TrimPrefix(name, stdlibPrefix)
		if registry == nil {
			return
		}
		if routine, ok := registry.Lookup(target); ok {
			inst.Const = value.FunctionOf(ffi.FunctionHandle(routine))
		}
	}
}
