package engine

import (
	"strings"

	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

// resolveConst implements LoadConst's special-atom resolution (spec §4.2,
// §9). Ordinary literals pass through untouched. Function-reference and
// stdlib sentinels are normally rewritten to direct handles by the loader's
// resolver pass (spec §4.8). A __stdlib:<name> atom that reaches LoadConst
// is still looked up in the FFI registry, so it works when that pass was
// skipped, e.g. ad hoc REPL input; a __function_ref:<name> atom that
// reaches LoadConst was left unresolved and yields Undefined.
func (e *Engine) resolveConst(proc *process.Process, frame *process.Frame, w World, c value.Value) value.Value {
	if c.Kind != value.KindAtom {
		return c
	}

	switch name := c.AsText(); name {
	case "self", "__vm:self":
		return value.ProcessOf(proc)
	case "__vm:pid":
		return value.Number(float64(proc.PID))
	case "__vm:processes":
		return value.Number(w.LiveProcesses())
	case "__vm:scheduler_passes":
		return value.Number(w.SchedulerPasses())
	default:
		switch {
		case strings.HasPrefix(name, "__stdlib:"):
			return e.resolveNamedFunction(w, strings.TrimPrefix(name, "__stdlib:"))
		case strings.HasPrefix(name, "__function_ref:"):
			return value.Undefined
		case strings.HasPrefix(name, "__closure:"):
			return resolveClosureVar(frame, strings.TrimPrefix(name, "__closure:"))
		default:
			return c
		}
	}
}

func (e *Engine) resolveNamedFunction(w World, name string) value.Value {
	fn, ok := w.ResolveStdlib(name)
	if !ok {
		return value.Undefined
	}
	return value.FunctionOf(fn)
}

// resolveClosureVar looks a free variable up in the current frame's
// captured environment. Closure variables are addressed by name rather than
// by register slot. No opcode, FFI conversion or loader path constructs a
// Closure; a frame carries one only when a Closure value is called or
// spawned (spec §3, §9).
func resolveClosureVar(frame *process.Frame, name string) value.Value {
	if frame.Closure == nil {
		return value.Undefined
	}
	v, ok := frame.Closure.Env[name]
	if !ok {
		return value.Undefined
	}
	return v
}
