package engine

import (
	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

// gatherArgs reads inst.Args out of frame in order.
func gatherArgs(frame *process.Frame, regs []opcode.Reg) []value.Value {
	args := make([]value.Value, len(regs))
	for i, r := range regs {
		args[i] = frame.Get(r)
	}
	return args
}

// execCall dispatches the value held in inst.Fn: a bytecode Function pushes
// a new frame and arms the caller's return target; an FFI Function calls
// straight through to the host routine and cannot block; a Closure pushes a
// frame that also carries its captured environment; anything else is not
// callable and yields Undefined without disturbing the call stack (spec
// §4.1 Call, §4.2, §7).
func (e *Engine) execCall(proc *process.Process, frame *process.Frame, w World, inst *opcode.Instruction) {
	target := frame.Get(inst.Fn)
	args := gatherArgs(frame, inst.Args)

	switch target.Kind {
	case value.KindFunction:
		fn, ok := target.Ref().(*process.Function)
		if !ok {
			frame.Set(inst.Dst, value.Undefined)
			return
		}
		if fn.Kind == process.KindFFI {
			frame.Set(inst.Dst, w.CallFFI(fn.FFIName, args))
			return
		}
		frame.ReturnTarget = process.ReturnTarget{Reg: inst.Dst, Valid: true}
		proc.PushFrame(process.NewFrame(fn, args))
		e.trace("process %d calling %s", proc.PID, fn.Label())

	case value.KindClosure:
		clo, ok := target.Ref().(*process.Closure)
		if !ok {
			frame.Set(inst.Dst, value.Undefined)
			return
		}
		frame.ReturnTarget = process.ReturnTarget{Reg: inst.Dst, Valid: true}
		proc.PushFrame(process.NewClosureFrame(clo, args))
		e.trace("process %d calling %s", proc.PID, clo.Label())

	default:
		frame.Set(inst.Dst, value.Undefined)
	}
}
