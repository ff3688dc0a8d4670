package engine

import (
	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

// execSpawn creates a new process bound to the Function or Closure held in
// inst.Fn and writes its Process handle to inst.Dst. A non-callable target
// spawns nothing and yields Undefined (spec §4.1 Spawn, §4.5).
func (e *Engine) execSpawn(proc *process.Process, frame *process.Frame, w World, inst *opcode.Instruction) {
	target := frame.Get(inst.Fn)
	args := gatherArgs(frame, inst.Args)

	switch target.Kind {
	case value.KindFunction:
		fn, ok := target.Ref().(*process.Function)
		if !ok {
			frame.Set(inst.Dst, value.Undefined)
			return
		}
		child := w.Spawn(fn, args)
		frame.Set(inst.Dst, value.ProcessOf(child))
		e.trace("process %d spawned process %d (%s)", proc.PID, child.PID, fn.Label())

	case value.KindClosure:
		clo, ok := target.Ref().(*process.Closure)
		if !ok {
			frame.Set(inst.Dst, value.Undefined)
			return
		}
		child := w.SpawnClosure(clo, args)
		frame.Set(inst.Dst, value.ProcessOf(child))
		e.trace("process %d spawned process %d (%s)", proc.PID, child.PID, clo.Label())

	default:
		frame.Set(inst.Dst, value.Undefined)
	}
}

// execSend delivers the message in inst.ValReg to the process held in
// inst.A. A non-Process target is a silent no-op; Send never blocks the
// sender (spec §4.1 Send, §4.4).
func (e *Engine) execSend(frame *process.Frame, w World, inst *opcode.Instruction) {
	target := frame.Get(inst.A)
	if target.Kind != value.KindProcess {
		return
	}
	p, ok := target.Ref().(*process.Process)
	if !ok {
		return
	}
	w.DeliverSend(p, frame.Get(inst.ValReg))
}

// execReceiveWithTimeout dequeues immediately if mail is waiting; otherwise
// it rewinds the IP, arms a timeout with the scheduler, and blocks. The
// scheduler resolves the timeout directly (writing Undefined/false and
// advancing past the instruction) rather than letting it re-dispatch, since
// re-dispatch after the deadline would reread an empty mailbox (spec §4.4).
func (e *Engine) execReceiveWithTimeout(proc *process.Process, frame *process.Frame, w World, inst *opcode.Instruction, ip int) Outcome {
	if msg, ok := proc.Dequeue(); ok {
		frame.Set(inst.Dst, msg)
		frame.Set(inst.ResultB, value.Boolean(true))
		return Continue
	}

	timeout := frame.Get(inst.ValReg)
	ms := 0.0
	if timeout.Kind == value.KindNumber {
		ms = timeout.AsNumber()
	}

	frame.IP = ip // rewind: a Send before the deadline retries this instruction
	proc.Status = process.WaitingForMessage
	proc.Wait = &process.WaitState{HasTimeout: true, MsgReg: inst.Dst, HitReg: inst.ResultB}
	w.ArmTimeout(proc, inst.Dst, inst.ResultB, ms)
	e.trace("process %d blocked on receive-with-timeout (%gms)", proc.PID, ms)
	return Blocked
}

// execLink installs a bidirectional link between proc and the process held
// in inst.A. A non-Process target is a no-op (spec §4.1 Link, §4.4).
func (e *Engine) execLink(proc *process.Process, frame *process.Frame, w World, inst *opcode.Instruction) {
	target := frame.Get(inst.A)
	if target.Kind != value.KindProcess {
		return
	}
	other, ok := target.Ref().(*process.Process)
	if !ok {
		return
	}
	w.Link(proc, other)
}
