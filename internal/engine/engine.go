// Package engine implements the per-instruction semantics of the register
// VM: frame push/pop, arithmetic/comparison/control-flow/object/message/
// spawn primitives, and return-value routing (spec §4.2).
package engine

import (
	"fmt"

	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

// Outcome reports how a single Step call left the process.
type Outcome byte

const (
	// Continue means the process has more work and should keep running
	// within its current slice.
	Continue Outcome = iota
	// Yielded means the process hit a voluntary Yield instruction; the
	// scheduler ends the slice and re-enqueues at the tail.
	Yielded
	// Blocked means the process is waiting on its mailbox (with or
	// without a timeout); process.Status/process.Wait are already set.
	Blocked
	// Exited means the process terminated; process.Status/LastResult are
	// already set.
	Exited
	// Errored means a catastrophic engine invariant was violated; the
	// process is terminated with FailureMsg set.
	Errored
)

// World exposes the cross-process services (spawn, lookup, FFI dispatch,
// sentinel-atom context) that a single process's execution needs but that
// only the scheduler can provide, keeping Engine free of process-table or
// run-queue state (spec §4.2, §4.4, §4.6).
type World interface {
	// Spawn creates a new process bound to fn (or a closure) and returns
	// its handle. The spawned process is queued to run but has not executed
	// any instruction yet.
	Spawn(fn *process.Function, args []value.Value) *process.Process
	SpawnClosure(clo *process.Closure, args []value.Value) *process.Process

	// Lookup returns the process registered under pid, if still tracked
	// (dead processes remain addressable for reporting, per spec §3).
	Lookup(pid int64) (*process.Process, bool)

	// DeliverSend implements the Send primitive's fire-and-forget
	// semantics, including waking a WaitingForMessage target.
	DeliverSend(target *process.Process, msg value.Value)

	// Link installs a bidirectional link between a and b.
	Link(a, b *process.Process)

	// ArmTimeout registers timeout_ms on proc for ReceiveWithTimeout. On
	// expiry the scheduler writes Undefined to msgReg, false to hitReg, and
	// advances past the instruction without re-dispatching it.
	ArmTimeout(proc *process.Process, msgReg, hitReg uint32, timeoutMs float64)

	// Sentinel-atom context (spec §4.2, "Special atom resolution").
	SelfPID() int64
	LiveProcesses() float64
	SchedulerPasses() float64

	// ResolveStdlib looks up an FFI Function by registry name for
	// __stdlib:<name> resolution.
	ResolveStdlib(name string) (*process.Function, bool)

	// CallFFI dispatches to a named host routine and returns the
	// converted result or a "Error: <message>" Atom (spec §4.6).
	CallFFI(name string, args []value.Value) value.Value
}

// Engine runs one process's top frame one instruction at a time.
type Engine struct {
	DebugMode bool
	Trace     func(line string)

	// LastFault records the most recent Errored outcome's detail, valid
	// only immediately after Step returns Errored.
	LastFault *Fault
}

// New constructs an Engine with debug tracing disabled.
func New() *Engine { return &Engine{} }

func (e *Engine) trace(format string, args ...any) {
	if !e.DebugMode || e.Trace == nil {
		return
	}
	e.Trace("[VM DEBUG] " + fmt.Sprintf(format, args...))
}

// Step executes exactly one instruction of proc's top frame and reports
// the outcome. The caller (the scheduler) is responsible for budget
// accounting and for re-enqueuing/propagating per spec §4.4.
func (e *Engine) Step(proc *process.Process, w World) Outcome {
	frame := proc.CurrentFrame()
	if frame == nil {
		return e.fault(proc, "empty frame stack mid-execution")
	}

	if frame.IP < 0 || frame.IP >= len(frame.Function.Instructions) {
		return e.handleReturn(proc, w, value.Unit)
	}

	ip := frame.IP
	inst := frame.Function.Instructions[ip]
	frame.IP = ip + 1 // IP discipline: advance before dispatch (spec §4.2)
	proc.Reductions++

	switch inst.Op {
	case opcode.OpNop:
		return Continue
	case opcode.OpYield:
		return Yielded
	case opcode.OpLoadConst:
		frame.Set(inst.Dst, e.resolveConst(proc, frame, w, inst.Const))
		return Continue
	case opcode.OpMove:
		frame.Set(inst.Dst, frame.Get(inst.A))
		return Continue

	case opcode.OpAdd, opcode.OpSub, opcode.OpMul, opcode.OpDiv:
		e.execArithmetic(frame, inst)
		return Continue

	case opcode.OpEqual, opcode.OpNotEqual, opcode.OpLessThan, opcode.OpLessEqual,
		opcode.OpGreaterThan, opcode.OpGreaterEqual:
		e.execComparison(frame, inst)
		return Continue

	case opcode.OpAnd, opcode.OpOr:
		e.execLogical(frame, inst)
		return Continue
	case opcode.OpNot:
		frame.Set(inst.Dst, value.Boolean(!frame.Get(inst.A).Truthy()))
		return Continue

	case opcode.OpGetProp:
		e.execGetProp(frame, inst)
		return Continue
	case opcode.OpSetProp:
		e.execSetProp(frame, inst)
		return Continue

	case opcode.OpJump:
		frame.IP = frame.IP + int(inst.Offset) - 1
		return Continue
	case opcode.OpJumpIfTrue:
		if frame.Get(inst.A).Truthy() {
			frame.IP = frame.IP + int(inst.Offset) - 1
		}
		return Continue
	case opcode.OpJumpIfFalse:
		if !frame.Get(inst.A).Truthy() {
			frame.IP = frame.IP + int(inst.Offset) - 1
		}
		return Continue

	case opcode.OpCall:
		e.execCall(proc, frame, w, inst)
		return Continue
	case opcode.OpReturn:
		return e.handleReturn(proc, w, frame.Get(inst.A))

	case opcode.OpSpawn:
		e.execSpawn(proc, frame, w, inst)
		return Continue
	case opcode.OpSend:
		e.execSend(frame, w, inst)
		return Continue
	case opcode.OpReceive:
		if msg, ok := proc.Dequeue(); ok {
			frame.Set(inst.Dst, msg)
			return Continue
		}
		frame.IP = ip // rewind: retry this instruction on reschedule
		proc.Status = process.WaitingForMessage
		proc.Wait = &process.WaitState{}
		e.trace("process %d blocked on receive", proc.PID)
		return Blocked
	case opcode.OpReceiveWithTimeout:
		return e.execReceiveWithTimeout(proc, frame, w, inst, ip)

	case opcode.OpMatch:
		e.execMatch(frame, inst)
		return Continue

	case opcode.OpLink:
		e.execLink(proc, frame, w, inst)
		return Continue

	default:
		return e.fault(proc, fmt.Sprintf("unimplemented opcode %s", inst.Op))
	}
}

// fault terminates proc with a catastrophic-invariant Fault (spec §7).
func (e *Engine) fault(proc *process.Process, message string) Outcome {
	proc.Status = process.Exited
	proc.Alive = false
	proc.FailureMsg = message
	e.LastFault = &Fault{PID: proc.PID, Message: message}
	e.trace("process %d errored: %s", proc.PID, message)
	return Errored
}

// handleReturn implements spec §4.2's return routing.
func (e *Engine) handleReturn(proc *process.Process, w World, v value.Value) Outcome {
	completed := proc.PopFrame()
	if completed == nil {
		proc.Status = process.Exited
		proc.Alive = false
		proc.LastResult = &v
		return Exited
	}

	caller := proc.CurrentFrame()
	if caller == nil {
		proc.Status = process.Exited
		proc.Alive = false
		proc.LastResult = &v
		e.trace("process %d exited with %s", proc.PID, v.String())
		return Exited
	}

	if caller.ReturnTarget.Valid {
		caller.Set(caller.ReturnTarget.Reg, v)
		caller.ResetReturnTarget()
	}
	return Continue
}
