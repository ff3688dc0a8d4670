package process

import (
	"fmt"
	"time"

	"github.com/ion-lang/ion/internal/value"
)

// Status is a Process's scheduling state (spec §3).
type Status byte

const (
	Runnable Status = iota
	WaitingForMessage
	Suspended
	Exited
)

func (s Status) String() string {
	switch s {
	case Runnable:
		return "Runnable"
	case WaitingForMessage:
		return "WaitingForMessage"
	case Suspended:
		return "Suspended"
	case Exited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// WaitState records the information needed to resolve a blocked receive,
// either by Send delivery (which simply re-enqueues the process and lets
// the instruction re-execute) or by timer expiry (which the scheduler's
// timeout subsystem resolves directly, per spec §4.4).
type WaitState struct {
	HasTimeout bool
	Deadline   time.Time
	MsgReg     uint32 // written Undefined on timeout expiry
	HitReg     uint32 // written false on timeout expiry
}

// Process is a shared mutable handle to one lightweight process: its call
// stack, mailbox, links, and lifecycle state (spec §3).
type Process struct {
	PID int64

	frames []*Frame

	mailbox []value.Value
	Links   map[int64]struct{}

	Status Status
	Alive  bool

	LastResult *value.Value
	FailureMsg string // set on Error-kind termination

	Reductions int64 // cumulative reductions consumed across the process's lifetime

	Wait *WaitState
}

// New allocates a process whose single initial frame executes fn with the
// given arguments, laid out exactly as a bytecode call (spec §4.5).
func New(pid int64, fn *Function, args []value.Value) *Process {
	p := &Process{
		PID:    pid,
		Status: Runnable,
		Alive:  true,
		Links:  make(map[int64]struct{}),
	}
	p.frames = append(p.frames, NewFrame(fn, args))
	return p
}

// NewFromClosure allocates a process whose initial frame executes a
// closure, laid out by NewClosureFrame: arguments from register 0, then
// padding, with the captured environment reachable by name only (spec §4.5).
func NewFromClosure(pid int64, clo *Closure, args []value.Value) *Process {
	p := &Process{
		PID:    pid,
		Status: Runnable,
		Alive:  true,
		Links:  make(map[int64]struct{}),
	}
	p.frames = append(p.frames, NewClosureFrame(clo, args))
	return p
}

// ProcessID implements the pidHolder interface value.Value.Equal uses for
// Process equality.
func (p *Process) ProcessID() int64 { return p.PID }

// Label implements the identity interface used by Value.String.
func (p *Process) Label() string { return fmt.Sprintf("process#%d", p.PID) }

// PushFrame pushes a new call frame (spec §4.2, Call).
func (p *Process) PushFrame(f *Frame) { p.frames = append(p.frames, f) }

// PopFrame pops and returns the top frame, or nil if the stack is empty.
func (p *Process) PopFrame() *Frame {
	if len(p.frames) == 0 {
		return nil
	}
	idx := len(p.frames) - 1
	f := p.frames[idx]
	p.frames = p.frames[:idx]
	return f
}

// CurrentFrame returns the top of the call stack, or nil if empty.
func (p *Process) CurrentFrame() *Frame {
	if len(p.frames) == 0 {
		return nil
	}
	return p.frames[len(p.frames)-1]
}

// Depth reports the call stack depth.
func (p *Process) Depth() int { return len(p.frames) }

// Enqueue appends a cloned message to the mailbox's tail (spec §4.5, FIFO).
func (p *Process) Enqueue(msg value.Value) {
	p.mailbox = append(p.mailbox, msg.Clone())
}

// Dequeue removes and returns the mailbox's head, and whether one existed.
func (p *Process) Dequeue() (value.Value, bool) {
	if len(p.mailbox) == 0 {
		return value.Undefined, false
	}
	msg := p.mailbox[0]
	p.mailbox = p.mailbox[1:]
	return msg, true
}

// HasMail reports whether the mailbox is non-empty.
func (p *Process) HasMail() bool { return len(p.mailbox) > 0 }

// Link installs p -> other in p's own link set. Bidirectionality is the
// caller's responsibility (spec §4.4, Link is symmetric): call Link on
// both processes.
func (p *Process) Link(other int64) {
	if p.Links == nil {
		p.Links = make(map[int64]struct{})
	}
	p.Links[other] = struct{}{}
}
