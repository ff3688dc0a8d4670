// Package scheduler implements the VM's run queue, process table, and
// reduction-budgeted round-robin loop: the single-threaded cooperative
// scheduler described in spec §4.4. It is the engine.World the execution
// engine calls back into for spawn, send, link, timeout, and FFI dispatch.
package scheduler

import (
	"time"

	"github.com/ion-lang/ion/internal/engine"
	"github.com/ion-lang/ion/internal/ffi"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
	"github.com/ion-lang/ion/internal/vmlog"
)

// DefaultReductionLimit is the per-process per-slice instruction budget
// (spec §4.4, §5).
const DefaultReductionLimit = 2000

// Scheduler owns the run queue, process table, and the single Engine that
// executes whichever process is currently at the head of the queue.
type Scheduler struct {
	Engine         *engine.Engine
	ReductionLimit int64
	Tracer         *vmlog.Tracer
	Registry       *ffi.Registry

	processes map[int64]*process.Process
	runQueue  []int64
	nextPID   int64
	passes    int64

	// current is the PID of the process Step is presently executing, as
	// reported by SelfPID.
	current int64

	timeouts map[int64]time.Time
}

// New constructs a Scheduler with an idle run queue and an empty process
// table. A nil registry falls back to ffi.NewBaseRegistry(os.Stdout,
// os.Stderr).
func New(registry *ffi.Registry) *Scheduler {
	if registry == nil {
		registry = ffi.NewBaseRegistry(nil, nil)
	}
	tracer := vmlog.New(nil)
	eng := engine.New()
	eng.Trace = tracer.Trace
	s := &Scheduler{
		Engine:         eng,
		ReductionLimit: DefaultReductionLimit,
		Tracer:         tracer,
		Registry:       registry,
		processes:      make(map[int64]*process.Process),
		timeouts:       make(map[int64]time.Time),
	}
	return s
}

// SetDebug toggles debug-mode tracing on the scheduler's Engine and
// Tracer together (spec §6, "Debug output").
func (s *Scheduler) SetDebug(enabled bool) {
	s.Engine.DebugMode = enabled
	s.Tracer.SetEnabled(enabled)
}

func (s *Scheduler) allocPID() int64 {
	s.nextPID++
	return s.nextPID
}

// Spawn implements engine.World.
func (s *Scheduler) Spawn(fn *process.Function, args []value.Value) *process.Process {
	pid := s.allocPID()
	p := process.New(pid, fn, args)
	s.processes[pid] = p
	s.runQueue = append(s.runQueue, pid)
	s.Tracer.Tracef("spawn process %d (%s)", pid, fn.Label())
	return p
}

// SpawnClosure implements engine.World.
func (s *Scheduler) SpawnClosure(clo *process.Closure, args []value.Value) *process.Process {
	pid := s.allocPID()
	p := process.NewFromClosure(pid, clo, args)
	s.processes[pid] = p
	s.runQueue = append(s.runQueue, pid)
	s.Tracer.Tracef("spawn process %d (%s)", pid, clo.Label())
	return p
}

// SpawnMain allocates the entry-point process without requiring the
// caller to build a Function by hand first; used by cmd/ion's `run`.
func (s *Scheduler) SpawnMain(fn *process.Function, args []value.Value) *process.Process {
	return s.Spawn(fn, args)
}

// Lookup implements engine.World.
func (s *Scheduler) Lookup(pid int64) (*process.Process, bool) {
	p, ok := s.processes[pid]
	return p, ok
}

// DeliverSend implements engine.World: fire-and-forget enqueue, waking a
// WaitingForMessage target by re-enqueuing its PID (spec §4.1 Send, §4.4).
func (s *Scheduler) DeliverSend(target *process.Process, msg value.Value) {
	if target == nil || !target.Alive {
		return
	}
	target.Enqueue(msg)
	s.Tracer.Tracef("send to process %d", target.PID)
	if target.Status == process.WaitingForMessage {
		target.Status = process.Runnable
		target.Wait = nil
		delete(s.timeouts, target.PID)
		s.runQueue = append(s.runQueue, target.PID)
		s.Tracer.Tracef("process %d woken by send", target.PID)
	}
}

// Link implements engine.World: idempotent, bidirectional (spec §4.1 Link).
func (s *Scheduler) Link(a, b *process.Process) {
	if a == nil || b == nil {
		return
	}
	a.Link(b.PID)
	b.Link(a.PID)
}

// ArmTimeout implements engine.World by recording a wall-clock deadline
// the Run loop polls on every pass (spec §4.4, §4.1 ReceiveWithTimeout).
func (s *Scheduler) ArmTimeout(proc *process.Process, msgReg, hitReg uint32, timeoutMs float64) {
	if timeoutMs < 0 {
		timeoutMs = 0
	}
	deadline := time.Now().Add(time.Duration(timeoutMs * float64(time.Millisecond)))
	s.timeouts[proc.PID] = deadline
	if proc.Wait != nil {
		proc.Wait.Deadline = deadline
	}
}

// SelfPID implements engine.World.
func (s *Scheduler) SelfPID() int64 { return s.current }

// LiveProcesses implements engine.World.
func (s *Scheduler) LiveProcesses() float64 {
	n := 0
	for _, p := range s.processes {
		if p.Alive {
			n++
		}
	}
	return float64(n)
}

// SchedulerPasses implements engine.World.
func (s *Scheduler) SchedulerPasses() float64 { return float64(s.passes) }

// ResolveStdlib implements engine.World.
func (s *Scheduler) ResolveStdlib(name string) (*process.Function, bool) {
	routine, ok := s.Registry.Lookup(name)
	if !ok {
		return nil, false
	}
	return ffi.FunctionHandle(routine), true
}

// CallFFI implements engine.World.
func (s *Scheduler) CallFFI(name string, args []value.Value) value.Value {
	return s.Registry.Dispatch(name, args)
}
