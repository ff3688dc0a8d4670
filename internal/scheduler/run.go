package scheduler

import (
	"time"

	"github.com/ion-lang/ion/internal/engine"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

// Run drains the run queue to completion: each pass pops the head PID,
// executes it for up to ReductionLimit reductions, and disposes of the
// result per spec §4.4. Run returns once the queue is empty and no
// process has an outstanding timeout; a sole timed-out process with
// nothing else runnable blocks the call until its deadline, matching the
// "times out without yielding to any other process" boundary in spec §8.
func (s *Scheduler) Run() {
	for {
		s.resolveExpiredTimeouts()

		if len(s.runQueue) == 0 {
			if len(s.timeouts) == 0 {
				return
			}
			s.sleepUntilNextTimeout()
			continue
		}

		s.runSlice()
	}
}

// runSlice executes one process for up to ReductionLimit reductions and
// disposes of the outcome (spec §4.4).
func (s *Scheduler) runSlice() {
	pid := s.runQueue[0]
	s.runQueue = s.runQueue[1:]

	p, ok := s.processes[pid]
	if !ok || !p.Alive {
		return
	}

	s.current = pid
	var outcome engine.Outcome
	budget := s.ReductionLimit
	for budget > 0 {
		outcome = s.Engine.Step(p, s)
		budget--
		if outcome != engine.Continue {
			break
		}
	}
	s.current = 0
	s.passes++

	switch outcome {
	case engine.Continue, engine.Yielded:
		s.runQueue = append(s.runQueue, pid)
	case engine.Blocked:
		// process.Status is already WaitingForMessage; Send or timeout
		// expiry is responsible for re-enqueuing it.
	case engine.Exited:
		s.propagateExit(p, value.Atom("normal"))
	case engine.Errored:
		s.propagateExit(p, value.Atom(p.FailureMsg))
	}
}

// propagateExit delivers TaggedEnum("exit", Tuple(pid, reason)) to every
// process linked to the one that just terminated, reusing Send's own
// wake-up path rather than force-killing (spec §4.4, §9 Open Question 1).
func (s *Scheduler) propagateExit(p *process.Process, reason value.Value) {
	msg := value.TaggedEnumValue("exit", value.Tuple(value.Number(float64(p.PID)), reason))
	for pid := range p.Links {
		target, ok := s.processes[pid]
		if !ok {
			continue
		}
		s.DeliverSend(target, msg)
	}
}

// resolveExpiredTimeouts resolves every ReceiveWithTimeout wait whose
// deadline has passed: writes Undefined/false into the stored registers,
// advances the frame past the (rewound) instruction, and re-enqueues the
// process without letting it re-dispatch the instruction (spec §4.4, §9).
func (s *Scheduler) resolveExpiredTimeouts() {
	now := time.Now()
	for pid, deadline := range s.timeouts {
		if now.Before(deadline) {
			continue
		}
		delete(s.timeouts, pid)

		p, ok := s.processes[pid]
		if !ok || !p.Alive {
			continue
		}
		frame := p.CurrentFrame()
		if frame != nil && p.Wait != nil {
			frame.Set(p.Wait.MsgReg, value.Undefined)
			frame.Set(p.Wait.HitReg, value.Boolean(false))
			frame.IP++
		}
		p.Status = process.Runnable
		p.Wait = nil
		s.runQueue = append(s.runQueue, pid)
		s.Tracer.Tracef("process %d timed out", pid)
	}
}

// sleepUntilNextTimeout blocks until the earliest armed deadline, since a
// single-threaded scheduler with nothing runnable has no other useful
// work to interleave (spec §8, ReceiveWithTimeout boundary behavior).
func (s *Scheduler) sleepUntilNextTimeout() {
	var earliest time.Time
	for _, deadline := range s.timeouts {
		if earliest.IsZero() || deadline.Before(earliest) {
			earliest = deadline
		}
	}
	if d := time.Until(earliest); d > 0 {
		time.Sleep(d)
	}
}
