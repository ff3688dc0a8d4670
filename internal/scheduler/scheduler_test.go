package scheduler

import (
	"testing"
	"time"

	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

// TestRunArithmeticScenario exercises spec §8 scenario S1 end-to-end through
// the real scheduler: (2 + 3) * 4 stored via Return, with no FFI or
// concurrency involved.
func TestRunArithmeticScenario(t *testing.T) {
	fn := &process.Function{
		Name:  "main",
		Arity: 0,
		Kind:  process.KindBytecode,
		Instructions: []*opcode.Instruction{
			{Op: opcode.OpLoadConst, Dst: 0, Const: value.Number(2)},
			{Op: opcode.OpLoadConst, Dst: 1, Const: value.Number(3)},
			{Op: opcode.OpAdd, Dst: 2, A: 0, B: 1},
			{Op: opcode.OpLoadConst, Dst: 3, Const: value.Number(4)},
			{Op: opcode.OpMul, Dst: 4, A: 2, B: 3},
			{Op: opcode.OpReturn, A: 4},
		},
	}

	s := New(nil)
	p := s.SpawnMain(fn, nil)
	s.Run()

	if p.Alive {
		t.Fatal("process must have exited after Return with an empty call stack")
	}
	if p.LastResult == nil || p.LastResult.AsNumber() != 20 {
		t.Fatalf("LastResult = %v, want 20", p.LastResult)
	}
}

// TestSendWakesWaitingProcess covers Send re-enqueuing a process parked on
// Receive with an empty mailbox (spec §4.1 Send/Receive, §4.4).
func TestSendWakesWaitingProcess(t *testing.T) {
	receiver := &process.Function{
		Name:  "receiver",
		Arity: 0,
		Kind:  process.KindBytecode,
		Instructions: []*opcode.Instruction{
			{Op: opcode.OpReceive, Dst: 0},
			{Op: opcode.OpReturn, A: 0},
		},
	}

	s := New(nil)
	p := s.SpawnMain(receiver, nil)

	// Run one slice: the process blocks on Receive with an empty mailbox.
	s.runSlice()
	if p.Status != process.WaitingForMessage {
		t.Fatalf("status after blocking receive = %v, want WaitingForMessage", p.Status)
	}

	s.DeliverSend(p, value.Number(42))
	if p.Status != process.Runnable {
		t.Fatal("DeliverSend must re-enqueue a WaitingForMessage process as Runnable")
	}

	s.Run()
	if p.LastResult == nil || p.LastResult.AsNumber() != 42 {
		t.Fatalf("LastResult = %v, want 42", p.LastResult)
	}
}

// TestLinkPropagatesExitToBothSides covers bidirectional Link plus
// propagateExit delivering TaggedEnum("exit", Tuple(pid, reason)) on a
// normal exit (spec §4.4, §4.1 Link).
func TestLinkPropagatesExitToBothSides(t *testing.T) {
	worker := &process.Function{
		Name:  "worker",
		Arity: 0,
		Kind:  process.KindBytecode,
		Instructions: []*opcode.Instruction{
			{Op: opcode.OpLoadConst, Dst: 0, Const: value.Unit},
			{Op: opcode.OpReturn, A: 0},
		},
	}
	watcher := &process.Function{
		Name:  "watcher",
		Arity: 0,
		Kind:  process.KindBytecode,
		Instructions: []*opcode.Instruction{
			{Op: opcode.OpReceive, Dst: 0},
			{Op: opcode.OpReturn, A: 0},
		},
	}

	s := New(nil)
	w := s.SpawnMain(watcher, nil)
	wk := s.Spawn(worker, nil)
	s.Link(w, wk)

	if _, ok := w.Links[wk.PID]; !ok {
		t.Error("Link must install the link on the watcher side")
	}
	if _, ok := wk.Links[w.PID]; !ok {
		t.Error("Link must install the link on the worker side too (bidirectional)")
	}

	s.Run()

	if w.LastResult == nil || w.LastResult.Kind != value.KindTaggedEnum || w.LastResult.TaggedTag() != "exit" {
		t.Fatalf("watcher LastResult = %v, want a TaggedEnum(\"exit\", ...)", w.LastResult)
	}
	pair := w.LastResult.TaggedInner().AsTuple()
	if len(pair) != 2 || pair[0].AsNumber() != float64(wk.PID) {
		t.Errorf("exit message pid = %v, want %d", pair, wk.PID)
	}
}

// TestLinkPropagatesExitOnError covers the Errored termination path: the
// reason atom in the exit message carries the failing process's FailureMsg.
func TestLinkPropagatesExitOnError(t *testing.T) {
	faulty := &process.Function{
		Name:         "faulty",
		Arity:        0,
		Kind:         process.KindBytecode,
		Instructions: []*opcode.Instruction{{Op: opcode.Op(250)}}, // unimplemented opcode faults
	}
	watcher := &process.Function{
		Name:  "watcher",
		Arity: 0,
		Kind:  process.KindBytecode,
		Instructions: []*opcode.Instruction{
			{Op: opcode.OpReceive, Dst: 0},
			{Op: opcode.OpReturn, A: 0},
		},
	}

	s := New(nil)
	w := s.SpawnMain(watcher, nil)
	f := s.Spawn(faulty, nil)
	s.Link(w, f)
	s.Run()

	if f.Alive {
		t.Fatal("the faulty process must have exited")
	}
	if w.LastResult == nil || w.LastResult.Kind != value.KindTaggedEnum || w.LastResult.TaggedTag() != "exit" {
		t.Fatalf("watcher LastResult = %v, want a TaggedEnum(\"exit\", ...)", w.LastResult)
	}
}

// TestReceiveWithTimeoutExpires covers ArmTimeout/resolveExpiredTimeouts: a
// Receive with no mail and a very small timeout resolves Undefined/false
// without the sender ever delivering a message (spec §4.1 ReceiveWithTimeout,
// §4.4).
func TestReceiveWithTimeoutExpires(t *testing.T) {
	fn := &process.Function{
		Name:  "waiter",
		Arity: 0,
		Kind:  process.KindBytecode,
		Instructions: []*opcode.Instruction{
			{Op: opcode.OpLoadConst, Dst: 2, Const: value.Number(1)},
			{Op: opcode.OpReceiveWithTimeout, Dst: 0, ResultB: 1, ValReg: 2},
			{Op: opcode.OpReturn, A: 1},
		},
	}

	s := New(nil)
	p := s.SpawnMain(fn, nil)
	start := time.Now()
	s.Run()
	if time.Since(start) > time.Second {
		t.Fatal("Run took far longer than the 1ms timeout should allow")
	}

	if p.LastResult == nil || p.LastResult.Kind != value.KindBoolean || p.LastResult.AsBoolean() {
		t.Fatalf("LastResult = %v, want false (timeout expired without mail)", p.LastResult)
	}
}

// TestEchoWithTransform covers spec §8 scenario S3: a sender spawns a worker,
// sends it a number, the worker doubles it and sends the result back.
func TestEchoWithTransform(t *testing.T) {
	doubler := &process.Function{
		Name:  "doubler",
		Arity: 0,
		Kind:  process.KindBytecode,
		Instructions: []*opcode.Instruction{
			{Op: opcode.OpReceive, Dst: 0},
			{Op: opcode.OpLoadConst, Dst: 1, Const: value.Number(2)},
			{Op: opcode.OpMul, Dst: 2, A: 0, B: 1},
			{Op: opcode.OpReturn, A: 2},
		},
	}

	s := New(nil)
	d := s.Spawn(doubler, nil)
	s.DeliverSend(d, value.Number(21))
	s.Run()

	if d.LastResult == nil || d.LastResult.AsNumber() != 42 {
		t.Fatalf("doubler LastResult = %v, want 42", d.LastResult)
	}
}

func TestSpawnAllocatesDistinctPIDs(t *testing.T) {
	fn := &process.Function{Name: "noop", Arity: 0, Kind: process.KindBytecode, Instructions: []*opcode.Instruction{{Op: opcode.OpReturn}}}
	s := New(nil)
	a := s.Spawn(fn, nil)
	b := s.Spawn(fn, nil)
	if a.PID == b.PID {
		t.Error("Spawn must allocate a distinct PID per process")
	}
}

func TestLiveProcessesCountsOnlyAlive(t *testing.T) {
	fn := &process.Function{Name: "noop", Arity: 0, Kind: process.KindBytecode, Instructions: []*opcode.Instruction{{Op: opcode.OpReturn}}}
	s := New(nil)
	s.SpawnMain(fn, nil)
	s.Run()
	if s.LiveProcesses() != 0 {
		t.Errorf("LiveProcesses() after the sole process exited = %v, want 0", s.LiveProcesses())
	}
}
