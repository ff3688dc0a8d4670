package process

import (
	"testing"

	"github.com/ion-lang/ion/internal/value"
)

func TestNewFrameLaysArgsIntoLowRegisters(t *testing.T) {
	fn := &Function{Arity: 2, ExtraRegs: 1}
	args := []value.Value{value.Number(10), value.Number(20)}
	f := NewFrame(fn, args)

	if len(f.Registers) != MinRegisters {
		t.Fatalf("TotalRegisters below MinRegisters must still allocate MinRegisters, got %d", len(f.Registers))
	}
	if f.Get(0).AsNumber() != 10 || f.Get(1).AsNumber() != 20 {
		t.Error("arguments must land in registers 0..arity in order")
	}
	if f.Get(2).Kind != value.KindUndefined {
		t.Error("registers beyond arity must be padded with Undefined")
	}
}

func TestFrameGetOutOfRangeReturnsUndefined(t *testing.T) {
	f := NewFrame(&Function{Arity: 0}, nil)
	if f.Get(9999).Kind != value.KindUndefined {
		t.Error("Get of an out-of-range register must yield Undefined, never panic")
	}
}

func TestFrameSetGrowsRegisters(t *testing.T) {
	f := NewFrame(&Function{Arity: 0}, nil)
	f.Set(uint32(len(f.Registers)+5), value.Number(1))
	if f.Get(uint32(len(f.Registers) - 1)).AsNumber() != 1 {
		t.Error("Set beyond the current register count must grow the frame")
	}
}

func TestNewClosureFrameLaysArgsFromRegisterZero(t *testing.T) {
	fn := &Function{Arity: 1}
	clo := &Closure{Function: fn, Env: map[string]value.Value{"x": value.Number(5)}}
	f := NewClosureFrame(clo, []value.Value{value.Number(7)})

	if f.Closure == nil {
		t.Fatal("NewClosureFrame must set f.Closure")
	}
	if f.Get(0).AsNumber() != 7 {
		t.Error("closure call convention must still place the argument in register 0")
	}
}

func TestProcessPushPopFrame(t *testing.T) {
	p := New(1, &Function{Arity: 0}, nil)
	if p.Depth() != 1 {
		t.Fatalf("Depth() after New = %d, want 1", p.Depth())
	}
	p.PushFrame(NewFrame(&Function{Arity: 0}, nil))
	if p.Depth() != 2 {
		t.Fatalf("Depth() after PushFrame = %d, want 2", p.Depth())
	}
	top := p.PopFrame()
	if top == nil || p.Depth() != 1 {
		t.Fatal("PopFrame must remove and return the top frame")
	}
}

func TestProcessPopFrameEmptyReturnsNil(t *testing.T) {
	p := &Process{}
	if f := p.PopFrame(); f != nil {
		t.Error("PopFrame on an empty call stack must return nil, not panic")
	}
}

func TestProcessMailboxFIFO(t *testing.T) {
	p := New(1, &Function{Arity: 0}, nil)
	p.Enqueue(value.Number(1))
	p.Enqueue(value.Number(2))

	first, ok := p.Dequeue()
	if !ok || first.AsNumber() != 1 {
		t.Fatalf("Dequeue() = (%v, %v), want (1, true) — mailbox must be FIFO", first, ok)
	}
	second, ok := p.Dequeue()
	if !ok || second.AsNumber() != 2 {
		t.Fatalf("Dequeue() = (%v, %v), want (2, true)", second, ok)
	}
	if _, ok := p.Dequeue(); ok {
		t.Error("Dequeue on an empty mailbox must report false")
	}
}

func TestProcessEnqueueClonesMessage(t *testing.T) {
	p := New(1, &Function{Arity: 0}, nil)
	arr := value.NewArray()
	tagged := value.TaggedEnumValue("wrap", arr)
	p.Enqueue(tagged)

	msg, _ := p.Dequeue()
	if msg.TaggedInner().Equal(tagged.TaggedInner()) != true {
		t.Error("cloned tagged-enum message must still compare equal to the original")
	}
}

func TestProcessLinkIsSymmetricOnlyWhenCalledOnBoth(t *testing.T) {
	a := New(1, &Function{Arity: 0}, nil)
	b := New(2, &Function{Arity: 0}, nil)
	a.Link(b.PID)
	if _, ok := a.Links[2]; !ok {
		t.Error("Link must record the target PID in the caller's own link set")
	}
	if _, ok := b.Links[1]; ok {
		t.Error("Link alone must not make the relationship bidirectional; that's the caller's job")
	}
}

func TestFunctionLabel(t *testing.T) {
	named := &Function{Name: "add", Arity: 2}
	if got := named.Label(); got != "add/2" {
		t.Errorf("Label() = %q, want %q", got, "add/2")
	}
	anon := &Function{Arity: 1}
	if got := anon.Label(); got != "<anonymous>/1" {
		t.Errorf("Label() = %q, want %q", got, "<anonymous>/1")
	}
}

func TestFunctionTotalRegistersLowerBound(t *testing.T) {
	fn := &Function{Arity: 1, ExtraRegs: 1}
	if got := fn.TotalRegisters(); got != MinRegisters {
		t.Errorf("TotalRegisters() = %d, want MinRegisters (%d) as the floor", got, MinRegisters)
	}
	fn2 := &Function{Arity: 20, ExtraRegs: 10}
	if got := fn2.TotalRegisters(); got != 30 {
		t.Errorf("TotalRegisters() = %d, want 30", got)
	}
}
