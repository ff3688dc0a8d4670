package engine

import (
	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

// execArithmetic implements Add/Sub/Mul/Div. Non-number operands or
// divide-by-zero yield Undefined; no trap (spec §4.1, §7).
func (e *Engine) execArithmetic(frame *process.Frame, inst *opcode.Instruction) {
	a := frame.Get(inst.A)
	b := frame.Get(inst.B)
	if a.Kind != value.KindNumber || b.Kind != value.KindNumber {
		frame.Set(inst.Dst, value.Undefined)
		return
	}
	x, y := a.AsNumber(), b.AsNumber()
	switch inst.Op {
	case opcode.OpAdd:
		frame.Set(inst.Dst, value.Number(x+y))
	case opcode.OpSub:
		frame.Set(inst.Dst, value.Number(x-y))
	case opcode.OpMul:
		frame.Set(inst.Dst, value.Number(x*y))
	case opcode.OpDiv:
		if y == 0 {
			frame.Set(inst.Dst, value.Undefined)
			return
		}
		frame.Set(inst.Dst, value.Number(x/y))
	}
}
