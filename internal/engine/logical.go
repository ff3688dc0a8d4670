package engine

import (
	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

// execLogical implements And/Or on truthiness, writing a Boolean (spec §4.1).
func (e *Engine) execLogical(frame *process.Frame, inst *opcode.Instruction) {
	a := frame.Get(inst.A).Truthy()
	b := frame.Get(inst.B).Truthy()
	switch inst.Op {
	case opcode.OpAnd:
		frame.Set(inst.Dst, value.Boolean(a && b))
	case opcode.OpOr:
		frame.Set(inst.Dst, value.Boolean(a || b))
	}
}
